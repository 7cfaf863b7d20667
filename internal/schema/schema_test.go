package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type searchArgs struct {
	Query string `json:"query" description:"What to search for"`
	Topic string `json:"topic,omitempty" enum:"general,news"`
	Days  *int   `json:"days"`
	skip  string
}

func TestFromStruct(t *testing.T) {
	s := FromStruct(searchArgs{})

	props, ok := s["properties"].(map[string]any)
	require.True(t, ok)
	assert.Len(t, props, 3)
	assert.Equal(t, map[string]any{"type": "string", "description": "What to search for"}, props["query"])
	assert.Equal(t, []string{"general", "news"}, props["topic"].(map[string]any)["enum"])
	assert.Equal(t, "integer", props["days"].(map[string]any)["type"])
	assert.Equal(t, []string{"query"}, s["required"])
}

func TestFromStruct_NonStruct(t *testing.T) {
	s := FromStruct(42)
	assert.Equal(t, "object", s["type"])
	assert.NotContains(t, s, "required")
}

func TestValidate(t *testing.T) {
	s := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"x":     map[string]any{"type": "integer"},
			"topic": map[string]any{"type": "string", "enum": []any{"general", "news"}},
		},
		"required": []any{"x"},
	}

	assert.NoError(t, Validate(map[string]any{"x": 5.0, "extra": true}, s))
	assert.NoError(t, Validate(map[string]any{"x": 5, "topic": "news"}, s))

	err := Validate(map[string]any{}, s)
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "x", vErr.Field)

	err = Validate(map[string]any{"x": "not-int"}, s)
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Message, "expected type integer")

	err = Validate(map[string]any{"x": 1.5}, s)
	assert.Error(t, err)

	err = Validate(map[string]any{"x": 1, "topic": "sports"}, s)
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "topic", vErr.Field)
}

func TestValidate_RequiredAsStringSlice(t *testing.T) {
	s := map[string]any{"required": []string{"q"}}
	assert.Error(t, Validate(map[string]any{}, s))
	assert.NoError(t, Validate(map[string]any{"q": "go"}, s))
}
