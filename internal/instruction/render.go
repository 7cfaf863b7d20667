// Package instruction renders run instructions that reference per-user
// values, e.g. "Please address the user as {{.name}}.".
package instruction

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
)

// Render executes text as a text/template over vars. Text without template
// markers is returned unchanged. Referencing a missing key is an error.
func Render(text string, vars map[string]string) (string, error) {
	if !strings.Contains(text, "{{") {
		return text, nil
	}

	tmpl, err := template.New("instructions").
		Option("missingkey=error").
		Funcs(template.FuncMap{
			"default": func(def, val string) string {
				if val == "" {
					return def
				}
				return val
			},
			"upper": strings.ToUpper,
			"lower": strings.ToLower,
			"title": func(s string) string {
				if s == "" {
					return s
				}
				return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
			},
		}).
		Parse(text)
	if err != nil {
		return "", fmt.Errorf("parse instructions: %w", err)
	}

	data := make(map[string]string, len(vars))
	for k, v := range vars {
		data[k] = v
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render instructions: %w", err)
	}
	return buf.String(), nil
}
