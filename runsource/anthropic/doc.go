// Package anthropic is a Run Source backed by the Anthropic Messages API.
//
// A Source sends one prompt per stream and translates the server-sent
// message events into core events, so the same dispatcher renders Claude
// responses and OpenAI assistant runs alike.
package anthropic
