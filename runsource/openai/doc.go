// Package openai provides a Run Source backed by the OpenAI Assistants API
// (beta threads and runs). A Session is constructed explicitly from a
// validated Config and then used to create assistants, threads and messages
// and to stream runs as core.Event sequences.
//
// Raw server-sent events are translated with gjson rather than through the
// SDK's typed unions, which keeps unknown vendor events forward compatible:
// they surface as core.UnknownEvent instead of failing the stream.
package openai
