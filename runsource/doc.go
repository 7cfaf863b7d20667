// Package runsource provides the shared machinery behind the vendor Run
// Sources: a goroutine-backed core.Stream that hands events to its consumer
// synchronously, and an adapter turning vendor SSE streams into raw JSON
// iterators that translators can walk with gjson.
//
// Vendor specific translation lives in the sub packages runsource/openai
// (Assistants API runs) and runsource/anthropic (Messages API streams).
package runsource
