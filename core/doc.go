// Package core provides the foundational domain types shared by every
// assistkit component. It defines:
//
//   - Event, a closed tagged union of incremental run notifications (text
//     blocks, tool calls, run lifecycle changes)
//   - OutputRecord, the tagged outputs carried by code interpreter deltas
//   - Stream, the push-driven Run Source contract consumed by dispatchers
//   - The error taxonomy surfaced by run sources and dispatchers
//
// Vendor adapters (runsource/openai, runsource/anthropic) translate their SDK
// events into these types so downstream code never branches per provider.
package core
