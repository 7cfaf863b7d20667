// Package testutil contains helper builders and fakes used across tests to
// reduce boilerplate when constructing event sequences, in-memory streams and
// recording sinks. They are not intended for production usage.
package testutil
