// Package search is a client for the Tavily web search API.
//
// Three request shapes are offered: Search returns the full structured
// response, SearchContext returns a compact JSON document of sources sized
// for a prompt, and QNASearch returns a single short answer.
package search
