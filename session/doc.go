// Package session remembers which assistant and thread a conversation key is
// bound to, so follow-up questions continue the same remote thread.
//
// Store is the contract; InMemoryStore is the process local backend. Other
// backends can be added in sub-packages without changing callers.
package session
