// Package analysis recovers function selectors, payability, mutability hints
// and event topics from EVM runtime bytecode without source or metadata.
//
// The scan is a single heuristic pass. Jump targets computed at runtime are
// invisible to it, so reachability (and every tag derived from it) covers
// only statically pushed destinations.
package analysis

// Constants for analysis operations
const (
	// HistorySize is the instruction lookback window the scanner needs:
	// the longest pattern is PUSH selector; DUP2; EQ; PUSH dest; JUMPI.
	HistorySize = 5

	// SelectorSize is the width of a function selector in bytes.
	SelectorSize = 4

	// TopicSize is the width of an event topic in bytes.
	TopicSize = 32
)
