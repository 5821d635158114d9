package domain

import "strings"

// NormalizeSymbol lowercases a symbol key. Every public entry point into the
// price cache, chart store, and signal engine normalizes through this before
// any map lookup.
func NormalizeSymbol(symbol string) string {
	return strings.ToLower(strings.TrimSpace(symbol))
}
