package main

import "os"

// isTerminal reports whether f looks like an interactive character device,
// used only to choose between a human-readable console log writer and plain
// JSON lines -- not a TTY-gated UI, so it doesn't warrant pulling in
// golang.org/x/term (see DESIGN.md).
func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
