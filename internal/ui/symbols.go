package ui

import "github.com/charmbracelet/lipgloss"

// Status symbols.
const (
	SymbolSuccess = "✓"
	SymbolFail    = "✗"
	SymbolPending = "○"
)

// Colors for the line widgets.
var (
	ColorSuccess = lipgloss.Color("#008000")
	ColorError   = lipgloss.Color("#FF0000")
	ColorMuted   = lipgloss.Color("#8A8A8A")
	ColorAccent  = lipgloss.Color("#F28C28")
)
