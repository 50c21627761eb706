package televisor

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/rileyhilliard/televisor/internal/remote"
)

// Palette
const (
	ColorSurfaceBg     = lipgloss.Color("#000000")
	ColorBorder        = lipgloss.Color("#3A3A3A")
	ColorTextPrimary   = lipgloss.Color("#FFFFFF")
	ColorTextSecondary = lipgloss.Color("#B4B4B4")
	ColorTextMuted     = lipgloss.Color("#6B6B6B")
	ColorAccent        = lipgloss.Color("#FF8C00")
	ColorTrack         = lipgloss.Color("#F2F2F2")
	ColorWarning       = lipgloss.Color("#FFAA00")
	ColorCritical      = lipgloss.Color("#FF0000")
	ColorHealthy       = lipgloss.Color("#008000")
)

var (
	TitleStyle = lipgloss.NewStyle().
			Foreground(ColorAccent).
			Bold(true).
			Padding(0, 1)

	StopwatchStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorAccent).
			Foreground(ColorTextPrimary).
			Bold(true).
			Padding(0, 2)

	FruitCardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 2)

	CardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Background(ColorSurfaceBg).
			Padding(0, 1).
			MarginRight(1)

	LabelStyle = lipgloss.NewStyle().
			Foreground(ColorTextPrimary).
			Bold(true)

	ValueStyle = lipgloss.NewStyle().
			Foreground(ColorTextPrimary)

	BarLabelStyle = lipgloss.NewStyle().
			Foreground(ColorTextSecondary)

	FooterStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted).
			Padding(0, 1)

	StatusOKStyle = lipgloss.NewStyle().
			Foreground(ColorHealthy)

	StatusWarnStyle = lipgloss.NewStyle().
			Foreground(ColorWarning)

	StatusErrorStyle = lipgloss.NewStyle().
				Foreground(ColorCritical)
)

// TerminalColor maps the display's color names to terminal colors.
func TerminalColor(name string) lipgloss.Color {
	switch name {
	case ColorGood:
		return ColorHealthy
	case ColorYieldLow:
		return ColorCritical
	default:
		return lipgloss.Color(name)
	}
}

// statusStyle picks the footer style for a call status.
func statusStyle(c *CallStatus) lipgloss.Style {
	if c == nil {
		return FooterStyle
	}
	switch c.Status {
	case remote.StatusOK:
		return StatusOKStyle
	case remote.StatusTimeout:
		return StatusWarnStyle
	default:
		return StatusErrorStyle
	}
}
