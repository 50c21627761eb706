package televisor

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// render renders the complete display.
func (m Model) render() string {
	var b strings.Builder

	if m.title != "" {
		b.WriteString(TitleStyle.Render(m.title))
		b.WriteString("\n")
	}
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderCards())
	b.WriteString("\n")
	b.WriteString(m.renderFooter())

	if m.showHelp {
		b.WriteString("\n")
		b.WriteString(FooterStyle.Render(m.help.View(keys)))
	}
	return b.String()
}

// renderHeader renders the stopwatch on the left and the fruit card on the right.
func (m Model) renderHeader() string {
	stopwatch := StopwatchStyle.Render(m.display.Stopwatch)
	fruit := FruitCardStyle.Render(fruitLabel(m.display))

	gap := m.width - lipgloss.Width(stopwatch) - lipgloss.Width(fruit)
	if gap < 2 {
		gap = 2
	}
	spacer := strings.Repeat(" ", gap)
	return lipgloss.JoinHorizontal(lipgloss.Center, stopwatch, spacer, fruit)
}

func fruitLabel(d Display) string {
	if d.Fruit == FruitNone {
		if d.TipoFruta == "" {
			return ValueStyle.Render(UnknownDisplay)
		}
		return ValueStyle.Render(d.TipoFruta)
	}
	return d.Fruit.Icon() + " " + ValueStyle.Render(d.TipoFruta)
}

// renderCards renders the info card and the gauges card side by side.
func (m Model) renderCards() string {
	d := m.display

	info := strings.Join([]string{
		field("ENF:", d.ENF),
		field("Nombre:", d.SiteName),
		field("Kilos Procesados:", formatNumber(d.ProcessedKg)),
		field("Kilos Exportación:", formatNumber(d.ExportedKg)),
	}, "\n")

	gauges := strings.Join([]string{
		field("Rendimiento:", formatNumber(d.Rendimiento)),
		bar(m.yieldBar.View(), d.Yield),
		field("Kilos procesados Hora:", formatNumber(d.ProcessedKg)),
		bar(m.processedBar.View(), d.Processed),
		field("Kilos Exportación Hora:", formatNumber(d.ExportedKg)),
		bar(m.exportedBar.View(), d.Exported),
	}, "\n")

	return lipgloss.JoinHorizontal(lipgloss.Top, CardStyle.Render(info), CardStyle.Render(gauges))
}

func field(label, value string) string {
	return LabelStyle.Render(label) + " " + ValueStyle.Render(value)
}

func bar(view string, g Gauge) string {
	return view + " " + BarLabelStyle.Render(g.Label)
}

// renderFooter shows the endpoint, the last call and the last process notification.
func (m Model) renderFooter() string {
	parts := []string{}
	if m.endpoint != "" {
		parts = append(parts, m.endpoint)
	}
	if c := m.state.LastCall; c != nil {
		parts = append(parts, statusStyle(c).Render(describeCall(c)))
	}
	if n := m.state.LastNotice; n != nil {
		parts = append(parts, statusStyle(n).Render(describeCall(n)))
	}
	if m.state.FeedError != "" {
		parts = append(parts, StatusWarnStyle.Render("feed unavailable"))
	}
	if !m.showHelp {
		parts = append(parts, m.help.View(keys))
	}
	return FooterStyle.Render(strings.Join(parts, " · "))
}

func describeCall(c *CallStatus) string {
	return fmt.Sprintf("%s %s", c.Action, c.Status)
}
