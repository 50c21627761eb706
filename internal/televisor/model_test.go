package televisor

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rileyhilliard/televisor/internal/feed"
	"github.com/rileyhilliard/televisor/internal/lifecycle"
)

type recordingPublisher struct {
	states []lifecycle.AppState
}

func (p *recordingPublisher) Publish(s lifecycle.AppState) {
	p.states = append(p.states, s)
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(Model)
	require.True(t, ok)
	return nm, cmd
}

func TestNewModel(t *testing.T) {
	m := NewModel(Options{Endpoint: "http://tv:3000", Title: "Línea 1"})

	assert.Equal(t, "00:00", m.Display().Stopwatch)
	assert.Equal(t, State{}, m.State())
	assert.Nil(t, m.Init(), "no event channel, nothing to poll")
}

func TestModel_PollsEvents(t *testing.T) {
	events := make(chan lifecycle.Event, 1)
	m := NewModel(Options{Events: events})

	cmd := m.Init()
	require.NotNil(t, cmd)

	events <- lifecycle.Tick{Elapsed: 5}
	msg := cmd()
	require.IsType(t, eventMsg{}, msg)

	m, cmd = update(t, m, msg)
	assert.Equal(t, 5, m.State().Elapsed)
	assert.Equal(t, "00:05", m.Display().Stopwatch)
	assert.NotNil(t, cmd, "keeps polling and animating")

	close(events)
	m, _ = update(t, m, eventsClosedMsg{})
	assert.Nil(t, m.pollEventsCmd())
}

func TestModel_EventsUpdateDisplay(t *testing.T) {
	m := NewModel(Options{})

	m, _ = update(t, m, eventMsg{event: primary("p1", "Limon")})
	m, _ = update(t, m, eventMsg{event: site("p1", 95)})
	m, _ = update(t, m, eventMsg{event: lifecycle.ThroughputUpdated{Sample: feed.Sample{Processed: 80, Exported: 20}}})

	d := m.Display()
	assert.Equal(t, FruitLemon, d.Fruit)
	assert.Equal(t, ColorGood, d.Yield.Color)
	assert.Equal(t, "80 kg", d.Processed.Label)
	assert.Equal(t, string(ColorHealthy), m.yieldBar.FullColor)
	assert.Equal(t, string(ColorCritical), m.exportedBar.FullColor)
}

func TestModel_FocusPublishesTransitions(t *testing.T) {
	pub := &recordingPublisher{}
	m := NewModel(Options{Transitions: pub})

	m, _ = update(t, m, tea.FocusMsg{})
	m, _ = update(t, m, tea.BlurMsg{})
	_, _ = update(t, m, tea.FocusMsg{})

	assert.Equal(t, []lifecycle.AppState{
		lifecycle.StateActive,
		lifecycle.StateBackground,
		lifecycle.StateActive,
	}, pub.states)
}

func TestModel_Keys(t *testing.T) {
	refreshed := 0
	m := NewModel(Options{Refresh: func() { refreshed++ }})

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	assert.Equal(t, 1, refreshed)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("?")})
	assert.True(t, m.showHelp)
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("?")})
	assert.False(t, m.showHelp)

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	assert.True(t, m.quitting)
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Empty(t, m.View())
}

func TestModel_WindowSizeResizesBars(t *testing.T) {
	m := NewModel(Options{})

	m, _ = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})
	assert.Equal(t, 42, m.yieldBar.Width)

	m, _ = update(t, m, tea.WindowSizeMsg{Width: 20, Height: 30})
	assert.Equal(t, MinBarWidth, m.processedBar.Width)

	m, _ = update(t, m, tea.WindowSizeMsg{Width: 400, Height: 30})
	assert.Equal(t, MaxBarWidth, m.exportedBar.Width)
}

func TestModel_View(t *testing.T) {
	m := NewModel(Options{Endpoint: "http://tv:3000", Title: "Línea 1"})
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	m, _ = update(t, m, eventMsg{event: primary("p1", "Naranja")})
	m, _ = update(t, m, eventMsg{event: site("p1", 82)})
	m, _ = update(t, m, eventMsg{event: lifecycle.ThroughputUpdated{Sample: feed.Sample{Processed: 64, Exported: 31}}})
	m, _ = update(t, m, eventMsg{event: lifecycle.Tick{Elapsed: 125}})

	view := m.View()
	for _, want := range []string{
		"Línea 1",
		"02:05",
		"🍊",
		"ENF:",
		"EF1-1",
		"Nombre:",
		"Finca",
		"Kilos Procesados:",
		"Rendimiento:",
		"82%",
		"64 kg",
		"31 kg",
		"http://tv:3000",
		"getLotes ok",
	} {
		assert.True(t, strings.Contains(view, want), "view should contain %q", want)
	}
}

func TestModel_ViewWithoutData(t *testing.T) {
	m := NewModel(Options{})
	view := m.View()

	assert.Contains(t, view, "00:00")
	assert.Contains(t, view, "0%")
	assert.Contains(t, view, "0 kg")
}

func TestBarWidth(t *testing.T) {
	assert.Equal(t, MinBarWidth, barWidth(0))
	assert.Equal(t, 52, barWidth(120))
	assert.Equal(t, MaxBarWidth, barWidth(1000))
}
