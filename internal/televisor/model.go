package televisor

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/rileyhilliard/televisor/internal/lifecycle"
)

// Bar sizing
const (
	DefaultBarWidth = 30
	MinBarWidth     = 10
	MaxBarWidth     = 60
)

// Publisher receives foreground/background changes from the terminal.
type Publisher interface {
	Publish(lifecycle.AppState)
}

// Options wires a Model to the rest of the program.
type Options struct {
	// Events delivers controller events. The model stops polling when it closes.
	Events <-chan lifecycle.Event
	// Transitions receives focus (active) and blur (background).
	Transitions Publisher
	// Refresh is called on the refresh key.
	Refresh  func()
	Endpoint string
	Title    string
}

// Model is the Bubble Tea model for the televisor display.
type Model struct {
	state   State
	display Display

	events      <-chan lifecycle.Event
	transitions Publisher
	refresh     func()
	endpoint    string
	title       string

	yieldBar     progress.Model
	processedBar progress.Model
	exportedBar  progress.Model

	help     help.Model
	showHelp bool
	width    int
	height   int
	quitting bool
}

// eventMsg carries one controller event into the update loop.
type eventMsg struct {
	event lifecycle.Event
}

// eventsClosedMsg signals that no more events will arrive.
type eventsClosedMsg struct{}

// NewModel creates the display model.
func NewModel(opts Options) Model {
	m := Model{
		events:       opts.Events,
		transitions:  opts.Transitions,
		refresh:      opts.Refresh,
		endpoint:     opts.Endpoint,
		title:        opts.Title,
		yieldBar:     newBar(),
		processedBar: newBar(),
		exportedBar:  newBar(),
		help:         help.New(),
	}
	m.display = Derive(m.state)
	m.syncBarColors()
	return m
}

func newBar() progress.Model {
	p := progress.New(
		progress.WithSolidFill(string(ColorCritical)),
		progress.WithWidth(DefaultBarWidth),
		progress.WithoutPercentage(),
		progress.WithSpringOptions(8, 0.8),
	)
	p.EmptyColor = string(ColorTrack)
	return p
}

// Init starts polling for controller events.
func (m Model) Init() tea.Cmd {
	return m.pollEventsCmd()
}

// Update handles messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if handled, cmd := m.handleKey(msg); handled {
			return m, cmd
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		w := barWidth(msg.Width)
		m.yieldBar.Width = w
		m.processedBar.Width = w
		m.exportedBar.Width = w

	case tea.FocusMsg:
		m.publish(lifecycle.StateActive)

	case tea.BlurMsg:
		m.publish(lifecycle.StateBackground)

	case eventMsg:
		m.state = m.state.Apply(msg.event)
		m.display = Derive(m.state)
		m.syncBarColors()
		return m, tea.Batch(m.animateBars(), m.pollEventsCmd())

	case eventsClosedMsg:
		m.events = nil

	case progress.FrameMsg:
		return m, m.updateBars(msg)
	}

	return m, nil
}

// View renders the display.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	return m.render()
}

// State returns the current display state.
func (m Model) State() State {
	return m.state
}

// Display returns the current derived values.
func (m Model) Display() Display {
	return m.display
}

func (m Model) publish(s lifecycle.AppState) {
	if m.transitions != nil {
		m.transitions.Publish(s)
	}
}

// pollEventsCmd waits for the next controller event.
func (m Model) pollEventsCmd() tea.Cmd {
	ch := m.events
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		e, ok := <-ch
		if !ok {
			return eventsClosedMsg{}
		}
		return eventMsg{event: e}
	}
}

// animateBars moves every bar toward its derived target.
func (m *Model) animateBars() tea.Cmd {
	return tea.Batch(
		m.yieldBar.SetPercent(m.display.Yield.Fraction()),
		m.processedBar.SetPercent(m.display.Processed.Fraction()),
		m.exportedBar.SetPercent(m.display.Exported.Fraction()),
	)
}

func (m *Model) updateBars(msg progress.FrameMsg) tea.Cmd {
	var cmds []tea.Cmd
	for _, bar := range []*progress.Model{&m.yieldBar, &m.processedBar, &m.exportedBar} {
		updated, cmd := bar.Update(msg)
		*bar = updated.(progress.Model)
		cmds = append(cmds, cmd)
	}
	return tea.Batch(cmds...)
}

func (m *Model) syncBarColors() {
	m.yieldBar.FullColor = string(TerminalColor(m.display.Yield.Color))
	m.processedBar.FullColor = string(TerminalColor(m.display.Processed.Color))
	m.exportedBar.FullColor = string(TerminalColor(m.display.Exported.Color))
}

// barWidth sizes the bars to fit the right-hand card.
func barWidth(termWidth int) int {
	w := termWidth/2 - 8
	switch {
	case w < MinBarWidth:
		return MinBarWidth
	case w > MaxBarWidth:
		return MaxBarWidth
	default:
		return w
	}
}
