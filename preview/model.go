// Package preview plays a scene in the terminal.
package preview

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matt-g-everett/ledahead/frame"
	"github.com/matt-g-everett/ledahead/prerender"
	"github.com/matt-g-everett/ledahead/stream"
)

// seekStep is how far left/right move playback.
const seekStep = 10

// FrameReadyMsg reports a frame rendered in the background.
type FrameReadyMsg prerender.FrameReady

// TickMsg is the paint tick.
type TickMsg time.Time

// Model is the Bubble Tea model for a scene preview.
type Model struct {
	player   *stream.Player
	events   <-chan prerender.FrameReady
	interval time.Duration
	limit    int

	frame   *frame.Frame
	shown   int
	pending bool
	width   int
	done    bool
}

// NewModel creates a Model painting p every interval. A positive limit
// quits after that many frames.
func NewModel(p *stream.Player, events <-chan prerender.FrameReady, interval time.Duration, limit int) Model {
	return Model{
		player:   p,
		events:   events,
		interval: interval,
		limit:    limit,
		width:    80,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.tick(), m.waitForFrame())
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func (m Model) waitForFrame() tea.Cmd {
	if m.events == nil {
		return nil
	}
	events := m.events
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return nil
		}
		return FrameReadyMsg(ev)
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case TickMsg:
		m = m.paint()
		if m.done {
			return m, tea.Quit
		}
		return m, m.tick()

	case FrameReadyMsg:
		if m.pending && msg.Handle == m.player.Handle() {
			m = m.paint()
			if m.done {
				return m, tea.Quit
			}
		}
		return m, m.waitForFrame()

	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.done = true
			return m, tea.Quit
		case "r":
			dir := prerender.Reverse
			if m.player.Direction() == prerender.Reverse {
				dir = prerender.Forward
			}
			m.player.SetDirection(dir)
		case "left":
			m.player.Seek(m.player.Position() - seekStep)
		case "right":
			m.player.Seek(m.player.Position() + seekStep)
		}
	}

	return m, nil
}

// paint shows the frame at the play position if it has been rendered.
func (m Model) paint() Model {
	f, ok := m.player.Next()
	if !ok {
		m.pending = !m.player.Done()
		if m.player.Done() {
			m.done = true
		}
		return m
	}
	m.pending = false
	m.frame = f
	m.shown++
	if m.limit > 0 && m.shown >= m.limit {
		m.done = true
	}
	return m
}

var titleStyle = lipgloss.NewStyle().Bold(true)
var helpStyle = lipgloss.NewStyle().Faint(true)

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.player.Name()))
	b.WriteString(helpStyle.Render(statusLine(m.player, m.shown)))
	b.WriteString("\n\n")

	if m.frame == nil {
		b.WriteString("rendering...\n")
	} else {
		b.WriteString(Strip(m.frame, m.width))
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("q quit, r reverse, left/right seek"))
	b.WriteString("\n")
	return b.String()
}

// Strip renders f as coloured blocks wrapped at width cells.
func Strip(f *frame.Frame, width int) string {
	if width <= 0 {
		width = 80
	}

	var b strings.Builder
	for i := 0; i < f.Len(); i++ {
		c := f.Pixel(i).Clamped()
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(c.Hex())).Render("█"))
		if (i+1)%width == 0 || i == f.Len()-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}
