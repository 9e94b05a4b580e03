package cli

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/keygraph/pkg/dataset"
	"github.com/matzehuels/keygraph/pkg/elements"
	"github.com/matzehuels/keygraph/pkg/errors"
	"github.com/matzehuels/keygraph/pkg/layout"
	"github.com/matzehuels/keygraph/pkg/session"
	"github.com/matzehuels/keygraph/pkg/surface"
)

// Player styles
var (
	playKeywordStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	playEdgeStyle    = lipgloss.NewStyle().Foreground(colorGray)
	playStateStyle   = lipgloss.NewStyle().Foreground(colorGreen)
	playErrorStyle   = lipgloss.NewStyle().Foreground(colorRed)
	playMapStyle     = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(colorDim)
)

// =============================================================================
// Messages
// =============================================================================

// frameMsg carries a canvas frame into the update loop.
type frameMsg surface.Frame

// closedMsg reports that the frame subscription ended.
type closedMsg struct{}

func waitFrame(frames <-chan surface.Frame) tea.Cmd {
	return func() tea.Msg {
		f, ok := <-frames
		if !ok {
			return closedMsg{}
		}
		return frameMsg(f)
	}
}

// =============================================================================
// PlayModel - Terminal presentation of one dataset
// =============================================================================

// PlayModel is the bubbletea model of the play command. It draws every
// canvas frame: visible keywords at their scaled positions, the visible
// relationships below, and the session state.
type PlayModel struct {
	ctx      context.Context
	lc       *session.Lifecycle
	canvas   *surface.Canvas
	ds       dataset.Dataset
	viewport layout.Config

	frames  <-chan surface.Frame
	frame   surface.Frame
	session *session.Handle
	err     error

	Width  int
	Height int
}

// NewPlayModel returns a model presenting ds on lc. frames must be a
// subscription to canvas.
func NewPlayModel(ctx context.Context, lc *session.Lifecycle, canvas *surface.Canvas, frames <-chan surface.Frame, ds dataset.Dataset, viewport layout.Config) PlayModel {
	return PlayModel{
		ctx:      ctx,
		lc:       lc,
		canvas:   canvas,
		frames:   frames,
		ds:       ds,
		viewport: viewport,
		Width:    80,
		Height:   24,
	}
}

func (m PlayModel) Init() tea.Cmd {
	return tea.Batch(m.start(), waitFrame(m.frames))
}

// sessionMsg reports the outcome of StartSession.
type sessionMsg struct {
	h   *session.Handle
	err error
}

func (m PlayModel) start() tea.Cmd {
	return func() tea.Msg {
		h, err := m.lc.StartSession(m.ctx, m.ds)
		return sessionMsg{h: h, err: err}
	}
}

func (m PlayModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "r":
			return m, m.start()
		case "s":
			m.lc.StopSession(m.session)
		}
	case tea.WindowSizeMsg:
		m.Width, m.Height = msg.Width, msg.Height
	case sessionMsg:
		m.session, m.err = msg.h, msg.err
	case frameMsg:
		m.frame = surface.Frame(msg)
		return m, waitFrame(m.frames)
	case closedMsg:
		return m, tea.Quit
	}
	return m, nil
}

func (m PlayModel) View() string {
	var b strings.Builder

	b.WriteString(styleTitle.Render("keygraph"))
	b.WriteString("  ")
	b.WriteString(m.status())
	b.WriteString("\n")
	b.WriteString(styleDim.Render("r restart  s stop  q quit"))
	b.WriteString("\n")

	g := m.canvas.Graph()
	if g == nil || g.IsEmpty() {
		b.WriteString("\n")
		b.WriteString(styleDim.Render("nothing to present"))
		return b.String()
	}

	b.WriteString(playMapStyle.Render(m.drawMap(g)))
	b.WriteString("\n")
	for _, e := range g.Edges {
		if !m.frame.IsVisible(e.ID) {
			continue
		}
		fmt.Fprintf(&b, "  %s %s %s  %s\n",
			labelOf(g, e.Source), playEdgeStyle.Render(iconArrow), labelOf(g, e.Target),
			playEdgeStyle.Render(e.Label))
	}
	return b.String()
}

func (m PlayModel) status() string {
	if m.err != nil {
		return playErrorStyle.Render(errors.UserMessage(m.err))
	}
	if m.session == nil {
		return styleDim.Render("starting")
	}
	state := string(m.session.State())
	if err := m.session.Err(); err != nil {
		return playErrorStyle.Render(state + ": " + errors.UserMessage(err))
	}

	g := m.session.Graph()
	var keywords, edges int
	for _, k := range g.Keywords {
		if m.frame.IsVisible(k.ID) {
			keywords++
		}
	}
	for _, e := range g.Edges {
		if m.frame.IsVisible(e.ID) {
			edges++
		}
	}
	return playStateStyle.Render(state) + styleDim.Render(fmt.Sprintf(
		" · %d/%d keywords · %d/%d relationships", keywords, len(g.Keywords), edges, len(g.Edges)))
}

// drawMap places the labels of visible keywords on a character grid that
// spans the layout viewport.
func (m PlayModel) drawMap(g *elements.Graph) string {
	cols := max(m.Width-2, 20)
	rows := max(m.Height-8-len(g.Edges), 5)

	grid := make([][]rune, rows)
	for i := range grid {
		grid[i] = []rune(strings.Repeat(" ", cols))
	}
	type label struct {
		row, col int
		text     string
	}
	var labels []label

	w, h := m.viewport.Width, m.viewport.Height
	if w <= 0 || h <= 0 {
		w, h = layout.DefaultWidth, layout.DefaultHeight
	}
	for _, k := range g.Keywords {
		if !m.frame.IsVisible(k.ID) {
			continue
		}
		p, ok := m.frame.Positions[k.ID]
		if !ok {
			continue
		}
		text := []rune(k.Label)
		if len(text) > cols {
			text = text[:cols]
		}
		row := clamp(int(p.Y/h*float64(rows)), 0, rows-1)
		col := clamp(int(p.X/w*float64(cols))-len(text)/2, 0, cols-len(text))
		copy(grid[row][col:], text)
		labels = append(labels, label{row, col, string(text)})
	}

	lines := make([]string, rows)
	for i, r := range grid {
		line := string(r)
		for _, l := range labels {
			if l.row == i {
				line = strings.Replace(line, l.text, playKeywordStyle.Render(l.text), 1)
			}
		}
		lines[i] = line
	}
	return strings.Join(lines, "\n")
}

func labelOf(g *elements.Graph, id string) string {
	if k, ok := g.Keyword(id); ok && k.Label != "" {
		return k.Label
	}
	return id
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
