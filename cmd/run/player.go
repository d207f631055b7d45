package main

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/wippyai/wasm-playhost/input"
	"github.com/wippyai/wasm-playhost/runtime"
)

const (
	statsInterval = 250 * time.Millisecond
	// keyRelease is how long after the last press (or auto-repeat) a key
	// counts as released.
	keyRelease = 150 * time.Millisecond
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB")).
			Width(12)

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type sessionDoneMsg struct{ err error }

type statsMsg runtime.Stats

type releaseMsg struct {
	code string
	gen  uint64
}

type heldKey struct {
	ev  input.Event
	gen uint64
}

// playerModel shows session stats and forwards keys to the module.
type playerModel struct {
	err     error
	ctx     context.Context
	p       *runtime.Platform
	cancel  context.CancelFunc
	result  chan error
	held    map[string]heldKey
	name    string
	lastKey string
	help    help.Model
	keys    playerKeys
	stats   runtime.Stats
	gen     uint64
	focused bool
	quit    bool
	done    bool
}

func newPlayerModel(ctx context.Context, p *runtime.Platform, name string) *playerModel {
	ctx, cancel := context.WithCancel(ctx)
	return &playerModel{
		ctx:     ctx,
		cancel:  cancel,
		result:  make(chan error, 1),
		p:       p,
		name:    name,
		held:    make(map[string]heldKey),
		help:    help.New(),
		keys:    defaultPlayerKeys(),
		focused: true,
	}
}

func (m *playerModel) Init() tea.Cmd {
	return tea.Batch(m.runSession, m.tickStats())
}

func (m *playerModel) runSession() tea.Msg {
	err := m.p.Run(m.ctx)
	m.result <- err
	return sessionDoneMsg{err: err}
}

func (m *playerModel) tickStats() tea.Cmd {
	return tea.Tick(statsInterval, func(time.Time) tea.Msg {
		return statsMsg(m.p.Stats())
	})
}

func (m *playerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quit = true
			m.cancel()
			return m, nil
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		case key.Matches(msg, m.keys.Focus):
			return m, m.setFocused(!m.focused)
		}
		return m, m.press(msg)

	case releaseMsg:
		h, ok := m.held[msg.code]
		if !ok || h.gen != msg.gen {
			return m, nil
		}
		delete(m.held, msg.code)
		_ = m.p.KeyUp(h.ev)
		return m, nil

	case tea.FocusMsg:
		return m, m.setFocused(true)

	case tea.BlurMsg:
		return m, m.setFocused(false)

	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		return m, nil

	case statsMsg:
		m.stats = runtime.Stats(msg)
		if m.done {
			return m, nil
		}
		return m, m.tickStats()

	case sessionDoneMsg:
		m.done = true
		m.err = msg.err
		m.stats = m.p.Stats()
		return m, tea.Quit
	}
	return m, nil
}

// press forwards a key-down. Auto-repeat refreshes the release deadline
// instead of sending another key-down.
func (m *playerModel) press(msg tea.KeyMsg) tea.Cmd {
	ev, ok := keyEvent(msg)
	if !ok || !m.focused {
		return nil
	}
	m.lastKey = msg.String()
	m.gen++
	if _, repeat := m.held[ev.Code]; !repeat {
		_ = m.p.KeyDown(ev)
	}
	m.held[ev.Code] = heldKey{ev: ev, gen: m.gen}

	code, gen := ev.Code, m.gen
	return tea.Tick(keyRelease, func(time.Time) tea.Msg {
		return releaseMsg{code: code, gen: gen}
	})
}

// setFocused forwards a focus change. The platform releases held keys on
// blur, so the player forgets them too.
func (m *playerModel) setFocused(focused bool) tea.Cmd {
	if m.focused == focused {
		return nil
	}
	m.focused = focused
	if !focused {
		clear(m.held)
	}
	_ = m.p.SetFocused(focused)
	return nil
}

func (m *playerModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("playhost"))
	b.WriteString(" ")
	b.WriteString(m.name)
	b.WriteString(dimStyle.Render("  session " + m.stats.Session))
	b.WriteString("\n\n")

	s := m.stats
	rows := [][2]string{
		{"state", s.Clock.State.String()},
		{"sim time", s.Clock.SimTime.Truncate(time.Millisecond).String()},
		{"frames", humanize.Comma(int64(s.Clock.Frames))},
		{"updates", humanize.Comma(int64(s.Clock.Updates))},
		{"alpha", fmt.Sprintf("%.2f", s.Clock.LastAlpha)},
		{"draws", humanize.Comma(int64(s.GPU.DrawCalls))},
		{"gpu memory", humanize.IBytes(uint64(s.GPU.BufferBytes))},
		{"gl objects", formatHandles(s.GPUHandle)},
		{"surfaces", fmt.Sprint(s.Surfaces)},
		{"audio", fmt.Sprintf("%d sounds, %d nodes", s.Sounds, s.Nodes)},
		{"operations", fmt.Sprintf("%s begun, %d pending", humanize.Comma(int64(s.Begun)), s.Pending)},
		{"log lines", humanize.Comma(int64(s.LogLines))},
		{"keys held", fmt.Sprint(s.HeldKeys)},
		{"last key", m.lastKey},
	}
	if !m.focused {
		rows = append(rows, [2]string{"input", "unfocused"})
	}

	var panel strings.Builder
	for i, r := range rows {
		if i > 0 {
			panel.WriteString("\n")
		}
		panel.WriteString(labelStyle.Render(r[0]))
		panel.WriteString(valueStyle.Render(r[1]))
	}
	b.WriteString(panelStyle.Render(panel.String()))
	b.WriteString("\n")

	if m.err != nil {
		b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteString("\n")
	}
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func formatHandles(live map[string]int) string {
	if len(live) == 0 {
		return "none"
	}
	kinds := make([]string, 0, len(live))
	for k := range live {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	parts := make([]string, len(kinds))
	for i, k := range kinds {
		parts[i] = fmt.Sprintf("%s %d", k, live[k])
	}
	return strings.Join(parts, ", ")
}

// runPlayer runs the session under the terminal player and returns the
// session's error. Quitting from the player is not an error.
func runPlayer(ctx context.Context, p *runtime.Platform, name string) error {
	m := newPlayerModel(ctx, p, name)
	defer m.cancel()

	prog := tea.NewProgram(m, tea.WithAltScreen(), tea.WithReportFocus(), tea.WithContext(ctx))
	_, progErr := prog.Run()

	// The program may exit first when ctx ends; wait for the session.
	m.cancel()
	var err error
	select {
	case err = <-m.result:
	case <-time.After(5 * time.Second):
		return errors.Join(progErr, errors.New("session did not stop"))
	}
	if m.quit && errors.Is(err, context.Canceled) {
		return nil
	}
	if err == nil && progErr != nil && !errors.Is(progErr, tea.ErrProgramKilled) {
		return progErr
	}
	return err
}
