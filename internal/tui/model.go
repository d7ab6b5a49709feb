// Package tui provides the Bubble Tea replay interface.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/faketype/internal/buffer"
	"github.com/verte-zerg/faketype/internal/model"
	"github.com/verte-zerg/faketype/internal/typing"
)

const frameInterval = 33 * time.Millisecond

type phase int

const (
	phasePick phase = iota
	phasePlay
	phaseDone
)

type frameMsg time.Time

var (
	textStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	cursorStyle = lipgloss.NewStyle().Reverse(true)
	titleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	footerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
)

// Options configures a replay.
type Options struct {
	Path       string
	Text       string
	Speed      model.SpeedConfig
	SkipPicker bool
}

// Model implements the Bubble Tea replay UI.
type Model struct {
	sched *typing.Scheduler
	doc   *buffer.Document
	sink  typing.Sink
	opts  Options

	phase  phase
	picker picker
	keys   keyMap
	help   help.Model
	view   viewport.Model

	sess      *typing.Session
	done      chan struct{}
	startedAt time.Time
	record    model.SessionRecord
	started   bool
	status    string
	err       error

	width  int
	height int
}

// NewModel constructs a replay model. sink receives the edits and must write
// through to doc, which is what gets rendered.
func NewModel(sched *typing.Scheduler, doc *buffer.Document, sink typing.Sink, opts Options) *Model {
	m := &Model{
		sched:  sched,
		doc:    doc,
		sink:   sink,
		opts:   opts,
		picker: newPicker(opts.Speed),
		keys:   newKeyMap(),
		help:   help.New(),
		view:   viewport.New(0, 0),
	}
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	if m.opts.SkipPicker {
		return m.startSession(m.opts.Speed)
	}
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		return m, nil
	case frameMsg:
		return m, m.onFrame()
	case tea.KeyMsg:
		switch m.phase {
		case phasePick:
			return m.updatePick(msg)
		case phasePlay:
			return m.updatePlay(msg)
		default:
			if key.Matches(msg, m.keys.Quit, m.keys.Confirm, m.keys.Cancel) {
				return m, tea.Quit
			}
			return m, nil
		}
	default:
		return m, nil
	}
}

func (m *Model) updatePick(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Faster):
		m.picker.move(-1)
	case key.Matches(msg, m.keys.Slower):
		m.picker.move(1)
	case key.Matches(msg, m.keys.FasterBig):
		m.picker.move(-10)
	case key.Matches(msg, m.keys.SlowerBig):
		m.picker.move(10)
	case key.Matches(msg, m.keys.Confirm):
		cfg := m.opts.Speed
		cfg.BaseDelayMs = m.picker.value
		return m, m.startSession(cfg)
	case key.Matches(msg, m.keys.Cancel):
		return m, m.startSession(m.opts.Speed)
	}
	return m, nil
}

func (m *Model) updatePlay(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Pause):
		if !m.sess.Pause() {
			m.sess.Resume()
		}
		m.refresh()
		return m, nil
	case key.Matches(msg, m.keys.Restore):
		m.restore()
		return m, nil
	case key.Matches(msg, m.keys.Quit):
		m.restore()
		return m, tea.Quit
	}
	var cmd tea.Cmd
	m.view, cmd = m.view.Update(msg)
	return m, cmd
}

func (m *Model) startSession(cfg model.SpeedConfig) tea.Cmd {
	done := make(chan struct{})
	sess, err := m.sched.Start(m.opts.Text, cfg, m.sink, func() { close(done) })
	if err != nil {
		m.err = err
		m.phase = phaseDone
		m.status = fmt.Sprintf("Cannot start: %v", err)
		return tea.Quit
	}
	m.sess = sess
	m.done = done
	m.startedAt = time.Now()
	m.started = true
	m.phase = phasePlay
	m.layout()
	return frameCmd()
}

func (m *Model) onFrame() tea.Cmd {
	if m.phase != phasePlay {
		return nil
	}
	select {
	case <-m.done:
		m.finish(model.OutcomeCompleted, "Typing complete")
		return nil
	default:
	}
	m.refresh()
	return frameCmd()
}

func (m *Model) restore() {
	if m.sess.Abort(m.sink) {
		m.finish(model.OutcomeAborted, "Original content restored")
		return
	}
	if m.sess.State() == typing.Completed {
		m.finish(model.OutcomeCompleted, "Typing complete")
	}
}

func (m *Model) finish(outcome model.Outcome, status string) {
	cfg := m.sess.Config()
	m.record = model.SessionRecord{
		StartedAt:     m.startedAt,
		EndedAt:       time.Now(),
		Path:          m.opts.Path,
		TotalChars:    m.sess.Len(),
		EmittedChars:  m.sess.Cursor(),
		BaseDelayMs:   cfg.BaseDelayMs,
		JitterEnabled: cfg.JitterEnabled,
		JitterPercent: cfg.JitterPercent,
		Outcome:       outcome,
	}
	m.phase = phaseDone
	m.status = status
	m.refresh()
}

// Record returns the finished session, if one was started.
func (m *Model) Record() (model.SessionRecord, bool) {
	return m.record, m.started && m.phase == phaseDone
}

// Err returns the error that prevented the session from starting.
func (m *Model) Err() error {
	return m.err
}

func (m *Model) layout() {
	if m.width == 0 || m.height == 0 {
		return
	}
	m.view.Width = m.width
	bodyHeight := m.height - 3
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	m.view.Height = bodyHeight
	m.help.Width = m.width
	m.refresh()
}

func (m *Model) refresh() {
	if m.phase == phasePick {
		return
	}
	runes, caret := m.doc.Snapshot()
	if m.phase == phaseDone {
		caret = -1
	}
	content, caretLine := wrapStyledRunes(buildStyledRunes(runes, caret), m.view.Width)
	m.view.SetContent(content)
	if caretLine < 0 || m.view.Height <= 0 {
		return
	}
	if caretLine >= m.view.YOffset+m.view.Height {
		m.view.SetYOffset(caretLine - m.view.Height + 1)
	} else if caretLine < m.view.YOffset {
		m.view.SetYOffset(caretLine)
	}
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.phase == phasePick {
		body := m.picker.View() + "\n\n" + m.help.ShortHelpView(m.keys.pickHelp())
		if m.width == 0 || m.height == 0 {
			return body
		}
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, body)
	}
	lines := []string{m.view.View(), m.renderStatus(), m.renderFooter()}
	var bindings []key.Binding
	switch m.phase {
	case phasePlay:
		bindings = m.keys.playHelp(m.sess.State() == typing.Paused)
	default:
		bindings = m.keys.doneHelp()
	}
	lines = append(lines, m.help.ShortHelpView(bindings))
	return strings.Join(lines, "\n")
}

func (m *Model) renderStatus() string {
	if m.err != nil {
		return errorStyle.Render(m.status)
	}
	return statusStyle.Render(m.status)
}

func (m *Model) renderFooter() string {
	if m.sess == nil {
		return ""
	}
	cfg := m.sess.Config()
	progress := int(m.sess.Progress() * 100)
	segments := []string{
		fmt.Sprintf("Progress %d%%", progress),
		m.sess.State().String(),
		fmt.Sprintf("%d ms/char", cfg.BaseDelayMs),
	}
	if cfg.JitterEnabled {
		segments = append(segments, fmt.Sprintf("jitter ±%d%%", cfg.JitterPercent))
	}
	if m.opts.Path != "" {
		segments = append(segments, m.opts.Path)
	}
	return footerStyle.Render(strings.Join(segments, "  "))
}

func frameCmd() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}
