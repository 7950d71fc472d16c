package main

import (
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"peeches/assets"
	"peeches/clipboard"
	"peeches/history"
	"peeches/log"
	"peeches/loop"
	"peeches/overlay"
	"peeches/state"
	"peeches/transcript"
)

// Layout of the fixed rows above the history pane.
const (
	headerRows = 1
	liveTop    = headerRows
	liveRows   = 4 // border, original, translated, border
	entryRows  = 3 // original, translated, gap
)

type drainMsg struct{}

// teaLoop runs loop callbacks inside the bubbletea update loop. Post never
// blocks: callbacks queue up and at most one drainMsg is in flight.
type teaLoop struct {
	mu       sync.Mutex
	program  *tea.Program
	queue    []func()
	signaled bool
}

func (l *teaLoop) attach(p *tea.Program) {
	l.mu.Lock()
	l.program = p
	wake := l.wake()
	l.mu.Unlock()
	if wake != nil {
		go wake.Send(drainMsg{})
	}
}

func (l *teaLoop) Post(f func()) {
	l.mu.Lock()
	l.queue = append(l.queue, f)
	wake := l.wake()
	l.mu.Unlock()
	if wake != nil {
		go wake.Send(drainMsg{})
	}
}

// wake returns the program to signal, or nil when a drain is already
// pending. Callers hold mu.
func (l *teaLoop) wake() *tea.Program {
	if l.signaled || l.program == nil || len(l.queue) == 0 {
		return nil
	}
	l.signaled = true
	return l.program
}

func (l *teaLoop) AfterFunc(d time.Duration, f func()) loop.Timer {
	return time.AfterFunc(d, func() { l.Post(f) })
}

func (l *teaLoop) Go(work func() error, done func(error)) {
	go func() {
		err := loop.Guard(work)
		l.Post(func() { done(err) })
	}()
}

// drain runs everything queued, including callbacks posted while draining.
func (l *teaLoop) drain() {
	for {
		l.mu.Lock()
		batch := l.queue
		l.queue = nil
		if len(batch) == 0 {
			l.signaled = false
			l.mu.Unlock()
			return
		}
		l.mu.Unlock()
		for _, f := range batch {
			loop.Safe(f)
		}
	}
}

var (
	recStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	dimStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	helpStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("239"))
	titleStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("246"))
	okStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	originalStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	translatedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	highlightStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("226")).Bold(true)
	liveBoxStyle    = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("238")).
			Padding(0, 1)
	hoverBg = lipgloss.Color("236")
)

type tuiModel struct {
	loop    *teaLoop
	session *overlay.Session
	snap    overlay.Snapshot

	pane viewport.Model
	bar  progress.Model

	width, height int
	cursor        int // selected asset in the models pane
	notice        string
}

// NewTUIProgram wires the session to a bubbletea program. The session must
// have been built on l.
func NewTUIProgram(l *teaLoop, s *overlay.Session) *tea.Program {
	m := &tuiModel{
		loop:    l,
		session: s,
		pane:    viewport.New(0, 0),
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithWidth(20), progress.WithoutPercentage()),
	}
	m.pane.MouseWheelEnabled = false
	s.OnChange(m.refresh)
	s.OnScrollTo(m.scrollTo)
	m.snap = s.Snapshot()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseAllMotion())
	l.attach(p)
	return p
}

func (m *tuiModel) Init() tea.Cmd {
	return tea.SetWindowTitle("peeches")
}

func (m *tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case drainMsg:
		m.loop.drain()

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()

	case tea.MouseMsg:
		m.mouse(msg)

	case tea.KeyMsg:
		return m, m.key(msg)
	}
	return m, nil
}

func (m *tuiModel) key(msg tea.KeyMsg) tea.Cmd {
	ui := m.snap.UI
	switch msg.String() {
	case "ctrl+c", "q":
		return tea.Quit
	case "r", " ":
		m.session.ToggleRecording()
	case "p":
		m.session.Dispatch(state.TogglePin{})
	case "h":
		m.session.Dispatch(state.ToggleHistory{})
	case "s":
		m.session.Dispatch(state.SetSettingsOpen{On: !ui.SettingsOpen})
	case "esc":
		m.session.Dispatch(state.SetSettingsOpen{On: false})
	case "x":
		m.session.ClearHistory()
	case "c":
		m.copyLive()
	case "enter", "d":
		if ui.SettingsOpen {
			m.downloadSelected()
		}
	case "up", "k":
		if ui.SettingsOpen {
			m.moveCursor(-1)
		} else {
			m.scroll(func() { m.pane.LineUp(1) })
		}
	case "down", "j":
		if ui.SettingsOpen {
			m.moveCursor(1)
		} else {
			m.scroll(func() { m.pane.LineDown(1) })
		}
	case "pgup":
		m.scroll(func() { m.pane.HalfViewUp() })
	case "pgdown":
		m.scroll(func() { m.pane.HalfViewDown() })
	case "home":
		m.scroll(func() { m.pane.GotoTop() })
	case "end":
		m.scroll(func() { m.pane.GotoBottom() })
	}
	return nil
}

func (m *tuiModel) mouse(msg tea.MouseMsg) {
	switch {
	case msg.Button == tea.MouseButtonWheelUp:
		m.scroll(func() { m.pane.LineUp(entryRows) })
	case msg.Button == tea.MouseButtonWheelDown:
		m.scroll(func() { m.pane.LineDown(entryRows) })
	case msg.Action == tea.MouseActionMotion:
		over := msg.Y >= liveTop && msg.Y < liveTop+liveRows
		m.session.Dispatch(state.SetHovered{On: over})
	}
}

// scroll applies a user scroll to the history pane and reports the
// resulting geometry to the follow machine.
func (m *tuiModel) scroll(move func()) {
	if !m.snap.UI.HistoryOpen {
		return
	}
	move()
	m.session.Scroll(history.Viewport{
		ScrollTop:    m.pane.YOffset,
		ScrollHeight: m.pane.TotalLineCount(),
		ClientHeight: m.pane.Height,
	})
}

func (m *tuiModel) scrollTo(index int) {
	m.pane.SetYOffset(history.CenterOffset(index*entryRows, entryRows, m.pane.Height))
}

func (m *tuiModel) moveCursor(delta int) {
	n := len(m.snap.Assets)
	if n == 0 {
		return
	}
	m.cursor = (m.cursor + delta + n) % n
}

func (m *tuiModel) downloadSelected() {
	if m.cursor >= len(m.snap.Assets) {
		return
	}
	a := m.snap.Assets[m.cursor]
	if err := m.session.Download(a.FileName); err != nil {
		log.Errorf("download %s: %v", a.FileName, err)
		m.notice = err.Error()
	}
}

func (m *tuiModel) copyLive() {
	ev := transcript.Event{OriginalText: m.snap.UI.OriginalText, TranslatedText: m.snap.UI.TranslatedText}
	if !transcript.Normalize(ev) {
		m.notice = "nothing to copy"
		return
	}
	text := clipboard.Caption(ev.OriginalText, ev.TranslatedText)
	m.loop.Go(func() error {
		return clipboard.Copy(text)
	}, func(err error) {
		if err != nil {
			log.Warnf("copy to clipboard: %v", err)
			m.notice = "copy failed"
			return
		}
		m.notice = "✓ copied"
	})
}

// refresh runs on the loop whenever the session changes.
func (m *tuiModel) refresh() {
	m.snap = m.session.Snapshot()
	if m.cursor >= len(m.snap.Assets) {
		m.cursor = max(len(m.snap.Assets)-1, 0)
	}
	m.layout()
	m.pane.SetContent(m.renderHistory())
}

func (m *tuiModel) layout() {
	h := m.height - headerRows - liveRows - 2 // history title and help line
	if m.snap.UI.SettingsOpen {
		h -= len(m.snap.Assets) + 2
	}
	m.pane.Width = max(m.width, 20)
	m.pane.Height = max(h, entryRows)
}

// renderHistory lays out entryRows rows per entry so entry i starts at row
// i*entryRows.
func (m *tuiModel) renderHistory() string {
	if len(m.snap.History) == 0 {
		return dimStyle.Render("No history yet")
	}
	width := max(m.pane.Width-2, 10)
	var b strings.Builder
	for i, e := range m.snap.History {
		if i > 0 {
			b.WriteString("\n")
		}
		marker, orig := "  ", originalStyle
		if i == m.snap.Highlighted {
			marker, orig = "▌ ", highlightStyle
		}
		b.WriteString(marker + orig.MaxWidth(width).Render(e.OriginalText) + "\n")
		b.WriteString("  " + translatedStyle.MaxWidth(width).Render(e.TranslatedText) + "\n")
	}
	return b.String()
}

func (m *tuiModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	rows := []string{m.header(), m.live()}
	if m.snap.UI.HistoryOpen {
		title := fmt.Sprintf("History (%d) · %s", len(m.snap.History), m.snap.Mode)
		rows = append(rows, titleStyle.Render(title), m.pane.View())
	}
	if m.snap.UI.SettingsOpen {
		rows = append(rows, m.models())
	}
	rows = append(rows, helpStyle.Render("r record · p pin · h history · s models · x clear · c copy · q quit"))
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (m *tuiModel) header() string {
	ui := m.snap.UI
	parts := []string{dimStyle.Render("○ STANDBY")}
	if ui.Recording {
		parts[0] = recStyle.Render("● LIVE")
	}
	if ui.Pinned {
		parts = append(parts, dimStyle.Render("pinned"))
	}
	if m.snap.Downloading {
		parts = append(parts, dimStyle.Render("downloading models"))
	}
	if hasClass(m.snap.Classes, "show-buttons") {
		parts = append(parts, helpStyle.Render("[p] pin  [c] copy"))
	}
	if m.notice != "" {
		parts = append(parts, okStyle.Render(m.notice))
	}
	parts = append(parts, helpStyle.Render("peeches "+version))
	return strings.Join(parts, "  ")
}

func (m *tuiModel) live() string {
	box := liveBoxStyle.Width(max(m.width-2, 10))
	if hasClass(m.snap.Classes, "show-hover-bg") {
		box = box.Background(hoverBg)
	}
	inner := max(m.width-6, 10)
	text := originalStyle.MaxWidth(inner).Render(m.snap.OriginalText) + "\n" +
		translatedStyle.MaxWidth(inner).Render(m.snap.TranslatedText)
	return box.Render(text)
}

func (m *tuiModel) models() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Models") + "\n")
	for i, a := range m.snap.Assets {
		cursor := "  "
		if i == m.cursor {
			cursor = "> "
		}
		b.WriteString(cursor + fmt.Sprintf("%-28s", a.Name) + " " + m.assetStatus(a) + "\n")
	}
	b.WriteString(helpStyle.Render("↑/↓ select · enter download · esc close"))
	return b.String()
}

func (m *tuiModel) assetStatus(a assets.Descriptor) string {
	switch a.Status {
	case assets.StatusDownloading:
		return m.bar.ViewAs(a.Progress/100) + fmt.Sprintf(" %5.1f%%", a.Progress)
	case assets.StatusCompleted:
		return okStyle.Render("✓ ready")
	case assets.StatusError:
		return errStyle.Render("✗ " + a.Error)
	}
	return dimStyle.Render("not downloaded")
}

func hasClass(classes, name string) bool {
	return slices.Contains(strings.Fields(classes), name)
}
