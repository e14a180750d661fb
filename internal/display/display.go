// Package display provides the terminal cook mode using Bubble Tea.
//
// The [UI] keeps a status line and an input prompt pinned to the bottom
// of the terminal. Everything else is printed above them through
// Program.Println, so narration, alerts and echoes from different
// goroutines never garble the screen.
package display

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hammamikhairi/souschef/internal/domain"
)

// ── Palette ──────────────────────────────────────────────────────

const (
	colorZinc100 = lipgloss.Color("#d4d4d8")
	colorZinc400 = lipgloss.Color("#a1a1aa")
	colorZinc500 = lipgloss.Color("#71717a")
	colorZinc600 = lipgloss.Color("#52525b")
	colorZinc800 = lipgloss.Color("#27272a")
	colorSlate   = lipgloss.Color("#94a3b8")
	colorSky     = lipgloss.Color("#bae6fd")
	colorMint    = lipgloss.Color("#bbf7d0")
	colorAmber   = lipgloss.Color("#fde68a")
	colorRose    = lipgloss.Color("#fca5a5")
	colorRed     = lipgloss.Color("#f87171")
)

var (
	// BannerStyle colours the startup banner.
	BannerStyle = lipgloss.NewStyle().Foreground(colorSlate)

	barStyle     = lipgloss.NewStyle().Background(colorZinc800).Foreground(colorZinc400)
	recipeStyle  = lipgloss.NewStyle().Foreground(colorMint)
	labelStyle   = lipgloss.NewStyle().Foreground(colorZinc400)
	runningStyle = lipgloss.NewStyle().Foreground(colorAmber)
	hurryStyle   = lipgloss.NewStyle().Foreground(colorRed).Bold(true)
	doneStyle    = lipgloss.NewStyle().Foreground(colorRose)
	pausedStyle  = lipgloss.NewStyle().Foreground(colorZinc500).Italic(true)
	dividerStyle = lipgloss.NewStyle().Foreground(colorZinc600)
	micStyle     = lipgloss.NewStyle().Foreground(colorRed).Bold(true)
	promptStyle  = lipgloss.NewStyle().Foreground(colorSlate)
	chatStyle    = lipgloss.NewStyle().Foreground(colorSky)
	stepStyle    = lipgloss.NewStyle().Foreground(colorMint)
	bodyStyle    = lipgloss.NewStyle().Foreground(colorZinc100)
	dimStyle     = lipgloss.NewStyle().Foreground(colorZinc500)
	urgentStyle  = lipgloss.NewStyle().Foreground(colorRose)
	echoStyle    = lipgloss.NewStyle().Foreground(colorZinc400)
)

const prompt = "chef> "

// hurryThreshold is when a running timer turns red in the status line.
const hurryThreshold = 10 * time.Second

// Status is what the status line shows.
type Status struct {
	Recipe string
	Step   int // 1-based; 0 before a recipe is chosen
	Steps  int
	Timers []domain.Timer
}

// StatusSource feeds the status line. It is polled once a second.
type StatusSource interface {
	Status() Status
}

// StatusFunc adapts a function to StatusSource.
type StatusFunc func() Status

// Status calls f.
func (f StatusFunc) Status() Status { return f() }

// ── UI ───────────────────────────────────────────────────────────

// UI owns the terminal while cook mode runs.
//
// Call [NewUI] then [UI.Run] (blocking). Other goroutines may call the
// print helpers and read [UI.InputChan] once [UI.WaitReady] returns.
type UI struct {
	program *tea.Program
	status  StatusSource
	inputCh chan string
	readyCh chan struct{}
	quitCh  chan struct{}
	done    atomic.Bool
}

// NewUI creates the display. status may be nil.
func NewUI(status StatusSource) *UI {
	return &UI{
		status:  status,
		inputCh: make(chan string, 16),
		readyCh: make(chan struct{}),
		quitCh:  make(chan struct{}),
	}
}

func (u *UI) live() bool { return u.program != nil && !u.done.Load() }

// Println prints a line above the prompt, or to stdout when the UI is
// not running.
func (u *UI) Println(a ...interface{}) {
	if u.live() {
		u.program.Println(a...)
		return
	}
	fmt.Println(a...)
}

// Printf prints one formatted line above the prompt.
func (u *UI) Printf(format string, a ...interface{}) {
	u.Println(fmt.Sprintf(format, a...))
}

// InputChan delivers submitted lines.
func (u *UI) InputChan() <-chan string { return u.inputCh }

func (u *UI) PrintChat(text string)        { u.Println(chatStyle.Render("  " + text)) }
func (u *UI) PrintStep(text string)        { u.Println(stepStyle.Render("  " + text)) }
func (u *UI) PrintInstruction(text string) { u.Println(bodyStyle.Render("  " + text)) }
func (u *UI) PrintHint(text string)        { u.Println(dimStyle.Render("  " + text)) }
func (u *UI) PrintUrgent(text string)      { u.Println(urgentStyle.Render("  " + text)) }

// PrintVoice prints a recognized transcript.
func (u *UI) PrintVoice(text string) {
	u.Println(dimStyle.Render("[voice] ") + bodyStyle.Render(text))
}

// PrintUserInput echoes a typed line into the scrollback.
func (u *UI) PrintUserInput(text string) {
	u.Println(promptStyle.Render(prompt) + echoStyle.Render(text))
}

// SetListening shows or hides the microphone marker.
func (u *UI) SetListening(on bool) {
	if u.live() {
		u.program.Send(listeningMsg(on))
	}
}

// WaitReady blocks until the event loop is running.
func (u *UI) WaitReady() { <-u.readyCh }

// Quit stops the event loop.
func (u *UI) Quit() {
	if u.program != nil {
		u.program.Quit()
	}
}

// QuitChan is closed once Run has returned.
func (u *UI) QuitChan() <-chan struct{} { return u.quitCh }

// Run blocks until the cook quits.
func (u *UI) Run() error {
	u.program = tea.NewProgram(newModel(u.status, u.inputCh, u.readyCh, u.PrintUserInput))
	_, err := u.program.Run()
	u.done.Store(true)
	close(u.quitCh)
	return err
}

// ── Bubble Tea model ─────────────────────────────────────────────

type model struct {
	source  StatusSource
	input   textinput.Model
	inputCh chan<- string
	readyCh chan struct{}
	echoFn  func(string)

	status    Status
	listening bool
	width     int

	// history holds submitted lines; histPos == len(history) means the
	// prompt is showing fresh input.
	history []string
	histPos int
}

type (
	tickMsg      time.Time
	listeningMsg bool
)

func newModel(source StatusSource, inputCh chan<- string, readyCh chan struct{}, echo func(string)) model {
	ti := textinput.New()
	// The prompt is unstyled text so textinput's width math stays right.
	ti.Prompt = prompt
	ti.PromptStyle = promptStyle
	ti.TextStyle = echoStyle
	ti.Cursor.Style = promptStyle
	ti.CharLimit = 500
	ti.Width = 60
	ti.Focus()

	return model{
		source:  source,
		input:   ti,
		inputCh: inputCh,
		readyCh: readyCh,
		echoFn:  echo,
	}
}

func (m model) Init() tea.Cmd {
	ready := m.readyCh
	return tea.Batch(
		textinput.Blink,
		tick(),
		func() tea.Msg {
			close(ready)
			return nil
		},
	)
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			return m, tea.Quit
		case tea.KeyEnter:
			return m.submit()
		case tea.KeyUp:
			m.recall(-1)
			return m, nil
		case tea.KeyDown:
			m.recall(1)
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		if msg.Width > len(prompt) {
			m.input.Width = msg.Width - len(prompt)
		}
		return m, nil

	case listeningMsg:
		m.listening = bool(msg)
		return m, nil

	case tickMsg:
		m.refresh()
		return m, tea.Batch(tick(), tea.SetWindowTitle(m.title()))
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m model) submit() (tea.Model, tea.Cmd) {
	line := m.input.Value()
	m.input.Reset()
	if strings.TrimSpace(line) == "" {
		return m, nil
	}
	if n := len(m.history); n == 0 || m.history[n-1] != line {
		m.history = append(m.history, line)
	}
	m.histPos = len(m.history)

	m.inputCh <- line
	// Println must not run inside Update, so the echo goes out as a Cmd.
	echo := m.echoFn
	return m, func() tea.Msg {
		if echo != nil {
			echo(line)
		}
		return nil
	}
}

// recall walks the input history by delta.
func (m *model) recall(delta int) {
	pos := m.histPos + delta
	if pos < 0 || pos > len(m.history) {
		return
	}
	m.histPos = pos
	if pos == len(m.history) {
		m.input.Reset()
		return
	}
	m.input.SetValue(m.history[pos])
	m.input.CursorEnd()
}

func (m *model) refresh() {
	if m.source == nil {
		m.status = Status{}
		return
	}
	m.status = m.source.Status()
}

func (m model) title() string {
	parts := []string{"SousChef"}
	if m.status.Recipe != "" {
		parts = append(parts, m.status.Recipe)
	}
	for i := range m.status.Timers {
		t := &m.status.Timers[i]
		parts = append(parts, t.Label+": "+timerText(t))
	}
	return strings.Join(parts, " | ")
}

func (m model) View() string {
	var b strings.Builder
	if bar := m.renderBar(); bar != "" {
		b.WriteString(bar)
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	b.WriteString(m.input.View())
	return b.String()
}

// renderBar returns "" when there is nothing to show.
func (m model) renderBar() string {
	var parts []string
	if m.listening {
		parts = append(parts, micStyle.Render("● listening"))
	}
	if st := m.status; st.Recipe != "" {
		progress := st.Recipe
		if st.Steps > 0 && st.Step > 0 {
			progress = fmt.Sprintf("%s  %d/%d", st.Recipe, st.Step, st.Steps)
		}
		parts = append(parts, recipeStyle.Render(progress))
	}
	for i := range m.status.Timers {
		parts = append(parts, timerChip(&m.status.Timers[i]))
	}
	if len(parts) == 0 {
		return ""
	}

	w := m.width
	if w <= 0 {
		w = 80
	}
	return barStyle.Width(w).Render(" " + strings.Join(parts, dividerStyle.Render("  │  ")) + " ")
}

// ── Helpers ──────────────────────────────────────────────────────

func timerChip(t *domain.Timer) string {
	text := t.Label + ": " + timerText(t)
	switch t.Status() {
	case domain.TimerExpired:
		return doneStyle.Render(text)
	case domain.TimerPaused:
		return pausedStyle.Render(text)
	}
	style := runningStyle
	if t.Remaining <= hurryThreshold {
		style = hurryStyle
	}
	return labelStyle.Render(t.Label+": ") + style.Render(timerText(t))
}

func timerText(t *domain.Timer) string {
	switch t.Status() {
	case domain.TimerExpired:
		return "DONE!"
	case domain.TimerPaused:
		return fmtDuration(time.Duration(t.RemainingSeconds())*time.Second) + " paused"
	default:
		return fmtDuration(time.Duration(t.RemainingSeconds()) * time.Second)
	}
}

// fmtDuration renders "45s" or "8m05s".
func fmtDuration(d time.Duration) string {
	d = max(d, 0).Round(time.Second)
	minutes, seconds := int(d/time.Minute), int(d%time.Minute/time.Second)
	if minutes == 0 {
		return fmt.Sprintf("%ds", seconds)
	}
	return fmt.Sprintf("%dm%02ds", minutes, seconds)
}
