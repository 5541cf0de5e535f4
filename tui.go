package main

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"prompter/account"
	"prompter/audio"
	"prompter/cue"
	"prompter/session"
	"prompter/usage"
)

// TUI message types
type RecordingStartMsg struct{}
type RecordingStopMsg struct{}
type RecordingTickMsg struct{ Seconds float64 }
type AudioLevelMsg struct{ Level float64 }
type NoVoiceWarningMsg struct{}
type VoiceClearedMsg struct{}
type StateMsg struct{ State session.State }
type TurnsMsg struct{ Turns []session.Turn }
type BudgetMsg struct{ Budget usage.Budget }
type UserMsg struct{ User *account.User }
type StatusMsg struct{ Text string }
type FailureMsg struct{ Err error }

var tuiProgram *tea.Program

// tuiSink forwards session events into the Bubble Tea program and
// plays the audible cues.
type tuiSink struct {
	p *tea.Program
}

func newTUISink(p *tea.Program) *tuiSink { return &tuiSink{p: p} }

func (s *tuiSink) RecordingStart() {
	cue.Start()
	s.p.Send(RecordingStartMsg{})
}

func (s *tuiSink) RecordingStop() {
	cue.Stop()
	s.p.Send(RecordingStopMsg{})
}

func (s *tuiSink) RecordingTick(seconds float64) { s.p.Send(RecordingTickMsg{Seconds: seconds}) }
func (s *tuiSink) AudioLevel(level float64) { s.p.Send(AudioLevelMsg{Level: level}) }

func (s *tuiSink) NoVoiceWarning() {
	cue.Warn()
	s.p.Send(NoVoiceWarningMsg{})
}

func (s *tuiSink) VoiceCleared() { s.p.Send(VoiceClearedMsg{}) }
func (s *tuiSink) StateChanged(st session.State) { s.p.Send(StateMsg{State: st}) }

func (s *tuiSink) TurnsChanged(ts []session.Turn) { s.p.Send(TurnsMsg{Turns: ts}) }
func (s *tuiSink) BudgetChanged(b usage.Budget) { s.p.Send(BudgetMsg{Budget: b}) }
func (s *tuiSink) UserChanged(u *account.User) { s.p.Send(UserMsg{User: u}) }
func (s *tuiSink) Status(text string) { s.p.Send(StatusMsg{Text: text}) }
func (s *tuiSink) Failure(err error) { s.p.Send(FailureMsg{Err: err}) }

// consoleSink is the sink for -tui=false runs: one line per event on
// stdout, cues still audible.
type consoleSink struct {
	session.NopSink
}

func newConsoleSink() *consoleSink { return &consoleSink{} }

func (s *consoleSink) RecordingStart() {
	cue.Start()
	fmt.Println("● recording (toggle again to ask)")
}

func (s *consoleSink) RecordingStop() {
	cue.Stop()
	fmt.Println("○ processing...")
}

func (s *consoleSink) NoVoiceWarning() {
	cue.Warn()
	fmt.Println("⚠ no voice detected")
}

func (s *consoleSink) TurnsChanged(turns []session.Turn) {
	if len(turns) == 0 {
		return
	}
	last := turns[len(turns)-1]
	if last.Answer == "" {
		fmt.Printf("Q: %s\n", last.Question)
	}
}

func (s *consoleSink) StateChanged(st session.State) {
	if st == session.StateReady {
		fmt.Println("ready")
	}
}

func (s *consoleSink) BudgetChanged(b usage.Budget) {
	if b.Unlimited {
		return
	}
	fmt.Printf("minutes left: %d\n", b.RemainingMinutes)
}

func (s *consoleSink) Status(text string) { fmt.Println(text) }
func (s *consoleSink) Failure(err error) { fmt.Printf("error: %v\n", err) }

var (
	headerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	recStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	procStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	readyStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	warnStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	errStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("160"))
	questionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("81")).Bold(true)
	answerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("239"))
	meterOnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
)

type tuiModel struct {
	setup         session.Setup
	user          *account.User
	budget        usage.Budget
	deviceLine    string
	state         session.State
	seconds       float64
	level         float64
	noVoice       bool
	turns         []session.Turn
	status        string
	lastErr       string
	width, height int
}

func NewTUIProgram(setup session.Setup, user *account.User, budget usage.Budget, device *audio.DeviceInfo) *tea.Program {
	deviceName := "system default"
	if device != nil {
		deviceName = device.Name
		if audio.IsBluetooth(device.Name) {
			deviceName += " (BT!)"
		}
	}
	m := tuiModel{
		setup:      setup,
		user:       user,
		budget:     budget,
		deviceLine: "mic: " + deviceName,
		state:      session.StateNoCapture,
	}
	return tea.NewProgram(m, tea.WithAltScreen())
}

func (m tuiModel) Init() tea.Cmd { return nil }

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			return m, tea.Quit
		}

	case RecordingStartMsg:
		m.seconds = 0
		m.level = 0
		m.noVoice = false
		m.lastErr = ""
		m.status = ""

	case RecordingStopMsg:
		m.level = 0
		m.noVoice = false

	case RecordingTickMsg:
		m.seconds = msg.Seconds

	case AudioLevelMsg:
		if m.state == session.StateRecording {
			m.level = m.level*0.6 + msg.Level*0.4
		}

	case NoVoiceWarningMsg:
		m.noVoice = true

	case VoiceClearedMsg:
		m.noVoice = false

	case StateMsg:
		m.state = msg.State

	case TurnsMsg:
		m.turns = msg.Turns

	case BudgetMsg:
		m.budget = msg.Budget

	case UserMsg:
		m.user = msg.User

	case StatusMsg:
		m.status = msg.Text

	case FailureMsg:
		m.lastErr = msg.Err.Error()
	}
	return m, nil
}

func (m tuiModel) headerLine() string {
	plan := "free"
	if m.user != nil && m.user.Subscription.Plan != "" {
		plan = m.user.Subscription.Plan
	}
	minutes := "∞ min"
	if !m.budget.Unlimited {
		minutes = fmt.Sprintf("%d min left", m.budget.RemainingMinutes)
	}
	return fmt.Sprintf("prompter %s | %s interview (%s) | %s | %s",
		version, m.setup.InterviewType, m.setup.Language, plan, minutes)
}

func (m tuiModel) statusLine() string {
	switch m.state {
	case session.StateRecording:
		return recStyle.Render(fmt.Sprintf("● REC %.1fs ", m.seconds)) + levelMeter(m.level, 20)
	case session.StateProcessing:
		return procStyle.Render("◌ thinking...")
	case session.StateNoCapture:
		return readyStyle.Render("○ no microphone")
	}
	return readyStyle.Render("○ ready")
}

func levelMeter(level float64, width int) string {
	on := int(level * 3 * float64(width))
	if on > width {
		on = width
	}
	return meterOnStyle.Render(strings.Repeat("▮", on)) +
		dimStyle.Render(strings.Repeat("▯", width-on))
}

func (m tuiModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render(m.headerLine()) + "\n")
	b.WriteString(readyStyle.Render(m.deviceLine) + "\n\n")
	b.WriteString(m.statusLine() + "\n")
	if m.noVoice {
		b.WriteString(warnStyle.Render("⚠ no voice detected") + "\n")
	}
	if m.status != "" {
		b.WriteString(warnStyle.Render(m.status) + "\n")
	}
	if m.lastErr != "" {
		b.WriteString(errStyle.Render("error: "+m.lastErr) + "\n")
	}
	b.WriteString("\n")

	wrapWidth := m.width - 2
	if wrapWidth < 20 {
		wrapWidth = 20
	}

	// Transcript, newest first
	if len(m.turns) == 0 {
		b.WriteString(dimStyle.Render("No questions yet") + "\n")
	}
	for i := len(m.turns) - 1; i >= 0; i-- {
		t := m.turns[i]
		for _, line := range wrapText(fmt.Sprintf("Q%d: %s", i+1, t.Question), wrapWidth) {
			b.WriteString(questionStyle.Render(line) + "\n")
		}
		answer := t.Answer
		if answer == "" {
			answer = "..."
		}
		for _, line := range wrapText(answer, wrapWidth) {
			b.WriteString(answerStyle.Render(line) + "\n")
		}
		b.WriteString("\n")
	}

	b.WriteString(dimStyle.Bold(true).Render("Ctrl+Shift+Space") + dimStyle.Render(" to ask | q to quit"))

	// Clamp to terminal height, keeping the top of the transcript.
	lines := strings.Split(b.String(), "\n")
	if len(lines) > m.height {
		lines = lines[:m.height]
	}
	return strings.Join(lines, "\n")
}

func wrapText(text string, width int) []string {
	if width < 1 {
		return []string{text}
	}
	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{""}
	}
	var lines []string
	cur := words[0]
	curWidth := runewidth.StringWidth(cur)
	for _, w := range words[1:] {
		ww := runewidth.StringWidth(w)
		if curWidth+1+ww > width {
			lines = append(lines, cur)
			cur, curWidth = w, ww
			continue
		}
		cur += " " + w
		curWidth += 1 + ww
	}
	lines = append(lines, cur)
	return lines
}
