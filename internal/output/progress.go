package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// progressWriter forwards streamed command output to the console
type progressWriter struct {
	splog *Splog
}

// NewProgressWriter returns a writer for live git output. Nothing is written
// while the Splog is quiet.
func NewProgressWriter(s *Splog) io.Writer {
	return &progressWriter{splog: s}
}

func (w *progressWriter) Write(p []byte) (int, error) {
	if w.splog.IsQuiet() {
		return len(p), nil
	}
	w.splog.mu.Lock()
	defer w.splog.mu.Unlock()
	return w.splog.writer.Write(p)
}

// StepStatus is the state of one step of an operation
type StepStatus string

// Step states
const (
	StepRunning StepStatus = "running"
	StepDone    StepStatus = "done"
	StepFailed  StepStatus = "failed"
)

// StepProgress reports the steps of an operation as they happen
type StepProgress interface {
	// Begin marks step as running
	Begin(step string)
	// End marks step as finished, failed when err is not nil
	End(step string, err error)
	// Complete finalizes the display
	Complete()
}

// NewStepProgress returns an animated display when interactive is true and
// plain lines otherwise.
func NewStepProgress(s *Splog, interactive bool) StepProgress {
	if interactive && !s.IsQuiet() {
		return NewTTYStepProgress()
	}
	return NewSimpleStepProgress(s)
}

// SimpleStepProgress prints one line per transition
type SimpleStepProgress struct {
	splog *Splog
}

// NewSimpleStepProgress creates a SimpleStepProgress
func NewSimpleStepProgress(s *Splog) *SimpleStepProgress {
	return &SimpleStepProgress{splog: s}
}

func (p *SimpleStepProgress) Begin(step string) {
	p.splog.Debug("  ⋯ %s...", step)
}

func (p *SimpleStepProgress) End(step string, err error) {
	if err != nil {
		p.splog.Info("  ✗ %s failed: %v", step, err)
		return
	}
	p.splog.Debug("  ✓ %s", step)
}

func (p *SimpleStepProgress) Complete() {}

// TTYStepProgress animates running steps with a spinner
type TTYStepProgress struct {
	mu      sync.Mutex
	out     io.Writer
	program *tea.Program
	done    chan struct{}
}

// NewTTYStepProgress creates a TTYStepProgress drawing on stderr
func NewTTYStepProgress() *TTYStepProgress {
	return &TTYStepProgress{out: os.Stderr}
}

func (p *TTYStepProgress) start() {
	if p.program != nil {
		return
	}
	p.program = tea.NewProgram(newStepModel(), tea.WithInput(nil), tea.WithOutput(p.out))
	p.done = make(chan struct{})
	go func() {
		defer close(p.done)
		_, _ = p.program.Run()
	}()
}

func (p *TTYStepProgress) Begin(step string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.start()
	p.program.Send(stepUpdateMsg{step: step, status: StepRunning})
}

func (p *TTYStepProgress) End(step string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.start()
	status := StepDone
	if err != nil {
		status = StepFailed
	}
	p.program.Send(stepUpdateMsg{step: step, status: status, err: err})
}

func (p *TTYStepProgress) Complete() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.program == nil {
		return
	}
	p.program.Send(stepCompleteMsg{})
	<-p.done
	p.program = nil
}

type stepItem struct {
	name   string
	status StepStatus
	err    error
}

type stepUpdateMsg struct {
	step   string
	status StepStatus
	err    error
}

type stepCompleteMsg struct{}

type stepModel struct {
	steps   []stepItem
	spinner spinner.Model
}

func newStepModel() *stepModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	return &stepModel{spinner: s}
}

func (m *stepModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m *stepModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case stepUpdateMsg:
		m.apply(msg)
		return m, nil
	case stepCompleteMsg:
		return m, tea.Quit
	}
	return m, nil
}

func (m *stepModel) apply(msg stepUpdateMsg) {
	for i := range m.steps {
		if m.steps[i].name == msg.step {
			m.steps[i].status = msg.status
			m.steps[i].err = msg.err
			return
		}
	}
	m.steps = append(m.steps, stepItem{name: msg.step, status: msg.status, err: msg.err})
}

func (m *stepModel) View() string {
	var b strings.Builder
	for _, s := range m.steps {
		var icon, suffix string
		switch s.status {
		case StepRunning:
			icon = m.spinner.View()
		case StepDone:
			icon = doneStyle.Render("✓")
		case StepFailed:
			icon = errorStyle.Render("✗")
			if s.err != nil {
				suffix = " " + errorStyle.Render(firstLine(s.err.Error()))
			}
		}
		fmt.Fprintf(&b, "  %s %s%s\n", icon, stepStyle.Render(s.name), suffix)
	}
	return b.String()
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
