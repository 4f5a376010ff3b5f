package review

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/amishk599/jobmerge/internal/pipeline"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

type runDoneMsg struct {
	result pipeline.Result
	err    error
}

type spinnerTickMsg struct{}

type loaderModel struct {
	label  string
	runFn  func(ctx context.Context) (pipeline.Result, error)
	cancel context.CancelFunc
	ctx    context.Context
	frame  int
	result pipeline.Result
	err    error
	done   bool
}

func (m loaderModel) Init() tea.Cmd {
	return tea.Batch(m.doRun(), m.tick())
}

func (m loaderModel) doRun() tea.Cmd {
	runFn, ctx := m.runFn, m.ctx
	return func() tea.Msg {
		res, err := runFn(ctx)
		return runDoneMsg{result: res, err: err}
	}
}

func (m loaderModel) tick() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(time.Time) tea.Msg {
		return spinnerTickMsg{}
	})
}

func (m loaderModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case runDoneMsg:
		m.result = msg.result
		m.err = msg.err
		m.done = true
		return m, tea.Quit
	case spinnerTickMsg:
		m.frame = (m.frame + 1) % len(spinnerFrames)
		return m, m.tick()
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.cancel()
			m.done = true
			m.err = fmt.Errorf("cancelled")
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m loaderModel) View() string {
	if m.done {
		return ""
	}
	spinner := lipgloss.NewStyle().Foreground(lipgloss.Color("33")).Render(spinnerFrames[m.frame])
	return fmt.Sprintf("%s %s...\n", spinner, m.label)
}

// RunLoader shows a spinner while runFn executes. It renders inline (no alt screen).
func RunLoader(ctx context.Context, label string, runFn func(ctx context.Context) (pipeline.Result, error)) (pipeline.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := loaderModel{
		label:  label,
		runFn:  runFn,
		ctx:    ctx,
		cancel: cancel,
	}
	p := tea.NewProgram(m)
	result, err := p.Run()
	if err != nil {
		return pipeline.Result{}, err
	}
	final := result.(loaderModel)
	return final.result, final.err
}
