package tui

import (
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/alexisbeaulieu97/boardtune/internal/engine"
	"github.com/alexisbeaulieu97/boardtune/internal/model"
)

// OperationStartMsg indicates an operation has started executing.
type OperationStartMsg struct {
	Name string
}

// OperationCompleteMsg reports that an operation has finished.
type OperationCompleteMsg struct {
	Result model.OperationResult
}

// RunCompleteMsg carries the final recorder once the sequence is done.
type RunCompleteMsg struct {
	Recorder *engine.Recorder
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	runningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("33"))
)

// Model contains the Bubbletea state for the execution view.
type Model struct {
	order     []string
	results   map[string]model.OperationResult
	running   string
	spinner   spinner.Model
	recorder  *engine.Recorder
	total     int
	completed int
	finished  bool
	cancelled bool
}

// NewModel constructs the execution view for the named operation sequence.
func NewModel(names []string) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		order:   names,
		results: make(map[string]model.OperationResult),
		spinner: sp,
		total:   len(names),
	}
}

// Init starts the spinner.
func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// IsFinished reports whether the run has completed.
func (m Model) IsFinished() bool {
	return m.finished
}

// CompletedOperations returns the number of completed operations.
func (m Model) CompletedOperations() int {
	return m.completed
}

// Update handles Bubbletea messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case OperationStartMsg:
		m.running = msg.Name
		return m, nil
	case OperationCompleteMsg:
		name := msg.Result.Name
		if name == "" {
			return m, nil
		}
		if _, seen := m.results[name]; !seen {
			m.completed++
		}
		m.results[name] = msg.Result
		if m.running == name {
			m.running = ""
		}
		return m, nil
	case RunCompleteMsg:
		m.recorder = msg.Recorder
		m.finished = true
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.cancelled = true
			m.finished = true
			return m, tea.Quit
		}
	case tea.QuitMsg:
		m.finished = true
		return m, nil
	}

	return m, nil
}
