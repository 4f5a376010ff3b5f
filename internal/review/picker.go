package review

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/amishk599/jobmerge/internal/model"
)

// AllFunctions is the picker entry that disables the job function filter.
const AllFunctions = "All functions"

var (
	pickerTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39")).
				Padding(1, 0, 1, 2)

	pickerItemStyle = lipgloss.NewStyle().
			Padding(0, 0, 0, 4)

	pickerSelectedStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("39")).
				Bold(true).
				Padding(0, 0, 0, 2)

	pickerHintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Padding(1, 0, 0, 2)
)

// PickerOption is one filter choice with its output count.
type PickerOption struct {
	Label string
	Count int
}

// FunctionOptions builds the picker entries for a set of output records.
func FunctionOptions(records []model.OutputRecord) []PickerOption {
	counts := make(map[string]int)
	for _, r := range records {
		counts[r.JobFunction]++
	}
	opts := []PickerOption{{Label: AllFunctions, Count: len(records)}}
	for _, f := range model.JobFunctions {
		opts = append(opts, PickerOption{Label: f, Count: counts[f]})
	}
	return opts
}

type pickerModel struct {
	options []PickerOption
	cursor  int
	chosen  int // -1 = no choice yet, -2 = quit
}

func (m pickerModel) Init() tea.Cmd {
	return nil
}

func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.chosen = -2
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.options)-1 {
				m.cursor++
			}
		case "enter":
			m.chosen = m.cursor
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m pickerModel) View() string {
	s := pickerTitleStyle.Render("Merge Review · Select a job function")
	s += "\n"

	for i, o := range m.options {
		label := fmt.Sprintf("%s (%d)", o.Label, o.Count)
		if i == m.cursor {
			s += pickerSelectedStyle.Render("> "+label) + "\n"
		} else {
			s += pickerItemStyle.Render(label) + "\n"
		}
	}

	s += pickerHintStyle.Render("↑/↓/j/k navigate  enter select  q quit")
	return s
}

// RunFunctionPicker shows an interactive job function selector.
// Returns the chosen label, or "" if the user quit.
func RunFunctionPicker(options []PickerOption) (string, error) {
	m := pickerModel{
		options: options,
		chosen:  -1,
	}

	p := tea.NewProgram(m)
	result, err := p.Run()
	if err != nil {
		return "", err
	}

	final := result.(pickerModel)
	if final.chosen < 0 {
		return "", nil
	}
	return final.options[final.chosen].Label, nil
}
