package review

import (
	"fmt"
	"os/exec"
	"runtime"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/amishk599/jobmerge/internal/model"
	"github.com/amishk599/jobmerge/internal/pipeline"
)

// Lines per job item in the list view (title + subtitle + blank separator).
const jobItemHeight = 3

type viewState int

const (
	viewList viewState = iota
	viewDetail
)

var (
	activeBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("39")) // bright blue

	inactiveBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("240")) // dim gray

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1)

	activeHeaderStyle = headerStyle.
				Foreground(lipgloss.Color("39"))

	inactiveHeaderStyle = headerStyle.
				Foreground(lipgloss.Color("240"))

	statusBarStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Foreground(lipgloss.Color("252")).
			Background(lipgloss.Color("236"))

	jobTitleStyle = lipgloss.NewStyle().
			Bold(true)

	jobSubtitleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("245"))

	selectedJobTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")). // bright white
				Background(lipgloss.Color("24"))  // dark blue bg

	selectedJobSubtitleStyle = lipgloss.NewStyle().
					Foreground(lipgloss.Color("252")).
					Background(lipgloss.Color("24"))

	detailLabelStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39")).
				Width(16)

	detailValueStyle = lipgloss.NewStyle()

	detailTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				MarginBottom(1)

	reasonStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("203"))
)

// item is one row of either pane, flattened for rendering.
type item struct {
	title    string
	subtitle string
	fields   [][2]string // label, value
	url      string
}

func outputItem(r model.OutputRecord) item {
	salary := ""
	if r.SalaryAmount != nil {
		salary = strconv.FormatInt(*r.SalaryAmount, 10)
	}
	return item{
		title:    r.Title,
		subtitle: fmt.Sprintf("%s · %s · %s", r.Company, r.Location, r.PostedDate.Format(model.DateLayout)),
		url:      r.JobURL,
		fields: [][2]string{
			{"Title", r.Title},
			{"Company", r.Company},
			{"Job Function", r.JobFunction},
			{"Location", r.Location},
			{"Remote", strconv.FormatBool(r.IsRemote)},
			{"Salary", salary},
			{"Skills", strings.Join(r.Skills, ", ")},
			{"Source", r.Source},
			{"Job ID", r.JobID},
			{"My ID", r.MyID},
			{"Posted", r.PostedDate.Format(model.DateLayout)},
			{"Ingested", r.IngestionDate.Format(model.DateLayout)},
			{"Job URL", r.JobURL},
		},
	}
}

func droppedItem(d pipeline.DroppedRecord) item {
	r := d.Record
	reason := string(d.Reason)
	if d.Detail != "" {
		reason += ": " + d.Detail
	}
	return item{
		title:    r.Title,
		subtitle: fmt.Sprintf("%s · %s · %s", r.Company, r.Source, d.Reason),
		url:      r.JobURL,
		fields: [][2]string{
			{"Title", r.Title},
			{"Company", r.Company},
			{"Reason", reason},
			{"Job Function", r.JobFunction},
			{"Location", r.Location()},
			{"Remote", strconv.FormatBool(r.IsRemote)},
			{"Source", r.Source},
			{"Job ID", r.JobID},
			{"Job URL", r.JobURL},
		},
	}
}

// FilterOutput keeps records of the given job function. AllFunctions and ""
// keep everything.
func FilterOutput(records []model.OutputRecord, function string) []model.OutputRecord {
	if function == "" || function == AllFunctions {
		return records
	}
	var out []model.OutputRecord
	for _, r := range records {
		if r.JobFunction == function {
			out = append(out, r)
		}
	}
	return out
}

type reviewModel struct {
	kept          []item
	dropped       []item
	leftViewport  viewport.Model
	rightViewport viewport.Model
	activePane    int // 0=left, 1=right
	leftCursor    int
	rightCursor   int
	width         int
	height        int
	function      string
	ready         bool

	view           viewState
	detailItem     item
	detailViewport viewport.Model

	wantQuit bool
	openURL  func(string)
}

func newReviewModel(res pipeline.Result, function string) reviewModel {
	m := reviewModel{function: function, openURL: openURL}
	for _, r := range FilterOutput(res.Output, function) {
		m.kept = append(m.kept, outputItem(r))
	}
	for _, d := range res.Dropped {
		m.dropped = append(m.dropped, droppedItem(d))
	}
	return m
}

func (m reviewModel) Init() tea.Cmd {
	return nil
}

func (m reviewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.recalcLayout()
		if m.view == viewDetail {
			m.detailViewport.Width = m.width - 4
			m.detailViewport.Height = m.height - 4
			m.detailViewport.SetContent(m.renderDetail())
		}
		return m, nil

	case tea.KeyMsg:
		if m.view == viewDetail {
			return m.updateDetailView(msg)
		}
		return m.updateListView(msg)
	}

	return m, nil
}

func (m reviewModel) updateListView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.wantQuit = true
		return m, tea.Quit
	case "esc", "b":
		m.wantQuit = false
		return m, tea.Quit
	case "tab", "left", "right":
		m.activePane = 1 - m.activePane
		m.recalcContent()
		return m, nil
	case "up", "k":
		m.moveCursor(-1)
		m.recalcContent()
		m.ensureCursorVisible()
		return m, nil
	case "down", "j":
		m.moveCursor(1)
		m.recalcContent()
		m.ensureCursorVisible()
		return m, nil
	case "enter":
		return m.openDetailView()
	}

	// Forward other keys (pgup/pgdn/home/end) to the active viewport.
	var cmd tea.Cmd
	if m.activePane == 0 {
		m.leftViewport, cmd = m.leftViewport.Update(msg)
	} else {
		m.rightViewport, cmd = m.rightViewport.Update(msg)
	}
	return m, cmd
}

func (m reviewModel) updateDetailView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.wantQuit = true
		return m, tea.Quit
	case "esc", "backspace":
		m.view = viewList
		return m, nil
	case "o":
		if m.detailItem.url != "" {
			m.openURL(m.detailItem.url)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.detailViewport, cmd = m.detailViewport.Update(msg)
	return m, cmd
}

func (m *reviewModel) moveCursor(delta int) {
	if m.activePane == 0 {
		m.leftCursor = clamp(m.leftCursor+delta, 0, max(len(m.kept)-1, 0))
	} else {
		m.rightCursor = clamp(m.rightCursor+delta, 0, max(len(m.dropped)-1, 0))
	}
}

func (m *reviewModel) ensureCursorVisible() {
	var vp *viewport.Model
	var cursor int
	if m.activePane == 0 {
		vp = &m.leftViewport
		cursor = m.leftCursor
	} else {
		vp = &m.rightViewport
		cursor = m.rightCursor
	}

	cursorTop := cursor * jobItemHeight
	cursorBottom := cursorTop + jobItemHeight - 1

	if cursorTop < vp.YOffset {
		vp.SetYOffset(cursorTop)
	} else if cursorBottom >= vp.YOffset+vp.Height {
		vp.SetYOffset(cursorBottom - vp.Height + 1)
	}
}

func (m reviewModel) openDetailView() (tea.Model, tea.Cmd) {
	items := m.activeItems()
	if len(items) == 0 {
		return m, nil
	}

	m.view = viewDetail
	m.detailItem = items[m.activeCursor()]
	m.detailViewport = viewport.New(m.width-4, m.height-4)
	m.detailViewport.SetContent(m.renderDetail())
	return m, nil
}

func (m *reviewModel) recalcLayout() {
	// 2 border chars per pane + 1 gap between panes.
	paneWidth := max((m.width-5)/2, 20)

	// Header (1 line) + border top/bottom (2) + status bar (1) = 4 lines overhead.
	paneHeight := max(m.height-4, 5)

	if !m.ready {
		m.leftViewport = viewport.New(paneWidth, paneHeight)
		m.rightViewport = viewport.New(paneWidth, paneHeight)
		m.ready = true
	} else {
		m.leftViewport.Width = paneWidth
		m.leftViewport.Height = paneHeight
		m.rightViewport.Width = paneWidth
		m.rightViewport.Height = paneHeight
	}

	m.recalcContent()
}

func (m *reviewModel) recalcContent() {
	m.leftViewport.SetContent(renderItems(m.kept, m.leftCursor, m.activePane == 0))
	m.rightViewport.SetContent(renderItems(m.dropped, m.rightCursor, m.activePane == 1))
}

func (m reviewModel) activeItems() []item {
	if m.activePane == 0 {
		return m.kept
	}
	return m.dropped
}

func (m reviewModel) activeCursor() int {
	if m.activePane == 0 {
		return m.leftCursor
	}
	return m.rightCursor
}

func (m reviewModel) View() string {
	if !m.ready {
		return "Initializing..."
	}

	if m.view == viewDetail {
		return m.viewDetail()
	}

	return m.viewList()
}

func (m reviewModel) viewList() string {
	paneWidth := m.leftViewport.Width

	leftHeader := fmt.Sprintf(" Output · %s (%d)", m.functionLabel(), len(m.kept))
	rightHeader := fmt.Sprintf(" Dropped (%d)", len(m.dropped))

	var leftHeaderRendered, rightHeaderRendered string
	var leftBorder, rightBorder lipgloss.Style

	if m.activePane == 0 {
		leftHeaderRendered = activeHeaderStyle.Render(leftHeader)
		rightHeaderRendered = inactiveHeaderStyle.Render(rightHeader)
		leftBorder = activeBorderStyle.Width(paneWidth)
		rightBorder = inactiveBorderStyle.Width(paneWidth)
	} else {
		leftHeaderRendered = inactiveHeaderStyle.Render(leftHeader)
		rightHeaderRendered = activeHeaderStyle.Render(rightHeader)
		leftBorder = inactiveBorderStyle.Width(paneWidth)
		rightBorder = activeBorderStyle.Width(paneWidth)
	}

	leftPane := leftBorder.Render(m.leftViewport.View())
	rightPane := rightBorder.Render(m.rightViewport.View())

	headerRow := lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.NewStyle().Width(paneWidth+2).Render(leftHeaderRendered),
		" ",
		lipgloss.NewStyle().Width(paneWidth+2).Render(rightHeaderRendered),
	)

	panes := lipgloss.JoinHorizontal(lipgloss.Top, leftPane, " ", rightPane)

	statusText := fmt.Sprintf(" %d kept | %d dropped    ←/→/Tab switch  ↑/↓ cursor  Enter detail  Esc back  q quit",
		len(m.kept), len(m.dropped))
	statusBar := statusBarStyle.Width(m.width).Render(statusText)

	return headerRow + "\n" + panes + "\n" + statusBar
}

func (m reviewModel) functionLabel() string {
	if m.function == "" {
		return AllFunctions
	}
	return m.function
}

func (m reviewModel) viewDetail() string {
	title := detailTitleStyle.Render("Job Details")

	border := activeBorderStyle.Width(m.width - 2)
	content := border.Render(m.detailViewport.View())

	statusBar := statusBarStyle.Width(m.width).Render(" o open URL  esc/backspace back  ↑/↓ scroll  q quit")

	return title + "\n" + content + "\n" + statusBar
}

func (m reviewModel) renderDetail() string {
	var b strings.Builder
	for _, f := range m.detailItem.fields {
		if f[1] == "" {
			continue
		}
		value := detailValueStyle.Render(f[1])
		if f[0] == "Reason" {
			value = reasonStyle.Render(f[1])
		}
		b.WriteString(detailLabelStyle.Render(f[0]))
		b.WriteString(value)
		b.WriteByte('\n')
	}
	return b.String()
}

func renderItems(items []item, cursor int, isActive bool) string {
	if len(items) == 0 {
		return "  (no jobs)"
	}

	var b strings.Builder
	for i, it := range items {
		isSelected := isActive && i == cursor

		titleSt := jobTitleStyle
		subtitleSt := jobSubtitleStyle
		prefix := "  "
		if isSelected {
			titleSt = selectedJobTitleStyle
			subtitleSt = selectedJobSubtitleStyle
			prefix = "> "
		}

		b.WriteString(prefix)
		b.WriteString(titleSt.Render(it.title))
		b.WriteByte('\n')
		b.WriteString(prefix)
		b.WriteString(subtitleSt.Render(it.subtitle))
		b.WriteByte('\n')

		if i < len(items)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// openURL opens url in the default system browser, fire-and-forget.
func openURL(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", url)
	default:
		return
	}
	_ = cmd.Start()
}

// RunReviewTUI launches the split-pane review of a run: published records on
// the left, dropped records with their reasons on the right.
// Returns wantQuit=true if the user pressed q/ctrl+c, false if they pressed esc
// to return to the picker.
func RunReviewTUI(res pipeline.Result, function string) (bool, error) {
	p := tea.NewProgram(newReviewModel(res, function), tea.WithAltScreen())
	result, err := p.Run()
	if err != nil {
		return false, err
	}
	final := result.(reviewModel)
	return final.wantQuit, nil
}
