// Package review provides an interactive terminal UI for triaging stored
// jobs: browse the scored list, inspect details, and flip the applied and
// saved flags without touching the pipeline-owned columns.
package review

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/reddam/jobscout/internal/model"
)

// Lines per job item in the list view (title + subtitle + blank separator).
const jobItemHeight = 3

type viewState int

const (
	viewList viewState = iota
	viewDetail
)

var (
	borderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("39")) // bright blue

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1).
			Foreground(lipgloss.Color("39"))

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

	flagStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("114")) // green

	detailLabelStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39")).
				Width(14)

	detailValueStyle = lipgloss.NewStyle()

	detailTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				MarginBottom(1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	descBodyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))
)

// stateSavedMsg is sent when an async user-state write completes.
type stateSavedMsg struct {
	job model.Job
	err error
}

type reviewModel struct {
	store    model.Store
	jobs     []model.Job
	viewport viewport.Model
	cursor   int
	width    int
	height   int
	ready    bool

	view           viewState
	detailViewport viewport.Model
	saveError      string
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

	case stateSavedMsg:
		if msg.err != nil {
			m.saveError = fmt.Sprintf("saving state: %v", msg.err)
		} else {
			m.saveError = ""
			m.updateJobInList(msg.job)
		}
		m.recalcContent()
		if m.view == viewDetail {
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
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "up", "k":
		m.cursor = clamp(m.cursor-1, 0, max(len(m.jobs)-1, 0))
		m.recalcContent()
		m.ensureCursorVisible()
		return m, nil
	case "down", "j":
		m.cursor = clamp(m.cursor+1, 0, max(len(m.jobs)-1, 0))
		m.recalcContent()
		m.ensureCursorVisible()
		return m, nil
	case "a":
		return m.toggleFlag(func(j *model.Job) *bool {
			v := !j.Applied
			j.Applied = v
			return &v
		}, true)
	case "s":
		return m.toggleFlag(func(j *model.Job) *bool {
			v := !j.Saved
			j.Saved = v
			return &v
		}, false)
	case "o":
		if len(m.jobs) > 0 {
			openURL(m.jobs[m.cursor].URL)
		}
		return m, nil
	case "enter":
		return m.openDetailView()
	}

	// Forward other keys (pgup/pgdn/home/end) to the viewport.
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m reviewModel) updateDetailView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc", "backspace":
		m.view = viewList
		return m, nil
	case "o":
		if len(m.jobs) > 0 {
			openURL(m.jobs[m.cursor].URL)
		}
		return m, nil
	case "a":
		return m.toggleFlag(func(j *model.Job) *bool {
			v := !j.Applied
			j.Applied = v
			return &v
		}, true)
	case "s":
		return m.toggleFlag(func(j *model.Job) *bool {
			v := !j.Saved
			j.Saved = v
			return &v
		}, false)
	}

	var cmd tea.Cmd
	m.detailViewport, cmd = m.detailViewport.Update(msg)
	return m, cmd
}

// toggleFlag flips applied or saved on the selected job and persists the
// change asynchronously. The list updates optimistically; a failed write
// surfaces in the status bar and reverts on the next launch.
func (m reviewModel) toggleFlag(flip func(*model.Job) *bool, applied bool) (tea.Model, tea.Cmd) {
	if len(m.jobs) == 0 {
		return m, nil
	}
	job := m.jobs[m.cursor]
	v := flip(&job)
	m.updateJobInList(job)
	m.recalcContent()
	if m.view == viewDetail {
		m.detailViewport.SetContent(m.renderDetail())
	}

	patch := model.UserPatch{}
	if applied {
		patch.Applied = v
	} else {
		patch.Saved = v
	}
	store := m.store
	return m, func() tea.Msg {
		err := store.UpdateUserState(job.ID, patch)
		return stateSavedMsg{job: job, err: err}
	}
}

func (m *reviewModel) updateJobInList(job model.Job) {
	for i := range m.jobs {
		if m.jobs[i].ID == job.ID {
			m.jobs[i] = job
			break
		}
	}
}

func (m *reviewModel) ensureCursorVisible() {
	cursorTop := m.cursor * jobItemHeight
	cursorBottom := cursorTop + jobItemHeight - 1

	if cursorTop < m.viewport.YOffset {
		m.viewport.SetYOffset(cursorTop)
	} else if cursorBottom >= m.viewport.YOffset+m.viewport.Height {
		m.viewport.SetYOffset(cursorBottom - m.viewport.Height + 1)
	}
}

func (m reviewModel) openDetailView() (tea.Model, tea.Cmd) {
	if len(m.jobs) == 0 {
		return m, nil
	}
	m.view = viewDetail
	m.detailViewport = viewport.New(m.width-4, m.height-4)
	m.detailViewport.SetContent(m.renderDetail())
	return m, nil
}

func (m *reviewModel) recalcLayout() {
	paneWidth := max(m.width-2, 20)

	// Header (1 line) + border top/bottom (2) + status bar (1) = 4 lines overhead.
	paneHeight := max(m.height-4, 5)

	if !m.ready {
		m.viewport = viewport.New(paneWidth, paneHeight)
		m.ready = true
	} else {
		m.viewport.Width = paneWidth
		m.viewport.Height = paneHeight
	}

	m.recalcContent()
}

func (m *reviewModel) recalcContent() {
	m.viewport.SetContent(renderJobs(m.jobs, m.cursor))
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
	header := headerStyle.Render(fmt.Sprintf(" Jobs (%d)", len(m.jobs)))
	pane := borderStyle.Width(m.viewport.Width).Render(m.viewport.View())

	statusText := " ↑/↓ cursor  Enter detail  a applied  s saved  o open  q quit"
	if m.saveError != "" {
		statusText = " " + m.saveError
	}
	statusBar := statusBarStyle.Width(m.width).Render(statusText)

	return header + "\n" + pane + "\n" + statusBar
}

func (m reviewModel) viewDetail() string {
	title := detailTitleStyle.Render("Job Details")

	border := borderStyle.Width(m.width - 2)
	content := border.Render(m.detailViewport.View())

	statusText := " o open URL  a applied  s saved  esc/backspace back  ↑/↓ scroll  q quit"
	if m.saveError != "" {
		statusText = " " + m.saveError
	}
	statusBar := statusBarStyle.Width(m.width).Render(statusText)

	return title + "\n" + content + "\n" + statusBar
}

func (m reviewModel) renderDetail() string {
	if len(m.jobs) == 0 {
		return "  (no jobs)"
	}
	j := m.jobs[m.cursor]
	var b strings.Builder

	addField := func(label, value string) {
		if value == "" {
			return
		}
		b.WriteString(detailLabelStyle.Render(label))
		b.WriteString(detailValueStyle.Render(value))
		b.WriteByte('\n')
	}

	addField("Title", j.Title)
	addField("Company", j.Company)
	addField("Location", j.Location)
	addField("Source", j.Source)
	addField("Score", fmt.Sprintf("%d", j.Score))

	b.WriteByte('\n')

	if j.Salary != nil {
		addField("Salary", fmt.Sprintf("$%d", *j.Salary))
	}
	if j.PostedAt != nil {
		addField("Posted", j.PostedAt.UTC().Format("2006-01-02 15:04 MST"))
	}
	if j.Applicants != nil {
		addField("Applicants", fmt.Sprintf("%d", *j.Applicants))
	}
	if j.EasyApply {
		addField("Easy Apply", "yes")
	}
	addField("Scraped", j.ScrapedAt.UTC().Format("2006-01-02 15:04 MST"))

	b.WriteByte('\n')
	addField("Applied", yesNo(j.Applied))
	addField("Saved", yesNo(j.Saved))
	addField("Notified", yesNo(j.Notified))
	if j.Notes != "" {
		addField("Notes", j.Notes)
	}

	b.WriteByte('\n')
	addField("URL", j.URL)

	if m.saveError != "" {
		b.WriteByte('\n')
		b.WriteString(errorStyle.Render("⚠ "+m.saveError) + "\n")
	}

	if j.Description != "" {
		wrapWidth := max(m.width-8, 20)
		b.WriteByte('\n')
		b.WriteString(descBodyStyle.Render(wordWrap(j.Description, wrapWidth)) + "\n")
	}

	return b.String()
}

func renderJobs(jobs []model.Job, cursor int) string {
	if len(jobs) == 0 {
		return "  (no jobs)"
	}

	var b strings.Builder
	for i, j := range jobs {
		isSelected := i == cursor

		titleSt := jobTitleStyle
		subtitleSt := jobSubtitleStyle
		prefix := "  "
		if isSelected {
			titleSt = selectedJobTitleStyle
			subtitleSt = selectedJobSubtitleStyle
			prefix = "> "
		}

		b.WriteString(prefix)
		b.WriteString(titleSt.Render(fmt.Sprintf("[%3d] %s", j.Score, j.Title)))
		if flags := flagBadges(j); flags != "" {
			b.WriteString(" " + flagStyle.Render(flags))
		}
		b.WriteByte('\n')

		posted := "n/a"
		if j.PostedAt != nil {
			posted = j.PostedAt.Format("2006-01-02")
		}
		b.WriteString(prefix)
		b.WriteString(subtitleSt.Render(fmt.Sprintf("%s · %s · %s", j.Company, j.Location, posted)))
		b.WriteByte('\n')

		if i < len(jobs)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func flagBadges(j model.Job) string {
	var badges []string
	if j.Applied {
		badges = append(badges, "applied")
	}
	if j.Saved {
		badges = append(badges, "saved")
	}
	if len(badges) == 0 {
		return ""
	}
	return "[" + strings.Join(badges, ",") + "]"
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

func wordWrap(text string, width int) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}
	var lines []string
	line := words[0]
	for _, w := range words[1:] {
		if len(line)+1+len(w) <= width {
			line += " " + w
		} else {
			lines = append(lines, line)
			line = w
		}
	}
	lines = append(lines, line)
	return strings.Join(lines, "\n")
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

// Run launches the review TUI over the jobs currently in the store,
// best score first.
func Run(store model.Store, minScore, limit int) error {
	jobs, err := store.Query(model.QueryFilter{MinScore: minScore, Limit: limit})
	if err != nil {
		return fmt.Errorf("loading jobs for review: %w", err)
	}

	m := reviewModel{
		store: store,
		jobs:  jobs,
	}

	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err = p.Run()
	return err
}
