package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rmax-ai/mdstval/pkg/reports"
)

// Config
const (
	pollRate       = time.Second
	viewportHeight = 12
	chartWidth     = 40
)

// Styles
var (
	subtleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			Width(100)

	groupNameStyle = lipgloss.NewStyle().Width(30).Bold(true)
	countStyle     = lipgloss.NewStyle().Width(12).Foreground(lipgloss.Color("39"))
	excludedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("99"))
	approxStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

type tickMsg time.Time

type summaryMsg struct {
	path    string
	summary *reports.Summary
	err     error
}

type model struct {
	source   string
	spinner  spinner.Model
	viewport viewport.Model
	path     string
	summary  *reports.Summary
	err      error
	ready    bool
}

func initialModel(source string) model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return model{
		source:  source,
		spinner: s,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		loadSummary(m.source),
		tick(),
	)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		cmd  tea.Cmd
		cmds []tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "q" || msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case spinner.TickMsg:
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case tickMsg:
		cmds = append(cmds, loadSummary(m.source), tick())

	case summaryMsg:
		m.err = msg.err
		if msg.err == nil {
			m.path = msg.path
			m.summary = msg.summary
		}
		if !m.ready {
			m.viewport = newViewport(100)
			m.ready = true
		}
		m.updateViewportContent()

	case tea.WindowSizeMsg:
		if !m.ready {
			m.viewport = newViewport(msg.Width)
			m.ready = true
			m.updateViewportContent()
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = viewportHeight
		}
	}

	return m, tea.Batch(cmds...)
}

func newViewport(width int) viewport.Model {
	vp := viewport.New(width, viewportHeight)
	vp.Style = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("62")).
		PaddingRight(2)
	return vp
}

func (m *model) updateViewportContent() {
	if m.summary == nil {
		m.viewport.SetContent(subtleStyle.Render("No summary loaded."))
		return
	}

	var sb strings.Builder
	for _, g := range m.summary.Groups {
		name := groupNameStyle.Render(g.Name)
		if g.Excluded {
			name = groupNameStyle.Inherit(excludedStyle).Render(g.Name + " *")
		}
		approx := fmt.Sprintf("approx %d", g.Approximate)
		if g.Approximate > 0 {
			approx = approxStyle.Render(approx)
		}
		sb.WriteString(fmt.Sprintf("%s %s %s %s\n",
			name,
			countStyle.Render(fmt.Sprintf("exact %d", g.Exact)),
			approx,
			subtleStyle.Render(fmt.Sprintf("/ %d", g.Total)),
		))
	}
	m.viewport.SetContent(sb.String())
}

func (m model) View() string {
	if !m.ready {
		return fmt.Sprintf("\n%s Loading summary...", m.spinner.View())
	}

	var chart string
	if m.summary != nil {
		chart = reports.RenderChart(m.summary.Accuracy, chartWidth)
	}

	header := headerStyle.Render(fmt.Sprintf("%s Groups", m.spinner.View()))

	var status string
	switch {
	case m.err != nil:
		status = errorStyle.Render(fmt.Sprintf("Error: %v", m.err))
	case m.summary != nil:
		status = okStyle.Render(fmt.Sprintf("Run %s • %d cases • %.1fs", m.summary.RunID, m.summary.TotalCases, m.summary.DurationS))
	}
	footer := subtleStyle.Render(fmt.Sprintf("\n%s\n%s\n* excluded from accuracy • Press q to quit", status, m.path))

	return lipgloss.JoinVertical(lipgloss.Left, chart, header, m.viewport.View(), footer)
}

// Commands

func loadSummary(source string) tea.Cmd {
	return func() tea.Msg {
		path, err := reports.ResolveSummary(context.Background(), source)
		if err != nil {
			return summaryMsg{err: err}
		}
		s, err := reports.LoadSummary(path)
		return summaryMsg{path: path, summary: s, err: err}
	}
}

func tick() tea.Cmd {
	return tea.Tick(pollRate, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func main() {
	source := flag.String("summary", "artifacts", "summary file, or artifact directory to take the newest run from")
	flag.Parse()

	p := tea.NewProgram(initialModel(*source), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Printf("Alas, there's been an error: %v", err)
		os.Exit(1)
	}
}
