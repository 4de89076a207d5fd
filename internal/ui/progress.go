// Package ui renders pack progress: a Bubble Tea stage view for
// interactive terminals and a plain line logger for everything else.
package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"impack/internal/packpipeline"
)

// pipelineStages lists stages in execution order for display.
var pipelineStages = []packpipeline.Stage{
	packpipeline.StageResolve,
	packpipeline.StageGraph,
	packpipeline.StageShake,
	packpipeline.StageInline,
	packpipeline.StageEmit,
	packpipeline.StageWrite,
}

type progressModel struct {
	title   string
	events  <-chan packpipeline.Event
	spinner spinner.Model
	prog    progress.Model
	items   []stageItem
	index   map[packpipeline.Stage]int
	width   int
	done    bool
	failed  bool
}

type stageItem struct {
	stage   packpipeline.Stage
	status  string
	elapsed string
}

type eventMsg packpipeline.Event
type doneMsg struct{}

// NewProgressModel returns a Bubble Tea model that renders one pack
// run, stage by stage, consuming events until the channel closes.
func NewProgressModel(title string, events <-chan packpipeline.Event) tea.Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 76

	items := make([]stageItem, 0, len(pipelineStages))
	index := make(map[packpipeline.Stage]int, len(pipelineStages))
	for i, stage := range pipelineStages {
		items = append(items, stageItem{stage: stage, status: "queued"})
		index[stage] = i
	}
	return &progressModel{
		title:   title,
		events:  events,
		spinner: sp,
		prog:    prog,
		items:   items,
		index:   index,
		width:   80,
	}
}

func (m *progressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.listenForEvent())
}

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		cmd := m.applyEvent(packpipeline.Event(msg))
		return m, tea.Batch(cmd, m.listenForEvent())
	case doneMsg:
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
			m.prog.Width = msg.Width - 4
		}
		return m, nil
	case progress.FrameMsg:
		progressModel, cmd := m.prog.Update(msg)
		m.prog = progressModel.(progress.Model)
		return m, cmd
	}
	return m, nil
}

func (m *progressModel) View() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	header := m.title
	switch {
	case m.failed:
		header = fmt.Sprintf("failed: %s", header)
	case m.done:
		header = fmt.Sprintf("packed: %s", header)
	default:
		header = fmt.Sprintf("%s %s", m.spinner.View(), header)
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(truncate(header, m.width-2)))
	b.WriteString("\n\n")

	for _, item := range m.items {
		statusStyled := styleStatus(item.status).Render(fmt.Sprintf("%8s", item.status))
		b.WriteString(fmt.Sprintf("  %s  %-8s %s\n", statusStyled, item.stage, item.elapsed))
	}

	b.WriteString("\n")
	if m.done {
		b.WriteString(m.prog.ViewAs(1.0))
	} else {
		b.WriteString(m.prog.View())
	}
	b.WriteString("\n")

	return b.String()
}

func (m *progressModel) listenForEvent() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return doneMsg{}
		}
		return eventMsg(ev)
	}
}

func (m *progressModel) applyEvent(ev packpipeline.Event) tea.Cmd {
	idx, ok := m.index[ev.Stage]
	if !ok {
		return nil
	}
	switch ev.Status {
	case packpipeline.StatusWorking:
		m.items[idx].status = "working"
	case packpipeline.StatusDone:
		m.items[idx].status = "done"
		m.items[idx].elapsed = ev.Elapsed.String()
	case packpipeline.StatusError:
		m.items[idx].status = "error"
		m.failed = true
	}

	completed := 0.0
	for _, item := range m.items {
		switch item.status {
		case "done", "error":
			completed++
		case "working":
			completed += 0.5
		}
	}
	return m.prog.SetPercent(completed / float64(len(m.items)))
}

func styleStatus(status string) lipgloss.Style {
	switch status {
	case "done":
		return lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	case "error":
		return lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	case "working":
		return lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	}
}

func truncate(value string, width int) string {
	if width <= 0 {
		return value
	}
	if runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	return runewidth.Truncate(value, width-3, "...")
}

// StageLogger is a ProgressSink for non-interactive runs: one line per
// finished or failed stage.
type StageLogger struct {
	W     io.Writer
	Color bool
}

var (
	stageDoneColor = color.New(color.FgGreen)
	stageFailColor = color.New(color.FgRed, color.Bold)
)

func (l StageLogger) OnEvent(ev packpipeline.Event) {
	if l.W == nil {
		return
	}
	switch ev.Status {
	case packpipeline.StatusDone:
		label := "done"
		if l.Color {
			label = stageDoneColor.Sprint(label)
		}
		fmt.Fprintf(l.W, "%-8s %s (%s)\n", ev.Stage, label, ev.Elapsed)
	case packpipeline.StatusError:
		label := "error"
		if l.Color {
			label = stageFailColor.Sprint(label)
		}
		fmt.Fprintf(l.W, "%-8s %s: %v\n", ev.Stage, label, ev.Err)
	}
}
