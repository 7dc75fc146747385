package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/move-everything/installer/internal/installer"
)

type stepMsg struct {
	message string
}

type doneMsg struct {
	err error
}

type progressModel struct {
	title     string
	spinner   spinner.Model
	completed []string
	current   string
	err       error
	finished  bool
	quitting  bool
}

func newProgressModel(title string) progressModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#3b82f6"))

	return progressModel{
		title:   title,
		spinner: s,
		current: "Starting...",
	}
}

func (m progressModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case stepMsg:
		if isWarning(msg.message) {
			// Warnings are shown inline and do not advance the current step
			m.completed = append(m.completed, msg.message)
			return m, nil
		}
		if len(m.current) > 0 && m.current != "Starting..." {
			m.completed = append(m.completed, m.current)
		}
		m.current = msg.message
		return m, nil

	case doneMsg:
		m.finished = true
		m.err = msg.err
		if msg.err == nil && len(m.current) > 0 {
			m.completed = append(m.completed, m.current)
			m.current = ""
		}
		return m, tea.Quit
	}

	return m, nil
}

func (m progressModel) View() string {
	var content strings.Builder

	content.WriteString(titleStyle.Render(m.title))
	content.WriteString("\n")

	for _, line := range m.completed {
		content.WriteString(renderStep(line))
		content.WriteString("\n")
	}

	switch {
	case m.err != nil:
		content.WriteString(errorStyle.Render("✗ " + m.current))
		content.WriteString("\n")
	case m.quitting:
		content.WriteString(warningStyle.Render("Cancelling..."))
		content.WriteString("\n")
	case !m.finished && len(m.current) > 0:
		content.WriteString(fmt.Sprintf("%s %s\n", m.spinner.View(), m.current))
	}

	return content.String()
}

func renderStep(line string) string {
	if isWarning(line) {
		return stepWarningStyle.Render("! " + line)
	}
	return stepDoneStyle.Render("✓ " + line)
}

func isWarning(message string) bool {
	return strings.HasPrefix(message, "Warning:")
}

// progressTask is the work displayed by runWithProgress. It must stop when
// ctx is cancelled.
type progressTask func(ctx context.Context, sink installer.ProgressFunc) error

// runWithProgress runs task while rendering its progress messages. With
// --plain, messages are printed line by line instead.
func runWithProgress(ctx context.Context, cmd *cobra.Command, title string, task progressTask) error {
	if plainOutput(cmd) {
		fmt.Println(titleStyle.Render(title))
		return task(ctx, func(message string) {
			fmt.Println(renderStep(message))
		})
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	program := tea.NewProgram(newProgressModel(title))
	result := make(chan error, 1)

	go func() {
		err := task(ctx, func(message string) {
			program.Send(stepMsg{message: message})
		})
		result <- err
		program.Send(doneMsg{err: err})
	}()

	finalModel, err := program.Run()
	if err != nil {
		cancel()
		<-result
		return fmt.Errorf("TUI error: %w", err)
	}

	if final, ok := finalModel.(progressModel); ok && final.quitting {
		cancel()
	}

	// The view can exit before the task does, so always wait for it
	return <-result
}
