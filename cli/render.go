package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"taskwise/ai"
	"taskwise/board"
	"taskwise/domain"
)

const columnWidth = 34

// Display colors mapped onto the 256-color palette.
var palette = map[string]lipgloss.Color{
	"blue":   lipgloss.Color("33"),
	"yellow": lipgloss.Color("226"),
	"green":  lipgloss.Color("34"),
	"gray":   lipgloss.Color("242"),
	"red":    lipgloss.Color("196"),
}

var (
	headerStyle  = lipgloss.NewStyle().Bold(true)
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	overdueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	columnStyle  = lipgloss.NewStyle().Width(columnWidth).Padding(0, 1).Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240"))
	colorEnabled = true
)

// DisableColor strips all styling from output.
func DisableColor() {
	colorEnabled = false
	headerStyle = lipgloss.NewStyle()
	dimStyle = lipgloss.NewStyle()
	overdueStyle = lipgloss.NewStyle()
	errorStyle = lipgloss.NewStyle()
	columnStyle = lipgloss.NewStyle().Width(columnWidth).Padding(0, 1).Border(lipgloss.NormalBorder())
}

func colored(d domain.Display) lipgloss.Style {
	if !colorEnabled {
		return lipgloss.NewStyle()
	}
	return lipgloss.NewStyle().Foreground(palette[d.Color])
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// RenderBoard draws the three status columns side by side.
func RenderBoard(w io.Writer, cols []domain.Column, now time.Time) {
	blocks := make([]string, 0, len(cols))
	for _, col := range cols {
		var b strings.Builder
		head := fmt.Sprintf("%s (%d)", col.Status, len(col.Tasks))
		b.WriteString(colored(domain.StatusDisplay(col.Status)).Bold(colorEnabled).Render(head))
		if len(col.Tasks) == 0 {
			b.WriteString("\n" + dimStyle.Render("No tasks"))
		}
		for _, t := range col.Tasks {
			d := domain.Detail(t, now)
			b.WriteString("\n\n")
			b.WriteString(headerStyle.Render(t.Title))
			b.WriteString("\n")
			b.WriteString(dimStyle.Render(shortID(t.ID)) + " ")
			b.WriteString(colored(d.PriorityDisplay).Render(string(t.Priority)))
			due := "due " + d.DueDateLabel
			if d.IsOverdue {
				b.WriteString(" " + overdueStyle.Render(due+" (overdue)"))
			} else {
				b.WriteString(" " + dimStyle.Render(due))
			}
			b.WriteString("\n" + dimStyle.Render("@ "+t.Assignee.Name))
		}
		blocks = append(blocks, columnStyle.Render(b.String()))
	}
	fmt.Fprintln(w, lipgloss.JoinHorizontal(lipgloss.Top, blocks...))
}

// RenderDetail prints every field of one task.
func RenderDetail(w io.Writer, d domain.TaskDetail) {
	fmt.Fprintln(w, headerStyle.Render(d.Title))
	row := func(label, value string) {
		fmt.Fprintf(w, "%s %s\n", dimStyle.Render(fmt.Sprintf("%-10s", label)), value)
	}
	row("ID", d.ID)
	row("Status", colored(d.StatusDisplay).Render(string(d.Status)))
	row("Priority", colored(d.PriorityDisplay).Render(string(d.Priority)))
	due := d.DueDate
	if d.IsOverdue {
		due = overdueStyle.Render(due + " (overdue)")
	}
	row("Due", due)
	assignee := d.Assignee.Name
	if d.Assignee.Email != "" {
		assignee += " <" + d.Assignee.Email + ">"
	}
	row("Assignee", assignee)
	if d.Description != "" {
		fmt.Fprintln(w)
		fmt.Fprintln(w, d.Description)
	}
}

// RenderEvaluation prints a model verdict.
func RenderEvaluation(w io.Writer, p ai.Provider, ev ai.Evaluation) {
	score := lipgloss.NewStyle().Bold(colorEnabled)
	if colorEnabled {
		switch {
		case ev.AIScore >= 70:
			score = score.Foreground(palette["green"])
		case ev.AIScore >= 40:
			score = score.Foreground(palette["yellow"])
		default:
			score = score.Foreground(palette["red"])
		}
	}
	fmt.Fprintf(w, "%s %s\n", headerStyle.Render("AI score ("+string(p)+"):"), score.Render(fmt.Sprintf("%d/100", ev.AIScore)))
	fmt.Fprintf(w, "\n%s\n%s\n", headerStyle.Render("Reasons"), ev.Reasons)
	fmt.Fprintf(w, "\n%s\n%s\n", headerStyle.Render("Suggestions"), ev.Suggestions)
}

// RenderAssignees lists the assignee directory.
func RenderAssignees(w io.Writer, as []domain.Assignee) {
	for _, a := range as {
		fmt.Fprintf(w, "%-10s %s\n", a.Name, dimStyle.Render(a.Email))
	}
}

// notifier prints board notifications to w.
func notifier(w io.Writer) board.Notifier {
	return board.NotifierFunc(func(n board.Notification) {
		title := headerStyle.Render(n.Title)
		if n.Level == board.LevelError {
			title = errorStyle.Render(n.Title)
		}
		if n.Message == "" {
			fmt.Fprintln(w, title)
			return
		}
		fmt.Fprintf(w, "%s: %s\n", title, n.Message)
	})
}
