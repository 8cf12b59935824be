package quest

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"cyberquest/internal/chat"
	"cyberquest/internal/lab"
	"cyberquest/internal/ui/components"
	"cyberquest/internal/ui/theme"
)

var typingFrames = []string{"·  ", "·· ", "···"}

func (q *QuestScreen) View(width, height int) string {
	if !q.booted {
		return renderLoading(width, height)
	}

	// Three columns: tasks, chat, labs. Chat gets the widest share.
	taskWidth := width * 3 / 10
	labWidth := width * 3 / 10
	chatWidth := width - taskWidth - labWidth

	tasks := q.renderTasksPane(taskWidth, height)
	conversation := q.renderChatPane(chatWidth, height)
	labs := q.renderLabsPane(labWidth, height)

	return lipgloss.JoinHorizontal(lipgloss.Top, tasks, conversation, labs)
}

func renderLoading(width, height int) string {
	msg := lipgloss.NewStyle().
		Foreground(theme.TextDim).
		Render("Contacting the guild...")
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, msg)
}

func (q *QuestScreen) paneStyle(p pane) lipgloss.Style {
	if q.focus == p {
		return theme.PaneActive
	}
	return theme.PaneInactive
}

func (q *QuestScreen) renderTasksPane(width, height int) string {
	inner := width - 4 // border + padding
	if inner < 10 {
		inner = 10
	}

	var b strings.Builder
	b.WriteString(theme.Title.Render("Tasks") + "\n\n")

	for i, t := range q.snap.Catalog.Tasks {
		marker := "  "
		if i == q.taskCursor && q.focus == paneTasks {
			marker = "▸ "
		}

		label := t.Title
		style := theme.Unselected
		switch {
		case t.Completed:
			label = "✔ " + label
			style = theme.Correct
		case t.Locked:
			label = "🔒 " + label
			style = theme.Locked
		default:
			label = "◈ " + label
		}
		if q.snap.ActiveTask != nil && q.snap.ActiveTask.ID == t.ID {
			style = style.Bold(true).Foreground(theme.Primary)
		}

		reward := lipgloss.NewStyle().
			Foreground(theme.TextDim).
			Render(fmt.Sprintf("  +%dxp +%dc", t.Reward.XP, t.Reward.Coins))

		b.WriteString(marker + style.Render(label) + reward + "\n")
	}

	if len(q.snap.Catalog.Tasks) == 0 {
		b.WriteString(theme.Hint.Render("no tasks loaded") + "\n")
	}

	b.WriteString("\n")

	// XP toward the next level.
	p := q.snap.Progress
	pct := 0.0
	if p.XPToNextLevel > 0 {
		pct = float64(p.XP) / float64(p.XPToNextLevel)
	}
	bar := components.NewProgressBar(fmt.Sprintf("Lv %d", p.Level), pct, false, inner)
	b.WriteString(bar.View() + "\n")
	b.WriteString(lipgloss.NewStyle().Foreground(theme.TextDim).
		Render(fmt.Sprintf("%d / %d xp   ◆ %d coins", p.XP, p.XPToNextLevel, p.Coins)) + "\n")

	b.WriteString("\n" + theme.Hint.Render("flag") + "\n")
	b.WriteString(q.flagInput.View())

	return q.paneStyle(paneTasks).Width(width - 2).Height(height - 2).Render(b.String())
}

func (q *QuestScreen) renderChatPane(width, height int) string {
	inner := width - 4
	if inner < 10 {
		inner = 10
	}

	var b strings.Builder
	b.WriteString(theme.Title.Render("Archmage") + "\n\n")

	// Fit the newest messages into the remaining rows.
	maxRows := height - 8
	if maxRows < 3 {
		maxRows = 3
	}
	lines := q.transcriptLines(inner)
	if len(lines) > maxRows {
		lines = lines[len(lines)-maxRows:]
	}
	b.WriteString(strings.Join(lines, "\n") + "\n")

	if q.snap.Typing {
		frame := typingFrames[q.tickFrame%len(typingFrames)]
		b.WriteString(theme.Hint.Render("the Archmage is typing "+frame) + "\n")
	}

	b.WriteString("\n" + q.chatInput.View())

	return q.paneStyle(paneChat).Width(width - 2).Height(height - 2).Render(b.String())
}

func (q *QuestScreen) transcriptLines(width int) []string {
	wrap := lipgloss.NewStyle().Width(width)

	var lines []string
	for _, m := range q.snap.Messages {
		var prefix string
		var style lipgloss.Style
		switch m.Sender {
		case chat.SenderUser:
			prefix = "you  "
			style = lipgloss.NewStyle().Foreground(theme.Primary)
		case chat.SenderAgent:
			prefix = "mage "
			style = lipgloss.NewStyle().Foreground(theme.Secondary)
		default:
			prefix = "  ·  "
			style = lipgloss.NewStyle().Foreground(theme.TextDim).Italic(true)
		}
		rendered := wrap.Render(style.Render(prefix) + theme.Body.Render(m.Text))
		lines = append(lines, strings.Split(rendered, "\n")...)
	}
	return lines
}

func (q *QuestScreen) renderLabsPane(width, height int) string {
	var b strings.Builder
	b.WriteString(theme.Title.Render("Labs") + "\n\n")

	if len(q.snap.Labs) == 0 {
		b.WriteString(theme.Hint.Render("no labs running") + "\n")
		b.WriteString(theme.Hint.Render("press S on a task to spin one up") + "\n")
	}

	for i, inst := range q.snap.Labs {
		marker := "  "
		if i == q.labCursor && q.focus == paneLabs {
			marker = "▸ "
		}

		name := theme.Body.Render(inst.DisplayName)
		status := renderLabStatus(inst.Status)
		b.WriteString(marker + name + "  " + status + "\n")

		if inst.AccessPoint != "" {
			b.WriteString("    " + lipgloss.NewStyle().
				Foreground(theme.Accent).Underline(true).
				Render(inst.AccessPoint) + "\n")
		}
		if inst.Description != "" {
			b.WriteString("    " + theme.Hint.Render(inst.Description) + "\n")
		}
		b.WriteString("\n")
	}

	return q.paneStyle(paneLabs).Width(width - 2).Height(height - 2).Render(b.String())
}

func renderLabStatus(s lab.Status) string {
	switch s {
	case lab.StatusRunning:
		return lipgloss.NewStyle().Foreground(theme.Success).Render("● running")
	case lab.StatusStarting:
		return lipgloss.NewStyle().Foreground(theme.Accent).Render("◌ starting")
	case lab.StatusStopping:
		return lipgloss.NewStyle().Foreground(theme.Accent).Render("◌ stopping")
	default:
		return lipgloss.NewStyle().Foreground(theme.TextDim).Render("○ stopped")
	}
}
