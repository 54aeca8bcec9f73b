// View rendering for the chat TUI.
package chat

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"kindred/internal/conversation"
)

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	switch m.step {
	case stepName:
		return m.renderNameWizard()
	case stepPersonality:
		return m.renderPersonalityWizard()
	}

	if m.isBooting {
		return m.renderBootScreen()
	}

	header := m.renderHeader()
	chatView := m.styles.Content.Render(m.viewport.View())

	inputStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(m.styles.Theme.Accent).
		Padding(0, 1)
	inputArea := inputStyle.Render(m.textarea.View())

	footer := m.renderFooter()

	return lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		chatView,
		inputArea,
		footer,
	)
}

func (m Model) renderHistory() string {
	var sb strings.Builder

	name := "Companion"
	if m.manager != nil {
		name = m.manager.Name()
	}

	for _, entry := range m.controller.Messages() {
		switch {
		case entry.Kind == conversation.KindNotice:
			sb.WriteString("\n" + m.styles.Notice.Render("✦ "+entry.Text) + "\n")

		case entry.Sender == conversation.SenderUser:
			userStyle := m.styles.Bold.
				Foreground(m.styles.Theme.Primary).
				MarginTop(1)
			sb.WriteString(userStyle.Render("You") + "\n")
			sb.WriteString(m.styles.UserInput.Render(entry.Text))
			sb.WriteString("\n\n")

		default:
			botStyle := m.styles.Bold.
				Foreground(m.styles.Theme.Accent).
				MarginTop(1)
			sb.WriteString(botStyle.Render(name) + "\n")
			sb.WriteString(m.safeRenderMarkdown(entry.Text))
			sb.WriteString("\n")
		}
	}

	return sb.String()
}

// safeRenderMarkdown renders markdown with panic recovery; glamour can choke
// on partially streamed constructs.
func (m Model) safeRenderMarkdown(content string) (result string) {
	defer func() {
		if r := recover(); r != nil {
			result = content
		}
	}()

	if m.renderer != nil && content != "" {
		rendered, err := m.renderer.Render(content)
		if err == nil {
			return rendered
		}
	}
	return content
}

func (m Model) renderHeader() string {
	name := "kindred"
	if m.manager != nil {
		name = m.manager.Name()
	}
	title := m.styles.Header.Render(" " + name + " ")
	badge := m.levelBadge()

	var status string
	switch {
	case m.isLoading:
		status = lipgloss.JoinHorizontal(lipgloss.Center, m.spinner.View(), " ", m.styles.Muted.Render("typing..."))
	case m.controller != nil && m.controller.Degraded():
		status = m.styles.Warning.Render("tone out of sync")
	default:
		status = m.styles.Success.Render("here with you")
	}

	// Progress toward the next level, hidden at the terminal level.
	progressLine := ""
	if threshold := m.levelThreshold(); threshold > 0 {
		progressLine = m.styles.RenderHearts(m.controller.Progress(), threshold)
	} else if m.controller != nil {
		progressLine = m.styles.Muted.Render(fmt.Sprintf("%d messages together", m.controller.Progress()))
	}

	headerLine := lipgloss.JoinHorizontal(
		lipgloss.Center,
		title,
		" ",
		badge,
		"  ",
		status,
	)

	return lipgloss.JoinVertical(
		lipgloss.Left,
		headerLine,
		m.styles.Footer.Render(progressLine),
		m.styles.RenderDivider(m.width),
	)
}

func (m Model) renderFooter() string {
	if m.err != nil {
		return m.styles.Error.Render(fmt.Sprintf("Error: %v", m.err)) +
			m.styles.Muted.Render("  Esc: quit")
	}
	timestamp := time.Now().Format("15:04")
	return m.styles.Footer.Render(fmt.Sprintf("%s | Enter: send | PgUp/PgDn: scroll | Esc: quit", timestamp))
}

func (m Model) renderNameWizard() string {
	title := m.styles.Title.Render("Welcome to kindred")
	prompt := m.styles.Body.Render("What would you like to call your companion?")

	content := lipgloss.JoinVertical(
		lipgloss.Left,
		title,
		prompt,
		"",
		m.nameInput.View(),
		"",
		m.styles.Muted.Render("Enter: continue | Esc: quit"),
	)

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
		m.styles.Content.Render(content))
}

func (m Model) renderPersonalityWizard() string {
	title := m.styles.Title.Render(fmt.Sprintf("Who should %s be?", m.chosenName))

	var rows []string
	for i, p := range m.personalities {
		cursor := "  "
		line := fmt.Sprintf("%s: %s", p.DisplayName, p.ShortDescription)
		if i == m.personalityIdx {
			cursor = m.styles.Prompt.Render("❯ ")
			line = m.styles.Bold.Render(line)
		} else {
			line = m.styles.Muted.Render(line)
		}
		rows = append(rows, cursor+line)
	}

	content := lipgloss.JoinVertical(
		lipgloss.Left,
		title,
		lipgloss.JoinVertical(lipgloss.Left, rows...),
		"",
		m.styles.Muted.Render("↑/↓: choose | Enter: start | Esc: quit"),
	)

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
		m.styles.Content.Render(content))
}

func (m Model) renderBootScreen() string {
	content := lipgloss.JoinVertical(
		lipgloss.Center,
		m.styles.Title.Render("kindred"),
		"\n",
		m.spinner.View(),
		"\n",
		m.styles.Subtitle.Render(fmt.Sprintf("%s is on the way...", m.chosenName)),
	)

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}
