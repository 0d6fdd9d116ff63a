package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/zhouzirui/persona-chat/internal/model/chat"
	"github.com/zhouzirui/persona-chat/internal/service/conversation"
	"github.com/zhouzirui/persona-chat/internal/service/view"
)

// View renders the current screen.
func (m Model) View() string {
	var body string
	if m.snapshot.Screen == view.ScreenChat {
		body = m.chatView()
	} else {
		body = m.list.View()
	}
	if m.toast != nil {
		body = lipgloss.JoinVertical(lipgloss.Left, body, renderToast(*m.toast))
	}
	return body
}

func (m Model) chatView() string {
	c := m.snapshot.Character
	var header string
	if c != nil {
		header = headerStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
			accentStyle(c.Accent).Render(c.Name),
			dimStyle.Render(c.HeaderTitle()),
		))
	}

	status := dimStyle.Render("enter send · ctrl+s speak · ctrl+p/ctrl+n pick reply · esc back")
	if m.snapshot.AwaitingResponse {
		name := "Character"
		if c != nil {
			name = c.Name
		}
		status = m.spinner.View() + " " + dimStyle.Render(name+" is typing...")
	} else if m.speaking > 0 {
		status = dimStyle.Render("generating voice...")
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		m.viewport.View(),
		m.input.View(),
		status,
	)
}

// renderTranscript returns the transcript and the line the picked message
// starts on, or -1 when nothing is picked.
func (m Model) renderTranscript() (string, int) {
	width := max(m.width-4, 20)
	name, accent := "Character", ""
	if c := m.snapshot.Character; c != nil {
		name, accent = c.Name, c.Accent
	}

	var b strings.Builder
	pickedLine := -1
	for i, msg := range m.snapshot.Messages {
		if i > 0 {
			b.WriteString("\n\n")
		}
		label := userLabelStyle.Render("You")
		if msg.Sender == chat.SenderCharacter {
			label = accentStyle(accent).Render(name)
		}
		if i == m.picked {
			pickedLine = strings.Count(b.String(), "\n")
			label = pickStyle.Render("▸ ") + label
		}
		b.WriteString(label + dimStyle.Render("  "+msg.Timestamp.Local().Format("15:04")))
		b.WriteString("\n")
		b.WriteString(bubbleStyle.Width(width).Render(msg.Content))
	}
	return b.String(), pickedLine
}

func renderToast(n conversation.Notification) string {
	style := toastStyle
	if n.Variant == conversation.VariantDestructive {
		style = destructiveToastStyle
	}
	return style.Render(titleStyle.Render(n.Title) + "\n" + n.Description)
}
