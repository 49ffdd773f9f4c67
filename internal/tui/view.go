package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"reportengine/internal/editor"
)

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")
	b.WriteString(m.renderLists())
	b.WriteString("\n")
	b.WriteString(styleSection.Render("Events"))
	b.WriteString("\n")
	for i, block := range m.ws.Blocks() {
		b.WriteString(m.renderBlock(i, block))
		b.WriteString("\n")
	}

	b.WriteString(m.renderPrompt())
	b.WriteString("\n")
	if m.output != "" {
		b.WriteString(styleOutput.Width(max(m.width-4, 20)).Render(m.output))
		b.WriteString("\n")
	}
	if m.inputKind != inputNone {
		b.WriteString(m.input.View())
		b.WriteString("\n")
	}
	if m.message != "" {
		if m.failed {
			b.WriteString(styleError.Render(m.message))
		} else {
			b.WriteString(styleSaved.Render(m.message))
		}
		b.WriteString("\n")
	}
	b.WriteString(m.help.View(m.Keys))
	return b.String()
}

func (m Model) renderHeader() string {
	title := styleHeader.Render("Report Engine · " + m.ws.SessionName())
	status := m.ws.Status()
	if !status.Visible || status.Label() == "" {
		return title
	}
	label := status.Label()
	if status.State == editor.StateFailed {
		return lipgloss.JoinHorizontal(lipgloss.Top, title, " ", styleError.Render(label))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, title, " ", styleSaved.Render(label))
}

func (m Model) renderLists() string {
	entities := make([]string, 0)
	for _, e := range m.ws.Entities() {
		entities = append(entities, fmt.Sprintf("%s (%s)", e.Name, e.Type))
	}
	locations := make([]string, 0)
	for _, l := range m.ws.Locations() {
		locations = append(locations, l.Name)
	}
	return styleSection.Render("Entities") + "  " + joinOrNone(entities) + "\n" +
		styleSection.Render("Locations") + " " + joinOrNone(locations) + "\n"
}

func (m Model) renderBlock(i int, block editor.BlockView) string {
	selected := i == m.cursor
	var b strings.Builder

	heading := block.Title
	if selected {
		heading = styleFocused.Render(selectionIndicator + " " + heading)
	} else {
		heading = "  " + heading
	}
	b.WriteString(heading)
	b.WriteString("\n")

	for field := 0; field < fieldCount; field++ {
		label := styleLabel.Render(fieldLabels[field])
		if selected && field == m.field {
			label = styleFocused.Width(7).Render(fieldLabels[field])
		}
		b.WriteString("    ")
		b.WriteString(label)
		b.WriteString(" ")
		b.WriteString(renderField(block, field))
		b.WriteString("\n")
	}
	return b.String()
}

func renderField(block editor.BlockView, field int) string {
	switch field {
	case fieldWho:
		if len(block.Pills) == 0 {
			return styleMuted.Render("nobody")
		}
		pills := make([]string, 0, len(block.Pills))
		for _, pill := range block.Pills {
			pills = append(pills, stylePill.Render(pill.Label+" ×"))
		}
		return strings.Join(pills, " ")
	case fieldWhere:
		if block.Where == "" {
			return styleMuted.Render("N/A")
		}
		return styleValue.Render(block.Where)
	default:
		value := fieldValue(block, field)
		if strings.TrimSpace(value) == "" {
			return styleMuted.Render("-")
		}
		return styleValue.Render(value)
	}
}

func (m Model) renderPrompt() string {
	if len(m.prompts) == 0 {
		return styleMuted.Render("Prompt style: default")
	}
	return "Prompt style: " + styleFocused.Render(m.prompts[m.promptIdx].Name)
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return styleMuted.Render("none")
	}
	return strings.Join(items, ", ")
}
