package tui

import (
	"fmt"
	"strings"
)

func (m *model) View() string {
	var b strings.Builder
	b.WriteString(m.heroView())
	b.WriteString("\n")

	if m.stage == stageCompose {
		b.WriteString(m.composeView())
	} else {
		b.WriteString(m.displayView())
	}

	b.WriteString("\n")
	b.WriteString(m.statusView())
	return b.String()
}

func (m *model) heroView() string {
	var b strings.Builder
	for _, line := range logoArtLines {
		b.WriteString(heroStyle.Render(line))
		b.WriteString("\n")
	}
	b.WriteString(taglineStyle.Render(tagline))
	b.WriteString("\n")
	return b.String()
}

func (m *model) composeView() string {
	var b strings.Builder
	if m.composerMode == composerModePath {
		b.WriteString("Document to load:\n")
		b.WriteString(m.pathInput.View())
		b.WriteString("\n")
	} else {
		b.WriteString(m.composer.View())
		b.WriteString("\n")
	}
	if m.sess.SourceName != "" {
		b.WriteString(infoStyle.Render(fmt.Sprintf("Source: %s", m.sess.SourceName)))
		b.WriteString("\n")
	} else if m.sess.HasInput() {
		b.WriteString(infoStyle.Render("Ready to simplify."))
		b.WriteString("\n")
	}
	b.WriteString(m.noticeView())
	b.WriteString(helpStyle.Render("ctrl+s simplify · ctrl+o load file/URL · ctrl+x clear · esc quit"))
	b.WriteString("\n")
	return b.String()
}

func (m *model) displayView() string {
	var b strings.Builder
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	b.WriteString(m.noticeView())
	if m.question.Focused() {
		b.WriteString("Question: ")
		b.WriteString(m.question.View())
		b.WriteString("\n")
	}
	if m.helpVisible {
		b.WriteString(helpStyle.Render(strings.Join([]string{
			"tab/shift+tab  cycle highlighted terms",
			"enter or d     define the focused term (again closes it)",
			"q              ask a question about the summary",
			"a              simplify the same input again",
			"r              start over with a new document",
			"g/G            jump to top/bottom",
			"esc            close popover / quit",
		}, "\n")))
		b.WriteString("\n")
	} else {
		b.WriteString(helpStyle.Render("tab terms · enter define · q ask · a retry · r reset · ? help"))
		b.WriteString("\n")
	}
	return b.String()
}

func (m *model) noticeView() string {
	var b strings.Builder
	if m.sess.LastError != "" {
		b.WriteString(errStyle.Render(m.sess.LastError))
		b.WriteString("\n")
	}
	if m.infoMessage != "" {
		if m.sess.Busy() {
			b.WriteString(infoStyle.Render(m.spinner.View() + " " + m.infoMessage))
		} else {
			b.WriteString(infoStyle.Render(m.infoMessage))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m *model) statusView() string {
	parts := []string{"lucid"}
	if m.sess.SourceName != "" {
		parts = append(parts, m.sess.SourceName)
	}
	if m.sess.Summary != "" {
		parts = append(parts, fmt.Sprintf("%d terms", len(m.doc.terms)))
	}
	if n := len(m.sess.Chat); n > 0 {
		parts = append(parts, fmt.Sprintf("%d chat messages", n))
	}
	if m.config.LLM != nil {
		parts = append(parts, m.config.LLM.Name())
	} else {
		parts = append(parts, "llm off")
	}
	if m.sess.Busy() {
		parts = append(parts, "working…")
	}
	return statusBarStyle.Render(strings.Join(parts, " │ "))
}
