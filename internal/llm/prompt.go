package llm

import "strings"

// The summary prompts pin down the only three markup conventions the renderer
// understands. If the model ignores them the output still renders as plain
// prose.
const markupDirectives = `Format the rewrite as short paragraphs and bullet lists (bullet lines start with "- ").
Emphasize the most important phrases with **double asterisks**.
Wrap every technical or uncommon term in a [COMPLEX:term] marker, for example [COMPLEX:photosynthesis].
Use no other formatting or markup of any kind.`

func buildSummaryPrompt(text string) string {
	var b strings.Builder
	b.WriteString("You are helping someone make sense of a difficult document. ")
	b.WriteString("Rewrite it in plain, simple language that a non-expert can follow, keeping every important fact.\n")
	b.WriteString(markupDirectives)
	b.WriteString("\n\nDocument:\n")
	b.WriteString(text)
	return b.String()
}

func buildAttachmentSummaryPrompt() string {
	return "You are helping someone make sense of a difficult document. " +
		"Rewrite the attached document in plain, simple language that a non-expert can follow, keeping every important fact.\n" +
		markupDirectives
}

func buildAnswerPrompt(summary, question string) string {
	var b strings.Builder
	b.WriteString("You are answering a follow-up question about a document summary. ")
	b.WriteString("Use ONLY the provided summary; if the answer is not in it, say so plainly.\n")
	b.WriteString("Answer in simple language, in a few sentences, with no markup.\n\n")
	b.WriteString("Summary:\n")
	b.WriteString(summary)
	b.WriteString("\n\nQuestion: ")
	b.WriteString(question)
	b.WriteString("\nAnswer:")
	return b.String()
}

func buildDefinePrompt(term string) string {
	return "Explain the term \"" + term + "\" in one or two short, simple sentences for a non-expert. " +
		"Respond with the definition only, no markup."
}

func clipText(text string, limit int) string {
	text = strings.TrimSpace(text)
	if limit <= 0 || len(text) <= limit {
		return text
	}
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}
