package tui

import (
	"context"
	"log"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/dnaik/lucid/internal/intake"
	"github.com/dnaik/lucid/internal/llm"
)

type sourceResultMsg struct {
	source intake.Source
	err    error
}

type summaryResultMsg struct {
	text string
	err  error
}

type answerResultMsg struct {
	text string
	err  error
}

// defineResultMsg carries the term it was fetched for so superseded lookups
// can be discarded on arrival.
type defineResultMsg struct {
	term string
	text string
	err  error
}

func loadSourceJob(target string, extractPDF bool) tea.Cmd {
	return func() tea.Msg {
		started := time.Now()
		source, err := loadSource(context.Background(), target, extractPDF)
		log.Printf("[intake] load %q finished (duration=%s, err=%v)", target, time.Since(started), err)
		return sourceResultMsg{source: source, err: err}
	}
}

// loadSource resolves target to a local file (fetching URLs through the disk
// cache) and reads it into a Source. With extractPDF set, PDFs are converted
// to plain text locally instead of being kept as binary attachments.
func loadSource(ctx context.Context, target string, extractPDF bool) (intake.Source, error) {
	local := target
	if strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://") {
		path, err := intake.Fetch(ctx, target)
		if err != nil {
			return intake.Source{}, err
		}
		local = path
	}
	if extractPDF && strings.EqualFold(filepath.Ext(local), ".pdf") {
		return intake.ExtractText(local)
	}
	return intake.Load(local)
}

func summarizeJob(client llm.Client, text string, att *llm.Attachment) tea.Cmd {
	return func() tea.Msg {
		started := time.Now()
		summary, err := client.Summarize(context.Background(), text, att)
		log.Printf("[llm] summarize finished (duration=%s, err=%v)", time.Since(started), err)
		return summaryResultMsg{text: summary, err: err}
	}
}

func answerJob(client llm.Client, summary, question string) tea.Cmd {
	return func() tea.Msg {
		started := time.Now()
		answer, err := client.Answer(context.Background(), summary, question)
		log.Printf("[llm] answer finished (duration=%s, err=%v)", time.Since(started), err)
		return answerResultMsg{text: answer, err: err}
	}
}

func defineJob(client llm.Client, term string) tea.Cmd {
	return func() tea.Msg {
		started := time.Now()
		text, err := client.Define(context.Background(), term)
		log.Printf("[llm] define %q finished (duration=%s, err=%v)", term, time.Since(started), err)
		return defineResultMsg{term: term, text: text, err: err}
	}
}
