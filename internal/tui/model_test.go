package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/dnaik/lucid/internal/intake"
	"github.com/dnaik/lucid/internal/llm"
	"github.com/dnaik/lucid/internal/session"
)

func sourceFixture(name, text string) intake.Source {
	return intake.Source{Name: name, Text: text}
}

type scriptedClient struct {
	summary     string
	summaryErr  error
	answer      string
	answerErr   error
	definitions map[string]string

	summarizeCalls int
	answerCalls    int
	defineCalls    []string
}

func (c *scriptedClient) Summarize(ctx context.Context, text string, att *llm.Attachment) (string, error) {
	c.summarizeCalls++
	return c.summary, c.summaryErr
}

func (c *scriptedClient) Answer(ctx context.Context, summary, question string) (string, error) {
	c.answerCalls++
	return c.answer, c.answerErr
}

func (c *scriptedClient) Define(ctx context.Context, term string) (string, error) {
	c.defineCalls = append(c.defineCalls, term)
	if text, ok := c.definitions[term]; ok {
		return text, nil
	}
	return "", errors.New("unknown term")
}

func (c *scriptedClient) Name() string { return "scripted" }

func newTestModel(t *testing.T, client llm.Client) *model {
	t.Helper()
	m := NewModel(Config{LLM: client})
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return m
}

func keyRune(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestSummarizeAskFlow(t *testing.T) {
	client := &scriptedClient{
		summary: "Plants use [COMPLEX:photosynthesis] to make food.",
		answer:  "It's how plants make energy.",
	}
	m := newTestModel(t, client)

	m.composer.SetValue("Photosynthesis is the process by which plants convert light into chemical energy.")
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	if cmd == nil {
		t.Fatal("ctrl+s produced no command")
	}
	if !m.sess.Summarizing {
		t.Fatal("expected summarizing after ctrl+s")
	}
	if m.stage != stageDisplay {
		t.Fatal("expected display stage while summarizing")
	}

	m.Update(summaryResultMsg{text: client.summary})
	if m.sess.Summarizing {
		t.Fatal("summarizing flag not cleared")
	}
	if m.sess.Summary != client.summary {
		t.Fatalf("summary = %q", m.sess.Summary)
	}
	if len(m.doc.terms) != 1 || m.doc.terms[0].Term != "photosynthesis" {
		t.Fatalf("terms = %+v", m.doc.terms)
	}

	m.Update(keyRune('q'))
	if !m.question.Focused() {
		t.Fatal("q did not focus the question input")
	}
	m.question.SetValue("What is it?")
	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("enter produced no answer command")
	}
	if !m.sess.Answering {
		t.Fatal("expected answering after submit")
	}
	if len(m.sess.Chat) != 1 || m.sess.Chat[0].Role != session.RoleUser {
		t.Fatalf("chat after submit = %+v", m.sess.Chat)
	}

	m.Update(answerResultMsg{text: client.answer})
	if len(m.sess.Chat) != 2 {
		t.Fatalf("chat = %+v", m.sess.Chat)
	}
	if m.sess.Chat[0].Text != "What is it?" || m.sess.Chat[1].Text != client.answer {
		t.Errorf("chat order wrong: %+v", m.sess.Chat)
	}
	if m.sess.Chat[0].Seq >= m.sess.Chat[1].Seq {
		t.Errorf("seq not increasing: %d, %d", m.sess.Chat[0].Seq, m.sess.Chat[1].Seq)
	}
}

func TestSummarizeRequiresInput(t *testing.T) {
	m := newTestModel(t, &scriptedClient{})

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	if cmd != nil {
		t.Fatal("summarize with no input should not dispatch")
	}
	if m.stage != stageCompose {
		t.Fatal("stage changed despite rejected summarize")
	}
	if m.infoMessage == "" {
		t.Fatal("expected a notice explaining the rejection")
	}
}

func TestSummarizeFailureShowsErrorAndRetry(t *testing.T) {
	client := &scriptedClient{summary: "ok"}
	m := newTestModel(t, client)
	m.composer.SetValue("some text")
	m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})

	m.Update(summaryResultMsg{err: &llm.RequestError{StatusCode: 429, Message: "quota exceeded"}})
	if m.sess.Summarizing {
		t.Fatal("summarizing flag not cleared on failure")
	}
	if !strings.Contains(m.sess.LastError, "quota exceeded") {
		t.Errorf("LastError = %q", m.sess.LastError)
	}

	// Input survives the failure, so "a" retries.
	_, cmd := m.Update(keyRune('a'))
	if cmd == nil {
		t.Fatal("retry produced no command")
	}
	if !m.sess.Summarizing {
		t.Fatal("retry did not restart summarize")
	}
}

func TestAnswerFailureAppendsFallback(t *testing.T) {
	client := &scriptedClient{summary: "A [COMPLEX:term] here."}
	m := newTestModel(t, client)
	m.composer.SetValue("text")
	m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	m.Update(summaryResultMsg{text: client.summary})

	m.Update(keyRune('q'))
	m.question.SetValue("why?")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m.Update(answerResultMsg{err: errors.New("boom")})

	if len(m.sess.Chat) != 2 {
		t.Fatalf("chat = %+v", m.sess.Chat)
	}
	if m.sess.Chat[1].Text != session.AnswerFallback {
		t.Errorf("fallback text = %q", m.sess.Chat[1].Text)
	}
}

func TestDefinitionToggleAndStaleDiscard(t *testing.T) {
	client := &scriptedClient{
		summary: "First [COMPLEX:alpha] then [COMPLEX:beta] appear.",
		definitions: map[string]string{
			"alpha": "The first letter.",
			"beta":  "The second letter.",
		},
	}
	m := newTestModel(t, client)
	m.composer.SetValue("text")
	m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	m.Update(summaryResultMsg{text: client.summary})

	// Focus alpha and open its definition.
	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("define dispatched no command")
	}
	if m.sess.Definition == nil || m.sess.Definition.Term != "alpha" || !m.sess.Definition.Loading {
		t.Fatalf("definition = %+v", m.sess.Definition)
	}

	// Switch to beta before alpha's result lands.
	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.sess.Definition.Term != "beta" {
		t.Fatalf("definition = %+v", m.sess.Definition)
	}

	// Alpha's result is stale now and must be discarded.
	m.Update(defineResultMsg{term: "alpha", text: "The first letter."})
	if m.sess.Definition.Term != "beta" || !m.sess.Definition.Loading {
		t.Fatalf("stale result overwrote active definition: %+v", m.sess.Definition)
	}

	m.Update(defineResultMsg{term: "beta", text: "The second letter."})
	if m.sess.Definition.Loading || m.sess.Definition.Text != "The second letter." {
		t.Fatalf("definition = %+v", m.sess.Definition)
	}

	// Activating the same term again closes the popover.
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.sess.Definition != nil {
		t.Fatalf("popover not toggled closed: %+v", m.sess.Definition)
	}

	// And a third activation reopens it as a fresh lookup.
	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil || m.sess.Definition == nil || !m.sess.Definition.Loading {
		t.Fatalf("reopen failed: %+v", m.sess.Definition)
	}
}

func TestEscClosesPopoverBeforeQuitting(t *testing.T) {
	client := &scriptedClient{
		summary:     "A [COMPLEX:gamma] term.",
		definitions: map[string]string{"gamma": "Third letter."},
	}
	m := newTestModel(t, client)
	m.composer.SetValue("text")
	m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	m.Update(summaryResultMsg{text: client.summary})
	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m.Update(defineResultMsg{term: "gamma", text: "Third letter."})

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if cmd != nil {
		t.Fatal("esc with open popover should not quit")
	}
	if m.sess.Definition != nil {
		t.Fatal("popover not closed")
	}
}

func TestResetStartsFreshSession(t *testing.T) {
	client := &scriptedClient{summary: "A [COMPLEX:term]."}
	m := newTestModel(t, client)
	m.composer.SetValue("text")
	m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	m.Update(summaryResultMsg{text: client.summary})

	m.Update(keyRune('r'))
	if m.stage != stageCompose {
		t.Fatal("reset did not return to compose")
	}
	if m.sess.Summary != "" || len(m.sess.Chat) != 0 || m.sess.InputText != "" {
		t.Fatalf("session not cleared: %+v", m.sess)
	}
	if m.composer.Value() != "" {
		t.Errorf("composer still holds %q", m.composer.Value())
	}
}

func TestBusyRejectsSecondSummarize(t *testing.T) {
	client := &scriptedClient{summary: "ok"}
	m := newTestModel(t, client)
	m.composer.SetValue("text")
	m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})

	_, cmd := m.Update(keyRune('a'))
	if cmd != nil {
		t.Fatal("second summarize dispatched while busy")
	}
}

func TestSourceResultInstallsDocument(t *testing.T) {
	m := newTestModel(t, &scriptedClient{summary: "ok"})
	if err := m.sess.BeginAttachmentLoad(); err != nil {
		t.Fatal(err)
	}

	m.Update(sourceResultMsg{source: sourceFixture("notes.txt", "hello world")})
	if m.sess.SourceName != "notes.txt" {
		t.Errorf("source name = %q", m.sess.SourceName)
	}
	if m.composer.Value() != "hello world" {
		t.Errorf("composer = %q", m.composer.Value())
	}
	if m.sess.ProcessingAttachment {
		t.Error("processing flag not cleared")
	}
}

func TestSourceLoadFailureRollsBack(t *testing.T) {
	m := newTestModel(t, &scriptedClient{})
	if err := m.sess.BeginAttachmentLoad(); err != nil {
		t.Fatal(err)
	}

	m.Update(sourceResultMsg{err: errors.New("no such file")})
	if m.sess.ProcessingAttachment {
		t.Error("processing flag not cleared")
	}
	if m.sess.SourceName != "" {
		t.Errorf("source installed on failure: %q", m.sess.SourceName)
	}
	if !strings.Contains(m.infoMessage, "no such file") {
		t.Errorf("info = %q", m.infoMessage)
	}
}
