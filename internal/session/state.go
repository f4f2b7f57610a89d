// Package session owns the mutable state of one browsing session. State is
// mutated only through the named transitions below; the renderer and parsers
// never touch it. The transitions are independent of any rendering surface so
// the whole machine is testable headless.
package session

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dnaik/lucid/internal/llm"
)

// Precondition violations. These are surfaced to the user immediately,
// without contacting the language model.
var (
	ErrBusy          = errors.New("operation already in flight")
	ErrNoInput       = errors.New("load a document or paste some text first")
	ErrNoSummary     = errors.New("no summary to ask about yet")
	ErrBlankQuestion = errors.New("question is blank")
)

// AnswerFallback is appended as the assistant reply when an answer request
// fails, so the transcript never ends on an unanswered question.
const AnswerFallback = "I couldn't come up with an answer for that. Please try asking again."

// DefinitionFallback fills the popover when a definition lookup fails.
const DefinitionFallback = "Couldn't fetch a definition right now. Close this and try again."

// Role tags a chat message author.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one transcript entry. Messages are appended in creation order
// and never mutated or removed; Seq is strictly monotonic within a session.
type Message struct {
	ID   string
	Role Role
	Text string
	Seq  int64
}

// Definition is the single open word-definition popover, anchored to a line
// of the rendered summary.
type Definition struct {
	Term    string
	Anchor  int
	Text    string
	Loading bool
}

// State is the single mutable aggregate for one session.
type State struct {
	InputText  string
	SourceName string
	Attachment *llm.Attachment

	Summary string
	Chat    []Message

	Summarizing          bool
	Answering            bool
	ProcessingAttachment bool

	LastError string

	Definition *Definition

	lastSeq int64
}

// SetInput stores pasted or extracted text and clears any selected
// attachment. Rejected while a summarize operation is in flight.
func (s *State) SetInput(text string) error {
	if s.Summarizing {
		return ErrBusy
	}
	s.InputText = text
	s.Attachment = nil
	return nil
}

// SetAttachment selects a binary attachment and clears the text input.
func (s *State) SetAttachment(name string, att *llm.Attachment) {
	s.Attachment = att
	s.SourceName = name
	s.InputText = ""
}

// ClearAttachment drops both input sources.
func (s *State) ClearAttachment() {
	s.Attachment = nil
	s.InputText = ""
	s.SourceName = ""
}

// BeginAttachmentLoad marks the file intake collaborator as busy.
func (s *State) BeginAttachmentLoad() error {
	if s.ProcessingAttachment {
		return ErrBusy
	}
	s.ProcessingAttachment = true
	return nil
}

// FailAttachmentLoad rolls back the attempted selection: no partial
// attachment state is retained.
func (s *State) FailAttachmentLoad(msg string) {
	s.ProcessingAttachment = false
	s.LastError = msg
}

// CompleteAttachmentLoad installs the loaded source. Intake produces either
// text or an attachment, never both.
func (s *State) CompleteAttachmentLoad(name, text string, att *llm.Attachment) {
	s.ProcessingAttachment = false
	if att != nil {
		s.SetAttachment(name, att)
		return
	}
	s.InputText = text
	s.Attachment = nil
	s.SourceName = name
}

// BeginSummarize starts a fresh summary: it clears the previous summary, the
// chat transcript and the last error. Requires exactly one input source.
func (s *State) BeginSummarize() error {
	if s.Summarizing {
		return ErrBusy
	}
	hasText := strings.TrimSpace(s.InputText) != ""
	hasAttachment := s.Attachment != nil
	if hasText == hasAttachment {
		return ErrNoInput
	}
	s.Summarizing = true
	s.Summary = ""
	s.Chat = nil
	s.LastError = ""
	s.Definition = nil
	return nil
}

func (s *State) CompleteSummarize(text string) {
	s.Summarizing = false
	s.Summary = text
}

func (s *State) FailSummarize(msg string) {
	s.Summarizing = false
	s.LastError = msg
}

// SubmitQuestion appends the user message optimistically and marks the answer
// operation busy.
func (s *State) SubmitQuestion(text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrBlankQuestion
	}
	if s.Summary == "" {
		return ErrNoSummary
	}
	if s.Answering {
		return ErrBusy
	}
	s.appendMessage(RoleUser, text)
	s.Answering = true
	return nil
}

func (s *State) CompleteAnswer(text string) {
	s.Answering = false
	s.appendMessage(RoleAssistant, text)
}

// FailAnswer appends the fixed fallback reply so the failure is visible in
// the transcript itself, distinct from LastError.
func (s *State) FailAnswer() {
	s.Answering = false
	s.appendMessage(RoleAssistant, AnswerFallback)
}

// OpenDefinition activates the popover for term at anchor. Activating the
// same term again while its definition is already filled toggles the popover
// closed instead. It reports whether a lookup should be dispatched.
func (s *State) OpenDefinition(term string, anchor int) bool {
	if s.Definition != nil && s.Definition.Term == term && s.Definition.Text != "" {
		s.Definition = nil
		return false
	}
	s.Definition = &Definition{Term: term, Anchor: anchor, Loading: true}
	return true
}

// CompleteDefinition fills the popover for the still-active term. A result
// for any other term is stale and dropped.
func (s *State) CompleteDefinition(term, text string) {
	if s.Definition == nil || s.Definition.Term != term {
		return
	}
	s.Definition.Text = text
	s.Definition.Loading = false
}

// FailDefinition fills the still-active popover with the fallback text.
func (s *State) FailDefinition(term string) {
	s.CompleteDefinition(term, DefinitionFallback)
}

func (s *State) CloseDefinition() {
	s.Definition = nil
}

// DefinitionLoading reports whether a definition lookup is in flight.
func (s *State) DefinitionLoading() bool {
	return s.Definition != nil && s.Definition.Loading
}

// Busy reports whether any of the three operation kinds is in flight.
func (s *State) Busy() bool {
	return s.Summarizing || s.Answering || s.ProcessingAttachment || s.DefinitionLoading()
}

// HasInput reports whether exactly one input source is selected.
func (s *State) HasInput() bool {
	return (strings.TrimSpace(s.InputText) != "") != (s.Attachment != nil)
}

func (s *State) appendMessage(role Role, text string) {
	s.Chat = append(s.Chat, Message{
		ID:   uuid.NewString(),
		Role: role,
		Text: text,
		Seq:  s.nextSeq(),
	})
}

// nextSeq is a UnixNano logical clock with forced uniqueness on collision.
func (s *State) nextSeq() int64 {
	seq := time.Now().UnixNano()
	if seq <= s.lastSeq {
		seq = s.lastSeq + 1
	}
	s.lastSeq = seq
	return seq
}
