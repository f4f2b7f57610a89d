// Package tui is the terminal frontend: it renders the simplified document,
// drives the three async operations, and feeds their results back into the
// session state machine.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/dnaik/lucid/internal/llm"
	"github.com/dnaik/lucid/internal/session"
)

type stage int

const (
	stageCompose stage = iota
	stageDisplay
)

type composerMode int

const (
	composerModeText composerMode = iota
	composerModePath
)

const (
	minContentWidth = 40
	minViewportRows = 5
)

// Config carries the wiring a model needs. LLM may be nil, in which case the
// model runs in a read-only mode and every simplify attempt explains why.
type Config struct {
	LLM        llm.Client
	SourcePath string
	ExtractPDF bool
}

type model struct {
	config Config

	stage        stage
	composerMode composerMode

	composer  textarea.Model
	pathInput textinput.Model
	question  textinput.Model
	spinner   spinner.Model
	viewport  viewport.Model

	sess session.State

	doc           renderedDoc
	focusedTerm   int
	viewportDirty bool

	infoMessage string
	helpVisible bool

	width  int
	height int
}

func NewModel(config Config) *model {
	composer := textarea.New()
	composer.Placeholder = "Paste the text you want simplified…"
	composer.CharLimit = 0
	composer.Focus()

	pathInput := textinput.New()
	pathInput.Placeholder = "Path or URL of a document (.txt, .md, .pdf)…"
	pathInput.CharLimit = 2048

	question := textinput.New()
	question.Placeholder = "Ask about the summary…"
	question.CharLimit = 512

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = spinnerStyle

	return &model{
		config:      config,
		stage:       stageCompose,
		composer:    composer,
		pathInput:   pathInput,
		question:    question,
		spinner:     sp,
		viewport:    viewport.New(minContentWidth, minViewportRows),
		focusedTerm: -1,
		infoMessage: "Paste text and press ctrl+s, or press ctrl+o to load a file.",
	}
}

func (m *model) Init() tea.Cmd {
	cmds := []tea.Cmd{textarea.Blink}
	if m.config.SourcePath != "" {
		if err := m.sess.BeginAttachmentLoad(); err == nil {
			m.infoMessage = fmt.Sprintf("Loading %s…", m.config.SourcePath)
			cmds = append(cmds, m.spinner.Tick, loadSourceJob(m.config.SourcePath, m.config.ExtractPDF))
		}
	}
	return tea.Batch(cmds...)
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = m.contentWidth()
		m.viewport.Height = m.viewportHeight()
		m.composer.SetWidth(m.contentWidth())
		m.pathInput.Width = m.contentWidth() - 4
		m.question.Width = m.contentWidth() - 4
		m.markViewportDirty()
		m.refreshViewport()
		return m, nil

	case spinner.TickMsg:
		if !m.sess.Busy() && !m.sess.DefinitionLoading() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if m.sess.DefinitionLoading() {
			m.markViewportDirty()
			m.refreshViewport()
		}
		return m, cmd

	case sourceResultMsg:
		return m.handleSourceResult(msg)

	case summaryResultMsg:
		return m.handleSummaryResult(msg)

	case answerResultMsg:
		return m.handleAnswerResult(msg)

	case defineResultMsg:
		if msg.err != nil {
			m.sess.FailDefinition(msg.term)
		} else {
			m.sess.CompleteDefinition(msg.term, msg.text)
		}
		m.markViewportDirty()
		m.refreshViewport()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	// Component messages (cursor blink and friends) for the focused input.
	var cmd tea.Cmd
	switch {
	case m.stage == stageCompose && m.composerMode == composerModePath:
		m.pathInput, cmd = m.pathInput.Update(msg)
	case m.stage == stageCompose:
		m.composer, cmd = m.composer.Update(msg)
	case m.question.Focused():
		m.question, cmd = m.question.Update(msg)
	}
	return m, cmd
}

func (m *model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}
	if m.stage == stageCompose {
		return m.handleComposeKey(msg)
	}
	return m.handleDisplayKey(msg)
}

func (m *model) handleComposeKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		if m.composerMode == composerModePath {
			m.composerMode = composerModeText
			m.pathInput.Blur()
			m.composer.Focus()
			return m, textarea.Blink
		}
		return m, tea.Quit

	case "ctrl+o":
		if m.composerMode == composerModeText {
			m.composerMode = composerModePath
			m.composer.Blur()
			m.pathInput.Focus()
			m.infoMessage = "Enter a file path or URL, then press enter."
			return m, textinput.Blink
		}
		m.composerMode = composerModeText
		m.pathInput.Blur()
		m.composer.Focus()
		return m, textarea.Blink

	case "enter":
		if m.composerMode == composerModePath {
			return m, m.startSourceLoad()
		}

	case "ctrl+x":
		m.sess.ClearAttachment()
		m.composer.Reset()
		m.pathInput.SetValue("")
		m.infoMessage = "Cleared the loaded document."
		return m, nil

	case "ctrl+s":
		// An empty composer must not clobber a loaded PDF attachment.
		if m.composerMode == composerModeText && strings.TrimSpace(m.composer.Value()) != "" {
			if err := m.sess.SetInput(m.composer.Value()); err != nil {
				m.infoMessage = friendlyErr(err)
				return m, nil
			}
		}
		return m, m.startSummarize()
	}

	var cmd tea.Cmd
	if m.composerMode == composerModePath {
		m.pathInput, cmd = m.pathInput.Update(msg)
	} else {
		m.composer, cmd = m.composer.Update(msg)
	}
	return m, cmd
}

func (m *model) handleDisplayKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.question.Focused() {
		switch msg.String() {
		case "enter":
			return m, m.submitQuestion()
		case "esc":
			m.question.Blur()
			return m, nil
		}
		var cmd tea.Cmd
		m.question, cmd = m.question.Update(msg)
		return m, cmd
	}

	switch msg.String() {
	case "esc":
		if m.sess.Definition != nil {
			m.sess.CloseDefinition()
			m.markViewportDirty()
			m.refreshViewport()
			return m, nil
		}
		if m.helpVisible {
			m.helpVisible = false
			return m, nil
		}
		return m, tea.Quit

	case "q":
		if m.sess.Definition != nil {
			m.sess.CloseDefinition()
			m.markViewportDirty()
		}
		m.question.Focus()
		m.refreshViewport()
		return m, textinput.Blink

	case "tab":
		m.cycleTerm(1)
		m.refreshViewport()
		return m, nil

	case "shift+tab":
		m.cycleTerm(-1)
		m.refreshViewport()
		return m, nil

	case "enter", "d":
		cmd := m.activateFocusedTerm()
		m.refreshViewport()
		return m, cmd

	case "a":
		return m, m.startSummarize()

	case "r":
		m.resetSession()
		return m, textarea.Blink

	case "?":
		m.helpVisible = !m.helpVisible
		return m, nil

	case "g":
		m.viewport.GotoTop()
		return m, nil

	case "G":
		m.viewport.GotoBottom()
		return m, nil
	}

	// Any other interaction dismisses an open popover.
	if m.sess.Definition != nil && !m.sess.Definition.Loading {
		m.sess.CloseDefinition()
		m.markViewportDirty()
		m.refreshViewport()
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *model) startSourceLoad() tea.Cmd {
	target := strings.TrimSpace(m.pathInput.Value())
	if target == "" {
		m.infoMessage = "Enter a file path or URL first."
		return nil
	}
	if err := m.sess.BeginAttachmentLoad(); err != nil {
		m.infoMessage = friendlyErr(err)
		return nil
	}
	m.infoMessage = fmt.Sprintf("Loading %s…", target)
	return tea.Batch(m.spinner.Tick, loadSourceJob(target, m.config.ExtractPDF))
}

func (m *model) startSummarize() tea.Cmd {
	if m.config.LLM == nil {
		m.infoMessage = "Simplification needs a configured language model (set GEMINI_API_KEY)."
		return nil
	}
	if err := m.sess.BeginSummarize(); err != nil {
		m.infoMessage = friendlyErr(err)
		return nil
	}
	m.stage = stageDisplay
	m.focusedTerm = -1
	m.doc = renderedDoc{}
	m.infoMessage = "Simplifying document…"
	m.markViewportDirty()
	m.refreshViewport()
	return tea.Batch(m.spinner.Tick, summarizeJob(m.config.LLM, m.sess.InputText, m.sess.Attachment))
}

func (m *model) submitQuestion() tea.Cmd {
	text := m.question.Value()
	if err := m.sess.SubmitQuestion(text); err != nil {
		m.infoMessage = friendlyErr(err)
		return nil
	}
	m.question.SetValue("")
	m.question.Blur()
	m.infoMessage = "Thinking…"
	m.markViewportDirty()
	m.refreshViewport()
	m.viewport.GotoBottom()
	return tea.Batch(m.spinner.Tick, answerJob(m.config.LLM, m.sess.Summary, strings.TrimSpace(text)))
}

func (m *model) activateFocusedTerm() tea.Cmd {
	if m.focusedTerm < 0 || m.focusedTerm >= len(m.doc.terms) {
		m.infoMessage = "Press tab to pick a highlighted term first."
		return nil
	}
	ref := m.doc.terms[m.focusedTerm]
	if !m.sess.OpenDefinition(ref.Term, ref.Line) {
		// Same term toggled closed; nothing to fetch.
		m.markViewportDirty()
		return nil
	}
	m.markViewportDirty()
	if m.config.LLM == nil {
		m.sess.FailDefinition(ref.Term)
		return nil
	}
	return tea.Batch(m.spinner.Tick, defineJob(m.config.LLM, ref.Term))
}

func (m *model) cycleTerm(delta int) {
	n := len(m.doc.terms)
	if n == 0 {
		m.infoMessage = "No highlighted terms in this summary."
		return
	}
	if m.focusedTerm < 0 {
		if delta > 0 {
			m.focusedTerm = 0
		} else {
			m.focusedTerm = n - 1
		}
	} else {
		m.focusedTerm = ((m.focusedTerm+delta)%n + n) % n
	}
	m.infoMessage = fmt.Sprintf("Term %d of %d: %s (enter defines it)", m.focusedTerm+1, n, m.doc.terms[m.focusedTerm].Term)
	m.markViewportDirty()
}

func (m *model) resetSession() {
	m.sess = session.State{}
	m.stage = stageCompose
	m.composerMode = composerModeText
	m.composer.Reset()
	m.composer.Focus()
	m.pathInput.SetValue("")
	m.question.SetValue("")
	m.question.Blur()
	m.doc = renderedDoc{}
	m.focusedTerm = -1
	m.helpVisible = false
	m.infoMessage = "Paste text and press ctrl+s, or press ctrl+o to load a file."
}

func (m *model) handleSourceResult(msg sourceResultMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.sess.FailAttachmentLoad(msg.err.Error())
		m.infoMessage = fmt.Sprintf("Document load failed: %v", msg.err)
		return m, nil
	}
	m.sess.CompleteAttachmentLoad(msg.source.Name, msg.source.Text, msg.source.Attachment)
	m.composerMode = composerModeText
	m.pathInput.Blur()
	m.composer.SetValue(msg.source.Text)
	m.composer.Focus()
	if msg.source.Attachment != nil {
		m.infoMessage = fmt.Sprintf("Loaded %s (PDF). Press ctrl+s to simplify.", msg.source.Name)
	} else {
		m.infoMessage = fmt.Sprintf("Loaded %s. Press ctrl+s to simplify.", msg.source.Name)
	}
	return m, textarea.Blink
}

func (m *model) handleSummaryResult(msg summaryResultMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.sess.FailSummarize(llm.UserMessage(msg.err))
		m.infoMessage = "Simplification failed. Press a to retry or r to start over."
	} else {
		m.sess.CompleteSummarize(msg.text)
		m.focusedTerm = -1
		m.infoMessage = "Summary ready. Tab cycles highlighted terms, q asks a question."
	}
	m.markViewportDirty()
	m.refreshViewport()
	m.viewport.GotoTop()
	return m, nil
}

func (m *model) handleAnswerResult(msg answerResultMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.sess.FailAnswer()
		m.infoMessage = "The model couldn't answer; a fallback reply was added."
	} else {
		m.sess.CompleteAnswer(msg.text)
		m.infoMessage = "Answer added. Press q to ask another question."
	}
	m.markViewportDirty()
	m.refreshViewport()
	m.viewport.GotoBottom()
	return m, nil
}

func (m *model) markViewportDirty() {
	m.viewportDirty = true
}

// refreshViewport rebuilds the display-stage viewport content when something
// that feeds it changed: summary, chat, popover, or term focus.
func (m *model) refreshViewport() {
	if !m.viewportDirty || m.stage != stageDisplay {
		return
	}
	m.viewportDirty = false

	prevOffset := m.viewport.YOffset
	m.doc = renderDocument(m.sess.Summary, m.contentWidth(), m.focusedTerm)
	if m.focusedTerm >= len(m.doc.terms) {
		m.focusedTerm = len(m.doc.terms) - 1
	}

	content := m.doc.content
	if def := m.sess.Definition; def != nil {
		box := definitionBox(def, m.contentWidth(), m.spinner.View())
		content = insertAfterLine(content, box, def.Anchor)
	}
	if transcript := m.chatTranscript(); transcript != "" {
		if content != "" {
			content += "\n\n" + chatRuleStyle.Render(strings.Repeat("─", m.contentWidth())) + "\n"
		}
		content += transcript
	}
	if content == "" && m.sess.Summarizing {
		content = fmt.Sprintf("%s Waiting for the simplified version…", m.spinner.View())
	}

	m.viewport.SetContent(content)
	m.viewport.YOffset = prevOffset
	if m.viewport.PastBottom() {
		m.viewport.GotoBottom()
	}
}

func (m *model) chatTranscript() string {
	if len(m.sess.Chat) == 0 && !m.sess.Answering {
		return ""
	}
	wrapWidth := m.contentWidth() - 5
	if wrapWidth < 20 {
		wrapWidth = 20
	}
	var b strings.Builder
	for i, message := range m.sess.Chat {
		if i > 0 {
			b.WriteString("\n")
		}
		label := assistantLabelStyle.Render("lucid")
		if message.Role == session.RoleUser {
			label = userLabelStyle.Render("you")
		}
		b.WriteString(label)
		b.WriteString("\n")
		b.WriteString(wordwrap.String(message.Text, wrapWidth))
		b.WriteString("\n")
	}
	if m.sess.Answering {
		b.WriteString("\n")
		b.WriteString(assistantLabelStyle.Render("lucid"))
		b.WriteString("\n")
		b.WriteString(m.spinner.View() + " thinking…\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m *model) contentWidth() int {
	w := m.width - 4
	if w < minContentWidth {
		w = minContentWidth
	}
	return w
}

func (m *model) viewportHeight() int {
	h := m.height - 12
	if h < minViewportRows {
		h = minViewportRows
	}
	return h
}

func friendlyErr(err error) string {
	switch err {
	case session.ErrBusy:
		return "Hang on, another request is still running."
	case session.ErrNoInput:
		return "Load a document or paste some text first."
	case session.ErrNoSummary:
		return "Simplify a document before asking questions."
	case session.ErrBlankQuestion:
		return "Type a question first."
	default:
		return err.Error()
	}
}

var (
	heroStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("105")).
			Bold(true)

	taglineStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243")).
			Italic(true)

	boldSpanStyle = lipgloss.NewStyle().
			Bold(true)

	complexTermStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("213")).
				Underline(true)

	complexTermFocusedStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("230")).
				Background(lipgloss.Color("55")).
				Bold(true)

	definitionBoxStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("105")).
				Padding(0, 1)

	definitionTermStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("213")).
				Bold(true)

	userLabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true)

	assistantLabelStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("105")).
				Bold(true)

	chatRuleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("238"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	errStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("203"))

	statusBarStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243")).
			Background(lipgloss.Color("236")).
			Padding(0, 1)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("246"))

	spinnerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("213"))
)

var logoArtLines = []string{
	"██╗     ██╗   ██╗ ██████╗██╗██████╗ ",
	"██║     ██║   ██║██╔════╝██║██╔══██╗",
	"██║     ██║   ██║██║     ██║██║  ██║",
	"██║     ██║   ██║██║     ██║██║  ██║",
	"███████╗╚██████╔╝╚██████╗██║██████╔╝",
	"╚══════╝ ╚═════╝  ╚═════╝╚═╝╚═════╝ ",
}

const tagline = "plain-language reading, one document at a time"
