package tui

import (
	"fmt"
	"strings"

	"github.com/muesli/reflow/wordwrap"

	"github.com/dnaik/lucid/internal/markup"
	"github.com/dnaik/lucid/internal/session"
)

// termRef is one interactive complex-term span: the literal term and the
// content line it was rendered on, used as the popover anchor.
type termRef struct {
	Term string
	Line int
}

// renderedDoc is the displayable form of one summary: styled content plus the
// ordered complex-term anchors found while rendering.
type renderedDoc struct {
	content string
	terms   []termRef
}

type contentBuilder struct {
	builder strings.Builder
	lines   int
}

func (cb *contentBuilder) WriteString(s string) {
	cb.builder.WriteString(s)
	cb.lines += strings.Count(s, "\n")
}

func (cb *contentBuilder) WriteRune(r rune) {
	cb.builder.WriteRune(r)
	if r == '\n' {
		cb.lines++
	}
}

func (cb *contentBuilder) String() string {
	return cb.builder.String()
}

func (cb *contentBuilder) Line() int {
	return cb.lines
}

// renderDocument walks the parsed blocks of raw and produces styled content.
// The focusedTerm-th complex term (document order) gets the focused
// treatment. Pure: rendering never touches session state.
func renderDocument(raw string, width int, focusedTerm int) renderedDoc {
	if width < minContentWidth {
		width = minContentWidth
	}
	cb := &contentBuilder{}
	var terms []termRef
	nextTerm := 0

	blocks := markup.ParseBlocks(raw)
	for i, block := range blocks {
		if i > 0 {
			cb.WriteRune('\n')
		}
		switch block.Kind {
		case markup.BlockBulletList:
			for _, item := range block.Items {
				writeLeaf(cb, &terms, &nextTerm, item, width, focusedTerm, " • ", "   ")
			}
		default:
			writeLeaf(cb, &terms, &nextTerm, block.Text, width, focusedTerm, "", "")
		}
	}
	return renderedDoc{
		content: strings.TrimRight(cb.String(), "\n"),
		terms:   terms,
	}
}

// writeLeaf renders one leaf string (a paragraph or a bullet item): parse the
// inline spans, style them, word-wrap, and record where each complex term
// landed.
func writeLeaf(cb *contentBuilder, terms *[]termRef, nextTerm *int, text string, width int, focusedTerm int, prefix, indent string) {
	// A paragraph may carry a trailing blank line folded in by the block
	// parser; dropping it here keeps the inter-block separator single.
	text = strings.TrimRight(text, " \t\n")

	type occurrence struct {
		styled string
		term   string
	}
	var occ []occurrence

	var b strings.Builder
	for _, span := range markup.ParseSpans(text) {
		switch span.Kind {
		case markup.SpanBold:
			b.WriteString(boldSpanStyle.Render(span.Text))
		case markup.SpanComplex:
			style := complexTermStyle
			if *nextTerm == focusedTerm {
				style = complexTermFocusedStyle
			}
			styled := style.Render(span.Text)
			occ = append(occ, occurrence{styled: styled, term: span.Text})
			*nextTerm++
			b.WriteString(styled)
		default:
			b.WriteString(span.Text)
		}
	}

	wrapWidth := width - len(prefix)
	if wrapWidth < 20 {
		wrapWidth = 20
	}
	wrapped := wordwrap.String(b.String(), wrapWidth)

	startLine := cb.Line()
	for i, line := range strings.Split(wrapped, "\n") {
		if i == 0 {
			cb.WriteString(prefix)
		} else {
			cb.WriteString(indent)
		}
		cb.WriteString(line)
		cb.WriteRune('\n')
	}

	// Anchor each term to the wrapped line it starts on. A term split across
	// a wrap boundary falls back to the leaf's first line.
	offset := 0
	for _, o := range occ {
		line := startLine
		if idx := strings.Index(wrapped[offset:], o.styled); idx >= 0 {
			abs := offset + idx
			line = startLine + strings.Count(wrapped[:abs], "\n")
			offset = abs + len(o.styled)
		}
		*terms = append(*terms, termRef{Term: o.term, Line: line})
	}
}

// definitionBox renders the popover for the active definition at the given
// content width.
func definitionBox(def *session.Definition, width int, spin string) string {
	bodyWidth := width - 8
	if bodyWidth < 20 {
		bodyWidth = 20
	}
	var body string
	if def.Loading {
		body = fmt.Sprintf("%s Looking up %q…", spin, def.Term)
	} else {
		body = wordwrap.String(def.Text, bodyWidth)
	}
	inner := definitionTermStyle.Render(def.Term) + "\n" + body
	return definitionBoxStyle.Render(inner)
}

// insertAfterLine splices extra below line at of content.
func insertAfterLine(content, extra string, at int) string {
	lines := strings.Split(content, "\n")
	if at < 0 {
		at = 0
	}
	if at >= len(lines) {
		at = len(lines) - 1
	}
	out := make([]string, 0, len(lines)+strings.Count(extra, "\n")+1)
	out = append(out, lines[:at+1]...)
	out = append(out, strings.Split(extra, "\n")...)
	out = append(out, lines[at+1:]...)
	return strings.Join(out, "\n")
}
