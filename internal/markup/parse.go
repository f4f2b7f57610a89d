// Package markup converts the semi-structured text returned by the language
// model into typed spans and blocks. The grammar is deliberately tiny: bold
// runs (**text**), complex-term markers ([COMPLEX:term]) and bullet lines.
// Anything malformed degrades to plain text; the parsers never fail.
package markup

import "strings"

// SpanKind classifies an inline run of text.
type SpanKind int

const (
	SpanPlain SpanKind = iota
	SpanBold
	SpanComplex
)

// Span is an inline run with a single display treatment. For SpanComplex the
// Text is the term itself, without the marker syntax.
type Span struct {
	Kind SpanKind
	Text string
}

const complexOpen = "[COMPLEX:"

// ParseSpans scans text left to right once and returns the ordered inline
// spans. Unterminated markers are emitted verbatim as plain text. Empty input
// yields no spans.
func ParseSpans(text string) []Span {
	if text == "" {
		return nil
	}

	var spans []Span
	var plain strings.Builder
	flushPlain := func() {
		if plain.Len() > 0 {
			spans = append(spans, Span{Kind: SpanPlain, Text: plain.String()})
			plain.Reset()
		}
	}

	i := 0
	for i < len(text) {
		if strings.HasPrefix(text[i:], complexOpen) {
			body := text[i+len(complexOpen):]
			if end := strings.IndexByte(body, ']'); end > 0 {
				flushPlain()
				spans = append(spans, Span{Kind: SpanComplex, Text: body[:end]})
				i += len(complexOpen) + end + 1
				continue
			}
		}
		if strings.HasPrefix(text[i:], "**") {
			body := text[i+2:]
			// First closing marker wins; the bold payload may not contain '*'.
			if end := strings.IndexByte(body, '*'); end > 0 && strings.HasPrefix(body[end:], "**") {
				flushPlain()
				spans = append(spans, Span{Kind: SpanBold, Text: body[:end]})
				i += 2 + end + 2
				continue
			}
		}
		plain.WriteByte(text[i])
		i++
	}
	flushPlain()
	return spans
}

// BlockKind classifies a structural unit of the parsed document.
type BlockKind int

const (
	BlockParagraph BlockKind = iota
	BlockBulletList
)

// Block is a paragraph (Text, with interior newlines preserved) or a bullet
// list (Items, one raw string per bullet line).
type Block struct {
	Kind  BlockKind
	Text  string
	Items []string
}

// ParseBlocks splits text into ordered paragraph and bullet-list blocks.
// Consecutive bullet lines group into one list; any non-bullet line closes an
// open list and accumulates into a paragraph. Blank lines with no open
// paragraph are dropped rather than starting an empty one.
func ParseBlocks(text string) []Block {
	var blocks []Block
	var para []string
	var items []string

	flushPara := func() {
		if len(para) > 0 {
			blocks = append(blocks, Block{Kind: BlockParagraph, Text: strings.Join(para, "\n")})
			para = nil
		}
	}
	flushList := func() {
		if len(items) > 0 {
			blocks = append(blocks, Block{Kind: BlockBulletList, Items: items})
			items = nil
		}
	}

	for _, line := range strings.Split(text, "\n") {
		if content, ok := bulletContent(line); ok {
			flushPara()
			items = append(items, content)
			continue
		}
		flushList()
		if strings.TrimSpace(line) == "" && len(para) == 0 {
			continue
		}
		para = append(para, line)
	}
	flushPara()
	flushList()
	return blocks
}

// bulletContent reports whether line matches the bullet pattern (optional
// leading whitespace, '-' or '*', one space, content) and returns the content.
func bulletContent(line string) (string, bool) {
	trimmed := strings.TrimLeft(line, " \t")
	if len(trimmed) < 3 {
		return "", false
	}
	if (trimmed[0] == '-' || trimmed[0] == '*') && trimmed[1] == ' ' {
		return trimmed[2:], true
	}
	return "", false
}
