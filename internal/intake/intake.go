// Package intake turns files and URLs into session input sources: plain text
// for anything textual, a binary attachment for PDF documents.
package intake

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/dnaik/lucid/internal/llm"
)

// Source is one loaded document. Exactly one of Text and Attachment is set.
type Source struct {
	Name       string
	Text       string
	Attachment *llm.Attachment
}

var (
	pdfMagic             = []byte("%PDF-")
	extraneousWhitespace = regexp.MustCompile(`\s+`)
)

// Load reads the file at path. PDF files become binary attachments with their
// bytes untouched; everything else is normalized to text.
func Load(path string) (Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Source{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	name := filepath.Base(path)
	if isPDF(path, data) {
		return Source{
			Name:       name,
			Attachment: &llm.Attachment{MIMEType: "application/pdf", Data: data},
		}, nil
	}
	text := normalizeText(data)
	if strings.TrimSpace(text) == "" {
		return Source{}, fmt.Errorf("%s contains no usable text", path)
	}
	return Source{Name: name, Text: text}, nil
}

// ExtractText reads a PDF at path and extracts its plain text locally, the
// alternate path for users who want the text in the composer instead of the
// raw bytes going to the model.
func ExtractText(path string) (Source, error) {
	file, reader, err := pdf.Open(path)
	if err != nil {
		return Source{}, fmt.Errorf("failed to open pdf: %w", err)
	}
	defer file.Close()

	content, err := reader.GetPlainText()
	if err != nil {
		return Source{}, fmt.Errorf("failed to extract pdf text: %w", err)
	}
	var builder strings.Builder
	if _, err := io.Copy(&builder, content); err != nil {
		return Source{}, err
	}
	text := strings.TrimSpace(extraneousWhitespace.ReplaceAllString(builder.String(), " "))
	if text == "" {
		return Source{}, fmt.Errorf("%s contains no extractable text", path)
	}
	return Source{Name: filepath.Base(path), Text: text}, nil
}

func isPDF(path string, data []byte) bool {
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		return true
	}
	return bytes.HasPrefix(data, pdfMagic)
}

func normalizeText(data []byte) string {
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	return strings.ReplaceAll(text, "\r", "\n")
}
