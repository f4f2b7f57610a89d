package llm

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

type geminiClient struct {
	endpoint string
	model    string
	apiKey   string
	client   *http.Client
}

func (c *geminiClient) Name() string {
	return fmt.Sprintf("Gemini (%s)", c.model)
}

func (c *geminiClient) Summarize(ctx context.Context, text string, att *Attachment) (string, error) {
	if att != nil {
		return c.generate(ctx, buildAttachmentSummaryPrompt(), att)
	}
	clipped := clipText(text, maxSummaryChars)
	if clipped == "" {
		return "", fmt.Errorf("document text empty; cannot simplify")
	}
	return c.generate(ctx, buildSummaryPrompt(clipped), nil)
}

func (c *geminiClient) Answer(ctx context.Context, summary, question string) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", fmt.Errorf("question cannot be empty")
	}
	clipped := clipText(summary, maxAnswerChars)
	if clipped == "" {
		return "", fmt.Errorf("summary empty; cannot answer question")
	}
	return c.generate(ctx, buildAnswerPrompt(clipped, question), nil)
}

func (c *geminiClient) Define(ctx context.Context, term string) (string, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return "", fmt.Errorf("term cannot be empty")
	}
	return c.generate(ctx, buildDefinePrompt(term), nil)
}

type generatePart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *generateBlobPart `json:"inlineData,omitempty"`
}

type generateBlobPart struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"`
}

type generateContent struct {
	Parts []generatePart `json:"parts"`
}

type generateRequest struct {
	Contents []generateContent `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

type generateErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

func (c *geminiClient) generate(ctx context.Context, prompt string, att *Attachment) (string, error) {
	parts := []generatePart{{Text: prompt}}
	if att != nil {
		parts = append(parts, generatePart{InlineData: &generateBlobPart{
			MIMEType: att.MIMEType,
			Data:     base64.StdEncoding.EncodeToString(att.Data),
		}})
	}
	payload := generateRequest{Contents: []generateContent{{Parts: parts}}}
	buf, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.endpoint, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(buf))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode >= 400 {
		var parsed generateErrorResponse
		_ = json.Unmarshal(body, &parsed)
		return "", &RequestError{StatusCode: resp.StatusCode, Message: parsed.Error.Message}
	}

	var parsed generateResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("failed to decode generation response: %w", err)
	}
	if len(parsed.Candidates) == 0 {
		return "", ErrEmptyResponse
	}
	var out strings.Builder
	for _, part := range parsed.Candidates[0].Content.Parts {
		out.WriteString(part.Text)
	}
	text := strings.TrimSpace(out.String())
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
