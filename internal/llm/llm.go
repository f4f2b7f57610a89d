package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"
)

const (
	defaultModel    = "gemini-2.0-flash"
	defaultEndpoint = "https://generativelanguage.googleapis.com"
	// Rough 4 chars/token budget keeps summarize prompts well inside the
	// model's context window even for book-length documents.
	maxSummaryChars = 120_000
	maxAnswerChars  = 24_000
)

const defaultHTTPTimeout = 3 * time.Minute

// Config describes how to build a language model client. All fields are
// explicit; there is no ambient global client state.
type Config struct {
	Model      string
	Endpoint   string
	APIKey     string
	HTTPClient *http.Client
}

// Attachment is a binary document passed alongside a prompt. The client
// base64-encodes the bytes for transport; callers hand over raw data.
type Attachment struct {
	MIMEType string
	Data     []byte
}

// Client exposes the three generation operations the session needs.
type Client interface {
	Summarize(ctx context.Context, text string, att *Attachment) (string, error)
	Answer(ctx context.Context, summary, question string) (string, error)
	Define(ctx context.Context, term string) (string, error)
	Name() string
}

// RequestError reports a transport or service failure from the generation
// endpoint.
type RequestError struct {
	StatusCode int
	Message    string
}

func (e *RequestError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("language model request failed (%d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("language model request failed with status %d", e.StatusCode)
}

// ErrEmptyResponse signals a successful call that produced no usable text.
var ErrEmptyResponse = errors.New("language model returned no usable text")

// UserMessage converts a client failure into the string shown to the user.
func UserMessage(err error) string {
	var reqErr *RequestError
	if errors.As(err, &reqErr) && reqErr.Message != "" {
		return reqErr.Message
	}
	if errors.Is(err, ErrEmptyResponse) {
		return "The language model returned an empty response. Please try again."
	}
	return "The language model request failed. Please try again."
}

// New builds a Gemini client from cfg, filling blanks from the environment.
func New(cfg Config) (Client, error) {
	key := cfg.APIKey
	if key == "" {
		key = os.Getenv("GEMINI_API_KEY")
	}
	if key == "" {
		return nil, errors.New("missing API key (set GEMINI_API_KEY or api_key in the config file)")
	}
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	return &geminiClient{
		endpoint: strings.TrimRight(endpoint, "/"),
		model:    model,
		apiKey:   key,
		client:   pickHTTPClient(cfg.HTTPClient),
	}, nil
}

func pickHTTPClient(custom *http.Client) *http.Client {
	if custom != nil {
		return custom
	}
	// Generation regularly takes >60s for long documents.
	return &http.Client{Timeout: defaultHTTPTimeout}
}
