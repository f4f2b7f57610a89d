package llm

import (
	"errors"
	"net/http"
	"testing"
	"time"
)

func TestPickHTTPClientHonorsCustomClient(t *testing.T) {
	custom := &http.Client{Timeout: 42 * time.Second}
	if got := pickHTTPClient(custom); got != custom {
		t.Fatalf("expected custom client to be returned")
	}
}

func TestPickHTTPClientUsesLongTimeout(t *testing.T) {
	client := pickHTTPClient(nil)
	if client.Timeout != defaultHTTPTimeout {
		t.Fatalf("expected default timeout %s, got %s", defaultHTTPTimeout, client.Timeout)
	}
}

func TestNewRequiresAPIKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	if _, err := New(Config{}); err == nil {
		t.Fatal("expected error when no API key is available")
	}
}

func TestNewFillsDefaults(t *testing.T) {
	client, err := New(Config{APIKey: "k"})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	gc, ok := client.(*geminiClient)
	if !ok {
		t.Fatalf("expected *geminiClient, got %T", client)
	}
	if gc.model != defaultModel || gc.endpoint != defaultEndpoint {
		t.Fatalf("defaults not applied: %#v", gc)
	}
}

func TestClipTextRespectsLimit(t *testing.T) {
	if got := clipText("  hello world  ", 5); got != "hello" {
		t.Fatalf("unexpected clip result: %q", got)
	}
	if got := clipText("short", 100); got != "short" {
		t.Fatalf("short input should pass through, got %q", got)
	}
}

func TestUserMessageFallbacks(t *testing.T) {
	if got := UserMessage(ErrEmptyResponse); got == "" {
		t.Fatal("empty-response message missing")
	}
	if got := UserMessage(errors.New("dial tcp: refused")); got != "The language model request failed. Please try again." {
		t.Fatalf("unexpected generic message: %q", got)
	}
	if got := UserMessage(&RequestError{StatusCode: 500}); got != "The language model request failed. Please try again." {
		t.Fatalf("message-less request error should use the generic string, got %q", got)
	}
}
