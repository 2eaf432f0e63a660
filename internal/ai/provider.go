package ai

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role    string
	Content string
}

// Provider sends one non-streaming chat exchange and returns the raw assistant text.
type Provider interface {
	Name() string
	Chat(ctx context.Context, messages []Message) (string, error)
}

// Options are the generation parameters shared by all providers.
type Options struct {
	Temperature float64
	MaxTokens   int
	// JSONOutput asks the provider for a JSON-only answer where the API supports it.
	JSONOutput bool
}

var ErrEmptyResponse = errors.New("empty response")

// defaultClient has no global timeout; callers bound each call with ctx.
func defaultClient() *http.Client {
	return &http.Client{Timeout: 0, Transport: http.DefaultTransport}
}

func readErrorBody(resp *http.Response) string {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4*1024))
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		msg = "status " + http.StatusText(resp.StatusCode)
	}
	return msg
}

func splitSystem(messages []Message) (system string, rest []Message) {
	var parts []string
	for _, m := range messages {
		if m.Role == RoleSystem {
			parts = append(parts, m.Content)
			continue
		}
		rest = append(rest, m)
	}
	return strings.Join(parts, "\n\n"), rest
}
