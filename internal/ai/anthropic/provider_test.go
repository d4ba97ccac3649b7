package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kiranshivaraju/hypecycle/internal/config"
	"github.com/kiranshivaraju/hypecycle/pkg/models"
)

func newTestProvider(baseURL string) *Provider {
	return NewProvider(config.AnthropicConfig{APIKey: "sk-ant-test", BaseURL: baseURL, Model: "claude-sonnet-4-5"})
}

func TestComplete_ValidResponse(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("X-Api-Key"); got != "sk-ant-test" {
			t.Errorf("unexpected api key header: %s", got)
		}

		var req struct {
			Model     string  `json:"model"`
			MaxTokens int     `json:"max_tokens"`
			Temp      float64 `json:"temperature"`
			Messages  []struct {
				Role string `json:"role"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		if req.Model != "claude-sonnet-4-5" {
			t.Errorf("unexpected model: %s", req.Model)
		}
		if req.MaxTokens != 1024 {
			t.Errorf("unexpected max_tokens: %d", req.MaxTokens)
		}
		if len(req.Messages) != 1 || req.Messages[0].Role != "user" {
			t.Errorf("unexpected messages: %+v", req.Messages)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"msg_1","type":"message","role":"assistant","model":"claude-sonnet-4-5",
			"content":[{"type":"text","text":"{\"phase\":\"trough\"}"}],
			"stop_reason":"end_turn","usage":{"input_tokens":10,"output_tokens":5}}`))
	}))
	defer ts.Close()

	got, err := newTestProvider(ts.URL+"/").Complete(context.Background(), models.CompletionRequest{Prompt: "hello", Temperature: 0.3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != `{"phase":"trough"}` {
		t.Errorf("unexpected content: %s", got)
	}
}

func TestComplete_APIErrorIsUnavailable(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"type":"error","error":{"type":"invalid_request_error","message":"bad model"}}`))
	}))
	defer ts.Close()

	_, err := newTestProvider(ts.URL+"/").Complete(context.Background(), models.CompletionRequest{Prompt: "hello"})
	if !errors.Is(err, models.ErrLLMUnavailable) {
		t.Fatalf("expected ErrLLMUnavailable, got %v", err)
	}
}

func TestComplete_NoTextBlock(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"msg_2","type":"message","role":"assistant","model":"claude-sonnet-4-5",
			"content":[],"stop_reason":"end_turn","usage":{"input_tokens":10,"output_tokens":0}}`))
	}))
	defer ts.Close()

	_, err := newTestProvider(ts.URL+"/").Complete(context.Background(), models.CompletionRequest{Prompt: "hello"})
	if !errors.Is(err, models.ErrLLMInvalidResponse) {
		t.Fatalf("expected ErrLLMInvalidResponse, got %v", err)
	}
}

func TestName(t *testing.T) {
	if got := newTestProvider("").Name(); got != "anthropic" {
		t.Errorf("unexpected name: %s", got)
	}
}
