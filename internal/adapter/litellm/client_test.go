package litellm_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/letterdesk/letterdesk/internal/adapter/litellm"
	"github.com/letterdesk/letterdesk/internal/port/llm"
	"github.com/letterdesk/letterdesk/internal/resilience"
)

func completionServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method: %s", r.Method)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected authorization header: %q", got)
		}

		var req llm.Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Model == "" || len(req.Messages) == 0 {
			t.Errorf("incomplete request: %+v", req)
		}

		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"content": content}, "finish_reason": "stop"},
			},
			"usage": map[string]int{"prompt_tokens": 120, "completion_tokens": 45},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func TestChatCompletion(t *testing.T) {
	srv := completionServer(t, "Dear Ms. Smith,\n\nWRITER_APPROVED")
	defer srv.Close()

	client := litellm.NewClient(srv.URL, "test-key")
	resp, err := client.ChatCompletion(context.Background(), llm.Request{
		Model:    "openai/gpt-4o-mini",
		Messages: []llm.Message{{Role: "user", Content: "draft the letter"}},
	})
	if err != nil {
		t.Fatalf("ChatCompletion failed: %v", err)
	}

	if !strings.Contains(resp.Content, "Dear Ms. Smith") {
		t.Errorf("unexpected content: %q", resp.Content)
	}
	if resp.TokensIn != 120 || resp.TokensOut != 45 {
		t.Errorf("unexpected token counts: in=%d out=%d", resp.TokensIn, resp.TokensOut)
	}
}

func TestChatCompletionEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	}))
	defer srv.Close()

	client := litellm.NewClient(srv.URL, "")
	_, err := client.ChatCompletion(context.Background(), llm.Request{
		Model:    "openai/gpt-4o-mini",
		Messages: []llm.Message{{Role: "user", Content: "hi"}},
	})
	if err == nil {
		t.Fatal("expected error for empty choices")
	}
}

func TestChatCompletionServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"model overloaded"}`, http.StatusBadGateway)
	}))
	defer srv.Close()

	client := litellm.NewClient(srv.URL, "")
	_, err := client.ChatCompletion(context.Background(), llm.Request{
		Model:    "openai/gpt-4o-mini",
		Messages: []llm.Message{{Role: "user", Content: "hi"}},
	})
	if err == nil {
		t.Fatal("expected error for 502 response")
	}
	if !strings.Contains(err.Error(), "502") {
		t.Errorf("error should carry status code: %v", err)
	}
}

func TestBreakerTripsOnRepeatedFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := litellm.NewClient(srv.URL, "")
	client.SetBreaker(resilience.NewBreaker(2, time.Minute))

	req := llm.Request{
		Model:    "openai/gpt-4o-mini",
		Messages: []llm.Message{{Role: "user", Content: "hi"}},
	}
	for i := 0; i < 2; i++ {
		if _, err := client.ChatCompletion(context.Background(), req); err == nil {
			t.Fatal("expected failure")
		}
	}

	_, err := client.ChatCompletion(context.Background(), req)
	if err == nil || !strings.Contains(err.Error(), "circuit breaker is open") {
		t.Fatalf("expected circuit open error, got %v", err)
	}
}
