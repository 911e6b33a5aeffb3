package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kailas-cloud/ragcore/internal/domain"
	"github.com/kailas-cloud/ragcore/internal/usecase/generation"
)

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float32 `json:"temperature"`
}

func TestChatClient_Complete(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "c1",
			"object": "chat.completion",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "Twenty feet."}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 120, "completion_tokens": 4, "total_tokens": 124}
		}`))
	}))
	defer srv.Close()

	c := NewChatClient(&Config{APIKey: "test-key", BaseURL: srv.URL, Model: "gpt-4o", Provider: "test"})
	res, err := c.Complete(context.Background(), generation.Prompt{
		System: "sys", User: "Context:\nx\n\nQuestion: y", MaxTokens: 800, Temperature: 0.3,
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if res.Text != "Twenty feet." || res.PromptTokens != 120 || res.CompletionTokens != 4 {
		t.Errorf("completion = %+v", res)
	}
	if got.Model != "gpt-4o" || got.MaxTokens != 800 || got.Temperature != 0.3 {
		t.Errorf("request = %+v", got)
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != "system" || got.Messages[1].Role != "user" {
		t.Fatalf("messages = %+v", got.Messages)
	}
	if got.Messages[0].Content != "sys" || got.Messages[1].Content != "Context:\nx\n\nQuestion: y" {
		t.Errorf("message contents = %+v", got.Messages)
	}
}

func TestChatClient_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","choices":[]}`))
	}))
	defer srv.Close()

	c := NewChatClient(&Config{APIKey: "k", BaseURL: srv.URL, Model: "m", Provider: "test"})
	_, err := c.Complete(context.Background(), generation.Prompt{System: "s", User: "u"})
	if !errors.Is(err, domain.ErrLLMGeneration) {
		t.Fatalf("expected ErrLLMGeneration, got %v", err)
	}
}

func TestChatClient_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"message":"overloaded","type":"server_error"}}`))
	}))
	defer srv.Close()

	c := NewChatClient(&Config{APIKey: "k", BaseURL: srv.URL, Model: "m", Provider: "test"})
	_, err := c.Complete(context.Background(), generation.Prompt{System: "s", User: "u"})
	if !errors.Is(err, domain.ErrLLMGeneration) {
		t.Fatalf("expected ErrLLMGeneration, got %v", err)
	}
}
