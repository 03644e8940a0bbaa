package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kukucorn/ai-running-coach/internal/config"
)

func TestOpenAIClientGenerate(t *testing.T) {
	var gotModel string
	var gotMsgs int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		gotModel = req.Model
		gotMsgs = len(req.Messages)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "x",
			"object":  "chat.completion",
			"model":   req.Model,
			"choices": []map[string]any{{"index": 0, "message": map[string]any{"role": "assistant", "content": "잘 달렸어요"}, "finish_reason": "stop"}},
			"usage":   map[string]any{"prompt_tokens": 3, "completion_tokens": 2, "total_tokens": 5},
		})
	}))
	defer srv.Close()

	c := NewOpenAI("key", srv.URL, "gemini-test", srv.Client())
	resp, err := c.Generate(context.Background(), []Message{{Role: RoleUser, Content: "hi"}})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if resp.Content != "잘 달렸어요" || resp.TotalTokens != 5 {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if gotModel != "gemini-test" || gotMsgs != 1 {
		t.Fatalf("unexpected request: model=%s msgs=%d", gotModel, gotMsgs)
	}
}

func TestOpenAIClientGenerateError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"quota exceeded"}}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewOpenAI("key", srv.URL, "m", srv.Client())
	if _, err := c.Generate(context.Background(), []Message{{Role: RoleUser, Content: "hi"}}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestFactoryUnknownProvider(t *testing.T) {
	f := NewFactory(&config.Config{AIModel: "m"}, nil)
	if _, err := f.CreateClient("nope"); err == nil {
		t.Fatalf("expected error for unknown provider")
	}
	c, err := f.CreateClient("OpenAI")
	if err != nil {
		t.Fatalf("openai: %v", err)
	}
	if _, ok := c.(*OpenAIClient); !ok {
		t.Fatalf("unexpected client type %T", c)
	}
}
