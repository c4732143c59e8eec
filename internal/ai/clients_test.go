package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestOpenAIClient_ChatSendsAuthAndParsesChoice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected auth header %q", got)
		}
		var req chatReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Model != "test-model" || len(req.Messages) != 2 {
			t.Errorf("unexpected request: %+v", req)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": "  the answer  "}},
			},
		})
	}))
	defer srv.Close()

	c := NewOpenAIClient(srv.URL, "test-key", "test-model", time.Second)
	out, err := c.Complete(context.Background(), "Summarize.", "body text")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if out != "the answer" {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestOpenAIClient_ErrorStatusSurfacesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewOpenAIClient(srv.URL, "test-key", "test-model", time.Second)
	if _, err := c.Chat(context.Background(), []Message{{Role: "user", Content: "hi"}}); err == nil {
		t.Fatalf("expected error on 429")
	}
}

func TestOpenAIClient_RequiresAPIKeyAndModel(t *testing.T) {
	c := NewOpenAIClient("http://example.invalid", "", "model", time.Second)
	if _, err := c.Chat(context.Background(), nil); err == nil {
		t.Fatalf("expected error without api key")
	}
	c = NewOpenAIClient("http://example.invalid", "key", "", time.Second)
	if _, err := c.Chat(context.Background(), nil); err == nil {
		t.Fatalf("expected error without model")
	}
}

func TestZeroShotClient_ReturnsTopLabel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/classify" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(zeroShotResp{
			Labels: []string{"sports", "politics"},
			Scores: []float64{0.91, 0.09},
		})
	}))
	defer srv.Close()

	c := NewZeroShotClient(srv.URL, time.Second)
	label, score, err := c.Classify(context.Background(), "the match", []string{"politics", "sports"})
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if label != "sports" || score != 0.91 {
		t.Fatalf("unexpected result: %s %f", label, score)
	}
}

func TestZeroShotClient_ServiceUnavailableIsModelLoad(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewZeroShotClient(srv.URL, time.Second)
	if _, _, err := c.Classify(context.Background(), "text", []string{"a"}); !errors.Is(err, ErrModelLoad) {
		t.Fatalf("expected ErrModelLoad, got %v", err)
	}
}

func TestSpecialTranslator_PostsLanguagePair(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req translateReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Source != "fr" || req.Target != "en" {
			t.Errorf("unexpected pair %s->%s", req.Source, req.Target)
		}
		_ = json.NewEncoder(w).Encode(translateResp{Translation: "hello"})
	}))
	defer srv.Close()

	tr := NewSpecialTranslator(srv.URL, time.Second)
	out, err := tr.Translate(context.Background(), "bonjour", "fr", "en")
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	if out != "hello" {
		t.Fatalf("unexpected translation: %q", out)
	}
}

func TestUniversalTranslator_BuildsSystemPrompt(t *testing.T) {
	var got []Message
	tr := &UniversalTranslator{
		Completer: chatFunc(func(ctx context.Context, messages []Message) (string, error) {
			got = append([]Message(nil), messages...)
			return "hallo", nil
		}),
		LanguageName: func(code string) string {
			return map[string]string{"en": "English", "de": "German"}[code]
		},
	}

	out, err := tr.Translate(context.Background(), "hello", "en", "de")
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	if out != "hallo" {
		t.Fatalf("unexpected translation: %q", out)
	}
	if len(got) != 2 || got[0].Role != "system" {
		t.Fatalf("unexpected messages: %+v", got)
	}
	if got[0].Content != "You translate from English to German. Reply with the translation only." {
		t.Fatalf("unexpected system prompt: %q", got[0].Content)
	}
}

type chatFunc func(ctx context.Context, messages []Message) (string, error)

func (f chatFunc) Chat(ctx context.Context, messages []Message) (string, error) {
	return f(ctx, messages)
}

func TestWhatlangDetector(t *testing.T) {
	d := NewWhatlangDetector()

	code, err := d.Detect("The weather service issued a detailed forecast for the coming week, " +
		"warning about heavy rain across the entire northern coast of the country.")
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if code != "en" {
		t.Fatalf("expected en, got %s", code)
	}

	if _, err := d.Detect("   "); !errors.Is(err, ErrUndetectedLanguage) {
		t.Fatalf("expected ErrUndetectedLanguage for blank input, got %v", err)
	}
}
