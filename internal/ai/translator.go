package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// UniversalTranslator translates through the hosted completion endpoint with
// a translation system prompt.
type UniversalTranslator struct {
	Completer interface {
		Chat(ctx context.Context, messages []Message) (string, error)
	}
	LanguageName func(code string) string
}

func (t *UniversalTranslator) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	if t.Completer == nil {
		return "", errors.New("translator: completer is nil")
	}
	name := t.LanguageName
	if name == nil {
		name = func(code string) string { return code }
	}
	system := fmt.Sprintf("You translate from %s to %s. Reply with the translation only.",
		name(sourceLang), name(targetLang))
	return t.Completer.Chat(ctx, []Message{
		{Role: "system", Content: system},
		{Role: "user", Content: text},
	})
}

// SpecialTranslator calls a local translation server that hosts one
// pretrained model per language pair.
type SpecialTranslator struct {
	BaseURL string
	Client  *http.Client
}

type translateReq struct {
	Text   string `json:"text"`
	Source string `json:"source"`
	Target string `json:"target"`
}

type translateResp struct {
	Translation string `json:"translation"`
	Error       string `json:"error,omitempty"`
}

func NewSpecialTranslator(baseURL string, timeout time.Duration) *SpecialTranslator {
	if baseURL == "" {
		baseURL = "http://localhost:8091"
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &SpecialTranslator{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: timeout},
	}
}

func (t *SpecialTranslator) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	if t.Client == nil {
		return "", errors.New("translator: http client is nil")
	}

	b, err := json.Marshal(translateReq{Text: text, Source: sourceLang, Target: targetLang})
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/translate", strings.TrimRight(t.BaseURL, "/"))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.Client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4*1024))
		msg := strings.TrimSpace(string(body))
		if msg == "" {
			msg = fmt.Sprintf("status %d", resp.StatusCode)
		}
		return "", fmt.Errorf("translator: %s", msg)
	}

	var decoded translateResp
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", err
	}
	if decoded.Error != "" {
		return "", errors.New(decoded.Error)
	}
	return strings.TrimSpace(decoded.Translation), nil
}
