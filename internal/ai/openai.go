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

// OpenAIClient talks to any OpenAI-compatible chat completions endpoint
// (hosted or a local vLLM/llama.cpp server).
type OpenAIClient struct {
	BaseURL string
	APIKey  string
	Model   string
	Client  *http.Client
}

type chatMsg struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatReq struct {
	Model       string    `json:"model"`
	Messages    []chatMsg `json:"messages"`
	Temperature float64   `json:"temperature"`
	Stream      bool      `json:"stream"`
}

type chatResp struct {
	Choices []struct {
		Message chatMsg `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func NewOpenAIClient(baseURL, apiKey, model string, timeout time.Duration) *OpenAIClient {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	return &OpenAIClient{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Model:   model,
		Client:  &http.Client{Timeout: timeout},
	}
}

// Chat sends the full message list and returns the assistant content.
func (c *OpenAIClient) Chat(ctx context.Context, messages []Message) (string, error) {
	if c.Client == nil {
		return "", errors.New("openai: http client is nil")
	}
	if strings.TrimSpace(c.APIKey) == "" {
		return "", errors.New("openai: api key is required")
	}
	model := strings.TrimSpace(c.Model)
	if model == "" {
		return "", errors.New("openai: model is required")
	}

	reqBody := chatReq{
		Model:  model,
		Stream: false,
		Messages: func() []chatMsg {
			out := make([]chatMsg, 0, len(messages))
			for _, m := range messages {
				out = append(out, chatMsg{Role: m.Role, Content: m.Content})
			}
			return out
		}(),
	}

	b, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/chat/completions", strings.TrimRight(c.BaseURL, "/"))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.Client.Do(req)
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
		return "", fmt.Errorf("openai: %s", msg)
	}

	var decoded chatResp
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", err
	}
	if decoded.Error != nil && decoded.Error.Message != "" {
		return "", errors.New(decoded.Error.Message)
	}
	if len(decoded.Choices) == 0 {
		return "", errors.New("openai: empty response")
	}
	return strings.TrimSpace(decoded.Choices[0].Message.Content), nil
}

const completionSystemPrompt = "You are a text analysis expert. Answer briefly " +
	"but informatively, using only facts from the text."

// Complete runs a single prompt over a text body.
func (c *OpenAIClient) Complete(ctx context.Context, prompt, text string) (string, error) {
	return c.Chat(ctx, []Message{
		{Role: "system", Content: completionSystemPrompt},
		{Role: "user", Content: fmt.Sprintf("%s\n\nText:\n%s", prompt, text)},
	})
}
