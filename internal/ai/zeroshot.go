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

// ErrModelLoad reports that the local inference server could not serve its
// model (still warming up, model path missing, out of memory).
var ErrModelLoad = errors.New("ai: classifier model unavailable")

// ZeroShotClient calls a local zero-shot classification server that fronts a
// pretrained Hugging Face pipeline.
type ZeroShotClient struct {
	BaseURL string
	Client  *http.Client
}

type zeroShotReq struct {
	Text            string   `json:"text"`
	CandidateLabels []string `json:"candidate_labels"`
}

type zeroShotResp struct {
	Labels []string  `json:"labels"`
	Scores []float64 `json:"scores"`
	Error  string    `json:"error,omitempty"`
}

func NewZeroShotClient(baseURL string, timeout time.Duration) *ZeroShotClient {
	if baseURL == "" {
		baseURL = "http://localhost:8090"
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &ZeroShotClient{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: timeout},
	}
}

// Classify returns the best-scoring candidate label.
func (c *ZeroShotClient) Classify(ctx context.Context, text string, labels []string) (string, float64, error) {
	if c.Client == nil {
		return "", 0, errors.New("zeroshot: http client is nil")
	}
	if len(labels) == 0 {
		return "", 0, errors.New("zeroshot: candidate labels required")
	}

	b, err := json.Marshal(zeroShotReq{Text: text, CandidateLabels: labels})
	if err != nil {
		return "", 0, err
	}

	url := fmt.Sprintf("%s/classify", strings.TrimRight(c.BaseURL, "/"))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return "", 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.Client.Do(req)
	if err != nil {
		return "", 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusServiceUnavailable {
		return "", 0, ErrModelLoad
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4*1024))
		msg := strings.TrimSpace(string(body))
		if msg == "" {
			msg = fmt.Sprintf("status %d", resp.StatusCode)
		}
		return "", 0, fmt.Errorf("zeroshot: %s", msg)
	}

	var decoded zeroShotResp
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", 0, err
	}
	if decoded.Error != "" {
		return "", 0, errors.New(decoded.Error)
	}
	if len(decoded.Labels) == 0 {
		return "", 0, errors.New("zeroshot: empty response")
	}
	score := 0.0
	if len(decoded.Scores) > 0 {
		score = decoded.Scores[0]
	}
	return decoded.Labels[0], score, nil
}
