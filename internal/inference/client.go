// Package inference talks to an OpenAI-compatible streaming chat-completions
// endpoint. It is the only place that knows the wire format of the
// generation backend.
package inference

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ProviderKindOpenAI is the only provider kind the backend accepts. Any
// other kind fails fast before a connection is made.
const ProviderKindOpenAI = "openai"

var ErrUnsupportedProvider = errors.New("unsupported inference provider")

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ModelConfig identifies which backend account and model to generate with.
type ModelConfig struct {
	Provider string
	Model    string
	APIKey   string
	BaseURL  string
}

type Client struct {
	httpClient  *http.Client
	baseURL     string
	idleTimeout time.Duration
}

// NewClient builds a streaming client. baseURL is the default endpoint base
// when a ModelConfig carries none; idleTimeout bounds the gap between tokens
// of a live stream (zero disables the watchdog). The underlying HTTP client
// has no overall timeout: streams are bounded by context and idle watchdog.
func NewClient(baseURL string, idleTimeout time.Duration) *Client {
	return &Client{
		httpClient:  &http.Client{},
		baseURL:     baseURL,
		idleTimeout: idleTimeout,
	}
}

// Stream opens a token stream and invokes onToken for every content delta in
// arrival order. It returns the accumulated text; on transport failure or
// cancellation the text accumulated so far is returned along with the error,
// so partial content is never lost.
func (c *Client) Stream(ctx context.Context, cfg ModelConfig, messages []Message, onToken func(token string)) (string, error) {
	if cfg.Provider != ProviderKindOpenAI {
		return "", fmt.Errorf("provider kind %q: %w", cfg.Provider, ErrUnsupportedProvider)
	}

	endpoint, err := c.endpointURL(cfg)
	if err != nil {
		return "", err
	}

	payload := map[string]any{
		"model":    cfg.Model,
		"messages": messages,
		"stream":   true,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal chat payload: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	if cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+cfg.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("generation request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("generation backend status %d", resp.StatusCode)
	}

	// Watchdog: a stalled stream is aborted like a transport failure.
	var watchdog *time.Timer
	if c.idleTimeout > 0 {
		watchdog = time.AfterFunc(c.idleTimeout, cancel)
		defer watchdog.Stop()
	}

	var full strings.Builder
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		if line == "" || strings.HasPrefix(line, ":") {
			continue
		}
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		data := strings.TrimPrefix(line, "data: ")
		if data == "[DONE]" {
			return full.String(), nil
		}

		var chunk struct {
			Choices []struct {
				Delta struct {
					Content string `json:"content"`
				} `json:"delta"`
				FinishReason *string `json:"finish_reason"`
			} `json:"choices"`
		}
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			continue
		}
		if len(chunk.Choices) == 0 {
			continue
		}

		if watchdog != nil {
			watchdog.Reset(c.idleTimeout)
		}

		if token := chunk.Choices[0].Delta.Content; token != "" {
			full.WriteString(token)
			if onToken != nil {
				onToken(token)
			}
		}
		if chunk.Choices[0].FinishReason != nil {
			return full.String(), nil
		}
	}

	if err := scanner.Err(); err != nil {
		if ctx.Err() != nil {
			return full.String(), ctx.Err()
		}
		return full.String(), fmt.Errorf("token stream broken: %w", err)
	}
	return full.String(), nil
}

func (c *Client) endpointURL(cfg ModelConfig) (string, error) {
	base := strings.TrimSpace(cfg.BaseURL)
	if base == "" {
		base = c.baseURL
	}
	if strings.HasSuffix(base, "/chat/completions") {
		return base, nil
	}
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/chat/completions"
	return u.String(), nil
}
