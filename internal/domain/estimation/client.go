package estimation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const maxLoggedOutput = 2048

// Generator produces a manifest for a prompt.
type Generator interface {
	Estimate(ctx context.Context, prompt string) (Manifest, error)
}

type GeminiClient struct {
	APIKey  string
	Model   string
	BaseURL string
	HTTP    *http.Client
}

func NewGeminiClient(apiKey, model, baseURL string, timeout time.Duration) *GeminiClient {
	return &GeminiClient{
		APIKey:  strings.TrimSpace(apiKey),
		Model:   model,
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: timeout},
	}
}

// Configured reports whether a usable key is present.
func (g *GeminiClient) Configured() bool {
	return g.APIKey != "" && g.APIKey != PlaceholderAPIKey
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

type upstreamErrorBody struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Estimate makes a single generateContent call and parses the returned manifest.
func (g *GeminiClient) Estimate(ctx context.Context, prompt string) (Manifest, error) {
	if !g.Configured() {
		return Manifest{}, fmt.Errorf("%w: set GEMINI_API_KEY to a valid key", ErrConfiguration)
	}

	body, err := json.Marshal(generateRequest{Contents: []content{{Parts: []part{{Text: prompt}}}}})
	if err != nil {
		return Manifest{}, err
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s", g.BaseURL, url.PathEscape(g.Model), url.QueryEscape(g.APIKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return Manifest{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	client := g.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return Manifest{}, ErrCancelled
		}
		return Manifest{}, &UpstreamError{Message: redactKey(err.Error(), g.APIKey)}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Manifest{}, &UpstreamError{Status: resp.StatusCode, Message: err.Error()}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var upstream upstreamErrorBody
		msg := ""
		if json.Unmarshal(raw, &upstream) == nil {
			msg = upstream.Error.Message
		}
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return Manifest{}, &UpstreamError{Status: resp.StatusCode, Message: msg}
	}

	var decoded generateResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		slog.Warn("malformed estimation envelope", "model", g.Model, "status", resp.StatusCode, "raw", truncate(string(raw), maxLoggedOutput), "err", err)
		return Manifest{}, fmt.Errorf("%w: malformed response envelope: %v", ErrParse, err)
	}
	if len(decoded.Candidates) == 0 || len(decoded.Candidates[0].Content.Parts) == 0 {
		return Manifest{}, ErrEmptyResponse
	}
	text := decoded.Candidates[0].Content.Parts[0].Text
	if strings.TrimSpace(text) == "" {
		return Manifest{}, ErrEmptyResponse
	}

	manifest, err := ParseManifest(text)
	if err != nil {
		slog.Warn("unparseable estimation output", "model", g.Model, "raw", truncate(text, maxLoggedOutput), "err", err)
		return Manifest{}, err
	}
	return manifest, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// redactKey keeps the API key out of transport errors, which embed the request URL.
func redactKey(msg, key string) string {
	if key == "" {
		return msg
	}
	msg = strings.ReplaceAll(msg, url.QueryEscape(key), "REDACTED")
	return strings.ReplaceAll(msg, key, "REDACTED")
}
