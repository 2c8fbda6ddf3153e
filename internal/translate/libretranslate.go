package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hyperjump/interleave/internal/models"
	"github.com/hyperjump/interleave/pkg/utils"
)

// LibreTranslate calls a LibreTranslate-compatible /translate endpoint.
type LibreTranslate struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

type libreRequest struct {
	Q      string `json:"q"`
	Source string `json:"source"`
	Target string `json:"target"`
	Format string `json:"format"`
	APIKey string `json:"api_key,omitempty"`
}

type libreResponse struct {
	TranslatedText string `json:"translatedText"`
	Error          string `json:"error"`
}

// NewLibreTranslate returns a client for the server at baseURL.
func NewLibreTranslate(baseURL, apiKey string, timeout time.Duration) *LibreTranslate {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &LibreTranslate{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

// Translate sends one sentence to the server.
func (l *LibreTranslate) Translate(ctx context.Context, text string, langs models.LangPair) (string, error) {
	if strings.TrimSpace(text) == "" {
		return text, nil
	}
	body, err := json.Marshal(libreRequest{
		Q:      text,
		Source: langs.From,
		Target: langs.To,
		Format: "text",
		APIKey: l.apiKey,
	})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.baseURL+"/translate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("translate %s: %w", langs, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	var out libreResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("decode response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK {
		msg := out.Error
		if msg == "" {
			msg = utils.Truncate(string(raw), 200)
		}
		return "", fmt.Errorf("translate %s: status %d: %s", langs, resp.StatusCode, msg)
	}
	return out.TranslatedText, nil
}
