package settings

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/evalstate/hf-mcp-server-sub001/pkg/logging"
)

// HTTPProvider fetches settings from the Hub settings endpoint. Every
// failure path (timeout, transport error, bad status, malformed body)
// degrades to nil.
type HTTPProvider struct {
	url        string
	timeout    time.Duration
	httpClient *http.Client
}

// NewHTTPProvider creates a provider against the given settings URL with a
// per-request timeout.
func NewHTTPProvider(url string, timeout time.Duration) *HTTPProvider {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPProvider{
		url:        url,
		timeout:    timeout,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// GetSettings resolves the settings for the token, or nil on any failure.
func (p *HTTPProvider) GetSettings(ctx context.Context, token string) *Settings {
	reqCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, p.url, nil)
	if err != nil {
		logging.Warn("SettingsProvider", "Failed to build settings request: %v", err)
		return nil
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		logging.Warn("SettingsProvider", "Settings fetch failed: %v", err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logging.Warn("SettingsProvider", "Settings fetch returned status %d", resp.StatusCode)
		return nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		logging.Warn("SettingsProvider", "Failed to read settings response: %v", err)
		return nil
	}

	var s Settings
	if err := json.Unmarshal(body, &s); err != nil {
		logging.Warn("SettingsProvider", "Malformed settings response: %v", err)
		return nil
	}

	logging.Debug("SettingsProvider", "Resolved settings: %d tools, %d gradio endpoints",
		len(s.EnabledTools), len(s.Gradios))
	return &s
}
