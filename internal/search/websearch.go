package search

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"silverland-assistant/internal/config"

	"go.uber.org/zap"
)

// WebSearcher is the optional web-search collaborator for project info. It
// must never fail the turn: on any error it returns "".
type WebSearcher interface {
	SearchProjectInfo(ctx context.Context, projectName, city string) string
}

// Client posts {"query": "..."} to a pluggable search endpoint and expects
// {"summary": "..."} back. Any provider (SerpAPI proxy, internal RAG API)
// can sit behind the endpoint.
type Client struct {
	apiURL     string
	httpClient *http.Client
	log        *zap.Logger
}

var _ WebSearcher = (*Client)(nil)

// NewClient creates a web-search client. An empty API URL disables search;
// lookups then return "" without any network call.
func NewClient(cfg *config.WebSearchConfig, log *zap.Logger) *Client {
	return &Client{
		apiURL: cfg.APIURL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		log: log,
	}
}

// SearchProjectInfo returns a short summary about a project, or "" when
// search is unconfigured, the call fails, or no summary comes back.
func (c *Client) SearchProjectInfo(ctx context.Context, projectName, city string) string {
	if c.apiURL == "" {
		return ""
	}

	query := projectName
	if city != "" {
		query += " " + city
	}

	reqBody, err := json.Marshal(map[string]string{"query": query})
	if err != nil {
		return ""
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(reqBody))
	if err != nil {
		return ""
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.log.Debug("web search request failed", zap.Error(err))
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.log.Debug("web search returned non-200", zap.Int("status", resp.StatusCode))
		return ""
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return ""
	}

	var result struct {
		Summary string `json:"summary"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return ""
	}

	return strings.TrimSpace(result.Summary)
}
