package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// RerankResult is one candidate re-scored by the cross-encoder, referencing the
// candidate by its position in the request.
type RerankResult struct {
	Index int     `json:"index"`
	Score float64 `json:"score"`
}

// RerankClient calls a text-embeddings-inference style /rerank endpoint
// serving a cross-encoder model.
type RerankClient struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

func NewRerankClient(baseURL, model string) *RerankClient {
	return &RerankClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Rerank scores each (query, text) pair and returns results sorted by the
// service, best first.
func (c *RerankClient) Rerank(ctx context.Context, query string, texts []string) ([]RerankResult, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	reqBody := map[string]interface{}{
		"model": c.model,
		"query": query,
		"texts": texts,
	}
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal rerank request failed: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/rerank", bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("build rerank request failed: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rerank request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read rerank response failed: %w", err)
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("rerank response status %d: %s", resp.StatusCode, string(raw))
	}

	var parsed []RerankResult
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("parse rerank json failed: %w", err)
	}
	for _, r := range parsed {
		if r.Index < 0 || r.Index >= len(texts) {
			return nil, fmt.Errorf("rerank index %d out of range", r.Index)
		}
	}
	return parsed, nil
}
