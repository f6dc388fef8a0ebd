package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/impactlens/impact-analyzer/pkg/logging"
)

// TrackerClient posts the rendered report as a comment on the pull request
// or issue under review. Delivery is best-effort: callers log the error and
// continue, the report is never lost because a comment failed to post.
type TrackerClient struct {
	url    string // Comments API endpoint, e.g. .../issues/42/comments
	token  string
	client *http.Client
}

// NewTrackerClient creates a client for the given comments endpoint.
// Returns nil when no endpoint is configured; a nil client is a valid
// no-op target for Deliver.
func NewTrackerClient(url, token string) *TrackerClient {
	if url == "" {
		return nil
	}
	return &TrackerClient{
		url:    url,
		token:  token,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// Deliver posts the markdown body as a comment
func (t *TrackerClient) Deliver(ctx context.Context, markdown string) error {
	if t == nil {
		logging.Debug("no tracker configured, skipping delivery")
		return nil
	}

	payload, err := json.Marshal(map[string]string{"body": markdown})
	if err != nil {
		return fmt.Errorf("marshaling comment payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("building tracker request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/vnd.github+json")
	if t.token != "" {
		req.Header.Set("Authorization", "Bearer "+t.token)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("posting comment: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("tracker returned %d: %s", resp.StatusCode, body)
	}

	logging.Info("report delivered to tracker", "status", resp.StatusCode)
	return nil
}
