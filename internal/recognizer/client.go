// Package recognizer talks to the external face-recognition microservice.
// The recognizer owns enrollment and matching; this client only resolves a
// captured frame to a student and checks service health.
package recognizer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Match is one candidate returned by the gallery search.
type Match struct {
	StudentID  int64   `json:"student_id"`
	Similarity float64 `json:"similarity"`
}

// IdentifyResult is the outcome of resolving a captured frame.
type IdentifyResult struct {
	Matches       []Match
	FacesDetected int
}

// Best returns the strongest match at or above threshold, or false.
func (r *IdentifyResult) Best(threshold float64) (Match, bool) {
	var best Match
	found := false
	for _, m := range r.Matches {
		if m.Similarity >= threshold && (!found || m.Similarity > best.Similarity) {
			best = m
			found = true
		}
	}
	return best, found
}

// Client calls the face recognition microservice.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Skip    bool
}

// New creates a client. Skip short-circuits all calls with mock results so
// the pipeline runs without the recognition service during development.
func New(baseURL string, skip bool) *Client {
	return &Client{
		BaseURL: baseURL,
		Skip:    skip,
		HTTP: &http.Client{
			Timeout: 30 * time.Second, // recognition can take a while
		},
	}
}

// Identify performs a 1:N search of the captured frame against the enrolled
// student gallery.
func (c *Client) Identify(ctx context.Context, imageURL string) (*IdentifyResult, error) {
	if c.Skip {
		return &IdentifyResult{
			Matches:       []Match{{StudentID: 1, Similarity: 0.92}},
			FacesDetected: 1,
		}, nil
	}
	if imageURL == "" {
		return nil, fmt.Errorf("image url required")
	}

	body, _ := json.Marshal(map[string]any{"image_url": imageURL, "top_k": 1})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("recognizer request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("recognizer error %s: %s", resp.Status, string(bodyBytes))
	}

	var out struct {
		Matches       []Match `json:"matches"`
		FacesDetected int     `json:"faces_detected"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &IdentifyResult{Matches: out.Matches, FacesDetected: out.FacesDetected}, nil
}

// Health checks if the recognizer is available.
func (c *Client) Health(ctx context.Context) error {
	if c.Skip {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/health", nil)
	if err != nil {
		return err
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("recognizer unavailable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("recognizer unhealthy: %s", resp.Status)
	}

	return nil
}
