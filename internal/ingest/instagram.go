// Package ingest fetches the agency's Instagram feed through a RapidAPI
// proxy and normalizes it into the flat post shape the pipeline consumes.
package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

// Post is one normalized Instagram post. Read-only to downstream consumers.
type Post struct {
	ID       string `json:"id"`
	Code     string `json:"code"` // Shortcode from the post URL; used for slug disambiguation.
	Caption  string `json:"caption"`
	ImageURL string `json:"image_url"`
	VideoURL string `json:"video_url,omitempty"`
	PostURL  string `json:"post_url"`
}

// Source fetches the current feed for a username.
type Source interface {
	FetchPosts(ctx context.Context, username string) ([]Post, error)
}

// RapidAPIClient fetches posts via the instagram120 RapidAPI host.
type RapidAPIClient struct {
	apiKey     string
	host       string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewRapidAPIClient creates a client for the given API key and host.
func NewRapidAPIClient(apiKey, host string, logger *slog.Logger) *RapidAPIClient {
	return &RapidAPIClient{
		apiKey:     apiKey,
		host:       host,
		httpClient: &http.Client{},
		logger:     logger,
	}
}

type feedRequest struct {
	Username string `json:"username"`
	MaxID    string `json:"maxId"`
}

// feedResponse mirrors the subset of the proxy's GraphQL-shaped feed the
// pipeline needs.
type feedResponse struct {
	Result struct {
		Edges []struct {
			Node struct {
				ID      string `json:"id"`
				Code    string `json:"code"`
				Caption struct {
					Text string `json:"text"`
				} `json:"caption"`
				ImageVersions struct {
					Candidates []struct {
						URL string `json:"url"`
					} `json:"candidates"`
				} `json:"image_versions2"`
				VideoVersions []struct {
					URL string `json:"url"`
				} `json:"video_versions"`
			} `json:"node"`
		} `json:"edges"`
	} `json:"result"`
}

// FetchPosts retrieves and normalizes the feed for username. Posts missing
// an id or an image candidate are logged and skipped rather than failing
// the whole fetch.
func (c *RapidAPIClient) FetchPosts(ctx context.Context, username string) ([]Post, error) {
	reqBody, err := json.Marshal(feedRequest{Username: username})
	if err != nil {
		return nil, fmt.Errorf("ingest: marshal request: %w", err)
	}

	url := fmt.Sprintf("https://%s/api/instagram/posts", c.host)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("ingest: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-rapidapi-key", c.apiKey)
	req.Header.Set("x-rapidapi-host", c.host)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ingest: send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("ingest: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ingest: unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var feed feedResponse
	if err := json.Unmarshal(body, &feed); err != nil {
		return nil, fmt.Errorf("ingest: unmarshal response: %w", err)
	}

	return c.normalize(feed), nil
}

func (c *RapidAPIClient) normalize(feed feedResponse) []Post {
	posts := make([]Post, 0, len(feed.Result.Edges))
	for _, edge := range feed.Result.Edges {
		node := edge.Node
		if node.ID == "" || len(node.ImageVersions.Candidates) == 0 {
			c.logger.Warn("ingest: skipping malformed feed node", "post_id", node.ID)
			continue
		}

		post := Post{
			ID:       node.ID,
			Code:     node.Code,
			Caption:  node.Caption.Text,
			ImageURL: node.ImageVersions.Candidates[0].URL,
			PostURL:  "https://www.instagram.com/p/" + node.Code,
		}
		if len(node.VideoVersions) > 0 {
			post.VideoURL = node.VideoVersions[0].URL
		}
		posts = append(posts, post)
	}
	return posts
}
