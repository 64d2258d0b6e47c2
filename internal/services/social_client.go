package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"castor/internal/models"
)

// SocialClient fetches a user's recent posts from the social network.
type SocialClient interface {
	FetchRecentCasts(ctx context.Context, fid int64, limit int, includeRecasts bool) ([]models.Cast, error)
}

// NeynarClient reads casts from the Neynar Farcaster API.
type NeynarClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewNeynarClient creates a social source client.
func NewNeynarClient(baseURL, apiKey string) *NeynarClient {
	return &NeynarClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// FetchRecentCasts returns up to limit recent casts for the given fid,
// most recent first.
func (c *NeynarClient) FetchRecentCasts(ctx context.Context, fid int64, limit int, includeRecasts bool) ([]models.Cast, error) {
	url := fmt.Sprintf("%s/v2/farcaster/feed/user/casts?fid=%d&limit=%d&include_replies=false", c.baseURL, fid, limit)

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cast fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("cast fetch failed with status %d: %s", resp.StatusCode, string(body))
	}

	var payload struct {
		Casts []struct {
			Hash      string    `json:"hash"`
			Text      string    `json:"text"`
			Timestamp time.Time `json:"timestamp"`
			Parent    *struct {
				Hash string `json:"hash"`
			} `json:"parent_hash,omitempty"`
			Reactions struct {
				LikesCount   int `json:"likes_count"`
				RecastsCount int `json:"recasts_count"`
			} `json:"reactions"`
			Replies struct {
				Count int `json:"count"`
			} `json:"replies"`
			IsRecast bool `json:"is_recast"`
		} `json:"casts"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to parse cast feed: %w", err)
	}

	casts := make([]models.Cast, 0, len(payload.Casts))
	for _, raw := range payload.Casts {
		if raw.IsRecast && !includeRecasts {
			continue
		}
		casts = append(casts, models.Cast{
			Hash:      raw.Hash,
			Text:      raw.Text,
			Timestamp: raw.Timestamp,
			IsRecast:  raw.IsRecast,
			Likes:     raw.Reactions.LikesCount,
			Recasts:   raw.Reactions.RecastsCount,
			Replies:   raw.Replies.Count,
		})
	}

	return casts, nil
}
