// Package youtube implements the video-platform metadata client used to
// resolve directly-extracted video IDs.
package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/screenlens/screenlens/internal/config"
)

var (
	ErrAPIKeyMissing = errors.New("YouTube API key is not configured")
	ErrVideoNotFound = errors.New("video not found")
	ErrAPIError      = errors.New("YouTube API error")
)

// videosResponse is the response from the /videos endpoint.
type videosResponse struct {
	Items []struct {
		ID      string `json:"id"`
		Snippet struct {
			Title        string `json:"title"`
			ChannelTitle string `json:"channelTitle"`
			Description  string `json:"description"`
			PublishedAt  string `json:"publishedAt"`
			Thumbnails   struct {
				High struct {
					URL string `json:"url"`
				} `json:"high"`
			} `json:"thumbnails"`
		} `json:"snippet"`
	} `json:"items"`
}

// Video is normalized video metadata.
type Video struct {
	ID           string
	Title        string
	ChannelName  string
	Description  string
	Year         int
	URL          string
	ThumbnailURL string
}

// Client is a YouTube Data API client.
type Client struct {
	httpClient *http.Client
	config     config.YouTubeConfig
	logger     zerolog.Logger
}

// NewClient creates a new YouTube client.
func NewClient(cfg config.YouTubeConfig, logger zerolog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		},
		config: cfg,
		logger: logger.With().Str("component", "youtube").Logger(),
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return "youtube"
}

// IsConfigured returns true if the API key is set.
func (c *Client) IsConfigured() bool {
	return c.config.APIKey != ""
}

// Test verifies connectivity by requesting a well-known video ID.
func (c *Client) Test(ctx context.Context) error {
	if !c.IsConfigured() {
		return ErrAPIKeyMissing
	}
	_, err := c.GetVideo(ctx, "dQw4w9WgXcQ")
	return err
}

// GetVideo fetches snippet metadata for a video ID.
func (c *Client) GetVideo(ctx context.Context, videoID string) (*Video, error) {
	if !c.IsConfigured() {
		return nil, ErrAPIKeyMissing
	}

	endpoint := fmt.Sprintf("%s/videos", c.config.BaseURL)
	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("id", videoID)
	params.Set("key", c.config.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s?%s", endpoint, params.Encode()), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Str("videoID", videoID).Msg("HTTP request failed")
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Error().
			Int("status", resp.StatusCode).
			Str("videoID", videoID).
			Msg("YouTube API error")
		return nil, fmt.Errorf("%w: status %d", ErrAPIError, resp.StatusCode)
	}

	var response videosResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(response.Items) == 0 {
		return nil, ErrVideoNotFound
	}

	item := response.Items[0]
	year := 0
	if len(item.Snippet.PublishedAt) >= 4 {
		year, _ = strconv.Atoi(item.Snippet.PublishedAt[:4])
	}

	video := &Video{
		ID:           item.ID,
		Title:        item.Snippet.Title,
		ChannelName:  item.Snippet.ChannelTitle,
		Description:  item.Snippet.Description,
		Year:         year,
		URL:          fmt.Sprintf("https://www.youtube.com/watch?v=%s", item.ID),
		ThumbnailURL: item.Snippet.Thumbnails.High.URL,
	}

	c.logger.Debug().
		Str("videoID", videoID).
		Str("title", video.Title).
		Str("channel", video.ChannelName).
		Msg("Got video metadata")

	return video, nil
}
