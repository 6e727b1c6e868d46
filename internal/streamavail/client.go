// Package streamavail implements the deep-link streaming availability
// client. It returns per-provider offers whose links open a title directly
// inside the provider's app or site.
package streamavail

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/screenlens/screenlens/internal/config"
)

var (
	ErrAPIKeyMissing = errors.New("streaming availability API key is not configured")
	ErrAPIError      = errors.New("streaming availability API error")
)

// show is one entry in a title search response.
type show struct {
	Title            string             `json:"title"`
	ReleaseYear      int                `json:"releaseYear"`
	FirstAirYear     int                `json:"firstAirYear"`
	StreamingOptions map[string][]offer `json:"streamingOptions"`
}

// offer is one streaming option of a show in one country.
type offer struct {
	Service struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		ImageSet struct {
			LightThemeImage string `json:"lightThemeImage"`
		} `json:"imageSet"`
	} `json:"service"`
	Type  string `json:"type"`
	Link  string `json:"link"`
	Price *struct {
		Formatted string `json:"formatted"`
	} `json:"price"`
}

// Offer is a normalized streaming offer.
type Offer struct {
	ServiceName string
	LogoURL     string
	Link        string
	OfferType   string // "free", "subscription", "rent", "buy", "addon"
	Price       string
}

// Candidate is a normalized search candidate with its offers for the
// requested country.
type Candidate struct {
	Title  string
	Year   int
	Offers []Offer
}

// Client is a streaming availability API client.
type Client struct {
	httpClient *http.Client
	config     config.StreamAvailConfig
	logger     zerolog.Logger
}

// NewClient creates a new streaming availability client.
func NewClient(cfg config.StreamAvailConfig, logger zerolog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		},
		config: cfg,
		logger: logger.With().Str("component", "streamavail").Logger(),
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return "streamavail"
}

// IsConfigured returns true if the API key is set.
func (c *Client) IsConfigured() bool {
	return c.config.APIKey != ""
}

// Country returns the configured availability country.
func (c *Client) Country() string {
	if c.config.Country == "" {
		return "us"
	}
	return c.config.Country
}

// Test verifies connectivity with a minimal title search.
func (c *Client) Test(ctx context.Context) error {
	if !c.IsConfigured() {
		return ErrAPIKeyMissing
	}
	_, err := c.SearchByTitle(ctx, "test", "movie")
	return err
}

// SearchByTitle searches for shows matching a title. showType is "movie",
// "series", or empty for both. Offers are scoped to the configured country.
func (c *Client) SearchByTitle(ctx context.Context, title, showType string) ([]Candidate, error) {
	if !c.IsConfigured() {
		return nil, ErrAPIKeyMissing
	}

	endpoint := fmt.Sprintf("%s/shows/search/title", c.config.BaseURL)
	params := url.Values{}
	params.Set("title", title)
	params.Set("country", c.Country())
	if showType != "" {
		params.Set("show_type", showType)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s?%s", endpoint, params.Encode()), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-RapidAPI-Key", c.config.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Str("title", title).Msg("HTTP request failed")
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Error().
			Int("status", resp.StatusCode).
			Str("title", title).
			Msg("streaming availability API error")
		return nil, fmt.Errorf("%w: status %d", ErrAPIError, resp.StatusCode)
	}

	var shows []show
	if err := json.NewDecoder(resp.Body).Decode(&shows); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	country := c.Country()
	candidates := make([]Candidate, 0, len(shows))
	for _, s := range shows {
		year := s.ReleaseYear
		if year == 0 {
			year = s.FirstAirYear
		}

		candidate := Candidate{Title: s.Title, Year: year}
		for _, o := range s.StreamingOptions[country] {
			normalized := Offer{
				ServiceName: o.Service.Name,
				LogoURL:     o.Service.ImageSet.LightThemeImage,
				Link:        o.Link,
				OfferType:   o.Type,
			}
			if o.Price != nil {
				normalized.Price = o.Price.Formatted
			}
			candidate.Offers = append(candidate.Offers, normalized)
		}
		candidates = append(candidates, candidate)
	}

	c.logger.Debug().
		Str("title", title).
		Str("country", country).
		Int("candidates", len(candidates)).
		Msg("Title availability search completed")

	return candidates, nil
}
