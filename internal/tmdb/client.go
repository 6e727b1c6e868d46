// Package tmdb implements the media catalog client: free-text multi search,
// find-by-external-ID, title details, and region-scoped watch providers.
package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/screenlens/screenlens/internal/config"
)

var (
	ErrAPIKeyMissing = errors.New("TMDB API key is not configured")
	ErrNotFound      = errors.New("title not found")
	ErrAPIError      = errors.New("TMDB API error")
	ErrRateLimited   = errors.New("TMDB API rate limited")
)

// Client is a TMDB API client.
type Client struct {
	httpClient *http.Client
	config     config.TMDBConfig
	logger     zerolog.Logger
}

// NewClient creates a new TMDB client.
func NewClient(cfg config.TMDBConfig, logger zerolog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		},
		config: cfg,
		logger: logger.With().Str("component", "tmdb").Logger(),
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return "tmdb"
}

// IsConfigured returns true if the API key is set.
func (c *Client) IsConfigured() bool {
	return c.config.APIKey != ""
}

// Region returns the configured watch-provider region.
func (c *Client) Region() string {
	if c.config.Region == "" {
		return "US"
	}
	return c.config.Region
}

// Test verifies connectivity to the TMDB API by making a configuration request.
func (c *Client) Test(ctx context.Context) error {
	if !c.IsConfigured() {
		return ErrAPIKeyMissing
	}

	endpoint := fmt.Sprintf("%s/configuration", c.config.BaseURL)
	params := url.Values{}
	params.Set("api_key", c.config.APIKey)

	var result struct {
		Images struct {
			BaseURL string `json:"base_url"`
		} `json:"images"`
	}

	return c.doRequest(ctx, endpoint, params, &result)
}

// SearchMulti searches movies and TV series by free text. Results of other
// media types (people, collections) are filtered out.
func (c *Client) SearchMulti(ctx context.Context, query string) ([]NormalizedSearchResult, error) {
	if !c.IsConfigured() {
		return nil, ErrAPIKeyMissing
	}

	endpoint := fmt.Sprintf("%s/search/multi", c.config.BaseURL)
	params := url.Values{}
	params.Set("api_key", c.config.APIKey)
	params.Set("query", query)
	params.Set("include_adult", "false")

	var response MultiSearchResponse
	if err := c.doRequest(ctx, endpoint, params, &response); err != nil {
		return nil, err
	}

	results := make([]NormalizedSearchResult, 0, len(response.Results))
	for _, r := range response.Results {
		if r.MediaType != "movie" && r.MediaType != "tv" {
			continue
		}
		results = append(results, c.toSearchResult(r))
	}

	c.logger.Debug().
		Str("query", query).
		Int("results", len(results)).
		Msg("Multi search completed")

	return results, nil
}

// SearchMovies searches for movies by query with optional year filter.
func (c *Client) SearchMovies(ctx context.Context, query string, year int) ([]NormalizedSearchResult, error) {
	if !c.IsConfigured() {
		return nil, ErrAPIKeyMissing
	}

	endpoint := fmt.Sprintf("%s/search/movie", c.config.BaseURL)
	params := url.Values{}
	params.Set("api_key", c.config.APIKey)
	params.Set("query", query)
	params.Set("include_adult", "false")
	if year > 0 {
		params.Set("year", strconv.Itoa(year))
	}

	var response MultiSearchResponse
	if err := c.doRequest(ctx, endpoint, params, &response); err != nil {
		return nil, err
	}

	results := make([]NormalizedSearchResult, 0, len(response.Results))
	for _, r := range response.Results {
		r.MediaType = "movie"
		results = append(results, c.toSearchResult(r))
	}

	c.logger.Debug().
		Str("query", query).
		Int("year", year).
		Int("results", len(results)).
		Msg("Movie search completed")

	return results, nil
}

// FindByIMDbID looks up a title by its IMDb identifier. The movie bucket is
// checked before the series bucket.
func (c *Client) FindByIMDbID(ctx context.Context, imdbID string) (*NormalizedSearchResult, error) {
	if !c.IsConfigured() {
		return nil, ErrAPIKeyMissing
	}

	endpoint := fmt.Sprintf("%s/find/%s", c.config.BaseURL, url.PathEscape(imdbID))
	params := url.Values{}
	params.Set("api_key", c.config.APIKey)
	params.Set("external_source", "imdb_id")

	var response FindResponse
	if err := c.doRequest(ctx, endpoint, params, &response); err != nil {
		return nil, err
	}

	if len(response.MovieResults) > 0 {
		r := response.MovieResults[0]
		r.MediaType = "movie"
		result := c.toSearchResult(r)
		return &result, nil
	}
	if len(response.TVResults) > 0 {
		r := response.TVResults[0]
		r.MediaType = "tv"
		result := c.toSearchResult(r)
		return &result, nil
	}

	c.logger.Debug().Str("imdbID", imdbID).Msg("No title found for IMDb ID")
	return nil, ErrNotFound
}

// GetMovie gets detailed movie info by TMDB ID.
func (c *Client) GetMovie(ctx context.Context, id int) (*NormalizedDetails, error) {
	if !c.IsConfigured() {
		return nil, ErrAPIKeyMissing
	}

	endpoint := fmt.Sprintf("%s/movie/%d", c.config.BaseURL, id)
	params := url.Values{}
	params.Set("api_key", c.config.APIKey)
	params.Set("append_to_response", "external_ids")

	var details MovieDetails
	if err := c.doRequest(ctx, endpoint, params, &details); err != nil {
		return nil, err
	}

	result := c.movieDetailsToResult(details)

	c.logger.Debug().
		Int("id", id).
		Str("title", result.Title).
		Msg("Got movie details")

	return &result, nil
}

// GetSeries gets detailed TV series info by TMDB ID.
func (c *Client) GetSeries(ctx context.Context, id int) (*NormalizedDetails, error) {
	if !c.IsConfigured() {
		return nil, ErrAPIKeyMissing
	}

	endpoint := fmt.Sprintf("%s/tv/%d", c.config.BaseURL, id)
	params := url.Values{}
	params.Set("api_key", c.config.APIKey)
	params.Set("append_to_response", "external_ids")

	var details TVDetails
	if err := c.doRequest(ctx, endpoint, params, &details); err != nil {
		return nil, err
	}

	result := c.tvDetailsToResult(details)

	c.logger.Debug().
		Int("id", id).
		Str("title", result.Title).
		Msg("Got TV series details")

	return &result, nil
}

// GetWatchProviders fetches the watch-provider listing for a title, scoped
// to the given region. Offers come back tagged with their commercial bucket.
func (c *Client) GetWatchProviders(ctx context.Context, mediaType string, id int, region string) ([]WatchOffer, error) {
	if !c.IsConfigured() {
		return nil, ErrAPIKeyMissing
	}

	endpoint := fmt.Sprintf("%s/%s/%d/watch/providers", c.config.BaseURL, mediaType, id)
	params := url.Values{}
	params.Set("api_key", c.config.APIKey)

	var response WatchProvidersResponse
	if err := c.doRequest(ctx, endpoint, params, &response); err != nil {
		return nil, err
	}

	regionData, ok := response.Results[strings.ToUpper(region)]
	if !ok {
		c.logger.Debug().
			Int("id", id).
			Str("region", region).
			Msg("No watch providers for region")
		return nil, nil
	}

	var offers []WatchOffer
	appendBucket := func(providers []WatchProvider, offerType string) {
		for _, p := range providers {
			offers = append(offers, WatchOffer{
				ProviderName: p.ProviderName,
				LogoURL:      c.GetImageURL(p.LogoPath, "w92"),
				Link:         regionData.Link,
				OfferType:    offerType,
			})
		}
	}
	appendBucket(regionData.Free, "free")
	appendBucket(regionData.Ads, "ads")
	appendBucket(regionData.Flatrate, "flatrate")
	appendBucket(regionData.Rent, "rent")
	appendBucket(regionData.Buy, "buy")

	c.logger.Debug().
		Int("id", id).
		Str("region", region).
		Int("offers", len(offers)).
		Msg("Got watch providers")

	return offers, nil
}

// GetImageURL returns a full image URL for a given path and size.
// Size options: "w92", "w154", "w185", "w342", "w500", "w780", "original"
func (c *Client) GetImageURL(path string, size string) string {
	if path == "" {
		return ""
	}
	return fmt.Sprintf("%s/%s%s", c.config.ImageBaseURL, size, path)
}

// doRequest performs an HTTP GET request and decodes the JSON response.
func (c *Client) doRequest(ctx context.Context, endpoint string, params url.Values, result interface{}) error {
	reqURL := endpoint
	if len(params) > 0 {
		reqURL = fmt.Sprintf("%s?%s", endpoint, params.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Str("url", endpoint).Msg("HTTP request failed")
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	// Handle error responses
	if resp.StatusCode != http.StatusOK {
		var errResp ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil {
			c.logger.Error().
				Int("status", resp.StatusCode).
				Str("message", errResp.StatusMessage).
				Msg("TMDB API error")
		}

		switch resp.StatusCode {
		case http.StatusNotFound:
			return ErrNotFound
		case http.StatusUnauthorized:
			return fmt.Errorf("%w: invalid API key", ErrAPIError)
		case http.StatusTooManyRequests:
			return ErrRateLimited
		default:
			return fmt.Errorf("%w: status %d", ErrAPIError, resp.StatusCode)
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// toSearchResult converts a multi search entry to a NormalizedSearchResult.
func (c *Client) toSearchResult(r MultiResult) NormalizedSearchResult {
	title := r.Title
	date := r.ReleaseDate
	if r.MediaType == "tv" {
		title = r.Name
		date = r.FirstAirDate
	}

	year := 0
	if len(date) >= 4 {
		year, _ = strconv.Atoi(date[:4])
	}

	result := NormalizedSearchResult{
		ID:        r.ID,
		MediaType: r.MediaType,
		Title:     title,
		Year:      year,
		Overview:  r.Overview,
		Rating:    r.VoteAverage,
	}

	if r.PosterPath != nil {
		result.PosterURL = c.GetImageURL(*r.PosterPath, "w500")
	}

	return result
}

// movieDetailsToResult converts TMDB movie details to a NormalizedDetails.
func (c *Client) movieDetailsToResult(details MovieDetails) NormalizedDetails {
	year := 0
	if len(details.ReleaseDate) >= 4 {
		year, _ = strconv.Atoi(details.ReleaseDate[:4])
	}

	genres := make([]string, len(details.Genres))
	for i, g := range details.Genres {
		genres[i] = g.Name
	}

	result := NormalizedDetails{
		ID:        details.ID,
		MediaType: "movie",
		Title:     details.Title,
		Year:      year,
		Overview:  details.Overview,
		Runtime:   details.Runtime,
		Rating:    details.VoteAverage,
		Genres:    genres,
		ImdbID:    details.ImdbID,
	}

	if result.ImdbID == "" && details.ExternalIDs != nil {
		result.ImdbID = details.ExternalIDs.ImdbID
	}
	if details.PosterPath != nil {
		result.PosterURL = c.GetImageURL(*details.PosterPath, "w500")
	}

	return result
}

// tvDetailsToResult converts TMDB TV details to a NormalizedDetails.
func (c *Client) tvDetailsToResult(details TVDetails) NormalizedDetails {
	year := 0
	if len(details.FirstAirDate) >= 4 {
		year, _ = strconv.Atoi(details.FirstAirDate[:4])
	}

	genres := make([]string, len(details.Genres))
	for i, g := range details.Genres {
		genres[i] = g.Name
	}

	result := NormalizedDetails{
		ID:        details.ID,
		MediaType: "tv",
		Title:     details.Name,
		Year:      year,
		Overview:  details.Overview,
		Rating:    details.VoteAverage,
		Genres:    genres,
	}

	if details.ExternalIDs != nil {
		result.ImdbID = details.ExternalIDs.ImdbID
	}
	if len(details.EpisodeRunTime) > 0 {
		result.Runtime = details.EpisodeRunTime[0]
	}
	if details.PosterPath != nil {
		result.PosterURL = c.GetImageURL(*details.PosterPath, "w500")
	}

	return result
}
