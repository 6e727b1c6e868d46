package tmdb

// MultiSearchResponse is the response from the /search/multi endpoint.
type MultiSearchResponse struct {
	Page         int           `json:"page"`
	Results      []MultiResult `json:"results"`
	TotalPages   int           `json:"total_pages"`
	TotalResults int           `json:"total_results"`
}

// MultiResult is one entry in a multi search response. Movie entries carry
// title/release_date, TV entries carry name/first_air_date.
type MultiResult struct {
	ID           int     `json:"id"`
	MediaType    string  `json:"media_type"`
	Title        string  `json:"title"`
	Name         string  `json:"name"`
	ReleaseDate  string  `json:"release_date"`
	FirstAirDate string  `json:"first_air_date"`
	Overview     string  `json:"overview"`
	PosterPath   *string `json:"poster_path"`
	VoteAverage  float64 `json:"vote_average"`
	Popularity   float64 `json:"popularity"`
}

// FindResponse is the response from the /find/{external_id} endpoint.
type FindResponse struct {
	MovieResults []MultiResult `json:"movie_results"`
	TVResults    []MultiResult `json:"tv_results"`
}

// Genre is a TMDB genre entry.
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// ExternalIDs holds cross-catalog identifiers for a title.
type ExternalIDs struct {
	ImdbID string `json:"imdb_id"`
}

// MovieDetails is the response from the /movie/{id} endpoint.
type MovieDetails struct {
	ID          int          `json:"id"`
	Title       string       `json:"title"`
	Overview    string       `json:"overview"`
	ReleaseDate string       `json:"release_date"`
	Runtime     int          `json:"runtime"`
	VoteAverage float64      `json:"vote_average"`
	ImdbID      string       `json:"imdb_id"`
	PosterPath  *string      `json:"poster_path"`
	Genres      []Genre      `json:"genres"`
	ExternalIDs *ExternalIDs `json:"external_ids"`
}

// TVDetails is the response from the /tv/{id} endpoint.
type TVDetails struct {
	ID             int          `json:"id"`
	Name           string       `json:"name"`
	Overview       string       `json:"overview"`
	FirstAirDate   string       `json:"first_air_date"`
	EpisodeRunTime []int        `json:"episode_run_time"`
	VoteAverage    float64      `json:"vote_average"`
	PosterPath     *string      `json:"poster_path"`
	Genres         []Genre      `json:"genres"`
	ExternalIDs    *ExternalIDs `json:"external_ids"`
}

// WatchProvider is one provider entry in a watch-providers listing.
type WatchProvider struct {
	ProviderName    string `json:"provider_name"`
	LogoPath        string `json:"logo_path"`
	DisplayPriority int    `json:"display_priority"`
}

// RegionProviders is the per-region bucket of a watch-providers response.
type RegionProviders struct {
	Link     string          `json:"link"`
	Free     []WatchProvider `json:"free"`
	Ads      []WatchProvider `json:"ads"`
	Flatrate []WatchProvider `json:"flatrate"`
	Rent     []WatchProvider `json:"rent"`
	Buy      []WatchProvider `json:"buy"`
}

// WatchProvidersResponse is the response from /{kind}/{id}/watch/providers.
type WatchProvidersResponse struct {
	ID      int                        `json:"id"`
	Results map[string]RegionProviders `json:"results"`
}

// ErrorResponse is the TMDB API error body.
type ErrorResponse struct {
	StatusCode    int    `json:"status_code"`
	StatusMessage string `json:"status_message"`
}

// NormalizedSearchResult is a provider-agnostic search hit.
type NormalizedSearchResult struct {
	ID        int
	MediaType string // "movie" or "tv"
	Title     string
	Year      int
	Overview  string
	PosterURL string
	Rating    float64
}

// NormalizedDetails is provider-agnostic title detail.
type NormalizedDetails struct {
	ID        int
	MediaType string
	Title     string
	Year      int
	Overview  string
	Runtime   int
	Rating    float64
	Genres    []string
	PosterURL string
	ImdbID    string
}

// WatchOffer is one normalized watch-provider offer.
type WatchOffer struct {
	ProviderName string
	LogoURL      string
	Link         string
	OfferType    string // "free", "ads", "flatrate", "rent", "buy"
}
