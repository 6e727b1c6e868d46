package resolver

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/screenlens/screenlens/internal/cache"
	"github.com/screenlens/screenlens/internal/config"
	"github.com/screenlens/screenlens/internal/fetch"
	"github.com/screenlens/screenlens/internal/llm"
	"github.com/screenlens/screenlens/internal/streamavail"
	"github.com/screenlens/screenlens/internal/testutil"
	"github.com/screenlens/screenlens/internal/tmdb"
	"github.com/screenlens/screenlens/internal/webpage"
	"github.com/screenlens/screenlens/internal/youtube"
)

// fastRetry keeps failing-upstream tests from sleeping through backoff.
var fastRetry = fetch.RetryConfig{MaxAttempts: 1, InitialDelay: time.Millisecond}

type mockCatalog struct {
	mu sync.Mutex

	configured bool

	searchResults []tmdb.NormalizedSearchResult
	searchErr     error
	searchCalls   int

	movieSearchResults []tmdb.NormalizedSearchResult
	movieSearchErr     error
	movieSearchCalls   int
	movieSearchYear    int

	findResult *tmdb.NormalizedSearchResult
	findErr    error
	findCalls  int

	details     *tmdb.NormalizedDetails
	detailsErr  error
	detailCalls int

	watchOffers []tmdb.WatchOffer
	watchErr    error
	watchCalls  int
}

func (m *mockCatalog) IsConfigured() bool { return m.configured }
func (m *mockCatalog) Region() string     { return "US" }

func (m *mockCatalog) SearchMulti(ctx context.Context, query string) ([]tmdb.NormalizedSearchResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.searchCalls++
	return m.searchResults, m.searchErr
}

func (m *mockCatalog) SearchMovies(ctx context.Context, query string, year int) ([]tmdb.NormalizedSearchResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.movieSearchCalls++
	m.movieSearchYear = year
	return m.movieSearchResults, m.movieSearchErr
}

func (m *mockCatalog) FindByIMDbID(ctx context.Context, imdbID string) (*tmdb.NormalizedSearchResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.findCalls++
	return m.findResult, m.findErr
}

func (m *mockCatalog) GetMovie(ctx context.Context, id int) (*tmdb.NormalizedDetails, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.detailCalls++
	return m.details, m.detailsErr
}

func (m *mockCatalog) GetSeries(ctx context.Context, id int) (*tmdb.NormalizedDetails, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.detailCalls++
	return m.details, m.detailsErr
}

func (m *mockCatalog) GetWatchProviders(ctx context.Context, mediaType string, id int, region string) ([]tmdb.WatchOffer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.watchCalls++
	return m.watchOffers, m.watchErr
}

type mockVideo struct {
	configured bool
	video      *youtube.Video
	err        error
	calls      int
}

func (m *mockVideo) IsConfigured() bool { return m.configured }

func (m *mockVideo) GetVideo(ctx context.Context, videoID string) (*youtube.Video, error) {
	m.calls++
	return m.video, m.err
}

type mockAvailability struct {
	configured bool
	candidates []streamavail.Candidate
	err        error
	calls      int
}

func (m *mockAvailability) IsConfigured() bool { return m.configured }

func (m *mockAvailability) SearchByTitle(ctx context.Context, title, showType string) ([]streamavail.Candidate, error) {
	m.calls++
	return m.candidates, m.err
}

type mockAI struct {
	configured bool
	vision     bool

	imageResult *llm.Identification
	imageErr    error
	imageCalls  int

	textResult *llm.Identification
	textErr    error
	textCalls  int
	textInput  string
}

func (m *mockAI) IsConfigured() bool { return m.configured }
func (m *mockAI) HasVision() bool    { return m.vision }

func (m *mockAI) IdentifyImage(ctx context.Context, imageData []byte, mimeType string) (*llm.Identification, error) {
	m.imageCalls++
	return m.imageResult, m.imageErr
}

func (m *mockAI) IdentifyText(ctx context.Context, contextText string) (*llm.Identification, error) {
	m.textCalls++
	m.textInput = contextText
	return m.textResult, m.textErr
}

type mockPages struct {
	page  *webpage.PageContext
	calls int
}

func (m *mockPages) Extract(ctx context.Context, pageURL string) *webpage.PageContext {
	m.calls++
	if m.page != nil {
		return m.page
	}
	return &webpage.PageContext{URL: pageURL}
}

// newTestResolver wires a resolver around mocks with fast retry so failing
// upstreams do not sleep through backoff delays.
func newTestResolver(t *testing.T, providers Providers, cacheEnabled bool) *Resolver {
	t.Helper()

	cfg := config.Default()
	tdb := testutil.NewTestDB(t)
	store := cache.NewStore(tdb.Conn, cacheEnabled, zerolog.Nop())
	log := zerolog.Nop()

	sources := &SourceResolver{
		availability: providers.Availability,
		catalog:      providers.Catalog,
		threshold:    cfg.Resolver.SourceMatchThreshold,
		retry:        fastRetry,
		logger:       log,
	}

	return &Resolver{
		cache: store,
		stages: []Stage{
			&DirectIDStage{video: providers.Video, catalog: providers.Catalog, retry: fastRetry, logger: log},
			&FuzzyCatalogStage{catalog: providers.Catalog, threshold: cfg.Resolver.FuzzyAcceptThreshold, retry: fastRetry, logger: log},
			&AIFallbackStage{ai: providers.AI, pages: providers.Pages, retry: fastRetry, logger: log},
		},
		enricher: &Enricher{catalog: providers.Catalog, sources: sources, retry: fastRetry, logger: log},
		logger:   log,
	}
}
