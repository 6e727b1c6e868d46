// Package resolver implements the content resolution pipeline: an ordered
// cascade of stages that turns an ambiguous query (image, text, or URL) into
// an identified title with a confidence score and streaming sources.
package resolver

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/screenlens/screenlens/internal/cache"
	"github.com/screenlens/screenlens/internal/config"
	"github.com/screenlens/screenlens/internal/content"
	"github.com/screenlens/screenlens/internal/fetch"
	"github.com/screenlens/screenlens/internal/streamavail"
	"github.com/screenlens/screenlens/internal/tmdb"
	"github.com/screenlens/screenlens/internal/webpage"
	"github.com/screenlens/screenlens/internal/youtube"
)

// Stage is one step of the resolution cascade. A stage returns its results,
// or an empty slice when it does not apply to the query or found nothing.
// Stage errors are absorbed by the orchestrator; the cascade continues.
type Stage interface {
	Name() string
	Resolve(ctx context.Context, q content.Query) ([]content.IdentifiedContent, error)
}

// catalogClient is the catalog surface the pipeline depends on.
type catalogClient interface {
	IsConfigured() bool
	Region() string
	SearchMulti(ctx context.Context, query string) ([]tmdb.NormalizedSearchResult, error)
	SearchMovies(ctx context.Context, query string, year int) ([]tmdb.NormalizedSearchResult, error)
	FindByIMDbID(ctx context.Context, imdbID string) (*tmdb.NormalizedSearchResult, error)
	GetMovie(ctx context.Context, id int) (*tmdb.NormalizedDetails, error)
	GetSeries(ctx context.Context, id int) (*tmdb.NormalizedDetails, error)
	GetWatchProviders(ctx context.Context, mediaType string, id int, region string) ([]tmdb.WatchOffer, error)
}

// videoClient is the video-platform metadata surface.
type videoClient interface {
	IsConfigured() bool
	GetVideo(ctx context.Context, videoID string) (*youtube.Video, error)
}

// availabilityClient is the deep-link streaming availability surface.
type availabilityClient interface {
	IsConfigured() bool
	SearchByTitle(ctx context.Context, title, showType string) ([]streamavail.Candidate, error)
}

// aiClient is the generative identifier surface.
type aiClient interface {
	IsConfigured() bool
	HasVision() bool
	IdentifyImage(ctx context.Context, imageData []byte, mimeType string) (*llmIdentification, error)
	IdentifyText(ctx context.Context, contextText string) (*llmIdentification, error)
}

// pageExtractor fetches a URL's text context for the AI stage.
type pageExtractor interface {
	Extract(ctx context.Context, pageURL string) *webpage.PageContext
}

// Providers bundles the upstream clients the pipeline talks to. Every
// provider is optional; a missing one degrades its stage to a skip.
type Providers struct {
	Catalog      catalogClient
	Video        videoClient
	Availability availabilityClient
	AI           aiClient
	Pages        pageExtractor
}

// Resolver runs the resolution cascade:
// cache lookup, direct-ID extraction, fuzzy catalog search, AI fallback,
// then enrichment and a cache write for whichever stage produced a result.
type Resolver struct {
	cache    *cache.Store
	stages   []Stage
	enricher *Enricher
	logger   zerolog.Logger
}

// New builds a resolver from configuration and upstream providers.
func New(cfg *config.Config, store *cache.Store, providers Providers, logger zerolog.Logger) *Resolver {
	log := logger.With().Str("component", "resolver").Logger()
	retry := fetch.DefaultRetryConfig()

	sources := &SourceResolver{
		availability: providers.Availability,
		catalog:      providers.Catalog,
		threshold:    cfg.Resolver.SourceMatchThreshold,
		retry:        retry,
		logger:       log,
	}

	return &Resolver{
		cache: store,
		stages: []Stage{
			&DirectIDStage{
				video:   providers.Video,
				catalog: providers.Catalog,
				retry:   retry,
				logger:  log,
			},
			&FuzzyCatalogStage{
				catalog:   providers.Catalog,
				threshold: cfg.Resolver.FuzzyAcceptThreshold,
				retry:     retry,
				logger:    log,
			},
			&AIFallbackStage{
				ai:         providers.AI,
				pages:      providers.Pages,
				preferText: cfg.LLM.PreferText,
				retry:      retry,
				logger:     log,
			},
		},
		enricher: &Enricher{
			catalog: providers.Catalog,
			sources: sources,
			retry:   retry,
			logger:  log,
		},
		logger: log,
	}
}

// Resolve runs the full cascade for one query. It always returns a result
// slice, possibly empty; stage failures are absorbed and logged, never
// propagated.
func (r *Resolver) Resolve(ctx context.Context, q content.Query) ([]content.IdentifiedContent, error) {
	hash := cache.HashQuery(q)

	if entry, err := r.cache.Get(ctx, hash); err != nil {
		r.logger.Warn().Err(err).Msg("cache lookup failed, continuing without cache")
	} else if entry != nil {
		r.logger.Info().
			Str("title", entry.Result.Title).
			Int64("hitCount", entry.HitCount).
			Msg("resolved from cache")
		return []content.IdentifiedContent{entry.Result}, nil
	}

	for _, stage := range r.stages {
		results, err := stage.Resolve(ctx, q)
		if err != nil {
			r.logger.Warn().
				Err(err).
				Str("stage", stage.Name()).
				Msg("stage failed, falling through")
			continue
		}
		if len(results) == 0 {
			continue
		}

		results = r.enricher.Enrich(ctx, results)

		if err := r.cache.Put(ctx, hash, q.Kind, results[0]); err != nil {
			r.logger.Warn().Err(err).Msg("cache write failed")
		}

		r.logger.Info().
			Str("stage", stage.Name()).
			Str("title", results[0].Title).
			Float64("confidence", results[0].Confidence).
			Msg("query resolved")

		return results, nil
	}

	r.logger.Info().Str("kind", string(q.Kind)).Msg("no stage produced a result")
	return []content.IdentifiedContent{}, nil
}
