package resolver

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/screenlens/screenlens/internal/content"
	"github.com/screenlens/screenlens/internal/fetch"
	"github.com/screenlens/screenlens/internal/similarity"
	"github.com/screenlens/screenlens/internal/tmdb"
)

// FuzzyCatalogStage searches the catalog by free text and accepts the
// best-scoring candidate only above the configured confidence threshold.
// It applies to plain text queries only: raw URLs are not meaningful free
// text, so non-direct-ID URLs skip straight to the AI stage.
type FuzzyCatalogStage struct {
	catalog   catalogClient
	threshold float64
	retry     fetch.RetryConfig
	logger    zerolog.Logger
}

func (s *FuzzyCatalogStage) Name() string {
	return "fuzzy-catalog"
}

func (s *FuzzyCatalogStage) Resolve(ctx context.Context, q content.Query) ([]content.IdentifiedContent, error) {
	if q.Kind != content.QueryText {
		return nil, nil
	}
	if s.catalog == nil || !s.catalog.IsConfigured() {
		s.logger.Debug().Msg("catalog not configured, skipping fuzzy search")
		return nil, nil
	}

	results, err := fetch.WithRetry(ctx, s.logger, "catalog multi search", s.retry,
		func(ctx context.Context) ([]tmdb.NormalizedSearchResult, error) {
			return s.catalog.SearchMulti(ctx, q.Text)
		})
	if err != nil {
		s.logger.Warn().Err(err).Str("query", q.Text).Msg("catalog search failed")
		return nil, nil
	}
	if len(results) == 0 {
		return nil, nil
	}

	// The catalog ranks by popularity, which can put a wrong same-named
	// title first. Score every candidate and take the maximum instead.
	best := results[0]
	bestScore := similarity.Score(q.Text, best.Title)
	for _, r := range results[1:] {
		if score := similarity.Score(q.Text, r.Title); score > bestScore {
			best = r
			bestScore = score
		}
	}

	confidence := confidenceFromSimilarity(bestScore)
	if confidence < s.threshold {
		s.logger.Debug().
			Str("query", q.Text).
			Str("bestTitle", best.Title).
			Float64("similarity", bestScore).
			Float64("confidence", confidence).
			Msg("best fuzzy match below threshold, falling through")
		return nil, nil
	}

	s.logger.Debug().
		Str("query", q.Text).
		Str("title", best.Title).
		Float64("similarity", bestScore).
		Float64("confidence", confidence).
		Msg("fuzzy match accepted")

	return []content.IdentifiedContent{{
		Title:      best.Title,
		Year:       best.Year,
		MediaKind:  mediaKindFromCatalog(best.MediaType),
		Rating:     best.Rating,
		Synopsis:   best.Overview,
		PosterURL:  best.PosterURL,
		Confidence: confidence,
		CatalogID:  best.ID,
		Sources:    []content.StreamingSource{},
	}}, nil
}

// confidenceFromSimilarity maps a similarity score to a confidence band.
func confidenceFromSimilarity(score float64) float64 {
	switch {
	case score >= 0.9:
		return 0.95
	case score >= 0.7:
		return 0.85
	case score >= 0.5:
		return 0.70
	default:
		return 0.55
	}
}
