package resolver

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/screenlens/screenlens/internal/content"
	"github.com/screenlens/screenlens/internal/fetch"
	"github.com/screenlens/screenlens/internal/similarity"
	"github.com/screenlens/screenlens/internal/tmdb"
)

// Enricher fills the gaps a stage left behind: the canonical catalog ID and
// poster, the external reference ID, and the streaming source list. When a
// stage identifies multiple titles each one is enriched concurrently.
type Enricher struct {
	catalog catalogClient
	sources *SourceResolver
	retry   fetch.RetryConfig
	logger  zerolog.Logger
}

// Enrich enriches every result independently. Enrichment failures degrade
// to returning the result as the stage produced it.
func (e *Enricher) Enrich(ctx context.Context, results []content.IdentifiedContent) []content.IdentifiedContent {
	if len(results) == 1 {
		results[0] = e.enrichOne(ctx, results[0])
		return results
	}

	g, gctx := errgroup.WithContext(ctx)
	for i := range results {
		g.Go(func() error {
			results[i] = e.enrichOne(gctx, results[i])
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (e *Enricher) enrichOne(ctx context.Context, c content.IdentifiedContent) content.IdentifiedContent {
	// Platform videos have their playback URL already and never carry
	// paid streaming sources.
	if c.MediaKind == content.KindVideo {
		if c.Sources == nil {
			c.Sources = []content.StreamingSource{}
		}
		return c
	}

	if c.CatalogID == 0 {
		e.fillFromCatalogSearch(ctx, &c)
	}
	if c.CatalogID != 0 && (c.ExternalRefID == "" || len(c.Genres) == 0) {
		e.fillFromCatalogDetails(ctx, &c)
	}

	c.Sources = e.sources.Resolve(ctx, &c)
	return c
}

// fillFromCatalogSearch locates the canonical catalog record for a title
// identified without one, disambiguating same-named candidates by year.
func (e *Enricher) fillFromCatalogSearch(ctx context.Context, c *content.IdentifiedContent) {
	if e.catalog == nil || !e.catalog.IsConfigured() {
		return
	}

	results, err := e.searchCandidates(ctx, c)
	if err != nil {
		e.logger.Warn().Err(err).Str("title", c.Title).Msg("enrichment search failed")
		return
	}
	if len(results) == 0 {
		return
	}

	var best *tmdb.NormalizedSearchResult
	bestScore := 0.0
	for i := range results {
		score := similarity.Score(c.Title, results[i].Title)
		if c.Year != 0 && results[i].Year == c.Year {
			score += 0.1
		}
		if score > bestScore {
			best = &results[i]
			bestScore = score
		}
	}
	if best == nil || bestScore < 0.5 {
		return
	}

	c.CatalogID = best.ID
	if c.MediaKind == "" {
		c.MediaKind = mediaKindFromCatalog(best.MediaType)
	}
	if c.Year == 0 {
		c.Year = best.Year
	}
	if c.PosterURL == "" {
		c.PosterURL = best.PosterURL
	}
	if c.Rating == 0 {
		c.Rating = best.Rating
	}
	if c.Synopsis == "" {
		c.Synopsis = best.Overview
	}
}

// searchCandidates queries the catalog for records matching the title.
// Movie-kind candidates with a known year go through the year-scoped movie
// search first, which filters out same-named titles from other years at
// the catalog side; an empty or failed year-scoped search falls back to
// the multi search.
func (e *Enricher) searchCandidates(ctx context.Context, c *content.IdentifiedContent) ([]tmdb.NormalizedSearchResult, error) {
	movieKind := c.MediaKind == content.KindMovie || c.MediaKind == content.KindDocumentary
	if movieKind && c.Year != 0 {
		results, err := fetch.WithRetry(ctx, e.logger, "enrichment movie search", e.retry,
			func(ctx context.Context) ([]tmdb.NormalizedSearchResult, error) {
				return e.catalog.SearchMovies(ctx, c.Title, c.Year)
			})
		if err == nil && len(results) > 0 {
			return results, nil
		}
		if err != nil {
			e.logger.Debug().Err(err).Str("title", c.Title).Msg("year-scoped movie search failed, falling back to multi search")
		}
	}

	return fetch.WithRetry(ctx, e.logger, "enrichment catalog search", e.retry,
		func(ctx context.Context) ([]tmdb.NormalizedSearchResult, error) {
			return e.catalog.SearchMulti(ctx, c.Title)
		})
}

// fillFromCatalogDetails fetches the full catalog record to pick up the
// external reference ID, genres, and runtime.
func (e *Enricher) fillFromCatalogDetails(ctx context.Context, c *content.IdentifiedContent) {
	if e.catalog == nil || !e.catalog.IsConfigured() {
		return
	}

	lookup := e.catalog.GetMovie
	if c.MediaKind == content.KindSeries {
		lookup = e.catalog.GetSeries
	}

	details, err := fetch.WithRetry(ctx, e.logger, "enrichment details lookup", e.retry,
		func(ctx context.Context) (*tmdb.NormalizedDetails, error) {
			return lookup(ctx, c.CatalogID)
		})
	if err != nil || details == nil {
		e.logger.Warn().Err(err).Int("catalogID", c.CatalogID).Msg("enrichment details lookup failed")
		return
	}

	if c.ExternalRefID == "" {
		c.ExternalRefID = details.ImdbID
	}
	if len(c.Genres) == 0 {
		c.Genres = details.Genres
	}
	if c.Runtime == "" && details.Runtime > 0 {
		c.Runtime = fmt.Sprintf("%d min", details.Runtime)
	}
	if c.PosterURL == "" {
		c.PosterURL = details.PosterURL
	}
	if c.Synopsis == "" {
		c.Synopsis = details.Overview
	}
}
