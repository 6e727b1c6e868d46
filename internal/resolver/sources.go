package resolver

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/screenlens/screenlens/internal/content"
	"github.com/screenlens/screenlens/internal/fetch"
	"github.com/screenlens/screenlens/internal/similarity"
	"github.com/screenlens/screenlens/internal/streamavail"
	"github.com/screenlens/screenlens/internal/tmdb"
)

// SourceResolver attaches streaming sources to an identified title through
// a priority-ordered fallback: deep-link availability search, then the
// catalog's generic watch-provider listing, then a synthetic link to the
// external reference page. Rent and buy offers are never surfaced.
type SourceResolver struct {
	availability availabilityClient
	catalog      catalogClient
	threshold    float64
	retry        fetch.RetryConfig
	logger       zerolog.Logger
}

// Resolve returns the deduplicated, priority-ordered source list for a
// title. Each tier is attempted only when the previous yielded nothing;
// an empty list means no tier applied. No links are ever fabricated.
func (s *SourceResolver) Resolve(ctx context.Context, c *content.IdentifiedContent) []content.StreamingSource {
	if sources := s.fromAvailability(ctx, c); len(sources) > 0 {
		return sources
	}
	if sources := s.fromWatchProviders(ctx, c); len(sources) > 0 {
		return sources
	}
	if c.ExternalRefID != "" {
		return []content.StreamingSource{{
			ProviderName: "IMDb",
			DeepLink:     fmt.Sprintf("https://www.imdb.com/title/%s/", c.ExternalRefID),
			OfferType:    content.OfferFree,
		}}
	}
	return []content.StreamingSource{}
}

// fromAvailability is the deep-link tier. Candidates are matched against
// the title by similarity with a small bonus for a year within one, and
// the whole match is rejected below the threshold so a wrong title's links
// are never attached.
func (s *SourceResolver) fromAvailability(ctx context.Context, c *content.IdentifiedContent) []content.StreamingSource {
	if s.availability == nil || !s.availability.IsConfigured() {
		return nil
	}

	candidates, err := fetch.WithRetry(ctx, s.logger, "availability search", s.retry,
		func(ctx context.Context) ([]streamavail.Candidate, error) {
			return s.availability.SearchByTitle(ctx, c.Title, showTypeFor(c.MediaKind))
		})
	if err != nil {
		s.logger.Warn().Err(err).Str("title", c.Title).Msg("availability search failed")
		return nil
	}
	if len(candidates) == 0 {
		return nil
	}

	var best *streamavail.Candidate
	bestScore := 0.0
	for i := range candidates {
		score := similarity.Score(c.Title, candidates[i].Title)
		if diff := candidates[i].Year - c.Year; diff >= -1 && diff <= 1 {
			score += 0.1
		}
		if score > bestScore {
			best = &candidates[i]
			bestScore = score
		}
	}

	if best == nil || bestScore < s.threshold {
		s.logger.Debug().
			Str("title", c.Title).
			Float64("bestScore", bestScore).
			Msg("no availability candidate matched closely enough")
		return nil
	}

	sources := make([]content.StreamingSource, 0, len(best.Offers))
	for _, offer := range best.Offers {
		offerType := content.ParseOfferType(offer.OfferType)
		if offerType >= content.OfferRent {
			continue
		}
		sources = append(sources, content.StreamingSource{
			ProviderName: offer.ServiceName,
			LogoURL:      offer.LogoURL,
			DeepLink:     offer.Link,
			OfferType:    offerType,
			Price:        offer.Price,
		})
	}

	return dedupSources(sources)
}

// fromWatchProviders is the catalog tier. Bundled "channel" add-ons are
// excluded because their links require an extra subscription on top of the
// hosting platform.
func (s *SourceResolver) fromWatchProviders(ctx context.Context, c *content.IdentifiedContent) []content.StreamingSource {
	if c.CatalogID == 0 || s.catalog == nil || !s.catalog.IsConfigured() {
		return nil
	}

	mediaType := "movie"
	if c.MediaKind == content.KindSeries {
		mediaType = "tv"
	}

	offers, err := fetch.WithRetry(ctx, s.logger, "watch providers lookup", s.retry,
		func(ctx context.Context) ([]tmdb.WatchOffer, error) {
			return s.catalog.GetWatchProviders(ctx, mediaType, c.CatalogID, s.catalog.Region())
		})
	if err != nil {
		s.logger.Warn().Err(err).Int("catalogID", c.CatalogID).Msg("watch providers lookup failed")
		return nil
	}

	sources := make([]content.StreamingSource, 0, len(offers))
	for _, offer := range offers {
		if strings.Contains(strings.ToLower(offer.ProviderName), "channel") {
			continue
		}
		offerType := content.ParseOfferType(offer.OfferType)
		if offerType >= content.OfferRent {
			continue
		}
		sources = append(sources, content.StreamingSource{
			ProviderName: offer.ProviderName,
			LogoURL:      offer.LogoURL,
			DeepLink:     offer.Link,
			OfferType:    offerType,
		})
	}

	return dedupSources(sources)
}

// dedupSources collapses duplicate providers keeping the best offer type
// per provider, then orders the list by offer priority.
func dedupSources(sources []content.StreamingSource) []content.StreamingSource {
	byProvider := make(map[string]content.StreamingSource, len(sources))
	order := make([]string, 0, len(sources))
	for _, src := range sources {
		existing, seen := byProvider[src.ProviderName]
		if !seen {
			byProvider[src.ProviderName] = src
			order = append(order, src.ProviderName)
			continue
		}
		if src.OfferType < existing.OfferType {
			byProvider[src.ProviderName] = src
		}
	}

	deduped := make([]content.StreamingSource, 0, len(order))
	for _, name := range order {
		deduped = append(deduped, byProvider[name])
	}
	sort.SliceStable(deduped, func(i, j int) bool {
		return deduped[i].OfferType < deduped[j].OfferType
	})
	return deduped
}

// showTypeFor maps the domain MediaKind to the availability provider's
// show_type parameter.
func showTypeFor(kind content.MediaKind) string {
	switch kind {
	case content.KindSeries:
		return "series"
	case content.KindMovie, content.KindDocumentary:
		return "movie"
	default:
		return ""
	}
}
