package resolver

import (
	"context"
	"errors"
	"testing"

	"github.com/screenlens/screenlens/internal/content"
	"github.com/screenlens/screenlens/internal/llm"
	"github.com/screenlens/screenlens/internal/tmdb"
	"github.com/screenlens/screenlens/internal/youtube"
)

func TestResolver_ExternalRefURLShortCircuits(t *testing.T) {
	catalog := &mockCatalog{
		configured: true,
		findResult: &tmdb.NormalizedSearchResult{ID: 603, MediaType: "movie", Title: "The Matrix", Year: 1999},
		details:    &tmdb.NormalizedDetails{ID: 603, MediaType: "movie", Title: "The Matrix", ImdbID: "tt0133093", Genres: []string{"Science Fiction"}},
	}
	ai := &mockAI{configured: true, vision: true}

	r := newTestResolver(t, Providers{
		Catalog:      catalog,
		Video:        &mockVideo{},
		Availability: &mockAvailability{},
		AI:           ai,
		Pages:        &mockPages{},
	}, false)

	results, err := r.Resolve(context.Background(), content.NewTextQuery("https://example-catalog.test/title/tt0133093/"))
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("results = %d, want 1", len(results))
	}

	got := results[0]
	if got.ExternalRefID != "tt0133093" {
		t.Errorf("ExternalRefID = %q, want tt0133093", got.ExternalRefID)
	}
	if got.Confidence != 0.98 {
		t.Errorf("Confidence = %v, want 0.98", got.Confidence)
	}

	// Short-circuit ordering: the fuzzy and AI stages must never run.
	if catalog.searchCalls != 0 {
		t.Errorf("searchCalls = %d, want 0 (fuzzy stage skipped)", catalog.searchCalls)
	}
	if ai.imageCalls != 0 || ai.textCalls != 0 {
		t.Errorf("AI calls = %d/%d, want 0 (AI stage skipped)", ai.imageCalls, ai.textCalls)
	}
}

func TestResolver_ExactTitleResolvesViaFuzzy(t *testing.T) {
	catalog := &mockCatalog{
		configured: true,
		searchResults: []tmdb.NormalizedSearchResult{
			{ID: 603, MediaType: "movie", Title: "The Matrix", Year: 1999, Rating: 8.2},
		},
		details: &tmdb.NormalizedDetails{ID: 603, MediaType: "movie", Title: "The Matrix", ImdbID: "tt0133093", Genres: []string{"Science Fiction"}, Runtime: 136},
	}
	ai := &mockAI{configured: true}

	r := newTestResolver(t, Providers{
		Catalog:      catalog,
		Video:        &mockVideo{},
		Availability: &mockAvailability{},
		AI:           ai,
		Pages:        &mockPages{},
	}, false)

	results, err := r.Resolve(context.Background(), content.NewTextQuery("The Matrix"))
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("results = %d, want 1", len(results))
	}

	got := results[0]
	if got.Confidence != 0.95 {
		t.Errorf("Confidence = %v, want 0.95", got.Confidence)
	}
	if got.CatalogID != 603 {
		t.Errorf("CatalogID = %d, want 603", got.CatalogID)
	}
	if got.ExternalRefID != "tt0133093" {
		t.Errorf("ExternalRefID = %q, want filled by enrichment", got.ExternalRefID)
	}
	if got.Runtime != "136 min" {
		t.Errorf("Runtime = %q, want 136 min", got.Runtime)
	}
	if ai.textCalls != 0 {
		t.Errorf("textCalls = %d, want 0 (AI stage never invoked)", ai.textCalls)
	}

	// No availability and no watch providers, so the external-ref
	// fallback must produce the single synthetic source.
	if len(got.Sources) != 1 || got.Sources[0].OfferType != content.OfferFree {
		t.Errorf("Sources = %+v, want single free external-ref link", got.Sources)
	}
}

func TestResolver_LowSimilarityFallsThroughToAI(t *testing.T) {
	catalog := &mockCatalog{
		configured: true,
		searchResults: []tmdb.NormalizedSearchResult{
			{ID: 42, MediaType: "movie", Title: "Unrelated Noise Result"},
		},
	}
	ai := &mockAI{
		configured: true,
		textResult: &llm.Identification{Found: true, Title: "The Matrix", MediaKind: "movie", Year: 1999, Confidence: "medium"},
	}

	r := newTestResolver(t, Providers{
		Catalog:      catalog,
		Video:        &mockVideo{},
		Availability: &mockAvailability{},
		AI:           ai,
		Pages:        &mockPages{},
	}, false)

	results, err := r.Resolve(context.Background(), content.NewTextQuery("a hacker discovers reality is fake"))
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if ai.textCalls != 1 {
		t.Fatalf("textCalls = %d, want AI stage invoked", ai.textCalls)
	}
	if len(results) != 1 || results[0].Title != "The Matrix" {
		t.Fatalf("results = %+v, want AI identification as final result", results)
	}
	if results[0].Confidence != 0.8 {
		t.Errorf("Confidence = %v, want 0.8", results[0].Confidence)
	}
}

func TestResolver_AllUpstreamsFailYieldsEmpty(t *testing.T) {
	r := newTestResolver(t, Providers{
		Catalog:      &mockCatalog{configured: true, searchErr: errors.New("down"), findErr: errors.New("down")},
		Video:        &mockVideo{configured: true, err: errors.New("down")},
		Availability: &mockAvailability{configured: true, err: errors.New("down")},
		AI:           &mockAI{configured: true, vision: true, imageErr: errors.New("down"), textErr: errors.New("down")},
		Pages:        &mockPages{},
	}, false)

	results, err := r.Resolve(context.Background(), content.NewTextQuery("The Matrix"))
	if err != nil {
		t.Fatalf("Resolve() error = %v, want graceful empty result", err)
	}
	if results == nil || len(results) != 0 {
		t.Errorf("results = %#v, want empty non-nil slice", results)
	}
}

func TestResolver_NoProvidersConfiguredYieldsEmpty(t *testing.T) {
	r := newTestResolver(t, Providers{
		Catalog:      &mockCatalog{},
		Video:        &mockVideo{},
		Availability: &mockAvailability{},
		AI:           &mockAI{},
		Pages:        &mockPages{},
	}, false)

	results, err := r.Resolve(context.Background(), content.NewTextQuery("The Matrix"))
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if len(results) != 0 {
		t.Errorf("results = %+v, want empty", results)
	}
}

func TestResolver_SecondResolutionHitsCache(t *testing.T) {
	catalog := &mockCatalog{
		configured: true,
		searchResults: []tmdb.NormalizedSearchResult{
			{ID: 603, MediaType: "movie", Title: "The Matrix", Year: 1999},
		},
		details: &tmdb.NormalizedDetails{ID: 603, MediaType: "movie", ImdbID: "tt0133093", Genres: []string{"Science Fiction"}},
	}

	r := newTestResolver(t, Providers{
		Catalog:      catalog,
		Video:        &mockVideo{},
		Availability: &mockAvailability{},
		AI:           &mockAI{},
		Pages:        &mockPages{},
	}, true)

	first, err := r.Resolve(context.Background(), content.NewTextQuery("The Matrix"))
	if err != nil {
		t.Fatalf("first Resolve() error = %v", err)
	}
	callsAfterFirst := catalog.searchCalls

	// Normalization-equivalent input must hit the same cache entry.
	second, err := r.Resolve(context.Background(), content.NewTextQuery("the matrix!!!"))
	if err != nil {
		t.Fatalf("second Resolve() error = %v", err)
	}

	if catalog.searchCalls != callsAfterFirst {
		t.Errorf("searchCalls = %d, want %d (no upstream calls on cache hit)", catalog.searchCalls, callsAfterFirst)
	}
	if len(first) != 1 || len(second) != 1 {
		t.Fatalf("results = %d/%d, want 1/1", len(first), len(second))
	}
	if first[0].Title != second[0].Title || first[0].CatalogID != second[0].CatalogID {
		t.Errorf("cached payload differs: %+v vs %+v", first[0], second[0])
	}
	if len(first[0].Sources) != len(second[0].Sources) {
		t.Errorf("cached sources differ: %+v vs %+v", first[0].Sources, second[0].Sources)
	}
}

func TestResolver_VideoURLResolvesDirectly(t *testing.T) {
	video := &mockVideo{
		configured: true,
		video: &youtube.Video{
			ID:          "dQw4w9WgXcQ",
			Title:       "Never Gonna Give You Up",
			ChannelName: "Rick Astley",
			Year:        2009,
			URL:         "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		},
	}
	avail := &mockAvailability{configured: true}

	r := newTestResolver(t, Providers{
		Catalog:      &mockCatalog{configured: true},
		Video:        video,
		Availability: avail,
		AI:           &mockAI{},
		Pages:        &mockPages{},
	}, false)

	results, err := r.Resolve(context.Background(), content.NewTextQuery("https://www.youtube.com/watch?v=dQw4w9WgXcQ"))
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("results = %d, want 1", len(results))
	}
	if results[0].MediaKind != content.KindVideo {
		t.Errorf("MediaKind = %q, want video", results[0].MediaKind)
	}
	if avail.calls != 0 {
		t.Errorf("availability calls = %d, want 0 for video kind", avail.calls)
	}
	if len(results[0].Sources) != 0 {
		t.Errorf("Sources = %+v, want empty for video kind", results[0].Sources)
	}
}
