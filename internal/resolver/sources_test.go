package resolver

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"github.com/screenlens/screenlens/internal/content"
	"github.com/screenlens/screenlens/internal/streamavail"
	"github.com/screenlens/screenlens/internal/tmdb"
)

func newSourceResolver(avail *mockAvailability, catalog *mockCatalog) *SourceResolver {
	return &SourceResolver{
		availability: avail,
		catalog:      catalog,
		threshold:    0.6,
		retry:        fastRetry,
		logger:       zerolog.Nop(),
	}
}

func TestDedupSources(t *testing.T) {
	sources := dedupSources([]content.StreamingSource{
		{ProviderName: "Netflix", OfferType: content.OfferSubscription},
		{ProviderName: "Tubi", OfferType: content.OfferFree},
		{ProviderName: "Netflix", OfferType: content.OfferSubscription},
	})

	if len(sources) != 2 {
		t.Fatalf("sources = %d, want 2", len(sources))
	}
	if sources[0].ProviderName != "Tubi" || sources[0].OfferType != content.OfferFree {
		t.Errorf("sources[0] = %+v, want free Tubi first", sources[0])
	}
	if sources[1].ProviderName != "Netflix" {
		t.Errorf("sources[1] = %+v", sources[1])
	}
}

func TestDedupSources_KeepsHighestPriorityOffer(t *testing.T) {
	sources := dedupSources([]content.StreamingSource{
		{ProviderName: "Amazon", OfferType: content.OfferSubscription},
		{ProviderName: "Amazon", OfferType: content.OfferFree},
	})

	if len(sources) != 1 {
		t.Fatalf("sources = %d, want 1", len(sources))
	}
	if sources[0].OfferType != content.OfferFree {
		t.Errorf("OfferType = %v, want free (higher priority wins)", sources[0].OfferType)
	}
}

func TestSourceResolver_AvailabilityTier(t *testing.T) {
	avail := &mockAvailability{
		configured: true,
		candidates: []streamavail.Candidate{
			{
				Title: "The Matrix",
				Year:  1999,
				Offers: []streamavail.Offer{
					{ServiceName: "Netflix", OfferType: "subscription", Link: "https://netflix.example/603"},
					{ServiceName: "Netflix", OfferType: "rent", Link: "https://netflix.example/rent/603"},
					{ServiceName: "Apple TV", OfferType: "buy", Link: "https://apple.example/603"},
					{ServiceName: "Tubi", OfferType: "free", Link: "https://tubi.example/603"},
				},
			},
		},
	}
	catalog := &mockCatalog{configured: true, watchOffers: []tmdb.WatchOffer{{ProviderName: "ShouldNotAppear"}}}

	c := &content.IdentifiedContent{Title: "The Matrix", Year: 1999, MediaKind: content.KindMovie, CatalogID: 603}
	sources := newSourceResolver(avail, catalog).Resolve(context.Background(), c)

	if len(sources) != 2 {
		t.Fatalf("sources = %+v, want 2 (rent/buy dropped, deduped)", sources)
	}
	for _, s := range sources {
		if s.OfferType >= content.OfferRent {
			t.Errorf("rent/buy offer surfaced: %+v", s)
		}
	}
	if sources[0].ProviderName != "Tubi" {
		t.Errorf("sources[0] = %+v, want free offer ordered first", sources[0])
	}
	if catalog.watchCalls != 0 {
		t.Errorf("watchCalls = %d, want 0 when tier 1 matched", catalog.watchCalls)
	}
}

func TestSourceResolver_RejectsWrongTitleMatch(t *testing.T) {
	avail := &mockAvailability{
		configured: true,
		candidates: []streamavail.Candidate{
			{
				Title:  "Some Entirely Different Show",
				Year:   2015,
				Offers: []streamavail.Offer{{ServiceName: "Netflix", OfferType: "subscription", Link: "https://x"}},
			},
		},
	}

	c := &content.IdentifiedContent{Title: "The Matrix", Year: 1999, MediaKind: content.KindMovie}
	sources := newSourceResolver(avail, &mockCatalog{}).Resolve(context.Background(), c)

	if len(sources) != 0 {
		t.Errorf("sources = %+v, want empty when the best candidate scores below threshold", sources)
	}
}

func TestSourceResolver_YearBonusBreaksTie(t *testing.T) {
	avail := &mockAvailability{
		configured: true,
		candidates: []streamavail.Candidate{
			{Title: "Dune", Year: 1984, Offers: []streamavail.Offer{{ServiceName: "Old", OfferType: "subscription", Link: "https://old"}}},
			{Title: "Dune", Year: 2021, Offers: []streamavail.Offer{{ServiceName: "New", OfferType: "subscription", Link: "https://new"}}},
		},
	}

	c := &content.IdentifiedContent{Title: "Dune", Year: 2021, MediaKind: content.KindMovie}
	sources := newSourceResolver(avail, &mockCatalog{}).Resolve(context.Background(), c)

	if len(sources) != 1 || sources[0].ProviderName != "New" {
		t.Errorf("sources = %+v, want the year-matching candidate's offers", sources)
	}
}

func TestSourceResolver_WatchProvidersTier(t *testing.T) {
	avail := &mockAvailability{configured: true}
	catalog := &mockCatalog{
		configured: true,
		watchOffers: []tmdb.WatchOffer{
			{ProviderName: "Max", OfferType: "flatrate", Link: "https://catalog.example/watch/603"},
			{ProviderName: "Max Amazon Channel", OfferType: "flatrate", Link: "https://catalog.example/watch/603"},
			{ProviderName: "Apple TV", OfferType: "rent", Link: "https://catalog.example/watch/603"},
		},
	}

	c := &content.IdentifiedContent{Title: "The Matrix", Year: 1999, MediaKind: content.KindMovie, CatalogID: 603}
	sources := newSourceResolver(avail, catalog).Resolve(context.Background(), c)

	if len(sources) != 1 {
		t.Fatalf("sources = %+v, want 1 (channel add-on and rent excluded)", sources)
	}
	if sources[0].ProviderName != "Max" || sources[0].OfferType != content.OfferSubscription {
		t.Errorf("sources[0] = %+v", sources[0])
	}
}

func TestSourceResolver_ExternalRefFallback(t *testing.T) {
	c := &content.IdentifiedContent{
		Title:         "The Matrix",
		MediaKind:     content.KindMovie,
		ExternalRefID: "tt0133093",
	}
	sources := newSourceResolver(&mockAvailability{}, &mockCatalog{}).Resolve(context.Background(), c)

	if len(sources) != 1 {
		t.Fatalf("sources = %+v, want single synthetic fallback", sources)
	}
	if sources[0].DeepLink != "https://www.imdb.com/title/tt0133093/" {
		t.Errorf("DeepLink = %q", sources[0].DeepLink)
	}
	if sources[0].OfferType != content.OfferFree {
		t.Errorf("OfferType = %v, want free", sources[0].OfferType)
	}
}

func TestSourceResolver_NothingApplies(t *testing.T) {
	c := &content.IdentifiedContent{Title: "Obscure Title", MediaKind: content.KindMovie}
	sources := newSourceResolver(&mockAvailability{}, &mockCatalog{}).Resolve(context.Background(), c)

	if sources == nil || len(sources) != 0 {
		t.Errorf("sources = %#v, want empty non-nil list", sources)
	}
}
