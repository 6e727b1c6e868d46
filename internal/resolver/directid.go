package resolver

import (
	"context"
	"regexp"

	"github.com/rs/zerolog"

	"github.com/screenlens/screenlens/internal/content"
	"github.com/screenlens/screenlens/internal/fetch"
	"github.com/screenlens/screenlens/internal/tmdb"
	"github.com/screenlens/screenlens/internal/youtube"
)

var (
	videoIDPattern = regexp.MustCompile(`(?:youtube\.com/watch\?.*v=|youtu\.be/|youtube\.com/embed/|youtube\.com/shorts/)([A-Za-z0-9_-]{11})`)
	imdbIDPattern  = regexp.MustCompile(`/title/(tt\d{7,8})`)
)

// DirectIDStage extracts well-known identifiers embedded in a URL and
// resolves them with a single provider lookup: platform video IDs first,
// then canonical external-reference IDs. Non-URL queries fall through.
type DirectIDStage struct {
	video   videoClient
	catalog catalogClient
	retry   fetch.RetryConfig
	logger  zerolog.Logger
}

func (s *DirectIDStage) Name() string {
	return "direct-id"
}

func (s *DirectIDStage) Resolve(ctx context.Context, q content.Query) ([]content.IdentifiedContent, error) {
	if q.Kind != content.QueryURL {
		return nil, nil
	}

	if id := ExtractVideoID(q.Text); id != "" {
		if result := s.resolveVideo(ctx, id); result != nil {
			return []content.IdentifiedContent{*result}, nil
		}
		return nil, nil
	}

	if id := ExtractExternalRefID(q.Text); id != "" {
		if result := s.resolveExternalRef(ctx, id); result != nil {
			return []content.IdentifiedContent{*result}, nil
		}
	}

	return nil, nil
}

// ExtractVideoID pulls an 11-character platform video ID out of the known
// URL shapes: watch query parameter, short link, embed path, shorts path.
func ExtractVideoID(rawURL string) string {
	m := videoIDPattern.FindStringSubmatch(rawURL)
	if m == nil {
		return ""
	}
	return m[1]
}

// ExtractExternalRefID pulls a canonical external-reference title ID out of
// a /title/ttNNNNNNN path.
func ExtractExternalRefID(rawURL string) string {
	m := imdbIDPattern.FindStringSubmatch(rawURL)
	if m == nil {
		return ""
	}
	return m[1]
}

func (s *DirectIDStage) resolveVideo(ctx context.Context, videoID string) *content.IdentifiedContent {
	if s.video == nil || !s.video.IsConfigured() {
		s.logger.Debug().Str("videoID", videoID).Msg("video provider not configured, skipping direct video lookup")
		return nil
	}

	video, err := fetch.WithRetry(ctx, s.logger, "video metadata lookup", s.retry,
		func(ctx context.Context) (*youtube.Video, error) {
			return s.video.GetVideo(ctx, videoID)
		})
	if err != nil || video == nil {
		s.logger.Warn().Err(err).Str("videoID", videoID).Msg("video lookup failed")
		return nil
	}

	return &content.IdentifiedContent{
		Title:       video.Title,
		Year:        video.Year,
		MediaKind:   content.KindVideo,
		Synopsis:    video.Description,
		PosterURL:   video.ThumbnailURL,
		Confidence:  0.95,
		VideoURL:    video.URL,
		ChannelName: video.ChannelName,
		Sources:     []content.StreamingSource{},
	}
}

func (s *DirectIDStage) resolveExternalRef(ctx context.Context, refID string) *content.IdentifiedContent {
	if s.catalog == nil || !s.catalog.IsConfigured() {
		s.logger.Debug().Str("refID", refID).Msg("catalog not configured, skipping external-ref lookup")
		return nil
	}

	found, err := fetch.WithRetry(ctx, s.logger, "external-ref lookup", s.retry,
		func(ctx context.Context) (*tmdb.NormalizedSearchResult, error) {
			return s.catalog.FindByIMDbID(ctx, refID)
		})
	if err != nil || found == nil {
		s.logger.Warn().Err(err).Str("refID", refID).Msg("external-ref lookup failed")
		return nil
	}

	return &content.IdentifiedContent{
		Title:         found.Title,
		Year:          found.Year,
		MediaKind:     mediaKindFromCatalog(found.MediaType),
		Rating:        found.Rating,
		Synopsis:      found.Overview,
		PosterURL:     found.PosterURL,
		Confidence:    0.98,
		CatalogID:     found.ID,
		ExternalRefID: refID,
		Sources:       []content.StreamingSource{},
	}
}

// mediaKindFromCatalog maps a catalog media type to the domain MediaKind.
func mediaKindFromCatalog(mediaType string) content.MediaKind {
	if mediaType == "tv" {
		return content.KindSeries
	}
	return content.KindMovie
}
