// Package cache implements the content-addressed resolution cache. Entries
// are keyed by a hash of the normalized input and persisted in SQLite.
package cache

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/screenlens/screenlens/internal/content"
	"github.com/screenlens/screenlens/internal/similarity"
)

// Entry is one cached resolution result.
type Entry struct {
	InputHash      string
	ContentType    content.QueryKind
	Result         content.IdentifiedContent
	HitCount       int64
	CreatedAt      time.Time
	LastAccessedAt time.Time
}

// Stats summarizes cache state for the status endpoint.
type Stats struct {
	Entries   int64 `json:"entries"`
	TotalHits int64 `json:"totalHits"`
}

// Store persists resolution results keyed by input hash. When disabled,
// Get always misses and Put is a no-op; no other stage behavior changes.
type Store struct {
	db      *sql.DB
	enabled bool
	logger  zerolog.Logger
}

// NewStore creates a cache store backed by the given database.
func NewStore(db *sql.DB, enabled bool, logger zerolog.Logger) *Store {
	return &Store{
		db:      db,
		enabled: enabled,
		logger:  logger.With().Str("component", "cache").Logger(),
	}
}

// Enabled reports whether caching is active.
func (s *Store) Enabled() bool {
	return s.enabled
}

// HashQuery computes the content-addressed key for a query: SHA-256 over
// the raw image bytes for image queries, or over the normalized text for
// text and URL queries.
func HashQuery(q content.Query) string {
	h := sha256.New()
	if q.Kind == content.QueryImage {
		h.Write(q.ImageBytes)
	} else {
		h.Write([]byte(similarity.Normalize(q.Text)))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Get looks up an entry by hash. On a hit the hit count is incremented and
// the last-accessed timestamp refreshed in the same UPDATE statement, so
// concurrent hits on the same key never lose an increment. Returns nil on
// a miss.
func (s *Store) Get(ctx context.Context, hash string) (*Entry, error) {
	if !s.enabled {
		return nil, nil
	}

	row := s.db.QueryRowContext(ctx, `
		UPDATE cache_entries
		SET hit_count = hit_count + 1, last_accessed_at = ?
		WHERE input_hash = ?
		RETURNING input_hash, content_type, title, year, media_kind, genres,
		          rating, runtime, synopsis, poster_url, confidence,
		          catalog_id, external_ref_id, video_url, channel_name,
		          sources, hit_count, created_at, last_accessed_at`,
		time.Now().UTC(), hash)

	entry, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	s.logger.Debug().
		Str("hash", hash).
		Int64("hitCount", entry.HitCount).
		Msg("cache hit")

	return entry, nil
}

// Put upserts an entry keyed by hash. A second resolution of the same
// input overwrites the stored result; the accumulated hit count survives
// the overwrite since the entry identity is unchanged.
func (s *Store) Put(ctx context.Context, hash string, kind content.QueryKind, result content.IdentifiedContent) error {
	if !s.enabled {
		return nil
	}

	genres, err := json.Marshal(result.Genres)
	if err != nil {
		return err
	}
	sources, err := json.Marshal(result.Sources)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO cache_entries (
			input_hash, content_type, title, year, media_kind, genres,
			rating, runtime, synopsis, poster_url, confidence, catalog_id,
			external_ref_id, video_url, channel_name, sources, hit_count,
			created_at, last_accessed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?, ?)
		ON CONFLICT(input_hash) DO UPDATE SET
			content_type = excluded.content_type,
			title = excluded.title,
			year = excluded.year,
			media_kind = excluded.media_kind,
			genres = excluded.genres,
			rating = excluded.rating,
			runtime = excluded.runtime,
			synopsis = excluded.synopsis,
			poster_url = excluded.poster_url,
			confidence = excluded.confidence,
			catalog_id = excluded.catalog_id,
			external_ref_id = excluded.external_ref_id,
			video_url = excluded.video_url,
			channel_name = excluded.channel_name,
			sources = excluded.sources,
			last_accessed_at = excluded.last_accessed_at`,
		hash, string(kind), result.Title, result.Year, string(result.MediaKind),
		string(genres), result.Rating, result.Runtime, result.Synopsis,
		result.PosterURL, result.Confidence, result.CatalogID,
		result.ExternalRefID, result.VideoURL, result.ChannelName,
		string(sources), now, now)
	if err != nil {
		return err
	}

	s.logger.Debug().
		Str("hash", hash).
		Str("title", result.Title).
		Msg("cached resolution result")

	return nil
}

// GetStats returns aggregate cache statistics.
func (s *Store) GetStats(ctx context.Context) (Stats, error) {
	if !s.enabled {
		return Stats{}, nil
	}

	var stats Stats
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(hit_count), 0) FROM cache_entries`).
		Scan(&stats.Entries, &stats.TotalHits)
	return stats, err
}

// scanEntry reads one row into an Entry.
func scanEntry(row *sql.Row) (*Entry, error) {
	var e Entry
	var contentType, mediaKind, genres, sources string

	err := row.Scan(
		&e.InputHash, &contentType, &e.Result.Title, &e.Result.Year,
		&mediaKind, &genres, &e.Result.Rating, &e.Result.Runtime,
		&e.Result.Synopsis, &e.Result.PosterURL, &e.Result.Confidence,
		&e.Result.CatalogID, &e.Result.ExternalRefID, &e.Result.VideoURL,
		&e.Result.ChannelName, &sources, &e.HitCount, &e.CreatedAt,
		&e.LastAccessedAt,
	)
	if err != nil {
		return nil, err
	}

	e.ContentType = content.QueryKind(contentType)
	e.Result.MediaKind = content.MediaKind(mediaKind)

	if err := json.Unmarshal([]byte(genres), &e.Result.Genres); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(sources), &e.Result.Sources); err != nil {
		return nil, err
	}

	return &e, nil
}
