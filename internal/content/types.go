// Package content defines the domain model shared by the resolution
// pipeline, the cache store, and the HTTP API.
package content

import (
	"regexp"
	"strings"
)

// QueryKind identifies the shape of an inbound query.
type QueryKind string

const (
	QueryImage QueryKind = "image"
	QueryText  QueryKind = "text"
	QueryURL   QueryKind = "url"
)

// MediaKind classifies an identified title.
type MediaKind string

const (
	KindMovie       MediaKind = "movie"
	KindSeries      MediaKind = "series"
	KindDocumentary MediaKind = "documentary"
	KindVideo       MediaKind = "video"
)

// OfferType is the commercial relationship of a streaming availability
// entry. The ordinal values define the dedup priority: lower wins.
type OfferType int

const (
	OfferFree OfferType = iota
	OfferSubscription
	OfferRent
	OfferBuy
)

// String returns the JSON/API representation of the offer type.
func (o OfferType) String() string {
	switch o {
	case OfferFree:
		return "free"
	case OfferSubscription:
		return "subscription"
	case OfferRent:
		return "rent"
	case OfferBuy:
		return "buy"
	default:
		return "unknown"
	}
}

// ParseOfferType maps a provider offer label to an OfferType. Unknown
// labels map to OfferBuy so that they are never preferred during dedup.
func ParseOfferType(s string) OfferType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "free", "ads", "ad-supported":
		return OfferFree
	case "subscription", "flatrate", "sub":
		return OfferSubscription
	case "rent", "rental":
		return OfferRent
	default:
		return OfferBuy
	}
}

// MarshalJSON encodes the offer type as its string label.
func (o OfferType) MarshalJSON() ([]byte, error) {
	return []byte(`"` + o.String() + `"`), nil
}

// UnmarshalJSON decodes an offer type from its string label.
func (o *OfferType) UnmarshalJSON(data []byte) error {
	*o = ParseOfferType(strings.Trim(string(data), `"`))
	return nil
}

// StreamingSource is one place to watch an identified title.
type StreamingSource struct {
	ProviderName string    `json:"providerName"`
	LogoURL      string    `json:"logoUrl,omitempty"`
	DeepLink     string    `json:"deepLink"`
	OfferType    OfferType `json:"offerType"`
	Price        string    `json:"price,omitempty"`
}

// IdentifiedContent is a resolved title with its watch options.
type IdentifiedContent struct {
	Title         string            `json:"title"`
	Year          int               `json:"year,omitempty"`
	MediaKind     MediaKind         `json:"mediaKind"`
	Genres        []string          `json:"genres,omitempty"`
	Rating        float64           `json:"rating,omitempty"`
	Runtime       string            `json:"runtime,omitempty"`
	Synopsis      string            `json:"synopsis,omitempty"`
	PosterURL     string            `json:"posterUrl,omitempty"`
	Confidence    float64           `json:"confidence"`
	CatalogID     int               `json:"catalogId,omitempty"`
	ExternalRefID string            `json:"externalRefId,omitempty"`
	VideoURL      string            `json:"videoUrl,omitempty"`
	ChannelName   string            `json:"channelName,omitempty"`
	Sources       []StreamingSource `json:"streamingSources"`
}

var urlPattern = regexp.MustCompile(`^https?://\S+$`)

// Query is the immutable input to one resolution request. Exactly one of
// the image or text fields is populated, decided at construction.
type Query struct {
	Kind       QueryKind
	ImageBytes []byte
	MimeType   string
	Text       string
}

// NewImageQuery constructs an image query.
func NewImageQuery(data []byte, mimeType string) Query {
	return Query{Kind: QueryImage, ImageBytes: data, MimeType: mimeType}
}

// NewTextQuery constructs a text query. Raw text that looks like a URL is
// classified as a URL query.
func NewTextQuery(raw string) Query {
	trimmed := strings.TrimSpace(raw)
	if urlPattern.MatchString(trimmed) {
		return Query{Kind: QueryURL, Text: trimmed}
	}
	return Query{Kind: QueryText, Text: trimmed}
}
