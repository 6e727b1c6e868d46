// Package webpage fetches a URL and extracts the text signals used to
// identify the content behind it: the page title, the meta description, and
// a bounded prefix of the visible body text.
package webpage

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"
)

const (
	maxBodyBytes   = 512 * 1024
	bodyTextPrefix = 1500
)

// PageContext is the extracted text context of a web page. URL is always
// set; the remaining fields are best effort.
type PageContext struct {
	URL         string
	Title       string
	Description string
	BodyText    string
}

// String assembles the context into a single prompt-ready block.
func (p *PageContext) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "URL: %s\n", p.URL)
	if p.Title != "" {
		fmt.Fprintf(&b, "Page title: %s\n", p.Title)
	}
	if p.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", p.Description)
	}
	if p.BodyText != "" {
		fmt.Fprintf(&b, "Page text: %s\n", p.BodyText)
	}
	return b.String()
}

// Extractor fetches and parses web pages.
type Extractor struct {
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewExtractor creates a page extractor with a bounded fetch timeout.
func NewExtractor(logger zerolog.Logger) *Extractor {
	return &Extractor{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger.With().Str("component", "webpage").Logger(),
	}
}

// Extract fetches the URL and pulls out its text signals. A fetch or parse
// failure degrades to a context carrying only the URL itself, so the caller
// can still hand something to the identifier.
func (e *Extractor) Extract(ctx context.Context, pageURL string) *PageContext {
	result := &PageContext{URL: pageURL}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		e.logger.Debug().Err(err).Str("url", pageURL).Msg("invalid page URL")
		return result
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; screenlens/1.0)")
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		e.logger.Debug().Err(err).Str("url", pageURL).Msg("page fetch failed")
		return result
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		e.logger.Debug().Int("status", resp.StatusCode).Str("url", pageURL).Msg("page fetch returned non-OK status")
		return result
	}

	doc, err := goquery.NewDocumentFromReader(http.MaxBytesReader(nil, resp.Body, maxBodyBytes))
	if err != nil {
		e.logger.Debug().Err(err).Str("url", pageURL).Msg("page parse failed")
		return result
	}

	result.Title = strings.TrimSpace(doc.Find("title").First().Text())
	if desc, ok := doc.Find(`meta[name="description"]`).First().Attr("content"); ok {
		result.Description = strings.TrimSpace(desc)
	}
	if result.Description == "" {
		if desc, ok := doc.Find(`meta[property="og:description"]`).First().Attr("content"); ok {
			result.Description = strings.TrimSpace(desc)
		}
	}

	doc.Find("script, style, nav, footer, noscript").Remove()
	body := strings.Join(strings.Fields(doc.Find("body").Text()), " ")
	if len(body) > bodyTextPrefix {
		body = body[:bodyTextPrefix]
	}
	result.BodyText = body

	e.logger.Debug().
		Str("url", pageURL).
		Str("title", result.Title).
		Int("bodyText", len(result.BodyText)).
		Msg("page context extracted")

	return result
}
