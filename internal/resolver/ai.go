package resolver

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/screenlens/screenlens/internal/content"
	"github.com/screenlens/screenlens/internal/fetch"
	"github.com/screenlens/screenlens/internal/llm"
)

type llmIdentification = llm.Identification

// AIFallbackStage sends the raw input to a generative model when the
// deterministic stages could not resolve it. Image queries prefer the
// vision backend and fall back to the text backend; URL queries are
// expanded into page text context first.
type AIFallbackStage struct {
	ai         aiClient
	pages      pageExtractor
	preferText bool
	retry      fetch.RetryConfig
	logger     zerolog.Logger
}

func (s *AIFallbackStage) Name() string {
	return "ai-fallback"
}

func (s *AIFallbackStage) Resolve(ctx context.Context, q content.Query) ([]content.IdentifiedContent, error) {
	if s.ai == nil || !s.ai.IsConfigured() {
		s.logger.Debug().Msg("AI backend not configured, skipping fallback")
		return nil, nil
	}

	var ident *llmIdentification

	switch q.Kind {
	case content.QueryImage:
		ident = s.identifyImage(ctx, q)
	case content.QueryURL:
		ident = s.identifyText(ctx, s.urlContext(ctx, q.Text))
	default:
		ident = s.identifyText(ctx, q.Text)
	}

	if ident == nil {
		return nil, nil
	}

	result := content.IdentifiedContent{
		Title:      ident.Title,
		Year:       ident.Year,
		MediaKind:  mediaKindFromAI(ident.MediaKind),
		Synopsis:   ident.Synopsis,
		Confidence: confidenceFromQualitative(ident.Confidence),
		Sources:    []content.StreamingSource{},
	}

	s.logger.Debug().
		Str("title", result.Title).
		Float64("confidence", result.Confidence).
		Msg("AI identification accepted")

	return []content.IdentifiedContent{result}, nil
}

// identifyImage runs the vision backend and, if it yields nothing, retries
// the same image through the text backend as an inline data URL. The
// preferText flag skips the vision attempt entirely.
func (s *AIFallbackStage) identifyImage(ctx context.Context, q content.Query) *llmIdentification {
	if !s.preferText && s.ai.HasVision() {
		ident, err := fetch.WithRetry(ctx, s.logger, "vision identification", s.retry,
			func(ctx context.Context) (*llmIdentification, error) {
				return s.ai.IdentifyImage(ctx, q.ImageBytes, q.MimeType)
			})
		if err != nil {
			s.logger.Warn().Err(err).Msg("vision identification failed, trying text backend")
		} else if ident != nil {
			return ident
		}
	}

	dataURL := fmt.Sprintf("data:%s;base64,%s", q.MimeType, base64.StdEncoding.EncodeToString(q.ImageBytes))
	return s.identifyText(ctx, "Identify the title shown in this image: "+dataURL)
}

func (s *AIFallbackStage) identifyText(ctx context.Context, contextText string) *llmIdentification {
	if contextText == "" {
		return nil
	}

	ident, err := fetch.WithRetry(ctx, s.logger, "text identification", s.retry,
		func(ctx context.Context) (*llmIdentification, error) {
			return s.ai.IdentifyText(ctx, contextText)
		})
	if err != nil {
		s.logger.Warn().Err(err).Msg("text identification failed")
		return nil
	}
	return ident
}

// urlContext expands a URL into page text context. Fetch failure degrades
// to the bare URL string; it never aborts the stage.
func (s *AIFallbackStage) urlContext(ctx context.Context, rawURL string) string {
	if s.pages == nil {
		return rawURL
	}
	return s.pages.Extract(ctx, rawURL).String()
}

// mediaKindFromAI maps the model's reported kind onto the domain enum,
// defaulting to movie for anything unrecognized.
func mediaKindFromAI(kind string) content.MediaKind {
	switch content.MediaKind(kind) {
	case content.KindSeries, content.KindDocumentary, content.KindVideo:
		return content.MediaKind(kind)
	default:
		return content.KindMovie
	}
}

// confidenceFromQualitative maps the model's high/medium/low report onto
// the numeric scale.
func confidenceFromQualitative(q string) float64 {
	switch q {
	case "high":
		return 0.95
	case "medium":
		return 0.8
	default:
		return 0.65
	}
}
