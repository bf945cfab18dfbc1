package search

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/factchecker/factlens/internal/models"
)

// NoVisualMatchesNote marks an online history with no matches.
const NoVisualMatchesNote = "No visual matches found online."

// ImageHost publishes an image at a publicly reachable URL.
type ImageHost interface {
	Upload(ctx context.Context, img models.Image) (string, error)
}

// VisualMatcher finds pages that contain the image at a public URL.
type VisualMatcher interface {
	VisualMatches(ctx context.Context, imageURL string, limit int) ([]models.VisualMatch, error)
}

// ReverseImageSearch uploads an image and looks it up with a visual matcher.
type ReverseImageSearch struct {
	host    ImageHost
	matcher VisualMatcher
	limit   int
}

// NewReverseImageSearch creates a reverse image search over host and matcher.
func NewReverseImageSearch(host ImageHost, matcher VisualMatcher, limit int) *ReverseImageSearch {
	if limit <= 0 {
		limit = 10
	}
	return &ReverseImageSearch{host: host, matcher: matcher, limit: limit}
}

// FindSources returns the online history of img. It never fails; upload and
// lookup errors are reported in the Error field.
func (r *ReverseImageSearch) FindSources(ctx context.Context, img models.Image) models.OnlineHistory {
	imageURL, err := r.host.Upload(ctx, img)
	if err != nil {
		log.Warn().Err(err).Msg("Image upload failed")
		return models.OnlineHistory{Error: "Failed to upload image for reverse search: " + err.Error()}
	}

	matches, err := r.matcher.VisualMatches(ctx, imageURL, r.limit)
	if err != nil {
		log.Warn().Err(err).Msg("Reverse image search failed")
		return models.OnlineHistory{Error: "Reverse image search failed: " + err.Error()}
	}

	if len(matches) == 0 {
		return models.OnlineHistory{SourceResults: []models.VisualMatch{}, Note: NoVisualMatchesNote}
	}

	log.Debug().Int("matches", len(matches)).Msg("Reverse image search completed")
	return models.OnlineHistory{SourceResults: matches}
}
