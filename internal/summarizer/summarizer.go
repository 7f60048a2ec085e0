package summarizer

import (
	"context"
)

// Input describes one review to condense for a moderation digest.
type Input struct {
	// Text is the review's plain-text content.
	Text string
	// PlaceName is optional context naming the reviewed place.
	PlaceName string
	// Rating is the review's 1-5 star rating, 0 when unknown.
	Rating int
}

// Summarizer condenses a review into a single digest line.
type Summarizer interface {
	Summarize(ctx context.Context, input Input) (string, error)
}
