package eval

import (
	"time"

	"github.com/feedbackhq/rating-eval/internal/extract"
	"github.com/feedbackhq/rating-eval/internal/prompt"
)

// RawReply is the unprocessed result of one inference call. It lives only
// long enough to be turned into an Outcome.
type RawReply struct {
	Text     string
	APIError bool
}

// Outcome is the complete record of one (item, variant) evaluation attempt.
// Exactly one Outcome exists per pair within a run, and it is immutable once
// created.
type Outcome struct {
	ItemID           string
	Variant          prompt.Variant
	TrueStars        int
	RawReply         string
	Prediction       *extract.Prediction // nil iff ExtractionFailed
	ExtractionFailed bool
	APIFailed        bool
	Duration         time.Duration
}

// Summary holds the aggregate statistics for one variant. Accuracy is nil,
// not zero, when no reply could be extracted: zero would read as "the model
// got everything wrong" when the truth is "nothing was measurable".
type Summary struct {
	Variant          prompt.Variant `json:"variant"`
	TotalItems       int            `json:"total_items"`
	ValidExtractions int            `json:"valid_extractions"`
	Correct          int            `json:"correct"`
	Accuracy         *float64       `json:"accuracy"`
	ValidityRate     float64        `json:"extraction_validity_rate"`
}

// Run holds metadata and results for a complete evaluation run across
// variants.
type Run struct {
	ID        string        `json:"id"`
	Dataset   string        `json:"dataset"`
	Model     string        `json:"model"`
	Timestamp time.Time     `json:"timestamp"`
	Duration  time.Duration `json:"duration"`
	Variants  []VariantRun  `json:"variants"`
}

// VariantRun holds the results for a single prompt variant within a run.
type VariantRun struct {
	Variant      prompt.Variant `json:"variant"`
	Duration     time.Duration  `json:"duration"`
	OutcomesFile string         `json:"outcomes_file"`
	Summary      Summary        `json:"summary"`
	Outcomes     []Outcome      `json:"-"`
}
