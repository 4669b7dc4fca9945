package eval

import (
	"math"

	"github.com/feedbackhq/rating-eval/internal/prompt"
)

// Aggregate reduces the outcomes for one variant into a Summary.
//
// Accuracy is computed over valid extractions only. A parse or API failure is
// neither a wrong prediction nor a correct one -- it is excluded from the
// accuracy denominator and counted against the validity rate instead.
// Conflating the two would blame the model's reasoning for the endpoint's
// format compliance.
func Aggregate(outcomes []Outcome, variant prompt.Variant) Summary {
	s := Summary{
		Variant:    variant,
		TotalItems: len(outcomes),
	}

	for _, o := range outcomes {
		if o.ExtractionFailed || o.APIFailed {
			continue
		}
		s.ValidExtractions++
		if o.Prediction != nil && o.Prediction.PredictedStars == o.TrueStars {
			s.Correct++
		}
	}

	if s.TotalItems > 0 {
		s.ValidityRate = round4(float64(s.ValidExtractions) / float64(s.TotalItems))
	}
	if s.ValidExtractions > 0 {
		acc := round4(float64(s.Correct) / float64(s.ValidExtractions))
		s.Accuracy = &acc
	}

	return s
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
