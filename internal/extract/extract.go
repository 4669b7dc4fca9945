// Package extract turns free-form model replies into structured star-rating
// predictions. The network boundary offers no format guarantee, so extraction
// tries three reply shapes in priority order: a fenced code block, a bare
// JSON literal, and a JSON object embedded in surrounding prose.
package extract

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
)

// Prediction is a successfully extracted star-rating prediction.
type Prediction struct {
	PredictedStars int    `json:"predicted_stars"`
	Explanation    string `json:"explanation"`
}

var (
	// ErrEmptyReply indicates the reply contained no text at all.
	ErrEmptyReply = errors.New("empty reply")
	// ErrNoObject indicates no JSON object could be located in the reply.
	ErrNoObject = errors.New("no JSON object found in reply")
	// ErrInvalidPrediction indicates an object was found but it is not a
	// valid prediction (missing fields, wrong types, or out-of-range stars).
	ErrInvalidPrediction = errors.New("reply JSON is not a valid prediction")
)

// Extractor parses raw reply text into Predictions. The zero value is a
// strict extractor; see Lenient.
type Extractor struct {
	// Lenient enables JSON syntax repair (single quotes, trailing commas,
	// unquoted keys) before the strict decode. Type and range validation
	// stay strict in both modes: a stringly-typed or fractional stars value
	// is always an extraction failure.
	Lenient bool
}

// Extract parses a raw model reply into a Prediction. It never panics; any
// reply that does not yield an integer predicted_stars in [1,5] and a string
// explanation is reported as an error for the caller to record as an
// extraction failure.
func (e *Extractor) Extract(raw string) (*Prediction, error) {
	text := stripFence(strings.TrimSpace(raw))
	if text == "" {
		return nil, ErrEmptyReply
	}

	// Shape 2: the reply is exactly a JSON literal after fence stripping.
	if p, err := decodePrediction(text); err == nil {
		return p, nil
	}

	// Shape 3: a JSON object embedded in prose. Brace matching rather than
	// regex truncation, so nested objects and braces inside string values
	// are handled.
	if span, ok := firstObject(text); ok {
		if p, err := decodePrediction(span); err == nil {
			return p, nil
		}
		if e.Lenient {
			if p, err := repairAndDecode(span); err == nil {
				return p, nil
			}
		}
		return nil, ErrInvalidPrediction
	}

	if e.Lenient {
		if p, err := repairAndDecode(text); err == nil {
			return p, nil
		}
	}
	return nil, ErrNoObject
}

// stripFence removes a surrounding markdown code fence, with or without a
// language tag. Replies that are not fenced are returned unchanged.
func stripFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	rest := s[3:]
	nl := strings.IndexByte(rest, '\n')
	if nl < 0 {
		return s
	}
	rest = rest[nl+1:]
	if end := strings.LastIndex(rest, "```"); end >= 0 {
		rest = rest[:end]
	}
	return strings.TrimSpace(rest)
}

// firstObject returns the first balanced {...} span in s. String contents are
// skipped so that braces inside values do not unbalance the scan.
func firstObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

// decodePrediction strictly decodes a candidate JSON object. UseNumber keeps
// numbers as literals so that 5.0 and "5" can be rejected: the contract wants
// a plain integer, and coercion would hide format-compliance issues the
// validity rate is supposed to surface.
func decodePrediction(s string) (*Prediction, error) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()

	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPrediction, err)
	}

	num, ok := obj["predicted_stars"].(json.Number)
	if !ok {
		return nil, fmt.Errorf("%w: predicted_stars is missing or not a number", ErrInvalidPrediction)
	}
	stars, err := strconv.Atoi(num.String())
	if err != nil {
		return nil, fmt.Errorf("%w: predicted_stars is not an integer", ErrInvalidPrediction)
	}
	if stars < 1 || stars > 5 {
		return nil, fmt.Errorf("%w: predicted_stars %d out of range [1,5]", ErrInvalidPrediction, stars)
	}

	explanation, ok := obj["explanation"].(string)
	if !ok {
		return nil, fmt.Errorf("%w: explanation is missing or not a string", ErrInvalidPrediction)
	}

	return &Prediction{PredictedStars: stars, Explanation: explanation}, nil
}

func repairAndDecode(s string) (*Prediction, error) {
	repaired, err := jsonrepair.RepairJSON(s)
	if err != nil {
		return nil, fmt.Errorf("%w: repair failed: %v", ErrInvalidPrediction, err)
	}
	return decodePrediction(repaired)
}
