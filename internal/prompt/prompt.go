// Package prompt builds the competing classification prompts compared by the
// evaluation harness. Building is pure string assembly: the review text is
// passed through verbatim, and malformed input is the extractor's problem,
// not the builder's.
package prompt

import "fmt"

// Variant identifies one of the fixed prompt-construction policies.
type Variant string

const (
	// Simple asks for a direct 1-5 classification with a fixed JSON shape.
	Simple Variant = "simple"
	// FewShot prepends three fixed exemplars before the Simple instruction.
	FewShot Variant = "few_shot"
	// ChainOfThought asks for silent reasoning and a brief explanation.
	ChainOfThought Variant = "chain_of_thought"
)

// All returns every variant in evaluation order.
func All() []Variant {
	return []Variant{Simple, FewShot, ChainOfThought}
}

// Parse returns the Variant for the given name.
func Parse(name string) (Variant, error) {
	switch Variant(name) {
	case Simple, FewShot, ChainOfThought:
		return Variant(name), nil
	case "":
		return Simple, nil
	default:
		return "", &UnsupportedVariantError{Name: name}
	}
}

// UnsupportedVariantError is returned when an unknown variant is requested.
type UnsupportedVariantError struct {
	Name string
}

func (e *UnsupportedVariantError) Error() string {
	return "unsupported prompt variant: " + e.Name
}

// SystemMessage is the system prompt shared by all variants.
const SystemMessage = `You are a precise customer review analyst. You rate customer reviews on a 1-5 star scale and always answer in the exact JSON shape you are asked for.`

const jsonShape = `{"predicted_stars": <integer between 1 and 5>, "explanation": "<string>"}`

const simpleInstruction = `Read the customer review below and predict the star rating (1 = worst, 5 = best) the customer gave.

Respond with ONLY a JSON object of this exact shape:
` + jsonShape + `

Review:
"""%s"""`

// fewShotExemplars spans the low, mid and high ends of the scale so the model
// sees the full output range before classifying.
const fewShotExemplars = `Here are examples of reviews and the expected output.

Review: "Absolutely terrible. The food was cold, the waiter ignored us, and we waited over an hour."
Output: {"predicted_stars": 1, "explanation": "Cold food, ignored by staff, very long wait."}

Review: "Decent place. The pizza was good but the service was slow and the room was noisy."
Output: {"predicted_stars": 3, "explanation": "Good food offset by slow service and noise."}

Review: "Fantastic experience from start to finish. Lovely staff, amazing dessert, we will be back!"
Output: {"predicted_stars": 5, "explanation": "Praises staff, food and intends to return."}

`

const chainOfThoughtInstruction = `Read the customer review below and predict the star rating (1 = worst, 5 = best) the customer gave.

Reason about the sentiment, specific complaints and specific praise internally. Do NOT write out your reasoning.

Respond with ONLY a JSON object of this exact shape, keeping the explanation to a single brief sentence:
` + jsonShape + `

Review:
"""%s"""`

// Build returns the full user prompt for the given review text and variant.
// It is deterministic and never fails; an unknown variant falls back to the
// simple template.
func Build(review string, v Variant) string {
	switch v {
	case FewShot:
		return fewShotExemplars + fmt.Sprintf(simpleInstruction, review)
	case ChainOfThought:
		return fmt.Sprintf(chainOfThoughtInstruction, review)
	default:
		return fmt.Sprintf(simpleInstruction, review)
	}
}
