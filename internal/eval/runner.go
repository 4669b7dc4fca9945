// Package eval drives labeled reviews through the prompt variants, records
// one outcome per item, and aggregates per-variant summaries.
package eval

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/feedbackhq/rating-eval/internal/dataset"
	"github.com/feedbackhq/rating-eval/internal/extract"
	"github.com/feedbackhq/rating-eval/internal/llm"
	"github.com/feedbackhq/rating-eval/internal/prompt"
)

// ProgressFunc is called to report progress during an evaluation run.
type ProgressFunc func(variant prompt.Variant, itemIndex, totalItems int)

// Runner orchestrates the evaluation of prompt variants over a dataset.
// The client is passed in explicitly; there is no process-wide singleton.
type Runner struct {
	client    llm.Client
	model     string
	extractor *extract.Extractor
	outputDir string
	progress  ProgressFunc
}

// NewRunner creates a new evaluation runner.
func NewRunner(client llm.Client, model string, extractor *extract.Extractor, outputDir string) *Runner {
	if extractor == nil {
		extractor = &extract.Extractor{}
	}
	return &Runner{
		client:    client,
		model:     model,
		extractor: extractor,
		outputDir: outputDir,
	}
}

// SetProgressFunc sets the progress callback.
func (r *Runner) SetProgressFunc(fn ProgressFunc) {
	r.progress = fn
}

// Run evaluates every variant over the dataset sequentially and writes
// per-variant outcome files, a summary file and a run manifest under a
// timestamped run directory. Variants are processed one at a time -- parallel
// inference would fight the endpoint's rate limits and buys nothing for a
// deterministic comparison.
func (r *Runner) Run(ctx context.Context, ds *dataset.Dataset, variants []prompt.Variant) (*Run, error) {
	if len(variants) == 0 {
		return nil, fmt.Errorf("no prompt variants specified for evaluation run")
	}
	// Fail fast on a malformed dataset: discovering a bad item mid-run would
	// corrupt the one-outcome-per-item ordering guarantee.
	if err := dataset.Validate(ds.Reviews); err != nil {
		return nil, fmt.Errorf("dataset contract violation: %w", err)
	}

	timestamp := time.Now()
	sanitizedName := strings.ReplaceAll(ds.Name, " ", "_")
	runID := fmt.Sprintf("%s_%s", sanitizeFilename(sanitizedName), timestamp.Format("20060102-150405"))

	outputPath := filepath.Join(r.outputDir, runID)
	if err := os.MkdirAll(outputPath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	run := &Run{
		ID:        runID,
		Dataset:   ds.Name,
		Model:     r.model,
		Timestamp: timestamp,
		Variants:  make([]VariantRun, 0, len(variants)),
	}

	for _, variant := range variants {
		// Check for context cancellation between variants. A cancelled run
		// must surface the interruption, never masquerade as a complete one.
		if err := ctx.Err(); err != nil {
			slog.Warn("evaluation run cancelled before variant", "variant", variant)
			run.Duration = time.Since(timestamp)
			if werr := writeRunArtifacts(outputPath, run); werr != nil {
				return nil, werr
			}
			return run, err
		}

		slog.Info("evaluating prompt variant",
			"variant", variant,
			"items", len(ds.Reviews),
			"model", r.model,
		)

		variantStart := time.Now()
		outcomes, runErr := r.Evaluate(ctx, ds.Reviews, variant)

		summary := Aggregate(outcomes, variant)

		outcomesFile := filepath.Join(outputPath, fmt.Sprintf("%s.csv", variant))
		if err := writeOutcomesFile(outcomesFile, outcomes); err != nil {
			return nil, fmt.Errorf("failed to write outcomes for variant %s: %w", variant, err)
		}

		run.Variants = append(run.Variants, VariantRun{
			Variant:      variant,
			Duration:     time.Since(variantStart),
			OutcomesFile: outcomesFile,
			Summary:      summary,
			Outcomes:     outcomes,
		})

		slog.Info("variant evaluation complete",
			"variant", variant,
			"total_items", summary.TotalItems,
			"valid_extractions", summary.ValidExtractions,
			"validity_rate", summary.ValidityRate,
		)

		if runErr != nil {
			// Cancelled mid-variant: keep the partial outcomes that were
			// already recorded, but surface the interruption.
			run.Duration = time.Since(timestamp)
			if err := writeRunArtifacts(outputPath, run); err != nil {
				return nil, err
			}
			return run, runErr
		}
	}

	run.Duration = time.Since(timestamp)
	if err := writeRunArtifacts(outputPath, run); err != nil {
		return nil, err
	}

	return run, nil
}

// Evaluate runs a single variant over the items, producing outcomes in item
// order. A failed item degrades the summary's denominator, never the run:
// API and extraction failures are recorded per item and processing moves on.
// Cancellation is honored only at item boundaries so no call is abandoned
// mid-flight. The returned error is non-nil only when the run was cancelled.
func (r *Runner) Evaluate(ctx context.Context, items []dataset.Review, variant prompt.Variant) ([]Outcome, error) {
	if err := dataset.Validate(items); err != nil {
		return nil, fmt.Errorf("dataset contract violation: %w", err)
	}

	outcomes := make([]Outcome, 0, len(items))
	for i, item := range items {
		if err := ctx.Err(); err != nil {
			slog.Warn("evaluation cancelled",
				"variant", variant,
				"completed", i,
				"total", len(items),
			)
			return outcomes, err
		}

		if r.progress != nil {
			r.progress(variant, i+1, len(items))
		}

		outcomes = append(outcomes, r.evaluateItem(ctx, item, variant))
	}
	return outcomes, nil
}

// evaluateItem performs the build -> infer -> extract sequence for one item.
// It always returns a complete Outcome; failure is data, not control flow.
func (r *Runner) evaluateItem(ctx context.Context, item dataset.Review, variant prompt.Variant) Outcome {
	start := time.Now()

	reply := r.infer(ctx, prompt.Build(item.Text, variant))

	outcome := Outcome{
		ItemID:    item.ID,
		Variant:   variant,
		TrueStars: item.Stars,
		RawReply:  reply.Text,
	}

	if reply.APIError {
		outcome.APIFailed = true
		outcome.ExtractionFailed = true
	} else {
		pred, err := r.extractor.Extract(reply.Text)
		if err != nil {
			slog.Debug("extraction failed",
				"item", item.ID,
				"variant", variant,
				"error", err,
			)
			outcome.ExtractionFailed = true
		} else {
			outcome.Prediction = pred
		}
	}

	outcome.Duration = time.Since(start)
	return outcome
}

// infer performs exactly one inference call at temperature zero. Transport
// and service errors are folded into the reply rather than returned, so
// failure classification lives in the Outcome instead of aborting the batch.
// There are no retries.
func (r *Runner) infer(ctx context.Context, userPrompt string) RawReply {
	resp, err := r.client.ChatCompletion(ctx, llm.ChatRequest{
		Model:         r.model,
		SystemMessage: prompt.SystemMessage,
		UserMessage:   userPrompt,
		Temperature:   llm.Float64Ptr(0),
	})
	if err != nil {
		slog.Warn("inference call failed", "error", err)
		return RawReply{APIError: true}
	}
	return RawReply{Text: resp.Content}
}

// sanitizeFilename replaces characters unsafe for filenames with underscores.
func sanitizeFilename(name string) string {
	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
	)
	return replacer.Replace(name)
}
