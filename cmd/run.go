package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/feedbackhq/rating-eval/internal/dataset"
	"github.com/feedbackhq/rating-eval/internal/eval"
	"github.com/feedbackhq/rating-eval/internal/extract"
	"github.com/feedbackhq/rating-eval/internal/llm"
	"github.com/feedbackhq/rating-eval/internal/prompt"
)

func newRunCmd() *cobra.Command {
	var (
		variantsFlag string
		model        string
		endpoint     string
		apiKey       string
		outputDir    string
		datasetsDir  string
		timeout      time.Duration
		lenient      bool
	)

	cmd := &cobra.Command{
		Use:   "run <dataset>",
		Short: "Run a rating evaluation over a dataset",
		Long: `Evaluate how accurately an LLM predicts review star ratings.

Each review is sent to the model once per prompt variant, the predicted rating
is extracted from the reply, and per-item outcomes plus an accuracy summary are
written to the output directory as CSV files with a JSON metadata manifest.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			datasetName := args[0]

			ds, err := dataset.Load(datasetName, datasetsDir)
			if err != nil {
				return fmt.Errorf("failed to load dataset: %w", err)
			}

			variants := prompt.All()
			if variantsFlag != "" {
				variants, err = parseVariantsFlag(variantsFlag)
				if err != nil {
					return err
				}
			}

			if model == "" {
				model = llm.DefaultModel
			}

			client := newLLMClientFromFlags(endpoint, apiKey)
			extractor := &extract.Extractor{Lenient: lenient}

			r := eval.NewRunner(client, model, extractor, outputDir)
			r.SetProgressFunc(func(variant prompt.Variant, idx, total int) {
				fmt.Printf("\r  [%s] Processing review %d/%d...", variant, idx, total)
			})

			fmt.Printf("Dataset: %s\n", ds.Name)
			fmt.Printf("Description: %s\n", ds.Description)
			fmt.Printf("Reviews: %d\n", len(ds.Reviews))
			fmt.Printf("Model: %s\n", model)
			fmt.Printf("Variants to compare: %d\n", len(variants))
			for i, v := range variants {
				fmt.Printf("  %d. %s\n", i+1, v)
			}
			fmt.Println()

			run, err := r.Run(ctx, ds, variants)
			if err != nil {
				return err
			}

			fmt.Printf("\n\nEvaluation completed.\n")
			fmt.Printf("Run ID: %s\n", run.ID)
			fmt.Printf("Duration: %s\n", run.Duration)
			fmt.Printf("Results:\n")
			for _, v := range run.Variants {
				fmt.Printf("  - %s: accuracy %s (%d/%d valid extractions), %s\n",
					v.Variant,
					eval.FormatAccuracy(v.Summary.Accuracy),
					v.Summary.ValidExtractions,
					v.Summary.TotalItems,
					v.OutcomesFile,
				)
			}

			slog.Info("evaluation run complete", "run_id", run.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&variantsFlag, "variants", "", "Comma-separated prompt variants: simple, few_shot, chain_of_thought (default: all)")
	cmd.Flags().StringVar(&model, "model", "", "Model name (default: "+llm.DefaultModel+")")
	cmd.Flags().StringVar(&endpoint, "endpoint", "", "LLM API endpoint URL")
	cmd.Flags().StringVar(&apiKey, "api-key", "", "API key (or set OPENAI_API_KEY)")
	cmd.Flags().StringVar(&outputDir, "output-dir", "results", "Directory for evaluation results")
	cmd.Flags().StringVar(&datasetsDir, "datasets-dir", "", "External datasets directory")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Overall timeout for the run (e.g. 30m, 1h). 0 means no timeout")
	cmd.Flags().BoolVar(&lenient, "lenient", false, "Attempt to repair malformed JSON in model replies before rejecting them")

	return cmd
}

func parseVariantsFlag(value string) ([]prompt.Variant, error) {
	parts := strings.Split(value, ",")
	variants := make([]prompt.Variant, 0, len(parts))
	for _, p := range parts {
		v, err := prompt.Parse(strings.TrimSpace(p))
		if err != nil {
			return nil, err
		}
		variants = append(variants, v)
	}
	return variants, nil
}
