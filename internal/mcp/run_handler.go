package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/feedbackhq/rating-eval/internal/dataset"
	"github.com/feedbackhq/rating-eval/internal/eval"
	"github.com/feedbackhq/rating-eval/internal/extract"
	"github.com/feedbackhq/rating-eval/internal/llm"
	"github.com/feedbackhq/rating-eval/internal/prompt"
	"github.com/feedbackhq/rating-eval/internal/server"
)

func handleRunEvaluation(ctx context.Context, request mcp.CallToolRequest, sc *server.Context) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	datasetName, ok := args["dataset"].(string)
	if !ok || datasetName == "" {
		return mcp.NewToolResultError("dataset is required"), nil
	}

	ds, err := dataset.Load(datasetName, sc.DatasetsDir)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load dataset: %v", err)), nil
	}

	variants := prompt.All()
	if variantsArg, ok := args["variants"].(string); ok && variantsArg != "" {
		variants, err = parseVariants(variantsArg)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}

	model := sc.Model
	if m, ok := args["model"].(string); ok && m != "" {
		model = m
	}

	client := sc.LLMClient
	if endpoint, ok := args["endpoint"].(string); ok && endpoint != "" {
		opts := []llm.Option{llm.WithBaseURL(endpoint)}
		if sc.APIKey != "" {
			opts = append(opts, llm.WithAPIKey(sc.APIKey))
		}
		client = llm.NewOpenAIClient(opts...)
	}

	lenient, _ := args["lenient"].(bool)
	extractor := &extract.Extractor{Lenient: lenient}

	r := eval.NewRunner(client, model, extractor, sc.OutputDir)
	run, err := r.Run(ctx, ds, variants)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("evaluation run failed: %v", err)), nil
	}

	// Return summary.
	variantSummaries := make([]map[string]interface{}, 0, len(run.Variants))
	for _, v := range run.Variants {
		variantSummaries = append(variantSummaries, map[string]interface{}{
			"variant":                  string(v.Variant),
			"total_items":              v.Summary.TotalItems,
			"valid_extractions":        v.Summary.ValidExtractions,
			"accuracy":                 eval.FormatAccuracy(v.Summary.Accuracy),
			"extraction_validity_rate": v.Summary.ValidityRate,
			"outcomes_file":            v.OutcomesFile,
			"duration":                 v.Duration.String(),
		})
	}

	summary := map[string]interface{}{
		"run_id":   run.ID,
		"dataset":  run.Dataset,
		"model":    run.Model,
		"duration": run.Duration.String(),
		"variants": variantSummaries,
	}

	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal summary: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func parseVariants(value string) ([]prompt.Variant, error) {
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
