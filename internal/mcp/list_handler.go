package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/feedbackhq/rating-eval/internal/dataset"
	"github.com/feedbackhq/rating-eval/internal/server"
)

func handleListDatasets(_ context.Context, _ mcp.CallToolRequest, sc *server.Context) (*mcp.CallToolResult, error) {
	names, err := dataset.List(sc.DatasetsDir)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list datasets: %v", err)), nil
	}

	type datasetInfo struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		Version     string `json:"version"`
		ReviewCount int    `json:"review_count"`
	}

	var datasets []datasetInfo
	for _, name := range names {
		ds, err := dataset.Load(name, sc.DatasetsDir)
		if err != nil {
			continue
		}
		datasets = append(datasets, datasetInfo{
			Name:        ds.Name,
			Description: ds.Description,
			Version:     ds.Version,
			ReviewCount: len(ds.Reviews),
		})
	}

	data, err := json.MarshalIndent(datasets, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal datasets: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
