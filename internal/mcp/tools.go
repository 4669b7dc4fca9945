// Package mcp exposes the evaluation harness as MCP tools.
package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/feedbackhq/rating-eval/internal/server"
)

// RegisterTools registers all MCP tools with the server.
func RegisterTools(s *mcpserver.MCPServer, sc *server.Context) error {
	// list_datasets
	listTool := mcp.NewTool("list_datasets",
		mcp.WithDescription("List available review rating datasets with metadata"),
	)
	s.AddTool(listTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleListDatasets(ctx, request, sc)
	})

	// run_evaluation
	runTool := mcp.NewTool("run_evaluation",
		mcp.WithDescription("Run a star rating evaluation over a dataset with one or more prompt variants"),
		mcp.WithString("dataset",
			mcp.Required(),
			mcp.Description("Name of the dataset to evaluate (e.g. 'sample-reviews')"),
		),
		mcp.WithString("variants",
			mcp.Description("Comma-separated prompt variants: simple, few_shot, chain_of_thought (default: all)"),
		),
		mcp.WithString("model",
			mcp.Description("Model name to evaluate (overrides server default)"),
		),
		mcp.WithString("endpoint",
			mcp.Description("LLM endpoint URL (overrides server default)"),
		),
		mcp.WithBoolean("lenient",
			mcp.Description("Attempt to repair malformed JSON in model replies before rejecting them"),
		),
	)
	s.AddTool(runTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleRunEvaluation(ctx, request, sc)
	})

	// get_results
	getResultsTool := mcp.NewTool("get_results",
		mcp.WithDescription("Retrieve summaries for past evaluation runs"),
		mcp.WithString("run_id",
			mcp.Description("Specific run ID to retrieve (optional, lists all if omitted)"),
		),
	)
	s.AddTool(getResultsTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleGetResults(ctx, request, sc)
	})

	return nil
}
