// Package server holds shared state for the MCP server tools.
package server

import (
	"github.com/feedbackhq/rating-eval/internal/llm"
)

// Context carries the dependencies MCP tool handlers need.
type Context struct {
	// LLMClient is the client used for evaluation runs.
	LLMClient llm.Client

	// Model is the model identifier passed to the client.
	Model string

	// APIKey is the key used when a tool call overrides the endpoint and a
	// fresh client has to be built.
	APIKey string

	// OutputDir is the directory where run artifacts are written.
	OutputDir string

	// DatasetsDir optionally points at an external datasets directory.
	// When empty, only the embedded datasets are available.
	DatasetsDir string
}
