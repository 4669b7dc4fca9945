// Package testutil provides shared test helpers.
package testutil

import (
	"context"
	"fmt"

	"github.com/feedbackhq/rating-eval/internal/llm"
)

// MockLLMClient is a configurable mock for llm.Client used across test packages.
type MockLLMClient struct {
	// RespondFunc, when set, computes the response for each request.
	RespondFunc func(req llm.ChatRequest) (*llm.ChatResponse, error)

	// DefaultResponse is returned when RespondFunc is nil.
	DefaultResponse string

	// Calls tracks the number of ChatCompletion invocations.
	Calls int

	// LastRequest stores the most recent ChatRequest for inspection.
	LastRequest llm.ChatRequest
}

func (m *MockLLMClient) ChatCompletion(_ context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	m.Calls++
	m.LastRequest = req

	if m.RespondFunc != nil {
		return m.RespondFunc(req)
	}

	if m.DefaultResponse != "" {
		return &llm.ChatResponse{Content: m.DefaultResponse}, nil
	}

	return &llm.ChatResponse{Content: "mock response"}, nil
}

func (m *MockLLMClient) ChatCompletionStream(_ context.Context, _ llm.ChatRequest) (*llm.StreamReader, error) {
	return nil, fmt.Errorf("streaming not supported in mock")
}
