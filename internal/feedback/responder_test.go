package feedback

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feedbackhq/rating-eval/internal/llm"
)

// captureClient records the last request and returns a canned response.
type captureClient struct {
	last     llm.ChatRequest
	response string
}

func (c *captureClient) ChatCompletion(_ context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	c.last = req
	return &llm.ChatResponse{Content: c.response}, nil
}

func (c *captureClient) ChatCompletionStream(_ context.Context, _ llm.ChatRequest) (*llm.StreamReader, error) {
	return nil, assert.AnError
}

func TestGenerateReply(t *testing.T) {
	client := &captureClient{response: "Thanks so much, Ada!"}

	reply, err := GenerateReply(context.Background(), client, "gpt-4o-mini", "Ada", 5, "Wonderful dinner")
	require.NoError(t, err)
	assert.Equal(t, "Thanks so much, Ada!", reply)

	assert.Contains(t, client.last.UserMessage, "Ada")
	assert.Contains(t, client.last.UserMessage, "Rating: 5 / 5")
	assert.Contains(t, client.last.UserMessage, "Wonderful dinner")
	require.NotNil(t, client.last.Temperature)
	assert.Equal(t, replyTemperature, *client.last.Temperature)
	assert.Equal(t, 150, client.last.MaxTokens)
}

func TestGenerateReplyAnonymousFallback(t *testing.T) {
	client := &captureClient{response: "Thanks!"}

	_, err := GenerateReply(context.Background(), client, "gpt-4o-mini", "  ", 2, "Meh")
	require.NoError(t, err)
	assert.Contains(t, client.last.UserMessage, "named there")
}

func TestSummarizeFallsBackToNonStreaming(t *testing.T) {
	// captureClient's stream always errors, so Summarize must fall back to
	// the plain completion path.
	client := &captureClient{response: "## Summary\n- good food"}

	records := []Record{{Rating: 5, ReviewText: "excellent service"}}
	out, err := Summarize(context.Background(), client, "gpt-4o-mini", records)
	require.NoError(t, err)
	assert.Equal(t, "## Summary\n- good food", out)
	assert.Contains(t, client.last.UserMessage, "Rating 5: excellent service")
}

func TestSummarizeEmptyRecords(t *testing.T) {
	_, err := Summarize(context.Background(), &captureClient{}, "m", nil)
	assert.Error(t, err)
}

func TestSuggestActionsUsesRecentSample(t *testing.T) {
	client := &captureClient{response: "- hire more staff"}

	// 60 records: only the most recent 50 may appear in the prompt.
	records := make([]Record, 0, 60)
	for i := 1; i <= 60; i++ {
		records = append(records, Record{Rating: 3, ReviewText: fmt.Sprintf("review number %d", i)})
	}

	_, err := SuggestActions(context.Background(), client, "gpt-4o-mini", records)
	require.NoError(t, err)

	assert.Contains(t, client.last.UserMessage, "review number 60")
	assert.Contains(t, client.last.UserMessage, "review number 11")
	assert.NotContains(t, client.last.UserMessage, "review number 10\n")
	assert.NotContains(t, client.last.UserMessage, "review number 1\n")
}
