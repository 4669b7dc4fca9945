package feedback

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/feedbackhq/rating-eval/internal/llm"
)

// replyTemperature is deliberately above zero: customer replies should read
// naturally, unlike the harness's reproducible evaluation calls.
const replyTemperature = 0.4

// insightSampleSize caps how many recent records are included in an admin
// prompt so it stays within a sane context size.
const insightSampleSize = 50

const replySystemMessage = `You are a polite customer support assistant for a small business.`

const replyPromptTemplate = `A customer named %s left this feedback:
Rating: %d / 5
Review: """%s"""

Write a short, friendly reply (2-3 sentences) that:
- Thanks them for the feedback
- Acknowledges their sentiment based on the rating
- If the rating is 3 or lower, apologize briefly and say you'll work to improve
- If the rating is 4 or higher, appreciate their support

Don't add any JSON, just natural language.`

const summarySystemMessage = `You are helping a business owner understand customer feedback.`

const summaryPromptTemplate = `Here are recent customer reviews (rating and text):

%s

Your tasks:
1. Provide a concise summary (4-6 bullet points) of what customers like and dislike.
2. Mention any repeated themes (e.g., staff, waiting time, price, quality).
3. Comment on overall satisfaction (low/medium/high).

Return the answer in markdown with sections:
## Summary
- ...

## Overall Satisfaction
- ...`

const actionsSystemMessage = `You are a customer experience consultant.`

const actionsPromptTemplate = `Based on these customer reviews:

%s

Suggest 5-8 practical, specific actions the business can take to improve.
- Mix quick wins and long-term changes
- Focus on things that actually appear in the reviews
- Prioritize impact

Return as a markdown bullet list, no JSON.`

// GenerateReply produces a short customer-facing response to one piece of
// feedback.
func GenerateReply(ctx context.Context, client llm.Client, model, userName string, rating int, review string) (string, error) {
	name := strings.TrimSpace(userName)
	if name == "" {
		name = "there"
	}

	resp, err := client.ChatCompletion(ctx, llm.ChatRequest{
		Model:         model,
		SystemMessage: replySystemMessage,
		UserMessage:   fmt.Sprintf(replyPromptTemplate, name, rating, review),
		Temperature:   llm.Float64Ptr(replyTemperature),
		MaxTokens:     150,
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate feedback reply: %w", err)
	}
	return resp.Content, nil
}

// Summarize produces an operator-facing markdown summary of recent feedback.
func Summarize(ctx context.Context, client llm.Client, model string, records []Record) (string, error) {
	if len(records) == 0 {
		return "", fmt.Errorf("no feedback records to summarize")
	}
	return generateInsight(ctx, client, model, summarySystemMessage,
		fmt.Sprintf(summaryPromptTemplate, recentReviews(records)))
}

// SuggestActions produces an operator-facing list of improvement actions.
func SuggestActions(ctx context.Context, client llm.Client, model string, records []Record) (string, error) {
	if len(records) == 0 {
		return "", fmt.Errorf("no feedback records to analyze")
	}
	return generateInsight(ctx, client, model, actionsSystemMessage,
		fmt.Sprintf(actionsPromptTemplate, recentReviews(records)))
}

// generateInsight tries streaming first and falls back to a plain completion
// when the endpoint does not support streams.
func generateInsight(ctx context.Context, client llm.Client, model, systemMessage, userMessage string) (string, error) {
	req := llm.ChatRequest{
		Model:         model,
		SystemMessage: systemMessage,
		UserMessage:   userMessage,
		Temperature:   llm.Float64Ptr(replyTemperature),
		MaxTokens:     350,
	}

	stream, err := client.ChatCompletionStream(ctx, req)
	if err == nil {
		result, streamErr := llm.CollectStream(stream)
		if streamErr == nil {
			return result, nil
		}
		slog.Warn("streaming insight generation failed, falling back to non-streaming", "error", streamErr)
	} else {
		slog.Debug("streaming not available, using non-streaming", "error", err)
	}

	resp, err := client.ChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("insight generation failed: %w", err)
	}
	return resp.Content, nil
}

// recentReviews renders the most recent records as prompt input.
func recentReviews(records []Record) string {
	sample := records
	if len(sample) > insightSampleSize {
		sample = sample[len(sample)-insightSampleSize:]
	}

	lines := make([]string, 0, len(sample))
	for _, r := range sample {
		lines = append(lines, fmt.Sprintf("Rating %d: %s", r.Rating, r.ReviewText))
	}
	return strings.Join(lines, "\n\n")
}
