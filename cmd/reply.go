package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/feedbackhq/rating-eval/internal/feedback"
	"github.com/feedbackhq/rating-eval/internal/llm"
)

func newReplyCmd() *cobra.Command {
	var (
		name         string
		rating       int
		review       string
		model        string
		endpoint     string
		apiKey       string
		feedbackFile string
	)

	cmd := &cobra.Command{
		Use:   "reply",
		Short: "Generate an acknowledgement reply for a customer review",
		Long: `Generate a short acknowledgement reply for a single customer review and
append the review together with the generated reply to the feedback CSV file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if rating < 1 || rating > 5 {
				return fmt.Errorf("rating must be between 1 and 5, got %d", rating)
			}
			if review == "" {
				return fmt.Errorf("--review is required")
			}

			if model == "" {
				model = llm.DefaultModel
			}
			client := newLLMClientFromFlags(endpoint, apiKey)

			reply, err := feedback.GenerateReply(cmd.Context(), client, model, name, rating, review)
			if err != nil {
				return fmt.Errorf("failed to generate reply: %w", err)
			}

			store := feedback.NewStore(feedbackFile)
			rec := feedback.Record{
				UserName:   name,
				Rating:     rating,
				ReviewText: review,
				Response:   reply,
			}
			if err := store.Append(rec); err != nil {
				return fmt.Errorf("failed to record feedback: %w", err)
			}

			fmt.Println(reply)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Name of the reviewer (optional)")
	cmd.Flags().IntVar(&rating, "rating", 0, "Star rating between 1 and 5")
	cmd.Flags().StringVar(&review, "review", "", "Review text")
	cmd.Flags().StringVar(&model, "model", "", "Model name (default: "+llm.DefaultModel+")")
	cmd.Flags().StringVar(&endpoint, "endpoint", "", "LLM API endpoint URL")
	cmd.Flags().StringVar(&apiKey, "api-key", "", "API key (or set OPENAI_API_KEY)")
	cmd.Flags().StringVar(&feedbackFile, "feedback-file", "feedback.csv", "Path to the feedback CSV file")

	return cmd
}
