package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/feedbackhq/rating-eval/internal/feedback"
	"github.com/feedbackhq/rating-eval/internal/llm"
)

func newInsightsCmd() *cobra.Command {
	var (
		model        string
		endpoint     string
		apiKey       string
		feedbackFile string
		actions      bool
	)

	cmd := &cobra.Command{
		Use:   "insights",
		Short: "Summarize collected customer feedback",
		Long: `Read the feedback CSV file and produce an LLM-generated summary of recent
reviews. With --actions, suggest concrete improvement actions instead.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			store := feedback.NewStore(feedbackFile)
			records, err := store.Load()
			if err != nil {
				return fmt.Errorf("failed to load feedback: %w", err)
			}
			if len(records) == 0 {
				fmt.Println("No feedback collected yet.")
				return nil
			}

			stats := feedback.ComputeStats(records)
			fmt.Printf("Feedback entries: %d\n", stats.Count)
			fmt.Printf("Average rating: %.2f\n", stats.AverageRating)
			fmt.Printf("Latest entry: %s\n\n", stats.LatestAt.Format("2006-01-02 15:04"))

			if model == "" {
				model = llm.DefaultModel
			}
			client := newLLMClientFromFlags(endpoint, apiKey)

			var text string
			if actions {
				text, err = feedback.SuggestActions(cmd.Context(), client, model, records)
			} else {
				text, err = feedback.Summarize(cmd.Context(), client, model, records)
			}
			if err != nil {
				return fmt.Errorf("failed to generate insights: %w", err)
			}

			fmt.Println(text)
			return nil
		},
	}

	cmd.Flags().StringVar(&model, "model", "", "Model name (default: "+llm.DefaultModel+")")
	cmd.Flags().StringVar(&endpoint, "endpoint", "", "LLM API endpoint URL")
	cmd.Flags().StringVar(&apiKey, "api-key", "", "API key (or set OPENAI_API_KEY)")
	cmd.Flags().StringVar(&feedbackFile, "feedback-file", "feedback.csv", "Path to the feedback CSV file")
	cmd.Flags().BoolVar(&actions, "actions", false, "Suggest improvement actions instead of a summary")

	return cmd
}
