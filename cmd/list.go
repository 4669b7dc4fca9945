package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/feedbackhq/rating-eval/internal/dataset"
)

func newListCmd() *cobra.Command {
	var datasetsDir string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List available datasets",
		RunE: func(cmd *cobra.Command, args []string) error {
			names, err := dataset.List(datasetsDir)
			if err != nil {
				return fmt.Errorf("failed to list datasets: %w", err)
			}

			if len(names) == 0 {
				fmt.Println("No datasets found.")
				return nil
			}

			fmt.Printf("Available datasets:\n\n")
			for _, name := range names {
				ds, err := dataset.Load(name, datasetsDir)
				if err != nil {
					fmt.Printf("  - %s (error loading: %v)\n", name, err)
					continue
				}
				fmt.Printf("  - %s\n", ds.Name)
				fmt.Printf("    Description: %s\n", ds.Description)
				fmt.Printf("    Version: %s\n", ds.Version)
				fmt.Printf("    Reviews: %d\n\n", len(ds.Reviews))
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&datasetsDir, "datasets-dir", "", "External datasets directory")

	return cmd
}
