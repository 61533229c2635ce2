// cmd/quotectl/feedback.go
package main

import (
	"github.com/spf13/cobra"

	"quotegenius/internal/models"
)

func feedbackCmd() *cobra.Command {
	var (
		accepted bool
		text     string
	)

	cmd := &cobra.Command{
		Use:   "feedback <quote-id>",
		Short: "Record customer feedback on a quote",
		Long:  `Append feedback to a quote and move it to accepted or rejected.`,
		Example: `  quotectl feedback q-123 --accepted --text "Great price"
  quotectl feedback q-123 --text "Lead time too long"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			ack, err := rt.Coordinator.ProcessFeedback(cmd.Context(), models.Feedback{
				QuoteID:  args[0],
				Accepted: accepted,
				Text:     text,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), ack)
		},
	}
	cmd.Flags().BoolVar(&accepted, "accepted", false, "the customer accepted the quote")
	cmd.Flags().StringVar(&text, "text", "", "free-form feedback")
	return cmd
}

func insightsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "insights",
		Short: "Summarise quoting performance",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := openRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			report, err := rt.Coordinator.MarketInsights(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), report)
		},
	}
}
