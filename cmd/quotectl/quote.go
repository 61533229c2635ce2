// cmd/quotectl/quote.go
package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	apperrors "quotegenius/internal/common/errors"
	"quotegenius/internal/common/validation"
	"quotegenius/internal/models"
)

var quoteRequestSchema = validation.MustCompile("quote_request", `{
  "type": "object",
  "required": ["customerId", "projectName", "projectDescription"],
  "properties": {
    "customerId": {"type": "string", "minLength": 1},
    "projectName": {"type": "string", "minLength": 1},
    "projectDescription": {"type": "string", "minLength": 1},
    "materials": {"type": "array"},
    "laborHours": {"type": ["number", "null"], "minimum": 0}
  }
}`)

func quoteCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Generate a quote for a request",
		Long:  `Run the new-quote workflow on a JSON quote request and print the response.`,
		Example: `  quotectl quote --file request.json
  cat request.json | quotectl quote --file -`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req, err := readQuoteRequest(file, cmd.InOrStdin())
			if err != nil {
				return err
			}

			rt, err := openRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			resp, err := rt.Coordinator.ProcessQuoteRequest(cmd.Context(), *req)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "-", "quote request JSON file, - for stdin")
	return cmd
}

func readQuoteRequest(path string, stdin io.Reader) (*models.QuoteRequest, error) {
	raw, err := readInput(path, stdin)
	if err != nil {
		return nil, fmt.Errorf("read request: %w", err)
	}
	if err := quoteRequestSchema.Validate(raw); err != nil {
		return nil, err
	}

	var req models.QuoteRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil, apperrors.NewInvalidInputError("quote request: " + err.Error())
	}
	return &req, nil
}

func reoptimizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reoptimize <quote-id>",
		Short: "Re-run pricing optimization on a stored quote",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			resp, err := rt.Coordinator.ReoptimizeQuote(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}
}
