// cmd/quotectl/migrate.go
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"quotegenius/internal/seed"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the quote tables and similarity indices",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := openRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			if err := rt.Migrate(cmd.Context()); err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
			return err
		},
	}
}

func seedCmd() *cobra.Command {
	var concurrency int

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load demo customers, quotes, projects and rules",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := openRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			if err := rt.Migrate(cmd.Context()); err != nil {
				return err
			}
			summary, err := seed.Run(cmd.Context(), rt.Quotes, rt.Projects, rt.Rules,
				seed.Options{Concurrency: concurrency}, rt.Logger())
			if err != nil {
				return err
			}
			if err := rt.Projects.Refresh(cmd.Context()); err != nil {
				return err
			}
			if err := rt.Rules.Refresh(cmd.Context()); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), summary)
		},
	}
	cmd.Flags().IntVar(&concurrency, "concurrency", 4, "maximum concurrent writes")
	return cmd
}
