// cmd/quotectl/activities.go
package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"quotegenius/pkg/registry"
)

func activitiesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "activities",
		Short: "Inspect the Zeebe task types served by the worker manager",
	}
	cmd.AddCommand(activitiesListCmd())
	cmd.AddCommand(activitiesValidateCmd())
	return cmd
}

func loadRegistry(path string) (*registry.ActivityRegistry, error) {
	if path == "" {
		return registry.Default()
	}
	return registry.LoadRegistry(path)
}

func activitiesListCmd() *cobra.Command {
	var (
		file   string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registered activities",
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg, err := loadRegistry(file)
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), reg)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "TASK TYPE\tCATEGORY\tTIMEOUT\tRETRIES")
			for _, a := range reg.Activities {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", a.TaskType, a.Category, a.Timeout, a.Retries)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "registry file (default: built-in registry)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full registry as JSON")
	return cmd
}

func activitiesValidateCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a registry file for missing or duplicate entries",
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg, err := loadRegistry(file)
			if err != nil {
				return err
			}
			if err := reg.Validate(); err != nil {
				return fmt.Errorf("registry validation failed: %w", err)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "registry is valid (%d activities)\n", len(reg.Activities))
			return err
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "registry file (default: built-in registry)")
	return cmd
}
