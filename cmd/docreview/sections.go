package main

import (
	"github.com/spf13/cobra"
)

var sectionsCmd = &cobra.Command{
	Use:   "sections [document-url-or-id]",
	Short: "Show how a document is split into sections, without calling the LLM",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg, a, err := setup(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		w, doc, err := target(cfg, a, args)
		if err != nil {
			return err
		}
		preview, err := w.Preview(ctx, doc)
		if err != nil {
			return err
		}
		return writeOutput(cmd.OutOrStdout(), outputFormat, preview)
	},
}
