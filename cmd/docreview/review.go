package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dgallion1/docreview/internal/pipeline"
)

var (
	reviewReq pipeline.Request
	annotated string
)

var reviewCmd = &cobra.Command{
	Use:   "review [document-url-or-id]",
	Short: "Summarize a document and write feedback for each section",
	Long: `Summarize a document and write feedback for each section.

Feedback is added as anchored comments by default, or inserted as styled
text after each section with --mode inline.

Examples:
  docreview review https://docs.google.com/document/d/1AbC/edit
  docreview review 1AbC --type proposal --focus logic_structure --mode inline
  docreview review --file essay.md --annotated essay.reviewed.txt`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReview,
}

func init() {
	f := reviewCmd.Flags()
	f.StringVar(&reviewReq.DocType, "type", "", "Document type: research_report, essay, proposal, technical_document, creative_work")
	f.StringVar(&reviewReq.Focus, "focus", "", "Feedback focus: comprehensive, logic_structure, grammar_expression, depth, creativity, practicality")
	f.StringVar(&reviewReq.Instructions, "instructions", "", "Additional instructions for the reviewer")
	f.StringVar(&reviewReq.Language, "language", "", "Language to write feedback in")
	f.StringVar(&reviewReq.Mode, "mode", "comment", "Placement: comment or inline")
	f.BoolVar(&reviewReq.Force, "force", false, "Review even if the document is unchanged since the last review")
	f.StringVar(&annotated, "annotated", "", "With --file, write the annotated document here (- for stdout)")
}

func runReview(cmd *cobra.Command, args []string) error {
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

	req := reviewReq
	req.Document = doc
	report, err := w.Run(ctx, req, nil)
	if err != nil {
		return err
	}
	if err := writeOutput(cmd.OutOrStdout(), outputFormat, report); err != nil {
		return err
	}

	if localFile == "" || annotated == "" {
		return nil
	}
	text, err := a.Store.Render(localDocID)
	if err != nil {
		return err
	}
	if annotated == "-" {
		_, err = fmt.Fprint(cmd.OutOrStdout(), text)
		return err
	}
	return os.WriteFile(annotated, []byte(text), 0o644)
}
