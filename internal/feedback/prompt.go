package feedback

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// CritiqueContentLimit is how many runes of a section are sent for critique.
const CritiqueContentLimit = 1000

const summaryStructure = `Analyse the document above and structure your feedback as follows:

1. Overall assessment (2-3 sentences)
2. Three main strengths
3. Three to five areas that need improvement, each with the name of the section it concerns
4. Further suggestions

Make every item specific and constructive.`

// BuildSummaryPrompt creates the whole-document review prompt.
func BuildSummaryPrompt(fullText string, opts Options) string {
	opts = opts.withDefaults()

	var sb strings.Builder
	fmt.Fprintf(&sb, "The following is the full text of a document (type: %s).\n", opts.DocType.Label())
	fmt.Fprintf(&sb, "Evaluate it as %s.\n", docTypes[opts.DocType].phrase)
	fmt.Fprintf(&sb, "Provide %s.\n", focuses[opts.Focus].phrase)
	if instr := strings.TrimSpace(opts.Instructions); instr != "" {
		fmt.Fprintf(&sb, "\nAdditional instructions: %s\n", instr)
	}
	sb.WriteString("\nDocument content:\n---\n")
	sb.WriteString(fullText)
	sb.WriteString("\n---\n\n")
	sb.WriteString(summaryStructure)
	fmt.Fprintf(&sb, "\nWrite the feedback in %s.", opts.Language)
	return sb.String()
}

// BuildSectionPrompt creates the per-section critique prompt. Content longer
// than CritiqueContentLimit runes is cut and marked with "...".
func BuildSectionPrompt(title, content string, opts Options) string {
	opts = opts.withDefaults()

	var sb strings.Builder
	fmt.Fprintf(&sb, "The following is the content of the section %q:\n\n", title)
	sb.WriteString(truncateRunes(content, CritiqueContentLimit))
	sb.WriteString("\n\nGive specific, constructive feedback on this section in 2-3 sentences. ")
	sb.WriteString("Include a direction for improvement or a concrete example.")
	if instr := strings.TrimSpace(opts.Instructions); instr != "" {
		fmt.Fprintf(&sb, "\nAdditional instructions: %s", instr)
	}
	fmt.Fprintf(&sb, "\nWrite the feedback in %s.", opts.Language)
	return sb.String()
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n]) + "..."
}
