package feedback

import (
	"fmt"
	"strings"
)

// DocType selects the evaluation framing for the whole-document review.
type DocType string

const (
	DocResearchReport    DocType = "research_report"
	DocEssay             DocType = "essay"
	DocProposal          DocType = "proposal"
	DocTechnicalDocument DocType = "technical_document"
	DocCreativeWork      DocType = "creative_work"
)

// Focus selects what the feedback concentrates on.
type Focus string

const (
	FocusComprehensive     Focus = "comprehensive"
	FocusLogicStructure    Focus = "logic_structure"
	FocusGrammarExpression Focus = "grammar_expression"
	FocusDepth             Focus = "depth"
	FocusCreativity        Focus = "creativity"
	FocusPracticality      Focus = "practicality"
)

type framing struct {
	label  string
	phrase string
}

var docTypes = map[DocType]framing{
	DocResearchReport:    {"research report", "an academic research report, concentrating on logical rigor, the validity of its evidence and its research methodology"},
	DocEssay:             {"essay", "an essay, concentrating on the clarity of its argument, the persuasiveness of its reasoning and the flow of its sentences"},
	DocProposal:          {"proposal", "a business proposal, concentrating on the clarity of its goals, its feasibility and its expected impact"},
	DocTechnicalDocument: {"technical document", "a technical document, concentrating on accuracy, clarity and systematic structure"},
	DocCreativeWork:      {"creative work", "a creative work, concentrating on originality, expressiveness and reader engagement"},
}

var focuses = map[Focus]framing{
	FocusComprehensive:     {"comprehensive", "balanced feedback from an overall perspective"},
	FocusLogicStructure:    {"logic/structure", "feedback centred on logical flow and structural completeness"},
	FocusGrammarExpression: {"grammar/expression", "feedback centred on grammatical accuracy and appropriate expression"},
	FocusDepth:             {"depth", "feedback centred on how deeply the topic is explored and analysed"},
	FocusCreativity:        {"creativity", "feedback centred on new perspectives and creative approaches"},
	FocusPracticality:      {"practicality", "feedback centred on real-world applicability and practical value"},
}

// Label returns the human-readable name of the document type.
func (d DocType) Label() string { return docTypes[d].label }

// Label returns the human-readable name of the focus.
func (f Focus) Label() string { return focuses[f].label }

// ParseDocType accepts a slug ("technical_document") or a label
// ("technical document"). Empty input selects the default.
func ParseDocType(s string) (DocType, error) {
	key := normalizeKey(s)
	if key == "" {
		return DocResearchReport, nil
	}
	for d, f := range docTypes {
		if key == string(d) || key == normalizeKey(f.label) {
			return d, nil
		}
	}
	return "", fmt.Errorf("unknown document type %q", s)
}

// ParseFocus accepts a slug ("logic_structure") or a label ("logic/structure").
func ParseFocus(s string) (Focus, error) {
	key := normalizeKey(s)
	if key == "" {
		return FocusComprehensive, nil
	}
	for f, fr := range focuses {
		if key == string(f) || key == normalizeKey(fr.label) {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown feedback focus %q", s)
}

func normalizeKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer(" ", "_", "/", "_", "-", "_").Replace(s)
}

// Options shape the prompts for one request.
type Options struct {
	DocType      DocType
	Focus        Focus
	Instructions string // Appended verbatim when non-empty
	Language     string // Language the feedback is written in
}

func (o Options) withDefaults() Options {
	if _, ok := docTypes[o.DocType]; !ok {
		o.DocType = DocResearchReport
	}
	if _, ok := focuses[o.Focus]; !ok {
		o.Focus = FocusComprehensive
	}
	if strings.TrimSpace(o.Language) == "" {
		o.Language = "English"
	}
	return o
}
