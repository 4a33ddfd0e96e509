package segment

import (
	"strings"
	"unicode/utf8"

	"github.com/dgallion1/docreview/internal/doctree"
)

// Section is a heuristically delimited part of the reconstructed text.
// Line numbers index into the newline-joined full text, not the native
// document offsets.
type Section struct {
	Title     string            `json:"title" yaml:"title"`
	Content   string            `json:"content" yaml:"content"` // Content lines joined with "\n", title line excluded
	StartLine doctree.LineIndex `json:"start_line" yaml:"start_line"`
	EndLine   doctree.LineIndex `json:"end_line" yaml:"end_line"`
	BodyLine  doctree.LineIndex `json:"body_line" yaml:"body_line"` // First content line
}

// Config controls segmentation.
type Config struct {
	IntroTitle    string // Title of the section before the first heading
	MergeAbove    int    // Merge pass runs when more sections than this are found
	MergeMinChars int    // Sections shorter than this are folded into their predecessor
	Titles        []TitlePredicate
}

// DefaultConfig returns the stock thresholds.
func DefaultConfig() Config {
	return Config{
		IntroTitle:    "Introduction",
		MergeAbove:    10,
		MergeMinChars: 200,
		Titles:        DefaultTitlePredicates,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.IntroTitle == "" {
		c.IntroTitle = d.IntroTitle
	}
	if c.MergeAbove <= 0 {
		c.MergeAbove = d.MergeAbove
	}
	if c.MergeMinChars <= 0 {
		c.MergeMinChars = d.MergeMinChars
	}
	if len(c.Titles) == 0 {
		c.Titles = d.Titles
	}
	return c
}

// accumulator is the in-progress section of the fold. It is passed by value;
// only the live accumulator ever appends to lines.
type accumulator struct {
	title string
	lines []string
	start doctree.LineIndex
	body  doctree.LineIndex
}

func (a accumulator) hasContent() bool {
	return len(a.lines) > 0
}

func (a accumulator) close(end doctree.LineIndex) Section {
	return Section{
		Title:     a.title,
		Content:   strings.Join(a.lines, "\n"),
		StartLine: a.start,
		EndLine:   end,
		BodyLine:  a.body,
	}
}

// step folds one line into the accumulator and returns the section it
// closed, if any.
func (a accumulator) step(line string, i doctree.LineIndex, titles []TitlePredicate) (accumulator, *Section) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		if a.hasContent() {
			a.lines = append(a.lines, line)
		}
		return a, nil
	}

	if !matchAny(titles, trimmed) {
		if !a.hasContent() {
			a.body = i
		}
		a.lines = append(a.lines, line)
		return a, nil
	}

	next := accumulator{title: trimmed, start: i}
	if !a.hasContent() {
		// Nothing to emit; the new section absorbs the uncovered lines.
		next.start = a.start
		return next, nil
	}
	done := a.close(i - 1)
	return next, &done
}

// Segment splits text into sections. Every line of text belongs to exactly
// one returned section, in order, unless no section has content at all.
func Segment(text string, cfg Config) []Section {
	cfg = cfg.withDefaults()
	lines := strings.Split(text, "\n")

	acc := accumulator{title: cfg.IntroTitle}
	var sections []Section
	for i, line := range lines {
		var done *Section
		acc, done = acc.step(line, doctree.LineIndex(i), cfg.Titles)
		if done != nil {
			sections = append(sections, *done)
		}
	}

	last := doctree.LineIndex(len(lines) - 1)
	if acc.hasContent() {
		sections = append(sections, acc.close(last))
	} else if n := len(sections); n > 0 {
		sections[n-1].EndLine = last
	}

	if len(sections) > cfg.MergeAbove {
		sections = merge(sections, cfg.MergeMinChars)
	}
	return sections
}

// merge folds short sections into the running section before them.
// The first section is never merged away.
func merge(sections []Section, minChars int) []Section {
	out := make([]Section, 0, len(sections))
	cur := sections[0]
	for _, s := range sections[1:] {
		if runeLen(strings.TrimSpace(s.Content)) < minChars {
			cur.Content += "\n\n" + s.Content
			cur.EndLine = s.EndLine
			continue
		}
		out = append(out, cur)
		cur = s
	}
	return append(out, cur)
}

// Select returns the sections worth critiquing: trimmed content longer than
// minChars, at most limit of them, in document order.
func Select(sections []Section, minChars, limit int) []Section {
	var out []Section
	for _, s := range sections {
		if limit > 0 && len(out) >= limit {
			break
		}
		if runeLen(strings.TrimSpace(s.Content)) > minChars {
			out = append(out, s)
		}
	}
	return out
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
