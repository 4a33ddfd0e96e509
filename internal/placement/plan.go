package placement

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/dgallion1/docreview/internal/doctree"
	"github.com/dgallion1/docreview/internal/segment"
)

// Mode selects how feedback is written back.
type Mode string

const (
	ModeComment Mode = "comment"
	ModeInline  Mode = "inline"
)

// ParseMode maps a request value to a Mode; empty means comments.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeComment:
		return ModeComment, nil
	case ModeInline:
		return ModeInline, nil
	default:
		return "", fmt.Errorf("unknown write mode %q", s)
	}
}

// Feedback is the critique generated for one selected section.
type Feedback struct {
	Section segment.Section
	Order   int // Position among the selected sections
	Body    string
}

// Edit is one resolved write.
type Edit struct {
	Title  string
	Body   string
	Order  int
	Anchor doctree.Anchor
	Quoted string // Text of the anchoring paragraph
}

// Target is the native offset an inline insertion is computed against.
func (e Edit) Target() doctree.NativeIndex {
	return e.Anchor.End
}

// Plan is an ordered batch of edits ready for writing.
type Plan struct {
	Mode   Mode
	Edits  []Edit
	Misses []string // Titles of sections that could not be placed
}

// NewPlan resolves every feedback item and orders the result for mode.
// Items that do not resolve are recorded as misses and produce no edit.
func NewPlan(mode Mode, items []Feedback, r Resolver) *Plan {
	p := &Plan{Mode: mode}
	for _, fb := range items {
		para, ok := r.Resolve(fb.Section)
		if !ok {
			p.Misses = append(p.Misses, fb.Section.Title)
			continue
		}
		p.Edits = append(p.Edits, Edit{
			Title:  fb.Section.Title,
			Body:   fb.Body,
			Order:  fb.Order,
			Anchor: para.Anchor(),
			Quoted: para.Text,
		})
	}

	if mode == ModeInline {
		// Back to front: an insert never shifts a target still to be applied.
		// Equal targets go later section first so the earlier one ends up on top.
		slices.SortStableFunc(p.Edits, func(a, b Edit) int {
			if c := cmp.Compare(b.Target(), a.Target()); c != 0 {
				return c
			}
			return cmp.Compare(b.Order, a.Order)
		})
	} else {
		slices.SortStableFunc(p.Edits, func(a, b Edit) int {
			return cmp.Compare(a.Order, b.Order)
		})
	}
	return p
}

// Validate checks the ordering contract of an inline plan.
func (p *Plan) Validate() error {
	if p.Mode != ModeInline {
		return nil
	}
	for i := 1; i < len(p.Edits); i++ {
		prev, cur := p.Edits[i-1], p.Edits[i]
		if prev.Target() > cur.Target() {
			continue
		}
		if prev.Target() == cur.Target() && prev.Order > cur.Order {
			continue
		}
		return fmt.Errorf("inline edit %d (%q at %d) is not applied before edit %d (%q at %d)",
			i, cur.Title, cur.Target(), i-1, prev.Title, prev.Target())
	}
	return nil
}
