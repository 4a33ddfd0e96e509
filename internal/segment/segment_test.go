package segment

import (
	"fmt"
	"strings"
	"testing"

	"github.com/dgallion1/docreview/internal/doctree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsTitle(t *testing.T) {
	cases := []struct {
		line string
		want bool
	}{
		{"1. Intro", true},
		{"12) Results", true},
		{"II. Background", true},
		{"[Summary]", true},
		{"### Notes", true},
		{"ALL CAPS TITLE", true},
		{"  2. Indented heading  ", true},
		{"ABSTRACT", true},
		{"not a title, just prose.", false},
		{"1.5 percent growth was observed", false},
		{"#hashtag", false},
		{"123", false},
		{"서론", false},
		{strings.Repeat("A", 50), false},
		{strings.Repeat("A", 49), true},
		{"", false},
		{"   ", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, IsTitle(tc.line), "line %q", tc.line)
	}
}

func TestIsTitle_CustomPredicate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Titles = append([]TitlePredicate{Pattern(`^Chapter \d+`)}, cfg.Titles...)

	secs := Segment("Chapter 1\nbody text\nChapter 2\nmore text", cfg)
	require.Len(t, secs, 2)
	assert.Equal(t, "Chapter 1", secs[0].Title)
	assert.Equal(t, "Chapter 2", secs[1].Title)
}

func TestSegment_Basic(t *testing.T) {
	text := "Opening words.\n\n1. Method\nWe did things.\n\nCarefully.\n2. Results\nIt worked."
	secs := Segment(text, DefaultConfig())

	require.Len(t, secs, 3)

	assert.Equal(t, "Introduction", secs[0].Title)
	assert.Equal(t, "Opening words.\n", secs[0].Content)
	assert.Equal(t, doctree.LineIndex(0), secs[0].StartLine)
	assert.Equal(t, doctree.LineIndex(1), secs[0].EndLine)

	assert.Equal(t, "1. Method", secs[1].Title)
	assert.Equal(t, "We did things.\n\nCarefully.", secs[1].Content)
	assert.Equal(t, doctree.LineIndex(2), secs[1].StartLine)
	assert.Equal(t, doctree.LineIndex(5), secs[1].EndLine)
	assert.Equal(t, doctree.LineIndex(3), secs[1].BodyLine)

	assert.Equal(t, "2. Results", secs[2].Title)
	assert.Equal(t, "It worked.", secs[2].Content)
	assert.Equal(t, doctree.LineIndex(7), secs[2].EndLine)
}

func TestSegment_BlankLinesBeforeContentDropped(t *testing.T) {
	secs := Segment("1. Title\n\n\nBody", DefaultConfig())
	require.Len(t, secs, 1)
	assert.Equal(t, "Body", secs[0].Content)
	assert.Equal(t, doctree.LineIndex(3), secs[0].BodyLine)
}

func TestSegment_ContentKeptVerbatim(t *testing.T) {
	secs := Segment("[Notes]\n   indented line  \n\ttabbed", DefaultConfig())
	require.Len(t, secs, 1)
	assert.Equal(t, "[Notes]", secs[0].Title)
	assert.Equal(t, "   indented line  \n\ttabbed", secs[0].Content)
}

func TestSegment_LocalizedIntroTitle(t *testing.T) {
	cfg := DefaultConfig()
	cfg.IntroTitle = "서론"
	secs := Segment("본문입니다.", cfg)
	require.Len(t, secs, 1)
	assert.Equal(t, "서론", secs[0].Title)
}

func TestSegment_EmptyAndTitleOnly(t *testing.T) {
	assert.Empty(t, Segment("", DefaultConfig()))
	assert.Empty(t, Segment("\n\n", DefaultConfig()))
	assert.Empty(t, Segment("1. A\n2. B", DefaultConfig()))
}

func assertCoverage(t *testing.T, text string, secs []Section) {
	t.Helper()
	require.NotEmpty(t, secs)
	lines := strings.Count(text, "\n") + 1
	assert.Equal(t, doctree.LineIndex(0), secs[0].StartLine, "first section must start at line 0")
	for i := 1; i < len(secs); i++ {
		assert.Equal(t, secs[i-1].EndLine+1, secs[i].StartLine, "gap or overlap before section %d", i)
	}
	for _, s := range secs {
		assert.LessOrEqual(t, s.StartLine, s.EndLine)
	}
	assert.Equal(t, doctree.LineIndex(lines-1), secs[len(secs)-1].EndLine, "last section must end at last line")
}

func TestSegment_Coverage(t *testing.T) {
	docs := map[string]string{
		"plain":              "just prose\nmore prose",
		"leading blanks":     "\n\n1. A\nbody a\n2. B\nbody b",
		"consecutive titles": "1. A\n2. B\nbody\n\n",
		"trailing title":     "intro text\n1. Orphan",
		"trailing blanks":    "intro\n\n\n",
		"mixed": "Preface text\n\nI. ONE\n\nalpha\n\nII. TWO\n[Box]\nbeta\n# H\n\n" +
			"gamma\nDELTA\nfinal words\n",
	}
	for name, text := range docs {
		t.Run(name, func(t *testing.T) {
			assertCoverage(t, text, Segment(text, DefaultConfig()))
		})
	}
}

func TestSegment_ContentlessTitleAbsorbed(t *testing.T) {
	secs := Segment("\n\n1. A\n2. B\nbody", DefaultConfig())
	require.Len(t, secs, 1)
	assert.Equal(t, "2. B", secs[0].Title)
	assert.Equal(t, doctree.LineIndex(0), secs[0].StartLine)
	assert.Equal(t, doctree.LineIndex(4), secs[0].BodyLine)
}

func longBody(tag string) string {
	return strings.Repeat(tag+" is a sentence long enough to count. ", 8)
}

// elevenSections builds 11 titled sections where sections 2..5 are short.
func elevenSections() (string, []string) {
	var lines, bodies []string
	for i := 1; i <= 11; i++ {
		body := longBody(fmt.Sprintf("s%d", i))
		if i >= 2 && i <= 5 {
			body = fmt.Sprintf("short body %d", i)
		}
		lines = append(lines, fmt.Sprintf("%d. Section %d", i, i), body)
		bodies = append(bodies, body)
	}
	return strings.Join(lines, "\n"), bodies
}

func TestSegment_MergeThreshold(t *testing.T) {
	text, bodies := elevenSections()

	raw := Segment(text, Config{MergeAbove: 100})
	require.Len(t, raw, 11)

	secs := Segment(text, DefaultConfig())
	require.LessOrEqual(t, len(secs), 7)
	require.Len(t, secs, 7)

	want := strings.Join(bodies[0:5], "\n\n")
	assert.Equal(t, want, secs[0].Content)
	assert.Equal(t, "1. Section 1", secs[0].Title)
	assert.Equal(t, doctree.LineIndex(0), secs[0].StartLine)
	assert.Equal(t, doctree.LineIndex(9), secs[0].EndLine)
	assert.Equal(t, "6. Section 6", secs[1].Title)

	assertCoverage(t, text, secs)
}

func TestSegment_NoMergeAtTenSections(t *testing.T) {
	var lines []string
	for i := 1; i <= 10; i++ {
		lines = append(lines, fmt.Sprintf("%d. S", i), "tiny")
	}
	secs := Segment(strings.Join(lines, "\n"), DefaultConfig())
	assert.Len(t, secs, 10)
}

func TestSelect(t *testing.T) {
	var secs []Section
	for i := 0; i < 10; i++ {
		secs = append(secs, Section{Title: fmt.Sprintf("long %d", i), Content: strings.Repeat("y", 201)})
		secs = append(secs, Section{Title: "short", Content: "  " + strings.Repeat("n", 200) + "  "})
	}

	got := Select(secs, 200, 7)
	require.Len(t, got, 7)
	for i, s := range got {
		assert.Equal(t, fmt.Sprintf("long %d", i), s.Title)
	}

	assert.Len(t, Select(secs, 200, 0), 10)
	assert.Empty(t, Select(nil, 200, 7))
}

func TestSelect_CountsRunes(t *testing.T) {
	// 201 Hangul syllables are 603 bytes but only 201 characters.
	s := Section{Content: strings.Repeat("가", 150)}
	assert.Empty(t, Select([]Section{s}, 200, 7))
	s.Content = strings.Repeat("가", 201)
	assert.Len(t, Select([]Section{s}, 200, 7), 1)
}
