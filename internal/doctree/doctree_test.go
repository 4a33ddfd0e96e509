package doctree

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func para(start, end NativeIndex, runs ...string) Element {
	el := Element{Start: start, End: end, Paragraph: &ParagraphElement{}}
	for _, r := range runs {
		el.Paragraph.Runs = append(el.Paragraph.Runs, TextRun{Text: r})
	}
	return el
}

func TestBuild_SkipsNonParagraphsAndBlankRuns(t *testing.T) {
	body := []Element{
		{Start: 0, End: 1}, // section break
		para(1, 13, "Hello ", "world\n"),
		para(13, 14, "\n"),
		{Start: 14, End: 40}, // table
		para(40, 52, "Second", "   ", " one\n"),
	}

	m, err := Build("Doc", body)
	require.NoError(t, err)

	require.Len(t, m.Paragraphs, 2)
	assert.Equal(t, Paragraph{Text: "Hello world\n", Start: 1, End: 13}, m.Paragraphs[0])
	// The whitespace-only run is dropped, not trimmed into neighbours.
	assert.Equal(t, "Second one\n", m.Paragraphs[1].Text)
	assert.Equal(t, NativeIndex(40), m.Paragraphs[1].Start)
	assert.Equal(t, "Doc", m.Title)
}

func TestBuild_KeepsNativeOffsets(t *testing.T) {
	// Native ranges may include content that has no text run (inline images).
	m, err := Build("Doc", []Element{para(5, 50, "short\n")})
	require.NoError(t, err)
	assert.Equal(t, Anchor{Start: 5, End: 50}, m.Paragraphs[0].Anchor())
}

func TestBuild_FullTextFidelity(t *testing.T) {
	body := []Element{
		para(1, 8, "Title\n"),
		para(8, 30, "First line\nsoft break\n"),
		{Start: 30, End: 31},
		para(31, 40, "Last"),
	}
	m, err := Build("Doc", body)
	require.NoError(t, err)

	texts := make([]string, 0, len(m.Paragraphs))
	for _, p := range m.Paragraphs {
		texts = append(texts, p.Text)
	}
	assert.Equal(t, strings.Join(texts, "\n"), m.FullText)
}

func TestBuild_OrderedAndNonNegativeRanges(t *testing.T) {
	body := []Element{para(1, 10, "a\n"), para(10, 9, "b\n"), para(12, 20, "c\n")}
	m, err := Build("Doc", body)
	require.NoError(t, err)

	var prev NativeIndex
	for _, p := range m.Paragraphs {
		assert.GreaterOrEqual(t, p.End, p.Start)
		assert.GreaterOrEqual(t, p.Start, prev)
		prev = p.Start
	}
}

func TestBuild_EmptyBody(t *testing.T) {
	_, err := Build("Doc", nil)
	assert.ErrorIs(t, err, ErrNoContent)

	_, err = Build("Doc", []Element{{Start: 0, End: 1}, para(1, 2, "\n")})
	assert.ErrorIs(t, err, ErrNoContent)
}

func TestModel_ParagraphAtLine(t *testing.T) {
	// FullText: "A\n" + "\n" + "B\nC\n" + "\n" + "D"
	// lines:     0: A, 1: "", 2: B, 3: C, 4: "", 5: D
	m, err := Build("Doc", []Element{
		para(1, 3, "A\n"),
		para(3, 7, "B\nC\n"),
		para(7, 8, "D"),
	})
	require.NoError(t, err)
	require.Equal(t, strings.Count(m.FullText, "\n")+1, m.LineCount())

	cases := map[LineIndex]int{0: 0, 1: 0, 2: 1, 3: 1, 4: 1, 5: 2}
	for line, want := range cases {
		got, ok := m.ParagraphAtLine(line)
		require.True(t, ok, "line %d", line)
		assert.Equal(t, want, got, "line %d", line)
	}

	_, ok := m.ParagraphAtLine(6)
	assert.False(t, ok)
	_, ok = m.ParagraphAtLine(-1)
	assert.False(t, ok)
}
