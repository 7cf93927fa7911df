package transcript

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractPlainTextAndSpans(t *testing.T) {
	root := &Node{Kind: Inline}
	root.Append(
		NewText("The chief spoke. "),
		NewMarker("LA:CHAIN_medial", NewText("Then")),
		NewText(" the rains came!"),
	)

	text, spans := ExtractPlainTextAndSpans(root)
	assert.Equal(t, "The chief spoke. Then the rains came!", text)
	require.Len(t, spans, 1)
	assert.Equal(t, TaggedSpan{Start: 17, End: 21, MarkerID: "LA:CHAIN_medial"}, spans[0])

	sentences := AssignTags(SegmentSentences(text), spans)
	require.Len(t, sentences, 2)
	assert.Equal(t, 1, sentences[0].Index)
	assert.Equal(t, "The chief spoke.", sentences[0].Text)
	assert.Empty(t, sentences[0].Tags)
	assert.Equal(t, 2, sentences[1].Index)
	assert.Equal(t, "Then the rains came!", sentences[1].Text)
	assert.Equal(t, Tags{"LA:CHAIN_medial"}, sentences[1].Tags)
}

func TestExtractBlocksAndLineBreaks(t *testing.T) {
	root := &Node{Kind: Inline}
	root.Append(
		NewBlock(NewText("first")),
		NewBlock(NewText("second"), &Node{Kind: LineBreak}),
		NewText("tail"),
		&Node{Kind: LineBreak},
		&Node{Kind: LineBreak},
	)

	text, spans := ExtractPlainTextAndSpans(root)
	assert.Equal(t, "first\nsecond\ntail\n\n", text)
	assert.Empty(t, spans)
}

func TestExtractSkipsProfileNote(t *testing.T) {
	note := &Node{Kind: ProfileNote}
	note.Append(NewText("Profile: LA:PROFILE_HYMN_praise"), NewMarker("LA:DOXOLOGY", NewText("x")))

	root := &Node{Kind: Inline}
	root.Append(note, NewText("Praise the rain."))

	text, spans := ExtractPlainTextAndSpans(root)
	assert.Equal(t, "Praise the rain.", text)
	assert.Empty(t, spans)
}

func TestExtractNestedMarkers(t *testing.T) {
	root := NewMarker("LA:OUTER",
		NewText("ab"),
		NewMarker("LA:INNER", NewText("cd")),
		NewText("é"),
	)

	text, spans := ExtractPlainTextAndSpans(root)
	assert.Equal(t, "abcdé", text)
	assert.Equal(t, []TaggedSpan{
		{Start: 2, End: 4, MarkerID: "LA:INNER"},
		{Start: 0, End: 5, MarkerID: "LA:OUTER"},
	}, spans)
}

func TestExtractNilAndEmpty(t *testing.T) {
	text, spans := ExtractPlainTextAndSpans(nil)
	assert.Equal(t, "", text)
	assert.Empty(t, spans)

	text, spans = ExtractPlainTextAndSpans(NewBlock())
	assert.Equal(t, "", text)
	assert.Empty(t, spans)

	// An empty marker yields a degenerate span that tags nothing.
	root := &Node{Kind: Inline}
	root.Append(NewText("Hello."), NewMarker("LA:EMPTY"))
	doc := NewDocument(root)
	require.Len(t, doc.Spans, 1)
	assert.Equal(t, doc.Spans[0].Start, doc.Spans[0].End)
	assert.Empty(t, doc.Sentences()[0].Tags)
}

func TestParseHTML(t *testing.T) {
	rich := `<div class="profile-note" data-profile-note="LA:PROFILE_NARR_casual_dialogue">Profile note</div>` +
		`<p>The chief spoke. <span class="tag" data-marker="LA:CHAIN_medial">Then</span> the rains came!</p>` +
		`<p>People &amp; cattle ran.<br>Nobody stayed</p><script>alert(1)</script>`

	root, err := ParseHTMLString(rich)
	require.NoError(t, err)

	doc := NewDocument(root)
	assert.Equal(t, "The chief spoke. Then the rains came!\nPeople & cattle ran.\nNobody stayed\n", doc.Text)
	assert.Equal(t, []TaggedSpan{{Start: 17, End: 21, MarkerID: "LA:CHAIN_medial"}}, doc.Spans)

	sentences := doc.Sentences()
	assert.Equal(t, []string{
		"The chief spoke.",
		"Then the rains came!",
		"People & cattle ran.",
		"Nobody stayed",
	}, texts(sentences))
	assert.Equal(t, Tags{"LA:CHAIN_medial"}, sentences[1].Tags)
}

func TestParseHTMLInlineFormatting(t *testing.T) {
	root, err := ParseHTMLString(`<b>Loud</b> <i>voices</i>. <em data-marker="">plain</em>`)
	require.NoError(t, err)

	text, spans := ExtractPlainTextAndSpans(root)
	assert.Equal(t, "Loud voices. plain", text)
	assert.Empty(t, spans, "an empty data-marker is not a marker")
}

func TestWithProfileNote(t *testing.T) {
	rich := `<p>Praise the <span data-marker="LA:HYMN_praise_open">maker</span>.</p>`

	once, err := WithProfileNote(rich, "LA:PROFILE_HYMN_praise", "{HYMN_praise_open, POET_refrain, DOXOLOGY}")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(once, `<div class="profile-note"`))
	assert.Contains(t, once, `data-profile-note="LA:PROFILE_HYMN_praise"`)

	twice, err := WithProfileNote(once, "LA:PROFILE_LAMENT_formal", "")
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(twice, ProfileNoteClass))
	assert.Contains(t, twice, "LA:PROFILE_LAMENT_formal")
	assert.NotContains(t, twice, "LA:PROFILE_HYMN_praise")

	// The note never reaches the plain text or the spans.
	root, err := ParseHTMLString(twice)
	require.NoError(t, err)
	doc := NewDocument(root)
	assert.Equal(t, "Praise the maker.\n", doc.Text)
	assert.Equal(t, []TaggedSpan{{Start: 11, End: 16, MarkerID: "LA:HYMN_praise_open"}}, doc.Spans)
}

func TestParseInlineMarkup(t *testing.T) {
	tests := []struct {
		name  string
		input string
		text  string
		spans []TaggedSpan
	}{
		{
			name:  "single tag",
			input: "The chief spoke. [LA:CHAIN_medial]Then[/LA:CHAIN_medial] the rains came!",
			text:  "The chief spoke. Then the rains came!",
			spans: []TaggedSpan{{17, 21, "LA:CHAIN_medial"}},
		},
		{
			name:  "unmatched stays literal",
			input: "[laughs] it was fine",
			text:  "[laughs] it was fine",
		},
		{
			name:  "nested",
			input: "[LA:A]x [LA:B]y[/LA:B][/LA:A]",
			text:  "x y",
			spans: []TaggedSpan{{2, 3, "LA:B"}, {0, 3, "LA:A"}},
		},
		{
			name:  "crossing tags",
			input: "[A]x[B]y[/A]z[/B]",
			text:  "x[B]yz[/B]",
			spans: []TaggedSpan{{0, 5, "A"}},
		},
		{
			name:  "stray brackets",
			input: "a [b c] [ ] [/] ]",
			text:  "a [b c] [ ] [/] ]",
		},
		{
			name:  "multi line",
			input: "[LA:Q_WH]Who came?[/LA:Q_WH]\nThe visitor.",
			text:  "Who came?\nThe visitor.",
			spans: []TaggedSpan{{0, 9, "LA:Q_WH"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, spans := ExtractPlainTextAndSpans(ParseInlineMarkup(tt.input))
			assert.Equal(t, tt.text, text)
			if tt.spans == nil {
				assert.Empty(t, spans)
			} else {
				assert.Equal(t, tt.spans, spans)
			}
		})
	}
}

func TestRenderHTMLRoundTrip(t *testing.T) {
	inputs := []string{
		"The chief spoke. [LA:CHAIN_medial]Then[/LA:CHAIN_medial] the rains came!",
		"[LA:Q_WH]Who <came>?[/LA:Q_WH]\nThe visitor & his [LA:A]son[LA:B][/LA:B][/LA:A].",
		"[laughs] no tags here",
	}
	for _, in := range inputs {
		root := ParseInlineMarkup(in)
		want := NewDocument(root)

		rich, err := RenderHTML(root)
		require.NoError(t, err)
		parsed, err := ParseHTMLString(rich)
		require.NoError(t, err)

		assert.Equal(t, want, NewDocument(parsed), "input %q rendered as %q", in, rich)
	}

	rich, err := RenderHTML(NewBlock(NewText("a"), &Node{Kind: LineBreak}, NewText("b")))
	require.NoError(t, err)
	assert.Equal(t, "<p>a<br/>b</p>", rich)
}
