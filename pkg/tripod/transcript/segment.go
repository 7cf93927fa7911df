package transcript

import (
	"strings"
	"unicode"
)

// TagSeparator joins tags in CSV output.
const TagSeparator = " | "

// Tags is an insertion-ordered set of marker ids.
type Tags []string

// Has reports whether id is in the set.
func (t Tags) Has(id string) bool {
	for _, v := range t {
		if v == id {
			return true
		}
	}
	return false
}

// Add inserts id unless it is already present.
func (t *Tags) Add(id string) {
	if !t.Has(id) {
		*t = append(*t, id)
	}
}

func (t Tags) String() string {
	return strings.Join(t, TagSeparator)
}

// Sentence is a derived, offset-addressed unit of the transcript.
type Sentence struct {
	Index int    `json:"ref"`
	Start int    `json:"start"`
	End   int    `json:"end"`
	Text  string `json:"sentence"`
	Tags  Tags   `json:"tags"`
}

func isTerminator(r rune) bool {
	switch r {
	case '.', '!', '?', '…':
		return true
	}
	return false
}

// SegmentSentences splits text into sentences.
//
// A sentence is a run of characters that are neither terminators (. ! ? …)
// nor newlines, followed by any number of consecutive terminators. A run
// without terminators is kept only when a newline or the end of the text
// closes it. Matches are trimmed of surrounding whitespace, empty matches are
// dropped, and Start/End address the trimmed text.
func SegmentSentences(text string) []Sentence {
	runes := []rune(text)
	var out []Sentence

	i := 0
	for i < len(runes) {
		if runes[i] == '\n' || isTerminator(runes[i]) {
			i++
			continue
		}
		start := i
		for i < len(runes) && runes[i] != '\n' && !isTerminator(runes[i]) {
			i++
		}
		for i < len(runes) && isTerminator(runes[i]) {
			i++
		}

		s, e := start, i
		for s < e && unicode.IsSpace(runes[s]) {
			s++
		}
		for e > s && unicode.IsSpace(runes[e-1]) {
			e--
		}
		if s == e {
			continue
		}
		out = append(out, Sentence{
			Index: len(out) + 1,
			Start: s,
			End:   e,
			Text:  string(runes[s:e]),
		})
	}
	return out
}

// AssignTags adds to each sentence the marker id of every span that strictly
// overlaps it. Spans are visited in the order given, which fixes tag order.
// The sentences are modified in place and returned.
func AssignTags(sentences []Sentence, spans []TaggedSpan) []Sentence {
	for _, sp := range spans {
		for i := range sentences {
			if sp.Overlaps(sentences[i].Start, sentences[i].End) {
				sentences[i].Tags.Add(sp.MarkerID)
			}
		}
	}
	return sentences
}
