package transcript

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// ErrInvalidSpan is returned when a span does not address a non-empty range
// of the document text.
var ErrInvalidSpan = errors.New("invalid span")

// NodeKind identifies how a node contributes to the plain-text projection.
type NodeKind int

const (
	// Inline containers contribute their children only.
	Inline NodeKind = iota
	// Text nodes contribute their literal text.
	Text
	// Block containers are followed by a newline.
	Block
	// LineBreak contributes exactly one newline.
	LineBreak
	// Marker containers produce a TaggedSpan over their children.
	Marker
	// ProfileNote subtrees are skipped entirely.
	ProfileNote
)

func (k NodeKind) String() string {
	switch k {
	case Inline:
		return "inline"
	case Text:
		return "text"
	case Block:
		return "block"
	case LineBreak:
		return "br"
	case Marker:
		return "marker"
	case ProfileNote:
		return "profile-note"
	default:
		return "unknown"
	}
}

// Node is one element of the abstract rich-text tree.
type Node struct {
	Kind     NodeKind
	Text     string // Text nodes only
	MarkerID string // Marker nodes only
	Children []*Node
}

// Append adds children to n and returns n.
func (n *Node) Append(children ...*Node) *Node {
	n.Children = append(n.Children, children...)
	return n
}

// NewText returns a text leaf.
func NewText(s string) *Node { return &Node{Kind: Text, Text: s} }

// NewBlock returns a block container holding children.
func NewBlock(children ...*Node) *Node { return &Node{Kind: Block, Children: children} }

// NewMarker returns a marker container tagging children with markerID.
func NewMarker(markerID string, children ...*Node) *Node {
	return &Node{Kind: Marker, MarkerID: markerID, Children: children}
}

// TaggedSpan is a marker applied to the half-open range [Start, End) of the
// plain-text projection. Offsets count characters (code points), not bytes.
type TaggedSpan struct {
	Start    int    `json:"start"`
	End      int    `json:"end"`
	MarkerID string `json:"markerId"`
}

// Overlaps reports whether the span strictly overlaps [start, end).
// Touching ranges and degenerate spans never overlap.
func (s TaggedSpan) Overlaps(start, end int) bool {
	return s.Start < end && s.End > start
}

// Document is the flat "plain text + span list" form of a transcript.
type Document struct {
	Text  string
	Spans []TaggedSpan
}

// NewDocument projects a rich-text tree into a flat Document.
func NewDocument(root *Node) *Document {
	text, spans := ExtractPlainTextAndSpans(root)
	return &Document{Text: text, Spans: spans}
}

// Len returns the text length in characters.
func (d *Document) Len() int {
	return utf8.RuneCountInString(d.Text)
}

// Tag inserts a span over [start, end) with markerID. The editor binding is
// responsible for translating a user selection into offsets.
func (d *Document) Tag(start, end int, markerID string) error {
	if markerID == "" {
		return fmt.Errorf("%w: empty marker id", ErrInvalidSpan)
	}
	if start < 0 || end > d.Len() || start >= end {
		return fmt.Errorf("%w: [%d,%d) outside text of length %d", ErrInvalidSpan, start, end, d.Len())
	}
	d.Spans = append(d.Spans, TaggedSpan{Start: start, End: end, MarkerID: markerID})
	return nil
}

// Sentences segments the text and assigns overlapping tags.
func (d *Document) Sentences() []Sentence {
	return AssignTags(SegmentSentences(d.Text), d.Spans)
}

// CSV renders the tagged sentences as CSV. It returns "" when the document
// has no sentences.
func (d *Document) CSV(notes string) string {
	return ToCSV(d.Sentences(), notes)
}

// MarkerIDs returns the distinct marker ids of spans in first-seen order.
func MarkerIDs(spans []TaggedSpan) []string {
	seen := make(map[string]struct{}, len(spans))
	ids := make([]string, 0, len(spans))
	for _, sp := range spans {
		if _, ok := seen[sp.MarkerID]; ok {
			continue
		}
		seen[sp.MarkerID] = struct{}{}
		ids = append(ids, sp.MarkerID)
	}
	return ids
}
