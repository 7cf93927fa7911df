package transcript

import (
	"strings"
	"unicode/utf8"
)

// projector accumulates the plain-text projection while walking the tree.
type projector struct {
	sb    strings.Builder
	n     int // length in characters
	last  rune
	spans []TaggedSpan
}

func (p *projector) write(s string) {
	if s == "" {
		return
	}
	p.sb.WriteString(s)
	p.n += utf8.RuneCountInString(s)
	p.last, _ = utf8.DecodeLastRuneInString(s)
}

func (p *projector) walk(n *Node) {
	if n == nil {
		return
	}
	switch n.Kind {
	case ProfileNote:
		return
	case Text:
		p.write(n.Text)
		return
	case LineBreak:
		p.write("\n")
		return
	case Marker:
		start := p.n
		p.children(n)
		p.spans = append(p.spans, TaggedSpan{Start: start, End: p.n, MarkerID: n.MarkerID})
	case Block:
		p.children(n)
		if p.n > 0 && p.last != '\n' {
			p.write("\n")
		}
	default:
		p.children(n)
	}
}

func (p *projector) children(n *Node) {
	for _, c := range n.Children {
		p.walk(c)
	}
}

// ExtractPlainTextAndSpans walks root depth-first, left to right, and returns
// the plain-text projection together with one span per Marker node.
//
// Spans are appended when their node is left, so a nested marker precedes
// the marker that encloses it.
func ExtractPlainTextAndSpans(root *Node) (string, []TaggedSpan) {
	var p projector
	p.walk(root)
	return p.sb.String(), p.spans
}
