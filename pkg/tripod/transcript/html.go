package transcript

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// MarkerAttr is the attribute the editor sets on tagged elements.
const MarkerAttr = "data-marker"

// ProfileNoteClass marks the applied-profile note inserted into the editor.
const ProfileNoteClass = "profile-note"

var blockElements = map[atom.Atom]bool{
	atom.P:          true,
	atom.Div:        true,
	atom.Li:         true,
	atom.Ul:         true,
	atom.Ol:         true,
	atom.H1:         true,
	atom.H2:         true,
	atom.H3:         true,
	atom.H4:         true,
	atom.H5:         true,
	atom.H6:         true,
	atom.Blockquote: true,
	atom.Pre:        true,
	atom.Section:    true,
	atom.Article:    true,
	atom.Tr:         true,
}

// ParseHTML reads the rich transcript markup produced by the editor and
// converts it into an abstract tree rooted at an Inline node.
func ParseHTML(r io.Reader) (*Node, error) {
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(r, body)
	if err != nil {
		return nil, fmt.Errorf("parse transcript html: %w", err)
	}

	root := &Node{Kind: Inline}
	for _, n := range nodes {
		if c := convertHTML(n); c != nil {
			root.Append(c)
		}
	}
	return root, nil
}

// ParseHTMLString is ParseHTML over a string.
func ParseHTMLString(s string) (*Node, error) {
	return ParseHTML(strings.NewReader(s))
}

func convertHTML(n *html.Node) *Node {
	switch n.Type {
	case html.TextNode:
		return NewText(n.Data)
	case html.ElementNode:
	default:
		return nil
	}

	switch n.DataAtom {
	case atom.Script, atom.Style:
		return nil
	case atom.Br:
		return &Node{Kind: LineBreak}
	}

	if isProfileNote(n) {
		return &Node{Kind: ProfileNote}
	}

	out := &Node{Kind: Inline}
	if id, ok := attr(n, MarkerAttr); ok && id != "" {
		out.Kind = Marker
		out.MarkerID = id
	} else if blockElements[n.DataAtom] {
		out.Kind = Block
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if child := convertHTML(c); child != nil {
			out.Append(child)
		}
	}
	return out
}

func isProfileNote(n *html.Node) bool {
	if _, ok := attr(n, "data-profile-note"); ok {
		return true
	}
	class, _ := attr(n, "class")
	for _, c := range strings.Fields(class) {
		if c == ProfileNoteClass {
			return true
		}
	}
	return false
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// WithProfileNote returns rich with any existing profile note replaced by a
// single note for profileID placed at the start of the transcript.
func WithProfileNote(rich, profileID, description string) (string, error) {
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(rich), body)
	if err != nil {
		return "", fmt.Errorf("parse transcript html: %w", err)
	}

	note := &html.Node{
		Type:     html.ElementNode,
		Data:     "div",
		DataAtom: atom.Div,
		Attr: []html.Attribute{
			{Key: "class", Val: ProfileNoteClass},
			{Key: "data-profile-note", Val: profileID},
			{Key: "contenteditable", Val: "false"},
		},
	}
	label := profileID
	if description != "" {
		label += " — " + description
	}
	note.AppendChild(&html.Node{Type: html.TextNode, Data: label})

	var sb strings.Builder
	if err := html.Render(&sb, note); err != nil {
		return "", fmt.Errorf("render profile note: %w", err)
	}
	for _, n := range nodes {
		if n.Type == html.ElementNode && isProfileNote(n) {
			continue
		}
		if err := html.Render(&sb, n); err != nil {
			return "", fmt.Errorf("render transcript html: %w", err)
		}
	}
	return sb.String(), nil
}

// RenderHTML writes root as editor markup. Markers become
// <span class="tag" data-marker="…">, blocks become <p>, and a ProfileNote
// becomes an empty profile-note div. For trees without nested blocks and
// without carriage returns, ParseHTML of the result yields the same Document.
func RenderHTML(root *Node) (string, error) {
	var sb strings.Builder
	for _, n := range toHTML(root) {
		if err := html.Render(&sb, n); err != nil {
			return "", fmt.Errorf("render transcript html: %w", err)
		}
	}
	return sb.String(), nil
}

func toHTML(n *Node) []*html.Node {
	if n == nil {
		return nil
	}

	var el *html.Node
	switch n.Kind {
	case Text:
		if n.Text == "" {
			return nil
		}
		return []*html.Node{{Type: html.TextNode, Data: n.Text}}
	case LineBreak:
		return []*html.Node{{Type: html.ElementNode, Data: "br", DataAtom: atom.Br}}
	case ProfileNote:
		return []*html.Node{{
			Type:     html.ElementNode,
			Data:     "div",
			DataAtom: atom.Div,
			Attr:     []html.Attribute{{Key: "class", Val: ProfileNoteClass}},
		}}
	case Marker:
		el = &html.Node{
			Type:     html.ElementNode,
			Data:     "span",
			DataAtom: atom.Span,
			Attr: []html.Attribute{
				{Key: "class", Val: "tag"},
				{Key: MarkerAttr, Val: n.MarkerID},
			},
		}
	case Block:
		el = &html.Node{Type: html.ElementNode, Data: "p", DataAtom: atom.P}
	default:
		var out []*html.Node
		for _, c := range n.Children {
			out = append(out, toHTML(c)...)
		}
		return out
	}

	for _, c := range n.Children {
		for _, h := range toHTML(c) {
			el.AppendChild(h)
		}
	}
	return []*html.Node{el}
}
