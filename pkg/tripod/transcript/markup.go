package transcript

import "strings"

// token is one piece of inline markup: literal text or a [tag] / [/tag].
type token struct {
	text    string
	name    string
	closing bool
	isTag   bool
	matched bool
}

func tokenizeMarkup(s string) []token {
	var toks []token
	for len(s) > 0 {
		open := strings.IndexByte(s, '[')
		if open < 0 {
			toks = append(toks, token{text: s})
			break
		}
		if open > 0 {
			toks = append(toks, token{text: s[:open]})
			s = s[open:]
		}
		end := strings.IndexByte(s, ']')
		name := ""
		if end > 0 {
			name = s[1:end]
		}
		closing := strings.HasPrefix(name, "/")
		if closing {
			name = name[1:]
		}
		if end < 0 || !validTagName(name) {
			toks = append(toks, token{text: "["})
			s = s[1:]
			continue
		}
		toks = append(toks, token{text: s[:end+1], name: name, closing: closing, isTag: true})
		s = s[end+1:]
	}
	return toks
}

func validTagName(name string) bool {
	return name != "" && !strings.ContainsAny(name, "[]/ \t\r\n")
}

// pairTags matches closing tags with the nearest open tag of the same name.
// Opens skipped over by a match stay unmatched and render as literal text.
func pairTags(toks []token) {
	var stack []int
	for i := range toks {
		t := &toks[i]
		if !t.isTag {
			continue
		}
		if !t.closing {
			stack = append(stack, i)
			continue
		}
		for j := len(stack) - 1; j >= 0; j-- {
			if toks[stack[j]].name == t.name {
				t.matched = true
				toks[stack[j]].matched = true
				stack = stack[:j]
				break
			}
		}
	}
}

// ParseInlineMarkup reads the plain-textarea markup "[LA:X]text[/LA:X]"
// into an abstract tree. Properly closed tags become Marker nodes and may
// nest; unmatched tags remain literal text.
func ParseInlineMarkup(s string) *Node {
	toks := tokenizeMarkup(s)
	pairTags(toks)

	root := &Node{Kind: Inline}
	stack := []*Node{root}
	var pending strings.Builder
	flush := func() {
		if pending.Len() > 0 {
			top := stack[len(stack)-1]
			top.Append(NewText(pending.String()))
			pending.Reset()
		}
	}

	for _, t := range toks {
		switch {
		case !t.isTag || !t.matched:
			pending.WriteString(t.text)
		case t.closing:
			flush()
			stack = stack[:len(stack)-1]
		default:
			flush()
			m := NewMarker(t.name)
			stack[len(stack)-1].Append(m)
			stack = append(stack, m)
		}
	}
	flush()
	return root
}
