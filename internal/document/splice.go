package document

import (
	"bytes"
	"errors"
	"io"
	"slices"
	"strings"

	"golang.org/x/net/html"
)

// edit replaces the inner content of node with text.
type edit struct {
	node *html.Node
	text string
}

type token struct {
	typ        html.TokenType
	name       string
	start, end int
}

// splice writes every edit into the original bytes of src, so markup
// outside the edited elements comes back byte for byte. It reports false
// when an element cannot be tied to its source range with certainty; the
// caller then renders from the tree instead.
func splice(src string, root *html.Node, edits []edit) (string, bool) {
	tokens, err := tokenize(src)
	if err != nil {
		return "", false
	}
	starts := startTags(root, tokens)

	type span struct {
		from, to int
		text     string
	}
	spans := make([]span, 0, len(edits))
	for _, e := range edits {
		k, ok := starts[e.node]
		if !ok || tokens[k].typ != html.StartTagToken {
			return "", false
		}
		from := tokens[k].end
		to, ok := closingTag(tokens, k)
		if !ok {
			return "", false
		}
		inner := src[from:to]
		if !sameContent(inner, e.node) {
			return "", false
		}
		// surrounding whitespace is layout, not content
		core := strings.TrimSpace(inner)
		lead := strings.Index(inner, core)
		if core == "" {
			lead = 0
		}
		spans = append(spans, span{from: from + lead, to: from + lead + len(core), text: e.text})
	}

	slices.SortFunc(spans, func(a, b span) int { return a.from - b.from })
	var out strings.Builder
	pos := 0
	for _, s := range spans {
		if s.from < pos {
			return "", false
		}
		out.WriteString(src[pos:s.from])
		out.WriteString(s.text)
		pos = s.to
	}
	out.WriteString(src[pos:])
	return out.String(), true
}

func tokenize(src string) ([]token, error) {
	z := html.NewTokenizer(strings.NewReader(src))
	var tokens []token
	pos := 0
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			if errors.Is(z.Err(), io.EOF) {
				return tokens, nil
			}
			return nil, z.Err()
		}
		raw := len(z.Raw())
		t := token{typ: tt, start: pos, end: pos + raw}
		if tt == html.StartTagToken || tt == html.EndTagToken || tt == html.SelfClosingTagToken {
			name, _ := z.TagName()
			t.name = string(name)
		}
		tokens = append(tokens, t)
		pos += raw
	}
}

// startTags pairs element nodes with the start tags that created them, both
// in document order. Elements the parser implied (html, head, body, tbody)
// have no tag and are passed over.
func startTags(root *html.Node, tokens []token) map[*html.Node]int {
	var tags []int
	for i, t := range tokens {
		if t.typ == html.StartTagToken || t.typ == html.SelfClosingTagToken {
			tags = append(tags, i)
		}
	}

	out := make(map[*html.Node]int)
	j := 0
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			if j < len(tags) && strings.EqualFold(tokens[tags[j]].name, c.Data) {
				out[c] = tags[j]
				j++
			}
			walk(c)
		}
	}
	walk(root)
	return out
}

// closingTag returns the offset of the end tag matching the start tag at
// tokens[k].
func closingTag(tokens []token, k int) (int, bool) {
	name := tokens[k].name
	depth := 0
	for _, t := range tokens[k+1:] {
		if t.name != name {
			continue
		}
		switch t.typ {
		case html.StartTagToken:
			depth++
		case html.EndTagToken:
			if depth == 0 {
				return t.start, true
			}
			depth--
		}
	}
	return 0, false
}

// sameContent reports whether raw parses, in n's context, to what n holds.
func sameContent(raw string, n *html.Node) bool {
	nodes, err := html.ParseFragment(strings.NewReader(raw), n)
	if err != nil {
		return false
	}
	var got, want bytes.Buffer
	for _, c := range nodes {
		if err := html.Render(&got, c); err != nil {
			return false
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&want, c); err != nil {
			return false
		}
	}
	return got.String() == want.String()
}
