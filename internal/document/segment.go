package document

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	"golang.org/x/net/html"

	"github.com/valpere/revtran/internal/markdown"
)

// atomicTags are always taken as one block, children included.
var atomicTags = map[string]bool{
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"p":          true,
	"blockquote": true,
	"ul":         true, "ol": true, "dl": true,
	"figcaption": true, "caption": true,
	"button": true, "label": true, "legend": true, "summary": true, "option": true,
}

// containerTags become a block only when nothing inside them is translatable
// on its own.
var containerTags = map[string]bool{
	"div": true, "section": true, "article": true, "aside": true,
	"header": true, "footer": true, "main": true, "nav": true,
	"td": true, "th": true, "dd": true, "dt": true,
}

// skippedTags never hold translatable text.
var skippedTags = map[string]bool{
	"script": true, "style": true, "noscript": true, "template": true, "svg": true,
}

// Tags returns, each sorted, the tags always taken as one block, the
// containers that are a block only without nested blocks, and the tags
// never translated.
func Tags() (atomic, container, skipped []string) {
	return slices.Sorted(maps.Keys(atomicTags)),
		slices.Sorted(maps.Keys(containerTags)),
		slices.Sorted(maps.Keys(skippedTags))
}

// Segment splits doc into blocks in document order. In text mode the whole
// input becomes a single block addressed by WholeDocument. Markdown is
// rendered to HTML first and then segmented like HTML.
func Segment(doc string, mode Mode) ([]Block, error) {
	if mode == ModeText {
		return []Block{{
			ID:      uuid.NewString(),
			Type:    "text",
			Content: doc,
			Path:    WholeDocument,
		}}, nil
	}

	root, err := parse(doc, mode)
	if err != nil {
		return nil, err
	}

	body := root.Find("body")
	if body.Length() == 0 {
		return nil, fmt.Errorf("%w: no body element", ErrSegmentation)
	}

	var blocks []Block
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode || skipped(c) {
				continue
			}
			tag := c.Data
			if atomicTags[tag] || (containerTags[tag] && !hasTranslatableChild(c)) {
				if b, ok := newBlock(root, c); ok {
					blocks = append(blocks, b)
				}
				continue
			}
			walk(c)
		}
	}
	walk(body.Get(0))

	return blocks, nil
}

// Text is the readable text of doc with markup, scripts and styles removed.
// Language detection runs on it so tag names and attributes do not count.
func Text(doc string, mode Mode) string {
	if !mode.Structured() {
		return doc
	}
	return markdown.PlainText(source(doc, mode))
}

// source is the HTML a document is segmented and rendered from.
func source(doc string, mode Mode) string {
	if mode == ModeMarkdown {
		return markdown.ToHTML([]byte(doc))
	}
	return doc
}

func parse(doc string, mode Mode) (*goquery.Document, error) {
	doc = source(doc, mode)
	if !utf8.ValidString(doc) {
		return nil, fmt.Errorf("%w: input is not valid UTF-8", ErrSegmentation)
	}
	root, err := goquery.NewDocumentFromReader(strings.NewReader(doc))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSegmentation, err)
	}
	return root, nil
}

func newBlock(root *goquery.Document, n *html.Node) (Block, bool) {
	sel := root.FindNodes(n)
	if strings.TrimSpace(sel.Text()) == "" {
		return Block{}, false
	}
	content, err := sel.Html()
	if err != nil {
		return Block{}, false
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return Block{}, false
	}
	return Block{
		ID:      uuid.NewString(),
		Type:    n.Data,
		Content: content,
		Path:    PathOf(n),
	}, true
}

func hasTranslatableChild(n *html.Node) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || skipped(c) {
			continue
		}
		if atomicTags[c.Data] || containerTags[c.Data] || hasTranslatableChild(c) {
			return true
		}
	}
	return false
}

// skipped reports nodes whose subtree is never translated: non-text tags and
// anything explicitly hidden.
func skipped(n *html.Node) bool {
	if skippedTags[n.Data] {
		return true
	}
	for _, a := range n.Attr {
		switch strings.ToLower(a.Key) {
		case "hidden":
			return true
		case "aria-hidden":
			if strings.EqualFold(strings.TrimSpace(a.Val), "true") {
				return true
			}
		case "style":
			style := strings.ToLower(strings.Join(strings.Fields(a.Val), ""))
			if strings.Contains(style, "display:none") || strings.Contains(style, "visibility:hidden") {
				return true
			}
		}
	}
	return false
}

// PathOf returns the selector chain from below <body> down to n. A step gets
// an :nth-child position only when its parent has several children with the
// same tag, so the chain stays short and readable.
func PathOf(n *html.Node) string {
	var steps []string
	for cur := n; cur != nil && cur.Type == html.ElementNode && cur.Data != "body"; cur = cur.Parent {
		steps = append(steps, step(cur))
	}
	for i, j := 0, len(steps)-1; i < j; i, j = i+1, j-1 {
		steps[i], steps[j] = steps[j], steps[i]
	}
	return strings.Join(steps, " > ")
}

func step(n *html.Node) string {
	if n.Parent == nil {
		return n.Data
	}
	same := 0
	for s := n.Parent.FirstChild; s != nil; s = s.NextSibling {
		if s.Type == html.ElementNode && s.Data == n.Data {
			same++
		}
	}
	if same < 2 {
		return n.Data
	}
	return n.Data + ":nth-child(" + strconv.Itoa(elementIndex(n)) + ")"
}

// elementIndex is the 1-based position of n among its element siblings, as
// :nth-child counts it.
func elementIndex(n *html.Node) int {
	idx := 0
	for s := n.Parent.FirstChild; s != nil; s = s.NextSibling {
		if s.Type == html.ElementNode {
			idx++
		}
		if s == n {
			return idx
		}
	}
	return idx
}
