package document

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
)

// Render puts every translated block back into doc and returns the result.
// Blocks without a translation are left as they are. Translations are
// written into the original bytes, so everything outside the translated
// elements is unchanged; when an element's source range cannot be pinned
// down the document is rendered from the parse tree instead.
//
// A block whose path does not resolve to exactly one node is reported as a
// ReassemblyFailure and keeps its original content; the rest of the document
// is still rendered. Fragments (input without an <html> element) come back
// as fragments.
//
// In text mode the single block's translation is returned verbatim.
func Render(doc string, blocks []Block, mode Mode) (string, []ReassemblyFailure, error) {
	if mode == ModeText {
		if len(blocks) != 1 {
			return "", nil, fmt.Errorf("text document needs exactly one block, got %d", len(blocks))
		}
		if !blocks[0].Translated() {
			return blocks[0].Content, nil, nil
		}
		return blocks[0].Translation, nil, nil
	}

	src := source(doc, mode)
	root, err := parse(doc, mode)
	if err != nil {
		return "", nil, err
	}

	var (
		failures []ReassemblyFailure
		edits    []edit
	)
	for _, b := range blocks {
		if !b.Translated() {
			continue
		}
		matcher, err := cascadia.Compile(Selector(b.Path))
		if err != nil {
			failures = append(failures, ReassemblyFailure{BlockID: b.ID, Path: b.Path})
			continue
		}
		target := root.FindMatcher(matcher)
		if target.Length() != 1 {
			failures = append(failures, ReassemblyFailure{BlockID: b.ID, Path: b.Path, Matches: target.Length()})
			continue
		}
		edits = append(edits, edit{node: target.Get(0), text: b.Translation})
	}

	if out, ok := splice(src, root.Get(0), edits); ok {
		return out, failures, nil
	}

	for _, e := range edits {
		root.FindNodes(e.node).SetHtml(e.text)
	}
	out, err := serialize(root, isFragment(doc, mode))
	if err != nil {
		return "", failures, fmt.Errorf("failed to render document: %w", err)
	}
	return out, failures, nil
}

// serialize renders the tree. A fragment has no head of its own, so
// whatever the parser hoisted into <head> (style, script, link, meta,
// title) is written ahead of the body content.
func serialize(root *goquery.Document, fragment bool) (string, error) {
	if !fragment {
		return root.Html()
	}
	head, err := root.Find("head").Html()
	if err != nil {
		return "", err
	}
	body, err := root.Find("body").Html()
	if err != nil {
		return "", err
	}
	return head + body, nil
}

// Selector turns a block path into a CSS selector anchored at <body>.
func Selector(path string) string {
	if path == "" {
		return "body"
	}
	return "body > " + path
}

func isFragment(doc string, mode Mode) bool {
	if mode == ModeMarkdown {
		return true
	}
	return !strings.Contains(strings.ToLower(doc), "<html")
}
