package kepub

import (
	"fmt"
	"strings"
)

// segContext is the shared mutable state threaded through one document's
// span rewrite. Within a document, paragraph never decreases and sentence
// resets to 0 the instant paragraph increments, so every generated marker
// id kobo.<paragraph>.<sentence> is unique. A segContext is scoped to a
// single document and never reused.
type segContext struct {
	paragraph    int
	sentence     int
	pendingBreak bool
}

// breakElements force the next emitted sentence into a new paragraph.
var breakElements = map[string]bool{
	"p": true, "ol": true, "ul": true, "table": true,
}

// isBreakElement reports whether an element starts a new paragraph.
// Any two-character name beginning with "h" is treated as a heading
// (h1-h9); this also catches unrelated tags such as hr. The over-broad
// match is kept as-is: narrowing it would renumber markers in existing
// output.
func isBreakElement(name string) bool {
	if breakElements[name] {
		return true
	}
	return len(name) == 2 && name[0] == 'h'
}

// convertSpans rewrites body's subtree so that every sentence and every
// image is wrapped in a kobospan marker. It reports whether a rewrite took
// place: a document that already contains kobospan markers is left
// untouched, so conversion is idempotent.
func convertSpans(body *Node) bool {
	already := body.anyDescendant(func(n *Node) bool {
		class, _ := n.GetAttr("class")
		return strings.Contains(class, "kobospan")
	})
	if already {
		return false
	}

	ctx := &segContext{}
	body.Children = convertChildren(body, ctx)
	return true
}

// convertChildren rewrites parent's children depth-first, pre-order,
// carrying the single shared context across the whole traversal. The first
// matching rule applies to each node:
//
//  1. <img> starts its own paragraph and is wrapped in a marker span; the
//     image's own children are not recursed.
//  2. Paragraph-level elements (see isBreakElement) arm a pending
//     paragraph break and are retained with rewritten children.
//  3. <math> and <svg> subtrees are dropped entirely.
//  4. Any other element is retained with rewritten children.
//  5. Text is split into sentences, each wrapped in a marker span.
//     Whitespace-only sentences are dropped unless directly inside <p>.
//  6. Anything else (comments, processing instructions) is dropped.
func convertChildren(parent *Node, ctx *segContext) []*Node {
	out := make([]*Node, 0, len(parent.Children))

	for _, child := range parent.Children {
		switch child.Kind {
		case ElementNode:
			switch {
			case child.Name == "img":
				ctx.paragraph++
				ctx.sentence = 0
				ctx.pendingBreak = false
				span := makeSpan(ctx.paragraph, ctx.sentence)
				span.Children = []*Node{child}
				out = append(out, span)

			case child.Name == "math" || child.Name == "svg":
				// dropped

			default:
				if isBreakElement(child.Name) {
					ctx.pendingBreak = true
				}
				child.Children = convertChildren(child, ctx)
				out = append(out, child)
			}

		case TextNode:
			for _, sentence := range splitSentences(child.Data) {
				if strings.TrimSpace(sentence) == "" && parent.Name != "p" {
					continue
				}
				if ctx.pendingBreak {
					ctx.paragraph++
					ctx.sentence = 0
					ctx.pendingBreak = false
				}
				ctx.sentence++
				span := makeSpan(ctx.paragraph, ctx.sentence)
				span.Children = []*Node{newText(sentence)}
				out = append(out, span)
			}

		default:
			// dropped
		}
	}

	return out
}

// makeSpan creates an empty marker span with the given paragraph and
// sentence numbers.
func makeSpan(paragraph, sentence int) *Node {
	span := newElement("span")
	span.SetAttr("class", "kobospan")
	span.SetAttr("id", fmt.Sprintf("kobo.%d.%d", paragraph, sentence))
	return span
}
