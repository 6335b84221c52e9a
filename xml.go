package kepub

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// xmlNamespaceURL is the reserved namespace bound to the "xml" prefix.
const xmlNamespaceURL = "http://www.w3.org/XML/1998/namespace"

// parseXML parses well-formed XML data into a Document. HTML named
// entities are converted to numeric references first so that encoding/xml
// accepts real-world ePub content, and a UTF-8 BOM is stripped.
func parseXML(data []byte, path string) (*Document, error) {
	data = stripBOM(data)
	data = preprocessHTMLEntities(data)

	d := xml.NewDecoder(bytes.NewReader(data))
	d.Strict = true

	doc := &Document{Path: path}
	ns := newNamespaceTracker()

	// stack[0] is a synthetic holder for the root element.
	holder := &Node{Kind: ElementNode}
	stack := []*Node{holder}

	for {
		tok, err := d.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("kepub: parse %s: %w", path, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			ns.record(t.Attr)
			el := newElement(ns.elementName(t.Name))
			for _, a := range t.Attr {
				el.SetAttr(ns.attrName(a.Name), a.Value)
			}
			parent := stack[len(stack)-1]
			parent.Children = append(parent.Children, el)
			stack = append(stack, el)

		case xml.EndElement:
			stack = stack[:len(stack)-1]

		case xml.CharData:
			if len(stack) == 1 {
				continue // whitespace between prolog and root
			}
			parent := stack[len(stack)-1]
			// The decoder may split character data at entity boundaries;
			// coalesce into a single text node.
			if n := len(parent.Children); n > 0 && parent.Children[n-1].Kind == TextNode {
				parent.Children[n-1].Data += string(t)
			} else {
				parent.Children = append(parent.Children, newText(string(t)))
			}

		case xml.Comment:
			if len(stack) == 1 {
				continue
			}
			parent := stack[len(stack)-1]
			parent.Children = append(parent.Children, &Node{Kind: CommentNode, Data: string(t)})

		case xml.ProcInst:
			content := t.Target
			if len(t.Inst) > 0 {
				content += " " + string(t.Inst)
			}
			if len(stack) == 1 {
				if t.Target == "xml" {
					doc.Decl = content
				}
				continue
			}
			parent := stack[len(stack)-1]
			parent.Children = append(parent.Children, &Node{Kind: ProcInstNode, Data: content})

		case xml.Directive:
			if len(stack) == 1 {
				doc.Doctype = string(t)
			}
		}
	}

	var root *Node
	for _, c := range holder.Children {
		if c.Kind == ElementNode {
			root = c
			break
		}
	}
	if root == nil {
		return nil, fmt.Errorf("kepub: parse %s: no root element", path)
	}
	doc.Root = root
	return doc, nil
}

// parseDocument parses a content document, trying strict XML first and
// falling back to lenient HTML parsing when the data is not well-formed.
func parseDocument(data []byte, path string) (*Document, error) {
	doc, err := parseXML(data, path)
	if err == nil {
		return doc, nil
	}
	if htmlDoc, herr := parseLenientHTML(data, path); herr == nil {
		return htmlDoc, nil
	}
	return nil, err
}

// namespaceTracker maps namespace URIs back to their declared prefixes so
// that serialization reproduces the prefixes the source document used.
// encoding/xml resolves prefixes to URIs during decoding; without this the
// prefix of e.g. epub:type would be lost.
//
// Declarations are tracked document-wide rather than per-scope, which is
// sufficient for OPF and XHTML files where prefixes are declared once on
// the root element.
type namespaceTracker struct {
	prefixByURI map[string]string
	defaultURIs map[string]bool
}

func newNamespaceTracker() *namespaceTracker {
	return &namespaceTracker{
		prefixByURI: make(map[string]string),
		defaultURIs: make(map[string]bool),
	}
}

// record notes any xmlns declarations present in attrs.
func (ns *namespaceTracker) record(attrs []xml.Attr) {
	for _, a := range attrs {
		if a.Name.Space == "" && a.Name.Local == "xmlns" {
			ns.defaultURIs[a.Value] = true
		} else if a.Name.Space == "xmlns" {
			ns.prefixByURI[a.Value] = a.Name.Local
		}
	}
}

// elementName returns the display name for an element, re-attaching the
// source prefix where one was declared.
func (ns *namespaceTracker) elementName(name xml.Name) string {
	if name.Space == "" || ns.defaultURIs[name.Space] {
		return name.Local
	}
	if p, ok := ns.prefixByURI[name.Space]; ok {
		return p + ":" + name.Local
	}
	// Undeclared prefix: the decoder passes it through literally.
	return name.Space + ":" + name.Local
}

// attrName returns the display name for an attribute.
func (ns *namespaceTracker) attrName(name xml.Name) string {
	switch {
	case name.Space == "":
		return name.Local
	case name.Space == "xmlns":
		return "xmlns:" + name.Local
	case name.Space == "xml" || name.Space == xmlNamespaceURL:
		return "xml:" + name.Local
	}
	if p, ok := ns.prefixByURI[name.Space]; ok {
		return p + ":" + name.Local
	}
	return name.Space + ":" + name.Local
}

// indentStep is the per-level indentation used by serializeDocument.
const indentStep = "  "

var (
	textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	attrEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")
)

// serializeDocument renders the document back to bytes with stable
// indentation. Elements containing only element children are placed on
// indented lines; any element with text content is written inline so that
// character data round-trips byte-exact.
func serializeDocument(doc *Document) []byte {
	var b bytes.Buffer
	if doc.Decl != "" {
		b.WriteString("<?" + doc.Decl + "?>\n")
	} else {
		b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	}
	if doc.Doctype != "" {
		b.WriteString("<!" + doc.Doctype + ">\n")
	}
	writeNode(&b, doc.Root, 0, false)
	b.WriteByte('\n')
	return b.Bytes()
}

// writeNode writes n at the given depth. When inline is true the node is
// emitted without surrounding whitespace (inside mixed content).
func writeNode(b *bytes.Buffer, n *Node, depth int, inline bool) {
	switch n.Kind {
	case TextNode:
		b.WriteString(textEscaper.Replace(n.Data))
		return
	case CommentNode:
		b.WriteString("<!--" + n.Data + "-->")
		return
	case ProcInstNode:
		b.WriteString("<?" + n.Data + "?>")
		return
	}

	b.WriteByte('<')
	b.WriteString(n.Name)
	for _, a := range n.Attr {
		b.WriteString(" " + a.Key + `="` + attrEscaper.Replace(a.Value) + `"`)
	}

	if len(n.Children) == 0 {
		b.WriteString(" />")
		return
	}
	b.WriteByte('>')

	if inline || hasTextChild(n) {
		for _, c := range n.Children {
			writeNode(b, c, depth+1, true)
		}
	} else {
		for _, c := range n.Children {
			b.WriteByte('\n')
			for i := 0; i <= depth; i++ {
				b.WriteString(indentStep)
			}
			writeNode(b, c, depth+1, false)
		}
		b.WriteByte('\n')
		for i := 0; i < depth; i++ {
			b.WriteString(indentStep)
		}
	}

	b.WriteString("</" + n.Name + ">")
}

// hasTextChild reports whether n has any direct text child (mixed content).
func hasTextChild(n *Node) bool {
	for _, c := range n.Children {
		if c.Kind == TextNode {
			return true
		}
	}
	return false
}
