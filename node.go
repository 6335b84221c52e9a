package kepub

// NodeKind identifies the variant of a Node.
type NodeKind int

const (
	// ElementNode is a named element with attributes and children.
	ElementNode NodeKind = iota

	// TextNode is a run of character data. Data holds the text.
	TextNode

	// CommentNode is an XML comment. Data holds the comment body.
	CommentNode

	// ProcInstNode is a processing instruction. Data holds the raw
	// instruction content (target and payload).
	ProcInstNode
)

// Node is one node of a parsed document tree. Element nodes use Name,
// Attr, and Children; all other kinds carry their content in Data.
// Child order is reading order and is semantically significant.
type Node struct {
	Kind     NodeKind
	Name     string
	Attr     []Attr
	Children []*Node
	Data     string
}

// Attr is a single element attribute. Attributes keep insertion order on
// output; keys are unique within an element.
type Attr struct {
	Key   string
	Value string
}

// Document is an ephemeral view of one parsed file: the root element plus
// the source path it was read from and any prolog (XML declaration,
// doctype) that must be re-emitted on serialization.
type Document struct {
	Path    string
	Root    *Node
	Decl    string // XML declaration content, without "<?" and "?>"
	Doctype string // doctype content, without "<!" and ">"
}

// newElement creates an element node with the given name.
func newElement(name string) *Node {
	return &Node{Kind: ElementNode, Name: name}
}

// newText creates a text node with the given content.
func newText(content string) *Node {
	return &Node{Kind: TextNode, Data: content}
}

// GetAttr returns the value of the named attribute and whether it is present.
func (n *Node) GetAttr(key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Value, true
		}
	}
	return "", false
}

// SetAttr sets the named attribute, overwriting an existing value in place
// or appending a new attribute, keeping keys unique.
func (n *Node) SetAttr(key, value string) {
	for i := range n.Attr {
		if n.Attr[i].Key == key {
			n.Attr[i].Value = value
			return
		}
	}
	n.Attr = append(n.Attr, Attr{Key: key, Value: value})
}

// childElement returns the first direct child element with the given name,
// or nil.
func (n *Node) childElement(name string) *Node {
	for _, c := range n.Children {
		if c.Kind == ElementNode && c.Name == name {
			return c
		}
	}
	return nil
}

// firstDescendant returns the first element in n's subtree satisfying pred,
// searching depth-first in document order. n itself is excluded.
func (n *Node) firstDescendant(pred func(*Node) bool) *Node {
	for _, c := range n.Children {
		if c.Kind != ElementNode {
			continue
		}
		if pred(c) {
			return c
		}
		if found := c.firstDescendant(pred); found != nil {
			return found
		}
	}
	return nil
}

// anyDescendant reports whether any element in n's subtree, including n
// itself, satisfies pred. The search is depth-first in document order.
func (n *Node) anyDescendant(pred func(*Node) bool) bool {
	if n.Kind == ElementNode && pred(n) {
		return true
	}
	for _, c := range n.Children {
		if c.Kind == ElementNode && c.anyDescendant(pred) {
			return true
		}
	}
	return false
}
