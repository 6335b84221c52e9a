package kepub

import "fmt"

// restructureBody wraps all of body's children in the two-level layout
// scaffold Kobo's renderer expects:
//
//	<body>
//	  <div id="book-columns">
//	    <div id="book-inner">
//	      ...original children, original order...
//	    </div>
//	  </div>
//	</body>
//
// The body element must be a direct child of the document root. Returns
// the body element for further processing.
func restructureBody(doc *Document) (*Node, error) {
	body := doc.Root.childElement("body")
	if body == nil {
		return nil, fmt.Errorf("kepub: no <body> in %s: %w", doc.Path, ErrDocumentMalformed)
	}

	inner := newElement("div")
	inner.SetAttr("id", "book-inner")
	inner.Children = body.Children

	outer := newElement("div")
	outer.SetAttr("id", "book-columns")
	outer.Children = []*Node{inner}

	body.Children = []*Node{outer}
	return body, nil
}
