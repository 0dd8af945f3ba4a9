package dom

import "context"

// Document is the minimal surface the extraction heuristics need from a
// renderable document: selector queries, a whole-text read, and an optional
// accessibility tree. Both the live browser page and the in-memory test
// fixture implement it, so heuristics stay testable without a browser.
type Document interface {
	// Query returns all elements matching a CSS selector, in document order.
	// A selector that matches nothing returns an empty slice and nil error;
	// errors are reserved for engine faults.
	Query(ctx context.Context, selector string) ([]Element, error)

	// Text returns the full visible text of the document body.
	Text(ctx context.Context) (string, error)

	// Accessibility returns the root of the document's accessibility tree,
	// or (nil, nil) when no tree is available.
	Accessibility(ctx context.Context) (*AXNode, error)
}

// Element is a single matched node. Scoped sub-queries let block-structured
// extraction walk inside a match without re-addressing it from the root.
type Element interface {
	Text(ctx context.Context) (string, error)
	// Attr returns the attribute value, or "" when absent.
	Attr(ctx context.Context, name string) string
	// Tag returns the lowercase tag name, or "" when unknown.
	Tag(ctx context.Context) string
	Query(ctx context.Context, selector string) ([]Element, error)
}

// AXNode is one node of an accessibility tree snapshot.
type AXNode struct {
	Role     string
	Name     string
	Children []*AXNode
}

// Page groups a main document with its embedded sub-documents. Frames
// returns secondary documents only, in engine order.
type Page interface {
	Main() Document
	Frames(ctx context.Context) []Document
}

// Preparer is an optional capability of a Page: revealing collapsed content
// and forcing lazy-rendered content to materialize before extraction. Both
// operations are best-effort; implementations must swallow their own faults.
// Callers detect availability with a type assertion.
type Preparer interface {
	ExpandCollapsed(ctx context.Context)
	AutoScroll(ctx context.Context)
}
