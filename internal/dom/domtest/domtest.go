// Package domtest provides an in-memory dom.Document backed by parsed HTML,
// so extraction heuristics can run against synthetic fixtures in tests.
package domtest

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/hyperifyio/quizpilot/internal/dom"
)

// Doc implements dom.Document over a goquery document.
type Doc struct {
	doc *goquery.Document
	// AX, when set, is returned from Accessibility.
	AX *dom.AXNode
}

// Parse builds a Doc from raw HTML. Malformed input yields an empty document
// rather than an error, matching the tolerance expected of live pages.
func Parse(input string) *Doc {
	d, err := goquery.NewDocumentFromReader(strings.NewReader(input))
	if err != nil {
		d, _ = goquery.NewDocumentFromReader(strings.NewReader("<html></html>"))
	}
	return &Doc{doc: d}
}

func (d *Doc) Query(_ context.Context, selector string) ([]dom.Element, error) {
	var out []dom.Element
	d.doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		out = append(out, &elem{sel: s})
	})
	return out, nil
}

func (d *Doc) Text(_ context.Context) (string, error) {
	body := d.doc.Find("body")
	if body.Length() == 0 {
		return d.doc.Text(), nil
	}
	return body.Text(), nil
}

func (d *Doc) Accessibility(_ context.Context) (*dom.AXNode, error) {
	return d.AX, nil
}

type elem struct {
	sel *goquery.Selection
}

func (e *elem) Text(_ context.Context) (string, error) {
	return e.sel.Text(), nil
}

func (e *elem) Attr(_ context.Context, name string) string {
	v, _ := e.sel.Attr(name)
	return v
}

func (e *elem) Tag(_ context.Context) string {
	if len(e.sel.Nodes) == 0 {
		return ""
	}
	return strings.ToLower(e.sel.Nodes[0].Data)
}

func (e *elem) Query(_ context.Context, selector string) ([]dom.Element, error) {
	var out []dom.Element
	e.sel.Find(selector).Each(func(_ int, s *goquery.Selection) {
		out = append(out, &elem{sel: s})
	})
	return out, nil
}

// Page bundles fixture documents into a dom.Page.
type Page struct {
	MainDoc   dom.Document
	FrameDocs []dom.Document

	// Expanded and Scrolled record PreparablePage calls.
	Expanded int
	Scrolled int
}

func (p *Page) Main() dom.Document { return p.MainDoc }

func (p *Page) Frames(_ context.Context) []dom.Document { return p.FrameDocs }

// PreparablePage additionally implements dom.Preparer.
type PreparablePage struct {
	Page
}

func (p *PreparablePage) ExpandCollapsed(_ context.Context) { p.Expanded++ }

func (p *PreparablePage) AutoScroll(_ context.Context) { p.Scrolled++ }
