package browser

import (
	"context"

	"github.com/playwright-community/playwright-go"

	"github.com/hyperifyio/quizpilot/internal/dom"
)

// LivePage adapts the driven browser page to the DOM abstraction the
// extractor consumes, so the same heuristics run against live pages and
// parsed fixtures alike. It also advertises page preparation.
type LivePage struct {
	c *Controller
}

var (
	_ dom.Page     = (*LivePage)(nil)
	_ dom.Preparer = (*LivePage)(nil)
)

// Main returns the top document. The accessibility tree is only reachable
// here: the devtools protocol exposes it per target, not per frame.
func (p *LivePage) Main() dom.Document {
	return &frameDoc{frame: p.c.page.MainFrame(), ax: p.c.axTree}
}

// Frames returns every secondary frame as a queryable document.
func (p *LivePage) Frames(ctx context.Context) []dom.Document {
	if ctx.Err() != nil {
		return nil
	}
	main := p.c.page.MainFrame()
	var out []dom.Document
	for _, f := range p.c.page.Frames() {
		if f == main {
			continue
		}
		out = append(out, &frameDoc{frame: f})
	}
	return out
}

func (p *LivePage) ExpandCollapsed(ctx context.Context) { p.c.ExpandCollapsed(ctx) }
func (p *LivePage) AutoScroll(ctx context.Context)      { p.c.AutoScroll(ctx) }

// frameDoc exposes one frame as a dom.Document. ax is nil for secondary
// frames, where the accessibility heuristic simply reports nothing.
type frameDoc struct {
	frame playwright.Frame
	ax    func(context.Context) (*dom.AXNode, error)
}

func (d *frameDoc) Query(ctx context.Context, selector string) ([]dom.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	locs, err := d.frame.Locator(selector).All()
	if err != nil {
		return nil, translate(err)
	}
	out := make([]dom.Element, 0, len(locs))
	for _, l := range locs {
		out = append(out, &locElem{loc: l})
	}
	return out, nil
}

func (d *frameDoc) Text(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	text, err := d.frame.TextContent("body", playwright.FrameTextContentOptions{
		Timeout: playwright.Float(2000),
	})
	if err != nil {
		return "", translate(err)
	}
	return text, nil
}

func (d *frameDoc) Accessibility(ctx context.Context) (*dom.AXNode, error) {
	if d.ax == nil {
		return nil, nil
	}
	return d.ax(ctx)
}

// locElem exposes one matched element as a dom.Element. Text reads rendered
// innerText, matching what an operator (and the option heuristics) see;
// attribute and tag lookups are best effort and degrade to empty strings.
type locElem struct {
	loc playwright.Locator
}

func (e *locElem) Text(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	text, err := e.loc.InnerText(playwright.LocatorInnerTextOptions{
		Timeout: playwright.Float(2000),
	})
	if err != nil {
		return "", translate(err)
	}
	return text, nil
}

func (e *locElem) Attr(ctx context.Context, name string) string {
	if ctx.Err() != nil {
		return ""
	}
	v, err := e.loc.GetAttribute(name, playwright.LocatorGetAttributeOptions{
		Timeout: playwright.Float(2000),
	})
	if err != nil {
		return ""
	}
	return v
}

func (e *locElem) Tag(ctx context.Context) string {
	if ctx.Err() != nil {
		return ""
	}
	v, err := e.loc.Evaluate("el => el.tagName.toLowerCase()", nil)
	if err != nil {
		return ""
	}
	s, _ := v.(string)
	return s
}

func (e *locElem) Query(ctx context.Context, selector string) ([]dom.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	locs, err := e.loc.Locator(selector).All()
	if err != nil {
		return nil, translate(err)
	}
	out := make([]dom.Element, 0, len(locs))
	for _, l := range locs {
		out = append(out, &locElem{loc: l})
	}
	return out, nil
}
