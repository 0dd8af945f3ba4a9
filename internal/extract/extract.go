// Package extract discovers exam questions and their candidate options on
// pages whose structure is not known in advance. It applies an ordered
// pipeline of heuristics to the main document and every embedded frame,
// degrading from a specialized block scan through generic selector lists down
// to an accessibility-tree walk. A heuristic that does not apply is a normal
// outcome, never an error: Extract always returns a Result, possibly empty.
package extract

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/hyperifyio/quizpilot/internal/dom"
)

// previewLimit bounds the plain-text snapshot kept per block and per page.
const previewLimit = 800

// maxOptionLen drops form-control candidates that are clearly running text
// rather than an option label.
const maxOptionLen = 200

// QuestionBlock is one extraction unit: a question stem, its options in
// discovery order, and a bounded text snapshot used as a last-resort stem.
type QuestionBlock struct {
	Question string
	Options  []string
	Preview  string
}

// Result is the outcome of one extraction pass over a page. Items holds the
// blocks found by the structured scan; the top-level fields mirror Items[0]
// when it is non-empty and are otherwise resolved by the generic fallbacks,
// which only ever fill gaps.
type Result struct {
	Question string
	Options  []string
	Preview  string
	Items    []QuestionBlock
}

// Extractor runs the heuristic pipeline. The logger is provided explicitly so
// extraction diagnostics stay tied to the run that produced them.
type Extractor struct {
	log zerolog.Logger
}

func New(log zerolog.Logger) *Extractor {
	return &Extractor{log: log}
}

// Extract scans the page's main document and then every secondary frame,
// merging results field by field: frame items append, question and preview
// fill only when still empty, options merge with exact-text dedup. All frames
// are always scanned; there is no early exit once a result looks complete,
// because later frames may carry additional question blocks.
func (e *Extractor) Extract(ctx context.Context, page dom.Page) Result {
	if prep, ok := page.(dom.Preparer); ok {
		prep.ExpandCollapsed(ctx)
		prep.AutoScroll(ctx)
	}

	res := e.extractDocument(ctx, page.Main())
	for _, frame := range page.Frames(ctx) {
		fr := e.extractDocument(ctx, frame)
		res.Items = append(res.Items, fr.Items...)
		if res.Question == "" {
			res.Question = fr.Question
		}
		res.Options = mergeOptions(res.Options, fr.Options)
		if res.Preview == "" {
			res.Preview = fr.Preview
		}
	}

	// The structured scan may have found blocks in a frame after the generic
	// fallbacks on earlier documents came up empty.
	if len(res.Items) > 0 {
		if res.Question == "" {
			res.Question = res.Items[0].Question
		}
		if len(res.Options) == 0 {
			res.Options = mergeOptions(nil, res.Items[0].Options)
		}
	}

	e.log.Debug().
		Int("question_len", len(res.Question)).
		Int("options", len(res.Options)).
		Int("items", len(res.Items)).
		Msg("extraction pass complete")
	return res
}

// extractDocument applies the full pipeline to a single document.
func (e *Extractor) extractDocument(ctx context.Context, doc dom.Document) Result {
	var res Result

	res.Items = e.scanBlocks(ctx, doc)
	if len(res.Items) > 0 {
		res.Question = res.Items[0].Question
		res.Options = mergeOptions(nil, res.Items[0].Options)
		res.Preview = res.Items[0].Preview
	}

	if res.Question == "" {
		res.Question = e.questionBySelectors(ctx, doc)
	}
	if res.Question == "" {
		res.Question = e.longestLine(ctx, doc)
	}

	if len(res.Options) == 0 {
		res.Options = e.optionsBySelectors(ctx, doc)
	}
	if len(res.Options) == 0 {
		res.Options = e.formControlOptions(ctx, doc)
	}
	if len(res.Options) == 0 {
		q, opts := e.firstBlockProbe(ctx, doc)
		if res.Question == "" && q != "" {
			res.Question = q
		}
		res.Options = mergeOptions(res.Options, opts)
	}
	if len(res.Options) == 0 {
		res.Options = mergeOptions(res.Options, e.accessibleOptions(ctx, doc))
	}

	if res.Preview == "" {
		if text, err := doc.Text(ctx); err == nil {
			res.Preview = truncate(collapseSpaces(text), previewLimit)
		}
	}
	return res
}

// questionBySelectors returns the first non-empty text found by the ordered
// question selector list: the selector list order wins, then document order
// within one selector.
func (e *Extractor) questionBySelectors(ctx context.Context, doc dom.Document) string {
	for _, sel := range questionSelectors {
		els, err := doc.Query(ctx, sel)
		if err != nil {
			continue
		}
		for _, el := range els {
			text, err := el.Text(ctx)
			if err != nil {
				continue
			}
			if t := strings.TrimSpace(text); t != "" {
				return t
			}
		}
	}
	return ""
}

// longestLine scans whole-page containers and returns the single longest
// non-empty line of the first container that has any text. On a sparse
// question page the real stem is usually the longest contiguous text run.
func (e *Extractor) longestLine(ctx context.Context, doc dom.Document) string {
	for _, sel := range fallbackContainers {
		els, err := doc.Query(ctx, sel)
		if err != nil || len(els) == 0 {
			continue
		}
		text, err := els[0].Text(ctx)
		if err != nil {
			continue
		}
		best := ""
		bestLen := 0
		for _, line := range strings.Split(text, "\n") {
			line = strings.TrimSpace(line)
			// Length in runes, not bytes: a short CJK line must not
			// out-weigh a longer ASCII one.
			if n := utf8.RuneCountInString(line); n > bestLen {
				best, bestLen = line, n
			}
		}
		if best != "" {
			return best
		}
	}
	return ""
}

// optionsBySelectors collects every match across the ordered option selector
// list, deduplicated by exact text with first-seen order preserved.
func (e *Extractor) optionsBySelectors(ctx context.Context, doc dom.Document) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, sel := range optionSelectors {
		els, err := doc.Query(ctx, sel)
		if err != nil {
			continue
		}
		for _, el := range els {
			text, err := el.Text(ctx)
			if err != nil {
				continue
			}
			t := strings.TrimSpace(text)
			if t == "" {
				continue
			}
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			out = append(out, t)
		}
	}
	return out
}

// formControlOptions is the broader form-control sweep: every label, button,
// ARIA option, list item, and radio/checkbox input. Inputs resolve their
// associated label text or accessible name; everything is whitespace
// normalized, and candidates that are empty or longer than maxOptionLen are
// discarded.
func (e *Extractor) formControlOptions(ctx context.Context, doc dom.Document) []string {
	els, err := doc.Query(ctx, formControlSelector)
	if err != nil {
		return nil
	}
	seen := map[string]struct{}{}
	var out []string
	for _, el := range els {
		var text string
		if el.Tag(ctx) == "input" {
			text = e.inputLabelText(ctx, doc, el)
		} else {
			raw, err := el.Text(ctx)
			if err == nil {
				text = raw
			}
			if strings.TrimSpace(text) == "" {
				text = el.Attr(ctx, "aria-label")
			}
		}
		text = collapseSpaces(text)
		if text == "" || len([]rune(text)) > maxOptionLen {
			continue
		}
		if _, ok := seen[text]; ok {
			continue
		}
		seen[text] = struct{}{}
		out = append(out, text)
	}
	return out
}

// inputLabelText resolves the visible name of a radio/checkbox input: the
// text of labels addressed via for=, else the aria-label attribute.
func (e *Extractor) inputLabelText(ctx context.Context, doc dom.Document, el dom.Element) string {
	if id := el.Attr(ctx, "id"); id != "" {
		labels, err := doc.Query(ctx, `label[for="`+id+`"]`)
		if err == nil && len(labels) > 0 {
			var parts []string
			for _, l := range labels {
				if t, err := l.Text(ctx); err == nil && strings.TrimSpace(t) != "" {
					parts = append(parts, strings.TrimSpace(t))
				}
			}
			if len(parts) > 0 {
				return strings.Join(parts, " ")
			}
		}
	}
	return el.Attr(ctx, "aria-label")
}

// accessibleOptions walks the accessibility tree depth-first and collects the
// accessible name of every node with an option-like role.
func (e *Extractor) accessibleOptions(ctx context.Context, doc dom.Document) []string {
	root, err := doc.Accessibility(ctx)
	if err != nil || root == nil {
		return nil
	}
	var names []string
	var walk func(n *dom.AXNode)
	walk = func(n *dom.AXNode) {
		if n == nil {
			return
		}
		if optionRoles[n.Role] {
			if name := strings.TrimSpace(n.Name); name != "" {
				names = append(names, name)
			}
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(root)
	if len(names) > 0 {
		e.log.Debug().Int("names", len(names)).Msg("options from accessibility tree")
	}
	return names
}

// mergeOptions appends entries of more that are not already present in
// existing, by exact text. Existing entries are never removed or reordered.
func mergeOptions(existing, more []string) []string {
	seen := make(map[string]struct{}, len(existing))
	out := existing
	for _, o := range existing {
		seen[o] = struct{}{}
	}
	for _, o := range more {
		o = strings.TrimSpace(o)
		if o == "" {
			continue
		}
		if _, ok := seen[o]; ok {
			continue
		}
		seen[o] = struct{}{}
		out = append(out, o)
	}
	return out
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
