package extract

import (
	"context"
	"strings"

	"github.com/hyperifyio/quizpilot/internal/dom"
)

// Class hooks for the structured question-block pattern: one block per
// question, a description sub-element for the stem, and answer sub-elements
// composed of a title and a description fragment. The exported ones are
// shared with the option clicker, which must resolve the same DOM.
const (
	BlockSelector       = ".praxis-item"
	BlockAnswerSelector = ".praxis-info .answer"
	AnswerTitleSelector = ".answer-title"
	AnswerDescSelector  = ".answer-desc"

	blockStemSelector = ".praxis-desc"
	blockStemFallback = ".wrap-text"
	blockInfoSelector = ".praxis-info"
	answerSelector    = ".answer"
)

// scanBlocks collects every structured question block in document order.
// When it finds at least one block, its output takes precedence over all
// later heuristics for populating Items.
func (e *Extractor) scanBlocks(ctx context.Context, doc dom.Document) []QuestionBlock {
	blocks, err := doc.Query(ctx, BlockSelector)
	if err != nil || len(blocks) == 0 {
		return nil
	}
	items := make([]QuestionBlock, 0, len(blocks))
	for _, b := range blocks {
		item := QuestionBlock{
			Question: firstQueryText(ctx, b, blockStemSelector, blockStemFallback),
		}
		answers, err := b.Query(ctx, BlockAnswerSelector)
		if err == nil {
			for _, a := range answers {
				combined := CombineAnswer(
					queryText(ctx, a, AnswerTitleSelector),
					queryText(ctx, a, AnswerDescSelector),
				)
				if combined != "" {
					item.Options = append(item.Options, combined)
				}
			}
		}
		if text, err := b.Text(ctx); err == nil {
			item.Preview = truncate(collapseSpaces(text), previewLimit)
		}
		items = append(items, item)
	}
	e.log.Debug().Int("blocks", len(items)).Msg("structured blocks found")
	return items
}

// firstBlockProbe is a narrower variant of scanBlocks used as a late option
// fallback: it inspects only the first block and the first info container,
// which rescues pages whose DOM shape deviates slightly from the repeating
// pattern the broad scan expects.
func (e *Extractor) firstBlockProbe(ctx context.Context, doc dom.Document) (string, []string) {
	var question string
	if blocks, err := doc.Query(ctx, BlockSelector); err == nil && len(blocks) > 0 {
		question = firstQueryText(ctx, blocks[0], blockStemSelector, blockStemFallback)
	}
	var options []string
	if infos, err := doc.Query(ctx, blockInfoSelector); err == nil && len(infos) > 0 {
		answers, err := infos[0].Query(ctx, answerSelector)
		if err == nil {
			for _, a := range answers {
				combined := CombineAnswer(
					queryText(ctx, a, AnswerTitleSelector),
					queryText(ctx, a, AnswerDescSelector),
				)
				if combined != "" {
					options = append(options, combined)
				}
			}
		}
	}
	return question, options
}

// CombineAnswer joins an answer's title and description fragments as
// "{title}. {desc}" when both are present, else returns whichever is present.
func CombineAnswer(title, desc string) string {
	title = strings.TrimSpace(title)
	desc = strings.TrimSpace(desc)
	if title == "" {
		return desc
	}
	if desc == "" {
		return title
	}
	return title + ". " + desc
}

// queryText returns the collapsed text of the first match inside el, or "".
func queryText(ctx context.Context, el dom.Element, selector string) string {
	matches, err := el.Query(ctx, selector)
	if err != nil || len(matches) == 0 {
		return ""
	}
	text, err := matches[0].Text(ctx)
	if err != nil {
		return ""
	}
	return collapseSpaces(text)
}

// firstQueryText tries each selector in turn and returns the first non-empty
// collapsed text.
func firstQueryText(ctx context.Context, el dom.Element, selectors ...string) string {
	for _, sel := range selectors {
		if t := queryText(ctx, el, sel); t != "" {
			return t
		}
	}
	return ""
}
