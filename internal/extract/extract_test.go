package extract

import (
	"context"
	"reflect"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/hyperifyio/quizpilot/internal/dom"
	"github.com/hyperifyio/quizpilot/internal/dom/domtest"
)

func newExtractor() *Extractor {
	return New(zerolog.Nop())
}

func singleDocPage(html string) *domtest.Page {
	return &domtest.Page{MainDoc: domtest.Parse(html)}
}

func TestExtract_StructuredBlocks(t *testing.T) {
	html := `<html><body>
      <div class="praxis-item">
        <div class="praxis-desc">What is 2+2?</div>
        <div class="praxis-info">
          <div class="answer"><span class="answer-title">A</span><span class="answer-desc">3</span></div>
          <div class="answer"><span class="answer-title">B</span><span class="answer-desc">4</span></div>
        </div>
      </div>
    </body></html>`

	res := newExtractor().Extract(context.Background(), singleDocPage(html))
	if len(res.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(res.Items))
	}
	if res.Question != "What is 2+2?" {
		t.Fatalf("unexpected question %q", res.Question)
	}
	want := []string{"A. 3", "B. 4"}
	if !reflect.DeepEqual(res.Options, want) {
		t.Fatalf("expected options %v, got %v", want, res.Options)
	}
}

func TestExtract_MultipleBlocksInDocumentOrder(t *testing.T) {
	html := `<html><body>
      <div class="praxis-item">
        <div class="praxis-desc">First question</div>
        <div class="praxis-info">
          <div class="answer"><span class="answer-title">A</span><span class="answer-desc">one</span></div>
        </div>
      </div>
      <div class="praxis-item">
        <div class="wrap-text">Second question</div>
        <div class="praxis-info">
          <div class="answer"><span class="answer-desc">only desc</span></div>
          <div class="answer"><span class="answer-title">only title</span></div>
        </div>
      </div>
    </body></html>`

	res := newExtractor().Extract(context.Background(), singleDocPage(html))
	if len(res.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(res.Items))
	}
	if res.Items[0].Question != "First question" || res.Items[1].Question != "Second question" {
		t.Fatalf("items out of order: %q, %q", res.Items[0].Question, res.Items[1].Question)
	}
	// Single-fragment answers keep the fragment that is present.
	want := []string{"only desc", "only title"}
	if !reflect.DeepEqual(res.Items[1].Options, want) {
		t.Fatalf("expected %v, got %v", want, res.Items[1].Options)
	}
	// Top-level fields mirror the first item.
	if res.Question != "First question" {
		t.Fatalf("top-level question should mirror items[0], got %q", res.Question)
	}
	if !reflect.DeepEqual(res.Options, []string{"A. one"}) {
		t.Fatalf("top-level options should mirror items[0], got %v", res.Options)
	}
}

func TestExtract_QuestionSelectorPriority(t *testing.T) {
	// [data-question] outranks headings even when a heading appears first in
	// the document.
	html := `<html><body>
      <main><h1>Heading text</h1></main>
      <p data-question>Marked question</p>
    </body></html>`

	res := newExtractor().Extract(context.Background(), singleDocPage(html))
	if res.Question != "Marked question" {
		t.Fatalf("expected attribute marker to win, got %q", res.Question)
	}
}

func TestExtract_LongestLineFallback(t *testing.T) {
	short := strings.Repeat("s", 40)
	long := strings.Repeat("l", 120)
	html := `<html><body><main><div>` + short + "\n" + long + `</div></main></body></html>`

	res := newExtractor().Extract(context.Background(), singleDocPage(html))
	if res.Question != long {
		t.Fatalf("expected longest line as question, got %q", res.Question)
	}
}

func TestExtract_LongestLineFallbackCountsRunes(t *testing.T) {
	// A 60-character CJK line is 180 bytes; it must still lose to a
	// 100-character ASCII line.
	cjk := strings.Repeat("题", 60)
	ascii := strings.Repeat("q", 100)
	html := `<html><body><main><div>` + cjk + "\n" + ascii + `</div></main></body></html>`

	res := newExtractor().Extract(context.Background(), singleDocPage(html))
	if res.Question != ascii {
		t.Fatalf("expected the 100-character line as question, got %q", res.Question)
	}
}

func TestExtract_OptionSelectorDedupOrder(t *testing.T) {
	html := `<html><body>
      <div>no headings here</div>
      <label>Alpha</label>
      <label>Beta</label>
      <li>Alpha</li>
      <button>Gamma</button>
    </body></html>`

	e := newExtractor()
	page := singleDocPage(html)
	res := e.Extract(context.Background(), page)
	want := []string{"Alpha", "Beta", "Gamma"}
	if !reflect.DeepEqual(res.Options, want) {
		t.Fatalf("expected %v, got %v", want, res.Options)
	}

	// Re-running on the same static document yields the same set in the same
	// first-seen order.
	again := e.Extract(context.Background(), page)
	if !reflect.DeepEqual(again.Options, want) {
		t.Fatalf("expected stable options on re-run, got %v", again.Options)
	}
}

func TestExtract_FormControlScan(t *testing.T) {
	long := strings.Repeat("x", 201)
	d := domtest.Parse(`<html><body>
      <input type="radio" id="r1">
      <input type="checkbox" id="c1" aria-label="Checkbox option">
      <label for="r1">Radio   option</label>
      <button>` + long + `</button>
    </body></html>`)

	opts := newExtractor().formControlOptions(context.Background(), d)
	for _, got := range opts {
		if len([]rune(got)) > 200 {
			t.Fatalf("over-long candidate not discarded: %d chars", len([]rune(got)))
		}
	}
	// Input labels resolve via for= with whitespace normalized; the label
	// element itself dedups against the resolved text.
	if !contains(opts, "Radio option") || !contains(opts, "Checkbox option") {
		t.Fatalf("expected resolved input labels, got %v", opts)
	}
}

func TestExtract_FormControlAriaLabelFallback(t *testing.T) {
	d := domtest.Parse(`<html><body>
      <input type="radio" id="r2" aria-label="Aria option">
    </body></html>`)
	e := newExtractor()
	opts := e.formControlOptions(context.Background(), d)
	if !reflect.DeepEqual(opts, []string{"Aria option"}) {
		t.Fatalf("expected aria-label fallback, got %v", opts)
	}
}

func TestExtract_FirstBlockProbe(t *testing.T) {
	// A block with a stem but a detached info container: the broad scan sees
	// the block without answers, the narrow probe still finds the options.
	html := `<html><body>
      <div class="praxis-item"><div class="praxis-desc">Stem</div></div>
      <div class="praxis-info">
        <div class="answer"><span class="answer-title">A</span><span class="answer-desc">first</span></div>
        <div class="answer"><span class="answer-title">B</span><span class="answer-desc">second</span></div>
      </div>
    </body></html>`

	e := newExtractor()
	q, opts := e.firstBlockProbe(context.Background(), domtest.Parse(html))
	if q != "Stem" {
		t.Fatalf("expected probe question, got %q", q)
	}
	want := []string{"A. first", "B. second"}
	if !reflect.DeepEqual(opts, want) {
		t.Fatalf("expected %v, got %v", want, opts)
	}
}

func TestExtract_AccessibilityFallback(t *testing.T) {
	d := domtest.Parse(`<html><body><div>sparse page</div></body></html>`)
	d.AX = &dom.AXNode{
		Role: "WebArea",
		Children: []*dom.AXNode{
			{Role: "radio", Name: "Yes"},
			{Role: "group", Children: []*dom.AXNode{
				{Role: "radio", Name: "No"},
				{Role: "heading", Name: "not an option"},
			}},
			{Role: "button", Name: "Yes"},
		},
	}

	res := newExtractor().Extract(context.Background(), &domtest.Page{MainDoc: d})
	want := []string{"Yes", "No"}
	if !reflect.DeepEqual(res.Options, want) {
		t.Fatalf("expected deduped accessible names %v, got %v", want, res.Options)
	}
}

func TestExtract_FrameMerge(t *testing.T) {
	main := domtest.Parse(`<html><body><main><h1>Main question</h1></main></body></html>`)
	frame1 := domtest.Parse(`<html><body><div>nothing here</div></body></html>`)
	frame2 := domtest.Parse(`<html><body>
      <label>Option one</label>
      <label>Option two</label>
    </body></html>`)
	frame3 := domtest.Parse(`<html><body><label>Option one</label><label>Option three</label></body></html>`)

	page := &domtest.Page{
		MainDoc:   main,
		FrameDocs: []dom.Document{frame1, frame2, frame3},
	}
	res := newExtractor().Extract(context.Background(), page)
	if res.Question != "Main question" {
		t.Fatalf("frame must not override main question, got %q", res.Question)
	}
	// Merge keeps first-seen order across frames and appends only new texts.
	want := []string{"Option one", "Option two", "Option three"}
	if !reflect.DeepEqual(res.Options, want) {
		t.Fatalf("expected merged options %v, got %v", want, res.Options)
	}
}

func TestExtract_FrameItemsAppendWithoutDedup(t *testing.T) {
	block := `<div class="praxis-item">
      <div class="praxis-desc">Same block</div>
      <div class="praxis-info">
        <div class="answer"><span class="answer-title">A</span><span class="answer-desc">x</span></div>
      </div>
    </div>`
	main := domtest.Parse(`<html><body>` + block + `</body></html>`)
	frame := domtest.Parse(`<html><body>` + block + `</body></html>`)

	page := &domtest.Page{MainDoc: main, FrameDocs: []dom.Document{frame}}
	res := newExtractor().Extract(context.Background(), page)
	if len(res.Items) != 2 {
		t.Fatalf("duplicate frame blocks must be kept, got %d items", len(res.Items))
	}
}

func TestExtract_PreviewCollapsedAndBounded(t *testing.T) {
	long := strings.Repeat("word ", 400)
	html := `<html><body><div>  lots   of
      whitespace ` + long + `</div></body></html>`

	res := newExtractor().Extract(context.Background(), singleDocPage(html))
	if len([]rune(res.Preview)) > 800 {
		t.Fatalf("preview exceeds 800 chars: %d", len([]rune(res.Preview)))
	}
	if strings.Contains(res.Preview, "\n") || strings.Contains(res.Preview, "  ") {
		t.Fatalf("preview not whitespace-collapsed: %q", res.Preview[:80])
	}
}

func TestExtract_EmptyDocument(t *testing.T) {
	res := newExtractor().Extract(context.Background(), singleDocPage(""))
	if res.Question != "" || len(res.Options) != 0 || len(res.Items) != 0 {
		t.Fatalf("expected all-empty result, got %+v", res)
	}
}

func TestExtract_PreprocessingRuns(t *testing.T) {
	page := &domtest.PreparablePage{}
	page.MainDoc = domtest.Parse(`<html><body></body></html>`)
	newExtractor().Extract(context.Background(), page)
	if page.Expanded != 1 || page.Scrolled != 1 {
		t.Fatalf("expected expand and scroll once, got %d/%d", page.Expanded, page.Scrolled)
	}
}

func TestCombineAnswer(t *testing.T) {
	cases := []struct {
		title, desc, want string
	}{
		{"A", "3", "A. 3"},
		{"A", "", "A"},
		{"", "3", "3"},
		{"", "", ""},
		{" A ", " 3 ", "A. 3"},
	}
	for _, c := range cases {
		if got := CombineAnswer(c.title, c.desc); got != c.want {
			t.Fatalf("CombineAnswer(%q,%q)=%q want %q", c.title, c.desc, got, c.want)
		}
	}
}

func TestMergeOptions_Monotonic(t *testing.T) {
	existing := []string{"a", "b"}
	got := mergeOptions(existing, []string{"b", "c", "", "a"})
	want := []string{"a", "b", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func contains(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}
