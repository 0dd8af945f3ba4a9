// Package app wires the browser, extractor, model client and OCR fallback
// into the interactive answering loop: the operator navigates to a question
// page, the app reads it, asks the model, clicks the chosen options and
// reports a per-page summary.
package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"

	"github.com/hyperifyio/quizpilot/internal/answer"
	"github.com/hyperifyio/quizpilot/internal/browser"
	"github.com/hyperifyio/quizpilot/internal/click"
	"github.com/hyperifyio/quizpilot/internal/dom"
	"github.com/hyperifyio/quizpilot/internal/extract"
	"github.com/hyperifyio/quizpilot/internal/llm"
	"github.com/hyperifyio/quizpilot/internal/ocr"
)

// stemPreviewLimit bounds how much page preview stands in for a missing stem.
const stemPreviewLimit = 300

// Driver is the browser surface the answering loop actuates. It is satisfied
// by *browser.Controller and faked in tests.
type Driver interface {
	DismissPopups(ctx context.Context)
	ClickOption(ctx context.Context, locator string) error
	ClickBlockOption(ctx context.Context, index int, optionText string) (bool, error)
	Screenshot(ctx context.Context, path string) error
	HTML(ctx context.Context) (string, error)
}

// App holds the assembled components. Start fills the runtime fields; tests
// assemble them directly.
type App struct {
	Cfg Config
	Log zerolog.Logger

	Driver    Driver
	Page      dom.Page
	Extractor *extract.Extractor
	Answerer  *answer.Answerer
	OCR       *ocr.Client

	// Prompt blocks until the operator confirms; an error ends the session.
	Prompt func(msg string) error
	Out    io.Writer

	ctrl *browser.Controller
}

func New(cfg Config, log zerolog.Logger) *App {
	return &App{
		Cfg:       cfg,
		Log:       log,
		Extractor: extract.New(log),
		Prompt:    stdinPrompt,
		Out:       os.Stdout,
	}
}

// Start launches the browser and connects the model client. The model
// connectivity check is best effort: a backend without a model listing
// endpoint still works for completions.
func (a *App) Start(ctx context.Context) error {
	ctrl := browser.New(browser.Config{
		Browser:        a.Cfg.Browser,
		Headless:       a.Cfg.Headless,
		UserDataDir:    a.Cfg.UserDataDir,
		DefaultTimeout: a.Cfg.DefaultTimeout,
		StartURL:       a.Cfg.StartURL,
	}, a.Log)
	if err := ctrl.Start(ctx); err != nil {
		return err
	}
	a.ctrl = ctrl
	a.Driver = ctrl
	a.Page = ctrl.Page()

	occfg := openai.DefaultConfig(a.Cfg.LLMAPIKey)
	if a.Cfg.LLMBaseURL != "" {
		occfg.BaseURL = a.Cfg.LLMBaseURL
	}
	provider := &llm.OpenAIProvider{Inner: openai.NewClientWithConfig(occfg)}
	a.Answerer = &answer.Answerer{
		Client:      provider,
		Model:       a.Cfg.LLMModel,
		Temperature: a.Cfg.LLMTemperature,
		MaxTokens:   a.Cfg.LLMMaxTokens,
		Log:         a.Log,
	}
	if lister, ok := a.Answerer.Client.(llm.ModelLister); ok {
		if _, err := lister.ListModels(ctx); err != nil {
			a.Log.Warn().Err(err).Msg("model listing preflight failed; continuing")
		}
	}

	a.OCR = &ocr.Client{Cfg: ocr.Config{
		Mode:       a.Cfg.OCRMode,
		ScriptPath: a.Cfg.OCRScriptPath,
		ServiceURL: a.Cfg.OCRServiceURL,
	}}
	return nil
}

// Close shuts the browser down. Safe after a failed Start.
func (a *App) Close() {
	if a.ctrl != nil {
		a.ctrl.Stop()
		a.ctrl = nil
	}
}

// Run drives question rounds until the operator closes the browser window or
// ends input.
func (a *App) Run(ctx context.Context) error {
	for {
		err := a.handleQuestionPage(ctx)
		switch {
		case err == nil:
		case errors.Is(err, browser.ErrClosed), errors.Is(err, io.EOF):
			a.Log.Info().Msg("session ended")
			return nil
		default:
			return err
		}
		if err := a.Prompt("按回车开始下一题（直接关闭浏览器窗口则结束）…"); err != nil {
			a.Log.Info().Msg("session ended")
			return nil
		}
	}
}

// handleQuestionPage runs one full round: wait for the operator, extract,
// answer, click, summarize.
func (a *App) handleQuestionPage(ctx context.Context) error {
	a.Driver.DismissPopups(ctx)
	if err := a.Prompt("请手动在浏览器中打开题目页面，准备好后按回车继续…"); err != nil {
		return io.EOF
	}
	a.Driver.DismissPopups(ctx)

	res := a.Extractor.Extract(ctx, a.Page)
	question := strings.TrimSpace(res.Question)
	options := res.Options
	preview := res.Preview
	items := res.Items
	a.Log.Info().
		Int("question_len", len(question)).
		Int("options", len(options)).
		Int("items", len(items)).
		Str("preview", headRunes(preview, 200)).
		Msg("page parsed")

	// Always keep the latest markup around; multi-question and fill-in pages
	// are diagnosed from these dumps.
	html, err := a.Driver.HTML(ctx)
	if err != nil {
		if browser.Closed(err) {
			return browser.ErrClosed
		}
		a.Log.Warn().Err(err).Msg("page dump failed")
	} else {
		a.dumpPage("page_dump_debug", html)
	}

	if len(options) == 0 && len(items) == 0 {
		if html != "" {
			a.dumpPage("page_dump", html)
		}
		shot := a.screenshot(ctx, "no_options.png")
		a.Log.Warn().Str("screenshot", shot).Msg("no options recognized; treating as fill-in")
	}

	if question == "" && preview != "" {
		question = headRunes(preview, stemPreviewLimit)
		a.Log.Info().Int("text_len", len(question)).Msg("using page preview as stem")
	}
	if question == "" && a.Cfg.OCREnabled {
		question = a.ocrStem(ctx, "ocr_fallback.png")
	}
	if question == "" {
		path := a.dumpText("page_dump.txt", preview)
		a.Log.Warn().Str("dump", path).Msg("no question stem recognized")
		return nil
	}

	tasks := items
	if len(tasks) == 0 {
		tasks = []extract.QuestionBlock{{Question: question, Options: options, Preview: preview}}
	}

	batch := a.askBatch(ctx, tasks, preview)

	var summary []string
	for i, task := range tasks {
		idx := i + 1
		q := a.resolveStem(ctx, idx, task, preview)
		if q == "" {
			path := a.dumpText(fmt.Sprintf("page_dump_%d.txt", idx), preview)
			a.Log.Warn().Int("idx", idx).Str("dump", path).Msg("no stem for block; skipping")
			continue
		}

		ans, ok := batch[i]
		if !ok {
			var err error
			ans, err = a.Answerer.Ask(ctx, answer.Question{
				Question: q,
				Options:  task.Options,
				Type:     answer.TypeOf(task.Options),
			})
			if err != nil {
				a.Log.Error().Err(err).Int("idx", idx).Msg("model answer failed")
				continue
			}
		}

		fmt.Fprintf(a.Out, "【题干】第%d题：%s\n", idx, q)
		if len(task.Options) > 0 {
			fmt.Fprintf(a.Out, "【选项】%s\n", strings.Join(task.Options, " | "))
		}
		fmt.Fprintf(a.Out, "【答案】第%d题：%s\n", idx, ans.Display())

		if ans.IsChoice() && len(task.Options) > 0 {
			a.clickAnswer(ctx, i, len(items) > 0, ans.Choices[0])
		}
		summary = append(summary, fmt.Sprintf("第%d题：%s", idx, summaryLabel(ans)))
	}

	a.screenshot(ctx, "after.png")
	if len(summary) > 0 {
		fmt.Fprintf(a.Out, "【本页答案汇总】%s\n", strings.Join(summary, "； "))
	}
	return nil
}

// resolveStem produces the stem for one block, degrading from the block's own
// question to its preview, the page preview, and finally OCR.
func (a *App) resolveStem(ctx context.Context, idx int, task extract.QuestionBlock, pagePreview string) string {
	q := strings.TrimSpace(task.Question)
	if q != "" {
		return q
	}
	if len(task.Options) == 0 {
		a.Log.Warn().Int("idx", idx).Msg("block has no options; treating as fill-in")
	}
	if task.Preview != "" {
		q = headRunes(task.Preview, stemPreviewLimit)
		a.Log.Info().Int("idx", idx).Int("text_len", len(q)).Msg("using block preview as stem")
		return q
	}
	if pagePreview != "" {
		q = headRunes(pagePreview, stemPreviewLimit)
		a.Log.Info().Int("idx", idx).Int("text_len", len(q)).Msg("using page preview as stem")
		return q
	}
	if a.Cfg.OCREnabled {
		return a.ocrStem(ctx, fmt.Sprintf("ocr_fallback_%d.png", idx))
	}
	return ""
}

// askBatch answers all blocks of a multi-question page in one model call.
// Partial and failed batches degrade to per-question asks by the caller.
func (a *App) askBatch(ctx context.Context, tasks []extract.QuestionBlock, pagePreview string) map[int]answer.Answer {
	if len(tasks) < 2 {
		return nil
	}
	qs := make([]answer.Question, 0, len(tasks))
	for _, t := range tasks {
		q := strings.TrimSpace(t.Question)
		if q == "" {
			src := t.Preview
			if src == "" {
				src = pagePreview
			}
			q = headRunes(src, stemPreviewLimit)
		}
		qs = append(qs, answer.Question{
			Question: q,
			Options:  t.Options,
			Type:     answer.TypeOf(t.Options),
		})
	}
	out, err := a.Answerer.AskBatch(ctx, qs)
	if err != nil {
		a.Log.Warn().Err(err).Msg("batch answer failed; falling back to per-question asks")
		return nil
	}
	if len(out) < len(tasks) {
		// Keep the payload around so prompt or contract regressions can be
		// diagnosed from the partial round.
		if b, err := json.MarshalIndent(qs, "", "  "); err == nil {
			path := a.dumpText("llm_batch_debug.json", string(b))
			a.Log.Warn().Int("answered", len(out)).Int("blocks", len(tasks)).Str("dump", path).Msg("partial batch answer")
		}
		return out
	}
	a.Log.Info().Int("answered", len(out)).Int("blocks", len(tasks)).Msg("batch answered")
	return out
}

// clickAnswer actuates the first chosen option: a block-scoped click when the
// page had structured blocks, otherwise (or when the scoped click matches
// nothing) the best generic text locator.
func (a *App) clickAnswer(ctx context.Context, blockIdx int, scoped bool, optionText string) {
	if scoped {
		clicked, err := a.Driver.ClickBlockOption(ctx, blockIdx, optionText)
		if err != nil {
			a.Log.Warn().Err(err).Int("idx", blockIdx+1).Msg("scoped click failed")
		}
		if clicked {
			a.Log.Info().Int("idx", blockIdx+1).Str("option", optionText).Msg("clicked in block")
			return
		}
	}
	best, ok := click.SelectBest(click.BuildTextLocators(optionText))
	if !ok {
		return
	}
	if err := a.Driver.ClickOption(ctx, best.Locator); err != nil {
		a.Log.Warn().Err(err).Str("locator", best.Locator).Msg("click failed")
		return
	}
	a.Log.Info().Str("locator", best.Locator).Msg("clicked")
}

// ocrStem screenshots the page and reads the stem off the image.
func (a *App) ocrStem(ctx context.Context, name string) string {
	path := a.screenshot(ctx, name)
	if path == "" {
		return ""
	}
	text, err := a.OCR.Run(ctx, path)
	if err != nil {
		a.Log.Warn().Err(err).Msg("ocr fallback failed")
		return ""
	}
	a.Log.Info().Int("text_len", len(text)).Msg("stem recovered via ocr")
	return strings.TrimSpace(text)
}

func summaryLabel(a answer.Answer) string {
	if !a.IsChoice() {
		return a.Text
	}
	labels := make([]string, 0, len(a.Choices))
	for _, c := range a.Choices {
		labels = append(labels, labelOf(c))
	}
	return strings.Join(labels, "、")
}

// labelOf reduces an option text like "A. 4" to its letter prefix for the
// per-page summary; texts without a short leading label pass through whole.
func labelOf(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return s
	}
	head := strings.TrimRight(fields[0], ".")
	if head != "" && utf8.RuneCountInString(head) <= 3 && isAlpha(head) {
		return head
	}
	return s
}

func isAlpha(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

func headRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func stdinPrompt(msg string) error {
	fmt.Print(msg)
	var buf [1]byte
	for {
		n, err := os.Stdin.Read(buf[:])
		if err != nil {
			return err
		}
		if n > 0 && buf[0] == '\n' {
			return nil
		}
	}
}
