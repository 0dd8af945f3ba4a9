package browser

import (
	"context"
	"fmt"

	"github.com/playwright-community/playwright-go"

	"github.com/hyperifyio/quizpilot/internal/click"
	"github.com/hyperifyio/quizpilot/internal/extract"
)

// ClickOption clicks the first element matched by locator, escalating
// through progressively more forceful strategies: a plain click, then a
// handle click with an explicit scroll, then a forced click. Only the final
// attempt's error is reported.
func (c *Controller) ClickOption(ctx context.Context, locator string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.DismissPopups(ctx)

	loc := c.page.Locator(locator).First()

	// Best-effort wait; an invisible element may still be force-clickable.
	_ = loc.WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: playwright.Float(3000),
	})

	if err := loc.Click(playwright.LocatorClickOptions{
		Timeout: playwright.Float(6000),
	}); err == nil {
		return nil
	}

	if handle, err := loc.ElementHandle(); err == nil && handle != nil {
		_ = handle.ScrollIntoViewIfNeeded()
		if err := handle.Click(playwright.ElementHandleClickOptions{
			Timeout: playwright.Float(6000),
			Force:   playwright.Bool(true),
		}); err == nil {
			return nil
		}
	}

	if err := loc.Click(playwright.LocatorClickOptions{
		Timeout: playwright.Float(6000),
		Force:   playwright.Bool(true),
	}); err != nil {
		return fmt.Errorf("click %q: %w", locator, translate(err))
	}
	return nil
}

// ClickBlockOption clicks the answer matching optionText inside the
// structured question block at index (0-based). Candidate answers are
// compared by fuzzy containment over their combined, title and description
// texts; a matching answer that refuses both a normal and a forced click is
// skipped in favour of the next match. Returns whether anything was clicked.
func (c *Controller) ClickBlockOption(ctx context.Context, index int, optionText string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	c.DismissPopups(ctx)

	item := c.page.Locator(extract.BlockSelector).Nth(index)
	answers := item.Locator(extract.BlockAnswerSelector)
	count, err := answers.Count()
	if err != nil {
		return false, translate(err)
	}
	for i := 0; i < count; i++ {
		ans := answers.Nth(i)
		cand := click.Answer{
			Title: textOrEmpty(ans.Locator(extract.AnswerTitleSelector)),
			Desc:  textOrEmpty(ans.Locator(extract.AnswerDescSelector)),
		}
		if !click.Matches(optionText, cand) {
			continue
		}
		_ = ans.ScrollIntoViewIfNeeded()
		if err := ans.Click(playwright.LocatorClickOptions{
			Timeout: playwright.Float(6000),
		}); err == nil {
			return true, nil
		}
		if err := ans.Click(playwright.LocatorClickOptions{
			Timeout: playwright.Float(6000),
			Force:   playwright.Bool(true),
		}); err == nil {
			return true, nil
		}
		c.log.Debug().Int("block", index).Int("answer", i).Msg("matched answer refused click")
	}
	return false, nil
}

// Fill types text into the element matched by locator, for fill-in answers.
func (c *Controller) Fill(ctx context.Context, locator, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := c.page.Locator(locator).Fill(text); err != nil {
		return fmt.Errorf("fill %q: %w", locator, translate(err))
	}
	return nil
}

// Screenshot writes a full-page capture to path.
func (c *Controller) Screenshot(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := c.page.Screenshot(playwright.PageScreenshotOptions{
		Path:     playwright.String(path),
		FullPage: playwright.Bool(true),
	}); err != nil {
		return fmt.Errorf("screenshot: %w", translate(err))
	}
	return nil
}

// HTML returns the current page markup.
func (c *Controller) HTML(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	html, err := c.page.Content()
	if err != nil {
		return "", translate(err)
	}
	return html, nil
}

func textOrEmpty(loc playwright.Locator) string {
	t, err := loc.TextContent(playwright.LocatorTextContentOptions{
		Timeout: playwright.Float(2000),
	})
	if err != nil {
		return ""
	}
	return t
}
