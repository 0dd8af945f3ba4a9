package browser

import (
	"context"

	"github.com/playwright-community/playwright-go"
)

// expandTriggers are texts commonly used by exam pages to hide the full
// passage behind a tap target. Chinese variants first since the pages this
// targets are predominantly zh-CN.
var expandTriggers = []string{
	"text=查看原文",
	"text=展开",
	"text=展开全文",
	"text=显示全文",
	"text=原文",
	"text=more",
	"text=show more",
}

const autoScrollScript = `
async () => {
  const delay = ms => new Promise(r => setTimeout(r, ms));
  const total = document.body.scrollHeight;
  const step = Math.max(300, Math.floor(total / 6));
  for (let y = 0; y <= total; y += step) {
    window.scrollTo(0, y);
    await delay(120);
  }
  window.scrollTo(0, 0);
}`

const dismissPopupsScript = `
(() => {
  const hide = (sel) => document.querySelectorAll(sel).forEach(el => {
    el.style.display = 'none';
    el.style.visibility = 'hidden';
    el.style.pointerEvents = 'none';
  });
  hide('.van-overlay, .van-popup, .van-dialog, .van-toast, .word-pop, .word-popup, .popover, [class*="popup"], [role="dialog"]');
  const closeBtns = document.querySelectorAll('.van-action-sheet__close, .van-popup__close-icon, .van-dialog__confirm, .van-dialog__cancel, .popup-close');
  closeBtns.forEach(btn => { try { btn.click(); } catch (e) {} });
})();`

// ExpandCollapsed clicks any known expand/show-original trigger present on
// the page so collapsed passages become readable. Each click is best effort;
// a trigger that refuses to click is skipped.
func (c *Controller) ExpandCollapsed(ctx context.Context) {
	if c.page == nil || ctx.Err() != nil {
		return
	}
	for _, sel := range expandTriggers {
		loc := c.page.Locator(sel)
		n, err := loc.Count()
		if err != nil || n == 0 {
			continue
		}
		if err := loc.First().Click(playwright.LocatorClickOptions{
			Timeout: playwright.Float(2000),
		}); err != nil {
			continue
		}
		c.page.WaitForTimeout(300)
	}
}

// AutoScroll walks the viewport down the page and back to trigger lazy
// rendering and list virtualization before extraction.
func (c *Controller) AutoScroll(ctx context.Context) {
	if c.page == nil || ctx.Err() != nil {
		return
	}
	if _, err := c.page.Evaluate(autoScrollScript); err != nil {
		c.log.Debug().Err(err).Msg("auto scroll failed")
	}
}

// DismissPopups force-hides overlays and presses their close buttons.
// Mobile-web exam apps throw word-lookup popups and dialogs over the options
// after accidental taps; clicks go nowhere until they are gone.
func (c *Controller) DismissPopups(ctx context.Context) {
	if c.page == nil || ctx.Err() != nil {
		return
	}
	if _, err := c.page.Evaluate(dismissPopupsScript); err != nil {
		c.log.Debug().Err(err).Msg("popup dismissal failed")
	}
}
