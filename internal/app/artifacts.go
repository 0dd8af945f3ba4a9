package app

import (
	"context"
	"os"
	"path/filepath"

	"github.com/hyperifyio/quizpilot/internal/htmltext"
)

// dumpPage writes the raw markup and a rendered plain-text version next to it,
// so selector problems can be diagnosed without reopening the page.
func (a *App) dumpPage(name, html string) {
	path := a.dumpFile(a.Cfg.LogsDir, name+".html", []byte(html))
	if path == "" {
		return
	}
	a.dumpFile(a.Cfg.LogsDir, name+".txt", []byte(htmltext.Render([]byte(html))))
	a.Log.Info().Str("path", path).Msg("page dump saved")
}

// dumpText writes a plain-text artifact into the logs directory and returns
// its path, or "" on failure.
func (a *App) dumpText(name, text string) string {
	return a.dumpFile(a.Cfg.LogsDir, name, []byte(text))
}

// screenshot captures the page into the screenshots directory and returns the
// path, or "" when the capture failed.
func (a *App) screenshot(ctx context.Context, name string) string {
	dir := a.Cfg.ScreenshotsDir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		a.Log.Warn().Err(err).Str("dir", dir).Msg("screenshot dir")
		return ""
	}
	path := filepath.Join(dir, name)
	if err := a.Driver.Screenshot(ctx, path); err != nil {
		a.Log.Warn().Err(err).Str("path", path).Msg("screenshot failed")
		return ""
	}
	return path
}

func (a *App) dumpFile(dir, name string, data []byte) string {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		a.Log.Warn().Err(err).Str("dir", dir).Msg("artifact dir")
		return ""
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		a.Log.Warn().Err(err).Str("path", path).Msg("artifact write failed")
		return ""
	}
	return path
}
