// Package ocr extracts text from a screenshot when DOM extraction found no
// question at all. It is opt-in and strictly a last resort.
package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"time"
)

// Recognition modes.
const (
	ModeSwiftVision = "swift_vision"
	ModeService     = "service"
)

// Config selects the recognition backend.
type Config struct {
	Mode       string
	ScriptPath string
	ServiceURL string
}

// Client runs OCR on image files.
type Client struct {
	Cfg        Config
	HTTPClient *http.Client
}

// result is the shared reply shape of both backends.
type result struct {
	Text  string `json:"text"`
	Error string `json:"error"`
}

// Run returns the text recognized in the image at path. Failures return an
// empty string with the error; callers treat that as "no text found".
func (c *Client) Run(ctx context.Context, imagePath string) (string, error) {
	if c.Cfg.Mode == ModeService {
		return c.runService(ctx, imagePath)
	}
	return c.runSwiftVision(ctx, imagePath)
}

// runSwiftVision spawns a Swift Vision CLI that prints a JSON result.
func (c *Client) runSwiftVision(ctx context.Context, imagePath string) (string, error) {
	cmd := exec.CommandContext(ctx, "swift", c.Cfg.ScriptPath, imagePath)
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("vision cli: %w", err)
	}
	var res result
	if err := json.Unmarshal(out, &res); err != nil {
		return "", fmt.Errorf("parse vision cli output: %w", err)
	}
	if res.Error != "" {
		return "", fmt.Errorf("vision cli: %s", res.Error)
	}
	return res.Text, nil
}

// runService posts the image to an OCR HTTP endpoint as base64 JSON.
func (c *Client) runService(ctx context.Context, imagePath string) (string, error) {
	img, err := os.ReadFile(imagePath)
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}
	payload, err := json.Marshal(map[string]string{
		"image": base64.StdEncoding.EncodeToString(img),
	})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Cfg.ServiceURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return "", fmt.Errorf("ocr service: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ocr service: unexpected status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read ocr response: %w", err)
	}
	var res result
	if err := json.Unmarshal(body, &res); err != nil {
		return "", fmt.Errorf("parse ocr response: %w", err)
	}
	if res.Error != "" {
		return "", fmt.Errorf("ocr service: %s", res.Error)
	}
	return res.Text, nil
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: 20 * time.Second}
}
