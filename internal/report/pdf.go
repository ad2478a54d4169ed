package report

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// ErrRendererUnavailable is returned when PDF output is disabled or no
// browser binary can be found
var ErrRendererUnavailable = errors.New("pdf renderer unavailable")

// DefaultPDFTimeout bounds a single render
const DefaultPDFTimeout = 30 * time.Second

var chromeNames = []string{"google-chrome", "google-chrome-stable", "chromium", "chromium-browser", "headless-shell"}

// PDFRenderer prints HTML to PDF through a headless Chrome
type PDFRenderer struct {
	Enabled    bool
	ChromePath string
	Timeout    time.Duration

	lookPath func(string) (string, error)
}

// NewPDFRenderer creates a renderer; an empty chromePath searches PATH
func NewPDFRenderer(enabled bool, chromePath string, timeout time.Duration) *PDFRenderer {
	if timeout <= 0 {
		timeout = DefaultPDFTimeout
	}
	return &PDFRenderer{Enabled: enabled, ChromePath: chromePath, Timeout: timeout, lookPath: exec.LookPath}
}

// Browser returns the browser binary to use or ErrRendererUnavailable
func (p *PDFRenderer) Browser() (string, error) {
	if p == nil || !p.Enabled {
		return "", fmt.Errorf("%w: pdf output is disabled", ErrRendererUnavailable)
	}
	look := p.lookPath
	if look == nil {
		look = exec.LookPath
	}
	if p.ChromePath != "" {
		path, err := look(p.ChromePath)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrRendererUnavailable, err)
		}
		return path, nil
	}
	for _, name := range chromeNames {
		if path, err := look(name); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w: no chrome or chromium binary on PATH", ErrRendererUnavailable)
}

// Render prints the given HTML document to PDF bytes
func (p *PDFRenderer) Render(ctx context.Context, html string) ([]byte, error) {
	browser, err := p.Browser()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.ExecPath(browser),
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	defer allocCancel()

	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	defer browserCancel()

	var pdf []byte
	err = chromedp.Run(browserCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, html).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			pdf, _, err = page.PrintToPDF().WithPrintBackground(true).Do(ctx)
			return err
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("print pdf: %w", err)
	}
	return pdf, nil
}
