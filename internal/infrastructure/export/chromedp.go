package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

const (
	defaultChromeTimeout = 30 * time.Second
	a4WidthMM            = 210
	a4HeightMM           = 297
	marginMM             = 12
)

// ChromedpConfig contains configuration for the chromedp renderer
type ChromedpConfig struct {
	// Timeout bounds one rendering
	Timeout time.Duration
	// RemoteURL is the DevTools URL of a running Chrome. Empty launches one.
	RemoteURL string
	// NoSandbox runs Chrome without sandbox (required for Docker/root)
	NoSandbox bool
	Logger    *zap.Logger
}

// ChromedpRenderer prints an HTML statement to PDF through Chrome DevTools
type ChromedpRenderer struct {
	config      ChromedpConfig
	labels      *Labeler
	logger      *zap.Logger
	tmpl        *template.Template
	allocCtx    context.Context
	allocCancel context.CancelFunc
}

// NewChromedpRenderer creates the renderer and its browser allocator. The
// browser itself starts lazily on the first render.
func NewChromedpRenderer(cfg ChromedpConfig, labels *Labeler) (*ChromedpRenderer, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultChromeTimeout
	}
	if labels == nil {
		labels = NewLabeler("en")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := &ChromedpRenderer{config: cfg, labels: labels, logger: logger}
	tmpl, err := template.New("statement").Funcs(template.FuncMap{
		"date":   labels.Date,
		"amount": labels.Amount,
		"status": labels.Status,
	}).Parse(statementHTML)
	if err != nil {
		return nil, fmt.Errorf("parse statement template: %w", err)
	}
	r.tmpl = tmpl

	if cfg.RemoteURL != "" {
		r.allocCtx, r.allocCancel = chromedp.NewRemoteAllocator(context.Background(), cfg.RemoteURL)
		return r, nil
	}
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-dev-shm-usage", true), // Docker
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("font-render-hinting", "none"),
	)
	if cfg.NoSandbox {
		opts = append(opts, chromedp.Flag("no-sandbox", true))
	}
	r.allocCtx, r.allocCancel = chromedp.NewExecAllocator(context.Background(), opts...)
	return r, nil
}

// HTML renders the statement page that gets printed
func (r *ChromedpRenderer) HTML(doc Document) (string, error) {
	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, doc); err != nil {
		return "", renderError(FormatPDF, "failed to build statement HTML", err)
	}
	return buf.String(), nil
}

// Render prints the statement to PDF
func (r *ChromedpRenderer) Render(ctx context.Context, doc Document) ([]byte, error) {
	html, err := r.HTML(doc)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, r.config.Timeout)
	defer cancel()

	browserCtx, browserCancel := chromedp.NewContext(r.allocCtx,
		chromedp.WithLogf(func(format string, args ...any) {
			r.logger.Debug(fmt.Sprintf(format, args...))
		}),
	)
	defer browserCancel()

	// Tie the browser tab to the caller's deadline
	stop := context.AfterFunc(ctx, browserCancel)
	defer stop()

	var pdf []byte
	err = chromedp.Run(browserCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			frameTree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(frameTree.Frame.ID, html).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			data, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(mmToInches(a4WidthMM)).
				WithPaperHeight(mmToInches(a4HeightMM)).
				WithMarginTop(mmToInches(marginMM)).
				WithMarginRight(mmToInches(marginMM)).
				WithMarginBottom(mmToInches(marginMM)).
				WithMarginLeft(mmToInches(marginMM)).
				Do(ctx)
			if err != nil {
				return err
			}
			pdf = data
			return nil
		}),
	)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, renderError(FormatPDF, fmt.Sprintf("rendering timed out after %v", r.config.Timeout), err)
		}
		r.logger.Error("chromedp rendering failed", zap.Error(err))
		return nil, renderError(FormatPDF, "chromedp execution failed", err)
	}
	if len(pdf) == 0 {
		return nil, renderError(FormatPDF, "generated PDF is empty", nil)
	}

	r.logger.Debug("statement rendered",
		zap.Int("bytes", len(pdf)),
		zap.Int("rows", len(doc.Rows)),
		zap.Duration("duration", time.Since(start)),
	)
	return pdf, nil
}

// Close releases the browser allocator
func (r *ChromedpRenderer) Close() error {
	if r.allocCancel != nil {
		r.allocCancel()
	}
	return nil
}

func mmToInches(mm float64) float64 {
	return mm / 25.4
}

const statementHTML = `<!DOCTYPE html>
<html><head><meta charset="UTF-8"><title>{{.Title}}</title>
<style>
body { font-family: Helvetica, Arial, sans-serif; font-size: 10px; color: #222; }
h1 { font-size: 18px; margin: 0 0 4px 0; }
.meta { color: #666; margin-bottom: 12px; }
table { width: 100%; border-collapse: collapse; }
th { text-align: left; border-bottom: 1px solid #999; padding: 4px; }
td { border-bottom: 1px solid #eee; padding: 4px; }
.num { text-align: right; }
</style></head>
<body>
<h1>{{.Title}}</h1>
<div class="meta">{{.Company}} &middot; {{.Period}} &middot; {{.Currency}} &middot; generated {{date .GeneratedAt}}</div>
<table>
<thead><tr><th>Type</th><th>Date</th><th>Description</th><th class="num">Amount</th><th class="num">Status</th></tr></thead>
<tbody>
{{- range .Rows}}
<tr><td>{{.Type}}</td><td>{{date .Date}}</td><td>{{.Description}}</td><td class="num">{{amount (.Money $.Currency)}}</td><td class="num">{{status .Status}}</td></tr>
{{- end}}
</tbody>
</table>
<p class="meta">{{len .Rows}} transactions</p>
</body></html>
`
