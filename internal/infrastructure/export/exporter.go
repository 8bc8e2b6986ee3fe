package export

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/fincore/internal/infrastructure/config"
	"go.uber.org/zap"
)

// PDF engines
const (
	EngineMaroto   = "maroto"
	EngineChromedp = "chromedp"
)

// Exporter dispatches a document to the renderer of the requested format
type Exporter struct {
	renderers map[Format]Renderer
	company   string
	logger    *zap.Logger
	closers   []func() error
}

// NewExporter wires the CSV, Excel and configured PDF renderers
func NewExporter(cfg config.ExportConfig, logger *zap.Logger) (*Exporter, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	labels := NewLabeler("en")
	e := &Exporter{
		renderers: map[Format]Renderer{
			FormatCSV:   NewCSVRenderer(),
			FormatExcel: NewExcelRenderer(labels),
		},
		company: cfg.CompanyName,
		logger:  logger,
	}

	switch cfg.PDFEngine {
	case EngineChromedp:
		r, err := NewChromedpRenderer(ChromedpConfig{
			Timeout:   cfg.RenderTimeout,
			RemoteURL: cfg.ChromeRemoteURL,
			NoSandbox: cfg.ChromeNoSandbox,
			Logger:    logger.Named("chromedp"),
		}, labels)
		if err != nil {
			return nil, err
		}
		e.renderers[FormatPDF] = r
		e.closers = append(e.closers, r.Close)
	case EngineMaroto, "":
		e.renderers[FormatPDF] = NewMarotoRenderer(labels)
	default:
		return nil, fmt.Errorf("unknown pdf engine %q", cfg.PDFEngine)
	}
	return e, nil
}

// NewExporterWith creates an exporter from explicit renderers
func NewExporterWith(company string, renderers map[Format]Renderer) *Exporter {
	return &Exporter{renderers: renderers, company: company, logger: zap.NewNop()}
}

// Company returns the name printed on PDF and Excel statements
func (e *Exporter) Company() string {
	return e.company
}

// Export renders doc in format f
func (e *Exporter) Export(ctx context.Context, f Format, doc Document) (File, error) {
	r, ok := e.renderers[f]
	if !ok {
		return File{}, fmt.Errorf("unsupported export format %q", f)
	}
	if doc.Company == "" {
		doc.Company = e.company
	}
	if doc.GeneratedAt.IsZero() {
		doc.GeneratedAt = time.Now().UTC()
	}

	data, err := r.Render(ctx, doc)
	if err != nil {
		return File{}, err
	}
	return File{
		Name:        doc.FileName(f),
		ContentType: f.ContentType(),
		Format:      f,
		Data:        data,
	}, nil
}

// Close releases renderer resources such as a browser allocator
func (e *Exporter) Close() error {
	for _, c := range e.closers {
		if err := c(); err != nil {
			e.logger.Warn("failed to close renderer", zap.Error(err))
		}
	}
	return nil
}
