// Package export renders statement rows into downloadable files.
//
// CSV is the canonical format. PDF and Excel render exactly the same rows.
//
// PDF rendering has two engines:
//   - maroto (default): pure Go, no external process
//   - chromedp: prints an HTML statement through a headless Chrome
package export

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/erp/fincore/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// Format identifies an export file format
type Format string

const (
	FormatCSV   Format = "csv"
	FormatPDF   Format = "pdf"
	FormatExcel Format = "excel"
)

// ParseFormat normalises and validates a requested format
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatPDF, FormatExcel:
		return f, nil
	case "xlsx":
		return FormatExcel, nil
	}
	return "", fmt.Errorf("unsupported export format %q", s)
}

// ContentType returns the MIME type of the format
func (f Format) ContentType() string {
	switch f {
	case FormatPDF:
		return "application/pdf"
	case FormatExcel:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// Extension returns the file extension of the format, without the dot
func (f Format) Extension() string {
	if f == FormatExcel {
		return "xlsx"
	}
	return string(f)
}

// Header is the canonical column order of every export
var Header = []string{"Type", "Date", "Description", "Amount", "Status"}

// Row is one statement line
type Row struct {
	Type        string
	Date        time.Time
	Description string
	Amount      decimal.Decimal
	Currency    string // empty means the document currency
	Status      string
}

// Money returns the row amount in its own currency, or in fallback when the
// row carries none
func (r Row) Money(fallback string) valueobject.Money {
	code := r.Currency
	if code == "" {
		code = fallback
	}
	return valueobject.MoneyOf(r.Amount, valueobject.ParseCurrency(code))
}

// Document is the row set handed to a renderer
type Document struct {
	Title       string
	Company     string
	Currency    string
	From        time.Time // zero when open
	To          time.Time // zero when open
	GeneratedAt time.Time
	Rows        []Row
}

// Period returns a human readable description of the document window
func (d Document) Period() string {
	switch {
	case d.From.IsZero() && d.To.IsZero():
		return "All time"
	case d.From.IsZero():
		return "Until " + d.To.Format(time.DateOnly)
	case d.To.IsZero():
		return "Since " + d.From.Format(time.DateOnly)
	}
	return d.From.Format(time.DateOnly) + " to " + d.To.Format(time.DateOnly)
}

// FileName returns the download name of the document in format f
func (d Document) FileName(f Format) string {
	return fmt.Sprintf("statement-%s.%s", d.GeneratedAt.UTC().Format("20060102-150405"), f.Extension())
}

// File is a rendered export
type File struct {
	Name        string
	ContentType string
	Format      Format
	Data        []byte
}

// Renderer turns a document into file bytes
type Renderer interface {
	Render(ctx context.Context, doc Document) ([]byte, error)
}

// RenderError represents a failure while rendering a document
type RenderError struct {
	Format  Format
	Message string
	Cause   error
}

func (e *RenderError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s export: %s: %v", e.Format, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s export: %s", e.Format, e.Message)
}

func (e *RenderError) Unwrap() error {
	return e.Cause
}

func renderError(f Format, message string, cause error) *RenderError {
	return &RenderError{Format: f, Message: message, Cause: cause}
}
