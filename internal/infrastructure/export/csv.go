package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"time"
)

// CSVRenderer writes the canonical CSV statement
type CSVRenderer struct{}

// NewCSVRenderer creates a new CSVRenderer
func NewCSVRenderer() *CSVRenderer {
	return &CSVRenderer{}
}

// Render writes the header and one record per row. Amounts are rounded to
// their currency's minor unit without grouping so the file can be re-imported.
func (r *CSVRenderer) Render(ctx context.Context, doc Document) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(Header); err != nil {
		return nil, renderError(FormatCSV, "failed to write header", err)
	}
	for i, row := range doc.Rows {
		if i%500 == 0 && ctx.Err() != nil {
			return nil, renderError(FormatCSV, "cancelled", ctx.Err())
		}
		record := []string{
			row.Type,
			row.Date.UTC().Format(time.DateOnly),
			row.Description,
			row.Money(doc.Currency).Rounded().StringFixed(),
			row.Status,
		}
		if err := w.Write(record); err != nil {
			return nil, renderError(FormatCSV, "failed to write row", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, renderError(FormatCSV, "failed to flush", err)
	}
	return buf.Bytes(), nil
}
