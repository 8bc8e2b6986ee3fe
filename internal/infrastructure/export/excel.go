package export

import (
	"context"

	"github.com/xuri/excelize/v2"
)

const excelSheet = "Statement"

// ExcelRenderer writes the statement as a single-sheet workbook. Amounts are
// numeric cells so the sheet can be summed.
type ExcelRenderer struct {
	labels *Labeler
}

// NewExcelRenderer creates a new ExcelRenderer
func NewExcelRenderer(labels *Labeler) *ExcelRenderer {
	if labels == nil {
		labels = NewLabeler("en")
	}
	return &ExcelRenderer{labels: labels}
}

// Render generates the xlsx bytes
func (r *ExcelRenderer) Render(ctx context.Context, doc Document) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", excelSheet); err != nil {
		return nil, renderError(FormatExcel, "failed to name sheet", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, renderError(FormatExcel, "failed to create header style", err)
	}
	money, err := f.NewStyle(&excelize.Style{NumFmt: 4}) // #,##0.00
	if err != nil {
		return nil, renderError(FormatExcel, "failed to create amount style", err)
	}
	wholeMoney, err := f.NewStyle(&excelize.Style{NumFmt: 3}) // #,##0
	if err != nil {
		return nil, renderError(FormatExcel, "failed to create amount style", err)
	}

	header := make([]any, len(Header))
	for i, h := range Header {
		header[i] = h
	}
	if err := f.SetSheetRow(excelSheet, "A1", &header); err != nil {
		return nil, renderError(FormatExcel, "failed to write header", err)
	}
	if err := f.SetCellStyle(excelSheet, "A1", "E1", bold); err != nil {
		return nil, renderError(FormatExcel, "failed to style header", err)
	}

	for i, row := range doc.Rows {
		if i%500 == 0 && ctx.Err() != nil {
			return nil, renderError(FormatExcel, "cancelled", ctx.Err())
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, renderError(FormatExcel, "invalid cell", err)
		}
		m := row.Money(doc.Currency).Rounded()
		amount, _ := m.Amount().Float64()
		values := []any{
			row.Type,
			r.labels.Date(row.Date),
			row.Description,
			amount,
			r.labels.Status(row.Status),
		}
		if err := f.SetSheetRow(excelSheet, cell, &values); err != nil {
			return nil, renderError(FormatExcel, "failed to write row", err)
		}
		amountCell, _ := excelize.CoordinatesToCellName(4, i+2)
		style := money
		if m.Currency().MinorUnits() == 0 {
			style = wholeMoney
		}
		if err := f.SetCellStyle(excelSheet, amountCell, amountCell, style); err != nil {
			return nil, renderError(FormatExcel, "failed to style amount", err)
		}
	}

	_ = f.SetColWidth(excelSheet, "A", "B", 14)
	_ = f.SetColWidth(excelSheet, "C", "C", 48)
	_ = f.SetColWidth(excelSheet, "D", "E", 16)
	_ = f.SetPanes(excelSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, renderError(FormatExcel, "failed to write workbook", err)
	}
	return buf.Bytes(), nil
}
