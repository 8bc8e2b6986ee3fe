package export

import (
	"context"
	"fmt"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

// MarotoRenderer lays the statement out as a PDF table in pure Go
type MarotoRenderer struct {
	labels *Labeler
}

// NewMarotoRenderer creates a new MarotoRenderer
func NewMarotoRenderer(labels *Labeler) *MarotoRenderer {
	if labels == nil {
		labels = NewLabeler("en")
	}
	return &MarotoRenderer{labels: labels}
}

// Render generates the PDF bytes
func (r *MarotoRenderer) Render(ctx context.Context, doc Document) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(12,
		text.NewCol(8, doc.Title, props.Text{
			Size:  16,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
		text.NewCol(4, doc.Company, props.Text{
			Size:  10,
			Style: fontstyle.Bold,
			Align: align.Right,
		}),
	)
	m.AddRow(14,
		col.New(8).Add(
			text.New("Period: "+doc.Period(), props.Text{Size: 9}),
			text.New("Generated: "+r.labels.Date(doc.GeneratedAt), props.Text{Size: 9, Top: 4}),
		),
		text.NewCol(4, "Currency: "+doc.Currency, props.Text{Size: 9, Align: align.Right}),
	)

	header := props.Text{Style: fontstyle.Bold, Size: 9}
	m.AddRow(8,
		text.NewCol(2, Header[0], header),
		text.NewCol(2, Header[1], header),
		text.NewCol(4, Header[2], header),
		text.NewCol(2, Header[3], props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, Header[4], props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)

	cell := props.Text{Size: 8}
	right := props.Text{Size: 8, Align: align.Right}
	for i, row := range doc.Rows {
		if i%200 == 0 && ctx.Err() != nil {
			return nil, renderError(FormatPDF, "cancelled", ctx.Err())
		}
		m.AddRow(7,
			text.NewCol(2, row.Type, cell),
			text.NewCol(2, r.labels.Date(row.Date), cell),
			text.NewCol(4, row.Description, cell),
			text.NewCol(2, r.labels.Amount(row.Money(doc.Currency)), right),
			text.NewCol(2, r.labels.Status(row.Status), right),
		)
	}

	m.AddRow(10,
		col.New(8),
		text.NewCol(4, fmt.Sprintf("%d transactions", len(doc.Rows)), props.Text{Size: 9, Align: align.Right, Top: 3}),
	)

	out, err := m.Generate()
	if err != nil {
		return nil, renderError(FormatPDF, "maroto generation failed", err)
	}
	return out.GetBytes(), nil
}
