package report

import (
	"fmt"
	"time"

	"github.com/erp/fincore/internal/domain/finance"
	"github.com/erp/fincore/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Granularity is the bucket size of a report series
type Granularity string

const (
	GranularityDay   Granularity = "day"
	GranularityWeek  Granularity = "week"
	GranularityMonth Granularity = "month"
)

// ParseGranularity validates a granularity, defaulting to day
func ParseGranularity(s string) (Granularity, error) {
	switch Granularity(s) {
	case "":
		return GranularityDay, nil
	case GranularityDay, GranularityWeek, GranularityMonth:
		return Granularity(s), nil
	}
	return "", shared.ErrInvalidInput.WithMessage(fmt.Sprintf("Unknown granularity %q", s))
}

// SeriesPoint is one bucket of a report series
type SeriesPoint struct {
	Period       string          `json:"period"`       // 2026-03-01, 2026-W09 or 2026-03
	PeriodStart  time.Time       `json:"period_start"` // First instant of the bucket, UTC
	Revenue      decimal.Decimal `json:"revenue"`
	Expenses     decimal.Decimal `json:"expenses"`
	Profit       decimal.Decimal `json:"profit"` // Revenue - Expenses
	InvoiceCount int             `json:"invoice_count"`
}

// BucketStart returns the first instant of the bucket containing t. Weeks
// start on Monday.
func BucketStart(t time.Time, g Granularity) time.Time {
	day := finance.StartOfDay(t)
	switch g {
	case GranularityWeek:
		offset := (int(day.Weekday()) + 6) % 7
		return day.AddDate(0, 0, -offset)
	case GranularityMonth:
		return time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, time.UTC)
	default:
		return day
	}
}

func nextBucket(t time.Time, g Granularity) time.Time {
	switch g {
	case GranularityWeek:
		return t.AddDate(0, 0, 7)
	case GranularityMonth:
		return t.AddDate(0, 1, 0)
	default:
		return t.AddDate(0, 0, 1)
	}
}

// PeriodLabel formats a bucket start for display
func PeriodLabel(start time.Time, g Granularity) string {
	switch g {
	case GranularityWeek:
		year, week := start.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", year, week)
	case GranularityMonth:
		return start.Format("2006-01")
	default:
		return start.Format("2006-01-02")
	}
}

// BuildSeries buckets facts over a bounded window. Every bucket between the
// window bounds is present, empty ones with zeros, and the revenue of all
// buckets adds up to the snapshot revenue of the same facts.
func BuildSeries(f Facts, g Granularity, now time.Time) ([]SeriesPoint, error) {
	w := f.Window
	if !w.IsBounded() {
		return nil, shared.ErrInvalidInput.WithMessage("Report series requires a bounded window")
	}

	var points []SeriesPoint
	index := make(map[time.Time]int)
	for start := BucketStart(w.From, g); !start.After(w.To); start = nextBucket(start, g) {
		index[start] = len(points)
		points = append(points, SeriesPoint{
			Period:      PeriodLabel(start, g),
			PeriodStart: start,
		})
	}

	bucket := func(t time.Time) *SeriesPoint {
		i, ok := index[BucketStart(t, g)]
		if !ok {
			return nil
		}
		return &points[i]
	}

	for _, s := range f.Sales {
		if p := bucket(s.OccurredAt); p != nil {
			p.Revenue = p.Revenue.Add(s.Total)
		}
	}
	for _, inv := range f.Invoices {
		p := bucket(inv.IssueDate)
		if p == nil {
			continue
		}
		p.InvoiceCount++
		if inv.EffectiveStatus(now).CountsAsRevenue() {
			p.Revenue = p.Revenue.Add(inv.Total)
		}
	}
	for _, e := range f.Expenses {
		if p := bucket(e.PaidAt); p != nil {
			p.Expenses = p.Expenses.Add(e.Amount)
		}
	}
	for i := range points {
		points[i].Profit = points[i].Revenue.Sub(points[i].Expenses)
	}
	return points, nil
}
