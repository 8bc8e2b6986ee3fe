package report

import (
	"sort"
	"strings"
	"time"

	"github.com/erp/fincore/internal/domain/finance"
	"github.com/shopspring/decimal"
)

// DefaultTopN is the number of entries returned when no limit is given
const DefaultTopN = 10

// RankedEntry is one row of a top-N view
type RankedEntry struct {
	Key          string          `json:"key"`
	Label        string          `json:"label"`
	Revenue      decimal.Decimal `json:"revenue"`
	Quantity     decimal.Decimal `json:"quantity,omitempty"`
	Count        int             `json:"count"`
	LastActivity time.Time       `json:"last_activity"`
}

// Rank orders entries by revenue descending, breaking ties by the most recent
// activity and then by key, and keeps the first n.
func Rank(entries []RankedEntry, n int) []RankedEntry {
	if n <= 0 {
		n = DefaultTopN
	}
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if c := a.Revenue.Cmp(b.Revenue); c != 0 {
			return c > 0
		}
		if !a.LastActivity.Equal(b.LastActivity) {
			return a.LastActivity.After(b.LastActivity)
		}
		return a.Key < b.Key
	})
	if len(entries) > n {
		entries = entries[:n]
	}
	return entries
}

func invoiceActivity(inv finance.Invoice) time.Time {
	if inv.PaidAt != nil && inv.PaidAt.After(inv.IssueDate) {
		return *inv.PaidAt
	}
	return inv.IssueDate
}

// TopCustomers ranks customers by revenue-bearing invoice totals
func TopCustomers(invoices []finance.Invoice, n int) []RankedEntry {
	byKey := make(map[string]*RankedEntry)
	var order []string
	for _, inv := range invoices {
		if !inv.CountsAsRevenue() {
			continue
		}
		key := inv.CustomerID.String()
		e, ok := byKey[key]
		if !ok {
			e = &RankedEntry{Key: key, Label: inv.CustomerName}
			byKey[key] = e
			order = append(order, key)
		}
		e.Revenue = e.Revenue.Add(inv.Total)
		e.Count++
		if at := invoiceActivity(inv); at.After(e.LastActivity) {
			e.LastActivity = at
		}
	}
	return Rank(collect(byKey, order), n)
}

// TopItems ranks invoice line items by their line totals, grouping by name
func TopItems(invoices []finance.Invoice, n int) []RankedEntry {
	byKey := make(map[string]*RankedEntry)
	var order []string
	for _, inv := range invoices {
		if !inv.CountsAsRevenue() {
			continue
		}
		at := invoiceActivity(inv)
		for _, it := range inv.Items {
			key := strings.ToLower(strings.TrimSpace(it.Name))
			e, ok := byKey[key]
			if !ok {
				e = &RankedEntry{Key: key, Label: it.Name}
				byKey[key] = e
				order = append(order, key)
			}
			e.Revenue = e.Revenue.Add(it.LineTotal)
			e.Quantity = e.Quantity.Add(it.Quantity)
			e.Count++
			if at.After(e.LastActivity) {
				e.LastActivity = at
			}
		}
	}
	return Rank(collect(byKey, order), n)
}

func collect(byKey map[string]*RankedEntry, order []string) []RankedEntry {
	out := make([]RankedEntry, 0, len(order))
	for _, k := range order {
		out = append(out, *byKey[k])
	}
	return out
}
