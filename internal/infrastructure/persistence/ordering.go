package persistence

import (
	"strings"

	"gorm.io/gorm/clause"
)

// sortableColumns whitelists the API sort keys of one table. Keys that are
// not listed sort by fallback.
type sortableColumns struct {
	columns  map[string]string
	fallback string
}

var customerSorting = sortableColumns{
	columns: map[string]string{
		"id":         "id",
		"name":       "name",
		"email":      "email",
		"enabled":    "enabled",
		"currency":   "currency_code",
		"created_at": "created_at",
		"updated_at": "updated_at",
	},
	fallback: "name",
}

// orderBy builds the ORDER BY clause for a requested key and direction.
// Anything but "asc" sorts descending. Rows with equal keys are ordered by
// id so pages never overlap.
func (s sortableColumns) orderBy(key, dir string) clause.OrderBy {
	column, ok := s.columns[strings.ToLower(strings.TrimSpace(key))]
	if !ok {
		column = s.fallback
	}
	desc := !strings.EqualFold(strings.TrimSpace(dir), "asc")

	order := clause.OrderBy{Columns: []clause.OrderByColumn{
		{Column: clause.Column{Name: column}, Desc: desc},
	}}
	if column != "id" {
		order.Columns = append(order.Columns, clause.OrderByColumn{Column: clause.Column{Name: "id"}, Desc: desc})
	}
	return order
}
