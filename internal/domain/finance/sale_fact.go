package finance

import (
	"time"

	"github.com/erp/fincore/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SaleFact is a completed point-of-sale transaction. The POS subsystem owns
// the rows; this engine only reads them.
type SaleFact struct {
	ID           uuid.UUID
	TenantID     uuid.UUID
	Total        decimal.Decimal
	CurrencyCode valueobject.Currency
	OccurredAt   time.Time
	Reference    string
}

// Money returns the sale total as Money
func (s SaleFact) Money() valueobject.Money {
	return valueobject.MoneyOf(s.Total, s.CurrencyCode)
}
