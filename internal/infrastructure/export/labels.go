package export

import (
	"strings"
	"time"

	"github.com/erp/fincore/internal/domain/shared/valueobject"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Labeler formats values for human readable renderings. CSV keeps the raw
// values; PDF and Excel use the labels.
type Labeler struct {
	title   cases.Caser
	printer *message.Printer
}

// NewLabeler creates a labeler for the given language tag. An unknown tag
// falls back to English.
func NewLabeler(lang string) *Labeler {
	tag, err := language.Parse(lang)
	if err != nil {
		tag = language.English
	}
	return &Labeler{
		title:   cases.Title(tag),
		printer: message.NewPrinter(tag),
	}
}

// Status turns a stored status such as BANK_TRANSFER into "Bank Transfer"
func (l *Labeler) Status(s string) string {
	return l.title.String(strings.ReplaceAll(s, "_", " "))
}

// Amount formats m with grouping at its currency's minor unit
func (l *Labeler) Amount(m valueobject.Money) string {
	f, _ := m.Rounded().Amount().Float64()
	return l.printer.Sprint(number.Decimal(f, number.Scale(int(m.Currency().MinorUnits()))))
}

// Date formats a date without its time of day
func (l *Labeler) Date(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.DateOnly)
}
