// Package ledger holds the core domain model shared by every matchable
// financial item: ledger transactions, bank records and marketplace
// payments. Matching is a pass/fail value comparison, never a fuzzy score.
package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// Comparable is any item that can take part in matching. Implementations
// compare absolute amounts, so sign conventions of the two systems never
// have to agree.
type Comparable interface {
	ItemDate() time.Time
	ItemAmount() decimal.Decimal
	Compare(other Comparable) bool
}

// Evidence is a matchable item that can enrich a ledger transaction once a
// match has been approved.
type Evidence interface {
	Comparable
	BuildTransactionUpdate(tx *Transaction) (TransactionUpdate, error)
}

// BaseItem carries the two fields every matchable item has. Date is a
// calendar day, normalized to midnight UTC.
type BaseItem struct {
	Date   time.Time
	Amount decimal.Decimal
}

// ItemDate returns the item's calendar day.
func (b BaseItem) ItemDate() time.Time { return b.Date }

// ItemAmount returns the item's signed amount.
func (b BaseItem) ItemAmount() decimal.Decimal { return b.Amount }

// Compare reports whether other falls on the same calendar day and carries
// the same absolute amount.
func (b BaseItem) Compare(other Comparable) bool {
	return SameDay(b.Date, other.ItemDate()) && b.CompareAmountsAbs(other)
}

// CompareAmountsAbs reports whether the absolute amounts are equal. Decimal
// comparison, never floating point.
func (b BaseItem) CompareAmountsAbs(other Comparable) bool {
	return b.Amount.Abs().Equal(other.ItemAmount().Abs())
}

// Day normalizes t to midnight UTC so two timestamps on the same calendar
// day compare equal.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SameDay reports whether a and b fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	return Day(a).Equal(Day(b))
}

// AddLine appends line to existing, inserting a newline separator when
// existing is non-empty.
func AddLine(existing, line string) string {
	if existing != "" {
		return existing + "\n" + line
	}
	return line
}
