package evidence

import (
	"crypto/sha1"
	"encoding/hex"
	"strings"

	"github.com/mkret/firefly-enricher/internal/domain/ledger"
)

// SettlementWindowDays is how many days a ledger transaction may lag behind
// a marketplace payment and still match. Settlement dates trail order dates
// by a variable number of days; the window absorbs that lag without
// admitting amount-only false positives.
const SettlementWindowDays = 6

// OrderPayment is a marketplace payment used as matching evidence. The
// detail lines are rendered newline-joined when applied to a transaction.
type OrderPayment struct {
	ledger.BaseItem

	Details []string
	TagDone string
}

// Compare keeps the absolute-amount equality of the base rule but replaces
// exact-date equality with a forward-only window: the transaction date must
// fall in [payment date, payment date + 6 days], both ends inclusive.
func (p *OrderPayment) Compare(other ledger.Comparable) bool {
	if !p.CompareAmountsAbs(other) {
		return false
	}
	day := ledger.Day(other.ItemDate())
	start := ledger.Day(p.Date)
	end := start.AddDate(0, 0, SettlementWindowDays)
	return !day.Before(start) && !day.After(end)
}

// Detail returns the flattened detail text.
func (p *OrderPayment) Detail() string {
	return strings.Join(p.Details, "\n")
}

// BuildTransactionUpdate appends the payment's detail text to the
// transaction notes (unless already present, case-insensitively) and adds
// the completion tag. Description and category are never touched here.
func (p *OrderPayment) BuildTransactionUpdate(tx *ledger.Transaction) (ledger.TransactionUpdate, error) {
	detail := p.Detail()
	if strings.TrimSpace(detail) == "" {
		return ledger.TransactionUpdate{}, ErrEmptyDetails
	}

	update := ledger.TransactionUpdate{
		Tags: ledger.TagsWith(tx.Tags, p.TagDone),
	}

	if !containsFold(tx.Notes, detail) {
		notes := ledger.AddLine(tx.Notes, detail)
		update.Notes = &notes
	}

	return update, nil
}

// ShortID returns a short, deterministic hash of id, used to address
// individual payments from the apply surface.
func ShortID(id string) string {
	sum := sha1.Sum([]byte(id))
	return hex.EncodeToString(sum[:])[:8]
}
