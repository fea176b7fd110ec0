package ledger

import (
	"sort"

	"github.com/shopspring/decimal"
)

// TxType is the ledger-side transaction kind.
type TxType string

const (
	TypeWithdrawal TxType = "withdrawal"
	TypeDeposit    TxType = "deposit"
	TypeTransfer   TxType = "transfer"
)

// Tags stamped onto transactions by the enrichment flows.
const (
	TagBlikDone      = "blik_done"
	TagAllegroDone   = "allegro_done"
	TagRulePotential = "rule_potential"
	TagActionReq     = "action_req"
)

// Category is a ledger category reference.
type Category struct {
	ID   int
	Name string
}

// Currency describes the transaction currency.
type Currency struct {
	Code     string
	Symbol   string
	Decimals int
}

// FXContext carries the original-currency view of a foreign transaction.
// Display only; never used for matching.
type FXContext struct {
	OriginalCurrency Currency
	OriginalAmount   decimal.Decimal
}

// Transaction is a ledger transaction as fetched from the external
// accounting system. It is never persisted locally; mutations go back
// through a TransactionUpdate.
type Transaction struct {
	BaseItem

	ID          int
	Type        TxType
	Description string
	Tags        []string
	Notes       string
	Category    *Category
	Currency    Currency
	FX          *FXContext
}

// HasTag reports whether the transaction carries the given tag.
func (t *Transaction) HasTag(tag string) bool {
	for _, existing := range t.Tags {
		if existing == tag {
			return true
		}
	}
	return false
}

// TransactionUpdate is a sparse patch applied to a ledger transaction.
// Only non-nil fields are sent; Tags, when set, replaces the full tag list.
type TransactionUpdate struct {
	Description *string
	Notes       *string
	Tags        []string
	CategoryID  *int
}

// IsEmpty reports whether the update would change nothing.
func (u TransactionUpdate) IsEmpty() bool {
	return u.Description == nil && u.Notes == nil && u.Tags == nil && u.CategoryID == nil
}

// TagsWith returns the transaction's tags with tag added. The result is
// deduplicated and sorted, so reapplying the same tag yields an identical
// list.
func TagsWith(tags []string, tag string) []string {
	seen := make(map[string]struct{}, len(tags)+1)
	for _, t := range tags {
		seen[t] = struct{}{}
	}
	seen[tag] = struct{}{}

	out := make([]string, 0, len(seen))
	for t := range seen {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
