package enrichment

import (
	"strings"

	"github.com/mkret/firefly-enricher/internal/domain/ledger"
)

// DescriptionFilter selects transactions by description text. Exact matches
// the whole description; otherwise a substring is enough. Both modes are
// case-insensitive.
type DescriptionFilter struct {
	Text  string
	Exact bool
}

func (f DescriptionFilter) matches(description string) bool {
	if f.Exact {
		return strings.EqualFold(description, f.Text)
	}
	return strings.Contains(strings.ToLower(description), strings.ToLower(f.Text))
}

// FilterByDescription keeps the transactions whose description matches the
// filter, or drops them when exclude is set.
func FilterByDescription(txs []*ledger.Transaction, filter DescriptionFilter, exclude bool) []*ledger.Transaction {
	out := make([]*ledger.Transaction, 0, len(txs))
	for _, tx := range txs {
		if filter.matches(tx.Description) != exclude {
			out = append(out, tx)
		}
	}
	return out
}

// FilterOutCategorized drops transactions that already carry a category.
func FilterOutCategorized(txs []*ledger.Transaction) []*ledger.Transaction {
	out := make([]*ledger.Transaction, 0, len(txs))
	for _, tx := range txs {
		if tx.Category == nil {
			out = append(out, tx)
		}
	}
	return out
}

// FilterOutByTag drops transactions that already carry the tag.
func FilterOutByTag(txs []*ledger.Transaction, tag string) []*ledger.Transaction {
	out := make([]*ledger.Transaction, 0, len(txs))
	for _, tx := range txs {
		if !tx.HasTag(tag) {
			out = append(out, tx)
		}
	}
	return out
}

// FilterByTag keeps only transactions carrying the tag.
func FilterByTag(txs []*ledger.Transaction, tag string) []*ledger.Transaction {
	out := make([]*ledger.Transaction, 0, len(txs))
	for _, tx := range txs {
		if tx.HasTag(tag) {
			out = append(out, tx)
		}
	}
	return out
}

// FilterByType keeps only transactions of the given kind.
func FilterByType(txs []*ledger.Transaction, kind ledger.TxType) []*ledger.Transaction {
	out := make([]*ledger.Transaction, 0, len(txs))
	for _, tx := range txs {
		if tx.Type == kind {
			out = append(out, tx)
		}
	}
	return out
}
