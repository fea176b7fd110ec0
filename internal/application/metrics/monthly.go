package metrics

import (
	"sort"

	"github.com/mkret/firefly-enricher/internal/domain/ledger"
)

// MonthCount is one bucket of the monthly histogram.
type MonthCount struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}

// GroupByMonth buckets transactions by calendar month ("2006-01") and
// returns the buckets in ascending month order. Months with no
// transactions are absent.
func GroupByMonth(txs []*ledger.Transaction) []MonthCount {
	counts := make(map[string]int)
	for _, tx := range txs {
		counts[tx.Date.Format("2006-01")]++
	}

	months := make([]string, 0, len(counts))
	for month := range counts {
		months = append(months, month)
	}
	sort.Strings(months)

	out := make([]MonthCount, 0, len(months))
	for _, month := range months {
		out = append(out, MonthCount{Month: month, Count: counts[month]})
	}
	return out
}
