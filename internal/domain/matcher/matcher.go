// Package matcher pairs ledger transactions against evidence candidates
// using the domain-level Compare predicate. Evidence sets are small (one CSV
// upload or one settlement period), so a brute-force cross product is both
// correct and the simplest implementation to audit.
package matcher

import (
	"github.com/mkret/firefly-enricher/internal/domain/ledger"
)

// MatchResult pairs one transaction with every evidence candidate that
// satisfied Compare. The matches list may be empty (unmatched), a singleton
// (auto-applicable) or longer (needs caller disambiguation).
type MatchResult struct {
	Tx      *ledger.Transaction
	Matches []ledger.Evidence
}

// Match evaluates every candidate against every transaction. Transactions
// keep their input order and the candidate slice is walked in order, so the
// operation is deterministic. Pure function; no side effects.
func Match(txs []*ledger.Transaction, candidates []ledger.Evidence) []MatchResult {
	results := make([]MatchResult, 0, len(txs))
	for _, tx := range txs {
		result := MatchResult{Tx: tx}
		for _, candidate := range candidates {
			if candidate.Compare(tx) {
				result.Matches = append(result.Matches, candidate)
			}
		}
		results = append(results, result)
	}
	return results
}
