package enrichment

import (
	"context"
	"log/slog"
	"time"

	"github.com/mkret/firefly-enricher/internal/adapters/firefly"
	"github.com/mkret/firefly-enricher/internal/domain/ledger"
	"github.com/mkret/firefly-enricher/internal/domain/matcher"
)

// MatchOptions narrows the transaction working set before matching.
type MatchOptions struct {
	// Filter restricts by description when Text is non-empty.
	Filter DescriptionFilter
	// TagDone excludes transactions already enriched by this flow.
	TagDone string
	// WindowDays extends the fetch range past the latest evidence day, for
	// evidence types whose comparison admits later transaction dates.
	WindowDays int
}

// EnrichmentService runs the preview-and-apply flow shared by every
// evidence source.
type EnrichmentService struct {
	svc *Service
	log *slog.Logger
}

// NewEnrichmentService creates the matching flow on top of a ledger service.
func NewEnrichmentService(svc *Service, log *slog.Logger) *EnrichmentService {
	return &EnrichmentService{svc: svc, log: log}
}

// Ledger exposes the underlying ledger service for flows that need raw
// transaction access beyond matching.
func (e *EnrichmentService) Ledger() *Service { return e.svc }

// Match fetches the ledger transactions spanning the candidates' dates,
// narrows them per opts and pairs them against the candidates. Transactions
// that are already categorized never take part.
func (e *EnrichmentService) Match(ctx context.Context, candidates []ledger.Evidence, opts MatchOptions) ([]matcher.MatchResult, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	start, end := dateSpan(candidates)
	end = end.AddDate(0, 0, opts.WindowDays)

	txs, err := e.svc.FetchTransactions(ctx, firefly.FetchOptions{Start: start, End: end})
	if err != nil {
		return nil, err
	}

	txs = FilterOutCategorized(txs)
	if opts.Filter.Text != "" {
		txs = FilterByDescription(txs, opts.Filter, false)
	}
	if opts.TagDone != "" {
		txs = FilterOutByTag(txs, opts.TagDone)
	}

	results := matcher.Match(txs, candidates)
	e.log.Info("computed matches",
		"transactions", len(txs), "candidates", len(candidates))
	return results, nil
}

// ApplyMatch enriches one transaction from one approved piece of evidence.
// An update that would change nothing is skipped without a ledger call.
func (e *EnrichmentService) ApplyMatch(ctx context.Context, tx *ledger.Transaction, ev ledger.Evidence) error {
	update, err := ev.BuildTransactionUpdate(tx)
	if err != nil {
		return err
	}
	return e.svc.Update(ctx, tx.ID, update)
}

// dateSpan returns the earliest and latest evidence days.
func dateSpan(candidates []ledger.Evidence) (time.Time, time.Time) {
	start := ledger.Day(candidates[0].ItemDate())
	end := start
	for _, c := range candidates[1:] {
		day := ledger.Day(c.ItemDate())
		if day.Before(start) {
			start = day
		}
		if day.After(end) {
			end = day
		}
	}
	return start, end
}
