package enrichment

import (
	"context"
	"log/slog"

	"github.com/mkret/firefly-enricher/internal/adapters/firefly"
	"github.com/mkret/firefly-enricher/internal/domain/ledger"
)

// ScreeningService supports manual categorization of the backlog: list the
// transactions no automated flow will handle, then stamp a category or a
// workflow tag on individual ones.
type ScreeningService struct {
	svc     *Service
	blik    DescriptionFilter
	allegro DescriptionFilter
	log     *slog.Logger
}

// NewScreeningService creates the screening helper with the flow filters
// whose pending transactions it must leave alone.
func NewScreeningService(svc *Service, blik, allegro DescriptionFilter, log *slog.Logger) *ScreeningService {
	return &ScreeningService{svc: svc, blik: blik, allegro: allegro, log: log}
}

// TransactionsForScreening lists the uncategorized transactions not claimed
// by any automated flow and not on hold.
func (s *ScreeningService) TransactionsForScreening(ctx context.Context, opts firefly.FetchOptions) ([]*ledger.Transaction, error) {
	txs, err := s.svc.FetchTransactions(ctx, opts)
	if err != nil {
		return nil, err
	}

	txs = FilterOutCategorized(txs)
	txs = FilterByDescription(txs, DescriptionFilter{Text: s.blik.Text}, true)
	txs = FilterByDescription(txs, DescriptionFilter{Text: s.allegro.Text}, true)
	txs = FilterOutByTag(txs, ledger.TagActionReq)
	return txs, nil
}

// ApplyCategory sets the category on one transaction.
func (s *ScreeningService) ApplyCategory(ctx context.Context, txID, categoryID int) error {
	return s.svc.Update(ctx, txID, ledger.TransactionUpdate{CategoryID: &categoryID})
}

// AddTag adds a workflow tag to one transaction, preserving its existing
// tags. Already-tagged transactions are left untouched.
func (s *ScreeningService) AddTag(ctx context.Context, txID int, tag string) error {
	tx, err := s.svc.FetchTransaction(ctx, txID)
	if err != nil {
		return err
	}
	if tx.HasTag(tag) {
		return nil
	}
	return s.svc.Update(ctx, txID, ledger.TransactionUpdate{
		Tags: ledger.TagsWith(tx.Tags, tag),
	})
}
