// Package enrichment hosts the application services that sit between the
// ledger client and the matching domain: fetching and mapping ledger
// transactions, filtering them down to a flow's working set, pairing them
// with evidence and pushing approved updates back.
package enrichment

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mkret/firefly-enricher/internal/adapters/firefly"
	"github.com/mkret/firefly-enricher/internal/apperr"
	"github.com/mkret/firefly-enricher/internal/domain/ledger"
)

// LedgerClient is the slice of the Firefly client this package needs. The
// concrete client satisfies it; tests swap in a fake.
type LedgerClient interface {
	FetchTransactionsWithStats(ctx context.Context, opts firefly.FetchOptions) ([]firefly.TransactionRead, firefly.FetchStats, error)
	FetchTransaction(ctx context.Context, id int) (firefly.TransactionRead, error)
	UpdateTransaction(ctx context.Context, id int, update firefly.TransactionUpdateRequest) error
	FetchCategories(ctx context.Context) ([]firefly.CategoryRead, error)
}

// ServiceError wraps a ledger-client failure with the operation that hit it.
type ServiceError struct {
	Op  string
	Err error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("ledger %s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error { return e.Err }

// Is lets callers detect any ledger failure with a single sentinel.
func (e *ServiceError) Is(target error) bool {
	return target == apperr.ErrExternalServiceFailed
}

// Service is the ledger access layer: it talks wire DTOs downward and
// domain types upward.
type Service struct {
	client LedgerClient
	log    *slog.Logger
}

// NewService creates a ledger service.
func NewService(client LedgerClient, log *slog.Logger) *Service {
	return &Service{client: client, log: log}
}

// FetchTransactions fetches and maps the transactions in the given range.
// Records that cannot be mapped (unparsable date or amount) are skipped and
// logged rather than failing the whole fetch.
func (s *Service) FetchTransactions(ctx context.Context, opts firefly.FetchOptions) ([]*ledger.Transaction, error) {
	txs, _, err := s.FetchTransactionsWithStats(ctx, opts)
	return txs, err
}

// FetchTransactionsWithStats is FetchTransactions plus the fetch
// instrumentation gathered by the client, with mapping skips added in.
func (s *Service) FetchTransactionsWithStats(ctx context.Context, opts firefly.FetchOptions) ([]*ledger.Transaction, firefly.FetchStats, error) {
	raw, stats, err := s.client.FetchTransactionsWithStats(ctx, opts)
	if err != nil {
		return nil, firefly.FetchStats{}, &ServiceError{Op: "fetch transactions", Err: err}
	}

	txs := make([]*ledger.Transaction, 0, len(raw))
	for _, r := range raw {
		tx, err := mapTransaction(r)
		if err != nil {
			stats.Invalid++
			s.log.Warn("skipping unmappable transaction", "id", r.ID, "error", err)
			continue
		}
		txs = append(txs, tx)
	}

	s.log.Debug("fetched ledger transactions",
		"count", len(txs), "invalid", stats.Invalid, "multipart", stats.Multipart,
		"duration_ms", stats.DurationMillis)
	return txs, stats, nil
}

// FetchTransaction fetches and maps one transaction.
func (s *Service) FetchTransaction(ctx context.Context, id int) (*ledger.Transaction, error) {
	raw, err := s.client.FetchTransaction(ctx, id)
	if err != nil {
		return nil, &ServiceError{Op: "fetch transaction", Err: err}
	}
	tx, err := mapTransaction(raw)
	if err != nil {
		return nil, &ServiceError{Op: "fetch transaction", Err: err}
	}
	return tx, nil
}

// Update pushes a sparse transaction update to the ledger. Empty updates
// are a no-op.
func (s *Service) Update(ctx context.Context, txID int, update ledger.TransactionUpdate) error {
	if update.IsEmpty() {
		return nil
	}
	if err := s.client.UpdateTransaction(ctx, txID, mapUpdate(update)); err != nil {
		return &ServiceError{Op: "update transaction", Err: err}
	}
	s.log.Info("updated ledger transaction", "id", txID)
	return nil
}

// Categories lists the ledger's categories.
func (s *Service) Categories(ctx context.Context) ([]ledger.Category, error) {
	raw, err := s.client.FetchCategories(ctx)
	if err != nil {
		return nil, &ServiceError{Op: "fetch categories", Err: err}
	}
	categories := make([]ledger.Category, 0, len(raw))
	for _, c := range raw {
		categories = append(categories, ledger.Category{ID: c.ID, Name: c.Name})
	}
	return categories, nil
}
