// Package blik drives the BLIK reconciliation flow: a bank CSV export is
// uploaded, parsed into bank records, previewed, matched against ledger
// transactions and finally applied to the caller-approved ones.
package blik

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/google/uuid"

	"github.com/mkret/firefly-enricher/internal/adapters/bankcsv"
	"github.com/mkret/firefly-enricher/internal/apperr"
	"github.com/mkret/firefly-enricher/internal/application/enrichment"
	"github.com/mkret/firefly-enricher/internal/application/metrics"
	"github.com/mkret/firefly-enricher/internal/domain/evidence"
	"github.com/mkret/firefly-enricher/internal/domain/ledger"
	"github.com/mkret/firefly-enricher/internal/domain/matcher"
)

// MatchSummary counts preview outcomes per bucket.
type MatchSummary struct {
	Transactions int `json:"transactions"`
	NotMatched   int `json:"not_matched"`
	Matched      int `json:"matched"`
	Ambiguous    int `json:"ambiguous"`
}

// ApplyFailure records one transaction the apply pass could not enrich.
type ApplyFailure struct {
	TransactionID int    `json:"transaction_id"`
	Error         string `json:"error"`
}

// ApplyReport sums up a best-effort apply pass.
type ApplyReport struct {
	Applied  int            `json:"applied"`
	Failures []ApplyFailure `json:"failures"`
}

// Service owns the BLIK flow state: uploaded files and their computed
// matches, both keyed by upload id. State is in-memory; an upload lives as
// long as the process.
type Service struct {
	enricher *enrichment.EnrichmentService
	filter   enrichment.DescriptionFilter
	stats    *metrics.Manager[enrichment.FlowMetrics]
	log      *slog.Logger

	mu      sync.Mutex
	dir     string
	files   map[uuid.UUID]string
	matches map[uuid.UUID][]matcher.MatchResult
}

// NewService creates the BLIK flow service. Uploads are stored under dir;
// an empty dir means the system temp directory.
func NewService(enricher *enrichment.EnrichmentService, stats *enrichment.StatsService, filter enrichment.DescriptionFilter, dir string, log *slog.Logger) *Service {
	return &Service{
		enricher: enricher,
		filter:   filter,
		stats:    metrics.NewManager(stats.BlikMetrics),
		log:      log,
		dir:      dir,
		files:    make(map[uuid.UUID]string),
		matches:  make(map[uuid.UUID][]matcher.MatchResult),
	}
}

// Upload stores a CSV export and validates it by parsing. Returns the new
// upload id and the number of records the file holds.
func (s *Service) Upload(ctx context.Context, r io.Reader) (uuid.UUID, int, error) {
	f, err := os.CreateTemp(s.dir, "blik-upload-*.csv")
	if err != nil {
		return uuid.Nil, 0, fmt.Errorf("failed to store upload: %w", err)
	}
	path := f.Name()

	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return uuid.Nil, 0, fmt.Errorf("failed to store upload: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return uuid.Nil, 0, fmt.Errorf("failed to store upload: %w", err)
	}

	records, err := s.parseFile(path)
	if err != nil {
		_ = os.Remove(path)
		return uuid.Nil, 0, err
	}

	id := uuid.New()
	s.mu.Lock()
	s.files[id] = path
	s.mu.Unlock()

	s.log.Info("stored csv upload", "id", id, "records", len(records))
	return id, len(records), nil
}

// Preview returns the parsed records of an upload. A non-positive limit
// returns everything.
func (s *Service) Preview(_ context.Context, id uuid.UUID, limit int) ([]*evidence.BankRecord, error) {
	path, err := s.filePath(id)
	if err != nil {
		return nil, err
	}

	records, err := s.parseFile(path)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// ComputeMatches parses the upload, matches its records against the ledger
// and caches the results for a later apply.
func (s *Service) ComputeMatches(ctx context.Context, id uuid.UUID) (MatchSummary, error) {
	path, err := s.filePath(id)
	if err != nil {
		return MatchSummary{}, err
	}

	records, err := s.parseFile(path)
	if err != nil {
		return MatchSummary{}, err
	}

	candidates := make([]ledger.Evidence, 0, len(records))
	for _, record := range records {
		candidates = append(candidates, record)
	}

	results, err := s.enricher.Match(ctx, candidates, enrichment.MatchOptions{
		Filter:  s.filter,
		TagDone: ledger.TagBlikDone,
	})
	if err != nil {
		return MatchSummary{}, err
	}

	s.mu.Lock()
	s.matches[id] = results
	s.mu.Unlock()

	summary := summarize(results)
	s.log.Info("computed blik matches", "id", id,
		"transactions", summary.Transactions, "matched", summary.Matched, "ambiguous", summary.Ambiguous)
	return summary, nil
}

// Results returns the cached match results of an upload.
func (s *Service) Results(id uuid.UUID) ([]matcher.MatchResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.files[id]; !ok {
		return nil, apperr.ErrFileNotFound
	}
	results, ok := s.matches[id]
	if !ok {
		return nil, apperr.ErrMatchesNotComputed
	}
	return results, nil
}

// Apply enriches the selected transactions from their cached matches. Each
// selection must resolve to exactly one match; failures are collected per
// transaction and never abort the pass.
func (s *Service) Apply(ctx context.Context, id uuid.UUID, txIDs []int) (ApplyReport, error) {
	results, err := s.Results(id)
	if err != nil {
		return ApplyReport{}, err
	}

	byTx := make(map[int]matcher.MatchResult, len(results))
	for _, result := range results {
		byTx[result.Tx.ID] = result
	}

	var report ApplyReport
	for _, txID := range txIDs {
		if err := s.applyOne(ctx, byTx, txID); err != nil {
			report.Failures = append(report.Failures, ApplyFailure{
				TransactionID: txID,
				Error:         err.Error(),
			})
			s.log.Warn("blik apply failed", "transaction", txID, "error", err)
			continue
		}
		report.Applied++
	}

	s.log.Info("applied blik matches", "id", id,
		"applied", report.Applied, "failed", len(report.Failures))
	return report, nil
}

func (s *Service) applyOne(ctx context.Context, byTx map[int]matcher.MatchResult, txID int) error {
	result, ok := byTx[txID]
	if !ok {
		return apperr.ErrTransactionNotFound
	}
	if len(result.Matches) != 1 {
		return fmt.Errorf("%w: transaction %d has %d matches", apperr.ErrInvalidMatchSelection, txID, len(result.Matches))
	}
	return s.enricher.ApplyMatch(ctx, result.Tx, result.Matches[0])
}

// Remove deletes an upload and its cached matches.
func (s *Service) Remove(id uuid.UUID) error {
	s.mu.Lock()
	path, ok := s.files[id]
	delete(s.files, id)
	delete(s.matches, id)
	s.mu.Unlock()

	if !ok {
		return apperr.ErrFileNotFound
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Statistics returns the current metrics snapshot.
func (s *Service) Statistics() metrics.State[enrichment.FlowMetrics] {
	return s.stats.GetState()
}

// RefreshStatistics schedules a metrics recomputation.
func (s *Service) RefreshStatistics(ctx context.Context) metrics.State[enrichment.FlowMetrics] {
	return s.stats.Refresh(ctx)
}

func (s *Service) filePath(id uuid.UUID) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path, ok := s.files[id]
	if !ok {
		return "", apperr.ErrFileNotFound
	}
	return path, nil
}

func (s *Service) parseFile(path string) ([]*evidence.BankRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperr.ErrFileNotFound
	}
	defer f.Close()

	return bankcsv.Parse(f)
}

func summarize(results []matcher.MatchResult) MatchSummary {
	summary := MatchSummary{Transactions: len(results)}
	for _, result := range results {
		switch len(result.Matches) {
		case 0:
			summary.NotMatched++
		case 1:
			summary.Matched++
		default:
			summary.Ambiguous++
		}
	}
	return summary
}
