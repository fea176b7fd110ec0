package enrichment

import (
	"context"
	"log/slog"
	"strings"

	"github.com/mkret/firefly-enricher/internal/adapters/firefly"
	"github.com/mkret/firefly-enricher/internal/application/metrics"
	"github.com/mkret/firefly-enricher/internal/domain/ledger"
)

// FetchInfo reports how the underlying ledger fetch went.
type FetchInfo struct {
	Total          int   `json:"total"`
	Invalid        int   `json:"invalid"`
	Multipart      int   `json:"multipart"`
	DurationMillis int64 `json:"duration_ms"`
}

func fetchInfo(s firefly.FetchStats) FetchInfo {
	return FetchInfo{
		Total:          s.Total,
		Invalid:        s.Invalid,
		Multipart:      s.Multipart,
		DurationMillis: s.DurationMillis,
	}
}

// FlowMetrics describes the state of one enrichment flow: how many
// withdrawals its description filter selects, how many are already done and
// how much work is pending, bucketed by month.
type FlowMetrics struct {
	TotalWithdrawals int                  `json:"total_withdrawals"`
	MatchingExact    int                  `json:"matching_exact"`
	MatchingPartial  int                  `json:"matching_partial"`
	Done             int                  `json:"done"`
	Pending          int                  `json:"pending"`
	PendingByMonth   []metrics.MonthCount `json:"pending_by_month"`
	Fetch            FetchInfo            `json:"fetch"`
}

// BacklogMetrics is the cross-flow categorization backlog: uncategorized
// transactions split into per-flow pending buckets, action-required holds
// and the remainder that is ready for manual categorization.
type BacklogMetrics struct {
	Total                int                  `json:"total"`
	Uncategorized        int                  `json:"uncategorized"`
	BlikPending          int                  `json:"blik_pending"`
	AllegroPending       int                  `json:"allegro_pending"`
	ActionRequired       int                  `json:"action_required"`
	Categorizable        int                  `json:"categorizable"`
	CategorizableByMonth []metrics.MonthCount `json:"categorizable_by_month"`
	Fetch                FetchInfo            `json:"fetch"`
}

// StatsService computes the metrics snapshots served by the statistics
// endpoints. Every computation refetches the full ledger; callers cache the
// result behind a metrics manager.
type StatsService struct {
	svc     *Service
	blik    DescriptionFilter
	allegro DescriptionFilter
	log     *slog.Logger
}

// NewStatsService creates the metrics computer with the two flow filters.
func NewStatsService(svc *Service, blik, allegro DescriptionFilter, log *slog.Logger) *StatsService {
	return &StatsService{svc: svc, blik: blik, allegro: allegro, log: log}
}

// BlikMetrics computes the BLIK flow snapshot.
func (s *StatsService) BlikMetrics(ctx context.Context) (FlowMetrics, error) {
	return s.flowMetrics(ctx, s.blik, ledger.TagBlikDone)
}

// AllegroMetrics computes the Allegro flow snapshot.
func (s *StatsService) AllegroMetrics(ctx context.Context) (FlowMetrics, error) {
	return s.flowMetrics(ctx, s.allegro, ledger.TagAllegroDone)
}

func (s *StatsService) flowMetrics(ctx context.Context, filter DescriptionFilter, tagDone string) (FlowMetrics, error) {
	txs, stats, err := s.svc.FetchTransactionsWithStats(ctx, firefly.FetchOptions{})
	if err != nil {
		return FlowMetrics{}, err
	}

	withdrawals := FilterByType(txs, ledger.TypeWithdrawal)
	matching := FilterByDescription(withdrawals, DescriptionFilter{Text: filter.Text}, false)

	exact := 0
	for _, tx := range matching {
		if strings.EqualFold(tx.Description, filter.Text) {
			exact++
		}
	}

	pending := FilterOutByTag(FilterOutCategorized(matching), tagDone)

	return FlowMetrics{
		TotalWithdrawals: len(withdrawals),
		MatchingExact:    exact,
		MatchingPartial:  len(matching) - exact,
		Done:             len(FilterByTag(matching, tagDone)),
		Pending:          len(pending),
		PendingByMonth:   metrics.GroupByMonth(pending),
		Fetch:            fetchInfo(stats),
	}, nil
}

// Backlog computes the cross-flow categorization backlog snapshot.
func (s *StatsService) Backlog(ctx context.Context) (BacklogMetrics, error) {
	txs, stats, err := s.svc.FetchTransactionsWithStats(ctx, firefly.FetchOptions{})
	if err != nil {
		return BacklogMetrics{}, err
	}

	uncategorized := FilterOutCategorized(txs)
	blikPending := FilterOutByTag(FilterByDescription(uncategorized, DescriptionFilter{Text: s.blik.Text}, false), ledger.TagBlikDone)
	allegroPending := FilterOutByTag(FilterByDescription(uncategorized, DescriptionFilter{Text: s.allegro.Text}, false), ledger.TagAllegroDone)

	excluded := make(map[int]struct{}, len(blikPending)+len(allegroPending))
	for _, tx := range blikPending {
		excluded[tx.ID] = struct{}{}
	}
	for _, tx := range allegroPending {
		excluded[tx.ID] = struct{}{}
	}

	actionRequired := 0
	var categorizable []*ledger.Transaction
	for _, tx := range uncategorized {
		if tx.HasTag(ledger.TagActionReq) {
			actionRequired++
			continue
		}
		if _, ok := excluded[tx.ID]; ok {
			continue
		}
		categorizable = append(categorizable, tx)
	}

	return BacklogMetrics{
		Total:                len(txs),
		Uncategorized:        len(uncategorized),
		BlikPending:          len(blikPending),
		AllegroPending:       len(allegroPending),
		ActionRequired:       actionRequired,
		Categorizable:        len(categorizable),
		CategorizableByMonth: metrics.GroupByMonth(categorizable),
		Fetch:                fetchInfo(stats),
	}, nil
}
