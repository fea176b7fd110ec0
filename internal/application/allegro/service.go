// Package allegro drives the marketplace reconciliation flow: payments are
// fetched with a stored account secret, matched against ledger transactions
// and applied by a background job the caller polls.
package allegro

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	adapter "github.com/mkret/firefly-enricher/internal/adapters/allegro"
	"github.com/mkret/firefly-enricher/internal/apperr"
	"github.com/mkret/firefly-enricher/internal/application/enrichment"
	"github.com/mkret/firefly-enricher/internal/application/metrics"
	"github.com/mkret/firefly-enricher/internal/domain/evidence"
	"github.com/mkret/firefly-enricher/internal/domain/ledger"
	"github.com/mkret/firefly-enricher/internal/domain/matcher"
	"github.com/mkret/firefly-enricher/internal/infrastructure/storage"
)

// MarketplaceClient is the slice of the marketplace adapter this flow
// needs. A factory builds one per account secret.
type MarketplaceClient interface {
	GetUserInfo(ctx context.Context) (adapter.UserInfo, error)
	GetOrders(ctx context.Context) ([]adapter.Payment, error)
}

// ClientFactory builds a marketplace client bound to one secret value.
type ClientFactory func(secret string) MarketplaceClient

// NewClientFactory binds the concrete adapter to a base URL.
func NewClientFactory(baseURL string) ClientFactory {
	return func(secret string) MarketplaceClient {
		return adapter.NewClient(baseURL, secret)
	}
}

// MatchDecision selects which payment enriches which transaction. PaymentID
// is the payment's short id; it may be empty when the transaction has
// exactly one match.
type MatchDecision struct {
	TransactionID int    `json:"transaction_id"`
	PaymentID     string `json:"payment_id"`
}

// MatchSummary counts preview outcomes per bucket.
type MatchSummary struct {
	Transactions int `json:"transactions"`
	NotMatched   int `json:"not_matched"`
	Matched      int `json:"matched"`
	Ambiguous    int `json:"ambiguous"`
}

// AccountPayments is one secret's fetch outcome in a batch fetch. Err is
// set when this account failed; the batch itself never aborts.
type AccountPayments struct {
	SecretID uuid.UUID
	Label    string
	Login    string
	Payments []*evidence.AllegroOrderPayment
	Err      string
}

// Service owns the Allegro flow.
type Service struct {
	secrets  storage.SecretsRepository
	clients  ClientFactory
	enricher *enrichment.EnrichmentService
	stats    *metrics.Manager[enrichment.FlowMetrics]
	state    *StateStore
	filter   enrichment.DescriptionFilter
	log      *slog.Logger
}

// NewService creates the Allegro flow service.
func NewService(secrets storage.SecretsRepository, clients ClientFactory, enricher *enrichment.EnrichmentService, stats *enrichment.StatsService, state *StateStore, filter enrichment.DescriptionFilter, log *slog.Logger) *Service {
	return &Service{
		secrets:  secrets,
		clients:  clients,
		enricher: enricher,
		stats:    metrics.NewManager(stats.AllegroMetrics),
		state:    state,
		filter:   filter,
		log:      log,
	}
}

// ListSecrets lists the user's marketplace secrets.
func (s *Service) ListSecrets(ctx context.Context, userID string) ([]*storage.Secret, error) {
	all, err := s.secrets.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]*storage.Secret, 0, len(all))
	for _, secret := range all {
		if secret.Type == storage.SecretTypeAllegro {
			out = append(out, secret)
		}
	}
	return out, nil
}

// FetchPayments fetches the account's payments for one secret.
func (s *Service) FetchPayments(ctx context.Context, secretID uuid.UUID) (string, []*evidence.AllegroOrderPayment, error) {
	secret, err := s.secrets.Get(ctx, secretID)
	if err != nil {
		return "", nil, err
	}
	if secret.Type != storage.SecretTypeAllegro {
		return "", nil, apperr.ErrInvalidSecretID
	}

	client := s.clients(secret.Value)
	info, err := client.GetUserInfo(ctx)
	if err != nil {
		return "", nil, err
	}

	payments, err := client.GetOrders(ctx)
	if err != nil {
		return "", nil, err
	}

	out := make([]*evidence.AllegroOrderPayment, 0, len(payments))
	for _, payment := range payments {
		out = append(out, paymentEvidence(payment, info.Login))
	}

	s.log.Info("fetched marketplace payments",
		"secret", secretID, "login", info.Login, "payments", len(out))
	return info.Login, out, nil
}

// paymentEvidence builds matching evidence from a grouped marketplace
// payment. The buyer login goes into the detail text for the human reading
// the enriched transaction, nothing else.
func paymentEvidence(p adapter.Payment, login string) *evidence.AllegroOrderPayment {
	details := []string{"Buyer: " + login}
	for _, order := range p.Orders {
		details = append(details, order.PrintOffers())
	}

	return &evidence.AllegroOrderPayment{
		OrderPayment: evidence.OrderPayment{
			BaseItem: ledger.BaseItem{
				Date:   ledger.Day(p.Date),
				Amount: p.Amount(),
			},
			Details: details,
			TagDone: ledger.TagAllegroDone,
		},
		IsBalanced:      p.IsBalanced(),
		Login:           login,
		ExternalID:      p.PaymentID,
		ExternalShortID: evidence.ShortID(p.PaymentID),
	}
}

// FetchAllPayments fetches payments for every secret of the user. Accounts
// fail independently; one bad cookie never hides the others' payments.
func (s *Service) FetchAllPayments(ctx context.Context, userID string) ([]AccountPayments, error) {
	secrets, err := s.ListSecrets(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]AccountPayments, 0, len(secrets))
	for _, secret := range secrets {
		account := AccountPayments{SecretID: secret.ID, Label: secret.Label}
		login, payments, err := s.FetchPayments(ctx, secret.ID)
		if err != nil {
			account.Err = err.Error()
			s.log.Warn("account fetch failed", "secret", secret.ID, "error", err)
		} else {
			account.Login = login
			account.Payments = payments
		}
		out = append(out, account)
	}
	return out, nil
}

// ComputeMatches fetches the secret's payments, matches them against the
// ledger and caches the results for a later apply job.
func (s *Service) ComputeMatches(ctx context.Context, secretID uuid.UUID) (MatchSummary, error) {
	_, payments, err := s.FetchPayments(ctx, secretID)
	if err != nil {
		return MatchSummary{}, err
	}

	candidates := make([]ledger.Evidence, 0, len(payments))
	for _, payment := range payments {
		candidates = append(candidates, payment)
	}

	results, err := s.enricher.Match(ctx, candidates, enrichment.MatchOptions{
		Filter:     s.filter,
		TagDone:    ledger.TagAllegroDone,
		WindowDays: evidence.SettlementWindowDays,
	})
	if err != nil {
		return MatchSummary{}, err
	}

	s.state.PutMatches(secretID, results)

	summary := summarize(results)
	s.log.Info("computed allegro matches", "secret", secretID,
		"transactions", summary.Transactions, "matched", summary.Matched, "ambiguous", summary.Ambiguous)
	return summary, nil
}

// Results returns the cached match results for a secret.
func (s *Service) Results(secretID uuid.UUID) ([]matcher.MatchResult, error) {
	return s.state.Matches(secretID)
}

// StartApplyJob registers a job for the given decisions and runs it in the
// background. The caller polls Job for progress.
func (s *Service) StartApplyJob(ctx context.Context, secretID uuid.UUID, decisions []MatchDecision) (ApplyJob, error) {
	results, err := s.state.Matches(secretID)
	if err != nil {
		return ApplyJob{}, err
	}

	job := &ApplyJob{
		ID:       uuid.New(),
		SecretID: secretID,
		Status:   JobPending,
		Total:    len(decisions),
	}
	s.state.RegisterJob(job)
	snapshot := *job

	go s.runApplyJob(context.WithoutCancel(ctx), snapshot.ID, results, decisions)

	s.log.Info("started apply job", "job", snapshot.ID, "secret", secretID, "decisions", len(decisions))
	return snapshot, nil
}

// Job returns a snapshot of one apply job.
func (s *Service) Job(id uuid.UUID) (ApplyJob, error) {
	return s.state.Job(id)
}

// runApplyJob walks the decisions, enriching one transaction per decision.
// Decisions fail independently; the job always reaches done.
func (s *Service) runApplyJob(ctx context.Context, jobID uuid.UUID, results []matcher.MatchResult, decisions []MatchDecision) {
	now := time.Now().UTC()
	s.state.UpdateJob(jobID, func(job *ApplyJob) {
		job.Status = JobRunning
		job.StartedAt = &now
	})

	byTx := make(map[int]matcher.MatchResult, len(results))
	for _, result := range results {
		byTx[result.Tx.ID] = result
	}

	for _, decision := range decisions {
		err := s.applyDecision(ctx, byTx, decision)
		s.state.UpdateJob(jobID, func(job *ApplyJob) {
			if err != nil {
				job.Failed++
			} else {
				job.Applied++
			}
		})
		if err != nil {
			s.log.Warn("apply decision failed", "job", jobID,
				"transaction", decision.TransactionID, "error", err)
		}
	}

	finished := time.Now().UTC()
	s.state.UpdateJob(jobID, func(job *ApplyJob) {
		job.Status = JobDone
		job.FinishedAt = &finished
	})
	s.log.Info("apply job finished", "job", jobID)
}

func (s *Service) applyDecision(ctx context.Context, byTx map[int]matcher.MatchResult, decision MatchDecision) error {
	result, ok := byTx[decision.TransactionID]
	if !ok {
		return apperr.ErrTransactionNotFound
	}

	match, err := selectMatch(result.Matches, decision.PaymentID)
	if err != nil {
		return err
	}
	return s.enricher.ApplyMatch(ctx, result.Tx, match)
}

// selectMatch picks the payment named by shortID, or the sole match when no
// short id was given.
func selectMatch(matches []ledger.Evidence, shortID string) (ledger.Evidence, error) {
	if shortID == "" {
		if len(matches) != 1 {
			return nil, fmt.Errorf("%w: %d matches and no payment id", apperr.ErrInvalidMatchSelection, len(matches))
		}
		return matches[0], nil
	}

	for _, match := range matches {
		payment, ok := match.(*evidence.AllegroOrderPayment)
		if ok && payment.ExternalShortID == shortID {
			return match, nil
		}
	}
	return nil, fmt.Errorf("%w: no match with payment id %s", apperr.ErrInvalidMatchSelection, shortID)
}

// Statistics returns the current metrics snapshot.
func (s *Service) Statistics() metrics.State[enrichment.FlowMetrics] {
	return s.stats.GetState()
}

// RefreshStatistics schedules a metrics recomputation.
func (s *Service) RefreshStatistics(ctx context.Context) metrics.State[enrichment.FlowMetrics] {
	return s.stats.Refresh(ctx)
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
