package allegro

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	adapter "github.com/mkret/firefly-enricher/internal/adapters/allegro"
	"github.com/mkret/firefly-enricher/internal/adapters/firefly"
	"github.com/mkret/firefly-enricher/internal/apperr"
	"github.com/mkret/firefly-enricher/internal/application/enrichment"
	"github.com/mkret/firefly-enricher/internal/domain/evidence"
	"github.com/mkret/firefly-enricher/internal/domain/ledger"
	"github.com/mkret/firefly-enricher/internal/infrastructure/storage"
)

type fakeMarketplace struct {
	login    string
	payments []adapter.Payment
	err      error
}

func (f *fakeMarketplace) GetUserInfo(_ context.Context) (adapter.UserInfo, error) {
	if f.err != nil {
		return adapter.UserInfo{}, f.err
	}
	return adapter.UserInfo{Login: f.login}, nil
}

func (f *fakeMarketplace) GetOrders(_ context.Context) ([]adapter.Payment, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.payments, nil
}

type fakeLedger struct {
	txs     []firefly.TransactionRead
	updates map[int]firefly.TransactionUpdateRequest
}

func (f *fakeLedger) FetchTransactionsWithStats(_ context.Context, _ firefly.FetchOptions) ([]firefly.TransactionRead, firefly.FetchStats, error) {
	return f.txs, firefly.FetchStats{Total: len(f.txs)}, nil
}

func (f *fakeLedger) FetchTransaction(_ context.Context, id int) (firefly.TransactionRead, error) {
	for _, tx := range f.txs {
		if tx.ID == id {
			return tx, nil
		}
	}
	return firefly.TransactionRead{}, apperr.ErrTransactionNotFound
}

func (f *fakeLedger) UpdateTransaction(_ context.Context, id int, update firefly.TransactionUpdateRequest) error {
	if f.updates == nil {
		f.updates = make(map[int]firefly.TransactionUpdateRequest)
	}
	f.updates[id] = update
	return nil
}

func (f *fakeLedger) FetchCategories(_ context.Context) ([]firefly.CategoryRead, error) {
	return nil, nil
}

func payment(id string, date time.Time, amount string) adapter.Payment {
	value := decimal.RequireFromString(amount)
	return adapter.Payment{
		PaymentID: id,
		Date:      date,
		Orders: []adapter.Order{{
			OrderID:       "order-" + id,
			Seller:        "seller",
			Date:          date,
			TotalCost:     value,
			PaymentAmount: value,
			PaymentID:     id,
			Offers: []adapter.Offer{{
				ID: "offer-1", Title: "USB cable", UnitPrice: value, Currency: "PLN", Quantity: 1,
			}},
		}},
	}
}

func newTestService(t *testing.T, market *fakeMarketplace, client *fakeLedger) (*Service, uuid.UUID) {
	t.Helper()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	secrets := storage.NewMemoryStore()
	secret := &storage.Secret{UserID: "user-1", Type: storage.SecretTypeAllegro, Label: "acc", Value: "cookie"}
	require.NoError(t, secrets.Create(context.Background(), secret))

	svc := enrichment.NewService(client, log)
	filter := enrichment.DescriptionFilter{Text: "Allegro"}
	stats := enrichment.NewStatsService(svc, enrichment.DescriptionFilter{Text: "BLIK"}, filter, log)

	factory := func(string) MarketplaceClient { return market }
	service := NewService(secrets, factory, enrichment.NewEnrichmentService(svc, log), stats, NewStateStore(), filter, log)
	return service, secret.ID
}

func ledgerTx(id int, date, amount string) firefly.TransactionRead {
	return firefly.TransactionRead{
		ID:          id,
		Type:        "withdrawal",
		Date:        date,
		Amount:      amount,
		Description: "Allegro zakup",
	}
}

func TestListSecrets_FiltersByType(t *testing.T) {
	service, _ := newTestService(t, &fakeMarketplace{}, &fakeLedger{})
	other := &storage.Secret{UserID: "user-1", Type: "other", Value: "x"}
	require.NoError(t, service.secrets.Create(context.Background(), other))

	secrets, err := service.ListSecrets(context.Background(), "user-1")

	require.NoError(t, err)
	require.Len(t, secrets, 1)
	assert.Equal(t, storage.SecretTypeAllegro, secrets[0].Type)
}

func TestFetchPayments(t *testing.T) {
	day := time.Date(2024, 1, 5, 10, 30, 0, 0, time.UTC)
	market := &fakeMarketplace{login: "buyer", payments: []adapter.Payment{payment("pay-1", day, "24.68")}}
	service, secretID := newTestService(t, market, &fakeLedger{})

	login, payments, err := service.FetchPayments(context.Background(), secretID)

	require.NoError(t, err)
	assert.Equal(t, "buyer", login)
	require.Len(t, payments, 1)
	assert.Equal(t, "pay-1", payments[0].ExternalID)
	assert.Equal(t, evidence.ShortID("pay-1"), payments[0].ExternalShortID)
	assert.True(t, payments[0].IsBalanced)
	assert.Equal(t, time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), payments[0].Date)
}

func TestFetchPayments_UnknownSecret(t *testing.T) {
	service, _ := newTestService(t, &fakeMarketplace{}, &fakeLedger{})

	_, _, err := service.FetchPayments(context.Background(), uuid.New())

	assert.ErrorIs(t, err, apperr.ErrSecretNotFound)
}

func TestFetchAllPayments_IsolatesAccountFailures(t *testing.T) {
	market := &fakeMarketplace{err: &adapter.AuthError{StatusCode: 401}}
	service, secretID := newTestService(t, market, &fakeLedger{})

	accounts, err := service.FetchAllPayments(context.Background(), "user-1")

	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, secretID, accounts[0].SecretID)
	assert.Contains(t, accounts[0].Err, "authentication failed")
}

func TestComputeMatches_SettlementWindow(t *testing.T) {
	day := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	market := &fakeMarketplace{login: "buyer", payments: []adapter.Payment{payment("pay-1", day, "30.00")}}
	client := &fakeLedger{txs: []firefly.TransactionRead{
		// Three days after the payment, inside the settlement window.
		ledgerTx(1, "2024-01-08T00:00:00+01:00", "-30.00"),
	}}
	service, secretID := newTestService(t, market, client)

	summary, err := service.ComputeMatches(context.Background(), secretID)

	require.NoError(t, err)
	assert.Equal(t, 1, summary.Transactions)
	assert.Equal(t, 1, summary.Matched)

	results, err := service.Results(secretID)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Len(t, results[0].Matches, 1)
}

func TestResults_BeforeCompute(t *testing.T) {
	service, secretID := newTestService(t, &fakeMarketplace{}, &fakeLedger{})

	_, err := service.Results(secretID)

	assert.ErrorIs(t, err, apperr.ErrMatchesNotComputed)
}

func TestStartApplyJob_Lifecycle(t *testing.T) {
	day := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	market := &fakeMarketplace{login: "buyer", payments: []adapter.Payment{payment("pay-1", day, "30.00")}}
	client := &fakeLedger{txs: []firefly.TransactionRead{
		ledgerTx(1, "2024-01-06T00:00:00+01:00", "-30.00"),
	}}
	service, secretID := newTestService(t, market, client)
	_, err := service.ComputeMatches(context.Background(), secretID)
	require.NoError(t, err)

	job, err := service.StartApplyJob(context.Background(), secretID, []MatchDecision{
		{TransactionID: 1},
		{TransactionID: 99}, // unknown, must fail without aborting
	})
	require.NoError(t, err)
	assert.Equal(t, 2, job.Total)

	require.Eventually(t, func() bool {
		snapshot, err := service.Job(job.ID)
		return err == nil && snapshot.Status == JobDone
	}, time.Second, 5*time.Millisecond)

	snapshot, err := service.Job(job.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, snapshot.Applied)
	assert.Equal(t, 1, snapshot.Failed)
	require.NotNil(t, snapshot.StartedAt)
	require.NotNil(t, snapshot.FinishedAt)

	update, ok := client.updates[1]
	require.True(t, ok)
	assert.Contains(t, update.Tags, ledger.TagAllegroDone)
	require.NotNil(t, update.Notes)
	assert.Contains(t, *update.Notes, "Buyer: buyer")
}

func TestStartApplyJob_DisambiguatesByShortID(t *testing.T) {
	day := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	market := &fakeMarketplace{login: "buyer", payments: []adapter.Payment{
		payment("pay-1", day, "30.00"),
		payment("pay-2", day, "30.00"),
	}}
	client := &fakeLedger{txs: []firefly.TransactionRead{
		ledgerTx(1, "2024-01-05T00:00:00+01:00", "-30.00"),
	}}
	service, secretID := newTestService(t, market, client)
	_, err := service.ComputeMatches(context.Background(), secretID)
	require.NoError(t, err)

	job, err := service.StartApplyJob(context.Background(), secretID, []MatchDecision{
		{TransactionID: 1, PaymentID: evidence.ShortID("pay-2")},
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		snapshot, _ := service.Job(job.ID)
		return snapshot.Status == JobDone
	}, time.Second, 5*time.Millisecond)

	snapshot, _ := service.Job(job.ID)
	assert.Equal(t, 1, snapshot.Applied)
	assert.Equal(t, 0, snapshot.Failed)
}

func TestStartApplyJob_RequiresComputedMatches(t *testing.T) {
	service, secretID := newTestService(t, &fakeMarketplace{}, &fakeLedger{})

	_, err := service.StartApplyJob(context.Background(), secretID, nil)

	assert.ErrorIs(t, err, apperr.ErrMatchesNotComputed)
}

func TestJob_NotFound(t *testing.T) {
	service, _ := newTestService(t, &fakeMarketplace{}, &fakeLedger{})

	_, err := service.Job(uuid.New())

	assert.ErrorIs(t, err, apperr.ErrJobNotFound)
}
