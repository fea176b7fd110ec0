package matcher

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkret/firefly-enricher/internal/domain/evidence"
	"github.com/mkret/firefly-enricher/internal/domain/ledger"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func makeTx(id int, date, amount string) *ledger.Transaction {
	return &ledger.Transaction{
		BaseItem: ledger.BaseItem{Date: day(date), Amount: decimal.RequireFromString(amount)},
		ID:       id,
		Type:     ledger.TypeWithdrawal,
	}
}

func makeRecord(date, amount, details string) *evidence.BankRecord {
	return &evidence.BankRecord{
		BaseItem: ledger.BaseItem{Date: day(date), Amount: decimal.RequireFromString(amount)},
		Details:  details,
	}
}

func TestMatch_PairsByCompare(t *testing.T) {
	txs := []*ledger.Transaction{
		makeTx(1, "2024-01-05", "-10.00"),
		makeTx(2, "2024-01-06", "-20.00"),
	}
	candidates := []ledger.Evidence{
		makeRecord("2024-01-05", "10.00", "BLIK payment"),
		makeRecord("2024-01-06", "20.00", "other payment"),
	}

	results := Match(txs, candidates)

	require.Len(t, results, 2)
	require.Len(t, results[0].Matches, 1)
	assert.Same(t, candidates[0], results[0].Matches[0])
	require.Len(t, results[1].Matches, 1)
	assert.Same(t, candidates[1], results[1].Matches[0])
}

func TestMatch_UnmatchedTransactionKeepsEmptyList(t *testing.T) {
	txs := []*ledger.Transaction{makeTx(1, "2024-01-06", "-10.00")}
	candidates := []ledger.Evidence{makeRecord("2024-01-05", "10.00", "BLIK payment")}

	results := Match(txs, candidates)

	require.Len(t, results, 1)
	assert.Empty(t, results[0].Matches)
}

func TestMatch_MultipleCandidatesCollected(t *testing.T) {
	txs := []*ledger.Transaction{makeTx(1, "2024-01-05", "-10.00")}
	candidates := []ledger.Evidence{
		makeRecord("2024-01-05", "10.00", "first"),
		makeRecord("2024-01-05", "-10.00", "second"),
	}

	results := Match(txs, candidates)

	require.Len(t, results, 1)
	assert.Len(t, results[0].Matches, 2)
}

func TestMatch_PreservesTransactionOrder(t *testing.T) {
	txs := []*ledger.Transaction{
		makeTx(3, "2024-01-07", "-30.00"),
		makeTx(1, "2024-01-05", "-10.00"),
		makeTx(2, "2024-01-06", "-20.00"),
	}

	results := Match(txs, nil)

	require.Len(t, results, 3)
	assert.Equal(t, 3, results[0].Tx.ID)
	assert.Equal(t, 1, results[1].Tx.ID)
	assert.Equal(t, 2, results[2].Tx.ID)
}

func TestMatch_Deterministic(t *testing.T) {
	txs := []*ledger.Transaction{
		makeTx(1, "2024-01-05", "-10.00"),
		makeTx(2, "2024-01-05", "-10.00"),
	}
	candidates := []ledger.Evidence{
		makeRecord("2024-01-05", "10.00", "a"),
		makeRecord("2024-01-05", "10.00", "b"),
	}

	first := Match(txs, candidates)
	second := Match(txs, candidates)

	assert.Equal(t, first, second)
}

func TestMatch_MixedEvidenceTypes(t *testing.T) {
	// A marketplace payment matches through its settlement window while a
	// bank record on the same candidate list still requires the exact day.
	txs := []*ledger.Transaction{makeTx(1, "2024-01-08", "-24.68")}
	payment := &evidence.OrderPayment{
		BaseItem: ledger.BaseItem{Date: day("2024-01-05"), Amount: decimal.RequireFromString("24.68")},
		Details:  []string{"Buyer: jan"},
		TagDone:  ledger.TagAllegroDone,
	}
	record := makeRecord("2024-01-05", "24.68", "BLIK payment")

	results := Match(txs, []ledger.Evidence{payment, record})

	require.Len(t, results, 1)
	require.Len(t, results[0].Matches, 1)
	assert.Same(t, payment, results[0].Matches[0])
}

func TestMatch_EmptyInputs(t *testing.T) {
	assert.Empty(t, Match(nil, nil))

	results := Match(nil, []ledger.Evidence{makeRecord("2024-01-05", "10.00", "x")})
	assert.Empty(t, results)
}
