package evidence

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkret/firefly-enricher/internal/domain/ledger"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func makeBankRecord(date, amount, details string) *BankRecord {
	return &BankRecord{
		BaseItem: ledger.BaseItem{Date: day(date), Amount: dec(amount)},
		Details:  details,
	}
}

func makeTx(date, amount string) *ledger.Transaction {
	return &ledger.Transaction{
		BaseItem: ledger.BaseItem{Date: day(date), Amount: dec(amount)},
		ID:       1,
		Type:     ledger.TypeWithdrawal,
	}
}

func TestBankRecord_Compare_ExactDateOnly(t *testing.T) {
	record := makeBankRecord("2024-01-05", "10.00", "BLIK payment")

	assert.True(t, record.Compare(makeTx("2024-01-05", "-10.00")))
	// Bank records get no date window; one day off is a miss.
	assert.False(t, record.Compare(makeTx("2024-01-06", "-10.00")))
}

func TestBankRecord_BuildTransactionUpdate(t *testing.T) {
	record := makeBankRecord("2024-01-05", "10.00", "BLIK payment")
	tx := makeTx("2024-01-05", "-10.00")
	tx.Description = "BLIK transfer"

	update, err := record.BuildTransactionUpdate(tx)

	require.NoError(t, err)
	require.NotNil(t, update.Description)
	assert.Equal(t, "BLIK transfer;BLIK payment", *update.Description)
	require.NotNil(t, update.Notes)
	assert.Equal(t, "BLIK payment", *update.Notes)
	assert.Equal(t, []string{ledger.TagBlikDone}, update.Tags)
}

func TestBankRecord_BuildTransactionUpdate_Idempotent(t *testing.T) {
	record := makeBankRecord("2024-01-05", "10.00", "BLIK payment")
	tx := makeTx("2024-01-05", "-10.00")
	tx.Description = "BLIK transfer"

	first, err := record.BuildTransactionUpdate(tx)
	require.NoError(t, err)

	// Simulate the ledger having applied the first update.
	tx.Description = *first.Description
	tx.Notes = *first.Notes
	tx.Tags = first.Tags

	second, err := record.BuildTransactionUpdate(tx)
	require.NoError(t, err)

	assert.Nil(t, second.Description)
	assert.Nil(t, second.Notes)
	assert.Equal(t, first.Tags, second.Tags)
}

func TestBankRecord_BuildTransactionUpdate_CaseInsensitive(t *testing.T) {
	record := makeBankRecord("2024-01-05", "10.00", "blik PAYMENT")
	tx := makeTx("2024-01-05", "-10.00")
	tx.Description = "something;BLIK payment"
	tx.Notes = "BLIK Payment"

	update, err := record.BuildTransactionUpdate(tx)

	require.NoError(t, err)
	assert.Nil(t, update.Description)
	assert.Nil(t, update.Notes)
}

func TestBankRecord_BuildTransactionUpdate_EmptyDetails(t *testing.T) {
	record := makeBankRecord("2024-01-05", "10.00", "  ")
	tx := makeTx("2024-01-05", "-10.00")

	_, err := record.BuildTransactionUpdate(tx)

	assert.ErrorIs(t, err, ErrEmptyDetails)
}

func TestBankRecord_BuildTransactionUpdate_TagUnion(t *testing.T) {
	record := makeBankRecord("2024-01-05", "10.00", "BLIK payment")
	tx := makeTx("2024-01-05", "-10.00")
	tx.Tags = []string{ledger.TagBlikDone, "groceries"}

	update, err := record.BuildTransactionUpdate(tx)

	require.NoError(t, err)
	assert.Len(t, update.Tags, 2)
	assert.Contains(t, update.Tags, ledger.TagBlikDone)
	assert.Contains(t, update.Tags, "groceries")
}

func TestBankRecord_PrettyPrint_OmitsEmptyFields(t *testing.T) {
	record := &BankRecord{
		BaseItem:  ledger.BaseItem{Date: day("2024-01-05"), Amount: dec("10.00")},
		Details:   "BLIK payment",
		Recipient: "Jan Kowalski",
	}

	out := record.PrettyPrint()

	assert.Contains(t, out, "date: 2024-01-05")
	assert.Contains(t, out, "amount: 10")
	assert.Contains(t, out, "details: BLIK payment")
	assert.Contains(t, out, "recipient: Jan Kowalski")
	assert.NotContains(t, out, "sender_account")
	assert.NotContains(t, out, "operation_amount")
}
