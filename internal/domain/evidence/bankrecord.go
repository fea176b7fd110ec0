// Package evidence implements the concrete evidence types that can enrich a
// ledger transaction: bank CSV records and marketplace order payments.
package evidence

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mkret/firefly-enricher/internal/domain/ledger"
)

// ErrEmptyDetails is returned when evidence has nothing meaningful to attach
// to a transaction. Applying it would be silently useless, so it is treated
// as a caller error.
var ErrEmptyDetails = errors.New("evidence details are empty")

// BankRecord is a single row of an uploaded bank CSV. It matches
// transactions on exact calendar day and absolute amount, and it is the one
// evidence type allowed to rewrite a transaction's description.
type BankRecord struct {
	ledger.BaseItem

	Details          string
	Recipient        string
	OperationAmount  decimal.Decimal
	Sender           string
	OperationCcy     string
	AccountCcy       string
	SenderAccount    string
	RecipientAccount string
}

// BuildTransactionUpdate produces the enrichment patch for a matched
// transaction. The operation is idempotent: details already present in the
// notes or description (case-insensitive) are not appended again, and the
// completion tag is added by set union.
func (r *BankRecord) BuildTransactionUpdate(tx *ledger.Transaction) (ledger.TransactionUpdate, error) {
	if strings.TrimSpace(r.Details) == "" {
		return ledger.TransactionUpdate{}, ErrEmptyDetails
	}

	update := ledger.TransactionUpdate{
		Tags: ledger.TagsWith(tx.Tags, ledger.TagBlikDone),
	}

	if !containsFold(tx.Description, r.Details) {
		desc := tx.Description + ";" + r.Details
		update.Description = &desc
	}

	if !containsFold(tx.Notes, r.Details) {
		notes := ledger.AddLine(tx.Notes, r.Details)
		update.Notes = &notes
	}

	return update, nil
}

// PrettyPrint renders the record as "field: value" lines, omitting empty
// strings and zero amounts. Used by the CSV preview surface.
func (r *BankRecord) PrettyPrint() string {
	type field struct {
		name  string
		value string
		keep  bool
	}

	fields := []field{
		{"date", r.Date.Format("2006-01-02"), true},
		{"amount", r.Amount.String(), !r.Amount.IsZero()},
		{"details", r.Details, strings.TrimSpace(r.Details) != ""},
		{"recipient", r.Recipient, strings.TrimSpace(r.Recipient) != ""},
		{"operation_amount", r.OperationAmount.String(), !r.OperationAmount.IsZero()},
		{"sender", r.Sender, strings.TrimSpace(r.Sender) != ""},
		{"operation_currency", r.OperationCcy, strings.TrimSpace(r.OperationCcy) != ""},
		{"account_currency", r.AccountCcy, strings.TrimSpace(r.AccountCcy) != ""},
		{"sender_account", r.SenderAccount, strings.TrimSpace(r.SenderAccount) != ""},
		{"recipient_account", r.RecipientAccount, strings.TrimSpace(r.RecipientAccount) != ""},
	}

	var lines []string
	for _, f := range fields {
		if f.keep {
			lines = append(lines, fmt.Sprintf("%s: %s", f.name, f.value))
		}
	}
	return strings.Join(lines, "\n")
}

// containsFold reports whether substr occurs in s, case-insensitively.
func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
