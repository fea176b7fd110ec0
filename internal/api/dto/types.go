// Package dto holds the HTTP request and response shapes plus the mapping
// from domain types and application errors.
package dto

import (
	"time"

	"github.com/mkret/firefly-enricher/internal/domain/evidence"
	"github.com/mkret/firefly-enricher/internal/domain/ledger"
	"github.com/mkret/firefly-enricher/internal/domain/matcher"
	"github.com/mkret/firefly-enricher/internal/infrastructure/storage"
)

const dayFormat = "2006-01-02"

// Transaction is the ledger transaction view.
type Transaction struct {
	ID          int      `json:"id"`
	Type        string   `json:"type"`
	Date        string   `json:"date"`
	Amount      string   `json:"amount"`
	Description string   `json:"description"`
	Tags        []string `json:"tags,omitempty"`
	Notes       string   `json:"notes,omitempty"`
	Category    *string  `json:"category,omitempty"`
	Currency    string   `json:"currency,omitempty"`
	FXAmount    string   `json:"fx_amount,omitempty"`
	FXCurrency  string   `json:"fx_currency,omitempty"`
}

// FromTransaction maps a domain transaction.
func FromTransaction(tx *ledger.Transaction) Transaction {
	out := Transaction{
		ID:          tx.ID,
		Type:        string(tx.Type),
		Date:        tx.Date.Format(dayFormat),
		Amount:      tx.Amount.String(),
		Description: tx.Description,
		Tags:        tx.Tags,
		Notes:       tx.Notes,
		Currency:    tx.Currency.Code,
	}
	if tx.Category != nil {
		out.Category = &tx.Category.Name
	}
	if tx.FX != nil {
		out.FXAmount = tx.FX.OriginalAmount.String()
		out.FXCurrency = tx.FX.OriginalCurrency.Code
	}
	return out
}

// BankRecord is the CSV preview view of one parsed record.
type BankRecord struct {
	Date    string `json:"date"`
	Amount  string `json:"amount"`
	Details string `json:"details"`
	Pretty  string `json:"pretty"`
}

// FromBankRecord maps a parsed bank record.
func FromBankRecord(r *evidence.BankRecord) BankRecord {
	return BankRecord{
		Date:    r.Date.Format(dayFormat),
		Amount:  r.Amount.String(),
		Details: r.Details,
		Pretty:  r.PrettyPrint(),
	}
}

// Evidence is one match candidate paired with a transaction. The payment
// fields are set only for marketplace evidence.
type Evidence struct {
	Date       string `json:"date"`
	Amount     string `json:"amount"`
	Details    string `json:"details"`
	PaymentID  string `json:"payment_id,omitempty"`
	Login      string `json:"login,omitempty"`
	IsBalanced *bool  `json:"is_balanced,omitempty"`
}

// FromEvidence maps any evidence kind the matcher produces.
func FromEvidence(ev ledger.Evidence) Evidence {
	out := Evidence{
		Date:   ev.ItemDate().Format(dayFormat),
		Amount: ev.ItemAmount().String(),
	}

	switch e := ev.(type) {
	case *evidence.BankRecord:
		out.Details = e.Details
	case *evidence.AllegroOrderPayment:
		out.Details = e.Detail()
		out.PaymentID = e.ExternalShortID
		out.Login = e.Login
		balanced := e.IsBalanced
		out.IsBalanced = &balanced
	case *evidence.OrderPayment:
		out.Details = e.Detail()
	}
	return out
}

// MatchResult pairs a transaction with its candidates.
type MatchResult struct {
	Transaction Transaction `json:"transaction"`
	Matches     []Evidence  `json:"matches"`
}

// FromMatchResults maps the matcher output.
func FromMatchResults(results []matcher.MatchResult) []MatchResult {
	out := make([]MatchResult, 0, len(results))
	for _, result := range results {
		mapped := MatchResult{Transaction: FromTransaction(result.Tx)}
		for _, match := range result.Matches {
			mapped.Matches = append(mapped.Matches, FromEvidence(match))
		}
		out = append(out, mapped)
	}
	return out
}

// Secret is the stored-credential view. The value itself is never exposed.
type Secret struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Label     string `json:"label"`
	CreatedAt string `json:"created_at"`
}

// FromSecret maps a stored secret, dropping its value.
func FromSecret(s *storage.Secret) Secret {
	return Secret{
		ID:        s.ID.String(),
		Type:      s.Type,
		Label:     s.Label,
		CreatedAt: s.CreatedAt.Format(time.RFC3339),
	}
}

// CreateSecretRequest is the body for storing a new secret.
type CreateSecretRequest struct {
	Type  string `json:"type" binding:"required"`
	Label string `json:"label"`
	Value string `json:"value" binding:"required"`
}

// UploadResponse acknowledges a stored CSV upload.
type UploadResponse struct {
	ID      string `json:"id"`
	Records int    `json:"records"`
}

// ApplyRequest selects the transactions to enrich from a computed preview.
type ApplyRequest struct {
	TransactionIDs []int `json:"transaction_ids" binding:"required"`
}

// CategoryRequest sets a category on a transaction.
type CategoryRequest struct {
	CategoryID int `json:"category_id" binding:"required"`
}

// TagRequest adds a tag to a transaction.
type TagRequest struct {
	Tag string `json:"tag" binding:"required"`
}
