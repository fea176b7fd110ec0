package enrichment

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mkret/firefly-enricher/internal/adapters/firefly"
	"github.com/mkret/firefly-enricher/internal/domain/ledger"
)

// parseDay extracts the calendar day from a ledger timestamp. Timestamps
// carry the instance's own offset, so the day is taken in that offset and
// only then pinned to midnight UTC; converting to UTC first would shift
// midnight-local dates onto the previous day.
func parseDay(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t, err = time.Parse("2006-01-02", s)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid transaction date %q", s)
		}
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
}

// mapTransaction converts a wire transaction into the domain model.
func mapTransaction(r firefly.TransactionRead) (*ledger.Transaction, error) {
	date, err := parseDay(r.Date)
	if err != nil {
		return nil, err
	}

	amount, err := decimal.NewFromString(r.Amount)
	if err != nil {
		return nil, fmt.Errorf("invalid transaction amount %q", r.Amount)
	}

	tx := &ledger.Transaction{
		BaseItem: ledger.BaseItem{
			Date:   date,
			Amount: amount,
		},
		ID:          r.ID,
		Type:        ledger.TxType(r.Type),
		Description: r.Description,
		Tags:        r.Tags,
		Notes:       r.Notes,
		Currency: ledger.Currency{
			Code:     r.CurrencyCode,
			Symbol:   r.CurrencySymbol,
			Decimals: r.CurrencyDecimal,
		},
	}

	if r.CategoryID != nil {
		tx.Category = &ledger.Category{ID: *r.CategoryID, Name: r.CategoryName}
	}

	if r.ForeignCurrency != "" && r.ForeignAmount != "" {
		if foreign, err := decimal.NewFromString(r.ForeignAmount); err == nil {
			tx.FX = &ledger.FXContext{
				OriginalCurrency: ledger.Currency{
					Code:     r.ForeignCurrency,
					Symbol:   r.ForeignSymbol,
					Decimals: r.ForeignDecimal,
				},
				OriginalAmount: foreign,
			}
		}
	}

	return tx, nil
}

// mapUpdate converts a domain update into the wire request.
func mapUpdate(u ledger.TransactionUpdate) firefly.TransactionUpdateRequest {
	return firefly.TransactionUpdateRequest{
		Description: u.Description,
		Notes:       u.Notes,
		Tags:        u.Tags,
		CategoryID:  u.CategoryID,
	}
}
