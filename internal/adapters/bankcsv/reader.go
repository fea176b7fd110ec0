// Package bankcsv parses the bank's semicolon-delimited CSV export into
// domain bank records. The format is Polish-locale: DD-MM-YYYY dates, comma
// decimal separators, optional space thousands separators, and one
// free-form line above the header row.
package bankcsv

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mkret/firefly-enricher/internal/domain/evidence"
	"github.com/mkret/firefly-enricher/internal/domain/ledger"
)

// Header column names as exported by the bank.
const (
	colDate             = "Data transakcji"
	colAmount           = "Kwota w walucie rachunku"
	colOperationAmount  = "Kwota operacji"
	colSender           = "Nazwa nadawcy"
	colRecipient        = "Nazwa odbiorcy"
	colDetails          = "Szczegóły transakcji"
	colOperationCcy     = "Waluta operacji"
	colAccountCcy       = "Waluta rachunku"
	colSenderAccount    = "Numer rachunku nadawcy"
	colRecipientAccount = "Numer rachunku odbiorcy"
)

// ParseError names the row that could not be parsed. Malformed input is a
// caller-facing validation failure, never silently skipped.
type ParseError struct {
	Row    int
	Column string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("csv row %d, column %q: %v", e.Row, e.Column, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ParseDate parses a DD-MM-YYYY date into a midnight-UTC day.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse("02-01-2006", strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date format: %q", s)
	}
	return ledger.Day(t), nil
}

// ParseAmount parses a Polish-locale monetary amount: spaces as thousands
// separators, comma as the decimal separator.
func ParseAmount(s string) (decimal.Decimal, error) {
	normalized := strings.ReplaceAll(strings.TrimSpace(s), " ", "")
	normalized = strings.ReplaceAll(normalized, "\u00a0", "")
	normalized = strings.ReplaceAll(normalized, ",", ".")

	amount, err := decimal.NewFromString(normalized)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid amount format: %q", s)
	}
	return amount, nil
}

// Parse reads the bank CSV export and returns one record per data row.
func Parse(r io.Reader) ([]*evidence.BankRecord, error) {
	reader := csv.NewReader(r)
	reader.Comma = ';'
	reader.FieldsPerRecord = -1

	// The export starts with a free-form line before the actual header.
	if _, err := reader.Read(); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("empty csv file")
		}
		return nil, err
	}

	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("csv file has no header row")
		}
		return nil, err
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}
	for _, required := range []string{colDate, colAmount, colOperationAmount, colDetails} {
		if _, ok := index[required]; !ok {
			return nil, fmt.Errorf("csv header is missing column %q", required)
		}
	}

	field := func(row []string, name string) string {
		i, ok := index[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	var records []*evidence.BankRecord
	for rowNum := 1; ; rowNum++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &ParseError{Row: rowNum, Column: "", Err: err}
		}

		date, err := ParseDate(field(row, colDate))
		if err != nil {
			return nil, &ParseError{Row: rowNum, Column: colDate, Err: err}
		}
		amount, err := ParseAmount(field(row, colAmount))
		if err != nil {
			return nil, &ParseError{Row: rowNum, Column: colAmount, Err: err}
		}
		operationAmount, err := ParseAmount(field(row, colOperationAmount))
		if err != nil {
			return nil, &ParseError{Row: rowNum, Column: colOperationAmount, Err: err}
		}

		records = append(records, &evidence.BankRecord{
			BaseItem: ledger.BaseItem{
				Date:   date,
				Amount: amount,
			},
			Details:          field(row, colDetails),
			Recipient:        field(row, colRecipient),
			OperationAmount:  operationAmount,
			Sender:           field(row, colSender),
			OperationCcy:     field(row, colOperationCcy),
			AccountCcy:       field(row, colAccountCcy),
			SenderAccount:    field(row, colSenderAccount),
			RecipientAccount: field(row, colRecipientAccount),
		})
	}

	return records, nil
}
