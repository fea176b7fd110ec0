package bankcsv

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = "Lista operacji z dnia 2024-01-31;;;;;;;;;\n" +
	"Data transakcji;Kwota w walucie rachunku;Kwota operacji;Nazwa nadawcy;Nazwa odbiorcy;Szczegóły transakcji;Waluta operacji;Waluta rachunku;Numer rachunku nadawcy;Numer rachunku odbiorcy\n" +
	"05-01-2024;-10,00;-10,00;Jan Kowalski;Sklep ABC;BLIK payment;PLN;PLN;PL61109010140000071219812874;PL27114020040000300201355387\n" +
	"07-01-2024;1 234,56;1 234,56;Firma XYZ;Jan Kowalski;salary;PLN;PLN;;\n"

func TestParse_ReadsAllRows(t *testing.T) {
	records, err := Parse(strings.NewReader(sampleCSV))

	require.NoError(t, err)
	require.Len(t, records, 2)

	first := records[0]
	assert.Equal(t, time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), first.Date)
	assert.Equal(t, "-10", first.Amount.String())
	assert.Equal(t, "BLIK payment", first.Details)
	assert.Equal(t, "Jan Kowalski", first.Sender)
	assert.Equal(t, "Sklep ABC", first.Recipient)
	assert.Equal(t, "PLN", first.OperationCcy)

	second := records[1]
	assert.Equal(t, "1234.56", second.Amount.String())
}

func TestParse_EmptyFile(t *testing.T) {
	_, err := Parse(strings.NewReader(""))

	assert.Error(t, err)
}

func TestParse_MissingHeaderColumn(t *testing.T) {
	csv := "preamble\nData transakcji;Nazwa nadawcy\n05-01-2024;Jan\n"

	_, err := Parse(strings.NewReader(csv))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "Kwota w walucie rachunku")
}

func TestParse_MissingOperationAmountColumn(t *testing.T) {
	// Rows always read this column, so its absence is a header error, not a
	// confusing per-row amount failure.
	csv := "preamble\n" +
		"Data transakcji;Kwota w walucie rachunku;Szczegóły transakcji\n" +
		"05-01-2024;-10,00;BLIK payment\n"

	_, err := Parse(strings.NewReader(csv))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "Kwota operacji")
}

func TestParse_BadDate(t *testing.T) {
	csv := "preamble;;\n" +
		"Data transakcji;Kwota w walucie rachunku;Kwota operacji;Szczegóły transakcji\n" +
		"2024-01-05;-10,00;-10,00;BLIK payment\n"

	_, err := Parse(strings.NewReader(csv))

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, 1, parseErr.Row)
	assert.Equal(t, "Data transakcji", parseErr.Column)
}

func TestParse_BadAmount(t *testing.T) {
	csv := "preamble;;\n" +
		"Data transakcji;Kwota w walucie rachunku;Kwota operacji;Szczegóły transakcji\n" +
		"05-01-2024;abc;-10,00;BLIK payment\n"

	_, err := Parse(strings.NewReader(csv))

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, "Kwota w walucie rachunku", parseErr.Column)
}

func TestParseDate(t *testing.T) {
	date, err := ParseDate("09-11-2025")

	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 11, 9, 0, 0, 0, 0, time.UTC), date)

	_, err = ParseDate("2025-11-09")
	assert.Error(t, err)
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"10,00", "10"},
		{"-10,50", "-10.5"},
		{"1 234,56", "1234.56"},
		{" 99,99 ", "99.99"},
	}

	for _, tt := range tests {
		amount, err := ParseAmount(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, amount.String(), tt.in)
	}

	_, err := ParseAmount("not-a-number")
	assert.Error(t, err)
}
