package firefly

// Wire shapes of the Firefly III API. Amounts stay strings here; the
// application layer converts them to decimals when mapping into the domain.

// TransactionRead is a single split of a transaction group as returned by
// the transactions listing.
type TransactionRead struct {
	ID              int      `json:"id"`
	Type            string   `json:"type"`
	Date            string   `json:"date"`
	Amount          string   `json:"amount"`
	Description     string   `json:"description"`
	Tags            []string `json:"tags"`
	Notes           string   `json:"notes"`
	CategoryID      *int     `json:"category_id"`
	CategoryName    string   `json:"category_name"`
	CurrencyCode    string   `json:"currency_code"`
	CurrencySymbol  string   `json:"currency_symbol"`
	CurrencyDecimal int      `json:"currency_decimal_places"`
	ForeignCurrency string   `json:"foreign_currency_code"`
	ForeignSymbol   string   `json:"foreign_currency_symbol"`
	ForeignDecimal  int      `json:"foreign_currency_decimal_places"`
	ForeignAmount   string   `json:"foreign_amount"`
}

// CategoryRead is a ledger category.
type CategoryRead struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// TransactionUpdateRequest is the sparse update payload. Only non-nil
// fields are sent.
type TransactionUpdateRequest struct {
	Description *string  `json:"description,omitempty"`
	Notes       *string  `json:"notes,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	CategoryID  *int     `json:"category_id,omitempty"`
}

// FetchStats is the bookkeeping gathered while paging through the
// transactions listing: how many raw records were seen, how many were
// skipped as unparsable, how many belonged to multi-split groups, and how
// long the whole fetch took.
type FetchStats struct {
	Total          int
	Invalid        int
	Multipart      int
	DurationMillis int64
}
