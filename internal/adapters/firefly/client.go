// Package firefly is the HTTP client for the Firefly III accounting ledger.
// It is treated as a boundary collaborator: fetch transactions for a date
// range, push sparse updates, fetch categories. No retry policy lives here.
package firefly

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// APIError carries the ledger's HTTP failure back to the caller.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("firefly api error (status %d): %s", e.StatusCode, e.Detail)
}

// FetchOptions bounds a transactions fetch.
type FetchOptions struct {
	Start    time.Time
	End      time.Time
	PageSize int
	MaxPages int
}

// Client talks to one Firefly III instance with a personal access token.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient creates a ledger client.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: 60 * time.Second},
	}
}

// listResponse mirrors the transactions listing: groups of splits plus
// pagination metadata.
type listResponse struct {
	Data []struct {
		ID         string `json:"id"`
		Attributes struct {
			Transactions []rawSplit `json:"transactions"`
		} `json:"attributes"`
	} `json:"data"`
	Meta struct {
		Pagination struct {
			TotalPages  int `json:"total_pages"`
			CurrentPage int `json:"current_page"`
		} `json:"pagination"`
	} `json:"meta"`
}

type rawSplit struct {
	Type            string   `json:"type"`
	Date            string   `json:"date"`
	Amount          string   `json:"amount"`
	Description     string   `json:"description"`
	Tags            []string `json:"tags"`
	Notes           string   `json:"notes"`
	CategoryID      string   `json:"category_id"`
	CategoryName    string   `json:"category_name"`
	CurrencyCode    string   `json:"currency_code"`
	CurrencySymbol  string   `json:"currency_symbol"`
	CurrencyDecimal int      `json:"currency_decimal_places"`
	ForeignCurrency string   `json:"foreign_currency_code"`
	ForeignSymbol   string   `json:"foreign_currency_symbol"`
	ForeignDecimal  int      `json:"foreign_currency_decimal_places"`
	ForeignAmount   string   `json:"foreign_amount"`
}

// FetchTransactions pages through the transactions listing for the given
// range. Multi-split groups and records without a parsable id are skipped;
// use FetchTransactionsWithStats when those counts matter.
func (c *Client) FetchTransactions(ctx context.Context, opts FetchOptions) ([]TransactionRead, error) {
	txs, _, err := c.FetchTransactionsWithStats(ctx, opts)
	return txs, err
}

// FetchTransactionsWithStats is FetchTransactions plus fetch-duration and
// skip-count instrumentation.
func (c *Client) FetchTransactionsWithStats(ctx context.Context, opts FetchOptions) ([]TransactionRead, FetchStats, error) {
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = 1000
	}

	var (
		out   []TransactionRead
		stats FetchStats
	)
	start := time.Now()

	for page := 1; ; page++ {
		if opts.MaxPages > 0 && page > opts.MaxPages {
			break
		}

		q := url.Values{}
		q.Set("page", strconv.Itoa(page))
		q.Set("limit", strconv.Itoa(pageSize))
		if !opts.Start.IsZero() {
			q.Set("start", opts.Start.Format("2006-01-02"))
		}
		if !opts.End.IsZero() {
			q.Set("end", opts.End.Format("2006-01-02"))
		}

		var resp listResponse
		if err := c.do(ctx, http.MethodGet, "/api/v1/transactions?"+q.Encode(), nil, &resp); err != nil {
			return nil, FetchStats{}, err
		}

		for _, group := range resp.Data {
			stats.Total++
			if len(group.Attributes.Transactions) != 1 {
				stats.Multipart++
				continue
			}

			id, err := strconv.Atoi(group.ID)
			if err != nil {
				stats.Invalid++
				continue
			}

			out = append(out, readFromSplit(id, group.Attributes.Transactions[0]))
		}

		if resp.Meta.Pagination.CurrentPage >= resp.Meta.Pagination.TotalPages {
			break
		}
	}

	stats.DurationMillis = time.Since(start).Milliseconds()
	return out, stats, nil
}

// readFromSplit flattens a single-split group into the read DTO.
func readFromSplit(id int, split rawSplit) TransactionRead {
	tx := TransactionRead{
		ID:              id,
		Type:            split.Type,
		Date:            split.Date,
		Amount:          split.Amount,
		Description:     split.Description,
		Tags:            split.Tags,
		Notes:           split.Notes,
		CategoryName:    split.CategoryName,
		CurrencyCode:    split.CurrencyCode,
		CurrencySymbol:  split.CurrencySymbol,
		CurrencyDecimal: split.CurrencyDecimal,
		ForeignCurrency: split.ForeignCurrency,
		ForeignSymbol:   split.ForeignSymbol,
		ForeignDecimal:  split.ForeignDecimal,
		ForeignAmount:   split.ForeignAmount,
	}
	if split.CategoryID != "" {
		if catID, err := strconv.Atoi(split.CategoryID); err == nil {
			tx.CategoryID = &catID
		}
	}
	return tx
}

// FetchTransaction fetches one transaction group by id. Multi-split groups
// come back as an APIError since the enrichment flows never touch them.
func (c *Client) FetchTransaction(ctx context.Context, id int) (TransactionRead, error) {
	var resp struct {
		Data struct {
			ID         string `json:"id"`
			Attributes struct {
				Transactions []rawSplit `json:"transactions"`
			} `json:"attributes"`
		} `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/transactions/"+strconv.Itoa(id), nil, &resp); err != nil {
		return TransactionRead{}, err
	}
	if len(resp.Data.Attributes.Transactions) != 1 {
		return TransactionRead{}, &APIError{Detail: fmt.Sprintf("transaction %d has %d splits", id, len(resp.Data.Attributes.Transactions))}
	}

	split := resp.Data.Attributes.Transactions[0]
	tx := readFromSplit(id, split)
	return tx, nil
}

// UpdateTransaction sends a sparse update for one transaction.
func (c *Client) UpdateTransaction(ctx context.Context, id int, update TransactionUpdateRequest) error {
	body := struct {
		Transactions []TransactionUpdateRequest `json:"transactions"`
	}{Transactions: []TransactionUpdateRequest{update}}

	return c.do(ctx, http.MethodPut, "/api/v1/transactions/"+strconv.Itoa(id), body, nil)
}

// FetchCategories lists the ledger's categories.
func (c *Client) FetchCategories(ctx context.Context) ([]CategoryRead, error) {
	var resp struct {
		Data []struct {
			ID         string `json:"id"`
			Attributes struct {
				Name string `json:"name"`
			} `json:"attributes"`
		} `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/categories", nil, &resp); err != nil {
		return nil, err
	}

	categories := make([]CategoryRead, 0, len(resp.Data))
	for _, raw := range resp.Data {
		id, err := strconv.Atoi(raw.ID)
		if err != nil {
			continue
		}
		categories = append(categories, CategoryRead{ID: id, Name: raw.Attributes.Name})
	}
	return categories, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &APIError{Detail: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Detail: resp.Status}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return &APIError{StatusCode: resp.StatusCode, Detail: "malformed response: " + err.Error()}
		}
	}
	return nil
}
