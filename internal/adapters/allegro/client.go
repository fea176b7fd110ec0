// Package allegro is the HTTP client for the Allegro marketplace API. It is
// a boundary collaborator: it fetches order groups for an authenticated
// account and reshapes them into payment groups; everything smarter lives in
// the application layer.
package allegro

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

// AuthError indicates the account cookie/token was rejected.
type AuthError struct {
	StatusCode int
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("allegro authentication failed (status %d)", e.StatusCode)
}

// APIError indicates any other marketplace API failure.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("allegro api error (status %d): %s", e.StatusCode, e.Detail)
}

// UserInfo is the authenticated account's identity.
type UserInfo struct {
	Login string `json:"login"`
}

// Client talks to the marketplace API on behalf of one account secret.
type Client struct {
	baseURL string
	secret  string
	http    *http.Client
}

// NewClient creates a client bound to one account secret.
func NewClient(baseURL, secret string) *Client {
	return &Client{
		baseURL: baseURL,
		secret:  secret,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// GetUserInfo fetches the login of the authenticated account.
func (c *Client) GetUserInfo(ctx context.Context) (UserInfo, error) {
	var info UserInfo
	if err := c.get(ctx, "/me", &info); err != nil {
		return UserInfo{}, err
	}
	return info, nil
}

// ordersResponse mirrors the marketplace wire shape: order groups, each
// holding the buyer's orders with offers and payment info.
type ordersResponse struct {
	OrderGroups []struct {
		GroupID  string `json:"groupId"`
		MyOrders []struct {
			Seller struct {
				Login string `json:"login"`
			} `json:"seller"`
			Offers []struct {
				ID        string `json:"id"`
				Title     string `json:"title"`
				UnitPrice struct {
					Amount   string `json:"amount"`
					Currency string `json:"currency"`
				} `json:"unitPrice"`
				FriendlyURL string `json:"friendlyUrl"`
				Quantity    int    `json:"quantity"`
				ImageURL    string `json:"imageUrl"`
			} `json:"offers"`
			OrderDate string `json:"orderDate"`
			TotalCost struct {
				Amount string `json:"amount"`
			} `json:"totalCost"`
			Payment struct {
				ID     string `json:"id"`
				Amount struct {
					Amount string `json:"amount"`
				} `json:"amount"`
			} `json:"payment"`
		} `json:"myorders"`
	} `json:"orderGroups"`
}

// GetOrders fetches the account's recent orders and groups them into
// payments.
func (c *Client) GetOrders(ctx context.Context) ([]Payment, error) {
	var resp ordersResponse
	if err := c.get(ctx, "/order-groups", &resp); err != nil {
		return nil, err
	}

	var orders []Order
	for _, group := range resp.OrderGroups {
		if len(group.MyOrders) == 0 {
			continue
		}
		raw := group.MyOrders[0]

		date, err := parseOrderDate(raw.OrderDate)
		if err != nil {
			return nil, &APIError{Detail: fmt.Sprintf("order %s: bad order date %q", group.GroupID, raw.OrderDate)}
		}
		totalCost, err := decimal.NewFromString(raw.TotalCost.Amount)
		if err != nil {
			return nil, &APIError{Detail: fmt.Sprintf("order %s: bad total cost %q", group.GroupID, raw.TotalCost.Amount)}
		}
		paymentAmount, err := decimal.NewFromString(raw.Payment.Amount.Amount)
		if err != nil {
			return nil, &APIError{Detail: fmt.Sprintf("order %s: bad payment amount %q", group.GroupID, raw.Payment.Amount.Amount)}
		}

		order := Order{
			OrderID:       group.GroupID,
			Seller:        raw.Seller.Login,
			Date:          date,
			TotalCost:     totalCost,
			PaymentAmount: paymentAmount,
			PaymentID:     raw.Payment.ID,
		}
		for _, o := range raw.Offers {
			unitPrice, err := decimal.NewFromString(o.UnitPrice.Amount)
			if err != nil {
				return nil, &APIError{Detail: fmt.Sprintf("offer %s: bad unit price %q", o.ID, o.UnitPrice.Amount)}
			}
			order.Offers = append(order.Offers, Offer{
				ID:          o.ID,
				Title:       o.Title,
				UnitPrice:   unitPrice,
				Currency:    o.UnitPrice.Currency,
				FriendlyURL: o.FriendlyURL,
				Quantity:    o.Quantity,
				ImageURL:    o.ImageURL,
			})
		}
		orders = append(orders, order)
	}

	return GroupPayments(orders), nil
}

// parseOrderDate accepts RFC 3339 timestamps with or without the trailing Z.
func parseOrderDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02T15:04:05", s)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Cookie", c.secret)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return &APIError{Detail: err.Error()}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return &AuthError{StatusCode: resp.StatusCode}
	case resp.StatusCode != http.StatusOK:
		return &APIError{StatusCode: resp.StatusCode, Detail: resp.Status}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &APIError{StatusCode: resp.StatusCode, Detail: "malformed response: " + err.Error()}
	}
	return nil
}
