package allegro

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Offer is a single offer line inside an order.
type Offer struct {
	ID          string
	Title       string
	UnitPrice   decimal.Decimal
	Currency    string
	FriendlyURL string
	Quantity    int
	ImageURL    string
}

var nonWordRe = regexp.MustCompile(`[^\p{L}\p{N}\s-]`)

// SimplifiedTitle shortens the offer title to at most three words and 32
// characters, capitalizing words longer than two characters. Suitable for
// compact labels.
func (o Offer) SimplifiedTitle() string {
	clean := nonWordRe.ReplaceAllString(o.Title, "")

	var result []string
	total := 0
	for _, word := range strings.Fields(clean) {
		formatted := formatWord(word)
		extra := len(formatted)
		if len(result) > 0 {
			extra++
		}
		if len(result) >= 3 || total+extra > 32 {
			break
		}
		result = append(result, formatted)
		total += extra
	}
	return strings.Join(result, " ")
}

// formatWord capitalizes each hyphen-separated part longer than two runes
// and lowercases the rest.
func formatWord(word string) string {
	parts := strings.Split(word, "-")
	for i, p := range parts {
		if len([]rune(p)) > 2 {
			runes := []rune(strings.ToLower(p))
			runes[0] = []rune(strings.ToUpper(string(runes[0])))[0]
			parts[i] = string(runes)
		} else {
			parts[i] = strings.ToLower(p)
		}
	}
	return strings.Join(parts, "-")
}

// Order is a single marketplace order inside a payment group.
type Order struct {
	OrderID       string
	Seller        string
	Offers        []Offer
	Date          time.Time
	TotalCost     decimal.Decimal
	PaymentAmount decimal.Decimal
	PaymentID     string
}

// PrintOffers renders the ordered offers one per line with unit prices.
func (o Order) PrintOffers() string {
	lines := make([]string, 0, len(o.Offers))
	for _, offer := range o.Offers {
		lines = append(lines, fmt.Sprintf("%s (%s %s)", offer.SimplifiedTitle(), offer.UnitPrice, offer.Currency))
	}
	return strings.Join(lines, "\n")
}

// balanceTolerance is the fixed allowance between the summed order costs and
// the paid amount before a payment is considered unbalanced.
var balanceTolerance = decimal.RequireFromString("0.01")

// Payment is a group of orders paid together, keyed by the shared payment
// identifier.
type Payment struct {
	PaymentID string
	Orders    []Order
	Date      time.Time
}

// Amount returns the paid amount. Orders in one payment group share it, so
// the first order's value is authoritative.
func (p Payment) Amount() decimal.Decimal {
	if len(p.Orders) == 0 {
		return decimal.Zero
	}
	return p.Orders[0].PaymentAmount
}

// SumTotalCost returns the total cost of all orders in the payment.
func (p Payment) SumTotalCost() decimal.Decimal {
	sum := decimal.Zero
	for _, order := range p.Orders {
		sum = sum.Add(order.TotalCost)
	}
	return sum
}

// IsBalanced reports whether the summed order costs reconcile with the paid
// amount within the fixed tolerance.
func (p Payment) IsBalanced() bool {
	diff := p.Amount().Sub(p.SumTotalCost()).Abs()
	return diff.LessThanOrEqual(balanceTolerance)
}

// GroupPayments groups orders by payment identifier, preserving the order
// in which payment ids first appear.
func GroupPayments(orders []Order) []Payment {
	index := make(map[string]int)
	var payments []Payment

	for _, order := range orders {
		i, ok := index[order.PaymentID]
		if !ok {
			i = len(payments)
			index[order.PaymentID] = i
			payments = append(payments, Payment{
				PaymentID: order.PaymentID,
				Date:      order.Date,
			})
		}
		payments[i].Orders = append(payments[i].Orders, order)
	}
	return payments
}
