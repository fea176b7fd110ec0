package allegro

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func makeOrder(paymentID, totalCost, paymentAmount string) Order {
	return Order{
		OrderID:       "order-" + paymentID,
		Date:          time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC),
		TotalCost:     dec(totalCost),
		PaymentAmount: dec(paymentAmount),
		PaymentID:     paymentID,
	}
}

func TestGroupPayments_GroupsBySharedPaymentID(t *testing.T) {
	orders := []Order{
		makeOrder("pay-1", "10.00", "24.68"),
		makeOrder("pay-2", "5.00", "5.00"),
		makeOrder("pay-1", "14.68", "24.68"),
	}

	payments := GroupPayments(orders)

	require.Len(t, payments, 2)
	assert.Equal(t, "pay-1", payments[0].PaymentID)
	assert.Len(t, payments[0].Orders, 2)
	assert.Equal(t, "pay-2", payments[1].PaymentID)
	assert.Len(t, payments[1].Orders, 1)
}

func TestPayment_IsBalanced_ExactTotal(t *testing.T) {
	payments := GroupPayments([]Order{
		makeOrder("pay-1", "10.00", "24.68"),
		makeOrder("pay-1", "14.68", "24.68"),
	})

	require.Len(t, payments, 1)
	assert.True(t, payments[0].IsBalanced())
	assert.True(t, payments[0].Amount().Equal(dec("24.68")))
}

func TestPayment_IsBalanced_WithinTolerance(t *testing.T) {
	payments := GroupPayments([]Order{
		makeOrder("pay-1", "24.67", "24.68"),
	})

	assert.True(t, payments[0].IsBalanced())
}

func TestPayment_IsBalanced_Underpaid(t *testing.T) {
	payments := GroupPayments([]Order{
		makeOrder("pay-1", "24.68", "24.00"),
	})

	assert.False(t, payments[0].IsBalanced())
}

func TestPayment_Amount_EmptyGroup(t *testing.T) {
	p := Payment{PaymentID: "pay-1"}

	assert.True(t, p.Amount().IsZero())
}

func TestOffer_SimplifiedTitle(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  string
	}{
		{
			name:  "caps and trims to three words",
			title: "wireless mouse logitech m185 black",
			want:  "Wireless Mouse Logitech",
		},
		{
			name:  "short words stay lowercase",
			title: "uchwyt na TV 32",
			want:  "Uchwyt na tv",
		},
		{
			name:  "strips punctuation",
			title: "Kabel USB-C 2m, czarny!",
			want:  "Kabel Usb-c 2m",
		},
		{
			name:  "respects length budget",
			title: "superlongproductname anotherextremelylongword third",
			want:  "Superlongproductname",
		},
		{
			name:  "empty title",
			title: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			offer := Offer{Title: tt.title}
			assert.Equal(t, tt.want, offer.SimplifiedTitle())
		})
	}
}

func TestOrder_PrintOffers(t *testing.T) {
	order := Order{
		Offers: []Offer{
			{Title: "wireless mouse", UnitPrice: dec("49.99"), Currency: "PLN"},
			{Title: "usb cable", UnitPrice: dec("9.99"), Currency: "PLN"},
		},
	}

	assert.Equal(t, "Wireless Mouse (49.99 PLN)\nUsb Cable (9.99 PLN)", order.PrintOffers())
}
