// Package domain defines the order entity, its status state machine, and the
// pure pricing/ETA helpers that are frozen into an order at placement time.
package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultRestaurantName is used when no line item carries a restaurant name.
const DefaultRestaurantName = "Zestora Kitchen"

// Supported payment method identifiers.
const (
	PaymentCashOnDelivery = "cod"
	PaymentUPI            = "upi"
	PaymentCard           = "card"
)

// Order is a placed purchase with a lifecycle independent of the cart that
// created it. Items, totals, payment method, and address are copied by value
// at placement and never change afterwards; only the status and the
// cancellation fields are mutated in place.
type Order struct {
	ID             string        `json:"id"`
	Status         Status        `json:"status"`
	CreatedAt      time.Time     `json:"created_at"`
	Items          []Item        `json:"items"`
	Totals         Totals        `json:"totals"`
	PaymentMethod  string        `json:"payment_method"`
	Address        Address       `json:"address"`
	RestaurantName string        `json:"restaurant_name"`
	CancelledAt    *time.Time    `json:"cancelled_at,omitempty"`
	Cancellation   *Cancellation `json:"cancellation,omitempty"`
}

// Item is a single order line. Price is the unit price at placement time.
type Item struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Price          float64 `json:"price"`
	Quantity       int     `json:"quantity"`
	Image          string  `json:"image,omitempty"`
	RestaurantName string  `json:"restaurant_name,omitempty"`
}

// Address is the delivery address snapshot taken when the order is placed.
// It is a copy, not a live reference to the customer's address book.
type Address struct {
	Label string `json:"label"`
	Line  string `json:"line"`
	City  string `json:"city"`
	Phone string `json:"phone"`
}

// Cancellation records a customer cancellation request. Present only on
// orders whose status is StatusCancelled.
type Cancellation struct {
	Reason           string    `json:"reason"`
	Details          string    `json:"details"`
	RequestedBy      string    `json:"requested_by"`
	RefundPreference string    `json:"refund_preference"`
	RequestedAt      time.Time `json:"requested_at"`
}

// CancellationRequest is the caller-supplied portion of a cancellation.
// Zero values are filled with defaults by Normalize.
type CancellationRequest struct {
	Reason           string
	Details          string
	RefundPreference string
}

// Normalize applies the cancellation defaults: reason "other", trimmed
// details, refund to the original payment source, requestedAt = now.
func (r CancellationRequest) Normalize(now time.Time) Cancellation {
	c := Cancellation{
		Reason:           r.Reason,
		Details:          strings.TrimSpace(r.Details),
		RequestedBy:      "customer",
		RefundPreference: r.RefundPreference,
		RequestedAt:      now,
	}
	if c.Reason == "" {
		c.Reason = "other"
	}
	if c.RefundPreference == "" {
		c.RefundPreference = "original_source"
	}
	return c
}

// NewOrder builds an order in its initial state. Totals are computed from the
// item subtotal using the fixed fee schedule and frozen on the order; later
// fee-schedule changes never retroactively affect a placed order.
func NewOrder(items []Item, paymentMethod string, address Address, now time.Time) *Order {
	return &Order{
		ID:             NewOrderID(),
		Status:         StatusPreparing,
		CreatedAt:      now,
		Items:          append([]Item(nil), items...),
		Totals:         ComputeTotals(Subtotal(items)),
		PaymentMethod:  paymentMethod,
		Address:        address,
		RestaurantName: restaurantName(items),
	}
}

// NewOrderID generates a customer-facing order id. The ZST prefix matches the
// ids shown on receipts and tracking links.
func NewOrderID() string {
	return "ZST-" + strings.ToUpper(uuid.NewString()[:8])
}

func restaurantName(items []Item) string {
	for _, it := range items {
		if it.RestaurantName != "" {
			return it.RestaurantName
		}
	}
	return DefaultRestaurantName
}
