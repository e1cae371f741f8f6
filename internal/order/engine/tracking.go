package engine

import (
	"fmt"

	"github.com/zestora/zestora-orders/internal/order/domain"
)

// Driver is the simulated delivery partner shown on the tracking card.
type Driver struct {
	Name      string `json:"name"`
	Rating    string `json:"rating"`
	Vehicle   string `json:"vehicle"`
	VehicleNo string `json:"vehicle_no"`
	Phone     string `json:"phone"`
}

var defaultDriver = Driver{
	Name:      "Aman Verma",
	Rating:    "4.9",
	Vehicle:   "Bike",
	VehicleNo: "RJ14 AX 2048",
	Phone:     "+919876543210",
}

// TimelineStep is one row of the tracking timeline.
type TimelineStep struct {
	Label string `json:"label"`
	Time  string `json:"time"`
	Done  bool   `json:"done"`
}

// TrackingSnapshot is the per-view state derived for the tracking screen.
// None of it is persisted; it is recomputed from the order on every call.
type TrackingSnapshot struct {
	OrderID    string            `json:"order_id"`
	Status     domain.Status     `json:"status"`
	EtaMinutes int               `json:"eta_minutes"`
	Partner    domain.Coordinate `json:"partner"`
	Restaurant domain.Coordinate `json:"restaurant"`
	Customer   domain.Coordinate `json:"customer"`
	DistanceKm float64           `json:"distance_km"`
	Driver     Driver            `json:"driver"`
	Steps      []TimelineStep    `json:"steps"`
}

// Tracking derives the live-tracking view for an order: countdown, map
// coordinates, driver card, and timeline.
func (e *Engine) Tracking(orderID string) (TrackingSnapshot, error) {
	e.mu.RLock()
	ord, ok := e.byID[orderID]
	if !ok {
		e.mu.RUnlock()
		return TrackingSnapshot{}, fmt.Errorf("%w: %s", domain.ErrNotFound, orderID)
	}
	order := cloneOrder(ord)
	partner, hasPartner := e.partners[orderID]
	e.mu.RUnlock()

	base := domain.CityBase(order.Address.City)
	customer := domain.CustomerPoint(base)
	if !hasPartner {
		partner = domain.PartnerStart(base)
	}
	if order.Status == domain.StatusDelivered {
		partner = customer
	}

	eta := e.etaFor(order.Status, order.CreatedAt)
	return TrackingSnapshot{
		OrderID:    order.ID,
		Status:     order.Status,
		EtaMinutes: eta,
		Partner:    partner,
		Restaurant: domain.RestaurantPoint(base),
		Customer:   customer,
		DistanceKm: domain.DistanceKm(partner, customer),
		Driver:     defaultDriver,
		Steps:      buildTimeline(order, eta),
	}, nil
}

const orderDateLayout = "02 Jan 2006"

func buildTimeline(order domain.Order, eta int) []TimelineStep {
	created := order.CreatedAt.Format(orderDateLayout)

	if order.Status == domain.StatusCancelled {
		cancelled := "Just now"
		if order.CancelledAt != nil {
			cancelled = order.CancelledAt.Format(orderDateLayout)
		}
		return []TimelineStep{
			{Label: "Order placed", Time: created, Done: true},
			{Label: "Cancellation requested", Time: cancelled, Done: true},
			{Label: "Refund initiated", Time: "Within 3-5 business days", Done: true},
		}
	}

	pickedUp := order.Status == domain.StatusOutForDelivery || order.Status == domain.StatusDelivered
	delivered := order.Status == domain.StatusDelivered

	preparingTime := "In progress"
	if order.Status != domain.StatusPreparing {
		preparingTime = "Completed"
	}
	pickedUpTime := "Pending"
	if pickedUp {
		pickedUpTime = "Completed"
	}
	deliveredTime := fmt.Sprintf("ETA %d mins", eta)
	if delivered {
		deliveredTime = "Completed"
	}

	return []TimelineStep{
		{Label: "Order confirmed", Time: created, Done: true},
		{Label: "Restaurant preparing your food", Time: preparingTime, Done: true},
		{Label: "Rider picked up your order", Time: pickedUpTime, Done: pickedUp},
		{Label: "Delivered at your location", Time: deliveredTime, Done: delivered},
	}
}
