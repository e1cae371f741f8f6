package domain

// Fee schedule applied at placement time. Values are in rupees.
const (
	// FreeDeliveryThreshold is the subtotal above which delivery is free.
	FreeDeliveryThreshold = 299.0
	// StandardDeliveryFee applies at or below the threshold.
	StandardDeliveryFee = 29.0
	// FlatPlatformFee applies to any non-empty order.
	FlatPlatformFee = 5.0
	// GSTRate is the tax fraction applied to the subtotal.
	GSTRate = 0.05
)

// Totals is the price breakdown frozen onto an order at placement.
type Totals struct {
	Subtotal    float64 `json:"subtotal"`
	DeliveryFee float64 `json:"delivery_fee"`
	PlatformFee float64 `json:"platform_fee"`
	GST         float64 `json:"gst"`
	GrandTotal  float64 `json:"grand_total"`
}

// Subtotal sums price x quantity across the items.
func Subtotal(items []Item) float64 {
	var total float64
	for _, it := range items {
		total += it.Price * float64(it.Quantity)
	}
	return total
}

// ComputeTotals applies the fixed fee schedule to a cart subtotal.
func ComputeTotals(subtotal float64) Totals {
	t := Totals{Subtotal: subtotal}
	if subtotal <= FreeDeliveryThreshold {
		t.DeliveryFee = StandardDeliveryFee
	}
	if subtotal > 0 {
		t.PlatformFee = FlatPlatformFee
	}
	t.GST = subtotal * GSTRate
	t.GrandTotal = t.Subtotal + t.DeliveryFee + t.PlatformFee + t.GST
	return t
}
