package httpx

import (
	"github.com/zestora/zestora-orders/internal/order/domain"
)

type PlaceOrderRequest struct {
	Items         []OrderItemDTO `json:"items"`
	PaymentMethod string         `json:"payment_method"`
	Address       AddressDTO     `json:"address"`
}

type OrderItemDTO struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Price          float64 `json:"price"`
	Quantity       int     `json:"quantity"`
	Image          string  `json:"image,omitempty"`
	RestaurantName string  `json:"restaurant_name,omitempty"`
}

type AddressDTO struct {
	Label string `json:"label"`
	Line  string `json:"line"`
	City  string `json:"city"`
	Phone string `json:"phone"`
}

type CancelOrderRequest struct {
	Reason           string `json:"reason"`
	Details          string `json:"details"`
	RefundPreference string `json:"refund_preference"`
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}

type OrderListResponse struct {
	Orders []domain.Order `json:"orders"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func (r PlaceOrderRequest) toDomain() ([]domain.Item, string, domain.Address) {
	items := make([]domain.Item, 0, len(r.Items))
	for _, it := range r.Items {
		items = append(items, domain.Item{
			ID:             it.ID,
			Name:           it.Name,
			Price:          it.Price,
			Quantity:       it.Quantity,
			Image:          it.Image,
			RestaurantName: it.RestaurantName,
		})
	}
	address := domain.Address{
		Label: r.Address.Label,
		Line:  r.Address.Line,
		City:  r.Address.City,
		Phone: r.Address.Phone,
	}
	return items, r.PaymentMethod, address
}
