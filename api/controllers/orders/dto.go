package orders

import (
	"time"

	"github.com/rohanjoshi-dev/bitekart-backend/pkg/db/models"
	"github.com/rohanjoshi-dev/bitekart-backend/pkg/razorpay"
	"github.com/rohanjoshi-dev/bitekart-backend/pkg/types"
)

type orderItemResponse struct {
	ProductID      int64  `json:"product_id"`
	ProductName    string `json:"product_name"`
	UnitPrice      string `json:"unit_price"`
	Quantity       int    `json:"quantity"`
	Subtotal       string `json:"subtotal"`
	UnitPricePaise int64  `json:"unit_price_paise"`
	SubtotalPaise  int64  `json:"subtotal_paise"`
}

type historyResponse struct {
	Status    string    `json:"status"`
	ActorRole string    `json:"actor_role"`
	Note      *string   `json:"note,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type orderResponse struct {
	ID                 int64               `json:"id"`
	VendorID           int64               `json:"vendor_id"`
	Status             string              `json:"status"`
	PaymentMode        string              `json:"payment_mode"`
	PaymentStatus      string              `json:"payment_status"`
	Subtotal           string              `json:"subtotal"`
	DeliveryFee        string              `json:"delivery_fee"`
	Total              string              `json:"total"`
	SubtotalPaise      int64               `json:"subtotal_paise"`
	DeliveryFeePaise   int64               `json:"delivery_fee_paise"`
	TotalPaise         int64               `json:"total_paise"`
	DeliveryAddress    string              `json:"delivery_address"`
	DistanceKm         float64             `json:"distance_km"`
	TransactionID      *string             `json:"transaction_id,omitempty"`
	PaymentScreenshot  *string             `json:"payment_screenshot,omitempty"`
	CancellationReason *string             `json:"cancellation_reason,omitempty"`
	PlacedAt           *time.Time          `json:"placed_at,omitempty"`
	DeliveredAt        *time.Time          `json:"delivered_at,omitempty"`
	CancelledAt        *time.Time          `json:"cancelled_at,omitempty"`
	CreatedAt          time.Time           `json:"created_at"`
	Items              []orderItemResponse `json:"items,omitempty"`
	History            []historyResponse   `json:"history,omitempty"`
}

type paymentIntentResponse struct {
	GatewayOrderID string `json:"gateway_order_id"`
	AmountPaise    int64  `json:"amount_paise"`
	Currency       string `json:"currency"`
	KeyID          string `json:"key_id"`
}

// NewOrderResponse maps an order row plus whatever associations were
// preloaded. List endpoints preload items only; detail adds history.
func NewOrderResponse(order *models.Order) orderResponse {
	resp := orderResponse{
		ID:                 order.ID,
		VendorID:           order.VendorID,
		Status:             string(order.Status),
		PaymentMode:        string(order.PaymentMode),
		PaymentStatus:      string(order.PaymentStatus),
		Subtotal:           types.RupeesFromPaise(order.SubtotalPaise),
		DeliveryFee:        types.RupeesFromPaise(order.DeliveryFeePaise),
		Total:              types.RupeesFromPaise(order.TotalPaise),
		SubtotalPaise:      order.SubtotalPaise,
		DeliveryFeePaise:   order.DeliveryFeePaise,
		TotalPaise:         order.TotalPaise,
		DeliveryAddress:    order.DeliveryAddress,
		DistanceKm:         order.DistanceKm,
		TransactionID:      order.TransactionID,
		PaymentScreenshot:  order.PaymentScreenshot,
		CancellationReason: order.CancellationReason,
		PlacedAt:           order.PlacedAt,
		DeliveredAt:        order.DeliveredAt,
		CancelledAt:        order.CancelledAt,
		CreatedAt:          order.CreatedAt,
	}
	for _, item := range order.Items {
		resp.Items = append(resp.Items, orderItemResponse{
			ProductID:      item.ProductID,
			ProductName:    item.ProductName,
			UnitPrice:      types.RupeesFromPaise(item.UnitPricePaise),
			Quantity:       item.Quantity,
			Subtotal:       types.RupeesFromPaise(item.SubtotalPaise),
			UnitPricePaise: item.UnitPricePaise,
			SubtotalPaise:  item.SubtotalPaise,
		})
	}
	for _, entry := range order.History {
		resp.History = append(resp.History, historyResponse{
			Status:    string(entry.Status),
			ActorRole: string(entry.ActorRole),
			Note:      entry.Note,
			CreatedAt: entry.CreatedAt,
		})
	}
	return resp
}

func newPaymentIntentResponse(intent *razorpay.OrderIntent) *paymentIntentResponse {
	if intent == nil {
		return nil
	}
	return &paymentIntentResponse{
		GatewayOrderID: intent.GatewayOrderID,
		AmountPaise:    intent.AmountPaise,
		Currency:       intent.Currency,
		KeyID:          intent.KeyID,
	}
}
