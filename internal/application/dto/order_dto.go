package dto

import (
	"github.com/jhoicas/remains-ledger/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// ConfirmOrderRequest pedido a confirmar. Los precios aceptan número o string JSON.
type ConfirmOrderRequest struct {
	ID    string             `json:"id"`
	Items []OrderItemRequest `json:"items"`
}

// OrderItemRequest línea del pedido. mod_id y stock_id son opcionales.
type OrderItemRequest struct {
	ProductID     string          `json:"product_id"`
	ModID         string          `json:"mod_id,omitempty"`
	StockID       string          `json:"stock_id,omitempty"`
	Count         int64           `json:"count"`
	Price         decimal.Decimal `json:"price"`
	DiscountPrice decimal.Decimal `json:"discount_price"`
}

// ToEntity mapea la entrada al pedido de dominio.
func (r ConfirmOrderRequest) ToEntity() *entity.Order {
	order := &entity.Order{ID: r.ID, Items: make([]entity.OrderItem, 0, len(r.Items))}
	for _, it := range r.Items {
		order.Items = append(order.Items, entity.OrderItem{
			ProductID:     it.ProductID,
			ModID:         it.ModID,
			StockID:       it.StockID,
			Count:         it.Count,
			Price:         it.Price,
			DiscountPrice: it.DiscountPrice,
		})
	}
	return order
}

// ConfirmOrderResponse resultado de la confirmación.
type ConfirmOrderResponse struct {
	OrderID string            `json:"order_id"`
	Remains []RemainsResponse `json:"remains"`
	Total   string            `json:"total"`
}
