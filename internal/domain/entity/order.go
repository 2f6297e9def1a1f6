package entity

import "github.com/shopspring/decimal"

// Order pedido a confirmar; sólo lo necesario para descontar existencias.
type Order struct {
	ID    string
	Items []OrderItem
}

// OrderItem línea del pedido. ModID y StockID vacíos = sin modificación / bodega por defecto.
type OrderItem struct {
	ProductID     string
	ModID         string
	StockID       string
	Count         int64
	Price         decimal.Decimal
	DiscountPrice decimal.Decimal // cero = sin descuento
}

// UnitPrice precio efectivo de la línea (con descuento si existe).
func (i OrderItem) UnitPrice() decimal.Decimal {
	if i.DiscountPrice.IsPositive() {
		return i.DiscountPrice
	}
	return i.Price
}

// Total precio efectivo por cantidad.
func (i OrderItem) Total() decimal.Decimal {
	return i.UnitPrice().Mul(decimal.NewFromInt(i.Count))
}
