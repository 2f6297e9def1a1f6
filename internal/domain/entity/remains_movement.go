package entity

import "time"

// Tipos de movimiento del diario de existencias.
const (
	MovementKindSet      = "set"      // asignación absoluta (SetCount)
	MovementKindDecrease = "decrease" // descuento relativo (Decrease)
)

// RemainsMovement registro del diario: cada cambio de cantidad queda auditado
// en la misma transacción que lo aplica.
type RemainsMovement struct {
	ID          string
	RemainsID   string
	ProductID   string
	ModID       *string
	StockID     string
	Kind        string // set, decrease
	Delta       int64  // CountAfter - CountBefore
	CountBefore int64
	CountAfter  int64
	Reference   string // pedido, ajuste manual, etc.
	CreatedAt   time.Time
}
