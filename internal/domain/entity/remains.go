package entity

import "time"

// RemainsKey clave natural de un registro de existencias: producto, modificación opcional
// y bodega ya resuelta. ModID nil significa "sin modificación" y se compara de forma exacta.
type RemainsKey struct {
	ProductID string
	ModID     *string
	StockID   string
}

// HasMod indica si la clave apunta a una modificación concreta.
func (k RemainsKey) HasMod() bool {
	return k.ModID != nil
}

// Mod devuelve el ID de la modificación o "" si la clave no tiene modificación.
func (k RemainsKey) Mod() string {
	if k.ModID == nil {
		return ""
	}
	return *k.ModID
}

// String representación estable de la clave (usada como índice en memoria y en logs).
func (k RemainsKey) String() string {
	return k.ProductID + "/" + k.Mod() + "/" + k.StockID
}

// Remains representa la cantidad registrada para una clave exacta (producto, mod, bodega).
// Cada granularidad es un contador independiente; Count puede ser negativo (sobreventa).
type Remains struct {
	ID        string
	ProductID string
	ModID     *string
	StockID   string
	Count     int64
	UpdatedAt time.Time
}

// Key devuelve la clave natural del registro.
func (r *Remains) Key() RemainsKey {
	return RemainsKey{ProductID: r.ProductID, ModID: r.ModID, StockID: r.StockID}
}
