package entity

import "time"

// Warehouse representa una bodega donde se almacena inventario (multi-bodega).
// Exactamente una bodega del sistema tiene IsDefault; se usa cuando la clave omite la bodega.
type Warehouse struct {
	ID        string
	Name      string
	Address   string
	IsDefault bool
	StatusDelete
	CreatedAt time.Time
	UpdatedAt time.Time
}
