package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrConflict          = errors.New("conflicto con el estado actual")
	ErrInsufficientStock = errors.New("stock insuficiente")

	// ErrRecordNotFound: se intentó descontar una granularidad (producto, mod, bodega)
	// que nunca fue inicializada con SetCount. Distinto de ErrNotFound.
	ErrRecordNotFound = errors.New("no existe registro de existencias para la clave indicada")

	// ErrNoDefaultWarehouse indica un error de configuración: no hay bodega por defecto.
	ErrNoDefaultWarehouse = errors.New("no hay bodega por defecto configurada")
)
