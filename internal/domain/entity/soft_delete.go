package entity

import "time"

// Viewer quien consulta un objeto; sólo importa si está autenticado.
type Viewer interface {
	IsAuthenticated() bool
}

type viewer bool

func (v viewer) IsAuthenticated() bool { return bool(v) }

// Visitantes predefinidos.
var (
	Anonymous Viewer = viewer(false)
	Staff     Viewer = viewer(true)
)

// SoftDeletable capacidad de borrado lógico con restauración.
type SoftDeletable interface {
	MarkDeleted(at time.Time)
	Restore()
	IsVisible(asOf time.Time, v Viewer) bool
}

// StatusDelete marca de borrado lógico para embeber en entidades.
type StatusDelete struct {
	IsDeleted   bool
	DateDeleted *time.Time
}

var _ SoftDeletable = (*StatusDelete)(nil)

// MarkDeleted marca el objeto como eliminado en el instante indicado.
func (s *StatusDelete) MarkDeleted(at time.Time) {
	s.IsDeleted = true
	s.DateDeleted = &at
}

// Restore deshace el borrado lógico.
func (s *StatusDelete) Restore() {
	s.IsDeleted = false
	s.DateDeleted = nil
}

// IsVisible: los objetos no eliminados son visibles para todos; los eliminados sólo para
// usuarios autenticados y sólo si se borraron en asOf o después.
func (s *StatusDelete) IsVisible(asOf time.Time, v Viewer) bool {
	if !s.IsDeleted {
		return true
	}
	if v == nil || !v.IsAuthenticated() || s.DateDeleted == nil {
		return false
	}
	return !s.DateDeleted.Before(asOf)
}

// DeletedDeadline calcula el límite de visibilidad de eliminados: now - window,
// redondeado hacia abajo a decenas de minutos para estabilizar consultas.
func DeletedDeadline(now time.Time, window time.Duration) time.Time {
	d := now.Add(-window)
	return d.Truncate(time.Minute).Add(-time.Duration(d.Minute()%10) * time.Minute)
}
