package obrasocial

import (
	"time"

	"github.com/google/uuid"
)

// ObraSocial is a health insurer accepted by the clinic.
type ObraSocial struct {
	ObraSocialID uuid.UUID  `json:"obraSocialId"`
	Nombre       string     `json:"nombre"`
	Codigo       *string    `json:"codigo"`
	Activa       bool       `json:"activa"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    *time.Time `json:"updatedAt,omitempty"`
}

type CreateRequest struct {
	Nombre string  `json:"nombre"`
	Codigo *string `json:"codigo"`
	Activa *bool   `json:"activa"`
}

type UpdateRequest struct {
	Nombre *string `json:"nombre"`
	Codigo *string `json:"codigo"`
	Activa *bool   `json:"activa"`
}

func (r UpdateRequest) empty() bool {
	return r.Nombre == nil && r.Codigo == nil && r.Activa == nil
}

// ListFilter narrows List. A nil Activa returns every insurer.
type ListFilter struct {
	Activa *bool
}
