package tarifa

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Tarifa is the price of a study for patients of one obra social.
type Tarifa struct {
	TarifaID     uuid.UUID       `json:"tarifaId"`
	EstudioID    string          `json:"estudioId"`
	ObraSocialID string          `json:"obraSocialId"`
	Precio       decimal.Decimal `json:"precio"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    *time.Time      `json:"updatedAt,omitempty"`
}

// Enriched is a Tarifa with the display names of its study and insurer.
// A name is null when the lookup failed or the referenced row is gone.
type Enriched struct {
	Tarifa
	NombreEstudio    *string `json:"nombreEstudio"`
	NombreObraSocial *string `json:"nombreObraSocial"`
}

type CreateRequest struct {
	EstudioID    string           `json:"estudioId"`
	ObraSocialID string           `json:"obraSocialId"`
	Precio       *decimal.Decimal `json:"precio"`
}

type UpdateRequest struct {
	EstudioID    *string          `json:"estudioId"`
	ObraSocialID *string          `json:"obraSocialId"`
	Precio       *decimal.Decimal `json:"precio"`
}

func (r UpdateRequest) empty() bool {
	return r.EstudioID == nil && r.ObraSocialID == nil && r.Precio == nil
}

func (r UpdateRequest) changesKey() bool {
	return r.EstudioID != nil || r.ObraSocialID != nil
}

type ListFilter struct {
	EstudioID    string
	ObraSocialID string
}
