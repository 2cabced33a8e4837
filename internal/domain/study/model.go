package study

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultDurationMinutes applies when a study is created without a duration.
const DefaultDurationMinutes = 30

// Study is a diagnostic procedure that can be booked and priced.
type Study struct {
	StudyID         string           `json:"studyId"`
	Name            string           `json:"name"`
	Description     *string          `json:"description,omitempty"`
	DurationMinutes int              `json:"durationMinutes"`
	Honorario       *decimal.Decimal `json:"honorario,omitempty"`
	Active          bool             `json:"active"`
	CreatedAt       time.Time        `json:"createdAt"`
	UpdatedAt       *time.Time       `json:"updatedAt,omitempty"`
}

type CreateRequest struct {
	Name            string           `json:"name"`
	Description     *string          `json:"description"`
	DurationMinutes *int             `json:"durationMinutes"`
	Honorario       *decimal.Decimal `json:"honorario"`
}

type UpdateRequest struct {
	Name            *string          `json:"name"`
	Description     *string          `json:"description"`
	DurationMinutes *int             `json:"durationMinutes"`
	Honorario       *decimal.Decimal `json:"honorario"`
	Active          *bool            `json:"active"`
}

func (r UpdateRequest) empty() bool {
	return r.Name == nil && r.Description == nil && r.DurationMinutes == nil &&
		r.Honorario == nil && r.Active == nil
}
