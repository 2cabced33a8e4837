package doctor

import "time"

// Doctor is a practitioner patients can book with.
type Doctor struct {
	DoctorID  string     `json:"doctorId"`
	Name      string     `json:"name"`
	Specialty *string    `json:"specialty,omitempty"`
	Active    bool       `json:"active"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

type CreateRequest struct {
	Name      string  `json:"name"`
	Specialty *string `json:"specialty"`
}

// UpdateRequest carries only the fields the caller wants to change.
type UpdateRequest struct {
	Name      *string `json:"name"`
	Specialty *string `json:"specialty"`
	Active    *bool   `json:"active"`
}

func (r UpdateRequest) empty() bool {
	return r.Name == nil && r.Specialty == nil && r.Active == nil
}
