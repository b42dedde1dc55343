package http

import (
	"github.com/google/uuid"

	"github.com/khoahotran/portfolio-editor/internal/application/usecase/editor"
	"github.com/khoahotran/portfolio-editor/internal/domain/draft"
	"github.com/khoahotran/portfolio-editor/internal/domain/portfolio"
)

// Draft DTOs

type DraftDTO struct {
	ID         string                              `json:"id"`
	Profile    portfolio.Profile                   `json:"profile"`
	Portfolios []portfolio.ExperienceEntry         `json:"portfolios"`
	Images     map[portfolio.Slot]draft.SlotStatus `json:"images"`
	Validation draft.Validation                    `json:"validation"`
}

func ToDraftDTO(id uuid.UUID, st *editor.DraftState) DraftDTO {
	entries := st.Portfolios
	if entries == nil {
		entries = []portfolio.ExperienceEntry{}
	}
	return DraftDTO{
		ID:         id.String(),
		Profile:    st.Profile,
		Portfolios: entries,
		Images:     st.Slots,
		Validation: st.Validation,
	}
}

// UpdateFieldsRequest maps field names to new values, e.g. {"name": "Ada"}.
type UpdateFieldsRequest map[string]string

type AddEntryResponse struct {
	Entry portfolio.ExperienceEntry `json:"entry"`
	Draft DraftDTO                  `json:"draft"`
}

type PreviewDTO struct {
	ID string `json:"id"`
	draft.Preview
}

type SaveResponse struct {
	Record       *portfolio.Record `json:"record"`
	ChangedSlots []portfolio.Slot  `json:"changedSlots"`
}

// Auth DTOs

type loginRequest struct {
	Password string `json:"password" binding:"required"`
}
