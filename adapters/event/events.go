package event

import "time"

type PortfolioEventType string

const (
	PortfolioEventTypeSaved PortfolioEventType = "portfolio.saved"
)

type PortfolioEventPayload struct {
	EventType    PortfolioEventType `json:"event_type"`
	StorageKey   string             `json:"storage_key"`
	EntryCount   int                `json:"entry_count"`
	ChangedSlots []string           `json:"changed_slots"`
	SavedAt      time.Time          `json:"saved_at"`
}
