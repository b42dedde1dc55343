package portfolio

import (
	"context"
	"fmt"
)

// StorageKey is the single key the whole record lives under.
const StorageKey = "portfolioData"

// MaxEntries caps the experience list.
const MaxEntries = 10

type Profile struct {
	Name        string `json:"name" validate:"notblank"`
	Title       string `json:"title" validate:"notblank"`
	Description string `json:"description" validate:"notblank"`
}

type ExperienceEntry struct {
	ID          int64  `json:"id"`
	Position    string `json:"position" validate:"notblank"`
	Company     string `json:"company" validate:"notblank"`
	StartDate   string `json:"startDate" validate:"notblank"`
	EndDate     string `json:"endDate" validate:"notblank"`
	Description string `json:"description" validate:"notblank"`
}

// Images holds self-contained data URLs; nil means the slot has no image.
type Images struct {
	Background *string `json:"background"`
	Profile    *string `json:"profile"`
}

// Get returns the stored value for slot.
func (i Images) Get(slot Slot) *string {
	switch slot {
	case SlotBackground:
		return i.Background
	case SlotProfile:
		return i.Profile
	}
	return nil
}

// Set replaces the stored value for slot.
func (i *Images) Set(slot Slot, v *string) {
	switch slot {
	case SlotBackground:
		i.Background = v
	case SlotProfile:
		i.Profile = v
	}
}

// Record is the persisted unit, replaced wholesale on every save.
type Record struct {
	Profile    Profile           `json:"profile"`
	Portfolios []ExperienceEntry `json:"portfolios"`
	Images     Images            `json:"images"`
}

// Clone returns a deep copy so drafts never alias persisted state.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	out := &Record{
		Profile:    r.Profile,
		Portfolios: make([]ExperienceEntry, len(r.Portfolios)),
	}
	copy(out.Portfolios, r.Portfolios)
	for _, s := range Slots() {
		if v := r.Images.Get(s); v != nil {
			c := *v
			out.Images.Set(s, &c)
		}
	}
	return out
}

// Normalize makes a decoded record safe to use: a null portfolio list becomes empty.
func (r *Record) Normalize() {
	if r.Portfolios == nil {
		r.Portfolios = []ExperienceEntry{}
	}
}

type Slot string

const (
	SlotBackground Slot = "background"
	SlotProfile    Slot = "profile"
)

// Slots lists every image slot in display order.
func Slots() []Slot {
	return []Slot{SlotBackground, SlotProfile}
}

func ParseSlot(s string) (Slot, error) {
	switch Slot(s) {
	case SlotBackground, SlotProfile:
		return Slot(s), nil
	}
	return "", fmt.Errorf("unknown image slot %q", s)
}

// Repository loads and stores the one portfolio record.
type Repository interface {
	// Load returns an error matching apperror.ErrNotFound when nothing is stored yet.
	Load(ctx context.Context) (*Record, error)
	// LoadOrInit persists and returns the placeholder record when nothing is stored yet.
	LoadOrInit(ctx context.Context) (*Record, error)
	Save(ctx context.Context, record *Record) error
}

// KeyValueStore is the storage medium behind the repository: one opaque value per key.
type KeyValueStore interface {
	// Get returns an error matching apperror.ErrNotFound for a missing key.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}
