package draft

import (
	"errors"
	"fmt"
	"time"

	"github.com/khoahotran/portfolio-editor/internal/domain/portfolio"
)

// ErrEntryLimit is returned by AddEntry once the draft holds portfolio.MaxEntries entries.
var ErrEntryLimit = fmt.Errorf("at most %d experience entries are allowed", portfolio.MaxEntries)

// Draft is the in-memory working copy of the portfolio record. It is not safe for
// concurrent use; callers serialize access.
type Draft struct {
	profile  portfolio.Profile
	entries  []portfolio.ExperienceEntry
	slots    map[portfolio.Slot]*ImageSlot
	baseline portfolio.Images

	previews PreviewStore
	now      func() time.Time
	lastID   int64

	validation Validation
}

// Option configures a Draft at construction.
type Option func(*Draft)

// WithClock overrides the time source used for new entry ids.
func WithClock(now func() time.Time) Option {
	return func(d *Draft) { d.now = now }
}

// New opens a draft over the persisted record. Both slots start in StatusInitial.
func New(baseline *portfolio.Record, previews PreviewStore, opts ...Option) *Draft {
	rec := baseline.Clone()
	rec.Normalize()

	d := &Draft{
		profile:  rec.Profile,
		entries:  rec.Portfolios,
		baseline: rec.Images,
		slots:    make(map[portfolio.Slot]*ImageSlot, len(portfolio.Slots())),
		previews: previews,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	for _, s := range portfolio.Slots() {
		d.slots[s] = &ImageSlot{Status: StatusInitial}
	}
	for _, e := range d.entries {
		if e.ID > d.lastID {
			d.lastID = e.ID
		}
	}
	d.revalidate()
	return d
}

// SetProfileField updates one profile field and revalidates.
func (d *Draft) SetProfileField(field ProfileField, value string) Validation {
	switch field {
	case ProfileName:
		d.profile.Name = value
	case ProfileTitle:
		d.profile.Title = value
	case ProfileDescription:
		d.profile.Description = value
	}
	return d.revalidate()
}

// SetEntryField is a no-op when no entry has the given id.
func (d *Draft) SetEntryField(id int64, field EntryField, value string) Validation {
	i := d.indexOf(id)
	if i < 0 {
		return d.validation
	}
	e := &d.entries[i]
	switch field {
	case EntryPosition:
		e.Position = value
	case EntryCompany:
		e.Company = value
	case EntryStartDate:
		e.StartDate = value
	case EntryEndDate:
		e.EndDate = value
	case EntryDescription:
		e.Description = value
	}
	return d.revalidate()
}

// AddEntry appends a blank entry. At the cap it returns ErrEntryLimit and changes nothing.
func (d *Draft) AddEntry() (portfolio.ExperienceEntry, Validation, error) {
	if len(d.entries) >= portfolio.MaxEntries {
		return portfolio.ExperienceEntry{}, d.validation, ErrEntryLimit
	}
	e := portfolio.ExperienceEntry{ID: d.nextID()}
	d.entries = append(d.entries, e)
	return e, d.revalidate(), nil
}

// RemoveEntry is a no-op when no entry has the given id.
func (d *Draft) RemoveEntry(id int64) Validation {
	i := d.indexOf(id)
	if i < 0 {
		return d.validation
	}
	d.entries = append(d.entries[:i], d.entries[i+1:]...)
	return d.revalidate()
}

// SetImage replaces (upload != nil) or clears (upload == nil) a slot. A rejected upload
// returns ErrImageTooLarge or ErrUnsupportedImageType and leaves the slot untouched.
func (d *Draft) SetImage(slot portfolio.Slot, upload *Upload) (Validation, error) {
	s, ok := d.slots[slot]
	if !ok {
		return d.validation, fmt.Errorf("unknown image slot %q", slot)
	}
	if upload != nil {
		contentType, err := CheckUpload(upload)
		if err != nil {
			return d.validation, err
		}
		u := *upload
		u.ContentType = contentType
		upload = &u
	}
	s.apply(upload, d.previews)
	return d.revalidate(), nil
}

// Validate recomputes validity from the current state without side effects.
func (d *Draft) Validate() Validation {
	errs := make(map[string]string)

	fieldErrors(d.profile, "profile", errs)
	for _, e := range d.entries {
		fieldErrors(e, fmt.Sprintf("portfolios.%d", e.ID), errs)
	}
	for _, s := range portfolio.Slots() {
		if !d.resolvable(s) {
			errs["images."+string(s)] = slotLabel(s) + " is required"
		}
	}
	return Validation{Errors: errs, IsValid: len(errs) == 0}
}

// Validation is the snapshot computed by the most recent mutation.
func (d *Draft) Validation() Validation {
	return d.validation
}

// Profile returns the profile as currently edited.
func (d *Draft) Profile() portfolio.Profile {
	return d.profile
}

// Entries returns a copy of the experience entries in display order.
func (d *Draft) Entries() []portfolio.ExperienceEntry {
	out := make([]portfolio.ExperienceEntry, len(d.entries))
	copy(out, d.entries)
	return out
}

// Slot returns a copy of the lifecycle state of one slot.
func (d *Draft) Slot(slot portfolio.Slot) ImageSlot {
	if s, ok := d.slots[slot]; ok {
		return *s
	}
	return ImageSlot{}
}

// Snapshot copies the text state with the baseline images, which is what a save starts from.
func (d *Draft) Snapshot() *portfolio.Record {
	rec := &portfolio.Record{
		Profile:    d.profile,
		Portfolios: d.Entries(),
		Images:     d.baseline,
	}
	return rec.Clone()
}

// Close releases every preview still held by the draft.
func (d *Draft) Close() {
	for _, s := range d.slots {
		if s.PreviewRef != "" {
			d.previews.Release(s.PreviewRef)
			s.PreviewRef = ""
		}
	}
}

// PreviewImage is how one slot renders in a preview: the persisted data URL for an
// unchanged slot, a preview reference for a pending file, nothing for a removed slot.
type PreviewImage struct {
	Status     SlotStatus `json:"status"`
	DataURL    *string    `json:"dataUrl,omitempty"`
	PreviewRef string     `json:"previewRef,omitempty"`
}

type Preview struct {
	Profile    portfolio.Profile               `json:"profile"`
	Portfolios []portfolio.ExperienceEntry     `json:"portfolios"`
	Images     map[portfolio.Slot]PreviewImage `json:"images"`
	Validation Validation                      `json:"validation"`
}

// Preview renders the draft as it stands, valid or not. Nothing is encoded or persisted.
func (d *Draft) Preview() Preview {
	p := Preview{
		Profile:    d.profile,
		Portfolios: d.Entries(),
		Images:     make(map[portfolio.Slot]PreviewImage, len(d.slots)),
		Validation: d.validation,
	}
	for _, slot := range portfolio.Slots() {
		s := d.slots[slot]
		img := PreviewImage{Status: s.Status}
		switch s.Status {
		case StatusInitial:
			img.DataURL = d.baseline.Get(slot)
		case StatusNew:
			img.PreviewRef = s.PreviewRef
		}
		p.Images[slot] = img
	}
	return p
}

// resolvable reports whether the slot would yield an image if saved now.
func (d *Draft) resolvable(slot portfolio.Slot) bool {
	s := d.slots[slot]
	switch s.Status {
	case StatusInitial:
		return d.baseline.Get(slot) != nil
	case StatusNew:
		return s.Pending != nil
	default:
		return false
	}
}

func (d *Draft) revalidate() Validation {
	d.validation = d.Validate()
	return d.validation
}

func (d *Draft) indexOf(id int64) int {
	for i := range d.entries {
		if d.entries[i].ID == id {
			return i
		}
	}
	return -1
}

// nextID derives ids from the creation time in milliseconds, bumped to stay unique.
func (d *Draft) nextID() int64 {
	id := d.now().UnixMilli()
	if id <= d.lastID {
		id = d.lastID + 1
	}
	d.lastID = id
	return id
}

// IsRejectedUpload reports whether err is an upload the draft refused.
func IsRejectedUpload(err error) bool {
	return errors.Is(err, ErrImageTooLarge) || errors.Is(err, ErrUnsupportedImageType)
}
