package draft

// SlotStatus tracks an image slot relative to the persisted baseline.
type SlotStatus string

const (
	// StatusInitial: unchanged from what is persisted (which may itself be empty).
	StatusInitial SlotStatus = "initial"
	// StatusNew: a replacement image is pending and not yet encoded.
	StatusNew SlotStatus = "new"
	// StatusRemoved: the owner cleared the slot.
	StatusRemoved SlotStatus = "removed"
)

// ImageSlot is the lifecycle state of one image slot within a draft.
type ImageSlot struct {
	Status     SlotStatus
	Pending    *Upload
	PreviewRef string
}

// nextStatus is the full transition table. No transition leads back to StatusInitial.
func nextStatus(current SlotStatus, withFile bool) SlotStatus {
	switch current {
	case StatusInitial, StatusNew, StatusRemoved:
		if withFile {
			return StatusNew
		}
		return StatusRemoved
	}
	panic("draft: unknown slot status " + string(current))
}

// apply moves the slot to its next state, releasing the preview of any pending file it drops.
func (s *ImageSlot) apply(upload *Upload, previews PreviewStore) {
	s.Status = nextStatus(s.Status, upload != nil)

	if s.PreviewRef != "" {
		previews.Release(s.PreviewRef)
		s.PreviewRef = ""
	}
	s.Pending = upload
	if upload != nil {
		s.PreviewRef = previews.Put(upload.Data, upload.ContentType)
	}
}
