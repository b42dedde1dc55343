package persistence

import (
	"sync"

	"github.com/google/uuid"
)

type previewImage struct {
	data        []byte
	contentType string
}

// PreviewStore keeps pending draft images in memory until their draft releases them.
type PreviewStore struct {
	mu     sync.RWMutex
	images map[string]previewImage
}

func NewPreviewStore() *PreviewStore {
	return &PreviewStore{images: make(map[string]previewImage)}
}

func (s *PreviewStore) Put(data []byte, contentType string) string {
	ref := uuid.NewString()
	s.mu.Lock()
	s.images[ref] = previewImage{data: data, contentType: contentType}
	s.mu.Unlock()
	return ref
}

func (s *PreviewStore) Release(ref string) {
	s.mu.Lock()
	delete(s.images, ref)
	s.mu.Unlock()
}

// Get returns the image behind ref, if it has not been released.
func (s *PreviewStore) Get(ref string) ([]byte, string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	img, ok := s.images[ref]
	return img.data, img.contentType, ok
}

// Len reports how many previews are still held.
func (s *PreviewStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.images)
}
