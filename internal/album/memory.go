package album

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Conceptual-Machines/eternal-union/internal/imagecodec"
	"github.com/Conceptual-Machines/eternal-union/internal/models"
	"github.com/google/uuid"
)

// MemoryStore is a process-local Store used when no database is configured
// and in tests.
type MemoryStore struct {
	mu          sync.Mutex
	photos      map[uint][]models.SavedPhoto
	credentials map[uint]string
	now         func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		photos:      make(map[uint][]models.SavedPhoto),
		credentials: make(map[uint]string),
		now:         time.Now,
	}
}

func (s *MemoryStore) SaveRecord(_ context.Context, userID uint, img imagecodec.Image, label string) (models.SavedPhoto, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	photo := models.SavedPhoto{
		ID:        uuid.NewString(),
		CreatedAt: s.now(),
		UserID:    userID,
		ImageURL:  img.DataURL(),
		SceneName: label,
	}
	s.photos[userID] = append(s.photos[userID], photo)
	return photo, nil
}

func (s *MemoryStore) ListRecords(_ context.Context, userID uint) ([]models.SavedPhoto, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := append([]models.SavedPhoto(nil), s.photos[userID]...)
	// reverse insertion order breaks ties between equal timestamps
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryStore) DeleteRecord(_ context.Context, userID uint, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	photos := s.photos[userID]
	for i, p := range photos {
		if p.ID == id {
			s.photos[userID] = append(photos[:i:i], photos[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (s *MemoryStore) GetCredential(_ context.Context, userID uint) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	credential, ok := s.credentials[userID]
	return credential, ok && credential != "", nil
}

func (s *MemoryStore) SetCredential(_ context.Context, userID uint, credential string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.credentials[userID] = credential
	return nil
}
