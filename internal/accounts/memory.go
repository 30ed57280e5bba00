package accounts

import (
	"context"
	"sync"

	"github.com/Conceptual-Machines/eternal-union/internal/models"
)

type providerKey struct {
	provider string
	userID   string
}

// MemoryStore keeps users in process. It backs local runs without a database.
type MemoryStore struct {
	mu      sync.Mutex
	nextID  uint
	users   map[uint]models.User
	byEmail map[string]uint
	links   map[providerKey]uint
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:   make(map[uint]models.User),
		byEmail: make(map[string]uint),
		links:   make(map[providerKey]uint),
	}
}

func (s *MemoryStore) FindUser(_ context.Context, id uint) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return models.User{}, ErrUserNotFound
	}
	return user, nil
}

func (s *MemoryStore) FindOrCreate(_ context.Context, identity Identity) (models.User, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := providerKey{identity.Provider, identity.ProviderUserID}
	if id, ok := s.links[key]; ok {
		user := s.users[id]
		if identity.Name != "" {
			user.Name = identity.Name
		}
		if identity.AvatarURL != "" {
			user.AvatarURL = identity.AvatarURL
		}
		s.users[id] = user
		return user, false, nil
	}

	email := normalizeEmail(identity.Email)
	if email == "" {
		return models.User{}, false, ErrMissingEmail
	}
	if id, ok := s.byEmail[email]; ok {
		s.links[key] = id
		return s.users[id], false, nil
	}

	s.nextID++
	user := models.User{
		ID:        s.nextID,
		Email:     email,
		Name:      identity.Name,
		AvatarURL: identity.AvatarURL,
		IsActive:  true,
	}
	s.users[user.ID] = user
	s.byEmail[email] = user.ID
	s.links[key] = user.ID
	return user, true, nil
}
