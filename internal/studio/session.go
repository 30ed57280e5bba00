package studio

import (
	"context"
	"strings"

	"github.com/Conceptual-Machines/eternal-union/internal/events"
	"github.com/Conceptual-Machines/eternal-union/internal/logger"
	"github.com/Conceptual-Machines/eternal-union/internal/models"
)

// HandleAuthEvent applies a sign-in or sign-out pushed by the auth flow.
// On sign-in the album and credential are loaded; load failures are logged
// and treated as empty.
func (s *Studio) HandleAuthEvent(ctx context.Context, evt events.AuthEvent) {
	switch evt.Kind {
	case events.LoggedIn:
		if evt.User == nil {
			return
		}
		s.login(ctx, UserSession{
			ID:        evt.User.ID,
			Name:      evt.User.Name,
			Email:     evt.User.Email,
			AvatarURL: evt.User.AvatarURL,
		})
	case events.LoggedOut:
		s.CancelBatch()
		s.store.Update(Patch{
			User:            Set[*UserSession](nil),
			Photos:          Set[[]models.SavedPhoto](nil),
			Credential:      Set(""),
			NeedsCredential: Set(false),
		})
		logger.Info("Studio signed out", logger.Fields{"studio_id": s.id})
	}
}

func (s *Studio) login(ctx context.Context, user UserSession) {
	s.store.Update(Patch{
		User:            Set(&user),
		Photos:          Set[[]models.SavedPhoto](nil),
		Credential:      Set(""),
		NeedsCredential: Set(false),
	})

	photos, err := s.album.ListRecords(ctx, user.ID)
	if err != nil {
		logger.Warn("Failed to load album", logger.Fields{"studio_id": s.id, "user_id": user.ID, "error": err.Error()})
		photos = nil
	}

	credential, ok, err := s.album.GetCredential(ctx, user.ID)
	if err != nil {
		logger.Warn("Failed to load credential", logger.Fields{"studio_id": s.id, "user_id": user.ID, "error": err.Error()})
		credential, ok = "", false
	}

	// a sign-out or another sign-in may have happened while loading
	s.store.UpdateIf(func(v ViewState) bool {
		return v.User != nil && v.User.ID == user.ID
	}, Patch{
		Photos:          Set(photos),
		Credential:      Set(credential),
		NeedsCredential: Set(!ok),
	})
	logger.Info("Studio signed in", logger.Fields{"studio_id": s.id, "user_id": user.ID, "has_credential": ok})
}

// SaveCredential stores the user's API key and unblocks generation.
func (s *Studio) SaveCredential(ctx context.Context, credential string) error {
	credential = strings.TrimSpace(credential)
	v := s.store.Snapshot()
	if v.User == nil {
		return s.reject(errLoginRequired)
	}
	if credential == "" {
		return s.reject(errEmptyKey)
	}

	if err := s.album.SetCredential(ctx, v.User.ID, credential); err != nil {
		perr := &PersistenceError{Op: "saving API key", Err: err}
		s.store.Update(Patch{Status: s.errorStatus(perr.Error())})
		return perr
	}

	s.store.Update(Patch{
		Credential:      Set(credential),
		NeedsCredential: Set(false),
	})
	s.succeed("API key saved")
	return nil
}
