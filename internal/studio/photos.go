package studio

import (
	"context"
	"errors"

	"github.com/Conceptual-Machines/eternal-union/internal/album"
	"github.com/Conceptual-Machines/eternal-union/internal/imagecodec"
	"github.com/Conceptual-Machines/eternal-union/internal/logger"
)

const savedMessage = "saved to album"

// SaveToAlbum stores img, or the current result when img is nil, under the
// selected scene. Without any image this is a no-op.
func (s *Studio) SaveToAlbum(ctx context.Context, img *imagecodec.Image) error {
	v := s.store.Snapshot()
	if v.User == nil {
		return s.reject(errSaveLogin)
	}

	target := img
	if target == nil {
		target = v.Result
	}
	if target == nil {
		return nil
	}

	if _, err := s.album.SaveRecord(ctx, v.User.ID, *target, v.Scene); err != nil {
		perr := &PersistenceError{Op: "saving to album", Err: err}
		s.store.Update(Patch{Status: s.errorStatus(perr.Error())})
		return perr
	}

	s.refreshPhotos(ctx, v.User.ID)
	s.succeed(savedMessage)
	return nil
}

// DeletePhoto removes one of the signed-in user's photos.
func (s *Studio) DeletePhoto(ctx context.Context, id string) error {
	v := s.store.Snapshot()
	if v.User == nil {
		return s.reject(errLoginRequired)
	}

	if err := s.album.DeleteRecord(ctx, v.User.ID, id); err != nil {
		perr := &PersistenceError{Op: "deleting photo", Err: err}
		if !errors.Is(err, album.ErrNotFound) {
			s.store.Update(Patch{Status: s.errorStatus(perr.Error())})
		}
		return perr
	}

	s.refreshPhotos(ctx, v.User.ID)
	return nil
}

// RefreshPhotos reloads the signed-in user's album.
func (s *Studio) RefreshPhotos(ctx context.Context) error {
	v := s.store.Snapshot()
	if v.User == nil {
		return s.reject(errLoginRequired)
	}
	s.refreshPhotos(ctx, v.User.ID)
	return nil
}

func (s *Studio) refreshPhotos(ctx context.Context, userID uint) {
	photos, err := s.album.ListRecords(ctx, userID)
	if err != nil {
		logger.Warn("Failed to refresh album", logger.Fields{"studio_id": s.id, "user_id": userID, "error": err.Error()})
		return
	}
	s.store.UpdateIf(func(v ViewState) bool {
		return v.User != nil && v.User.ID == userID
	}, Patch{Photos: Set(photos)})
}
