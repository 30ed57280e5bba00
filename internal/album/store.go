// Package album persists saved wedding photos and each user's generation
// credential.
package album

import (
	"context"
	"errors"

	"github.com/Conceptual-Machines/eternal-union/internal/imagecodec"
	"github.com/Conceptual-Machines/eternal-union/internal/models"
)

// ErrNotFound is returned when a photo does not exist or belongs to someone else.
var ErrNotFound = errors.New("photo not found")

// Store is the persistence capability used by the studio.
type Store interface {
	// SaveRecord stores img under label for userID.
	SaveRecord(ctx context.Context, userID uint, img imagecodec.Image, label string) (models.SavedPhoto, error)
	// ListRecords returns userID's photos, newest first.
	ListRecords(ctx context.Context, userID uint) ([]models.SavedPhoto, error)
	// DeleteRecord removes one photo owned by userID.
	DeleteRecord(ctx context.Context, userID uint, id string) error
	// GetCredential returns the stored key; ok is false when none is stored.
	GetCredential(ctx context.Context, userID uint) (credential string, ok bool, err error)
	// SetCredential upserts the stored key.
	SetCredential(ctx context.Context, userID uint, credential string) error
}
