package album

import (
	"context"
	"errors"
	"fmt"

	"github.com/Conceptual-Machines/eternal-union/internal/imagecodec"
	"github.com/Conceptual-Machines/eternal-union/internal/models"
	"github.com/Conceptual-Machines/eternal-union/internal/sealbox"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore implements Store on Postgres. Credentials are sealed before
// they reach the profiles table.
type GormStore struct {
	db  *gorm.DB
	box *sealbox.Box
}

func NewGormStore(db *gorm.DB, box *sealbox.Box) *GormStore {
	return &GormStore{db: db, box: box}
}

func (s *GormStore) SaveRecord(ctx context.Context, userID uint, img imagecodec.Image, label string) (models.SavedPhoto, error) {
	photo := models.SavedPhoto{
		UserID:    userID,
		ImageURL:  img.DataURL(),
		SceneName: label,
	}
	if err := s.db.WithContext(ctx).Create(&photo).Error; err != nil {
		return models.SavedPhoto{}, fmt.Errorf("failed to save photo: %w", err)
	}
	return photo, nil
}

func (s *GormStore) ListRecords(ctx context.Context, userID uint) ([]models.SavedPhoto, error) {
	var photos []models.SavedPhoto
	if err := s.db.WithContext(ctx).Scopes(newestFirst(userID)).Find(&photos).Error; err != nil {
		return nil, fmt.Errorf("failed to list photos: %w", err)
	}
	return photos, nil
}

func (s *GormStore) DeleteRecord(ctx context.Context, userID uint, id string) error {
	result := s.db.WithContext(ctx).Scopes(ownedPhoto(userID, id)).Delete(&models.SavedPhoto{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete photo: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) GetCredential(ctx context.Context, userID uint) (string, bool, error) {
	var profile models.Profile
	err := s.db.WithContext(ctx).First(&profile, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to load profile: %w", err)
	}
	if profile.SealedAPIKey == "" {
		return "", false, nil
	}

	credential, err := s.box.Open(profile.SealedAPIKey)
	if err != nil {
		return "", false, fmt.Errorf("failed to open stored credential: %w", err)
	}
	return credential, true, nil
}

func (s *GormStore) SetCredential(ctx context.Context, userID uint, credential string) error {
	sealed, err := s.box.Seal(credential)
	if err != nil {
		return err
	}

	profile := models.Profile{ID: userID, SealedAPIKey: sealed}
	err = s.db.WithContext(ctx).Clauses(upsertProfile()).Create(&profile).Error
	if err != nil {
		return fmt.Errorf("failed to store credential: %w", err)
	}
	return nil
}

func newestFirst(userID uint) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("user_id = ?", userID).Order("created_at DESC")
	}
}

func ownedPhoto(userID uint, id string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("id = ? AND user_id = ?", id, userID)
	}
}

func upsertProfile() clause.OnConflict {
	return clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"sealed_api_key", "updated_at"}),
	}
}
