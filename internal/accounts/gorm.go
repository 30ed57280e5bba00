package accounts

import (
	"context"
	"errors"

	"github.com/Conceptual-Machines/eternal-union/internal/models"
	"gorm.io/gorm"
)

// GormStore implements Store on the users and oauth_providers tables.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) FindUser(ctx context.Context, id uint) (models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.User{}, ErrUserNotFound
	}
	return user, err
}

func (s *GormStore) FindOrCreate(ctx context.Context, identity Identity) (models.User, bool, error) {
	var link models.OAuthProvider
	err := s.db.WithContext(ctx).
		Scopes(providerIdentity(identity)).
		Preload("User").
		First(&link).Error
	if err == nil {
		return s.refreshProfile(ctx, link.User, identity)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return models.User{}, false, err
	}

	email := normalizeEmail(identity.Email)
	if email == "" {
		return models.User{}, false, ErrMissingEmail
	}

	var (
		user    models.User
		created bool
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		lookup := tx.Where("email = ?", email).First(&user)
		switch {
		case lookup.Error == nil:
			// same email signed in through another provider
		case errors.Is(lookup.Error, gorm.ErrRecordNotFound):
			user = models.User{
				Email:     email,
				Name:      identity.Name,
				AvatarURL: identity.AvatarURL,
				IsActive:  true,
			}
			if err := tx.Create(&user).Error; err != nil {
				return err
			}
			created = true
		default:
			return lookup.Error
		}

		return tx.Create(&models.OAuthProvider{
			UserID:         user.ID,
			Provider:       identity.Provider,
			ProviderUserID: identity.ProviderUserID,
		}).Error
	})
	if err != nil {
		return models.User{}, false, err
	}
	return user, created, nil
}

// refreshProfile keeps the display name and avatar in sync with the provider.
func (s *GormStore) refreshProfile(ctx context.Context, user models.User, identity Identity) (models.User, bool, error) {
	updates := map[string]any{}
	if identity.Name != "" && identity.Name != user.Name {
		updates["name"] = identity.Name
	}
	if identity.AvatarURL != "" && identity.AvatarURL != user.AvatarURL {
		updates["avatar_url"] = identity.AvatarURL
	}
	if len(updates) == 0 {
		return user, false, nil
	}
	if err := s.db.WithContext(ctx).Model(&user).Updates(updates).Error; err != nil {
		return models.User{}, false, err
	}
	return user, false, nil
}

func providerIdentity(identity Identity) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("provider = ? AND provider_user_id = ?", identity.Provider, identity.ProviderUserID)
	}
}
