package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SavedPhoto is one album entry. ImageURL holds the photo as a data URL.
type SavedPhoto struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	User      User      `gorm:"foreignKey:UserID" json:"-"`
	ImageURL  string    `gorm:"type:text;not null" json:"image_url"`
	SceneName string    `json:"scene_name"`
}

func (SavedPhoto) TableName() string {
	return "wedding_photos"
}

// BeforeCreate assigns a random id when the caller did not set one.
func (p *SavedPhoto) BeforeCreate(_ *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// Profile stores per-user settings. ID equals the owning user's ID.
type Profile struct {
	ID           uint      `gorm:"primaryKey;autoIncrement:false" json:"id"`
	UpdatedAt    time.Time `json:"updated_at"`
	SealedAPIKey string    `gorm:"type:text" json:"-"` // secretbox-sealed Gemini key
}
