package models

import (
	"time"
)

// Artist repräsentiert einen kanonischen Künstler nach dem Merge aller Provider-Daten.
type Artist struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name     string `json:"name" gorm:"uniqueIndex;not null"`
	ImageURL string `json:"image_url,omitempty"`

	// Externe IDs, ein Slot pro Provider
	SpotifyID string `json:"spotify_id,omitempty" gorm:"index"`
	LastFMID  string `json:"lastfm_id,omitempty" gorm:"index"`
	DiscogsID string `json:"discogs_id,omitempty" gorm:"index"`

	Description string `json:"description,omitempty" gorm:"type:text"`

	CreatedByUserID uint `json:"created_by_user_id,omitempty"`
}

// TableName gibt explizit den Tabellennamen an.
func (Artist) TableName() string {
	return "artists"
}
