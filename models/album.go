package models

import (
	"time"
)

// Album repräsentiert ein kanonisches Album. Der Titel ist nicht global eindeutig,
// die Disambiguierung erfolgt über den zugehörigen Künstler.
type Album struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Nullable FK: Alben ohne aufgelösten Künstler sind erlaubt
	ArtistID *uint `json:"artist_id,omitempty" gorm:"index"`

	Title       string `json:"title" gorm:"not null;index"`
	ReleaseYear int    `json:"release_year,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`

	SpotifyID string `json:"spotify_id,omitempty" gorm:"index"`
	LastFMID  string `json:"lastfm_id,omitempty" gorm:"index"`
	DiscogsID string `json:"discogs_id,omitempty" gorm:"index"`

	CreatedByUserID uint `json:"created_by_user_id,omitempty"`
}

// TableName gibt explizit den Tabellennamen an.
func (Album) TableName() string {
	return "albums"
}
