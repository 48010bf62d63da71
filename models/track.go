package models

import (
	"time"
)

// Track repräsentiert einen kanonischen Titel. Künstler- und Album-Zuordnung
// sind optional, weil deren Auflösung fehlschlagen darf.
type Track struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ArtistID *uint `json:"artist_id,omitempty" gorm:"index"`
	AlbumID  *uint `json:"album_id,omitempty" gorm:"index"`

	Title           string `json:"title" gorm:"not null;index"`
	DurationSeconds int    `json:"duration_seconds,omitempty"`

	SpotifyID string `json:"spotify_id,omitempty" gorm:"index"`
	LastFMID  string `json:"lastfm_id,omitempty" gorm:"index"`
	DiscogsID string `json:"discogs_id,omitempty"`

	// Provider-gehosteter Medien-Link (Apple-Music-Suche)
	AppleMusicURL string `json:"apple_music_url,omitempty"`

	CreatedByUserID uint `json:"created_by_user_id,omitempty"`
}

// TableName gibt explizit den Tabellennamen an.
func (Track) TableName() string {
	return "tracks"
}
