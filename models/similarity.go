package models

import (
	"time"
)

// Die Similarity-Tabellen sind gecachte Ergebnisse der Relationship-Berechnung.
// Die Surrogat-ID konserviert die Einfüge-Reihenfolge; Cache-Reads liefern
// Kanten bewusst in dieser Reihenfolge und nicht nach Gewicht sortiert.

// ArtistSimilarity modelliert eine gerichtete, gewichtete Kante zwischen zwei Künstlern.
type ArtistSimilarity struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`

	ArtistID        uint    `json:"artist_id" gorm:"index:idx_artist_similarity_edge,unique;not null"`
	RelatedArtistID uint    `json:"related_artist_id" gorm:"index:idx_artist_similarity_edge,unique;not null"`
	Weight          float64 `json:"weight" gorm:"default:0"`
}

// TableName gibt explizit den Tabellennamen an.
func (ArtistSimilarity) TableName() string { return "artist_similarity" }

// AlbumSimilarity modelliert eine gerichtete, gewichtete Kante zwischen zwei Alben.
type AlbumSimilarity struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`

	AlbumID        uint    `json:"album_id" gorm:"index:idx_album_similarity_edge,unique;not null"`
	RelatedAlbumID uint    `json:"related_album_id" gorm:"index:idx_album_similarity_edge,unique;not null"`
	Weight         float64 `json:"weight" gorm:"default:0"`
}

// TableName gibt explizit den Tabellennamen an.
func (AlbumSimilarity) TableName() string { return "album_similarity" }

// TrackSimilarity modelliert eine gerichtete, gewichtete Kante zwischen zwei Tracks.
type TrackSimilarity struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`

	TrackID        uint    `json:"track_id" gorm:"index:idx_track_similarity_edge,unique;not null"`
	RelatedTrackID uint    `json:"related_track_id" gorm:"index:idx_track_similarity_edge,unique;not null"`
	Weight         float64 `json:"weight" gorm:"default:0"`
}

// TableName gibt explizit den Tabellennamen an.
func (TrackSimilarity) TableName() string { return "track_similarity" }
