package models

// Gültige Filter-Typen. Filter wirken ausschließlich als Projektion über
// die Ergebnisse, niemals auf Matching oder Scoring.
const (
	FilterExcludeArtist = "exclude_artist"
	FilterExcludeAlbum  = "exclude_album"
	FilterExcludeTrack  = "exclude_track"
	FilterExcludeGenre  = "exclude_genre"
	FilterMinDuration   = "min_duration"
)

// Filter repräsentiert eine benutzerdefinierte Ausschlussregel.
type Filter struct {
	ID         uint   `json:"id" gorm:"primaryKey"`
	UserID     uint   `json:"user_id" gorm:"index;not null"`
	FilterType string `json:"filter_type" gorm:"not null"`
	Value      string `json:"value" gorm:"not null"`
}

// TableName gibt explizit den Tabellennamen an.
func (Filter) TableName() string {
	return "filters"
}
