package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"mixview/models"
)

// EntityStore bündelt alle Persistenz-Primitiven, die Resolver und
// Relationship-Engine benötigen. Lookups liefern (nil, nil) bei "nicht
// gefunden"; Fehler sind echte Storage-Fehler.
type EntityStore interface {
	// Artists
	FindArtistByName(name string) (*models.Artist, error)
	FindArtistByProviderID(provider, externalID string) (*models.Artist, error)
	RecentArtists(limit int) ([]models.Artist, error)
	CandidateArtists(excludeID uint, limit int) ([]models.Artist, error)
	ArtistByID(id uint) (*models.Artist, error)
	ArtistsByIDs(ids []uint) ([]models.Artist, error)
	CreateArtist(artist *models.Artist) error
	SaveArtist(artist *models.Artist) error
	AlbumsByArtist(artistID uint) ([]models.Album, error)
	TracksByArtist(artistID uint) ([]models.Track, error)

	// Albums
	FindAlbumByTitle(title string, artistID *uint) (*models.Album, error)
	FindAlbumByProviderID(provider, externalID string) (*models.Album, error)
	RecentAlbums(limit int) ([]models.Album, error)
	CandidateAlbums(excludeID uint, limit int) ([]models.Album, error)
	AlbumByID(id uint) (*models.Album, error)
	AlbumsByIDs(ids []uint) ([]models.Album, error)
	CreateAlbum(album *models.Album) error
	SaveAlbum(album *models.Album) error

	// Tracks
	FindTrackByTitle(title string, artistID *uint) (*models.Track, error)
	FindTrackByProviderID(provider, externalID string) (*models.Track, error)
	RecentTracks(limit int) ([]models.Track, error)
	CandidateTracks(excludeID uint, limit int) ([]models.Track, error)
	TrackByID(id uint) (*models.Track, error)
	TracksByIDs(ids []uint) ([]models.Track, error)
	CreateTrack(track *models.Track) error
	SaveTrack(track *models.Track) error

	// Similarity-Kanten (Cache der Relationship-Engine, Einfüge-Reihenfolge)
	ArtistEdges(artistID uint) ([]models.ArtistSimilarity, error)
	AddArtistEdge(artistID, relatedID uint, weight float64) error
	ClearArtistEdges(artistID uint) error
	AlbumEdges(albumID uint) ([]models.AlbumSimilarity, error)
	AddAlbumEdge(albumID, relatedID uint, weight float64) error
	ClearAlbumEdges(albumID uint) error
	TrackEdges(trackID uint) ([]models.TrackSimilarity, error)
	AddTrackEdge(trackID, relatedID uint, weight float64) error
	ClearTrackEdges(trackID uint) error

	// Benutzer-Daten
	FiltersForUser(userID uint) ([]models.Filter, error)
	EntityCounts(userID uint) (EntityCounts, error)
}

// EntityCounts enthält Bestandszahlen für die Statistik-Operation.
type EntityCounts struct {
	ArtistsCreated int64 `json:"artists_created"`
	AlbumsCreated  int64 `json:"albums_created"`
	TracksCreated  int64 `json:"tracks_created"`
	TotalArtists   int64 `json:"total_artists"`
	TotalAlbums    int64 `json:"total_albums"`
	TotalTracks    int64 `json:"total_tracks"`
}

// IsDuplicateErr erkennt Unique-Constraint-Verletzungen (konkurrierendes
// Anlegen derselben Entität). Setzt gorm.Config.TranslateError voraus.
func IsDuplicateErr(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

// GormStore implementiert EntityStore über GORM.
type GormStore struct {
	DB *gorm.DB
}

// NewGormStore erstellt eine neue Instanz des Stores.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{DB: db}
}

// notFoundAsNil übersetzt gorm.ErrRecordNotFound in das (nil, nil)-Protokoll.
func notFoundAsNil(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	return err
}

// providerColumn mappt einen Provider-Namen auf die zugehörige ID-Spalte.
func providerColumn(provider string) (string, error) {
	switch provider {
	case "spotify":
		return "spotify_id", nil
	case "lastfm":
		return "last_fm_id", nil
	case "discogs":
		return "discogs_id", nil
	}
	return "", fmt.Errorf("unknown provider %q", provider)
}

// ==================== Artists ====================

func (s *GormStore) FindArtistByName(name string) (*models.Artist, error) {
	var artist models.Artist
	if err := s.DB.Where("name = ?", name).First(&artist).Error; err != nil {
		return nil, notFoundAsNil(err)
	}
	return &artist, nil
}

func (s *GormStore) FindArtistByProviderID(provider, externalID string) (*models.Artist, error) {
	column, err := providerColumn(provider)
	if err != nil {
		return nil, err
	}
	var artist models.Artist
	if err := s.DB.Where(column+" = ?", externalID).First(&artist).Error; err != nil {
		return nil, notFoundAsNil(err)
	}
	return &artist, nil
}

func (s *GormStore) RecentArtists(limit int) ([]models.Artist, error) {
	var artists []models.Artist
	err := s.DB.Order("id desc").Limit(limit).Find(&artists).Error
	return artists, err
}

func (s *GormStore) CandidateArtists(excludeID uint, limit int) ([]models.Artist, error) {
	var artists []models.Artist
	err := s.DB.Where("id <> ?", excludeID).Order("id asc").Limit(limit).Find(&artists).Error
	return artists, err
}

func (s *GormStore) ArtistByID(id uint) (*models.Artist, error) {
	var artist models.Artist
	if err := s.DB.First(&artist, id).Error; err != nil {
		return nil, notFoundAsNil(err)
	}
	return &artist, nil
}

func (s *GormStore) ArtistsByIDs(ids []uint) ([]models.Artist, error) {
	var artists []models.Artist
	if err := s.DB.Where("id IN ?", ids).Find(&artists).Error; err != nil {
		return nil, err
	}
	return orderByIDs(artists, ids, func(a models.Artist) uint { return a.ID }), nil
}

func (s *GormStore) CreateArtist(artist *models.Artist) error {
	return s.DB.Create(artist).Error
}

func (s *GormStore) SaveArtist(artist *models.Artist) error {
	return s.DB.Save(artist).Error
}

func (s *GormStore) AlbumsByArtist(artistID uint) ([]models.Album, error) {
	var albums []models.Album
	err := s.DB.Where("artist_id = ?", artistID).Order("id asc").Find(&albums).Error
	return albums, err
}

func (s *GormStore) TracksByArtist(artistID uint) ([]models.Track, error) {
	var tracks []models.Track
	err := s.DB.Where("artist_id = ?", artistID).Order("id asc").Find(&tracks).Error
	return tracks, err
}

// ==================== Albums ====================

func (s *GormStore) FindAlbumByTitle(title string, artistID *uint) (*models.Album, error) {
	query := s.DB.Where("title = ?", title)
	if artistID != nil {
		query = query.Where("artist_id = ?", *artistID)
	}
	var album models.Album
	if err := query.First(&album).Error; err != nil {
		return nil, notFoundAsNil(err)
	}
	return &album, nil
}

func (s *GormStore) FindAlbumByProviderID(provider, externalID string) (*models.Album, error) {
	column, err := providerColumn(provider)
	if err != nil {
		return nil, err
	}
	var album models.Album
	if err := s.DB.Where(column+" = ?", externalID).First(&album).Error; err != nil {
		return nil, notFoundAsNil(err)
	}
	return &album, nil
}

func (s *GormStore) RecentAlbums(limit int) ([]models.Album, error) {
	var albums []models.Album
	err := s.DB.Order("id desc").Limit(limit).Find(&albums).Error
	return albums, err
}

func (s *GormStore) CandidateAlbums(excludeID uint, limit int) ([]models.Album, error) {
	var albums []models.Album
	err := s.DB.Where("id <> ?", excludeID).Order("id asc").Limit(limit).Find(&albums).Error
	return albums, err
}

func (s *GormStore) AlbumByID(id uint) (*models.Album, error) {
	var album models.Album
	if err := s.DB.First(&album, id).Error; err != nil {
		return nil, notFoundAsNil(err)
	}
	return &album, nil
}

func (s *GormStore) AlbumsByIDs(ids []uint) ([]models.Album, error) {
	var albums []models.Album
	if err := s.DB.Where("id IN ?", ids).Find(&albums).Error; err != nil {
		return nil, err
	}
	return orderByIDs(albums, ids, func(a models.Album) uint { return a.ID }), nil
}

func (s *GormStore) CreateAlbum(album *models.Album) error {
	return s.DB.Create(album).Error
}

func (s *GormStore) SaveAlbum(album *models.Album) error {
	return s.DB.Save(album).Error
}

// ==================== Tracks ====================

func (s *GormStore) FindTrackByTitle(title string, artistID *uint) (*models.Track, error) {
	query := s.DB.Where("title = ?", title)
	if artistID != nil {
		query = query.Where("artist_id = ?", *artistID)
	}
	var track models.Track
	if err := query.First(&track).Error; err != nil {
		return nil, notFoundAsNil(err)
	}
	return &track, nil
}

func (s *GormStore) FindTrackByProviderID(provider, externalID string) (*models.Track, error) {
	column, err := providerColumn(provider)
	if err != nil {
		return nil, err
	}
	var track models.Track
	if err := s.DB.Where(column+" = ?", externalID).First(&track).Error; err != nil {
		return nil, notFoundAsNil(err)
	}
	return &track, nil
}

func (s *GormStore) RecentTracks(limit int) ([]models.Track, error) {
	var tracks []models.Track
	err := s.DB.Order("id desc").Limit(limit).Find(&tracks).Error
	return tracks, err
}

func (s *GormStore) CandidateTracks(excludeID uint, limit int) ([]models.Track, error) {
	var tracks []models.Track
	err := s.DB.Where("id <> ?", excludeID).Order("id asc").Limit(limit).Find(&tracks).Error
	return tracks, err
}

func (s *GormStore) TrackByID(id uint) (*models.Track, error) {
	var track models.Track
	if err := s.DB.First(&track, id).Error; err != nil {
		return nil, notFoundAsNil(err)
	}
	return &track, nil
}

func (s *GormStore) TracksByIDs(ids []uint) ([]models.Track, error) {
	var tracks []models.Track
	if err := s.DB.Where("id IN ?", ids).Find(&tracks).Error; err != nil {
		return nil, err
	}
	return orderByIDs(tracks, ids, func(t models.Track) uint { return t.ID }), nil
}

func (s *GormStore) CreateTrack(track *models.Track) error {
	return s.DB.Create(track).Error
}

func (s *GormStore) SaveTrack(track *models.Track) error {
	return s.DB.Save(track).Error
}

// ==================== Similarity-Kanten ====================

func (s *GormStore) ArtistEdges(artistID uint) ([]models.ArtistSimilarity, error) {
	var edges []models.ArtistSimilarity
	err := s.DB.Where("artist_id = ?", artistID).Order("id asc").Find(&edges).Error
	return edges, err
}

func (s *GormStore) AddArtistEdge(artistID, relatedID uint, weight float64) error {
	edge := models.ArtistSimilarity{ArtistID: artistID, RelatedArtistID: relatedID, Weight: weight}
	if err := s.DB.Create(&edge).Error; err != nil {
		if IsDuplicateErr(err) {
			return nil // Kante existiert bereits, kein Fehler
		}
		return err
	}
	return nil
}

func (s *GormStore) ClearArtistEdges(artistID uint) error {
	return s.DB.Where("artist_id = ?", artistID).Delete(&models.ArtistSimilarity{}).Error
}

func (s *GormStore) AlbumEdges(albumID uint) ([]models.AlbumSimilarity, error) {
	var edges []models.AlbumSimilarity
	err := s.DB.Where("album_id = ?", albumID).Order("id asc").Find(&edges).Error
	return edges, err
}

func (s *GormStore) AddAlbumEdge(albumID, relatedID uint, weight float64) error {
	edge := models.AlbumSimilarity{AlbumID: albumID, RelatedAlbumID: relatedID, Weight: weight}
	if err := s.DB.Create(&edge).Error; err != nil {
		if IsDuplicateErr(err) {
			return nil
		}
		return err
	}
	return nil
}

func (s *GormStore) ClearAlbumEdges(albumID uint) error {
	return s.DB.Where("album_id = ?", albumID).Delete(&models.AlbumSimilarity{}).Error
}

func (s *GormStore) TrackEdges(trackID uint) ([]models.TrackSimilarity, error) {
	var edges []models.TrackSimilarity
	err := s.DB.Where("track_id = ?", trackID).Order("id asc").Find(&edges).Error
	return edges, err
}

func (s *GormStore) AddTrackEdge(trackID, relatedID uint, weight float64) error {
	edge := models.TrackSimilarity{TrackID: trackID, RelatedTrackID: relatedID, Weight: weight}
	if err := s.DB.Create(&edge).Error; err != nil {
		if IsDuplicateErr(err) {
			return nil
		}
		return err
	}
	return nil
}

func (s *GormStore) ClearTrackEdges(trackID uint) error {
	return s.DB.Where("track_id = ?", trackID).Delete(&models.TrackSimilarity{}).Error
}

// ==================== Benutzer-Daten ====================

func (s *GormStore) FiltersForUser(userID uint) ([]models.Filter, error) {
	var filters []models.Filter
	err := s.DB.Where("user_id = ?", userID).Find(&filters).Error
	return filters, err
}

func (s *GormStore) EntityCounts(userID uint) (EntityCounts, error) {
	var counts EntityCounts
	steps := []struct {
		dest  *int64
		query *gorm.DB
	}{
		{&counts.ArtistsCreated, s.DB.Model(&models.Artist{}).Where("created_by_user_id = ?", userID)},
		{&counts.AlbumsCreated, s.DB.Model(&models.Album{}).Where("created_by_user_id = ?", userID)},
		{&counts.TracksCreated, s.DB.Model(&models.Track{}).Where("created_by_user_id = ?", userID)},
		{&counts.TotalArtists, s.DB.Model(&models.Artist{})},
		{&counts.TotalAlbums, s.DB.Model(&models.Album{})},
		{&counts.TotalTracks, s.DB.Model(&models.Track{})},
	}
	for _, step := range steps {
		if err := step.query.Count(step.dest).Error; err != nil {
			return counts, err
		}
	}
	return counts, nil
}

// orderByIDs sortiert geladene Datensätze in die Reihenfolge der ID-Liste.
func orderByIDs[T any](items []T, ids []uint, idOf func(T) uint) []T {
	byID := make(map[uint]T, len(items))
	for _, item := range items {
		byID[idOf(item)] = item
	}
	ordered := make([]T, 0, len(items))
	for _, id := range ids {
		if item, ok := byID[id]; ok {
			ordered = append(ordered, item)
		}
	}
	return ordered
}
