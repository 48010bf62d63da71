package services

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"mixview/config"
	"mixview/models"
	"mixview/providers"
)

// ErrMissingName wird zurückgegeben, wenn eine Anfrage ohne Namen bzw.
// Titel gestellt wird.
var ErrMissingName = errors.New("name must not be empty")

// AggregationService ist die Fassade über Resolver und Relationship-Engine:
// Name auflösen, Beziehungen holen, Benutzer-Filter anwenden, kürzen.
// Filter wirken nur auf die Projektion, nie auf die Berechnung oder den Cache.
type AggregationService struct {
	Config   *config.Config
	Store    EntityStore
	Resolver *Resolver
	Engine   *RelationshipEngine
	Logger   *zap.Logger
	Spotify  providers.Provider
	LastFM   providers.Provider
	Discogs  providers.Provider
}

// NewAggregationService erstellt eine neue Fassaden-Instanz.
func NewAggregationService(cfg *config.Config, store EntityStore, resolver *Resolver,
	engine *RelationshipEngine, logger *zap.Logger,
	spotify, lastfm, discogs providers.Provider) *AggregationService {
	return &AggregationService{
		Config:   cfg,
		Store:    store,
		Resolver: resolver,
		Engine:   engine,
		Logger:   logger,
		Spotify:  spotify,
		LastFM:   lastfm,
		Discogs:  discogs,
	}
}

// RelatedArtistsResult bündelt den aufgelösten Künstler und seine Nachbarn.
type RelatedArtistsResult struct {
	Artist  *models.Artist  `json:"artist"`
	Related []models.Artist `json:"related_artists"`
}

// RelatedAlbumsResult bündelt das aufgelöste Album und seine Nachbarn.
type RelatedAlbumsResult struct {
	Album   *models.Album  `json:"album"`
	Related []models.Album `json:"related_albums"`
}

// RelatedTracksResult bündelt den aufgelösten Track und seine Nachbarn.
type RelatedTracksResult struct {
	Track   *models.Track  `json:"track"`
	Related []models.Track `json:"related_tracks"`
}

// CombinedNodes enthält die Ergebnisse einer kombinierten Abfrage. Nicht
// angefragte oder nicht auflösbare Zweige bleiben nil.
type CombinedNodes struct {
	Artist         *models.Artist  `json:"artist,omitempty"`
	RelatedArtists []models.Artist `json:"related_artists,omitempty"`
	Album          *models.Album   `json:"album,omitempty"`
	RelatedAlbums  []models.Album  `json:"related_albums,omitempty"`
	Track          *models.Track   `json:"track,omitempty"`
	RelatedTracks  []models.Track  `json:"related_tracks,omitempty"`
}

// Statistics enthält Bestandszahlen und die verfügbaren Dienste.
type Statistics struct {
	Counts   EntityCounts `json:"counts"`
	Services []string     `json:"services"`
}

// GetRelatedArtists löst einen Künstlernamen auf und liefert die ähnlichsten
// Künstler, gefiltert nach den Benutzer-Filtern. (nil, nil) heißt: Name nicht
// auflösbar.
func (s *AggregationService) GetRelatedArtists(ctx context.Context, name string, userID uint, topN int) (*RelatedArtistsResult, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrMissingName
	}

	artist := s.Resolver.ResolveArtist(ctx, name, userID)
	if artist == nil {
		return nil, nil
	}

	related := s.Engine.RelatedArtists(artist, topN)
	related = s.filterArtists(related, s.userFilters(userID))
	if len(related) > topN {
		related = related[:topN]
	}
	return &RelatedArtistsResult{Artist: artist, Related: related}, nil
}

// GetRelatedAlbums löst einen Albumtitel auf und liefert die ähnlichsten Alben.
func (s *AggregationService) GetRelatedAlbums(ctx context.Context, title, artistHint string, userID uint, topN int) (*RelatedAlbumsResult, error) {
	if strings.TrimSpace(title) == "" {
		return nil, ErrMissingName
	}

	album := s.Resolver.ResolveAlbum(ctx, title, artistHint, userID)
	if album == nil {
		return nil, nil
	}

	related := s.Engine.RelatedAlbums(album, topN)
	related = s.filterAlbums(related, s.userFilters(userID))
	if len(related) > topN {
		related = related[:topN]
	}
	return &RelatedAlbumsResult{Album: album, Related: related}, nil
}

// GetRelatedTracks löst einen Tracktitel auf und liefert die ähnlichsten Tracks.
func (s *AggregationService) GetRelatedTracks(ctx context.Context, title, artistHint string, userID uint, topN int) (*RelatedTracksResult, error) {
	if strings.TrimSpace(title) == "" {
		return nil, ErrMissingName
	}

	track := s.Resolver.ResolveTrack(ctx, title, artistHint, userID)
	if track == nil {
		return nil, nil
	}

	related := s.Engine.RelatedTracks(track, topN)
	related = s.filterTracks(related, s.userFilters(userID))
	if len(related) > topN {
		related = related[:topN]
	}
	return &RelatedTracksResult{Track: track, Related: related}, nil
}

// GetCombinedNodes bearbeitet bis zu drei unabhängige Zweige in einem Aufruf.
// Ein fehlgeschlagener Zweig lässt die anderen unberührt.
func (s *AggregationService) GetCombinedNodes(ctx context.Context, artistName, albumTitle, trackTitle string, userID uint, topN int) (*CombinedNodes, error) {
	if strings.TrimSpace(artistName) == "" &&
		strings.TrimSpace(albumTitle) == "" &&
		strings.TrimSpace(trackTitle) == "" {
		return nil, ErrMissingName
	}

	combined := &CombinedNodes{}

	if strings.TrimSpace(artistName) != "" {
		result, err := s.GetRelatedArtists(ctx, artistName, userID, topN)
		if err != nil {
			s.Logger.Warn("Artist-Zweig der kombinierten Abfrage fehlgeschlagen",
				zap.String("artist", artistName), zap.Error(err))
		} else if result != nil {
			combined.Artist = result.Artist
			combined.RelatedArtists = result.Related
		}
	}

	if strings.TrimSpace(albumTitle) != "" {
		result, err := s.GetRelatedAlbums(ctx, albumTitle, artistName, userID, topN)
		if err != nil {
			s.Logger.Warn("Album-Zweig der kombinierten Abfrage fehlgeschlagen",
				zap.String("album", albumTitle), zap.Error(err))
		} else if result != nil {
			combined.Album = result.Album
			combined.RelatedAlbums = result.Related
		}
	}

	if strings.TrimSpace(trackTitle) != "" {
		result, err := s.GetRelatedTracks(ctx, trackTitle, artistName, userID, topN)
		if err != nil {
			s.Logger.Warn("Track-Zweig der kombinierten Abfrage fehlgeschlagen",
				zap.String("track", trackTitle), zap.Error(err))
		} else if result != nil {
			combined.Track = result.Track
			combined.RelatedTracks = result.Related
		}
	}

	return combined, nil
}

// AvailableServices listet die nutzbaren Dienste auf. Apple Music und
// MusicBrainz benötigen keine Credentials und sind immer dabei.
func (s *AggregationService) AvailableServices() []string {
	services := []string{}
	if s.Spotify != nil && s.Spotify.IsAvailable() {
		services = append(services, providers.NameSpotify)
	}
	if s.LastFM != nil && s.LastFM.IsAvailable() {
		services = append(services, providers.NameLastFM)
	}
	if s.Discogs != nil && s.Discogs.IsAvailable() {
		services = append(services, providers.NameDiscogs)
	}
	services = append(services, providers.NameAppleMusic, providers.NameMusicBrainz)
	return services
}

// GetStatistics liefert Bestandszahlen des Benutzers plus die Dienste-Liste.
func (s *AggregationService) GetStatistics(userID uint) (*Statistics, error) {
	counts, err := s.Store.EntityCounts(userID)
	if err != nil {
		return nil, err
	}
	return &Statistics{Counts: counts, Services: s.AvailableServices()}, nil
}

// ==================== Filter-Projektion ====================

// userFilters lädt die Filter des Benutzers; Fehler degradieren zu "keine Filter".
func (s *AggregationService) userFilters(userID uint) []models.Filter {
	filters, err := s.Store.FiltersForUser(userID)
	if err != nil {
		s.Logger.Error("Laden der Benutzer-Filter fehlgeschlagen",
			zap.Uint("user_id", userID), zap.Error(err))
		return nil
	}
	return filters
}

func (s *AggregationService) filterArtists(artists []models.Artist, filters []models.Filter) []models.Artist {
	if len(filters) == 0 {
		return artists
	}
	result := make([]models.Artist, 0, len(artists))
	for i := range artists {
		if s.artistExcluded(&artists[i], filters) {
			continue
		}
		result = append(result, artists[i])
	}
	return result
}

func (s *AggregationService) artistExcluded(artist *models.Artist, filters []models.Filter) bool {
	for _, f := range filters {
		switch f.FilterType {
		case models.FilterExcludeArtist:
			if strings.EqualFold(artist.Name, f.Value) {
				return true
			}
		case models.FilterExcludeGenre:
			if f.Value != "" && strings.Contains(strings.ToLower(artist.Description), strings.ToLower(f.Value)) {
				return true
			}
		}
	}
	return false
}

func (s *AggregationService) filterAlbums(albums []models.Album, filters []models.Filter) []models.Album {
	if len(filters) == 0 {
		return albums
	}
	result := make([]models.Album, 0, len(albums))
	for i := range albums {
		if s.albumExcluded(&albums[i], filters) {
			continue
		}
		result = append(result, albums[i])
	}
	return result
}

func (s *AggregationService) albumExcluded(album *models.Album, filters []models.Filter) bool {
	for _, f := range filters {
		switch f.FilterType {
		case models.FilterExcludeAlbum:
			if strings.EqualFold(album.Title, f.Value) {
				return true
			}
		case models.FilterExcludeGenre:
			if f.Value != "" && strings.Contains(strings.ToLower(album.Title), strings.ToLower(f.Value)) {
				return true
			}
		}
	}
	return false
}

func (s *AggregationService) filterTracks(tracks []models.Track, filters []models.Filter) []models.Track {
	if len(filters) == 0 {
		return tracks
	}
	result := make([]models.Track, 0, len(tracks))
	for i := range tracks {
		if s.trackExcluded(&tracks[i], filters) {
			continue
		}
		result = append(result, tracks[i])
	}
	return result
}

func (s *AggregationService) trackExcluded(track *models.Track, filters []models.Filter) bool {
	for _, f := range filters {
		switch f.FilterType {
		case models.FilterExcludeTrack:
			if strings.EqualFold(track.Title, f.Value) {
				return true
			}
		case models.FilterExcludeGenre:
			if f.Value != "" && strings.Contains(strings.ToLower(track.Title), strings.ToLower(f.Value)) {
				return true
			}
		case models.FilterMinDuration:
			// Nicht-numerische Werte werden ignoriert, der Filter greift dann nicht
			minSeconds, err := strconv.Atoi(strings.TrimSpace(f.Value))
			if err != nil {
				continue
			}
			if track.DurationSeconds < minSeconds {
				return true
			}
		}
	}
	return false
}
