package services

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"mixview/config"
	"mixview/models"
	"mixview/providers"
)

// newTestDB öffnet eine In-Memory-SQLite-Datenbank pro Test. TranslateError
// sorgt wie in Produktion für gorm.ErrDuplicatedKey bei Unique-Verletzungen.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Artist{},
		&models.Album{},
		&models.Track{},
		&models.ArtistSimilarity{},
		&models.AlbumSimilarity{},
		&models.TrackSimilarity{},
		&models.Filter{},
	))
	return db
}

func newTestStore(t *testing.T) *GormStore {
	t.Helper()
	return NewGormStore(newTestDB(t))
}

func testConfig() *config.Config {
	return &config.Config{
		FuzzyScanArtists:     500,
		FuzzyScanAlbums:      200,
		FuzzyScanTracks:      200,
		CandidatePoolArtists: 1000,
		CandidatePoolAlbums:  500,
		CandidatePoolTracks:  500,
		RefreshTopN:          20,
	}
}

// stubProvider ist ein deterministischer Provider für Tests. Die Maps sind
// nach lowercase-Query geschlüsselt.
type stubProvider struct {
	name      string
	available bool
	artists   map[string]*providers.Artist
	albums    map[string]*providers.Album
	tracks    map[string]*providers.Track

	artistCalls int
	albumCalls  int
	trackCalls  int
}

func (s *stubProvider) Name() string      { return s.name }
func (s *stubProvider) IsAvailable() bool { return s.available }

func (s *stubProvider) SearchArtist(_ context.Context, name string) (*providers.Artist, error) {
	s.artistCalls++
	return s.artists[strings.ToLower(name)], nil
}

func (s *stubProvider) SearchAlbum(_ context.Context, title, _ string) (*providers.Album, error) {
	s.albumCalls++
	return s.albums[strings.ToLower(title)], nil
}

func (s *stubProvider) SearchTrack(_ context.Context, title, _ string) (*providers.Track, error) {
	s.trackCalls++
	return s.tracks[strings.ToLower(title)], nil
}

// stubLinker ersetzt den Apple-Music-Link-Generator.
type stubLinker struct{}

func (stubLinker) TrackURL(artist, track string) string {
	return "https://music.apple.com/search?term=" + strings.ReplaceAll(artist+" "+track, " ", "+")
}

func newTestResolver(t *testing.T, store EntityStore, spotify, lastfm, discogs providers.Provider) *Resolver {
	t.Helper()
	return NewResolver(testConfig(), store, zap.NewNop(), spotify, lastfm, discogs, stubLinker{})
}

// countingStore zählt Kandidaten-Pool-Zugriffe, um Cache-Treffer nachzuweisen.
type countingStore struct {
	EntityStore
	candidateArtistCalls int
	candidateAlbumCalls  int
	candidateTrackCalls  int
}

func (c *countingStore) CandidateArtists(excludeID uint, limit int) ([]models.Artist, error) {
	c.candidateArtistCalls++
	return c.EntityStore.CandidateArtists(excludeID, limit)
}

func (c *countingStore) CandidateAlbums(excludeID uint, limit int) ([]models.Album, error) {
	c.candidateAlbumCalls++
	return c.EntityStore.CandidateAlbums(excludeID, limit)
}

func (c *countingStore) CandidateTracks(excludeID uint, limit int) ([]models.Track, error) {
	c.candidateTrackCalls++
	return c.EntityStore.CandidateTracks(excludeID, limit)
}

func uintPtr(v uint) *uint { return &v }
