package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mixview/models"
	"mixview/providers"
)

func newTestAggregator(t *testing.T, store EntityStore, spotify, lastfm, discogs providers.Provider) *AggregationService {
	t.Helper()
	cfg := testConfig()
	resolver := NewResolver(cfg, store, zap.NewNop(), spotify, lastfm, discogs, stubLinker{})
	engine := NewRelationshipEngine(cfg, store, zap.NewNop())
	return NewAggregationService(cfg, store, resolver, engine, zap.NewNop(), spotify, lastfm, discogs)
}

func TestGetRelatedArtistsAppliesExcludeFilter(t *testing.T) {
	store := newTestStore(t)
	aggregator := newTestAggregator(t, store, nil, nil, nil)

	target := models.Artist{Name: "Radiohead"}
	keep := models.Artist{Name: "Portishead"}
	excluded := models.Artist{Name: "Nickelback"}
	for _, a := range []*models.Artist{&target, &keep, &excluded} {
		require.NoError(t, store.CreateArtist(a))
	}
	require.NoError(t, store.AddArtistEdge(target.ID, keep.ID, 0.8))
	require.NoError(t, store.AddArtistEdge(target.ID, excluded.ID, 0.7))
	require.NoError(t, store.DB.Create(&models.Filter{
		UserID: 1, FilterType: models.FilterExcludeArtist, Value: "nickelback",
	}).Error)

	result, err := aggregator.GetRelatedArtists(context.Background(), "Radiohead", 1, 2)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, target.ID, result.Artist.ID)
	require.Len(t, result.Related, 1, "der Filter greift case-insensitive")
	assert.Equal(t, "Portishead", result.Related[0].Name)

	// Andere Benutzer sehen das ungefilterte Ergebnis
	result, err = aggregator.GetRelatedArtists(context.Background(), "Radiohead", 2, 2)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Len(t, result.Related, 2)
}

func TestGetRelatedArtistsMissingName(t *testing.T) {
	store := newTestStore(t)
	aggregator := newTestAggregator(t, store, nil, nil, nil)

	_, err := aggregator.GetRelatedArtists(context.Background(), "", 1, 10)
	assert.ErrorIs(t, err, ErrMissingName)
	_, err = aggregator.GetRelatedArtists(context.Background(), "   ", 1, 10)
	assert.ErrorIs(t, err, ErrMissingName)
}

func TestGetRelatedArtistsUnresolvable(t *testing.T) {
	store := newTestStore(t)
	aggregator := newTestAggregator(t, store, nil, nil, nil)

	result, err := aggregator.GetRelatedArtists(context.Background(), "Completely Unknown", 1, 10)
	require.NoError(t, err)
	assert.Nil(t, result, "nicht auflösbar ist kein Fehler")
}

func TestGetRelatedTracksMinDurationFilter(t *testing.T) {
	store := newTestStore(t)
	aggregator := newTestAggregator(t, store, nil, nil, nil)

	target := models.Track{Title: "Come Together", DurationSeconds: 259}
	long := models.Track{Title: "Something", DurationSeconds: 240}
	short := models.Track{Title: "Her Majesty", DurationSeconds: 23}
	for _, tr := range []*models.Track{&target, &long, &short} {
		require.NoError(t, store.CreateTrack(tr))
	}
	require.NoError(t, store.AddTrackEdge(target.ID, long.ID, 0.8))
	require.NoError(t, store.AddTrackEdge(target.ID, short.ID, 0.7))
	require.NoError(t, store.DB.Create(&models.Filter{
		UserID: 1, FilterType: models.FilterMinDuration, Value: "60",
	}).Error)

	result, err := aggregator.GetRelatedTracks(context.Background(), "Come Together", "", 1, 2)
	require.NoError(t, err)
	require.NotNil(t, result)
	require.Len(t, result.Related, 1)
	assert.Equal(t, "Something", result.Related[0].Title)
}

func TestMinDurationFilterIgnoresNonNumericValue(t *testing.T) {
	store := newTestStore(t)
	aggregator := newTestAggregator(t, store, nil, nil, nil)

	track := models.Track{Title: "Her Majesty", DurationSeconds: 23}
	filters := []models.Filter{{FilterType: models.FilterMinDuration, Value: "sixty"}}

	assert.False(t, aggregator.trackExcluded(&track, filters),
		"nicht-numerische Werte werden übersprungen")
}

func TestGenreFilterMatchesDescriptionSubstring(t *testing.T) {
	store := newTestStore(t)
	aggregator := newTestAggregator(t, store, nil, nil, nil)

	artist := models.Artist{Name: "Some Band", Description: "Canadian Post-Grunge act"}
	filters := []models.Filter{{FilterType: models.FilterExcludeGenre, Value: "grunge"}}

	assert.True(t, aggregator.artistExcluded(&artist, filters))

	filters[0].Value = "jazz"
	assert.False(t, aggregator.artistExcluded(&artist, filters))
}

func TestGetCombinedNodesIndependentBranches(t *testing.T) {
	store := newTestStore(t)
	aggregator := newTestAggregator(t, store, nil, nil, nil)

	artist := models.Artist{Name: "The Beatles"}
	require.NoError(t, store.CreateArtist(&artist))

	// Der Album-Zweig ist nicht auflösbar, der Artist-Zweig muss trotzdem liefern
	combined, err := aggregator.GetCombinedNodes(context.Background(),
		"The Beatles", "No Such Album", "", 1, 5)
	require.NoError(t, err)
	require.NotNil(t, combined)
	require.NotNil(t, combined.Artist)
	assert.Equal(t, artist.ID, combined.Artist.ID)
	assert.Nil(t, combined.Album)
	assert.Nil(t, combined.Track)
}

func TestGetCombinedNodesAllEmpty(t *testing.T) {
	store := newTestStore(t)
	aggregator := newTestAggregator(t, store, nil, nil, nil)

	_, err := aggregator.GetCombinedNodes(context.Background(), "", "", "", 1, 5)
	assert.ErrorIs(t, err, ErrMissingName)
}

func TestAvailableServices(t *testing.T) {
	store := newTestStore(t)

	aggregator := newTestAggregator(t, store,
		&stubProvider{name: "spotify", available: true},
		&stubProvider{name: "lastfm", available: false},
		nil)

	services := aggregator.AvailableServices()
	assert.Contains(t, services, "spotify")
	assert.NotContains(t, services, "lastfm")
	assert.Contains(t, services, "apple_music", "Link-Generator ist immer verfügbar")
	assert.Contains(t, services, "musicbrainz")
}

func TestGetStatistics(t *testing.T) {
	store := newTestStore(t)
	aggregator := newTestAggregator(t, store, nil, nil, nil)

	require.NoError(t, store.CreateArtist(&models.Artist{Name: "Mine", CreatedByUserID: 1}))
	require.NoError(t, store.CreateArtist(&models.Artist{Name: "Theirs", CreatedByUserID: 2}))

	stats, err := aggregator.GetStatistics(1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Counts.ArtistsCreated)
	assert.Equal(t, int64(2), stats.Counts.TotalArtists)
	assert.NotEmpty(t, stats.Services)
}
