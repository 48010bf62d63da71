package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mixview/models"
	"mixview/providers"
)

func TestResolveArtistConvergence(t *testing.T) {
	store := newTestStore(t)
	bjork := &providers.Artist{ID: "sp-bjork", Name: "Björk", ImageURL: "https://img/bjork"}
	spotify := &stubProvider{name: "spotify", available: true, artists: map[string]*providers.Artist{
		"bjork": bjork,
		"björk": bjork,
	}}
	resolver := newTestResolver(t, store, spotify, nil, nil)

	first := resolver.ResolveArtist(context.Background(), "bjork", 1)
	require.NotNil(t, first)
	assert.Equal(t, "Björk", first.Name)
	assert.Equal(t, "sp-bjork", first.SpotifyID)
	assert.Equal(t, uint(1), first.CreatedByUserID)

	// Schreibweisen-Varianten konvergieren auf denselben Datensatz
	second := resolver.ResolveArtist(context.Background(), "Björk", 1)
	require.NotNil(t, second)
	assert.Equal(t, first.ID, second.ID)

	var count int64
	require.NoError(t, store.DB.Model(&models.Artist{}).Count(&count).Error)
	assert.Equal(t, int64(1), count, "es darf nur ein Datensatz entstehen")
}

func TestResolveArtistFuzzyReusesExistingWithoutProviderCall(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.CreateArtist(&models.Artist{Name: "The Beatles", SpotifyID: "sp-b"}))
	spotify := &stubProvider{name: "spotify", available: true}
	resolver := newTestResolver(t, store, spotify, nil, nil)

	resolved := resolver.ResolveArtist(context.Background(), "Beatles", 1)
	require.NotNil(t, resolved)
	assert.Equal(t, "The Beatles", resolved.Name)
	assert.Zero(t, spotify.artistCalls, "bei lokalem Treffer wird kein Provider befragt")
}

func TestResolveArtistNoProviderData(t *testing.T) {
	store := newTestStore(t)
	resolver := newTestResolver(t, store,
		&stubProvider{name: "spotify", available: false},
		&stubProvider{name: "lastfm", available: false},
		nil)

	assert.Nil(t, resolver.ResolveArtist(context.Background(), "Unknown Artist", 1))
	assert.Nil(t, resolver.ResolveArtist(context.Background(), "", 1))
}

func TestResolveArtistDepthGuard(t *testing.T) {
	store := newTestStore(t)
	resolver := newTestResolver(t, store,
		&stubProvider{name: "spotify", available: true, artists: map[string]*providers.Artist{
			"radiohead": {ID: "sp-r", Name: "Radiohead"},
		}}, nil, nil)

	assert.Nil(t, resolver.resolveArtist(context.Background(), "Radiohead", 1, maxResolveDepth+1))
}

func TestResolveAlbumMergesProviders(t *testing.T) {
	store := newTestStore(t)
	spotify := &stubProvider{name: "spotify", available: true,
		artists: map[string]*providers.Artist{
			"the beatles": {ID: "sp-b", Name: "The Beatles"},
		},
		albums: map[string]*providers.Album{
			"abbey road": {ID: "sp-ar", Title: "Abbey Road", ArtistName: "The Beatles",
				ImageURL: "https://img/sp", ReleaseDate: "1969-09-26"},
		}}
	lastfm := &stubProvider{name: "lastfm", available: true,
		artists: map[string]*providers.Artist{
			"the beatles": {Name: "The Beatles", MBID: "mb-b"},
		},
		albums: map[string]*providers.Album{
			"abbey road": {Title: "Abbey Road", ArtistName: "The Beatles",
				MBID: "mb-ar", ImageURL: "https://img/lf"},
		}}
	resolver := newTestResolver(t, store, spotify, lastfm, nil)

	album := resolver.ResolveAlbum(context.Background(), "Abbey Road", "", 1)
	require.NotNil(t, album)
	assert.Equal(t, "Abbey Road", album.Title)
	assert.Equal(t, "sp-ar", album.SpotifyID)
	assert.Equal(t, "mb-ar", album.LastFMID)
	assert.Equal(t, "https://img/sp", album.ImageURL, "Spotify-Bild hat Vorrang")
	assert.Equal(t, 1969, album.ReleaseYear)
	require.NotNil(t, album.ArtistID, "der Künstler wird mit aufgelöst")

	artist, err := store.ArtistByID(*album.ArtistID)
	require.NoError(t, err)
	require.NotNil(t, artist)
	assert.Equal(t, "The Beatles", artist.Name)
	assert.Equal(t, "sp-b", artist.SpotifyID)
	assert.Equal(t, "mb-b", artist.LastFMID)
}

func TestResolveAlbumMergesSpotifyAndDiscogs(t *testing.T) {
	store := newTestStore(t)
	spotify := &stubProvider{name: "spotify", available: true,
		artists: map[string]*providers.Artist{
			"the beatles": {ID: "sp-b", Name: "The Beatles"},
		},
		albums: map[string]*providers.Album{
			"abbey road": {ID: "sp1", Title: "Abbey Road", ArtistName: "The Beatles",
				ImageURL: "https://img/sp", ReleaseDate: "1969-09-26"},
		}}
	discogs := &stubProvider{name: "discogs", available: true,
		albums: map[string]*providers.Album{
			"abbey road": {ID: "7", Title: "Abbey Road", Year: "1969",
				ImageURL: "https://img/dg"},
		}}
	resolver := newTestResolver(t, store, spotify, nil, discogs)

	album := resolver.ResolveAlbum(context.Background(), "Abbey Road", "", 1)
	require.NotNil(t, album)
	assert.Equal(t, "Abbey Road", album.Title)
	assert.Equal(t, "sp1", album.SpotifyID)
	assert.Equal(t, "7", album.DiscogsID)
	assert.Equal(t, "https://img/sp", album.ImageURL, "Spotify-Bild hat Vorrang vor Discogs")
	assert.Equal(t, 1969, album.ReleaseYear)
	require.NotNil(t, album.ArtistID)

	var count int64
	require.NoError(t, store.DB.Model(&models.Album{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestResolveAlbumDiscogsOnly(t *testing.T) {
	store := newTestStore(t)
	discogs := &stubProvider{name: "discogs", available: true,
		albums: map[string]*providers.Album{
			"abbey road": {ID: "7", Title: "Abbey Road", Year: "1969",
				ImageURL: "https://img/dg"},
		}}
	resolver := newTestResolver(t, store, nil, nil, discogs)

	album := resolver.ResolveAlbum(context.Background(), "Abbey Road", "", 1)
	require.NotNil(t, album)
	assert.Equal(t, "Abbey Road", album.Title)
	assert.Equal(t, "7", album.DiscogsID)
	assert.Empty(t, album.SpotifyID)
	assert.Equal(t, 1969, album.ReleaseYear, "das Jahr kommt aus dem Discogs-String")
	assert.Equal(t, "https://img/dg", album.ImageURL)
	assert.Nil(t, album.ArtistID, "Discogs liefert keinen Künstlernamen")
}

func TestResolveAlbumGatesMismatchedDiscogsResult(t *testing.T) {
	store := newTestStore(t)
	spotify := &stubProvider{name: "spotify", available: true,
		artists: map[string]*providers.Artist{
			"the beatles": {ID: "sp-b", Name: "The Beatles"},
		},
		albums: map[string]*providers.Album{
			"abbey road": {ID: "sp1", Title: "Abbey Road", ArtistName: "The Beatles",
				ImageURL: "https://img/sp", ReleaseDate: "1969-09-26"},
		}}
	discogs := &stubProvider{name: "discogs", available: true,
		albums: map[string]*providers.Album{
			"abbey road": {ID: "9", Title: "Something Else", Year: "1965"},
		}}
	resolver := newTestResolver(t, store, spotify, nil, discogs)

	album := resolver.ResolveAlbum(context.Background(), "Abbey Road", "", 1)
	require.NotNil(t, album)
	assert.Equal(t, "sp1", album.SpotifyID)
	assert.Empty(t, album.DiscogsID, "unpassende Discogs-Treffer fließen nicht in den Merge")
	assert.Equal(t, 1969, album.ReleaseYear)
}

func TestResolveAlbumEnrichesExistingViaProviderID(t *testing.T) {
	store := newTestStore(t)
	lastfm := &stubProvider{name: "lastfm", available: true,
		artists: map[string]*providers.Artist{
			"the beatles": {Name: "The Beatles", MBID: "mb-b"},
		},
		albums: map[string]*providers.Album{
			"abbey road": {Title: "Abbey Road", ArtistName: "The Beatles",
				MBID: "mb-ar", ImageURL: "https://img/lf"},
			"abbey road anthology": {Title: "Abbey Road", ArtistName: "The Beatles",
				MBID: "mb-ar", ImageURL: "https://img/lf"},
		}}
	spotify := &stubProvider{name: "spotify", available: true,
		artists: map[string]*providers.Artist{
			"the beatles": {ID: "sp-b", Name: "The Beatles"},
		},
		albums: map[string]*providers.Album{
			"abbey road anthology": {ID: "sp-ar", Title: "Abbey Road", ArtistName: "The Beatles",
				ImageURL: "https://img/sp", ReleaseDate: "1969-09-26"},
		}}

	// Erster Durchlauf nur mit Last.fm
	offline := newTestResolver(t, store, &stubProvider{name: "spotify"}, lastfm, nil)
	first := offline.ResolveAlbum(context.Background(), "Abbey Road", "", 1)
	require.NotNil(t, first)
	assert.Empty(t, first.SpotifyID)
	assert.Equal(t, "https://img/lf", first.ImageURL)

	// Zweiter Durchlauf mit anderer Query; die MBID führt zum vorhandenen Datensatz
	online := newTestResolver(t, store, spotify, lastfm, nil)
	second := online.ResolveAlbum(context.Background(), "Abbey Road Anthology", "", 1)
	require.NotNil(t, second)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "sp-ar", second.SpotifyID, "leeres Feld wird ergänzt")
	assert.Equal(t, "https://img/lf", second.ImageURL, "gefülltes Feld wird nie überschrieben")

	var count int64
	require.NoError(t, store.DB.Model(&models.Album{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestResolveTrack(t *testing.T) {
	store := newTestStore(t)
	spotify := &stubProvider{name: "spotify", available: true,
		artists: map[string]*providers.Artist{
			"the beatles": {ID: "sp-b", Name: "The Beatles"},
		},
		albums: map[string]*providers.Album{
			"abbey road": {ID: "sp-ar", Title: "Abbey Road", ArtistName: "The Beatles",
				ReleaseDate: "1969-09-26"},
		},
		tracks: map[string]*providers.Track{
			"come together": {ID: "sp-ct", Title: "Come Together", ArtistName: "The Beatles",
				AlbumTitle: "Abbey Road", DurationMS: 259000},
		}}
	resolver := newTestResolver(t, store, spotify, nil, nil)

	track := resolver.ResolveTrack(context.Background(), "Come Together", "", 1)
	require.NotNil(t, track)
	assert.Equal(t, "Come Together", track.Title)
	assert.Equal(t, "sp-ct", track.SpotifyID)
	assert.Equal(t, 259, track.DurationSeconds)
	assert.NotEmpty(t, track.AppleMusicURL)
	assert.Equal(t, uint(1), track.CreatedByUserID)
	require.NotNil(t, track.ArtistID)
	require.NotNil(t, track.AlbumID)

	album, err := store.AlbumByID(*track.AlbumID)
	require.NoError(t, err)
	require.NotNil(t, album)
	assert.Equal(t, "Abbey Road", album.Title)
	assert.Equal(t, track.ArtistID, album.ArtistID)
}

func TestFillEmptyFieldsNeverOverwrite(t *testing.T) {
	existing := models.Artist{
		Name:      "Radiohead",
		SpotifyID: "sp-old",
		ImageURL:  "https://img/old",
	}
	incoming := models.Artist{
		SpotifyID:   "sp-new",
		LastFMID:    "mb-new",
		ImageURL:    "https://img/new",
		Description: "english rock band",
	}

	fillEmptyArtistFields(&existing, &incoming)

	assert.Equal(t, "sp-old", existing.SpotifyID)
	assert.Equal(t, "https://img/old", existing.ImageURL)
	assert.Equal(t, "mb-new", existing.LastFMID)
	assert.Equal(t, "english rock band", existing.Description)
}

func TestParseYearPrefix(t *testing.T) {
	year, ok := parseYearPrefix("1969-09-26")
	assert.True(t, ok)
	assert.Equal(t, 1969, year)

	year, ok = parseYearPrefix("1969")
	assert.True(t, ok)
	assert.Equal(t, 1969, year)

	_, ok = parseYearPrefix("")
	assert.False(t, ok)
	_, ok = parseYearPrefix("n/a")
	assert.False(t, ok)
}
