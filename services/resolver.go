package services

import (
	"context"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"mixview/config"
	"mixview/models"
	"mixview/providers"
)

// maxResolveDepth begrenzt die Rekursion Artist → Album → Track defensiv.
// Die Relation ist per Konstruktion azyklisch, tiefer als 3 geht es nie.
const maxResolveDepth = 3

// Resolver löst freie Namen zu kanonischen Entitäten auf:
// Exact-Lookup → Fuzzy-Lookup → Provider-Aggregation → Merge-or-Create.
// Die Auflösung ist best-effort: Provider- und Storage-Fehler werden geloggt
// und führen zu einem nil-Ergebnis, niemals zu einem Fehler beim Aufrufer.
type Resolver struct {
	Config     *config.Config
	Store      EntityStore
	Logger     *zap.Logger
	Spotify    providers.Provider
	LastFM     providers.Provider
	Discogs    providers.Provider
	AppleMusic interface{ TrackURL(artist, track string) string }
}

// NewResolver erstellt eine neue Resolver-Instanz.
func NewResolver(cfg *config.Config, store EntityStore, logger *zap.Logger,
	spotify, lastfm, discogs providers.Provider,
	appleMusic interface{ TrackURL(artist, track string) string }) *Resolver {
	return &Resolver{
		Config:     cfg,
		Store:      store,
		Logger:     logger,
		Spotify:    spotify,
		LastFM:     lastfm,
		Discogs:    discogs,
		AppleMusic: appleMusic,
	}
}

// ResolveArtist löst einen Künstlernamen auf. nil bedeutet: nicht auflösbar.
func (r *Resolver) ResolveArtist(ctx context.Context, name string, userID uint) *models.Artist {
	return r.resolveArtist(ctx, name, userID, 0)
}

// ResolveAlbum löst einen Albumtitel auf, optional mit Künstler-Hinweis.
func (r *Resolver) ResolveAlbum(ctx context.Context, title, artistHint string, userID uint) *models.Album {
	return r.resolveAlbum(ctx, title, artistHint, userID, 0)
}

// ResolveTrack löst einen Tracktitel auf, optional mit Künstler-Hinweis.
func (r *Resolver) ResolveTrack(ctx context.Context, title, artistHint string, userID uint) *models.Track {
	return r.resolveTrack(ctx, title, artistHint, userID, 0)
}

// ==================== Fuzzy-Lookup ====================

// FindExistingArtistFuzzy sucht einen vorhandenen Künstler: erst exakt,
// dann Fuzzy-Scan über ein begrenztes Fenster der jüngsten Einträge.
func (r *Resolver) FindExistingArtistFuzzy(name string) *models.Artist {
	if name == "" {
		return nil
	}

	existing, err := r.Store.FindArtistByName(name)
	if err != nil {
		r.Logger.Error("Exakter Artist-Lookup fehlgeschlagen", zap.Error(err))
		return nil
	}
	if existing != nil {
		return existing
	}

	recent, err := r.Store.RecentArtists(r.Config.FuzzyScanArtists)
	if err != nil {
		r.Logger.Error("Artist-Fuzzy-Scan fehlgeschlagen", zap.Error(err))
		return nil
	}
	for i := range recent {
		if ArtistsMatch(recent[i].Name, name) {
			r.Logger.Info("Fuzzy-Match auf vorhandenen Künstler",
				zap.String("query", name), zap.String("matched", recent[i].Name))
			return &recent[i]
		}
	}
	return nil
}

// FindExistingAlbumFuzzy sucht ein vorhandenes Album; mit Künstler-Hinweis
// wird zuerst im Bestand dieses Künstlers gesucht.
func (r *Resolver) FindExistingAlbumFuzzy(title, artistName string) *models.Album {
	if title == "" {
		return nil
	}

	if artistName != "" {
		if artist := r.FindExistingArtistFuzzy(artistName); artist != nil {
			existing, err := r.Store.FindAlbumByTitle(title, &artist.ID)
			if err != nil {
				r.Logger.Error("Exakter Album-Lookup fehlgeschlagen", zap.Error(err))
			} else if existing != nil {
				return existing
			}

			albums, err := r.Store.AlbumsByArtist(artist.ID)
			if err != nil {
				r.Logger.Error("Album-Scan pro Künstler fehlgeschlagen", zap.Error(err))
			}
			for i := range albums {
				if AlbumsMatch(albums[i].Title, title) {
					r.Logger.Info("Fuzzy-Match auf vorhandenes Album",
						zap.String("query", title), zap.String("matched", albums[i].Title))
					return &albums[i]
				}
			}
		}
	}

	existing, err := r.Store.FindAlbumByTitle(title, nil)
	if err != nil {
		r.Logger.Error("Exakter Album-Lookup fehlgeschlagen", zap.Error(err))
		return nil
	}
	if existing != nil {
		return existing
	}

	recent, err := r.Store.RecentAlbums(r.Config.FuzzyScanAlbums)
	if err != nil {
		r.Logger.Error("Album-Fuzzy-Scan fehlgeschlagen", zap.Error(err))
		return nil
	}
	for i := range recent {
		if AlbumsMatch(recent[i].Title, title) {
			r.Logger.Info("Fuzzy-Match auf vorhandenes Album",
				zap.String("query", title), zap.String("matched", recent[i].Title))
			return &recent[i]
		}
	}
	return nil
}

// FindExistingTrackFuzzy sucht einen vorhandenen Track; mit Künstler-Hinweis
// wird zuerst im Bestand dieses Künstlers gesucht.
func (r *Resolver) FindExistingTrackFuzzy(title, artistName string) *models.Track {
	if title == "" {
		return nil
	}

	if artistName != "" {
		if artist := r.FindExistingArtistFuzzy(artistName); artist != nil {
			existing, err := r.Store.FindTrackByTitle(title, &artist.ID)
			if err != nil {
				r.Logger.Error("Exakter Track-Lookup fehlgeschlagen", zap.Error(err))
			} else if existing != nil {
				return existing
			}

			tracks, err := r.Store.TracksByArtist(artist.ID)
			if err != nil {
				r.Logger.Error("Track-Scan pro Künstler fehlgeschlagen", zap.Error(err))
			}
			for i := range tracks {
				if TracksMatch(tracks[i].Title, title) {
					r.Logger.Info("Fuzzy-Match auf vorhandenen Track",
						zap.String("query", title), zap.String("matched", tracks[i].Title))
					return &tracks[i]
				}
			}
		}
	}

	existing, err := r.Store.FindTrackByTitle(title, nil)
	if err != nil {
		r.Logger.Error("Exakter Track-Lookup fehlgeschlagen", zap.Error(err))
		return nil
	}
	if existing != nil {
		return existing
	}

	recent, err := r.Store.RecentTracks(r.Config.FuzzyScanTracks)
	if err != nil {
		r.Logger.Error("Track-Fuzzy-Scan fehlgeschlagen", zap.Error(err))
		return nil
	}
	for i := range recent {
		if TracksMatch(recent[i].Title, title) {
			r.Logger.Info("Fuzzy-Match auf vorhandenen Track",
				zap.String("query", title), zap.String("matched", recent[i].Title))
			return &recent[i]
		}
	}
	return nil
}

// ==================== Artist-Auflösung ====================

func (r *Resolver) resolveArtist(ctx context.Context, name string, userID uint, depth int) *models.Artist {
	if name == "" || depth > maxResolveDepth {
		return nil
	}
	log := r.Logger.With(zap.String("artist", name))

	if existing := r.FindExistingArtistFuzzy(name); existing != nil {
		return existing
	}

	// Alle verfügbaren Provider abfragen; jeder Fehler ist "kein Treffer"
	var spData, lfData, dgData *providers.Artist
	if r.Spotify != nil && r.Spotify.IsAvailable() {
		result, err := r.Spotify.SearchArtist(ctx, name)
		if err != nil {
			log.Warn("Spotify-Künstlersuche fehlgeschlagen", zap.Error(err))
		} else {
			spData = result
		}
	}
	if r.LastFM != nil && r.LastFM.IsAvailable() {
		result, err := r.LastFM.SearchArtist(ctx, name)
		if err != nil {
			log.Warn("Last.fm-Künstlersuche fehlgeschlagen", zap.Error(err))
		} else {
			lfData = result
		}
	}
	if r.Discogs != nil && r.Discogs.IsAvailable() {
		result, err := r.Discogs.SearchArtist(ctx, name)
		if err != nil {
			log.Warn("Discogs-Künstlersuche fehlgeschlagen", zap.Error(err))
		} else {
			dgData = result
		}
	}

	if spData == nil && lfData == nil && dgData == nil {
		log.Warn("Kein Provider hat Daten für den Künstler geliefert")
		return nil
	}

	// Merge: Spotify > Last.fm > Discogs > Query-String
	merged := models.Artist{Name: name, CreatedByUserID: userID}
	if spData != nil {
		merged.Name = spData.Name
		merged.SpotifyID = spData.ID
		merged.ImageURL = spData.ImageURL
	}
	if lfData != nil {
		if merged.SpotifyID == "" {
			merged.Name = lfData.Name
		}
		merged.LastFMID = lfData.MBID
		if merged.ImageURL == "" {
			merged.ImageURL = lfData.ImageURL
		}
		merged.Description = lfData.Description
	}
	if dgData != nil {
		if merged.SpotifyID == "" && merged.LastFMID == "" {
			merged.Name = dgData.Name
		}
		merged.DiscogsID = dgData.ID
		if merged.ImageURL == "" {
			merged.ImageURL = dgData.ImageURL
		}
	}
	if merged.Name == "" {
		merged.Name = name
	}

	// Vor dem Anlegen: vorhandenen Datensatz über Provider-IDs oder Fuzzy-Match finden
	existing := r.artistByAnyProviderID(merged)
	if existing == nil {
		existing = r.FindExistingArtistFuzzy(merged.Name)
	}
	if existing != nil {
		fillEmptyArtistFields(existing, &merged)
		if err := r.Store.SaveArtist(existing); err != nil {
			log.Error("Aktualisierung des Künstlers fehlgeschlagen", zap.Error(err))
		} else {
			log.Info("Vorhandener Künstler mit Provider-Daten ergänzt", zap.Uint("id", existing.ID))
		}
		return existing
	}

	if err := r.Store.CreateArtist(&merged); err != nil {
		if IsDuplicateErr(err) {
			// Ein konkurrierender Writer war schneller; dessen Datensatz ist jetzt sichtbar
			log.Warn("Konflikt beim Anlegen des Künstlers, versuche erneuten Lookup")
			return r.FindExistingArtistFuzzy(merged.Name)
		}
		log.Error("Anlegen des Künstlers fehlgeschlagen", zap.Error(err))
		return nil
	}

	log.Info("Neuen Künstler angelegt", zap.Uint("id", merged.ID), zap.String("name", merged.Name))
	return &merged
}

func (r *Resolver) artistByAnyProviderID(merged models.Artist) *models.Artist {
	lookups := []struct{ provider, id string }{
		{providers.NameSpotify, merged.SpotifyID},
		{providers.NameLastFM, merged.LastFMID},
		{providers.NameDiscogs, merged.DiscogsID},
	}
	for _, l := range lookups {
		if l.id == "" {
			continue
		}
		existing, err := r.Store.FindArtistByProviderID(l.provider, l.id)
		if err != nil {
			r.Logger.Error("Provider-ID-Lookup fehlgeschlagen",
				zap.String("provider", l.provider), zap.Error(err))
			continue
		}
		if existing != nil {
			return existing
		}
	}
	return nil
}

// ==================== Album-Auflösung ====================

func (r *Resolver) resolveAlbum(ctx context.Context, title, artistHint string, userID uint, depth int) *models.Album {
	if title == "" || depth > maxResolveDepth {
		return nil
	}
	log := r.Logger.With(zap.String("album", title))

	if existing := r.FindExistingAlbumFuzzy(title, artistHint); existing != nil {
		return existing
	}

	var spData, lfData *providers.Album
	var dgData *providers.Album
	if r.Spotify != nil && r.Spotify.IsAvailable() {
		result, err := r.Spotify.SearchAlbum(ctx, title, artistHint)
		if err != nil {
			log.Warn("Spotify-Albumsuche fehlgeschlagen", zap.Error(err))
		} else {
			spData = result
		}
	}
	if r.LastFM != nil && r.LastFM.IsAvailable() {
		result, err := r.LastFM.SearchAlbum(ctx, title, artistHint)
		if err != nil {
			log.Warn("Last.fm-Albumsuche fehlgeschlagen", zap.Error(err))
		} else {
			lfData = result
		}
	}
	if r.Discogs != nil && r.Discogs.IsAvailable() {
		result, err := r.Discogs.SearchAlbum(ctx, title, artistHint)
		if err != nil {
			log.Warn("Discogs-Albumsuche fehlgeschlagen", zap.Error(err))
		} else if result != nil && AlbumsMatch(result.Title, title) {
			// Discogs-Treffer nur übernehmen, wenn der Titel wirklich passt
			dgData = result
		}
	}

	if spData == nil && lfData == nil && dgData == nil {
		log.Warn("Kein Provider hat Daten für das Album geliefert")
		return nil
	}

	// Künstler zuerst auflösen (rekursiv, eine Ebene tiefer)
	artistName := artistHint
	if artistName == "" && spData != nil {
		artistName = spData.ArtistName
	}
	if artistName == "" && lfData != nil {
		artistName = lfData.ArtistName
	}
	var artist *models.Artist
	if artistName != "" {
		artist = r.resolveArtist(ctx, artistName, userID, depth+1)
	}

	merged := models.Album{Title: title, CreatedByUserID: userID}
	if spData != nil {
		merged.Title = spData.Title
		merged.SpotifyID = spData.ID
		merged.ImageURL = spData.ImageURL
		if year, ok := parseYearPrefix(spData.ReleaseDate); ok {
			merged.ReleaseYear = year
		}
	}
	if lfData != nil {
		if merged.SpotifyID == "" {
			merged.Title = lfData.Title
		}
		merged.LastFMID = lfData.MBID
		if merged.ImageURL == "" {
			merged.ImageURL = lfData.ImageURL
		}
	}
	if dgData != nil {
		if merged.SpotifyID == "" && merged.LastFMID == "" {
			merged.Title = dgData.Title
		}
		merged.DiscogsID = dgData.ID
		if merged.ImageURL == "" {
			merged.ImageURL = dgData.ImageURL
		}
		if merged.ReleaseYear == 0 {
			if year, err := strconv.Atoi(strings.TrimSpace(dgData.Year)); err == nil {
				merged.ReleaseYear = year
			}
		}
	}
	if merged.Title == "" {
		merged.Title = title
	}
	if artist != nil {
		merged.ArtistID = &artist.ID
	}

	existing := r.albumByAnyProviderID(merged)
	if existing == nil {
		scopeName := ""
		if artist != nil {
			scopeName = artist.Name
		}
		existing = r.FindExistingAlbumFuzzy(merged.Title, scopeName)
	}
	if existing != nil {
		fillEmptyAlbumFields(existing, &merged)
		if err := r.Store.SaveAlbum(existing); err != nil {
			log.Error("Aktualisierung des Albums fehlgeschlagen", zap.Error(err))
		} else {
			log.Info("Vorhandenes Album mit Provider-Daten ergänzt", zap.Uint("id", existing.ID))
		}
		return existing
	}

	if err := r.Store.CreateAlbum(&merged); err != nil {
		if IsDuplicateErr(err) {
			log.Warn("Konflikt beim Anlegen des Albums, versuche erneuten Lookup")
			scopeName := ""
			if artist != nil {
				scopeName = artist.Name
			}
			return r.FindExistingAlbumFuzzy(merged.Title, scopeName)
		}
		log.Error("Anlegen des Albums fehlgeschlagen", zap.Error(err))
		return nil
	}

	log.Info("Neues Album angelegt", zap.Uint("id", merged.ID), zap.String("title", merged.Title))
	return &merged
}

func (r *Resolver) albumByAnyProviderID(merged models.Album) *models.Album {
	lookups := []struct{ provider, id string }{
		{providers.NameSpotify, merged.SpotifyID},
		{providers.NameLastFM, merged.LastFMID},
		{providers.NameDiscogs, merged.DiscogsID},
	}
	for _, l := range lookups {
		if l.id == "" {
			continue
		}
		existing, err := r.Store.FindAlbumByProviderID(l.provider, l.id)
		if err != nil {
			r.Logger.Error("Provider-ID-Lookup fehlgeschlagen",
				zap.String("provider", l.provider), zap.Error(err))
			continue
		}
		if existing != nil {
			return existing
		}
	}
	return nil
}

// ==================== Track-Auflösung ====================

func (r *Resolver) resolveTrack(ctx context.Context, title, artistHint string, userID uint, depth int) *models.Track {
	if title == "" || depth > maxResolveDepth {
		return nil
	}
	log := r.Logger.With(zap.String("track", title))

	if existing := r.FindExistingTrackFuzzy(title, artistHint); existing != nil {
		return existing
	}

	// Tracks kommen nur von Spotify und Last.fm
	var spData, lfData *providers.Track
	if r.Spotify != nil && r.Spotify.IsAvailable() {
		result, err := r.Spotify.SearchTrack(ctx, title, artistHint)
		if err != nil {
			log.Warn("Spotify-Tracksuche fehlgeschlagen", zap.Error(err))
		} else {
			spData = result
		}
	}
	if r.LastFM != nil && r.LastFM.IsAvailable() {
		result, err := r.LastFM.SearchTrack(ctx, title, artistHint)
		if err != nil {
			log.Warn("Last.fm-Tracksuche fehlgeschlagen", zap.Error(err))
		} else {
			lfData = result
		}
	}

	if spData == nil && lfData == nil {
		log.Warn("Kein Provider hat Daten für den Track geliefert")
		return nil
	}

	artistName := artistHint
	if artistName == "" && spData != nil {
		artistName = spData.ArtistName
	}
	if artistName == "" && lfData != nil {
		artistName = lfData.ArtistName
	}
	var artist *models.Artist
	if artistName != "" {
		artist = r.resolveArtist(ctx, artistName, userID, depth+1)
	}

	albumTitle := ""
	if spData != nil {
		albumTitle = spData.AlbumTitle
	}
	if albumTitle == "" && lfData != nil {
		albumTitle = lfData.AlbumTitle
	}
	var album *models.Album
	if albumTitle != "" && artist != nil {
		album = r.resolveAlbum(ctx, albumTitle, artist.Name, userID, depth+1)
	}

	merged := models.Track{Title: title, CreatedByUserID: userID}
	if spData != nil {
		merged.Title = spData.Title
		merged.SpotifyID = spData.ID
		merged.DurationSeconds = spData.DurationMS / 1000
	}
	if lfData != nil {
		if merged.SpotifyID == "" {
			merged.Title = lfData.Title
		}
		merged.LastFMID = lfData.MBID
	}
	if merged.Title == "" {
		merged.Title = title
	}
	if artist != nil {
		merged.ArtistID = &artist.ID
	}
	if album != nil {
		merged.AlbumID = &album.ID
	}
	if r.AppleMusic != nil {
		merged.AppleMusicURL = r.AppleMusic.TrackURL(artistName, merged.Title)
	}

	existing := r.trackByAnyProviderID(merged)
	if existing == nil {
		scopeName := ""
		if artist != nil {
			scopeName = artist.Name
		}
		existing = r.FindExistingTrackFuzzy(merged.Title, scopeName)
	}
	if existing != nil {
		fillEmptyTrackFields(existing, &merged)
		if err := r.Store.SaveTrack(existing); err != nil {
			log.Error("Aktualisierung des Tracks fehlgeschlagen", zap.Error(err))
		} else {
			log.Info("Vorhandener Track mit Provider-Daten ergänzt", zap.Uint("id", existing.ID))
		}
		return existing
	}

	if err := r.Store.CreateTrack(&merged); err != nil {
		if IsDuplicateErr(err) {
			log.Warn("Konflikt beim Anlegen des Tracks, versuche erneuten Lookup")
			scopeName := ""
			if artist != nil {
				scopeName = artist.Name
			}
			return r.FindExistingTrackFuzzy(merged.Title, scopeName)
		}
		log.Error("Anlegen des Tracks fehlgeschlagen", zap.Error(err))
		return nil
	}

	log.Info("Neuen Track angelegt", zap.Uint("id", merged.ID), zap.String("title", merged.Title))
	return &merged
}

func (r *Resolver) trackByAnyProviderID(merged models.Track) *models.Track {
	lookups := []struct{ provider, id string }{
		{providers.NameSpotify, merged.SpotifyID},
		{providers.NameLastFM, merged.LastFMID},
	}
	for _, l := range lookups {
		if l.id == "" {
			continue
		}
		existing, err := r.Store.FindTrackByProviderID(l.provider, l.id)
		if err != nil {
			r.Logger.Error("Provider-ID-Lookup fehlgeschlagen",
				zap.String("provider", l.provider), zap.Error(err))
			continue
		}
		if existing != nil {
			return existing
		}
	}
	return nil
}

// ==================== Fill-Empty-Merge ====================

// Bereits gefüllte Felder bleiben unverändert; nur leere Felder werden
// aus den neuen Provider-Daten ergänzt.

func fillEmptyArtistFields(existing *models.Artist, incoming *models.Artist) {
	if existing.SpotifyID == "" {
		existing.SpotifyID = incoming.SpotifyID
	}
	if existing.LastFMID == "" {
		existing.LastFMID = incoming.LastFMID
	}
	if existing.DiscogsID == "" {
		existing.DiscogsID = incoming.DiscogsID
	}
	if existing.ImageURL == "" {
		existing.ImageURL = incoming.ImageURL
	}
	if existing.Description == "" {
		existing.Description = incoming.Description
	}
}

func fillEmptyAlbumFields(existing *models.Album, incoming *models.Album) {
	if existing.SpotifyID == "" {
		existing.SpotifyID = incoming.SpotifyID
	}
	if existing.LastFMID == "" {
		existing.LastFMID = incoming.LastFMID
	}
	if existing.DiscogsID == "" {
		existing.DiscogsID = incoming.DiscogsID
	}
	if existing.ImageURL == "" {
		existing.ImageURL = incoming.ImageURL
	}
	if existing.ReleaseYear == 0 {
		existing.ReleaseYear = incoming.ReleaseYear
	}
	if existing.ArtistID == nil {
		existing.ArtistID = incoming.ArtistID
	}
}

func fillEmptyTrackFields(existing *models.Track, incoming *models.Track) {
	if existing.SpotifyID == "" {
		existing.SpotifyID = incoming.SpotifyID
	}
	if existing.LastFMID == "" {
		existing.LastFMID = incoming.LastFMID
	}
	if existing.DurationSeconds == 0 {
		existing.DurationSeconds = incoming.DurationSeconds
	}
	if existing.AppleMusicURL == "" {
		existing.AppleMusicURL = incoming.AppleMusicURL
	}
	if existing.ArtistID == nil {
		existing.ArtistID = incoming.ArtistID
	}
	if existing.AlbumID == nil {
		existing.AlbumID = incoming.AlbumID
	}
}

// parseYearPrefix liest das Jahr aus einem Release-Datum wie "1969-09-26".
func parseYearPrefix(releaseDate string) (int, bool) {
	if len(releaseDate) < 4 {
		return 0, false
	}
	year, err := strconv.Atoi(releaseDate[:4])
	if err != nil {
		return 0, false
	}
	return year, true
}
