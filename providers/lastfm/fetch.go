package lastfm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"mixview/config"
	"mixview/providers"
)

var httpClient = &http.Client{Timeout: 15 * time.Second}

// Fetcher kapselt die Interaktion mit der Last.fm-API (audioscrobbler 2.0).
type Fetcher struct {
	Config *config.Config
	Logger *zap.Logger
}

// NewFetcher erstellt eine neue Instanz des Last.fm-Fetchers.
func NewFetcher(cfg *config.Config, logger *zap.Logger) *Fetcher {
	return &Fetcher{Config: cfg, Logger: logger}
}

// Name gibt den Namen des Providers zurück.
func (f *Fetcher) Name() string {
	return providers.NameLastFM
}

// IsAvailable meldet true, wenn ein API-Key konfiguriert ist.
func (f *Fetcher) IsAvailable() bool {
	return f.Config.LastFMAPIKey != ""
}

// SearchArtist holt Künstler-Infos inklusive Bio und MBID.
func (f *Fetcher) SearchArtist(ctx context.Context, name string) (*providers.Artist, error) {
	params := url.Values{}
	params.Set("method", "artist.getinfo")
	params.Set("artist", name)

	var resp artistInfoResponse
	if err := f.call(ctx, params, &resp); err != nil {
		return nil, err
	}
	if resp.Artist == nil || resp.Artist.Name == "" {
		return nil, nil
	}

	result := &providers.Artist{
		Name: resp.Artist.Name,
		MBID: resp.Artist.MBID,
	}
	if resp.Artist.Bio != nil {
		result.Description = resp.Artist.Bio.Summary
	}
	result.ImageURL = lastImageURL(resp.Artist.Image)
	return result, nil
}

// SearchAlbum holt Album-Infos. Last.fm braucht dafür zwingend den Künstlernamen.
func (f *Fetcher) SearchAlbum(ctx context.Context, title, artistHint string) (*providers.Album, error) {
	if artistHint == "" {
		return nil, nil
	}

	params := url.Values{}
	params.Set("method", "album.getinfo")
	params.Set("artist", artistHint)
	params.Set("album", title)

	var resp albumInfoResponse
	if err := f.call(ctx, params, &resp); err != nil {
		return nil, err
	}
	if resp.Album == nil || resp.Album.Name == "" {
		return nil, nil
	}

	return &providers.Album{
		Title:      resp.Album.Name,
		ArtistName: resp.Album.Artist,
		MBID:       resp.Album.MBID,
		ImageURL:   lastImageURL(resp.Album.Image),
	}, nil
}

// SearchTrack holt Track-Infos. Last.fm braucht dafür zwingend den Künstlernamen.
func (f *Fetcher) SearchTrack(ctx context.Context, title, artistHint string) (*providers.Track, error) {
	if artistHint == "" {
		return nil, nil
	}

	params := url.Values{}
	params.Set("method", "track.getinfo")
	params.Set("artist", artistHint)
	params.Set("track", title)

	var resp trackInfoResponse
	if err := f.call(ctx, params, &resp); err != nil {
		return nil, err
	}
	if resp.Track == nil || resp.Track.Name == "" {
		return nil, nil
	}

	result := &providers.Track{
		Title: resp.Track.Name,
		MBID:  resp.Track.MBID,
	}
	if resp.Track.Artist != nil {
		result.ArtistName = resp.Track.Artist.Name
	}
	if resp.Track.Album != nil {
		result.AlbumTitle = resp.Track.Album.Title
	}
	if ms, err := strconv.Atoi(resp.Track.Duration); err == nil {
		result.DurationMS = ms
	}
	return result, nil
}

// call führt einen API-Aufruf aus und dekodiert die JSON-Antwort.
func (f *Fetcher) call(ctx context.Context, params url.Values, out any) error {
	params.Set("api_key", f.Config.LastFMAPIKey)
	params.Set("format", "json")
	params.Set("autocorrect", "1")

	reqURL := fmt.Sprintf("%s/?%s", f.Config.LastFMBaseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return err
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		f.Logger.Warn("Last.fm-API hat nicht-200-Status zurückgegeben",
			zap.Int("status", resp.StatusCode),
			zap.String("method", params.Get("method")))
		return fmt.Errorf("lastfm call failed: status %d", resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

// lastImageURL gibt den letzten nicht-leeren Bild-Eintrag zurück (größtes Bild).
func lastImageURL(images []lfmImage) string {
	for i := len(images) - 1; i >= 0; i-- {
		if images[i].URL != "" {
			return images[i].URL
		}
	}
	return ""
}
