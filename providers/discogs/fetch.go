package discogs

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"mixview/config"
	"mixview/providers"
	"mixview/services"
)

var httpClient = &http.Client{Timeout: 15 * time.Second}

// Fetcher kapselt die Interaktion mit der Discogs-Datenbank-Suche.
type Fetcher struct {
	Config *config.Config
	Logger *zap.Logger
}

// NewFetcher erstellt eine neue Instanz des Discogs-Fetchers.
func NewFetcher(cfg *config.Config, logger *zap.Logger) *Fetcher {
	return &Fetcher{Config: cfg, Logger: logger}
}

// Name gibt den Namen des Providers zurück.
func (f *Fetcher) Name() string {
	return providers.NameDiscogs
}

// IsAvailable meldet true, wenn ein Personal-Access-Token konfiguriert ist.
func (f *Fetcher) IsAvailable() bool {
	return f.Config.DiscogsToken != ""
}

// SearchArtist sucht einen Künstler und gibt den ersten Treffer zurück.
func (f *Fetcher) SearchArtist(ctx context.Context, name string) (*providers.Artist, error) {
	results, err := f.search(ctx, name, "artist")
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	item := results[0]
	return &providers.Artist{
		ID:       item.ID.String(),
		Name:     item.Title,
		ImageURL: coverOrThumb(item),
	}, nil
}

// SearchAlbum sucht ein Release. Die Datenbank-Suche liefert häufig Singles
// oder Bootlegs als ersten Treffer; unter den abgefragten Ergebnissen gewinnt
// das erste, dessen Albumtitel den gesuchten wirklich trifft.
func (f *Fetcher) SearchAlbum(ctx context.Context, title, artistHint string) (*providers.Album, error) {
	query := title
	if artistHint != "" {
		query = fmt.Sprintf("%s %s", artistHint, title)
	}
	results, err := f.search(ctx, query, "release")
	if err != nil {
		return nil, err
	}
	for _, item := range results {
		// Discogs liefert Release-Titel als "Artist - Album"
		albumTitle := item.Title
		if idx := strings.Index(albumTitle, " - "); idx >= 0 {
			albumTitle = albumTitle[idx+3:]
		}
		if !services.AlbumsMatch(albumTitle, title) {
			continue
		}
		return &providers.Album{
			ID:       item.ID.String(),
			Title:    albumTitle,
			Year:     item.Year,
			ImageURL: coverOrThumb(item),
		}, nil
	}
	return nil, nil
}

// SearchTrack wird von Discogs nicht bedient; Tracks kommen nur von Spotify und Last.fm.
func (f *Fetcher) SearchTrack(ctx context.Context, title, artistHint string) (*providers.Track, error) {
	return nil, nil
}

// search führt eine /database/search-Abfrage aus.
func (f *Fetcher) search(ctx context.Context, query, kind string) ([]searchResult, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("type", kind)
	params.Set("per_page", "3")
	params.Set("token", f.Config.DiscogsToken)

	searchURL := fmt.Sprintf("%s/database/search?%s", f.Config.DiscogsBaseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "mixview/1.0")

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		f.Logger.Warn("Discogs-Suche hat nicht-200-Status zurückgegeben",
			zap.Int("status", resp.StatusCode),
			zap.String("type", kind))
		return nil, fmt.Errorf("discogs search failed: status %d", resp.StatusCode)
	}

	var decoded searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, err
	}
	return decoded.Results, nil
}

// coverOrThumb bevorzugt das Cover-Bild, fällt auf das Thumbnail zurück.
func coverOrThumb(item searchResult) string {
	if item.CoverImage != "" {
		return item.CoverImage
	}
	return item.Thumb
}
