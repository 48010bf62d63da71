package spotify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"mixview/config"
	"mixview/providers"
)

var httpClient = &http.Client{Timeout: 15 * time.Second}

// Fetcher kapselt die Interaktion mit der Spotify Web API über den
// Client-Credentials-Flow. Token werden gecacht und bei Ablauf erneuert.
type Fetcher struct {
	Config *config.Config
	Logger *zap.Logger

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// NewFetcher erstellt eine neue Instanz des Spotify-Fetchers.
func NewFetcher(cfg *config.Config, logger *zap.Logger) *Fetcher {
	return &Fetcher{Config: cfg, Logger: logger}
}

// Name gibt den Namen des Providers zurück.
func (f *Fetcher) Name() string {
	return providers.NameSpotify
}

// IsAvailable meldet true, wenn Client-ID und Secret konfiguriert sind.
func (f *Fetcher) IsAvailable() bool {
	return f.Config.SpotifyClientID != "" && f.Config.SpotifyClientSecret != ""
}

// SearchArtist sucht einen Künstler und gibt den ersten Treffer zurück.
func (f *Fetcher) SearchArtist(ctx context.Context, name string) (*providers.Artist, error) {
	var resp searchResponse
	if err := f.search(ctx, name, "artist", &resp); err != nil {
		return nil, err
	}
	if resp.Artists == nil || len(resp.Artists.Items) == 0 {
		return nil, nil
	}
	item := resp.Artists.Items[0]
	result := &providers.Artist{ID: item.ID, Name: item.Name}
	if len(item.Images) > 0 {
		result.ImageURL = item.Images[0].URL
	}
	return result, nil
}

// SearchAlbum sucht ein Album, optional eingeschränkt auf einen Künstler.
func (f *Fetcher) SearchAlbum(ctx context.Context, title, artistHint string) (*providers.Album, error) {
	query := title
	if artistHint != "" {
		query = fmt.Sprintf("album:%s artist:%s", title, artistHint)
	}
	var resp searchResponse
	if err := f.search(ctx, query, "album", &resp); err != nil {
		return nil, err
	}
	if resp.Albums == nil || len(resp.Albums.Items) == 0 {
		return nil, nil
	}
	item := resp.Albums.Items[0]
	result := &providers.Album{ID: item.ID, Title: item.Name, ReleaseDate: item.ReleaseDate}
	if len(item.Images) > 0 {
		result.ImageURL = item.Images[0].URL
	}
	if len(item.Artists) > 0 {
		result.ArtistName = item.Artists[0].Name
	}
	return result, nil
}

// SearchTrack sucht einen Track, optional eingeschränkt auf einen Künstler.
func (f *Fetcher) SearchTrack(ctx context.Context, title, artistHint string) (*providers.Track, error) {
	query := title
	if artistHint != "" {
		query = fmt.Sprintf("track:%s artist:%s", title, artistHint)
	}
	var resp searchResponse
	if err := f.search(ctx, query, "track", &resp); err != nil {
		return nil, err
	}
	if resp.Tracks == nil || len(resp.Tracks.Items) == 0 {
		return nil, nil
	}
	item := resp.Tracks.Items[0]
	result := &providers.Track{ID: item.ID, Title: item.Name, DurationMS: item.DurationMS}
	if len(item.Artists) > 0 {
		result.ArtistName = item.Artists[0].Name
	}
	if item.Album != nil {
		result.AlbumTitle = item.Album.Name
	}
	return result, nil
}

// search führt eine /search-Abfrage mit gültigem Token aus.
func (f *Fetcher) search(ctx context.Context, query, kind string, out *searchResponse) error {
	token, err := f.token(ctx)
	if err != nil {
		return fmt.Errorf("spotify token: %w", err)
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("type", kind)
	params.Set("limit", "1")
	searchURL := fmt.Sprintf("%s/search?%s", f.Config.SpotifyBaseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		f.Logger.Warn("Spotify-Suche hat nicht-200-Status zurückgegeben",
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(body)))
		return fmt.Errorf("spotify search failed: status %d", resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

// token liefert ein gültiges Access-Token, erneuert es bei Bedarf.
func (f *Fetcher) token(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.accessToken != "" && time.Now().Before(f.tokenExpiry) {
		return f.accessToken, nil
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.Config.SpotifyTokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(f.Config.SpotifyClientID, f.Config.SpotifyClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("spotify token failed: status %d", resp.StatusCode)
	}

	var tok tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return "", err
	}

	f.accessToken = tok.AccessToken
	// Eine Minute Puffer vor dem tatsächlichen Ablauf
	f.tokenExpiry = time.Now().Add(time.Duration(tok.ExpiresIn-60) * time.Second)
	f.Logger.Debug("Neues Spotify-Token geholt", zap.Int("expires_in", tok.ExpiresIn))
	return f.accessToken, nil
}
