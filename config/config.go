package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config enthält alle Konfigurationsparameter aus Umgebungsvariablen.
type Config struct {
	DBHost     string `envconfig:"DB_HOST" required:"true"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" required:"true"`
	DBPassword string `envconfig:"DB_PASSWORD" required:"true"`
	DBName     string `envconfig:"DB_NAME" required:"true"`

	HTTPPort     string `envconfig:"HTTP_PORT" default:"4242"`
	APISecretKey string `envconfig:"API_SECRET_KEY"`

	// Spotify Client-Credentials (ohne diese ist der Provider nicht verfügbar)
	SpotifyClientID     string `envconfig:"SPOTIFY_CLIENT_ID"`
	SpotifyClientSecret string `envconfig:"SPOTIFY_CLIENT_SECRET"`
	SpotifyBaseURL      string `envconfig:"SPOTIFY_BASE_URL" default:"https://api.spotify.com/v1"`
	SpotifyTokenURL     string `envconfig:"SPOTIFY_TOKEN_URL" default:"https://accounts.spotify.com/api/token"`

	LastFMAPIKey  string `envconfig:"LASTFM_API_KEY"`
	LastFMBaseURL string `envconfig:"LASTFM_BASE_URL" default:"https://ws.audioscrobbler.com/2.0"`

	DiscogsToken   string `envconfig:"DISCOGS_TOKEN"`
	DiscogsBaseURL string `envconfig:"DISCOGS_BASE_URL" default:"https://api.discogs.com"`

	// Scan-Limits für Fuzzy-Matching und Kandidaten-Pools.
	// Defaults sind bewusst die historischen Werte.
	FuzzyScanArtists     int `envconfig:"FUZZY_SCAN_ARTISTS" default:"500"`
	FuzzyScanAlbums      int `envconfig:"FUZZY_SCAN_ALBUMS" default:"200"`
	FuzzyScanTracks      int `envconfig:"FUZZY_SCAN_TRACKS" default:"200"`
	CandidatePoolArtists int `envconfig:"CANDIDATE_POOL_ARTISTS" default:"1000"`
	CandidatePoolAlbums  int `envconfig:"CANDIDATE_POOL_ALBUMS" default:"500"`
	CandidatePoolTracks  int `envconfig:"CANDIDATE_POOL_TRACKS" default:"500"`
	RefreshTopN          int `envconfig:"REFRESH_TOP_N" default:"20"`

	// Cron-Zeitplan für den nächtlichen Relationship-Refresh
	CronSchedule string `envconfig:"CRON_SCHEDULE" default:"0 3 * * *"`
}

// DSN gibt den Data Source Name für die PostgreSQL-Verbindung zurück.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort)
}

// Load lädt die Konfiguration aus den Umgebungsvariablen.
func Load() (*Config, error) {
	_ = godotenv.Load()
	var c Config
	err := envconfig.Process("", &c)
	return &c, err
}
