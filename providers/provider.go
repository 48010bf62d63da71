package providers

import "context"

// Provider-Namen, wie sie in externen IDs und im Service-Status auftauchen.
const (
	NameSpotify     = "spotify"
	NameLastFM      = "lastfm"
	NameDiscogs     = "discogs"
	NameAppleMusic  = "apple_music"
	NameMusicBrainz = "musicbrainz"
)

// Provider ist das Interface, das jeder Musik-Metadaten-Provider implementieren muss.
// Der Kern liest niemals rohe Provider-Payloads; jeder Provider adaptiert seine
// Antwort auf die schmalen Value-Typen unten.
type Provider interface {
	// Name gibt den eindeutigen Namen des Providers zurück (z.B. "spotify").
	Name() string

	// IsAvailable meldet, ob der Provider nutzbare Credentials hat.
	// Provider ohne Auth-Anforderung liefern immer true.
	IsAvailable() bool

	// SearchArtist sucht einen Künstler. (nil, nil) bedeutet: kein Treffer.
	SearchArtist(ctx context.Context, name string) (*Artist, error)

	// SearchAlbum sucht ein Album, optional eingeschränkt auf einen Künstler.
	SearchAlbum(ctx context.Context, title, artistHint string) (*Album, error)

	// SearchTrack sucht einen Track, optional eingeschränkt auf einen Künstler.
	SearchTrack(ctx context.Context, title, artistHint string) (*Track, error)
}

// Artist ist das adaptierte Suchergebnis eines Providers für einen Künstler.
type Artist struct {
	ID          string
	Name        string
	MBID        string
	ImageURL    string
	Description string
}

// Album ist das adaptierte Suchergebnis eines Providers für ein Album.
type Album struct {
	ID          string
	Title       string
	ArtistName  string
	MBID        string
	ImageURL    string
	ReleaseDate string // z.B. "1969-09-26" (Spotify)
	Year        string // z.B. "1969" (Discogs)
}

// Track ist das adaptierte Suchergebnis eines Providers für einen Track.
type Track struct {
	ID         string
	Title      string
	ArtistName string
	AlbumTitle string
	MBID       string
	DurationMS int
}
