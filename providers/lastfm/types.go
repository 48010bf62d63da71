package lastfm

// Last.fm liefert Bilder als Liste mit Größenangabe; das letzte Element
// ist jeweils das größte.
type lfmImage struct {
	URL  string `json:"#text"`
	Size string `json:"size"`
}

type lfmBio struct {
	Summary string `json:"summary"`
}

type lfmArtist struct {
	Name  string     `json:"name"`
	MBID  string     `json:"mbid"`
	Image []lfmImage `json:"image"`
	Bio   *lfmBio    `json:"bio"`
}

type lfmAlbum struct {
	Name   string     `json:"name"`
	Artist string     `json:"artist"`
	MBID   string     `json:"mbid"`
	Image  []lfmImage `json:"image"`
}

type lfmTrack struct {
	Name     string `json:"name"`
	MBID     string `json:"mbid"`
	Duration string `json:"duration"` // Millisekunden als String
	Artist   *struct {
		Name string `json:"name"`
	} `json:"artist"`
	Album *struct {
		Title string `json:"title"`
	} `json:"album"`
}

type artistInfoResponse struct {
	Artist *lfmArtist `json:"artist"`
}

type albumInfoResponse struct {
	Album *lfmAlbum `json:"album"`
}

type trackInfoResponse struct {
	Track *lfmTrack `json:"track"`
}
