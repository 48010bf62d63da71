package applemusic

import (
	"fmt"
	"net/url"

	"mixview/providers"
)

const searchBaseURL = "https://music.apple.com/search"

// LinkService erzeugt Apple-Music-Such-Links. Es gibt keine API-Anbindung
// und keine Credentials; der Dienst ist immer verfügbar.
type LinkService struct{}

// NewLinkService erstellt eine neue Instanz des Link-Generators.
func NewLinkService() *LinkService {
	return &LinkService{}
}

// Name gibt den Namen des Providers zurück.
func (s *LinkService) Name() string {
	return providers.NameAppleMusic
}

// IsAvailable ist immer true, da keine Credentials benötigt werden.
func (s *LinkService) IsAvailable() bool {
	return true
}

// SearchURL baut einen Such-Link für einen beliebigen Begriff.
func (s *LinkService) SearchURL(term string) string {
	return fmt.Sprintf("%s?term=%s", searchBaseURL, url.QueryEscape(term))
}

// TrackURL baut einen Such-Link für einen Track mit Künstlerkontext.
func (s *LinkService) TrackURL(artistName, trackTitle string) string {
	if artistName == "" {
		return s.SearchURL(trackTitle)
	}
	return s.SearchURL(fmt.Sprintf("%s %s", artistName, trackTitle))
}
