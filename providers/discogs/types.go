package discogs

import "encoding/json"

// searchResult ist ein Eintrag aus /database/search. Die ID ist numerisch
// und wird als String weitergereicht.
type searchResult struct {
	ID         json.Number `json:"id"`
	Title      string      `json:"title"`
	Year       string      `json:"year"`
	CoverImage string      `json:"cover_image"`
	Thumb      string      `json:"thumb"`
}

type searchResponse struct {
	Results []searchResult `json:"results"`
}
