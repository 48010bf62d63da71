package spotify

// tokenResponse ist die Antwort des Client-Credentials-Token-Endpunkts.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

type image struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type artistObject struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Images []image `json:"images"`
}

type albumObject struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	ReleaseDate string         `json:"release_date"`
	Images      []image        `json:"images"`
	Artists     []artistObject `json:"artists"`
}

type trackObject struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	DurationMS int            `json:"duration_ms"`
	Album      *albumObject   `json:"album"`
	Artists    []artistObject `json:"artists"`
}

// searchResponse ist die Antwort von /v1/search, je nach type-Parameter
// ist nur einer der drei Blöcke gefüllt.
type searchResponse struct {
	Artists *struct {
		Items []artistObject `json:"items"`
	} `json:"artists"`
	Albums *struct {
		Items []albumObject `json:"items"`
	} `json:"albums"`
	Tracks *struct {
		Items []trackObject `json:"items"`
	} `json:"tracks"`
}
