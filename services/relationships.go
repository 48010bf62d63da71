package services

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"go.uber.org/zap"

	"mixview/config"
	"mixview/models"
)

// Kandidaten mit Score <= scoreCutoff werden verworfen.
const scoreCutoff = 0.1

var wordRE = regexp.MustCompile(`\w+`)

// RelationshipEngine berechnet gewichtete Ähnlichkeitsbeziehungen zwischen
// Entitäten und cached sie als Similarity-Kanten. Cache-Schreibfehler sind
// best-effort: das in-memory-Ergebnis geht immer an den Aufrufer zurück.
type RelationshipEngine struct {
	Config *config.Config
	Store  EntityStore
	Logger *zap.Logger
}

// NewRelationshipEngine erstellt eine neue Engine-Instanz.
func NewRelationshipEngine(cfg *config.Config, store EntityStore, logger *zap.Logger) *RelationshipEngine {
	return &RelationshipEngine{Config: cfg, Store: store, Logger: logger}
}

// ==================== Artists ====================

// RelatedArtists liefert die ähnlichsten Künstler zum Ziel. Reichen die
// gecachten Kanten aus, werden sie in Einfüge-Reihenfolge zurückgegeben
// (bewusst nicht nach Gewicht sortiert); sonst wird neu berechnet.
func (e *RelationshipEngine) RelatedArtists(artist *models.Artist, topN int) []models.Artist {
	edges, err := e.Store.ArtistEdges(artist.ID)
	if err != nil {
		e.Logger.Error("Lesen der Artist-Kanten fehlgeschlagen", zap.Error(err))
	}
	if len(edges) >= topN {
		ids := make([]uint, 0, topN)
		for _, edge := range edges[:topN] {
			ids = append(ids, edge.RelatedArtistID)
		}
		cached, err := e.Store.ArtistsByIDs(ids)
		if err != nil {
			e.Logger.Error("Laden gecachter Artists fehlgeschlagen", zap.Error(err))
			return nil
		}
		return cached
	}

	related := e.computeArtistRelationships(artist, topN)
	for i := range related {
		if err := e.Store.AddArtistEdge(artist.ID, related[i].ID, related[i].score); err != nil {
			e.Logger.Error("Cachen der Artist-Kante fehlgeschlagen", zap.Error(err))
		}
	}

	result := make([]models.Artist, 0, len(related))
	for i := range related {
		result = append(result, related[i].artist)
	}
	return result
}

// RefreshArtist verwirft alle gecachten Kanten eines Künstlers und berechnet
// sie neu. Gibt die Anzahl der neuen Kanten zurück.
func (e *RelationshipEngine) RefreshArtist(artistID uint) int {
	artist, err := e.Store.ArtistByID(artistID)
	if err != nil || artist == nil {
		return 0
	}
	if err := e.Store.ClearArtistEdges(artistID); err != nil {
		e.Logger.Error("Leeren der Artist-Kanten fehlgeschlagen", zap.Error(err))
		return 0
	}
	related := e.computeArtistRelationships(artist, e.Config.RefreshTopN)
	for i := range related {
		if err := e.Store.AddArtistEdge(artistID, related[i].ID, related[i].score); err != nil {
			e.Logger.Error("Cachen der Artist-Kante fehlgeschlagen", zap.Error(err))
		}
	}
	return len(related)
}

type scoredArtist struct {
	artist models.Artist
	ID     uint
	score  float64
}

func (e *RelationshipEngine) computeArtistRelationships(target *models.Artist, topN int) []scoredArtist {
	candidates, err := e.Store.CandidateArtists(target.ID, e.Config.CandidatePoolArtists)
	if err != nil {
		e.Logger.Error("Laden des Artist-Kandidaten-Pools fehlgeschlagen", zap.Error(err))
		return nil
	}
	if len(candidates) == 0 {
		return nil
	}

	targetAlbums, err := e.Store.AlbumsByArtist(target.ID)
	if err != nil {
		e.Logger.Error("Laden der Ziel-Alben fehlgeschlagen", zap.Error(err))
	}
	targetTracks, err := e.Store.TracksByArtist(target.ID)
	if err != nil {
		e.Logger.Error("Laden der Ziel-Tracks fehlgeschlagen", zap.Error(err))
	}

	scored := make([]scoredArtist, 0, len(candidates))
	for i := range candidates {
		score := e.artistSimilarity(target, &candidates[i], targetAlbums, targetTracks)
		if score > scoreCutoff {
			scored = append(scored, scoredArtist{artist: candidates[i], ID: candidates[i].ID, score: score})
		}
	}

	// Stabil: bei gleichem Score entscheidet die Scan-Reihenfolge
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].score > scored[j].score })
	if len(scored) > topN {
		scored = scored[:topN]
	}
	return scored
}

// artistSimilarity berechnet den gewichteten Gesamtscore zweier Künstler.
// Alle Teilscores sind additiv, das Ergebnis ist auf 1.0 gedeckelt.
func (e *RelationshipEngine) artistSimilarity(a, b *models.Artist, aAlbums []models.Album, aTracks []models.Track) float64 {
	score := 0.0

	// Gemeinsame Provider-Präsenz, gedeckelt auf 0.4
	platform := 0.0
	if a.SpotifyID != "" && b.SpotifyID != "" {
		platform += 0.3
	}
	if a.LastFMID != "" && b.LastFMID != "" {
		platform += 0.2
	}
	if a.DiscogsID != "" && b.DiscogsID != "" {
		platform += 0.1
	}
	score += math.Min(platform, 0.4)

	// Namensähnlichkeit zählt nur oberhalb von 0.8
	nameScore := SimilarityScore(a.Name, b.Name, false)
	if nameScore > 0.8 {
		score += 0.2 * nameScore
	}

	if a.Description != "" && b.Description != "" {
		score += 0.2 * wordJaccard(a.Description, b.Description)
	}

	bAlbums, err := e.Store.AlbumsByArtist(b.ID)
	if err != nil {
		e.Logger.Error("Laden der Kandidaten-Alben fehlgeschlagen", zap.Error(err))
	}
	score += 0.2 * albumTitleOverlap(aAlbums, bAlbums)

	bTracks, err := e.Store.TracksByArtist(b.ID)
	if err != nil {
		e.Logger.Error("Laden der Kandidaten-Tracks fehlgeschlagen", zap.Error(err))
	}
	score += 0.1 * avgDurationCloseness(aTracks, bTracks)

	return math.Min(score, 1.0)
}

// ==================== Albums ====================

// RelatedAlbums liefert die ähnlichsten Alben zum Ziel; Cache-Semantik wie bei RelatedArtists.
func (e *RelationshipEngine) RelatedAlbums(album *models.Album, topN int) []models.Album {
	edges, err := e.Store.AlbumEdges(album.ID)
	if err != nil {
		e.Logger.Error("Lesen der Album-Kanten fehlgeschlagen", zap.Error(err))
	}
	if len(edges) >= topN {
		ids := make([]uint, 0, topN)
		for _, edge := range edges[:topN] {
			ids = append(ids, edge.RelatedAlbumID)
		}
		cached, err := e.Store.AlbumsByIDs(ids)
		if err != nil {
			e.Logger.Error("Laden gecachter Alben fehlgeschlagen", zap.Error(err))
			return nil
		}
		return cached
	}

	related := e.computeAlbumRelationships(album, topN)
	for i := range related {
		if err := e.Store.AddAlbumEdge(album.ID, related[i].ID, related[i].score); err != nil {
			e.Logger.Error("Cachen der Album-Kante fehlgeschlagen", zap.Error(err))
		}
	}

	result := make([]models.Album, 0, len(related))
	for i := range related {
		result = append(result, related[i].album)
	}
	return result
}

// RefreshAlbum verwirft alle gecachten Kanten eines Albums und berechnet sie neu.
func (e *RelationshipEngine) RefreshAlbum(albumID uint) int {
	album, err := e.Store.AlbumByID(albumID)
	if err != nil || album == nil {
		return 0
	}
	if err := e.Store.ClearAlbumEdges(albumID); err != nil {
		e.Logger.Error("Leeren der Album-Kanten fehlgeschlagen", zap.Error(err))
		return 0
	}
	related := e.computeAlbumRelationships(album, e.Config.RefreshTopN)
	for i := range related {
		if err := e.Store.AddAlbumEdge(albumID, related[i].ID, related[i].score); err != nil {
			e.Logger.Error("Cachen der Album-Kante fehlgeschlagen", zap.Error(err))
		}
	}
	return len(related)
}

type scoredAlbum struct {
	album models.Album
	ID    uint
	score float64
}

func (e *RelationshipEngine) computeAlbumRelationships(target *models.Album, topN int) []scoredAlbum {
	candidates, err := e.Store.CandidateAlbums(target.ID, e.Config.CandidatePoolAlbums)
	if err != nil {
		e.Logger.Error("Laden des Album-Kandidaten-Pools fehlgeschlagen", zap.Error(err))
		return nil
	}

	scored := make([]scoredAlbum, 0, len(candidates))
	for i := range candidates {
		score := albumSimilarity(target, &candidates[i])
		if score > scoreCutoff {
			scored = append(scored, scoredAlbum{album: candidates[i], ID: candidates[i].ID, score: score})
		}
	}

	sort.SliceStable(scored, func(i, j int) bool { return scored[i].score > scored[j].score })
	if len(scored) > topN {
		scored = scored[:topN]
	}
	return scored
}

// albumSimilarity berechnet den gewichteten Gesamtscore zweier Alben.
func albumSimilarity(a, b *models.Album) float64 {
	score := 0.0

	if a.SpotifyID != "" && b.SpotifyID != "" {
		score += 0.3
	}
	if a.LastFMID != "" && b.LastFMID != "" {
		score += 0.2
	}
	if a.DiscogsID != "" && b.DiscogsID != "" {
		score += 0.1
	}

	if a.ArtistID != nil && b.ArtistID != nil && *a.ArtistID == *b.ArtistID {
		score += 0.4
	}

	if a.ReleaseYear != 0 && b.ReleaseYear != 0 {
		yearDiff := math.Abs(float64(a.ReleaseYear - b.ReleaseYear))
		if yearDiff <= 5 {
			score += 0.1 * (1.0 - yearDiff/5.0)
		}
	}

	return math.Min(score, 1.0)
}

// ==================== Tracks ====================

// RelatedTracks liefert die ähnlichsten Tracks zum Ziel; Cache-Semantik wie bei RelatedArtists.
func (e *RelationshipEngine) RelatedTracks(track *models.Track, topN int) []models.Track {
	edges, err := e.Store.TrackEdges(track.ID)
	if err != nil {
		e.Logger.Error("Lesen der Track-Kanten fehlgeschlagen", zap.Error(err))
	}
	if len(edges) >= topN {
		ids := make([]uint, 0, topN)
		for _, edge := range edges[:topN] {
			ids = append(ids, edge.RelatedTrackID)
		}
		cached, err := e.Store.TracksByIDs(ids)
		if err != nil {
			e.Logger.Error("Laden gecachter Tracks fehlgeschlagen", zap.Error(err))
			return nil
		}
		return cached
	}

	related := e.computeTrackRelationships(track, topN)
	for i := range related {
		if err := e.Store.AddTrackEdge(track.ID, related[i].ID, related[i].score); err != nil {
			e.Logger.Error("Cachen der Track-Kante fehlgeschlagen", zap.Error(err))
		}
	}

	result := make([]models.Track, 0, len(related))
	for i := range related {
		result = append(result, related[i].track)
	}
	return result
}

// RefreshTrack verwirft alle gecachten Kanten eines Tracks und berechnet sie neu.
func (e *RelationshipEngine) RefreshTrack(trackID uint) int {
	track, err := e.Store.TrackByID(trackID)
	if err != nil || track == nil {
		return 0
	}
	if err := e.Store.ClearTrackEdges(trackID); err != nil {
		e.Logger.Error("Leeren der Track-Kanten fehlgeschlagen", zap.Error(err))
		return 0
	}
	related := e.computeTrackRelationships(track, e.Config.RefreshTopN)
	for i := range related {
		if err := e.Store.AddTrackEdge(trackID, related[i].ID, related[i].score); err != nil {
			e.Logger.Error("Cachen der Track-Kante fehlgeschlagen", zap.Error(err))
		}
	}
	return len(related)
}

type scoredTrack struct {
	track models.Track
	ID    uint
	score float64
}

func (e *RelationshipEngine) computeTrackRelationships(target *models.Track, topN int) []scoredTrack {
	candidates, err := e.Store.CandidateTracks(target.ID, e.Config.CandidatePoolTracks)
	if err != nil {
		e.Logger.Error("Laden des Track-Kandidaten-Pools fehlgeschlagen", zap.Error(err))
		return nil
	}

	scored := make([]scoredTrack, 0, len(candidates))
	for i := range candidates {
		score := trackSimilarity(target, &candidates[i])
		if score > scoreCutoff {
			scored = append(scored, scoredTrack{track: candidates[i], ID: candidates[i].ID, score: score})
		}
	}

	sort.SliceStable(scored, func(i, j int) bool { return scored[i].score > scored[j].score })
	if len(scored) > topN {
		scored = scored[:topN]
	}
	return scored
}

// trackSimilarity berechnet den gewichteten Gesamtscore zweier Tracks.
func trackSimilarity(a, b *models.Track) float64 {
	score := 0.0

	if a.SpotifyID != "" && b.SpotifyID != "" {
		score += 0.3
	}
	if a.LastFMID != "" && b.LastFMID != "" {
		score += 0.2
	}

	if a.ArtistID != nil && b.ArtistID != nil && *a.ArtistID == *b.ArtistID {
		score += 0.3
	}
	if a.AlbumID != nil && b.AlbumID != nil && *a.AlbumID == *b.AlbumID {
		score += 0.2
	}

	if a.DurationSeconds != 0 && b.DurationSeconds != 0 {
		durationDiff := math.Abs(float64(a.DurationSeconds - b.DurationSeconds))
		if durationDiff <= 30 {
			score += 0.2 * (1.0 - durationDiff/30.0)
		}
	}

	score += 0.1 * SimilarityScore(a.Title, b.Title, false)

	return math.Min(score, 1.0)
}

// ==================== Hilfsfunktionen ====================

// wordJaccard berechnet die Wort-Überlappung zweier Texte (Jaccard-Index).
func wordJaccard(text1, text2 string) float64 {
	words1 := wordSet(text1)
	words2 := wordSet(text2)
	if len(words1) == 0 || len(words2) == 0 {
		return 0.0
	}

	intersection := 0
	for word := range words1 {
		if _, ok := words2[word]; ok {
			intersection++
		}
	}
	union := len(words1) + len(words2) - intersection
	if union == 0 {
		return 0.0
	}
	return float64(intersection) / float64(union)
}

func wordSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, word := range wordRE.FindAllString(strings.ToLower(text), -1) {
		set[word] = struct{}{}
	}
	return set
}

// albumTitleOverlap misst den Anteil fuzzy-übereinstimmender Albumtitel,
// bezogen auf die kleinere der beiden Diskografien.
func albumTitleOverlap(albums1, albums2 []models.Album) float64 {
	if len(albums1) == 0 || len(albums2) == 0 {
		return 0.0
	}

	matched := 0
	for i := range albums1 {
		for j := range albums2 {
			if AlbumsMatch(albums1[i].Title, albums2[j].Title) {
				matched++
				break
			}
		}
	}

	maxPossible := len(albums1)
	if len(albums2) < maxPossible {
		maxPossible = len(albums2)
	}
	return float64(matched) / float64(maxPossible)
}

// avgDurationCloseness vergleicht die mittlere Tracklänge zweier Künstler:
// 1.0 bei identischem Schnitt, linear auf 0.0 bei >= 120 Sekunden Differenz.
func avgDurationCloseness(tracks1, tracks2 []models.Track) float64 {
	avg1, ok1 := avgDuration(tracks1)
	avg2, ok2 := avgDuration(tracks2)
	if !ok1 || !ok2 {
		return 0.0
	}

	const maxReasonableDiff = 120.0
	diff := math.Abs(avg1 - avg2)
	if diff >= maxReasonableDiff {
		return 0.0
	}
	return 1.0 - diff/maxReasonableDiff
}

func avgDuration(tracks []models.Track) (float64, bool) {
	sum := 0
	count := 0
	for i := range tracks {
		if tracks[i].DurationSeconds > 0 {
			sum += tracks[i].DurationSeconds
			count++
		}
	}
	if count == 0 {
		return 0.0, false
	}
	return float64(sum) / float64(count), true
}
