package services

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Match-Schwellwerte pro Entitätstyp. Die Werte sind produktdefiniert
// und dürfen nicht verändert werden.
const (
	ArtistMatchThreshold = 0.90
	AlbumMatchThreshold  = 0.88
	TrackMatchThreshold  = 0.85
)

// Artikel, die beim Matching am Namensanfang ignoriert werden.
var ignorePrefixes = []string{"the ", "a ", "an "}

// Suffixe (Remaster/Edition etc.), die vor dem Vergleich entfernt werden.
var stripSuffixes = []string{
	"(remastered)", "(remaster)", "[remastered]", "[remaster]",
	"(deluxe edition)", "(deluxe)", "[deluxe edition]", "[deluxe]",
	"(expanded edition)", "(expanded)", "[expanded edition]", "[expanded]",
	"(bonus track version)", "(bonus tracks)", "[bonus tracks]",
	"(anniversary edition)", "[anniversary edition]",
	"(special edition)", "[special edition]",
	"- remastered", "- remaster", "- deluxe", "- expanded",
	"(original motion picture soundtrack)", "(original soundtrack)",
	"(ost)", "[ost]",
}

// Wörter, die auf Remaster/Versionen hindeuten, aber ein Match nicht verhindern sollen.
var versionIndicators = []string{
	"remaster", "remastered", "remix", "remixed", "deluxe", "expanded",
	"edition", "version", "anniversary", "special", "bonus", "extended",
}

var (
	parenRE      = regexp.MustCompile(`\([^)]*\)`)
	bracketRE    = regexp.MustCompile(`\[[^\]]*\]`)
	punctRE      = regexp.MustCompile(`[^\w\s]`)
	whitespaceRE = regexp.MustCompile(`\s+`)
	yearRE       = regexp.MustCompile(`\b(19\d{2}|20\d{2})\b`)

	versionParenRE   = regexp.MustCompile(`(?i)\s*\([^)]*(?:` + strings.Join(versionIndicators, "|") + `)[^)]*\)`)
	versionBracketRE = regexp.MustCompile(`(?i)\s*\[[^\]]*(?:` + strings.Join(versionIndicators, "|") + `)[^\]]*\]`)
	versionDashRE    = regexp.MustCompile(`(?i)\s*[-–—][^-–—]*(?:` + strings.Join(versionIndicators, "|") + `).*$`)

	// NFKD-Dekomposition, kombinierende Zeichen entfernen ("Björk" → "bjork")
	deaccent = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))
)

// Normalize kanonisiert einen Künstler-, Album- oder Tracknamen für Vergleiche.
// Die Funktion ist pur und deterministisch; leere Eingabe ergibt leere Ausgabe.
// strict entfernt zusätzlich sämtliche Klammer-Inhalte.
func Normalize(name string, strict bool) string {
	if name == "" {
		return ""
	}

	normalized := strings.ToLower(strings.TrimSpace(name))

	// Akzente entfernen, verbleibende Nicht-ASCII-Zeichen verwerfen
	if decomposed, _, err := transform.String(deaccent, normalized); err == nil {
		normalized = decomposed
	}
	normalized = strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII {
			return -1
		}
		return r
	}, normalized)

	// Remaster-/Edition-Suffixe entfernen
	for _, suffix := range stripSuffixes {
		if strings.HasSuffix(normalized, suffix) {
			normalized = strings.TrimSpace(normalized[:len(normalized)-len(suffix)])
		}
	}

	if strict {
		normalized = parenRE.ReplaceAllString(normalized, "")
		normalized = bracketRE.ReplaceAllString(normalized, "")
	}

	// Genau einen führenden Artikel entfernen
	for _, prefix := range ignorePrefixes {
		if strings.HasPrefix(normalized, prefix) {
			normalized = normalized[len(prefix):]
			break
		}
	}

	normalized = punctRE.ReplaceAllString(normalized, "")
	normalized = whitespaceRE.ReplaceAllString(normalized, " ")

	return strings.TrimSpace(normalized)
}

// SimilarityScore berechnet die Ähnlichkeit zweier Namen im Bereich [0,1].
// Exakte (case-insensitive) Gleichheit und Gleichheit der Normalformen
// ergeben 1.0, sonst zählt die LCS-basierte Sequenz-Ähnlichkeit.
func SimilarityScore(name1, name2 string, strict bool) float64 {
	if name1 == "" || name2 == "" {
		return 0.0
	}

	if strings.EqualFold(name1, name2) {
		return 1.0
	}

	norm1 := Normalize(name1, strict)
	norm2 := Normalize(name2, strict)

	if norm1 == norm2 {
		if norm1 == "" {
			return 0.0
		}
		return 1.0
	}
	if norm1 == "" || norm2 == "" {
		return 0.0
	}

	return sequenceRatio(norm1, norm2)
}

// AreSimilar prüft, ob zwei Namen über dem Schwellwert liegen.
func AreSimilar(name1, name2 string, threshold float64, strict bool) bool {
	if name1 == "" || name2 == "" {
		return false
	}
	return SimilarityScore(name1, name2, strict) >= threshold
}

// ArtistsMatch prüft zwei Künstlernamen (Schwellwert 0.90).
func ArtistsMatch(name1, name2 string) bool {
	return AreSimilar(name1, name2, ArtistMatchThreshold, false)
}

// AlbumsMatch prüft zwei Albumtitel (Schwellwert 0.88).
func AlbumsMatch(title1, title2 string) bool {
	return AreSimilar(title1, title2, AlbumMatchThreshold, false)
}

// TracksMatch prüft zwei Tracktitel (Schwellwert 0.85). Versions-Infos
// ("(Remastered 2009)" etc.) werden vor dem Vergleich entfernt, damit
// "Come Together" und "Come Together (Remastered 2009)" matchen.
func TracksMatch(title1, title2 string) bool {
	clean1 := RemoveVersionInfo(title1)
	clean2 := RemoveVersionInfo(title2)
	return AreSimilar(clean1, clean2, TrackMatchThreshold, true)
}

// FindBestMatch sucht den besten Kandidaten per Linearscan. Nur strikt
// bessere Scores ersetzen das Maximum, bei Gleichstand gewinnt also der
// zuerst gefundene Kandidat. ok ist false, wenn keiner den Schwellwert erreicht.
func FindBestMatch(target string, candidates []string, threshold float64) (best string, score float64, ok bool) {
	if target == "" || len(candidates) == 0 {
		return "", 0.0, false
	}

	for _, candidate := range candidates {
		s := SimilarityScore(target, candidate, false)
		if s > score && s >= threshold {
			best = candidate
			score = s
			ok = true
		}
	}
	return best, score, ok
}

// RemoveVersionInfo entfernt Versions-Angaben aus einem Titel, behält aber den Kern.
func RemoveVersionInfo(name string) string {
	result := versionParenRE.ReplaceAllString(name, "")
	result = versionBracketRE.ReplaceAllString(result, "")
	result = versionDashRE.ReplaceAllString(result, "")
	return strings.TrimSpace(result)
}

// IsRemasterOrVersion meldet, ob ein Name auf eine Sonderversion hindeutet.
func IsRemasterOrVersion(name string) bool {
	lower := strings.ToLower(name)
	for _, indicator := range versionIndicators {
		if strings.Contains(lower, indicator) {
			return true
		}
	}
	return false
}

// ExtractYear zieht eine vierstellige Jahreszahl (1900–2099) aus einem Text.
func ExtractYear(text string) (int, bool) {
	match := yearRE.FindString(text)
	if match == "" {
		return 0, false
	}
	year := 0
	for _, r := range match {
		year = year*10 + int(r-'0')
	}
	return year, true
}

// sequenceRatio berechnet die LCS-basierte Ähnlichkeit zweier Strings:
// 2*LCS / (len1+len2). Symmetrisch, 1.0 = identisch, 0.0 = disjunkt.
func sequenceRatio(a, b string) float64 {
	ra := []rune(a)
	rb := []rune(b)
	if len(ra) == 0 && len(rb) == 0 {
		return 1.0
	}
	if len(ra) == 0 || len(rb) == 0 {
		return 0.0
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for i := 1; i <= len(ra); i++ {
		for j := 1; j <= len(rb); j++ {
			if ra[i-1] == rb[j-1] {
				curr[j] = prev[j-1] + 1
			} else if prev[j] >= curr[j-1] {
				curr[j] = prev[j]
			} else {
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}

	lcs := prev[len(rb)]
	return 2.0 * float64(lcs) / float64(len(ra)+len(rb))
}
