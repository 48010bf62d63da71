package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		name   string
		input  string
		strict bool
		want   string
	}{
		{"leer", "", false, ""},
		{"lowercase und trim", "  The Beatles  ", false, "beatles"},
		{"akzente", "Björk", false, "bjork"},
		{"akzente franzoesisch", "Céline Dion", false, "celine dion"},
		{"nur ein artikel", "The The", false, "the"},
		{"artikel a", "A Perfect Circle", false, "perfect circle"},
		{"remaster suffix", "Abbey Road (Remastered)", false, "abbey road"},
		{"deluxe suffix", "Nevermind (Deluxe Edition)", false, "nevermind"},
		{"interpunktion", "AC/DC", false, "acdc"},
		{"whitespace kollabiert", "Pink    Floyd", false, "pink floyd"},
		{"strict entfernt klammern", "Help! (Live at Wembley)", true, "help"},
		{"nicht-ascii verworfen", "坂本龍一", false, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Normalize(tc.input, tc.strict))
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"The Beatles", "Björk", "Abbey Road (Remastered)", "AC/DC",
		"Céline Dion", "  Pink  Floyd  ", "A Tribe Called Quest",
	}
	for _, input := range inputs {
		once := Normalize(input, false)
		assert.Equal(t, once, Normalize(once, false), "Normalize muss idempotent sein für %q", input)
	}
}

func TestSimilarityScoreRange(t *testing.T) {
	pairs := [][2]string{
		{"The Beatles", "Beatles"},
		{"Radiohead", "Nickelback"},
		{"a", "b"},
		{"Abbey Road", "Abbey Road (Remastered)"},
	}
	for _, p := range pairs {
		score := SimilarityScore(p[0], p[1], false)
		assert.GreaterOrEqual(t, score, 0.0)
		assert.LessOrEqual(t, score, 1.0)
	}
}

func TestSimilarityScoreSymmetric(t *testing.T) {
	assert.Equal(t,
		SimilarityScore("The Beatles", "Beach Boys", false),
		SimilarityScore("Beach Boys", "The Beatles", false))
}

func TestSimilarityScoreReflexive(t *testing.T) {
	assert.Equal(t, 1.0, SimilarityScore("Radiohead", "Radiohead", false))
	assert.Equal(t, 1.0, SimilarityScore("Radiohead", "radiohead", false))
}

func TestSimilarityScoreEmptyInput(t *testing.T) {
	assert.Equal(t, 0.0, SimilarityScore("", "Radiohead", false))
	assert.Equal(t, 0.0, SimilarityScore("Radiohead", "", false))
	// Beide normalisieren zu leer: kein Treffer, keine Division durch Null
	assert.Equal(t, 0.0, SimilarityScore("!!!", "???", false))
}

func TestArtistsMatch(t *testing.T) {
	assert.True(t, ArtistsMatch("The Beatles", "Beatles"))
	assert.True(t, ArtistsMatch("Björk", "bjork"))
	assert.False(t, ArtistsMatch("The Beatles", "The Beach Boys"))
	assert.False(t, ArtistsMatch("Radiohead", "Nickelback"))
}

func TestAlbumsMatch(t *testing.T) {
	assert.True(t, AlbumsMatch("Abbey Road", "Abbey Road (Remastered)"))
	assert.True(t, AlbumsMatch("Nevermind", "Nevermind (Deluxe Edition)"))
	assert.False(t, AlbumsMatch("Abbey Road", "Let It Be"))
}

func TestTracksMatch(t *testing.T) {
	assert.True(t, TracksMatch("Come Together", "Come Together (Remastered 2009)"))
	assert.True(t, TracksMatch("Come Together - 2019 Remaster", "Come Together"))
	assert.False(t, TracksMatch("Come Together", "Something"))
}

func TestFindBestMatch(t *testing.T) {
	candidates := []string{"The Beach Boys", "The Beatles", "Beatles"}

	best, score, ok := FindBestMatch("Beatles", candidates, ArtistMatchThreshold)
	assert.True(t, ok)
	assert.Equal(t, 1.0, score)
	// "The Beatles" und "Beatles" normalisieren beide zu "beatles";
	// bei Gleichstand gewinnt der zuerst gescannte Kandidat
	assert.Equal(t, "The Beatles", best)

	_, _, ok = FindBestMatch("Kraftwerk", candidates, ArtistMatchThreshold)
	assert.False(t, ok)

	_, _, ok = FindBestMatch("", candidates, ArtistMatchThreshold)
	assert.False(t, ok)
	_, _, ok = FindBestMatch("Beatles", nil, ArtistMatchThreshold)
	assert.False(t, ok)
}

func TestRemoveVersionInfo(t *testing.T) {
	assert.Equal(t, "Come Together", RemoveVersionInfo("Come Together (Remastered 2009)"))
	assert.Equal(t, "Come Together", RemoveVersionInfo("Come Together - 2019 Remaster"))
	assert.Equal(t, "Come Together", RemoveVersionInfo("Come Together [Deluxe Edition]"))
	// Klammern ohne Versions-Indikator bleiben erhalten
	assert.Equal(t, "Help! (Live)", RemoveVersionInfo("Help! (Live)"))
}

func TestIsRemasterOrVersion(t *testing.T) {
	assert.True(t, IsRemasterOrVersion("Abbey Road (Remastered)"))
	assert.True(t, IsRemasterOrVersion("Nevermind (Deluxe Edition)"))
	assert.False(t, IsRemasterOrVersion("Abbey Road"))
}

func TestExtractYear(t *testing.T) {
	year, ok := ExtractYear("Abbey Road (Remastered 2009)")
	assert.True(t, ok)
	assert.Equal(t, 2009, year)

	year, ok = ExtractYear("1969-09-26")
	assert.True(t, ok)
	assert.Equal(t, 1969, year)

	_, ok = ExtractYear("Abbey Road")
	assert.False(t, ok)

	// 1899 liegt außerhalb des erkannten Bereichs
	_, ok = ExtractYear("Symphonie von 1899")
	assert.False(t, ok)
}

func TestSequenceRatio(t *testing.T) {
	assert.Equal(t, 1.0, sequenceRatio("abc", "abc"))
	assert.Equal(t, 0.0, sequenceRatio("abc", "xyz"))
	// LCS("abcd","abce") = "abc": 2*3/8 = 0.75
	assert.InDelta(t, 0.75, sequenceRatio("abcd", "abce"), 1e-9)
}
