package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Jeffrey Epstein", "Jeffrey Epstein"},
		{"Epstein, Jeffrey", "Jeffrey Epstein"},
		{"Epstein, Jeffrey E.", "Jeffrey E. Epstein"},
		{"Alan Dershowitz, Esq.", "Alan Dershowitz"},
		{"Larry Visoski Jr.", "Larry Visoski"},
		{"Larry Visoski (Pilot)", "Larry Visoski"},
		{"  Ghislaine   Maxwell  ", "Ghislaine Maxwell"},
		{"", ""},
		{"   ", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Name(tt.in), "Name(%q)", tt.in)
	}
}

func TestNameIdempotent(t *testing.T) {
	inputs := []string{
		"Epstein, Jeffrey E.",
		"MR. LARRY VISOSKI",
		"Alan Dershowitz, Esq.",
		"Larry Visoski (Pilot)",
		"Ghislaine Noelle Marion Maxwell",
		"",
		"J.D.",
		"x",
	}
	for _, in := range inputs {
		once := Name(in)
		assert.Equal(t, once, Name(once), "Name must be idempotent for %q", in)
	}
}

func TestShortForm(t *testing.T) {
	assert.Equal(t, "Ghislaine Maxwell", ShortForm("Ghislaine Noelle Marion Maxwell"))
	assert.Equal(t, "Jeffrey Epstein", ShortForm("Jeffrey Edward Epstein"))
	assert.Equal(t, "Jeffrey Epstein", ShortForm("Jeffrey Epstein"))
	assert.Equal(t, "Cher", ShortForm("Cher"))
	assert.Equal(t, "", ShortForm(""))
}

func TestStripTitles(t *testing.T) {
	assert.Equal(t, "Clinton", StripTitles("President Clinton"))
	assert.Equal(t, "Cassell", StripTitles("Mr. Cassell"))
	assert.Equal(t, "Clinton", StripTitles("Mr. President Clinton"), "stacked titles unwind")
	assert.Equal(t, "Larry Visoski", StripTitles("Larry Visoski"))

	assert.True(t, HasTitlePrefix("Dr. Strangelove"))
	assert.False(t, HasTitlePrefix("Drew Barrymore"), "prefix match requires the trailing space")
}

func TestTitleCase(t *testing.T) {
	assert.Equal(t, "Heather Mann", TitleCase("HEATHER MANN"))
	assert.Equal(t, "Jean-Luc Brunel", TitleCase("JEAN-LUC BRUNEL"))
	assert.Equal(t, "Jean-Luc Brunel", TitleCase("Jean-Luc Brunel"))
	assert.Equal(t, "already lower case", TitleCase("already lower case"))
	assert.Equal(t, "J.D. Smith", TitleCase("J.D. SMITH"), "dotted abbreviation is preserved")
	assert.Equal(t, "", TitleCase(""))
	assert.Equal(t, "12345", TitleCase("12345"))
}

func TestMatchKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"MR. LARRY VISOSKI", "larry visoski"},
		{"Larry Visoski", "larry visoski"},
		{"President Clinton", "clinton"},
		{"Jean-Luc Brunel", "jean luc brunel"},
		{"Jean Luc Brunel", "jean luc brunel"},
		{"Nadia Nadia Marcinkova", "nadia marcinkova"},
		{"Jack A. Goldberger", "jack goldberger"},
		{"Jack A Goldberger", "jack goldberger"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MatchKey(tt.in), "MatchKey(%q)", tt.in)
	}

	// Variants of the same person converge on one key
	assert.Equal(t, MatchKey("MR. LARRY VISOSKI"), MatchKey("larry visoski "))
}

func TestCleanDisplayName(t *testing.T) {
	assert.Equal(t, "Larry Visoski", CleanDisplayName("MR. LARRY VISOSKI"))
	assert.Equal(t, "Clinton", CleanDisplayName("President Clinton"))
	assert.Equal(t, "Nadia Marcinkova", CleanDisplayName("Nadia Nadia Marcinkova"))
	assert.Equal(t, "Jean-Luc Brunel", CleanDisplayName("Jean-Luc Brunel"))
	// Names already clean pass through unchanged
	assert.Equal(t, "Ghislaine Maxwell", CleanDisplayName("Ghislaine Maxwell"))
}
