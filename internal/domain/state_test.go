package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStateCode(t *testing.T) {
	cases := map[string]string{
		"01":         "SH",
		"05":         "NW",
		"5":          "NW",
		" 09 ":       "BY",
		"16":         "TH",
		NationwideID: NationwideID,
	}
	for id, want := range cases {
		got, ok := StateCode(id)
		assert.True(t, ok, id)
		assert.Equal(t, want, got, id)
	}

	_, ok := StateCode("17")
	assert.False(t, ok)
	_, ok = StateCode("")
	assert.False(t, ok)
}

func TestStateIDs_Bijection(t *testing.T) {
	ids := StateIDs()
	assert.Len(t, ids, 17)
	assert.Equal(t, NationwideID, ids[len(ids)-1])

	seen := make(map[string]bool)
	for _, id := range ids {
		code, ok := StateCode(id)
		assert.True(t, ok)
		assert.False(t, seen[code], "duplicate code %s", code)
		seen[code] = true
	}

	// Callers cannot mutate the table through the returned slice.
	ids[0] = "99"
	assert.Equal(t, "01", StateIDs()[0])
}

func TestNormalizeDistrictID(t *testing.T) {
	assert.Equal(t, "05315", NormalizeDistrictID("5315"))
	assert.Equal(t, "05315", NormalizeDistrictID(" 05315"))
	assert.Equal(t, "11000", NormalizeDistrictID("11000"))
	assert.Equal(t, "abc", NormalizeDistrictID("abc"))
}

func TestRegionCodes(t *testing.T) {
	codes := RegionCodes()
	assert.Len(t, codes, 17)
	assert.Equal(t, "SH", codes[0])
	assert.Equal(t, "NW", codes[4])
	assert.Equal(t, "TH", codes[15])
	assert.Equal(t, NationwideID, codes[16])
}
