package domain

import "strings"

// NationwideID is the accumulator key that collects every row regardless of
// state. It maps to itself in the state code table.
const NationwideID = "DE-total"

// stateIDs lists the Länderschlüssel in table order, nationwide last.
var stateIDs = []string{
	"01", "02", "03", "04", "05", "06", "07", "08",
	"09", "10", "11", "12", "13", "14", "15", "16",
	NationwideID,
}

// stateCodes maps the two-digit Länderschlüssel to the short state code.
// See https://de.wikipedia.org/wiki/Amtlicher_Gemeindeschl%C3%BCssel.
var stateCodes = map[string]string{
	"01": "SH", "02": "HH", "03": "NI", "04": "HB",
	"05": "NW", "06": "HE", "07": "RP", "08": "BW",
	"09": "BY", "10": "SL", "11": "BE", "12": "BB",
	"13": "MV", "14": "SN", "15": "ST", "16": "TH",
	NationwideID: NationwideID,
}

// StateIDs returns the state ids in table order with NationwideID last.
func StateIDs() []string {
	out := make([]string, len(stateIDs))
	copy(out, stateIDs)
	return out
}

// RegionCodes returns the alphabetic codes in table order, NationwideID last.
func RegionCodes() []string {
	out := make([]string, 0, len(stateIDs))
	for _, id := range stateIDs {
		out = append(out, stateCodes[id])
	}
	return out
}

// StateCode translates a state id to its alphabetic code. Single-digit ids
// such as "5" are zero-padded first.
func StateCode(id string) (string, bool) {
	code, ok := stateCodes[NormalizeStateID(id)]
	return code, ok
}

// NormalizeStateID trims the id and left-pads numeric ids to two digits.
func NormalizeStateID(id string) string {
	id = strings.TrimSpace(id)
	return padDigits(id, 2)
}

// NormalizeDistrictID trims the gemeindeschluessel and left-pads numeric keys
// to five digits, which restores leading zeros lost by spreadsheet exports.
func NormalizeDistrictID(id string) string {
	id = strings.TrimSpace(id)
	return padDigits(id, 5)
}

func padDigits(s string, width int) string {
	if s == "" || len(s) >= width {
		return s
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return s
		}
	}
	return strings.Repeat("0", width-len(s)) + s
}
