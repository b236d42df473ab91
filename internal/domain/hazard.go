package domain

// HazardLevel is one of the fifteen NOAA Space Weather Scale codes, or the
// empty string for "no hazard".
type HazardLevel string

const (
	HazardG1 HazardLevel = "G1"
	HazardG2 HazardLevel = "G2"
	HazardG3 HazardLevel = "G3"
	HazardG4 HazardLevel = "G4"
	HazardG5 HazardLevel = "G5"
	HazardR1 HazardLevel = "R1"
	HazardR2 HazardLevel = "R2"
	HazardR3 HazardLevel = "R3"
	HazardR4 HazardLevel = "R4"
	HazardR5 HazardLevel = "R5"
	HazardS1 HazardLevel = "S1"
	HazardS2 HazardLevel = "S2"
	HazardS3 HazardLevel = "S3"
	HazardS4 HazardLevel = "S4"
	HazardS5 HazardLevel = "S5"
)

// Hazard categories returned by HazardCategory.
const (
	CategoryGeomagnetic = "geomagnetic"
	CategoryRadio       = "radio"
	CategoryRadiation   = "radiation"
)

// KpToGLevel maps a planetary Kp index to a geomagnetic storm level.
// Kp below 5 is sub-storm and yields no level.
func KpToGLevel(kp float64) HazardLevel {
	switch {
	case kp >= 9:
		return HazardG5
	case kp >= 8:
		return HazardG4
	case kp >= 7:
		return HazardG3
	case kp >= 6:
		return HazardG2
	case kp >= 5:
		return HazardG1
	default:
		return ""
	}
}

// FlareProbabilitiesToRLevel maps M-class and X-class flare probability
// percentages (0–100) to a radio blackout level. X-class probabilities
// dominate: a likely X flare implies the severe end of the scale regardless
// of the M figure.
func FlareProbabilitiesToRLevel(mPct, xPct float64) HazardLevel {
	switch {
	case xPct >= 50:
		return HazardR5
	case xPct >= 25:
		return HazardR4
	case mPct >= 50:
		return HazardR3
	case mPct >= 25:
		return HazardR2
	case mPct >= 10:
		return HazardR1
	default:
		return ""
	}
}

// ProtonFluxToSLevel maps the ≥10 MeV integral proton flux (pfu) to a solar
// radiation storm level. Each scale step is a decade starting at 10 pfu.
func ProtonFluxToSLevel(flux float64) HazardLevel {
	switch {
	case flux >= 1e5:
		return HazardS5
	case flux >= 1e4:
		return HazardS4
	case flux >= 1e3:
		return HazardS3
	case flux >= 1e2:
		return HazardS2
	case flux >= 10:
		return HazardS1
	default:
		return ""
	}
}

// HazardSeverity returns the 1–5 severity digit of a level, or 0 for the
// empty or malformed case.
func HazardSeverity(level HazardLevel) int {
	if len(level) != 2 {
		return 0
	}
	switch level[0] {
	case 'G', 'R', 'S':
	default:
		return 0
	}
	d := level[1]
	if d < '1' || d > '5' {
		return 0
	}
	return int(d - '0')
}

// HazardCategory returns the category of a level ("geomagnetic", "radio",
// "radiation"), or the empty string for invalid input.
func HazardCategory(level HazardLevel) string {
	if HazardSeverity(level) == 0 {
		return ""
	}
	switch level[0] {
	case 'G':
		return CategoryGeomagnetic
	case 'R':
		return CategoryRadio
	case 'S':
		return CategoryRadiation
	}
	return ""
}

// IsHighSeverityHazard reports whether a level is severity 3 or above.
func IsHighSeverityHazard(level HazardLevel) bool {
	return HazardSeverity(level) >= 3
}
