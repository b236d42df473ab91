package source

import (
	"html"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	// flareClassRe matches a GOES flare class anywhere in free text,
	// e.g. "M5.4", "X1", "C9.9".
	flareClassRe = regexp.MustCompile(`\b([CMX]\d+\.?\d*)\b`)

	// kpIndexRe matches Kp mentions like "Kp index: 6", "Kp index reached 7",
	// or "the Kp-index of 5".
	kpIndexRe = regexp.MustCompile(`(?i)Kp[\s-]*index\D{0,20}?(\d)`)

	// pctChanceRe captures probability phrases, e.g. "55% chance of M-class
	// flares" or "a 10% chance of X-class activity".
	pctChanceRe = regexp.MustCompile(`(?i)(\d{1,3})\s*%\s*chance of ([MX])[\s-]?class`)

	// protonFluxRe matches ">10 MeV proton flux reached 150 pfu" style
	// statements.
	protonFluxRe = regexp.MustCompile(`(?i)proton flux\D{0,30}?(\d+(?:\.\d+)?)\s*pfu`)

	htmlTagRe    = regexp.MustCompile(`(?s)<[^>]*>`)
	htmlScriptRe = regexp.MustCompile(`(?is)<(script|style)[^>]*>.*?</(script|style)>`)
	whitespaceRe = regexp.MustCompile(`\s+`)
	blankLinesRe = regexp.MustCompile(`\n{3,}`)
)

// collapseWhitespace trims and squeezes all runs of whitespace to single
// spaces. Used for headline/summary fields where layout is noise.
func collapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

// stripHTML removes script/style blocks and markup, decodes entities, and
// tidies blank lines. Crude by design: agency pages are simple documents and
// the result only feeds regex extractors and narrative fields.
func stripHTML(s string) string {
	s = htmlScriptRe.ReplaceAllString(s, "")
	s = htmlTagRe.ReplaceAllString(s, "\n")
	s = html.UnescapeString(s)
	s = blankLinesRe.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// extractKp returns the first Kp value mentioned in text.
func extractKp(text string) (float64, bool) {
	m := kpIndexRe.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	kp, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return kp, true
}

// extractLargestFlareClass scans text for GOES flare class mentions and
// returns the strongest one (X > M > C, then by multiplier).
func extractLargestFlareClass(text string) (string, bool) {
	matches := flareClassRe.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return "", false
	}
	best := ""
	bestRank := -1.0
	for _, m := range matches {
		if r := flareClassRank(m[1]); r > bestRank {
			bestRank = r
			best = m[1]
		}
	}
	return best, true
}

// flareClassRank orders classes for comparison: each letter step is a decade
// of peak flux.
func flareClassRank(class string) float64 {
	if class == "" {
		return -1
	}
	var base float64
	switch class[0] {
	case 'C':
		base = 1
	case 'M':
		base = 10
	case 'X':
		base = 100
	default:
		return -1
	}
	mult, err := strconv.ParseFloat(class[1:], 64)
	if err != nil {
		return base
	}
	return base * mult
}

// extractFlareProbabilities pulls M-class and X-class probability
// percentages out of free text. Missing mentions stay at zero.
func extractFlareProbabilities(text string) (mPct, xPct float64, found bool) {
	for _, m := range pctChanceRe.FindAllStringSubmatch(text, -1) {
		pct, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		found = true
		switch strings.ToUpper(m[2]) {
		case "M":
			mPct = pct
		case "X":
			xPct = pct
		}
	}
	return mPct, xPct, found
}

// extractProtonFlux pulls a ≥10 MeV proton flux reading (pfu) out of text.
func extractProtonFlux(text string) (float64, bool) {
	m := protonFluxRe.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	flux, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return flux, true
}

// issuedAtLayouts are the timestamp shapes observed across agency bulletins.
var issuedAtLayouts = []string{
	"2006 Jan 02 1504 UTC",
	"2006 Jan 2 1504 UTC",
	"02 Jan 2006 15:04 UTC",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04Z",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

var issuedLineRe = regexp.MustCompile(`(?im)^:?issued:?\s*(.+?)\s*$`)

// extractIssuedAt finds an "Issued: ..." line and parses its timestamp.
func extractIssuedAt(text string) (time.Time, bool) {
	m := issuedLineRe.FindStringSubmatch(text)
	if m == nil {
		return time.Time{}, false
	}
	return parseTimestamp(m[1])
}

// parseTimestamp tries the known bulletin timestamp layouts in order.
func parseTimestamp(s string) (time.Time, bool) {
	s = collapseWhitespace(s)
	for _, layout := range issuedAtLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// firstSentence returns the first sentence of a paragraph, capped at max
// runes, for use as a headline.
func firstSentence(text string, max int) string {
	text = collapseWhitespace(text)
	if idx := strings.IndexAny(text, ".!?"); idx > 0 && idx < len(text)-1 {
		text = text[:idx+1]
	}
	runes := []rune(text)
	if len(runes) > max {
		text = string(runes[:max-1]) + "…"
	}
	return text
}

// sectionAfter returns the text between a header line matching headerRe and
// the next all-caps or dotted section header (or end of text).
func sectionAfter(text string, headerRe *regexp.Regexp) (string, bool) {
	loc := headerRe.FindStringIndex(text)
	if loc == nil {
		return "", false
	}
	rest := text[loc[1]:]
	if end := sectionBreakRe.FindStringIndex(rest); end != nil {
		rest = rest[:end[0]]
	}
	rest = strings.TrimSpace(rest)
	if rest == "" {
		return "", false
	}
	return rest, true
}

// sectionBreakRe matches the start of a new bulletin section: a dotted
// header like ".Forecast..." or an all-caps header line.
var sectionBreakRe = regexp.MustCompile(`(?m)^(\.[A-Z]|[A-Z][A-Z ]{5,}:?\s*$)`)
