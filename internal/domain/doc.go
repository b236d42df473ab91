// Package domain models space-weather bulletin data from the public feeds of
// six forecasting agencies.
//
// # Sources
//
// Each agency publishes in its own shape: NOAA SWPC issues a free-text
// forecast discussion plus JSON products, NASA DONKI and the GOES X-ray list
// are JSON catalogs, the UK Met Office publishes an HTML summary, Australia's
// Bureau of Meteorology (SWS) exposes a JSON API with an HTML rendering of
// the same bulletin, and SIDC Belgium issues a plain-text ursigram. All of
// them converge on [NormalizedReport].
//
// # NOAA hazard scales
//
// Hazard levels follow the NOAA Space Weather Scales, fifteen codes across
// three categories:
//
//	G1–G5  geomagnetic storms, driven by the planetary Kp index:
//	       Kp 5 → G1, 6 → G2, 7 → G3, 8 → G4, 9 → G5.
//	R1–R5  radio blackouts, driven by X-ray flare magnitude. Forecast
//	       products express these as M-class and X-class probabilities;
//	       see [FlareProbabilitiesToRLevel] for the threshold table.
//	S1–S5  solar radiation storms, driven by the ≥10 MeV integral proton
//	       flux: each scale step is a decade, 10 pfu → S1 up to 10⁵ → S5.
//
// Source texts name these levels inconsistently ("minor storm", "G1-class",
// "Kp5 conditions"), so levels are always derived from numeric indices via
// the mapper functions, never parsed as enum strings.
//
// # Flare classification
//
// GOES X-ray classes are a letter (A, B, C, M, X) plus a decimal multiplier,
// e.g. "M5.4" or "X1.0". Each letter step is a decade of peak flux. The
// dedup key for flare catalogs combines the class string with the begin time
// rounded down to the minute; see [MergeFlareEvents].
//
// # Quality scoring
//
// Every normalized report carries a [0,1] quality score computed by
// [ScoreReport]: an additive penalty model over missing narrative fields,
// bulletin age, and parse degradations accumulated during normalization.
package domain
