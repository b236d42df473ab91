package domain

import (
	"fmt"
	"time"
)

// Source identifies one of the supported space-weather agencies. The set is
// closed: parsers, base URLs, and metrics labels are all keyed by it.
type Source string

const (
	SourceNOAASWPC  Source = "noaa_swpc"  // NOAA Space Weather Prediction Center
	SourceNASADONKI Source = "nasa_donki" // NASA DONKI solar-flare catalog
	SourceNOAAGOES  Source = "noaa_goes"  // NOAA GOES X-ray flare list
	SourceUKMO      Source = "ukmo"       // UK Met Office space weather
	SourceBOMSWS    Source = "bom_sws"    // Bureau of Meteorology / SWS Australia
	SourceSIDC      Source = "sidc"       // SIDC, Royal Observatory of Belgium
)

// AllSources returns the closed source set in canonical fetch order.
func AllSources() []Source {
	return []Source{
		SourceNOAASWPC,
		SourceNASADONKI,
		SourceNOAAGOES,
		SourceUKMO,
		SourceBOMSWS,
		SourceSIDC,
	}
}

// ParseSource validates a source identifier string.
func ParseSource(s string) (Source, error) {
	for _, src := range AllSources() {
		if string(src) == s {
			return src, nil
		}
	}
	return "", fmt.Errorf("unknown source %q", s)
}

// DefaultValidityHours is the forecast validity window applied when a source
// gives no explicit window.
const DefaultValidityHours = 72

// NormalizedReport is the canonical unit of the pipeline: one agency bulletin
// reduced to a common shape. Parsers fill it best-effort; sub-extractions
// that fail leave their field zero and append to ProcessingErrors instead of
// aborting the normalize call.
type NormalizedReport struct {
	Source    Source `json:"source"`
	SourceURL string `json:"source_url"`

	// IssuedAt is the timestamp the agency claims to have issued the
	// bulletin, often parsed from free text. Zero when not found; consumers
	// fall back to FetchedAt.
	IssuedAt  time.Time `json:"issued_at,omitzero"`
	FetchedAt time.Time `json:"fetched_at"`

	Headline string `json:"headline,omitempty"`
	Summary  string `json:"summary,omitempty"`
	Details  string `json:"details,omitempty"`

	// Confidence is the agency's own qualitative label (High/Medium/Low),
	// distinct from QualityScore which this pipeline derives.
	Confidence string `json:"confidence,omitempty"`

	ValidStart time.Time `json:"valid_start"`
	ValidEnd   time.Time `json:"valid_end"`

	GeomagneticLevel    HazardLevel `json:"geomagnetic_level,omitempty"`
	RadioBlackoutLevel  HazardLevel `json:"radio_blackout_level,omitempty"`
	RadiationStormLevel HazardLevel `json:"radiation_storm_level,omitempty"`

	// RawPayload is the untouched source response, retained for audit and
	// debugging. Never interpreted downstream.
	RawPayload []byte `json:"raw_payload,omitempty"`

	ProcessingErrors []string `json:"processing_errors,omitempty"`
	QualityScore     float64  `json:"quality_score"`
}

// AddProcessingError records a non-fatal parse degradation.
func (r *NormalizedReport) AddProcessingError(format string, args ...any) {
	r.ProcessingErrors = append(r.ProcessingErrors, fmt.Sprintf(format, args...))
}

// ApplyDefaultValidity fills the validity window with now .. now+72h when the
// source gave no explicit window.
func (r *NormalizedReport) ApplyDefaultValidity() {
	if r.ValidStart.IsZero() {
		r.ValidStart = clock.Now().UTC()
	}
	if r.ValidEnd.IsZero() {
		r.ValidEnd = r.ValidStart.Add(DefaultValidityHours * time.Hour)
	}
}

// FetchResult is the orchestrator's in-memory unit of work for one source in
// one fetch cycle. Never persisted as-is.
type FetchResult struct {
	Source       Source
	Success      bool
	Report       *NormalizedReport
	Err          error
	ResponseTime time.Duration
}

// FetchLog is the audit record persisted per fetch attempt.
type FetchLog struct {
	Source         Source    `json:"source"`
	URL            string    `json:"url,omitempty"`
	Success        bool      `json:"success"`
	ResponseTimeMs int64     `json:"response_time_ms"`
	DataPoints     int       `json:"data_points"`
	ErrorMessage   string    `json:"error_message,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}
