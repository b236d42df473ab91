// Package source contains one normalizer per space-weather agency. Each
// normalizer fetches its agency's bulletin through the shared retrying
// client and reduces it to a domain.NormalizedReport. Fetch failures are
// returned as errors; parse failures degrade field-by-field into the
// report's ProcessingErrors and never abort the normalize call.
package source

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/space-weather-ingest/internal/domain"
	"github.com/couchcryptid/space-weather-ingest/internal/fetch"
)

// Normalizer converts one agency's raw feed into the canonical report shape.
type Normalizer interface {
	Source() domain.Source
	Normalize(ctx context.Context) (domain.NormalizedReport, error)
}

// FlareCatalog is implemented by the sources that publish per-flare event
// lists (NASA DONKI, NOAA GOES). The deduplicator merges two catalogs.
type FlareCatalog interface {
	Flares(ctx context.Context) ([]domain.FlareEvent, error)
}

// Production base URLs, one per agency. Overridable per source via the
// catalog file, which is how tests point normalizers at httptest servers.
var defaultBaseURLs = map[domain.Source]string{
	domain.SourceNOAASWPC:  "https://services.swpc.noaa.gov",
	domain.SourceNASADONKI: "https://api.nasa.gov",
	domain.SourceNOAAGOES:  "https://services.swpc.noaa.gov",
	domain.SourceUKMO:      "https://weather.metoffice.gov.uk",
	domain.SourceBOMSWS:    "https://sws-data.sws.bom.gov.au",
	domain.SourceSIDC:      "https://www.sidc.be",
}

// BaseURL returns the production base URL for a source, or the override when
// one is present.
func BaseURL(src domain.Source, overrides map[domain.Source]string) string {
	if u, ok := overrides[src]; ok && u != "" {
		return u
	}
	return defaultBaseURLs[src]
}

// Options configures registry construction.
type Options struct {
	// BaseURLOverrides replaces production base URLs per source.
	BaseURLOverrides map[domain.Source]string
	// NASAAPIKey authenticates DONKI catalog queries; empty means DEMO_KEY.
	NASAAPIKey string
}

// NewRegistry builds one normalizer per source in the closed set, all
// sharing the same retrying client. The orchestrator indexes into this map
// with the caller's requested source list.
func NewRegistry(client *fetch.Client, opts Options, logger *slog.Logger) map[domain.Source]Normalizer {
	overrides := opts.BaseURLOverrides
	return map[domain.Source]Normalizer{
		domain.SourceNOAASWPC:  NewNOAASWPC(client, BaseURL(domain.SourceNOAASWPC, overrides), logger),
		domain.SourceNASADONKI: NewDONKI(client, BaseURL(domain.SourceNASADONKI, overrides), logger).WithAPIKey(opts.NASAAPIKey),
		domain.SourceNOAAGOES:  NewGOES(client, BaseURL(domain.SourceNOAAGOES, overrides), logger),
		domain.SourceUKMO:      NewUKMO(client, BaseURL(domain.SourceUKMO, overrides), logger),
		domain.SourceBOMSWS:    NewBOMSWS(client, BaseURL(domain.SourceBOMSWS, overrides), logger),
		domain.SourceSIDC:      NewSIDC(client, BaseURL(domain.SourceSIDC, overrides), logger),
	}
}

// finishReport applies the default validity window, scores the report, and
// logs anything that cost quality points. Called by every normalizer as its
// last step.
func finishReport(r *domain.NormalizedReport, logger *slog.Logger) {
	r.ApplyDefaultValidity()
	q := domain.ScoreReport(*r)
	r.QualityScore = q.Score
	if len(q.Issues) > 0 {
		logger.Debug("quality findings",
			"source", r.Source,
			"score", q.Score,
			"issues", q.Issues,
		)
	}
}
