package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/space-weather-ingest/internal/domain"
)

const bomAPIPayload = `{"data":[{
	"issue_time":"2026-08-25 08:30",
	"start_date":"2026-08-25 08:30",
	"end_date":"2026-08-26 08:30",
	"k_aus":6,
	"lat_band":"high",
	"description":"Geomagnetic activity is expected to reach moderate storm levels following a CME arrival.",
	"comments":"Aurora may be visible from Tasmania during local night hours."
}]}`

func bomServer(t *testing.T, apiHandler http.HandlerFunc, pageHandler http.HandlerFunc) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case bomOutlookAPIPath:
			apiHandler(w, r)
		case bomOutlookPagePath:
			pageHandler(w, r)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func serveBytes(body []byte) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) { w.Write(body) }
}

func serveStatus(status int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(status) }
}

func TestBOMSWS_Normalize_APIPath(t *testing.T) {
	useFixtureClock(t)
	server := bomServer(t, serveBytes([]byte(bomAPIPayload)), serveStatus(http.StatusNotFound))

	s := NewBOMSWS(newTestClient(t), server.URL, testLogger())
	report, err := s.Normalize(context.Background())

	require.NoError(t, err)
	assert.Equal(t, server.URL+bomOutlookAPIPath, report.SourceURL)
	assert.Equal(t, time.Date(2026, 8, 25, 8, 30, 0, 0, time.UTC), report.IssuedAt)
	assert.Equal(t, time.Date(2026, 8, 26, 8, 30, 0, 0, time.UTC), report.ValidEnd)
	assert.Contains(t, report.Summary, "moderate storm levels")
	assert.Contains(t, report.Details, "Tasmania")
	assert.Equal(t, domain.HazardG2, report.GeomagneticLevel) // K_aus 6
	assert.Empty(t, report.ProcessingErrors)
	assert.Equal(t, 1.0, report.QualityScore)
}

// The HTML fallback is mandatory: any API failure, transport or payload,
// must produce a report from the page and record the downgrade.
func TestBOMSWS_Normalize_FallbackOnAPIFailure(t *testing.T) {
	useFixtureClock(t)
	page := loadFixture(t, "bom_outlook.html")

	tests := []struct {
		name string
		api  http.HandlerFunc
	}{
		{"api transport failure", serveStatus(http.StatusNotFound)},
		{"api malformed payload", serveBytes([]byte("<html>maintenance</html>"))},
		{"api empty envelope", serveBytes([]byte(`{"data":[]}`))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := bomServer(t, tt.api, serveBytes(page))

			s := NewBOMSWS(newTestClient(t), server.URL, testLogger())
			report, err := s.Normalize(context.Background())

			require.NoError(t, err, "fallback must rescue the fetch")
			assert.Equal(t, server.URL+bomOutlookPagePath, report.SourceURL)
			assert.Equal(t, "Aurora Outlook", report.Headline)
			assert.Equal(t, domain.HazardG1, report.GeomagneticLevel) // page says Kp 5

			require.NotEmpty(t, report.ProcessingErrors)
			assert.Contains(t, report.ProcessingErrors[len(report.ProcessingErrors)-1],
				"api unavailable, downgraded to html scrape")
			assert.Less(t, report.QualityScore, 1.0)
		})
	}
}

func TestBOMSWS_Normalize_BothPathsFail(t *testing.T) {
	server := bomServer(t, serveStatus(http.StatusNotFound), serveStatus(http.StatusNotFound))

	s := NewBOMSWS(newTestClient(t), server.URL, testLogger())
	_, err := s.Normalize(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "html fallback both failed")
}

func TestParseBOMOutlook(t *testing.T) {
	useFixtureClock(t)

	t.Run("details fall back to description", func(t *testing.T) {
		report, err := parseBOMOutlook([]byte(
			`{"data":[{"issue_time":"2026-08-25 08:30","description":"Quiet conditions.","comments":""}]}`), fixtureNow)
		require.NoError(t, err)
		assert.Equal(t, "Quiet conditions.", report.Details)
	})

	t.Run("bad issue time degrades", func(t *testing.T) {
		report, err := parseBOMOutlook([]byte(
			`{"data":[{"issue_time":"tomorrow-ish","description":"Quiet conditions."}]}`), fixtureNow)
		require.NoError(t, err)
		assert.True(t, report.IssuedAt.IsZero())
		require.Len(t, report.ProcessingErrors, 1)
		assert.Contains(t, report.ProcessingErrors[0], `unparseable issue time "tomorrow-ish"`)
	})

	t.Run("malformed envelope is an error, not a degradation", func(t *testing.T) {
		_, err := parseBOMOutlook([]byte(`{`), fixtureNow)
		assert.Error(t, err)
	})
}
