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

const goesList = `[
	{"class_type":"M2.4","begin_time":"2026-08-25T09:14Z","peak_time":"2026-08-25T09:31Z",
	 "end_time":"2026-08-25T09:50Z","location":"N15W30","region":"3842"},
	{"class_type":"C1.8","begin_time":"2026-08-25T03:40Z","peak_time":"2026-08-25T03:52Z",
	 "end_time":"2026-08-25T04:05Z","location":"","region":"Unknown"}
]`

func TestParseGOESFlares(t *testing.T) {
	events, dropped := parseGOESFlares([]byte(goesList))

	require.Len(t, events, 2)
	assert.Zero(t, dropped)

	first := events[0]
	assert.Equal(t, "goes-M2.4-1787649240", first.ID, "id is synthesized from class and begin time")
	assert.Equal(t, time.Date(2026, 8, 25, 9, 14, 0, 0, time.UTC), first.BeginTime)
	assert.Equal(t, 3842, first.ActiveRegionNum)
	assert.Equal(t, domain.SourceNOAAGOES, first.Source)

	assert.Zero(t, events[1].ActiveRegionNum, `region "Unknown" stays unset`)
}

func TestParseGOESFlares_DropsEntriesWithoutBeginTime(t *testing.T) {
	events, dropped := parseGOESFlares([]byte(`[{"class_type":"C1.0","begin_time":""}]`))
	assert.Empty(t, events)
	assert.Equal(t, 1, dropped)
}

func TestGOES_FlaresAndNormalize(t *testing.T) {
	useFixtureClock(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, goesFlarePath, r.URL.Path)
		w.Write([]byte(goesList))
	}))
	t.Cleanup(server.Close)

	s := NewGOES(newTestClient(t), server.URL, testLogger())

	events, err := s.Flares(context.Background())
	require.NoError(t, err)
	assert.Len(t, events, 2)

	report, err := s.Normalize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.SourceNOAAGOES, report.Source)
	assert.Equal(t, "Solar flare activity: Moderate", report.Headline)
	assert.Contains(t, report.Details, "M2.4 at 2026-08-25T09:14:00Z")
	assert.Empty(t, report.ProcessingErrors)
}
