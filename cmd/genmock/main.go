// Command genmock runs canned raw agency bulletins through the offline
// parse functions and writes the resulting normalized reports as a JSON
// fixture, so downstream test suites exercise exactly what the pipeline
// produces. A fixed clock makes scoring and validity windows reproducible.
//
// Usage:
//
//	go run ./cmd/genmock -in internal/source/testdata -out data/mock/reports.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/space-weather-ingest/internal/domain"
	"github.com/couchcryptid/space-weather-ingest/internal/source"
)

var fixedNow = time.Date(2026, time.August, 25, 12, 0, 0, 0, time.UTC)

// fixtures maps input filenames to their offline parser.
var fixtures = []struct {
	file  string
	parse func(raw []byte, fetchedAt time.Time) domain.NormalizedReport
}{
	{"swpc_discussion.txt", source.ParseSWPCDiscussion},
	{"sidc_ursigram.txt", source.ParseSIDCUrsigram},
	{"ukmo_page.html", source.ParseUKMOPage},
	{"bom_outlook.html", source.ParseBOMPage},
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	inDir := flag.String("in", "", "directory containing raw bulletin fixtures")
	outFile := flag.String("out", "", "output path for normalized report JSON")
	flag.Parse()

	if *inDir == "" || *outFile == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -in, -out")
	}

	domain.SetClock(clockwork.NewFakeClockAt(fixedNow))
	defer domain.SetClock(nil)

	var reports []domain.NormalizedReport
	for _, f := range fixtures {
		raw, err := os.ReadFile(filepath.Join(*inDir, f.file))
		if err != nil {
			if os.IsNotExist(err) {
				log.Printf("skipping %s: not present", f.file)
				continue
			}
			return fmt.Errorf("read fixture %s: %w", f.file, err)
		}
		report := f.parse(raw, fixedNow)
		report.ApplyDefaultValidity()
		report.QualityScore = domain.ScoreReport(report).Score
		reports = append(reports, report)
	}

	if err := os.MkdirAll(filepath.Dir(*outFile), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	data, err := json.MarshalIndent(reports, "", "  ")
	if err != nil {
		return fmt.Errorf("encode reports: %w", err)
	}
	if err := os.WriteFile(*outFile, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", *outFile, err)
	}

	log.Printf("wrote %d normalized reports to %s", len(reports), *outFile)
	return nil
}
