package export

import (
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/tphakala/birddb-export/internal/birddb"
)

// benchmarkRows returns a day of detections cycling through a few species.
func benchmarkRows(n int) []birddb.Row {
	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	rows := make([]birddb.Row, n)
	for i := range rows {
		rows[i] = birddb.Row{
			Timestamp:      start.Add(time.Duration(i) * 15 * time.Second),
			ScientificName: fmt.Sprintf("Species %d", (i/4)%7),
			Confidence:     0.5 + float64(i%50)/100,
			HasConfidence:  true,
		}
	}
	return rows
}

func BenchmarkGrouped(b *testing.B) {
	rows := benchmarkRows(10_000)
	b.ReportAllocs()

	for b.Loop() {
		_ = Grouped(rows, GroupOptions{MaxGap: time.Minute})
	}
}

func BenchmarkEncodeFlat(b *testing.B) {
	records := Flat(benchmarkRows(10_000))
	b.ReportAllocs()

	for b.Loop() {
		if err := Encode(io.Discard, records); err != nil {
			b.Fatal(err)
		}
	}
}
