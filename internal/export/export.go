// Package export turns parsed detections into output records and writes them as JSON.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/tphakala/birddb-export/internal/birddb"
	"github.com/tphakala/birddb-export/internal/errors"
)

// TimestampLayout is ISO-8601 without fractional seconds or zone offset.
const TimestampLayout = "2006-01-02T15:04:05"

// Exponent bounds outside which confidences are written in scientific notation.
const (
	minPlainExponent = -4
	maxPlainExponent = 16
)

// Timestamp marshals as a zone-less ISO-8601 string.
type Timestamp time.Time

// MarshalJSON implements json.Marshaler.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return strconv.AppendQuote(nil, time.Time(t).Format(TimestampLayout)), nil
}

// String returns the ISO-8601 form.
func (t Timestamp) String() string {
	return time.Time(t).Format(TimestampLayout)
}

// Confidence marshals as the shortest decimal that round-trips, always with a fractional
// part for integral values (1.0 rather than 1).
type Confidence float64

// MarshalJSON implements json.Marshaler.
func (c Confidence) MarshalJSON() ([]byte, error) {
	f := float64(c)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("unsupported confidence value: %v", f)
	}
	return []byte(FormatConfidence(f)), nil
}

// FormatConfidence renders f in plain notation for exponents in [-4, 16) and in scientific
// notation otherwise, e.g. 0.87, 1.0, 1e-05, 1e+16.
func FormatConfidence(f float64) string {
	sci := strconv.FormatFloat(f, 'e', -1, 64)
	exp, err := strconv.Atoi(sci[strings.LastIndexByte(sci, 'e')+1:])
	if err != nil || exp < minPlainExponent || exp >= maxPlainExponent {
		return sci
	}

	plain := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(plain, ".") {
		plain += ".0"
	}
	return plain
}

// Detection is a flat output record, one per valid input row.
type Detection struct {
	Datetime   Timestamp  `json:"datetime"`
	SciName    string     `json:"sci_name"`
	ComName    string     `json:"com_name"`
	Confidence Confidence `json:"confidence"`
}

// Group is a run of consecutive detections of one species.
type Group struct {
	DatetimeStart Timestamp `json:"datetime_start"`
	DatetimeEnd   Timestamp `json:"datetime_end"`
	SciName       string    `json:"sci_name"`
	ComName       string    `json:"com_name"`
}

// GroupOptions tunes how runs are split.
type GroupOptions struct {
	// MaxGap splits a same-species run when two neighbouring detections are further apart
	// than this. Zero disables the check, so runs break only on a species change.
	MaxGap time.Duration
}

// Flat converts rows to flat records, keeping their order.
func Flat(rows []birddb.Row) []Detection {
	records := make([]Detection, 0, len(rows))
	for i := range rows {
		records = append(records, Detection{
			Datetime:   Timestamp(rows[i].Timestamp),
			SciName:    rows[i].ScientificName,
			ComName:    rows[i].CommonName,
			Confidence: Confidence(rows[i].Confidence),
		})
	}
	return records
}

// SortDescending returns a copy of rows ordered newest first. Rows with equal timestamps keep
// their input order.
func SortDescending(rows []birddb.Row) []birddb.Row {
	sorted := slices.Clone(rows)
	slices.SortStableFunc(sorted, func(a, b birddb.Row) int {
		return b.Timestamp.Compare(a.Timestamp)
	})
	return sorted
}

// Grouped sorts rows newest first and merges each row into the preceding group when the
// species matches. A group's start is its newest detection and its end the oldest.
func Grouped(rows []birddb.Row, opts GroupOptions) []Group {
	groups := []Group{}

	for _, row := range SortDescending(rows) {
		if n := len(groups); n > 0 {
			last := &groups[n-1]
			if last.SciName == row.ScientificName && withinGap(last, row, opts.MaxGap) {
				last.DatetimeEnd = Timestamp(row.Timestamp)
				continue
			}
		}

		groups = append(groups, Group{
			DatetimeStart: Timestamp(row.Timestamp),
			DatetimeEnd:   Timestamp(row.Timestamp),
			SciName:       row.ScientificName,
			ComName:       row.CommonName,
		})
	}

	return groups
}

func withinGap(g *Group, row birddb.Row, maxGap time.Duration) bool {
	if maxGap <= 0 {
		return true
	}
	return time.Time(g.DatetimeEnd).Sub(row.Timestamp) <= maxGap
}

// Encode writes v as indented JSON followed by a newline. HTML characters and non-ASCII text
// are written literally.
func Encode(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")

	if err := enc.Encode(v); err != nil {
		return errors.Newf("failed to encode output: %w", err).
			Category(errors.CategoryEncoding).
			Build()
	}
	return nil
}
