// Package birddb reads BirdDB detection logs: semicolon-separated files with a header row
// naming the columns, one detection per row.
package birddb

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/tphakala/birddb-export/internal/errors"
	"github.com/tphakala/birddb-export/internal/textio"
)

// Column names recognized in the header row.
const (
	ColumnDate       = "Date"
	ColumnTime       = "Time"
	ColumnSciName    = "Sci_Name"
	ColumnConfidence = "Confidence"
)

// Delimiter separates fields in a BirdDB file.
const Delimiter = ';'

// timestampLayout accepts "YYYY-MM-DD HH:MM:SS"; month, day and clock fields may be one or
// two digits wide.
const timestampLayout = "2006-1-2 15:4:5"

// Row is a validated detection enriched with its common name.
type Row struct {
	Timestamp      time.Time
	ScientificName string
	CommonName     string
	Confidence     float64
	HasConfidence  bool
}

// Lookup resolves a scientific name to a common name; unknown names yield "".
type Lookup interface {
	CommonName(sciName string) string
}

// Options controls row validation.
type Options struct {
	// RequireConfidence rejects rows whose Confidence column is empty or not a finite number.
	// When false the column is not read at all.
	RequireConfidence bool
}

// Stats counts what happened to each data record.
type Stats struct {
	Records       int // data records read, header excluded
	Accepted      int
	MissingField  int
	BadTimestamp  int
	BadConfidence int
	Malformed     int // records the CSV reader could not split
}

// Skipped returns the number of records that did not produce a row.
func (s Stats) Skipped() int {
	return s.MissingField + s.BadTimestamp + s.BadConfidence + s.Malformed
}

// header maps column names to record positions. Duplicate names resolve to the last column.
type header map[string]int

func newHeader(record []string) header {
	h := make(header, len(record))
	for i, name := range record {
		h[name] = i
	}
	return h
}

// field returns the trimmed value of column name, or "" when the column is absent from the
// header or the record is too short.
func (h header) field(record []string, name string) string {
	idx, ok := h[name]
	if !ok || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

// newReader configures a CSV reader for BirdDB files.
func newReader(r io.Reader) *csv.Reader {
	reader := csv.NewReader(r)
	reader.Comma = Delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.ReuseRecord = true
	return reader
}

// ParseTimestamp combines a date and a time column into a timestamp. Fractional seconds and
// years before 1 are rejected.
func ParseTimestamp(date, clock string) (time.Time, error) {
	// time.Parse accepts a fraction after the seconds field even when the layout has none.
	if strings.ContainsAny(clock, ".,") {
		return time.Time{}, fmt.Errorf("unexpected fractional seconds in %q", clock)
	}
	ts, err := time.Parse(timestampLayout, date+" "+clock)
	if err != nil {
		return time.Time{}, err
	}
	if ts.Year() < 1 {
		return time.Time{}, fmt.Errorf("year out of range in %q", date)
	}
	return ts, nil
}

// ParseConfidence parses a decimal confidence value. NaN and infinities are rejected because
// they have no JSON representation, hexadecimal floats because they are not decimal.
func ParseConfidence(value string) (float64, error) {
	digits := strings.ToLower(strings.TrimLeft(value, "+-"))
	if strings.HasPrefix(digits, "0x") {
		return 0, fmt.Errorf("confidence %q is not a decimal number", value)
	}
	confidence, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(confidence) || math.IsInf(confidence, 0) {
		return 0, fmt.Errorf("confidence %q is not a finite number", value)
	}
	return confidence, nil
}

// Parse reads a BirdDB log from r and returns the valid rows in file order. Invalid rows are
// skipped and counted in the returned Stats; only read failures are returned as errors.
func Parse(r io.Reader, names Lookup, opts Options) ([]Row, Stats, error) {
	return parse(r, "", names, opts)
}

// parse implements Parse. path only annotates errors and may be empty.
func parse(r io.Reader, path string, names Lookup, opts Options) ([]Row, Stats, error) {
	var stats Stats
	rows := []Row{}

	reader := newReader(r)

	headerRecord, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return rows, stats, nil
	}
	if err != nil {
		return nil, stats, errors.Newf("error reading %s header: %w", source(path), err).
			Category(errors.CategoryFileParsing).
			FileContext(path).
			Build()
	}
	cols := newHeader(headerRecord)

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				stats.Records++
				stats.Malformed++
				continue
			}
			return nil, stats, errors.Newf("error reading %s record: %w", source(path), err).
				Category(errors.CategoryFileIO).
				FileContext(path).
				Build()
		}
		stats.Records++

		row, ok := parseRecord(cols, record, names, opts, &stats)
		if !ok {
			continue
		}
		rows = append(rows, row)
		stats.Accepted++
	}

	return rows, stats, nil
}

// source names the input in error messages.
func source(path string) string {
	if path == "" {
		return "BirdDB"
	}
	return path
}

// parseRecord validates a single record, updating stats when it is rejected.
func parseRecord(cols header, record []string, names Lookup, opts Options, stats *Stats) (Row, bool) {
	date := cols.field(record, ColumnDate)
	clock := cols.field(record, ColumnTime)
	sciName := cols.field(record, ColumnSciName)

	var confidenceValue string
	if opts.RequireConfidence {
		confidenceValue = cols.field(record, ColumnConfidence)
	}

	if date == "" || clock == "" || sciName == "" || (opts.RequireConfidence && confidenceValue == "") {
		stats.MissingField++
		return Row{}, false
	}

	ts, err := ParseTimestamp(date, clock)
	if err != nil {
		stats.BadTimestamp++
		return Row{}, false
	}

	row := Row{
		Timestamp:      ts,
		ScientificName: sciName,
	}

	if opts.RequireConfidence {
		confidence, err := ParseConfidence(confidenceValue)
		if err != nil {
			stats.BadConfidence++
			return Row{}, false
		}
		row.Confidence = confidence
		row.HasConfidence = true
	}

	if names != nil {
		row.CommonName = names.CommonName(sciName)
	}

	return row, true
}

// Load opens the BirdDB file at path on fsys and parses it.
func Load(fsys afero.Fs, path string, names Lookup, opts Options) ([]Row, Stats, error) {
	file, err := fsys.Open(path)
	if err != nil {
		return nil, Stats{}, errors.FileError(fmt.Errorf("failed to open detection file: %w", err), path)
	}
	defer file.Close()

	return parse(textio.NewReader(file), path, names, opts)
}
