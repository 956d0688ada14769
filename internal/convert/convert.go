// Package convert runs the BirdDB export pipeline: load labels, parse detections, build flat
// or grouped records and write them as JSON.
package convert

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/tphakala/birddb-export/internal/birddb"
	"github.com/tphakala/birddb-export/internal/errors"
	"github.com/tphakala/birddb-export/internal/export"
	"github.com/tphakala/birddb-export/internal/labels"
	"github.com/tphakala/birddb-export/internal/logger"
	"github.com/tphakala/birddb-export/internal/report"
)

// Mode selects the output variant.
type Mode string

const (
	// ModeFlat emits one record per valid row in file order.
	ModeFlat Mode = "flat"
	// ModeGrouped emits time ranges of consecutive same-species detections, newest first.
	ModeGrouped Mode = "grouped"
)

// NormalizeMode folds case and surrounding whitespace. The result may still be invalid.
func NormalizeMode(value string) Mode {
	return Mode(strings.ToLower(strings.TrimSpace(value)))
}

// Valid reports whether m names a supported output mode.
func (m Mode) Valid() bool {
	return m == ModeFlat || m == ModeGrouped
}

// ParseMode validates a mode name, ignoring case and surrounding whitespace.
func ParseMode(value string) (Mode, error) {
	mode := NormalizeMode(value)
	if !mode.Valid() {
		return "", errors.ValidationError(fmt.Sprintf("invalid mode %q: must be %q or %q", value, ModeFlat, ModeGrouped))
	}
	return mode, nil
}

// Config holds the inputs of a single run.
type Config struct {
	LabelPath     string
	DetectionPath string
	Mode          Mode
	MaxGap        time.Duration // grouped mode only; zero disables the gap check

	// Report receives a summary table after the document has been written. Nil disables it.
	Report io.Writer
}

// Converter executes the pipeline against a filesystem.
type Converter struct {
	fs  afero.Fs
	log logger.Logger
}

// New returns a Converter reading inputs from fsys. A nil logger disables logging.
func New(fsys afero.Fs, log logger.Logger) *Converter {
	if log == nil {
		log = logger.NewSlogLogger(io.Discard, logger.LogLevelError, time.UTC)
	}
	return &Converter{
		fs:  fsys,
		log: log.Module("convert"),
	}
}

// Run converts the configured inputs and writes the JSON document to w. Nothing is written
// when an input file cannot be read.
func (c *Converter) Run(cfg Config, w io.Writer) error {
	mode, err := ParseMode(string(cfg.Mode))
	if err != nil {
		return err
	}

	start := time.Now()
	log := c.log.With(logger.String("mode", string(mode)))

	names, err := labels.Load(c.fs, cfg.LabelPath)
	if err != nil {
		return err
	}
	log.Debug("Labels loaded",
		logger.String("path", cfg.LabelPath),
		logger.Int("labels", len(names)))

	rows, stats, err := birddb.Load(c.fs, cfg.DetectionPath, names, birddb.Options{
		RequireConfidence: mode == ModeFlat,
	})
	if err != nil {
		return err
	}
	log.Debug("Detections parsed",
		logger.String("path", cfg.DetectionPath),
		logger.Bool("require_confidence", mode == ModeFlat),
		logger.Int("records", stats.Records),
		logger.Int("accepted", stats.Accepted),
		logger.Int("missing_field", stats.MissingField),
		logger.Int("bad_timestamp", stats.BadTimestamp),
		logger.Int("bad_confidence", stats.BadConfidence),
		logger.Int("malformed", stats.Malformed))

	var (
		output  any
		records int
	)
	switch mode {
	case ModeGrouped:
		groups := export.Grouped(rows, export.GroupOptions{MaxGap: cfg.MaxGap})
		output, records = groups, len(groups)
	default:
		detections := export.Flat(rows)
		output, records = detections, len(detections)
	}

	if err := export.Encode(w, output); err != nil {
		return err
	}

	elapsed := time.Since(start)
	log.Debug("Export completed",
		logger.Int("output_records", records),
		logger.Int("skipped", stats.Skipped()),
		logger.Float64("skipped_ratio", skippedRatio(stats)),
		logger.Duration("elapsed", elapsed))

	if cfg.Report == nil {
		return nil
	}
	return report.Render(cfg.Report, report.Summary{
		Mode:          string(mode),
		Labels:        len(names),
		Stats:         stats,
		OutputRecords: records,
		Elapsed:       elapsed,
	})
}

// skippedRatio is the share of data records that produced no row.
func skippedRatio(stats birddb.Stats) float64 {
	if stats.Records == 0 {
		return 0
	}
	return float64(stats.Skipped()) / float64(stats.Records)
}
