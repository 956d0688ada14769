// Package report renders a per-run summary of the conversion for humans.
package report

import (
	"io"
	"os"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"github.com/tphakala/birddb-export/internal/birddb"
	"github.com/tphakala/birddb-export/internal/errors"
)

// Summary describes a finished run.
type Summary struct {
	Mode          string
	Labels        int
	Stats         birddb.Stats
	OutputRecords int
	Elapsed       time.Duration
}

// Render writes the summary as a table to w. Rounded box drawing is used on terminals and
// plain ASCII otherwise, so redirected output stays greppable.
func Render(w io.Writer, s Summary) error {
	tw := table.NewWriter()
	tw.SetStyle(styleFor(w))
	tw.SetTitle("BirdDB export (" + s.Mode + ")")
	tw.AppendHeader(table.Row{"Item", "Count"})

	rows := []struct {
		label string
		value int
	}{
		{"Labels loaded", s.Labels},
		{"Records read", s.Stats.Records},
		{"Accepted", s.Stats.Accepted},
		{"Skipped: missing field", s.Stats.MissingField},
		{"Skipped: bad timestamp", s.Stats.BadTimestamp},
		{"Skipped: bad confidence", s.Stats.BadConfidence},
		{"Skipped: malformed", s.Stats.Malformed},
		{"Output records", s.OutputRecords},
	}
	for _, r := range rows {
		tw.AppendRow(table.Row{r.label, strconv.Itoa(r.value)})
	}
	tw.AppendFooter(table.Row{"Elapsed", s.Elapsed.Round(time.Millisecond).String()})

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft, AlignHeader: text.AlignLeft},
		{Number: 2, Align: text.AlignRight, AlignHeader: text.AlignRight, AlignFooter: text.AlignRight},
	})

	if _, err := io.WriteString(w, tw.Render()+"\n"); err != nil {
		return errors.New(err).
			Category(errors.CategoryFileIO).
			Context("operation", "write_summary").
			Build()
	}
	return nil
}

func styleFor(w io.Writer) table.Style {
	if isTerminal(w) {
		return table.StyleRounded
	}
	return table.StyleDefault
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
