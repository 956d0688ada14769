//go:build ruleguard

package gorules

import "github.com/quasilyte/go-ruleguard/dsl"

// ExportTimestampLayout detects the ISO-8601 output layout written as a literal
// and suggests the shared constant.
//
// Old pattern:
//
//	ts.Format("2006-01-02T15:04:05")
//
// New pattern:
//
//	ts.Format(export.TimestampLayout)
//
// Output timestamps must stay byte-identical across flat and grouped records,
// so the layout has exactly one definition.
func ExportTimestampLayout(m dsl.Matcher) {
	m.Match(
		`$t.Format("2006-01-02T15:04:05")`,
	).
		Where(m["t"].Type.Is("time.Time")).
		Report(`use $t.Format(export.TimestampLayout) instead of a literal layout`)

	m.Match(
		`time.Parse("2006-01-02T15:04:05", $s)`,
	).
		Report(`use time.Parse(export.TimestampLayout, $s) instead of a literal layout`)
}

// TimeDateTimeConstants detects magic date/time format strings and suggests
// using the named constants added in Go 1.20.
//
// Old pattern:
//
//	t.Format("2006-01-02 15:04:05")
//
// New pattern (Go 1.20+):
//
//	t.Format(time.DateTime)
//
// See: https://pkg.go.dev/time#pkg-constants (DateTime, DateOnly, TimeOnly)
func TimeDateTimeConstants(m dsl.Matcher) {
	m.Match(
		`$t.Format("2006-01-02 15:04:05")`,
	).
		Report(`use $t.Format(time.DateTime) instead of magic format string (Go 1.20+)`).
		Suggest(`$t.Format(time.DateTime)`)

	m.Match(
		`time.Parse("2006-01-02 15:04:05", $s)`,
	).
		Report(`use time.Parse(time.DateTime, $s) instead of magic format string (Go 1.20+)`).
		Suggest(`time.Parse(time.DateTime, $s)`)
}
