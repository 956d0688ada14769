//go:build ruleguard

package gorules

import "github.com/quasilyte/go-ruleguard/dsl"

// StdoutReserved detects direct writes to standard output from internal packages.
//
// Standard output carries only the exported JSON document. Diagnostics go
// through internal/logger, which writes to standard error, and documents go
// through the io.Writer handed to convert.Converter.Run.
//
// Problematic pattern:
//
//	fmt.Println("loaded", n, "labels")
//	fmt.Fprintf(os.Stdout, "...")
//
// Correct pattern:
//
//	log.Debug("Labels loaded", logger.Int("labels", n))
func StdoutReserved(m dsl.Matcher) {
	m.Match(
		`fmt.Print($*_)`,
		`fmt.Printf($*_)`,
		`fmt.Println($*_)`,
	).
		Where(m.File().PkgPath.Matches(`/internal/`) && !m.File().Name.Matches(`_test\.go$`)).
		Report("internal packages must not print to stdout; log through internal/logger")

	m.Match(
		`fmt.Fprint(os.Stdout, $*_)`,
		`fmt.Fprintf(os.Stdout, $*_)`,
		`fmt.Fprintln(os.Stdout, $*_)`,
		`os.Stdout.Write($*_)`,
		`os.Stdout.WriteString($*_)`,
	).
		Where(m.File().PkgPath.Matches(`/internal/`)).
		Report("internal packages must write output through the io.Writer they are given")
}

// JSONEncoding detects json.Marshal variants in output code.
//
// Exported documents are written with export.Encode so that indentation,
// HTML escaping and the trailing newline are the same in every mode.
//
// Problematic pattern:
//
//	data, _ := json.MarshalIndent(records, "", "  ")
//	w.Write(data)
//
// Correct pattern:
//
//	err := export.Encode(w, records)
func JSONEncoding(m dsl.Matcher) {
	m.Match(
		`json.MarshalIndent($*_)`,
		`json.NewEncoder($w).Encode($*_)`,
	).
		Where(m.File().PkgPath.Matches(`/internal/`) &&
			!m.File().PkgPath.Matches(`/internal/(export|logger)$`) &&
			!m.File().Name.Matches(`_test\.go$`)).
		Report("write exported documents with export.Encode")
}
