//go:build ruleguard

package gorules

import "github.com/quasilyte/go-ruleguard/dsl"

// ErrorComparison detects direct comparison against sentinel errors.
//
// Loader errors are wrapped in *errors.EnhancedError, so == never matches
// the underlying cause.
//
// Old pattern:
//
//	if err == io.EOF {
//
// New pattern:
//
//	if errors.Is(err, io.EOF) {
func ErrorComparison(m dsl.Matcher) {
	m.Match(
		`$err == $sentinel`,
		`$sentinel == $err`,
	).
		Where(m["err"].Type.Is("error") &&
			m["sentinel"].Text.Matches(`^(io\.EOF|io\.ErrUnexpectedEOF|fs\.Err\w+|os\.Err\w+)$`)).
		Report("use errors.Is($err, $sentinel) instead of ==").
		Suggest("errors.Is($err, $sentinel)")
}

// OSNotExist detects os.IsNotExist and os.IsExist, which do not unwrap.
//
// See: https://pkg.go.dev/os#IsNotExist
func OSNotExist(m dsl.Matcher) {
	m.Match(`os.IsNotExist($err)`).
		Report("use errors.Is($err, fs.ErrNotExist); os.IsNotExist does not unwrap").
		Suggest("errors.Is($err, fs.ErrNotExist)")

	m.Match(`os.IsExist($err)`).
		Report("use errors.Is($err, fs.ErrExist); os.IsExist does not unwrap").
		Suggest("errors.Is($err, fs.ErrExist)")
}
