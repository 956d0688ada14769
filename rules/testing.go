//go:build ruleguard

package gorules

import "github.com/quasilyte/go-ruleguard/dsl"

// TempFilesInTests detects on-disk fixtures in tests.
//
// Loaders accept an afero.Fs; tests build fixtures on afero.NewMemMapFs.
//
// Problematic pattern:
//
//	dir := t.TempDir()
//	os.WriteFile(filepath.Join(dir, "labels.txt"), data, 0o644)
//
// Correct pattern:
//
//	fsys := afero.NewMemMapFs()
//	afero.WriteFile(fsys, "labels.txt", data, 0o644)
func TempFilesInTests(m dsl.Matcher) {
	m.Match(
		`os.WriteFile($*_)`,
		`os.CreateTemp($*_)`,
	).
		Where(m.File().Name.Matches(`_test\.go$`)).
		Report("build test fixtures on afero.NewMemMapFs instead of the real filesystem")
}

// BenchmarkLoop detects the old benchmark iteration pattern and suggests using b.Loop().
//
// See: https://pkg.go.dev/testing#B.Loop
func BenchmarkLoop(m dsl.Matcher) {
	m.Match(
		`for $i := 0; $i < $b.N; $i++ { $*body }`,
	).
		Where(m["b"].Type.Is("*testing.B")).
		Report("use for $b.Loop() { ... } instead of for $i := 0; $i < $b.N; $i++ (Go 1.24+); if using $i in body, declare it separately")

	m.Match(
		`for range $b.N { $*body }`,
	).
		Where(m["b"].Type.Is("*testing.B")).
		Report("use for $b.Loop() { ... } instead of for range $b.N (Go 1.24+)").
		Suggest("for $b.Loop() { $body }")
}
