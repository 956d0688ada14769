package birddb

import (
	"io"
	"io/fs"
	"strings"
	"testing"
	"testing/iotest"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/birddb-export/internal/errors"
)

// names is a minimal Lookup for tests.
type names map[string]string

func (n names) CommonName(sciName string) string { return n[sciName] }

var testNames = names{
	"Turdus merula":      "Merle noir",
	"Erithacus rubecula": "Rougegorge familier",
}

var flatOptions = Options{RequireConfidence: true}

func mustTime(t *testing.T, value string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.DateTime, value)
	require.NoError(t, err)
	return ts
}

func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		date    string
		clock   string
		want    string
		wantErr bool
	}{
		{"canonical", "2024-05-01", "06:30:00", "2024-05-01 06:30:00", false},
		{"single digit fields", "2024-5-1", "6:3:9", "2024-05-01 06:03:09", false},
		{"end of day", "2024-12-31", "23:59:59", "2024-12-31 23:59:59", false},
		{"leap day", "2024-02-29", "00:00:00", "2024-02-29 00:00:00", false},
		{"not a leap year", "2023-02-29", "00:00:00", "", true},
		{"month out of range", "2024-13-01", "00:00:00", "", true},
		{"hour out of range", "2024-05-01", "24:00:00", "", true},
		{"missing seconds", "2024-05-01", "06:30", "", true},
		{"fractional seconds", "2024-05-01", "06:30:00.5", "", true},
		{"zero fraction", "2024-05-01", "06:30:00.000", "", true},
		{"comma fraction", "2024-05-01", "06:30:00,000", "", true},
		{"wrong separator", "2024/05/01", "06:30:00", "", true},
		{"two digit year", "24-05-01", "06:30:00", "", true},
		{"year zero", "0000-01-01", "00:00:00", "", true},
		{"garbage", "yesterday", "noon", "", true},
		{"trailing text", "2024-05-01", "06:30:00 UTC", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ts, err := ParseTimestamp(tt.date, tt.clock)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, ts.Format(time.DateTime))
		})
	}
}

func TestParseConfidence(t *testing.T) {
	t.Parallel()

	tests := []struct {
		value   string
		want    float64
		wantErr bool
	}{
		{"0.87", 0.87, false},
		{"1", 1, false},
		{"1e-3", 0.001, false},
		{"-0.5", -0.5, false},
		{"n/a", 0, true},
		{"0,87", 0, true},
		{"NaN", 0, true},
		{"inf", 0, true},
		{"-Infinity", 0, true},
		{"1e400", 0, true},
		{"0x1p-3", 0, true},
		{"-0X1p-3", 0, true},
		{"+0x0.8p0", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Parallel()

			got, err := ParseConfidence(tt.value)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}
}

func TestParseFlatRoundTrip(t *testing.T) {
	t.Parallel()

	input := "Date;Time;Sci_Name;Com_Name;Confidence\n" +
		"2024-05-01;06:30:00;Turdus merula;Common Blackbird;0.87\n"

	rows, stats, err := Parse(strings.NewReader(input), testNames, flatOptions)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	assert.Equal(t, Row{
		Timestamp:      mustTime(t, "2024-05-01 06:30:00"),
		ScientificName: "Turdus merula",
		CommonName:     "Merle noir",
		Confidence:     0.87,
		HasConfidence:  true,
	}, rows[0])
	assert.Equal(t, Stats{Records: 1, Accepted: 1}, stats)
}

func TestParseSkipsInvalidRows(t *testing.T) {
	t.Parallel()

	input := strings.Join([]string{
		"Date;Time;Sci_Name;Confidence",
		"2024-05-01;06:30:00;Turdus merula;0.87",
		";06:31:00;Turdus merula;0.80",            // missing date
		"2024-05-01; ;Turdus merula;0.80",         // blank time
		"2024-05-01;06:32:00;   ;0.80",            // blank name
		"2024-05-01;06:33:00;Turdus merula;",      // missing confidence
		"2024-05-01;06:34:00;Turdus merula;n/a",   // bad confidence
		"2024-05-01;6h35;Turdus merula;0.80",      // bad time
		"2024-05-01;06:36:00",                     // short record
		"2024-05-01;06:37:00;Parus major;0.5;x;y", // extra fields ignored
		"2024-05-01;06:38:00;Erithacus rubecula;0.91",
	}, "\n")

	rows, stats, err := Parse(strings.NewReader(input), testNames, flatOptions)
	require.NoError(t, err)

	require.Len(t, rows, 3)
	assert.Equal(t, "Turdus merula", rows[0].ScientificName)
	assert.Equal(t, "Parus major", rows[1].ScientificName)
	assert.Empty(t, rows[1].CommonName)
	assert.Equal(t, "Erithacus rubecula", rows[2].ScientificName)
	assert.Equal(t, "Rougegorge familier", rows[2].CommonName)

	assert.Equal(t, Stats{
		Records:       10,
		Accepted:      3,
		MissingField:  5,
		BadTimestamp:  1,
		BadConfidence: 1,
	}, stats)
	assert.Equal(t, 7, stats.Skipped())
}

func TestParseWithoutConfidence(t *testing.T) {
	t.Parallel()

	input := "Date;Time;Sci_Name;Confidence\n" +
		"2024-05-01;06:30:00;Turdus merula;n/a\n" +
		"2024-05-01;06:31:00;Turdus merula;\n"

	rows, stats, err := Parse(strings.NewReader(input), testNames, Options{})
	require.NoError(t, err)

	require.Len(t, rows, 2)
	for _, row := range rows {
		assert.False(t, row.HasConfidence)
		assert.Zero(t, row.Confidence)
	}
	assert.Equal(t, 2, stats.Accepted)
}

func TestParseHeaderHandling(t *testing.T) {
	t.Parallel()

	t.Run("column order follows header", func(t *testing.T) {
		t.Parallel()

		input := "Confidence;Sci_Name;Time;Date\n0.5;Turdus merula;06:30:00;2024-05-01\n"
		rows, _, err := Parse(strings.NewReader(input), testNames, flatOptions)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.InDelta(t, 0.5, rows[0].Confidence, 1e-12)
	})

	t.Run("duplicate column uses last occurrence", func(t *testing.T) {
		t.Parallel()

		input := "Date;Time;Sci_Name;Sci_Name;Confidence\n2024-05-01;06:30:00;Ignored;Turdus merula;0.5\n"
		rows, _, err := Parse(strings.NewReader(input), testNames, flatOptions)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "Turdus merula", rows[0].ScientificName)
	})

	t.Run("missing column skips every row", func(t *testing.T) {
		t.Parallel()

		input := "Date;Time;Species;Confidence\n2024-05-01;06:30:00;Turdus merula;0.5\n"
		rows, stats, err := Parse(strings.NewReader(input), testNames, flatOptions)
		require.NoError(t, err)
		assert.Empty(t, rows)
		assert.Equal(t, 1, stats.MissingField)
	})

	t.Run("empty input", func(t *testing.T) {
		t.Parallel()

		rows, stats, err := Parse(strings.NewReader(""), testNames, flatOptions)
		require.NoError(t, err)
		assert.NotNil(t, rows)
		assert.Empty(t, rows)
		assert.Zero(t, stats.Records)
	})

	t.Run("header only", func(t *testing.T) {
		t.Parallel()

		rows, _, err := Parse(strings.NewReader("Date;Time;Sci_Name;Confidence\n"), testNames, flatOptions)
		require.NoError(t, err)
		assert.Empty(t, rows)
	})
}

func TestParseQuotedFields(t *testing.T) {
	t.Parallel()

	input := "Date;Time;Sci_Name;Confidence\n" +
		"\"2024-05-01\";\"06:30:00\";\"Turdus merula\";\"0.87\"\n" +
		"2024-05-01;06:31:00;Turdus \"merula;0.5\n"

	rows, stats, err := Parse(strings.NewReader(input), testNames, flatOptions)
	require.NoError(t, err)

	require.Len(t, rows, 2)
	assert.Equal(t, "Merle noir", rows[0].CommonName)
	assert.Equal(t, `Turdus "merula`, rows[1].ScientificName)
	assert.Equal(t, 2, stats.Accepted)
}

func TestParseReaderError(t *testing.T) {
	t.Parallel()

	r := iotest.ErrReader(iotest.ErrTimeout)
	_, _, err := Parse(r, testNames, flatOptions)
	require.Error(t, err)
	assert.ErrorIs(t, err, iotest.ErrTimeout)
}

func TestParseRecordReadError(t *testing.T) {
	t.Parallel()

	r := io.MultiReader(
		strings.NewReader("Date;Time;Sci_Name;Confidence\n"),
		iotest.ErrReader(iotest.ErrTimeout),
	)
	_, _, err := Parse(r, testNames, flatOptions)
	require.Error(t, err)
	assert.ErrorIs(t, err, iotest.ErrTimeout)
	assert.True(t, errors.IsCategory(err, errors.CategoryFileIO))
}

func TestParseNilLookup(t *testing.T) {
	t.Parallel()

	input := "Date;Time;Sci_Name;Confidence\n2024-05-01;06:30:00;Turdus merula;0.87\n"
	rows, _, err := Parse(strings.NewReader(input), nil, flatOptions)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Empty(t, rows[0].CommonName)
}

func TestLoad(t *testing.T) {
	t.Parallel()

	fsys := afero.NewMemMapFs()
	content := "\ufeffDate;Time;Sci_Name;Confidence\r\n2024-05-01;06:30:00;Turdus merula;0.87\r\n"
	require.NoError(t, afero.WriteFile(fsys, "BirdDB.txt", []byte(content), 0o644))

	rows, stats, err := Load(fsys, "BirdDB.txt", testNames, flatOptions)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Merle noir", rows[0].CommonName)
	assert.Equal(t, 1, stats.Accepted)
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	_, _, err := Load(afero.NewMemMapFs(), "BirdDB.txt", testNames, flatOptions)
	require.Error(t, err)
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.True(t, errors.IsCategory(err, errors.CategoryFileIO))

	var ee *errors.EnhancedError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, "birddb", ee.GetComponent())
}

// failingFs opens files whose reads always fail.
type failingFs struct{ afero.Fs }

func (f failingFs) Open(name string) (afero.File, error) {
	file, err := f.Fs.Open(name)
	if err != nil {
		return nil, err
	}
	return failingFile{file}, nil
}

type failingFile struct{ afero.File }

func (failingFile) Read([]byte) (int, error) { return 0, iotest.ErrTimeout }

// Hooks are global, so this test does not run in parallel.
func TestLoadReadErrorBuiltOnce(t *testing.T) {
	errors.ClearErrorHooks()
	t.Cleanup(errors.ClearErrorHooks)

	var built []*errors.EnhancedError
	errors.AddErrorHook(func(ee *errors.EnhancedError) {
		built = append(built, ee)
	})

	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "BirdDB.txt", []byte("Date;Time\n"), 0o644))

	_, _, err := Load(failingFs{fsys}, "BirdDB.txt", testNames, flatOptions)
	require.Error(t, err)
	assert.ErrorIs(t, err, iotest.ErrTimeout)
	assert.Contains(t, err.Error(), "BirdDB.txt")

	require.Len(t, built, 1)
	assert.Same(t, built[0], err)
	assert.Equal(t, errors.CategoryFileParsing, built[0].Category)
	assert.Equal(t, "birddb", built[0].GetComponent())
	assert.Equal(t, "BirdDB.txt", built[0].GetContext()["file_path"])
}
