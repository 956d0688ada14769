// Package labels loads the mapping from scientific species names to localized common names.
//
// The label file holds one entry per line in the form "Scientific name_Common name", where the
// first underscore separates the two parts. This is the same layout BirdNET uses for its locale
// label files, minus the species code suffix.
package labels

import (
	"bufio"
	"io"
	"strings"

	"github.com/spf13/afero"

	"github.com/tphakala/birddb-export/internal/errors"
	"github.com/tphakala/birddb-export/internal/textio"
)

// separator splits the scientific name from the common name.
const separator = "_"

// maxLineSize bounds a single label line.
const maxLineSize = 1024 * 1024

// Map maps a scientific name to its localized common name.
type Map map[string]string

// CommonName returns the common name for sciName, or an empty string when unknown.
func (m Map) CommonName(sciName string) string {
	return m[sciName]
}

// ParseLine splits a label line on its first underscore. ok is false for blank lines, lines
// without a separator and lines with an empty scientific name.
func ParseLine(line string) (sciName, commonName string, ok bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return "", "", false
	}

	sciName, commonName, found := strings.Cut(line, separator)
	if !found {
		return "", "", false
	}

	sciName = strings.TrimSpace(sciName)
	commonName = strings.TrimSpace(commonName)
	if sciName == "" {
		return "", "", false
	}

	return sciName, commonName, true
}

// Parse reads label lines from r. Malformed lines are skipped; a later line for the same
// scientific name overwrites an earlier one.
func Parse(r io.Reader) (Map, error) {
	return parse(r, "")
}

// parse implements Parse. path only annotates errors and may be empty.
func parse(r io.Reader, path string) (Map, error) {
	mapping := make(Map)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, bufio.MaxScanTokenSize), maxLineSize)
	for scanner.Scan() {
		sciName, commonName, ok := ParseLine(scanner.Text())
		if !ok {
			continue
		}
		mapping[sciName] = commonName
	}

	if err := scanner.Err(); err != nil {
		name := path
		if name == "" {
			name = "label data"
		}
		return nil, errors.Newf("error reading %s: %w", name, err).
			Category(errors.CategoryLabelLoad).
			FileContext(path).
			Build()
	}

	return mapping, nil
}

// Load opens the label file at path on fsys and parses it.
func Load(fsys afero.Fs, path string) (Map, error) {
	file, err := fsys.Open(path)
	if err != nil {
		return nil, errors.Newf("failed to open label file: %w", err).
			Category(errors.CategoryLabelLoad).
			FileContext(path).
			Build()
	}
	defer file.Close()

	return parse(textio.NewReader(file), path)
}
