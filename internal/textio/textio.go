// Package textio decodes text inputs as UTF-8, dropping a leading byte order mark.
package textio

import (
	"io"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// NewReader wraps r so that a leading UTF-8 or UTF-16 byte order mark is consumed and the
// remaining content is delivered as UTF-8. Input without a BOM is passed through as UTF-8;
// invalid byte sequences are replaced with U+FFFD.
func NewReader(r io.Reader) io.Reader {
	return transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
}
