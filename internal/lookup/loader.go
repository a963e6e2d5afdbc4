package lookup

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"bezirk_scanner/internal/streets"
)

type options struct {
	skipHeader bool
}

// Option configures Parse.
type Option func(*options)

// SkipHeader drops the first non-blank line. Off by default: a header such
// as "Straße;Bezirk" is otherwise imported like any other row.
func SkipHeader(skip bool) Option {
	return func(o *options) {
		o.skipHeader = skip
	}
}

// Parse reads a delimited street;district file. Only a read failure is an
// error; malformed lines are skipped.
func Parse(r io.Reader, opts ...Option) (*Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read lookup table: %w", err)
	}
	return ParseBytes(data, opts...), nil
}

// ParseBytes is Parse over an in-memory file.
//
// Each non-blank line is split on ";" when it contains one and on ","
// otherwise. The first field is the street, the second the district; both
// are trimmed and the line is dropped if either is empty. Keys are
// normalized with streets.NormalizeStreetName and later lines overwrite
// earlier ones.
func ParseBytes(data []byte, opts ...Option) *Table {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	entries := make(map[string]string)
	headerPending := o.skipHeader

	for _, line := range strings.Split(decode(data), "\n") {
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		if headerPending {
			headerPending = false
			continue
		}

		street, district, ok := splitRow(line)
		if !ok {
			continue
		}
		entries[streets.NormalizeStreetName(street)] = district
	}

	return &Table{entries: entries}
}

// splitRow applies the per-line delimiter rule and returns the first two
// trimmed fields.
func splitRow(line string) (string, string, bool) {
	delim := ","
	if strings.Contains(line, ";") {
		delim = ";"
	}

	fields := strings.Split(line, delim)
	if len(fields) < 2 {
		return "", "", false
	}

	street := strings.TrimSpace(fields[0])
	district := strings.TrimSpace(fields[1])
	if street == "" || district == "" {
		return "", "", false
	}
	return street, district, true
}

// decode turns the upload into text. UTF-8 input loses its BOM; anything
// that is not valid UTF-8 is read as Windows-1252, which is what Excel
// writes for "CSV (Trennzeichen-getrennt)" on German systems.
func decode(data []byte) string {
	if utf8.Valid(data) {
		out, _, err := transform.Bytes(unicode.UTF8BOM.NewDecoder(), data)
		if err != nil {
			return string(data)
		}
		return string(out)
	}

	out, _, err := transform.Bytes(charmap.Windows1252.NewDecoder(), data)
	if err != nil {
		return string(data)
	}
	return string(out)
}
