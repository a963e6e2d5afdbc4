package lookup

import (
	"errors"
	"strings"
	"testing"
	"testing/iotest"

	"bezirk_scanner/internal/streets"
)

func TestParseLastWriteWins(t *testing.T) {
	table, err := Parse(strings.NewReader("Hauptstr;Bezirk 4\nHauptstr;Bezirk 5"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, ok := table.Lookup("hauptstr.")
	if !ok || got != "Bezirk 5" {
		t.Fatalf("expected Bezirk 5, got %q (found=%v)", got, ok)
	}
	if table.Len() != 1 {
		t.Fatalf("expected 1 entry, got %d", table.Len())
	}
}

func TestParseBytesLines(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  map[string]string
	}{
		{
			name:  "semicolon",
			input: "Musterweg;Bezirk 9",
			want:  map[string]string{"musterweg": "Bezirk 9"},
		},
		{
			name:  "comma",
			input: "Am Markt,Bezirk 2",
			want:  map[string]string{"am-markt": "Bezirk 2"},
		},
		{
			name:  "semicolon wins over comma",
			input: "Weg 1, links;Bezirk 3",
			want:  map[string]string{"weg-1,-links": "Bezirk 3"},
		},
		{
			name:  "fields trimmed and extra columns ignored",
			input: "  Musterweg ;  Bezirk 9 ; Kommentar",
			want:  map[string]string{"musterweg": "Bezirk 9"},
		},
		{
			name:  "blank and malformed lines skipped",
			input: "\n   \nnur eine Spalte\n;Bezirk 1\nMusterweg;\nMusterweg;Bezirk 9\n",
			want:  map[string]string{"musterweg": "Bezirk 9"},
		},
		{
			name:  "crlf",
			input: "Musterweg;Bezirk 9\r\nAm Markt;Bezirk 2\r\n",
			want:  map[string]string{"musterweg": "Bezirk 9", "am-markt": "Bezirk 2"},
		},
		{
			name:  "utf8 bom",
			input: "\xef\xbb\xbfMusterweg;Bezirk 9",
			want:  map[string]string{"musterweg": "Bezirk 9"},
		},
		{
			name:  "windows-1252",
			input: "Gro\xdfe Gasse;Bezirk 3",
			want:  map[string]string{"große-gasse": "Bezirk 3"},
		},
		{
			name:  "header is data by default",
			input: "Strasse;Bezirk\nMusterweg;Bezirk 9",
			want:  map[string]string{streets.NormalizeStreetName("Strasse"): "Bezirk", "musterweg": "Bezirk 9"},
		},
		{
			name:  "empty",
			input: "",
			want:  map[string]string{},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			table := ParseBytes([]byte(tc.input))
			if table.Len() != len(tc.want) {
				t.Fatalf("expected %d entries, got %d: %+v", len(tc.want), table.Len(), table.Entries())
			}
			for key, district := range tc.want {
				got, ok := table.Lookup(key)
				if !ok || got != district {
					t.Fatalf("expected %q -> %q, got %q (found=%v)", key, district, got, ok)
				}
			}
		})
	}
}

func TestParseSkipHeader(t *testing.T) {
	table := ParseBytes([]byte("\nStrasse;Bezirk\nMusterweg;Bezirk 9"), SkipHeader(true))
	if table.Len() != 1 {
		t.Fatalf("expected header to be dropped, got %+v", table.Entries())
	}
	if _, ok := table.Lookup("musterweg"); !ok {
		t.Fatalf("expected musterweg to be imported")
	}
}

func TestParseKeysMatchResolver(t *testing.T) {
	table := ParseBytes([]byte("Lindenallee;Bezirk 6"))

	got := streets.Resolve("Lindenallee", "4", table)
	if got.District != "Bezirk 6" {
		t.Fatalf("expected resolver to find imported key, got %q", got.District)
	}
}

func TestParseReadError(t *testing.T) {
	boom := errors.New("disk on fire")

	table, err := Parse(iotest.ErrReader(boom))
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped read error, got %v", err)
	}
	if table != nil {
		t.Fatalf("expected no table on read failure")
	}
}

func TestNilTable(t *testing.T) {
	var table *Table
	if _, ok := table.Lookup("musterweg"); ok {
		t.Fatal("nil table should not find anything")
	}
	if table.Len() != 0 || table.Entries() != nil {
		t.Fatal("nil table should be empty")
	}
}

func TestNewCopiesEntries(t *testing.T) {
	source := map[string]string{"musterweg": "Bezirk 9"}
	table := New(source)
	source["musterweg"] = "Bezirk 1"

	if got, _ := table.Lookup("musterweg"); got != "Bezirk 9" {
		t.Fatalf("expected table to keep its own copy, got %q", got)
	}
}
