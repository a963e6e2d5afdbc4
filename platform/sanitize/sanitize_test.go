package sanitize

import "testing"

func TestText(t *testing.T) {
	cases := map[string]string{
		"Gereonstraße":                      "Gereonstraße",
		"  <b>Rheinblick</b> ":              "Rheinblick",
		"&lt;script&gt;x&lt;/script&gt;Weg": "xWeg",
		"Am\x00 Markt":                      "Am Markt",
	}
	for in, want := range cases {
		if got := Text(in); got != want {
			t.Fatalf("Text(%q): expected %q, got %q", in, want, got)
		}
	}
}

func TestJSONPayload(t *testing.T) {
	cases := map[string]string{
		`{"street":"A"}`:                   `{"street":"A"}`,
		"```json\n{\"street\":\"A\"}\n```": `{"street":"A"}`,
		"```\n{\"street\":\"A\"}```":       `{"street":"A"}`,
		"  {\"street\":\"A\"}\n":           `{"street":"A"}`,
	}
	for in, want := range cases {
		if got := JSONPayload(in); got != want {
			t.Fatalf("JSONPayload(%q): expected %q, got %q", in, want, got)
		}
	}
}
