package json

import (
	"reflect"
	"strings"
	"testing"
)

func ids(doc Document) []string {
	out := make([]string, len(doc.Competitors))
	for i, c := range doc.Competitors {
		out[i] = c.ID
	}
	return out
}

/*
TestDecode_PreservesDocumentOrder verifies competitors come back in the order
their keys appear in the source, not sorted and not map order.
*/
func TestDecode_PreservesDocumentOrder(t *testing.T) {
	t.Parallel()

	const js = `{
	  "event": {"name": "Xmas Pursuit"},
	  "competitors": {
	    "30": {"compsailno": "300"},
	    "4":  {"compsailno": "40"},
	    "17": {"compsailno": "170"},
	    "1":  {"compsailno": "10"}
	  },
	  "races": [1, 2, 3]
	}`

	doc, err := DecodeBytes([]byte(js))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got, want := ids(doc), []string{"30", "4", "17", "1"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("ids = %v; want %v", got, want)
	}
	if got := doc.Competitors[2].Get("compsailno"); got != "170" {
		t.Fatalf("competitor 17 compsailno = %q; want 170", got)
	}
}

func TestDecode_MissingOrNullCompetitors(t *testing.T) {
	t.Parallel()

	for _, js := range []string{`{}`, `{"event": {}}`, `{"competitors": null}`, `{"competitors": {}}`} {
		doc, err := Decode(strings.NewReader(js))
		if err != nil {
			t.Fatalf("Decode(%s): %v", js, err)
		}
		if len(doc.Competitors) != 0 {
			t.Fatalf("Decode(%s) competitors = %d; want 0", js, len(doc.Competitors))
		}
	}
}

func TestDecode_ValueText(t *testing.T) {
	t.Parallel()

	const js = `{"competitors": {"1": {
	  "compsailno": 4645,
	  "comprating": 1.50,
	  "compmedicalflag": false,
	  "compnat": null,
	  "compclass": "ILCA 7",
	  "extra": {"b": 1, "a": [true, null]}
	}}}`

	doc, err := DecodeBytes([]byte(js))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	c := doc.Competitors[0]

	want := map[string]string{
		"compsailno":      "4645",
		"comprating":      "1.50",
		"compmedicalflag": "false",
		"compnat":         "",
		"compclass":       "ILCA 7",
		"extra":           `{"a":[true,null],"b":1}`,
	}
	for k, v := range want {
		if got := c.Get(k); got != v {
			t.Errorf("Get(%q) = %q; want %q", k, got, v)
		}
	}
	if got := c.Get("comphelmname"); got != "" {
		t.Fatalf("Get(missing) = %q; want empty", got)
	}
}

func TestDecode_DuplicateKeys(t *testing.T) {
	t.Parallel()

	const js = `{"competitors": {
	  "a": {"compsailno": "1"},
	  "b": {"compsailno": "2"},
	  "a": {"compsailno": "3", "compsailno": "4"}
	}}`

	doc, err := DecodeBytes([]byte(js))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got, want := ids(doc), []string{"a", "b"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("ids = %v; want %v", got, want)
	}
	if got := doc.Competitors[0].Get("compsailno"); got != "4" {
		t.Fatalf("a.compsailno = %q; want last value 4", got)
	}
}

func TestDecode_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		in      string
		wantMsg string
	}{
		{name: "empty", in: "", wantMsg: "empty input"},
		{name: "whitespace", in: "  \n", wantMsg: "empty input"},
		{name: "array root", in: `[{"competitors": {}}]`, wantMsg: "top-level value is an array"},
		{name: "string root", in: `"x"`, wantMsg: "top-level value is a string"},
		{name: "truncated", in: `{"competitors": {"1": {"compsailno": "1"`, wantMsg: "json parser"},
		{name: "unclosed root", in: `{"competitors": {}`, wantMsg: "decode root"},
		{name: "bad syntax", in: `{"competitors": {"1": {"compsailno": 'x'}}}`, wantMsg: "json parser"},
		{name: "competitors array", in: `{"competitors": [{"compsailno": "1"}]}`, wantMsg: `"competitors" is an array`},
		{name: "competitor string", in: `{"competitors": {"1": "placeholder"}}`, wantMsg: `competitor "1" is a string`},
		{name: "competitor null", in: `{"competitors": {"1": null}}`, wantMsg: `competitor "1" is null`},
		{name: "trailing object", in: `{} {}`, wantMsg: "trailing data"},
		{name: "trailing junk", in: `{"competitors": {}} x`, wantMsg: "trailing data"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := Decode(strings.NewReader(tc.in))
			if err == nil {
				t.Fatalf("Decode(%q) error = nil; want error", tc.in)
			}
			if !strings.Contains(err.Error(), tc.wantMsg) {
				t.Fatalf("Decode(%q) error = %q; want substring %q", tc.in, err, tc.wantMsg)
			}
		})
	}
}

func TestDecode_TrailingWhitespaceAccepted(t *testing.T) {
	t.Parallel()

	if _, err := Decode(strings.NewReader("{\"competitors\": {}}\n\n  ")); err != nil {
		t.Fatalf("Decode: %v", err)
	}
}
