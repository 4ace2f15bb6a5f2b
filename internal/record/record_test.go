package record

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseQuotedCommas(t *testing.T) {
	rec, err := Parse(`key1="a, b",key2=3,key3=4.5`)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	v, ok := rec.Get("key1")
	if !ok || v.Kind != KindString || v.Str != "a, b" {
		t.Errorf("Expected key1 to be string %q, got %+v", "a, b", v)
	}

	v, ok = rec.Get("key2")
	if !ok || v.Kind != KindInt || v.Int != 3 {
		t.Errorf("Expected key2 to be int 3, got %+v", v)
	}

	v, ok = rec.Get("key3")
	if !ok || v.Kind != KindFloat || v.Float != 4.5 {
		t.Errorf("Expected key3 to be float 4.5, got %+v", v)
	}

	if rec.Len() != 3 {
		t.Errorf("Expected 3 fields, got %d", rec.Len())
	}
}

func TestParseQuoteInsideValue(t *testing.T) {
	tests := []struct {
		raw      string
		key      string
		expected string
	}{
		{`msg=pre"a, b"post`, "msg", "pre" + "a, b" + "post"},
		{`file=/data/"m 51".fits, stat="OK"`, "file", "/data/m 51.fits"},
		{`msg=x"1"y"2"z`, "msg", "x1y2z"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			rec, err := Parse(tt.raw)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			v, ok := rec.Get(tt.key)
			if !ok || v.Kind != KindString || v.Str != tt.expected {
				t.Errorf("Expected %s to be string %q, got %+v", tt.key, tt.expected, v)
			}
		})
	}
}

func TestParseMontageResponse(t *testing.T) {
	raw := `[struct stat="OK", msg="Done, mostly", naxis1=2048, naxis2=1024, crval1=83.633, bunit="MJy/sr", ctype1="RA---TAN"]`
	rec, err := Parse(raw)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	expectedKeys := []string{"stat", "msg", "naxis1", "naxis2", "crval1", "bunit", "ctype1"}
	keys := rec.Keys()
	if len(keys) != len(expectedKeys) {
		t.Fatalf("Expected keys %v, got %v", expectedKeys, keys)
	}
	for i := range expectedKeys {
		if keys[i] != expectedKeys[i] {
			t.Errorf("Expected key %d to be %s, got %s", i, expectedKeys[i], keys[i])
		}
	}

	if s := rec.Lookup("msg"); s != "Done, mostly" {
		t.Errorf("Expected msg %q, got %q", "Done, mostly", s)
	}

	w, err := rec.Int("naxis1")
	if err != nil || w != 2048 {
		t.Errorf("Expected naxis1 2048, got %d (%v)", w, err)
	}

	f, err := rec.Float("naxis2")
	if err != nil || f != 1024 {
		t.Errorf("Expected naxis2 as float 1024, got %v (%v)", f, err)
	}
}

func TestParseValueCoercion(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		key      string
		expected Value
	}{
		{name: "integer", raw: "a=42", key: "a", expected: Value{Kind: KindInt, Int: 42}},
		{name: "negative integer", raw: "a=-7", key: "a", expected: Value{Kind: KindInt, Int: -7}},
		{name: "float", raw: "a=1.5e3", key: "a", expected: Value{Kind: KindFloat, Float: 1500}},
		{name: "bare token", raw: "stat=OK", key: "stat", expected: Value{Kind: KindString, Str: "OK"}},
		{name: "quoted number stays string", raw: `a="12"`, key: "a", expected: Value{Kind: KindString, Str: "12"}},
		{name: "empty value", raw: "a=", key: "a", expected: Value{Kind: KindString, Str: ""}},
		{name: "nan stays text", raw: "a=nan", key: "a", expected: Value{Kind: KindString, Str: "nan"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := Parse(tt.raw)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			v, ok := rec.Get(tt.key)
			if !ok {
				t.Fatalf("Expected key %s to be present", tt.key)
			}
			if v != tt.expected {
				t.Errorf("Expected %+v, got %+v", tt.expected, v)
			}
		})
	}
}

func TestParseMalformed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "unquoted delimiter in value", raw: "[struct stat=OK, msg=bad, value]"},
		{name: "missing equals", raw: "novalue"},
		{name: "unterminated quote", raw: `[struct msg="never closed]`},
		{name: "empty key", raw: "=3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.raw)
			var malformed *MalformedRecordError
			if !errors.As(err, &malformed) {
				t.Errorf("Expected MalformedRecordError, got %v", err)
			}
		})
	}
}

func TestParseDuplicateKeys(t *testing.T) {
	rec, err := Parse("a=1, b=2, a=3")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	v, _ := rec.Get("a")
	if v.Int != 3 {
		t.Errorf("Expected last write to win (3), got %d", v.Int)
	}

	dups := rec.Duplicates()
	if len(dups) != 1 || dups[0] != "a" {
		t.Errorf("Expected duplicate key a to be flagged, got %v", dups)
	}

	if rec.Len() != 2 {
		t.Errorf("Expected 2 distinct keys, got %d", rec.Len())
	}
}

func TestParseEmptyStruct(t *testing.T) {
	rec, err := Parse("[struct ]")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if rec.Len() != 0 {
		t.Errorf("Expected empty record, got %d fields", rec.Len())
	}
}

func TestAccessorErrors(t *testing.T) {
	rec, err := Parse(`stat="OK"`)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if _, err := rec.Int("naxis1"); !errors.Is(err, ErrFieldMissing) {
		t.Errorf("Expected ErrFieldMissing, got %v", err)
	}
	if _, err := rec.Float("stat"); err == nil {
		t.Error("Expected error reading a string field as float")
	}
}

func TestMarshalJSONKeepsOrder(t *testing.T) {
	rec, err := Parse(`[struct stat="OK", fluxref=1.25, xref=10, note="a, b"]`)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	expected := `{"stat":"OK","fluxref":1.25,"xref":10,"note":"a, b"}`
	if string(data) != expected {
		t.Errorf("Expected %s, got %s", expected, string(data))
	}
}
