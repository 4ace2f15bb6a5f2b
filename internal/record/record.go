// Package record decodes the single-line "[struct key=value, ...]" diagnostic
// records printed by the Montage command line tools.
package record

import (
	"bytes"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	prefix = "[struct "
	suffix = "]"
)

// Kind identifies which member of a Value is populated
type Kind int

const (
	KindString Kind = iota
	KindInt
	KindFloat
)

// Value is exactly one of an integer, a float or a string
type Value struct {
	Kind  Kind
	Int   int64
	Float float64
	Str   string
}

func (v Value) String() string {
	switch v.Kind {
	case KindInt:
		return strconv.FormatInt(v.Int, 10)
	case KindFloat:
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	default:
		return v.Str
	}
}

// MalformedRecordError is returned when a response cannot be split into key=value pairs
type MalformedRecordError struct {
	Raw    string
	Reason string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed record (%s): %q", e.Reason, e.Raw)
}

// ErrFieldMissing is wrapped by the typed accessors when a key is absent
var ErrFieldMissing = errors.New("field missing")

// Record is an ordered mapping of field name to value
type Record struct {
	keys       []string
	values     map[string]Value
	duplicates []string
}

// New returns an empty record
func New() *Record {
	return &Record{values: map[string]Value{}}
}

// Parse decodes raw into a Record. Quoted strings are swapped for content-hash
// placeholders before splitting so embedded commas survive.
func Parse(raw string) (*Record, error) {
	body := strings.TrimSpace(raw)
	if strings.HasPrefix(body, prefix) {
		body = strings.TrimSuffix(strings.TrimPrefix(body, prefix), suffix)
	}

	quoted := map[string]string{}
	for {
		p1 := strings.IndexByte(body, '"')
		if p1 < 0 {
			break
		}
		p2 := strings.IndexByte(body[p1+1:], '"')
		if p2 < 0 {
			return nil, &MalformedRecordError{Raw: raw, Reason: "unterminated quote"}
		}
		p2 += p1 + 1
		content := body[p1+1 : p2]
		sum := md5.Sum([]byte(content))
		token := hex.EncodeToString(sum[:])
		quoted[token] = content
		body = body[:p1] + token + body[p2+1:]
	}

	rec := New()
	if strings.TrimSpace(body) == "" {
		return rec, nil
	}

	for _, pair := range strings.Split(body, ",") {
		pair = strings.TrimSpace(pair)
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, &MalformedRecordError{Raw: raw, Reason: fmt.Sprintf("no '=' in %q", pair)}
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if key == "" {
			return nil, &MalformedRecordError{Raw: raw, Reason: "empty key"}
		}
		if s, found := quoted[value]; found {
			rec.Set(key, Value{Kind: KindString, Str: s})
			continue
		}
		if restored, ok := restoreQuoted(value, quoted); ok {
			rec.Set(key, Value{Kind: KindString, Str: restored})
			continue
		}
		rec.Set(key, simplify(value))
	}

	return rec, nil
}

// restoreQuoted puts quoted text back where a placeholder sits inside a
// longer value, such as pre"a, b"post.
func restoreQuoted(value string, quoted map[string]string) (string, bool) {
	found := false
	for token, content := range quoted {
		if strings.Contains(value, token) {
			value = strings.ReplaceAll(value, token, content)
			found = true
		}
	}
	return value, found
}

func simplify(value string) Value {
	if i, err := strconv.ParseInt(value, 10, 64); err == nil {
		return Value{Kind: KindInt, Int: i}
	}
	// nan/inf stay as text so the record can still be written as JSON
	if f, err := strconv.ParseFloat(value, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return Value{Kind: KindFloat, Float: f}
	}
	return Value{Kind: KindString, Str: value}
}

// Set stores a value; a repeated key overwrites the earlier value and is
// remembered in Duplicates.
func (r *Record) Set(key string, v Value) {
	if _, exists := r.values[key]; exists {
		r.duplicates = append(r.duplicates, key)
	} else {
		r.keys = append(r.keys, key)
	}
	r.values[key] = v
}

func (r *Record) Get(key string) (Value, bool) {
	v, ok := r.values[key]
	return v, ok
}

func (r *Record) Has(key string) bool {
	_, ok := r.values[key]
	return ok
}

// Keys returns field names in first-seen order
func (r *Record) Keys() []string {
	return append([]string(nil), r.keys...)
}

func (r *Record) Len() int {
	return len(r.keys)
}

// Duplicates lists keys that appeared more than once in the parsed input
func (r *Record) Duplicates() []string {
	return append([]string(nil), r.duplicates...)
}

func (r *Record) Int(key string) (int64, error) {
	v, ok := r.values[key]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrFieldMissing, key)
	}
	switch v.Kind {
	case KindInt:
		return v.Int, nil
	case KindFloat:
		return int64(v.Float), nil
	default:
		return 0, fmt.Errorf("field %s is not numeric: %q", key, v.Str)
	}
}

func (r *Record) Float(key string) (float64, error) {
	v, ok := r.values[key]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrFieldMissing, key)
	}
	switch v.Kind {
	case KindInt:
		return float64(v.Int), nil
	case KindFloat:
		return v.Float, nil
	default:
		return 0, fmt.Errorf("field %s is not numeric: %q", key, v.Str)
	}
}

// StringField returns the field rendered as text whatever its kind
func (r *Record) StringField(key string) (string, error) {
	v, ok := r.values[key]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrFieldMissing, key)
	}
	return v.String(), nil
}

// Lookup returns the field as text, or "" when absent
func (r *Record) Lookup(key string) string {
	v, ok := r.values[key]
	if !ok {
		return ""
	}
	return v.String()
}

// MarshalJSON writes the fields as an object in their original order
func (r *Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')

		var vb []byte
		v := r.values[k]
		switch v.Kind {
		case KindInt:
			vb, err = json.Marshal(v.Int)
		case KindFloat:
			vb, err = json.Marshal(v.Float)
		default:
			vb, err = json.Marshal(v.Str)
		}
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (r *Record) String() string {
	var sb strings.Builder
	for i, k := range r.keys {
		if i > 0 {
			sb.WriteByte('\n')
		}
		fmt.Fprintf(&sb, "%20s : %s", k, r.values[k].String())
	}
	return sb.String()
}
