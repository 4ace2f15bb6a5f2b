package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strconv"
)

// SchemaMismatchError reports a wire document that does not fit the fixed view schema
type SchemaMismatchError struct {
	Path   string
	Reason string
}

func (e *SchemaMismatchError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("schema mismatch: %s", e.Reason)
	}
	return fmt.Sprintf("schema mismatch at %s: %s", e.Path, e.Reason)
}

func mismatch(path, format string, args ...any) error {
	return &SchemaMismatchError{Path: path, Reason: fmt.Sprintf(format, args...)}
}

// ToWireJSON encodes the view with every field present
func (v *ViewState) ToWireJSON() ([]byte, error) {
	cp := v.Clone()
	if cp.Overlays == nil {
		cp.Overlays = []Overlay{}
	}
	data, err := json.MarshalIndent(cp, "", "   ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode view: %w", err)
	}
	return data, nil
}

// Merge applies a partial wire document. Every field is checked against the
// schema on a copy first; on any mismatch the receiver is left untouched.
// Overlays merge by position and only their visibility may change.
func (v *ViewState) Merge(doc []byte) error {
	obj, err := decodeObject(doc)
	if err != nil {
		return err
	}
	next := v.Clone()
	if err := mergeView(next, obj, false); err != nil {
		return err
	}
	*v = *next
	return nil
}

// FromWireJSON builds a view from a complete wire document, starting from
// defaults. Unlike Merge, overlays in the document are created.
func FromWireJSON(doc []byte) (*ViewState, error) {
	obj, err := decodeObject(doc)
	if err != nil {
		return nil, err
	}
	v := NewViewState()
	if err := mergeView(v, obj, true); err != nil {
		return nil, err
	}
	return v, nil
}

// WriteJSONFile stores the wire form of the view at path
func (v *ViewState) WriteJSONFile(path string) error {
	data, err := v.ToWireJSON()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// ReadJSONFile loads a view previously written by WriteJSONFile
func ReadJSONFile(path string) (*ViewState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return FromWireJSON(data)
}

func decodeObject(doc []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(doc))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, mismatch("", "invalid JSON: %v", err)
	}
	if dec.More() {
		return nil, mismatch("", "trailing data after document")
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, mismatch("", "document must be an object")
	}
	return obj, nil
}

func asString(path string, val any) (string, error) {
	switch t := val.(type) {
	case string:
		return t, nil
	case json.Number:
		return t.String(), nil
	}
	return "", mismatch(path, "expected string, got %s", describe(val))
}

func asInt(path string, val any) (int, error) {
	n, ok := val.(json.Number)
	if !ok {
		return 0, mismatch(path, "expected integer, got %s", describe(val))
	}
	if i, err := n.Int64(); err == nil {
		if i < math.MinInt32 || i > math.MaxInt32 {
			return 0, mismatch(path, "integer out of range: %s", n.String())
		}
		return int(i), nil
	}
	f, err := n.Float64()
	if err != nil || f != math.Trunc(f) {
		return 0, mismatch(path, "expected integer, got %s", n.String())
	}
	if f < math.MinInt32 || f > math.MaxInt32 {
		return 0, mismatch(path, "integer out of range: %s", n.String())
	}
	return int(f), nil
}

func asFloat(path string, val any) (float64, error) {
	n, ok := val.(json.Number)
	if !ok {
		return 0, mismatch(path, "expected number, got %s", describe(val))
	}
	f, err := strconv.ParseFloat(n.String(), 64)
	if err != nil {
		return 0, mismatch(path, "expected number, got %s", n.String())
	}
	return f, nil
}

func asBool(path string, val any) (bool, error) {
	b, ok := val.(bool)
	if !ok {
		return false, mismatch(path, "expected boolean, got %s", describe(val))
	}
	return b, nil
}

func describe(val any) string {
	switch val.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case json.Number:
		return "number"
	case bool:
		return "boolean"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	}
	return fmt.Sprintf("%T", val)
}

func join(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

func setString(dst *string) func(string, any) error {
	return func(path string, val any) error {
		s, err := asString(path, val)
		if err != nil {
			return err
		}
		*dst = s
		return nil
	}
}

func setInt(dst *int) func(string, any) error {
	return func(path string, val any) error {
		i, err := asInt(path, val)
		if err != nil {
			return err
		}
		*dst = i
		return nil
	}
}

func setFloat(dst *float64) func(string, any) error {
	return func(path string, val any) error {
		f, err := asFloat(path, val)
		if err != nil {
			return err
		}
		*dst = f
		return nil
	}
}

func setBool(dst *bool) func(string, any) error {
	return func(path string, val any) error {
		b, err := asBool(path, val)
		if err != nil {
			return err
		}
		*dst = b
		return nil
	}
}

func applyFields(path string, obj map[string]any, fields map[string]func(string, any) error) error {
	// sorted so the first reported mismatch does not depend on map order
	for _, key := range slices.Sorted(maps.Keys(obj)) {
		val := obj[key]
		set, ok := fields[key]
		if !ok {
			return mismatch(join(path, key), "unknown field")
		}
		if err := set(join(path, key), val); err != nil {
			return err
		}
	}
	return nil
}

func mergeView(v *ViewState, obj map[string]any, createOverlays bool) error {
	fields := map[string]func(string, any) error{
		"image_file":              setString(&v.ImageFile),
		"image_type":              setString(&v.ImageType),
		"disp_width":              setInt(&v.DispWidth),
		"disp_height":             setInt(&v.DispHeight),
		"image_width":             setInt(&v.ImageWidth),
		"image_height":            setInt(&v.ImageHeight),
		"canvas_width":            setInt(&v.CanvasWidth),
		"canvas_height":           setInt(&v.CanvasHeight),
		"xmin":                    setInt(&v.XMin),
		"xmax":                    setInt(&v.XMax),
		"ymin":                    setInt(&v.YMin),
		"ymax":                    setInt(&v.YMax),
		"factor":                  setFloat(&v.Factor),
		"currentPickX":            setFloat(&v.CurrentPickX),
		"currentPickY":            setFloat(&v.CurrentPickY),
		"current_color":           setString(&v.CurrentColor),
		"current_symbol_type":     setString(&v.CurrentSymbolType),
		"current_symbol_size":     setFloat(&v.CurrentSymbolSize),
		"current_symbol_sides":    setInt(&v.CurrentSymbolSides),
		"current_symbol_rotation": setFloat(&v.CurrentSymbolRotation),
		"current_coord_sys":       setString(&v.CurrentCoordSys),
		"bunit":                   setString(&v.BUnit),
		"display_mode": func(path string, val any) error {
			s, err := asString(path, val)
			if err != nil {
				return err
			}
			switch DisplayMode(s) {
			case DisplayUnset, DisplayGrayscale, DisplayColor:
				v.DisplayMode = DisplayMode(s)
				return nil
			}
			return mismatch(path, "unknown display mode %q", s)
		},
		"gray_file":  channelMerger(&v.GrayFile),
		"red_file":   channelMerger(&v.RedFile),
		"green_file": channelMerger(&v.GreenFile),
		"blue_file":  channelMerger(&v.BlueFile),
		"overlay": func(path string, val any) error {
			list, ok := val.([]any)
			if !ok {
				return mismatch(path, "expected array, got %s", describe(val))
			}
			return mergeOverlays(v, path, list, createOverlays)
		},
	}
	return applyFields("", obj, fields)
}

func channelMerger(c *ChannelDescriptor) func(string, any) error {
	return func(path string, val any) error {
		obj, ok := val.(map[string]any)
		if !ok {
			return mismatch(path, "expected object, got %s", describe(val))
		}
		return applyFields(path, obj, map[string]func(string, any) error{
			"fits_file":    setString(&c.FitsFile),
			"color_table":  setString(&c.ColorTable),
			"stretch_min":  setString(&c.StretchMin),
			"stretch_max":  setString(&c.StretchMax),
			"stretch_mode": setString(&c.StretchMode),
			"min":          setFloat(&c.Min),
			"max":          setFloat(&c.Max),
			"data_min":     setFloat(&c.DataMin),
			"data_max":     setFloat(&c.DataMax),
			"min_sigma":    setFloat(&c.MinSigma),
			"max_sigma":    setFloat(&c.MaxSigma),
			"min_percent":  setFloat(&c.MinPercent),
			"max_percent":  setFloat(&c.MaxPercent),
		})
	}
}

func overlayFields(o *Overlay) map[string]func(string, any) error {
	return map[string]func(string, any) error{
		"type": func(path string, val any) error {
			s, err := asString(path, val)
			if err != nil {
				return err
			}
			if !OverlayType(s).Valid() {
				return mismatch(path, "unknown overlay type %q", s)
			}
			o.Type = OverlayType(s)
			return nil
		},
		"visible":      setBool(&o.Visible),
		"coord_sys":    setString(&o.CoordSys),
		"color":        setString(&o.Color),
		"data_file":    setString(&o.DataFile),
		"data_col":     setString(&o.DataCol),
		"data_ref":     setString(&o.DataRef),
		"data_type":    setString(&o.DataType),
		"sym_size":     setFloat(&o.SymSize),
		"sym_type":     setString(&o.SymType),
		"sym_sides":    setInt(&o.SymSides),
		"sym_rotation": setFloat(&o.SymRotation),
		"lon":          setString(&o.Lon),
		"lat":          setString(&o.Lat),
		"text":         setString(&o.Text),
	}
}

func mergeOverlays(v *ViewState, path string, list []any, create bool) error {
	if !create && len(list) > len(v.Overlays) {
		return mismatch(path, "document has %d overlays, view has %d", len(list), len(v.Overlays))
	}
	for i, item := range list {
		itemPath := fmt.Sprintf("%s[%d]", path, i)
		obj, ok := item.(map[string]any)
		if !ok {
			return mismatch(itemPath, "expected object, got %s", describe(item))
		}

		if i >= len(v.Overlays) {
			var o Overlay
			if err := applyFields(itemPath, obj, overlayFields(&o)); err != nil {
				return err
			}
			if !o.Type.Valid() {
				return mismatch(itemPath, "overlay type missing")
			}
			v.Overlays = append(v.Overlays, o)
			continue
		}

		orig := v.Overlays[i]
		next := orig
		if err := applyFields(itemPath, obj, overlayFields(&next)); err != nil {
			return err
		}
		if !create {
			check := next
			check.Visible = orig.Visible
			if check != orig {
				return mismatch(itemPath, "only visible may change on an existing overlay")
			}
		}
		v.Overlays[i] = next
	}
	return nil
}
