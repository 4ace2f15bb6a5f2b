package models

import "fmt"

// OverlayType tags the overlay variant. The string values are the names the
// Montage mViewer tool and the browser client use.
type OverlayType string

const (
	OverlayGrid      OverlayType = "grid"
	OverlayCatalog   OverlayType = "catalog"
	OverlayFootprint OverlayType = "imginfo"
	OverlayMarker    OverlayType = "mark"
	OverlayLabel     OverlayType = "label"
)

func (t OverlayType) Valid() bool {
	switch t {
	case OverlayGrid, OverlayCatalog, OverlayFootprint, OverlayMarker, OverlayLabel:
		return true
	}
	return false
}

// Overlay is one annotation layer drawn over the composed image.
// Only Visible changes after creation.
type Overlay struct {
	Type     OverlayType `json:"type"`
	Visible  bool        `json:"visible"`
	CoordSys string      `json:"coord_sys"`
	Color    string      `json:"color"`

	// catalog and footprint
	DataFile string `json:"data_file,omitempty"`
	DataCol  string `json:"data_col,omitempty"`
	DataRef  string `json:"data_ref,omitempty"`
	DataType string `json:"data_type,omitempty"`

	// catalog and marker
	SymSize     float64 `json:"sym_size,omitempty"`
	SymType     string  `json:"sym_type,omitempty"`
	SymSides    int     `json:"sym_sides,omitempty"`
	SymRotation float64 `json:"sym_rotation,omitempty"`

	// marker and label
	Lon  string `json:"lon,omitempty"`
	Lat  string `json:"lat,omitempty"`
	Text string `json:"text,omitempty"`
}

// HasSymbol reports whether a symbol spec should accompany the overlay
func (o Overlay) HasSymbol() bool {
	return o.SymType != "" && o.SymSize != 0
}

func (o Overlay) String() string {
	switch o.Type {
	case OverlayGrid:
		return fmt.Sprintf("grid %s", o.CoordSys)
	case OverlayCatalog:
		return fmt.Sprintf("catalog %s", o.DataFile)
	case OverlayFootprint:
		return fmt.Sprintf("imginfo %s", o.DataFile)
	case OverlayMarker:
		return fmt.Sprintf("mark %s %s", o.Lon, o.Lat)
	case OverlayLabel:
		return fmt.Sprintf("label %s %s %q", o.Lon, o.Lat, o.Text)
	}
	return string(o.Type)
}

func (v *ViewState) symbolized(o Overlay) Overlay {
	o.SymSize = v.CurrentSymbolSize
	o.SymType = v.CurrentSymbolType
	o.SymSides = v.CurrentSymbolSides
	o.SymRotation = v.CurrentSymbolRotation
	return o
}

func (v *ViewState) addOverlay(o Overlay) *Overlay {
	v.Overlays = append(v.Overlays, o)
	return &v.Overlays[len(v.Overlays)-1]
}

// AddGrid appends a coordinate grid drawn in the current color
func (v *ViewState) AddGrid(coordSys string) *Overlay {
	return v.addOverlay(Overlay{
		Type:     OverlayGrid,
		Visible:  true,
		Color:    v.CurrentColor,
		CoordSys: coordSys,
	})
}

// AddCatalog appends a source table drawn with the current symbol
func (v *ViewState) AddCatalog(dataFile, dataCol, dataRef, dataType string) *Overlay {
	return v.addOverlay(v.symbolized(Overlay{
		Type:     OverlayCatalog,
		Visible:  true,
		CoordSys: v.CurrentCoordSys,
		Color:    v.CurrentColor,
		DataFile: dataFile,
		DataCol:  dataCol,
		DataRef:  dataRef,
		DataType: dataType,
	}))
}

// AddFootprint appends the outlines listed in an image metadata table
func (v *ViewState) AddFootprint(dataFile string) *Overlay {
	return v.addOverlay(Overlay{
		Type:     OverlayFootprint,
		Visible:  true,
		CoordSys: v.CurrentCoordSys,
		Color:    v.CurrentColor,
		DataFile: dataFile,
	})
}

func (v *ViewState) AddMarker(lon, lat string) *Overlay {
	return v.addOverlay(v.symbolized(Overlay{
		Type:     OverlayMarker,
		Visible:  true,
		CoordSys: v.CurrentCoordSys,
		Color:    v.CurrentColor,
		Lon:      lon,
		Lat:      lat,
	}))
}

func (v *ViewState) AddLabel(lon, lat, text string) *Overlay {
	return v.addOverlay(Overlay{
		Type:     OverlayLabel,
		Visible:  true,
		CoordSys: v.CurrentCoordSys,
		Color:    v.CurrentColor,
		Lon:      lon,
		Lat:      lat,
		Text:     text,
	})
}

// SetOverlayVisible toggles one overlay by its stacking index
func (v *ViewState) SetOverlayVisible(index int, visible bool) error {
	if index < 0 || index >= len(v.Overlays) {
		return fmt.Errorf("overlay index %d out of range (have %d)", index, len(v.Overlays))
	}
	v.Overlays[index].Visible = visible
	return nil
}
