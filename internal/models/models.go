package models

import "strings"

// DisplayMode selects between a single grayscale channel and three color channels
type DisplayMode string

const (
	DisplayUnset     DisplayMode = ""
	DisplayGrayscale DisplayMode = "grayscale"
	DisplayColor     DisplayMode = "color"
)

// Channel names used on the wire and in setStretch style commands
const (
	ChannelGray  = "gray"
	ChannelRed   = "red"
	ChannelGreen = "green"
	ChannelBlue  = "blue"
)

// Render defaults applied when a channel leaves its stretch unset
const (
	DefaultStretchMin  = "-1s"
	DefaultStretchMax  = "max"
	DefaultStretchMode = "gaussian-log"
	DefaultColorTable  = "0"
)

// ChannelDescriptor describes one display channel and its last computed statistics
type ChannelDescriptor struct {
	FitsFile    string  `json:"fits_file"`
	ColorTable  string  `json:"color_table"`
	StretchMin  string  `json:"stretch_min"`
	StretchMax  string  `json:"stretch_max"`
	StretchMode string  `json:"stretch_mode"`
	Min         float64 `json:"min"`
	Max         float64 `json:"max"`
	DataMin     float64 `json:"data_min"`
	DataMax     float64 `json:"data_max"`
	MinSigma    float64 `json:"min_sigma"`
	MaxSigma    float64 `json:"max_sigma"`
	MinPercent  float64 `json:"min_percent"`
	MaxPercent  float64 `json:"max_percent"`
}

// Stretch returns min, max and mode with render defaults filled in
func (c ChannelDescriptor) Stretch() (string, string, string) {
	min, max, mode := c.StretchMin, c.StretchMax, c.StretchMode
	if min == "" {
		min = DefaultStretchMin
	}
	if max == "" {
		max = DefaultStretchMax
	}
	if mode == "" {
		mode = DefaultStretchMode
	}
	return min, max, mode
}

// ViewState is everything needed to describe and reproduce the current display
type ViewState struct {
	ImageFile   string      `json:"image_file"`
	ImageType   string      `json:"image_type"`
	DispWidth   int         `json:"disp_width"`
	DispHeight  int         `json:"disp_height"`
	ImageWidth  int         `json:"image_width"`
	ImageHeight int         `json:"image_height"`
	DisplayMode DisplayMode `json:"display_mode"`

	CanvasWidth  int     `json:"canvas_width"`
	CanvasHeight int     `json:"canvas_height"`
	XMin         int     `json:"xmin"`
	XMax         int     `json:"xmax"`
	YMin         int     `json:"ymin"`
	YMax         int     `json:"ymax"`
	Factor       float64 `json:"factor"`

	CurrentPickX float64 `json:"currentPickX"`
	CurrentPickY float64 `json:"currentPickY"`

	CurrentColor          string  `json:"current_color"`
	CurrentSymbolType     string  `json:"current_symbol_type"`
	CurrentSymbolSize     float64 `json:"current_symbol_size"`
	CurrentSymbolSides    int     `json:"current_symbol_sides"`
	CurrentSymbolRotation float64 `json:"current_symbol_rotation"`
	CurrentCoordSys       string  `json:"current_coord_sys"`

	GrayFile  ChannelDescriptor `json:"gray_file"`
	RedFile   ChannelDescriptor `json:"red_file"`
	GreenFile ChannelDescriptor `json:"green_file"`
	BlueFile  ChannelDescriptor `json:"blue_file"`

	BUnit string `json:"bunit"`

	Overlays []Overlay `json:"overlay"`
}

// NewViewState returns a view with no channels configured
func NewViewState() *ViewState {
	return &ViewState{
		ImageFile:             "viewer.png",
		ImageType:             "png",
		CanvasWidth:           1000,
		CanvasHeight:          1000,
		CurrentColor:          "black",
		CurrentSymbolType:     "circle",
		CurrentSymbolSize:     1.0,
		CurrentSymbolSides:    3,
		CurrentSymbolRotation: 0.0,
		CurrentCoordSys:       "Equ J2000",
		BUnit:                 "DN",
		Overlays:              []Overlay{},
	}
}

// Clone returns a deep copy
func (v *ViewState) Clone() *ViewState {
	cp := *v
	cp.Overlays = append([]Overlay{}, v.Overlays...)
	return &cp
}

// ChannelRef pairs a channel name with its descriptor inside a ViewState
type ChannelRef struct {
	Name       string
	Descriptor *ChannelDescriptor
}

// Channel looks up a descriptor by wire name
func (v *ViewState) Channel(name string) (*ChannelDescriptor, bool) {
	switch strings.ToLower(name) {
	case ChannelGray, "grey":
		return &v.GrayFile, true
	case ChannelRed:
		return &v.RedFile, true
	case ChannelGreen:
		return &v.GreenFile, true
	case ChannelBlue:
		return &v.BlueFile, true
	}
	return nil, false
}

// ActiveChannels lists the channels the current display mode renders,
// blue/green/red order in color mode.
func (v *ViewState) ActiveChannels() []ChannelRef {
	switch v.DisplayMode {
	case DisplayGrayscale:
		return []ChannelRef{{ChannelGray, &v.GrayFile}}
	case DisplayColor:
		return []ChannelRef{
			{ChannelBlue, &v.BlueFile},
			{ChannelGreen, &v.GreenFile},
			{ChannelRed, &v.RedFile},
		}
	}
	return nil
}

// ReferenceFile is the source whose pixel dimensions define the image size.
// Color channels are expected to share dimensions so red stands in for all three.
func (v *ViewState) ReferenceFile() string {
	switch v.DisplayMode {
	case DisplayGrayscale:
		return v.GrayFile.FitsFile
	case DisplayColor:
		return v.RedFile.FitsFile
	}
	return ""
}

// SetDisplayMode accepts any word and keys off its first letter:
// g/b select grayscale, r/c/f select color. An empty word means grayscale.
func (v *ViewState) SetDisplayMode(mode string) {
	if mode == "" {
		v.DisplayMode = DisplayGrayscale
		return
	}
	switch strings.ToLower(mode[:1]) {
	case "g", "b":
		v.DisplayMode = DisplayGrayscale
	case "r", "c", "f":
		v.DisplayMode = DisplayColor
	}
}

func (v *ViewState) SetGrayFile(path string) {
	v.GrayFile.FitsFile = path
	if v.DisplayMode == DisplayUnset {
		v.DisplayMode = DisplayGrayscale
	}
}

func (v *ViewState) SetRedFile(path string) {
	v.RedFile.FitsFile = path
	v.promoteToColor()
}

func (v *ViewState) SetGreenFile(path string) {
	v.GreenFile.FitsFile = path
	v.promoteToColor()
}

func (v *ViewState) SetBlueFile(path string) {
	v.BlueFile.FitsFile = path
	v.promoteToColor()
}

// SetChannelFile dispatches to the per-channel setter by name
func (v *ViewState) SetChannelFile(channel, path string) bool {
	switch strings.ToLower(channel) {
	case ChannelGray, "grey":
		v.SetGrayFile(path)
	case ChannelRed:
		v.SetRedFile(path)
	case ChannelGreen:
		v.SetGreenFile(path)
	case ChannelBlue:
		v.SetBlueFile(path)
	default:
		return false
	}
	return true
}

func (v *ViewState) promoteToColor() {
	if v.DisplayMode != DisplayUnset {
		return
	}
	if v.RedFile.FitsFile != "" && v.GreenFile.FitsFile != "" && v.BlueFile.FitsFile != "" {
		v.DisplayMode = DisplayColor
	}
}

// SetColorTable sets the grayscale color table
func (v *ViewState) SetColorTable(table string) {
	v.GrayFile.ColorTable = table
}

func (v *ViewState) SetStretch(channel, min, max, mode string) bool {
	c, ok := v.Channel(channel)
	if !ok {
		return false
	}
	c.StretchMin = min
	c.StretchMax = max
	c.StretchMode = mode
	return true
}

func (v *ViewState) SetCurrentColor(color string) {
	v.CurrentColor = color
}

func (v *ViewState) SetCurrentSymbol(size float64, symbolType string, sides int, rotation float64) {
	v.CurrentSymbolSize = size
	v.CurrentSymbolType = symbolType
	v.CurrentSymbolSides = sides
	v.CurrentSymbolRotation = rotation
}

func (v *ViewState) SetCurrentCoordSys(coordSys string) {
	v.CurrentCoordSys = coordSys
}

// PickSet reports whether a pick location has been recorded
func (v *ViewState) PickSet() bool {
	return v.CurrentPickX != 0 && v.CurrentPickY != 0
}

// ResetViewport shows the whole image
func (v *ViewState) ResetViewport() {
	v.XMin = 0
	v.XMax = v.ImageWidth
	v.YMin = 0
	v.YMax = v.ImageHeight
}

// ViewportSet reports whether the viewport has been initialised
func (v *ViewState) ViewportSet() bool {
	return v.XMax > v.XMin && v.YMax > v.YMin
}
