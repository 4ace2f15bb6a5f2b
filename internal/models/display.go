package models

import (
	"fmt"
	"strconv"
	"strings"
)

type displayLine struct {
	name  string
	value string
}

func fstr(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// DisplayForm renders the view as aligned "name: value" lines with nested
// channels and overlays indented under their parent. Empty strings are skipped.
func (v *ViewState) DisplayForm() string {
	var sb strings.Builder

	writeLines(&sb, "", []displayLine{
		{"image_file", v.ImageFile},
		{"image_type", v.ImageType},
		{"disp_width", strconv.Itoa(v.DispWidth)},
		{"disp_height", strconv.Itoa(v.DispHeight)},
		{"image_width", strconv.Itoa(v.ImageWidth)},
		{"image_height", strconv.Itoa(v.ImageHeight)},
		{"display_mode", string(v.DisplayMode)},
		{"canvas_width", strconv.Itoa(v.CanvasWidth)},
		{"canvas_height", strconv.Itoa(v.CanvasHeight)},
		{"xmin", strconv.Itoa(v.XMin)},
		{"xmax", strconv.Itoa(v.XMax)},
		{"ymin", strconv.Itoa(v.YMin)},
		{"ymax", strconv.Itoa(v.YMax)},
		{"factor", fstr(v.Factor)},
		{"currentPickX", fstr(v.CurrentPickX)},
		{"currentPickY", fstr(v.CurrentPickY)},
		{"current_color", v.CurrentColor},
		{"current_symbol_type", v.CurrentSymbolType},
		{"current_symbol_size", fstr(v.CurrentSymbolSize)},
		{"current_symbol_sides", strconv.Itoa(v.CurrentSymbolSides)},
		{"current_symbol_rotation", fstr(v.CurrentSymbolRotation)},
		{"current_coord_sys", v.CurrentCoordSys},
	})

	for _, ch := range []struct {
		name string
		desc ChannelDescriptor
	}{
		{"gray_file", v.GrayFile},
		{"red_file", v.RedFile},
		{"green_file", v.GreenFile},
		{"blue_file", v.BlueFile},
	} {
		fmt.Fprintf(&sb, "%25s:\n", ch.name)
		writeLines(&sb, "   ", channelLines(ch.desc))
	}

	writeLines(&sb, "", []displayLine{{"bunit", v.BUnit}})

	fmt.Fprintf(&sb, "%25s: %d\n", "overlay", len(v.Overlays))
	for i, o := range v.Overlays {
		fmt.Fprintf(&sb, "%25s:\n", fmt.Sprintf("[%d]", i))
		writeLines(&sb, "   ", overlayLines(o))
	}

	return sb.String()
}

func channelLines(c ChannelDescriptor) []displayLine {
	return []displayLine{
		{"fits_file", c.FitsFile},
		{"color_table", c.ColorTable},
		{"stretch_min", c.StretchMin},
		{"stretch_max", c.StretchMax},
		{"stretch_mode", c.StretchMode},
		{"min", fstr(c.Min)},
		{"max", fstr(c.Max)},
		{"data_min", fstr(c.DataMin)},
		{"data_max", fstr(c.DataMax)},
		{"min_sigma", fstr(c.MinSigma)},
		{"max_sigma", fstr(c.MaxSigma)},
		{"min_percent", fstr(c.MinPercent)},
		{"max_percent", fstr(c.MaxPercent)},
	}
}

func overlayLines(o Overlay) []displayLine {
	lines := []displayLine{
		{"type", string(o.Type)},
		{"visible", strconv.FormatBool(o.Visible)},
		{"coord_sys", o.CoordSys},
		{"color", o.Color},
		{"data_file", o.DataFile},
		{"data_col", o.DataCol},
		{"data_ref", o.DataRef},
		{"data_type", o.DataType},
	}
	if o.HasSymbol() {
		lines = append(lines,
			displayLine{"sym_size", fstr(o.SymSize)},
			displayLine{"sym_type", o.SymType},
			displayLine{"sym_sides", strconv.Itoa(o.SymSides)},
			displayLine{"sym_rotation", fstr(o.SymRotation)},
		)
	}
	return append(lines,
		displayLine{"lon", o.Lon},
		displayLine{"lat", o.Lat},
		displayLine{"text", o.Text},
	)
}

func writeLines(sb *strings.Builder, indent string, lines []displayLine) {
	for _, l := range lines {
		if l.value == "" {
			continue
		}
		fmt.Fprintf(sb, "%s%25s: %s\n", indent, l.name, l.value)
	}
}
