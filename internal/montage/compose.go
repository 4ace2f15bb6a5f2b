package montage

import (
	"fmt"
	"strconv"

	"github.com/lehigh-university-libraries/mviewer/internal/models"
)

func ftoa(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func symbolArgs(o models.Overlay) []string {
	if !o.HasSymbol() {
		return nil
	}
	return []string{"-symbol", ftoa(o.SymSize), o.SymType, strconv.Itoa(o.SymSides), ftoa(o.SymRotation)}
}

// ComposeArgs builds the mViewer argument vector. Hidden overlays are left
// out; each visible one is preceded by its color so overlays never inherit
// the previous one's color.
func ComposeArgs(req ComposeRequest) ([]string, error) {
	var args []string

	for i, o := range req.Overlays {
		if !o.Visible {
			continue
		}
		if o.Color != "" {
			args = append(args, "-color", o.Color)
		}
		switch o.Type {
		case models.OverlayGrid:
			args = append(args, "-grid", o.CoordSys)
		case models.OverlayCatalog:
			args = append(args, symbolArgs(o)...)
			args = append(args, "-catalog", o.DataFile)
			for _, extra := range []string{o.DataCol, o.DataRef, o.DataType} {
				if extra != "" {
					args = append(args, extra)
				}
			}
		case models.OverlayFootprint:
			args = append(args, "-imginfo", o.DataFile)
		case models.OverlayMarker:
			args = append(args, symbolArgs(o)...)
			args = append(args, "-mark", o.Lon, o.Lat)
		case models.OverlayLabel:
			args = append(args, "-label", o.Lon, o.Lat, o.Text)
		default:
			return nil, fmt.Errorf("overlay %d: invalid type %q", i, o.Type)
		}
	}

	switch req.Mode {
	case models.DisplayGrayscale:
		gray, ok := req.Channel(models.ChannelGray)
		if !ok {
			return nil, fmt.Errorf("grayscale render without a gray channel")
		}
		args = append(args, "-ct", gray.ColorTable,
			"-gray", gray.File, gray.StretchMin, gray.StretchMax, gray.StretchMode)
	case models.DisplayColor:
		for _, name := range []string{models.ChannelRed, models.ChannelGreen, models.ChannelBlue} {
			c, ok := req.Channel(name)
			if !ok {
				return nil, fmt.Errorf("color render without a %s channel", name)
			}
			args = append(args, "-"+name, c.File, c.StretchMin, c.StretchMax, c.StretchMode)
		}
	default:
		return nil, fmt.Errorf("no display mode set")
	}

	return append(args, "-png", req.Output), nil
}
