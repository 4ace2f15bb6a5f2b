// Package montage drives the Montage image toolkit. Every call returns the
// tool's single-line status record.
package montage

import (
	"context"

	"github.com/lehigh-university-libraries/mviewer/internal/models"
	"github.com/lehigh-university-libraries/mviewer/internal/record"
)

// Tool names, also used as metric labels
const (
	ToolInspect  = "mExamine"
	ToolCutout   = "mSubimage"
	ToolResample = "mShrink"
	ToolCompose  = "mViewer"
	ToolHeader   = "mGetHdr"
)

// Toolkit is the image processing collaborator a session renders through
type Toolkit interface {
	// Inspect reports naxis1/naxis2 and WCS details of a FITS file
	Inspect(ctx context.Context, path string) (*record.Record, error)
	// Cutout extracts a pixel-space rectangle of in into out
	Cutout(ctx context.Context, in, out string, x, y, width, height int) (*record.Record, error)
	// Resample shrinks (factor > 1) or expands in by factor into out
	Resample(ctx context.Context, in, out string, factor float64) (*record.Record, error)
	// Compose renders the channels and overlays to a PNG
	Compose(ctx context.Context, req ComposeRequest) (*record.Record, error)
	// Sample measures flux around an image pixel within radius pixels
	Sample(ctx context.Context, path string, x, y float64, radius int) (*record.Record, error)
	// Header writes the FITS header of path as HTML to out
	Header(ctx context.Context, path, out string) (*record.Record, error)
}

// ComposeChannel is one resampled input to the final render
type ComposeChannel struct {
	Name        string
	File        string
	ColorTable  string
	StretchMin  string
	StretchMax  string
	StretchMode string
}

// NewComposeChannel fills stretch and color table defaults from a descriptor
func NewComposeChannel(name, file string, desc models.ChannelDescriptor) ComposeChannel {
	min, max, mode := desc.Stretch()
	ct := desc.ColorTable
	if ct == "" {
		ct = models.DefaultColorTable
	}
	return ComposeChannel{
		Name:        name,
		File:        file,
		ColorTable:  ct,
		StretchMin:  min,
		StretchMax:  max,
		StretchMode: mode,
	}
}

type ComposeRequest struct {
	Mode     models.DisplayMode
	Channels []ComposeChannel
	Overlays []models.Overlay
	Output   string
}

// Channel finds a channel by name
func (r ComposeRequest) Channel(name string) (ComposeChannel, bool) {
	for _, c := range r.Channels {
		if c.Name == name {
			return c, true
		}
	}
	return ComposeChannel{}, false
}
