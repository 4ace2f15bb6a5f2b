package session

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/lehigh-university-libraries/mviewer/internal/models"
	"github.com/lehigh-university-libraries/mviewer/internal/viewport"
)

const displayUpdated = "updateDisplay"

func (s *Session) input() viewport.Input {
	v := s.view
	return viewport.Input{
		Viewport: viewport.Viewport{XMin: v.XMin, XMax: v.XMax, YMin: v.YMin, YMax: v.YMax},
		Canvas:   viewport.Size{Width: v.CanvasWidth, Height: v.CanvasHeight},
		Image:    viewport.Size{Width: v.ImageWidth, Height: v.ImageHeight},
		Display:  viewport.Size{Width: v.DispWidth, Height: v.DispHeight},
		Factor:   v.Factor,
		Pick:     viewport.Point{X: v.CurrentPickX, Y: v.CurrentPickY},
	}
}

func (s *Session) setViewport(vp viewport.Viewport) {
	s.view.XMin = vp.XMin
	s.view.XMax = vp.XMax
	s.view.YMin = vp.YMin
	s.view.YMax = vp.YMax
}

// ready makes sure a channel is configured and the image size is known
func (s *Session) ready(ctx context.Context) error {
	if s.view.DisplayMode == models.DisplayUnset {
		return ErrNoChannelConfigured
	}
	return s.ensureImage(ctx)
}

func (s *Session) cmdUpdate(ctx context.Context, cmd Command, emit func(string)) error {
	return s.render(ctx, emit)
}

func (s *Session) cmdSubmitUpdate(ctx context.Context, cmd Command, emit func(string)) error {
	if err := s.view.Merge([]byte(cmd.Args[0])); err != nil {
		return err
	}
	return s.render(ctx, emit)
}

func (s *Session) cmdResize(ctx context.Context, cmd Command, emit func(string)) error {
	dims, err := parseInts(cmd)
	if err != nil {
		return err
	}
	canvas := viewport.Size{Width: dims[0], Height: dims[1]}
	if canvas.Width <= 0 || canvas.Height <= 0 {
		return invalid(cmd.Name, "canvas must be positive, got %dx%d", canvas.Width, canvas.Height)
	}
	s.view.CanvasWidth = canvas.Width
	s.view.CanvasHeight = canvas.Height

	if err := s.ready(ctx); err != nil {
		return err
	}
	vp, err := viewport.Resize(s.input(), canvas)
	if err != nil {
		return viewportError(cmd, err)
	}
	s.setViewport(vp)
	return s.render(ctx, emit)
}

func (s *Session) cmdZoomReset(ctx context.Context, cmd Command, emit func(string)) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	s.setViewport(viewport.Reset(s.input()))
	return s.render(ctx, emit)
}

// gesture runs a viewport transform then re-renders
func (s *Session) gesture(ctx context.Context, cmd Command, emit func(string), transform func(viewport.Input) (viewport.Viewport, error)) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	vp, err := transform(s.input())
	if err != nil {
		return viewportError(cmd, err)
	}
	s.setViewport(vp)
	return s.render(ctx, emit)
}

func (s *Session) cmdZoomBox(ctx context.Context, cmd Command, emit func(string)) error {
	box, err := parseFloats(cmd)
	if err != nil {
		return err
	}
	return s.gesture(ctx, cmd, emit, func(in viewport.Input) (viewport.Viewport, error) {
		return viewport.Box(in, box[0], box[1], box[2], box[3])
	})
}

func (s *Session) cmdZoomIn(ctx context.Context, cmd Command, emit func(string)) error {
	return s.gesture(ctx, cmd, emit, viewport.ZoomIn)
}

func (s *Session) cmdZoomOut(ctx context.Context, cmd Command, emit func(string)) error {
	return s.gesture(ctx, cmd, emit, viewport.ZoomOut)
}

func (s *Session) cmdPan(ctx context.Context, cmd Command, emit func(string)) error {
	dir, ok := viewport.ParseDirection(cmd.Name)
	if !ok {
		return invalid(cmd.Name, "unknown pan direction")
	}
	return s.gesture(ctx, cmd, emit, func(in viewport.Input) (viewport.Viewport, error) {
		return viewport.Pan(in, dir)
	})
}

func (s *Session) cmdCenter(ctx context.Context, cmd Command, emit func(string)) error {
	return s.gesture(ctx, cmd, emit, viewport.Center)
}

func (s *Session) cmdSetChannelFile(ctx context.Context, cmd Command, emit func(string)) error {
	channel := strings.ToLower(strings.TrimSuffix(strings.TrimPrefix(cmd.Name, "set"), "File"))
	if !s.view.SetChannelFile(channel, cmd.Args[0]) {
		return invalid(cmd.Name, "unknown channel %q", channel)
	}
	emit(displayUpdated)
	return nil
}

func (s *Session) cmdSetDisplayMode(ctx context.Context, cmd Command, emit func(string)) error {
	mode := ""
	if len(cmd.Args) > 0 {
		mode = cmd.Args[0]
	}
	s.view.SetDisplayMode(mode)
	emit(displayUpdated)
	return nil
}

func (s *Session) cmdSetColorTable(ctx context.Context, cmd Command, emit func(string)) error {
	s.view.SetColorTable(cmd.Args[0])
	emit(displayUpdated)
	return nil
}

func (s *Session) cmdSetStretch(ctx context.Context, cmd Command, emit func(string)) error {
	if !s.view.SetStretch(cmd.Args[0], cmd.Args[1], cmd.Args[2], cmd.Args[3]) {
		return invalid(cmd.Name, "unknown channel %q", cmd.Args[0])
	}
	emit(displayUpdated)
	return nil
}

func (s *Session) cmdSetColor(ctx context.Context, cmd Command, emit func(string)) error {
	s.view.SetCurrentColor(cmd.Args[0])
	emit(displayUpdated)
	return nil
}

func (s *Session) cmdSetSymbol(ctx context.Context, cmd Command, emit func(string)) error {
	size, err := strconv.ParseFloat(cmd.Args[0], 64)
	if err != nil {
		return invalid(cmd.Name, "symbol size is not a number: %q", cmd.Args[0])
	}
	sides := s.view.CurrentSymbolSides
	rotation := s.view.CurrentSymbolRotation
	if len(cmd.Args) > 2 {
		if sides, err = strconv.Atoi(cmd.Args[2]); err != nil {
			return invalid(cmd.Name, "symbol sides is not an integer: %q", cmd.Args[2])
		}
	}
	if len(cmd.Args) > 3 {
		if rotation, err = strconv.ParseFloat(cmd.Args[3], 64); err != nil {
			return invalid(cmd.Name, "symbol rotation is not a number: %q", cmd.Args[3])
		}
	}
	s.view.SetCurrentSymbol(size, cmd.Args[1], sides, rotation)
	emit(displayUpdated)
	return nil
}

func (s *Session) cmdSetCoordSys(ctx context.Context, cmd Command, emit func(string)) error {
	s.view.SetCurrentCoordSys(strings.Join(cmd.Args, " "))
	emit(displayUpdated)
	return nil
}

func (s *Session) cmdAddGrid(ctx context.Context, cmd Command, emit func(string)) error {
	s.view.AddGrid(strings.Join(cmd.Args, " "))
	emit(displayUpdated)
	return nil
}

func (s *Session) cmdAddCatalog(ctx context.Context, cmd Command, emit func(string)) error {
	cols := make([]string, 4)
	copy(cols, cmd.Args)
	s.view.AddCatalog(cols[0], cols[1], cols[2], cols[3])
	emit(displayUpdated)
	return nil
}

func (s *Session) cmdAddFootprint(ctx context.Context, cmd Command, emit func(string)) error {
	s.view.AddFootprint(cmd.Args[0])
	emit(displayUpdated)
	return nil
}

func (s *Session) cmdAddMarker(ctx context.Context, cmd Command, emit func(string)) error {
	s.view.AddMarker(cmd.Args[0], cmd.Args[1])
	emit(displayUpdated)
	return nil
}

func (s *Session) cmdAddLabel(ctx context.Context, cmd Command, emit func(string)) error {
	s.view.AddLabel(cmd.Args[0], cmd.Args[1], strings.Join(cmd.Args[2:], " "))
	emit(displayUpdated)
	return nil
}

func (s *Session) cmdOverlayVisibility(ctx context.Context, cmd Command, emit func(string)) error {
	index, err := strconv.Atoi(cmd.Args[0])
	if err != nil {
		return invalid(cmd.Name, "overlay index is not an integer: %q", cmd.Args[0])
	}
	if err := s.view.SetOverlayVisible(index, cmd.Name == "showOverlay"); err != nil {
		return invalid(cmd.Name, "%v", err)
	}
	emit(displayUpdated)
	return nil
}

func (s *Session) cmdClose(ctx context.Context, cmd Command, emit func(string)) error {
	emit(fmt.Sprintf("Session %s closing.", s.id))
	go s.Close()
	return nil
}
