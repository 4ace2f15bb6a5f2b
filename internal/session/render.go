package session

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/lehigh-university-libraries/mviewer/internal/models"
	"github.com/lehigh-university-libraries/mviewer/internal/montage"
	"github.com/lehigh-university-libraries/mviewer/internal/record"
)

func subimageName(channel string, mode models.DisplayMode) string {
	if mode == models.DisplayGrayscale {
		return "subimage.fits"
	}
	return channel + "_subimage.fits"
}

func shrunkenName(channel string, mode models.DisplayMode) string {
	if mode == models.DisplayGrayscale {
		return "shrunken.fits"
	}
	return channel + "_shrunken.fits"
}

// ensureImage asks the toolkit for the reference image size the first time
// it is needed and whenever the reference file changes. A viewport that no
// longer fits the image is reset to the whole image.
func (s *Session) ensureImage(ctx context.Context) error {
	ref := s.view.ReferenceFile()
	if ref == "" {
		return ErrNoChannelConfigured
	}
	if ref == s.inspected && s.view.ImageWidth > 0 && s.view.ImageHeight > 0 {
		return nil
	}

	rec, err := s.toolkit.Inspect(ctx, ref)
	if err != nil {
		return err
	}
	w, err := rec.Int("naxis1")
	if err != nil {
		return fmt.Errorf("inspecting %s: %w", ref, err)
	}
	h, err := rec.Int("naxis2")
	if err != nil {
		return fmt.Errorf("inspecting %s: %w", ref, err)
	}
	if w <= 0 || h <= 0 {
		return fmt.Errorf("inspecting %s: image has no pixels (%dx%d)", ref, w, h)
	}

	s.view.ImageWidth = int(w)
	s.view.ImageHeight = int(h)
	s.inspected = ref

	v := s.view
	if !v.ViewportSet() || v.XMin < 0 || v.YMin < 0 || v.XMax > v.ImageWidth || v.YMax > v.ImageHeight {
		v.ResetViewport()
	}
	return nil
}

type channelStats struct {
	desc   *models.ChannelDescriptor
	prefix string
}

// render cuts out the viewport from every active channel, resamples the
// cutouts to the canvas and composes the PNG. Display size, statistics, flux
// unit and factor are only committed once view.json has been written.
func (s *Session) render(ctx context.Context, emit func(string)) error {
	if err := s.ready(ctx); err != nil {
		return err
	}

	v := s.view
	mode := v.DisplayMode
	channels := v.ActiveChannels()
	for _, ch := range channels {
		if ch.Descriptor.FitsFile == "" {
			return fmt.Errorf("%s channel has no image file", ch.Name)
		}
	}

	width, height := v.XMax-v.XMin, v.YMax-v.YMin
	if width <= 0 || height <= 0 {
		return fmt.Errorf("empty viewport [%d:%d, %d:%d]", v.XMin, v.XMax, v.YMin, v.YMax)
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, ch := range channels {
		in, out := ch.Descriptor.FitsFile, s.path(subimageName(ch.Name, mode))
		g.Go(func() error {
			_, err := s.toolkit.Cutout(gctx, in, out, v.XMin, v.YMin, width, height)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	// color channels share dimensions; red stands in for all three
	sizeRef := models.ChannelGray
	if mode == models.DisplayColor {
		sizeRef = models.ChannelRed
	}
	rec, err := s.toolkit.Inspect(ctx, s.path(subimageName(sizeRef, mode)))
	if err != nil {
		return err
	}
	subWidth, err := rec.Float("naxis1")
	if err != nil {
		return fmt.Errorf("inspecting cutout: %w", err)
	}
	subHeight, err := rec.Float("naxis2")
	if err != nil {
		return fmt.Errorf("inspecting cutout: %w", err)
	}
	factor := math.Max(subWidth/float64(v.CanvasWidth), subHeight/float64(v.CanvasHeight))
	if factor <= 0 {
		return fmt.Errorf("cutout has no pixels (%vx%v)", subWidth, subHeight)
	}

	g, gctx = errgroup.WithContext(ctx)
	for _, ch := range channels {
		in, out := s.path(subimageName(ch.Name, mode)), s.path(shrunkenName(ch.Name, mode))
		g.Go(func() error {
			_, err := s.toolkit.Resample(gctx, in, out, factor)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	req := montage.ComposeRequest{
		Mode:     mode,
		Overlays: v.Overlays,
		Output:   s.path(v.ImageFile),
	}
	for _, ch := range channels {
		req.Channels = append(req.Channels, montage.NewComposeChannel(ch.Name, s.path(shrunkenName(ch.Name, mode)), *ch.Descriptor))
	}

	rec, err = s.toolkit.Compose(ctx, req)
	if err != nil {
		return err
	}

	dispWidth, err := rec.Int("width")
	if err != nil {
		return fmt.Errorf("compose response: %w", err)
	}
	dispHeight, err := rec.Int("height")
	if err != nil {
		return fmt.Errorf("compose response: %w", err)
	}

	next := v.Clone()
	next.DispWidth = int(dispWidth)
	next.DispHeight = int(dispHeight)
	next.Factor = factor
	if bunit := rec.Lookup("bunit"); bunit != "" {
		next.BUnit = bunit
	}
	for _, cs := range statsTargets(next) {
		ingestStats(cs.desc, cs.prefix, rec)
	}

	if err := next.WriteJSONFile(s.path(viewFile)); err != nil {
		return err
	}
	s.view = next
	emit("image " + next.ImageFile)
	return nil
}

func statsTargets(v *models.ViewState) []channelStats {
	switch v.DisplayMode {
	case models.DisplayGrayscale:
		return []channelStats{{&v.GrayFile, ""}}
	case models.DisplayColor:
		return []channelStats{{&v.BlueFile, "b"}, {&v.GreenFile, "g"}, {&v.RedFile, "r"}}
	}
	return nil
}

// ingestStats copies mViewer's per-channel statistics; color responses prefix
// each field with r, g or b.
func ingestStats(desc *models.ChannelDescriptor, prefix string, rec *record.Record) {
	set := func(dst *float64, key string) {
		if f, err := rec.Float(prefix + key); err == nil {
			*dst = f
		}
	}
	set(&desc.Min, "min")
	set(&desc.Max, "max")
	set(&desc.DataMin, "datamin")
	set(&desc.DataMax, "datamax")
	set(&desc.MinSigma, "minsigma")
	set(&desc.MaxSigma, "maxsigma")
	set(&desc.MinPercent, "minpercent")
	set(&desc.MaxPercent, "maxpercent")
}
