package session

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lehigh-university-libraries/mviewer/internal/models"
	"github.com/lehigh-university-libraries/mviewer/internal/record"
	"github.com/lehigh-university-libraries/mviewer/internal/samplelog"
	"github.com/lehigh-university-libraries/mviewer/internal/viewport"
)

// cmdPick records the pick location and measures every active channel
// around it. The viewport is left alone and nothing is re-rendered.
func (s *Session) cmdPick(ctx context.Context, cmd Command, emit func(string)) error {
	at, err := parseFloats(cmd)
	if err != nil {
		return err
	}
	if err := s.ready(ctx); err != nil {
		return err
	}

	p := viewport.Pick(s.input(), at[0], at[1])
	s.view.CurrentPickX = p.X
	s.view.CurrentPickY = p.Y

	channels := s.view.ActiveChannels()
	results := make([]*record.Record, len(channels))

	g, gctx := errgroup.WithContext(ctx)
	for i, ch := range channels {
		file := ch.Descriptor.FitsFile
		g.Go(func() error {
			rec, err := s.toolkit.Sample(gctx, file, p.X, p.Y, s.radius)
			if err != nil {
				return err
			}
			results[i] = rec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	data, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("failed to encode pick results: %w", err)
	}
	if err := os.WriteFile(s.path(pickFile), data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", pickFile, err)
	}

	now := time.Now()
	for i, ch := range channels {
		s.samples.Append(samplelog.FromRecord(s.id, ch.Name, ch.Descriptor.FitsFile, p.X, p.Y, results[i], now))
	}

	emit("pick")
	return nil
}

// cmdHeader writes header<i>.html for each active channel, in the same order
// as pick results.
func (s *Session) cmdHeader(ctx context.Context, cmd Command, emit func(string)) error {
	if s.view.DisplayMode == models.DisplayUnset {
		return ErrNoChannelConfigured
	}

	for i, ch := range s.view.ActiveChannels() {
		out := s.path(fmt.Sprintf("header%d.html", i))
		if _, err := s.toolkit.Header(ctx, ch.Descriptor.FitsFile, out); err != nil {
			return err
		}
	}

	if s.view.DisplayMode == models.DisplayColor {
		emit("header color")
	} else {
		emit("header gray")
	}
	return nil
}
