// Package samplelog keeps the flux measurements taken by pick commands and
// archives them as Parquet when a session ends.
package samplelog

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/lehigh-university-libraries/mviewer/internal/record"
)

// Sample is one channel's aperture measurement at a pick location
type Sample struct {
	SessionID   string  `parquet:"session_id" json:"session_id"`
	Channel     string  `parquet:"channel" json:"channel"`
	File        string  `parquet:"file" json:"file"`
	PickX       float64 `parquet:"pick_x" json:"pick_x"`
	PickY       float64 `parquet:"pick_y" json:"pick_y"`
	FluxRef     float64 `parquet:"flux_ref" json:"flux_ref"`
	SigmaRef    float64 `parquet:"sigma_ref" json:"sigma_ref"`
	FluxMin     float64 `parquet:"flux_min" json:"flux_min"`
	FluxMax     float64 `parquet:"flux_max" json:"flux_max"`
	RARef       float64 `parquet:"ra_ref" json:"ra_ref"`
	DecRef      float64 `parquet:"dec_ref" json:"dec_ref"`
	AveFlux     float64 `parquet:"ave_flux" json:"ave_flux"`
	RMSFlux     float64 `parquet:"rms_flux" json:"rms_flux"`
	Radius      float64 `parquet:"radius" json:"radius"`
	RadPix      float64 `parquet:"radius_pixels" json:"radius_pixels"`
	NPixel      int64   `parquet:"npixel" json:"npixel"`
	NNull       int64   `parquet:"nnull" json:"nnull"`
	TimestampMs int64   `parquet:"timestamp_ms" json:"timestamp_ms"`
}

// FromRecord pulls the aperture fields out of an mExamine -p response.
// Fields the tool left out stay zero.
func FromRecord(sessionID, channel, file string, x, y float64, rec *record.Record, at time.Time) Sample {
	f := func(key string) float64 {
		v, _ := rec.Float(key)
		return v
	}
	i := func(key string) int64 {
		v, _ := rec.Int(key)
		return v
	}
	return Sample{
		SessionID:   sessionID,
		Channel:     channel,
		File:        file,
		PickX:       x,
		PickY:       y,
		FluxRef:     f("fluxref"),
		SigmaRef:    f("sigmaref"),
		FluxMin:     f("fluxmin"),
		FluxMax:     f("fluxmax"),
		RARef:       f("raref"),
		DecRef:      f("decref"),
		AveFlux:     f("aveflux"),
		RMSFlux:     f("rmsflux"),
		Radius:      f("radius"),
		RadPix:      f("radpix"),
		NPixel:      i("npixel"),
		NNull:       i("nnull"),
		TimestampMs: at.UnixMilli(),
	}
}

// Log accumulates samples for one session
type Log struct {
	mu      sync.Mutex
	samples []Sample
}

func New() *Log {
	return &Log{}
}

func (l *Log) Append(s ...Sample) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.samples = append(l.samples, s...)
}

func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.samples)
}

// Samples returns a copy of everything logged so far
func (l *Log) Samples() []Sample {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Sample(nil), l.samples...)
}

// WriteParquet archives the log to path. An empty log writes nothing and
// reports false.
func (l *Log) WriteParquet(path string) (bool, error) {
	rows := l.Samples()
	if len(rows) == 0 {
		return false, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("failed to create archive directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return false, fmt.Errorf("failed to create parquet file: %w", err)
	}
	defer file.Close()

	writer := parquet.NewGenericWriter[Sample](file)
	if _, err := writer.Write(rows); err != nil {
		return false, fmt.Errorf("failed to write samples: %w", err)
	}
	if err := writer.Close(); err != nil {
		return false, fmt.Errorf("failed to finish parquet file: %w", err)
	}

	slog.Debug("Wrote sample archive", "path", path, "rows", len(rows))
	return true, nil
}

// ReadParquet loads an archive written by WriteParquet
func ReadParquet(path string) ([]Sample, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	pf, err := parquet.OpenFile(file, info.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet: %w", err)
	}

	reader := parquet.NewGenericReader[Sample](pf)
	defer reader.Close()

	var samples []Sample
	rows := make([]Sample, 128)
	for {
		n, err := reader.Read(rows)
		samples = append(samples, rows[:n]...)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read samples: %w", err)
		}
	}

	return samples, nil
}
