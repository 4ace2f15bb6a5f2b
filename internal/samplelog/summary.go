package samplelog

import (
	"fmt"
	"io"
	"math"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

// ChannelSummary aggregates the picks taken on one channel
type ChannelSummary struct {
	Channel     string  `yaml:"channel"`
	File        string  `yaml:"file"`
	Picks       int     `yaml:"picks"`
	MeanFlux    float64 `yaml:"meanflux"`
	MinFlux     float64 `yaml:"minflux"`
	MaxFlux     float64 `yaml:"maxflux"`
	MeanRMS     float64 `yaml:"meanrms"`
	TotalPixels int64   `yaml:"totalpixels"`
	NullPixels  int64   `yaml:"nullpixels"`
}

// Report is the YAML form of an archive summary
type Report struct {
	Sessions []string         `yaml:"sessions"`
	Samples  int              `yaml:"samples"`
	First    string           `yaml:"first,omitempty"`
	Last     string           `yaml:"last,omitempty"`
	Channels []ChannelSummary `yaml:"channels"`
}

// Summarize groups samples by channel and file, in first-seen order
func Summarize(samples []Sample) *Report {
	report := &Report{Samples: len(samples), Channels: []ChannelSummary{}}

	sessions := map[string]bool{}
	index := map[string]int{}
	var first, last int64

	for _, s := range samples {
		if !sessions[s.SessionID] {
			sessions[s.SessionID] = true
			report.Sessions = append(report.Sessions, s.SessionID)
		}
		if first == 0 || s.TimestampMs < first {
			first = s.TimestampMs
		}
		if s.TimestampMs > last {
			last = s.TimestampMs
		}

		key := s.Channel + "\x00" + s.File
		i, ok := index[key]
		if !ok {
			i = len(report.Channels)
			index[key] = i
			report.Channels = append(report.Channels, ChannelSummary{
				Channel: s.Channel,
				File:    s.File,
				MinFlux: math.Inf(1),
				MaxFlux: math.Inf(-1),
			})
		}
		c := &report.Channels[i]
		c.Picks++
		c.MeanFlux += s.FluxRef
		c.MeanRMS += s.RMSFlux
		c.MinFlux = math.Min(c.MinFlux, s.FluxRef)
		c.MaxFlux = math.Max(c.MaxFlux, s.FluxRef)
		c.TotalPixels += s.NPixel
		c.NullPixels += s.NNull
	}

	for i := range report.Channels {
		c := &report.Channels[i]
		c.MeanFlux /= float64(c.Picks)
		c.MeanRMS /= float64(c.Picks)
	}
	sort.Strings(report.Sessions)

	if len(samples) > 0 {
		report.First = time.UnixMilli(first).UTC().Format(time.RFC3339)
		report.Last = time.UnixMilli(last).UTC().Format(time.RFC3339)
	}
	return report
}

// WriteYAML encodes the report
func (r *Report) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("failed to encode summary: %w", err)
	}
	return enc.Close()
}
