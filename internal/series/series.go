// Package series projects complexity blocks into a bounded bar chart series.
package series

import (
	"github.com/sprite-ai/devpulse/internal/classify"
	"github.com/sprite-ai/devpulse/internal/model"
)

// MaxBars is the most bars a chart ever shows.
const MaxBars = 20

const unknownLabel = "unknown"

// Band is the complexity bucket of a bar. It is independent of letter grades.
type Band int

const (
	BandLow Band = iota
	BandMedium
	BandHigh
)

func (b Band) String() string {
	switch b {
	case BandLow:
		return "low"
	case BandMedium:
		return "medium"
	case BandHigh:
		return "high"
	default:
		return "unknown"
	}
}

func (b Band) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

// Color returns the palette token for the band.
func (b Band) Color() classify.Color {
	switch b {
	case BandLow:
		return classify.ColorSuccess
	case BandMedium:
		return classify.ColorWarning
	default:
		return classify.ColorDanger
	}
}

// Upper bounds (inclusive) of the low and medium bands.
const (
	lowMax    = 5
	mediumMax = 10
)

// BandFor buckets a complexity value.
func BandFor(complexity int) Band {
	switch {
	case complexity <= lowMax:
		return BandLow
	case complexity <= mediumMax:
		return BandMedium
	default:
		return BandHigh
	}
}

// Bar is one chart entry.
type Bar struct {
	Label string         `json:"label"`
	Value int            `json:"value"`
	Band  Band           `json:"band"`
	Color classify.Color `json:"color"`
}

// Project returns at most MaxBars bars for the first blocks of c, in source order.
// A nil report yields an empty, non-nil slice.
func Project(c *model.Complexity) []Bar {
	if c == nil {
		return []Bar{}
	}
	n := min(len(c.Blocks), MaxBars)
	bars := make([]Bar, 0, n)
	for _, b := range c.Blocks[:n] {
		label := b.Name
		if label == "" {
			label = unknownLabel
		}
		band := BandFor(b.Complexity)
		bars = append(bars, Bar{
			Label: label,
			Value: b.Complexity,
			Band:  band,
			Color: band.Color(),
		})
	}
	return bars
}

// Max returns the largest bar value, or 0 for an empty series.
func Max(bars []Bar) int {
	m := 0
	for _, b := range bars {
		m = max(m, b.Value)
	}
	return m
}

// LegendEntry describes one band for chart legends.
type LegendEntry struct {
	Band  Band
	Label string
	Color classify.Color
}

// Legend lists the bands in ascending order.
func Legend() []LegendEntry {
	return []LegendEntry{
		{BandLow, "Low (1-5)", BandLow.Color()},
		{BandMedium, "Medium (6-10)", BandMedium.Color()},
		{BandHigh, "High (11+)", BandHigh.Color()},
	}
}
