// Package output writes a canonical report in the non-interactive formats.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/sprite-ai/devpulse/internal/classify"
	"github.com/sprite-ai/devpulse/internal/model"
	"github.com/sprite-ai/devpulse/internal/series"
	"gopkg.in/yaml.v3"
)

// Format is an output format name.
type Format string

const (
	FormatText     Format = "text"
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
)

// Formats lists the supported formats.
var Formats = []Format{FormatText, FormatJSON, FormatYAML, FormatMarkdown, FormatHTML}

// ParseFormat validates a format name. "md" is accepted for markdown.
func ParseFormat(s string) (Format, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "md" {
		return FormatMarkdown, nil
	}
	for _, f := range Formats {
		if string(f) == name {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown format %q (want one of text, json, yaml, markdown, html)", s)
}

// Write renders r to w in format f.
func Write(w io.Writer, f Format, r *model.Report) error {
	switch f {
	case FormatJSON:
		return WriteJSON(w, NewDocument(r))
	case FormatYAML:
		return WriteYAML(w, NewDocument(r))
	case FormatMarkdown:
		return WriteMarkdown(w, r)
	case FormatHTML:
		return WriteHTML(w, r)
	case FormatText, "":
		return WriteText(w, r)
	default:
		return fmt.Errorf("unknown format %q", f)
	}
}

// Document is the machine-readable form of a report: the canonical model plus its
// classifications and chart series.
type Document struct {
	Report         *model.Report    `json:"report"`
	Health         classify.Result  `json:"health"`
	AIProbability  classify.Result  `json:"ai_probability"`
	HistoricalRisk classify.Result  `json:"historical_risk"`
	Lint           *classify.Result `json:"lint,omitempty"`
	Series         []series.Bar     `json:"complexity_series"`
}

func NewDocument(r *model.Report) Document {
	if r == nil {
		r = &model.Report{}
	}
	doc := Document{
		Report:         r,
		Health:         classify.Classify(r.HealthScore, classify.ScaleHealth),
		AIProbability:  classify.ClassifyRisk(r.AI.Probability),
		HistoricalRisk: classify.ClassifyRisk(r.HistoricalRiskScore),
		Series:         series.Project(r.Complexity),
	}
	if r.Lint != nil {
		res := classify.Classify(r.Lint.Score, classify.ScaleLint)
		doc.Lint = &res
	}
	return doc
}

// WriteJSON writes indented JSON for v.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding JSON: %w", err)
	}
	return nil
}

// WriteYAML writes v as YAML, keeping the JSON field names and order.
func WriteYAML(w io.Writer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding YAML: %w", err)
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("encoding YAML: %w", err)
	}
	blockStyle(&doc)

	enc := yaml.NewEncoder(w)
	defer enc.Close()
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return fmt.Errorf("encoding YAML: %w", err)
	}
	return nil
}

// blockStyle drops the flow and quoting styles JSON input leaves on every node.
func blockStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		blockStyle(c)
	}
}
