package report

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/sprite-ai/devpulse/internal/model"
)

// complexityShape tags which encoding a complexity payload uses.
type complexityShape int

const (
	shapeAbsent complexityShape = iota
	shapeStructured
	shapeLegacy
)

// complexitySource is the detected variant. Exactly one of blocks/lines is meaningful.
type complexitySource struct {
	shape  complexityShape
	obj    object
	blocks []any
	lines  []string
}

// legacyLine matches "<kind> <name> - (<n>)". The kind token is optional.
var legacyLine = regexp.MustCompile(`^(?:(\S+)\s+)?(.+?) - \((\d+)\)$`)

// location is a "<line>:<col>" prefix on a legacy block name.
var location = regexp.MustCompile(`^(\d+:\d+)\s+(.+)$`)

var legacyKeys = []string{"lines", "raw", "output"}

func detectComplexity(v any) complexitySource {
	switch src := v.(type) {
	case map[string]any:
		if blocks, ok := src["blocks"].([]any); ok {
			return complexitySource{shape: shapeStructured, obj: src, blocks: blocks}
		}
		for _, k := range legacyKeys {
			if lines, ok := textLines(src[k]); ok {
				return complexitySource{shape: shapeLegacy, obj: src, lines: lines}
			}
		}
	case []any:
		if len(src) > 0 {
			if _, ok := src[0].(map[string]any); ok {
				return complexitySource{shape: shapeStructured, obj: object{}, blocks: src}
			}
		}
		if lines, ok := textLines(src); ok {
			return complexitySource{shape: shapeLegacy, obj: object{}, lines: lines}
		}
	case string:
		lines, _ := textLines(src)
		return complexitySource{shape: shapeLegacy, obj: object{}, lines: lines}
	}
	return complexitySource{shape: shapeAbsent}
}

func textLines(v any) ([]string, bool) {
	switch t := v.(type) {
	case string:
		return strings.Split(t, "\n"), true
	case []any:
		lines := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := item.(string); ok {
				lines = append(lines, s)
			}
		}
		return lines, true
	default:
		return nil, false
	}
}

func normalizeComplexity(v any) *model.Complexity {
	src := detectComplexity(v)
	switch src.shape {
	case shapeStructured:
		return structuredComplexity(src)
	case shapeLegacy:
		return legacyComplexity(src.lines)
	default:
		absent("complexity", "neither blocks nor text lines present")
		return nil
	}
}

func structuredComplexity(src complexitySource) *model.Complexity {
	c := &model.Complexity{Blocks: make([]model.Block, 0, len(src.blocks))}
	for _, item := range src.blocks {
		bo, ok := asObject(item)
		if !ok {
			continue
		}
		c.Blocks = append(c.Blocks, model.Block{
			Name:       text(bo, "name"),
			Kind:       kindName(text(bo, "kind", "type")),
			Complexity: count(bo, "complexity"),
			Grade:      model.ParseGrade(text(bo, "grade")),
			File:       text(bo, "file"),
			Location:   text(bo, "location"),
		})
	}

	fillAggregates(c)
	if n, ok := integer(src.obj, "total_functions"); ok && n >= 0 {
		c.TotalFunctions = n
	}
	if t, ok := number(src.obj, "total_complexity"); ok {
		c.TotalComplexity = t
	}
	if a, ok := number(src.obj, "average_complexity"); ok {
		c.AverageComplexity = a
	}
	return c
}

// legacyComplexity extracts blocks from radon-style text output. Unmatched lines are dropped;
// an unindented bare path line sets the file for the blocks that follow it.
func legacyComplexity(lines []string) *model.Complexity {
	c := &model.Complexity{Blocks: []model.Block{}}
	file := ""
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		m := legacyLine.FindStringSubmatch(trimmed)
		if m == nil {
			if isPathLine(line, trimmed) {
				file = trimmed
			}
			continue
		}
		n, err := strconv.Atoi(m[3])
		if err != nil {
			continue
		}
		b := model.Block{
			Name:       strings.TrimSpace(m[2]),
			Kind:       kindName(m[1]),
			Complexity: n,
			Grade:      model.GradeUnknown,
			File:       file,
		}
		if lm := location.FindStringSubmatch(b.Name); lm != nil {
			b.Location, b.Name = lm[1], lm[2]
		}
		c.Blocks = append(c.Blocks, b)
	}
	fillAggregates(c)
	return c
}

func isPathLine(raw, trimmed string) bool {
	if raw != strings.TrimLeft(raw, " \t") || strings.ContainsAny(trimmed, " \t") {
		return false
	}
	return strings.Contains(trimmed, "/") || strings.Contains(trimmed, ".")
}

func fillAggregates(c *model.Complexity) {
	total := 0
	for _, b := range c.Blocks {
		total += b.Complexity
	}
	c.TotalFunctions = len(c.Blocks)
	c.TotalComplexity = float64(total)
	if len(c.Blocks) > 0 {
		c.AverageComplexity = math.Round(float64(total)/float64(len(c.Blocks))*100) / 100
	}
}

func kindName(k string) string {
	switch k {
	case "F":
		return "function"
	case "M":
		return "method"
	case "C":
		return "class"
	default:
		return k
	}
}
