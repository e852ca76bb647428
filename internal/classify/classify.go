// Package classify maps scores on the report's unrelated scales to severity tiers and color tokens.
//
// Every view reads its colors from the tables here, so a boundary value classifies the same way
// wherever it is displayed. Lower bounds are inclusive on every scale.
package classify

import (
	"fmt"
	"math"
	"strings"

	"github.com/sprite-ai/devpulse/internal/model"
)

// Scale identifies the range and tier table a value is classified against.
type Scale int

const (
	ScaleHealth      Scale = iota // 0..100, higher is better
	ScaleProbability              // 0..1
	ScaleLint                     // 0..10
	ScaleGrade                    // A..F
)

func (s Scale) String() string {
	switch s {
	case ScaleHealth:
		return "health"
	case ScaleProbability:
		return "probability"
	case ScaleLint:
		return "lint"
	case ScaleGrade:
		return "grade"
	default:
		return "unknown"
	}
}

// ParseScale maps a scale name to a Scale.
func ParseScale(name string) (Scale, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "health":
		return ScaleHealth, nil
	case "probability", "risk":
		return ScaleProbability, nil
	case "lint":
		return ScaleLint, nil
	case "grade":
		return ScaleGrade, nil
	default:
		return 0, fmt.Errorf("unknown scale %q", name)
	}
}

// Range returns the inclusive bounds of a numeric scale. ScaleGrade has no numeric range.
func Range(s Scale) (lo, hi float64) {
	switch s {
	case ScaleHealth:
		return 0, 100
	case ScaleProbability:
		return 0, 1
	case ScaleLint:
		return 0, 10
	default:
		return 0, 0
	}
}

// Clamp forces v into the range of scale s. NaN clamps to the lower bound.
func Clamp(v float64, s Scale) float64 {
	lo, hi := Range(s)
	switch {
	case math.IsNaN(v), v < lo:
		return lo
	case v > hi:
		return hi
	default:
		return v
	}
}

// Tier is an ordered severity/quality tier.
type Tier int

const (
	TierNeutral Tier = iota
	TierExcellent
	TierGood
	TierMedium
	TierFair
	TierPoor
	TierCritical
)

func (t Tier) String() string {
	switch t {
	case TierExcellent:
		return "excellent"
	case TierGood:
		return "good"
	case TierMedium:
		return "medium"
	case TierFair:
		return "fair"
	case TierPoor:
		return "poor"
	case TierCritical:
		return "critical"
	default:
		return "neutral"
	}
}

// Label is the capitalized tier name used in badges.
func (t Tier) Label() string {
	s := t.String()
	return strings.ToUpper(s[:1]) + s[1:]
}

// Polarity says whether higher values on a scale are better (quality) or worse (risk).
type Polarity int

const (
	HigherIsBetter Polarity = iota
	HigherIsWorse
)

// Result is the outcome of a classification. Value is the clamped input.
type Result struct {
	Value float64 `json:"value"`
	Tier  Tier    `json:"tier"`
	Color Color   `json:"color"`
}

// MarshalText renders the tier by name.
func (t Tier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

var threeTierColors = map[Polarity]map[Tier]Color{
	HigherIsBetter: {TierGood: ColorSuccess, TierMedium: ColorWarning, TierPoor: ColorDanger},
	HigherIsWorse:  {TierGood: ColorDanger, TierMedium: ColorWarning, TierPoor: ColorSuccess},
}

var lintColors = map[Tier]Color{
	TierExcellent: ColorEmerald,
	TierGood:      ColorWarning,
	TierFair:      ColorOrange,
	TierPoor:      ColorDanger,
}

var gradeTiers = map[model.Grade]Tier{
	model.GradeA: TierExcellent,
	model.GradeB: TierGood,
	model.GradeC: TierMedium,
	model.GradeD: TierFair,
	model.GradeE: TierPoor,
	model.GradeF: TierCritical,
}

var gradeColors = map[model.Grade]Color{
	model.GradeA: ColorSuccess,
	model.GradeB: ColorLime,
	model.GradeC: ColorWarning,
	model.GradeD: ColorOrange,
	model.GradeE: ColorDanger,
	model.GradeF: ColorCritical,
}

// Classify classifies v on scale s with quality polarity. The grade scale is not numeric and always
// yields the neutral tier here; use ClassifyGrade for letters.
func Classify(v float64, s Scale) Result {
	return ClassifyWithPolarity(v, s, HigherIsBetter)
}

// ClassifyRisk classifies a 0..1 risk score: same bands as Classify, risk colors.
func ClassifyRisk(v float64) Result {
	return ClassifyWithPolarity(v, ScaleProbability, HigherIsWorse)
}

// ClassifyWithPolarity classifies v on scale s. Polarity only changes the color of the
// three-tier health/probability scales.
func ClassifyWithPolarity(v float64, s Scale, p Polarity) Result {
	c := Clamp(v, s)
	switch s {
	case ScaleHealth, ScaleProbability:
		_, hi := Range(s)
		t := threeTier(c / hi)
		return Result{Value: c, Tier: t, Color: threeTierColors[p][t]}
	case ScaleLint:
		t := lintTier(c)
		return Result{Value: c, Tier: t, Color: lintColors[t]}
	default:
		return Result{Value: c, Tier: TierNeutral, Color: ColorNeutral}
	}
}

// ClassifyGrade maps A..F onto the best..worst tiers. Unknown grades are neutral.
func ClassifyGrade(g model.Grade) Result {
	t, ok := gradeTiers[g]
	if !ok {
		return Result{Tier: TierNeutral, Color: ColorNeutral}
	}
	return Result{Tier: t, Color: gradeColors[g]}
}

func threeTier(frac float64) Tier {
	switch {
	case frac >= 0.75:
		return TierGood
	case frac >= 0.50:
		return TierMedium
	default:
		return TierPoor
	}
}

func lintTier(score float64) Tier {
	switch {
	case score >= 9:
		return TierExcellent
	case score >= 7:
		return TierGood
	case score >= 5:
		return TierFair
	default:
		return TierPoor
	}
}

// SeverityColor returns the color for a lint severity.
func SeverityColor(severity string) Color {
	switch strings.ToLower(severity) {
	case model.SeverityError:
		return ColorDanger
	case model.SeverityWarning:
		return ColorWarning
	case model.SeverityConvention:
		return ColorInfo
	case model.SeverityRefactor:
		return ColorViolet
	default:
		return ColorNeutral
	}
}
