package classify

// Color is a renderer-independent color token.
type Color string

const (
	ColorSuccess  Color = "success"
	ColorEmerald  Color = "emerald"
	ColorLime     Color = "lime"
	ColorWarning  Color = "warning"
	ColorOrange   Color = "orange"
	ColorDanger   Color = "danger"
	ColorCritical Color = "critical"
	ColorInfo     Color = "info"
	ColorViolet   Color = "violet"
	ColorNeutral  Color = "neutral"
)

var palette = map[Color]string{
	ColorSuccess:  "#22c55e",
	ColorEmerald:  "#10b981",
	ColorLime:     "#84cc16",
	ColorWarning:  "#f59e0b",
	ColorOrange:   "#f97316",
	ColorDanger:   "#ef4444",
	ColorCritical: "#dc2626",
	ColorInfo:     "#3b82f6",
	ColorViolet:   "#8b5cf6",
	ColorNeutral:  "#6b7280",
}

// Hex returns the RGB hex value of the token. Unknown tokens render as neutral.
func (c Color) Hex() string {
	if h, ok := palette[c]; ok {
		return h
	}
	return palette[ColorNeutral]
}
