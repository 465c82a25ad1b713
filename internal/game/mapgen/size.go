package mapgen

import "math"

// MaxTeams bounds the player count used by the size curve.
const MaxTeams = 16

const (
	minSizeRatio     = 0.2
	maxSizeRatio     = 1.35
	fallbackSizeRate = 0.5
)

// SizeVersion selects how lobby size ratios map to generator ratios.
// Version 1 compresses the range around 1; version 2 uses it directly.
type SizeVersion int

const (
	SizeVersion1 SizeVersion = 1
	SizeVersion2 SizeVersion = 2
)

// ClampSizeRatio keeps a width or height ratio within [0.2, 1.35].
// NaN and infinities become 0.5.
func ClampSizeRatio(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fallbackSizeRate
	}
	return math.Max(minSizeRatio, math.Min(maxSizeRatio, v))
}

// RuntimeSizeRatio converts a stored ratio to the one fed to the generator.
func RuntimeSizeRatio(ratio float64, version SizeVersion) float64 {
	if version == SizeVersion1 {
		return ratio/2 + 0.5
	}
	return ratio
}

// SizeRatioForPlayers suggests a lobby size ratio for a player count.
func SizeRatioForPlayers(players int) float64 {
	p := max(2, min(MaxTeams, players))
	switch {
	case p <= 2:
		return 0.28
	case p == 3:
		return 0.3
	case p == 4:
		return 0.32
	case p <= 10:
		progress := float64(p-4) / float64(10-4)
		return 0.32 + progress*(0.76-0.32)
	default:
		progress := float64(p-10) / float64(MaxTeams-10)
		return 0.76 + progress*(0.96-0.76)
	}
}
