package mapgen

import (
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/oimasterkafuu/checkmate/internal/game/core"
	"github.com/oimasterkafuu/checkmate/internal/game/rng"
)

// Mode selects the terrain generator.
type Mode string

const (
	ModeRandom      Mode = "random"
	ModeMaze        Mode = "maze"
	ModeArchipelago Mode = "archipelago"
)

// ParseMode maps a lobby string to a Mode. Unknown values fall back to random.
func ParseMode(s string) Mode {
	switch Mode(s) {
	case ModeMaze:
		return ModeMaze
	case ModeArchipelago:
		return ModeArchipelago
	default:
		return ModeRandom
	}
}

const (
	defaultWidth = 45
	minDimension = 7

	MaxCityRatio        = 0.04
	MaxSwampRatio       = 0.16
	MaxMountainRatio    = 0.24
	MazeCityRatioBoost  = 2.8
	randomCityArmyMin   = 40
	randomCityArmyMax   = 50
	mazeCityArmyMin     = 20
	mazeCityArmyMax     = 30
	mazeExtraOpenRatio  = 0.03
	mazeOpeningAttempts = 10
)

// Config holds configuration for map generation. Ratios are in [0, 1]
// except the size ratios, which scale the base dimensions.
type Config struct {
	WidthRatio      float64
	HeightRatio     float64
	CityRatio       float64
	MountainRatio   float64
	SwampRatio      float64
	RequiredPlayers int
}

// DefaultConfig returns a sensible default configuration
func DefaultConfig(players int) Config {
	return Config{
		WidthRatio:      1,
		HeightRatio:     1,
		CityRatio:       0.5,
		MountainRatio:   0.5,
		SwampRatio:      0.2,
		RequiredPlayers: players,
	}
}

func (c Config) Validate() error {
	for name, v := range map[string]float64{
		"width_ratio":    c.WidthRatio,
		"height_ratio":   c.HeightRatio,
		"city_ratio":     c.CityRatio,
		"mountain_ratio": c.MountainRatio,
		"swamp_ratio":    c.SwampRatio,
	} {
		if math.IsNaN(v) || v < 0 {
			return fmt.Errorf("mapgen: %s must be a non-negative number, got %v", name, v)
		}
	}
	if c.RequiredPlayers < 0 {
		return fmt.Errorf("mapgen: required players must be >= 0, got %d", c.RequiredPlayers)
	}
	return nil
}

// Generator handles map generation with a deterministic RNG. The board it
// returns is owned by the caller and never touched again.
type Generator struct {
	config Config
	rng    *rng.Seeded
	logger zerolog.Logger

	archipelagoRetries int
}

// NewGenerator creates a new map generator
func NewGenerator(config Config, r *rng.Seeded) *Generator {
	return &Generator{
		config:             config,
		rng:                r,
		logger:             zerolog.Nop(),
		archipelagoRetries: archipelagoRetryLimit,
	}
}

// WithLogger attaches a logger used for fallback diagnostics.
func (g *Generator) WithLogger(l zerolog.Logger) *Generator {
	g.logger = l.With().Str("component", "MapGenerator").Logger()
	return g
}

// WithArchipelagoRetries overrides the structural retry budget.
func (g *Generator) WithArchipelagoRetries(n int) *Generator {
	if n > 0 {
		g.archipelagoRetries = n
	}
	return g
}

// Generate builds a board for the mode. Every generator falls back to the
// random map when it cannot meet its structural constraints.
func (g *Generator) Generate(mode Mode) *core.Board {
	switch mode {
	case ModeMaze:
		return g.GenerateMaze()
	case ModeArchipelago:
		return g.GenerateArchipelago()
	default:
		return g.GenerateRandom()
	}
}

// baseDimensions picks the row count around the default width and derives
// the column count so the unscaled area stays near defaultWidth^2.
func (g *Generator) baseDimensions() (int, int) {
	ni := g.rng.IntInclusive(defaultWidth-5, defaultWidth+5)
	mi := (defaultWidth * defaultWidth) / ni
	return oddAtLeast(int(math.Floor(float64(ni)*g.config.HeightRatio)), minDimension),
		oddAtLeast(int(math.Floor(float64(mi)*g.config.WidthRatio)), minDimension)
}

func oddAtLeast(v, min int) int {
	if v < min {
		v = min
	}
	if v%2 == 0 {
		v++
	}
	return v
}
