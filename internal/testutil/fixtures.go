// Package testutil holds fixtures shared by the game and server tests.
package testutil

import (
	"math/rand"

	"github.com/rs/zerolog"

	"github.com/oimasterkafuu/checkmate/internal/game/core"
)

// NewTestRNG returns a seeded generator so map layouts repeat across runs
func NewTestRNG(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

func NopLogger() zerolog.Logger { return zerolog.Nop() }

// Board builds an n x m plain board and places tiles on it
func Board(n, m int, tiles map[core.Coordinate]core.Tile) *core.Board {
	b := core.NewBoard(n, m)
	for c, tile := range tiles {
		*b.At(c.X, c.Y) = tile
	}
	return b
}
