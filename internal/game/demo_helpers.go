package game

import (
	"math/rand"

	"github.com/rs/zerolog"

	"github.com/oimasterkafuu/checkmate/internal/game/core"
	"github.com/oimasterkafuu/checkmate/internal/game/rules"
)

// RandomBot picks a random legal move for one seat. It is a baseline
// opponent for demos and tests.
type RandomBot struct {
	player int
	rng    *rand.Rand
	legal  *rules.LegalMoveCalculator
	logger zerolog.Logger

	// Activity is the chance to act on a given turn; HalfOdds the chance
	// a chosen move sends half the army.
	Activity float64
	HalfOdds float64
}

// NewRandomBot creates a bot for the seat with the given index
func NewRandomBot(player int, rng *rand.Rand, logger zerolog.Logger) *RandomBot {
	return &RandomBot{
		player:   player,
		rng:      rng,
		legal:    rules.NewLegalMoveCalculator(),
		logger:   logger.With().Str("component", "RandomBot").Int("player", player).Logger(),
		Activity: 0.7,
		HalfOdds: 0.3,
	}
}

// NextMove returns the move to queue this turn, if any. Moves out of the
// bot's general are preferred once it holds enough army to expand.
func (b *RandomBot) NextMove(board *core.Board) (core.Move, bool) {
	if b.rng.Float64() > b.Activity {
		return core.NoMove, false
	}
	moves := b.legal.LegalMoves(board, b.player)
	if len(moves) == 0 {
		return core.NoMove, false
	}

	best := moves[b.rng.Intn(len(moves))]
	for _, m := range moves {
		from := board.At(m.FromX, m.FromY)
		to := board.At(m.ToX, m.ToY)
		if from.IsGeneral() && from.Army > 10 && to.Owner != from.Owner {
			best = m
			break
		}
	}
	best.Half = b.rng.Float64() < b.HalfOdds

	b.logger.Debug().
		Int("from_x", best.FromX).Int("from_y", best.FromY).
		Int("to_x", best.ToX).Int("to_y", best.ToY).
		Bool("half", best.Half).
		Msg("Generated random move")
	return best, true
}

// QueueBotMoves asks every bot for a move and queues it on its seat
func QueueBotMoves(e *Engine, bots []*RandomBot) {
	for _, bot := range bots {
		p := e.players[bot.player]
		if !p.IsAlive() {
			continue
		}
		if m, ok := bot.NextMove(e.board); ok {
			e.AddMove(p.Sid, m.FromX, m.FromY, m.ToX, m.ToY, m.Half)
		}
	}
}
