package game

import (
	"github.com/rs/zerolog"

	"github.com/oimasterkafuu/checkmate/internal/game/core"
	"github.com/oimasterkafuu/checkmate/internal/game/events"
	"github.com/oimasterkafuu/checkmate/internal/game/rules"
)

// ProductionManager handles army growth and the slow territory changes of
// a tick: disconnect countdowns and surrender fades.
type ProductionManager struct {
	eventBus *events.EventBus
	gameID   string
	logger   zerolog.Logger
}

// NewProductionManager creates a new production manager
func NewProductionManager(eventBus *events.EventBus, gameID string, logger zerolog.Logger) *ProductionManager {
	return &ProductionManager{
		eventBus: eventBus,
		gameID:   gameID,
		logger:   logger.With().Str("component", "ProductionManager").Logger(),
	}
}

// ProcessTurnProduction applies army growth for the given turn
func (pm *ProductionManager) ProcessTurnProduction(b *core.Board, players []*Player, turn int) {
	alive := make([]bool, len(players))
	for i, p := range players {
		alive[i] = p.IsAlive()
	}
	rules.ApplyTickGrowth(b, turn, alive)
	pm.logger.Debug().
		Int("turn", turn).
		Bool("structures", turn%2 == 0).
		Bool("uniform", turn%rules.UniformGrowthInterval == 0).
		Msg("Processed turn production")
}

// AdvanceCountdowns moves every running disconnect countdown one step and
// returns the players whose countdown just expired.
func (pm *ProductionManager) AdvanceCountdowns(players []*Player, leftGame int) []*Player {
	var expired []*Player
	for _, p := range players {
		if p.Status == 0 {
			continue
		}
		p.Status = min(p.Status+1, leftGame)
		if p.Status == leftGame-1 {
			expired = append(expired, p)
		}
	}
	return expired
}

// FinalizeSurrenders releases the territory of every surrender whose fade
// is over
func (pm *ProductionManager) FinalizeSurrenders(b *core.Board, states []rules.SurrenderState, turn, fadeTicks int) []int {
	done := rules.FinalizeSurrenders(b, turn, fadeTicks, states)
	for _, p := range done {
		pm.logger.Info().Int("player", p).Int("turn", turn).Msg("Surrender finalized")
		pm.eventBus.Publish(events.NewPlayerEvent(events.TypeSurrenderFinalized, pm.gameID, p, turn))
	}
	return done
}
