package processor

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/oimasterkafuu/checkmate/internal/game/core"
	"github.com/oimasterkafuu/checkmate/internal/game/events"
	"github.com/oimasterkafuu/checkmate/internal/game/rules"
)

// PlayerInfo is a player whose move queue the processor drains.
type PlayerInfo interface {
	GetID() int
	IsAlive() bool
	// NextMove pops the oldest queued move.
	NextMove() (core.Move, bool)
}

// Applied describes a move that reached the board. Victim is the owner id
// whose general was captured by it, or 0.
type Applied struct {
	Player int
	Move   core.Move
	Armies int
	Victim int
}

// ActionProcessor handles the processing of queued moves during each game tick
type ActionProcessor struct {
	gameID    string
	publisher events.Publisher
	logger    zerolog.Logger
}

// NewActionProcessor creates a new action processor. publisher may be nil.
func NewActionProcessor(gameID string, publisher events.Publisher, logger zerolog.Logger) *ActionProcessor {
	return &ActionProcessor{
		gameID:    gameID,
		publisher: publisher,
		logger:    logger.With().Str("component", "ActionProcessor").Logger(),
	}
}

// TurnOrder returns the order players act in on turn. Odd turns run the
// roster backwards so no index always moves first.
func TurnOrder(count, turn int) []int {
	order := make([]int, count)
	for i := range order {
		if turn%2 == 1 {
			order[i] = count - 1 - i
		} else {
			order[i] = i
		}
	}
	return order
}

// ProcessQueues applies at most one move per living player. Stale moves at
// the head of a queue are discarded until one validates. onApplied runs
// right after each move so eliminations are visible to later players in
// the same turn.
func (ap *ActionProcessor) ProcessQueues(ctx context.Context, board *core.Board, teams []int, players []PlayerInfo, turn int, onApplied func(Applied)) ([]Applied, error) {
	var applied []Applied
	for _, p := range TurnOrder(len(players), turn) {
		select {
		case <-ctx.Done():
			ap.logger.Warn().Err(ctx.Err()).Msg("Move processing interrupted by context cancellation")
			return applied, ctx.Err()
		default:
		}

		player := players[p]
		if !player.IsAlive() {
			continue
		}
		for {
			m, ok := player.NextMove()
			if !ok {
				break
			}
			if err := rules.ValidateMove(board, player.GetID(), m); err != nil {
				ap.logger.Debug().Err(core.WrapMoveError(player.GetID(), m, err)).Int("turn", turn).Msg("Dropping stale move")
				ap.publish(events.NewMoveRejectedEvent(ap.gameID, player.GetID(), m, err, turn))
				continue
			}

			armies := board.At(m.FromX, m.FromY).Army - 1
			if m.Half {
				armies /= 2
			}
			a := Applied{Player: player.GetID(), Move: m, Armies: armies}
			a.Victim = rules.Attack(board, teams, m)
			applied = append(applied, a)
			ap.publish(events.NewMoveExecutedEvent(ap.gameID, a.Player, m, armies, a.Victim, turn))
			if onApplied != nil {
				onApplied(a)
			}
			break
		}
	}
	return applied, nil
}

func (ap *ActionProcessor) publish(e events.Event) {
	if ap.publisher != nil {
		ap.publisher.Publish(e)
	}
}
