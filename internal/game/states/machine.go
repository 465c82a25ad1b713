package states

import (
	"fmt"
	"time"

	"github.com/oimasterkafuu/checkmate/internal/game/events"
)

// State hooks into the phase it represents. Enter failing keeps the
// machine in the previous phase; Exit errors are only logged.
type State interface {
	Phase() GamePhase
	Enter(ctx *GameContext) error
	Exit(ctx *GameContext) error
	Validate(ctx *GameContext) error
}

// Transition is one recorded phase change
type Transition struct {
	From   GamePhase
	To     GamePhase
	At     time.Time
	Reason string
}

// Machine walks a game through its phases. It is owned by the game loop
// and is not safe for concurrent use.
type Machine struct {
	phase   GamePhase
	states  map[GamePhase]State
	ctx     *GameContext
	history []Transition
	pub     events.Publisher
	now     func() time.Time
}

// NewMachine starts in PhaseInitializing with the built-in states. pub
// may be nil.
func NewMachine(ctx *GameContext, pub events.Publisher) *Machine {
	m := &Machine{
		phase:  PhaseInitializing,
		states: make(map[GamePhase]State, 6),
		ctx:    ctx,
		pub:    pub,
		now:    time.Now,
	}
	for _, s := range []State{
		NewInitializingState(),
		NewStartingState(),
		NewRunningState(),
		NewEndingState(),
		NewEndedState(),
		NewErrorState(),
	} {
		m.states[s.Phase()] = s
	}
	return m
}

// Override replaces the state bound to s.Phase()
func (m *Machine) Override(s State) { m.states[s.Phase()] = s }

func (m *Machine) Phase() GamePhase      { return m.phase }
func (m *Machine) Context() *GameContext { return m.ctx }

// History returns the transitions taken so far, oldest first
func (m *Machine) History() []Transition {
	return append([]Transition(nil), m.history...)
}

// Transition moves to phase to. The phase table decides what is legal and
// the target state's Validate gets the last word.
func (m *Machine) Transition(to GamePhase, reason string) error {
	from := m.phase
	if !from.CanTransitionTo(to) {
		return fmt.Errorf("invalid transition from %s to %s", from, to)
	}
	next, ok := m.states[to]
	if !ok {
		return fmt.Errorf("no state bound to phase %s", to)
	}
	if err := next.Validate(m.ctx); err != nil {
		return fmt.Errorf("cannot enter %s: %w", to, err)
	}

	if cur, ok := m.states[from]; ok {
		if err := cur.Exit(m.ctx); err != nil {
			m.ctx.Logger.Error().Err(err).
				Str("from_phase", from.String()).
				Str("to_phase", to.String()).
				Msg("Error exiting state")
		}
	}

	m.phase = to
	if err := next.Enter(m.ctx); err != nil {
		m.phase = from
		return fmt.Errorf("enter %s: %w", to, err)
	}
	m.history = append(m.history, Transition{From: from, To: to, At: m.now(), Reason: reason})

	if m.pub != nil {
		m.pub.Publish(events.NewStateTransitionEvent(m.ctx.GameID, from.String(), to.String(), reason))
	}
	m.ctx.Logger.Debug().
		Str("from_phase", from.String()).
		Str("to_phase", to.String()).
		Str("reason", reason).
		Msg("Phase changed")
	return nil
}

// Fail records err and moves to PhaseError. A terminal machine ignores it.
func (m *Machine) Fail(err error) error {
	if m.phase.IsTerminal() {
		return nil
	}
	m.ctx.Error = err
	return m.Transition(PhaseError, err.Error())
}
