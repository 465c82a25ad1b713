package states

import (
	"fmt"
	"slices"
)

// GamePhase is where a game sits in its lifecycle
type GamePhase int

const (
	PhaseInitializing GamePhase = iota // map generation and general placement
	PhaseStarting                      // map sent, waiting out the start delay
	PhaseRunning                       // ticks are being played
	PhaseEnding                        // final payload and replay persistence
	PhaseEnded
	PhaseError // a tick failed and the game was aborted
)

var phaseNames = [...]string{
	PhaseInitializing: "Initializing",
	PhaseStarting:     "Starting",
	PhaseRunning:      "Running",
	PhaseEnding:       "Ending",
	PhaseEnded:        "Ended",
	PhaseError:        "Error",
}

// every non-terminal phase may also fail into PhaseError
var nextPhases = map[GamePhase][]GamePhase{
	PhaseInitializing: {PhaseStarting},
	PhaseStarting:     {PhaseRunning, PhaseEnding},
	PhaseRunning:      {PhaseEnding},
	PhaseEnding:       {PhaseEnded},
}

func (p GamePhase) known() bool { return p >= 0 && int(p) < len(phaseNames) }

func (p GamePhase) String() string {
	if p.known() {
		return phaseNames[p]
	}
	return fmt.Sprintf("Unknown(%d)", int(p))
}

func (p GamePhase) IsTerminal() bool { return p == PhaseEnded || p == PhaseError }

// CanReceiveActions reports whether inbound moves are accepted. Moves may be
// queued before the first tick.
func (p GamePhase) CanReceiveActions() bool { return p == PhaseStarting || p == PhaseRunning }

func (p GamePhase) CanTransitionTo(target GamePhase) bool {
	if target == PhaseError {
		return p.known() && !p.IsTerminal()
	}
	return slices.Contains(nextPhases[p], target)
}

// ParsePhase is the inverse of String
func ParsePhase(s string) (GamePhase, error) {
	if i := slices.Index(phaseNames[:], s); i >= 0 {
		return GamePhase(i), nil
	}
	return PhaseInitializing, fmt.Errorf("unknown game phase %q", s)
}
