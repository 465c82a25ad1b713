package game

import (
	"time"

	"github.com/oimasterkafuu/checkmate/internal/config"
)

// Settings holds the timing and lifecycle constants of a game. They are
// read once when a game is created, so a config reload only affects new
// games.
type Settings struct {
	BaseTick           time.Duration
	StartDelay         time.Duration
	MinTickDelay       time.Duration
	ImmediateTickDelay time.Duration

	// A viewer gets a full snapshot every FullSnapshotInterval turns and
	// with probability 1/RandomFullSnapshotOdds on other turns.
	FullSnapshotInterval   int
	RandomFullSnapshotOdds int

	// LeftGame is the terminal player status. A disconnect countdown
	// kills the player once it reaches LeftGame-1.
	LeftGame int

	AFKMinTurns    int
	AFKMinDuration time.Duration

	SurrenderFadeTicks int
	ArchipelagoRetries int
}

// DefaultSettings reads Settings from the global configuration
func DefaultSettings() Settings {
	c := config.Get()
	return Settings{
		BaseTick:               time.Duration(c.Game.BaseTickMs) * time.Millisecond,
		StartDelay:             time.Duration(c.Game.StartDelayMs) * time.Millisecond,
		MinTickDelay:           time.Duration(c.Game.MinTickDelayMs) * time.Millisecond,
		ImmediateTickDelay:     time.Duration(c.Game.ImmediateTickDelayMs) * time.Millisecond,
		FullSnapshotInterval:   c.Game.FullSnapshotInterval,
		RandomFullSnapshotOdds: c.Game.RandomFullSnapshotOdds,
		LeftGame:               c.Game.LeftGame,
		AFKMinTurns:            c.Game.AFKMinTurns,
		AFKMinDuration:         time.Duration(c.Game.AFKMinMs) * time.Millisecond,
		SurrenderFadeTicks:     c.Game.SurrenderFadeTicks,
		ArchipelagoRetries:     c.MapGen.ArchipelagoRetries,
	}
}

// TickInterval is the cadence of the tick loop at speed.
func (s Settings) TickInterval(speed float64) time.Duration {
	if speed <= 0 {
		speed = 1
	}
	return time.Duration(float64(s.BaseTick) / speed)
}

// Kill reasons reported in the kills map of an update.
const (
	ReasonSystem    = "system"
	ReasonSurrender = "surrender"
	ReasonAFK       = "afk"
)

// replayBuildID is the game id of engines that rebuild a replay.
const replayBuildID = "__replay_build__"
