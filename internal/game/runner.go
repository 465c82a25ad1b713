package game

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/oimasterkafuu/checkmate/internal/game/states"
)

// ErrRunnerStopped is returned when a command reaches a runner whose game
// is over.
var ErrRunnerStopped = errors.New("game runner stopped")

// command runs on the runner goroutine. It reports whether the next tick
// should run right away.
type command func(e *Engine) bool

// Runner owns an Engine and drives its tick loop on a single goroutine.
// Every inbound operation is sent over a channel so the engine never sees
// concurrent calls.
type Runner struct {
	engine *Engine
	cmds   chan command
	done   chan struct{}
	logger zerolog.Logger

	startOnce sync.Once
}

// NewRunner wraps an engine that is still in PhaseStarting
func NewRunner(e *Engine, logger zerolog.Logger) *Runner {
	return &Runner{
		engine: e,
		cmds:   make(chan command, 64),
		done:   make(chan struct{}),
		logger: logger.With().Str("component", "GameRunner").Str("game_id", e.GameID()).Logger(),
	}
}

// Start launches the tick loop. Cancelling ctx aborts the game.
func (r *Runner) Start(ctx context.Context) {
	r.startOnce.Do(func() {
		go r.loop(ctx)
	})
}

// Done is closed once the game has ended and the loop has exited
func (r *Runner) Done() <-chan struct{} { return r.done }

// Engine returns the driven engine. Only read it after Done is closed.
func (r *Runner) Engine() *Engine { return r.engine }

// GameID returns the id of the driven game
func (r *Runner) GameID() string { return r.engine.GameID() }

func (r *Runner) loop(ctx context.Context) {
	defer close(r.done)
	e := r.engine

	timer := time.NewTimer(e.StartDelay())
	defer timer.Stop()
	started := false

	r.logger.Debug().Dur("start_delay", e.StartDelay()).Msg("Game loop started")
	for {
		select {
		case <-ctx.Done():
			r.safe(func() { e.Abort(ctx.Err()) })
			r.logger.Info().Err(ctx.Err()).Msg("Game loop cancelled")
			return

		case cmd := <-r.cmds:
			var wake bool
			if err := r.safe(func() { wake = cmd(e) }); err != nil {
				r.safe(func() { e.Abort(err) })
				return
			}
			if wake && e.Phase() == states.PhaseRunning {
				resetTimer(timer, e.settings.ImmediateTickDelay)
			}

		case <-timer.C:
			var over bool
			err := r.safe(func() {
				if !started {
					started = true
					if err := e.Begin(ctx); err != nil {
						panic(err)
					}
					return
				}
				var err error
				if over, err = e.Tick(ctx); err != nil {
					panic(err)
				}
				if over {
					e.Finish()
				}
			})
			if err != nil {
				r.safe(func() { e.Abort(err) })
				return
			}
			if over {
				return
			}
			timer.Reset(e.NextTickDelay())
		}
	}
}

// safe runs fn and turns a panic into an error
func (r *Runner) safe(fn func()) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			if e, ok := rec.(error); ok {
				err = e
			} else {
				err = fmt.Errorf("panic: %v", rec)
			}
			r.logger.Error().
				Err(err).
				Int("turn", r.engine.Turn()).
				Str("stack", string(debug.Stack())).
				Msg("Recovered from panic in game loop")
		}
	}()
	fn()
	return nil
}

func resetTimer(t *time.Timer, d time.Duration) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	t.Reset(d)
}

// submit queues cmd for the loop. It fails once the game is over.
func (r *Runner) submit(cmd command) error {
	select {
	case <-r.done:
		return ErrRunnerStopped
	default:
	}
	select {
	case r.cmds <- cmd:
		return nil
	case <-r.done:
		return ErrRunnerStopped
	}
}

// Query runs fn on the loop goroutine and waits for it to finish. fn must
// not keep references into the engine.
func (r *Runner) Query(ctx context.Context, fn func(e *Engine)) error {
	finished := make(chan struct{})
	err := r.submit(func(e *Engine) bool {
		defer close(finished)
		fn(e)
		return false
	})
	if err != nil {
		return err
	}
	select {
	case <-finished:
		return nil
	case <-r.done:
		return ErrRunnerStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Runner) AddMove(sid string, x, y, dx, dy int, half bool) error {
	return r.submit(func(e *Engine) bool {
		e.AddMove(sid, x, y, dx, dy, half)
		return false
	})
}

func (r *Runner) ClearQueue(sid string) error {
	return r.submit(func(e *Engine) bool {
		e.ClearQueue(sid)
		return false
	})
}

func (r *Runner) PopQueue(sid string) error {
	return r.submit(func(e *Engine) bool {
		e.PopQueue(sid)
		return false
	})
}

// Surrender and LeaveGame wake the loop so the change shows up without
// waiting a full tick.
func (r *Runner) Surrender(sid string) error {
	return r.submit(func(e *Engine) bool { return e.Surrender(sid) })
}

func (r *Runner) LeaveGame(sid string) error {
	return r.submit(func(e *Engine) bool { return e.LeaveGame(sid) })
}

func (r *Runner) Disconnect(sid string) error {
	return r.submit(func(e *Engine) bool {
		e.Disconnect(sid)
		return false
	})
}

func (r *Runner) Reconnect(sid string) error {
	return r.submit(func(e *Engine) bool {
		e.Reconnect(sid)
		return false
	})
}

func (r *Runner) AddSpectator(sid string) error {
	return r.submit(func(e *Engine) bool {
		e.AddSpectator(sid)
		return false
	})
}

func (r *Runner) RemoveSpectator(sid string) error {
	return r.submit(func(e *Engine) bool {
		e.RemoveSpectator(sid)
		return false
	})
}

func (r *Runner) SendMessage(sid, text string, team bool) error {
	return r.submit(func(e *Engine) bool {
		e.SendMessage(sid, text, team)
		return false
	})
}
