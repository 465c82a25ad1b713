package server

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/oimasterkafuu/checkmate/internal/common"
	"github.com/oimasterkafuu/checkmate/internal/game"
	"github.com/oimasterkafuu/checkmate/internal/game/events"
	"github.com/oimasterkafuu/checkmate/internal/game/events/subscribers"
	"github.com/oimasterkafuu/checkmate/internal/game/mapgen"
	"github.com/oimasterkafuu/checkmate/internal/monitoring"
	"github.com/oimasterkafuu/checkmate/internal/protocol"
)

var (
	ErrServerAtCapacity = errors.New("server at capacity")
	ErrGameNotFound     = errors.New("game not found")
	ErrUnknownPreset    = errors.New("unknown map preset")
	ErrInvalidRoster    = errors.New("invalid roster")
)

// Seat is one entry of a game roster. Team 0 only spectates.
type Seat struct {
	Name string `json:"name" binding:"required"`
	Team int    `json:"team"`
}

// CreateGameRequest is the lobby's description of a game to start. A
// preset fills the map settings that the request leaves at zero.
type CreateGameRequest struct {
	Players     []Seat  `json:"players" binding:"required,min=1,dive"`
	Preset      string  `json:"preset"`
	MapMode     string  `json:"map_mode"`
	MapToken    string  `json:"map_token"`
	Speed       float64 `json:"speed"`
	WidthRatio  float64 `json:"width_ratio"`
	HeightRatio float64 `json:"height_ratio"`
	SwampRatio  float64 `json:"swamp_ratio"`
	AllowTeam   bool    `json:"allow_team"`
}

// CreatedGame tells the lobby how to reach a new game. Sids follow the
// roster order.
type CreatedGame struct {
	GameID string   `json:"game_id"`
	Sids   []string `json:"sids"`
}

// GameStatus is a snapshot of a running or finished game.
type GameStatus struct {
	GameID      string                      `json:"game_id"`
	Phase       string                      `json:"phase"`
	Turn        int                         `json:"turn"`
	N           int                         `json:"n"`
	M           int                         `json:"m"`
	Leaderboard []protocol.LeaderboardEntry `json:"leaderboard"`
	Replay      string                      `json:"replay,omitempty"`
}

// ManagerOptions configure a GameManager
type ManagerOptions struct {
	MaxGames        int
	FinishedGameTTL time.Duration
	CleanupInterval time.Duration

	// Settings is read for every new game so config reloads apply to
	// games created afterwards.
	Settings     func() game.Settings
	Presets      mapgen.Presets
	DefaultSpeed float64
}

type managedGame struct {
	runner    *game.Runner
	cancel    context.CancelFunc
	createdAt time.Time
	endedAt   time.Time
}

// GameManager creates games, keeps their runners reachable by id and drops
// finished games once their TTL expires.
type GameManager struct {
	mu    sync.RWMutex
	games map[string]*managedGame

	opts    ManagerOptions
	emitter game.Emitter
	replays game.ReplaySaver
	monitor *monitoring.GoroutineMonitor
	base    zerolog.Logger
	logger  zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	now    func() time.Time
}

// NewGameManager creates a manager. replays and monitor may be nil.
func NewGameManager(opts ManagerOptions, emitter game.Emitter, replays game.ReplaySaver, monitor *monitoring.GoroutineMonitor, logger zerolog.Logger) *GameManager {
	if opts.FinishedGameTTL <= 0 {
		opts.FinishedGameTTL = 10 * time.Minute
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = time.Minute
	}
	if opts.Settings == nil {
		opts.Settings = game.DefaultSettings
	}
	if emitter == nil {
		emitter = game.NopEmitter{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &GameManager{
		games:   make(map[string]*managedGame),
		opts:    opts,
		emitter: emitter,
		replays: replays,
		monitor: monitor,
		base:    logger,
		logger:  logger.With().Str("component", "GameManager").Logger(),
		ctx:     ctx,
		cancel:  cancel,
		now:     time.Now,
	}
}

// Start launches the cleanup loop
func (gm *GameManager) Start() {
	gm.wg.Add(1)
	go gm.runCleanup()
}

// CreateGame builds the engine for req and starts its runner.
func (gm *GameManager) CreateGame(req CreateGameRequest) (*CreatedGame, error) {
	meta, err := gm.buildMeta(req)
	if err != nil {
		return nil, err
	}

	gm.mu.Lock()
	active := gm.activeLocked()
	if gm.opts.MaxGames > 0 && active >= gm.opts.MaxGames {
		gm.mu.Unlock()
		gm.logger.Warn().
			Int("current_games", active).
			Int("max_games", gm.opts.MaxGames).
			Msg("Rejecting game creation - server at capacity")
		return nil, fmt.Errorf("%w: %d/%d games active", ErrServerAtCapacity, active, gm.opts.MaxGames)
	}
	// reserve the slot while the map is generated
	gameID := uuid.New().String()
	gm.games[gameID] = &managedGame{createdAt: gm.now()}
	gm.mu.Unlock()

	created, err := gm.startGame(gameID, meta)
	if err != nil {
		gm.mu.Lock()
		delete(gm.games, gameID)
		gm.mu.Unlock()
		return nil, err
	}
	return created, nil
}

func (gm *GameManager) buildMeta(req CreateGameRequest) (protocol.ReplayMeta, error) {
	meta := protocol.ReplayMeta{
		WidthRatio:  req.WidthRatio,
		HeightRatio: req.HeightRatio,
		SwampRatio:  req.SwampRatio,
		Speed:       req.Speed,
		AllowTeam:   req.AllowTeam,
		MapToken:    req.MapToken,
		MapMode:     req.MapMode,
	}
	if req.Preset != "" {
		p, ok := gm.opts.Presets[req.Preset]
		if !ok {
			return meta, fmt.Errorf("%w: %q", ErrUnknownPreset, req.Preset)
		}
		if meta.MapMode == "" {
			meta.MapMode = string(p.Mode)
		}
		if meta.MapToken == "" {
			meta.MapToken = p.Token
		}
		if meta.WidthRatio == 0 {
			meta.WidthRatio = p.WidthRatio
		}
		if meta.HeightRatio == 0 {
			meta.HeightRatio = p.HeightRatio
		}
		if meta.SwampRatio == 0 {
			meta.SwampRatio = p.SwampRatio
		}
		if meta.Speed == 0 {
			meta.Speed = p.Speed
		}
	}

	if meta.Speed <= 0 {
		meta.Speed = gm.opts.DefaultSpeed
	}

	playing := 0
	for i, seat := range req.Players {
		team := seat.Team
		if !req.AllowTeam && team != 0 {
			team = i + 1
		}
		if team != 0 {
			playing++
		}
		meta.PlayerNames = append(meta.PlayerNames, seat.Name)
		meta.PlayerTeams = append(meta.PlayerTeams, team)
	}
	if err := common.ValidateRoster(meta.PlayerNames, meta.PlayerTeams, req.AllowTeam); err != nil {
		return meta, fmt.Errorf("%w: %w", ErrInvalidRoster, err)
	}
	if meta.WidthRatio == 0 {
		meta.WidthRatio = mapgen.SizeRatioForPlayers(playing)
	}
	if meta.HeightRatio == 0 {
		meta.HeightRatio = mapgen.SizeRatioForPlayers(playing)
	}
	return meta, nil
}

func (gm *GameManager) startGame(gameID string, meta protocol.ReplayMeta) (*CreatedGame, error) {
	sids := make([]string, len(meta.PlayerNames))
	for i := range sids {
		sids[i] = uuid.New().String()
	}

	logger := gm.logger.With().Str("game_id", gameID).Logger()
	bus := events.NewEventBus(gm.base)
	bus.Subscribe(subscribers.NewEventLog("game-log", gm.base, subscribers.EventLogOptions{
		Types: []string{
			events.TypeGameStarted,
			events.TypeGameEnded,
			events.TypePlayerEliminated,
			events.TypeReplaySaved,
		},
		Level: zerolog.InfoLevel,
	}))

	settings := gm.opts.Settings()
	engine, err := game.NewEngine(gm.ctx, game.GameConfig{
		GameID:     gameID,
		Meta:       meta,
		PlayerSids: sids,
		Emitter:    gm.emitter,
		Replays:    gm.replays,
		EventBus:   bus,
		Logger:     gm.base,
		Settings:   &settings,
	})
	if err != nil {
		return nil, fmt.Errorf("create game %s: %w", gameID, err)
	}

	runner := game.NewRunner(engine, gm.base)
	ctx, cancel := context.WithCancel(gm.ctx)

	gm.mu.Lock()
	mg := gm.games[gameID]
	mg.runner = runner
	mg.cancel = cancel
	active := gm.activeLocked()
	gm.mu.Unlock()

	runner.Start(ctx)
	gm.wg.Add(1)
	go gm.watch(gameID, runner)

	gm.reportRunners(active)
	n, m := engine.Dimensions()
	logger.Info().
		Int("players", len(sids)).
		Str("map_mode", meta.MapMode).
		Int("rows", n).
		Int("cols", m).
		Int("active_games", active).
		Msg("Created game")
	return &CreatedGame{GameID: gameID, Sids: sids}, nil
}

// watch marks the game as ended once its runner stops
func (gm *GameManager) watch(gameID string, runner *game.Runner) {
	defer gm.wg.Done()
	<-runner.Done()

	gm.mu.Lock()
	if mg, ok := gm.games[gameID]; ok {
		mg.endedAt = gm.now()
		mg.cancel()
	}
	active := gm.activeLocked()
	gm.mu.Unlock()

	gm.reportRunners(active)
	gm.logger.Debug().Str("game_id", gameID).Int("active_games", active).Msg("Game runner stopped")
}

// activeLocked counts games that have not ended; the caller holds mu
func (gm *GameManager) activeLocked() int {
	n := 0
	for _, mg := range gm.games {
		if mg.endedAt.IsZero() {
			n++
		}
	}
	return n
}

func (gm *GameManager) reportRunners(active int) {
	if gm.monitor != nil {
		gm.monitor.RegisterComponent("game_runners", active)
	}
}

// Runner returns the runner of a game that is still tracked
func (gm *GameManager) Runner(gameID string) (*game.Runner, bool) {
	gm.mu.RLock()
	defer gm.mu.RUnlock()
	mg, ok := gm.games[gameID]
	if !ok || mg.runner == nil {
		return nil, false
	}
	return mg.runner, true
}

// ActiveGames returns the number of games that have not ended
func (gm *GameManager) ActiveGames() int {
	gm.mu.RLock()
	defer gm.mu.RUnlock()
	return gm.activeLocked()
}

// Status snapshots a game through its runner. Finished games answer from
// the engine directly since their loop is gone.
func (gm *GameManager) Status(ctx context.Context, gameID string) (*GameStatus, error) {
	runner, ok := gm.Runner(gameID)
	if !ok {
		return nil, ErrGameNotFound
	}
	var st GameStatus
	err := runner.Query(ctx, func(e *game.Engine) { st = statusOf(e) })
	if errors.Is(err, game.ErrRunnerStopped) {
		<-runner.Done()
		st = statusOf(runner.Engine())
		err = nil
	}
	if err != nil {
		return nil, err
	}
	return &st, nil
}

func statusOf(e *game.Engine) GameStatus {
	n, m := e.Dimensions()
	return GameStatus{
		GameID:      e.GameID(),
		Phase:       e.Phase().String(),
		Turn:        e.Turn(),
		N:           n,
		M:           m,
		Leaderboard: e.Leaderboard(),
		Replay:      e.ReplayID(),
	}
}

func (gm *GameManager) runCleanup() {
	defer gm.wg.Done()
	ticker := time.NewTicker(gm.opts.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			gm.cleanupGames()
		case <-gm.ctx.Done():
			return
		}
	}
}

// cleanupGames forgets games that ended more than the TTL ago
func (gm *GameManager) cleanupGames() {
	now := gm.now()
	gm.mu.Lock()
	var removed []string
	for id, mg := range gm.games {
		if !mg.endedAt.IsZero() && now.Sub(mg.endedAt) > gm.opts.FinishedGameTTL {
			delete(gm.games, id)
			removed = append(removed, id)
		}
	}
	remaining := len(gm.games)
	gm.mu.Unlock()

	for _, id := range removed {
		gm.logger.Info().Str("game_id", id).Str("reason", "finished game TTL expired").Msg("Cleaning up game")
	}
	if len(removed) > 0 {
		gm.logger.Info().
			Int("cleaned", len(removed)).
			Int("remaining", remaining).
			Msg("Game cleanup completed")
	}
}

// Shutdown aborts every running game and waits for the runners to stop or
// ctx to expire.
func (gm *GameManager) Shutdown(ctx context.Context) error {
	gm.cancel()
	done := make(chan struct{})
	go func() {
		gm.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		gm.logger.Info().Msg("All games stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
