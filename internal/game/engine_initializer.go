package game

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/oimasterkafuu/checkmate/internal/game/core"
	"github.com/oimasterkafuu/checkmate/internal/game/events"
	"github.com/oimasterkafuu/checkmate/internal/game/mapgen"
	"github.com/oimasterkafuu/checkmate/internal/game/processor"
	"github.com/oimasterkafuu/checkmate/internal/game/rng"
	"github.com/oimasterkafuu/checkmate/internal/game/rules"
	"github.com/oimasterkafuu/checkmate/internal/game/spawn"
	"github.com/oimasterkafuu/checkmate/internal/game/states"
	"github.com/oimasterkafuu/checkmate/internal/protocol"
	"github.com/oimasterkafuu/checkmate/internal/replay"
)

// EngineInitializer handles the complex initialization of a game engine
type EngineInitializer struct {
	config GameConfig
	logger zerolog.Logger
}

// NewEngineInitializer creates a new engine initializer
func NewEngineInitializer(cfg GameConfig) *EngineInitializer {
	logger := cfg.Logger.With().Str("component", "GameEngine").Logger()
	return &EngineInitializer{
		config: cfg,
		logger: logger,
	}
}

// Initialize creates and initializes a new game engine
func (ei *EngineInitializer) Initialize(ctx context.Context) (*Engine, error) {
	// Check context early
	select {
	case <-ctx.Done():
		ei.logger.Error().Err(ctx.Err()).Msg("Engine creation cancelled or timed out during initial phase")
		return nil, ctx.Err()
	default:
	}

	if err := ei.validateRoster(); err != nil {
		return nil, err
	}

	// Setup configuration defaults
	ei.setupDefaults()

	// Resolve the seed and the generator ratios
	meta, genCfg, seeded := ei.resolveMeta()
	if err := genCfg.Validate(); err != nil {
		return nil, fmt.Errorf("map generation failed: %w", err)
	}

	// Create engine components
	engine := ei.createEngine(meta)

	// Generate the game map and place the generals
	engine.board = mapgen.NewGenerator(genCfg, seeded).
		WithLogger(ei.config.Logger).
		WithArchipelagoRetries(engine.settings.ArchipelagoRetries).
		Generate(engine.mode)
	ei.selectGenerals(engine, seeded, genCfg.RequiredPlayers)

	// Initialize state machine
	if err := ei.initializeStateMachine(engine); err != nil {
		return nil, fmt.Errorf("state machine initialization failed: %w", err)
	}

	if !engine.replayBuild {
		engine.publish(events.NewGameStartedEvent(
			engine.gameID,
			genCfg.RequiredPlayers,
			engine.board.N,
			engine.board.M,
			string(engine.mode),
		))
		ei.sendInitMaps(engine)
		engine.logger.Info().
			Int("rows", engine.board.N).
			Int("cols", engine.board.M).
			Int("players", genCfg.RequiredPlayers).
			Str("map_mode", string(engine.mode)).
			Str("map_token", meta.MapToken).
			Msg("Engine created successfully")
	}

	return engine, nil
}

func (ei *EngineInitializer) validateRoster() error {
	meta := ei.config.Meta
	n := len(ei.config.PlayerSids)
	if n == 0 {
		return fmt.Errorf("game needs at least one seat")
	}
	if len(meta.PlayerNames) != n || len(meta.PlayerTeams) != n {
		return fmt.Errorf("roster mismatch: %d sids, %d names, %d teams",
			n, len(meta.PlayerNames), len(meta.PlayerTeams))
	}
	if ei.config.PlayerIDs != nil && len(ei.config.PlayerIDs) != n {
		return fmt.Errorf("roster mismatch: %d sids, %d player ids", n, len(ei.config.PlayerIDs))
	}
	seen := make(map[string]struct{}, n)
	for _, sid := range ei.config.PlayerSids {
		if _, dup := seen[sid]; dup {
			return fmt.Errorf("duplicate session id %q", sid)
		}
		seen[sid] = struct{}{}
	}
	return nil
}

// setupDefaults sets up default values for missing configuration
func (ei *EngineInitializer) setupDefaults() {
	if ei.config.GameID == "" {
		ei.config.GameID = uuid.New().String()
	}
	if ei.config.Emitter == nil {
		ei.config.Emitter = NopEmitter{}
	}
	if ei.config.Settings == nil {
		s := DefaultSettings()
		ei.config.Settings = &s
	}
	if ei.config.Clock == nil {
		ei.config.Clock = time.Now
	}
	if ei.config.Rand == nil {
		ei.config.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if ei.config.EventBus == nil {
		ei.config.EventBus = events.NewEventBus(ei.config.Logger)
	}
	if ei.config.PlayerIDs == nil {
		ei.config.PlayerIDs = append([]string(nil), ei.config.Meta.PlayerNames...)
	}
	if ei.config.Meta.Speed <= 0 {
		ei.config.Meta.Speed = 1
	}
}

// resolveMeta derives the map seed, the seeded terrain ratios and the
// generator config. The returned meta is what the replay stores.
func (ei *EngineInitializer) resolveMeta() (protocol.ReplayMeta, mapgen.Config, *rng.Seeded) {
	meta := ei.config.Meta
	meta.PlayerNames = append([]string(nil), meta.PlayerNames...)
	meta.PlayerTeams = append([]int(nil), meta.PlayerTeams...)

	meta.MapToken = rng.NormalizeMapToken(meta.MapToken)
	if meta.MapToken == "" {
		meta.MapToken = "default"
	}
	seed := rng.ResolveMapSeed(meta.MapMode, meta.MapToken)
	meta.CityRatio = rng.SeededTerrainRatio(seed, "city_ratio")
	meta.MountainRatio = rng.SeededTerrainRatio(seed, "mountain_ratio")
	if meta.MapSizeVersion == 0 {
		meta.MapSizeVersion = int(mapgen.SizeVersion2)
		if ei.config.replayBuild {
			meta.MapSizeVersion = int(mapgen.SizeVersion1)
		}
	}
	version := mapgen.SizeVersion(meta.MapSizeVersion)

	required := 0
	for _, team := range meta.PlayerTeams {
		if team != 0 {
			required++
		}
	}
	genCfg := mapgen.Config{
		WidthRatio:      mapgen.ClampSizeRatio(mapgen.RuntimeSizeRatio(meta.WidthRatio, version)),
		HeightRatio:     mapgen.ClampSizeRatio(mapgen.RuntimeSizeRatio(meta.HeightRatio, version)),
		CityRatio:       meta.CityRatio,
		MountainRatio:   meta.MountainRatio,
		SwampRatio:      meta.SwampRatio,
		RequiredPlayers: required,
	}
	return meta, genCfg, rng.New(seed)
}

// createEngine builds the engine shell around the resolved meta
func (ei *EngineInitializer) createEngine(meta protocol.ReplayMeta) *Engine {
	cfg := ei.config
	logger := cfg.Logger.With().Str("component", "GameEngine").Str("game_id", cfg.GameID).Logger()
	e := &Engine{
		gameID:       cfg.GameID,
		meta:         meta,
		mode:         mapgen.ParseMode(meta.MapMode),
		speed:        meta.Speed,
		bySid:        make(map[string]*Player, len(cfg.PlayerSids)),
		playerIDs:    append([]string(nil), cfg.PlayerIDs...),
		kills:        make(map[string]string),
		spectatorSet: make(map[string]struct{}),
		replayBuild:  cfg.replayBuild,
		pendingAFK:   make(map[int][]int),
		settings:     *cfg.Settings,
		now:          cfg.Clock,
		rand:         cfg.Rand,
		emitter:      cfg.Emitter,
		replays:      cfg.Replays,
		eventBus:     cfg.EventBus,
		logger:       logger,
	}
	e.startAt = e.now()

	for i, sid := range cfg.PlayerSids {
		p := newPlayer(i, sid, meta.PlayerNames[i], meta.PlayerTeams[i], e.settings.LeftGame)
		p.afkLastAt = e.startAt
		e.players = append(e.players, p)
		e.bySid[sid] = p
		e.teams = append(e.teams, p.Team)
		e.surrender = append(e.surrender, rules.SurrenderState{Start: -1})
	}

	e.actions = processor.NewActionProcessor(e.gameID, e.eventBus, logger)
	e.production = NewProductionManager(e.eventBus, e.gameID, logger)
	e.winCheck = rules.NewWinConditionChecker(logger)
	e.turnProc = NewTurnProcessor(e)
	if !cfg.replayBuild {
		e.recorder = replay.NewRecorder(len(e.players))
	}
	return e
}

// selectGenerals places one general per playing seat. Spawn markers left by
// the generator are cleared first; seats without a position and team 0
// seats start out of play.
func (ei *EngineInitializer) selectGenerals(e *Engine, seeded *rng.Seeded, required int) {
	var picked []core.Coordinate
	if e.mode == mapgen.ModeMaze {
		picked = spawn.SelectMaze(e.board, seeded, required)
	} else {
		picked = spawn.SelectRandom(e.board, seeded, required)
	}

	for i := range e.board.T {
		t := &e.board.T[i]
		if t.St && t.Kind == core.KindGeneral {
			t.Kind = core.KindPlain
			t.Owner = core.NeutralID
			t.Army = 0
		}
	}

	cursor := 0
	for _, p := range e.players {
		if p.Team == 0 {
			p.Status = e.settings.LeftGame
			continue
		}
		var at core.Coordinate
		if cursor < len(picked) {
			at = picked[cursor]
		} else {
			at = core.NoCoordinate
		}
		cursor++
		if at.IsNone() {
			p.Status = e.settings.LeftGame
			ei.logger.Warn().Int("player", p.Index).Msg("No spawn position left for player")
			continue
		}
		p.General = at
		*e.board.At(at.X, at.Y) = core.Tile{Kind: core.KindGeneral, Owner: p.OwnerID(), Army: 1, St: e.board.At(at.X, at.Y).St}
		if e.mode == mapgen.ModeMaze {
			spawn.ClearAdjacentCities(e.board, at)
		}
	}
}

// initializeStateMachine creates the lifecycle machine and moves it to
// PhaseStarting
func (ei *EngineInitializer) initializeStateMachine(e *Engine) error {
	playing := 0
	for _, p := range e.players {
		if p.IsAlive() {
			playing++
		}
	}
	gameCtx := states.NewGameContext(e.gameID, playing, e.logger)
	e.sm = states.NewMachine(gameCtx, e.eventBus)
	return e.sm.Transition(states.PhaseStarting, "map generated")
}

func (ei *EngineInitializer) sendInitMaps(e *Engine) {
	for _, p := range e.players {
		e.emitter.InitMap(p.Sid, e.InitMapFor(p.Sid))
	}
}
