package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"os"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/oimasterkafuu/checkmate/internal/config"
	"github.com/oimasterkafuu/checkmate/internal/game"
	"github.com/oimasterkafuu/checkmate/internal/game/rules"
	"github.com/oimasterkafuu/checkmate/internal/logging"
	"github.com/oimasterkafuu/checkmate/internal/protocol"
	"github.com/oimasterkafuu/checkmate/internal/replay"
)

func main() {
	configPath := flag.String("config", "", "Path to config file")
	matchesPath := flag.String("matches", "", "YAML file of matches to play (empty plays one demo match)")
	renderEvery := flag.Int("render-every", 25, "Print the board every N turns (0 prints only the final board)")
	saveReplay := flag.Bool("save-replay", true, "Save replays when replays are enabled in the config")
	flag.Parse()

	if err := config.Init(*configPath); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize config")
	}
	cfg := config.Get()
	logger := logging.Setup(cfg.Log.Level, cfg.Log.Format)

	matches := []Match{defaultMatch(cfg.Demo)}
	if *matchesPath != "" {
		var err error
		matches, err = loadMatches(*matchesPath, defaultMatch(cfg.Demo))
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to load matches")
		}
	}

	var saver game.ReplaySaver
	if *saveReplay && cfg.Replay.Enabled {
		index, err := replay.OpenIndex(cfg.Replay.IndexPath)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to open replay index")
		}
		defer index.Close()
		store := replay.NewStore(cfg.Replay.Dir, index, nil, logger).
			WithLevel(zstd.EncoderLevelFromZstd(cfg.Replay.ZstdLevel))
		if err := store.EnsureReady(); err != nil {
			logger.Fatal().Err(err).Msg("Failed to create replay dir")
		}
		saver = store
	}

	ctx := context.Background()
	for _, m := range matches {
		e, err := playMatch(ctx, m, game.DefaultSettings(), saver, *renderEvery, os.Stdout, logger)
		if err != nil {
			logger.Error().Err(err).Str("match", m.Name).Msg("Match failed")
			continue
		}
		fmt.Printf("%s finished at turn %d\n%s\n", m.Name, e.Turn(), e.Render())
		for i, name := range rules.FinalRank(e.Leaderboard()) {
			fmt.Printf("  %d. %s\n", i+1, name)
		}
		if id := e.ReplayID(); id != "" {
			fmt.Printf("  replay %s\n", id)
		}
	}
}

// chatLogger prints game chat and drops the per-viewer frames
type chatLogger struct {
	logger zerolog.Logger
}

func (chatLogger) Update(string, *protocol.UpdatePayload)  {}
func (chatLogger) InitMap(string, protocol.InitMapPayload) {}
func (chatLogger) GameEnded(string)                        {}

func (c chatLogger) Chat(_ string, _ protocol.ChatScope, msg protocol.ChatMessage) {
	sender := msg.Sender
	if sender == "" {
		sender = "system"
	}
	c.logger.Info().Str("sender", sender).Msg(msg.Text)
}

// playMatch runs m to completion on the calling goroutine. Once MaxTurns
// is reached every team but the leader surrenders.
func playMatch(ctx context.Context, m Match, settings game.Settings, saver game.ReplaySaver, renderEvery int, out io.Writer, logger zerolog.Logger) (*game.Engine, error) {
	seed := m.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	names := make([]string, m.Players)
	teams := make([]int, m.Players)
	sids := make([]string, m.Players)
	for i := range names {
		names[i] = fmt.Sprintf("bot%d", i+1)
		teams[i] = i + 1
		sids[i] = fmt.Sprintf("%s-bot%d", m.Name, i+1)
	}
	mapToken := m.MapToken
	if mapToken == "" {
		mapToken = fmt.Sprintf("%d", seed)
	}

	matchLogger := logger.With().Str("match", m.Name).Logger()
	e, err := game.NewEngine(ctx, game.GameConfig{
		GameID: m.Name,
		Meta: protocol.ReplayMeta{
			MapMode:     m.MapMode,
			MapToken:    mapToken,
			Speed:       m.Speed,
			PlayerNames: names,
			PlayerTeams: teams,
		},
		PlayerSids: sids,
		Emitter:    chatLogger{logger: matchLogger},
		Replays:    saver,
		Logger:     logger,
		Settings:   &settings,
		Rand:       rng,
	})
	if err != nil {
		return nil, err
	}

	bots := make([]*game.RandomBot, m.Players)
	for i := range bots {
		bots[i] = game.NewRandomBot(i, rng, logger)
	}

	if err := e.Begin(ctx); err != nil {
		return nil, err
	}
	// surrendered generals fade before the game can end
	limit := m.MaxTurns + settings.SurrenderFadeTicks + settings.LeftGame
	for {
		if e.Turn() == m.MaxTurns {
			concedeToLeader(e)
		}
		if e.Turn() >= limit {
			e.Abort(fmt.Errorf("match did not end by turn %d", limit))
			return e, fmt.Errorf("match %s did not end by turn %d", m.Name, limit)
		}
		if e.Turn() < m.MaxTurns {
			game.QueueBotMoves(e, bots)
		}
		over, err := e.Tick(ctx)
		if err != nil {
			e.Abort(err)
			return e, err
		}
		if over {
			break
		}
		if renderEvery > 0 && e.Turn()%renderEvery == 0 {
			fmt.Fprintf(out, "turn %d\n%s\n", e.Turn(), e.Render())
		}
	}
	e.Finish()
	return e, nil
}

// concedeToLeader surrenders every team except the one leading on army
func concedeToLeader(e *game.Engine) {
	rank := rules.FinalRank(e.Leaderboard())
	if len(rank) == 0 {
		return
	}
	leaderTeam := -1
	for _, p := range e.Players() {
		if p.Name == rank[0] {
			leaderTeam = p.Team
		}
	}
	for _, p := range e.Players() {
		if p.IsAlive() && p.Team != leaderTeam {
			e.Surrender(p.Sid)
		}
	}
}
