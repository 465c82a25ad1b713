package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"slices"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/oimasterkafuu/checkmate/internal/config"
	"github.com/oimasterkafuu/checkmate/internal/game"
	"github.com/oimasterkafuu/checkmate/internal/logging"
	"github.com/oimasterkafuu/checkmate/internal/protocol"
	"github.com/oimasterkafuu/checkmate/internal/replay"
)

const usage = `usage: replay [-config path] <command> [args]

commands:
  list                 print the replay index, newest first
  export <id> <file>   write the RPB1 binary of a replay
  verify <id>...       rebuild replays and check the RPB1 round trip`

func main() {
	configPath := flag.String("config", "", "Path to config file")
	flag.Usage = func() { fmt.Fprintln(os.Stderr, usage) }
	flag.Parse()

	if err := config.Init(*configPath); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize config")
	}
	cfg := config.Get()
	logger := logging.Setup(cfg.Log.Level, cfg.Log.Format)

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	index, err := replay.OpenIndex(cfg.Replay.IndexPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to open replay index")
	}
	defer index.Close()
	builder := game.NewReplayBuilder(game.DefaultSettings(), logger)
	store := replay.NewStore(cfg.Replay.Dir, index, builder.Build, logger)

	if err := run(context.Background(), store, args, os.Stdout, logger); err != nil {
		logger.Error().Err(err).Str("command", args[0]).Msg("Command failed")
		os.Exit(1)
	}
}

type replayStore interface {
	List(ctx context.Context) ([]protocol.ListItem, error)
	Load(id string) (*protocol.ReplayData, error)
}

func run(ctx context.Context, store replayStore, args []string, out io.Writer, logger zerolog.Logger) error {
	switch args[0] {
	case "list":
		return listReplays(ctx, store, out)
	case "export":
		if len(args) != 3 {
			return errors.New("export needs <id> <file>")
		}
		return exportReplay(store, args[1], args[2])
	case "verify":
		if len(args) < 2 {
			return errors.New("verify needs at least one id")
		}
		failed := 0
		for _, id := range args[1:] {
			data, err := store.Load(id)
			if err == nil {
				err = verifyReplay(data)
			}
			if err != nil {
				failed++
				logger.Error().Err(err).Str("replay_id", id).Msg("Replay failed verification")
				continue
			}
			fmt.Fprintf(out, "%s ok (%d turns)\n", id, len(data.Patches))
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d replays failed", failed, len(args)-1)
		}
		return nil
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func listReplays(ctx context.Context, store replayStore, out io.Writer) error {
	items, err := store.List(ctx)
	if err != nil {
		return err
	}
	for _, it := range items {
		fmt.Fprintf(out, "%s  %s  turn %-5d %v\n",
			it.ID, time.Unix(it.Time, 0).UTC().Format(time.RFC3339), it.Turn, it.Rank)
	}
	return nil
}

func exportReplay(store replayStore, id, path string) error {
	data, err := store.Load(id)
	if err != nil {
		return err
	}
	raw, err := replay.Encode(data)
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o644)
}

// verifyReplay encodes data, decodes it again and checks that every frame
// keeps its board and turn. Backward patches must rebuild the initial frame.
func verifyReplay(data *protocol.ReplayData) error {
	raw, err := replay.Encode(data)
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	decoded, err := replay.Decode(raw)
	if err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	if decoded.N != data.N || decoded.M != data.M {
		return fmt.Errorf("size changed: %dx%d became %dx%d", data.N, data.M, decoded.N, decoded.M)
	}

	want := replay.Frames(data)
	got := replay.Frames(decoded)
	if len(want) != len(got) {
		return fmt.Errorf("frame count changed: %d became %d", len(want), len(got))
	}
	for i := range want {
		if want[i].Turn != got[i].Turn ||
			!slices.Equal(want[i].GridType, got[i].GridType) ||
			!slices.Equal(want[i].ArmyCnt, got[i].ArmyCnt) {
			return fmt.Errorf("frame %d differs after round trip", i)
		}
	}

	cur := got[len(got)-1]
	for i := len(decoded.Patches) - 1; i >= 0; i-- {
		cur = replay.Apply(cur, decoded.Patches[i].Backward)
	}
	if !slices.Equal(cur.GridType, got[0].GridType) || !slices.Equal(cur.ArmyCnt, got[0].ArmyCnt) {
		return errors.New("backward patches do not rebuild the initial frame")
	}
	return nil
}
