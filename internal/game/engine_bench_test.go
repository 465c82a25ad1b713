package game

import (
	"context"
	"fmt"
	"testing"

	"github.com/oimasterkafuu/checkmate/internal/protocol"
	"github.com/oimasterkafuu/checkmate/internal/testutil"
)

func benchEngine(b *testing.B, players int, mode string, ratio float64) *Engine {
	b.Helper()
	teams := make([]int, players)
	for i := range teams {
		teams[i] = i + 1
	}
	cfg := testConfig(teams)
	cfg.Meta.MapMode = mode
	cfg.Meta.WidthRatio = ratio
	cfg.Meta.HeightRatio = ratio
	e, err := NewEngine(context.Background(), cfg)
	if err != nil {
		b.Fatal(err)
	}
	return e
}

func BenchmarkNewEngine(b *testing.B) {
	testCases := []struct {
		mode    string
		players int
	}{
		{"random", 2},
		{"random", 8},
		{"maze", 2},
		{"maze", 8},
		{"archipelago", 4},
	}

	for _, tc := range testCases {
		b.Run(fmt.Sprintf("%s_%dp", tc.mode, tc.players), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				benchEngine(b, tc.players, tc.mode, 0.5)
			}
		})
	}
}

func BenchmarkTick(b *testing.B) {
	testCases := []struct {
		name    string
		players int
		ratio   float64
	}{
		{"Small_2p", 2, 0.3},
		{"Medium_4p", 4, 0.6},
		{"Large_8p", 8, 1.0},
		{"XLarge_16p", 16, 1.35},
	}

	for _, tc := range testCases {
		b.Run(tc.name, func(b *testing.B) {
			e := benchEngine(b, tc.players, "random", tc.ratio)
			ctx := context.Background()
			if err := e.Begin(ctx); err != nil {
				b.Fatal(err)
			}
			bots := make([]*RandomBot, tc.players)
			for i := range bots {
				bots[i] = NewRandomBot(i, testutil.NewTestRNG(int64(i)), testutil.NopLogger())
			}

			n, m := e.Dimensions()
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				QueueBotMoves(e, bots)
				over, err := e.Tick(ctx)
				if err != nil {
					b.Fatal(err)
				}
				if over {
					b.StopTimer()
					e = benchEngine(b, tc.players, "random", tc.ratio)
					if err := e.Begin(ctx); err != nil {
						b.Fatal(err)
					}
					b.StartTimer()
				}
			}
			b.ReportMetric(float64(n*m), "board_tiles")
		})
	}
}

func BenchmarkReplayBuild(b *testing.B) {
	saver := &memorySaver{id: "bench"}
	cfg := testConfig([]int{1, 2, 3, 4})
	cfg.Replays = saver
	data := playRecordedGame(b, cfg, 300)

	builder := NewReplayBuilder(recordedSettings(), testutil.NopLogger())
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := builder.Build(data); err != nil {
			b.Fatal(err)
		}
	}
	b.ReportMetric(float64(data.TotalTurns), "turns_played")
}

var sinkPayload *protocol.UpdatePayload

func BenchmarkFullVisionPayload(b *testing.B) {
	e := benchEngine(b, 8, "random", 1.0)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		sinkPayload = e.fullVisionPayload(false)
	}
}
