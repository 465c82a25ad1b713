package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/oimasterkafuu/checkmate/internal/config"
)

// Match is one headless bot game
type Match struct {
	Name     string  `yaml:"name"`
	Players  int     `yaml:"players"`
	MaxTurns int     `yaml:"max_turns"`
	MapMode  string  `yaml:"map_mode"`
	MapToken string  `yaml:"map_token"`
	Speed    float64 `yaml:"speed"`
	Seed     int64   `yaml:"seed"`
}

type matchFile struct {
	Matches []Match `yaml:"matches"`
}

// defaultMatch builds a match from the demo section of the config
func defaultMatch(dc config.DemoConfig) Match {
	return Match{
		Name:     "demo",
		Players:  dc.Players,
		MaxTurns: dc.MaxTurns,
		MapMode:  dc.MapMode,
		MapToken: dc.MapToken,
	}
}

// loadMatches reads a match list. Fields a match leaves unset are taken
// from defaults.
func loadMatches(path string, defaults Match) ([]Match, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parseMatches(raw, defaults)
}

func parseMatches(raw []byte, defaults Match) ([]Match, error) {
	var f matchFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("matches: %w", err)
	}
	if len(f.Matches) == 0 {
		return nil, fmt.Errorf("matches: no matches defined")
	}
	for i := range f.Matches {
		m := &f.Matches[i]
		if m.Name == "" {
			m.Name = fmt.Sprintf("match-%d", i+1)
		}
		if m.Players == 0 {
			m.Players = defaults.Players
		}
		if m.MaxTurns == 0 {
			m.MaxTurns = defaults.MaxTurns
		}
		if m.MapMode == "" {
			m.MapMode = defaults.MapMode
		}
		if m.MapToken == "" {
			m.MapToken = defaults.MapToken
		}
		if m.Players < 2 || m.Players > 16 {
			return nil, fmt.Errorf("matches: %s: players must be between 2 and 16", m.Name)
		}
		if m.MaxTurns <= 0 {
			return nil, fmt.Errorf("matches: %s: max_turns must be positive", m.Name)
		}
	}
	return f.Matches, nil
}
