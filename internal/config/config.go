package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Game   GameConfig   `mapstructure:"game"`
	MapGen MapGenConfig `mapstructure:"mapgen"`
	Replay ReplayConfig `mapstructure:"replay"`
	Log    LogConfig    `mapstructure:"log"`
	Demo   DemoConfig   `mapstructure:"demo"`
}

// ServerConfig holds the HTTP/websocket and gRPC listener settings
type ServerConfig struct {
	HTTPAddr         string   `mapstructure:"http_addr"`
	GRPCHost         string   `mapstructure:"grpc_host"`
	GRPCPort         int      `mapstructure:"grpc_port"`
	EnableReflection bool     `mapstructure:"enable_reflection"`
	MaxGames         int      `mapstructure:"max_games"`
	ShutdownTimeout  int      `mapstructure:"shutdown_timeout"`
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
}

// GameConfig holds the tick loop timing and player lifecycle constants
type GameConfig struct {
	BaseTickMs             int     `mapstructure:"base_tick_ms"`
	StartDelayMs           int     `mapstructure:"start_delay_ms"`
	MinTickDelayMs         int     `mapstructure:"min_tick_delay_ms"`
	ImmediateTickDelayMs   int     `mapstructure:"immediate_tick_delay_ms"`
	FullSnapshotInterval   int     `mapstructure:"full_snapshot_interval"`
	RandomFullSnapshotOdds int     `mapstructure:"random_full_snapshot_odds"`
	LeftGame               int     `mapstructure:"left_game"`
	AFKMinTurns            int     `mapstructure:"afk_min_turns"`
	AFKMinMs               int     `mapstructure:"afk_min_ms"`
	SurrenderFadeTicks     int     `mapstructure:"surrender_fade_ticks"`
	DefaultSpeed           float64 `mapstructure:"default_speed"`
}

// MapGenConfig holds map generation settings
type MapGenConfig struct {
	ArchipelagoRetries int    `mapstructure:"archipelago_retries"`
	PresetsPath        string `mapstructure:"presets_path"`
}

// ReplayConfig holds replay persistence settings
type ReplayConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Dir       string `mapstructure:"dir"`
	IndexPath string `mapstructure:"index_path"`
	ZstdLevel int    `mapstructure:"zstd_level"`
}

// LogConfig holds logger settings
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DemoConfig holds defaults for local bot matches
type DemoConfig struct {
	Players  int    `mapstructure:"players"`
	MaxTurns int    `mapstructure:"max_turns"`
	MapMode  string `mapstructure:"map_mode"`
	MapToken string `mapstructure:"map_token"`
}

var (
	mu  sync.RWMutex
	cfg *Config
	v   *viper.Viper
)

// setViperDefaults sets all default values using Viper's SetDefault
func setViperDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.http_addr", ":8080")
	v.SetDefault("server.grpc_host", "0.0.0.0")
	v.SetDefault("server.grpc_port", 50051)
	v.SetDefault("server.enable_reflection", true)
	v.SetDefault("server.max_games", 100)
	v.SetDefault("server.shutdown_timeout", 5)
	v.SetDefault("server.allowed_origins", []string{})

	// Game loop defaults
	v.SetDefault("game.base_tick_ms", 500)
	v.SetDefault("game.start_delay_ms", 2000)
	v.SetDefault("game.min_tick_delay_ms", 10)
	v.SetDefault("game.immediate_tick_delay_ms", 10)
	v.SetDefault("game.full_snapshot_interval", 50)
	v.SetDefault("game.random_full_snapshot_odds", 51)
	v.SetDefault("game.left_game", 51)
	v.SetDefault("game.afk_min_turns", 100)
	v.SetDefault("game.afk_min_ms", 60000)
	v.SetDefault("game.surrender_fade_ticks", 16)
	v.SetDefault("game.default_speed", 1.0)

	// Map generation defaults
	v.SetDefault("mapgen.archipelago_retries", 120)
	v.SetDefault("mapgen.presets_path", "configs/presets.yaml")

	// Replay defaults
	v.SetDefault("replay.enabled", true)
	v.SetDefault("replay.dir", "data/replays")
	v.SetDefault("replay.index_path", "data/replays/index.db")
	v.SetDefault("replay.zstd_level", 3)

	// Logging defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	// Demo defaults
	v.SetDefault("demo.players", 2)
	v.SetDefault("demo.max_turns", 600)
	v.SetDefault("demo.map_mode", "random")
	v.SetDefault("demo.map_token", "")
}

// Init initializes the configuration
func Init(configPath string) error {
	v = viper.New()

	// Set defaults before loading any config
	setViperDefaults(v)

	// Set config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Default config locations
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/checkmate")
	}

	// Set environment variable prefix
	v.SetEnvPrefix("CHECKMATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		// A specific file that does not exist is fine: defaults apply.
		if configPath == "" {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return fmt.Errorf("error reading config file: %w", err)
			}
		}
	}

	return reload()
}

// reload decodes and validates the viper state, then swaps it in. The
// current config is kept when either step fails.
func reload() error {
	next := &Config{}
	if err := v.Unmarshal(next); err != nil {
		return fmt.Errorf("unable to decode config into struct: %w", err)
	}
	if err := Validate(next); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	mu.Lock()
	cfg = next
	mu.Unlock()
	return nil
}

// Get returns the current config, initializing defaults on first use. The
// returned value must be treated as read-only.
func Get() *Config {
	mu.RLock()
	c := cfg
	mu.RUnlock()
	if c != nil {
		return c
	}
	if err := Init(""); err != nil {
		panic("failed to initialize config with defaults: " + err.Error())
	}
	mu.RLock()
	defer mu.RUnlock()
	return cfg
}

// LoadEnvironmentConfig merges config.<env>.yaml, looked up next to the
// loaded config file, over the current settings.
func LoadEnvironmentConfig(env string) error {
	if env == "" {
		return nil
	}

	base := v.ConfigFileUsed()
	envFile := fmt.Sprintf("config.%s.yaml", env)
	if base != "" {
		envFile = filepath.Join(filepath.Dir(base), envFile)
	}

	v.SetConfigFile(envFile)
	err := v.MergeInConfig()
	// the watcher keeps following the base file
	v.SetConfigFile(base)
	if err != nil {
		return fmt.Errorf("error merging environment config %s: %w", envFile, err)
	}
	return reload()
}

// ConfigFilePath returns the path of the loaded config file
func ConfigFilePath() string {
	return v.ConfigFileUsed()
}

// WatchConfig enables hot-reloading of config file. Running games keep
// the settings they were created with; only new games and the log level
// pick up changes. onChange receives the reload error, if any, in which
// case the previous config stays active.
func WatchConfig(onChange func(err error)) {
	v.OnConfigChange(func(fsnotify.Event) {
		err := reload()
		if onChange != nil {
			onChange(err)
		}
	})
	v.WatchConfig()
}

// Validate validates the configuration values
func Validate(c *Config) error {
	// Validate game loop
	if c.Game.BaseTickMs <= 0 {
		return fmt.Errorf("game.base_tick_ms must be positive")
	}
	if c.Game.StartDelayMs < 0 {
		return fmt.Errorf("game.start_delay_ms must be non-negative")
	}
	if c.Game.MinTickDelayMs <= 0 {
		return fmt.Errorf("game.min_tick_delay_ms must be positive")
	}
	if c.Game.ImmediateTickDelayMs <= 0 {
		return fmt.Errorf("game.immediate_tick_delay_ms must be positive")
	}
	if c.Game.FullSnapshotInterval <= 0 {
		return fmt.Errorf("game.full_snapshot_interval must be positive")
	}
	if c.Game.RandomFullSnapshotOdds <= 0 {
		return fmt.Errorf("game.random_full_snapshot_odds must be positive")
	}
	if c.Game.LeftGame < 2 {
		return fmt.Errorf("game.left_game must be at least 2")
	}
	if c.Game.AFKMinTurns <= 0 || c.Game.AFKMinMs < 0 {
		return fmt.Errorf("game.afk_min_turns must be positive and game.afk_min_ms non-negative")
	}
	if c.Game.SurrenderFadeTicks <= 0 {
		return fmt.Errorf("game.surrender_fade_ticks must be positive")
	}
	if c.Game.DefaultSpeed <= 0 {
		return fmt.Errorf("game.default_speed must be positive")
	}

	// Validate map generation
	if c.MapGen.ArchipelagoRetries <= 0 {
		return fmt.Errorf("mapgen.archipelago_retries must be positive")
	}

	// Validate server configuration
	if c.Server.GRPCPort <= 0 || c.Server.GRPCPort > 65535 {
		return fmt.Errorf("server.grpc_port must be between 1 and 65535")
	}
	if c.Server.MaxGames <= 0 {
		return fmt.Errorf("server.max_games must be positive")
	}
	if c.Server.ShutdownTimeout < 0 {
		return fmt.Errorf("server.shutdown_timeout must be non-negative")
	}

	// Validate replay persistence
	if c.Replay.Enabled && (c.Replay.Dir == "" || c.Replay.IndexPath == "") {
		return fmt.Errorf("replay.dir and replay.index_path are required when replays are enabled")
	}
	if c.Replay.ZstdLevel < 1 || c.Replay.ZstdLevel > 22 {
		return fmt.Errorf("replay.zstd_level must be between 1 and 22")
	}

	// Validate logging
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("log.format must be console or json")
	}

	// Validate demo defaults
	if c.Demo.Players < 2 || c.Demo.Players > 16 {
		return fmt.Errorf("demo.players must be between 2 and 16")
	}
	if c.Demo.MaxTurns <= 0 {
		return fmt.Errorf("demo.max_turns must be positive")
	}

	return nil
}
