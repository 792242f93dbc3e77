// Package config loads the server configuration from a YAML file with
// ZOMBALS_ environment overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. ZOMBALS_AUTH_JWT_SECRET.
const EnvPrefix = "ZOMBALS"

// Config is the complete server configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Lobby    LobbyConfig    `mapstructure:"lobby"`
	Match    MatchConfig    `mapstructure:"match"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Database DatabaseConfig `mapstructure:"database"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Decks    DecksConfig    `mapstructure:"decks"`
}

type ServerConfig struct {
	Address         string          `mapstructure:"address"`
	AdminAddress    string          `mapstructure:"admin_address"`
	ClientVersion   string          `mapstructure:"client_version"`
	Maintenance     bool            `mapstructure:"maintenance"`
	ShutdownTimeout time.Duration   `mapstructure:"shutdown_timeout"`
	WebSocket       WebSocketConfig `mapstructure:"websocket"`
}

type WebSocketConfig struct {
	ReadLimit      int64         `mapstructure:"read_limit"`
	PongWait       time.Duration `mapstructure:"pong_wait"`
	PingInterval   time.Duration `mapstructure:"ping_interval"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	SendBuffer     int           `mapstructure:"send_buffer"`
	RateLimit      float64       `mapstructure:"rate_limit"`
	RateBurst      int           `mapstructure:"rate_burst"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
}

type LobbyConfig struct {
	WaitingTimeout time.Duration `mapstructure:"waiting_timeout"`
	AcceptTimeout  time.Duration `mapstructure:"accept_timeout"`
	SaveWorkers    int           `mapstructure:"save_workers"`
	SaveTimeout    time.Duration `mapstructure:"save_timeout"`
}

type MatchConfig struct {
	MulliganTimeout time.Duration `mapstructure:"mulligan_timeout"`
	TurnTimeout     time.Duration `mapstructure:"turn_timeout"`
	TimerTick       time.Duration `mapstructure:"timer_tick"`
	TimerWheelSize  int64         `mapstructure:"timer_wheel_size"`
}

type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
	Issuer    string `mapstructure:"issuer"`
}

// DatabaseConfig selects the record store. Driver is memory, sqlite or
// postgres.
type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

type DecksConfig struct {
	File string `mapstructure:"file"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.admin_address", ":8081")
	v.SetDefault("server.client_version", "1.0.0")
	v.SetDefault("server.maintenance", false)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.websocket.read_limit", 64<<10)
	v.SetDefault("server.websocket.pong_wait", 60*time.Second)
	v.SetDefault("server.websocket.ping_interval", 50*time.Second)
	v.SetDefault("server.websocket.write_timeout", 10*time.Second)
	v.SetDefault("server.websocket.send_buffer", 256)
	v.SetDefault("server.websocket.rate_limit", 20.0)
	v.SetDefault("server.websocket.rate_burst", 40)
	v.SetDefault("server.websocket.allowed_origins", []string{})

	v.SetDefault("lobby.waiting_timeout", 60*time.Second)
	v.SetDefault("lobby.accept_timeout", 15*time.Second)
	v.SetDefault("lobby.save_workers", 8)
	v.SetDefault("lobby.save_timeout", 10*time.Second)

	v.SetDefault("match.mulligan_timeout", 30*time.Second)
	v.SetDefault("match.turn_timeout", 90*time.Second)
	v.SetDefault("match.timer_tick", 100*time.Millisecond)
	v.SetDefault("match.timer_wheel_size", 64)

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.issuer", "")

	v.SetDefault("database.driver", "memory")
	v.SetDefault("database.dsn", "")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.file", "")
	v.SetDefault("logging.max_size_mb", 100)
	v.SetDefault("logging.max_backups", 5)
	v.SetDefault("logging.max_age_days", 28)

	v.SetDefault("decks.file", "config/decks.yaml")
}

// Loader reads the configuration and notifies about file changes.
type Loader struct {
	v *viper.Viper

	mu  sync.Mutex
	cur *Config
}

// Load reads path (if non-empty) and applies defaults and environment
// overrides. A missing file is not an error; defaults and env still apply.
func Load(path string) (*Config, error) {
	l, err := NewLoader(path)
	if err != nil {
		return nil, err
	}
	return l.Current(), nil
}

// NewLoader is Load keeping the loader around for Watch.
func NewLoader(path string) (*Loader, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !isMissingFile(err) {
				return nil, fmt.Errorf("failed to read config %s: %w", path, err)
			}
		}
	}

	cfg, err := decode(v)
	if err != nil {
		return nil, err
	}
	return &Loader{v: v, cur: cfg}, nil
}

// Current returns the last successfully loaded configuration.
func (l *Loader) Current() *Config {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cur
}

// Watch calls onChange with the new configuration every time the file
// changes. Invalid edits are reported to onError and the previous
// configuration stays current.
func (l *Loader) Watch(onChange func(*Config), onError func(error)) {
	l.v.OnConfigChange(func(fsnotify.Event) {
		cfg, err := decode(l.v)
		if err != nil {
			if onError != nil {
				onError(err)
			}
			return
		}
		l.mu.Lock()
		l.cur = cfg
		l.mu.Unlock()
		onChange(cfg)
	})
	l.v.WatchConfig()
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that have no usable default.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "memory", "sqlite", "postgres":
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}
	if c.Database.Driver != "memory" && c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required for driver %s", c.Database.Driver)
	}
	if c.Server.ClientVersion == "" {
		return errors.New("server.client_version is required")
	}
	if c.Match.TimerTick <= 0 || c.Match.TimerWheelSize <= 0 {
		return errors.New("match.timer_tick and match.timer_wheel_size must be positive")
	}
	return nil
}

func isMissingFile(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
