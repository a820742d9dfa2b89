// Package config provides YAML-based server configuration loading for
// the ruckus game server.
package config

import (
	"errors"
	"fmt"
	"time"
)

// Config contains all configuration for a ruckus server.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Robots   RobotsConfig   `yaml:"robots"`
	Dispatch DispatchConfig `yaml:"dispatch"`
	Game     GameConfig     `yaml:"game"`
	Pacing   PacingConfig   `yaml:"pacing"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig defines the HTTP listener.
type ServerConfig struct {
	Address     string `yaml:"address"`
	EventBuffer int    `yaml:"event_buffer"` // per websocket subscriber
}

// RobotsConfig defines how the server reaches robots.
type RobotsConfig struct {
	Botless bool          `yaml:"botless"`
	Timeout time.Duration `yaml:"timeout"` // per HTTP request
	// Simulated robots are registered at startup in botless mode.
	Simulated []string `yaml:"simulated"`
}

// DispatchConfig bounds the waits on robot orders.
type DispatchConfig struct {
	AckTimeout        time.Duration `yaml:"ack_timeout"`
	CompletionTimeout time.Duration `yaml:"completion_timeout"`
	Settle            time.Duration `yaml:"settle"`
	PollInterval      time.Duration `yaml:"poll_interval"`
	SetupAttempts     int           `yaml:"setup_attempts"`
	SetupRetryDelay   time.Duration `yaml:"setup_retry_delay"`
}

// GameConfig defines table rules and where game data lives.
type GameConfig struct {
	Players      int    `yaml:"players"`
	ShowRegister bool   `yaml:"show_register"`
	EdgeControl  bool   `yaml:"edge_control"`
	PlayerTimer  bool   `yaml:"player_timer"`
	BoardsDir    string `yaml:"boards_dir"`
	DBPath       string `yaml:"db_path"`
	Seed         int64  `yaml:"seed"` // 0 = random
}

// PacingConfig holds the pauses that let spectators follow a round.
type PacingConfig struct {
	Phase        time.Duration `yaml:"phase"`
	LaserFire    time.Duration `yaml:"laser_fire"`
	LaserHit     time.Duration `yaml:"laser_hit"`
	Wrench       time.Duration `yaml:"wrench"`
	Flag         time.Duration `yaml:"flag"`
	Register     time.Duration `yaml:"register"`
	Winner       time.Duration `yaml:"winner"`
	OffBoard     time.Duration `yaml:"off_board"`
	BotlessMove  time.Duration `yaml:"botless_move"`
	RoundEnd     time.Duration `yaml:"round_end"`
	AllShutdown  time.Duration `yaml:"all_shutdown"`
	SetupSettle  time.Duration `yaml:"setup_settle"`
	AssignSettle time.Duration `yaml:"assign_settle"`
	AssignWindow time.Duration `yaml:"assign_window"`
}

// LogConfig defines logging output.
type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// Validate reports every setting that cannot work.
func (c Config) Validate() error {
	var errs []error
	if c.Server.Address == "" {
		errs = append(errs, errors.New("server.address is empty"))
	}
	if c.Game.Players < 1 {
		errs = append(errs, fmt.Errorf("game.players must be at least 1, got %d", c.Game.Players))
	}
	if c.Dispatch.AckTimeout <= 0 || c.Dispatch.CompletionTimeout <= 0 {
		errs = append(errs, errors.New("dispatch timeouts must be positive"))
	}
	if c.Dispatch.SetupAttempts < 1 {
		errs = append(errs, fmt.Errorf("dispatch.setup_attempts must be at least 1, got %d", c.Dispatch.SetupAttempts))
	}
	return errors.Join(errs...)
}
