package config

import (
	_ "embed"
	"time"
)

//go:embed defaults/ruckus.yaml
var defaultYAML []byte

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Address:     ":8082",
			EventBuffer: 64,
		},
		Robots: RobotsConfig{
			Botless:   false,
			Timeout:   2 * time.Second,
			Simulated: []string{"Ruckus", "Rusty", "Sprocket", "Widget"},
		},
		Dispatch: DispatchConfig{
			AckTimeout:        3 * time.Second,
			CompletionTimeout: 7 * time.Second,
			Settle:            250 * time.Millisecond,
			PollInterval:      20 * time.Millisecond,
			SetupAttempts:     6,
			SetupRetryDelay:   50 * time.Millisecond,
		},
		Game: GameConfig{
			Players:   4,
			BoardsDir: "boards",
			DBPath:    "~/.ruckus/ruckus.db",
		},
		Pacing: PacingConfig{
			Phase:        time.Second,
			LaserFire:    800 * time.Millisecond,
			LaserHit:     2 * time.Second,
			Wrench:       1650 * time.Millisecond,
			Flag:         time.Second,
			Register:     7 * time.Second,
			Winner:       250 * time.Millisecond,
			OffBoard:     4 * time.Second,
			BotlessMove:  time.Second,
			RoundEnd:     2 * time.Second,
			AllShutdown:  3 * time.Second,
			SetupSettle:  100 * time.Millisecond,
			AssignSettle: 500 * time.Millisecond,
			AssignWindow: time.Second,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// DefaultYAML returns the embedded default configuration file.
func DefaultYAML() []byte {
	return defaultYAML
}
