package config

// #region imports
import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// #endregion

// #region app-config

// App holds the runtime configuration for the engine daemon and the
// companion tools. All knobs come from the environment; defaults give
// a usable local run with no setup.
type App struct {
	DBPath       string        `env:"RITUAL_DB" envDefault:"ritual.db"`
	ListenAddr   string        `env:"RITUAL_ADDR" envDefault:":8442"`
	TotalEvents  int           `env:"RITUAL_TOTAL_EVENTS" envDefault:"200"`
	GateWindow   time.Duration `env:"RITUAL_GATE_WINDOW" envDefault:"60s"`
	GateToken    string        `env:"RITUAL_GATE_TOKEN" envDefault:"not committed sin"`
	RewindAmount float64       `env:"RITUAL_REWIND_AMOUNT" envDefault:"0.5"`
	PushInterval time.Duration `env:"RITUAL_PUSH_INTERVAL" envDefault:"100ms"`
	FeedInterval time.Duration `env:"RITUAL_FEED_INTERVAL" envDefault:"250ms"`
	FeedSeed     int64         `env:"RITUAL_FEED_SEED" envDefault:"42"`
	EngineDebug  bool          `env:"RITUAL_ENGINE_DEBUG" envDefault:"false"`
}

// #endregion app-config

// #region load

// LoadDotenv loads a .env file when one exists next to the binary.
// A missing file is not an error.
func LoadDotenv() {
	_ = godotenv.Load()
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// LoadApp loads the full daemon configuration, .env included.
func LoadApp() (App, error) {
	LoadDotenv()
	var cfg App
	if err := ParseEnv(&cfg); err != nil {
		return App{}, err
	}
	if cfg.TotalEvents <= 0 {
		return App{}, fmt.Errorf("RITUAL_TOTAL_EVENTS must be positive, got %d", cfg.TotalEvents)
	}
	if cfg.RewindAmount < 0 || cfg.RewindAmount > 1 {
		return App{}, fmt.Errorf("RITUAL_REWIND_AMOUNT must be in [0,1], got %v", cfg.RewindAmount)
	}
	return cfg, nil
}

// #endregion load

// #region exit

// Exitf writes a formatted error message to stderr and exits with code 1.
// It provides a consistent fatal-exit pattern for CLI entry points.
func Exitf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

// #endregion exit
