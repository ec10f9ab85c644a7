// Package config handles the scmvm.toml configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/zurustar/scmvm/pkg/vm"
)

// FileName is the configuration file looked up next to the game data.
const FileName = "scmvm.toml"

// Config is the whole configuration file.
type Config struct {
	Machine  Machine  `toml:"machine"`
	Engine   Engine   `toml:"engine"`
	Log      Log      `toml:"log"`
	Savegame Savegame `toml:"savegame"`

	// Path is the file the configuration was read from, empty for defaults.
	Path string `toml:"-"`
}

// Machine configures the script machine.
type Machine struct {
	InstructionBudget int    `toml:"instruction-budget"`
	YieldResume       bool   `toml:"yield-resume"`
	Seed              uint64 `toml:"seed"`
	Trace             bool   `toml:"trace"`
	// GlobalsSize is the minimum heap size in bytes; 0 keeps the size
	// declared by the script.
	GlobalsSize int `toml:"globals-size"`
}

// Engine configures the game loop.
type Engine struct {
	Headless bool `toml:"headless"`
	// KeepGoing parks a thread that hit a fatal error and keeps the
	// session running instead of stopping it.
	KeepGoing bool          `toml:"keep-going"`
	Tick      time.Duration `toml:"tick"`
	Ticks     int           `toml:"ticks"`
	Timeout   time.Duration `toml:"timeout"`
	Width     int           `toml:"width"`
	Height    int           `toml:"height"`
	Title     string        `toml:"title"`
}

// Log configures logging.
type Log struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Savegame configures the save store.
type Savegame struct {
	Path string `toml:"path"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Machine: Machine{
			InstructionBudget: vm.DefaultInstructionBudget,
		},
		Engine: Engine{
			Tick:   16 * time.Millisecond,
			Width:  640,
			Height: 480,
			Title:  "scmvm",
		},
		Log: Log{
			Level:  "info",
			Format: "text",
		},
		Savegame: Savegame{
			Path: "saves.db",
		},
	}
}

// Parse decodes a configuration document on top of the defaults.
func Parse(data []byte) (*Config, error) {
	c := Default()
	md, err := toml.Decode(string(data), c)
	if err != nil {
		return nil, err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown keys: %v", undecoded)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Load reads and parses the file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	c.Path = path
	return c, nil
}

// Find loads FileName from dir if it exists and returns the defaults
// otherwise.
func Find(dir string) (*Config, error) {
	path := filepath.Join(dir, FileName)
	if _, err := os.Stat(path); err != nil {
		return Default(), nil
	}
	return Load(path)
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Machine.InstructionBudget <= 0 {
		return fmt.Errorf("machine.instruction-budget must be positive, got %d", c.Machine.InstructionBudget)
	}
	if c.Machine.GlobalsSize < 0 {
		return fmt.Errorf("machine.globals-size must not be negative, got %d", c.Machine.GlobalsSize)
	}
	if c.Engine.Tick <= 0 {
		return fmt.Errorf("engine.tick must be positive, got %s", c.Engine.Tick)
	}
	if c.Engine.Ticks < 0 {
		return fmt.Errorf("engine.ticks must not be negative, got %d", c.Engine.Ticks)
	}
	if c.Engine.Timeout < 0 {
		return fmt.Errorf("engine.timeout must not be negative, got %s", c.Engine.Timeout)
	}
	if c.Engine.Width <= 0 || c.Engine.Height <= 0 {
		return fmt.Errorf("engine window size must be positive, got %dx%d", c.Engine.Width, c.Engine.Height)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level: invalid log level: %s", c.Log.Level)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	return nil
}
