package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/zurustar/scmvm/pkg/vm"
)

func TestDefaultIsValid(t *testing.T) {
	d := Default()
	if err := d.Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
	if d.Machine.InstructionBudget != vm.DefaultInstructionBudget {
		t.Errorf("default budget = %d, want %d", d.Machine.InstructionBudget, vm.DefaultInstructionBudget)
	}
	if d.Engine.KeepGoing {
		t.Error("keep-going should be off by default")
	}
}

func TestParse(t *testing.T) {
	doc := `
[machine]
instruction-budget = 500
yield-resume = true
seed = 1234

[engine]
headless = true
keep-going = true
tick = "20ms"
ticks = 300
timeout = "1m"

[log]
level = "debug"
format = "json"

[savegame]
path = "/tmp/s.db"
`
	c, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if c.Machine.InstructionBudget != 500 || !c.Machine.YieldResume || c.Machine.Seed != 1234 {
		t.Errorf("machine = %+v", c.Machine)
	}
	if !c.Engine.Headless || !c.Engine.KeepGoing || c.Engine.Tick != 20*time.Millisecond || c.Engine.Ticks != 300 || c.Engine.Timeout != time.Minute {
		t.Errorf("engine = %+v", c.Engine)
	}
	// unspecified keys keep their defaults
	if c.Engine.Width != 640 || c.Engine.Title != "scmvm" {
		t.Errorf("defaults lost: %+v", c.Engine)
	}
	if c.Log.Level != "debug" || c.Log.Format != "json" || c.Savegame.Path != "/tmp/s.db" {
		t.Errorf("log = %+v savegame = %+v", c.Log, c.Savegame)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"syntax", "[machine", ""},
		{"unknown key", "[machine]\nturbo = true", "unknown keys"},
		{"budget", "[machine]\ninstruction-budget = 0", "instruction-budget"},
		{"level", "[log]\nlevel = \"loud\"", "invalid log level"},
		{"format", "[log]\nformat = \"xml\"", "log.format"},
		{"tick", "[engine]\ntick = \"0s\"", "engine.tick"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			if err == nil {
				t.Fatal("expected an error")
			}
			if tt.want != "" && !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestFind(t *testing.T) {
	dir := t.TempDir()
	c, err := Find(dir)
	if err != nil || c.Path != "" {
		t.Fatalf("Find without a file = %+v, %v", c, err)
	}

	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, []byte("[engine]\nticks = 5\n"), 0644); err != nil {
		t.Fatal(err)
	}
	c, err = Find(dir)
	if err != nil {
		t.Fatal(err)
	}
	if c.Path != path || c.Engine.Ticks != 5 {
		t.Errorf("Find = %+v", c)
	}

	if _, err := Load(filepath.Join(dir, "missing.toml")); err == nil {
		t.Error("Load of a missing file succeeded")
	}
}
