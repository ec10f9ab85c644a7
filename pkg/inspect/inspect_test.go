package inspect

import (
	"testing"

	"github.com/zurustar/scmvm/pkg/vm"
)

func sampleSnapshot() vm.Snapshot {
	globals := make([]byte, 16)
	globals[8] = 5
	locals := make([]byte, vm.LocalCount*vm.CellSize)
	locals[0] = 3
	return vm.Snapshot{
		Globals:     globals,
		MissionFlag: -1,
		Threads: []vm.ThreadImage{
			{Name: "MAIN", WakeCounter: 0, Locals: locals},
			{Name: "MISSION", WakeCounter: -1, IsMission: true, Calls: []uint32{40}, Locals: locals},
		},
	}
}

func TestSnapshotQueries(t *testing.T) {
	tests := []struct {
		name string
		expr string
		want string
	}{
		{"global cell", ".globals[2]", "5\n"},
		{"thread names", ".threads[].name", "MAIN\nMISSION\n"},
		{"suspended threads", "[.threads[] | select(.wake_counter == -1) | .name]", "[\"MISSION\"]\n"},
		{"mission flag", ".mission_flag", "-1\n"},
		{"first local", ".threads[0].locals[0]", "3\n"},
		{"call stack", ".threads[1].calls", "[40]\n"},
		{"count", ".threads | length", "2\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := Snapshot(sampleSnapshot(), tt.expr)
			if err != nil {
				t.Fatalf("Snapshot(%q) error: %v", tt.expr, err)
			}
			if got := Format(results); got != tt.want {
				t.Errorf("Snapshot(%q) = %q, want %q", tt.expr, got, tt.want)
			}
		})
	}
}

func TestQueryErrors(t *testing.T) {
	if _, err := Query([]byte(`{}`), ".["); err == nil {
		t.Error("expected a parse error")
	}
	if _, err := Query([]byte(`not json`), "."); err == nil {
		t.Error("expected a decode error")
	}
	if _, err := Query([]byte(`{"a": 1}`), ".a | error(\"boom\")"); err == nil {
		t.Error("expected a runtime error")
	}
}
