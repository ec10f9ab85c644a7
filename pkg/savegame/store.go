package savegame

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/zurustar/scmvm/pkg/logger"
	"github.com/zurustar/scmvm/pkg/vm"
	_ "modernc.org/sqlite"
)

// ErrSlotNotFound indicates the requested slot has never been saved.
var ErrSlotNotFound = errors.New("save slot not found")

// SlotInfo describes one stored save.
type SlotInfo struct {
	Slot    string
	Script  string
	SavedAt time.Time
	Size    int
}

// Store keeps save images in a SQLite database.
type Store struct {
	db  *sql.DB
	mu  sync.Mutex
	now func() time.Time
	log *slog.Logger
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithClock sets the time source used to stamp saves.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		s.now = now
	}
}

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) StoreOption {
	return func(s *Store) {
		if log != nil {
			s.log = log
		}
	}
}

// Open opens (and if needed creates) the save database at path. Use
// ":memory:" for a throwaway store.
func Open(path string, opts ...StoreOption) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// an in-memory database lives only as long as its connection
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}
	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS saves (
		slot TEXT PRIMARY KEY,
		script TEXT NOT NULL,
		saved_at INTEGER NOT NULL,
		data BLOB NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating table: %w", err)
	}

	s := &Store{db: db, now: time.Now, log: logger.GetLogger()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save writes snap to slot, replacing any previous save there.
func (s *Store) Save(slot, script string, snap vm.Snapshot) error {
	data, err := Encode(snap, script)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.Exec(
		"INSERT OR REPLACE INTO saves (slot, script, saved_at, data) VALUES (?, ?, ?, ?)",
		slot, script, s.now().UnixMilli(), data,
	)
	if err != nil {
		return fmt.Errorf("saving slot %q: %w", slot, err)
	}
	s.log.Info("Game saved", "slot", slot, "threads", len(snap.Threads), "bytes", len(data))
	return nil
}

// Load reads the snapshot saved in slot.
func (s *Store) Load(slot string) (vm.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var data []byte
	err := s.db.QueryRow("SELECT data FROM saves WHERE slot = ?", slot).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return vm.Snapshot{}, fmt.Errorf("%w: %s", ErrSlotNotFound, slot)
		}
		return vm.Snapshot{}, fmt.Errorf("querying slot %q: %w", slot, err)
	}
	snap, _, err := Decode(data)
	if err != nil {
		return vm.Snapshot{}, fmt.Errorf("slot %q: %w", slot, err)
	}
	return snap, nil
}

// List returns every stored slot ordered by name.
func (s *Store) List() ([]SlotInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query("SELECT slot, script, saved_at, length(data) FROM saves ORDER BY slot")
	if err != nil {
		return nil, fmt.Errorf("listing slots: %w", err)
	}
	defer rows.Close()

	var out []SlotInfo
	for rows.Next() {
		var info SlotInfo
		var ms int64
		if err := rows.Scan(&info.Slot, &info.Script, &ms, &info.Size); err != nil {
			return nil, fmt.Errorf("scanning slot: %w", err)
		}
		info.SavedAt = time.UnixMilli(ms)
		out = append(out, info)
	}
	return out, rows.Err()
}

// Delete removes slot. Deleting a missing slot is not an error.
func (s *Store) Delete(slot string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec("DELETE FROM saves WHERE slot = ?", slot); err != nil {
		return fmt.Errorf("deleting slot %q: %w", slot, err)
	}
	return nil
}
