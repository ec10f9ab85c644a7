package fileutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFindFileCaseInsensitive(t *testing.T) {
	tmpDir := t.TempDir()

	testFiles := []string{
		"MAIN.SCM",
		"gta3.ini",
		"Default.ide",
	}
	for _, filename := range testFiles {
		path := filepath.Join(tmpDir, filename)
		if err := os.WriteFile(path, []byte("test"), 0644); err != nil {
			t.Fatalf("Failed to create test file: %v", err)
		}
	}
	if err := os.Mkdir(filepath.Join(tmpDir, "main.dir"), 0755); err != nil {
		t.Fatalf("Failed to create directory: %v", err)
	}

	tests := []struct {
		name          string
		searchName    string
		shouldFind    bool
		expectedMatch string
	}{
		{"exact match", "MAIN.SCM", true, "MAIN.SCM"},
		{"lowercase search for uppercase file", "main.scm", true, "MAIN.SCM"},
		{"uppercase search for lowercase file", "GTA3.INI", true, "gta3.ini"},
		{"mixed case", "default.IDE", true, "Default.ide"},
		{"directories are skipped", "main.dir", false, ""},
		{"file not found", "nonexistent.txt", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, err := FindFileCaseInsensitive(tmpDir, tt.searchName)

			if !tt.shouldFind {
				if err == nil {
					t.Errorf("Expected error, but got path: %s", path)
				}
				return
			}
			if err != nil {
				t.Fatalf("Expected to find file, but got error: %v", err)
			}
			if got := filepath.Base(path); got != tt.expectedMatch {
				t.Errorf("Expected filename %s, got %s", tt.expectedMatch, got)
			}
			if _, err := os.Stat(path); err != nil {
				t.Errorf("Returned path does not exist: %s", path)
			}
		})
	}
}

func TestResolveCaseInsensitive(t *testing.T) {
	tmpDir := t.TempDir()
	dataDir := filepath.Join(tmpDir, "DATA")
	if err := os.Mkdir(dataDir, 0755); err != nil {
		t.Fatalf("Failed to create directory: %v", err)
	}
	want := filepath.Join(dataDir, "Main.Scm")
	if err := os.WriteFile(want, []byte("scm"), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	got, err := ResolveCaseInsensitive(tmpDir, "data", "main.scm")
	if err != nil {
		t.Fatalf("ResolveCaseInsensitive failed: %v", err)
	}
	if got != want {
		t.Errorf("ResolveCaseInsensitive = %s, want %s", got, want)
	}

	if _, err := ResolveCaseInsensitive(tmpDir, "text", "main.scm"); err == nil {
		t.Error("expected error for missing directory")
	}

	if got, err := ResolveCaseInsensitive(tmpDir); err != nil || got != tmpDir {
		t.Errorf("ResolveCaseInsensitive with no parts = (%s, %v), want base", got, err)
	}
}
