package slurm

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestPortChecksum(t *testing.T) {
	cases := []struct {
		port int
		want string
	}{
		{8891, "26"},
		{8000, "8"},
		{1, "1"},
		{65535, "24"},
	}

	for _, tc := range cases {
		if got := portChecksum(tc.port); got != tc.want {
			t.Errorf("portChecksum(%d) = %q, want %q", tc.port, got, tc.want)
		}
	}
}

func TestMarkerFileHook_WritesChecksumKeyedByUID(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "markers")
	hook := NewMarkerFileHook(dir)
	hook.lookupUID = func(owner string) (string, error) {
		if owner != "alice" {
			t.Errorf("unexpected owner %q", owner)
		}
		return "1042", nil
	}

	if err := hook.Mark("alice", 8891); err != nil {
		t.Fatalf("Mark failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "1042"))
	if err != nil {
		t.Fatalf("marker file not written: %v", err)
	}
	if string(data) != "26" {
		t.Errorf("got checksum %q, want 26", data)
	}
}

func TestMarkerFileHook_UnknownOwner(t *testing.T) {
	hook := NewMarkerFileHook(t.TempDir())
	hook.lookupUID = func(string) (string, error) {
		return "", errors.New("user: unknown user nobody-here")
	}

	if err := hook.Mark("nobody-here", 8891); err == nil {
		t.Error("expected error for unknown owner")
	}
}
