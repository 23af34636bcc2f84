package slurm

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strconv"
)

// MarkerFileHook writes a small per-user marker file before each
// submission. A scheduler-side submit plugin can check the file to verify
// the job came through this daemon (and, say, bump its priority). The
// checksum is the sum of the port's digits, a handshake with the plugin
// rather than a security boundary.
type MarkerFileHook struct {
	// Dir is where marker files live, one per numeric uid.
	Dir string

	// lookupUID resolves an owner name to a uid string. Test hook.
	lookupUID func(owner string) (string, error)
}

// NewMarkerFileHook creates the hook rooted at dir.
func NewMarkerFileHook(dir string) *MarkerFileHook {
	return &MarkerFileHook{
		Dir: dir,
		lookupUID: func(owner string) (string, error) {
			u, err := user.Lookup(owner)
			if err != nil {
				return "", err
			}
			return u.Uid, nil
		},
	}
}

// Mark writes the checksum file for owner's submission on port.
func (h *MarkerFileHook) Mark(owner string, port int) error {
	uid, err := h.lookupUID(owner)
	if err != nil {
		return fmt.Errorf("looking up uid for %s: %w", owner, err)
	}

	if err := os.MkdirAll(h.Dir, 0o755); err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(h.Dir, uid), []byte(portChecksum(port)), 0o644)
}

// portChecksum sums the decimal digits of port.
func portChecksum(port int) string {
	sum := 0
	for _, c := range strconv.Itoa(port) {
		sum += int(c - '0')
	}
	return strconv.Itoa(sum)
}
