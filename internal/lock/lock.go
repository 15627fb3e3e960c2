// Package lock implements the advisory per-owner lock taken while a check-in form is open.
// The lock never blocks: a second editor is only warned.
package lock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mitchellh/go-ps"

	"github.com/julianstephens/checkin/internal/constants"
	"github.com/julianstephens/checkin/internal/logger"
)

var (
	findProcessFunc = ps.FindProcess
	getpidFunc      = os.Getpid
)

// Holder is another live process holding an owner's lock.
type Holder struct {
	PID        int
	Executable string
}

// Lock is a held lock file.
type Lock struct {
	path string
	pid  int
}

// Path returns the lock file of ownerKey under configDir.
func Path(configDir, ownerKey string) string {
	name := strings.NewReplacer(":", "_", "/", "_", `\`, "_").Replace(ownerKey)
	return filepath.Join(configDir, constants.LockDirName, name+constants.LockFileSuffix)
}

// Acquire writes the current PID into the lock file of ownerKey. When another live checkin
// process already holds it, the lock is still taken and that process is returned so the
// caller can warn.
func Acquire(configDir, ownerKey string) (*Lock, *Holder, error) {
	path := Path(configDir, ownerKey)
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, nil, fmt.Errorf("failed to create lock directory: %w", err)
	}

	pid := getpidFunc()
	holder, err := liveHolder(path, pid)
	if err != nil {
		logger.Debug("Ignoring unreadable lock file", "path", path, "error", err)
	}

	content := strconv.Itoa(pid) + "|" + ownerKey + "\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		return nil, nil, fmt.Errorf("failed to write lock file: %w", err)
	}
	if holder != nil {
		logger.Warn("Check-in already open in another process", "owner", ownerKey, "pid", holder.PID)
	}
	return &Lock{path: path, pid: pid}, holder, nil
}

// Release removes the lock file if it still holds this process's PID.
func (l *Lock) Release() error {
	pid, err := readPID(l.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if pid != l.pid {
		return nil
	}
	if err := os.Remove(l.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove lock file: %w", err)
	}
	return nil
}

// liveHolder returns the process recorded in path when it is alive, is a checkin binary
// and is not self.
func liveHolder(path string, self int) (*Holder, error) {
	pid, err := readPID(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	if pid == self {
		return nil, nil
	}

	process, err := findProcessFunc(pid)
	if err != nil || process == nil {
		return nil, nil
	}
	// PIDs are reused, so a live process with another name is a stale lock.
	if !strings.HasPrefix(process.Executable(), constants.AppName) {
		return nil, nil
	}
	return &Holder{PID: pid, Executable: process.Executable()}, nil
}

func readPID(path string) (int, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	pidStr, _, _ := strings.Cut(strings.TrimSpace(string(content)), "|")
	pid, err := strconv.Atoi(pidStr)
	if err != nil {
		return 0, errors.New("lock file is malformed")
	}
	return pid, nil
}
