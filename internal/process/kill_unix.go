//go:build !windows

package process

import (
	"errors"
	"fmt"
	"syscall"
)

// KillTree sends SIGKILL to the process group led by pid, which takes the
// browser's renderer and GPU children down with it. A group that is already
// gone is not an error.
func KillTree(pid int) error {
	if pid <= 1 {
		return fmt.Errorf("%w: %d", ErrInvalidPID, pid)
	}
	err := syscall.Kill(-pid, syscall.SIGKILL)
	if err == nil || errors.Is(err, syscall.ESRCH) {
		return nil
	}
	return fmt.Errorf("killing process group %d: %w", pid, err)
}
