//go:build windows

package process

import (
	"fmt"
	"os/exec"
	"strconv"
)

// KillTree force-kills pid and its children with taskkill /T.
func KillTree(pid int) error {
	if pid <= 1 {
		return fmt.Errorf("%w: %d", ErrInvalidPID, pid)
	}
	// taskkill exits non-zero when the process is already gone.
	_ = exec.Command("taskkill", "/F", "/T", "/PID", strconv.Itoa(pid)).Run() // #nosec G204 -- pid is an int
	return nil
}
