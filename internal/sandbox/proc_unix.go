//go:build !windows

package sandbox

import (
	"os/exec"
	"syscall"
)

// configureProcess starts the child in its own process group and makes
// cancellation kill the whole group, so programs that fork do not outlive
// the deadline.
func configureProcess(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		if err := syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL); err != nil {
			return cmd.Process.Kill()
		}
		return nil
	}
}
