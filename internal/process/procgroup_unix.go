//go:build unix

package process

import (
	"os/exec"
	"syscall"
)

// killGroupOnCancel starts c in its own process group and kills the whole
// group on cancellation, so helpers spawned by a test die with it.
func killGroupOnCancel(c *exec.Cmd) {
	c.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	c.Cancel = func() error {
		return syscall.Kill(-c.Process.Pid, syscall.SIGKILL)
	}
}
