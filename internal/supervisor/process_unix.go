//go:build !windows

package supervisor

import (
	"os"
	"os/exec"
	"syscall"
)

func setPlatformProcAttr(*exec.Cmd) {}

func terminationSignal() os.Signal {
	return syscall.SIGTERM
}

// killByPID unconditionally sends SIGKILL to pid as a belt-and-braces
// measure after a graceful terminate-and-wait, in case the child ignored
// the termination signal or forked past the wait.
func killByPID(pid int) {
	if pid <= 0 {
		return
	}
	_ = syscall.Kill(pid, syscall.SIGKILL)
}
