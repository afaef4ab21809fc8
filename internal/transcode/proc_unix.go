//go:build unix

package transcode

import (
	"os"
	"os/exec"
	"syscall"
)

// killProcessGroup places the transcoder in its own process group and
// makes cancellation signal the whole group, so descendants forked by
// the transcoder (or a wrapping shell) die with it.
func killProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		err := syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
		if err == syscall.ESRCH {
			return os.ErrProcessDone
		}
		return err
	}
}
