//go:build unix

package audio

import (
	"os/exec"
	"syscall"
)

// detach moves cmd into its own process group. A terminal Ctrl-C then reaches
// only moodify, which stops the recording and lets ffmpeg drain its input.
func detach(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}
