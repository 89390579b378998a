//go:build !unix

package audio

import "os/exec"

func detach(cmd *exec.Cmd) {}
