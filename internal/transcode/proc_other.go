//go:build !unix

package transcode

import "os/exec"

// killProcessGroup is a no-op where process groups are unavailable; the
// default CommandContext cancel kills the direct child and WaitDelay
// unblocks Wait.
func killProcessGroup(cmd *exec.Cmd) {}
