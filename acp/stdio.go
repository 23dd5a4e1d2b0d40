package acp

import (
	"io"
	"os"
)

// Stdio is a duplex stream built from this process's own stdin/stdout,
// the shape an agent binary typically hands to NewAgentSideConnection
// when it is itself the spawned subprocess (spec §4.6).
type Stdio struct {
	io.Reader
	io.Writer
}

// NewStdio wraps os.Stdin/os.Stdout as a duplex stream.
func NewStdio() Stdio {
	return Stdio{Reader: os.Stdin, Writer: os.Stdout}
}
