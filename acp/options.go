package acp

import "github.com/agentprotocol/acpgo/internal/common/logger"

// connConfig holds the tunables both facade constructors accept.
type connConfig struct {
	maxFrameBytes int
	log           *logger.Logger
}

// ConnectionOption customizes a connection built by
// NewAgentSideConnection or NewClientSideConnection.
type ConnectionOption func(*connConfig)

// WithMaxFrameBytes overrides DefaultMaxFrameBytes for this connection.
func WithMaxFrameBytes(n int) ConnectionOption {
	return func(c *connConfig) { c.maxFrameBytes = n }
}

// WithLogger attaches a logger; the default is logger.Default().
func WithLogger(l *logger.Logger) ConnectionOption {
	return func(c *connConfig) { c.log = l }
}

func newConnConfig(opts []ConnectionOption) connConfig {
	cfg := connConfig{maxFrameBytes: DefaultMaxFrameBytes, log: logger.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}
