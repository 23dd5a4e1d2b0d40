package acp

import (
	"encoding/json"
	"fmt"
)

// HttpHeader is a single header name/value pair for remote MCP server
// transports.
type HttpHeader struct {
	Name  string `json:"name" validate:"required"`
	Value string `json:"value"`
}

// EnvVariable is a single environment variable passed to a stdio MCP
// server subprocess.
type EnvVariable struct {
	Name  string `json:"name" validate:"required"`
	Value string `json:"value"`
}

// McpServerStdio configures an MCP server launched as a child process
// communicating over stdio.
type McpServerStdio struct {
	Name    string        `json:"name" validate:"required"`
	Command string        `json:"command" validate:"required"`
	Args    []string      `json:"args,omitempty"`
	Env     []EnvVariable `json:"env,omitempty"`
}

// McpServerSse configures a remote MCP server reached over
// Server-Sent Events.
type McpServerSse struct {
	Name    string       `json:"name" validate:"required"`
	URL     string       `json:"url" validate:"required"`
	Headers []HttpHeader `json:"headers,omitempty"`
}

// McpServerHttp configures a remote MCP server reached over plain
// HTTP.
type McpServerHttp struct {
	Name    string       `json:"name" validate:"required"`
	URL     string       `json:"url" validate:"required"`
	Headers []HttpHeader `json:"headers,omitempty"`
}

// McpServer is a tagged union over the three transports an agent may
// be given to reach an MCP server. The core never dials any of these
// itself — it only carries the configuration opaquely from client to
// agent as part of session/new (spec §3, §6).
type McpServer struct {
	Stdio *McpServerStdio `json:"-"`
	Sse   *McpServerSse   `json:"-"`
	Http  *McpServerHttp  `json:"-"`
}

func (m McpServer) MarshalJSON() ([]byte, error) {
	switch {
	case m.Stdio != nil:
		return json.Marshal(struct {
			Type string `json:"type"`
			*McpServerStdio
		}{"stdio", m.Stdio})
	case m.Sse != nil:
		return json.Marshal(struct {
			Type string `json:"type"`
			*McpServerSse
		}{"sse", m.Sse})
	case m.Http != nil:
		return json.Marshal(struct {
			Type string `json:"type"`
			*McpServerHttp
		}{"http", m.Http})
	default:
		return nil, fmt.Errorf("acp: empty McpServer union")
	}
}

func (m *McpServer) UnmarshalJSON(data []byte) error {
	var disc struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &disc); err != nil {
		return err
	}
	switch disc.Type {
	case "", "stdio":
		var v McpServerStdio
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		m.Stdio = &v
	case "sse":
		var v McpServerSse
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		m.Sse = &v
	case "http":
		var v McpServerHttp
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		m.Http = &v
	default:
		return fmt.Errorf("acp: unknown mcp server transport %q", disc.Type)
	}
	return nil
}
