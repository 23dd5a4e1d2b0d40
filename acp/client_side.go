package acp

import (
	"context"
	"encoding/json"
	"io"

	"github.com/agentprotocol/acpgo/internal/common/logger"
	"go.uber.org/zap"
)

// Client is implemented by a client process: the set of methods an
// agent may invoke on it (spec §4.4 "Client-side method table").
type Client interface {
	SessionUpdate(ctx context.Context, n SessionNotification) *RequestError
	RequestPermission(ctx context.Context, req RequestPermissionRequest) (RequestPermissionResponse, *RequestError)
	ReadTextFile(ctx context.Context, req ReadTextFileRequest) (ReadTextFileResponse, *RequestError)
	WriteTextFile(ctx context.Context, req WriteTextFileRequest) (WriteTextFileResponse, *RequestError)
	CreateTerminal(ctx context.Context, req CreateTerminalRequest) (CreateTerminalResponse, *RequestError)
	TerminalOutput(ctx context.Context, req TerminalOutputRequest) (TerminalOutputResponse, *RequestError)
	WaitForTerminalExit(ctx context.Context, req WaitForTerminalExitRequest) (WaitForTerminalExitResponse, *RequestError)
	KillTerminalCommand(ctx context.Context, req KillTerminalCommandRequest) (KillTerminalCommandResponse, *RequestError)
	ReleaseTerminal(ctx context.Context, req ReleaseTerminalRequest) (ReleaseTerminalResponse, *RequestError)
}

// ExtClient is optionally implemented by a Client to serve extension
// methods and notifications (spec §7.4).
type ExtClient interface {
	ExtMethod(ctx context.Context, method string, params json.RawMessage) (any, *RequestError)
	ExtNotification(ctx context.Context, method string, params json.RawMessage) *RequestError
}

func clientMethodTable() *methodTable[Client] {
	return newMethodTable(
		routeEntry[Client]{method: "session/update", notification: true, invoke: func(ctx context.Context, c Client, params json.RawMessage) (any, *RequestError) {
			req, rerr := decodeParams[SessionNotification](params)
			if rerr != nil {
				return nil, rerr
			}
			return nil, c.SessionUpdate(ctx, req)
		}},
		routeEntry[Client]{method: "session/request_permission", invoke: func(ctx context.Context, c Client, params json.RawMessage) (any, *RequestError) {
			req, rerr := decodeParams[RequestPermissionRequest](params)
			if rerr != nil {
				return nil, rerr
			}
			return c.RequestPermission(ctx, req)
		}},
		routeEntry[Client]{method: "fs/read_text_file", invoke: func(ctx context.Context, c Client, params json.RawMessage) (any, *RequestError) {
			req, rerr := decodeParams[ReadTextFileRequest](params)
			if rerr != nil {
				return nil, rerr
			}
			return c.ReadTextFile(ctx, req)
		}},
		routeEntry[Client]{method: "fs/write_text_file", invoke: func(ctx context.Context, c Client, params json.RawMessage) (any, *RequestError) {
			req, rerr := decodeParams[WriteTextFileRequest](params)
			if rerr != nil {
				return nil, rerr
			}
			return c.WriteTextFile(ctx, req)
		}},
		routeEntry[Client]{method: "terminal/create", invoke: func(ctx context.Context, c Client, params json.RawMessage) (any, *RequestError) {
			req, rerr := decodeParams[CreateTerminalRequest](params)
			if rerr != nil {
				return nil, rerr
			}
			return c.CreateTerminal(ctx, req)
		}},
		routeEntry[Client]{method: "terminal/output", invoke: func(ctx context.Context, c Client, params json.RawMessage) (any, *RequestError) {
			req, rerr := decodeParams[TerminalOutputRequest](params)
			if rerr != nil {
				return nil, rerr
			}
			return c.TerminalOutput(ctx, req)
		}},
		routeEntry[Client]{method: "terminal/wait_for_exit", invoke: func(ctx context.Context, c Client, params json.RawMessage) (any, *RequestError) {
			req, rerr := decodeParams[WaitForTerminalExitRequest](params)
			if rerr != nil {
				return nil, rerr
			}
			return c.WaitForTerminalExit(ctx, req)
		}},
		routeEntry[Client]{method: "terminal/kill", invoke: func(ctx context.Context, c Client, params json.RawMessage) (any, *RequestError) {
			req, rerr := decodeParams[KillTerminalCommandRequest](params)
			if rerr != nil {
				return nil, rerr
			}
			return c.KillTerminalCommand(ctx, req)
		}},
		routeEntry[Client]{method: "terminal/release", invoke: func(ctx context.Context, c Client, params json.RawMessage) (any, *RequestError) {
			req, rerr := decodeParams[ReleaseTerminalRequest](params)
			if rerr != nil {
				return nil, rerr
			}
			return c.ReleaseTerminal(ctx, req)
		}},
	)
}

// ClientSideConnection is held by a client process. It issues outbound
// client-to-agent calls (Initialize, NewSession, Prompt, ...) and
// serves inbound agent-to-client calls against a user-supplied Client
// implementation (spec §4.4).
//
// The outbound surface here (Initialize/NewSession/LoadSession/Prompt/
// Cancel) mirrors how a real ACP client drives an agent through a full
// session lifecycle.
type ClientSideConnection struct {
	conn   *connection
	client Client
	log    *logger.Logger
}

// NewClientSideConnection constructs a ClientSideConnection. client is
// invoked for every inbound agent-to-client call; w/r form the duplex
// stream, typically the stdin/stdout pipes of a spawned agent
// subprocess (spec §4.6).
func NewClientSideConnection(ctx context.Context, client Client, w io.Writer, r io.Reader, opts ...ConnectionOption) *ClientSideConnection {
	cfg := newConnConfig(opts)
	csc := &ClientSideConnection{client: client, log: cfg.log}
	table := clientMethodTable()
	csc.conn = newConnection(ctx, w, r, cfg.maxFrameBytes, func(ctx context.Context, method string, params json.RawMessage, isNotification bool) (any, *RequestError) {
		var ext ExtClient
		if e, ok := client.(ExtClient); ok {
			ext = e
		}
		var onExt func(context.Context, Client, string, json.RawMessage) (any, *RequestError)
		var onExtNotify func(context.Context, Client, string, json.RawMessage) *RequestError
		if ext != nil {
			onExt = func(ctx context.Context, _ Client, m string, p json.RawMessage) (any, *RequestError) {
				return ext.ExtMethod(ctx, m, p)
			}
			onExtNotify = func(ctx context.Context, _ Client, m string, p json.RawMessage) *RequestError {
				return ext.ExtNotification(ctx, m, p)
			}
		}
		return table.dispatch(ctx, client, method, params, isNotification, onExt, onExtNotify)
	}, cfg.log)
	return csc
}

// Close shuts down the underlying connection.
func (c *ClientSideConnection) Close() error { return c.conn.Close() }

// Initialize negotiates protocol version and capabilities (spec §8-S1).
func (c *ClientSideConnection) Initialize(ctx context.Context, req InitializeRequest) (InitializeResponse, *RequestError) {
	raw, rerr := c.conn.sendRequest(ctx, "initialize", req)
	if rerr != nil {
		return InitializeResponse{}, rerr
	}
	var resp InitializeResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return InitializeResponse{}, internalError(err)
	}
	return resp, nil
}

// Authenticate completes an auth method the agent advertised.
func (c *ClientSideConnection) Authenticate(ctx context.Context, req AuthenticateRequest) *RequestError {
	_, rerr := c.conn.sendRequest(ctx, "authenticate", req)
	return rerr
}

// NewSession starts a session (spec §8-S1).
func (c *ClientSideConnection) NewSession(ctx context.Context, req NewSessionRequest) (NewSessionResponse, *RequestError) {
	raw, rerr := c.conn.sendRequest(ctx, "session/new", req)
	if rerr != nil {
		return NewSessionResponse{}, rerr
	}
	var resp NewSessionResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return NewSessionResponse{}, internalError(err)
	}
	c.log.WithSessionID(string(resp.SessionId)).Debug("session started", zap.String("cwd", req.Cwd))
	return resp, nil
}

// LoadSession resumes a previously created session.
func (c *ClientSideConnection) LoadSession(ctx context.Context, req LoadSessionRequest) (LoadSessionResponse, *RequestError) {
	raw, rerr := c.conn.sendRequest(ctx, "session/load", req)
	if rerr != nil {
		return LoadSessionResponse{}, rerr
	}
	var resp LoadSessionResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return LoadSessionResponse{}, internalError(err)
	}
	return resp, nil
}

// SetSessionMode switches a session's active mode.
func (c *ClientSideConnection) SetSessionMode(ctx context.Context, req SetSessionModeRequest) *RequestError {
	_, rerr := c.conn.sendRequest(ctx, "session/set_mode", req)
	return rerr
}

// SetSessionModel switches a session's active model.
func (c *ClientSideConnection) SetSessionModel(ctx context.Context, req SetSessionModelRequest) *RequestError {
	_, rerr := c.conn.sendRequest(ctx, "session/set_model", req)
	return rerr
}

// Prompt sends a prompt turn and blocks until the agent reports why it
// stopped (spec §8-S2). Incremental content arrives via SessionUpdate
// calls on the Client implementation while this call is in flight.
func (c *ClientSideConnection) Prompt(ctx context.Context, req PromptRequest) (PromptResponse, *RequestError) {
	c.log.WithSessionID(string(req.SessionId)).Debug("sending prompt")
	raw, rerr := c.conn.sendRequest(ctx, "session/prompt", req)
	if rerr != nil {
		return PromptResponse{}, rerr
	}
	var resp PromptResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return PromptResponse{}, internalError(err)
	}
	return resp, nil
}

// Cancel notifies the agent to stop the current turn for a session
// (spec §8-S3). It is a notification: no response is awaited.
func (c *ClientSideConnection) Cancel(ctx context.Context, notif CancelNotification) error {
	return c.conn.sendNotification("session/cancel", notif)
}
