package acp

import (
	"context"
	"encoding/json"
	"io"

	"github.com/agentprotocol/acpgo/internal/common/logger"
	"go.uber.org/zap"
)

// Agent is implemented by an agent process: the set of methods a
// client may invoke on it (spec §4.3 "Agent-side method table"). Cancel
// is a notification — its return value is never observed by the
// caller, but handlers still report errors for logging.
type Agent interface {
	Initialize(ctx context.Context, req InitializeRequest) (InitializeResponse, *RequestError)
	Authenticate(ctx context.Context, req AuthenticateRequest) (AuthenticateResponse, *RequestError)
	NewSession(ctx context.Context, req NewSessionRequest) (NewSessionResponse, *RequestError)
	LoadSession(ctx context.Context, req LoadSessionRequest) (LoadSessionResponse, *RequestError)
	SetSessionMode(ctx context.Context, req SetSessionModeRequest) (SetSessionModeResponse, *RequestError)
	SetSessionModel(ctx context.Context, req SetSessionModelRequest) (SetSessionModelResponse, *RequestError)
	Prompt(ctx context.Context, req PromptRequest) (PromptResponse, *RequestError)
	Cancel(ctx context.Context, notif CancelNotification) *RequestError
}

// ExtAgent is optionally implemented by an Agent to serve extension
// methods and notifications (spec §7.4), wire methods prefixed with
// "_". Stripped of the prefix before reaching these hooks.
type ExtAgent interface {
	ExtMethod(ctx context.Context, method string, params json.RawMessage) (any, *RequestError)
	ExtNotification(ctx context.Context, method string, params json.RawMessage) *RequestError
}

func agentMethodTable() *methodTable[Agent] {
	return newMethodTable(
		routeEntry[Agent]{method: "initialize", invoke: func(ctx context.Context, a Agent, params json.RawMessage) (any, *RequestError) {
			req, rerr := decodeParams[InitializeRequest](params)
			if rerr != nil {
				return nil, rerr
			}
			return a.Initialize(ctx, req)
		}},
		routeEntry[Agent]{method: "authenticate", invoke: func(ctx context.Context, a Agent, params json.RawMessage) (any, *RequestError) {
			req, rerr := decodeParams[AuthenticateRequest](params)
			if rerr != nil {
				return nil, rerr
			}
			return a.Authenticate(ctx, req)
		}},
		routeEntry[Agent]{method: "session/new", invoke: func(ctx context.Context, a Agent, params json.RawMessage) (any, *RequestError) {
			req, rerr := decodeParams[NewSessionRequest](params)
			if rerr != nil {
				return nil, rerr
			}
			return a.NewSession(ctx, req)
		}},
		routeEntry[Agent]{method: "session/load", invoke: func(ctx context.Context, a Agent, params json.RawMessage) (any, *RequestError) {
			req, rerr := decodeParams[LoadSessionRequest](params)
			if rerr != nil {
				return nil, rerr
			}
			return a.LoadSession(ctx, req)
		}},
		routeEntry[Agent]{method: "session/set_mode", invoke: func(ctx context.Context, a Agent, params json.RawMessage) (any, *RequestError) {
			req, rerr := decodeParams[SetSessionModeRequest](params)
			if rerr != nil {
				return nil, rerr
			}
			return a.SetSessionMode(ctx, req)
		}},
		routeEntry[Agent]{method: "session/set_model", invoke: func(ctx context.Context, a Agent, params json.RawMessage) (any, *RequestError) {
			req, rerr := decodeParams[SetSessionModelRequest](params)
			if rerr != nil {
				return nil, rerr
			}
			return a.SetSessionModel(ctx, req)
		}},
		routeEntry[Agent]{method: "session/prompt", invoke: func(ctx context.Context, a Agent, params json.RawMessage) (any, *RequestError) {
			req, rerr := decodeParams[PromptRequest](params)
			if rerr != nil {
				return nil, rerr
			}
			return a.Prompt(ctx, req)
		}},
		routeEntry[Agent]{method: "session/cancel", notification: true, invoke: func(ctx context.Context, a Agent, params json.RawMessage) (any, *RequestError) {
			req, rerr := decodeParams[CancelNotification](params)
			if rerr != nil {
				return nil, rerr
			}
			return nil, a.Cancel(ctx, req)
		}},
	)
}

// AgentSideConnection is held by an agent process. It serves inbound
// calls from the client against a user-supplied Agent implementation,
// and exposes outbound agent-to-client calls (session updates,
// permission requests, file and terminal operations) per spec §4.3/§4.4.
//
// The method names and shapes here mirror a real ACP client's usage of
// session update / permission / fs / terminal calls, reimplemented as
// the serving side.
type AgentSideConnection struct {
	conn  *connection
	agent Agent
	log   *logger.Logger
}

// NewAgentSideConnection constructs an AgentSideConnection. agent is
// invoked for every inbound client-to-agent call; w/r form the duplex
// stream (typically the agent process's own stdout/stdin when spawned
// by a client, or vice versa — spec §4.6).
func NewAgentSideConnection(ctx context.Context, agent Agent, w io.Writer, r io.Reader, opts ...ConnectionOption) *AgentSideConnection {
	cfg := newConnConfig(opts)
	asc := &AgentSideConnection{agent: agent, log: cfg.log}
	table := agentMethodTable()
	asc.conn = newConnection(ctx, w, r, cfg.maxFrameBytes, func(ctx context.Context, method string, params json.RawMessage, isNotification bool) (any, *RequestError) {
		var ext ExtAgent
		if e, ok := agent.(ExtAgent); ok {
			ext = e
		}
		var onExt func(context.Context, Agent, string, json.RawMessage) (any, *RequestError)
		var onExtNotify func(context.Context, Agent, string, json.RawMessage) *RequestError
		if ext != nil {
			onExt = func(ctx context.Context, _ Agent, m string, p json.RawMessage) (any, *RequestError) {
				return ext.ExtMethod(ctx, m, p)
			}
			onExtNotify = func(ctx context.Context, _ Agent, m string, p json.RawMessage) *RequestError {
				return ext.ExtNotification(ctx, m, p)
			}
		}
		return table.dispatch(ctx, agent, method, params, isNotification, onExt, onExtNotify)
	}, cfg.log)
	return asc
}

// Close shuts down the underlying connection (spec §4.2 "shutdown").
func (a *AgentSideConnection) Close() error { return a.conn.Close() }

// SessionUpdate sends a session/update notification to the client.
func (a *AgentSideConnection) SessionUpdate(ctx context.Context, n SessionNotification) error {
	a.log.WithSessionID(string(n.SessionId)).Debug("sending session update", zap.String("kind", n.Update.Kind))
	return a.conn.sendNotification("session/update", n)
}

// RequestPermission asks the client to authorize a tool call.
func (a *AgentSideConnection) RequestPermission(ctx context.Context, req RequestPermissionRequest) (RequestPermissionResponse, *RequestError) {
	a.log.WithSessionID(string(req.SessionId)).Debug("requesting permission", zap.String("toolCallId", string(req.ToolCall.ToolCallId)))
	raw, rerr := a.conn.sendRequest(ctx, "session/request_permission", req)
	if rerr != nil {
		return RequestPermissionResponse{}, rerr
	}
	var resp RequestPermissionResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return RequestPermissionResponse{}, internalError(err)
	}
	return resp, nil
}

// ReadTextFile asks the client to read a file on the agent's behalf.
func (a *AgentSideConnection) ReadTextFile(ctx context.Context, req ReadTextFileRequest) (ReadTextFileResponse, *RequestError) {
	raw, rerr := a.conn.sendRequest(ctx, "fs/read_text_file", req)
	if rerr != nil {
		return ReadTextFileResponse{}, rerr
	}
	var resp ReadTextFileResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return ReadTextFileResponse{}, internalError(err)
	}
	return resp, nil
}

// WriteTextFile asks the client to write a file on the agent's behalf.
func (a *AgentSideConnection) WriteTextFile(ctx context.Context, req WriteTextFileRequest) *RequestError {
	_, rerr := a.conn.sendRequest(ctx, "fs/write_text_file", req)
	return rerr
}

// CreateTerminal asks the client to spawn a command, returning a
// handle bound to {sessionId, terminalId} for the subsequent terminal
// operations (spec §4.5 "Terminal handle").
func (a *AgentSideConnection) CreateTerminal(ctx context.Context, req CreateTerminalRequest) (*TerminalHandle, *RequestError) {
	raw, rerr := a.conn.sendRequest(ctx, "terminal/create", req)
	if rerr != nil {
		return nil, rerr
	}
	var resp CreateTerminalResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, internalError(err)
	}
	return &TerminalHandle{sessionID: req.SessionId, terminalID: resp.TerminalId, conn: a.conn}, nil
}
