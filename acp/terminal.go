package acp

import (
	"context"
	"encoding/json"
)

// TerminalHandle binds a {sessionId, terminalId} pair to the terminal
// operations a caller can perform on it, per spec §4.5 "Terminal
// handle": a thin forwarding wrapper, no PTY implementation.
type TerminalHandle struct {
	sessionID  SessionId
	terminalID TerminalId
	conn       *connection
}

// ID returns the terminal's opaque identifier.
func (t *TerminalHandle) ID() TerminalId { return t.terminalID }

// Output fetches the terminal's buffered output so far, plus its exit
// status if the command has already concluded.
func (t *TerminalHandle) Output(ctx context.Context) (TerminalOutputResponse, *RequestError) {
	raw, rerr := t.conn.sendRequest(ctx, "terminal/output", TerminalOutputRequest{
		SessionId: t.sessionID, TerminalId: t.terminalID,
	})
	if rerr != nil {
		return TerminalOutputResponse{}, rerr
	}
	var resp TerminalOutputResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return TerminalOutputResponse{}, internalError(err)
	}
	return resp, nil
}

// WaitForExit blocks until the terminal's command concludes.
func (t *TerminalHandle) WaitForExit(ctx context.Context) (WaitForTerminalExitResponse, *RequestError) {
	raw, rerr := t.conn.sendRequest(ctx, "terminal/wait_for_exit", WaitForTerminalExitRequest{
		SessionId: t.sessionID, TerminalId: t.terminalID,
	})
	if rerr != nil {
		return WaitForTerminalExitResponse{}, rerr
	}
	var resp WaitForTerminalExitResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return WaitForTerminalExitResponse{}, internalError(err)
	}
	return resp, nil
}

// Kill signals the terminal's command without releasing the handle;
// Output and WaitForExit remain valid afterward.
func (t *TerminalHandle) Kill(ctx context.Context) *RequestError {
	_, rerr := t.conn.sendRequest(ctx, "terminal/kill", KillTerminalCommandRequest{
		SessionId: t.sessionID, TerminalId: t.terminalID,
	})
	return rerr
}

// Release frees the client's resources for this terminal. The handle
// must not be used afterward.
func (t *TerminalHandle) Release(ctx context.Context) *RequestError {
	_, rerr := t.conn.sendRequest(ctx, "terminal/release", ReleaseTerminalRequest{
		SessionId: t.sessionID, TerminalId: t.terminalID,
	})
	return rerr
}
