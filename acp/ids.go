package acp

import "github.com/google/uuid"

// SessionId is an opaque correlation token minted by the agent in
// response to session/new (or echoed back by session/load). The core
// never interprets it beyond equality.
type SessionId string

// ToolCallId identifies a tool call within the namespace of a single
// session (spec invariant 5).
type ToolCallId string

// TerminalId identifies a terminal within the namespace of a single
// session.
type TerminalId string

// PermissionOptionId identifies one of the options offered in a
// RequestPermissionRequest.
type PermissionOptionId string

// NewSessionID mints a new opaque session identifier. Agents are free
// to use any string; this is a convenience for agent implementations
// that don't already have a natural identifier source.
func NewSessionID() SessionId {
	return SessionId(uuid.NewString())
}

// NewToolCallID mints a new opaque tool-call identifier, unique within
// the session namespace it will be used in.
func NewToolCallID() ToolCallId {
	return ToolCallId(uuid.NewString())
}
