// Package acp implements the core of an Agent-Client Protocol runtime:
// a bidirectional JSON-RPC 2.0 messaging engine that couples an agent
// (which plans and streams work) with a client (which owns the user,
// filesystem, and terminal) over a duplex byte stream.
//
// Both peers hold exactly one Connection. A process acting as the
// client constructs a ClientSideConnection, which issues the
// client-to-agent calls (Initialize, NewSession, Prompt, ...) and
// serves the agent's callbacks (SessionUpdate, RequestPermission, file
// and terminal operations) against a user-supplied Client
// implementation. A process acting as the agent does the mirror image
// with an AgentSideConnection and an Agent implementation.
package acp
