package acp

import (
	"encoding/json"
	"fmt"
)

// ToolCallStatus is the terminal-or-not status of a tool call (spec §3
// "Tool call"). pending and in_progress are non-terminal; completed,
// failed, and cancelled are terminal.
type ToolCallStatus string

const (
	ToolCallStatusPending    ToolCallStatus = "pending"
	ToolCallStatusInProgress ToolCallStatus = "in_progress"
	ToolCallStatusCompleted  ToolCallStatus = "completed"
	ToolCallStatusFailed     ToolCallStatus = "failed"
	ToolCallStatusCancelled  ToolCallStatus = "cancelled"
)

// Terminal reports whether the status ends a tool call's lifecycle.
func (s ToolCallStatus) Terminal() bool {
	switch s {
	case ToolCallStatusCompleted, ToolCallStatusFailed, ToolCallStatusCancelled:
		return true
	default:
		return false
	}
}

// ToolCallKind classifies what kind of operation a tool call performs,
// for client-side rendering; it has no effect on routing.
type ToolCallKind string

const (
	ToolCallKindRead    ToolCallKind = "read"
	ToolCallKindEdit    ToolCallKind = "edit"
	ToolCallKindDelete  ToolCallKind = "delete"
	ToolCallKindMove    ToolCallKind = "move"
	ToolCallKindSearch  ToolCallKind = "search"
	ToolCallKindExecute ToolCallKind = "execute"
	ToolCallKindThink   ToolCallKind = "think"
	ToolCallKindFetch   ToolCallKind = "fetch"
	ToolCallKindOther   ToolCallKind = "other"
)

// ToolCallLocation points a tool call at a place in a file, so clients
// can offer "jump to" affordances.
type ToolCallLocation struct {
	Path string `json:"path" validate:"required"`
	Line *int   `json:"line,omitempty"`
}

// ToolCallContent is the content produced or referenced by a tool
// call: either inline content blocks or a diff.
type ToolCallContent struct {
	Content *ContentBlock `json:"content,omitempty"`
	Diff    *ToolCallDiff `json:"diff,omitempty"`
}

// ToolCallDiff describes a proposed or applied file edit.
type ToolCallDiff struct {
	Path    string  `json:"path" validate:"required"`
	OldText *string `json:"oldText,omitempty"`
	NewText string  `json:"newText"`
}

// ToolCall is the full descriptor a tool_call session update carries
// (spec §3 "Tool call").
type ToolCall struct {
	ToolCallId ToolCallId         `json:"toolCallId" validate:"required"`
	Title      *string            `json:"title,omitempty"`
	Kind       *ToolCallKind      `json:"kind,omitempty"`
	Status     ToolCallStatus     `json:"status" validate:"required,oneof=pending in_progress completed failed cancelled"`
	Content    []ToolCallContent  `json:"content,omitempty"`
	Locations  []ToolCallLocation `json:"locations,omitempty"`
	RawInput   json.RawMessage    `json:"rawInput,omitempty"`
	RawOutput  json.RawMessage    `json:"rawOutput,omitempty"`
}

// ToolCallUpdate carries a partial update to an existing tool call; any
// subset of fields may change (spec §3). Only ToolCallId is required.
type ToolCallUpdate struct {
	ToolCallId ToolCallId         `json:"toolCallId" validate:"required"`
	Title      *string            `json:"title,omitempty"`
	Kind       *ToolCallKind      `json:"kind,omitempty"`
	Status     *ToolCallStatus    `json:"status,omitempty"`
	Content    []ToolCallContent  `json:"content,omitempty"`
	Locations  []ToolCallLocation `json:"locations,omitempty"`
	RawInput   json.RawMessage    `json:"rawInput,omitempty"`
	RawOutput  json.RawMessage    `json:"rawOutput,omitempty"`
}

// PlanEntryStatus is the lifecycle state of one plan entry.
type PlanEntryStatus string

const (
	PlanEntryPending    PlanEntryStatus = "pending"
	PlanEntryInProgress PlanEntryStatus = "in_progress"
	PlanEntryCompleted  PlanEntryStatus = "completed"
)

// PlanEntryPriority ranks how important a plan entry is.
type PlanEntryPriority string

const (
	PlanEntryPriorityHigh   PlanEntryPriority = "high"
	PlanEntryPriorityMedium PlanEntryPriority = "medium"
	PlanEntryPriorityLow    PlanEntryPriority = "low"
)

// PlanEntry is one step of an agent's plan for the current turn.
type PlanEntry struct {
	Content  string            `json:"content" validate:"required"`
	Priority PlanEntryPriority `json:"priority,omitempty"`
	Status   PlanEntryStatus   `json:"status" validate:"required,oneof=pending in_progress completed"`
}

// AvailableCommand describes a slash-command style action the agent
// currently supports, surfaced to the user via available_commands_update.
type AvailableCommand struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description,omitempty"`
}

// SessionUpdate is a tagged union whose discriminator is
// "sessionUpdate" (spec §3 "Session update"). Exactly one field below
// is populated, matching the discriminator.
type SessionUpdate struct {
	Kind string `json:"-"`

	UserMessageChunk        *MessageChunkUpdate        `json:"-"`
	AgentMessageChunk       *MessageChunkUpdate        `json:"-"`
	AgentThoughtChunk       *MessageChunkUpdate        `json:"-"`
	ToolCallUpdateVariant   *ToolCall                  `json:"-"`
	ToolCallUpdatePatch     *ToolCallUpdate             `json:"-"`
	Plan                    *PlanUpdate                 `json:"-"`
	AvailableCommandsUpdate *AvailableCommandsUpdate    `json:"-"`
	CurrentModeUpdate       *CurrentModeUpdate          `json:"-"`
}

// MessageChunkUpdate carries one incremental chunk of a user message,
// agent message, or agent "thinking" stream.
type MessageChunkUpdate struct {
	Content ContentBlock `json:"content"`
}

// PlanUpdate carries the agent's current full plan.
type PlanUpdate struct {
	Entries []PlanEntry `json:"entries"`
}

// AvailableCommandsUpdate carries the agent's current command list.
type AvailableCommandsUpdate struct {
	AvailableCommands []AvailableCommand `json:"availableCommands"`
}

// CurrentModeUpdate announces the session's active mode (e.g. "ask"
// vs "code") changed, by id.
type CurrentModeUpdate struct {
	CurrentModeId string `json:"currentModeId" validate:"required"`
}

const (
	sessionUpdateUserMessageChunk        = "user_message_chunk"
	sessionUpdateAgentMessageChunk       = "agent_message_chunk"
	sessionUpdateAgentThoughtChunk       = "agent_thought_chunk"
	sessionUpdateToolCall                = "tool_call"
	sessionUpdateToolCallUpdate          = "tool_call_update"
	sessionUpdatePlan                    = "plan"
	sessionUpdateAvailableCommandsUpdate = "available_commands_update"
	sessionUpdateCurrentModeUpdate       = "current_mode_update"
)

func (u SessionUpdate) MarshalJSON() ([]byte, error) {
	type withKind struct {
		SessionUpdate string `json:"sessionUpdate"`
	}
	merge := func(kind string, payload any) ([]byte, error) {
		head, err := json.Marshal(withKind{kind})
		if err != nil {
			return nil, err
		}
		body, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		return mergeJSONObjects(head, body)
	}
	switch u.Kind {
	case sessionUpdateUserMessageChunk:
		return merge(u.Kind, u.UserMessageChunk)
	case sessionUpdateAgentMessageChunk:
		return merge(u.Kind, u.AgentMessageChunk)
	case sessionUpdateAgentThoughtChunk:
		return merge(u.Kind, u.AgentThoughtChunk)
	case sessionUpdateToolCall:
		return merge(u.Kind, u.ToolCallUpdateVariant)
	case sessionUpdateToolCallUpdate:
		return merge(u.Kind, u.ToolCallUpdatePatch)
	case sessionUpdatePlan:
		return merge(u.Kind, u.Plan)
	case sessionUpdateAvailableCommandsUpdate:
		return merge(u.Kind, u.AvailableCommandsUpdate)
	case sessionUpdateCurrentModeUpdate:
		return merge(u.Kind, u.CurrentModeUpdate)
	default:
		return nil, fmt.Errorf("acp: unknown session update kind %q", u.Kind)
	}
}

func (u *SessionUpdate) UnmarshalJSON(data []byte) error {
	var disc struct {
		SessionUpdate string `json:"sessionUpdate"`
	}
	if err := json.Unmarshal(data, &disc); err != nil {
		return err
	}
	u.Kind = disc.SessionUpdate
	switch disc.SessionUpdate {
	case sessionUpdateUserMessageChunk:
		var v MessageChunkUpdate
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		u.UserMessageChunk = &v
	case sessionUpdateAgentMessageChunk:
		var v MessageChunkUpdate
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		u.AgentMessageChunk = &v
	case sessionUpdateAgentThoughtChunk:
		var v MessageChunkUpdate
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		u.AgentThoughtChunk = &v
	case sessionUpdateToolCall:
		var v ToolCall
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		u.ToolCallUpdateVariant = &v
	case sessionUpdateToolCallUpdate:
		var v ToolCallUpdate
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		u.ToolCallUpdatePatch = &v
	case sessionUpdatePlan:
		var v PlanUpdate
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		u.Plan = &v
	case sessionUpdateAvailableCommandsUpdate:
		var v AvailableCommandsUpdate
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		u.AvailableCommandsUpdate = &v
	case sessionUpdateCurrentModeUpdate:
		var v CurrentModeUpdate
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		u.CurrentModeUpdate = &v
	default:
		return fmt.Errorf("acp: unknown session update discriminator %q", disc.SessionUpdate)
	}
	return nil
}

// SessionNotification is the params payload of the session/update
// notification: a sessionId plus one SessionUpdate (spec §6).
type SessionNotification struct {
	SessionId SessionId     `json:"sessionId" validate:"required"`
	Update    SessionUpdate `json:"update"`
}

// mergeJSONObjects shallow-merges two encoded JSON objects, with b's
// keys taking precedence on conflict. Used to flatten a discriminator
// field alongside a variant's own fields on the wire.
func mergeJSONObjects(a, b []byte) ([]byte, error) {
	var am, bm map[string]json.RawMessage
	if err := json.Unmarshal(a, &am); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(b, &bm); err != nil {
		return nil, err
	}
	for k, v := range bm {
		am[k] = v
	}
	return json.Marshal(am)
}
