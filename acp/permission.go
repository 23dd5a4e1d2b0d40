package acp

import (
	"encoding/json"
	"fmt"
)

// PermissionOptionKind tags what kind of decision a PermissionOption
// represents (spec §3 "Permission request").
type PermissionOptionKind string

const (
	PermissionOptionKindAllowOnce    PermissionOptionKind = "allow_once"
	PermissionOptionKindAllowAlways  PermissionOptionKind = "allow_always"
	PermissionOptionKindRejectOnce   PermissionOptionKind = "reject_once"
	PermissionOptionKindRejectAlways PermissionOptionKind = "reject_always"
)

// PermissionOption is one choice offered to the user in a permission
// request.
type PermissionOption struct {
	OptionId PermissionOptionId   `json:"optionId" validate:"required"`
	Name     string               `json:"name" validate:"required"`
	Kind     PermissionOptionKind `json:"kind" validate:"required,oneof=allow_once allow_always reject_once reject_always"`
}

// RequestPermissionRequest is the params of the agent-to-client
// session/request_permission request.
type RequestPermissionRequest struct {
	SessionId SessionId          `json:"sessionId" validate:"required"`
	ToolCall  ToolCallUpdate     `json:"toolCall"`
	Options   []PermissionOption `json:"options" validate:"required,dive"`
}

// RequestPermissionOutcomeSelected is the outcome arm chosen when the
// user picked one of the offered options.
type RequestPermissionOutcomeSelected struct {
	OptionId PermissionOptionId `json:"optionId" validate:"required"`
}

// RequestPermissionOutcomeCancelled is the outcome arm chosen when the
// request was cancelled (e.g. the owning turn ended) without a
// selection.
type RequestPermissionOutcomeCancelled struct{}

// RequestPermissionOutcome is a tagged union discriminated by
// "outcome": either "selected" (with an optionId) or "cancelled" (spec
// §3).
type RequestPermissionOutcome struct {
	Selected  *RequestPermissionOutcomeSelected  `json:"-"`
	Cancelled *RequestPermissionOutcomeCancelled `json:"-"`
}

// RequestPermissionResponse is the full result of a
// session/request_permission request.
type RequestPermissionResponse struct {
	Outcome RequestPermissionOutcome `json:"outcome"`
}

func (o RequestPermissionOutcome) MarshalJSON() ([]byte, error) {
	switch {
	case o.Selected != nil:
		return json.Marshal(struct {
			Outcome  string             `json:"outcome"`
			OptionId PermissionOptionId `json:"optionId"`
		}{"selected", o.Selected.OptionId})
	case o.Cancelled != nil:
		return json.Marshal(struct {
			Outcome string `json:"outcome"`
		}{"cancelled"})
	default:
		return nil, fmt.Errorf("acp: empty RequestPermissionOutcome")
	}
}

func (o *RequestPermissionOutcome) UnmarshalJSON(data []byte) error {
	var disc struct {
		Outcome  string             `json:"outcome"`
		OptionId PermissionOptionId `json:"optionId"`
	}
	if err := json.Unmarshal(data, &disc); err != nil {
		return err
	}
	switch disc.Outcome {
	case "selected":
		o.Selected = &RequestPermissionOutcomeSelected{OptionId: disc.OptionId}
	case "cancelled":
		o.Cancelled = &RequestPermissionOutcomeCancelled{}
	default:
		return fmt.Errorf("acp: unknown permission outcome %q", disc.Outcome)
	}
	return nil
}
