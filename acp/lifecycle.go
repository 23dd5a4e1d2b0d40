package acp

// ProtocolVersionNumber is the protocol version this core implements
// and pins (spec §6 "Protocol version"). Peers SHOULD echo the lower
// of their supported versions; the core itself never rejects on a
// version mismatch.
const ProtocolVersionNumber = 1

// Implementation identifies one peer (either ClientInfo on
// InitializeRequest or AgentInfo on InitializeResponse).
type Implementation struct {
	Name    string `json:"name" validate:"required"`
	Version string `json:"version" validate:"required"`
}

// ClientCapabilities describes what the client supports.
type ClientCapabilities struct {
	FS       *FileSystemCapability `json:"fs,omitempty"`
	Terminal bool                  `json:"terminal,omitempty"`
}

// FileSystemCapability narrows which file operations a client exposes.
type FileSystemCapability struct {
	ReadTextFile  bool `json:"readTextFile,omitempty"`
	WriteTextFile bool `json:"writeTextFile,omitempty"`
}

// AgentCapabilities describes what the agent supports, returned from
// initialize.
type AgentCapabilities struct {
	LoadSession        bool `json:"loadSession,omitempty"`
	SetSessionMode     bool `json:"setSessionMode,omitempty"`
	SetSessionModel    bool `json:"setSessionModel,omitempty"`
	PromptCapabilities *PromptCapabilities `json:"promptCapabilities,omitempty"`
}

// PromptCapabilities describes which content block types the agent
// accepts in a prompt.
type PromptCapabilities struct {
	Image        bool `json:"image,omitempty"`
	Audio        bool `json:"audio,omitempty"`
	EmbeddedContext bool `json:"embeddedContext,omitempty"`
}

// InitializeRequest is the params of the initialize method (spec §4.3,
// §8-S1).
type InitializeRequest struct {
	ProtocolVersion int                 `json:"protocolVersion" validate:"required"`
	ClientInfo      *Implementation     `json:"clientInfo,omitempty"`
	Capabilities    *ClientCapabilities `json:"capabilities,omitempty"`
}

// InitializeResponse is the result of the initialize method.
type InitializeResponse struct {
	ProtocolVersion   int                `json:"protocolVersion"`
	AgentInfo         *Implementation    `json:"agentInfo,omitempty"`
	AgentCapabilities AgentCapabilities  `json:"agentCapabilities"`
	AuthMethods       []AuthMethod       `json:"authMethods"`
}

// AuthMethod describes one way a client may authenticate with the
// agent before a session can be created.
type AuthMethod struct {
	Id          string `json:"id" validate:"required"`
	Name        string `json:"name" validate:"required"`
	Description string `json:"description,omitempty"`
}

// AuthenticateRequest is the params of the optional authenticate
// method.
type AuthenticateRequest struct {
	MethodId string `json:"methodId" validate:"required"`
}

// AuthenticateResponse is the (empty) result of authenticate.
type AuthenticateResponse struct{}

// NewSessionRequest is the params of session/new (spec §8-S1).
// McpServers is intentionally a required, possibly-empty slice — an
// absent key is invalid, an empty array is not (SPEC_FULL §C.2).
type NewSessionRequest struct {
	Cwd        string      `json:"cwd" validate:"required"`
	McpServers []McpServer `json:"mcpServers" validate:"required"`
}

// NewSessionResponse is the result of session/new.
type NewSessionResponse struct {
	SessionId SessionId `json:"sessionId" validate:"required"`
	Modes     *SessionModeState `json:"modes,omitempty"`
	Models    *SessionModelState `json:"models,omitempty"`
}

// SessionModeState describes the modes available for a session and
// which one is currently active.
type SessionModeState struct {
	CurrentModeId string       `json:"currentModeId"`
	AvailableModes []SessionMode `json:"availableModes"`
}

// SessionMode is one selectable mode (e.g. "ask", "code").
type SessionMode struct {
	Id          string `json:"id" validate:"required"`
	Name        string `json:"name" validate:"required"`
	Description string `json:"description,omitempty"`
}

// SessionModelState describes the models available for a session and
// which one is currently active.
type SessionModelState struct {
	CurrentModelId string         `json:"currentModelId"`
	AvailableModels []SessionModel `json:"availableModels"`
}

// SessionModel is one selectable underlying model.
type SessionModel struct {
	Id   string `json:"id" validate:"required"`
	Name string `json:"name" validate:"required"`
}

// LoadSessionRequest is the params of the optional session/load
// method.
type LoadSessionRequest struct {
	SessionId  SessionId   `json:"sessionId" validate:"required"`
	Cwd        string      `json:"cwd,omitempty"`
	McpServers []McpServer `json:"mcpServers,omitempty"`
}

// LoadSessionResponse is the result of session/load.
type LoadSessionResponse struct {
	Modes  *SessionModeState  `json:"modes,omitempty"`
	Models *SessionModelState `json:"models,omitempty"`
}

// SetSessionModeRequest is the params of the optional
// session/set_mode method.
type SetSessionModeRequest struct {
	SessionId SessionId `json:"sessionId" validate:"required"`
	ModeId    string    `json:"modeId" validate:"required"`
}

// SetSessionModeResponse is the (empty) result of session/set_mode.
type SetSessionModeResponse struct{}

// SetSessionModelRequest is the params of the optional
// session/set_model method.
type SetSessionModelRequest struct {
	SessionId SessionId `json:"sessionId" validate:"required"`
	ModelId   string    `json:"modelId" validate:"required"`
}

// SetSessionModelResponse is the (empty) result of session/set_model.
type SetSessionModelResponse struct{}

// StopReason is the terminal reason a prompt turn concluded (spec §3
// "Prompt turn").
type StopReason string

const (
	StopReasonEndTurn       StopReason = "end_turn"
	StopReasonMaxTokens     StopReason = "max_tokens"
	StopReasonMaxTurnRequests StopReason = "max_turn_requests"
	StopReasonRefusal       StopReason = "refusal"
	StopReasonCancelled     StopReason = "cancelled"
)

// PromptRequest is the params of session/prompt (spec §8-S2).
type PromptRequest struct {
	SessionId SessionId      `json:"sessionId" validate:"required"`
	Prompt    []ContentBlock `json:"prompt" validate:"required,dive"`
}

// PromptResponse is the result of session/prompt: just the reason the
// turn ended, since all the actual content travelled as session/update
// notifications during the turn (spec §3 "Prompt turn").
type PromptResponse struct {
	StopReason StopReason `json:"stopReason" validate:"required"`
}

// CancelNotification is the params of the session/cancel notification
// (spec §8-S3).
type CancelNotification struct {
	SessionId SessionId `json:"sessionId" validate:"required"`
}
