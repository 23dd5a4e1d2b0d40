package acp

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// loopbackAgent is a minimal Agent implementation used to drive the
// connection engine end to end over a real duplex stream (net.Pipe),
// exercising the scenarios in spec §8 without any transport mocking.
type loopbackAgent struct {
	mu       sync.Mutex
	sessions map[SessionId]bool
	asc      *AgentSideConnection
}

func newLoopbackAgent() *loopbackAgent {
	return &loopbackAgent{sessions: make(map[SessionId]bool)}
}

func (a *loopbackAgent) Initialize(ctx context.Context, req InitializeRequest) (InitializeResponse, *RequestError) {
	return InitializeResponse{
		ProtocolVersion:   ProtocolVersionNumber,
		AgentInfo:         &Implementation{Name: "loopback-agent", Version: "test"},
		AgentCapabilities: AgentCapabilities{LoadSession: true},
	}, nil
}

func (a *loopbackAgent) Authenticate(ctx context.Context, req AuthenticateRequest) (AuthenticateResponse, *RequestError) {
	return AuthenticateResponse{}, nil
}

func (a *loopbackAgent) NewSession(ctx context.Context, req NewSessionRequest) (NewSessionResponse, *RequestError) {
	id := NewSessionID()
	a.mu.Lock()
	a.sessions[id] = true
	a.mu.Unlock()
	return NewSessionResponse{SessionId: id}, nil
}

func (a *loopbackAgent) LoadSession(ctx context.Context, req LoadSessionRequest) (LoadSessionResponse, *RequestError) {
	return LoadSessionResponse{}, nil
}

func (a *loopbackAgent) SetSessionMode(ctx context.Context, req SetSessionModeRequest) (SetSessionModeResponse, *RequestError) {
	return SetSessionModeResponse{}, nil
}

func (a *loopbackAgent) SetSessionModel(ctx context.Context, req SetSessionModelRequest) (SetSessionModelResponse, *RequestError) {
	return SetSessionModelResponse{}, nil
}

func (a *loopbackAgent) Prompt(ctx context.Context, req PromptRequest) (PromptResponse, *RequestError) {
	a.mu.Lock()
	known := a.sessions[req.SessionId]
	a.mu.Unlock()
	if !known {
		return PromptResponse{}, ErrResourceNotFound(string(req.SessionId))
	}

	update := SessionNotification{
		SessionId: req.SessionId,
		Update: SessionUpdate{
			Kind:              sessionUpdateAgentMessageChunk,
			AgentMessageChunk: &MessageChunkUpdate{Content: TextBlock("echo: " + req.Prompt[0].Text.Text)},
		},
	}
	if err := a.asc.SessionUpdate(ctx, update); err != nil {
		return PromptResponse{}, internalError(err)
	}

	perm, rerr := a.asc.RequestPermission(ctx, RequestPermissionRequest{
		SessionId: req.SessionId,
		ToolCall:  ToolCallUpdate{ToolCallId: "tc-1"},
		Options:   []PermissionOption{{OptionId: "allow", Name: "Allow", Kind: PermissionOptionKindAllowOnce}},
	})
	if rerr != nil {
		return PromptResponse{}, rerr
	}
	if perm.Outcome.Selected == nil {
		return PromptResponse{StopReason: StopReasonCancelled}, nil
	}

	return PromptResponse{StopReason: StopReasonEndTurn}, nil
}

func (a *loopbackAgent) Cancel(ctx context.Context, notif CancelNotification) *RequestError {
	return nil
}

// loopbackClient is a minimal Client implementation.
type loopbackClient struct {
	mu      sync.Mutex
	updates []SessionNotification
	files   map[string]string
}

func newLoopbackClient() *loopbackClient {
	return &loopbackClient{files: make(map[string]string)}
}

func (c *loopbackClient) SessionUpdate(ctx context.Context, n SessionNotification) *RequestError {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.updates = append(c.updates, n)
	return nil
}

func (c *loopbackClient) RequestPermission(ctx context.Context, req RequestPermissionRequest) (RequestPermissionResponse, *RequestError) {
	if len(req.Options) == 0 {
		return RequestPermissionResponse{Outcome: RequestPermissionOutcome{Cancelled: &RequestPermissionOutcomeCancelled{}}}, nil
	}
	return RequestPermissionResponse{Outcome: RequestPermissionOutcome{
		Selected: &RequestPermissionOutcomeSelected{OptionId: req.Options[0].OptionId},
	}}, nil
}

func (c *loopbackClient) ReadTextFile(ctx context.Context, req ReadTextFileRequest) (ReadTextFileResponse, *RequestError) {
	c.mu.Lock()
	defer c.mu.Unlock()
	content, ok := c.files[req.Path]
	if !ok {
		return ReadTextFileResponse{}, ErrResourceNotFound(req.Path)
	}
	return ReadTextFileResponse{Content: content}, nil
}

func (c *loopbackClient) WriteTextFile(ctx context.Context, req WriteTextFileRequest) (WriteTextFileResponse, *RequestError) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.files[req.Path] = req.Content
	return WriteTextFileResponse{}, nil
}

func (c *loopbackClient) CreateTerminal(ctx context.Context, req CreateTerminalRequest) (CreateTerminalResponse, *RequestError) {
	return CreateTerminalResponse{TerminalId: "term-1"}, nil
}

func (c *loopbackClient) TerminalOutput(ctx context.Context, req TerminalOutputRequest) (TerminalOutputResponse, *RequestError) {
	exit := 0
	return TerminalOutputResponse{Output: "done", ExitStatus: &TerminalExitStatus{ExitCode: &exit}}, nil
}

func (c *loopbackClient) WaitForTerminalExit(ctx context.Context, req WaitForTerminalExitRequest) (WaitForTerminalExitResponse, *RequestError) {
	exit := 0
	return WaitForTerminalExitResponse{ExitCode: &exit}, nil
}

func (c *loopbackClient) KillTerminalCommand(ctx context.Context, req KillTerminalCommandRequest) (KillTerminalCommandResponse, *RequestError) {
	return KillTerminalCommandResponse{}, nil
}

func (c *loopbackClient) ReleaseTerminal(ctx context.Context, req ReleaseTerminalRequest) (ReleaseTerminalResponse, *RequestError) {
	return ReleaseTerminalResponse{}, nil
}

// newLoopback wires an AgentSideConnection and ClientSideConnection
// over a net.Pipe duplex stream, the way a real client would have one
// end of a spawned agent subprocess's stdio.
func newLoopback(t *testing.T) (*ClientSideConnection, *loopbackClient, *loopbackAgent, func()) {
	t.Helper()
	agentEnd, clientEnd := net.Pipe()

	agent := newLoopbackAgent()
	client := newLoopbackClient()

	ctx, cancel := context.WithCancel(context.Background())
	asc := NewAgentSideConnection(ctx, agent, agentEnd, agentEnd)
	agent.asc = asc
	csc := NewClientSideConnection(ctx, client, clientEnd, clientEnd)

	cleanup := func() {
		cancel()
		_ = asc.Close()
		_ = csc.Close()
	}
	return csc, client, agent, cleanup
}

func TestLoopbackInitializeAndNewSession(t *testing.T) {
	csc, _, _, cleanup := newLoopback(t)
	defer cleanup()

	ctx, done := context.WithTimeout(context.Background(), 2*time.Second)
	defer done()

	initResp, rerr := csc.Initialize(ctx, InitializeRequest{
		ProtocolVersion: ProtocolVersionNumber,
		ClientInfo:      &Implementation{Name: "loopback-client", Version: "test"},
	})
	require.Nil(t, rerr)
	assert.Equal(t, ProtocolVersionNumber, initResp.ProtocolVersion)
	assert.True(t, initResp.AgentCapabilities.LoadSession)

	sessResp, rerr := csc.NewSession(ctx, NewSessionRequest{Cwd: "/work", McpServers: []McpServer{}})
	require.Nil(t, rerr)
	assert.NotEmpty(t, sessResp.SessionId)
}

func TestLoopbackPromptWithPermissionRoundTrip(t *testing.T) {
	csc, client, _, cleanup := newLoopback(t)
	defer cleanup()

	ctx, done := context.WithTimeout(context.Background(), 2*time.Second)
	defer done()

	sessResp, rerr := csc.NewSession(ctx, NewSessionRequest{Cwd: "/work", McpServers: []McpServer{}})
	require.Nil(t, rerr)

	promptResp, rerr := csc.Prompt(ctx, PromptRequest{
		SessionId: sessResp.SessionId,
		Prompt:    []ContentBlock{TextBlock("hi")},
	})
	require.Nil(t, rerr)
	assert.Equal(t, StopReasonEndTurn, promptResp.StopReason)

	client.mu.Lock()
	defer client.mu.Unlock()
	require.Len(t, client.updates, 1)
	assert.Equal(t, "echo: hi", client.updates[0].Update.AgentMessageChunk.Content.Text.Text)
}

func TestLoopbackPromptUnknownSessionIsResourceNotFound(t *testing.T) {
	csc, _, _, cleanup := newLoopback(t)
	defer cleanup()

	ctx, done := context.WithTimeout(context.Background(), 2*time.Second)
	defer done()

	_, rerr := csc.Prompt(ctx, PromptRequest{SessionId: "does-not-exist", Prompt: []ContentBlock{TextBlock("hi")}})
	require.NotNil(t, rerr)
	assert.Equal(t, CodeResourceNotFound, rerr.Code)
}

func TestLoopbackInvalidParamsMissingRequiredField(t *testing.T) {
	csc, _, _, cleanup := newLoopback(t)
	defer cleanup()

	ctx, done := context.WithTimeout(context.Background(), 2*time.Second)
	defer done()

	// cwd is required; omitting it must surface as invalid_params, not
	// a handler panic or a silently-zeroed field.
	_, rerr := csc.NewSession(ctx, NewSessionRequest{McpServers: []McpServer{}})
	require.NotNil(t, rerr)
	assert.Equal(t, CodeInvalidParams, rerr.Code)
}

func TestLoopbackFileReadWriteRoundTrip(t *testing.T) {
	_, client, agent, cleanup := newLoopback(t)
	defer cleanup()

	ctx, done := context.WithTimeout(context.Background(), 2*time.Second)
	defer done()

	client.mu.Lock()
	client.files["/work/a.txt"] = "hello"
	client.mu.Unlock()

	readResp, rerr := agent.asc.ReadTextFile(ctx, ReadTextFileRequest{SessionId: "s1", Path: "/work/a.txt"})
	require.Nil(t, rerr)
	assert.Equal(t, "hello", readResp.Content)

	rerr = agent.asc.WriteTextFile(ctx, WriteTextFileRequest{SessionId: "s1", Path: "/work/b.txt", Content: "world"})
	require.Nil(t, rerr)

	client.mu.Lock()
	defer client.mu.Unlock()
	assert.Equal(t, "world", client.files["/work/b.txt"])
}

func TestLoopbackTerminalLifecycle(t *testing.T) {
	_, _, agent, cleanup := newLoopback(t)
	defer cleanup()

	ctx, done := context.WithTimeout(context.Background(), 2*time.Second)
	defer done()

	term, rerr := agent.asc.CreateTerminal(ctx, CreateTerminalRequest{SessionId: "s1", Command: "echo", Args: []string{"hi"}})
	require.Nil(t, rerr)
	assert.Equal(t, TerminalId("term-1"), term.ID())

	out, rerr := term.Output(ctx)
	require.Nil(t, rerr)
	assert.Equal(t, "done", out.Output)
	require.NotNil(t, out.ExitStatus)
	require.NotNil(t, out.ExitStatus.ExitCode)
	assert.Equal(t, 0, *out.ExitStatus.ExitCode)

	require.Nil(t, term.Release(ctx))
}

func TestLoopbackSetSessionModeRoutes(t *testing.T) {
	csc, _, _, cleanup := newLoopback(t)
	defer cleanup()

	ctx, done := context.WithTimeout(context.Background(), 2*time.Second)
	defer done()

	rerr := csc.SetSessionMode(ctx, SetSessionModeRequest{SessionId: "s1", ModeId: "ask"})
	assert.Nil(t, rerr)
}

func TestMethodNotFoundOverRawFrame(t *testing.T) {
	agentEnd, rawEnd := net.Pipe()
	agent := newLoopbackAgent()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	asc := NewAgentSideConnection(ctx, agent, agentEnd, agentEnd)
	agent.asc = asc
	defer asc.Close()

	done := make(chan []byte, 1)
	go func() {
		fr := newFrameReader(rawEnd, 0)
		line, err := fr.next()
		if err != nil {
			close(done)
			return
		}
		done <- line
	}()

	require.NoError(t, writeFrame(rawEnd, map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "session/teleport",
	}))

	select {
	case line := <-done:
		require.NotNil(t, line)
		assert.Contains(t, string(line), `"code":-32601`)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for method-not-found response")
	}
}
