// Package main implements an echo agent binary that speaks ACP over its
// own stdin/stdout. It echoes every prompt back as a single session
// update and asks for permission before reporting end_turn, so it
// exercises sessions, session updates and permission requests without
// needing a real model backend. It issues no file or terminal requests.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/agentprotocol/acpgo/acp"
	"github.com/agentprotocol/acpgo/internal/common/config"
	"github.com/agentprotocol/acpgo/internal/common/logger"
	"go.uber.org/zap"
)

// echoAgent implements acp.Agent. Each session just remembers its cwd;
// Prompt echoes the first text block of the request back to the client
// as a message chunk, then asks for permission to "finish" before
// returning end_turn.
type echoAgent struct {
	log *logger.Logger

	mu       sync.Mutex
	sessions map[acp.SessionId]string // session id -> cwd

	conn *acp.AgentSideConnection
}

func (a *echoAgent) Initialize(ctx context.Context, req acp.InitializeRequest) (acp.InitializeResponse, *acp.RequestError) {
	a.log.Info("initialize", zap.Int("protocolVersion", req.ProtocolVersion))
	return acp.InitializeResponse{
		ProtocolVersion: acp.ProtocolVersionNumber,
		AgentInfo:       &acp.Implementation{Name: "echo-agent", Version: "0.1.0"},
		AgentCapabilities: acp.AgentCapabilities{
			LoadSession:        true,
			PromptCapabilities: &acp.PromptCapabilities{Image: true},
		},
	}, nil
}

func (a *echoAgent) Authenticate(ctx context.Context, req acp.AuthenticateRequest) (acp.AuthenticateResponse, *acp.RequestError) {
	return acp.AuthenticateResponse{}, nil
}

func (a *echoAgent) NewSession(ctx context.Context, req acp.NewSessionRequest) (acp.NewSessionResponse, *acp.RequestError) {
	id := acp.NewSessionID()
	a.mu.Lock()
	a.sessions[id] = req.Cwd
	a.mu.Unlock()
	a.log.Info("session created", zap.String("sessionId", string(id)), zap.String("cwd", req.Cwd))
	return acp.NewSessionResponse{SessionId: id}, nil
}

func (a *echoAgent) LoadSession(ctx context.Context, req acp.LoadSessionRequest) (acp.LoadSessionResponse, *acp.RequestError) {
	a.mu.Lock()
	if _, ok := a.sessions[req.SessionId]; !ok {
		a.sessions[req.SessionId] = req.Cwd
	}
	a.mu.Unlock()
	return acp.LoadSessionResponse{}, nil
}

func (a *echoAgent) SetSessionMode(ctx context.Context, req acp.SetSessionModeRequest) (acp.SetSessionModeResponse, *acp.RequestError) {
	return acp.SetSessionModeResponse{}, nil
}

func (a *echoAgent) SetSessionModel(ctx context.Context, req acp.SetSessionModelRequest) (acp.SetSessionModelResponse, *acp.RequestError) {
	return acp.SetSessionModelResponse{}, nil
}

func (a *echoAgent) Prompt(ctx context.Context, req acp.PromptRequest) (acp.PromptResponse, *acp.RequestError) {
	a.mu.Lock()
	_, known := a.sessions[req.SessionId]
	a.mu.Unlock()
	if !known {
		return acp.PromptResponse{}, acp.ErrResourceNotFound(string(req.SessionId))
	}

	var text string
	for _, block := range req.Prompt {
		if block.Text != nil {
			text = block.Text.Text
			break
		}
	}

	update := acp.SessionUpdate{}
	update.Kind = "agent_message_chunk"
	update.AgentMessageChunk = &acp.MessageChunkUpdate{Content: acp.TextBlock("echo: " + text)}
	if err := a.conn.SessionUpdate(ctx, acp.SessionNotification{SessionId: req.SessionId, Update: update}); err != nil {
		return acp.PromptResponse{}, acp.NewRequestError(acp.CodeInternalError, err.Error(), nil)
	}

	perm, rerr := a.conn.RequestPermission(ctx, acp.RequestPermissionRequest{
		SessionId: req.SessionId,
		ToolCall:  acp.ToolCallUpdate{ToolCallId: acp.NewToolCallID()},
		Options: []acp.PermissionOption{
			{OptionId: "finish", Name: "Finish turn", Kind: acp.PermissionOptionKindAllowOnce},
		},
	})
	if rerr != nil {
		return acp.PromptResponse{}, rerr
	}
	if perm.Outcome.Selected == nil {
		return acp.PromptResponse{StopReason: acp.StopReasonCancelled}, nil
	}

	return acp.PromptResponse{StopReason: acp.StopReasonEndTurn}, nil
}

func (a *echoAgent) Cancel(ctx context.Context, notif acp.CancelNotification) *acp.RequestError {
	a.log.Info("cancel", zap.String("sessionId", string(notif.SessionId)))
	return nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "echo-agent: config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewLogger(logger.LoggingConfig{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		OutputPath: cfg.Logging.OutputPath,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "echo-agent: logger: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	agent := &echoAgent{log: log, sessions: make(map[acp.SessionId]string)}
	stdio := acp.NewStdio()
	agent.conn = acp.NewAgentSideConnection(ctx, agent, stdio, stdio,
		acp.WithMaxFrameBytes(cfg.Wire.MaxFrameBytes),
		acp.WithLogger(log),
	)

	<-ctx.Done()
	_ = agent.conn.Close()
}
