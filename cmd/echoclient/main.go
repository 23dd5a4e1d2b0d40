// Package main implements an echo client binary that spawns an agent
// subprocess (echo-agent by default) and drives one prompt turn against
// it, printing the text of each agent message chunk it receives (other
// session updates are only logged at debug level). It serves fs/terminal
// requests against the real local filesystem and shell, the way a
// minimal but genuine ACP client would, rather than stubbing them out.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/agentprotocol/acpgo/acp"
	"github.com/agentprotocol/acpgo/internal/common/config"
	"github.com/agentprotocol/acpgo/internal/common/logger"
	"go.uber.org/zap"
)

// echoClient implements acp.Client against the real local filesystem
// and real terminals, auto-approving every permission request — there
// is no interactive user on the other end of this demo binary.
type echoClient struct {
	log *logger.Logger

	termsMu sync.Mutex
	terms   map[acp.TerminalId]*exec.Cmd
}

func (c *echoClient) SessionUpdate(ctx context.Context, n acp.SessionNotification) *acp.RequestError {
	switch n.Update.Kind {
	case "agent_message_chunk":
		if n.Update.AgentMessageChunk != nil && n.Update.AgentMessageChunk.Content.Text != nil {
			fmt.Println(n.Update.AgentMessageChunk.Content.Text.Text)
		}
	default:
		c.log.Debug("session update", zap.String("kind", n.Update.Kind))
	}
	return nil
}

func (c *echoClient) RequestPermission(ctx context.Context, req acp.RequestPermissionRequest) (acp.RequestPermissionResponse, *acp.RequestError) {
	if len(req.Options) == 0 {
		return acp.RequestPermissionResponse{Outcome: acp.RequestPermissionOutcome{
			Cancelled: &acp.RequestPermissionOutcomeCancelled{},
		}}, nil
	}
	return acp.RequestPermissionResponse{Outcome: acp.RequestPermissionOutcome{
		Selected: &acp.RequestPermissionOutcomeSelected{OptionId: req.Options[0].OptionId},
	}}, nil
}

func (c *echoClient) ReadTextFile(ctx context.Context, req acp.ReadTextFileRequest) (acp.ReadTextFileResponse, *acp.RequestError) {
	data, err := os.ReadFile(req.Path)
	if err != nil {
		return acp.ReadTextFileResponse{}, acp.ErrResourceNotFound(req.Path)
	}
	lines := strings.Split(string(data), "\n")
	if req.Line != nil {
		start := *req.Line
		if start < 0 || start > len(lines) {
			start = len(lines)
		}
		lines = lines[start:]
	}
	if req.Limit != nil && *req.Limit < len(lines) {
		lines = lines[:*req.Limit]
	}
	return acp.ReadTextFileResponse{Content: strings.Join(lines, "\n")}, nil
}

func (c *echoClient) WriteTextFile(ctx context.Context, req acp.WriteTextFileRequest) (acp.WriteTextFileResponse, *acp.RequestError) {
	if err := os.WriteFile(req.Path, []byte(req.Content), 0644); err != nil {
		return acp.WriteTextFileResponse{}, acp.NewRequestError(acp.CodeInternalError, err.Error(), nil)
	}
	return acp.WriteTextFileResponse{}, nil
}

func (c *echoClient) CreateTerminal(ctx context.Context, req acp.CreateTerminalRequest) (acp.CreateTerminalResponse, *acp.RequestError) {
	cmd := exec.Command(req.Command, req.Args...)
	if req.Cwd != "" {
		cmd.Dir = req.Cwd
	}
	for _, kv := range req.Env {
		cmd.Env = append(cmd.Env, kv.Name+"="+kv.Value)
	}
	if err := cmd.Start(); err != nil {
		return acp.CreateTerminalResponse{}, acp.NewRequestError(acp.CodeInternalError, err.Error(), nil)
	}

	id := acp.TerminalId(fmt.Sprintf("term-%d", cmd.Process.Pid))
	c.termsMu.Lock()
	c.terms[id] = cmd
	c.termsMu.Unlock()
	return acp.CreateTerminalResponse{TerminalId: id}, nil
}

func (c *echoClient) TerminalOutput(ctx context.Context, req acp.TerminalOutputRequest) (acp.TerminalOutputResponse, *acp.RequestError) {
	// A demo-scale client; real output buffering would capture stdout
	// incrementally, but this binary only needs to report exit status.
	cmd, ok := c.lookupTerminal(req.TerminalId)
	if !ok {
		return acp.TerminalOutputResponse{}, acp.ErrResourceNotFound(string(req.TerminalId))
	}
	if cmd.ProcessState == nil {
		return acp.TerminalOutputResponse{}, nil
	}
	code := cmd.ProcessState.ExitCode()
	return acp.TerminalOutputResponse{ExitStatus: &acp.TerminalExitStatus{ExitCode: &code}}, nil
}

func (c *echoClient) WaitForTerminalExit(ctx context.Context, req acp.WaitForTerminalExitRequest) (acp.WaitForTerminalExitResponse, *acp.RequestError) {
	cmd, ok := c.lookupTerminal(req.TerminalId)
	if !ok {
		return acp.WaitForTerminalExitResponse{}, acp.ErrResourceNotFound(string(req.TerminalId))
	}
	_ = cmd.Wait()
	code := cmd.ProcessState.ExitCode()
	return acp.WaitForTerminalExitResponse{ExitCode: &code}, nil
}

func (c *echoClient) KillTerminalCommand(ctx context.Context, req acp.KillTerminalCommandRequest) (acp.KillTerminalCommandResponse, *acp.RequestError) {
	cmd, ok := c.lookupTerminal(req.TerminalId)
	if !ok {
		return acp.KillTerminalCommandResponse{}, acp.ErrResourceNotFound(string(req.TerminalId))
	}
	if cmd.Process != nil {
		_ = cmd.Process.Kill()
	}
	return acp.KillTerminalCommandResponse{}, nil
}

func (c *echoClient) ReleaseTerminal(ctx context.Context, req acp.ReleaseTerminalRequest) (acp.ReleaseTerminalResponse, *acp.RequestError) {
	c.termsMu.Lock()
	delete(c.terms, req.TerminalId)
	c.termsMu.Unlock()
	return acp.ReleaseTerminalResponse{}, nil
}

func (c *echoClient) lookupTerminal(id acp.TerminalId) (*exec.Cmd, bool) {
	c.termsMu.Lock()
	defer c.termsMu.Unlock()
	cmd, ok := c.terms[id]
	return cmd, ok
}

func main() {
	agentPath := flag.String("agent", "echo-agent", "path to the agent binary to spawn")
	prompt := flag.String("prompt", "hello", "prompt text to send")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "echo-client: config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewLogger(logger.LoggingConfig{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		OutputPath: cfg.Logging.OutputPath,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "echo-client: logger: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	subproc, err := acp.SpawnSubprocess(ctx, *agentPath)
	if err != nil {
		log.Fatal("spawn agent", zap.Error(err))
	}

	client := &echoClient{log: log, terms: make(map[acp.TerminalId]*exec.Cmd)}
	conn := acp.NewClientSideConnection(ctx, client, subproc.Stdin, subproc.Stdout,
		acp.WithMaxFrameBytes(cfg.Wire.MaxFrameBytes),
		acp.WithLogger(log),
	)
	defer conn.Close()
	defer subproc.Close(2 * time.Second)

	initResp, rerr := conn.Initialize(ctx, acp.InitializeRequest{
		ProtocolVersion: acp.ProtocolVersionNumber,
		ClientInfo:      &acp.Implementation{Name: "echo-client", Version: "0.1.0"},
	})
	if rerr != nil {
		log.Fatal("initialize", zap.Error(rerr))
	}
	log.Info("negotiated", zap.Int("protocolVersion", initResp.ProtocolVersion))

	cwd, _ := os.Getwd()
	session, rerr := conn.NewSession(ctx, acp.NewSessionRequest{Cwd: cwd, McpServers: []acp.McpServer{}})
	if rerr != nil {
		log.Fatal("new session", zap.Error(rerr))
	}

	resp, rerr := conn.Prompt(ctx, acp.PromptRequest{
		SessionId: session.SessionId,
		Prompt:    []acp.ContentBlock{acp.TextBlock(*prompt)},
	})
	if rerr != nil {
		log.Fatal("prompt", zap.Error(rerr))
	}

	fmt.Fprintf(os.Stdout, "stop reason: %s\n", resp.StopReason)
}
