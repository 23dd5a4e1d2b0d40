package main

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/agentprotocol/acpgo/acp"
	"github.com/agentprotocol/acpgo/internal/common/logger"
)

func newTestClient() *echoClient {
	return &echoClient{log: logger.Default(), terms: make(map[acp.TerminalId]*exec.Cmd)}
}

func TestReadTextFileAppliesLineAndLimit(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.txt")
	content := "line1\nline2\nline3\nline4\nline5"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	c := newTestClient()

	resp, rerr := c.ReadTextFile(context.Background(), acp.ReadTextFileRequest{Path: path})
	if rerr != nil {
		t.Fatalf("unexpected error: %v", rerr)
	}
	if resp.Content != content {
		t.Errorf("ReadTextFile() = %q, want %q", resp.Content, content)
	}

	line, limit := 1, 2
	resp, rerr = c.ReadTextFile(context.Background(), acp.ReadTextFileRequest{Path: path, Line: &line, Limit: &limit})
	if rerr != nil {
		t.Fatalf("unexpected error: %v", rerr)
	}
	want := "line2\nline3"
	if resp.Content != want {
		t.Errorf("ReadTextFile() with line/limit = %q, want %q", resp.Content, want)
	}
}

func TestReadTextFileMissingIsResourceNotFound(t *testing.T) {
	c := newTestClient()
	_, rerr := c.ReadTextFile(context.Background(), acp.ReadTextFileRequest{Path: "/nonexistent/file.txt"})
	if rerr == nil {
		t.Fatal("expected an error for a missing file")
	}
	if rerr.Code != acp.CodeResourceNotFound {
		t.Errorf("code = %d, want %d", rerr.Code, acp.CodeResourceNotFound)
	}
}

func TestWriteTextFileThenReadRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt")
	c := newTestClient()

	if _, rerr := c.WriteTextFile(context.Background(), acp.WriteTextFileRequest{Path: path, Content: "hello"}); rerr != nil {
		t.Fatalf("unexpected error: %v", rerr)
	}

	resp, rerr := c.ReadTextFile(context.Background(), acp.ReadTextFileRequest{Path: path})
	if rerr != nil {
		t.Fatalf("unexpected error: %v", rerr)
	}
	if resp.Content != "hello" {
		t.Errorf("round-tripped content = %q, want %q", resp.Content, "hello")
	}
}

func TestRequestPermissionSelectsFirstOption(t *testing.T) {
	c := newTestClient()
	resp, rerr := c.RequestPermission(context.Background(), acp.RequestPermissionRequest{
		Options: []acp.PermissionOption{
			{OptionId: "allow", Name: "Allow", Kind: acp.PermissionOptionKindAllowOnce},
			{OptionId: "reject", Name: "Reject", Kind: acp.PermissionOptionKindRejectOnce},
		},
	})
	if rerr != nil {
		t.Fatalf("unexpected error: %v", rerr)
	}
	if resp.Outcome.Selected == nil || resp.Outcome.Selected.OptionId != "allow" {
		t.Errorf("outcome = %+v, want selected=allow", resp.Outcome)
	}
}

func TestRequestPermissionNoOptionsIsCancelled(t *testing.T) {
	c := newTestClient()
	resp, rerr := c.RequestPermission(context.Background(), acp.RequestPermissionRequest{})
	if rerr != nil {
		t.Fatalf("unexpected error: %v", rerr)
	}
	if resp.Outcome.Cancelled == nil {
		t.Errorf("outcome = %+v, want cancelled", resp.Outcome)
	}
}

func TestTerminalLifecycle(t *testing.T) {
	c := newTestClient()
	ctx := context.Background()

	created, rerr := c.CreateTerminal(ctx, acp.CreateTerminalRequest{Command: "true"})
	if rerr != nil {
		t.Fatalf("unexpected error: %v", rerr)
	}

	if _, rerr := c.WaitForTerminalExit(ctx, acp.WaitForTerminalExitRequest{TerminalId: created.TerminalId}); rerr != nil {
		t.Fatalf("unexpected error: %v", rerr)
	}

	if _, rerr := c.ReleaseTerminal(ctx, acp.ReleaseTerminalRequest{TerminalId: created.TerminalId}); rerr != nil {
		t.Fatalf("unexpected error: %v", rerr)
	}

	if _, ok := c.lookupTerminal(created.TerminalId); ok {
		t.Error("terminal should no longer be tracked after release")
	}
}
