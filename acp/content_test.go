package acp

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentBlockTextRoundTrip(t *testing.T) {
	block := TextBlock("hello world")

	data, err := json.Marshal(block)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"text","text":"hello world"}`, string(data))

	var decoded ContentBlock
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.NotNil(t, decoded.Text)
	assert.Equal(t, "hello world", decoded.Text.Text)
}

func TestContentBlockImageRoundTrip(t *testing.T) {
	block := ImageBlock("YmFzZTY0", "image/png")

	data, err := json.Marshal(block)
	require.NoError(t, err)

	var decoded ContentBlock
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.NotNil(t, decoded.Image)
	assert.Equal(t, "image/png", decoded.Image.MimeType)
}

func TestContentBlockUnknownDiscriminatorRejected(t *testing.T) {
	var decoded ContentBlock
	err := json.Unmarshal([]byte(`{"type":"carrier_pigeon"}`), &decoded)
	assert.Error(t, err)
}

func TestMcpServerStdioRoundTrip(t *testing.T) {
	m := McpServer{Stdio: &McpServerStdio{Name: "fs", Command: "mcp-fs", Args: []string{"--root", "/tmp"}}}

	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"stdio","name":"fs","command":"mcp-fs","args":["--root","/tmp"]}`, string(data))

	var decoded McpServer
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.NotNil(t, decoded.Stdio)
	assert.Equal(t, "mcp-fs", decoded.Stdio.Command)
}

func TestMcpServerEmptyArrayIsValid(t *testing.T) {
	var req NewSessionRequest
	err := json.Unmarshal([]byte(`{"cwd":"/work","mcpServers":[]}`), &req)
	require.NoError(t, err)
	assert.NotNil(t, req.McpServers)
	assert.Empty(t, req.McpServers)

	err = validate.Struct(req)
	assert.NoError(t, err, "an empty mcpServers array must satisfy validate:\"required\"")
}

func TestRequestPermissionOutcomeRoundTrip(t *testing.T) {
	selected := RequestPermissionOutcome{Selected: &RequestPermissionOutcomeSelected{OptionId: "allow-once"}}
	data, err := json.Marshal(selected)
	require.NoError(t, err)
	assert.JSONEq(t, `{"outcome":"selected","optionId":"allow-once"}`, string(data))

	var decodedSelected RequestPermissionOutcome
	require.NoError(t, json.Unmarshal(data, &decodedSelected))
	require.NotNil(t, decodedSelected.Selected)
	assert.Equal(t, PermissionOptionId("allow-once"), decodedSelected.Selected.OptionId)

	cancelled := RequestPermissionOutcome{Cancelled: &RequestPermissionOutcomeCancelled{}}
	data, err = json.Marshal(cancelled)
	require.NoError(t, err)
	assert.JSONEq(t, `{"outcome":"cancelled"}`, string(data))

	var decodedCancelled RequestPermissionOutcome
	require.NoError(t, json.Unmarshal(data, &decodedCancelled))
	assert.NotNil(t, decodedCancelled.Cancelled)
	assert.Nil(t, decodedCancelled.Selected)
}

func TestSessionUpdateToolCallRoundTrip(t *testing.T) {
	title := "Reading file"
	update := SessionUpdate{
		Kind: sessionUpdateToolCall,
		ToolCallUpdateVariant: &ToolCall{
			ToolCallId: "tc-1",
			Title:      &title,
			Status:     ToolCallStatusPending,
		},
	}

	data, err := json.Marshal(update)
	require.NoError(t, err)

	var decoded SessionUpdate
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.NotNil(t, decoded.ToolCallUpdateVariant)
	assert.Equal(t, ToolCallId("tc-1"), decoded.ToolCallUpdateVariant.ToolCallId)
	assert.Equal(t, ToolCallStatusPending, decoded.ToolCallUpdateVariant.Status)
	assert.False(t, decoded.ToolCallUpdateVariant.Status.Terminal())
}

func TestSessionUpdatePlanRoundTrip(t *testing.T) {
	update := SessionUpdate{
		Kind: sessionUpdatePlan,
		Plan: &PlanUpdate{Entries: []PlanEntry{
			{Content: "read the spec", Status: PlanEntryPending, Priority: PlanEntryPriorityHigh},
		}},
	}

	data, err := json.Marshal(update)
	require.NoError(t, err)

	var decoded SessionUpdate
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.NotNil(t, decoded.Plan)
	require.Len(t, decoded.Plan.Entries, 1)
	assert.Equal(t, "read the spec", decoded.Plan.Entries[0].Content)
}
