package acp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/agentprotocol/acpgo/internal/common/logger"
	"github.com/agentprotocol/acpgo/internal/telemetry"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// handlerFunc serves one inbound request or notification. result is
// ignored for notifications. A non-nil *RequestError is written back
// as the JSON-RPC error object for requests, and merely logged for
// notifications. isNotification lets the router tell extension
// notifications (routed to ExtNotification) apart from extension
// requests (routed to ExtMethod) when both share a "_"-prefixed method
// name (spec §4.3, §7.4).
type handlerFunc func(ctx context.Context, method string, params json.RawMessage, isNotification bool) (result any, rerr *RequestError)

// connection is the transport engine shared by AgentSideConnection and
// ClientSideConnection: request-id allocation, the pending-response
// table, write serialization, and the receive loop that classifies and
// dispatches incoming frames (spec §4.2 "Connection engine").
//
// Earlier, simpler JSON-RPC client designs hardcode a single stdin/
// stdout pair and a single pair of notification/request callbacks;
// here the callback is supplied by whichever of the two facades owns
// this connection, replacing a fixed onNotification/onRequest pair
// with a single router-backed handlerFunc per spec §4.3.
type connection struct {
	writer io.Writer
	reader io.Reader

	nextID atomic.Int64

	mu      sync.Mutex
	pending map[int64]chan rawResponse
	closed  bool

	writeMu sync.Mutex

	handle handlerFunc

	group    *errgroup.Group
	groupCtx context.Context
	cancel   context.CancelFunc

	log *logger.Logger
}

// newConnection wires a connection around a duplex stream. handle
// serves inbound requests/notifications; maxFrameBytes bounds each
// line read from r (0 selects DefaultMaxFrameBytes). The returned
// connection's receive loop is already running in the background.
func newConnection(parent context.Context, w io.Writer, r io.Reader, maxFrameBytes int, handle handlerFunc, log *logger.Logger) *connection {
	ctx, cancel := context.WithCancel(parent)
	group, groupCtx := errgroup.WithContext(ctx)
	if log == nil {
		log = logger.Default()
	}
	c := &connection{
		writer:   w,
		reader:   r,
		pending:  make(map[int64]chan rawResponse),
		handle:   handle,
		group:    group,
		groupCtx: groupCtx,
		cancel:   cancel,
		log:      log.WithFields(zap.String("component", "acp-connection")),
	}
	go c.receiveLoop(ctx, r, maxFrameBytes)
	return c
}

// sendRequest allocates a request id, writes the request frame, and
// blocks until either a matching response arrives, ctx is cancelled,
// or the connection is closed (in which case every pending request is
// settled with a transport error — spec's Open Question on
// broken-writer propagation, recorded in DESIGN.md).
func (c *connection) sendRequest(ctx context.Context, method string, params any) (json.RawMessage, *RequestError) {
	ctx, span := telemetry.TraceRequest(ctx, "outbound", method)
	defer span.End()

	// Pre-increment value: the first allocated id is 0, keeping the set
	// of ids a contiguous range [0, n) as required by spec §8.
	id := c.nextID.Add(1) - 1

	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return nil, internalError(fmt.Errorf("marshal params for %s: %w", method, err))
	}

	respCh := make(chan rawResponse, 1)
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, NewRequestError(CodeInternalError, "connection closed", nil)
	}
	c.pending[id] = respCh
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
	}()

	idJSON, _ := json.Marshal(id)
	req := rawRequest{JSONRPC: "2.0", ID: idJSON, Method: method, Params: paramsJSON}
	if werr := c.writeFrame(req); werr != nil {
		return nil, internalError(fmt.Errorf("write request %s: %w", method, werr))
	}

	select {
	case resp := <-respCh:
		if resp.Error != nil {
			return nil, resp.Error
		}
		return resp.Result, nil
	case <-ctx.Done():
		return nil, NewRequestError(CodeInternalError, "context cancelled", map[string]string{"reason": ctx.Err().Error()})
	case <-c.groupCtx.Done():
		return nil, NewRequestError(CodeInternalError, "connection closed", nil)
	}
}

// sendNotification writes a notification frame; there is nothing to
// wait for.
func (c *connection) sendNotification(method string, params any) error {
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("acp: marshal params for %s: %w", method, err)
	}
	return c.writeFrame(rawNotification{JSONRPC: "2.0", Method: method, Params: paramsJSON})
}

// sendResponse writes a response frame for an inbound request.
func (c *connection) sendResponse(id json.RawMessage, result any, rerr *RequestError) error {
	var resultJSON json.RawMessage
	if rerr == nil {
		raw, err := json.Marshal(result)
		if err != nil {
			return fmt.Errorf("acp: marshal result: %w", err)
		}
		resultJSON = raw
	}
	return c.writeFrame(rawResponse{JSONRPC: "2.0", ID: id, Result: resultJSON, Error: rerr})
}

func (c *connection) writeFrame(v any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return writeFrame(c.writer, v)
}

// receiveLoop reads frames until EOF/error/cancellation, classifying
// each per spec §6. Requests are dispatched as independent tasks
// tracked by the errgroup so Close can wait for in-flight handlers to
// finish (or the parent ctx to cancel them). Notifications are served
// inline, synchronously, on this same goroutine: the protocol promises
// callers that notifications arrive at the handler in receive order
// (spec §4.2, §5 "Ordering"), which a second goroutine per notification
// cannot guarantee.
func (c *connection) receiveLoop(ctx context.Context, r io.Reader, maxFrameBytes int) {
	defer c.shutdown()

	fr := newFrameReader(r, maxFrameBytes)
	for {
		line, err := fr.next()
		if err != nil {
			if err != io.EOF {
				c.log.Warn("read loop error", zap.Error(err))
			}
			return
		}
		if ctx.Err() != nil {
			return
		}

		var msg rawMessage
		if err := json.Unmarshal(line, &msg); err != nil {
			c.log.Warn("dropping malformed frame", zap.Error(err))
			continue
		}

		switch msg.kind() {
		case kindResponse:
			c.dispatchResponse(msg)
		case kindRequest:
			id := msg.ID
			method := msg.Method
			params := msg.Params
			c.group.Go(func() error {
				c.serveRequest(c.groupCtx, id, method, params)
				return nil
			})
		case kindNotification:
			c.serveNotification(ctx, msg.Method, msg.Params)
		default:
			c.log.Warn("dropping unclassifiable frame", zap.String("data", string(line)))
		}
	}
}

func (c *connection) dispatchResponse(msg rawMessage) {
	var rawID int64
	if err := json.Unmarshal(msg.ID, &rawID); err != nil {
		c.log.Warn("response with non-numeric id", zap.String("id", string(msg.ID)))
		return
	}
	c.mu.Lock()
	ch, ok := c.pending[rawID]
	c.mu.Unlock()
	if !ok {
		c.log.Warn("response for unknown request id", zap.Int64("id", rawID))
		return
	}
	ch <- rawResponse{ID: msg.ID, Result: msg.Result, Error: msg.Error}
}

func (c *connection) serveRequest(ctx context.Context, id json.RawMessage, method string, params json.RawMessage) {
	ctx, span := telemetry.TraceRequest(ctx, "inbound", method)
	defer span.End()
	l := c.log.WithMethod(method)
	defer func() {
		if p := recover(); p != nil {
			l.Error("request handler panicked", zap.Any("panic", p))
			if werr := c.sendResponse(id, nil, internalError(fmt.Errorf("%v", p))); werr != nil {
				l.Error("failed to write response", zap.Error(werr))
			}
		}
	}()

	result, rerr := c.handle(ctx, method, params, false)
	if werr := c.sendResponse(id, result, rerr); werr != nil {
		l.Error("failed to write response", zap.Error(werr))
	}
}

func (c *connection) serveNotification(ctx context.Context, method string, params json.RawMessage) {
	l := c.log.WithMethod(method)
	defer func() {
		if p := recover(); p != nil {
			l.Error("notification handler panicked", zap.Any("panic", p))
		}
	}()
	if _, rerr := c.handle(ctx, method, params, true); rerr != nil {
		l.Warn("notification handler error", zap.Error(rerr))
	}
}

// shutdown settles every still-pending outbound request with a
// transport error once the receive loop exits, so no caller blocked in
// sendRequest waits forever on a closed or broken stream.
func (c *connection) shutdown() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	pending := c.pending
	c.pending = make(map[int64]chan rawResponse)
	c.mu.Unlock()

	transportErr := NewRequestError(CodeInternalError, "connection closed before response received", nil)
	for _, ch := range pending {
		ch <- rawResponse{Error: transportErr}
	}
}

// Close cancels the receive loop and any in-flight request tasks
// (notifications run inline on the receive loop), waits for the request
// tasks to return, and settles pending outbound
// requests (via shutdown, triggered by the receive loop's exit).
//
// Cancelling the context alone cannot interrupt a read already blocked
// in the receive loop, so Close also closes the reader if it supports
// it, the same way an http.Server unblocks a blocked Accept/Read on
// shutdown.
func (c *connection) Close() error {
	c.cancel()
	if closer, ok := c.reader.(io.Closer); ok {
		_ = closer.Close()
	}
	return c.group.Wait()
}
