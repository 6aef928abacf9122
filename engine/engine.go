// Package engine wires an inbound query/count command (spec.md §6) into
// a parsed, started query tree addressed back to its requester, and
// tracks it in qreg for later lookup and abort.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package engine

import (
	"context"
	"strings"
	"time"

	"github.com/singnet/das-query-engine/cmn/nlog"
	"github.com/singnet/das-query-engine/collab"
	"github.com/singnet/das-query-engine/element"
	"github.com/singnet/das-query-engine/parser"
	"github.com/singnet/das-query-engine/qreg"
	"github.com/singnet/das-query-engine/remote"
	"github.com/singnet/das-query-engine/stats"
	"github.com/singnet/das-query-engine/transport"
)

// Inbound/outbound ServiceBus command names (spec.md §6: "inbound query
// command" / "counting query" share one token shape; which forwarding
// policy to attach is resolved here by which command name carried the
// request - the one degree of freedom spec.md leaves unspecified beyond
// the token shape itself - see DESIGN.md).
const (
	CmdQuery         = "QUERY"
	CmdQueryCount    = "QUERY_COUNT"
	CmdQueryAccepted = "QUERY_ACCEPTED"
)

// Context carries every collaborator an executing query needs, threaded
// explicitly rather than reached through package-level singletons
// (Design Note 3).
type Context struct {
	DB        collab.AtomDB
	Attention collab.AttentionBroker
	Bus       collab.ServiceBus
	Client    *transport.Client
	Listener  *transport.Listener
}

// Engine answers inbound query/count commands on a ServiceBus.
type Engine struct {
	ctx *Context
}

func New(ctx *Context) *Engine { return &Engine{ctx: ctx} }

// Start subscribes the engine to its ServiceBus. Call once.
func (e *Engine) Start() { e.ctx.Bus.OnMessage(e.onMessage) }

func (e *Engine) onMessage(command string, args []string) {
	switch command {
	case CmdQuery:
		e.handleBusCommand(args, false)
	case CmdQueryCount:
		e.handleBusCommand(args, true)
	}
}

// splitRequestor unpacks a bus-addressable requestor token of the form
// "host:port@receiverID" into the peer address a RemoteIterator's
// Listener answers on and the receiver id its WireReceiver registered
// under. spec.md §6 specifies the command returns "an id the requester
// uses to open a RemoteIterator" but leaves unstated how the engine
// learns where to *address* that iterator's incoming frames; packing
// both into requestor_id lets streaming start immediately, with no
// second round trip (see DESIGN.md).
func splitRequestor(requestor string) (peerAddr, receiverID string, ok bool) {
	i := strings.LastIndexByte(requestor, '@')
	if i < 0 {
		return "", "", false
	}
	return requestor[:i], requestor[i+1:], true
}

func (e *Engine) handleBusCommand(args []string, counting bool) {
	if len(args) < 3 {
		nlog.Warningf("engine: malformed query command, %d args", len(args))
		return
	}
	requestor, dbContext, attnTok, tokens := args[0], args[1], args[2], args[3:]
	peerAddr, receiverID, ok := splitRequestor(requestor)
	if !ok {
		nlog.Warningf("engine: malformed requestor id %q", requestor)
		return
	}
	updateAttention := attnTok == "1"

	queryID, err := e.execute(context.Background(), peerAddr, receiverID, dbContext, updateAttention, counting, tokens)
	if err != nil {
		nlog.Warningf("engine: query rejected: %v", err)
		return
	}
	if err := e.ctx.Bus.Send(CmdQueryAccepted, []string{queryID}, requestor); err != nil {
		nlog.Warningf("engine: notifying requestor of query id: %v", err)
	}
}

// Execute parses tokens into a query tree and starts it, forwarding
// HandlesAnswers to (peerAddr, receiverID) as they arrive.
func (e *Engine) Execute(ctx context.Context, peerAddr, receiverID, dbContext string, updateAttention bool, tokens []string) (string, error) {
	return e.execute(ctx, peerAddr, receiverID, dbContext, updateAttention, false, tokens)
}

// ExecuteCount is Execute but attaches a CountProcessor: the
// RemoteIterator sees exactly one CountAnswer before finishing
// (spec.md §6 "Counting query").
func (e *Engine) ExecuteCount(ctx context.Context, peerAddr, receiverID, dbContext string, updateAttention bool, tokens []string) (string, error) {
	return e.execute(ctx, peerAddr, receiverID, dbContext, updateAttention, true, tokens)
}

func (e *Engine) execute(ctx context.Context, peerAddr, receiverID, dbContext string, updateAttention, counting bool, tokens []string) (string, error) {
	queryID := qreg.GenUUID()

	root, err := parser.Parse(ctx, e.ctx.DB, dbContext, queryID, tokens)
	if err != nil {
		return "", err
	}

	var processors []remote.AnswerProcessor
	if counting {
		processors = append(processors, remote.NewCountProcessor(queryID, receiverID, peerAddr, e.ctx.Client))
	} else {
		processors = append(processors, remote.NewHandlesForwardProcessor(queryID, receiverID, peerAddr, e.ctx.Client))
	}
	if updateAttention {
		processors = append(processors, remote.NewAttentionUpdateProcessor(ctx, dbContext, e.ctx.Attention))
	}

	rs := remote.NewRemoteSink(queryID, root, processors)
	rs.SetupBuffers()
	e.ctx.Listener.Register(queryID, rs)
	rs.Start()
	stats.QueryStarted()
	go e.reapWhenDone(rs)

	qreg.Register(sinkEntry{rs})
	return queryID, nil
}

// reapWhenDone unregisters rs from the Listener once its work is done,
// so a RemoteSink that finished (or was aborted) stops occupying a slot
// in the process-wide receiver map a stray late ABORT frame could still
// reach (harmlessly - Abort is idempotent - but needlessly).
func (e *Engine) reapWhenDone(rs *remote.RemoteSink) {
	for !rs.IsWorkDone() {
		time.Sleep(element.PollBackoff)
	}
	e.ctx.Listener.Unregister(rs.ID())
	stats.QueryFinished()
}

// sinkEntry adapts a *remote.RemoteSink to qreg.Entry.
type sinkEntry struct{ rs *remote.RemoteSink }

func (s sinkEntry) UUID() string   { return s.rs.ID() }
func (s sinkEntry) Finished() bool { return s.rs.IsWorkDone() }
func (s sinkEntry) Abort() {
	stats.Aborts.Inc()
	s.rs.Abort()
}

var _ qreg.Entry = sinkEntry{}
