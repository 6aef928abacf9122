/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
// Package remote implements the RemoteSink/RemoteIterator pair and the
// AnswerProcessor policies applied at a RemoteSink (spec.md §4.8-§4.9).
package remote

import (
	"context"
	"sync"

	"github.com/singnet/das-query-engine/answer"
	"github.com/singnet/das-query-engine/atom"
	"github.com/singnet/das-query-engine/cmn/nlog"
	"github.com/singnet/das-query-engine/collab"
	"github.com/singnet/das-query-engine/qchan"
	"github.com/singnet/das-query-engine/stats"
	"github.com/singnet/das-query-engine/transport"
)

// AnswerProcessor is a policy applied at RemoteSink to every answer that
// reaches the root of a query tree (spec.md §4.8).
type AnswerProcessor interface {
	Process(a answer.Answer)
	// Finished is called exactly once, when the input is exhausted, so a
	// processor can flush any buffered state (spec.md §4.8).
	Finished()
	Shutdown()
}

// HandlesForwardProcessor pushes every HandlesAnswer onto the wire
// channel addressed to the remote RemoteIterator, then sends the
// terminal marker on Finished (spec.md §4.8, grounded on
// original_source's HandlesAnswerProcessor).
type HandlesForwardProcessor struct {
	out qchan.NodeChannel
}

func NewHandlesForwardProcessor(localID, remoteID, peerAddr string, client *transport.Client) *HandlesForwardProcessor {
	return &HandlesForwardProcessor{out: qchan.NewWireSender(localID, remoteID, peerAddr, client)}
}

func (p *HandlesForwardProcessor) Process(a answer.Answer) {
	ha, ok := a.(*answer.HandlesAnswer)
	if !ok {
		return
	}
	if err := p.out.Push(ha); err != nil {
		nlog.Warningf("remote: handles forward: %v", err)
		return
	}
	stats.AnswerEmitted("handles")
}

func (p *HandlesForwardProcessor) Finished() { p.out.MarkFinished() }
func (p *HandlesForwardProcessor) Shutdown() { p.out.Shutdown() }

// CountProcessor counts every answer that reaches it and, on
// exhaustion, emits a single CountAnswer with the final tally
// (spec.md §4.8, grounded on original_source's CountAnswerProcessor).
type CountProcessor struct {
	out   qchan.NodeChannel
	count int64
}

func NewCountProcessor(localID, remoteID, peerAddr string, client *transport.Client) *CountProcessor {
	return &CountProcessor{out: qchan.NewWireSender(localID, remoteID, peerAddr, client)}
}

func (p *CountProcessor) Process(answer.Answer) { p.count++ }

func (p *CountProcessor) Finished() {
	if err := p.out.Push(&answer.CountAnswer{Count: p.count}); err != nil {
		nlog.Warningf("remote: count processor: %v", err)
	} else {
		stats.AnswerEmitted("count")
	}
	p.out.MarkFinished()
}

func (p *CountProcessor) Shutdown() { p.out.Shutdown() }

// attentionBatchSize bounds how many handles AttentionUpdateProcessor
// accumulates before flushing to the attention broker (spec.md §4.8:
// "every batch, sends the involved handles... to increment their
// importance").
const attentionBatchSize = 64

// AttentionUpdateProcessor forwards the handles and importances seen so
// far to an external AttentionBroker in batches, and on input exhaustion
// flushes whatever remains. It has no wire channel of its own - unlike
// HandlesForwardProcessor/CountProcessor, its job is a side effect, not
// producing a remote-visible answer stream.
type AttentionUpdateProcessor struct {
	ctx    context.Context
	dbCtx  string
	broker collab.AttentionBroker

	mu      sync.Mutex
	handles []atom.Handle
	weights []float64
}

func NewAttentionUpdateProcessor(ctx context.Context, dbCtx string, broker collab.AttentionBroker) *AttentionUpdateProcessor {
	return &AttentionUpdateProcessor{ctx: ctx, dbCtx: dbCtx, broker: broker}
}

func (p *AttentionUpdateProcessor) Process(a answer.Answer) {
	ha, ok := a.(*answer.HandlesAnswer)
	if !ok {
		return
	}
	p.mu.Lock()
	for _, h := range ha.Handles {
		p.handles = append(p.handles, h)
		p.weights = append(p.weights, ha.Importance)
	}
	due := len(p.handles) >= attentionBatchSize
	p.mu.Unlock()
	if due {
		p.flush()
	}
}

func (p *AttentionUpdateProcessor) Finished() { p.flush() }
func (p *AttentionUpdateProcessor) Shutdown() {}

func (p *AttentionUpdateProcessor) flush() {
	p.mu.Lock()
	handles, weights := p.handles, p.weights
	p.handles, p.weights = nil, nil
	p.mu.Unlock()
	if len(handles) == 0 {
		return
	}
	if err := p.broker.PushImportanceUpdate(p.ctx, p.dbCtx, handles, weights); err != nil {
		nlog.Warningf("remote: attention update: %v", err)
	}
}

var (
	_ AnswerProcessor = (*HandlesForwardProcessor)(nil)
	_ AnswerProcessor = (*CountProcessor)(nil)
	_ AnswerProcessor = (*AttentionUpdateProcessor)(nil)
)
