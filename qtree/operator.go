/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package qtree

import (
	"strconv"
	"time"

	"github.com/singnet/das-query-engine/cmn/debug"
	"github.com/singnet/das-query-engine/element"
	"github.com/singnet/das-query-engine/qchan"
)

// shutdownSettleDelay is the brief pause graceful_shutdown gives workers
// to observe flow_finished before their channels are torn down under
// them (spec.md §4.7, §5).
const shutdownSettleDelay = 5 * time.Millisecond

// outputSetter is implemented by every concrete leaf/operator that
// produces a single outgoing stream, so Operator can wire a precedent's
// output without knowing its concrete type.
type outputSetter interface {
	SetOutput(qchan.NodeChannel)
}

// Operator is the shared scaffolding for And and Or (spec.md §4.7): N
// named input channels `<id>_0 .. <id>_{N-1}`, one outgoing channel to
// the element's own subsequent_id.
type Operator struct {
	element.Base

	precedents []element.Element
	inputs     []qchan.NodeChannel
	output     qchan.NodeChannel
}

func (op *Operator) initOperator(id string, precedents []element.Element) {
	debug.Assert(len(precedents) >= 1 && len(precedents) <= MaxArity, "operator arity out of bounds")
	op.Init(id, false)
	op.precedents = precedents
	op.inputs = make([]qchan.NodeChannel, len(precedents))
}

func (op *Operator) SetOutput(out qchan.NodeChannel) { op.output = out }

// startPrecedents starts every precedent's worker(s), depth-first,
// mirroring SetupBuffers's recursion (spec.md §3: "one or more worker
// threads are spawned in start()" - for a tree, that means the whole
// subtree, not just this element).
func (op *Operator) startPrecedents() {
	for _, p := range op.precedents {
		p.Start()
	}
}

// SetupBuffers wires one InProc channel per precedent and recurses into
// each, depth-first (spec.md §4.7).
func (op *Operator) SetupBuffers() {
	for i, p := range op.precedents {
		chID := op.ID() + "_" + strconv.Itoa(i)
		ch := qchan.NewInProc(p.ID(), chID)
		if setter, ok := p.(outputSetter); ok {
			setter.SetOutput(ch)
		}
		op.inputs[i] = ch
		p.SetSubsequentID(chID)
		p.SetupBuffers()
	}
}

// gracefulShutdownScaffold implements the Operator-shared half of
// graceful_shutdown: children first, then the flag, then (after workerWait
// lets the And/Or/Chain-specific worker observe it) the channels
// (spec.md §3 "destruction is deterministic and bottom-up").
func (op *Operator) gracefulShutdownScaffold(workerWait func()) {
	for _, p := range op.precedents {
		p.GracefulShutdown()
	}
	op.SetFlowFinished()
	time.Sleep(shutdownSettleDelay)
	if workerWait != nil {
		workerWait()
	}
	if op.output != nil {
		op.output.Shutdown()
	}
	for _, in := range op.inputs {
		in.Shutdown()
	}
}
