/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package qtree

import (
	"github.com/singnet/das-query-engine/answer"
	"github.com/singnet/das-query-engine/element"
	"github.com/singnet/das-query-engine/qchan"
)

// Sink is the root of a local query tree: it owns the root's inbound
// channel and exposes it as a local-language iterator (spec.md §4.8).
type Sink struct {
	element.Base

	precedent element.Element
	in        qchan.NodeChannel
}

func NewSink(id string, precedent element.Element) *Sink {
	s := &Sink{precedent: precedent}
	s.Init(id, true)
	return s
}

// SetupBuffers wires the precedent's output directly to this sink and
// recurses, mirroring Operator.SetupBuffers for a single precedent.
func (s *Sink) SetupBuffers() {
	ch := qchan.NewInProc(s.precedent.ID(), s.ID())
	if setter, ok := s.precedent.(outputSetter); ok {
		setter.SetOutput(ch)
	}
	s.in = ch
	s.precedent.SetSubsequentID(s.ID())
	s.precedent.SetupBuffers()
}

func (s *Sink) Start() { s.precedent.Start() }

// GracefulShutdown tears down the inbound channel before the precedent,
// matching original_source's Sink::graceful_shutdown ordering.
func (s *Sink) GracefulShutdown() {
	s.ShutdownOnce(func() {
		if s.in != nil {
			s.in.Shutdown()
		}
		s.precedent.GracefulShutdown()
	})
}

// Finished reports whether every answer this query will ever produce has
// already been popped (spec.md §4.9's finished() semantics, reused here
// for the local case).
func (s *Sink) Finished() bool { return s.in.IsFinished() && s.in.IsEmpty() }

// Pop returns the next available answer, or ok=false if none is
// currently buffered (not necessarily that the query is done - see
// Finished).
func (s *Sink) Pop() (answer.Answer, bool) { return s.in.PopNonblocking() }

var _ element.Element = (*Sink)(nil)
