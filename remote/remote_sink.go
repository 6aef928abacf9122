/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package remote

import (
	"sync"
	"time"

	"github.com/singnet/das-query-engine/element"
	"github.com/singnet/das-query-engine/qtree"
	"github.com/singnet/das-query-engine/stats"
	"github.com/singnet/das-query-engine/transport"
)

// RemoteSink is the root of a query tree whose answers are destined for
// a remote caller: it wraps a local Sink with a background worker that
// runs every configured AnswerProcessor over each delivered answer
// (spec.md §4.8).
type RemoteSink struct {
	sink       *qtree.Sink
	processors []AnswerProcessor

	abort     chan struct{}
	abortOnce sync.Once
	wg        sync.WaitGroup

	shutdownOnce sync.Once
	workDone     bool
	workDoneMu   sync.Mutex
}

func NewRemoteSink(id string, precedent element.Element, processors []AnswerProcessor) *RemoteSink {
	return &RemoteSink{
		sink:       qtree.NewSink(id, precedent),
		processors: processors,
		abort:      make(chan struct{}),
	}
}

func (rs *RemoteSink) ID() string                { return rs.sink.ID() }
func (rs *RemoteSink) SubsequentID() string      { return rs.sink.SubsequentID() }
func (rs *RemoteSink) SetSubsequentID(id string) { rs.sink.SetSubsequentID(id) }
func (rs *RemoteSink) IsTerminal() bool          { return rs.sink.IsTerminal() }
func (rs *RemoteSink) SetupBuffers()             { rs.sink.SetupBuffers() }

func (rs *RemoteSink) Start() {
	rs.sink.Start()
	rs.wg.Add(1)
	go rs.run()
}

func (rs *RemoteSink) run() {
	defer rs.wg.Done()
	aborted := false
loop:
	for {
		select {
		case <-rs.abort:
			aborted = true
			break loop
		default:
		}
		if rs.sink.Finished() {
			break
		}
		idle := true
		for {
			a, ok := rs.sink.Pop()
			if !ok {
				break
			}
			for _, p := range rs.processors {
				p.Process(a)
			}
			idle = false
		}
		if idle {
			time.Sleep(element.PollBackoff)
		}
	}
	if !aborted {
		for _, p := range rs.processors {
			p.Finished()
		}
	}
	rs.workDoneMu.Lock()
	rs.workDone = true
	rs.workDoneMu.Unlock()
}

// IsWorkDone reports whether every processor has observed input
// exhaustion (or abort) and flushed (spec.md §4.8 "transitions to
// 'work done'").
func (rs *RemoteSink) IsWorkDone() bool {
	rs.workDoneMu.Lock()
	defer rs.workDoneMu.Unlock()
	return rs.workDone
}

// Abort stops the worker loop early without waiting for the tree to
// finish on its own, then tears the whole subtree down. The original's
// "all element workers poll an abort flag" is implemented here as the
// same graceful_shutdown cascade already used for normal completion,
// rather than a second, parallel abort-flag broadcast mechanism (see
// DESIGN.md).
func (rs *RemoteSink) Abort() {
	rs.abortOnce.Do(func() { close(rs.abort) })
	rs.GracefulShutdown()
}

func (rs *RemoteSink) GracefulShutdown() {
	rs.shutdownOnce.Do(func() {
		rs.wg.Wait()
		rs.sink.GracefulShutdown()
		for _, p := range rs.processors {
			p.Shutdown()
		}
	})
}

// Deliver implements transport.Receiver: a RemoteSink is registered with
// its process's Listener under its own id so a remote RemoteIterator can
// reach it with an abort frame (spec.md §4.9).
func (rs *RemoteSink) Deliver(f transport.Frame) {
	if f.Kind == transport.KindAbort {
		stats.Aborts.Inc()
		rs.Abort()
	}
}

var (
	_ element.Element    = (*RemoteSink)(nil)
	_ transport.Receiver = (*RemoteSink)(nil)
)
