/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package qchan

import (
	"sync/atomic"

	"github.com/singnet/das-query-engine/answer"
	"github.com/singnet/das-query-engine/cmn/cos"
	"github.com/singnet/das-query-engine/cmn/debug"
	"github.com/singnet/das-query-engine/qqueue"
)

// InProc is the zero-copy, in-process NodeChannel: a single Answer
// object crosses the channel without serialization (spec.md §4.2).
type InProc struct {
	senderID, receiverID string
	q                    *qqueue.Queue[answer.Answer]
	finished             atomic.Bool
	peerAlive            atomic.Bool
}

func NewInProc(senderID, receiverID string) *InProc {
	debug.Assert(senderID != "" && receiverID != "", "empty channel endpoint id")
	c := &InProc{senderID: senderID, receiverID: receiverID, q: qqueue.New[answer.Answer]()}
	c.peerAlive.Store(true)
	return c
}

func (c *InProc) SenderID() string   { return c.senderID }
func (c *InProc) ReceiverID() string { return c.receiverID }

// Push enqueues an answer. Pushing after MarkFinished is a programming
// error and a fatal InvariantViolated (spec.md §4.2).
func (c *InProc) Push(a answer.Answer) error {
	if c.finished.Load() {
		return cos.NewErrInvariantViolated("push on finished channel %s->%s", c.senderID, c.receiverID)
	}
	c.q.Enqueue(a)
	return nil
}

func (c *InProc) PopNonblocking() (answer.Answer, bool) { return c.q.DequeueNonblocking() }

// MarkFinished is idempotent (spec.md §4.2).
func (c *InProc) MarkFinished() { c.finished.Store(true) }

func (c *InProc) IsFinished() bool { return c.finished.Load() }
func (c *InProc) IsEmpty() bool    { return c.q.Empty() }

func (c *InProc) Shutdown() {
	c.MarkFinished()
	c.peerAlive.Store(false)
}

func (c *InProc) PeerAlive() bool { return c.peerAlive.Load() }

var _ NodeChannel = (*InProc)(nil)
