/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package qchan

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/singnet/das-query-engine/answer"
	"github.com/singnet/das-query-engine/cmn/cos"
	"github.com/singnet/das-query-engine/cmn/debug"
	"github.com/singnet/das-query-engine/cmn/nlog"
	"github.com/singnet/das-query-engine/qqueue"
	"github.com/singnet/das-query-engine/transport"
)

const (
	senderTick    = 5 * time.Millisecond
	maxBatchSize  = 256
)

// WireSender is the producer-side remote NodeChannel: pushed answers are
// tokenized and batched by a dedicated sender goroutine into
// QUERY_ANSWER_TOKENS_FLOW frames, with a terminal QUERY_ANSWERS_FINISHED
// sent once MarkFinished has been called and the outgoing buffer has
// drained (spec.md §4.2).
type WireSender struct {
	senderID, receiverID string
	peerAddr             string
	client               *transport.Client
	out                  *qqueue.Queue[answer.Answer]
	finished             atomic.Bool
	sentFinished         atomic.Bool
	stop                 cos.StopCh
	wg                   sync.WaitGroup
}

func NewWireSender(senderID, receiverID, peerAddr string, client *transport.Client) *WireSender {
	s := &WireSender{
		senderID: senderID, receiverID: receiverID, peerAddr: peerAddr,
		client: client, out: qqueue.New[answer.Answer](),
	}
	s.stop.Init()
	s.wg.Add(1)
	go s.run()
	return s
}

func (s *WireSender) SenderID() string   { return s.senderID }
func (s *WireSender) ReceiverID() string { return s.receiverID }

func (s *WireSender) Push(a answer.Answer) error {
	if s.finished.Load() {
		return cos.NewErrInvariantViolated("push on finished wire channel %s->%s", s.senderID, s.receiverID)
	}
	s.out.Enqueue(a)
	return nil
}

func (s *WireSender) PopNonblocking() (answer.Answer, bool) { return nil, false }

func (s *WireSender) MarkFinished() { s.finished.Store(true) }
func (s *WireSender) IsFinished() bool { return s.sentFinished.Load() }
func (s *WireSender) IsEmpty() bool    { return s.out.Empty() }

func (s *WireSender) Shutdown() {
	s.MarkFinished()
	s.stop.Close()
	s.wg.Wait()
}

func (s *WireSender) run() {
	defer s.wg.Done()
	ticker := time.NewTicker(senderTick)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop.Listen():
			s.flush()
			s.sendFinishedIfDue()
			return
		case <-ticker.C:
			s.flush()
			if s.sendFinishedIfDue() {
				return
			}
		}
	}
}

func (s *WireSender) flush() {
	var tokens []string
	for len(tokens) < maxBatchSize {
		a, ok := s.out.DequeueNonblocking()
		if !ok {
			break
		}
		tokens = append(tokens, tokenize(a))
	}
	if len(tokens) == 0 {
		return
	}
	frame := transport.NewAnswerTokensFlow(s.receiverID, tokens)
	s.client.SendBestEffort(s.peerAddr, frame)
}

// sendFinishedIfDue sends the terminal marker once MarkFinished has been
// observed and the outgoing buffer has fully drained; returns true once sent.
func (s *WireSender) sendFinishedIfDue() bool {
	if s.sentFinished.Load() {
		return true
	}
	if !s.finished.Load() || !s.out.Empty() {
		return false
	}
	s.client.SendBestEffort(s.peerAddr, transport.NewAnswersFinished(s.receiverID))
	s.sentFinished.Store(true)
	return true
}

func tokenize(a answer.Answer) string {
	switch v := a.(type) {
	case *answer.HandlesAnswer:
		return "H " + v.Tokenize()
	case *answer.CountAnswer:
		return "C " + v.Tokenize()
	default:
		debug.Assert(false, "unknown answer type")
		return ""
	}
}

func untokenize(tok string) (answer.Answer, error) {
	if len(tok) < 2 || tok[1] != ' ' {
		return nil, cos.NewErrParse("malformed wire token %q", tok)
	}
	switch tok[0] {
	case 'H':
		return answer.Untokenize(tok[2:])
	case 'C':
		return answer.UntokenizeCount(tok[2:])
	default:
		return nil, cos.NewErrParse("unknown answer tag in token %q", tok)
	}
}

var _ NodeChannel = (*WireSender)(nil)

// WireReceiver is the consumer-side remote NodeChannel: it implements
// transport.Receiver and is registered with a Listener under ReceiverID,
// so inbound frames addressed to it land directly in its local queue
// (spec.md §4.9 RemoteIterator "holds an incoming wire channel").
type WireReceiver struct {
	senderID, receiverID string
	in                   *qqueue.Queue[answer.Answer]
	finished             atomic.Bool
}

func NewWireReceiver(senderID, receiverID string) *WireReceiver {
	return &WireReceiver{senderID: senderID, receiverID: receiverID, in: qqueue.New[answer.Answer]()}
}

func (r *WireReceiver) SenderID() string   { return r.senderID }
func (r *WireReceiver) ReceiverID() string { return r.receiverID }

func (r *WireReceiver) Push(answer.Answer) error {
	return cos.NewErrInvariantViolated("direct push on wire receiver %s; use Deliver", r.receiverID)
}

func (r *WireReceiver) PopNonblocking() (answer.Answer, bool) { return r.in.DequeueNonblocking() }
func (r *WireReceiver) MarkFinished()                         { r.finished.Store(true) }
func (r *WireReceiver) IsFinished() bool                      { return r.finished.Load() }
func (r *WireReceiver) IsEmpty() bool                         { return r.in.Empty() }
func (r *WireReceiver) Shutdown()                             { r.finished.Store(true) }

// Deliver implements transport.Receiver: decode a frame into local answers.
func (r *WireReceiver) Deliver(f transport.Frame) {
	switch f.Kind {
	case transport.KindAnswerTokensFlow:
		for _, tok := range f.Args {
			a, err := untokenize(tok)
			if err != nil {
				nlog.Errorf("wire receiver %s: %v", r.receiverID, err)
				continue
			}
			r.in.Enqueue(a)
		}
	case transport.KindAnswersFinished:
		r.finished.Store(true)
	case transport.KindAbort:
		r.finished.Store(true)
	default:
		nlog.Warningf("wire receiver %s: unknown frame kind %q", r.receiverID, f.Kind)
	}
}

var _ NodeChannel = (*WireReceiver)(nil)
var _ transport.Receiver = (*WireReceiver)(nil)
