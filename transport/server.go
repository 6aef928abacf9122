/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package transport

import (
	"strings"
	"sync"

	"github.com/valyala/fasthttp"

	"github.com/singnet/das-query-engine/cmn/nlog"
	"github.com/singnet/das-query-engine/stats"
)

// Receiver accepts frames addressed to one receiver id - implemented by
// the wire NodeChannel endpoint living inside this process.
type Receiver interface {
	Deliver(Frame)
}

// Listener is a per-process fasthttp server demultiplexing inbound
// frames, by ReceiverID, to locally registered Receivers (spec.md §5: "a
// listener thread per process for incoming wire messages").
type Listener struct {
	addr   string
	auth   *Authenticator
	srv    *fasthttp.Server
	mu     sync.RWMutex
	recvrs map[string]Receiver
}

func NewListener(addr string, auth *Authenticator) *Listener {
	l := &Listener{addr: addr, auth: auth, recvrs: make(map[string]Receiver)}
	l.srv = &fasthttp.Server{Handler: l.handle}
	return l
}

func (l *Listener) Register(receiverID string, r Receiver) {
	l.mu.Lock()
	l.recvrs[receiverID] = r
	l.mu.Unlock()
}

func (l *Listener) Unregister(receiverID string) {
	l.mu.Lock()
	delete(l.recvrs, receiverID)
	l.mu.Unlock()
}

// ListenAndServe blocks serving inbound frames until the listener is shut down.
func (l *Listener) ListenAndServe() error {
	nlog.Infof("transport: listening on %s", l.addr)
	return l.srv.ListenAndServe(l.addr)
}

func (l *Listener) Shutdown() error { return l.srv.Shutdown() }

func (l *Listener) handle(ctx *fasthttp.RequestCtx) {
	if !ctx.IsPost() || string(ctx.Path()) != "/v1/answers" {
		ctx.SetStatusCode(fasthttp.StatusNotFound)
		return
	}
	var frame Frame
	if err := json.Unmarshal(ctx.PostBody(), &frame); err != nil {
		ctx.SetStatusCode(fasthttp.StatusBadRequest)
		return
	}

	token := strings.TrimPrefix(string(ctx.Request.Header.Peek("Authorization")), "Bearer ")
	if err := l.auth.Verify(token, frame.ReceiverID); err != nil {
		nlog.Warningf("transport: rejecting frame: %v", err)
		ctx.SetStatusCode(fasthttp.StatusUnauthorized)
		return
	}

	l.mu.RLock()
	r, ok := l.recvrs[frame.ReceiverID]
	l.mu.RUnlock()
	if !ok {
		// The receiving NodeChannel may not have registered yet, or may
		// already have torn down; dropping is consistent with spec.md's
		// "no partial-delivery guarantees" under PeerUnreachable.
		nlog.Warningf("transport: no receiver registered for %q", frame.ReceiverID)
		ctx.SetStatusCode(fasthttp.StatusOK)
		return
	}
	r.Deliver(frame)
	stats.FramesReceived.Inc()
	ctx.SetStatusCode(fasthttp.StatusOK)
}
