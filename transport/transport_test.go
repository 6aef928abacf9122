/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package transport_test

import (
	"sync"
	"testing"
	"time"

	"github.com/singnet/das-query-engine/transport"
)

type recorder struct {
	mu     sync.Mutex
	frames []transport.Frame
}

func (r *recorder) Deliver(f transport.Frame) {
	r.mu.Lock()
	r.frames = append(r.frames, f)
	r.mu.Unlock()
}

func (r *recorder) snapshot() []transport.Frame {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]transport.Frame, len(r.frames))
	copy(out, r.frames)
	return out
}

func TestClientListenerRoundTrip(t *testing.T) {
	auth := transport.NewAuthenticator([]byte("test-secret"), time.Minute)
	ln := transport.NewListener("127.0.0.1:18990", auth)
	rec := &recorder{}
	ln.Register("iter-1", rec)

	go func() {
		if err := ln.ListenAndServe(); err != nil {
			t.Logf("listener stopped: %v", err)
		}
	}()
	defer ln.Shutdown()
	time.Sleep(50 * time.Millisecond)

	client := transport.NewClient(auth)
	if err := client.Send("127.0.0.1:18990", transport.NewAnswerTokensFlow("iter-1", []string{"H 0.5000000000 0"})); err != nil {
		t.Fatalf("send: %v", err)
	}
	if err := client.Send("127.0.0.1:18990", transport.NewAnswersFinished("iter-1")); err != nil {
		t.Fatalf("send finished: %v", err)
	}

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if len(rec.snapshot()) == 2 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	got := rec.snapshot()
	if len(got) != 2 {
		t.Fatalf("expected 2 delivered frames, got %d", len(got))
	}
	if got[0].Kind != transport.KindAnswerTokensFlow || got[1].Kind != transport.KindAnswersFinished {
		t.Fatalf("unexpected frame kinds: %+v", got)
	}
}

func TestListenerDropsFrameForUnregisteredReceiver(t *testing.T) {
	auth := transport.NewAuthenticator([]byte("test-secret"), time.Minute)
	ln := transport.NewListener("127.0.0.1:18991", auth)
	rec := &recorder{}
	ln.Register("iter-2", rec)

	go ln.ListenAndServe()
	defer ln.Shutdown()
	time.Sleep(50 * time.Millisecond)

	client := transport.NewClient(auth)
	// A validly authenticated frame addressed to an unregistered receiver
	// id must be dropped silently (200, no delivery), not panic.
	if err := client.Send("127.0.0.1:18991", transport.NewAnswerTokensFlow("not-registered", nil)); err != nil {
		t.Fatalf("send: %v", err)
	}
	time.Sleep(50 * time.Millisecond)
	if len(rec.snapshot()) != 0 {
		t.Fatalf("expected no delivery to unrelated receiver, got %d", len(rec.snapshot()))
	}
}

func TestAuthenticatorRejectsTamperedReceiver(t *testing.T) {
	auth := transport.NewAuthenticator([]byte("s3cr3t"), time.Minute)
	tok, err := auth.Sign("alice")
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if err := auth.Verify(tok, "alice"); err != nil {
		t.Fatalf("verify own token: %v", err)
	}
	if err := auth.Verify(tok, "bob"); err == nil {
		t.Fatal("expected verification failure for mismatched receiver id")
	}
}
