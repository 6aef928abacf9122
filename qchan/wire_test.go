/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package qchan_test

import (
	"testing"
	"time"

	"github.com/singnet/das-query-engine/answer"
	"github.com/singnet/das-query-engine/atom"
	"github.com/singnet/das-query-engine/qchan"
	"github.com/singnet/das-query-engine/transport"
)

func TestWireSenderReceiverRoundTrip(t *testing.T) {
	auth := transport.NewAuthenticator([]byte("wire-test-secret"), time.Minute)
	addr := "127.0.0.1:18992"
	ln := transport.NewListener(addr, auth)

	recv := qchan.NewWireReceiver("producer", "consumer")
	ln.Register("consumer", recv)

	go ln.ListenAndServe()
	defer ln.Shutdown()
	time.Sleep(50 * time.Millisecond)

	client := transport.NewClient(auth)
	sender := qchan.NewWireSender("producer", "consumer", addr, client)
	defer sender.Shutdown()

	ha := answer.NewHandlesAnswer(0.75)
	var h atom.Handle
	h[0] = 0x42
	if err := ha.AddHandle(h); err != nil {
		t.Fatalf("add handle: %v", err)
	}
	if err := sender.Push(ha); err != nil {
		t.Fatalf("push: %v", err)
	}
	sender.MarkFinished()

	deadline := time.Now().Add(2 * time.Second)
	var got answer.Answer
	var ok bool
	for time.Now().Before(deadline) {
		got, ok = recv.PopNonblocking()
		if ok {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if !ok {
		t.Fatal("timed out waiting for delivered answer")
	}
	gotHA, isHA := got.(*answer.HandlesAnswer)
	if !isHA {
		t.Fatalf("expected *answer.HandlesAnswer, got %T", got)
	}
	if gotHA.Importance != 0.75 || len(gotHA.Handles) != 1 || gotHA.Handles[0] != h {
		t.Fatalf("unexpected delivered answer: %+v", gotHA)
	}

	for time.Now().Before(deadline) {
		if recv.IsFinished() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("receiver never observed finished marker")
}
