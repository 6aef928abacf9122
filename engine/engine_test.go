/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package engine

import (
	"context"
	"testing"
	"time"

	"github.com/singnet/das-query-engine/answer"
	"github.com/singnet/das-query-engine/atom"
	"github.com/singnet/das-query-engine/collab"
	"github.com/singnet/das-query-engine/qchan"
	"github.com/singnet/das-query-engine/qreg"
	"github.com/singnet/das-query-engine/transport"
)

func newTestEngine(t *testing.T, addr string) (*Engine, *collab.LocalBus) {
	t.Helper()
	qreg.TestInit()

	auth := transport.NewAuthenticator([]byte("engine-test-secret"), time.Minute)
	ln := transport.NewListener(addr, auth)
	go ln.ListenAndServe()
	t.Cleanup(func() { ln.Shutdown() })
	time.Sleep(50 * time.Millisecond)

	client := transport.NewClient(auth)
	bus := collab.NewLocalBus()

	db := collab.NewMemAtomDB()
	sim := atom.FromContent("Node", "Predicate", "sim")
	target := atom.FromContent("Node", "Concept", "shared")
	doc := atom.FromContent("Expression", sim.String(), target.String())
	db.Put(collab.AtomDocument{Handle: doc, NamedType: "Expression", Targets: []atom.Handle{sim, target}, STI: 0.6})

	e := New(&Context{
		DB:        db,
		Attention: collab.NopAttentionBroker{},
		Bus:       bus,
		Client:    client,
		Listener:  ln,
	})
	e.Start()
	return e, bus
}

func drainWire(recv *qchan.WireReceiver, deadline time.Duration) []answer.Answer {
	var out []answer.Answer
	start := time.Now()
	for {
		if a, ok := recv.PopNonblocking(); ok {
			out = append(out, a)
			continue
		}
		if recv.IsFinished() && recv.IsEmpty() {
			return out
		}
		if time.Since(start) > deadline {
			return out
		}
		time.Sleep(time.Millisecond)
	}
}

// TestBusQueryDeliversAnswerOverWire drives the engine the way a live
// deployment would: a ServiceBus command carrying a requestor token,
// context, attention flag, and prefix tokens, checked by receiving the
// forwarded HandlesAnswer on a real wire-registered receiver.
func TestBusQueryDeliversAnswerOverWire(t *testing.T) {
	addr := "127.0.0.1:18993"
	e, bus := newTestEngine(t, addr)

	clientAuth := transport.NewAuthenticator([]byte("engine-test-secret"), time.Minute)
	clientLn := transport.NewListener("127.0.0.1:18994", clientAuth)
	go clientLn.ListenAndServe()
	t.Cleanup(func() { clientLn.Shutdown() })
	time.Sleep(50 * time.Millisecond)

	recv := qchan.NewWireReceiver("", "iter1")
	clientLn.Register("iter1", recv)

	var accepted []string
	bus.OnMessage(func(command string, args []string) {
		if command == CmdQueryAccepted {
			accepted = append(accepted, args[0])
		}
	})

	args := []string{
		"127.0.0.1:18994@iter1", "", "0",
		"LINK_TEMPLATE", "Expression", "2", "NODE", "Predicate", "sim", "VARIABLE", "x",
	}
	if err := bus.Send(CmdQuery, args, ""); err != nil {
		t.Fatalf("bus.Send: %v", err)
	}

	got := drainWire(recv, 3*time.Second)
	if len(got) != 1 {
		t.Fatalf("got %d answers over the wire, want 1: %+v", len(got), got)
	}
	ha, ok := got[0].(*answer.HandlesAnswer)
	if !ok {
		t.Fatalf("answer is not a HandlesAnswer: %T", got[0])
	}
	if ha.Importance != 0.6 {
		t.Errorf("importance = %v, want 0.6", ha.Importance)
	}
	if len(accepted) != 1 {
		t.Fatalf("got %d QUERY_ACCEPTED notices, want 1", len(accepted))
	}
	if _, ok := qreg.Find(accepted[0]); !ok {
		t.Errorf("accepted queryID %q not found in qreg", accepted[0])
	}
	_ = e
}

// TestExecuteCountEmitsSingleCountAnswer exercises the in-process
// Execute/ExecuteCount entry points directly, bypassing the bus.
func TestExecuteCountEmitsSingleCountAnswer(t *testing.T) {
	addr := "127.0.0.1:18995"
	e, _ := newTestEngine(t, addr)

	clientAuth := transport.NewAuthenticator([]byte("engine-test-secret"), time.Minute)
	clientLn := transport.NewListener("127.0.0.1:18996", clientAuth)
	go clientLn.ListenAndServe()
	t.Cleanup(func() { clientLn.Shutdown() })
	time.Sleep(50 * time.Millisecond)

	recv := qchan.NewWireReceiver("", "iter2")
	clientLn.Register("iter2", recv)

	tokens := []string{"LINK_TEMPLATE", "Expression", "2", "NODE", "Predicate", "sim", "VARIABLE", "x"}
	queryID, err := e.ExecuteCount(context.Background(), "127.0.0.1:18996", "iter2", "", false, tokens)
	if err != nil {
		t.Fatalf("ExecuteCount: %v", err)
	}
	if queryID == "" {
		t.Fatal("ExecuteCount returned an empty queryID")
	}

	got := drainWire(recv, 3*time.Second)
	if len(got) != 1 {
		t.Fatalf("got %d answers, want 1 CountAnswer: %+v", len(got), got)
	}
	ca, ok := got[0].(*answer.CountAnswer)
	if !ok {
		t.Fatalf("answer is not a CountAnswer: %T", got[0])
	}
	if ca.Count != 1 {
		t.Errorf("count = %d, want 1", ca.Count)
	}
}
