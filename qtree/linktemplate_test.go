/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package qtree

import (
	"context"
	"testing"
	"time"

	"github.com/singnet/das-query-engine/answer"
	"github.com/singnet/das-query-engine/atom"
	"github.com/singnet/das-query-engine/collab"
	"github.com/singnet/das-query-engine/qchan"
)

// concreteHandleTarget is a Target that matches only one exact handle,
// used to pin a template slot without round-tripping through Node's own
// content-addressing.
type concreteHandleTarget struct{ h atom.Handle }

func (c concreteHandleTarget) Slot(atom.Handle) (atom.Handle, string) { return c.h, "" }
func (c concreteHandleTarget) TemplateSlot() collab.TemplateSlot {
	return collab.TemplateSlot{Handle: c.h}
}
func (c concreteHandleTarget) Handle() atom.Handle { return c.h }

var (
	_ Target         = concreteHandleTarget{}
	_ ConcreteTarget = concreteHandleTarget{}
)

// drainChan polls a raw NodeChannel until it reports finished and empty.
func drainChan(ch qchan.NodeChannel, deadline time.Duration) []answer.Answer {
	var out []answer.Answer
	start := time.Now()
	for {
		if a, ok := ch.PopNonblocking(); ok {
			out = append(out, a)
			continue
		}
		if ch.IsFinished() && ch.IsEmpty() {
			return out
		}
		if time.Since(start) > deadline {
			return out
		}
		time.Sleep(time.Millisecond)
	}
}

func TestLinkTemplateMatchesAndRanks(t *testing.T) {
	db := collab.NewMemAtomDB()
	sim := atom.FromContent("Node", "Predicate", "Similarity")
	human := atom.FromContent("Node", "Concept", "human")
	chimp := atom.FromContent("Node", "Concept", "chimp")
	snake := atom.FromContent("Node", "Concept", "snake")

	simHumanChimp := atom.FromContent("Expression", sim.String(), human.String(), chimp.String())
	db.Put(collab.AtomDocument{Handle: simHumanChimp, NamedType: "Expression", Targets: []atom.Handle{sim, human, chimp}, STI: 0.4})
	simHumanSnake := atom.FromContent("Expression", sim.String(), human.String(), snake.String())
	db.Put(collab.AtomDocument{Handle: simHumanSnake, NamedType: "Expression", Targets: []atom.Handle{sim, human, snake}, STI: 0.9})

	lt := NewLinkTemplate(context.Background(), "LT1", "Expression",
		[]Target{concreteHandleTarget{sim}, concreteHandleTarget{human}, NewVariable("v")},
		"", true, db)

	ch := qchan.NewInProc("LT1", "root")
	lt.SetOutput(ch)
	lt.Start()

	got := drainChan(ch, 2*time.Second)

	if len(got) != 2 {
		t.Fatalf("got %d answers, want 2: %+v", len(got), got)
	}
	first, ok := got[0].(*answer.HandlesAnswer)
	if !ok || first.Importance != 0.9 {
		t.Fatalf("first answer = %+v, want importance 0.9 (snake match ranked first)", got[0])
	}
	bound, ok := first.Assignment.Get("v")
	if !ok || bound != snake {
		t.Errorf("first answer v = %v, want snake", bound)
	}
	second, ok := got[1].(*answer.HandlesAnswer)
	if !ok || second.Importance != 0.4 {
		t.Fatalf("second answer = %+v, want importance 0.4", got[1])
	}
}

func TestLinkTemplateNoMatchFinishesEmpty(t *testing.T) {
	db := collab.NewMemAtomDB()
	lt := NewLinkTemplate(context.Background(), "LT2", "Expression",
		[]Target{NewVariable("a"), NewVariable("b")}, "", false, db)
	ch := qchan.NewInProc("LT2", "root")
	lt.SetOutput(ch)
	lt.Start()

	got := drainChan(ch, 2*time.Second)
	if len(got) != 0 {
		t.Fatalf("got %d answers, want 0", len(got))
	}
}
