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

func TestLinkEmitsDeterministicAnswer(t *testing.T) {
	db := collab.NewMemAtomDB()
	human := Node{NamedType: "Concept", Name: "human"}
	chimp := Node{NamedType: "Concept", Name: "chimp"}
	sim := atom.FromContent("Node", "Predicate", "Similarity")

	link := NewLink(context.Background(), "L1", "Expression",
		[]ConcreteTarget{concreteHandleTarget{sim}, human, chimp}, db)

	own := link.Handle()
	db.Put(collab.AtomDocument{Handle: own, NamedType: "Expression", STI: 0.7})

	ch := qchan.NewInProc("L1", "root")
	link.SetOutput(ch)
	link.Start()

	got := drainChan(ch, 2*time.Second)
	if len(got) != 1 {
		t.Fatalf("got %d answers, want 1: %+v", len(got), got)
	}
	ha, ok := got[0].(*answer.HandlesAnswer)
	if !ok {
		t.Fatalf("answer is not a HandlesAnswer: %T", got[0])
	}
	if ha.Importance != 0.7 {
		t.Errorf("importance = %v, want 0.7 (looked up from stored document)", ha.Importance)
	}
	wantHandles := []atom.Handle{own, sim, human.Handle(), chimp.Handle()}
	if len(ha.Handles) != len(wantHandles) {
		t.Fatalf("handles = %v, want %v", ha.Handles, wantHandles)
	}
	for i, h := range wantHandles {
		if ha.Handles[i] != h {
			t.Errorf("handles[%d] = %v, want %v", i, ha.Handles[i], h)
		}
	}
}

func TestLinkEmitsZeroImportanceWhenAbsentFromDB(t *testing.T) {
	db := collab.NewMemAtomDB()
	human := Node{NamedType: "Concept", Name: "human"}
	link := NewLink(context.Background(), "L2", "Expression", []ConcreteTarget{human}, db)

	ch := qchan.NewInProc("L2", "root")
	link.SetOutput(ch)
	link.Start()

	got := drainChan(ch, 2*time.Second)
	if len(got) != 1 {
		t.Fatalf("got %d answers, want 1", len(got))
	}
	ha := got[0].(*answer.HandlesAnswer)
	if ha.Importance != 0 {
		t.Errorf("importance = %v, want 0 (link absent from db)", ha.Importance)
	}
}
