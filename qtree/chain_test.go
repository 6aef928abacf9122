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
)

func handleSeqKey(handles []atom.Handle) string {
	s := ""
	for _, h := range handles {
		s += h.String() + ","
	}
	return s
}

// TestChainFindsBothPaths covers spec.md §8 scenario 4: a link stream
// announcing (rel,S,X), (rel,X,Y), (rel,Y,T), (rel,S,T); with
// source=S, target=T the iterator must observe both [S->T] and
// [S->X->Y->T] reported, each exactly once.
func TestChainFindsBothPaths(t *testing.T) {
	db := collab.NewMemAtomDB()
	rel := atom.FromContent("Node", "Predicate", "rel")
	s := atom.FromContent("Node", "Concept", "S")
	x := atom.FromContent("Node", "Concept", "X")
	y := atom.FromContent("Node", "Concept", "Y")
	tt := atom.FromContent("Node", "Concept", "T")

	mkLink := func(a, b atom.Handle) atom.Handle {
		h := atom.FromContent("Expression", rel.String(), a.String(), b.String())
		db.Put(collab.AtomDocument{Handle: h, NamedType: "Expression", Targets: []atom.Handle{rel, a, b}})
		return h
	}
	linkSX := mkLink(s, x)
	linkXY := mkLink(x, y)
	linkYT := mkLink(y, tt)
	linkST := mkLink(s, tt)

	clause := newFakeLeaf("L",
		mustHandlesAnswer(t, 0.5, "", atom.Handle{}, linkSX),
		mustHandlesAnswer(t, 0.5, "", atom.Handle{}, linkXY),
		mustHandlesAnswer(t, 0.5, "", atom.Handle{}, linkYT),
		mustHandlesAnswer(t, 0.9, "", atom.Handle{}, linkST),
	)

	ch := NewChain(context.Background(), "CHAIN1", clause, s, tt, db)
	sink := NewSink("root", ch)
	sink.SetupBuffers()
	sink.Start()

	got := drainSink(sink.Pop, sink.Finished, 3*time.Second)
	sink.GracefulShutdown()

	directKey := handleSeqKey([]atom.Handle{linkST})
	chainKey := handleSeqKey([]atom.Handle{linkSX, linkXY, linkYT})

	// Chain also reports intermediate partial paths as it extends them
	// (spec.md §4.6 step iii) - e.g. [S->X->Y], whose destiny is Y, not
	// T. Only the two completed paths (origin S, destiny T) are
	// constrained here; every emitted answer is still tallied by handle
	// sequence so the completed-path counts below are exact.
	seen := make(map[string]int)
	for _, a := range got {
		ha, ok := a.(*answer.HandlesAnswer)
		if !ok {
			t.Fatalf("answer is not a HandlesAnswer: %T", a)
		}
		key := handleSeqKey(ha.Handles)
		seen[key]++
		if key != directKey && key != chainKey {
			continue
		}
		origin, ok := ha.Assignment.Get(originVariableName)
		if !ok || origin != s {
			t.Errorf("reported path origin = %v (ok=%v), want S", origin, ok)
		}
		destiny, ok := ha.Assignment.Get(destinyVariableName)
		if !ok || destiny != tt {
			t.Errorf("reported path destiny = %v (ok=%v), want T", destiny, ok)
		}
	}

	if seen[directKey] != 1 {
		t.Errorf("direct path [S->T] reported %d times, want exactly 1", seen[directKey])
	}
	if seen[chainKey] != 1 {
		t.Errorf("chained path [S->X->Y->T] reported %d times, want exactly 1", seen[chainKey])
	}
}
