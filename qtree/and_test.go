/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package qtree

import (
	"testing"
	"time"

	"github.com/singnet/das-query-engine/answer"
	"github.com/singnet/das-query-engine/atom"
	"github.com/singnet/das-query-engine/element"
)

// mustHandlesAnswer builds a HandlesAnswer whose Handles entry is the
// matched link's own handle (matchedLink) - distinct, in general, from
// the handle a variable in that link is bound to (boundTo) - so that
// merging two clause answers that happen to bind the same variable to
// the same atom still yields two distinct entries in the merged
// Handles list, one per matched link.
func mustHandlesAnswer(t *testing.T, importance float64, varName string, boundTo, matchedLink atom.Handle) *answer.HandlesAnswer {
	t.Helper()
	ha := answer.NewHandlesAnswer(importance)
	if err := ha.AddHandle(matchedLink); err != nil {
		t.Fatalf("AddHandle: %v", err)
	}
	if varName != "" {
		if ok, err := ha.Assignment.Assign(varName, boundTo); err != nil || !ok {
			t.Fatalf("Assign: ok=%v err=%v", ok, err)
		}
	}
	return ha
}

// TestAndTwoClauseMerge covers spec.md §8 scenario 1: clause A emits
// {a: h1, imp 0.6} then {a: h2, imp 0.4}; clause B emits {a: h1, imp
// 0.9}. Only the {a: h1} candidates are compatible; the merged answer's
// importance is max(0.6, 0.9) = 0.9, and its handle list holds the two
// distinct matched-link handles contributed by each clause.
func TestAndTwoClauseMerge(t *testing.T) {
	h1 := atom.FromContent("Node", "Concept", "h1")
	h2 := atom.FromContent("Node", "Concept", "h2")
	linkA := atom.FromContent("Link", "Expression", "linkA")
	linkA2 := atom.FromContent("Link", "Expression", "linkA2")
	linkB := atom.FromContent("Link", "Expression", "linkB")

	clauseA := newFakeLeaf("A",
		mustHandlesAnswer(t, 0.6, "a", h1, linkA),
		mustHandlesAnswer(t, 0.4, "a", h2, linkA2),
	)
	clauseB := newFakeLeaf("B",
		mustHandlesAnswer(t, 0.9, "a", h1, linkB),
	)

	and := NewAnd("AND1", []element.Element{clauseA, clauseB})

	sink := NewSink("root", and)
	sink.SetupBuffers()
	sink.Start()

	got := drainSink(sink.Pop, sink.Finished, 2*time.Second)
	sink.GracefulShutdown()

	if len(got) != 1 {
		t.Fatalf("got %d answers, want 1: %+v", len(got), got)
	}
	ha, ok := got[0].(*answer.HandlesAnswer)
	if !ok {
		t.Fatalf("answer is not a HandlesAnswer: %T", got[0])
	}
	if ha.Importance != 0.9 {
		t.Errorf("importance = %v, want 0.9", ha.Importance)
	}
	if len(ha.Handles) != 2 || ha.Handles[0] != linkA || ha.Handles[1] != linkB {
		t.Errorf("handles = %v, want [linkA, linkB]", ha.Handles)
	}
	bound, ok := ha.Assignment.Get("a")
	if !ok || bound != h1 {
		t.Errorf("assignment[a] = %v, ok=%v, want h1", bound, ok)
	}
}
