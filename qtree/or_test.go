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

// TestOrTwoClauseDescendingImportance covers spec.md §8 scenario 2: the
// same two clauses as the AND scenario, but under OR every answer is
// emitted (no merge), in descending importance order: (h1,0.9),
// (h1,0.6), (h2,0.4).
func TestOrTwoClauseDescendingImportance(t *testing.T) {
	h1 := atom.FromContent("Node", "Concept", "h1")
	h2 := atom.FromContent("Node", "Concept", "h2")

	clauseA := newFakeLeaf("A",
		mustHandlesAnswer(t, 0.6, "a", h1, h1),
		mustHandlesAnswer(t, 0.4, "a", h2, h2),
	)
	clauseB := newFakeLeaf("B",
		mustHandlesAnswer(t, 0.9, "a", h1, h1),
	)

	or := NewOr("OR1", []element.Element{clauseA, clauseB})
	sink := NewSink("root", or)
	sink.SetupBuffers()
	sink.Start()

	got := drainSink(sink.Pop, sink.Finished, 2*time.Second)
	sink.GracefulShutdown()

	if len(got) != 3 {
		t.Fatalf("got %d answers, want 3: %+v", len(got), got)
	}
	wantImportance := []float64{0.9, 0.6, 0.4}
	wantHandle := []atom.Handle{h1, h1, h2}
	for i, a := range got {
		ha, ok := a.(*answer.HandlesAnswer)
		if !ok {
			t.Fatalf("answer %d is not a HandlesAnswer: %T", i, a)
		}
		if ha.Importance != wantImportance[i] {
			t.Errorf("answer %d importance = %v, want %v", i, ha.Importance, wantImportance[i])
		}
		if len(ha.Handles) != 1 || ha.Handles[0] != wantHandle[i] {
			t.Errorf("answer %d handles = %v, want [%v]", i, ha.Handles, wantHandle[i])
		}
	}
}
