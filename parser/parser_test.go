/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package parser

import (
	"context"
	"testing"
	"time"

	"github.com/singnet/das-query-engine/answer"
	"github.com/singnet/das-query-engine/atom"
	"github.com/singnet/das-query-engine/collab"
	"github.com/singnet/das-query-engine/qtree"
)

func drain(sink *qtree.Sink, deadline time.Duration) []answer.Answer {
	var out []answer.Answer
	start := time.Now()
	for {
		if a, ok := sink.Pop(); ok {
			out = append(out, a)
			continue
		}
		if sink.Finished() || time.Since(start) > deadline {
			return out
		}
		time.Sleep(time.Millisecond)
	}
}

// TestParseAndExecuteAnd builds a two-clause AND from tokens, wires and
// runs it against a populated database, and checks the merged result -
// exercising the parser end to end, not just its return shape.
func TestParseAndExecuteAnd(t *testing.T) {
	db := collab.NewMemAtomDB()
	sim := atom.FromContent("Node", "Predicate", "sim")
	like := atom.FromContent("Node", "Predicate", "like")
	target := atom.FromContent("Node", "Concept", "shared")

	doc1 := atom.FromContent("Expression", sim.String(), target.String())
	db.Put(collab.AtomDocument{Handle: doc1, NamedType: "Expression", Targets: []atom.Handle{sim, target}, STI: 0.5})
	doc2 := atom.FromContent("Expression", like.String(), target.String())
	db.Put(collab.AtomDocument{Handle: doc2, NamedType: "Expression", Targets: []atom.Handle{like, target}, STI: 0.8})

	tokens := []string{
		"AND", "2",
		"LINK_TEMPLATE", "Expression", "2", "NODE", "Predicate", "sim", "VARIABLE", "x",
		"LINK_TEMPLATE", "Expression", "2", "NODE", "Predicate", "like", "VARIABLE", "x",
	}

	root, err := Parse(context.Background(), db, "", "q1", tokens)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	sink := qtree.NewSink("root", root)
	sink.SetupBuffers()
	sink.Start()

	got := drain(sink, 2*time.Second)
	sink.GracefulShutdown()

	if len(got) != 1 {
		t.Fatalf("got %d answers, want 1: %+v", len(got), got)
	}
	ha, ok := got[0].(*answer.HandlesAnswer)
	if !ok {
		t.Fatalf("answer is not a HandlesAnswer: %T", got[0])
	}
	bound, ok := ha.Assignment.Get("x")
	if !ok || bound != target {
		t.Errorf("x = %v (ok=%v), want %v", bound, ok, target)
	}
}

func TestParseZeroArityAndIsParseError(t *testing.T) {
	db := collab.NewMemAtomDB()
	tokens := []string{"AND", "0"}
	if _, err := Parse(context.Background(), db, "", "q2", tokens); err == nil {
		t.Fatal("expected ParseError for zero-arity AND, got nil")
	}
}

func TestParseUnknownTokenIsParseError(t *testing.T) {
	db := collab.NewMemAtomDB()
	tokens := []string{"BOGUS", "1", "2"}
	if _, err := Parse(context.Background(), db, "", "q3", tokens); err == nil {
		t.Fatal("expected ParseError for unknown clause token, got nil")
	}
}

func TestParseTrailingTokensIsParseError(t *testing.T) {
	db := collab.NewMemAtomDB()
	tokens := []string{
		"LINK_TEMPLATE", "Expression", "1", "VARIABLE", "x",
		"TRAILING",
	}
	if _, err := Parse(context.Background(), db, "", "q4", tokens); err == nil {
		t.Fatal("expected ParseError for trailing tokens, got nil")
	}
}

func TestParseArityOutOfBoundsIsParseError(t *testing.T) {
	db := collab.NewMemAtomDB()
	tokens := []string{"LINK_TEMPLATE", "Expression", "0"}
	if _, err := Parse(context.Background(), db, "", "q5", tokens); err == nil {
		t.Fatal("expected ParseError for zero arity LINK_TEMPLATE, got nil")
	}
}
