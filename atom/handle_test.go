/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package atom_test

import (
	"testing"

	"github.com/singnet/das-query-engine/atom"
)

func TestHandleRoundTrip(t *testing.T) {
	var h atom.Handle
	for i := range h {
		h[i] = byte(i)
	}
	s := h.String()
	got, err := atom.ParseHandle(s)
	if err != nil {
		t.Fatalf("ParseHandle: %v", err)
	}
	if got != h {
		t.Fatalf("round trip mismatch: got %v want %v", got, h)
	}
}

func TestParseHandleInvalid(t *testing.T) {
	cases := []string{"", "zz", "00112233"}
	for _, c := range cases {
		if _, err := atom.ParseHandle(c); err == nil {
			t.Fatalf("expected error for %q", c)
		}
	}
}

func TestSumOrderSensitive(t *testing.T) {
	var a, b atom.Handle
	a[0] = 1
	b[0] = 2
	s1 := atom.Sum([]atom.Handle{a, b})
	s2 := atom.Sum([]atom.Handle{b, a})
	if s1 == s2 {
		t.Fatalf("expected order-sensitive hash to differ")
	}
	s3 := atom.Sum([]atom.Handle{a, b})
	if s1 != s3 {
		t.Fatalf("expected deterministic hash")
	}
}

func TestFromContentDeterministicAndDistinct(t *testing.T) {
	h1 := atom.FromContent("Node", "Concept", "dog")
	h2 := atom.FromContent("Node", "Concept", "dog")
	if h1 != h2 {
		t.Fatal("expected FromContent to be deterministic")
	}
	h3 := atom.FromContent("Node", "Concept", "cat")
	if h1 == h3 {
		t.Fatal("expected distinct content to produce distinct handles")
	}
	// concatenation ambiguity: ("do","g") vs ("dog") must not collide
	h4 := atom.FromContent("Node", "Concept", "do", "g")
	if h1 == h4 {
		t.Fatal("expected separator to prevent part-boundary collisions")
	}
}
