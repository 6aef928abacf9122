// Package answer implements the value types carried through the query
// pipeline: Assignment, HandlesAnswer, CountAnswer, and their wire
// tokenization (spec.md §3, §4.2).
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package answer

import (
	"sort"
	"strings"

	"github.com/singnet/das-query-engine/atom"
	"github.com/singnet/das-query-engine/cmn/cos"
)

// MaxVariables bounds Assignment size (spec.md §3).
const MaxVariables = 100

// Assignment is an unordered set of variable_name -> Handle bindings.
type Assignment struct {
	bindings map[string]atom.Handle
}

func NewAssignment() *Assignment {
	return &Assignment{bindings: make(map[string]atom.Handle)}
}

// Assign succeeds if name is unbound or already bound to the same handle;
// fails (returns false) on an incompatible rebinding attempt.
func (a *Assignment) Assign(name string, h atom.Handle) (bool, error) {
	if a.bindings == nil {
		a.bindings = make(map[string]atom.Handle)
	}
	if existing, ok := a.bindings[name]; ok {
		return existing == h, nil
	}
	if len(a.bindings) >= MaxVariables {
		return false, cos.NewErrCapacityExceeded("assignment size", MaxVariables)
	}
	a.bindings[name] = h
	return true, nil
}

// Get returns the handle bound to name, if any.
func (a *Assignment) Get(name string) (atom.Handle, bool) {
	h, ok := a.bindings[name]
	return h, ok
}

func (a *Assignment) Len() int { return len(a.bindings) }

// IsCompatible reports whether no shared variable name maps to different handles.
func (a *Assignment) IsCompatible(other *Assignment) bool {
	for name, h := range a.bindings {
		if oh, ok := other.bindings[name]; ok && oh != h {
			return false
		}
	}
	return true
}

// Merge unions bindings from other into a new Assignment; legal only when
// compatible with the receiver (caller must check IsCompatible first, or
// use MergeChecked).
func (a *Assignment) Merge(other *Assignment) *Assignment {
	out := NewAssignment()
	for name, h := range a.bindings {
		out.bindings[name] = h
	}
	for name, h := range other.bindings {
		out.bindings[name] = h
	}
	return out
}

// MergeChecked merges other into a copy of the receiver, failing if incompatible.
func (a *Assignment) MergeChecked(other *Assignment) (*Assignment, bool) {
	if !a.IsCompatible(other) {
		return nil, false
	}
	return a.Merge(other), true
}

// Clone returns a shallow, independent copy (used when an answer is
// duplicated into two consumers - spec.md §3 Ownership).
func (a *Assignment) Clone() *Assignment {
	out := NewAssignment()
	for name, h := range a.bindings {
		out.bindings[name] = h
	}
	return out
}

// Names returns variable names in a deterministic (sorted) order, used for
// tokenization and for equality comparisons in tests.
func (a *Assignment) Names() []string {
	names := make([]string, 0, len(a.bindings))
	for n := range a.bindings {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (a *Assignment) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, n := range a.Names() {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(n)
		b.WriteString(": ")
		b.WriteString(a.bindings[n].String())
	}
	b.WriteByte('}')
	return b.String()
}

// Equal reports whether two assignments hold exactly the same bindings.
func (a *Assignment) Equal(other *Assignment) bool {
	if len(a.bindings) != len(other.bindings) {
		return false
	}
	for n, h := range a.bindings {
		if oh, ok := other.bindings[n]; !ok || oh != h {
			return false
		}
	}
	return true
}
