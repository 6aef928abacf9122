// Package qtree implements the concrete QueryElement tree: leaves
// (LinkTemplate, Link, with Node and Variable as target values inside
// them), the shared leaf scaffolding (Source), logic operators (And, Or,
// Chain), and the root element (Sink) (spec.md §3-§4).
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package qtree

import (
	"github.com/singnet/das-query-engine/atom"
	"github.com/singnet/das-query-engine/collab"
)

// Target is one position in a LinkTemplate: a concrete Node, an
// unbound Variable, or a nested LinkTemplate (spec.md §4.3). Node and
// Variable never spawn workers or own channels of their own - they are
// pattern data carried by value inside the leaf that references them -
// so Target is intentionally narrower than element.Element.
type Target interface {
	// Slot resolves this target against a matched link's corresponding
	// stored target handle: returns the handle to record (the target's
	// own handle for Node, the matched handle for Variable and nested
	// templates) and, when this target binds a variable, its name.
	Slot(matched atom.Handle) (handle atom.Handle, variable string)
	// TemplateSlot builds the AtomDB query-side slot description.
	TemplateSlot() collab.TemplateSlot
}

// Node is a concrete, content-addressed atom reference.
type Node struct {
	NamedType string
	Name      string
}

func NewNode(namedType, name string) Node { return Node{NamedType: namedType, Name: name} }

func (n Node) Handle() atom.Handle { return atom.FromContent("Node", n.NamedType, n.Name) }

func (n Node) Slot(atom.Handle) (atom.Handle, string) { return n.Handle(), "" }

func (n Node) TemplateSlot() collab.TemplateSlot {
	return collab.TemplateSlot{Handle: n.Handle()}
}

var _ Target = Node{}

// Variable is an unbound pattern slot; it matches any handle and records
// the binding in the emitted Assignment.
type Variable struct {
	Name string
}

func NewVariable(name string) Variable { return Variable{Name: name} }

func (v Variable) Slot(matched atom.Handle) (atom.Handle, string) { return matched, v.Name }

func (v Variable) TemplateSlot() collab.TemplateSlot {
	return collab.TemplateSlot{IsVariable: true, Variable: v.Name}
}

var _ Target = Variable{}

// NestedTemplate is a target that is itself a link pattern (spec.md §4.3:
// "each target is ... a nested LinkTemplate"). AtomDB's MatchLinkTemplate
// only understands flat per-slot handles/variables, so at the top-level
// query a NestedTemplate slot is submitted as a variable (any handle
// matches); LinkTemplate then recursively verifies each candidate's
// corresponding target against the nested pattern via GetAtomDocument,
// merging any nested variable bindings, and discards candidates that
// don't recursively match.
type NestedTemplate struct {
	LinkType string
	Targets  []Target
}

func (n NestedTemplate) Slot(matched atom.Handle) (atom.Handle, string) { return matched, "" }

func (n NestedTemplate) TemplateSlot() collab.TemplateSlot {
	return collab.TemplateSlot{IsVariable: true, Variable: ""}
}

var _ Target = NestedTemplate{}
