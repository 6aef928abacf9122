// Package collab defines the external collaborator interfaces the query
// engine core consumes - the atom database, the attention broker, and the
// service bus - plus in-memory reference implementations for tests and
// single-process operation (spec.md §6; out of scope for the core itself).
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package collab

import (
	"context"

	"github.com/singnet/das-query-engine/atom"
)

// AtomDocument is the read-only view of one atom (spec.md §6
// get_atom_document). STI is the atom's own importance, consulted by
// LinkTemplate when it is asked to rank matches by importance - the
// AttentionBroker interface below is fire-and-forget only, so ranking
// reads flow through the document instead.
type AtomDocument struct {
	Handle    atom.Handle
	NamedType string
	Name      string
	Targets   []atom.Handle
	STI       float64
}

// TemplateSlot is one position in a link template: either a concrete
// handle to match exactly, or a variable (any handle matches, and the
// match is reported so And/Or/LinkTemplate can bind it).
type TemplateSlot struct {
	Handle     atom.Handle
	IsVariable bool
	Variable   string
}

// Template is a link pattern: a type plus N target slots (spec.md §4.3).
type Template struct {
	LinkType string
	Slots    []TemplateSlot
}

// MatchIterator streams link handles matching a Template. Implementations
// may be backed by a live database cursor; Close releases any such
// resource and must be safe to call multiple times.
type MatchIterator interface {
	Next() (atom.Handle, bool)
	Close()
}

// AtomDB is the read-only document/handle oracle the core queries
// against (spec.md §6). Implementations must be safe for concurrent use:
// many LinkTemplate leaves query it in parallel.
type AtomDB interface {
	GetAtomDocument(ctx context.Context, h atom.Handle) (AtomDocument, error)
	QueryForTargets(ctx context.Context, h atom.Handle) ([]atom.Handle, error)
	MatchLinkTemplate(ctx context.Context, tmpl Template, dbContext string) (MatchIterator, error)
}
