/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package qtree

import "github.com/singnet/das-query-engine/qchan"

// Source is the shared scaffolding for every leaf QueryElement
// (LinkTemplate, Link): a single outgoing channel and nothing
// to recurse into at setup time (grounded on original_source's Source
// class, the common superclass of leaf elements that "expose a public
// API to interact with" their one upstream connection transparently).
type Source struct {
	out qchan.NodeChannel
}

func (s *Source) SetOutput(out qchan.NodeChannel) { s.out = out }

// SetupBuffers is a no-op: a leaf has no precedents to recurse into and
// its own channel is created and assigned by the parent operator
// (spec.md §4.7).
func (s *Source) SetupBuffers() {}
