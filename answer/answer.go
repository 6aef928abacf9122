/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package answer

import (
	"github.com/singnet/das-query-engine/atom"
	"github.com/singnet/das-query-engine/cmn/cos"
)

// MaxHandles bounds the handle sequence length of a HandlesAnswer (spec.md §3).
const MaxHandles = 100

// Answer is the sum type carried through the pipeline: either a
// HandlesAnswer or a CountAnswer (spec.md §2).
type Answer interface {
	isAnswer()
}

// HandlesAnswer is an ordered sequence of handles, an Assignment, and an
// importance score in [0,1] (spec.md §3).
type HandlesAnswer struct {
	Handles    []atom.Handle
	Assignment *Assignment
	Importance float64
}

func (*HandlesAnswer) isAnswer() {}

func NewHandlesAnswer(importance float64) *HandlesAnswer {
	return &HandlesAnswer{Assignment: NewAssignment(), Importance: importance}
}

// AddHandle appends h unless already present, enforcing MaxHandles.
func (ha *HandlesAnswer) AddHandle(h atom.Handle) error {
	for _, existing := range ha.Handles {
		if existing == h {
			return nil
		}
	}
	if len(ha.Handles) >= MaxHandles {
		return cos.NewErrCapacityExceeded("handle sequence", MaxHandles)
	}
	ha.Handles = append(ha.Handles, h)
	return nil
}

// Copy returns a deep-enough copy (handles slice and assignment map are
// independent) so that branching into two consumers does not share state
// (spec.md §3 Ownership).
func (ha *HandlesAnswer) Copy() *HandlesAnswer {
	out := &HandlesAnswer{
		Handles:    append([]atom.Handle(nil), ha.Handles...),
		Assignment: ha.Assignment.Clone(),
		Importance: ha.Importance,
	}
	return out
}

// Merge attempts to merge other into the receiver in place: assignments
// must be compatible; on success, assignments are unioned, other's
// handles are appended in order skipping duplicates, and importance
// becomes max(self, other) - never grows via summation (spec.md §3).
func (ha *HandlesAnswer) Merge(other *HandlesAnswer) (bool, error) {
	merged, ok := ha.Assignment.MergeChecked(other.Assignment)
	if !ok {
		return false, nil
	}
	ha.Assignment = merged
	for _, h := range other.Handles {
		if err := ha.AddHandle(h); err != nil {
			return false, err
		}
	}
	if other.Importance > ha.Importance {
		ha.Importance = other.Importance
	}
	return true, nil
}

// CountAnswer carries a single non-negative integer; -1 denotes
// "undefined/not yet produced" (spec.md §3).
type CountAnswer struct {
	Count int64
}

func (*CountAnswer) isAnswer() {}

const CountUndefined int64 = -1
