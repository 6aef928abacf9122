// Package element defines QueryElement, the abstract node type of a query
// tree (spec.md §3, §4.7). Concrete elements live in package qtree.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package element

import (
	"sync/atomic"
	"time"
)

// PollBackoff is the sleep used by element worker loops between
// non-blocking polls that found no work (spec.md §5).
const PollBackoff = 2 * time.Millisecond

// Element is the behavior every concrete query-tree node implements.
type Element interface {
	ID() string
	SubsequentID() string
	SetSubsequentID(id string)
	IsTerminal() bool

	// SetupBuffers wires channels using ID/SubsequentID, recursing into
	// precedents first (spec.md §3 QueryElement lifecycle).
	SetupBuffers()

	// Start spawns this element's worker goroutine(s).
	Start()

	// GracefulShutdown sets flow_finished, drains, and joins workers. Must
	// be idempotent (spec.md §8).
	GracefulShutdown()
}

// Base implements the flow_finished flag and id bookkeeping shared by
// every concrete element (spec.md §3).
type Base struct {
	id           string
	subsequentID string
	terminal     bool
	flowFinished atomic.Bool
	shutdownOnce int32
}

func (b *Base) Init(id string, terminal bool) {
	b.id = id
	b.terminal = terminal
}

func (b *Base) ID() string               { return b.id }
func (b *Base) SetID(id string)          { b.id = id }
func (b *Base) SubsequentID() string     { return b.subsequentID }
func (b *Base) SetSubsequentID(id string) { b.subsequentID = id }
func (b *Base) IsTerminal() bool         { return b.terminal }

func (b *Base) IsFlowFinished() bool { return b.flowFinished.Load() }
func (b *Base) SetFlowFinished()     { b.flowFinished.Store(true) }

// ShutdownOnce runs f exactly once across any number of concurrent
// GracefulShutdown calls, satisfying the idempotence requirement without
// each concrete element re-implementing the guard.
func (b *Base) ShutdownOnce(f func()) {
	if atomic.CompareAndSwapInt32(&b.shutdownOnce, 0, 1) {
		f()
	}
}
