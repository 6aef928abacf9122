/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package qtree

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/singnet/das-query-engine/answer"
	"github.com/singnet/das-query-engine/atom"
	"github.com/singnet/das-query-engine/cmn/nlog"
	"github.com/singnet/das-query-engine/collab"
	"github.com/singnet/das-query-engine/element"
)

// originVariableName and destinyVariableName bind the first/last vertex
// of every path Chain reports (spec.md §4.6).
const (
	originVariableName  = "origin"
	destinyVariableName = "destiny"
)

// Chain is the single-input bidirectional best-first path search
// operator (spec.md §4.6). It treats each incoming answer's handles as
// announcing ternary links `(relation, a, b)` and indexes them into two
// heap-of-paths maps, keyed by the vertex each path's tail currently
// sits on, which two path-finder workers consume concurrently with the
// main worker that keeps indexing new input.
type Chain struct {
	Operator

	sourceHandle atom.Handle
	targetHandle atom.Handle

	db  collab.AtomDB
	ctx context.Context

	// knownLinks and reportedAnswers are touched only by the main
	// worker and the two path finders respectively; reportedAnswers
	// needs its own lock because both finders call reportPath
	// concurrently (spec.md §5 names And/Chain's visited/reported sets
	// as single-owner, but Chain's are shared across its three workers,
	// unlike And's single-worker case - this is the one place this
	// module adds a lock beyond what spec.md's concurrency note implies).
	knownLinks map[atom.Handle]bool

	reportedMu      sync.Mutex
	reportedAnswers map[uint64]bool

	sourceIndexMu sync.Mutex
	sourceIndex   map[atom.Handle]*pathHeap
	targetIndexMu sync.Mutex
	targetIndex   map[atom.Handle]*pathHeap

	allInputAcknowledged atomic.Bool
	allPathsExplored     atomic.Bool

	wg sync.WaitGroup
}

func NewChain(ctx context.Context, id string, clause element.Element, sourceHandle, targetHandle atom.Handle, db collab.AtomDB) *Chain {
	c := &Chain{
		sourceHandle:    sourceHandle,
		targetHandle:    targetHandle,
		db:              db,
		ctx:             ctx,
		knownLinks:      make(map[atom.Handle]bool),
		reportedAnswers: make(map[uint64]bool),
		sourceIndex:     make(map[atom.Handle]*pathHeap),
		targetIndex:     make(map[atom.Handle]*pathHeap),
	}
	c.initOperator(id, []element.Element{clause})
	return c
}

func (c *Chain) Start() {
	c.startPrecedents()
	c.wg.Add(3)
	go c.run()
	go c.runPathFinder(true)
	go c.runPathFinder(false)
}

func (c *Chain) GracefulShutdown() {
	c.ShutdownOnce(func() {
		c.gracefulShutdownScaffold(c.wg.Wait)
	})
}

// run is the main worker: it drains the single input channel, indexing
// every new link handle into the source/target heap maps (spec.md §4.6),
// and watches for the path finders declaring the search complete.
func (c *Chain) run() {
	defer c.wg.Done()
	for {
		if c.IsFlowFinished() {
			return
		}
		if c.allPathsExplored.Load() {
			c.output.MarkFinished()
			nlog.Infof("qtree: %s: all paths explored", c.ID())
			return
		}
		if c.allInputAcknowledged.Load() {
			time.Sleep(element.PollBackoff)
			continue
		}
		ans, ok := c.inputs[0].PopNonblocking()
		if !ok {
			if c.inputs[0].IsFinished() && c.inputs[0].IsEmpty() {
				c.allInputAcknowledged.Store(true)
			} else {
				time.Sleep(element.PollBackoff)
			}
			continue
		}
		ha, isHA := ans.(*answer.HandlesAnswer)
		if !isHA {
			nlog.Warningf("qtree: %s: unexpected answer type on input", c.ID())
			continue
		}
		c.indexAnswer(ha)
	}
}

// indexAnswer resolves every not-yet-seen handle in ha to its stored
// link document, requires arity 3 (relation, a, b), and pushes the
// resulting single-link path into both the source- and target-indexed
// heaps.
func (c *Chain) indexAnswer(ha *answer.HandlesAnswer) {
	for _, h := range ha.Handles {
		if c.knownLinks[h] {
			continue
		}
		c.knownLinks[h] = true
		doc, err := c.db.GetAtomDocument(c.ctx, h)
		if err != nil {
			nlog.Warningf("qtree: %s: get_atom_document(%s): %v", c.ID(), h, err)
			continue
		}
		if len(doc.Targets) != 3 {
			nlog.Errorf("qtree: %s: link %s has arity %d, want 3 for chain traversal", c.ID(), h, len(doc.Targets))
			continue
		}
		a, b := doc.Targets[1], doc.Targets[2]
		pl := pathLink{link: h, a: a, b: b, sti: ha.Importance}
		c.sourceHeapFor(a).Push(singletonPath(pl, true))
		c.targetHeapFor(b).Push(singletonPath(pl, false))
	}
}

func (c *Chain) sourceHeapFor(h atom.Handle) *pathHeap {
	c.sourceIndexMu.Lock()
	defer c.sourceIndexMu.Unlock()
	ph, ok := c.sourceIndex[h]
	if !ok {
		ph = newPathHeap()
		c.sourceIndex[h] = ph
	}
	return ph
}

func (c *Chain) targetHeapFor(h atom.Handle) *pathHeap {
	c.targetIndexMu.Lock()
	defer c.targetIndexMu.Unlock()
	ph, ok := c.targetIndex[h]
	if !ok {
		ph = newPathHeap()
		c.targetIndex[h] = ph
	}
	return ph
}

func (c *Chain) sourceIndexGet(h atom.Handle) *pathHeap {
	c.sourceIndexMu.Lock()
	defer c.sourceIndexMu.Unlock()
	return c.sourceIndex[h]
}

func (c *Chain) targetIndexGet(h atom.Handle) *pathHeap {
	c.targetIndexMu.Lock()
	defer c.targetIndexMu.Unlock()
	return c.targetIndex[h]
}

// runPathFinder repeatedly steps a forward or backward search until the
// whole operator's search is declared complete (spec.md §4.6).
func (c *Chain) runPathFinder(forward bool) {
	defer c.wg.Done()
	origin, destiny := c.sourceHandle, c.targetHandle
	getHeap := c.sourceIndexGet
	if !forward {
		origin, destiny = c.targetHandle, c.sourceHandle
		getHeap = c.targetIndexGet
	}
	for {
		if c.IsFlowFinished() || c.allPathsExplored.Load() {
			return
		}
		if !c.pathFinderStep(forward, origin, destiny, getHeap) {
			time.Sleep(element.PollBackoff)
		}
	}
}

// pathFinderStep runs one iteration of the bidirectional best-first
// search described in spec.md §4.6: pop the best path at the cursor,
// report it if it reaches destiny, otherwise extend it with every
// candidate at its endpoint, push each acyclic extension back, track and
// report the best extension, and advance the cursor to its endpoint.
// Returns whether a path was reported during this step, which the caller
// uses to decide whether to back off.
func (c *Chain) pathFinderStep(forward bool, origin, destiny atom.Handle, getHeap func(atom.Handle) *pathHeap) bool {
	cursor := origin
	visited := newPath(forward)

	for {
		baseHeap := getHeap(cursor)
		if baseHeap == nil || baseHeap.Empty() {
			if c.allInputAcknowledged.Load() {
				// Re-check under the heap's own lock to avoid racing a
				// concurrent push from the main worker.
				if recheck := getHeap(cursor); recheck == nil || recheck.Empty() {
					c.allPathsExplored.Store(true)
				}
			}
			break
		}

		previous, ok := baseHeap.PopTop()
		if !ok {
			break
		}

		if previous.endPoint() == destiny {
			c.reportPath(previous)
			visited.concatenate(previous)
			break
		}

		candidatesHeap := getHeap(previous.endPoint())
		if candidatesHeap == nil || candidatesHeap.Empty() {
			if !c.allInputAcknowledged.Load() {
				baseHeap.Push(previous)
			}
			break
		}

		candidates := candidatesHeap.Snapshot()
		bestSTI := -1.0
		var bestPath path
		var cursorNext atom.Handle
		found := false
		for _, candidate := range candidates {
			extended := previous.clone()
			extended.concatenate(candidate)
			if extended.hasCycle() {
				continue
			}
			baseHeap.Push(extended)
			if candidate.pathSTI > bestSTI {
				bestSTI = candidate.pathSTI
				bestPath = extended
				cursorNext = candidate.endPoint()
				found = true
			}
		}
		cursor = cursorNext
		if found && bestSTI > 0 {
			c.reportPath(bestPath)
			visited.concatenate(bestPath)
		}

		if !found || cursor.IsZero() || visited.contains(cursor) || cursor == destiny {
			break
		}
	}

	return !visited.empty()
}

// reportPath converts a completed or intermediate path into a
// HandlesAnswer and pushes it, deduplicating by the hash of its link
// handle sequence (spec.md §4.6).
func (c *Chain) reportPath(p path) {
	handles := p.handlesInOrder()
	hash := atom.Sum(handles)

	c.reportedMu.Lock()
	if c.reportedAnswers[hash] {
		c.reportedMu.Unlock()
		return
	}
	c.reportedAnswers[hash] = true
	c.reportedMu.Unlock()

	ha := answer.NewHandlesAnswer(p.pathSTI)
	for _, h := range handles {
		if err := ha.AddHandle(h); err != nil {
			nlog.Errorf("qtree: %s: %v", c.ID(), err)
			return
		}
	}
	origin, destiny := p.startPoint(), p.endPoint()
	if !p.forward {
		origin, destiny = destiny, origin
	}
	if _, err := ha.Assignment.Assign(originVariableName, origin); err != nil {
		nlog.Errorf("qtree: %s: %v", c.ID(), err)
		return
	}
	if _, err := ha.Assignment.Assign(destinyVariableName, destiny); err != nil {
		nlog.Errorf("qtree: %s: %v", c.ID(), err)
		return
	}
	if err := c.output.Push(ha); err != nil {
		nlog.Warningf("qtree: %s: push: %v", c.ID(), err)
	}
}

var _ element.Element = (*Chain)(nil)
