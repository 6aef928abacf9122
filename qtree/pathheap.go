/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package qtree

import (
	"container/heap"
	"sync"

	"github.com/singnet/das-query-engine/atom"
)

// pathLink is one traversed link: its own handle plus the two endpoint
// handles taken from its stored targets[1]/targets[2] (spec.md §4.6).
type pathLink struct {
	link atom.Handle
	a, b atom.Handle
	sti  float64
}

// path is an ordered sequence of pathLinks plus a direction flag and the
// running max-STI score (spec.md "Path" glossary entry).
type path struct {
	links   []pathLink
	pathSTI float64
	forward bool
}

func newPath(forward bool) path { return path{forward: forward} }

func singletonPath(pl pathLink, forward bool) path {
	return path{links: []pathLink{pl}, pathSTI: pl.sti, forward: forward}
}

func (p path) empty() bool { return len(p.links) == 0 }

func (p path) clone() path {
	return path{links: append([]pathLink(nil), p.links...), pathSTI: p.pathSTI, forward: p.forward}
}

// concatenate appends other's links after the receiver's and folds in
// other's path_sti via max, per the Path glossary entry.
func (p *path) concatenate(other path) {
	p.links = append(p.links, other.links...)
	if other.pathSTI > p.pathSTI {
		p.pathSTI = other.pathSTI
	}
}

func (p path) endPoint() atom.Handle {
	last := p.links[len(p.links)-1]
	if p.forward {
		return last.b
	}
	return last.a
}

func (p path) startPoint() atom.Handle {
	first := p.links[0]
	if p.forward {
		return first.a
	}
	return first.b
}

func (p path) contains(h atom.Handle) bool {
	for _, l := range p.links {
		if l.a == h || l.b == h {
			return true
		}
	}
	return false
}

// vertexSequence is the ordered list of vertices the path visits: its
// start point, then each link's far endpoint in traversal order.
func (p path) vertexSequence() []atom.Handle {
	if p.empty() {
		return nil
	}
	seq := make([]atom.Handle, 0, len(p.links)+1)
	seq = append(seq, p.startPoint())
	for _, l := range p.links {
		if p.forward {
			seq = append(seq, l.b)
		} else {
			seq = append(seq, l.a)
		}
	}
	return seq
}

// hasCycle reports whether the path revisits a vertex. The commented-out
// has_cycles() guard in the original path finder is taken as the intended
// behavior (resolved open question, see DESIGN.md): a path that would
// revisit a vertex is never pushed or reported.
func (p path) hasCycle() bool {
	seen := make(map[atom.Handle]bool, len(p.links)+1)
	for _, v := range p.vertexSequence() {
		if seen[v] {
			return true
		}
		seen[v] = true
	}
	return false
}

// handlesInOrder returns the link handles in traversal order: forward
// paths as stored, backward paths reversed, so a reported answer always
// reads source-to-target.
func (p path) handlesInOrder() []atom.Handle {
	out := make([]atom.Handle, len(p.links))
	if p.forward {
		for i, l := range p.links {
			out[i] = l.link
		}
	} else {
		n := len(p.links)
		for i, l := range p.links {
			out[n-1-i] = l.link
		}
	}
	return out
}

// pathHeapItems is a max-heap by path_sti (container/heap idiom, grounded
// on the teacher's transport/collect.go and on qtree.And's candidateHeap).
type pathHeapItems []path

func (h pathHeapItems) Len() int            { return len(h) }
func (h pathHeapItems) Less(i, j int) bool  { return h[i].pathSTI > h[j].pathSTI }
func (h pathHeapItems) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *pathHeapItems) Push(x any)         { *h = append(*h, x.(path)) }
func (h *pathHeapItems) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// pathHeap is a pathHeapItems guarded by its own lock (spec.md §5: "each
// heap holds its own lock; the outer HashMap<handle, Heap> holds a
// separate lock for insertion only").
type pathHeap struct {
	mu    sync.Mutex
	items pathHeapItems
}

func newPathHeap() *pathHeap { return &pathHeap{} }

func (h *pathHeap) Push(p path) {
	h.mu.Lock()
	heap.Push(&h.items, p)
	h.mu.Unlock()
}

func (h *pathHeap) PopTop() (path, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.items) == 0 {
		return path{}, false
	}
	return heap.Pop(&h.items).(path), true
}

func (h *pathHeap) Empty() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.items) == 0
}

// Snapshot returns a copy of the current contents without removing them,
// used by the path finder to consider every candidate at an endpoint
// without committing to popping any of them (spec.md §4.6 step iii).
func (h *pathHeap) Snapshot() []path {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]path, len(h.items))
	copy(out, h.items)
	return out
}
