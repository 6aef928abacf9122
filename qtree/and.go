/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package qtree

import (
	"container/heap"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/singnet/das-query-engine/answer"
	"github.com/singnet/das-query-engine/cmn/nlog"
	"github.com/singnet/das-query-engine/element"
)

// And is the best-first merge operator (spec.md §4.4). It owns no locks:
// buf/next/border/visited are touched only by its single worker
// goroutine, per spec.md §5's shared-resource policy.
type And struct {
	Operator

	buf         [][]*answer.HandlesAnswer
	next        []int
	allArrived  []bool
	border      candidateHeap
	visited     map[string]bool
	emitted     int

	wg sync.WaitGroup
}

func NewAnd(id string, clauses []element.Element) *And {
	a := &And{visited: make(map[string]bool)}
	a.initOperator(id, clauses)
	a.buf = make([][]*answer.HandlesAnswer, len(clauses))
	a.next = make([]int, len(clauses))
	a.allArrived = make([]bool, len(clauses))
	return a
}

func (a *And) Start() {
	a.startPrecedents()
	a.wg.Add(1)
	go a.run()
}

func (a *And) GracefulShutdown() {
	a.ShutdownOnce(func() {
		a.gracefulShutdownScaffold(a.wg.Wait)
	})
}

type candidateRecord struct {
	index   []int
	fitness float64
}

// candidateHeap is a max-heap by fitness (container/heap idiom grounded
// on the teacher's transport/collect.go heap usage).
type candidateHeap []*candidateRecord

func (h candidateHeap) Len() int            { return len(h) }
func (h candidateHeap) Less(i, j int) bool  { return h[i].fitness > h[j].fitness }
func (h candidateHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *candidateHeap) Push(x any)         { *h = append(*h, x.(*candidateRecord)) }
func (h *candidateHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

func candidateKey(idx []int) string {
	var sb strings.Builder
	for i, v := range idx {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.Itoa(v))
	}
	return sb.String()
}

func (a *And) run() {
	defer a.wg.Done()
	for {
		if a.IsFlowFinished() || a.output.IsFinished() {
			return
		}
		for {
			if a.IsFlowFinished() {
				return
			}
			if got := a.ingest(); !got && !a.ready() {
				time.Sleep(element.PollBackoff)
			}
			if a.ready() {
				break
			}
		}

		if a.border.Len() == 0 {
			if a.allInputsFinished() && !a.canSeed() {
				a.output.MarkFinished()
				nlog.Infof("qtree: %s processed %d answers", a.ID(), a.emitted)
				return
			}
			if !a.canSeed() {
				time.Sleep(element.PollBackoff)
				continue
			}
			a.seed()
		}

		top := heap.Pop(&a.border).(*candidateRecord)
		a.operate(top)
		a.expand(top)
	}
}

// ingest drains every input's available answers into buf, updates
// allArrived, and reports whether anything new arrived this round
// (spec.md §4.4 step 1).
func (a *And) ingest() bool {
	gotAny := false
	for i, in := range a.inputs {
		for {
			ans, ok := in.PopNonblocking()
			if !ok {
				break
			}
			ha, isHA := ans.(*answer.HandlesAnswer)
			if !isHA {
				nlog.Warningf("qtree: %s: unexpected answer type on input %d", a.ID(), i)
				continue
			}
			gotAny = true
			a.buf[i] = append(a.buf[i], ha)
		}
		if in.IsFinished() && in.IsEmpty() {
			a.allArrived[i] = true
		}
	}
	return gotAny
}

func (a *And) ready() bool {
	for i := range a.buf {
		if !a.allArrived[i] && len(a.buf[i]) <= a.next[i]+1 {
			return false
		}
	}
	return true
}

func (a *And) allInputsFinished() bool {
	for _, ok := range a.allArrived {
		if !ok {
			return false
		}
	}
	return true
}

func (a *And) canSeed() bool {
	for i := range a.buf {
		if a.next[i] >= len(a.buf[i]) {
			return false
		}
	}
	return true
}

func (a *And) fitnessAt(idx []int) float64 {
	f := 1.0
	for i, ix := range idx {
		f *= a.buf[i][ix].Importance
	}
	return f
}

func (a *And) seed() {
	idx := make([]int, len(a.buf))
	for i := range a.buf {
		idx[i] = a.next[i]
		a.next[i]++
	}
	a.visited[candidateKey(idx)] = true
	heap.Push(&a.border, &candidateRecord{index: idx, fitness: a.fitnessAt(idx)})
}

// operate merges the candidate's N answers left-to-right; an incompatible
// merge discards the candidate silently (spec.md §4.4 step 4).
func (a *And) operate(c *candidateRecord) {
	merged := a.buf[0][c.index[0]].Copy()
	for i := 1; i < len(c.index); i++ {
		ok, err := merged.Merge(a.buf[i][c.index[i]])
		if err != nil || !ok {
			return
		}
	}
	a.emitted++
	if err := a.output.Push(merged); err != nil {
		nlog.Warningf("qtree: %s: push: %v", a.ID(), err)
	}
}

// expand pushes, for each axis, the candidate obtained by incrementing
// only that axis's index, skipping out-of-bounds or already-visited
// tuples (spec.md §4.4 step 5).
func (a *And) expand(c *candidateRecord) {
	for k := range c.index {
		newIdx := append([]int(nil), c.index...)
		newIdx[k]++
		if newIdx[k] >= len(a.buf[k]) {
			continue
		}
		if newIdx[k] == a.next[k] {
			a.next[k]++
		}
		key := candidateKey(newIdx)
		if a.visited[key] {
			continue
		}
		a.visited[key] = true
		heap.Push(&a.border, &candidateRecord{index: newIdx, fitness: a.fitnessAt(newIdx)})
	}
}

var _ element.Element = (*And)(nil)
