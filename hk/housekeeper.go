// Package hk provides a mechanism for registering cleanup callbacks that
// are invoked at (and re-scheduled at) specified intervals - used by the
// query registry to sweep finished, idle queries off the hot path.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package hk

import (
	"container/heap"
	"sync"
	"time"

	"github.com/singnet/das-query-engine/cmn/debug"
)

// CleanupFunc runs on its interval and returns the delay until its next run.
// Returning a non-positive duration uses the interval given at registration.
type CleanupFunc func() time.Duration

type request struct {
	name     string
	f        CleanupFunc
	interval time.Duration
	due      time.Time
	index    int
}

// heap of pending requests, soonest-due first
type dueHeap []*request

func (h dueHeap) Len() int            { return len(h) }
func (h dueHeap) Less(i, j int) bool  { return h[i].due.Before(h[j].due) }
func (h dueHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i]; h[i].index, h[j].index = i, j }
func (h *dueHeap) Push(x any)         { r := x.(*request); r.index = len(*h); *h = append(*h, r) }
func (h *dueHeap) Pop() any {
	old := *h
	n := len(old)
	r := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return r
}

type Housekeeper struct {
	mu      sync.Mutex
	byName  map[string]*request
	pending dueHeap
	wake    chan struct{}
	started chan struct{}
	stop    chan struct{}
}

var DefaultHK = New()

func New() *Housekeeper {
	return &Housekeeper{
		byName:  make(map[string]*request),
		wake:    make(chan struct{}, 1),
		started: make(chan struct{}),
		stop:    make(chan struct{}),
	}
}

// TestInit resets the default Housekeeper; used by tests to get a clean slate.
func TestInit() { DefaultHK = New() }

func WaitStarted() { <-DefaultHK.started }

// Reg registers fn to run every interval, starting after the first interval elapses.
func (hk *Housekeeper) Reg(name string, f CleanupFunc, interval time.Duration) {
	debug.Assert(interval > 0, "non-positive hk interval for ", name)
	hk.mu.Lock()
	r := &request{name: name, f: f, interval: interval, due: time.Now().Add(interval)}
	hk.byName[name] = r
	heap.Push(&hk.pending, r)
	hk.mu.Unlock()
	hk.kick()
}

func (hk *Housekeeper) Unreg(name string) {
	hk.mu.Lock()
	if r, ok := hk.byName[name]; ok {
		heap.Remove(&hk.pending, r.index)
		delete(hk.byName, name)
	}
	hk.mu.Unlock()
}

func (hk *Housekeeper) kick() {
	select {
	case hk.wake <- struct{}{}:
	default:
	}
}

func (hk *Housekeeper) Run() {
	close(hk.started)
	for {
		hk.mu.Lock()
		var timer *time.Timer
		if len(hk.pending) > 0 {
			d := time.Until(hk.pending[0].due)
			if d < 0 {
				d = 0
			}
			timer = time.NewTimer(d)
		}
		hk.mu.Unlock()

		var timerC <-chan time.Time
		if timer != nil {
			timerC = timer.C
		}

		select {
		case <-hk.stop:
			if timer != nil {
				timer.Stop()
			}
			return
		case <-hk.wake:
			if timer != nil {
				timer.Stop()
			}
		case <-timerC:
		}
		hk.runDue()
	}
}

func (hk *Housekeeper) runDue() {
	now := time.Now()
	for {
		hk.mu.Lock()
		if len(hk.pending) == 0 || hk.pending[0].due.After(now) {
			hk.mu.Unlock()
			return
		}
		r := heap.Pop(&hk.pending).(*request)
		hk.mu.Unlock()

		next := r.f()
		if next <= 0 {
			next = r.interval
		}
		hk.mu.Lock()
		if _, ok := hk.byName[r.name]; ok { // not unregistered meanwhile
			r.due = now.Add(next)
			heap.Push(&hk.pending, r)
		}
		hk.mu.Unlock()
	}
}

func (hk *Housekeeper) Stop() {
	select {
	case <-hk.stop:
	default:
		close(hk.stop)
	}
}
