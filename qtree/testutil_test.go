/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package qtree

import (
	"time"

	"github.com/singnet/das-query-engine/answer"
	"github.com/singnet/das-query-engine/element"
)

// fakeLeaf is a scripted leaf clause used across qtree tests: it pushes
// a fixed sequence of answers, pausing `delay` between each, then marks
// its output finished.
type fakeLeaf struct {
	element.Base
	Source

	answers []answer.Answer
	delay   time.Duration
}

func newFakeLeaf(id string, answers ...answer.Answer) *fakeLeaf {
	f := &fakeLeaf{answers: answers}
	f.Init(id, true)
	return f
}

func (f *fakeLeaf) Start() {
	go func() {
		for _, a := range f.answers {
			if f.delay > 0 {
				time.Sleep(f.delay)
			}
			if err := f.out.Push(a); err != nil {
				return
			}
		}
		f.out.MarkFinished()
	}()
}

func (f *fakeLeaf) GracefulShutdown() {
	f.ShutdownOnce(func() {
		f.SetFlowFinished()
		if f.out != nil {
			f.out.Shutdown()
		}
	})
}

var _ element.Element = (*fakeLeaf)(nil)

// drainSink polls a Sink until it reports finished or deadline elapses,
// returning every answer popped so far.
func drainSink(pop func() (answer.Answer, bool), finished func() bool, deadline time.Duration) []answer.Answer {
	var out []answer.Answer
	start := time.Now()
	for {
		if a, ok := pop(); ok {
			out = append(out, a)
			continue
		}
		if finished() {
			return out
		}
		if time.Since(start) > deadline {
			return out
		}
		time.Sleep(time.Millisecond)
	}
}
