/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package qtree

import (
	"sync"
	"time"

	"github.com/singnet/das-query-engine/answer"
	"github.com/singnet/das-query-engine/cmn/debug"
	"github.com/singnet/das-query-engine/cmn/nlog"
	"github.com/singnet/das-query-engine/element"
)

// Or emits every answer from every clause, descending by importance
// across clauses, without merging (spec.md §4.5).
type Or struct {
	Operator

	buf        [][]*answer.HandlesAnswer
	next       []int
	allArrived []bool
	emitted    int

	wg sync.WaitGroup
}

func NewOr(id string, clauses []element.Element) *Or {
	o := &Or{}
	o.initOperator(id, clauses)
	o.buf = make([][]*answer.HandlesAnswer, len(clauses))
	o.next = make([]int, len(clauses))
	o.allArrived = make([]bool, len(clauses))
	return o
}

func (o *Or) Start() {
	o.startPrecedents()
	o.wg.Add(1)
	go o.run()
}

func (o *Or) GracefulShutdown() {
	o.ShutdownOnce(func() {
		o.gracefulShutdownScaffold(o.wg.Wait)
	})
}

func (o *Or) run() {
	defer o.wg.Done()
	for {
		if o.IsFlowFinished() || o.output.IsFinished() {
			return
		}
		for {
			if o.IsFlowFinished() {
				return
			}
			got := o.ingest()
			if o.ready() {
				break
			}
			if !got {
				time.Sleep(element.PollBackoff)
			}
		}

		if o.processedAllInput() {
			if o.allInputsFinished() {
				o.output.MarkFinished()
				nlog.Infof("qtree: %s processed %d answers", o.ID(), o.emitted)
				return
			}
			time.Sleep(element.PollBackoff)
			continue
		}

		clause := o.selectClause()
		ha := o.buf[clause][o.next[clause]]
		o.next[clause]++
		o.emitted++
		if err := o.output.Push(ha); err != nil {
			nlog.Warningf("qtree: %s: push: %v", o.ID(), err)
			return
		}
	}
}

func (o *Or) ingest() bool {
	gotAny := false
	for i, in := range o.inputs {
		for {
			ans, ok := in.PopNonblocking()
			if !ok {
				break
			}
			ha, isHA := ans.(*answer.HandlesAnswer)
			if !isHA {
				nlog.Warningf("qtree: %s: unexpected answer type on input %d", o.ID(), i)
				continue
			}
			gotAny = true
			o.buf[i] = append(o.buf[i], ha)
		}
		if in.IsFinished() && in.IsEmpty() {
			o.allArrived[i] = true
		}
	}
	return gotAny
}

func (o *Or) ready() bool {
	for i := range o.buf {
		if !o.allArrived[i] && len(o.buf[i]) <= o.next[i]+1 {
			return false
		}
	}
	return true
}

func (o *Or) allInputsFinished() bool {
	for _, ok := range o.allArrived {
		if !ok {
			return false
		}
	}
	return true
}

func (o *Or) processedAllInput() bool {
	for i := range o.buf {
		if o.next[i] < len(o.buf[i]) {
			return false
		}
	}
	return true
}

func (o *Or) selectClause() int {
	best, bestImportance := -1, -1.0
	for i := range o.buf {
		if o.next[i] >= len(o.buf[i]) {
			continue
		}
		if imp := o.buf[i][o.next[i]].Importance; imp > bestImportance {
			bestImportance = imp
			best = i
		}
	}
	debug.Assert(best >= 0, "Or.selectClause called with no pending candidate")
	return best
}

var _ element.Element = (*Or)(nil)
