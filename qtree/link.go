/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package qtree

import (
	"context"

	"github.com/singnet/das-query-engine/answer"
	"github.com/singnet/das-query-engine/atom"
	"github.com/singnet/das-query-engine/cmn/nlog"
	"github.com/singnet/das-query-engine/collab"
	"github.com/singnet/das-query-engine/element"
)

// ConcreteTarget is a fully-resolved Link target: a Node, or another
// concrete Link nested one level (spec.md §4.10 grammar allows LINK as a
// clause in its own right). Unlike Target, it carries no Variable case -
// "concrete" is precisely the absence of free variables.
type ConcreteTarget interface {
	Handle() atom.Handle
}

var (
	_ ConcreteTarget = Node{}
	_ ConcreteTarget = (*Link)(nil)
)

// Link is the concrete-link leaf (spec.md §4.10: `LINK <type> <arity>
// T...`). Its handle is content-addressed from its type and target
// handles, so it never needs an AtomDB round trip to know its own
// identity - only to confirm the link exists and to learn its stored
// importance, which is best-effort: a Link for an atom absent from the
// database still emits its single deterministic answer at importance 0.
type Link struct {
	element.Base
	Source

	linkType string
	targets  []ConcreteTarget

	db  collab.AtomDB
	ctx context.Context
}

func NewLink(ctx context.Context, id, linkType string, targets []ConcreteTarget, db collab.AtomDB) *Link {
	l := &Link{linkType: linkType, targets: targets, db: db, ctx: ctx}
	l.Init(id, true)
	return l
}

func (l *Link) Handle() atom.Handle {
	parts := make([]string, 0, len(l.targets)+1)
	parts = append(parts, l.linkType)
	for _, t := range l.targets {
		parts = append(parts, t.Handle().String())
	}
	return atom.FromContent(parts...)
}

func (l *Link) Start() { go l.run() }

func (l *Link) GracefulShutdown() {
	l.ShutdownOnce(func() {
		l.SetFlowFinished()
		if l.out != nil {
			l.out.Shutdown()
		}
	})
}

func (l *Link) run() {
	defer l.GracefulShutdown()
	if l.IsFlowFinished() {
		return
	}

	own := l.Handle()
	importance := 0.0
	if doc, err := l.db.GetAtomDocument(l.ctx, own); err == nil {
		importance = doc.STI
	}

	ha := answer.NewHandlesAnswer(importance)
	if err := ha.AddHandle(own); err != nil {
		nlog.Errorf("qtree: %s: %v", l.ID(), err)
		return
	}
	for _, t := range l.targets {
		if err := ha.AddHandle(t.Handle()); err != nil {
			nlog.Errorf("qtree: %s: %v", l.ID(), err)
			return
		}
	}
	if err := l.out.Push(ha); err != nil {
		nlog.Warningf("qtree: %s: push: %v", l.ID(), err)
		return
	}
	l.out.MarkFinished()
}

var _ element.Element = (*Link)(nil)
