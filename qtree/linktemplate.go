/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package qtree

import (
	"context"
	"sort"

	"github.com/singnet/das-query-engine/answer"
	"github.com/singnet/das-query-engine/atom"
	"github.com/singnet/das-query-engine/cmn/nlog"
	"github.com/singnet/das-query-engine/collab"
	"github.com/singnet/das-query-engine/element"
)

// MaxArity is the parser/operator arity cap (spec.md §4.7, §4.10).
const MaxArity = 100

// LinkTemplate is the pattern-matching leaf (spec.md §4.3). It has no
// input channels: its one output stream is produced by a single query to
// AtomDB, then emitted, then finished.
type LinkTemplate struct {
	element.Base
	Source

	linkType string
	targets  []Target
	dbCtx    string
	rank     bool

	db  collab.AtomDB
	ctx context.Context
}

func NewLinkTemplate(ctx context.Context, id string, linkType string, targets []Target, dbCtx string, rank bool, db collab.AtomDB) *LinkTemplate {
	lt := &LinkTemplate{linkType: linkType, targets: targets, dbCtx: dbCtx, rank: rank, db: db, ctx: ctx}
	lt.Init(id, true)
	return lt
}

func (lt *LinkTemplate) Start() {
	go lt.run()
}

func (lt *LinkTemplate) GracefulShutdown() {
	lt.ShutdownOnce(func() {
		lt.SetFlowFinished()
		if lt.out != nil {
			lt.out.Shutdown()
		}
	})
}

type candidateMatch struct {
	link atom.Handle
	doc  collab.AtomDocument
}

func (lt *LinkTemplate) run() {
	defer lt.GracefulShutdown()

	tmpl := collab.Template{LinkType: lt.linkType, Slots: make([]collab.TemplateSlot, len(lt.targets))}
	for i, t := range lt.targets {
		tmpl.Slots[i] = t.TemplateSlot()
	}

	it, err := lt.db.MatchLinkTemplate(lt.ctx, tmpl, lt.dbCtx)
	if err != nil {
		nlog.Errorf("qtree: %s: match_link_template: %v", lt.ID(), err)
		return
	}
	defer it.Close()

	var matches []candidateMatch
	for {
		h, ok := it.Next()
		if !ok {
			break
		}
		if lt.IsFlowFinished() {
			return
		}
		doc, err := lt.db.GetAtomDocument(lt.ctx, h)
		if err != nil {
			nlog.Warningf("qtree: %s: get_atom_document(%s): %v", lt.ID(), h, err)
			continue
		}
		matches = append(matches, candidateMatch{link: h, doc: doc})
	}

	if lt.rank {
		sort.SliceStable(matches, func(i, j int) bool { return matches[i].doc.STI > matches[j].doc.STI })
	}

	for _, m := range matches {
		if lt.IsFlowFinished() {
			return
		}
		ha, ok := lt.buildAnswer(m)
		if !ok {
			continue
		}
		if err := lt.out.Push(ha); err != nil {
			nlog.Warningf("qtree: %s: push: %v", lt.ID(), err)
			return
		}
	}
	lt.out.MarkFinished()
}

// buildAnswer binds every target against the matched link's stored
// targets, recursing into NestedTemplate targets, and assembles the
// resulting HandlesAnswer.
func (lt *LinkTemplate) buildAnswer(m candidateMatch) (*answer.HandlesAnswer, bool) {
	if len(m.doc.Targets) != len(lt.targets) {
		return nil, false
	}
	ha := answer.NewHandlesAnswer(m.doc.STI)
	if err := ha.AddHandle(m.link); err != nil {
		return nil, false
	}
	for i, target := range lt.targets {
		targetHandle := m.doc.Targets[i]
		if nested, isNested := target.(NestedTemplate); isNested {
			bound, ok := matchNested(lt.ctx, lt.db, nested, targetHandle)
			if !ok {
				return nil, false
			}
			for name, h := range bound {
				if ok, err := ha.Assignment.Assign(name, h); err != nil || !ok {
					return nil, false
				}
			}
		} else {
			resolved, name := target.Slot(targetHandle)
			if resolved != targetHandle {
				// concrete Node target did not match the stored target
				return nil, false
			}
			if name != "" {
				if ok, err := ha.Assignment.Assign(name, targetHandle); err != nil || !ok {
					return nil, false
				}
			}
		}
		if err := ha.AddHandle(targetHandle); err != nil {
			return nil, false
		}
	}
	return ha, true
}

// matchNested recursively verifies handle against a nested link pattern,
// returning the variable bindings contributed by the nested match.
func matchNested(ctx context.Context, db collab.AtomDB, tmpl NestedTemplate, handle atom.Handle) (map[string]atom.Handle, bool) {
	doc, err := db.GetAtomDocument(ctx, handle)
	if err != nil || doc.NamedType != tmpl.LinkType || len(doc.Targets) != len(tmpl.Targets) {
		return nil, false
	}
	bound := make(map[string]atom.Handle)
	for i, target := range tmpl.Targets {
		targetHandle := doc.Targets[i]
		if nested, isNested := target.(NestedTemplate); isNested {
			inner, ok := matchNested(ctx, db, nested, targetHandle)
			if !ok {
				return nil, false
			}
			for k, v := range inner {
				bound[k] = v
			}
			continue
		}
		resolved, name := target.Slot(targetHandle)
		if resolved != targetHandle {
			return nil, false
		}
		if name != "" {
			bound[name] = targetHandle
		}
	}
	return bound, true
}

var _ element.Element = (*LinkTemplate)(nil)
