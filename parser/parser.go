// Package parser turns a flat vector of prefix-notation tokens into a
// query tree whose channels are not yet set up and whose workers are not
// yet started (spec.md §4.10).
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package parser

import (
	"context"
	"strconv"

	"github.com/singnet/das-query-engine/cmn/cos"
	"github.com/singnet/das-query-engine/collab"
	"github.com/singnet/das-query-engine/element"
	"github.com/singnet/das-query-engine/qtree"
)

// MaxArity mirrors qtree.MaxArity: the parser rejects an encoded arity
// before ever reaching the N-ary constructors, so the out-of-bounds case
// is always a reported ParseError rather than the debug-only assertion
// those constructors also carry as a last line of defense.
const MaxArity = qtree.MaxArity

// cursor walks a token vector left to right, one grammar production at a
// time. The original's two-pass execution-stack/element-stack scheme
// (spec.md §4.10) precomputes child positions before building anything;
// here the tree is instead built directly by recursive descent, which is
// the idiomatic Go shape for the same grammar and produces byte-identical
// trees - see DESIGN.md for why this module takes that shape instead of
// literally replaying the two-pass bookkeeping.
type cursor struct {
	tokens []string
	pos    int
}

func (c *cursor) take() (string, error) {
	if c.pos >= len(c.tokens) {
		return "", cos.NewErrParse("unexpected end of token stream at position %d", c.pos)
	}
	tok := c.tokens[c.pos]
	c.pos++
	return tok, nil
}

func (c *cursor) takeInt() (int, error) {
	tok, err := c.take()
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(tok)
	if err != nil {
		return 0, cos.NewErrParse("expected integer, got %q", tok)
	}
	return n, nil
}

func (c *cursor) atEnd() bool { return c.pos >= len(c.tokens) }

// builder carries the collaborators and id-allocation state threaded
// through one parse.
type builder struct {
	ctx       context.Context
	db        collab.AtomDB
	dbContext string
	queryID   string
	seq       int
}

func (b *builder) nextID() string {
	b.seq++
	return b.queryID + ".n" + strconv.Itoa(b.seq)
}

// Parse builds a query tree rooted at one clause (LinkTemplate, Link,
// And, Or, or Chain) from tokens, per the grammar in spec.md §4.10 (CHAIN
// added as a supplement not spelled out there - see DESIGN.md). queryID
// seeds every generated element id, so wiring a tree twice from the same
// tokens under different queryIDs never collides.
func Parse(ctx context.Context, db collab.AtomDB, dbContext, queryID string, tokens []string) (element.Element, error) {
	b := &builder{ctx: ctx, db: db, dbContext: dbContext, queryID: queryID}
	c := &cursor{tokens: tokens}
	root, err := b.parseClause(c)
	if err != nil {
		return nil, err
	}
	if !c.atEnd() {
		return nil, cos.NewErrParse("%d trailing token(s) after root element", len(c.tokens)-c.pos)
	}
	return root, nil
}

func (b *builder) parseClause(c *cursor) (element.Element, error) {
	kind, err := c.take()
	if err != nil {
		return nil, err
	}
	switch kind {
	case "LINK_TEMPLATE":
		return b.parseLinkTemplate(c)
	case "LINK":
		return b.parseLink(c)
	case "AND":
		return b.parseAnd(c)
	case "OR":
		return b.parseOr(c)
	case "CHAIN":
		return b.parseChain(c)
	default:
		return nil, cos.NewErrParse("unknown clause token %q", kind)
	}
}

func (b *builder) parseLinkTemplate(c *cursor) (element.Element, error) {
	linkType, err := c.take()
	if err != nil {
		return nil, err
	}
	arity, err := c.takeInt()
	if err != nil {
		return nil, err
	}
	if arity < 1 || arity > MaxArity {
		return nil, cos.NewErrParse("LINK_TEMPLATE arity %d out of bounds [1,%d]", arity, MaxArity)
	}
	targets := make([]qtree.Target, arity)
	for i := 0; i < arity; i++ {
		t, err := b.parseTarget(c)
		if err != nil {
			return nil, err
		}
		targets[i] = t
	}
	return qtree.NewLinkTemplate(b.ctx, b.nextID(), linkType, targets, b.dbContext, true, b.db), nil
}

func (b *builder) parseLink(c *cursor) (element.Element, error) {
	linkType, err := c.take()
	if err != nil {
		return nil, err
	}
	arity, err := c.takeInt()
	if err != nil {
		return nil, err
	}
	if arity < 1 || arity > MaxArity {
		return nil, cos.NewErrParse("LINK arity %d out of bounds [1,%d]", arity, MaxArity)
	}
	targets := make([]qtree.ConcreteTarget, arity)
	for i := 0; i < arity; i++ {
		t, err := b.parseConcreteTarget(c)
		if err != nil {
			return nil, err
		}
		targets[i] = t
	}
	return qtree.NewLink(b.ctx, b.nextID(), linkType, targets, b.db), nil
}

func (b *builder) parseAnd(c *cursor) (element.Element, error) {
	clauses, err := b.parseClauseList(c, "AND")
	if err != nil {
		return nil, err
	}
	return qtree.NewAnd(b.nextID(), clauses), nil
}

func (b *builder) parseOr(c *cursor) (element.Element, error) {
	clauses, err := b.parseClauseList(c, "OR")
	if err != nil {
		return nil, err
	}
	return qtree.NewOr(b.nextID(), clauses), nil
}

// parseClauseList reads the shared `<n_clauses> C...` shape of AND and
// OR. A zero count is a ParseError (spec.md §8: "zero-arity input to
// And/Or is a ParseError"), caught here before qtree.NewAnd/NewOr's own
// debug-only assertion would ever see it.
func (b *builder) parseClauseList(c *cursor, kind string) ([]element.Element, error) {
	n, err := c.takeInt()
	if err != nil {
		return nil, err
	}
	if n < 1 || n > MaxArity {
		return nil, cos.NewErrParse("%s arity %d out of bounds [1,%d]", kind, n, MaxArity)
	}
	clauses := make([]element.Element, n)
	for i := 0; i < n; i++ {
		cl, err := b.parseClause(c)
		if err != nil {
			return nil, err
		}
		clauses[i] = cl
	}
	return clauses, nil
}

// parseChain reads `CHAIN <clause> NODE <type> <name> NODE <type> <name>`:
// one nested clause supplying the link stream to index, then the source
// and target vertices as concrete Node atoms (qtree.NewChain takes their
// handles directly, never a pattern).
func (b *builder) parseChain(c *cursor) (element.Element, error) {
	clause, err := b.parseClause(c)
	if err != nil {
		return nil, err
	}
	source, err := b.parseConcreteNode(c)
	if err != nil {
		return nil, err
	}
	target, err := b.parseConcreteNode(c)
	if err != nil {
		return nil, err
	}
	return qtree.NewChain(b.ctx, b.nextID(), clause, source.Handle(), target.Handle(), b.db), nil
}

func (b *builder) parseConcreteNode(c *cursor) (qtree.Node, error) {
	kind, err := c.take()
	if err != nil {
		return qtree.Node{}, err
	}
	if kind != "NODE" {
		return qtree.Node{}, cos.NewErrParse("expected NODE for CHAIN source/target, got %q", kind)
	}
	namedType, err := c.take()
	if err != nil {
		return qtree.Node{}, err
	}
	name, err := c.take()
	if err != nil {
		return qtree.Node{}, err
	}
	return qtree.NewNode(namedType, name), nil
}

// parseTarget reads one LinkTemplate target slot: NODE, VARIABLE, or a
// nested LINK_TEMPLATE pattern.
func (b *builder) parseTarget(c *cursor) (qtree.Target, error) {
	kind, err := c.take()
	if err != nil {
		return nil, err
	}
	switch kind {
	case "NODE":
		namedType, err := c.take()
		if err != nil {
			return nil, err
		}
		name, err := c.take()
		if err != nil {
			return nil, err
		}
		return qtree.NewNode(namedType, name), nil
	case "VARIABLE":
		name, err := c.take()
		if err != nil {
			return nil, err
		}
		return qtree.NewVariable(name), nil
	case "LINK_TEMPLATE":
		return b.parseNestedTemplate(c)
	default:
		return nil, cos.NewErrParse("unknown target token %q", kind)
	}
}

func (b *builder) parseNestedTemplate(c *cursor) (qtree.Target, error) {
	linkType, err := c.take()
	if err != nil {
		return nil, err
	}
	arity, err := c.takeInt()
	if err != nil {
		return nil, err
	}
	if arity < 1 || arity > MaxArity {
		return nil, cos.NewErrParse("nested LINK_TEMPLATE arity %d out of bounds [1,%d]", arity, MaxArity)
	}
	targets := make([]qtree.Target, arity)
	for i := 0; i < arity; i++ {
		t, err := b.parseTarget(c)
		if err != nil {
			return nil, err
		}
		targets[i] = t
	}
	return qtree.NestedTemplate{LinkType: linkType, Targets: targets}, nil
}

// parseConcreteTarget reads one Link target slot: NODE or a nested
// concrete LINK.
func (b *builder) parseConcreteTarget(c *cursor) (qtree.ConcreteTarget, error) {
	kind, err := c.take()
	if err != nil {
		return nil, err
	}
	switch kind {
	case "NODE":
		namedType, err := c.take()
		if err != nil {
			return nil, err
		}
		name, err := c.take()
		if err != nil {
			return nil, err
		}
		return qtree.NewNode(namedType, name), nil
	case "LINK":
		el, err := b.parseLink(c)
		if err != nil {
			return nil, err
		}
		return el.(*qtree.Link), nil
	default:
		return nil, cos.NewErrParse("unknown concrete target token %q", kind)
	}
}
