// Package cos - error types shared by the query engine's packages.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package cos

import (
	"errors"
	"fmt"
	"sync"
)

type (
	// ErrNotFound reports a lookup miss without coupling callers to a
	// specific collaborator's error type (AtomDB, registry, ...).
	ErrNotFound struct {
		what string
	}
	// ErrInvariantViolated is fatal: a defect the caller must treat as
	// grounds to abort the containing query (spec §7, InvariantViolated).
	ErrInvariantViolated struct {
		what string
	}
	// ErrCapacityExceeded reports a synchronous, local capacity failure
	// (spec §7, CapacityExceeded) - the caller must not grow unbounded.
	ErrCapacityExceeded struct {
		what  string
		limit int
	}
	// ErrParse reports malformed query tokens (spec §7, ParseError).
	ErrParse struct {
		what string
	}
	// Errs collects up to maxErrs distinct errors observed concurrently,
	// deduplicated by message, so that a tree with many goroutines
	// aborting at once reports one representative cause.
	Errs struct {
		mu   sync.Mutex
		errs []error
	}
)

const maxErrs = 4

func NewErrNotFound(format string, a ...any) *ErrNotFound {
	return &ErrNotFound{fmt.Sprintf(format, a...)}
}

func (e *ErrNotFound) Error() string { return e.what + " does not exist" }

func IsErrNotFound(err error) bool {
	var e *ErrNotFound
	return errors.As(err, &e)
}

func NewErrInvariantViolated(format string, a ...any) *ErrInvariantViolated {
	return &ErrInvariantViolated{fmt.Sprintf(format, a...)}
}

func (e *ErrInvariantViolated) Error() string { return "invariant violated: " + e.what }

func NewErrCapacityExceeded(what string, limit int) *ErrCapacityExceeded {
	return &ErrCapacityExceeded{what, limit}
}

func (e *ErrCapacityExceeded) Error() string {
	return fmt.Sprintf("capacity exceeded: %s (limit %d)", e.what, e.limit)
}

func NewErrParse(format string, a ...any) *ErrParse {
	return &ErrParse{fmt.Sprintf(format, a...)}
}

func (e *ErrParse) Error() string { return "parse error: " + e.what }

func (e *Errs) Add(err error) {
	if err == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, added := range e.errs {
		if added.Error() == err.Error() {
			return
		}
	}
	if len(e.errs) < maxErrs {
		e.errs = append(e.errs, err)
	}
}

func (e *Errs) Cnt() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.errs)
}

func (e *Errs) JoinErr() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.errs) == 0 {
		return nil
	}
	return errors.Join(e.errs...)
}
