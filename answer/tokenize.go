/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package answer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/singnet/das-query-engine/atom"
	"github.com/singnet/das-query-engine/cmn/cos"
)

// Precision is the number of decimal digits used to tokenize importance
// (spec.md §9 resolves the precision/format coupling by naming this a
// spec constant, rather than a fixed buffer size as in the C++ original).
const Precision = 10

// Tokenize renders a HandlesAnswer as the wire format defined in spec.md
// §4.2: "<importance> <n_handles> H1 … Hn <n_assignments> L1 V1 L2 V2 …".
func (ha *HandlesAnswer) Tokenize() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%.*f %d", Precision, ha.Importance, len(ha.Handles))
	for _, h := range ha.Handles {
		b.WriteByte(' ')
		b.WriteString(h.String())
	}
	names := ha.Assignment.Names()
	fmt.Fprintf(&b, " %d", len(names))
	for _, n := range names {
		h, _ := ha.Assignment.Get(n)
		b.WriteByte(' ')
		b.WriteString(n)
		b.WriteByte(' ')
		b.WriteString(h.String())
	}
	return b.String()
}

// Untokenize parses the wire format produced by Tokenize into a fresh
// HandlesAnswer.
func Untokenize(s string) (*HandlesAnswer, error) {
	fields := strings.Fields(s)
	cursor := 0
	next := func() (string, error) {
		if cursor >= len(fields) {
			return "", cos.NewErrParse("unexpected end of token string")
		}
		f := fields[cursor]
		cursor++
		return f, nil
	}

	impStr, err := next()
	if err != nil {
		return nil, err
	}
	imp, err := strconv.ParseFloat(impStr, 64)
	if err != nil {
		return nil, cos.NewErrParse("invalid importance %q: %v", impStr, err)
	}

	nHandlesStr, err := next()
	if err != nil {
		return nil, err
	}
	nHandles, err := strconv.Atoi(nHandlesStr)
	if err != nil || nHandles < 0 || nHandles > MaxHandles {
		return nil, cos.NewErrParse("invalid handle count %q", nHandlesStr)
	}

	ha := NewHandlesAnswer(imp)
	for i := 0; i < nHandles; i++ {
		hs, err := next()
		if err != nil {
			return nil, err
		}
		h, err := atom.ParseHandle(hs)
		if err != nil {
			return nil, cos.NewErrParse("invalid handle %q: %v", hs, err)
		}
		ha.Handles = append(ha.Handles, h)
	}

	nAssignStr, err := next()
	if err != nil {
		return nil, err
	}
	nAssign, err := strconv.Atoi(nAssignStr)
	if err != nil || nAssign < 0 || nAssign > MaxVariables {
		return nil, cos.NewErrParse("invalid assignment count %q", nAssignStr)
	}
	for i := 0; i < nAssign; i++ {
		label, err := next()
		if err != nil {
			return nil, err
		}
		hs, err := next()
		if err != nil {
			return nil, err
		}
		h, err := atom.ParseHandle(hs)
		if err != nil {
			return nil, cos.NewErrParse("invalid assignment handle %q: %v", hs, err)
		}
		if _, err := ha.Assignment.Assign(label, h); err != nil {
			return nil, err
		}
	}
	if cursor != len(fields) {
		return nil, cos.NewErrParse("trailing tokens after answer definition")
	}
	return ha, nil
}

// Tokenize renders a CountAnswer as a single decimal integer (spec.md §4.2).
func (ca *CountAnswer) Tokenize() string {
	return strconv.FormatInt(ca.Count, 10)
}

func UntokenizeCount(s string) (*CountAnswer, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return nil, cos.NewErrParse("invalid count answer %q: %v", s, err)
	}
	return &CountAnswer{Count: n}, nil
}
