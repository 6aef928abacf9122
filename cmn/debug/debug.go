// Package debug provides cheap assertions that are no-ops unless
// enabled at run time, following the teacher's convention of guarding invariant
// checks behind a package-level switch rather than scattering panics.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package debug

import (
	"fmt"
	"os"
)

// Enabled toggles assertion checking. Off by default; set at init when
// the DASQ_DEBUG environment variable is non-empty, or directly in tests.
var Enabled = false

func init() {
	if os.Getenv("DASQ_DEBUG") != "" {
		Enabled = true
	}
}

// Assert panics with the given args if cond is false and assertions are enabled.
func Assert(cond bool, args ...any) {
	if !Enabled || cond {
		return
	}
	panic(fmt.Sprint(append([]any{"assertion failed: "}, args...)...))
}

// Assertf is Assert with a format string.
func Assertf(cond bool, format string, args ...any) {
	if !Enabled || cond {
		return
	}
	panic(fmt.Sprintf("assertion failed: "+format, args...))
}
