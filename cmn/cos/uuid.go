// Package cos - query UUID generation, reusing the teacher's shortid-based
// scheme for daemon/bucket identifiers (cmn/cos/uuid.go): short, URL-safe,
// and all but certain not to collide across concurrently running processes.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package cos

import (
	"time"

	"github.com/teris-io/shortid"
)

const (
	uuidABC = "-5nZJDft6LuzsjGNpPwY7rQa39vehq4i1cV2FROo8yHSlC0BUEdWbIxMmTgKXAk_"
	// LenUUID is the length of a generated id, used to sanity-check
	// caller-supplied query UUIDs.
	LenUUID = 9
)

var sid *shortid.Shortid

func init() {
	InitUUID(uint64(time.Now().UnixNano()))
}

// InitUUID reseeds the generator, e.g. with a fixed seed for a
// reproducible sequence. Absent an explicit call, the package-init
// default (time-seeded) is used.
func InitUUID(seed uint64) {
	sid = shortid.MustNew(4 /*worker*/, uuidABC, seed)
}

// GenUUID returns a fresh query identifier.
func GenUUID() string { return sid.MustGenerate() }

// IsValidUUID reports whether uuid looks like something GenUUID could
// have produced.
func IsValidUUID(uuid string) bool { return len(uuid) >= LenUUID && IsAlphaNice(uuid) }

// IsAlphaNice reports whether s contains only letters, digits, dashes,
// and underscores - the same constraint the teacher applies to
// generated and user-supplied identifiers alike.
func IsAlphaNice(s string) bool {
	for _, c := range s {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
		default:
			return false
		}
	}
	return len(s) > 0
}
