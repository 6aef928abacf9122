// Package atom defines Handle, the stable opaque identifier of an atom
// (node or link) in the content-addressed atom space.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package atom

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/OneOfOne/xxhash"
)

// Size is the fixed byte width of a Handle (a truncated content digest,
// e.g. the first 16 bytes of a SHA-256 hash of type+name/targets).
const Size = 16

// Handle is a fixed-width opaque atom identifier. Equality is byte
// equality (spec.md §3).
type Handle [Size]byte

var Zero Handle

func (h Handle) IsZero() bool { return h == Zero }

func (h Handle) String() string { return hex.EncodeToString(h[:]) }

// ParseHandle decodes a hex-encoded handle string produced by String().
func ParseHandle(s string) (Handle, error) {
	var h Handle
	b, err := hex.DecodeString(s)
	if err != nil {
		return h, fmt.Errorf("atom: invalid handle %q: %w", s, err)
	}
	if len(b) != Size {
		return h, fmt.Errorf("atom: invalid handle length %q: want %d bytes, got %d", s, Size, len(b))
	}
	copy(h[:], b)
	return h, nil
}

// FromContent derives a Handle deterministically from an ordered list of
// content parts: a Node's (type, name), or a Link's (type, target handles
// in hex). Content-addressing means a Node or concrete Link never needs a
// database round trip to learn its own handle - only to learn what
// already exists under that handle (spec.md §1, §6 AtomDB).
func FromContent(parts ...string) Handle {
	digest := sha256.New()
	for _, p := range parts {
		digest.Write([]byte(p))
		digest.Write([]byte{0}) // separator, avoids ("ab","c") == ("a","bc") collisions
	}
	var h Handle
	copy(h[:], digest.Sum(nil)[:Size])
	return h
}

// Sum computes a composite hash over an ordered handle sequence, used to
// deduplicate Chain's reported-path set (spec.md §4.6).
func Sum(handles []Handle) uint64 {
	h := xxhash.New64()
	for _, hd := range handles {
		h.Write(hd[:])
	}
	return h.Sum64()
}
