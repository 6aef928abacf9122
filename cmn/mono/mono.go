// Package mono provides a monotonic nanosecond clock, decoupled from
// wall-clock adjustments, for latency and flush-interval bookkeeping.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package mono

import "time"

var start = time.Now()

// NanoTime returns nanoseconds elapsed since process start, monotonic.
func NanoTime() int64 { return int64(time.Since(start)) }

// Since returns the duration elapsed since a prior NanoTime() reading.
func Since(ts int64) time.Duration { return time.Duration(NanoTime() - ts) }
