/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package collab

import (
	"context"

	"github.com/singnet/das-query-engine/atom"
)

// AttentionBroker receives fire-and-forget importance updates (spec.md
// §6, §4.8 AttentionUpdateProcessor).
type AttentionBroker interface {
	PushImportanceUpdate(ctx context.Context, dbContext string, handles []atom.Handle, weights []float64) error
}

// NopAttentionBroker discards every update; used in single-process
// operation and tests where no attention service is running.
type NopAttentionBroker struct{}

var _ AttentionBroker = NopAttentionBroker{}

func (NopAttentionBroker) PushImportanceUpdate(context.Context, string, []atom.Handle, []float64) error {
	return nil
}
