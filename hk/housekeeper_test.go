/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package hk_test

import (
	"time"

	"github.com/singnet/das-query-engine/hk"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Housekeeper", func() {
	It("reruns a registered callback on its returned interval", func() {
		h := hk.New()
		go h.Run()
		hits := make(chan struct{}, 8)
		h.Reg("probe", func() time.Duration {
			hits <- struct{}{}
			return 10 * time.Millisecond
		}, 10*time.Millisecond)

		Eventually(hits, time.Second).Should(Receive())
		Eventually(hits, time.Second).Should(Receive())
		h.Stop()
	})

	It("stops calling a callback once unregistered", func() {
		h := hk.New()
		go h.Run()
		hits := make(chan struct{}, 8)
		h.Reg("probe2", func() time.Duration {
			hits <- struct{}{}
			return 10 * time.Millisecond
		}, 10*time.Millisecond)
		Eventually(hits, time.Second).Should(Receive())
		h.Unreg("probe2")

		// drain anything already in flight, then assert quiescence
		for {
			select {
			case <-hits:
				continue
			case <-time.After(100 * time.Millisecond):
				h.Stop()
				return
			}
		}
	})
})
