/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package collab

import "sync"

// MessageHandler reacts to an inbound bus command (spec.md §6
// ServiceBus.on_message).
type MessageHandler func(command string, args []string)

// ServiceBus routes commands between agents; the engine uses it only to
// receive inbound query/count commands and is otherwise agnostic to its
// implementation (routing, leader election: out of scope, spec.md §1).
type ServiceBus interface {
	Send(command string, args []string, recipient string) error
	Broadcast(command string, args []string) error
	OnMessage(h MessageHandler)
}

// LocalBus is an in-process ServiceBus for single-node operation and
// tests: Send/Broadcast invoke registered handlers synchronously instead
// of going over the wire.
type LocalBus struct {
	mu       sync.RWMutex
	handlers []MessageHandler
}

var _ ServiceBus = (*LocalBus)(nil)

func NewLocalBus() *LocalBus { return &LocalBus{} }

func (b *LocalBus) OnMessage(h MessageHandler) {
	b.mu.Lock()
	b.handlers = append(b.handlers, h)
	b.mu.Unlock()
}

func (b *LocalBus) Send(command string, args []string, _ string) error {
	b.dispatch(command, args)
	return nil
}

func (b *LocalBus) Broadcast(command string, args []string) error {
	b.dispatch(command, args)
	return nil
}

func (b *LocalBus) dispatch(command string, args []string) {
	b.mu.RLock()
	handlers := make([]MessageHandler, len(b.handlers))
	copy(handlers, b.handlers)
	b.mu.RUnlock()
	for _, h := range handlers {
		h(command, args)
	}
}
