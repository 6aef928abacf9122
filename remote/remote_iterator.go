/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package remote

import (
	"github.com/singnet/das-query-engine/answer"
	"github.com/singnet/das-query-engine/qchan"
	"github.com/singnet/das-query-engine/transport"
)

// RemoteIterator is not itself a node in a query tree: it is the
// client-side handle a caller uses to pull a query's answers off the
// wire (spec.md §4.9). It registers a WireReceiver with a Listener under
// localID so inbound frames from the producing process's RemoteSink
// land directly in its queue.
type RemoteIterator struct {
	localID  string
	listener *transport.Listener
	recv     *qchan.WireReceiver
}

func NewRemoteIterator(localID string, listener *transport.Listener) *RemoteIterator {
	ri := &RemoteIterator{
		localID:  localID,
		listener: listener,
		recv:     qchan.NewWireReceiver("", localID),
	}
	listener.Register(localID, ri.recv)
	return ri
}

// Finished returns true iff the channel is marked finished and its queue
// is empty (spec.md §4.9).
func (ri *RemoteIterator) Finished() bool { return ri.recv.IsFinished() && ri.recv.IsEmpty() }

// Pop is non-blocking; a false ok does not mean the query is done - see
// Finished (spec.md §4.9).
func (ri *RemoteIterator) Pop() (answer.Answer, bool) { return ri.recv.PopNonblocking() }

// Abort sends a single-use abort control message upstream to the
// producing process, addressed to the RemoteSink's id (spec.md §4.9).
func (ri *RemoteIterator) Abort(client *transport.Client, producerAddr, remoteSinkID string) {
	client.SendBestEffort(producerAddr, transport.NewAbort(remoteSinkID))
}

func (ri *RemoteIterator) GracefulShutdown() {
	ri.recv.Shutdown()
	ri.listener.Unregister(ri.localID)
}
