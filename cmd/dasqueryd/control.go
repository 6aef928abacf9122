/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package main

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/singnet/das-query-engine/cmn/nlog"
	"github.com/singnet/das-query-engine/engine"
	"github.com/singnet/das-query-engine/qreg"
)

// queryRequest is the control-plane submission body a dasqueryctl client
// POSTs to start a query. spec.md §6 specifies the bus-level "inbound
// query command" shape (requestor_id, context, attention flag, tokens)
// but leaves unstated how an out-of-process caller that isn't itself
// wired to the engine's ServiceBus submits one; submitting it as a
// direct HTTP call into Engine.Execute/ExecuteCount - bypassing the bus
// entirely rather than bridging it over the wire - keeps the control
// path independent of however many ServiceBus subscribers the engine
// process happens to run (see DESIGN.md).
type queryRequest struct {
	PeerAddr        string   `json:"peer_addr"`
	ReceiverID      string   `json:"receiver_id"`
	Context         string   `json:"context"`
	UpdateAttention bool     `json:"update_attention"`
	Tokens          []string `json:"tokens"`
}

type queryResponse struct {
	QueryID string `json:"query_id"`
	Error   string `json:"error,omitempty"`
}

// controlServer exposes query submission and abort over plain HTTP,
// separate from the fasthttp wire-transport listener (spec.md §4.2's
// frame traffic and a CLI's control traffic are different concerns).
type controlServer struct {
	e *engine.Engine
}

func (c *controlServer) mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/query", c.submit(false))
	mux.HandleFunc("/v1/query/count", c.submit(true))
	mux.HandleFunc("/v1/query/abort", c.abort)
	return mux
}

func (c *controlServer) submit(counting bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		var req queryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeQueryResponse(w, http.StatusBadRequest, queryResponse{Error: err.Error()})
			return
		}

		var (
			queryID string
			err     error
		)
		ctx := context.Background()
		if counting {
			queryID, err = c.e.ExecuteCount(ctx, req.PeerAddr, req.ReceiverID, req.Context, req.UpdateAttention, req.Tokens)
		} else {
			queryID, err = c.e.Execute(ctx, req.PeerAddr, req.ReceiverID, req.Context, req.UpdateAttention, req.Tokens)
		}
		if err != nil {
			writeQueryResponse(w, http.StatusBadRequest, queryResponse{Error: err.Error()})
			return
		}
		writeQueryResponse(w, http.StatusOK, queryResponse{QueryID: queryID})
	}
}

func (c *controlServer) abort(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	id := r.URL.Query().Get("id")
	if err := qreg.Abort(id); err != nil {
		writeQueryResponse(w, http.StatusNotFound, queryResponse{Error: err.Error()})
		return
	}
	writeQueryResponse(w, http.StatusOK, queryResponse{QueryID: id})
}

func writeQueryResponse(w http.ResponseWriter, status int, resp queryResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		nlog.Warningf("dasqueryd: encoding control response: %v", err)
	}
}
