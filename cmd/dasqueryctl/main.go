// Package main is dasqueryctl, a command-line client that submits one
// query to a running dasqueryd and prints the answers it streams back
// (SPEC_FULL.md §6a).
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/singnet/das-query-engine/answer"
	"github.com/singnet/das-query-engine/cmn/cos"
	"github.com/singnet/das-query-engine/cmn/nlog"
	"github.com/singnet/das-query-engine/config"
	"github.com/singnet/das-query-engine/qchan"
	"github.com/singnet/das-query-engine/transport"
)

var (
	configPath      string
	dbContext       string
	updateAttention bool
	countOnly       bool
	pollTimeout     time.Duration
)

func init() {
	flag.StringVar(&configPath, "config", "", "path to a JSON configuration file")
	flag.StringVar(&dbContext, "context", "", "database context to query")
	flag.BoolVar(&updateAttention, "update-attention", false, "push an importance update for every matched handle")
	flag.BoolVar(&countOnly, "count", false, "run a counting query instead of streaming handles")
	flag.DurationVar(&pollTimeout, "timeout", 30*time.Second, "how long to wait for the query to finish")
}

func usage() {
	fmt.Println("usage: dasqueryctl <client_host:port> <server_control_addr> <token...> [-context ctx] [-count] [-update-attention] [-timeout dur]")
}

func main() {
	if len(os.Args) < 4 {
		usage()
		os.Exit(1)
	}
	clientAddr, controlAddr := os.Args[1], os.Args[2]
	rest := os.Args[3:]

	tokens, flagArgs := splitTokensAndFlags(rest)
	if err := flag.CommandLine.Parse(flagArgs); err != nil {
		usage()
		os.Exit(1)
	}
	if len(tokens) == 0 {
		usage()
		os.Exit(1)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		nlog.Errorf("dasqueryctl: loading config: %v", err)
		os.Exit(1)
	}

	auth := transport.NewAuthenticator([]byte(cfg.Auth.Secret), cfg.Auth.TokenTTL.D())
	ln := transport.NewListener(clientAddr, auth)
	go func() {
		if err := ln.ListenAndServe(); err != nil {
			nlog.Warningf("dasqueryctl: listener stopped: %v", err)
		}
	}()
	defer ln.Shutdown()
	time.Sleep(50 * time.Millisecond)

	receiverID := "ctl-" + cos.GenUUID()
	recv := qchan.NewWireReceiver("", receiverID)
	ln.Register(receiverID, recv)
	defer ln.Unregister(receiverID)

	queryID, err := submitQuery(controlAddr, clientAddr, receiverID, tokens)
	if err != nil {
		nlog.Errorf("dasqueryctl: submitting query: %v", err)
		os.Exit(1)
	}
	nlog.Infof("dasqueryctl: query %s accepted", queryID)

	if err := printAnswers(recv, pollTimeout); err != nil {
		nlog.Errorf("dasqueryctl: %v", err)
		os.Exit(1)
	}
}

// splitTokensAndFlags separates the leading run of positional query
// tokens from any trailing "-flag value" pairs, since flag.Parse
// requires flags to follow positional args in this binary's usage.
func splitTokensAndFlags(args []string) (tokens, flagArgs []string) {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			return args[:i], args[i:]
		}
	}
	return args, nil
}

type queryRequestBody struct {
	PeerAddr        string   `json:"peer_addr"`
	ReceiverID      string   `json:"receiver_id"`
	Context         string   `json:"context"`
	UpdateAttention bool     `json:"update_attention"`
	Tokens          []string `json:"tokens"`
}

type queryResponseBody struct {
	QueryID string `json:"query_id"`
	Error   string `json:"error,omitempty"`
}

func submitQuery(controlAddr, clientAddr, receiverID string, tokens []string) (string, error) {
	body, err := json.Marshal(queryRequestBody{
		PeerAddr:        clientAddr,
		ReceiverID:      receiverID,
		Context:         dbContext,
		UpdateAttention: updateAttention,
		Tokens:          tokens,
	})
	if err != nil {
		return "", err
	}

	path := "/v1/query"
	if countOnly {
		path = "/v1/query/count"
	}
	resp, err := http.Post("http://"+controlAddr+path, "application/json", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var r queryResponseBody
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return "", err
	}
	if r.Error != "" {
		return "", fmt.Errorf("server: %s", r.Error)
	}
	return r.QueryID, nil
}

// printAnswers polls recv until it reports finished or deadline elapses,
// printing every answer as it arrives.
func printAnswers(recv *qchan.WireReceiver, deadline time.Duration) error {
	giveUp := time.Now().Add(deadline)
	for {
		if a, ok := recv.PopNonblocking(); ok {
			printAnswer(a)
			continue
		}
		if recv.IsFinished() {
			return nil
		}
		if time.Now().After(giveUp) {
			return fmt.Errorf("timed out waiting for answers")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func printAnswer(a answer.Answer) {
	switch v := a.(type) {
	case *answer.HandlesAnswer:
		fmt.Printf("handles=%v importance=%v\n", v.Handles, v.Importance)
	case *answer.CountAnswer:
		fmt.Printf("count=%d\n", v.Count)
	default:
		fmt.Printf("%v\n", v)
	}
}
