// Package main is dasqueryd, the query-engine server (SPEC_FULL.md §6a).
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/singnet/das-query-engine/cmn/nlog"
	"github.com/singnet/das-query-engine/collab"
	"github.com/singnet/das-query-engine/config"
	"github.com/singnet/das-query-engine/engine"
	"github.com/singnet/das-query-engine/hk"
	"github.com/singnet/das-query-engine/qreg"
	"github.com/singnet/das-query-engine/stats"
	"github.com/singnet/das-query-engine/transport"
)

var (
	configPath  string
	metricsAddr string
	controlAddr string
)

func init() {
	flag.StringVar(&configPath, "config", "", "path to a JSON configuration file")
	flag.StringVar(&metricsAddr, "metrics-addr", ":9100", "address the Prometheus metrics endpoint listens on")
	flag.StringVar(&controlAddr, "control-addr", ":7671", "address the query submission control endpoint listens on")
}

func usage() {
	fmt.Println("usage: dasqueryd <listen_host:port> [-config path] [-metrics-addr host:port] [-control-addr host:port]")
}

func main() {
	if len(os.Args) < 2 || strings.Contains(os.Args[1], "help") {
		usage()
		os.Exit(1)
	}
	listenAddr := os.Args[1]
	if err := flag.CommandLine.Parse(os.Args[2:]); err != nil {
		usage()
		os.Exit(1)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		nlog.Errorf("dasqueryd: loading config: %v", err)
		os.Exit(1)
	}
	cfg.Network.ListenAddr = listenAddr

	installSignalHandler()
	go logFlush()

	auth := transport.NewAuthenticator([]byte(cfg.Auth.Secret), cfg.Auth.TokenTTL.D())
	ln := transport.NewListener(cfg.Network.ListenAddr, auth)
	client := transport.NewClient(auth)

	e := engine.New(&engine.Context{
		DB:        collab.NewMemAtomDB(),
		Attention: collab.NopAttentionBroker{},
		Bus:       collab.NewLocalBus(),
		Client:    client,
		Listener:  ln,
	})
	e.Start()

	qreg.RegWithHK()
	go hk.DefaultHK.Run()
	hk.WaitStarted()

	go serveMetrics()
	go serveControl(e)

	nlog.Infof("dasqueryd: listening on %s", cfg.Network.ListenAddr)
	if err := ln.ListenAndServe(); err != nil {
		nlog.Errorf("dasqueryd: listener stopped: %v", err)
		nlog.Flush()
		os.Exit(1)
	}
	nlog.Flush()
}

func serveMetrics() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", stats.Handler())
	nlog.Infof("dasqueryd: serving metrics on %s", metricsAddr)
	if err := http.ListenAndServe(metricsAddr, mux); err != nil {
		nlog.Warningf("dasqueryd: metrics server: %v", err)
	}
}

func serveControl(e *engine.Engine) {
	cs := &controlServer{e: e}
	nlog.Infof("dasqueryd: serving query control on %s", controlAddr)
	if err := http.ListenAndServe(controlAddr, cs.mux()); err != nil {
		nlog.Warningf("dasqueryd: control server: %v", err)
	}
}

func logFlush() {
	for {
		time.Sleep(time.Minute)
		nlog.Flush()
	}
}

func installSignalHandler() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-c
		nlog.Flush()
		os.Exit(0)
	}()
}
