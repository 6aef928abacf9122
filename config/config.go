// Package config loads and serves the engine's process-wide
// configuration: network addresses, wire-transport tuning, the JWT
// signing secret, and housekeeping intervals (spec.md §6b).
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package config

import (
	"os"
	"sync/atomic"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/singnet/das-query-engine/cmn/cos"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Config is the engine's full runtime configuration.
type Config struct {
	Network struct {
		ListenAddr string `json:"listen_addr"`
	} `json:"network"`

	Transport struct {
		MaxArity     int          `json:"max_arity"`
		BatchSize    int          `json:"batch_size"`
		IdleTeardown cos.Duration `json:"idle_teardown"`
	} `json:"transport"`

	Auth struct {
		Secret   string       `json:"secret"`
		TokenTTL cos.Duration `json:"token_ttl"`
	} `json:"auth"`

	HK struct {
		SweepInterval cos.Duration `json:"sweep_interval"`
	} `json:"hk"`
}

// defaults mirror the teacher's pattern of a fully-populated zero
// config that Load overlays a file (and then env vars) on top of,
// rather than requiring every field to be present on disk.
func defaults() *Config {
	c := &Config{}
	c.Network.ListenAddr = ":7670"
	c.Transport.MaxArity = 16
	c.Transport.BatchSize = 256
	c.Transport.IdleTeardown = cos.Duration(30 * time.Second)
	c.Auth.TokenTTL = cos.Duration(5 * time.Minute)
	c.HK.SweepInterval = cos.Duration(30 * time.Second)
	return c
}

// gco is the process-wide config, held behind an atomic pointer so a
// running engine observes an updated config (via Load) without
// locking on any hot path - the same "global config object" shape the
// teacher's cmn.Rom / cmn.GCO pair provides over cmn.Config.
var gco atomic.Pointer[Config]

func init() { gco.Store(defaults()) }

// Get returns the current process-wide config.
func Get() *Config { return gco.Load() }

// Load reads path as JSON over the defaults, applies environment
// overrides, and installs the result as the process-wide config.
func Load(path string) (*Config, error) {
	cfg := defaults()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(b, cfg); err != nil {
			return nil, err
		}
	}
	applyEnvOverrides(cfg)
	gco.Store(cfg)
	return cfg, nil
}

// applyEnvOverrides lets a handful of operationally-common fields be
// set without rewriting the config file, following the same DASQ_*
// env-var convention as cmn/debug's DASQ_DEBUG.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DASQ_LISTEN_ADDR"); v != "" {
		cfg.Network.ListenAddr = v
	}
	if v := os.Getenv("DASQ_AUTH_SECRET"); v != "" {
		cfg.Auth.Secret = v
	}
}
