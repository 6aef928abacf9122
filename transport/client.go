/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package transport

import (
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/valyala/fasthttp"

	"github.com/singnet/das-query-engine/cmn/nlog"
	"github.com/singnet/das-query-engine/stats"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Client posts Frames to a peer's listening endpoint over a long-lived
// fasthttp client (spec.md §4.2 wire NodeChannel; teacher's
// transport package doc: "long-lived http/tcp connections for
// intra-cluster communications").
type Client struct {
	hc   *fasthttp.Client
	auth *Authenticator
}

func NewClient(auth *Authenticator) *Client {
	return &Client{
		hc: &fasthttp.Client{
			MaxConnsPerHost:     64,
			MaxIdleConnDuration: 30 * time.Second,
		},
		auth: auth,
	}
}

// Send POSTs frame to addr (host:port), signed for frame.ReceiverID.
func (c *Client) Send(addr string, frame Frame) error {
	token, err := c.auth.Sign(frame.ReceiverID)
	if err != nil {
		return err
	}
	body, err := json.Marshal(frame)
	if err != nil {
		return err
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.SetContentType("application/json")
	req.SetRequestURI("http://" + addr + "/v1/answers")
	req.SetBody(body)

	if err := c.hc.DoTimeout(req, resp, 10*time.Second); err != nil {
		return fmt.Errorf("transport: send to %s: %w", addr, err)
	}
	if resp.StatusCode() != fasthttp.StatusOK {
		return fmt.Errorf("transport: send to %s: status %d", addr, resp.StatusCode())
	}
	stats.FramesSent.Inc()
	return nil
}

func (c *Client) SendBestEffort(addr string, frame Frame) {
	if err := c.Send(addr, frame); err != nil {
		nlog.Warningf("transport: best-effort send failed: %v", err)
	}
}
