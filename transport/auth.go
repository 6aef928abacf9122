/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package transport

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// frameClaims binds a bearer token to exactly one receiving element, so a
// frame addressed elsewhere cannot be replayed into a different
// iterator's queue (spec.md §6 leaves RPC authentication unspecified;
// this is the engine's answer to it - see SPEC_FULL.md §4.2a).
type frameClaims struct {
	ReceiverID string `json:"rid"`
	jwt.RegisteredClaims
}

// Authenticator signs and verifies per-frame bearer tokens with a shared
// engine secret (distributed to server and client out of band, e.g. via
// config).
type Authenticator struct {
	secret []byte
	ttl    time.Duration
}

func NewAuthenticator(secret []byte, ttl time.Duration) *Authenticator {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Authenticator{secret: secret, ttl: ttl}
}

func (a *Authenticator) Sign(receiverID string) (string, error) {
	claims := frameClaims{
		ReceiverID: receiverID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(a.ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString(a.secret)
}

// Verify checks the token's signature/expiry and that it authorizes
// delivery to receiverID.
func (a *Authenticator) Verify(tokenStr, receiverID string) error {
	claims := &frameClaims{}
	tok, err := jwt.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	})
	if err != nil {
		return fmt.Errorf("transport: invalid frame token: %w", err)
	}
	if !tok.Valid {
		return fmt.Errorf("transport: expired or malformed frame token")
	}
	if claims.ReceiverID != receiverID {
		return fmt.Errorf("transport: frame token addressed to %q, not %q", claims.ReceiverID, receiverID)
	}
	return nil
}
