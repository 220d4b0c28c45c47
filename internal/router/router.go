// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package router orchestrates the reply chain for a user message.
package router

import (
	"context"
	"log"

	"github.com/jeranaias/lumi-chat/internal/provider"
)

// =============================================================================
// REPLY
// =============================================================================

// Source labels where a reply came from.
type Source string

const (
	// SourceDemo marks a canned reply from the demo generator.
	SourceDemo Source = "demo"
)

// Reply is the outcome of one orchestrated turn.
type Reply struct {
	Text   string
	Source Source
}

// =============================================================================
// ROUTER
// =============================================================================

// KeyedProvider is a provider whose credential can be checked
// syntactically before any network call.
type KeyedProvider interface {
	provider.Provider
	ValidKeyFormat() bool
}

// attempt is one entry in the ordered fallback chain.
type attempt struct {
	name string
	send func(ctx context.Context, text string) (string, error)
}

// Router tries providers in a fixed order and falls back to the demo
// generator, so every user message gets a reply.
type Router struct {
	realAPI  bool
	attempts []attempt
	demo     *DemoGenerator
}

// New builds a router. Providers are attempted in the order given;
// entries whose key fails the syntactic check are excluded up front so
// a malformed credential never causes a network call. The attempt
// order is fixed at construction, not per request.
func New(realAPI bool, providers ...KeyedProvider) *Router {
	r := &Router{
		realAPI: realAPI,
		demo:    NewDemoGenerator(),
	}
	for _, p := range providers {
		if p == nil {
			continue
		}
		if !p.ValidKeyFormat() {
			log.Printf("router: skipping %s: API key missing or malformed", p.Name())
			continue
		}
		r.attempts = append(r.attempts, attempt{name: p.Name(), send: p.SendMessage})
	}
	return r
}

// Demo exposes the fallback generator for tuning.
func (r *Router) Demo() *DemoGenerator { return r.demo }

// Send runs the fallback chain for one user message. Provider failures
// are logged and swallowed; the demo generator is the terminal step and
// always succeeds, so the only error path is context cancellation.
func (r *Router) Send(ctx context.Context, text string) (*Reply, error) {
	if r.realAPI {
		for _, a := range r.attempts {
			reply, err := a.send(ctx, text)
			if err == nil {
				return &Reply{Text: reply, Source: Source(a.name)}, nil
			}
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			log.Printf("router: %s failed: %v", a.name, err)
		}
		if len(r.attempts) > 0 {
			log.Printf("router: all providers failed, using demo reply")
		}
	}

	reply, err := r.demo.Generate(ctx, text)
	if err != nil {
		return nil, err
	}
	return &Reply{Text: reply, Source: SourceDemo}, nil
}
