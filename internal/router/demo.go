// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package router

import (
	"context"
	"fmt"
	"math/rand"
	"time"
)

// =============================================================================
// DEMO GENERATOR
// =============================================================================

// demoTemplates is the fixed pool of canned openers. One is chosen
// uniformly at random per reply.
var demoTemplates = []string{
	"I understand your question. Let me help you with that.",
	"That's an interesting point. Here's what I think...",
	"Great question! Based on what you've asked, I can provide some insights.",
	"I'd be happy to help you with that. Let me break it down for you.",
	"Thanks for reaching out! Here's my response to your query.",
}

// DefaultDemoDelay simulates processing time before a canned reply.
const DefaultDemoDelay = 500 * time.Millisecond

// DemoGenerator synthesizes replies when no live provider is available.
// It never fails.
type DemoGenerator struct {
	// Delay is waited before returning, imitating a thinking pause.
	Delay time.Duration

	// pick returns an index into demoTemplates. Swappable in tests.
	pick func(n int) int
}

// NewDemoGenerator creates a generator with the default delay.
func NewDemoGenerator() *DemoGenerator {
	return &DemoGenerator{
		Delay: DefaultDemoDelay,
		pick:  rand.Intn,
	}
}

// Generate produces a canned reply echoing the user's text. The only
// error path is context cancellation during the simulated delay.
func (g *DemoGenerator) Generate(ctx context.Context, text string) (string, error) {
	if g.Delay > 0 {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(g.Delay):
		}
	}

	opener := demoTemplates[g.pick(len(demoTemplates))]
	return fmt.Sprintf("%s\n\nYou asked: \"%s\"\n\nI'm here to help with any questions you have!", opener, text), nil
}
