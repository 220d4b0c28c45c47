// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package router

import (
	"context"
	"strings"
	"testing"

	"github.com/jeranaias/lumi-chat/internal/provider"
)

// fakeProvider is a scriptable chain entry.
type fakeProvider struct {
	name     string
	keyOK    bool
	reply    string
	err      error
	calls    int
}

func (f *fakeProvider) Name() string         { return f.name }
func (f *fakeProvider) ValidKeyFormat() bool { return f.keyOK }

func (f *fakeProvider) SendMessage(ctx context.Context, text string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func newTestRouter(realAPI bool, providers ...KeyedProvider) *Router {
	r := New(realAPI, providers...)
	r.Demo().Delay = 0
	return r
}

// =============================================================================
// DEMO FALLBACK TESTS
// =============================================================================

func TestRealAPIDisabledUsesDemo(t *testing.T) {
	p := &fakeProvider{name: "gemini", keyOK: true, reply: "live"}
	r := newTestRouter(false, p)

	reply, err := r.Send(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if reply.Source != SourceDemo {
		t.Errorf("Source = %q, want demo", reply.Source)
	}
	if !strings.Contains(reply.Text, `You asked: "hello"`) {
		t.Errorf("demo reply missing echo: %q", reply.Text)
	}
	if p.calls != 0 {
		t.Error("disabled real-API mode must not call providers")
	}
}

func TestDemoReplyDrawnFromTemplatePool(t *testing.T) {
	r := newTestRouter(false)

	reply, err := r.Send(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	var matched bool
	for _, tpl := range demoTemplates {
		if strings.HasPrefix(reply.Text, tpl) {
			matched = true
			break
		}
	}
	if !matched {
		t.Errorf("demo reply does not start with a pool template: %q", reply.Text)
	}
}

func TestDemoCoversWholePool(t *testing.T) {
	g := NewDemoGenerator()
	g.Delay = 0

	seen := make(map[int]bool)
	for i := range demoTemplates {
		g.pick = func(n int) int { return i }
		reply, err := g.Generate(context.Background(), "x")
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
		if !strings.HasPrefix(reply, demoTemplates[i]) {
			t.Errorf("template %d not used: %q", i, reply)
		}
		seen[i] = true
	}
	if len(seen) != len(demoTemplates) {
		t.Error("pool not fully exercised")
	}
}

// =============================================================================
// FALLBACK CHAIN TESTS
// =============================================================================

func TestPrimarySuccessShortCircuits(t *testing.T) {
	primary := &fakeProvider{name: "gemini", keyOK: true, reply: "from gemini"}
	secondary := &fakeProvider{name: "deepseek", keyOK: true, reply: "from deepseek"}
	r := newTestRouter(true, primary, secondary)

	reply, err := r.Send(context.Background(), "hi")
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if reply.Text != "from gemini" || reply.Source != Source("gemini") {
		t.Errorf("reply = %+v, want primary's", reply)
	}
	if secondary.calls != 0 {
		t.Error("secondary must not be called after primary success")
	}
}

func TestPrimaryFailureFallsToSecondary(t *testing.T) {
	primary := &fakeProvider{
		name: "gemini", keyOK: true,
		err: &provider.Error{Provider: "gemini", Reason: provider.ReasonQuotaExceeded},
	}
	secondary := &fakeProvider{name: "deepseek", keyOK: true, reply: "from deepseek"}
	r := newTestRouter(true, primary, secondary)

	reply, err := r.Send(context.Background(), "hi")
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if reply.Text != "from deepseek" {
		t.Errorf("reply = %q, want secondary's", reply.Text)
	}
	if primary.calls != 1 {
		t.Errorf("primary calls = %d, want 1", primary.calls)
	}
}

func TestAllProvidersFailFallsToDemo(t *testing.T) {
	primary := &fakeProvider{
		name: "gemini", keyOK: true,
		err: &provider.Error{Provider: "gemini", Reason: provider.ReasonGeneric},
	}
	secondary := &fakeProvider{
		name: "deepseek", keyOK: true,
		err: &provider.Error{Provider: "deepseek", Reason: provider.ReasonGeneric},
	}
	r := newTestRouter(true, primary, secondary)

	reply, err := r.Send(context.Background(), "still here?")
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if reply.Source != SourceDemo {
		t.Errorf("Source = %q, want demo after total provider failure", reply.Source)
	}
	if !strings.Contains(reply.Text, `You asked: "still here?"`) {
		t.Errorf("demo reply missing echo: %q", reply.Text)
	}
}

func TestMalformedPrimaryKeyNeverCalled(t *testing.T) {
	// Primary key present but fails the syntactic check, no secondary:
	// the chain must go straight to demo without a provider call.
	primary := &fakeProvider{name: "gemini", keyOK: false, reply: "must not appear"}
	r := newTestRouter(true, primary)

	reply, err := r.Send(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if primary.calls != 0 {
		t.Error("provider with malformed key must never be attempted")
	}
	if reply.Source != SourceDemo {
		t.Errorf("Source = %q, want demo", reply.Source)
	}
}

func TestSendHonorsCancellation(t *testing.T) {
	r := New(false) // default demo delay keeps Generate waiting
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := r.Send(ctx, "hi"); err == nil {
		t.Error("cancelled context should abort the demo delay")
	}
}
