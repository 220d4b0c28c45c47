// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package router orchestrates the reply chain for a user message.
//
// The chain is an ordered list of provider attempts followed by a demo
// fallback: primary, then secondary, then a canned reply synthesized
// from a fixed template pool. Provider errors are logged and swallowed,
// never surfaced to the user; the demo step cannot fail, so a message
// always gets an answer. When real-API mode is off, the chain skips
// straight to the demo generator.
//
// # Usage
//
//	r := router.New(cfg.UseRealAPI, gemini, deepseek)
//	reply, err := r.Send(ctx, "hello")
package router
