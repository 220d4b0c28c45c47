// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package provider implements the LLM backends that answer user
// messages.
//
// Two concrete providers are integrated: Gemini (Google Generative
// Language API) and DeepSeek (OpenAI-compatible chat completions).
// Both share a pooled TLS HTTP client, bound response bodies, a
// client-side rate limiter, and exponential-backoff retries for
// transient server faults.
//
// Failures surface as *Error carrying a Reason (invalid key, quota
// exceeded, permission denied, empty/blocked response, generic) so the
// orchestrator can log a classification and fall through to the next
// backend.
//
// # Key Types
//
//   - Provider: the backend contract (Name, SendMessage)
//   - GeminiClient, DeepSeekClient: concrete backends
//   - Error, Reason: classified provider failures
package provider
