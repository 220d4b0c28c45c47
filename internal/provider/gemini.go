// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// =============================================================================
// GEMINI PROVIDER
// =============================================================================

const (
	// DefaultGeminiURL is the base URL for the Generative Language API.
	DefaultGeminiURL = "https://generativelanguage.googleapis.com/v1beta"

	// GeminiModel is the model used for chat replies.
	GeminiModel = "gemini-2.0-flash"

	// GeminiKeyPrefix is the prefix every Google AI Studio key carries.
	GeminiKeyPrefix = "AIza"

	geminiMaxRetries = 3
)

// GeminiClient talks to the Google Generative Language API.
type GeminiClient struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	limiter    *limiterIface
	maxRetries int
}

// limiterIface lets tests swap the rate limiter for a no-op.
type limiterIface struct {
	wait func(ctx context.Context) error
}

// NewGeminiClient creates a Gemini client. The key is not validated
// here; call ValidKeyFormat before deciding to use the client.
func NewGeminiClient(apiKey string) *GeminiClient {
	l := newLimiter()
	return &GeminiClient{
		apiKey:     strings.TrimSpace(apiKey),
		baseURL:    DefaultGeminiURL,
		model:      GeminiModel,
		httpClient: sharedHTTPClient,
		limiter:    &limiterIface{wait: l.Wait},
		maxRetries: geminiMaxRetries,
	}
}

// ValidKeyFormat reports whether the key is syntactically plausible.
// Google AI Studio keys start with "AIza"; anything else fails without
// a network round trip.
func (c *GeminiClient) ValidKeyFormat() bool {
	return strings.HasPrefix(c.apiKey, GeminiKeyPrefix)
}

// Name implements Provider.
func (c *GeminiClient) Name() string { return "gemini" }

// request/response shapes for generateContent.

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
	Error *struct {
		Code    int    `json:"code"`
		Status  string `json:"status"`
		Message string `json:"message"`
	} `json:"error"`
}

// SendMessage implements Provider.
func (c *GeminiClient) SendMessage(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", &Error{Provider: c.Name(), Reason: ReasonGeneric, Message: "message cannot be empty"}
	}
	if err := c.limiter.wait(ctx); err != nil {
		return "", &Error{Provider: c.Name(), Reason: ReasonGeneric, Err: err}
	}

	payload, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: text}}}},
	})
	if err != nil {
		return "", &Error{Provider: c.Name(), Reason: ReasonGeneric, Err: err}
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)

	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return "", &Error{Provider: c.Name(), Reason: ReasonGeneric, Err: ctx.Err()}
			case <-time.After(backoffDelay(attempt - 1)):
			}
		}

		reply, retry, err := c.doRequest(ctx, url, payload)
		if err == nil {
			return reply, nil
		}
		if !retry {
			return "", err
		}
		lastErr = err
	}
	return "", lastErr
}

// doRequest performs one generateContent call. The second return value
// reports whether the failure is transient.
func (c *GeminiClient) doRequest(ctx context.Context, url string, payload []byte) (string, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", false, &Error{Provider: c.Name(), Reason: ReasonGeneric, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", true, &Error{Provider: c.Name(), Reason: ReasonGeneric, Err: err}
	}
	defer resp.Body.Close()

	body, err := readResponse(resp)
	if err != nil {
		return "", false, &Error{Provider: c.Name(), Reason: ReasonGeneric, Err: err}
	}

	var parsed geminiResponse
	if err := json.Unmarshal(body, &parsed); err != nil && resp.StatusCode == http.StatusOK {
		return "", false, &Error{Provider: c.Name(), Reason: ReasonGeneric, Message: "unparseable response", Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return "", retryable(resp.StatusCode), c.classifyHTTPError(resp.StatusCode, &parsed)
	}

	if parsed.PromptFeedback != nil && parsed.PromptFeedback.BlockReason != "" {
		return "", false, &Error{
			Provider: c.Name(),
			Reason:   ReasonEmptyResponse,
			Message:  "content blocked: " + parsed.PromptFeedback.BlockReason,
		}
	}

	reply := c.extractText(&parsed)
	if strings.TrimSpace(reply) == "" {
		return "", false, &Error{Provider: c.Name(), Reason: ReasonEmptyResponse, Message: "empty response"}
	}
	return reply, false, nil
}

func (c *GeminiClient) extractText(parsed *geminiResponse) string {
	if len(parsed.Candidates) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, part := range parsed.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	return sb.String()
}

func (c *GeminiClient) classifyHTTPError(status int, parsed *geminiResponse) *Error {
	msg := ""
	apiStatus := ""
	if parsed.Error != nil {
		msg = parsed.Error.Message
		apiStatus = parsed.Error.Status
	}

	reason := ReasonGeneric
	switch {
	case strings.Contains(msg, "API_KEY_INVALID") || strings.Contains(apiStatus, "API_KEY_INVALID") ||
		status == http.StatusUnauthorized:
		reason = ReasonInvalidKey
	case status == http.StatusTooManyRequests || strings.Contains(apiStatus, "RESOURCE_EXHAUSTED"):
		reason = ReasonQuotaExceeded
	case status == http.StatusForbidden || strings.Contains(apiStatus, "PERMISSION_DENIED"):
		reason = ReasonPermissionDenied
	}

	if msg == "" {
		msg = fmt.Sprintf("HTTP %d", status)
	}
	return &Error{Provider: c.Name(), Reason: reason, Message: msg}
}
