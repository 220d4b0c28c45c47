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
// DEEPSEEK PROVIDER
// =============================================================================

const (
	// DefaultDeepSeekURL is the base URL for the DeepSeek API.
	DefaultDeepSeekURL = "https://api.deepseek.com/v1"

	// DeepSeekModel is the model used for chat replies.
	DeepSeekModel = "deepseek-chat"

	deepseekMaxRetries = 3
)

// DeepSeekClient talks to the OpenAI-compatible DeepSeek API.
type DeepSeekClient struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	limiter    *limiterIface
	maxRetries int
}

// NewDeepSeekClient creates a DeepSeek client.
func NewDeepSeekClient(apiKey string) *DeepSeekClient {
	l := newLimiter()
	return &DeepSeekClient{
		apiKey:     strings.TrimSpace(apiKey),
		baseURL:    DefaultDeepSeekURL,
		model:      DeepSeekModel,
		httpClient: sharedHTTPClient,
		limiter:    &limiterIface{wait: l.Wait},
		maxRetries: deepseekMaxRetries,
	}
}

// ValidKeyFormat reports whether a key is present. DeepSeek keys carry
// no stable prefix, so the syntactic check is non-emptiness only.
func (c *DeepSeekClient) ValidKeyFormat() bool {
	return c.apiKey != ""
}

// Name implements Provider.
func (c *DeepSeekClient) Name() string { return "deepseek" }

type deepseekRequest struct {
	Model    string            `json:"model"`
	Messages []deepseekMessage `json:"messages"`
}

type deepseekMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type deepseekResponse struct {
	Choices []struct {
		Message deepseekMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}

// SendMessage implements Provider.
func (c *DeepSeekClient) SendMessage(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", &Error{Provider: c.Name(), Reason: ReasonGeneric, Message: "message cannot be empty"}
	}
	if err := c.limiter.wait(ctx); err != nil {
		return "", &Error{Provider: c.Name(), Reason: ReasonGeneric, Err: err}
	}

	payload, err := json.Marshal(deepseekRequest{
		Model:    c.model,
		Messages: []deepseekMessage{{Role: "user", Content: text}},
	})
	if err != nil {
		return "", &Error{Provider: c.Name(), Reason: ReasonGeneric, Err: err}
	}

	url := c.baseURL + "/chat/completions"

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

func (c *DeepSeekClient) doRequest(ctx context.Context, url string, payload []byte) (string, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", false, &Error{Provider: c.Name(), Reason: ReasonGeneric, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
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

	var parsed deepseekResponse
	if err := json.Unmarshal(body, &parsed); err != nil && resp.StatusCode == http.StatusOK {
		return "", false, &Error{Provider: c.Name(), Reason: ReasonGeneric, Message: "unparseable response", Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return "", retryable(resp.StatusCode), c.classifyHTTPError(resp.StatusCode, &parsed)
	}

	if len(parsed.Choices) == 0 || strings.TrimSpace(parsed.Choices[0].Message.Content) == "" {
		return "", false, &Error{Provider: c.Name(), Reason: ReasonEmptyResponse, Message: "empty response"}
	}
	return parsed.Choices[0].Message.Content, false, nil
}

func (c *DeepSeekClient) classifyHTTPError(status int, parsed *deepseekResponse) *Error {
	msg := ""
	if parsed.Error != nil {
		msg = parsed.Error.Message
	}

	reason := ReasonGeneric
	switch status {
	case http.StatusUnauthorized:
		reason = ReasonInvalidKey
	case http.StatusTooManyRequests, http.StatusPaymentRequired:
		reason = ReasonQuotaExceeded
	case http.StatusForbidden:
		reason = ReasonPermissionDenied
	}

	if msg == "" {
		msg = fmt.Sprintf("HTTP %d", status)
	}
	return &Error{Provider: c.Name(), Reason: reason, Message: msg}
}
