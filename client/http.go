package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// doJSONRequest performs a JSON request with the given method, path, payload, and result.
// It handles marshaling the payload, creating the request, executing it, and unmarshaling
// the response. If result is nil, the response body is not decoded. Non-2xx responses are
// classified into the typed errors in errors.go.
func (c *Client) doJSONRequest(ctx context.Context, hc *http.Client, method, path string, payload, result interface{}) error {
	url := fmt.Sprintf("%s%s", c.baseURL, path)

	var body io.Reader
	if payload != nil {
		jsonData, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.userEmail != "" {
		req.Header.Set("x-user-email", c.userEmail)
	}

	resp, err := hc.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return classifyError(resp)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// errorBody is the shape of generation service error responses. The service
// returns its rate-limit body both bare (middleware path) and wrapped in
// "detail" (endpoint dependency path), so both are covered.
type errorBody struct {
	Error      string          `json:"error"`
	Message    string          `json:"message"`
	RetryAfter int             `json:"retry_after"`
	Detail     json.RawMessage `json:"detail"`
}

type detailObject struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	RetryAfter int    `json:"retry_after"`
}

type validationItem struct {
	Loc []json.RawMessage `json:"loc"`
	Msg string            `json:"msg"`
}

func classifyError(resp *http.Response) error {
	raw, _ := io.ReadAll(resp.Body)

	var eb errorBody
	_ = json.Unmarshal(raw, &eb)

	message := eb.Message
	retryAfter := eb.RetryAfter
	if len(eb.Detail) > 0 {
		var d detailObject
		if json.Unmarshal(eb.Detail, &d) == nil {
			if d.Message != "" {
				message = d.Message
			}
			if d.RetryAfter > 0 {
				retryAfter = d.RetryAfter
			}
		}
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return ErrUnauthorized

	case http.StatusForbidden:
		if message == "" {
			message = "max-limit"
		}
		return &QuotaExceededError{Message: message}

	case http.StatusTooManyRequests:
		if retryAfter == 0 {
			if ra, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil {
				retryAfter = ra
			}
		}
		if message == "" {
			message = "too many requests"
		}
		return &RateLimitError{
			Message:    message,
			RetryAfter: time.Duration(retryAfter) * time.Second,
		}

	case http.StatusUnprocessableEntity:
		return parseValidationError(eb.Detail)

	default:
		return &APIError{StatusCode: resp.StatusCode, Body: string(bytes.TrimSpace(raw))}
	}
}

func parseValidationError(detail json.RawMessage) error {
	ve := &ValidationError{}
	var items []validationItem
	if json.Unmarshal(detail, &items) == nil {
		for _, item := range items {
			field := ""
			if n := len(item.Loc); n > 0 {
				// loc entries are strings or indices; the last one names the field
				var s string
				if json.Unmarshal(item.Loc[n-1], &s) == nil {
					field = s
				}
			}
			ve.Fields = append(ve.Fields, FieldError{Field: field, Message: item.Msg})
		}
	}
	return ve
}
