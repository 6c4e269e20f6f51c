// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating HTTP request data.
// It reduces code duplication by providing reusable functions for common
// form parsing, date extraction, and input sanitization patterns.

package http

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"khata/internal/core"
)

// parseDateParam reads a YYYY-MM-DD value from query or form data, falling
// back to today when missing or malformed. All report buckets key on this
// canonical form, so anything else is rejected rather than guessed at.
func parseDateParam(values url.Values, key string) string {
	v := strings.TrimSpace(values.Get(key))
	if _, err := time.Parse("2006-01-02", v); err != nil {
		return core.DateKey(core.Timestamp(time.Now()))
	}
	return v
}

// parseMonthParam reads a YYYY-MM value, returning "" when absent or invalid
// so callers can fall back to the default month for the snapshot.
func parseMonthParam(values url.Values, key string) string {
	v := strings.TrimSpace(values.Get(key))
	if _, err := time.Parse("2006-01", v); err != nil {
		return ""
	}
	return v
}

// parseAmountField parses a positive decimal amount from a request field.
func parseAmountField(v string) (core.Amount, error) {
	a, err := core.ParseAmount(strings.TrimSpace(v))
	if err != nil {
		return core.Zero, err
	}
	if !a.IsPositive() {
		return core.Zero, core.ErrInvalidAmount
	}
	return a, nil
}

// RequestBodyParser handles different content types for request body parsing.
// It supports both JSON and form-encoded data, commonly used with HTMX.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]interface{}
	formData    url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser creates a parser for the given request.
// It reads the body once and stores it for subsequent parsing.
func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{
		contentType: r.Header.Get("Content-Type"),
	}

	p.body, p.err = io.ReadAll(r.Body)
	return p
}

// Parse attempts to parse the body as JSON or form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	if len(p.body) == 0 {
		p.formData = url.Values{}
		return nil
	}

	// Try JSON first if content looks like JSON
	if p.body[0] == '{' || p.body[0] == '[' {
		p.jsonData = make(map[string]interface{})
		if err := json.Unmarshal(p.body, &p.jsonData); err != nil {
			p.err = err
			return err
		}
		return nil
	}

	// Fall back to form parsing
	p.formData, p.err = url.ParseQuery(string(p.body))
	return p.err
}

// Get returns a string value from the parsed data (JSON or form),
// sanitized and trimmed. Parsing happens lazily on first access.
func (p *RequestBodyParser) Get(key string) string {
	if !p.parsed {
		_ = p.Parse()
	}
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return strings.TrimSpace(sanitizeInput(stringValue(val)))
		}
	}
	if p.formData != nil {
		return strings.TrimSpace(sanitizeInput(p.formData.Get(key)))
	}
	return ""
}

// IsJSON returns true if the parsed content was JSON.
func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

// stringValue converts an interface{} to string.
func stringValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// RequireMethod checks if the request method matches the expected method(s).
// Returns an error response builder if the method doesn't match.
func RequireMethod(r *http.Request, methods ...string) *HTMXResponseBuilder {
	for _, m := range methods {
		if r.Method == m {
			return nil
		}
	}
	return MethodNotAllowedError(strings.Join(methods, ", "))
}
