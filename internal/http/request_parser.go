// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating HTTP request data.
// Expense payloads arrive either as JSON from API clients or as form posts
// from the dashboard; both are reduced to a core.Draft.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"expensetracker/internal/core"
	"expensetracker/internal/report"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// RequestBodyParser handles different content types for request body parsing.
// It supports both JSON and form-encoded data.
type RequestBodyParser struct {
	body        []byte
	contentType string
	formData    url.Values
	err         error
}

// NewRequestBodyParser creates a parser for the given request.
// It reads the body once and stores it for subsequent parsing.
func NewRequestBodyParser(w http.ResponseWriter, r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{
		contentType: r.Header.Get("Content-Type"),
	}
	p.body, p.err = io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	return p
}

// IsForm reports whether the body is form-encoded.
func (p *RequestBodyParser) IsForm() bool {
	mt, _, err := mime.ParseMediaType(p.contentType)
	return err == nil && mt == "application/x-www-form-urlencoded"
}

// Draft decodes the body into a draft. Decoding failures are validation
// errors so that they surface as 400.
func (p *RequestBodyParser) Draft() (core.Draft, error) {
	if p.err != nil {
		return core.Draft{}, core.NewValidationError(fmt.Errorf("read request body: %w", p.err))
	}
	if p.IsForm() {
		return p.formDraft()
	}
	return p.jsonDraft()
}

func (p *RequestBodyParser) jsonDraft() (core.Draft, error) {
	if len(strings.TrimSpace(string(p.body))) == 0 {
		return core.Draft{}, core.NewValidationError(errors.New("request body is required"))
	}
	var d core.Draft
	if err := json.Unmarshal(p.body, &d); err != nil {
		if errors.Is(err, core.ErrInvalidAmount) || errors.Is(err, core.ErrMissingAmount) {
			return core.Draft{}, core.NewValidationError(err)
		}
		return core.Draft{}, core.NewValidationError(fmt.Errorf("invalid JSON body: %w", err))
	}
	return sanitizeDraft(d), nil
}

// ParseForm parses a form-encoded body so that Get can read it.
func (p *RequestBodyParser) ParseForm() error {
	if p.formData != nil {
		return nil
	}
	if p.err != nil {
		return p.err
	}
	form, err := url.ParseQuery(string(p.body))
	if err != nil {
		return err
	}
	p.formData = form
	return nil
}

func (p *RequestBodyParser) formDraft() (core.Draft, error) {
	if err := p.ParseForm(); err != nil {
		return core.Draft{}, core.NewValidationError(fmt.Errorf("invalid form body: %w", err))
	}
	form := p.formData

	d := core.Draft{
		Category:    form.Get("category"),
		Description: form.Get("description"),
		Date:        form.Get("date"),
	}
	if raw := strings.TrimSpace(form.Get("amount")); raw != "" {
		amount, err := core.ParseMoney(raw)
		if err != nil {
			return core.Draft{}, core.NewValidationError(err)
		}
		d.Amount = &amount
	}
	return sanitizeDraft(d), nil
}

// Get returns a form value once the body has been parsed as a form.
func (p *RequestBodyParser) Get(key string) string {
	if p.formData == nil {
		return ""
	}
	return sanitizeInput(p.formData.Get(key))
}

func sanitizeDraft(d core.Draft) core.Draft {
	d.Category = sanitizeInput(d.Category)
	d.Description = sanitizeInput(d.Description)
	d.Date = sanitizeInput(d.Date)
	return d
}

// categoryFilter reads the ?category= filter, defaulting to all.
func categoryFilter(query url.Values) string {
	if c := sanitizeInput(query.Get("category")); c != "" {
		return c
	}
	return report.FilterAll
}
