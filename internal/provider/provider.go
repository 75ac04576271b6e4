// Package provider talks to remote text-generation backends and turns
// their raw answers into journeys.
package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/pbaille/wanderword/internal/domain"
)

// Provider generates raw text for a prompt
type Provider interface {
	Name() string
	Generate(ctx context.Context, prompt string) (string, error)
}

var (
	// ErrParse means the response was not a structurally valid journey
	ErrParse = errors.New("unparseable provider response")

	// ErrDeclaredNotFound means the provider answered with an explicit error field
	ErrDeclaredNotFound = errors.New("provider declared word not found")
)

type envelope struct {
	domain.Journey
	Error string `json:"error,omitempty"`
}

// ParseJourney strips code fences from resp and decodes it.
// Failures wrap ErrParse or ErrDeclaredNotFound.
func ParseJourney(resp string) (domain.Journey, error) {
	resp = StripFences(resp)

	var env envelope
	if err := json.Unmarshal([]byte(resp), &env); err != nil {
		return domain.Journey{}, fmt.Errorf("%w: parse json: %v (response: %s)", ErrParse, err, truncate(resp, 200))
	}
	if env.Error != "" {
		return domain.Journey{}, fmt.Errorf("%w: %s", ErrDeclaredNotFound, env.Error)
	}
	if err := env.Journey.Validate(); err != nil {
		return domain.Journey{}, fmt.Errorf("%w: %v", ErrParse, err)
	}

	j := env.Journey
	j.Source = ""
	return j, nil
}

// StripFences removes markdown code fence markers anywhere in resp
func StripFences(resp string) string {
	resp = strings.ReplaceAll(resp, "```json", "")
	resp = strings.ReplaceAll(resp, "```", "")
	return strings.TrimSpace(resp)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max - 3
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
