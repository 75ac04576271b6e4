package provider

import (
	"net/http"
	"time"
)

const (
	defaultMaxTokens = 4096
	defaultTimeout   = 60 * time.Second
)

type options struct {
	endpoint  string
	maxTokens int
	client    *http.Client
}

// Option customizes a provider
type Option func(*options)

// WithEndpoint overrides the API base URL
func WithEndpoint(u string) Option {
	return func(o *options) {
		if u != "" {
			o.endpoint = u
		}
	}
}

// WithHTTPClient sets the client used for API calls
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		if c != nil {
			o.client = c
		}
	}
}

// WithMaxTokens caps the response length
func WithMaxTokens(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxTokens = n
		}
	}
}

func applyOptions(endpoint string, opts []Option) options {
	o := options{
		endpoint:  endpoint,
		maxTokens: defaultMaxTokens,
		client:    &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
