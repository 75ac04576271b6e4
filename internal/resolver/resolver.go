// Package resolver turns a word into a journey by consulting the archive,
// the persistent cache and the generation provider chain, in that order.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/pbaille/wanderword/internal/domain"
	"github.com/pbaille/wanderword/internal/provider"
	"github.com/pbaille/wanderword/internal/stats"
)

const (
	DefaultArchiveDelay = 600 * time.Millisecond
	DefaultCacheDelay   = 400 * time.Millisecond
)

// ErrEmptyInput is returned for words that are empty after trimming
var ErrEmptyInput = errors.New("empty word")

// ErrChainTooLong is returned when more providers are configured than there are live tags
var ErrChainTooLong = fmt.Errorf("at most %d generation providers are supported", domain.MaxLiveTiers)

// Archive is the read-only first tier
type Archive interface {
	Lookup(key string) (domain.Journey, bool)
}

// Cache is the persistent second tier
type Cache interface {
	Get(ctx context.Context, key string) (domain.Journey, bool, error)
	Set(ctx context.Context, key string, j domain.Journey) error
}

// NotFoundPolicy decides what a provider's explicit "word not found" does to the chain
type NotFoundPolicy string

const (
	// Cascade treats a not-found answer like any failed attempt
	Cascade NotFoundPolicy = "cascade"
	// FailFast stops the chain on the first not-found answer
	FailFast NotFoundPolicy = "fail_fast"
)

// Resolver orchestrates the tiered lookup
type Resolver struct {
	archive      Archive
	cache        Cache
	chain        []provider.Provider
	archiveDelay time.Duration
	cacheDelay   time.Duration
	notFound     NotFoundPolicy
	logger       *slog.Logger
	sleep        func(ctx context.Context, d time.Duration) error
}

// Option customizes a Resolver
type Option func(*Resolver)

// WithDelays sets the artificial latency applied to archive and cache hits
func WithDelays(archive, cache time.Duration) Option {
	return func(r *Resolver) {
		r.archiveDelay = archive
		r.cacheDelay = cache
	}
}

// WithNotFoundPolicy sets how a declared not-found answer is handled
func WithNotFoundPolicy(p NotFoundPolicy) Option {
	return func(r *Resolver) {
		if p != "" {
			r.notFound = p
		}
	}
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// New creates a Resolver. chain is consulted in order, most capable first.
func New(archive Archive, cache Cache, chain []provider.Provider, opts ...Option) (*Resolver, error) {
	if len(chain) > domain.MaxLiveTiers {
		return nil, ErrChainTooLong
	}
	r := &Resolver{
		archive:      archive,
		cache:        cache,
		chain:        chain,
		archiveDelay: DefaultArchiveDelay,
		cacheDelay:   DefaultCacheDelay,
		notFound:     Cascade,
		logger:       slog.Default(),
		sleep:        sleepContext,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.notFound != Cascade && r.notFound != FailFast {
		return nil, fmt.Errorf("unknown not-found policy %q", r.notFound)
	}
	return r, nil
}

// Providers returns the names of the configured chain, in order
func (r *Resolver) Providers() []string {
	names := make([]string, len(r.chain))
	for i, p := range r.chain {
		names[i] = p.Name()
	}
	return names
}

// Resolve returns the journey for word tagged with the tier that produced it.
// Only a *ResolutionError or a context error crosses this boundary.
func (r *Resolver) Resolve(ctx context.Context, word string) (domain.Journey, error) {
	key := domain.NormalizeWord(word)
	if key == "" {
		return domain.Journey{}, ErrEmptyInput
	}
	log := r.logger.With("resolution", uuid.NewString(), "word", key)

	if r.archive != nil {
		if j, ok := r.archive.Lookup(key); ok {
			log.Debug("serving from archive")
			if err := r.sleep(ctx, r.archiveDelay); err != nil {
				return domain.Journey{}, err
			}
			return j.WithSource(domain.SourceArchive), nil
		}
	}

	if j, ok := r.lookupCache(ctx, log, key); ok {
		log.Debug("serving from cache")
		if err := r.sleep(ctx, r.cacheDelay); err != nil {
			return domain.Journey{}, err
		}
		return j.WithSource(domain.SourceCache), nil
	}

	return r.generate(ctx, log, word, key)
}

func (r *Resolver) lookupCache(ctx context.Context, log *slog.Logger, key string) (domain.Journey, bool) {
	if r.cache == nil {
		return domain.Journey{}, false
	}
	j, ok, err := r.cache.Get(ctx, key)
	if err != nil {
		log.Warn("cache read failed, treating as miss", "error", err)
		return domain.Journey{}, false
	}
	if !ok {
		return domain.Journey{}, false
	}
	if err := j.Validate(); err != nil {
		log.Warn("cached journey invalid, treating as miss", "error", err)
		return domain.Journey{}, false
	}
	return j, true
}

func (r *Resolver) generate(ctx context.Context, log *slog.Logger, word, key string) (domain.Journey, error) {
	if len(r.chain) == 0 {
		return domain.Journey{}, &ResolutionError{
			Kind:   AllProvidersFailed,
			Word:   key,
			Detail: "no generation providers configured",
		}
	}

	prompt := provider.BuildPrompt(word)
	var attempts []Attempt

	for i, p := range r.chain {
		plog := log.With("provider", p.Name(), "tier", domain.LiveSource(i))
		plog.Info("generating journey")

		j, err := attempt(ctx, p, prompt)
		if err == nil {
			if bad := stats.Chronological(j); len(bad) > 0 {
				plog.Warn("journey is not chronological", "waypoints", bad)
			}
			r.store(ctx, plog, key, j)
			return j.WithSource(domain.LiveSource(i)), nil
		}

		attempts = append(attempts, Attempt{Provider: p.Name(), Err: err})
		if ctxErr := ctx.Err(); ctxErr != nil {
			return domain.Journey{}, ctxErr
		}

		switch {
		case errors.Is(err, provider.ErrDeclaredNotFound) && r.notFound == FailFast:
			plog.Info("provider declared word not found, stopping chain", "error", err)
			return domain.Journey{}, &ResolutionError{
				Kind:     NotFound,
				Word:     key,
				Detail:   err.Error(),
				Attempts: attempts,
			}
		case errors.Is(err, provider.ErrDeclaredNotFound):
			plog.Warn("provider declared word not found, falling back", "error", err)
		default:
			plog.Warn("provider attempt failed, falling back", "error", err)
		}
	}

	last := attempts[len(attempts)-1]
	log.Error("all providers failed", "attempts", len(attempts), "error", last.Err)
	return domain.Journey{}, &ResolutionError{
		Kind:     AllProvidersFailed,
		Word:     key,
		Detail:   last.Err.Error(),
		Attempts: attempts,
	}
}

func attempt(ctx context.Context, p provider.Provider, prompt string) (domain.Journey, error) {
	raw, err := p.Generate(ctx, prompt)
	if err != nil {
		return domain.Journey{}, err
	}
	return provider.ParseJourney(raw)
}

// store is best-effort: a failed write never fails the resolution
func (r *Resolver) store(ctx context.Context, log *slog.Logger, key string, j domain.Journey) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Set(ctx, key, j.WithSource("")); err != nil {
		log.Warn("failed to save journey to cache", "error", err)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
