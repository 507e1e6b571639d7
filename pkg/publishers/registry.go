package publishers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/samvad-hq/samvad-trend-scout/internal/logger"
)

// Builder constructs a publisher from one config entry.
type Builder func(ctx context.Context, cfg PublisherConfig, log logger.Logger) (Publisher, error)

// Registry resolves config entries to publishers by their type.
type Registry interface {
	Register(typ string, builder Builder)
	PublisherFor(ctx context.Context, cfg PublisherConfig, log logger.Logger) (Publisher, error)
}

// ErrUnknownType is returned for config entries whose type has no builder.
var ErrUnknownType = errors.New("unknown publisher type")

type builderSet struct {
	mu sync.RWMutex
	m  map[string]Builder
}

func typeKey(typ string) string { return strings.ToLower(strings.TrimSpace(typ)) }

// NewRegistry copies builders into a new registry; type names are case-insensitive.
func NewRegistry(builders map[string]Builder) Registry {
	set := &builderSet{m: make(map[string]Builder, len(builders))}
	for typ, b := range builders {
		set.Register(typ, b)
	}
	return set
}

// DefaultRegistry knows the http, sqs, sns and pubsub publishers.
func DefaultRegistry() Registry {
	return NewRegistry(map[string]Builder{
		TypeHTTP:   newHTTPPublisher,
		TypeSQS:    newSQSPublisher,
		TypeSNS:    newSNSPublisher,
		TypePubSub: newPubSubPublisher,
	})
}

// Register replaces any builder already bound to typ. Empty types and nil builders are ignored.
func (s *builderSet) Register(typ string, builder Builder) {
	key := typeKey(typ)
	if key == "" || builder == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key] = builder
}

func (s *builderSet) PublisherFor(ctx context.Context, cfg PublisherConfig, log logger.Logger) (Publisher, error) {
	key := typeKey(cfg.Type)
	if key == "" {
		return nil, fmt.Errorf("publisher %q has no type configured", cfg.ID)
	}

	s.mu.RLock()
	build, ok := s.m[key]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownType, cfg.Type)
	}
	return build(ctx, cfg, logger.Ensure(log))
}

// BuildAll builds every config in order. On the first failure it closes
// the publishers built so far and returns the error.
func BuildAll(ctx context.Context, reg Registry, cfgs []PublisherConfig, log logger.Logger) ([]Publisher, error) {
	if reg == nil {
		return nil, nil
	}

	built := make([]Publisher, 0, len(cfgs))
	for _, cfg := range cfgs {
		pub, err := reg.PublisherFor(ctx, cfg, log)
		if err == nil {
			built = append(built, pub)
			continue
		}
		errs := []error{fmt.Errorf("build publisher %q: %w", cfg.ID, err)}
		for _, p := range built {
			if c, ok := p.(io.Closer); ok {
				if cerr := c.Close(); cerr != nil {
					errs = append(errs, cerr)
				}
			}
		}
		return nil, errors.Join(errs...)
	}
	return built, nil
}
