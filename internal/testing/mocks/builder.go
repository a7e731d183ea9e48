package mocks

import (
	"context"
	"sync"

	"github.com/AndreyAkinshin/measuretests/internal/build"
	"github.com/AndreyAkinshin/measuretests/internal/target"
)

// Builder implements build.Builder for testing. It returns Targets as-is,
// without applying the request's selection, or Err when set.
type Builder struct {
	Targets []target.Target
	Err     error

	mu       sync.Mutex
	requests []build.Request
}

// Build implements build.Builder.
func (b *Builder) Build(ctx context.Context, req build.Request) ([]target.Target, error) {
	b.mu.Lock()
	b.requests = append(b.requests, req)
	b.mu.Unlock()

	if b.Err != nil {
		return nil, b.Err
	}
	return b.Targets, nil
}

// Requests returns every build request received.
func (b *Builder) Requests() []build.Request {
	b.mu.Lock()
	defer b.mu.Unlock()
	result := make([]build.Request, len(b.requests))
	copy(result, b.requests)
	return result
}
