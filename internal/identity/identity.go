// Package identity resolves the anonymous user id that stamps uploads.
package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Lllllllleong/routinesharing/internal/localstore"
	"github.com/Lllllllleong/routinesharing/internal/routines"
)

// DefaultTimeout bounds how long an operation waits for the handshake.
const DefaultTimeout = 10 * time.Second

// Source yields the anonymous identity, blocking until it is known.
type Source interface {
	Await(ctx context.Context) (string, error)
}

// Resolver performs the one-time sign-in.
type Resolver func(ctx context.Context) (string, error)

// Handshake runs a Resolver once in the background and lets any number of
// callers wait for its result.
type Handshake struct {
	done    chan struct{}
	id      string
	err     error
	timeout time.Duration
}

// Start begins the handshake immediately. ctx bounds the resolver itself.
func Start(ctx context.Context, resolve Resolver, timeout time.Duration) *Handshake {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	h := &Handshake{done: make(chan struct{}), timeout: timeout}
	go func() {
		defer close(h.done)
		id, err := resolve(ctx)
		if err == nil && id == "" {
			err = errors.New("no identity returned")
		}
		h.id, h.err = id, err
	}()
	return h
}

// Await returns the identity, ErrAuthFailed if sign-in failed, or
// ErrAuthTimeout if it did not finish within the handshake timeout.
func (h *Handshake) Await(ctx context.Context) (string, error) {
	timer := time.NewTimer(h.timeout)
	defer timer.Stop()
	select {
	case <-h.done:
		if h.err != nil {
			return "", fmt.Errorf("%w: %v", routines.ErrAuthFailed, h.err)
		}
		return h.id, nil
	case <-timer.C:
		return "", routines.ErrAuthTimeout
	case <-ctx.Done():
		return "", fmt.Errorf("%w: %v", routines.ErrAuthTimeout, ctx.Err())
	}
}

// Resolved is a Source that already knows its identity.
type Resolved string

func (r Resolved) Await(context.Context) (string, error) {
	if r == "" {
		return "", routines.ErrAuthFailed
	}
	return string(r), nil
}

// StorageKey is where the device-local anonymous id lives.
const StorageKey = "anonId"

// LocalResolver signs in with a random id minted on first use and reused on
// this device afterwards.
func LocalResolver(kv localstore.KV) Resolver {
	return func(ctx context.Context) (string, error) {
		raw, ok, err := kv.Get(ctx, StorageKey)
		if err != nil {
			return "", err
		}
		if ok && len(raw) > 0 {
			return string(raw), nil
		}
		id := uuid.NewString()
		if err := kv.Put(ctx, StorageKey, []byte(id)); err != nil {
			return "", err
		}
		return id, nil
	}
}
