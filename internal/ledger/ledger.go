// Package ledger remembers, per device, which sessions were liked today.
//
// The ledger is advisory. It stops repeated clicks from one device; it does
// not stop a second device or a cleared state file.
package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/Lllllllleong/routinesharing/internal/localstore"
)

// StorageKey holds the whole {sessionKey: dateString} mapping.
const StorageKey = "likedRoutines"

// dateLayout matches the device-local calendar string the web client stored.
const dateLayout = "Mon Jan 02 2006"

type Ledger struct {
	kv  localstore.KV
	now func() time.Time
}

type Option func(*Ledger)

// WithClock replaces the wall clock. The clock's location decides the
// calendar day.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

func New(kv localstore.KV, opts ...Option) *Ledger {
	l := &Ledger{kv: kv, now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Ledger) today() string {
	return l.now().Format(dateLayout)
}

func (l *Ledger) load(ctx context.Context) (map[string]string, error) {
	raw, ok, err := l.kv.Get(ctx, StorageKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read like ledger: %w", err)
	}
	entries := make(map[string]string)
	if !ok || len(raw) == 0 {
		return entries, nil
	}
	if err := json.Unmarshal(raw, &entries); err != nil {
		slog.Warn("Discarding unreadable like ledger.", "error", err)
		return make(map[string]string), nil
	}
	return entries, nil
}

// HasLikedToday reports whether the session was liked on today's calendar day.
func (l *Ledger) HasLikedToday(ctx context.Context, sessionKey string) (bool, error) {
	entries, err := l.load(ctx)
	if err != nil {
		return false, err
	}
	return entries[sessionKey] == l.today(), nil
}

// MarkLikedToday stamps the session with today's date.
func (l *Ledger) MarkLikedToday(ctx context.Context, sessionKey string) error {
	entries, err := l.load(ctx)
	if err != nil {
		return err
	}
	entries[sessionKey] = l.today()
	raw, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to encode like ledger: %w", err)
	}
	if err := l.kv.Put(ctx, StorageKey, raw); err != nil {
		return fmt.Errorf("failed to write like ledger: %w", err)
	}
	return nil
}
