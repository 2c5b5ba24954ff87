package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/Lllllllleong/routinesharing/internal/localstore"
	"github.com/Lllllllleong/routinesharing/internal/routines"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestHandshake_Resolves(t *testing.T) {
	h := Start(context.Background(), func(context.Context) (string, error) { return "anon-1", nil }, time.Second)
	id, err := h.Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "anon-1", id)

	// later callers see the same result
	id, err = h.Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "anon-1", id)
}

func TestHandshake_TimesOut(t *testing.T) {
	release := make(chan struct{})
	h := Start(context.Background(), func(context.Context) (string, error) {
		<-release
		return "late", nil
	}, 20*time.Millisecond)

	_, err := h.Await(context.Background())
	assert.ErrorIs(t, err, routines.ErrAuthTimeout)

	close(release)
	<-h.done
}

func TestHandshake_ContextCancelled(t *testing.T) {
	release := make(chan struct{})
	h := Start(context.Background(), func(context.Context) (string, error) {
		<-release
		return "late", nil
	}, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := h.Await(ctx)
	assert.ErrorIs(t, err, routines.ErrAuthTimeout)

	close(release)
	<-h.done
}

func TestHandshake_Failure(t *testing.T) {
	h := Start(context.Background(), func(context.Context) (string, error) {
		return "", errors.New("sign-in disabled")
	}, time.Second)
	_, err := h.Await(context.Background())
	assert.ErrorIs(t, err, routines.ErrAuthFailed)

	h = Start(context.Background(), func(context.Context) (string, error) { return "", nil }, time.Second)
	_, err = h.Await(context.Background())
	assert.ErrorIs(t, err, routines.ErrAuthFailed)
}

func TestResolved(t *testing.T) {
	id, err := Resolved("abc").Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "abc", id)

	_, err = Resolved("").Await(context.Background())
	assert.ErrorIs(t, err, routines.ErrAuthFailed)
}

func TestLocalResolver_MintsOnceAndReuses(t *testing.T) {
	kv := localstore.NewMemory()
	resolve := LocalResolver(kv)

	first, err := resolve(context.Background())
	require.NoError(t, err)
	_, err = uuid.Parse(first)
	require.NoError(t, err)

	second, err := resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
