package querycache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserverLatestKeyWins(t *testing.T) {
	c := newTestCache(t)
	o := c.NewObserver()
	defer o.Close()

	slow := make(chan struct{})
	o.SetKey(Key{Kind: "events", Search: "ches"}, func(ctx context.Context) (any, error) {
		<-slow
		return "ches results", nil
	})

	type result struct {
		key  Key
		data any
	}
	results := make(chan result, 1)
	go func() {
		key, data, err := o.Result(context.Background())
		assert.NoError(t, err)
		results <- result{key: key, data: data}
	}()

	time.Sleep(10 * time.Millisecond)
	o.SetKey(Key{Kind: "events", Search: "chess"}, func(ctx context.Context) (any, error) {
		return "chess results", nil
	})
	close(slow)

	select {
	case r := <-results:
		assert.Equal(t, Key{Kind: "events", Search: "chess"}, r.key)
		assert.Equal(t, "chess results", r.data)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for result")
	}
	assert.Equal(t, 0, c.Snapshot(Key{Kind: "events", Search: "ches"}).Observers)
}

func TestObserverUpdatesOnInvalidate(t *testing.T) {
	c := newTestCache(t)
	o := c.NewObserver()
	defer o.Close()

	var n int
	o.SetKey(Key{Kind: "clubs"}, func(ctx context.Context) (any, error) {
		n++
		return n, nil
	})

	select {
	case <-o.Updates():
	case <-time.After(time.Second):
		t.Fatal("no initial update")
	}

	c.Invalidate(Key{Kind: "clubs"})
	select {
	case <-o.Updates():
	case <-time.After(time.Second):
		t.Fatal("no update after invalidate")
	}
	assert.Equal(t, 2, o.Snapshot().Data)
}

func TestMutateInvalidatesOnSuccess(t *testing.T) {
	c := newTestCache(t)
	fetch := func(ctx context.Context) (any, error) {
		return "x", nil
	}
	_, err := c.Get(context.Background(), Key{Kind: "events"}, fetch)
	require.NoError(t, err)

	result := Mutate(context.Background(), c, Mutation[string]{
		Name:        "join",
		Do:          func(ctx context.Context) (string, error) { return "joined", nil },
		Invalidates: []Key{{Kind: "events"}},
	})
	require.True(t, result.OK())
	assert.Equal(t, "joined", result.Value)
	assert.True(t, c.Snapshot(Key{Kind: "events"}).Stale)
}

func TestMutateKeepsCacheOnFailure(t *testing.T) {
	c := newTestCache(t)
	fetch := func(ctx context.Context) (any, error) {
		return "x", nil
	}
	_, err := c.Get(context.Background(), Key{Kind: "events"}, fetch)
	require.NoError(t, err)

	errFull := errors.New("full")
	result := Mutate(context.Background(), c, Mutation[string]{
		Name:        "join",
		Do:          func(ctx context.Context) (string, error) { return "", errFull },
		Invalidates: []Key{{Kind: "events"}},
	})
	require.ErrorIs(t, result.Err, errFull)
	assert.False(t, c.Snapshot(Key{Kind: "events"}).Stale)

	result = Mutate(context.Background(), c, Mutation[string]{
		Name:        "join",
		Do:          func(ctx context.Context) (string, error) { return "", errFull },
		Invalidates: []Key{{Kind: "events"}},
		Reconcile:   func(err error) bool { return errors.Is(err, errFull) },
	})
	assert.False(t, result.OK())
	assert.True(t, c.Snapshot(Key{Kind: "events"}).Stale)
}
