package singleinstance

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/deskgate/deskgate/internal/events"
)

func newInstance(t *testing.T, dir, identity string, args ...string) *Instance {
	t.Helper()
	inst, err := New(Options{Identity: identity, Args: args, Dir: dir})
	require.NoError(t, err)
	t.Cleanup(func() { inst.Close() })
	return inst
}

func TestNewEmptyIdentity(t *testing.T) {
	_, err := New(Options{Identity: " ", Dir: t.TempDir()})
	require.True(t, errors.Is(err, ErrEmptyIdentity))
}

func TestFollowerForwardsToLeader(t *testing.T) {
	dir := t.TempDir()

	leader := newInstance(t, dir, "si-forward")
	require.True(t, leader.OwnsLock())
	require.True(t, leader.IsFirstInstance())

	received := make(chan events.ArgumentsReceived, 4)
	leader.Subscribe(func(ev events.ArgumentsReceived) { received <- ev })
	require.NoError(t, leader.ListenForArgumentsFromSuccessiveInstances())
	require.True(t, leader.Listening())

	follower := newInstance(t, dir, "si-forward", "a", "", "/b")
	require.False(t, follower.OwnsLock())
	require.False(t, follower.IsFirstInstance())
	require.Equal(t, []string{"/a", "/b"}, follower.Arguments())

	require.True(t, follower.PassArgumentsToFirstInstance(context.Background()))

	select {
	case ev := <-received:
		require.Equal(t, []string{"/a", "/b"}, ev.Args)
	case <-time.After(5 * time.Second):
		t.Fatal("Timeout waiting for forwarded arguments")
	}

	// Exactly once
	select {
	case ev := <-received:
		t.Fatalf("Unexpected second delivery: %v", ev.Args)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestCloseCancelsRunningSubscriber(t *testing.T) {
	dir := t.TempDir()

	leader := newInstance(t, dir, "si-cancel")
	started := make(chan struct{})
	stopped := make(chan error, 1)
	leader.Subscribe(func(ev events.ArgumentsReceived) {
		close(started)
		<-ev.Context().Done()
		stopped <- ev.Context().Err()
	})
	require.NoError(t, leader.ListenForArgumentsFromSuccessiveInstances())

	follower := newInstance(t, dir, "si-cancel", "x")
	require.True(t, follower.PassArgumentsToFirstInstance(context.Background()))

	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("Subscriber was never called")
	}

	closed := make(chan error, 1)
	go func() { closed <- leader.Close() }()

	select {
	case err := <-closed:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Close blocked on a running subscriber")
	}
	require.ErrorIs(t, <-stopped, context.Canceled)
	require.Zero(t, leader.Stats().Abandoned)
}

func TestCloseAbandonsStuckSubscriber(t *testing.T) {
	dir := t.TempDir()

	leader, err := New(Options{Identity: "si-stuck", Dir: dir, DrainTimeout: 100 * time.Millisecond})
	require.NoError(t, err)

	started := make(chan struct{})
	release := make(chan struct{})
	defer close(release)
	leader.Subscribe(func(events.ArgumentsReceived) {
		close(started)
		<-release
	})
	require.NoError(t, leader.ListenForArgumentsFromSuccessiveInstances())

	follower := newInstance(t, dir, "si-stuck", "x")
	require.True(t, follower.PassArgumentsToFirstInstance(context.Background()))

	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("Subscriber was never called")
	}

	closed := make(chan error, 1)
	go func() { closed <- leader.Close() }()

	select {
	case err := <-closed:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Close blocked on a subscriber that ignores cancellation")
	}

	// The lock is free again even though the subscriber is still running
	next := newInstance(t, dir, "si-stuck")
	require.True(t, next.OwnsLock())
}

func TestFollowerWithoutArgumentsActsAsFirst(t *testing.T) {
	dir := t.TempDir()

	newInstance(t, dir, "si-noargs")
	follower := newInstance(t, dir, "si-noargs")

	require.False(t, follower.OwnsLock())
	require.True(t, follower.IsFirstInstance())
	require.False(t, follower.PassArgumentsToFirstInstance(context.Background()))

	// Not the owner: listening is a no-op and subscriptions are inert
	require.NoError(t, follower.ListenForArgumentsFromSuccessiveInstances())
	require.False(t, follower.Listening())
	require.False(t, follower.Subscribe(func(events.ArgumentsReceived) {}).Active())
}

func TestLeaderDoesNotForward(t *testing.T) {
	leader := newInstance(t, t.TempDir(), "si-self", "x")
	require.True(t, leader.OwnsLock())
	require.True(t, leader.IsFirstInstance())
	require.False(t, leader.PassArgumentsToFirstInstance(context.Background()))
}

func TestForwardFailsWhenLeaderNotListening(t *testing.T) {
	dir := t.TempDir()

	newInstance(t, dir, "si-deaf") // holds the lock, never listens

	inst, err := New(Options{
		Identity:       "si-deaf",
		Args:           []string{"/a"},
		Dir:            dir,
		ConnectTimeout: 100 * time.Millisecond,
	})
	require.NoError(t, err)
	defer inst.Close()

	start := time.Now()
	require.False(t, inst.PassArgumentsToFirstInstance(context.Background()))
	require.Less(t, time.Since(start), 2*time.Second)
}

func TestListenIsIdempotent(t *testing.T) {
	leader := newInstance(t, t.TempDir(), "si-idem")
	require.NoError(t, leader.ListenForArgumentsFromSuccessiveInstances())
	require.NoError(t, leader.ListenForArgumentsFromSuccessiveInstances())
}

func TestCloseReleasesLeadership(t *testing.T) {
	dir := t.TempDir()

	first, err := New(Options{Identity: "si-close", Dir: dir})
	require.NoError(t, err)
	require.NoError(t, first.ListenForArgumentsFromSuccessiveInstances())
	require.NoError(t, first.Close())
	require.NoError(t, first.Close())
	require.False(t, first.Listening())
	require.Error(t, first.ListenForArgumentsFromSuccessiveInstances())

	second := newInstance(t, dir, "si-close", "/x")
	require.True(t, second.OwnsLock())
	require.NoError(t, second.ListenForArgumentsFromSuccessiveInstances())
}

func TestManyFollowersEachDeliveredOnce(t *testing.T) {
	dir := t.TempDir()

	leader := newInstance(t, dir, "si-many")

	var mu sync.Mutex
	counts := make(map[string]int)
	done := make(chan struct{}, 16)
	leader.Subscribe(func(ev events.ArgumentsReceived) {
		mu.Lock()
		counts[ev.Args[0]]++
		mu.Unlock()
		done <- struct{}{}
	})
	require.NoError(t, leader.ListenForArgumentsFromSuccessiveInstances())

	names := []string{"one", "two", "three", "four"}
	var wg sync.WaitGroup
	for _, name := range names {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			inst, err := New(Options{
				Identity:       "si-many",
				Args:           []string{name},
				Dir:            dir,
				ConnectTimeout: 2 * time.Second,
			})
			if err != nil {
				t.Errorf("New failed: %v", err)
				return
			}
			defer inst.Close()
			if !inst.PassArgumentsToFirstInstance(context.Background()) {
				t.Errorf("Follower %s failed to forward", name)
			}
		}(name)
	}
	wg.Wait()

	for range names {
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("Timeout waiting for deliveries")
		}
	}

	mu.Lock()
	defer mu.Unlock()
	for _, name := range names {
		require.Equal(t, 1, counts["/"+name], "delivery count for %s", name)
	}
	require.Equal(t, int64(len(names)), leader.Stats().Dispatched)
}

func TestLeaderRecordsPID(t *testing.T) {
	dir := t.TempDir()

	pid, alive := LeaderPID(dir, "si-pid")
	require.Zero(t, pid)
	require.False(t, alive)

	leader, err := New(Options{Identity: "si-pid", Dir: dir})
	require.NoError(t, err)
	require.NoError(t, leader.ListenForArgumentsFromSuccessiveInstances())

	pid, alive = LeaderPID(dir, "si-pid")
	require.Equal(t, os.Getpid(), pid)
	require.True(t, alive)

	require.NoError(t, leader.Close())

	pid, _ = LeaderPID(dir, "si-pid")
	require.Zero(t, pid)
}

func TestReadPIDFileInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.pid")
	require.NoError(t, os.WriteFile(path, []byte("not-a-pid"), 0600))
	require.Zero(t, ReadPIDFile(path))
	require.Zero(t, ReadPIDFile(filepath.Join(t.TempDir(), "missing.pid")))
}
