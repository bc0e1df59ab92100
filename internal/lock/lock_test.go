package lock_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/openstack/designate-sub004/internal/errs"
	"github.com/openstack/designate-sub004/internal/lock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLock_SerializesSameZone(t *testing.T) {
	m := lock.NewLocalManager()

	var mu sync.Mutex
	inCritical := 0
	maxInCritical := 0

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, release, err := m.Lock(context.Background(), "zone-1")
			require.NoError(t, err)
			defer release()

			mu.Lock()
			inCritical++
			if inCritical > maxInCritical {
				maxInCritical = inCritical
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			inCritical--
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxInCritical)
}

func TestLock_Reentrant(t *testing.T) {
	m := lock.NewLocalManager()

	ctx, outer, err := m.Lock(context.Background(), "zone-1")
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		// Nested acquisition on the same zone using the returned context
		// must not deadlock.
		_, inner, err := m.Lock(ctx, "zone-1")
		require.NoError(t, err)
		inner()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("reentrant acquisition deadlocked")
	}
	outer()
}

func TestLock_DifferentZonesConcurrent(t *testing.T) {
	m := lock.NewLocalManager()

	_, r1, err := m.Lock(context.Background(), "zone-1")
	require.NoError(t, err)
	defer r1()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, r2, err := m.Lock(ctx, "zone-2")
	require.NoError(t, err)
	r2()
}

func TestLock_EmptyZoneIDIsProgrammingError(t *testing.T) {
	m := lock.NewLocalManager()
	_, _, err := m.Lock(context.Background(), "")
	require.Error(t, err)

	k, ok := errs.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, errs.KindProgramming, k)
}

func TestLock_ContextCancellation(t *testing.T) {
	m := lock.NewLocalManager()

	_, release, err := m.Lock(context.Background(), "zone-1")
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, _, err = m.Lock(ctx, "zone-1")
	require.Error(t, err)
	assert.True(t, errs.IsTimeout(err))
}

func TestLock_ReleaseIsIdempotent(t *testing.T) {
	m := lock.NewLocalManager()

	_, release, err := m.Lock(context.Background(), "zone-1")
	require.NoError(t, err)
	release()
	release() // second call must not unlock someone else's acquisition

	_, r2, err := m.Lock(context.Background(), "zone-1")
	require.NoError(t, err)
	r2()
}
