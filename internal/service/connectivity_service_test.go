package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProbeDispatchesOnTransitionsOnly(t *testing.T) {
	fr := &fakeRemote{}
	svc := NewConnectivityService(fr, time.Minute)

	var events []bool
	svc.Subscribe(func(online bool) { events = append(events, online) })

	// already online, no transition
	assert.True(t, svc.Probe(context.Background()))
	assert.Empty(t, events)

	fr.mu.Lock()
	fr.failPing = true
	fr.mu.Unlock()

	assert.False(t, svc.Probe(context.Background()))
	// repeated offline probes do not re-fire
	assert.False(t, svc.Probe(context.Background()))

	fr.mu.Lock()
	fr.failPing = false
	fr.mu.Unlock()

	assert.True(t, svc.Probe(context.Background()))

	require.Equal(t, []bool{false, true}, events)
	assert.True(t, svc.Online())
}

func TestObserversFireInRegistrationOrder(t *testing.T) {
	fr := &fakeRemote{failPing: true}
	svc := NewConnectivityService(fr, time.Minute)

	var order []string
	svc.Subscribe(func(bool) { order = append(order, "first") })
	svc.Subscribe(func(bool) { order = append(order, "second") })

	svc.Probe(context.Background())
	require.Equal(t, []string{"first", "second"}, order)
}

func TestUnsubscribeStopsDispatch(t *testing.T) {
	fr := &fakeRemote{failPing: true}
	svc := NewConnectivityService(fr, time.Minute)

	fired := 0
	id := svc.Subscribe(func(bool) { fired++ })
	svc.Unsubscribe(id)

	svc.Probe(context.Background())
	assert.Equal(t, 0, fired)
}

func TestReconnectTriggersFlush(t *testing.T) {
	fr := &fakeRemote{failPing: true, failSubmit: true}
	syncSvc, _ := newSyncFixture(t, fr)
	svc := NewConnectivityService(fr, time.Minute)

	require.NoError(t, syncSvc.EnqueueAttempt(testAttempt("a-1")))

	// the app wiring: restore-transition drains the queue
	svc.Subscribe(func(online bool) {
		if online {
			syncSvc.Flush(context.Background())
		}
	})

	svc.Probe(context.Background()) // offline

	fr.mu.Lock()
	fr.failPing = false
	fr.failSubmit = false
	fr.mu.Unlock()

	svc.Probe(context.Background()) // online again

	pending, err := syncSvc.PendingCount()
	require.NoError(t, err)
	assert.EqualValues(t, 0, pending)
	assert.Len(t, fr.submitted, 1)
}
