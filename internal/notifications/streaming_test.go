package notifications

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foodcourt/internal/constants"
	"foodcourt/internal/logger"
)

func newTestRegistry() *Registry {
	// Long heartbeat so the ticker never interferes with assertions.
	return NewRegistry(time.Hour, logger.NopLogger())
}

func TestRegistryBroadcastToUser(t *testing.T) {
	r := newTestRegistry()
	alice := r.Register("conn-1", "42")
	bob := r.Register("conn-2", "7")
	defer r.Unregister(alice.ID)
	defer r.Unregister(bob.ID)

	sent, failed := r.BroadcastToUser("42", StreamEvent{Type: StreamEventNotification, Timestamp: time.Now()})
	assert.Equal(t, 1, sent)
	assert.Zero(t, failed)

	select {
	case ev := <-alice.Events:
		assert.Equal(t, StreamEventNotification, ev.Type)
	default:
		t.Fatal("expected event for alice")
	}

	select {
	case <-bob.Events:
		t.Fatal("bob must not receive alice's event")
	default:
	}
}

func TestRegistryBroadcastWildcardTarget(t *testing.T) {
	r := newTestRegistry()
	r.Register("conn-1", "42")
	r.Register("conn-2", "7")

	sent, _ := r.BroadcastToUser(constants.BroadcastAllUsers, StreamEvent{Type: StreamEventNotification})
	assert.Equal(t, 2, sent)
}

func TestRegistryWildcardSubscriberReceivesEverything(t *testing.T) {
	r := newTestRegistry()
	ops := r.Register("conn-ops", constants.BroadcastAllUsers)

	sent, _ := r.BroadcastToUser("42", StreamEvent{Type: StreamEventNotification})
	assert.Equal(t, 1, sent)

	select {
	case <-ops.Events:
	default:
		t.Fatal("wildcard subscriber should receive user-targeted events")
	}
}

func TestRegistryEvictsUnresponsiveConnection(t *testing.T) {
	r := newTestRegistry()
	stuck := r.Register("conn-stuck", "42")
	healthy := r.Register("conn-ok", "42")

	// Saturate the stuck connection's buffer without draining it.
	for i := 0; i < constants.StreamBufferSize; i++ {
		sent, failed := r.BroadcastToUser("42", StreamEvent{Type: StreamEventNotification})
		require.Equal(t, 2, sent)
		require.Zero(t, failed)
		<-healthy.Events
	}

	sent, failed := r.BroadcastToUser("42", StreamEvent{Type: StreamEventNotification})
	assert.Equal(t, 1, sent)
	assert.Equal(t, 1, failed)

	// Only the stuck connection is gone.
	assert.Equal(t, 1, r.Count())
	select {
	case <-stuck.Done():
	case <-time.After(time.Second):
		t.Fatal("evicted connection should be marked done")
	}
}

func TestRegistryUnregisterIdempotent(t *testing.T) {
	r := newTestRegistry()
	conn := r.Register("conn-1", "42")

	r.Unregister(conn.ID)
	r.Unregister(conn.ID)
	assert.Zero(t, r.Count())
}

func TestRegistryHeartbeat(t *testing.T) {
	r := NewRegistry(20*time.Millisecond, logger.NopLogger())
	conn := r.Register("conn-1", "42")
	defer r.Unregister(conn.ID)

	select {
	case ev := <-conn.Events:
		assert.Equal(t, StreamEventHeartbeat, ev.Type)
	case <-time.After(time.Second):
		t.Fatal("expected a heartbeat event")
	}
}

func TestRegistryCountForUser(t *testing.T) {
	r := newTestRegistry()
	r.Register("conn-1", "42")
	r.Register("conn-2", "42")
	r.Register("conn-3", "7")

	assert.Equal(t, 2, r.CountForUser("42"))
	assert.Equal(t, 1, r.CountForUser("7"))
	assert.Zero(t, r.CountForUser("99"))
}
