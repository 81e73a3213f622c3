package infra

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eliteGoblin/eztrackd/internal/domain"
)

func newTestRegistry(t *testing.T) *FileRegistry {
	t.Helper()
	return NewFileRegistryWithPath(filepath.Join(t.TempDir(), "session.json"))
}

// TestRegistry_GetWithoutRegister verifies a missing file yields nil
func TestRegistry_GetWithoutRegister(t *testing.T) {
	r := newTestRegistry(t)

	s, err := r.Get()

	require.NoError(t, err)
	assert.Nil(t, s)
}

// TestRegistry_RegisterAndGet verifies round-tripping a session
func TestRegistry_RegisterAndGet(t *testing.T) {
	r := newTestRegistry(t)
	started := time.Unix(1000, 0).UTC()

	err := r.Register(domain.Session{
		PID:        4242,
		SessionID:  "abc-123",
		StartedAt:  started,
		AppVersion: "0.1.0",
	})
	require.NoError(t, err)

	s, err := r.Get()
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, 4242, s.PID)
	assert.Equal(t, "abc-123", s.SessionID)
	assert.True(t, started.Equal(s.StartedAt))
	assert.Equal(t, "0.1.0", s.AppVersion)
}

// TestRegistry_UpdateFlush verifies the flush timestamp moves
func TestRegistry_UpdateFlush(t *testing.T) {
	r := newTestRegistry(t)
	require.NoError(t, r.Register(domain.Session{PID: 1, SessionID: "s"}))

	at := time.Unix(2000, 0).UTC()
	require.NoError(t, r.UpdateFlush(at))

	s, err := r.Get()
	require.NoError(t, err)
	assert.True(t, at.Equal(s.LastFlushAt))
}

// TestRegistry_UpdateFlushWithoutSession verifies the error path
func TestRegistry_UpdateFlushWithoutSession(t *testing.T) {
	r := newTestRegistry(t)

	err := r.UpdateFlush(time.Now())

	assert.Error(t, err)
}

// TestRegistry_Clear verifies removal is idempotent
func TestRegistry_Clear(t *testing.T) {
	r := newTestRegistry(t)
	require.NoError(t, r.Register(domain.Session{PID: 1, SessionID: "s"}))

	require.NoError(t, r.Clear())
	require.NoError(t, r.Clear()) // second clear is a no-op

	s, err := r.Get()
	require.NoError(t, err)
	assert.Nil(t, s)
}

// TestRegistry_CorruptFile verifies corrupt JSON surfaces an error
func TestRegistry_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))
	r := NewFileRegistryWithPath(path)

	_, err := r.Get()

	assert.Error(t, err)
}

// TestRegistry_IsAlive verifies liveness against our own PID
func TestRegistry_IsAlive(t *testing.T) {
	r := newTestRegistry(t)

	assert.True(t, r.IsAlive(os.Getpid()))
	assert.False(t, r.IsAlive(-1))
}
