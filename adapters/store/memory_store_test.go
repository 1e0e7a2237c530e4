package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/abdasg25/BioPass/core"
	"github.com/go-webauthn/webauthn/webauthn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pendingSession(key string) *core.QRSession {
	now := time.Now()
	return &core.QRSession{
		SessionKey: key,
		CreatedAt:  now,
		ExpiresAt:  now.Add(5 * time.Minute),
	}
}

func TestMemoryStore_SessionLifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_, err := s.GetSession(ctx, "missing")
	assert.ErrorIs(t, err, core.ErrSessionNotFound)

	session := pendingSession("k1")
	require.NoError(t, s.CreateSession(ctx, session))

	got, err := s.GetSession(ctx, "k1")
	require.NoError(t, err)
	assert.False(t, got.Authenticated)

	require.NoError(t, s.DeleteSession(ctx, "k1"))
	_, err = s.GetSession(ctx, "k1")
	assert.ErrorIs(t, err, core.ErrSessionNotFound)
}

func TestMemoryStore_UpdateIfPending_WinsOnce(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	session := pendingSession("k1")
	require.NoError(t, s.CreateSession(ctx, session))

	first := *session
	first.Authenticated = true
	first.AuthenticatedUserID = "user-a"

	won, err := s.UpdateIfPending(ctx, &first)
	require.NoError(t, err)
	assert.True(t, won)

	second := *session
	second.Authenticated = true
	second.AuthenticatedUserID = "user-b"

	won, err = s.UpdateIfPending(ctx, &second)
	require.NoError(t, err)
	assert.False(t, won, "second approval must lose")

	got, err := s.GetSession(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, "user-a", got.AuthenticatedUserID, "binding must not be overwritten")
}

func TestMemoryStore_UpdateIfPending_Missing(t *testing.T) {
	s := NewMemoryStore()

	_, err := s.UpdateIfPending(context.Background(), pendingSession("nope"))
	assert.ErrorIs(t, err, core.ErrSessionNotFound)
}

func TestMemoryStore_UpdateIfPending_Concurrent(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.CreateSession(ctx, pendingSession("race")))

	const writers = 16
	var wg sync.WaitGroup
	wins := make(chan string, writers)

	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			update := pendingSession("race")
			update.Authenticated = true
			update.AuthenticatedUserID = string(rune('a' + id))
			won, err := s.UpdateIfPending(ctx, update)
			assert.NoError(t, err)
			if won {
				wins <- update.AuthenticatedUserID
			}
		}(i)
	}
	wg.Wait()
	close(wins)

	var winners []string
	for w := range wins {
		winners = append(winners, w)
	}
	require.Len(t, winners, 1, "exactly one writer must win")

	got, err := s.GetSession(ctx, "race")
	require.NoError(t, err)
	assert.Equal(t, winners[0], got.AuthenticatedUserID)
}

func TestMemoryStore_UserIndexes(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	user := &core.User{
		ID:       "u1",
		Username: "alice",
		Email:    "alice@example.com",
		Credentials: []webauthn.Credential{
			{ID: []byte{0x01, 0x02, 0x03}},
		},
	}
	require.NoError(t, s.CreateUser(ctx, user))

	byEmail, err := s.GetUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", byEmail.ID)

	byName, err := s.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "u1", byName.ID)

	byCred, err := s.GetUserByCredentialID(ctx, encodeCredentialID([]byte{0x01, 0x02, 0x03}))
	require.NoError(t, err)
	assert.Equal(t, "u1", byCred.ID)

	_, err = s.GetUserByCredentialID(ctx, "unknown")
	assert.ErrorIs(t, err, core.ErrCredentialNotRegistered)
}

func TestMemoryStore_DeviceUpsertReplacesBinding(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.UpsertDevice(ctx, &core.Device{UserID: "u1", DeviceID: "old-phone"}))
	require.NoError(t, s.UpsertDevice(ctx, &core.Device{UserID: "u1", DeviceID: "new-phone"}))

	_, err := s.GetDevice(ctx, "old-phone")
	assert.ErrorIs(t, err, core.ErrDeviceNotRegistered)

	device, err := s.GetDevice(ctx, "new-phone")
	require.NoError(t, err)
	assert.Equal(t, "u1", device.UserID)
}
