package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/abdasg25/BioPass/core"
	"github.com/redis/go-redis/v9"
)

// RedisStore is a Redis implementation of the session, user and device
// stores. QR sessions rely on Redis' native key expiry for their TTL.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore creates a new Redis store
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: "biopass:",
	}
}

func (s *RedisStore) sessionKey(key string) string   { return s.prefix + "qrsession:" + key }
func (s *RedisStore) userKey(id string) string       { return s.prefix + "user:" + id }
func (s *RedisStore) emailKey(email string) string   { return s.prefix + "user:email:" + email }
func (s *RedisStore) usernameKey(name string) string { return s.prefix + "user:name:" + name }
func (s *RedisStore) credentialKey(id string) string { return s.prefix + "credential:" + id }
func (s *RedisStore) deviceKey(id string) string     { return s.prefix + "device:" + id }
func (s *RedisStore) deviceUserKey(id string) string { return s.prefix + "device:user:" + id }

// CreateSession persists a new QR session with a TTL matching its expiry.
func (s *RedisStore) CreateSession(ctx context.Context, session *core.QRSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("session already expired")
	}

	if err := s.client.Set(ctx, s.sessionKey(session.SessionKey), data, ttl).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// GetSession loads a QR session by key.
func (s *RedisStore) GetSession(ctx context.Context, sessionKey string) (*core.QRSession, error) {
	data, err := s.client.Get(ctx, s.sessionKey(sessionKey)).Result()
	if err == redis.Nil {
		return nil, core.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	var session core.QRSession
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return &session, nil
}

// UpdateIfPending writes the session only while the stored record is still
// unauthenticated. The check-and-write runs under WATCH so two concurrent
// approvals cannot both win.
func (s *RedisStore) UpdateIfPending(ctx context.Context, session *core.QRSession) (bool, error) {
	key := s.sessionKey(session.SessionKey)
	won := false

	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Result()
		if err == redis.Nil {
			return core.ErrSessionNotFound
		}
		if err != nil {
			return err
		}

		var current core.QRSession
		if err := json.Unmarshal([]byte(data), &current); err != nil {
			return fmt.Errorf("unmarshal session: %w", err)
		}
		if current.Authenticated {
			// Another approver already bound this session.
			return nil
		}

		payload, err := json.Marshal(session)
		if err != nil {
			return fmt.Errorf("marshal session: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, redis.KeepTTL)
			return nil
		})
		if err == nil {
			won = true
		}
		return err
	}

	err := s.client.Watch(ctx, txf, key)
	if errors.Is(err, redis.TxFailedErr) {
		// The key changed under us; the concurrent writer won.
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("update session: %w", err)
	}
	return won, nil
}

// DeleteSession removes a QR session.
func (s *RedisStore) DeleteSession(ctx context.Context, sessionKey string) error {
	if err := s.client.Del(ctx, s.sessionKey(sessionKey)).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// CreateUser persists a new account and its lookup indexes.
func (s *RedisStore) CreateUser(ctx context.Context, user *core.User) error {
	return s.SaveUser(ctx, user)
}

// GetUser loads an account by id.
func (s *RedisStore) GetUser(ctx context.Context, id string) (*core.User, error) {
	data, err := s.client.Get(ctx, s.userKey(id)).Result()
	if err == redis.Nil {
		return nil, core.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	var user core.User
	if err := json.Unmarshal([]byte(data), &user); err != nil {
		return nil, fmt.Errorf("unmarshal user: %w", err)
	}
	return &user, nil
}

// GetUserByEmail resolves an account through the email index.
func (s *RedisStore) GetUserByEmail(ctx context.Context, email string) (*core.User, error) {
	id, err := s.client.Get(ctx, s.emailKey(email)).Result()
	if err == redis.Nil {
		return nil, core.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return s.GetUser(ctx, id)
}

// GetUserByUsername resolves an account through the username index.
func (s *RedisStore) GetUserByUsername(ctx context.Context, username string) (*core.User, error) {
	id, err := s.client.Get(ctx, s.usernameKey(username)).Result()
	if err == redis.Nil {
		return nil, core.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user by username: %w", err)
	}
	return s.GetUser(ctx, id)
}

// GetUserByCredentialID resolves the account owning a WebAuthn credential.
func (s *RedisStore) GetUserByCredentialID(ctx context.Context, credentialID string) (*core.User, error) {
	id, err := s.client.Get(ctx, s.credentialKey(credentialID)).Result()
	if err == redis.Nil {
		return nil, core.ErrCredentialNotRegistered
	}
	if err != nil {
		return nil, fmt.Errorf("get user by credential: %w", err)
	}
	return s.GetUser(ctx, id)
}

// SaveUser writes the account record and refreshes its indexes, including
// one entry per registered credential ID.
func (s *RedisStore) SaveUser(ctx context.Context, user *core.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.userKey(user.ID), data, 0)
	if user.Email != "" {
		pipe.Set(ctx, s.emailKey(user.Email), user.ID, 0)
	}
	if user.Username != "" {
		pipe.Set(ctx, s.usernameKey(user.Username), user.ID, 0)
	}
	for _, cred := range user.Credentials {
		pipe.Set(ctx, s.credentialKey(encodeCredentialID(cred.ID)), user.ID, 0)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}

// UpsertDevice registers a device binding, replacing any previous device
// held by the same account.
func (s *RedisStore) UpsertDevice(ctx context.Context, device *core.Device) error {
	previous, err := s.client.Get(ctx, s.deviceUserKey(device.UserID)).Result()
	if err != nil && err != redis.Nil {
		return fmt.Errorf("get device binding: %w", err)
	}

	data, err := json.Marshal(device)
	if err != nil {
		return fmt.Errorf("marshal device: %w", err)
	}

	pipe := s.client.TxPipeline()
	if previous != "" && previous != device.DeviceID {
		pipe.Del(ctx, s.deviceKey(previous))
	}
	pipe.Set(ctx, s.deviceKey(device.DeviceID), data, 0)
	pipe.Set(ctx, s.deviceUserKey(device.UserID), device.DeviceID, 0)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save device: %w", err)
	}
	return nil
}

// GetDevice loads a device binding by device id.
func (s *RedisStore) GetDevice(ctx context.Context, deviceID string) (*core.Device, error) {
	data, err := s.client.Get(ctx, s.deviceKey(deviceID)).Result()
	if err == redis.Nil {
		return nil, core.ErrDeviceNotRegistered
	}
	if err != nil {
		return nil, fmt.Errorf("get device: %w", err)
	}

	var device core.Device
	if err := json.Unmarshal([]byte(data), &device); err != nil {
		return nil, fmt.Errorf("unmarshal device: %w", err)
	}
	return &device, nil
}
