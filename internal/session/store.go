package session

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/mentora-learn/gateway/internal/models"
)

var (
	// ErrNotFound is returned when no session exists for a token.
	ErrNotFound = errors.New("session not found")
	// ErrNilUser is returned when SetAuth is called without a user.
	ErrNilUser = errors.New("session user required")
)

// Store caches authenticated sessions keyed by bearer token. All mutations are
// whole-record replacements (last writer wins); there is no partial update.
//
// An empty token is legal on SetAuth: the session then lives only in the cookie set
// and is not cached server-side.
type Store interface {
	// SetAuth replaces the session for token with a fresh user snapshot.
	SetAuth(ctx context.Context, token string, user *models.User) error
	// SetToken re-keys an existing session under a new token, preserving the user.
	// Used when the platform API rotates the token after user data was cached.
	SetToken(ctx context.Context, oldToken, newToken string) error
	// Get returns the session for token, or ErrNotFound.
	Get(ctx context.Context, token string) (*models.Session, error)
	// ClearAuth resets the token to anonymous.
	ClearAuth(ctx context.Context, token string) error
}

func sessionKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return "session:" + hex.EncodeToString(sum[:])
}

// RedisStore is the production Store, with a fixed wall-clock TTL independent of the
// actual token TTL.
type RedisStore struct {
	client *goredis.Client
	ttl    time.Duration
}

// NewRedisStore creates a Redis-backed session store.
func NewRedisStore(client *goredis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = 8 * time.Hour
	}
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) SetAuth(ctx context.Context, token string, user *models.User) error {
	if user == nil {
		return ErrNilUser
	}
	if token == "" {
		return nil
	}
	now := time.Now().UTC()
	sess := &models.Session{User: user, Token: token, Authenticated: true, CreatedAt: now, UpdatedAt: now}
	raw, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := s.client.Set(ctx, sessionKey(token), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("set session: %w", err)
	}
	return nil
}

func (s *RedisStore) SetToken(ctx context.Context, oldToken, newToken string) error {
	if newToken == "" {
		return nil
	}
	sess, err := s.Get(ctx, oldToken)
	if err != nil {
		return err
	}
	sess.Token = newToken
	sess.UpdatedAt = time.Now().UTC()
	raw, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := s.client.Set(ctx, sessionKey(newToken), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("set session: %w", err)
	}
	if oldToken != "" && oldToken != newToken {
		_ = s.client.Del(ctx, sessionKey(oldToken)).Err()
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, token string) (*models.Session, error) {
	if token == "" {
		return nil, ErrNotFound
	}
	raw, err := s.client.Get(ctx, sessionKey(token)).Bytes()
	if err == goredis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	var sess models.Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		// A corrupt cache entry is treated as absent, not fatal.
		_ = s.client.Del(ctx, sessionKey(token)).Err()
		return nil, ErrNotFound
	}
	return &sess, nil
}

func (s *RedisStore) ClearAuth(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.client.Del(ctx, sessionKey(token)).Err(); err != nil {
		return fmt.Errorf("del session: %w", err)
	}
	return nil
}

// MemoryStore is an in-process Store for tests and single-node development.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*models.Session
	ttl      time.Duration
	expires  map[string]time.Time
	now      func() time.Time
}

// NewMemoryStore creates an in-memory session store.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = 8 * time.Hour
	}
	return &MemoryStore{
		sessions: make(map[string]*models.Session),
		expires:  make(map[string]time.Time),
		ttl:      ttl,
		now:      time.Now,
	}
}

func (s *MemoryStore) SetAuth(ctx context.Context, token string, user *models.User) error {
	if user == nil {
		return ErrNilUser
	}
	if token == "" {
		return nil
	}
	now := s.now().UTC()
	u := *user
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[token] = &models.Session{User: &u, Token: token, Authenticated: true, CreatedAt: now, UpdatedAt: now}
	s.expires[token] = now.Add(s.ttl)
	return nil
}

func (s *MemoryStore) SetToken(ctx context.Context, oldToken, newToken string) error {
	if newToken == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[oldToken]
	if !ok || s.expiredLocked(oldToken) {
		return ErrNotFound
	}
	now := s.now().UTC()
	sess.Token = newToken
	sess.UpdatedAt = now
	s.sessions[newToken] = sess
	s.expires[newToken] = now.Add(s.ttl)
	if oldToken != newToken {
		delete(s.sessions, oldToken)
		delete(s.expires, oldToken)
	}
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, token string) (*models.Session, error) {
	if token == "" {
		return nil, ErrNotFound
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[token]
	if !ok || s.expiredLocked(token) {
		return nil, ErrNotFound
	}
	copied := *sess
	return &copied, nil
}

func (s *MemoryStore) ClearAuth(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
	delete(s.expires, token)
	return nil
}

func (s *MemoryStore) expiredLocked(token string) bool {
	exp, ok := s.expires[token]
	if !ok {
		return true
	}
	if s.now().After(exp) {
		delete(s.sessions, token)
		delete(s.expires, token)
		return true
	}
	return false
}
