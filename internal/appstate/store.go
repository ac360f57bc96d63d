package appstate

import (
	"context"
	"encoding/json"
	"time"

	"notesnap-gateway/internal/entity"

	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

// IStore is the application-state store: the signed-in user record, the
// dark-mode flag and the pending password reset. It replaces the ad hoc
// key-value access the product previously scattered across components
// with typed accessors and a clear load-on-login / clear-on-logout
// contract.
type IStore interface {
	SaveUser(ctx context.Context, user *entity.UserAccount) error
	LoadUser(ctx context.Context, userId string) (*entity.UserAccount, bool)
	ClearUser(ctx context.Context, userId string) error

	SetDarkMode(ctx context.Context, userId string, enabled bool) error
	DarkMode(ctx context.Context, userId string) bool

	SavePendingReset(ctx context.Context, pending *entity.PendingPasswordReset) error
	TakePendingReset(ctx context.Context, email string) (*entity.PendingPasswordReset, bool)
}

const (
	userKeyPrefix     = "appstate:user:"
	darkModeKeyPrefix = "appstate:darkmode:"
	resetKeyPrefix    = "appstate:reset:"

	userTTL  = 30 * 24 * time.Hour
	resetTTL = 15 * time.Minute
)

// Store keeps everything in a local cache and writes through to Redis
// when one is configured, so state survives gateway restarts. A nil
// Redis client degrades to in-memory only.
type Store struct {
	cache *cache.Cache
	rdb   *redis.Client
}

var _ IStore = &Store{}

func NewStore(rdb *redis.Client) *Store {
	return &Store{
		cache: cache.New(cache.NoExpiration, 10*time.Minute),
		rdb:   rdb,
	}
}

func (s *Store) SaveUser(ctx context.Context, user *entity.UserAccount) error {
	s.cache.Set(userKeyPrefix+user.Id, user, cache.NoExpiration)
	return s.writeThrough(ctx, userKeyPrefix+user.Id, user, userTTL)
}

func (s *Store) LoadUser(ctx context.Context, userId string) (*entity.UserAccount, bool) {
	if x, found := s.cache.Get(userKeyPrefix + userId); found {
		return x.(*entity.UserAccount), true
	}

	var user entity.UserAccount
	if s.readThrough(ctx, userKeyPrefix+userId, &user) {
		s.cache.Set(userKeyPrefix+userId, &user, cache.NoExpiration)
		return &user, true
	}
	return nil, false
}

func (s *Store) ClearUser(ctx context.Context, userId string) error {
	s.cache.Delete(userKeyPrefix + userId)
	s.cache.Delete(darkModeKeyPrefix + userId)
	if s.rdb != nil {
		return s.rdb.Del(ctx, userKeyPrefix+userId).Err()
	}
	return nil
}

func (s *Store) SetDarkMode(ctx context.Context, userId string, enabled bool) error {
	s.cache.Set(darkModeKeyPrefix+userId, enabled, cache.NoExpiration)
	return s.writeThrough(ctx, darkModeKeyPrefix+userId, enabled, 0)
}

func (s *Store) DarkMode(ctx context.Context, userId string) bool {
	if x, found := s.cache.Get(darkModeKeyPrefix + userId); found {
		return x.(bool)
	}

	var enabled bool
	if s.readThrough(ctx, darkModeKeyPrefix+userId, &enabled) {
		s.cache.Set(darkModeKeyPrefix+userId, enabled, cache.NoExpiration)
	}
	return enabled
}

func (s *Store) SavePendingReset(ctx context.Context, pending *entity.PendingPasswordReset) error {
	s.cache.Set(resetKeyPrefix+pending.Email, pending, resetTTL)
	return s.writeThrough(ctx, resetKeyPrefix+pending.Email, pending, resetTTL)
}

// TakePendingReset returns and consumes the pending reset for an email.
// Single use: a second reset attempt needs a fresh forgot-password call.
func (s *Store) TakePendingReset(ctx context.Context, email string) (*entity.PendingPasswordReset, bool) {
	var pending *entity.PendingPasswordReset

	if x, found := s.cache.Get(resetKeyPrefix + email); found {
		pending = x.(*entity.PendingPasswordReset)
	} else {
		var fromRedis entity.PendingPasswordReset
		if s.readThrough(ctx, resetKeyPrefix+email, &fromRedis) {
			pending = &fromRedis
		}
	}

	if pending == nil {
		return nil, false
	}

	s.cache.Delete(resetKeyPrefix + email)
	if s.rdb != nil {
		_ = s.rdb.Del(ctx, resetKeyPrefix+email).Err()
	}
	return pending, true
}

func (s *Store) writeThrough(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if s.rdb == nil {
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, key, data, ttl).Err()
}

func (s *Store) readThrough(ctx context.Context, key string, dest interface{}) bool {
	if s.rdb == nil {
		return false
	}
	data, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(data, dest) == nil
}
