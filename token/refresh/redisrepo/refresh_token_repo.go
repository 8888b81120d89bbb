package redisrefreshrepo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	apperrors "github.com/jrsteele09/bookstore-auth/internal/errors"
	"github.com/jrsteele09/bookstore-auth/token/refresh"
	"github.com/redis/go-redis/v9"
)

var _ refresh.Repo = (*Repo)(nil)

const (
	DefaultPrefix = "auth:refresh:"
	maxTxRetries  = 100
)

// record is the JSON value stored under the token key
type record struct {
	UserID    string `json:"user_id"`
	ExpiresAt int64  `json:"expires_at"` // unix nanoseconds
	CreatedAt int64  `json:"created_at"`
}

// Repo keeps refresh tokens in Redis:
//
//	<prefix>token:<token> -> JSON record
//	<prefix>user:<userID> -> token
//	<prefix>expiry        -> sorted set of tokens scored by expiry (unix ms)
//
// Keys carry no Redis TTL: an expired token must still be found so callers
// can tell "expired" from "unknown". SweepExpired removes them.
type Repo struct {
	client redis.UniversalClient
	prefix string
}

type Option func(*Repo)

func WithPrefix(prefix string) Option {
	return func(r *Repo) {
		r.prefix = prefix
	}
}

func New(client redis.UniversalClient, options ...Option) *Repo {
	r := &Repo{client: client, prefix: DefaultPrefix}
	for _, opt := range options {
		opt(r)
	}
	return r
}

// Connect opens a client and pings it within two seconds
func Connect(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return client, nil
}

func (r *Repo) tokenKey(token string) string { return r.prefix + "token:" + token }
func (r *Repo) userKey(userID string) string { return r.prefix + "user:" + userID }
func (r *Repo) expiryKey() string            { return r.prefix + "expiry" }

func (r *Repo) Replace(ctx context.Context, rt *refresh.StoredRefreshToken) error {
	data, err := json.Marshal(record{
		UserID:    rt.UserID,
		ExpiresAt: rt.ExpiresAt.UnixNano(),
		CreatedAt: rt.CreatedAt.UnixNano(),
	})
	if err != nil {
		return fmt.Errorf("replace refresh token: marshal: %w", err)
	}

	userKey := r.userKey(rt.UserID)
	return r.withRetry(ctx, func(tx *redis.Tx) error {
		old, err := tx.Get(ctx, userKey).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			if old != "" {
				p.Del(ctx, r.tokenKey(old))
				p.ZRem(ctx, r.expiryKey(), old)
			}
			p.Set(ctx, r.tokenKey(rt.Token), data, 0)
			p.Set(ctx, userKey, rt.Token, 0)
			p.ZAdd(ctx, r.expiryKey(), redis.Z{Score: float64(rt.ExpiresAt.UnixMilli()), Member: rt.Token})
			return nil
		})
		return err
	}, userKey)
}

func (r *Repo) Get(ctx context.Context, token string) (*refresh.StoredRefreshToken, error) {
	return r.get(ctx, r.client, token)
}

func (r *Repo) GetByUserID(ctx context.Context, userID string) (*refresh.StoredRefreshToken, error) {
	token, err := r.client.Get(ctx, r.userKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get refresh token by user: %w", err)
	}
	return r.Get(ctx, token)
}

func (r *Repo) Delete(ctx context.Context, token string) error {
	_, err := r.delete(ctx, token)
	return err
}

func (r *Repo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	tokens, err := r.client.ZRangeByScore(ctx, r.expiryKey(), &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(now.UnixMilli(), 10),
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("delete expired refresh tokens: range: %w", err)
	}

	var n int64
	for _, token := range tokens {
		rt, err := r.Get(ctx, token)
		if errors.Is(err, apperrors.ErrNotFound) {
			// dangling index entry
			r.client.ZRem(ctx, r.expiryKey(), token)
			continue
		}
		if err != nil {
			return n, err
		}
		// the index is millisecond precise, the record is exact
		if !rt.Expired(now) {
			continue
		}
		deleted, err := r.delete(ctx, token)
		if err != nil {
			return n, err
		}
		if deleted {
			n++
		}
	}
	return n, nil
}

func (r *Repo) delete(ctx context.Context, token string) (bool, error) {
	tokenKey := r.tokenKey(token)
	deleted := false

	err := r.withRetry(ctx, func(tx *redis.Tx) error {
		deleted = false
		rt, err := r.get(ctx, tx, token)
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		userKey := r.userKey(rt.UserID)
		current, err := tx.Get(ctx, userKey).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Del(ctx, tokenKey)
			p.ZRem(ctx, r.expiryKey(), token)
			if current == token {
				p.Del(ctx, userKey)
			}
			return nil
		})
		if err == nil {
			deleted = true
		}
		return err
	}, tokenKey)
	if err != nil {
		return false, fmt.Errorf("delete refresh token: %w", err)
	}
	return deleted, nil
}

func (r *Repo) get(ctx context.Context, c stringGetter, token string) (*refresh.StoredRefreshToken, error) {
	data, err := c.Get(ctx, r.tokenKey(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get refresh token: %w", err)
	}

	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("get refresh token: decode: %w", err)
	}
	return &refresh.StoredRefreshToken{
		Token:     token,
		UserID:    rec.UserID,
		ExpiresAt: time.Unix(0, rec.ExpiresAt).UTC(),
		CreatedAt: time.Unix(0, rec.CreatedAt).UTC(),
	}, nil
}

// stringGetter is satisfied by both the client and a WATCH transaction
type stringGetter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

// withRetry runs fn under WATCH on keys and retries when another client
// changed a watched key first.
func (r *Repo) withRetry(ctx context.Context, fn func(*redis.Tx) error, keys ...string) error {
	var err error
	for i := 0; i < maxTxRetries; i++ {
		err = r.client.Watch(ctx, fn, keys...)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return err
}
