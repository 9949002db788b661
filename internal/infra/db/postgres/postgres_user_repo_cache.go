package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"content-marketplace/internal/domain/model"
	"content-marketplace/internal/domain/ports/repository"
	"content-marketplace/internal/infra/metrics"
	red "content-marketplace/internal/infra/redis"

	"github.com/rs/zerolog"
)

var _ repository.UserRepository = (*userRepoCacheDecorator)(nil)

type userRepoCacheDecorator struct {
	inner  repository.UserRepository
	cache  red.RedisClient
	ttl    time.Duration
	logger zerolog.Logger
}

func NewUserRepoCacheDecorator(inner repository.UserRepository, cache red.RedisClient, ttl time.Duration, logger *zerolog.Logger) repository.UserRepository {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &userRepoCacheDecorator{
		inner:  inner,
		cache:  cache,
		ttl:    ttl,
		logger: logger.With().Str("component", "user_cache").Logger(),
	}
}

func userIDKey(id string) string { return fmt.Sprintf("user:id:%s", id) }

// Save invalidates before writing and again once the write is visible: after commit inside a
// transaction, right away otherwise. A reader racing the write can only re-cache the old row
// until the second delete.
func (d *userRepoCacheDecorator) Save(ctx context.Context, tx repository.Tx, u *model.User) error {
	d.invalidate(ctx, u.ID)
	if err := d.inner.Save(ctx, tx, u); err != nil {
		return err
	}
	repository.AfterCommit(ctx, func() { d.invalidate(context.WithoutCancel(ctx), u.ID) })
	return nil
}

func (d *userRepoCacheDecorator) invalidate(ctx context.Context, id string) {
	if err := d.cache.Del(ctx, userIDKey(id)); err != nil {
		d.logger.Warn().Err(err).Str("user_id", id).Msg("cache invalidate failed")
	}
}

// FindByID serves from cache outside transactions only. The cached copy has no password hash.
func (d *userRepoCacheDecorator) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.User, error) {
	if tx != nil {
		metrics.IncCacheRequest("user", "bypass")
		return d.inner.FindByID(ctx, tx, id)
	}

	key := userIDKey(id)
	val, err := d.cache.Get(ctx, key)
	if err == nil {
		var user model.User
		if json.Unmarshal([]byte(val), &user) == nil {
			metrics.IncCacheRequest("user", "hit")
			return &user, nil
		}
	} else if !red.IsMiss(err) {
		d.logger.Warn().Err(err).Str("key", key).Msg("cache read failed")
	}

	metrics.IncCacheRequest("user", "miss")
	user, err := d.inner.FindByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if user != nil {
		bytes, _ := json.Marshal(user)
		_ = d.cache.Set(ctx, key, bytes, d.ttl)
	}
	return user, nil
}

// Login needs the password hash, which never enters the cache.
func (d *userRepoCacheDecorator) FindByEmail(ctx context.Context, tx repository.Tx, email string) (*model.User, error) {
	return d.inner.FindByEmail(ctx, tx, email)
}

func (d *userRepoCacheDecorator) CountUsers(ctx context.Context, tx repository.Tx) (int, error) {
	return d.inner.CountUsers(ctx, tx)
}
