package repository

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"projectflow/internal/models"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// generationTTL bounds how long a project's write counter outlives its
// last write.
const generationTTL = 24 * time.Hour

var errStaleFill = errors.New("project changed while loading")

// CachedProjects is a read-through redis cache in front of a
// ProjectRepository. Only Get is cached; writes invalidate the entry. Redis
// failures are logged and never fail the call.
//
// Every write bumps a per-project generation counter. A read that missed
// the cache only fills it if the counter is unchanged since before the
// database read, so a load racing a write never caches the older row.
type CachedProjects struct {
	ProjectRepository

	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewCachedProjects(inner ProjectRepository, rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *CachedProjects {
	return &CachedProjects{
		ProjectRepository: inner,
		rdb:               rdb,
		ttl:               ttl,
		logger:            logger,
	}
}

func projectKey(id uint) string {
	return "projectflow:project:" + strconv.FormatUint(uint64(id), 10)
}

func generationKey(id uint) string {
	return projectKey(id) + ":gen"
}

func (c *CachedProjects) Get(ctx context.Context, id uint) (*models.Project, error) {
	key := projectKey(id)

	gen, genErr := c.generation(ctx, id)

	data, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var p models.Project
		if err := json.Unmarshal(data, &p); err == nil {
			return &p, nil
		}
		c.logger.Warn("Dropping unreadable cache entry", zap.String("key", key))
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("Project cache read failed", zap.String("key", key), zap.Error(err))
	}

	p, err := c.ProjectRepository.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if genErr == nil {
		if err := c.fill(ctx, p, gen); err != nil && !errors.Is(err, errStaleFill) {
			c.logger.Warn("Project cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return p, nil
}

func (c *CachedProjects) Put(ctx context.Context, p *models.Project) error {
	if err := c.ProjectRepository.Put(ctx, p); err != nil {
		return err
	}
	c.invalidate(ctx, p.ID)
	return nil
}

func (c *CachedProjects) Delete(ctx context.Context, id uint) error {
	if err := c.ProjectRepository.Delete(ctx, id); err != nil {
		return err
	}
	c.invalidate(ctx, id)
	return nil
}

func (c *CachedProjects) generation(ctx context.Context, id uint) (int64, error) {
	gen, err := c.rdb.Get(ctx, generationKey(id)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

// fill stores p unless the project's generation moved past gen.
func (c *CachedProjects) fill(ctx context.Context, p *models.Project, gen int64) error {
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}

	genKey := generationKey(p.ID)
	err = c.rdb.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, genKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if cur != gen {
			return errStaleFill
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, projectKey(p.ID), data, c.ttl)
			return nil
		})
		return err
	}, genKey)
	if errors.Is(err, redis.TxFailedErr) {
		return errStaleFill
	}
	return err
}

func (c *CachedProjects) invalidate(ctx context.Context, id uint) {
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, generationKey(id))
		pipe.Expire(ctx, generationKey(id), generationTTL)
		pipe.Del(ctx, projectKey(id))
		return nil
	})
	if err != nil {
		c.logger.Warn("Project cache invalidation failed", zap.Uint("id", id), zap.Error(err))
	}
}
