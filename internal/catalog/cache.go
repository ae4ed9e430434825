package catalog

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
)

// CachedRepo 给配件读路径加一层 Redis cache-aside。
// 写路径（新增配件、开票扣库存）由持有方调用 Invalidate 失效。
// 缓存只服务目录浏览与购物车取价快照；库存校验永远走数据库（见 internal/inventory）。
type CachedRepo struct {
	repo   *Repo
	client *redis.Client
	ttl    time.Duration
}

func NewCachedRepo(repo *Repo, client *redis.Client, ttl time.Duration) *CachedRepo {
	return &CachedRepo{repo: repo, client: client, ttl: ttl}
}

func partKey(id string) string {
	return "part:" + id
}

// GetPart 先查缓存；未命中回源并写回。缓存故障时直接回源，不影响主流程。
func (c *CachedRepo) GetPart(ctx context.Context, id string) (*Part, error) {
	if c.client == nil || c.ttl <= 0 {
		return c.repo.GetPart(ctx, id)
	}

	value, err := c.client.Get(ctx, partKey(id)).Result()
	if err == nil {
		var p Part
		if unmarshalErr := json.Unmarshal([]byte(value), &p); unmarshalErr == nil {
			return &p, nil
		}
		// 缓存内容损坏，当作未命中处理
	} else if err != redis.Nil {
		return c.repo.GetPart(ctx, id)
	}

	p, err := c.repo.GetPart(ctx, id)
	if err != nil {
		return nil, err
	}

	if payload, marshalErr := json.Marshal(p); marshalErr == nil {
		_ = c.client.Set(ctx, partKey(id), payload, c.ttl).Err()
	}
	return p, nil
}

// Invalidate 使一批配件的缓存失效（开票扣减、配件变更后调用）。
func (c *CachedRepo) Invalidate(ctx context.Context, ids ...string) {
	if c.client == nil || len(ids) == 0 {
		return
	}
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, partKey(id))
	}
	_ = c.client.Del(ctx, keys...).Err()
}
