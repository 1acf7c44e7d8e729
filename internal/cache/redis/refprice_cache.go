package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alanyoungcy/kalshi15m/internal/domain"
)

// refTTL bounds how long a scanned reference price stays usable. Fifteen
// minute markets make anything older than one cycle worthless.
const refTTL = 15 * time.Minute

// RefPriceCache stores the latest CEX reference price per asset as JSON at
// key "ref:{asset}".
type RefPriceCache struct {
	rdb *redis.Client
}

// NewRefPriceCache creates a RefPriceCache backed by the given Client.
func NewRefPriceCache(c *Client) *RefPriceCache {
	return &RefPriceCache{rdb: c.Underlying()}
}

func refKey(asset string) string {
	return "ref:" + asset
}

// GetReference retrieves the latest reference for an asset. It returns
// domain.ErrNotFound when the key does not exist or has expired.
func (rc *RefPriceCache) GetReference(ctx context.Context, asset string) (domain.AssetReference, error) {
	data, err := rc.rdb.Get(ctx, refKey(asset)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.AssetReference{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.AssetReference{}, fmt.Errorf("redis: get reference %s: %w", asset, err)
	}

	var ref domain.AssetReference
	if err := json.Unmarshal(data, &ref); err != nil {
		return domain.AssetReference{}, fmt.Errorf("redis: unmarshal reference %s: %w", asset, err)
	}
	return ref, nil
}

// SetAll stores every reference from a scan using a pipeline.
func (rc *RefPriceCache) SetAll(ctx context.Context, refs []domain.AssetReference) error {
	if len(refs) == 0 {
		return nil
	}

	pipe := rc.rdb.Pipeline()
	for _, ref := range refs {
		data, err := json.Marshal(ref)
		if err != nil {
			return fmt.Errorf("redis: marshal reference %s: %w", ref.Asset, err)
		}
		pipe.Set(ctx, refKey(ref.Asset), data, refTTL)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: set references pipeline: %w", err)
	}
	return nil
}
