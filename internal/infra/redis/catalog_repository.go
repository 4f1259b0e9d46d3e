package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"live-quiz-service/internal/domain"
	"live-quiz-service/internal/infra/memory"
)

// CatalogRepository caches full catalog JSON in Redis and falls back to
// a loader on cache miss. Catalogs are stored as:
//
//	SET quiz:{quizID}:catalog {json} EX {ttl}
//
// The whole document is cached, not a per-question projection: the
// session copies the catalog once at create time, so the cache only
// has to serve create-time reads.
type CatalogRepository struct {
	client *redis.Client
	loader memory.CatalogLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewCatalogRepository(client *redis.Client, loader memory.CatalogLoader, ttl time.Duration) *CatalogRepository {
	return &CatalogRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *CatalogRepository) GetCatalog(ctx context.Context, quizID string) (domain.Catalog, error) {
	key := r.catalogKey(quizID)

	raw, err := r.client.Get(ctx, key).Bytes()
	if err == nil {
		if catalog, ok := decodeCatalog(raw); ok {
			return catalog, nil
		}
	}

	result, err, _ := r.sf.Do(quizID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		raw, err := r.client.Get(ctx, key).Bytes()
		if err == nil {
			if catalog, ok := decodeCatalog(raw); ok {
				return catalog, nil
			}
		}

		catalog, err := r.loader.LoadCatalog(ctx, quizID)
		if err != nil {
			return domain.Catalog{}, err
		}

		if encoded, err := json.Marshal(catalog); err == nil {
			_ = r.client.Set(ctx, key, encoded, r.ttlWithJitter()).Err()
		}
		return catalog, nil
	})
	if err != nil {
		return domain.Catalog{}, err
	}
	return result.(domain.Catalog), nil
}

func (r *CatalogRepository) catalogKey(quizID string) string {
	return "quiz:" + quizID + ":catalog"
}

func decodeCatalog(raw []byte) (domain.Catalog, bool) {
	var catalog domain.Catalog
	if err := json.Unmarshal(raw, &catalog); err != nil {
		return domain.Catalog{}, false
	}
	return catalog, len(catalog.Questions) > 0
}

func (r *CatalogRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
