package resources

import (
	"context"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"github.com/five82/tally/internal/posapi"
	"github.com/five82/tally/internal/query"
)

// DefaultCategoryTTL is how long the category options stay fresh.
const DefaultCategoryTTL = 5 * time.Minute

const (
	categoryOptionsKey   = "all"
	categoryOptionsLimit = 200
)

// CategoryOptions caches the full category list used by the product filter
// and product form.
type CategoryOptions struct {
	client *posapi.Client
	cache  *ttlcache.Cache[string, []posapi.Category]
	stop   sync.Once
}

// NewCategoryOptions returns an empty cache whose entries expire after ttl.
func NewCategoryOptions(client *posapi.Client, ttl time.Duration) *CategoryOptions {
	if ttl <= 0 {
		ttl = DefaultCategoryTTL
	}
	cache := ttlcache.New(
		ttlcache.WithTTL[string, []posapi.Category](ttl),
		ttlcache.WithDisableTouchOnHit[string, []posapi.Category](),
	)
	go cache.Start()
	return &CategoryOptions{client: client, cache: cache}
}

// Get returns the cached categories, fetching them when missing or expired.
func (o *CategoryOptions) Get(ctx context.Context) ([]posapi.Category, error) {
	if item := o.cache.Get(categoryOptionsKey); item != nil {
		return append([]posapi.Category(nil), item.Value()...), nil
	}
	params := url.Values{}
	params.Set("limit", strconv.Itoa(categoryOptionsLimit))
	resp, err := posapi.List[posapi.Category](ctx, o.client, Categories.Path, params)
	if err != nil {
		return nil, &query.Failure{Op: "fetch categories", Cause: err}
	}
	o.cache.Set(categoryOptionsKey, resp.Data, ttlcache.DefaultTTL)
	return append([]posapi.Category(nil), resp.Data...), nil
}

// Invalidate drops the cached list so the next Get refetches.
func (o *CategoryOptions) Invalidate() {
	o.cache.Delete(categoryOptionsKey)
}

// Close stops the expiry goroutine.
func (o *CategoryOptions) Close() {
	o.stop.Do(o.cache.Stop)
}
