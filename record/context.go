package record

import "context"

type bypassCacheContextKey struct{}

// WithoutCache marks ctx so unique-key lookups skip the cache read and go
// straight to the store. The post-create hook still re-seeds the cache.
func WithoutCache(ctx context.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, bypassCacheContextKey{}, true)
}

func cacheBypassed(ctx context.Context) bool {
	if ctx == nil {
		return false
	}
	bypass, _ := ctx.Value(bypassCacheContextKey{}).(bool)
	return bypass
}
