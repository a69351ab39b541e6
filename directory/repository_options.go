package directory

import (
	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-repository-cache/cache"
	"github.com/goliatone/go-repository-cache/repositorycache"
)

// RepositoryOption configures directory repository construction.
type RepositoryOption func(*RepositoryOptions)

// RepositoryOptions captures optional behavior for directory persistence.
type RepositoryOptions struct {
	CacheEnabled bool
	CacheConfig  *cache.Config
}

// WithCache toggles the TTL-bounded read cache decorator on profile and
// binding lookups. Mutations go through transactions on the shared store, so
// cached reads can lag a write by up to the cache TTL; leave this off when
// callers need read-your-writes across instances.
func WithCache(enabled bool) RepositoryOption {
	return func(opts *RepositoryOptions) {
		if opts == nil {
			return
		}
		opts.CacheEnabled = enabled
	}
}

// WithCacheConfig supplies the cache configuration to use when caching is enabled.
func WithCacheConfig(cfg cache.Config) RepositoryOption {
	return func(opts *RepositoryOptions) {
		if opts == nil {
			return
		}
		opts.CacheConfig = &cfg
	}
}

func applyRepositoryOptions(options []RepositoryOption) RepositoryOptions {
	var opts RepositoryOptions
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&opts)
	}
	return opts
}

func applyCacheOptions(
	profiles repository.Repository[*Record],
	keys repository.Repository[*PublicKeyRecord],
	options []RepositoryOption,
) (repository.Repository[*Record], repository.Repository[*PublicKeyRecord], error) {
	opts := applyRepositoryOptions(options)
	if !opts.CacheEnabled {
		return profiles, keys, nil
	}
	cfg := cache.DefaultConfig()
	if opts.CacheConfig != nil {
		cfg = *opts.CacheConfig
	}
	service, err := cache.NewCacheService(cfg)
	if err != nil {
		return nil, nil, err
	}
	serializer := cache.NewDefaultKeySerializer()
	if _, ok := profiles.(*repositorycache.CachedRepository[*Record]); !ok {
		profiles = repositorycache.New(profiles, service, serializer)
	}
	if _, ok := keys.(*repositorycache.CachedRepository[*PublicKeyRecord]); !ok {
		keys = repositorycache.New(keys, service, serializer)
	}
	return profiles, keys, nil
}
