package config

import (
	"fmt"
	"io"

	"github.com/aretw0/btlib/pkg/adapters/file"
	"github.com/aretw0/btlib/pkg/adapters/memory"
	"github.com/aretw0/btlib/pkg/adapters/redis"
	"github.com/aretw0/btlib/pkg/adapters/sqlite"
	"github.com/aretw0/btlib/pkg/persistence/middleware"
	"github.com/aretw0/btlib/pkg/ports"
)

// Backend bundles an opened store with its optional locker.
type Backend struct {
	Store  ports.TelemetryStore
	Locker ports.DistributedLocker
	closer io.Closer
}

// Close releases the backend connection, if any.
func (b *Backend) Close() error {
	if b.closer == nil {
		return nil
	}
	return b.closer.Close()
}

// OpenStore connects the store selected by c and seals it when an
// encryption key is configured.
func OpenStore(c StoreConfig) (*Backend, error) {
	enc, err := c.Encryption()
	if err != nil {
		return nil, err
	}
	b, err := openBackend(c)
	if err != nil {
		return nil, err
	}
	if enc != nil {
		b.Store = middleware.Chain(b.Store, middleware.NewEncryptionMiddleware(*enc))
	}
	return b, nil
}

func openBackend(c StoreConfig) (*Backend, error) {
	switch c.Backend {
	case "", BackendMemory:
		return &Backend{Store: memory.NewStore()}, nil

	case BackendFile:
		b := &Backend{Store: file.New(c.Path)}
		if c.Lock {
			b.Locker = file.NewLocker(c.Path)
		}
		return b, nil

	case BackendRedis:
		var opts []redis.Option
		if c.Prefix != "" {
			opts = append(opts, redis.WithPrefix(c.Prefix))
		}
		if c.TTL > 0 {
			opts = append(opts, redis.WithTTL(c.TTL))
		}
		store := redis.New(c.Addr, c.Password, c.DB, opts...)
		b := &Backend{Store: store, closer: store}
		if c.Lock {
			prefix := c.Prefix
			if prefix == "" {
				prefix = redis.DefaultPrefix
			}
			b.Locker = redis.NewLocker(store.Client(), prefix)
		}
		return b, nil

	case BackendSQLite:
		path := c.Path
		if path == "" {
			path = "btlib.db"
		}
		store, err := sqlite.Open(path)
		if err != nil {
			return nil, err
		}
		return &Backend{Store: store, closer: store}, nil

	default:
		return nil, fmt.Errorf("unknown store backend %q", c.Backend)
	}
}
