// Package cache puts a read-through cache in front of the settings engine.
package cache

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/storage/mysql/v2"
	"github.com/gofiber/storage/postgres/v3"
	"github.com/jellydator/ttlcache/v3"

	"github.com/GoPowerDNS-Admin/go-settings/internal/config"
	"github.com/GoPowerDNS-Admin/go-settings/internal/db/dsn"
)

// Backend drivers.
const (
	DriverMemory   = "memory"
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
)

// ErrUnknownDriver is returned for an unsupported Settings.Cache.Driver.
var ErrUnknownDriver = errors.New("unknown cache driver")

// Store is a byte oriented key value store with expiry. Get returns nil
// without error on a miss. The gofiber storage drivers satisfy it.
type Store interface {
	Get(key string) ([]byte, error)
	Set(key string, val []byte, exp time.Duration) error
	Delete(key string) error
	Reset() error
	Close() error
}

// Memory is an in-process Store.
type Memory struct {
	items *ttlcache.Cache[string, []byte]
	once  sync.Once
}

var _ Store = (*Memory)(nil)

// NewMemory returns a Memory store whose entries expire after ttl unless Set
// is given its own expiry. Expired entries are purged in the background until
// Close.
func NewMemory(ttl time.Duration) *Memory {
	items := ttlcache.New[string, []byte](
		ttlcache.WithTTL[string, []byte](ttl),
		ttlcache.WithDisableTouchOnHit[string, []byte](),
	)

	go items.Start()

	return &Memory{items: items}
}

func (m *Memory) Get(key string) ([]byte, error) {
	item := m.items.Get(key)
	if item == nil {
		return nil, nil
	}

	return item.Value(), nil
}

func (m *Memory) Set(key string, val []byte, exp time.Duration) error {
	if exp <= 0 {
		exp = ttlcache.DefaultTTL
	}

	m.items.Set(key, val, exp)

	return nil
}

func (m *Memory) Delete(key string) error {
	m.items.Delete(key)
	return nil
}

func (m *Memory) Reset() error {
	m.items.DeleteAll()
	return nil
}

// Close stops the expiry loop. It is safe to call more than once.
func (m *Memory) Close() error {
	m.once.Do(m.items.Stop)
	return nil
}

// NewStore builds the backend selected by cfg.Settings.Cache.Driver. The SQL
// drivers reuse the database connection settings and keep entries in
// Settings.Cache.Table.
func NewStore(cfg *config.Config) (Store, error) {
	c := cfg.Settings.Cache

	switch strings.ToLower(c.Driver) {
	case "", DriverMemory:
		return NewMemory(c.TTL), nil
	case DriverMySQL:
		return mysql.New(mysql.Config{
			ConnectionURI: dsn.MySQL(&cfg.DB),
			Table:         c.Table,
		}), nil
	case DriverPostgres:
		return postgres.New(postgres.Config{
			ConnectionURI: dsn.PostgresURI(&cfg.DB),
			Table:         c.Table,
		}), nil
	default:
		return nil, ErrUnknownDriver
	}
}
