package storage

import (
	"context"
	"fmt"

	"github.com/Skotchmaster/storefront/pkg/db"
)

const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
	DriverNone     = "none"
)

type Options struct {
	Driver string

	SQLitePath  string
	DatabaseURL string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
}

// Open builds the Store selected by opts.Driver. The returned close func is
// never nil.
func Open(ctx context.Context, opts Options) (Store, func() error, error) {
	noClose := func() error { return nil }

	switch opts.Driver {
	case DriverMemory, "":
		return NewMemoryStore(), noClose, nil

	case DriverNone:
		return NoopStore{}, noClose, nil

	case DriverSQLite:
		gdb, err := db.OpenSQLite(ctx, opts.SQLitePath)
		if err != nil {
			return nil, noClose, err
		}
		s, err := NewGormStore(ctx, gdb)
		if err != nil {
			_ = db.Close(gdb)
			return nil, noClose, err
		}
		return s, func() error { return db.Close(gdb) }, nil

	case DriverPostgres:
		gdb, err := db.Open(ctx, opts.DatabaseURL)
		if err != nil {
			return nil, noClose, err
		}
		s, err := NewGormStore(ctx, gdb)
		if err != nil {
			_ = db.Close(gdb)
			return nil, noClose, err
		}
		return s, func() error { return db.Close(gdb) }, nil

	case DriverRedis:
		rdb := NewRedisClient(opts.RedisAddr, opts.RedisPassword, opts.RedisDB)
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, noClose, fmt.Errorf("redis ping %s: %w", opts.RedisAddr, err)
		}
		return &RedisStore{Client: rdb, Prefix: opts.RedisPrefix}, rdb.Close, nil
	}

	return nil, noClose, fmt.Errorf("unknown storage driver %q", opts.Driver)
}
