package storage

import (
	"context"
	"fmt"

	"realestate-summary/config"
	"realestate-summary/utils"
)

// NewOpener returns an Opener for the backend named by cfg.StoreDriver.
func NewOpener(cfg *config.Config, logger *utils.Logger) (Opener, error) {
	switch cfg.StoreDriver {
	case config.DriverSQLite:
		dsn := cfg.SQLitePath + "?_pragma=busy_timeout(5000)"
		return func(ctx context.Context) (TableStore, error) {
			return NewSQLiteStore(ctx, dsn)
		}, nil
	case config.DriverPostgres:
		dsn := cfg.PostgresDSN()
		return func(ctx context.Context) (TableStore, error) {
			return NewPostgresStore(ctx, dsn, cfg.MaxRetries, logger)
		}, nil
	case config.DriverMongo:
		return func(ctx context.Context) (TableStore, error) {
			return NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDB, cfg.MaxRetries, logger)
		}, nil
	}
	return nil, fmt.Errorf("storage: unknown driver %q", cfg.StoreDriver)
}
