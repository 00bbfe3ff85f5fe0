package server

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/jacksonlee411/contact-directory/modules/directory/domain/ports"
	"github.com/jacksonlee411/contact-directory/modules/directory/infrastructure/persistence"
	"github.com/jacksonlee411/contact-directory/pkg/configuration"
)

// Stores is the persistence selected by STORE_DRIVER. Close releases any
// pool or file handle.
type Stores struct {
	Records  ports.RecordStore
	Contacts ports.ContactStore
	Close    func()
}

var newPGPool = pgxpool.New

// OpenStores connects the configured store and brings its schema up to date.
func OpenStores(ctx context.Context, cfg *configuration.Configuration) (Stores, error) {
	switch cfg.StoreDriver {
	case configuration.StoreMemory, "":
		return Stores{
			Records:  persistence.NewRecordMemoryStore(),
			Contacts: persistence.NewContactMemoryStore(),
			Close:    func() {},
		}, nil

	case configuration.StorePostgres:
		pool, err := newPGPool(ctx, cfg.Database.DSN())
		if err != nil {
			return Stores{}, err
		}
		db := stdlib.OpenDBFromPool(pool)
		if _, err := persistence.MigrateUp(ctx, db, persistence.DialectPostgres); err != nil {
			_ = db.Close()
			pool.Close()
			return Stores{}, err
		}
		return Stores{
			Records:  persistence.NewRecordPGStore(pool),
			Contacts: persistence.NewContactPGStore(pool),
			Close: func() {
				_ = db.Close()
				pool.Close()
			},
		}, nil

	case configuration.StoreSQLite:
		db, err := persistence.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return Stores{}, err
		}
		if _, err := persistence.MigrateUp(ctx, db, persistence.DialectSQLite); err != nil {
			_ = db.Close()
			return Stores{}, err
		}
		return Stores{
			Records:  persistence.NewRecordSQLiteStore(db),
			Contacts: persistence.NewContactSQLiteStore(db),
			Close:    func() { _ = db.Close() },
		}, nil
	}
	return Stores{}, errors.New("server: unsupported store driver " + cfg.StoreDriver)
}
