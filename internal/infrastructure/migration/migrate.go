package migration

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	// Blank import required for PostgreSQL driver registration for migrations
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"golang.org/x/exp/slog"
)

// Migrator is the part of *migrate.Migrate the runner needs.
type Migrator interface {
	Up() error
	Version() (version uint, dirty bool, err error)
	Close() (error, error)
}

// MigrationEngine builds a Migrator; tests swap it out to avoid a database.
type MigrationEngine func(sourceURL, databaseURL string) (Migrator, error)

type Migration struct {
	dir         string
	databaseURI string
	engine      MigrationEngine
	log         *slog.Logger
}

func NewMigration(dir, databaseURI string, engine MigrationEngine, log *slog.Logger) *Migration {
	if engine == nil {
		engine = DefaultEngine
	}
	return &Migration{
		dir:         dir,
		databaseURI: databaseURI,
		engine:      engine,
		log:         log.With("component", "migration"),
	}
}

func DefaultEngine(sourceURL, databaseURL string) (Migrator, error) {
	return migrate.New(sourceURL, databaseURL)
}

// Up applies every pending migration. Being already current is not an error.
func (mg *Migration) Up() (err error) {
	m, err := mg.engine("file://"+mg.dir, mg.databaseURI)
	if err != nil {
		return err
	}
	defer func() {
		serr, dberr := m.Close()
		if serr != nil {
			err = errors.Join(err, fmt.Errorf("migration source: %w", serr))
		}
		if dberr != nil {
			err = errors.Join(err, fmt.Errorf("migration database: %w", dberr))
		}
	}()

	if err := m.Up(); err != nil {
		if !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("migration up: %w", err)
		}
		mg.log.Debug("schema up to date")
	}

	version, dirty, verr := m.Version()
	if verr == nil {
		mg.log.Info("schema migrated", "version", version, "dirty", dirty)
	}
	return nil
}
