package migrations

import (
	"database/sql"

	"github.com/govwallet/sidecar/internal/config"
	"github.com/govwallet/sidecar/pkg/postgres/helpers"
	_202510180900_stakingRewardEstimates "github.com/govwallet/sidecar/pkg/postgres/migrations/202510180900_stakingRewardEstimates"
	_202510180905_projectApys "github.com/govwallet/sidecar/pkg/postgres/migrations/202510180905_projectApys"
	_202510181000_exportJobs "github.com/govwallet/sidecar/pkg/postgres/migrations/202510181000_exportJobs"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Migration interface {
	Up(db *sql.DB, grm *gorm.DB, cfg *config.Config) error
	GetName() string
}

type Migrator struct {
	Db           *sql.DB
	GDb          *gorm.DB
	Logger       *zap.Logger
	globalConfig *config.Config
}

func NewMigrator(db *sql.DB, gDb *gorm.DB, l *zap.Logger, cfg *config.Config) *Migrator {
	return &Migrator{
		Db:           db,
		GDb:          gDb,
		Logger:       l,
		globalConfig: cfg,
	}
}

// GetMigrations returns every migration in the order it must run.
func GetMigrations() []Migration {
	return []Migration{
		&_202510180900_stakingRewardEstimates.Migration{},
		&_202510180905_projectApys.Migration{},
		&_202510181000_exportJobs.Migration{},
	}
}

const createMigrationsTable = `
	create table if not exists migrations (
		name text primary key,
		created_at timestamp with time zone default current_timestamp
	)
`

func (m *Migrator) MigrateAll() error {
	if _, err := m.Db.Exec(createMigrationsTable); err != nil {
		return errors.Wrap(err, "failed to create migrations table")
	}
	for _, migration := range GetMigrations() {
		if err := m.Migrate(migration); err != nil {
			return err
		}
	}
	return nil
}

// Migrate runs a single migration unless it has already been applied.
func (m *Migrator) Migrate(migration Migration) error {
	name := migration.GetName()

	var applied bool
	err := m.Db.QueryRow(`select exists(select 1 from migrations where name = $1)`, name).Scan(&applied)
	if err != nil {
		return errors.Wrapf(err, "failed to check migration %s", name)
	}
	if applied {
		m.Logger.Sugar().Debugw("Migration already applied", zap.String("name", name))
		return nil
	}

	if err := migration.Up(m.Db, m.GDb, m.globalConfig); err != nil {
		return errors.Wrapf(err, "failed to run migration %s", name)
	}
	if _, err := m.Db.Exec(`insert into migrations (name) values ($1)`, name); err != nil {
		// Another instance recorded it first.
		if helpers.IsDuplicateKeyError(err) {
			m.Logger.Sugar().Infow("Migration recorded concurrently", zap.String("name", name))
			return nil
		}
		return errors.Wrapf(err, "failed to record migration %s", name)
	}
	m.Logger.Sugar().Infow("Applied migration", zap.String("name", name))
	return nil
}
