package _202510180905_projectApys

import (
	"database/sql"

	"github.com/govwallet/sidecar/internal/config"
	"gorm.io/gorm"
)

type Migration struct {
}

func (m *Migration) Up(db *sql.DB, grm *gorm.DB, cfg *config.Config) error {
	query := `
		create table if not exists project_apys (
			id serial primary key,
			estimate_id integer not null references staking_reward_estimates (id) on delete cascade,
			project_id text not null,
			current numeric not null,
			max numeric not null,
			unique (estimate_id, project_id)
		)
	`
	_, err := db.Exec(query)
	return err
}

func (m *Migration) GetName() string {
	return "202510180905_projectApys"
}
