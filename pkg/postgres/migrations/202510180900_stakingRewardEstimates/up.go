package _202510180900_stakingRewardEstimates

import (
	"database/sql"

	"github.com/govwallet/sidecar/internal/config"
	"gorm.io/gorm"
)

type Migration struct {
}

func (m *Migration) Up(db *sql.DB, grm *gorm.DB, cfg *config.Config) error {
	query := `
		create table if not exists staking_reward_estimates (
			id serial primary key,
			principal text not null,
			reference_timestamp bigint not null,
			staking_power numeric not null,
			staking_power_usd numeric not null,
			reward_estimate_week_usd numeric not null,
			unpriced_projects text not null default '',
			created_at timestamp with time zone default current_timestamp
		);
		create index if not exists idx_staking_reward_estimates_principal on staking_reward_estimates (principal, id desc);
	`
	_, err := db.Exec(query)
	return err
}

func (m *Migration) GetName() string {
	return "202510180900_stakingRewardEstimates"
}
