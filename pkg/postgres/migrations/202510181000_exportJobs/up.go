package _202510181000_exportJobs

import (
	"database/sql"

	"github.com/govwallet/sidecar/internal/config"
	"gorm.io/gorm"
)

type Migration struct {
}

func (m *Migration) Up(db *sql.DB, grm *gorm.DB, cfg *config.Config) error {
	query := `
		create table if not exists export_jobs (
			id uuid primary key,
			kind text not null,
			status text not null,
			file_path text not null default '',
			error text not null default '',
			created_at timestamp with time zone default current_timestamp,
			completed_at timestamp with time zone
		)
	`
	_, err := db.Exec(query)
	return err
}

func (m *Migration) GetName() string {
	return "202510181000_exportJobs"
}
