package postgres

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/govwallet/sidecar/internal/config"
	"github.com/govwallet/sidecar/pkg/postgres/helpers"
	"github.com/govwallet/sidecar/pkg/storage"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PostgresHistoryStore struct {
	Db           *gorm.DB
	Logger       *zap.Logger
	GlobalConfig *config.Config
}

func NewPostgresHistoryStore(db *gorm.DB, l *zap.Logger, cfg *config.Config) *PostgresHistoryStore {
	return &PostgresHistoryStore{
		Db:           db,
		Logger:       l,
		GlobalConfig: cfg,
	}
}

func (s *PostgresHistoryStore) InsertEstimate(estimate *storage.StakingRewardEstimate) (*storage.StakingRewardEstimate, error) {
	return helpers.WrapTxAndCommit(func(tx *gorm.DB) (*storage.StakingRewardEstimate, error) {
		apys := estimate.Apys
		estimate.Apys = nil

		res := tx.Model(&storage.StakingRewardEstimate{}).Clauses(clause.Returning{}).Create(estimate)
		if res.Error != nil {
			return nil, fmt.Errorf("failed to insert staking reward estimate for '%s': %w", estimate.Principal, res.Error)
		}

		for _, apy := range apys {
			apy.EstimateId = estimate.Id
		}
		if len(apys) > 0 {
			res = tx.Model(&storage.ProjectApy{}).Clauses(clause.Returning{}).Create(&apys)
			if res.Error != nil {
				return nil, fmt.Errorf("failed to insert project apys for estimate '%d': %w", estimate.Id, res.Error)
			}
		}
		estimate.Apys = apys

		s.Logger.Sugar().Debugw("Inserted staking reward estimate",
			zap.Uint64("id", estimate.Id),
			zap.String("principal", estimate.Principal),
			zap.Int("apys", len(apys)),
		)
		return estimate, nil
	}, s.Db, nil)
}

func (s *PostgresHistoryStore) ListEstimates(principal string, limit int) ([]*storage.StakingRewardEstimate, error) {
	estimates := make([]*storage.StakingRewardEstimate, 0)

	query := s.Db.Model(&storage.StakingRewardEstimate{}).
		Preload("Apys", func(db *gorm.DB) *gorm.DB {
			return db.Order("project_id asc")
		}).
		Where("principal = ?", principal).
		Order("id desc")
	if limit > 0 {
		query = query.Limit(limit)
	}

	res := query.Find(&estimates)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to list staking reward estimates for '%s': %w", principal, res.Error)
	}
	return estimates, nil
}

func (s *PostgresHistoryStore) InsertExportJob(kind string) (*storage.ExportJob, error) {
	job := &storage.ExportJob{
		Id:     uuid.New().String(),
		Kind:   kind,
		Status: storage.ExportJobStatus_Pending,
	}
	res := s.Db.Model(&storage.ExportJob{}).Clauses(clause.Returning{}).Create(job)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to insert export job '%s': %w", kind, res.Error)
	}
	return job, nil
}

func (s *PostgresHistoryStore) CompleteExportJob(id string, filePath string, jobErr error) (*storage.ExportJob, error) {
	return helpers.WrapTxAndCommit(func(tx *gorm.DB) (*storage.ExportJob, error) {
		job, err := s.getExportJob(tx, id)
		if err != nil {
			return nil, err
		}

		now := time.Now().UTC()
		job.CompletedAt = &now
		job.FilePath = filePath
		job.Status = storage.ExportJobStatus_Complete
		if jobErr != nil {
			job.Status = storage.ExportJobStatus_Failed
			job.Error = jobErr.Error()
		}

		res := tx.Save(job)
		if res.Error != nil {
			return nil, fmt.Errorf("failed to complete export job '%s': %w", id, res.Error)
		}
		return job, nil
	}, s.Db, nil)
}

func (s *PostgresHistoryStore) GetExportJob(id string) (*storage.ExportJob, error) {
	return s.getExportJob(s.Db, id)
}

func (s *PostgresHistoryStore) getExportJob(db *gorm.DB, id string) (*storage.ExportJob, error) {
	job := &storage.ExportJob{}
	res := db.Model(&storage.ExportJob{}).Where("id = ?", id).First(job)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get export job '%s': %w", id, res.Error)
	}
	return job, nil
}
