package storage

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var ErrNotFound = errors.New("record not found")

type RewardsHistoryStore interface {
	InsertEstimate(estimate *StakingRewardEstimate) (*StakingRewardEstimate, error)
	// ListEstimates returns the newest estimates for principal first.
	ListEstimates(principal string, limit int) ([]*StakingRewardEstimate, error)
}

type ExportJobStore interface {
	InsertExportJob(kind string) (*ExportJob, error)
	CompleteExportJob(id string, filePath string, jobErr error) (*ExportJob, error)
	GetExportJob(id string) (*ExportJob, error)
}

// Tables
type StakingRewardEstimate struct {
	Id                    uint64 `gorm:"primaryKey"`
	Principal             string
	ReferenceTimestamp    uint64
	StakingPower          decimal.Decimal `gorm:"type:numeric"`
	StakingPowerUSD       decimal.Decimal `gorm:"column:staking_power_usd;type:numeric"`
	RewardEstimateWeekUSD decimal.Decimal `gorm:"column:reward_estimate_week_usd;type:numeric"`
	UnpricedProjects      string
	CreatedAt             time.Time

	Apys []*ProjectApy `gorm:"foreignKey:EstimateId"`
}

type ProjectApy struct {
	Id         uint64 `gorm:"primaryKey"`
	EstimateId uint64
	ProjectId  string
	Current    decimal.Decimal `gorm:"type:numeric"`
	Max        decimal.Decimal `gorm:"type:numeric"`
}

const (
	ExportJobStatus_Pending  = "pending"
	ExportJobStatus_Complete = "complete"
	ExportJobStatus_Failed   = "failed"
)

type ExportJob struct {
	Id          string `gorm:"primaryKey"`
	Kind        string
	Status      string
	FilePath    string
	Error       string
	CreatedAt   time.Time
	CompletedAt *time.Time
}

func (StakingRewardEstimate) TableName() string { return "staking_reward_estimates" }
func (ProjectApy) TableName() string            { return "project_apys" }
func (ExportJob) TableName() string             { return "export_jobs" }
