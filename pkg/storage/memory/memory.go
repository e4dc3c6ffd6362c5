// Package memory keeps estimate history and export jobs in process memory
// for when no database is configured.
package memory

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/govwallet/sidecar/pkg/storage"
)

type MemoryHistoryStore struct {
	mu        sync.Mutex
	nextId    uint64
	estimates []*storage.StakingRewardEstimate
	jobs      map[string]*storage.ExportJob
	jobOrder  []string
	// MaxEstimates bounds retained history; older entries are evicted.
	MaxEstimates int
	// MaxJobs bounds retained export jobs the same way.
	MaxJobs int
}

func NewMemoryHistoryStore(maxEstimates int) *MemoryHistoryStore {
	return &MemoryHistoryStore{
		jobs:         make(map[string]*storage.ExportJob),
		MaxEstimates: maxEstimates,
		MaxJobs:      maxEstimates,
	}
}

func (s *MemoryHistoryStore) InsertEstimate(estimate *storage.StakingRewardEstimate) (*storage.StakingRewardEstimate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextId++
	estimate.Id = s.nextId
	estimate.CreatedAt = time.Now().UTC()
	for _, apy := range estimate.Apys {
		apy.EstimateId = estimate.Id
	}

	s.estimates = append(s.estimates, estimate)
	if s.MaxEstimates > 0 && len(s.estimates) > s.MaxEstimates {
		s.estimates = s.estimates[len(s.estimates)-s.MaxEstimates:]
	}
	return estimate, nil
}

func (s *MemoryHistoryStore) ListEstimates(principal string, limit int) ([]*storage.StakingRewardEstimate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := make([]*storage.StakingRewardEstimate, 0)
	for i := len(s.estimates) - 1; i >= 0; i-- {
		if s.estimates[i].Principal != principal {
			continue
		}
		res = append(res, s.estimates[i])
		if limit > 0 && len(res) == limit {
			break
		}
	}
	return res, nil
}

func (s *MemoryHistoryStore) InsertExportJob(kind string) (*storage.ExportJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job := &storage.ExportJob{
		Id:        uuid.New().String(),
		Kind:      kind,
		Status:    storage.ExportJobStatus_Pending,
		CreatedAt: time.Now().UTC(),
	}
	s.jobs[job.Id] = job
	s.jobOrder = append(s.jobOrder, job.Id)
	if s.MaxJobs > 0 && len(s.jobOrder) > s.MaxJobs {
		evicted := len(s.jobOrder) - s.MaxJobs
		for _, id := range s.jobOrder[:evicted] {
			delete(s.jobs, id)
		}
		s.jobOrder = s.jobOrder[evicted:]
	}
	return job, nil
}

func (s *MemoryHistoryStore) CompleteExportJob(id string, filePath string, jobErr error) (*storage.ExportJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	now := time.Now().UTC()
	job.CompletedAt = &now
	job.FilePath = filePath
	job.Status = storage.ExportJobStatus_Complete
	if jobErr != nil {
		job.Status = storage.ExportJobStatus_Failed
		job.Error = jobErr.Error()
	}
	return job, nil
}

func (s *MemoryHistoryStore) GetExportJob(id string) (*storage.ExportJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return job, nil
}
