package mocks

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/bobibcgroup/qadim/internal/domain/entities"
)

// JobStore is an in-memory mock implementation of ports.JobStore.
type JobStore struct {
	Err error

	mu   sync.Mutex
	Jobs map[string]entities.Job

	// Call tracking
	EnqueueCallCount int
	ClaimCallCount   int
	PruneCallCount   int
}

func (m *JobStore) init() {
	if m.Jobs == nil {
		m.Jobs = make(map[string]entities.Job)
	}
}

// Enqueue appends a job in PENDING status.
func (m *JobStore) Enqueue(ctx context.Context, job *entities.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.EnqueueCallCount++
	if m.Err != nil {
		return m.Err
	}
	m.init()
	m.Jobs[job.ID] = *job
	return nil
}

// Claim returns the next eligible job, priority first then FIFO.
func (m *JobStore) Claim(ctx context.Context, queue string, now time.Time) (*entities.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ClaimCallCount++
	if m.Err != nil {
		return nil, m.Err
	}

	var eligible []entities.Job
	for _, j := range m.Jobs {
		if j.Queue == queue && j.Status == entities.JobPending && !j.RunAt.After(now) {
			eligible = append(eligible, j)
		}
	}
	if len(eligible) == 0 {
		return nil, nil
	}
	sort.Slice(eligible, func(i, j int) bool {
		if eligible[i].Priority != eligible[j].Priority {
			return eligible[i].Priority < eligible[j].Priority
		}
		if !eligible[i].EnqueuedAt.Equal(eligible[j].EnqueuedAt) {
			return eligible[i].EnqueuedAt.Before(eligible[j].EnqueuedAt)
		}
		return eligible[i].ID < eligible[j].ID
	})

	job := eligible[0]
	job.Status = entities.JobActive
	job.StartedAt = now
	m.Jobs[job.ID] = job
	return &job, nil
}

// MarkCompleted transitions an ACTIVE job to COMPLETED.
func (m *JobStore) MarkCompleted(ctx context.Context, jobID string, finishedAt time.Time) error {
	return m.finish(jobID, entities.JobCompleted, "", finishedAt)
}

// MarkFailed transitions an ACTIVE job to FAILED.
func (m *JobStore) MarkFailed(ctx context.Context, jobID string, lastError string, finishedAt time.Time) error {
	return m.finish(jobID, entities.JobFailed, lastError, finishedAt)
}

func (m *JobStore) finish(jobID string, status entities.JobStatus, lastError string, finishedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	j, ok := m.Jobs[jobID]
	if !ok || j.Status != entities.JobActive {
		return fmt.Errorf("job not active: %s", jobID)
	}
	j.Status = status
	if lastError != "" {
		j.LastError = lastError
	}
	j.FinishedAt = finishedAt
	m.Jobs[jobID] = j
	return nil
}

// Reschedule returns an ACTIVE job to PENDING with the given attempt count.
func (m *JobStore) Reschedule(ctx context.Context, jobID string, attemptCount int, lastError string, runAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	j, ok := m.Jobs[jobID]
	if !ok || j.Status != entities.JobActive {
		return fmt.Errorf("job not active: %s", jobID)
	}
	j.Status = entities.JobPending
	j.AttemptCount = attemptCount
	j.LastError = lastError
	j.RunAt = runAt
	j.StartedAt = time.Time{}
	m.Jobs[jobID] = j
	return nil
}

// RecoverStale returns ACTIVE jobs started on or before cutoff to PENDING.
func (m *JobStore) RecoverStale(ctx context.Context, queue string, cutoff time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return 0, m.Err
	}
	recovered := 0
	for id, j := range m.Jobs {
		if j.Queue == queue && j.Status == entities.JobActive && !j.StartedAt.After(cutoff) {
			j.Status = entities.JobPending
			j.StartedAt = time.Time{}
			m.Jobs[id] = j
			recovered++
		}
	}
	return recovered, nil
}

// FindJobByID finds a job by its ID.
func (m *JobStore) FindJobByID(ctx context.Context, id string) (*entities.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	j, ok := m.Jobs[id]
	if !ok {
		return nil, fmt.Errorf("job not found: %s", id)
	}
	return &j, nil
}

// ListJobs lists jobs on a queue by status, newest first.
func (m *JobStore) ListJobs(ctx context.Context, queue string, status entities.JobStatus, limit int) ([]entities.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	var jobs []entities.Job
	for _, j := range m.Jobs {
		if queue != "" && j.Queue != queue {
			continue
		}
		if status != "" && j.Status != status {
			continue
		}
		jobs = append(jobs, j)
	}
	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].EnqueuedAt.After(jobs[j].EnqueuedAt)
	})
	if limit > 0 && limit < len(jobs) {
		jobs = jobs[:limit]
	}
	return jobs, nil
}

// PruneTerminal deletes terminal jobs beyond the retention counts.
func (m *JobStore) PruneTerminal(ctx context.Context, queue string, retainCompleted, retainFailed int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PruneCallCount++
	if m.Err != nil {
		return 0, m.Err
	}

	pruned := 0
	for _, p := range []struct {
		status entities.JobStatus
		retain int
	}{
		{entities.JobCompleted, retainCompleted},
		{entities.JobFailed, retainFailed},
	} {
		var terminal []entities.Job
		for _, j := range m.Jobs {
			if j.Queue == queue && j.Status == p.status {
				terminal = append(terminal, j)
			}
		}
		sort.Slice(terminal, func(i, j int) bool {
			return terminal[i].FinishedAt.After(terminal[j].FinishedAt)
		})
		for i := p.retain; i < len(terminal); i++ {
			delete(m.Jobs, terminal[i].ID)
			pruned++
		}
	}
	return pruned, nil
}
