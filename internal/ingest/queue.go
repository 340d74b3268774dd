package ingest

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrQueueFull is returned when the ingestion backlog is at capacity; the
// caller should reject the upload rather than buffer unbounded work.
var ErrQueueFull = errors.New("ingestion queue full")

// Status is the lifecycle state of one ingestion job.
type Status string

const (
	StatusQueued  Status = "queued"
	StatusRunning Status = "running"
	StatusDone    Status = "done"
	StatusFailed  Status = "failed"
)

// Job is the trackable record of one accepted upload.
type Job struct {
	ID         string    `json:"id"`
	Filename   string    `json:"filename"`
	Size       int       `json:"size"`
	Status     Status    `json:"status"`
	Error      string    `json:"error,omitempty"`
	Result     *Result   `json:"result,omitempty"`
	EnqueuedAt time.Time `json:"enqueued_at"`
	FinishedAt time.Time `json:"finished_at,omitzero"`
}

type task struct {
	id  string
	pdf []byte
}

// Queue runs ingestion jobs on a fixed worker pool. Uploads enqueue and
// return immediately; completion is observable through Job lookups.
type Queue struct {
	pipeline *Pipeline
	tasks    chan task
	workers  int
	logger   *zap.Logger

	mu       sync.RWMutex
	registry map[string]*Job
	wg       sync.WaitGroup
}

// NewQueue creates a queue with the given worker count and backlog capacity.
func NewQueue(p *Pipeline, workers, capacity int, logger *zap.Logger) *Queue {
	return &Queue{
		pipeline: p,
		tasks:    make(chan task, capacity),
		workers:  workers,
		logger:   logger,
		registry: make(map[string]*Job),
	}
}

// Start launches the worker pool. Workers exit when ctx is canceled and the
// backlog drains, or immediately on Stop.
func (q *Queue) Start(ctx context.Context) {
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(ctx)
	}
}

// Stop closes the intake and waits for in-flight jobs to finish.
func (q *Queue) Stop() {
	close(q.tasks)
	q.wg.Wait()
}

// Enqueue registers a job and schedules it, failing fast when the backlog
// is full.
func (q *Queue) Enqueue(filename string, pdf []byte) (string, error) {
	job := &Job{
		ID:         uuid.NewString(),
		Filename:   filename,
		Size:       len(pdf),
		Status:     StatusQueued,
		EnqueuedAt: time.Now(),
	}
	q.mu.Lock()
	q.registry[job.ID] = job
	q.mu.Unlock()

	select {
	case q.tasks <- task{id: job.ID, pdf: pdf}:
		q.logger.Info("ingestion job enqueued",
			zap.String("job_id", job.ID), zap.String("filename", filename), zap.Int("size", len(pdf)))
		return job.ID, nil
	default:
		q.mu.Lock()
		delete(q.registry, job.ID)
		q.mu.Unlock()
		return "", ErrQueueFull
	}
}

// Job returns a snapshot of the job with the given ID.
func (q *Queue) Job(id string) (Job, bool) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	job, ok := q.registry[id]
	if !ok {
		return Job{}, false
	}
	return *job, true
}

func (q *Queue) worker(ctx context.Context) {
	defer q.wg.Done()
	for t := range q.tasks {
		q.setStatus(t.id, StatusRunning, "", nil)
		res, err := q.pipeline.Run(ctx, t.pdf)
		if err != nil {
			// The upload response went out long ago; the log and the job
			// record are the only places this failure surfaces.
			q.logger.Error("ingestion job failed", zap.String("job_id", t.id), zap.Error(err))
			q.setStatus(t.id, StatusFailed, err.Error(), nil)
			continue
		}
		q.setStatus(t.id, StatusDone, "", &res)
	}
}

func (q *Queue) setStatus(id string, st Status, errMsg string, res *Result) {
	q.mu.Lock()
	defer q.mu.Unlock()
	job, ok := q.registry[id]
	if !ok {
		return
	}
	job.Status = st
	job.Error = errMsg
	job.Result = res
	if st == StatusDone || st == StatusFailed {
		job.FinishedAt = time.Now()
	}
}
