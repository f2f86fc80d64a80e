package scheduler

import (
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

// Recorder writes one balance-history batch. Implemented by store.Store.
type Recorder interface {
	RecordBatch(batchID string) (int, error)
}

// Scheduler runs periodic balance-history snapshots.
type Scheduler struct {
	cron     *cron.Cron
	recorder Recorder
}

// New creates a Scheduler around a recorder.
func New(recorder Recorder) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		recorder: recorder,
	}
}

// Start registers the snapshot task under a standard 5-field cron
// expression and starts the scheduler.
func (s *Scheduler) Start(spec string) error {
	if _, err := s.cron.AddFunc(spec, s.record); err != nil {
		return fmt.Errorf("register snapshot task: %w", err)
	}
	s.cron.Start()
	log.Printf("[INFO] balance snapshots scheduled: %s", spec)
	return nil
}

// RunOnce records a single batch immediately. Returns the batch ID.
func (s *Scheduler) RunOnce() (string, error) {
	batchID := uuid.NewString()
	n, err := s.recorder.RecordBatch(batchID)
	if err != nil {
		return "", err
	}
	log.Printf("[INFO] recorded %d balances (batch %s)", n, batchID)
	return batchID, nil
}

func (s *Scheduler) record() {
	if _, err := s.RunOnce(); err != nil {
		log.Printf("[WARN] balance snapshot failed: %v", err)
	}
}

// Stop stops the scheduler and waits for a running task to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
