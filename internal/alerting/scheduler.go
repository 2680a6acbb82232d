package alerting

import (
	"context"
	"sync"
	"time"

	"github.com/glucosense/glucosense-go/internal/datastore/entities"
	"github.com/glucosense/glucosense-go/internal/datastore/repository"
	"github.com/glucosense/glucosense-go/internal/logger"
)

const (
	defaultSchedulerInterval = 15 * time.Second
	defaultSchedulerBatch    = 50
)

// EscalationScheduler polls the task store for due follow-up checks and runs
// them through the orchestrator. Tasks survive restarts: anything left in the
// running state by a crash is requeued on Start.
type EscalationScheduler struct {
	tasks        repository.EscalationTaskRepository
	orchestrator *Orchestrator
	log          logger.Logger

	interval time.Duration
	batch    int

	mu      sync.Mutex
	started bool
	stop    chan struct{}
	done    chan struct{}
}

// NewEscalationScheduler creates a scheduler polling every interval, claiming
// up to batch tasks per tick. Non-positive values fall back to 15s and 50.
func NewEscalationScheduler(tasks repository.EscalationTaskRepository, orchestrator *Orchestrator, log logger.Logger, interval time.Duration, batch int) *EscalationScheduler {
	if interval <= 0 {
		interval = defaultSchedulerInterval
	}
	if batch <= 0 {
		batch = defaultSchedulerBatch
	}
	return &EscalationScheduler{
		tasks:        tasks,
		orchestrator: orchestrator,
		log:          log,
		interval:     interval,
		batch:        batch,
	}
}

// Start requeues orphaned tasks and launches the polling loop. Calling Start
// on a running scheduler is a no-op.
func (s *EscalationScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil
	}

	requeued, err := s.tasks.ResetRunning(ctx)
	if err != nil {
		return err
	}
	if requeued > 0 {
		s.log.Warn("requeued orphaned escalation tasks",
			logger.Int64("count", requeued))
	}

	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	s.started = true
	go s.run()
	s.log.Info("escalation scheduler started",
		logger.Duration("interval", s.interval),
		logger.Int("batch", s.batch))
	return nil
}

// Stop halts the polling loop and waits for an in-flight tick to finish.
func (s *EscalationScheduler) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	close(s.stop)
	done := s.done
	s.mu.Unlock()

	<-done
	s.log.Info("escalation scheduler stopped")
}

func (s *EscalationScheduler) run() {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.tick()
		}
	}
}

// tick claims one batch of due tasks and runs them sequentially. Escalation
// volume is low; sequential keeps provider pressure bounded.
func (s *EscalationScheduler) tick() {
	ctx := context.Background()

	claimed, err := s.tasks.ClaimDue(ctx, time.Now(), s.batch)
	if err != nil {
		s.log.Error("failed to claim due escalation tasks", logger.Error(err))
		return
	}

	for i := range claimed {
		task := &claimed[i]
		if err := s.runTask(ctx, task); err != nil {
			s.log.Error("escalation task failed",
				logger.Uint64("task_id", uint64(task.ID)),
				logger.String("event_id", task.EventID),
				logger.Error(err))
		}
	}
}

func (s *EscalationScheduler) runTask(ctx context.Context, task *entities.EscalationTask) error {
	return s.orchestrator.RunEscalation(ctx, task)
}
