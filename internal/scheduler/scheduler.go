package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// JobFunc is a unit of background work.
type JobFunc func(ctx context.Context) error

type job struct {
	name    string
	spec    string
	fn      JobFunc
	timeout time.Duration
	entryID cron.EntryID
	lastRun time.Time
	lastErr error
	running bool
}

// Scheduler runs named maintenance jobs on cron specs. Overlapping runs of the
// same job are skipped.
type Scheduler struct {
	cron    *cron.Cron
	logger  *zap.Logger
	mu      sync.Mutex
	jobs    map[string]*job
	order   []string
	running bool
	wg      sync.WaitGroup
}

func NewScheduler(logger *zap.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		logger: logger,
		jobs:   make(map[string]*job),
	}
}

// Register adds a job. It must be called before Start.
func (s *Scheduler) Register(name, spec string, timeout time.Duration, fn JobFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job %q already registered", name)
	}
	j := &job{name: name, spec: spec, fn: fn, timeout: timeout}

	id, err := s.cron.AddFunc(spec, func() { s.runJob(j) })
	if err != nil {
		return fmt.Errorf("invalid schedule %q for job %q: %w", spec, name, err)
	}
	j.entryID = id
	s.jobs[name] = j
	s.order = append(s.order, name)
	return nil
}

// Start begins the cron loop and runs every job once immediately.
func (s *Scheduler) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	jobs := make([]*job, 0, len(s.order))
	for _, name := range s.order {
		jobs = append(jobs, s.jobs[name])
	}
	s.mu.Unlock()

	s.cron.Start()
	s.logger.Info("Scheduler started", zap.Int("jobs", len(jobs)))

	for _, j := range jobs {
		s.wg.Add(1)
		go func(j *job) {
			defer s.wg.Done()
			s.runJob(j)
		}(j)
	}
}

func (s *Scheduler) runJob(j *job) {
	s.mu.Lock()
	if j.running {
		s.mu.Unlock()
		s.logger.Debug("Skipping job, previous run still in progress", zap.String("job", j.name))
		return
	}
	j.running = true
	s.mu.Unlock()

	startTime := time.Now()
	ctx := context.Background()
	var cancel context.CancelFunc = func() {}
	if j.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, j.timeout)
	}
	err := j.fn(ctx)
	cancel()

	s.mu.Lock()
	j.running = false
	j.lastRun = startTime
	j.lastErr = err
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("Scheduled job failed",
			zap.String("job", j.name),
			zap.Error(err),
			zap.Duration("duration", time.Since(startTime)))
		return
	}
	s.logger.Info("Scheduled job completed",
		zap.String("job", j.name),
		zap.Duration("duration", time.Since(startTime)))
}

// Stop halts scheduling and waits for in-flight jobs.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	s.logger.Info("Stopping scheduler")
	<-s.cron.Stop().Done()
	s.wg.Wait()
}

// ForceRun triggers a job outside its schedule.
func (s *Scheduler) ForceRun(name string) error {
	s.mu.Lock()
	j, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("unknown job %q", name)
	}

	s.logger.Info("Manually triggering job", zap.String("job", name))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runJob(j)
	}()
	return nil
}

func (s *Scheduler) GetStatus() map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	jobs := make([]map[string]interface{}, 0, len(s.order))
	for _, name := range s.order {
		j := s.jobs[name]
		entry := s.cron.Entry(j.entryID)
		status := map[string]interface{}{
			"name":      j.name,
			"spec":      j.spec,
			"last_run":  j.lastRun,
			"next_run":  entry.Next,
			"in_flight": j.running,
		}
		if j.lastErr != nil {
			status["last_error"] = j.lastErr.Error()
		}
		jobs = append(jobs, status)
	}

	return map[string]interface{}{
		"running": s.running,
		"jobs":    jobs,
	}
}
