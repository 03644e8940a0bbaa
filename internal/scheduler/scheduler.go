package scheduler

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler runs named jobs at a fixed interval. Every job receives a
// context that is cancelled by Stop.
type Scheduler struct {
	cron    *cron.Cron
	ctx     context.Context
	cancel  context.CancelFunc
	mu      sync.Mutex
	running bool
}

func New() *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Every registers job to run once per interval. A failing run is logged and
// the next one is still scheduled.
func (s *Scheduler) Every(name string, interval time.Duration, job func(ctx context.Context) error) {
	s.cron.Schedule(cron.Every(interval), cron.FuncJob(func() {
		if s.ctx.Err() != nil {
			return
		}
		if err := job(s.ctx); err != nil && s.ctx.Err() == nil {
			log.Printf("⚠️ scheduled job %s failed: %v", name, err)
		}
	}))
}

func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.cron.Start()
	s.running = true
	log.Printf("📅 Scheduler started with %d job(s)", len(s.cron.Entries()))
}

// Stop cancels the job context and blocks until any in-flight run returns.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.cancel()
	<-s.cron.Stop().Done()
	s.running = false
	log.Println("📅 Scheduler stopped")
}

func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}
