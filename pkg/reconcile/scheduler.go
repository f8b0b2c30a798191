package reconcile

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Scheduler debounces per-guild work: scheduling a guild that already has a
// pending run pushes its timer back instead of queueing a second run.
type Scheduler struct {
	log   *zap.SugaredLogger
	delay time.Duration
	run   func(guildID string) error

	mu     sync.Mutex
	timers map[string]*time.Timer
}

func NewScheduler(log *zap.SugaredLogger, delay time.Duration, run func(guildID string) error) *Scheduler {
	return &Scheduler{
		log:    log,
		delay:  delay,
		run:    run,
		timers: make(map[string]*time.Timer),
	}
}

// Schedule arms (or re-arms) the guild's timer.
func (s *Scheduler) Schedule(guildID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.timers[guildID]; ok {
		t.Stop()
	}
	s.timers[guildID] = time.AfterFunc(s.delay, func() {
		s.mu.Lock()
		delete(s.timers, guildID)
		s.mu.Unlock()
		if err := s.run(guildID); err != nil {
			s.log.Errorf("Error running scheduled sync for guild %s: %v", guildID, err)
		}
	})
}

// Stop cancels every pending timer.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
}
