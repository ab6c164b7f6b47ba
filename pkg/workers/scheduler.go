package workers

import (
	"context"
	"time"

	"github.com/cbodonnell/reactions/pkg/game/constants"
	"github.com/cbodonnell/reactions/pkg/log"
)

// Runtime is driven by the scheduler.
type Runtime interface {
	// Poll requests a snapshot; it is a no-op while no session is active
	Poll(ctx context.Context) error
	// Tick advances the local countdown
	Tick(ctx context.Context) error
}

// Scheduler fires the poll and countdown ticks. Polls run on their own
// goroutines so a slow poll never delays the next one.
type Scheduler struct {
	runtime           Runtime
	pollInterval      time.Duration
	countdownInterval time.Duration
	logger            *log.Logger
}

type NewSchedulerOptions struct {
	Runtime           Runtime
	PollInterval      time.Duration
	CountdownInterval time.Duration
}

func NewScheduler(opts NewSchedulerOptions) *Scheduler {
	if opts.PollInterval <= 0 {
		opts.PollInterval = constants.PollInterval
	}
	if opts.CountdownInterval <= 0 {
		opts.CountdownInterval = constants.CountdownInterval
	}
	return &Scheduler{
		runtime:           opts.Runtime,
		pollInterval:      opts.PollInterval,
		countdownInterval: opts.CountdownInterval,
		logger:            log.Default().WithComponent("scheduler"),
	}
}

func (s *Scheduler) Start(ctx context.Context) {
	pollTicker := time.NewTicker(s.pollInterval)
	defer pollTicker.Stop()
	countdownTicker := time.NewTicker(s.countdownInterval)
	defer countdownTicker.Stop()

	s.logger.Info("Scheduler started: poll every %v, countdown every %v", s.pollInterval, s.countdownInterval)
	for {
		select {
		case <-ctx.Done():
			return
		case <-pollTicker.C:
			go func() {
				if err := s.runtime.Poll(ctx); err != nil {
					s.logger.Debug("Poll failed: %v", err)
				}
			}()
		case <-countdownTicker.C:
			if err := s.runtime.Tick(ctx); err != nil {
				s.logger.Debug("Countdown tick failed: %v", err)
			}
		}
	}
}
