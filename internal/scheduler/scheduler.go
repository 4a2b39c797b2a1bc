package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/isheraz/stroll-test/internal/cycle"
)

const warmTimeout = 1 * time.Minute

// Warmer preloads question cache entries.
type Warmer interface {
	WarmQuestions(ctx context.Context, regions []string, t cycle.Type) (int, error)
}

// WarmScheduler periodically warms the question cache so the first request of a
// new cycle does not have to reach the database.
type WarmScheduler struct {
	cronEngine *cron.Cron
	warmer     Warmer
	regions    []string
	cycleTypes []cycle.Type
	cronSpec   string
	log        *logrus.Entry
}

// NewWarmScheduler warms the assign_question entries plus one entry per
// cycle type for each region.
func NewWarmScheduler(warmer Warmer, regions []string, cronSpec string, log *logrus.Entry) *WarmScheduler {
	return &WarmScheduler{
		cronEngine: cron.New(cron.WithLocation(time.UTC)),
		warmer:     warmer,
		regions:    regions,
		cycleTypes: []cycle.Type{"", cycle.TypeDay, cycle.TypeWeek},
		cronSpec:   cronSpec,
		log:        log,
	}
}

func (s *WarmScheduler) Start() error {
	if len(s.regions) == 0 {
		s.log.Info("No regions configured, cache warm-up disabled")
		return nil
	}

	s.log.WithField("spec", s.cronSpec).Info("Starting cache warm-up scheduler")
	if _, err := s.cronEngine.AddFunc(s.cronSpec, s.runJob); err != nil {
		return fmt.Errorf("add warm-up job %q: %w", s.cronSpec, err)
	}

	s.cronEngine.Start()
	return nil
}

func (s *WarmScheduler) runJob() {
	ctx, cancel := context.WithTimeout(context.Background(), warmTimeout)
	defer cancel()
	s.RunOnce(ctx)
}

// RunOnce warms every configured region and returns the number of entries
// written. Failures are logged and do not stop the remaining types.
func (s *WarmScheduler) RunOnce(ctx context.Context) int {
	total := 0
	for _, t := range s.cycleTypes {
		log := s.log.WithField("cycle_type", t)
		warmed, err := s.warmer.WarmQuestions(ctx, s.regions, t)
		if err != nil {
			log.WithError(err).Error("Cache warm-up failed")
		}
		total += warmed
		log.WithField("warmed", warmed).Debug("Cache warm-up finished")
	}
	return total
}

func (s *WarmScheduler) Stop() {
	s.log.Info("Stopping cache warm-up scheduler...")
	ctx := s.cronEngine.Stop()
	<-ctx.Done()
	s.log.Info("Cache warm-up scheduler stopped")
}
