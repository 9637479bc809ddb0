package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"kointos-backend/internal/worker/strategy"
	"kointos-backend/pkg/logger"

	"github.com/robfig/cron/v3"
)

// NewsIngester runs one ingestion pass.
type NewsIngester interface {
	Execute(ctx context.Context) ([]strategy.FeedResult, error)
}

// NewsSchedulerService runs news ingestion on a cron schedule.
type NewsSchedulerService interface {
	Start(ctx context.Context) error
	Stop()
	RunOnce(ctx context.Context)
}

// NewNewsSchedulerService creates a scheduler. An empty schedule disables it.
func NewNewsSchedulerService(schedule string, timeout time.Duration, ingester NewsIngester, log *logger.Logger) NewsSchedulerService {
	return &newsSchedulerService{
		schedule:   schedule,
		timeout:    timeout,
		ingester:   ingester,
		logger:     log,
		cronParser: cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
	}
}

type newsSchedulerService struct {
	schedule   string
	timeout    time.Duration
	ingester   NewsIngester
	logger     *logger.Logger
	cronParser cron.Parser

	mu   sync.Mutex
	cron *cron.Cron
}

// Start registers the ingestion job and starts the cron runner. Overlapping runs are skipped.
func (s *newsSchedulerService) Start(ctx context.Context) error {
	if s.schedule == "" {
		s.logger.Info("News ingestion schedule not configured, scheduler disabled")
		return nil
	}
	if _, err := s.cronParser.Parse(s.schedule); err != nil {
		return fmt.Errorf("invalid news schedule %q: %w", s.schedule, err)
	}

	cl := cronLogger{s.logger}
	c := cron.New(
		cron.WithParser(s.cronParser),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	if _, err := c.AddFunc(s.schedule, func() { s.RunOnce(ctx) }); err != nil {
		return fmt.Errorf("failed to schedule news ingestion: %w", err)
	}

	s.mu.Lock()
	s.cron = c
	s.mu.Unlock()

	c.Start()
	s.logger.Info("News scheduler started", logger.StringField("schedule", s.schedule))
	return nil
}

// Stop waits for a running ingestion to finish.
func (s *newsSchedulerService) Stop() {
	s.mu.Lock()
	c := s.cron
	s.mu.Unlock()
	if c == nil {
		return
	}
	<-c.Stop().Done()
	s.logger.Info("News scheduler stopped")
}

// RunOnce runs a single ingestion pass bounded by the configured timeout.
func (s *newsSchedulerService) RunOnce(ctx context.Context) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	results, err := s.ingester.Execute(ctx)
	if err != nil {
		s.logger.Error("News ingestion failed", logger.ErrorField(err))
		return
	}

	stored := 0
	for _, r := range results {
		stored += r.Stored
		if r.Status == strategy.FAILED {
			s.logger.Warn("News feed failed", logger.StringField("feed", r.Feed), logger.Field("errors", r.Errors))
		}
	}
	s.logger.Info("News ingestion completed",
		logger.IntField("feeds", len(results)),
		logger.IntField("stored", stored),
		logger.Field("duration", time.Since(start)))
}

// cronLogger routes cron's own logging through zap.
type cronLogger struct {
	log *logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Sugar().Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}
