package consumer

import (
	"context"
	"sync"
	"time"

	"kointos-backend/internal/worker/config"
	"kointos-backend/internal/worker/service"
	"kointos-backend/pkg/common"
	"kointos-backend/pkg/logger"
	"kointos-backend/pkg/utils"
)

// RedisConsumer drives the stream handlers of the worker.
type RedisConsumer struct {
	cfg               config.Worker
	priceEventService service.PriceEventService
	logger            *logger.Logger
	stopChan          chan struct{}
	stopOnce          sync.Once
	wg                sync.WaitGroup
}

// NewRedisConsumer creates a new RedisConsumer.
func NewRedisConsumer(cfg config.Worker, priceEventService service.PriceEventService, log *logger.Logger) *RedisConsumer {
	return &RedisConsumer{
		cfg:               cfg,
		priceEventService: priceEventService,
		logger:            log,
		stopChan:          make(chan struct{}),
	}
}

// Start begins the consumer's processing loops.
func (c *RedisConsumer) Start(ctx context.Context) {
	c.logger.Info("Redis consumer started")
	c.RegisterStreamHandler(ctx, c.priceEventService.ProcessTask, common.RedisStreamPriceUpdate, c.cfg.PriceStreamTimeout)
	c.RegisterTickerHandler(ctx, c.priceEventService.ProcessRetries, c.cfg.PriceRetryInterval, c.cfg.PriceStreamTimeout, common.RedisStreamPriceUpdate+"-retry")
}

// RegisterStreamHandler calls fn in a loop until the consumer stops, each call bounded by timeout.
func (c *RedisConsumer) RegisterStreamHandler(ctx context.Context, fn func(ctx context.Context), streamName string, timeout time.Duration) {
	c.logger.Info("Registering stream handler", logger.StringField("stream", streamName))
	c.wg.Add(1)
	utils.GoSafe(func() {
		defer c.wg.Done()
		for {
			select {
			case <-ctx.Done():
				c.logger.Info("Stream handler stopping due to context cancellation", logger.StringField("stream", streamName))
				return
			case <-c.stopChan:
				c.logger.Info("Stream handler stopping", logger.StringField("stream", streamName))
				return
			default:
				ctxTimeout, cancel := context.WithTimeout(ctx, timeout)
				fn(ctxTimeout)
				cancel()
			}
		}
	})
}

// RegisterTickerHandler calls fn every interval until the consumer stops.
func (c *RedisConsumer) RegisterTickerHandler(ctx context.Context, fn func(ctx context.Context), interval time.Duration, timeout time.Duration, name string) {
	c.logger.Info("Registering ticker handler",
		logger.StringField("name", name),
		logger.Field("interval", interval),
		logger.Field("timeout", timeout))
	c.wg.Add(1)
	utils.GoSafe(func() {
		defer c.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				ctxTimeout, cancel := context.WithTimeout(ctx, timeout)
				fn(ctxTimeout)
				cancel()
			case <-ctx.Done():
				c.logger.Info("Ticker handler stopping due to context cancellation", logger.StringField("name", name))
				return
			case <-c.stopChan:
				c.logger.Info("Ticker handler stopping", logger.StringField("name", name))
				return
			}
		}
	})
}

// Stop gracefully shuts down the consumer.
func (c *RedisConsumer) Stop() {
	c.stopOnce.Do(func() { close(c.stopChan) })
	c.wg.Wait()
	c.logger.Info("Redis consumer stopped")
}
