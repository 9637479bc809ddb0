package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"kointos-backend/internal/entity"
	"kointos-backend/internal/event"
	"kointos-backend/internal/worker/config"
	"kointos-backend/internal/worker/repository"
	"kointos-backend/pkg/common"
	"kointos-backend/pkg/logger"
	"kointos-backend/pkg/telegram"
	"kointos-backend/pkg/utils"

	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// StreamClient is the part of the Redis client used to consume a stream through a consumer group.
type StreamClient interface {
	XReadGroup(ctx context.Context, a *redis.XReadGroupArgs) *redis.XStreamSliceCmd
	XAutoClaim(ctx context.Context, a *redis.XAutoClaimArgs) *redis.XAutoClaimCmd
	XPendingExt(ctx context.Context, a *redis.XPendingExtArgs) *redis.XPendingExtCmd
	XAck(ctx context.Context, stream, group string, ids ...string) *redis.IntCmd
	XDel(ctx context.Context, stream string, ids ...string) *redis.IntCmd
}

// PriceEventService consumes price updates, triggers alerts and revalues holdings.
type PriceEventService interface {
	ProcessTask(ctx context.Context)
	ProcessRetries(ctx context.Context)
	Handle(ctx context.Context, evt event.PriceEvent) error
}

// NewPriceEventService creates a new PriceEventService.
func NewPriceEventService(
	cfg config.Worker,
	redisClient StreamClient,
	alertRepo repository.PriceAlertRepository,
	holdingRepo repository.PortfolioHoldingRepository,
	notifier telegram.Notifier,
	log *logger.Logger,
) PriceEventService {
	return &priceEventService{
		cfg:         cfg,
		redisClient: redisClient,
		alertRepo:   alertRepo,
		holdingRepo: holdingRepo,
		notifier:    notifier,
		log:         log,
		lastPrices:  cache.New(cfg.PriceDedupeTTL, 2*cfg.PriceDedupeTTL),
	}
}

type priceEventService struct {
	cfg         config.Worker
	redisClient StreamClient
	alertRepo   repository.PriceAlertRepository
	holdingRepo repository.PortfolioHoldingRepository
	notifier    telegram.Notifier
	log         *logger.Logger
	lastPrices  *cache.Cache
}

// ProcessTask reads and handles a single price event.
func (s *priceEventService) ProcessTask(ctx context.Context) {
	streams, err := s.redisClient.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    common.RedisStreamGroup,
		Consumer: common.RedisStreamConsumer,
		Streams:  []string{common.RedisStreamPriceUpdate, ">"},
		Count:    1,
		Block:    s.cfg.PriceStreamBlock,
	}).Result()
	if err != nil {
		// idle periods and shutdown
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, redis.Nil) {
			return
		}
		s.log.Error("Failed to read from stream", logger.ErrorField(err))
		return
	}

	if len(streams) == 0 || len(streams[0].Messages) == 0 {
		return
	}
	message := streams[0].Messages[0]

	evt, err := event.DecodePriceEvent(message)
	if err != nil {
		s.log.Error("Failed to decode price event", logger.ErrorField(err), logger.StringField("message_id", message.ID))
		// a malformed message would otherwise be retried forever
		s.ack(ctx, message.ID)
		return
	}

	if err := s.Handle(ctx, evt); err != nil {
		s.log.Error("Failed to handle price event", logger.ErrorField(err),
			logger.StringField("message_id", message.ID),
			logger.StringField("symbol", evt.Symbol))
		return
	}
	s.ack(ctx, message.ID)
}

// ProcessRetries claims one event that has been pending for too long and handles it again.
// Events that exhausted their retries are dropped and reported.
func (s *priceEventService) ProcessRetries(ctx context.Context) {
	msgs, _, err := s.redisClient.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   common.RedisStreamPriceUpdate,
		Group:    common.RedisStreamGroup,
		Consumer: common.RedisStreamConsumer + "-retry",
		MinIdle:  s.cfg.PriceMaxIdle,
		Start:    "0",
		Count:    1,
	}).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.log.Error("Failed to claim price event on retry", logger.ErrorField(err))
		}
		return
	}
	if len(msgs) == 0 {
		return
	}
	msg := msgs[0]

	pending, err := s.redisClient.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream: common.RedisStreamPriceUpdate,
		Group:  common.RedisStreamGroup,
		Start:  msg.ID,
		End:    msg.ID,
		Count:  1,
	}).Result()
	if err != nil {
		s.log.Error("Failed to get pending info", logger.ErrorField(err))
		return
	}
	if len(pending) == 0 {
		s.log.Warn("Pending message not found after claim", logger.StringField("message_id", msg.ID))
		return
	}

	evt, err := event.DecodePriceEvent(msg)
	if err != nil {
		s.log.Error("Failed to decode price event", logger.ErrorField(err), logger.StringField("message_id", msg.ID))
		s.ack(ctx, msg.ID)
		return
	}

	if pending[0].RetryCount >= int64(s.cfg.PriceMaxRetry) {
		s.log.Error("Price event retry count exceeded",
			logger.StringField("message_id", msg.ID),
			logger.StringField("symbol", evt.Symbol),
			logger.IntField("retry_count", int(pending[0].RetryCount)))
		text := telegram.FormatErrorAlertMessage(utils.TimeNowUTC(), "price event", "retry count exceeded",
			fmt.Sprintf("%s @ %v", evt.Symbol, evt.Price))
		if err := s.notifier.SendMessage(text); err != nil {
			s.log.Error("Failed to send telegram message", logger.ErrorField(err))
		}
		s.ack(ctx, msg.ID)
		return
	}

	if err := s.Handle(ctx, evt); err != nil {
		s.log.Error("Failed to handle price event on retry", logger.ErrorField(err), logger.StringField("message_id", msg.ID))
		return
	}
	s.ack(ctx, msg.ID)
}

// Handle applies a price to every alert and holding on its symbol. A price equal to the last
// one seen for the symbol within the dedupe window is ignored.
func (s *priceEventService) Handle(ctx context.Context, evt event.PriceEvent) error {
	symbol := strings.ToUpper(strings.TrimSpace(evt.Symbol))
	if last, ok := s.lastPrices.Get(symbol); ok && last.(float64) == evt.Price {
		s.log.Debug("Skip unchanged price", logger.StringField("symbol", symbol))
		return nil
	}

	at := evt.At
	if at.IsZero() {
		at = utils.TimeNowUTC()
	}

	if err := s.triggerAlerts(ctx, symbol, evt.Price, at); err != nil {
		return err
	}
	if err := s.revalueHoldings(ctx, symbol, evt.Price, at); err != nil {
		return err
	}

	s.lastPrices.Set(symbol, evt.Price, cache.DefaultExpiration)
	return nil
}

func (s *priceEventService) triggerAlerts(ctx context.Context, symbol string, price float64, at time.Time) error {
	alerts, err := s.alertRepo.FindActiveBySymbol(ctx, symbol)
	if err != nil {
		return fmt.Errorf("failed to find price alerts: %w", err)
	}

	for _, alert := range alerts {
		if !crossed(alert, price) {
			continue
		}
		triggered, err := s.alertRepo.MarkTriggered(ctx, alert.ID, at)
		if err != nil {
			return fmt.Errorf("failed to trigger price alert %s: %w", alert.ID, err)
		}
		if !triggered {
			continue
		}

		s.log.Info("Price alert triggered",
			logger.StringField("alert_id", alert.ID),
			logger.StringField("symbol", symbol),
			logger.Field("price", price))
		if err := s.notifier.SendMessage(telegram.FormatPriceAlert(alert, price, at)); err != nil {
			s.log.Error("Failed to send price alert", logger.ErrorField(err), logger.StringField("alert_id", alert.ID))
		}
	}
	return nil
}

// crossed reports whether price satisfies the alert. Alerts without a type never trigger.
func crossed(alert entity.PriceAlert, price float64) bool {
	if alert.TargetPrice == nil {
		return false
	}
	switch alert.AlertType {
	case entity.AlertTypeAbove:
		return price >= *alert.TargetPrice
	case entity.AlertTypeBelow:
		return price <= *alert.TargetPrice
	default:
		return false
	}
}

func (s *priceEventService) revalueHoldings(ctx context.Context, symbol string, price float64, at time.Time) error {
	holdings, err := s.holdingRepo.FindBySymbol(ctx, symbol)
	if err != nil {
		return fmt.Errorf("failed to find holdings: %w", err)
	}

	for i := range holdings {
		h := &holdings[i]
		if h.Amount == nil {
			continue
		}
		Revalue(h, price, at)
		if err := s.holdingRepo.UpdateValuation(ctx, h); err != nil {
			return fmt.Errorf("failed to update holding %s: %w", h.ID, err)
		}
	}

	s.log.Debug("Holdings revalued", logger.StringField("symbol", symbol), logger.IntField("count", len(holdings)))
	return nil
}

// Revalue sets the valuation of h at price. Profit figures need an average buy price and are
// cleared without one.
func Revalue(h *entity.PortfolioHolding, price float64, at time.Time) {
	amount := decimal.NewFromFloat(*h.Amount)
	value := amount.Mul(decimal.NewFromFloat(price))
	h.CurrentValue = utils.ToPointer(value.Round(8).InexactFloat64())
	h.LastUpdated = &at

	if h.AverageBuyPrice == nil {
		h.ProfitLoss = nil
		h.ProfitLossPercentage = nil
		return
	}

	cost := amount.Mul(decimal.NewFromFloat(*h.AverageBuyPrice))
	profit := value.Sub(cost)
	h.ProfitLoss = utils.ToPointer(profit.Round(8).InexactFloat64())
	if cost.IsZero() {
		h.ProfitLossPercentage = nil
		return
	}
	h.ProfitLossPercentage = utils.ToPointer(profit.Div(cost).Mul(decimal.NewFromInt(100)).Round(4).InexactFloat64())
}

func (s *priceEventService) ack(ctx context.Context, id string) {
	if err := s.redisClient.XAck(ctx, common.RedisStreamPriceUpdate, common.RedisStreamGroup, id).Err(); err != nil {
		s.log.Error("Failed to acknowledge message", logger.ErrorField(err), logger.StringField("message_id", id))
		return
	}
	if err := s.redisClient.XDel(ctx, common.RedisStreamPriceUpdate, id).Err(); err != nil {
		s.log.Warn("Failed to delete message", logger.ErrorField(err), logger.StringField("message_id", id))
	}
}
