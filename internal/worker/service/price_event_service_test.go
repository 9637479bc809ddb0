package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"kointos-backend/internal/entity"
	"kointos-backend/internal/event"
	"kointos-backend/internal/testutil"
	"kointos-backend/internal/worker/config"
	"kointos-backend/internal/worker/repository"
	"kointos-backend/internal/worker/service"
	"kointos-backend/pkg/common"
	"kointos-backend/pkg/logger"
	"kointos-backend/pkg/utils"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeStream struct {
	messages []redis.XMessage
	readErr  error
	acked    []string
	deleted  []string
}

func (f *fakeStream) XReadGroup(ctx context.Context, a *redis.XReadGroupArgs) *redis.XStreamSliceCmd {
	if f.readErr != nil {
		return redis.NewXStreamSliceCmdResult(nil, f.readErr)
	}
	if len(f.messages) == 0 {
		return redis.NewXStreamSliceCmdResult(nil, redis.Nil)
	}
	msg := f.messages[0]
	f.messages = f.messages[1:]
	return redis.NewXStreamSliceCmdResult([]redis.XStream{{Stream: a.Streams[0], Messages: []redis.XMessage{msg}}}, nil)
}

func (f *fakeStream) XAutoClaim(ctx context.Context, a *redis.XAutoClaimArgs) *redis.XAutoClaimCmd {
	cmd := redis.NewXAutoClaimCmd(ctx)
	cmd.SetErr(redis.Nil)
	return cmd
}

func (f *fakeStream) XPendingExt(ctx context.Context, a *redis.XPendingExtArgs) *redis.XPendingExtCmd {
	cmd := redis.NewXPendingExtCmd(ctx)
	cmd.SetErr(redis.Nil)
	return cmd
}

func (f *fakeStream) XAck(ctx context.Context, stream, group string, ids ...string) *redis.IntCmd {
	f.acked = append(f.acked, ids...)
	return redis.NewIntResult(int64(len(ids)), nil)
}

func (f *fakeStream) XDel(ctx context.Context, stream string, ids ...string) *redis.IntCmd {
	f.deleted = append(f.deleted, ids...)
	return redis.NewIntResult(int64(len(ids)), nil)
}

type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
	err      error
}

func (n *recordingNotifier) SendMessage(text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, text)
	return n.err
}

func workerConfig() config.Worker {
	return config.Worker{
		PriceStreamBlock: time.Millisecond,
		PriceDedupeTTL:   time.Minute,
		PriceMaxIdle:     time.Minute,
		PriceMaxRetry:    3,
	}
}

func newPriceService(t *testing.T, stream *fakeStream, notifier *recordingNotifier) (service.PriceEventService, *gorm.DB) {
	t.Helper()
	db := testutil.NewDB(t)
	svc := service.NewPriceEventService(
		workerConfig(),
		stream,
		repository.NewPriceAlertRepository(db),
		repository.NewPortfolioHoldingRepository(db),
		notifier,
		logger.NewNop(),
	)
	return svc, db
}

func priceMessage(t *testing.T, id string, evt event.PriceEvent) redis.XMessage {
	t.Helper()
	payload, err := json.Marshal(evt)
	require.NoError(t, err)
	return redis.XMessage{ID: id, Values: map[string]interface{}{common.RedisStreamPayloadKey: string(payload)}}
}

func TestPriceEventService_TriggersAlerts(t *testing.T) {
	ctx := context.Background()
	notifier := &recordingNotifier{}
	svc, db := newPriceService(t, &fakeStream{}, notifier)

	above := &entity.PriceAlert{UserID: "u1", CryptoSymbol: "BTC", AlertType: entity.AlertTypeAbove, TargetPrice: utils.ToPointer(100.0)}
	below := &entity.PriceAlert{UserID: "u1", CryptoSymbol: "BTC", AlertType: entity.AlertTypeBelow, TargetPrice: utils.ToPointer(50.0)}
	exact := &entity.PriceAlert{UserID: "u2", CryptoSymbol: "btc", AlertType: entity.AlertTypeBelow, TargetPrice: utils.ToPointer(100.0)}
	untyped := &entity.PriceAlert{UserID: "u2", CryptoSymbol: "BTC", TargetPrice: utils.ToPointer(1.0)}
	for _, a := range []*entity.PriceAlert{above, below, exact, untyped} {
		require.NoError(t, db.Create(a).Error)
	}

	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, svc.Handle(ctx, event.PriceEvent{Symbol: "btc", Price: 100, At: at}))

	load := func(id string) entity.PriceAlert {
		var a entity.PriceAlert
		require.NoError(t, db.First(&a, "id = ?", id).Error)
		return a
	}

	assert.False(t, *load(above.ID).IsActive, "ABOVE triggers at price == target")
	assert.False(t, *load(exact.ID).IsActive, "BELOW triggers at price == target")
	assert.True(t, *load(below.ID).IsActive)
	assert.True(t, *load(untyped.ID).IsActive)
	require.NotNil(t, load(above.ID).TriggeredAt)
	assert.True(t, at.Equal(load(above.ID).TriggeredAt.UTC()))
	assert.Len(t, notifier.messages, 2)

	// already triggered alerts stay quiet
	require.NoError(t, svc.Handle(ctx, event.PriceEvent{Symbol: "BTC", Price: 120, At: at}))
	assert.Len(t, notifier.messages, 2)

	require.NoError(t, svc.Handle(ctx, event.PriceEvent{Symbol: "BTC", Price: 40, At: at}))
	assert.False(t, *load(below.ID).IsActive)
	assert.Len(t, notifier.messages, 3)
}

func TestPriceEventService_NotificationFailureDoesNotFail(t *testing.T) {
	notifier := &recordingNotifier{err: errors.New("telegram down")}
	svc, db := newPriceService(t, &fakeStream{}, notifier)

	alert := &entity.PriceAlert{UserID: "u1", CryptoSymbol: "ETH", AlertType: entity.AlertTypeAbove, TargetPrice: utils.ToPointer(10.0)}
	require.NoError(t, db.Create(alert).Error)

	require.NoError(t, svc.Handle(context.Background(), event.PriceEvent{Symbol: "ETH", Price: 11}))

	var stored entity.PriceAlert
	require.NoError(t, db.First(&stored, "id = ?", alert.ID).Error)
	assert.False(t, *stored.IsActive)
	assert.NotNil(t, stored.TriggeredAt, "zero event time falls back to now")
}

func TestPriceEventService_RevaluesHoldings(t *testing.T) {
	svc, db := newPriceService(t, &fakeStream{}, &recordingNotifier{})

	withCost := &entity.PortfolioHolding{PortfolioID: "p", CryptoSymbol: "SOL", Amount: utils.ToPointer(2.5), AverageBuyPrice: utils.ToPointer(80.0)}
	noCost := &entity.PortfolioHolding{PortfolioID: "p", CryptoSymbol: "SOL", Amount: utils.ToPointer(1.0)}
	other := &entity.PortfolioHolding{PortfolioID: "p", CryptoSymbol: "ADA", Amount: utils.ToPointer(1.0)}
	for _, h := range []*entity.PortfolioHolding{withCost, noCost, other} {
		require.NoError(t, db.Create(h).Error)
	}

	require.NoError(t, svc.Handle(context.Background(), event.PriceEvent{Symbol: "SOL", Price: 100, At: time.Now()}))

	var h entity.PortfolioHolding
	require.NoError(t, db.First(&h, "id = ?", withCost.ID).Error)
	assert.Equal(t, 250.0, *h.CurrentValue)
	assert.Equal(t, 50.0, *h.ProfitLoss)
	assert.Equal(t, 25.0, *h.ProfitLossPercentage)
	assert.NotNil(t, h.LastUpdated)

	require.NoError(t, db.First(&h, "id = ?", noCost.ID).Error)
	assert.Equal(t, 100.0, *h.CurrentValue)
	assert.Nil(t, h.ProfitLoss)

	require.NoError(t, db.First(&h, "id = ?", other.ID).Error)
	assert.Nil(t, h.CurrentValue)
}

func TestRevalue(t *testing.T) {
	at := time.Now()
	h := &entity.PortfolioHolding{Amount: utils.ToPointer(0.1), AverageBuyPrice: utils.ToPointer(0.2)}
	service.Revalue(h, 0.3, at)
	assert.Equal(t, 0.03, *h.CurrentValue, "decimal arithmetic avoids float drift")
	assert.Equal(t, 0.01, *h.ProfitLoss)
	assert.Equal(t, 50.0, *h.ProfitLossPercentage)

	h = &entity.PortfolioHolding{Amount: utils.ToPointer(1.0), AverageBuyPrice: utils.ToPointer(0.0)}
	service.Revalue(h, 5, at)
	assert.Equal(t, 5.0, *h.ProfitLoss)
	assert.Nil(t, h.ProfitLossPercentage)
}

func TestPriceEventService_DeduplicatesUnchangedPrice(t *testing.T) {
	ctx := context.Background()
	svc, db := newPriceService(t, &fakeStream{}, &recordingNotifier{})

	h := &entity.PortfolioHolding{PortfolioID: "p", CryptoSymbol: "DOT", Amount: utils.ToPointer(1.0)}
	require.NoError(t, db.Create(h).Error)
	require.NoError(t, svc.Handle(ctx, event.PriceEvent{Symbol: "DOT", Price: 7}))

	// a manual edit is not overwritten by a repeated price
	require.NoError(t, db.Model(&entity.PortfolioHolding{}).Where("id = ?", h.ID).Update("current_value", 1).Error)
	require.NoError(t, svc.Handle(ctx, event.PriceEvent{Symbol: "dot", Price: 7}))

	var stored entity.PortfolioHolding
	require.NoError(t, db.First(&stored, "id = ?", h.ID).Error)
	assert.Equal(t, 1.0, *stored.CurrentValue)

	require.NoError(t, svc.Handle(ctx, event.PriceEvent{Symbol: "DOT", Price: 8}))
	require.NoError(t, db.First(&stored, "id = ?", h.ID).Error)
	assert.Equal(t, 8.0, *stored.CurrentValue)
}

func TestPriceEventService_ProcessTask(t *testing.T) {
	ctx := context.Background()

	t.Run("handles and acknowledges", func(t *testing.T) {
		stream := &fakeStream{}
		svc, db := newPriceService(t, stream, &recordingNotifier{})
		h := &entity.PortfolioHolding{PortfolioID: "p", CryptoSymbol: "BTC", Amount: utils.ToPointer(2.0)}
		require.NoError(t, db.Create(h).Error)

		stream.messages = []redis.XMessage{priceMessage(t, "1-0", event.PriceEvent{Symbol: "BTC", Price: 10})}
		svc.ProcessTask(ctx)

		assert.Equal(t, []string{"1-0"}, stream.acked)
		assert.Equal(t, []string{"1-0"}, stream.deleted)
		var stored entity.PortfolioHolding
		require.NoError(t, db.First(&stored, "id = ?", h.ID).Error)
		assert.Equal(t, 20.0, *stored.CurrentValue)
	})

	t.Run("acknowledges malformed messages", func(t *testing.T) {
		stream := &fakeStream{messages: []redis.XMessage{{ID: "2-0", Values: map[string]interface{}{"other": "x"}}}}
		svc, _ := newPriceService(t, stream, &recordingNotifier{})
		svc.ProcessTask(ctx)
		assert.Equal(t, []string{"2-0"}, stream.acked)
	})

	t.Run("idle stream", func(t *testing.T) {
		stream := &fakeStream{}
		svc, _ := newPriceService(t, stream, &recordingNotifier{})
		svc.ProcessTask(ctx)
		assert.Empty(t, stream.acked)
	})

	t.Run("leaves failed events pending", func(t *testing.T) {
		stream := &fakeStream{}
		svc, db := newPriceService(t, stream, &recordingNotifier{})
		sqlDB, err := db.DB()
		require.NoError(t, err)
		require.NoError(t, sqlDB.Close())

		stream.messages = []redis.XMessage{priceMessage(t, "3-0", event.PriceEvent{Symbol: "BTC", Price: 10})}
		svc.ProcessTask(ctx)
		assert.Empty(t, stream.acked)
	})
}
