package service

import (
	"context"

	"kointos-backend/internal/entity"
	"kointos-backend/internal/event"
	"kointos-backend/internal/schema"
	"kointos-backend/pkg/logger"
	"kointos-backend/pkg/utils"
)

// PriceEventHook publishes a price event whenever a cryptocurrency with a current price is
// written by a member of one of the publisher groups. Prices from anyone else stay on their
// own record, since the worker applies published prices to every user's holdings and alerts.
// Publishing failures are logged and do not fail the write.
func PriceEventHook(pub event.Publisher, publisherGroups []string, log *logger.Logger) Hook[entity.Cryptocurrency] {
	return func(ctx context.Context, id *schema.Identity, c *entity.Cryptocurrency) {
		if c.CurrentPrice == nil {
			return
		}
		if !canPublishPrices(id, publisherGroups) {
			log.Debug("Price change not published, writer is not a price publisher",
				logger.StringField("symbol", c.Symbol),
				logger.StringField("owner", c.Owner),
			)
			return
		}
		at := utils.TimeNowUTC()
		if c.LastUpdated != nil {
			at = c.LastUpdated.UTC()
		}
		evt := event.PriceEvent{Symbol: c.Symbol, Price: *c.CurrentPrice, At: at, PublishedBy: id.Subject}
		if err := pub.PublishPrice(ctx, evt); err != nil {
			log.Error("Failed to publish price event", logger.StringField("symbol", c.Symbol), logger.ErrorField(err))
			return
		}
		log.Debug("Price event published", logger.StringField("symbol", c.Symbol), logger.StringField("by", id.Subject))
	}
}

func canPublishPrices(id *schema.Identity, groups []string) bool {
	if id == nil || id.Subject == "" {
		return false
	}
	for _, want := range groups {
		for _, have := range id.Groups {
			if have == want {
				return true
			}
		}
	}
	return false
}
