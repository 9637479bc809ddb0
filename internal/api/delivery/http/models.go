package http

import (
	"kointos-backend/internal/api/repository"
	"kointos-backend/internal/api/service"
	"kointos-backend/internal/entity"
	"kointos-backend/internal/event"
	"kointos-backend/internal/schema"
	"kointos-backend/pkg/logger"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// ModelDeps are the collaborators of the data API.
type ModelDeps struct {
	DB        *gorm.DB
	Registry  *schema.Registry
	Validator *schema.Validator
	// Prices receives cryptocurrency price changes. Nil disables publishing.
	Prices event.Publisher
	// PricePublishers are the identity groups whose price writes are published.
	PricePublishers []string
	Logger          *logger.Logger
}

// RegisterModels mounts every declared model under g at its path.
func RegisterModels(g *echo.Group, d ModelDeps) {
	var priceHooks []service.Hook[entity.Cryptocurrency]
	if d.Prices != nil {
		priceHooks = append(priceHooks, service.PriceEventHook(d.Prices, d.PricePublishers, d.Logger))
	}

	mount[entity.UserProfile](g, d, "UserProfile")
	mount[entity.Cryptocurrency](g, d, "Cryptocurrency", priceHooks...)
	mount[entity.Portfolio](g, d, "Portfolio")
	mount[entity.PortfolioHolding](g, d, "PortfolioHolding")
	mount[entity.Transaction](g, d, "Transaction")
	mount[entity.Post](g, d, "Post")
	mount[entity.Comment](g, d, "Comment")
	mount[entity.Like](g, d, "Like")
	mount[entity.Follow](g, d, "Follow")
	mount[entity.TradingSignal](g, d, "TradingSignal")
	mount[entity.Watchlist](g, d, "Watchlist")
	mount[entity.PriceAlert](g, d, "PriceAlert")
	mount[entity.Article](g, d, "Article")
	mount[entity.PaymentMethod](g, d, "PaymentMethod")
	mount[entity.SupportTicket](g, d, "SupportTicket")
	mount[entity.FAQ](g, d, "FAQ")
	mount[entity.UserSettings](g, d, "UserSettings")
	mount[entity.NewsArticle](g, d, "NewsArticle")
}

func mount[T any, P interface {
	*T
	entity.Model
}](g *echo.Group, d ModelDeps, name string, hooks ...service.Hook[T]) {
	model := d.Registry.MustLookup(name)
	repo := repository.NewModelRepository[T](d.DB)
	svc := service.NewModelService[T, P](model, repo, d.Validator, d.Logger, hooks...)
	NewModelHandler(model, svc, d.Logger).RegisterRoutes(g.Group("/" + model.Path))
}
