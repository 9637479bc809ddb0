package schema

import (
	"reflect"

	"kointos-backend/internal/entity"
)

// Registry is the ordered set of declared models.
type Registry struct {
	models []*Model
	byName map[string]*Model
}

// Define declares a model whose fields are read from sample's struct tags.
func Define(name, path string, sample entity.Model, rules ...Rule) *Model {
	return &Model{
		Name:   name,
		Path:   path,
		Rules:  rules,
		Fields: describeFields(reflect.TypeOf(sample)),
	}
}

// NewRegistry builds a registry from models in declaration order.
func NewRegistry(models ...*Model) *Registry {
	r := &Registry{byName: make(map[string]*Model, len(models))}
	for _, m := range models {
		r.models = append(r.models, m)
		r.byName[m.Name] = m
	}
	return r
}

// Models returns the declared models in declaration order.
func (r *Registry) Models() []*Model {
	return r.models
}

// Lookup finds a model by name.
func (r *Registry) Lookup(name string) (*Model, bool) {
	m, ok := r.byName[name]
	return m, ok
}

// MustLookup is Lookup for names known at compile time.
func (r *Registry) MustLookup(name string) *Model {
	m, ok := r.byName[name]
	if !ok {
		panic("schema: unknown model " + name)
	}
	return m
}

// Default returns the application schema.
func Default() *Registry {
	return NewRegistry(
		Define("UserProfile", "user-profiles", &entity.UserProfile{}, AllowOwner()),
		Define("Cryptocurrency", "cryptocurrencies", &entity.Cryptocurrency{}, AllowAuthenticated(OpRead), AllowOwner()),
		Define("Portfolio", "portfolios", &entity.Portfolio{}, AllowOwner()),
		Define("PortfolioHolding", "portfolio-holdings", &entity.PortfolioHolding{}, AllowOwner()),
		Define("Transaction", "transactions", &entity.Transaction{}, AllowOwner()),
		Define("Post", "posts", &entity.Post{}, AllowOwner(), AllowAuthenticated(OpRead)),
		Define("Comment", "comments", &entity.Comment{}, AllowOwner(), AllowAuthenticated(OpRead)),
		Define("Like", "likes", &entity.Like{}, AllowOwner()),
		Define("Follow", "follows", &entity.Follow{}, AllowOwner()),
		Define("TradingSignal", "trading-signals", &entity.TradingSignal{}, AllowOwner(), AllowAuthenticated(OpRead)),
		Define("Watchlist", "watchlists", &entity.Watchlist{}, AllowOwner()),
		Define("PriceAlert", "price-alerts", &entity.PriceAlert{}, AllowOwner()),
		Define("Article", "articles", &entity.Article{}, AllowOwner(), AllowAuthenticated(OpRead)),
		Define("PaymentMethod", "payment-methods", &entity.PaymentMethod{}, AllowOwner()),
		Define("SupportTicket", "support-tickets", &entity.SupportTicket{}, AllowOwner()),
		Define("FAQ", "faqs", &entity.FAQ{}, AllowAuthenticated(OpRead)),
		Define("UserSettings", "user-settings", &entity.UserSettings{}, AllowOwner()),
		Define("NewsArticle", "news-articles", &entity.NewsArticle{}, AllowAuthenticated(OpRead)),
	)
}
