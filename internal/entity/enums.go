package entity

// TransactionType is the kind of a portfolio transaction.
type TransactionType string

const (
	TransactionTypeBuy         TransactionType = "BUY"
	TransactionTypeSell        TransactionType = "SELL"
	TransactionTypeTransferIn  TransactionType = "TRANSFER_IN"
	TransactionTypeTransferOut TransactionType = "TRANSFER_OUT"
)

// SignalType is the recommendation carried by a trading signal.
type SignalType string

const (
	SignalTypeBuy  SignalType = "BUY"
	SignalTypeSell SignalType = "SELL"
	SignalTypeHold SignalType = "HOLD"
)

// AlertType selects which side of the target price triggers a price alert.
type AlertType string

const (
	AlertTypeAbove AlertType = "ABOVE"
	AlertTypeBelow AlertType = "BELOW"
)

type ArticleStatus string

const (
	ArticleStatusDraft     ArticleStatus = "DRAFT"
	ArticleStatusPublished ArticleStatus = "PUBLISHED"
	ArticleStatusArchived  ArticleStatus = "ARCHIVED"
)

type PaymentMethodType string

const (
	PaymentMethodBankAccount  PaymentMethodType = "BANK_ACCOUNT"
	PaymentMethodCreditCard   PaymentMethodType = "CREDIT_CARD"
	PaymentMethodDebitCard    PaymentMethodType = "DEBIT_CARD"
	PaymentMethodCryptoWallet PaymentMethodType = "CRYPTO_WALLET"
)

type TicketCategory string

const (
	TicketCategoryTechnical      TicketCategory = "TECHNICAL"
	TicketCategoryBilling        TicketCategory = "BILLING"
	TicketCategoryAccount        TicketCategory = "ACCOUNT"
	TicketCategoryFeatureRequest TicketCategory = "FEATURE_REQUEST"
	TicketCategoryOther          TicketCategory = "OTHER"
)

type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "LOW"
	TicketPriorityMedium TicketPriority = "MEDIUM"
	TicketPriorityHigh   TicketPriority = "HIGH"
	TicketPriorityUrgent TicketPriority = "URGENT"
)

type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "OPEN"
	TicketStatusInProgress TicketStatus = "IN_PROGRESS"
	TicketStatusResolved   TicketStatus = "RESOLVED"
	TicketStatusClosed     TicketStatus = "CLOSED"
)

type Theme string

const (
	ThemeLight  Theme = "LIGHT"
	ThemeDark   Theme = "DARK"
	ThemeSystem Theme = "SYSTEM"
)

// Sentiment is the tone assigned to a news article.
type Sentiment string

const (
	SentimentPositive Sentiment = "POSITIVE"
	SentimentNegative Sentiment = "NEGATIVE"
	SentimentNeutral  Sentiment = "NEUTRAL"
)
