package strategy

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"kointos-backend/internal/ai"
	"kointos-backend/internal/entity"
	"kointos-backend/internal/worker/repository"
	"kointos-backend/pkg/config"
	"kointos-backend/pkg/logger"
	"kointos-backend/pkg/telegram"
	"kointos-backend/pkg/utils"

	"github.com/PuerkitoBio/goquery"
	"github.com/mauidude/go-readability"
	"github.com/mmcdole/gofeed"
	"github.com/patrickmn/go-cache"
)

const (
	SUCCESS = "SUCCESS"
	FAILED  = "FAILED"
	SKIPPED = "SKIPPED"
)

const (
	defaultMaxItemsPerFeed  = 10
	defaultMaxConcurrent    = 2
	defaultMaxContentLength = 20000
	defaultRequestTimeout   = 30 * time.Second
	summaryLength           = 280
	sentimentMaxTokens      = 200
)

var spaceRun = regexp.MustCompile(`\s+`)

// FeedResult reports what happened to one feed during a run.
type FeedResult struct {
	Feed        string   `json:"feed"`
	Status      string   `json:"status"`
	Stored      int      `json:"stored"`
	Skipped     int      `json:"skipped"`
	FailedLinks []string `json:"failed_links"`
	Errors      []string `json:"errors"`
}

// NewsIngestionStrategy pulls crypto news from RSS feeds into NewsArticle records.
type NewsIngestionStrategy struct {
	cfg         config.News
	logger      *logger.Logger
	articleRepo repository.NewsArticleRepository
	cryptoRepo  repository.CryptocurrencyRepository
	invoker     ai.Invoker
	notifier    telegram.Notifier
	client      *http.Client
	// links claimed by a feed in this process, so overlapping feeds do not race on one article
	inflight *cache.Cache
}

// NewNewsIngestionStrategy creates a new instance of NewsIngestionStrategy.
func NewNewsIngestionStrategy(
	cfg config.News,
	log *logger.Logger,
	articleRepo repository.NewsArticleRepository,
	cryptoRepo repository.CryptocurrencyRepository,
	invoker ai.Invoker,
	notifier telegram.Notifier,
) *NewsIngestionStrategy {
	timeout := defaultRequestTimeout
	if d, err := time.ParseDuration(cfg.RequestTimeout); err == nil && d > 0 {
		timeout = d
	}
	return &NewsIngestionStrategy{
		cfg:         cfg,
		logger:      log,
		articleRepo: articleRepo,
		cryptoRepo:  cryptoRepo,
		invoker:     invoker,
		notifier:    notifier,
		client:      &http.Client{Timeout: timeout},
		inflight:    cache.New(time.Hour, 2*time.Hour),
	}
}

// Execute runs one ingestion pass over every configured feed.
func (s *NewsIngestionStrategy) Execute(ctx context.Context) ([]FeedResult, error) {
	assets, err := s.cryptoRepo.ListAssets(ctx)
	if err != nil {
		s.logger.Error("Failed to get cryptocurrencies", logger.ErrorField(err))
		return nil, fmt.Errorf("failed to get cryptocurrencies: %w", err)
	}
	matcher := newMentionMatcher(assets)

	maxConcurrent := s.cfg.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = defaultMaxConcurrent
	}
	semaphore := make(chan struct{}, maxConcurrent)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		results  []FeedResult
		articles []entity.NewsArticle
	)

	for _, feedURL := range s.cfg.Feeds {
		if !utils.ShouldContinue(ctx) {
			break
		}
		feedURL := feedURL
		wg.Add(1)
		utils.GoSafe(func() {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			result, stored := s.ingestFeed(ctx, feedURL, matcher)
			mu.Lock()
			results = append(results, result)
			articles = append(articles, stored...)
			mu.Unlock()
		})
	}
	wg.Wait()

	sort.Slice(results, func(i, j int) bool { return results[i].Feed < results[j].Feed })

	if len(articles) > 0 {
		for _, msg := range telegram.FormatNewsDigest(articles) {
			if err := s.notifier.SendMessage(msg); err != nil {
				s.logger.Error("Failed to send news digest", logger.ErrorField(err))
				break
			}
		}
	}

	s.logger.Info("News ingestion finished",
		logger.IntField("feeds", len(results)),
		logger.IntField("stored", len(articles)))
	return results, nil
}

func (s *NewsIngestionStrategy) ingestFeed(ctx context.Context, feedURL string, matcher *mentionMatcher) (FeedResult, []entity.NewsArticle) {
	result := FeedResult{Feed: feedURL, FailedLinks: []string{}, Errors: []string{}}

	s.logger.Info("Processing RSS feed", logger.StringField("url", feedURL))
	parser := gofeed.NewParser()
	parser.Client = s.client
	feed, err := parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		s.logger.Error("Failed to parse RSS feed", logger.ErrorField(err), logger.StringField("url", feedURL))
		result.Status = FAILED
		result.Errors = append(result.Errors, err.Error())
		return result, nil
	}

	sort.SliceStable(feed.Items, func(i, j int) bool {
		if feed.Items[i].PublishedParsed == nil || feed.Items[j].PublishedParsed == nil {
			return feed.Items[j].PublishedParsed == nil && feed.Items[i].PublishedParsed != nil
		}
		return feed.Items[i].PublishedParsed.After(*feed.Items[j].PublishedParsed)
	})

	items, err := s.filterItems(ctx, feed.Items)
	if err != nil {
		s.logger.Error("Failed to filter existing news items", logger.ErrorField(err), logger.StringField("url", feedURL))
		result.Status = FAILED
		result.Errors = append(result.Errors, err.Error())
		return result, nil
	}
	result.Skipped = len(feed.Items) - len(items)

	maxItems := s.cfg.MaxItemsPerFeed
	if maxItems <= 0 {
		maxItems = defaultMaxItemsPerFeed
	}

	var stored []entity.NewsArticle
	for _, item := range items {
		if !utils.ShouldContinue(ctx) || len(stored) >= maxItems {
			break
		}
		// another feed already picked this link up
		if err := s.inflight.Add(item.Link, true, cache.DefaultExpiration); err != nil {
			result.Skipped++
			continue
		}

		status, article, err := s.processItem(ctx, item, matcher)
		switch {
		case err != nil:
			s.inflight.Delete(item.Link)
			result.FailedLinks = append(result.FailedLinks, item.Link)
			result.Errors = append(result.Errors, err.Error())
			s.logger.Error("Failed to process news item", logger.ErrorField(err), logger.StringField("link", item.Link))
		case status == SKIPPED:
			result.Skipped++
		default:
			stored = append(stored, article)
		}
	}
	result.Stored = len(stored)

	switch {
	case len(result.FailedLinks) == 0:
		result.Status = SUCCESS
	case len(stored) == 0:
		result.Status = FAILED
	default:
		result.Status = SKIPPED
	}
	return result, stored
}

// filterItems drops items without a link, items older than the configured age and items
// whose link is already stored.
func (s *NewsIngestionStrategy) filterItems(ctx context.Context, items []*gofeed.Item) ([]*gofeed.Item, error) {
	var cutoff time.Time
	if s.cfg.MaxAgeInDays > 0 {
		cutoff = utils.TimeNowUTC().Add(-time.Duration(s.cfg.MaxAgeInDays) * 24 * time.Hour)
	}

	var candidates []*gofeed.Item
	var links []string
	for _, item := range items {
		item.Link = strings.TrimSpace(item.Link)
		if item.Link == "" {
			continue
		}
		if !cutoff.IsZero() && item.PublishedParsed != nil && item.PublishedParsed.Before(cutoff) {
			continue
		}
		candidates = append(candidates, item)
		links = append(links, item.Link)
	}

	existing, err := s.articleRepo.ExistingSourceURLs(ctx, links)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch existing news: %w", err)
	}

	filtered := candidates[:0]
	for _, item := range candidates {
		if existing[item.Link] {
			s.logger.Debug("News already exists", logger.StringField("link", item.Link))
			continue
		}
		filtered = append(filtered, item)
	}
	return filtered, nil
}

func (s *NewsIngestionStrategy) processItem(ctx context.Context, item *gofeed.Item, matcher *mentionMatcher) (string, entity.NewsArticle, error) {
	parsedURL, err := url.Parse(item.Link)
	if err != nil || parsedURL.Hostname() == "" {
		return FAILED, entity.NewsArticle{}, fmt.Errorf("invalid news link %q", item.Link)
	}
	if utils.ContainsString(s.cfg.BlacklistedDomains, parsedURL.Hostname()) {
		s.logger.Warn("Skip news from blacklisted domain", logger.StringField("domain", parsedURL.Hostname()))
		return SKIPPED, entity.NewsArticle{}, nil
	}

	maxLen := s.cfg.MaxContentLength
	if maxLen <= 0 {
		maxLen = defaultMaxContentLength
	}

	content, err := s.fetchContent(ctx, item.Link)
	if err != nil {
		s.logger.Warn("Falling back to feed description", logger.ErrorField(err), logger.StringField("link", item.Link))
		content = htmlText(firstNonEmpty(item.Content, item.Description))
	}
	content = utils.SafeText(content, maxLen)
	if content == "" {
		return FAILED, entity.NewsArticle{}, fmt.Errorf("no content for %s", item.Link)
	}

	title := utils.SafeText(item.Title, 500)
	if title == "" {
		return FAILED, entity.NewsArticle{}, fmt.Errorf("no title for %s", item.Link)
	}

	article := entity.NewsArticle{
		Title:            title,
		Content:          content,
		SourceURL:        item.Link,
		PublishedAt:      item.PublishedParsed,
		Tags:             item.Categories,
		MentionedCryptos: matcher.Find(title + "\n" + content),
	}
	if item.Author != nil {
		article.Author = item.Author.Name
	}
	if item.Image != nil {
		article.ImageURL = item.Image.URL
	}

	sentiment, summary := s.classify(ctx, title, content)
	article.Sentiment = sentiment
	article.Summary = summary
	if article.Summary == "" {
		article.Summary = utils.Truncate(htmlText(item.Description), summaryLength)
	}

	if err := s.articleRepo.Create(ctx, &article); err != nil {
		return FAILED, entity.NewsArticle{}, fmt.Errorf("failed to create news article: %w", err)
	}
	return SUCCESS, article, nil
}

// classify asks the AI backend for a sentiment and a one-line summary. Failures degrade to
// a neutral sentiment.
func (s *NewsIngestionStrategy) classify(ctx context.Context, title, content string) (entity.Sentiment, string) {
	prompt := fmt.Sprintf(`Classify the market sentiment of the crypto news article below as Positive, Negative or Neutral.
Answer with exactly two lines:
Sentiment: <Positive|Negative|Neutral>
Summary: <one sentence summary>

Title: %s

%s`, title, utils.SafeText(content, 4000))

	resp, err := s.invoker.Invoke(ctx, ai.Request{Prompt: prompt, MaxTokens: sentimentMaxTokens})
	if err != nil {
		s.logger.Warn("Failed to classify news sentiment", logger.ErrorField(err))
		return entity.SentimentNeutral, ""
	}
	return ParseSentiment(resp.Response), parseLine(resp.Response, "summary:")
}

// ParseSentiment reads the "Sentiment:" line of text. Anything unrecognised is neutral.
func ParseSentiment(text string) entity.Sentiment {
	value := strings.ToLower(parseLine(text, "sentiment:"))
	switch {
	case strings.HasPrefix(value, "positive"), strings.HasPrefix(value, "bullish"):
		return entity.SentimentPositive
	case strings.HasPrefix(value, "negative"), strings.HasPrefix(value, "bearish"):
		return entity.SentimentNegative
	default:
		return entity.SentimentNeutral
	}
}

// parseLine returns the value of the last "prefix" line in text. Template placeholders such
// as "<value>" are ignored so an echoed prompt is never mistaken for an answer.
func parseLine(text, prefix string) string {
	var value string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "*-# "))
		if len(line) < len(prefix) || !strings.EqualFold(line[:len(prefix)], prefix) {
			continue
		}
		v := strings.TrimSpace(strings.Trim(strings.TrimSpace(line[len(prefix):]), "*"))
		if strings.HasPrefix(v, "<") {
			continue
		}
		value = v
	}
	return value
}

func (s *NewsIngestionStrategy) fetchContent(ctx context.Context, link string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request for news item: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch news content: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to fetch news content, status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 5<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	doc, err := readability.NewDocument(string(body))
	if err != nil {
		return "", fmt.Errorf("failed to parse news content: %w", err)
	}
	return htmlText(doc.Content()), nil
}

// htmlText returns the visible text of an HTML fragment with whitespace collapsed.
func htmlText(fragment string) string {
	if strings.TrimSpace(fragment) == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader([]byte(fragment)))
	if err != nil {
		return strings.TrimSpace(fragment)
	}
	return strings.TrimSpace(spaceRun.ReplaceAllString(doc.Text(), " "))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// mentionMatcher finds tracked assets named in free text, by upper-case symbol or by name.
type mentionMatcher struct {
	symbols []string
	exprs   []*regexp.Regexp
}

func newMentionMatcher(assets []entity.Cryptocurrency) *mentionMatcher {
	m := &mentionMatcher{}
	seen := make(map[string]bool)
	for _, a := range assets {
		symbol := strings.ToUpper(strings.TrimSpace(a.Symbol))
		if len(symbol) < 2 || seen[symbol] {
			continue
		}
		seen[symbol] = true

		pattern := `\b` + regexp.QuoteMeta(symbol) + `\b`
		if name := strings.TrimSpace(a.Name); len(name) >= 3 {
			pattern = `(?:` + pattern + `|(?i:\b` + regexp.QuoteMeta(name) + `\b))`
		}
		m.symbols = append(m.symbols, symbol)
		m.exprs = append(m.exprs, regexp.MustCompile(pattern))
	}
	return m
}

// Find returns the matched symbols in tracking order.
func (m *mentionMatcher) Find(text string) []string {
	var found []string
	for i, re := range m.exprs {
		if re.MatchString(text) {
			found = append(found, m.symbols[i])
		}
	}
	return found
}
