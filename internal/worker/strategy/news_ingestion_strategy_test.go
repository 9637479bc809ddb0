package strategy

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"kointos-backend/internal/ai"
	"kointos-backend/internal/entity"
	"kointos-backend/internal/testutil"
	"kointos-backend/internal/worker/repository"
	"kointos-backend/pkg/config"
	"kointos-backend/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeInvoker struct {
	mu       sync.Mutex
	response string
	err      error
	prompts  []string
}

func (f *fakeInvoker) Invoke(ctx context.Context, req ai.Request) (*ai.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, req.Prompt)
	if f.err != nil {
		return nil, f.err
	}
	return &ai.Response{Response: f.response}, nil
}

type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *recordingNotifier) SendMessage(text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, text)
	return nil
}

const articlePage = `<html><head><title>Bitcoin hits record</title></head><body>
<div id="nav"><a href="/">Home</a></div>
<div id="article">
<p>Bitcoin climbed to a record high on Tuesday as institutional demand continued to grow across every major exchange.</p>
<p>Analysts said the rally was driven by steady inflows into spot funds, with trading volumes well above the monthly average.</p>
<p>Ethereum followed the move higher, although gains were more modest compared with the broader market this week.</p>
</div>
</body></html>`

func newsServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	var srv *httptest.Server
	mux.HandleFunc("/feed.xml", func(w http.ResponseWriter, r *http.Request) {
		now := time.Now().UTC()
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>Crypto Wire</title><link>%[1]s</link><description>news</description>
<item><title>Bitcoin hits record</title><link>%[1]s/articles/1</link><category>markets</category>
<description>Bitcoin rallies.</description><pubDate>%[2]s</pubDate></item>
<item><title>Exchange outage</title><link>%[1]s/articles/missing</link>
<description>&lt;p&gt;Trading on SOL pairs was halted for an hour.&lt;/p&gt;</description><pubDate>%[2]s</pubDate></item>
<item><title>Already stored</title><link>%[1]s/articles/2</link><description>old</description><pubDate>%[2]s</pubDate></item>
<item><title>Blocked source</title><link>http://blocked.example/x</link><description>spam</description><pubDate>%[2]s</pubDate></item>
<item><title>Ancient news</title><link>%[1]s/articles/3</link><description>ancient</description><pubDate>%[3]s</pubDate></item>
</channel></rss>`, srv.URL, now.Format(time.RFC1123Z), now.AddDate(0, 0, -30).Format(time.RFC1123Z))
	})
	mux.HandleFunc("/articles/1", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, articlePage)
	})
	mux.HandleFunc("/broken.xml", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	})
	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newStrategy(t *testing.T, db *gorm.DB, cfg config.News, invoker ai.Invoker, notifier *recordingNotifier) *NewsIngestionStrategy {
	t.Helper()
	return NewNewsIngestionStrategy(
		cfg,
		logger.NewNop(),
		repository.NewNewsArticleRepository(db),
		repository.NewCryptocurrencyRepository(db),
		invoker,
		notifier,
	)
}

func seedAssets(t *testing.T, db *gorm.DB) {
	t.Helper()
	for _, a := range []entity.Cryptocurrency{
		{Symbol: "BTC", Name: "Bitcoin"},
		{Symbol: "ETH", Name: "Ethereum"},
		{Symbol: "SOL", Name: "Solana"},
		{Symbol: "ADA", Name: "Cardano"},
	} {
		a := a
		require.NoError(t, db.Create(&a).Error)
	}
}

func TestNewsIngestionStrategy_Execute(t *testing.T) {
	ctx := context.Background()
	srv := newsServer(t)
	db := testutil.NewDB(t)
	seedAssets(t, db)
	require.NoError(t, db.Create(&entity.NewsArticle{Title: "Already stored", Content: "c", SourceURL: srv.URL + "/articles/2"}).Error)

	invoker := &fakeInvoker{response: "Sentiment: Positive\nSummary: Bitcoin set a new high."}
	notifier := &recordingNotifier{}
	s := newStrategy(t, db, config.News{
		Feeds:              []string{srv.URL + "/feed.xml", srv.URL + "/broken.xml"},
		MaxAgeInDays:       7,
		BlacklistedDomains: []string{"blocked.example"},
		RequestTimeout:     "5s",
	}, invoker, notifier)

	results, err := s.Execute(ctx)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, srv.URL+"/broken.xml", results[0].Feed)
	assert.Equal(t, FAILED, results[0].Status)

	feed := results[1]
	assert.Equal(t, SUCCESS, feed.Status)
	assert.Equal(t, 2, feed.Stored)

	var articles []entity.NewsArticle
	require.NoError(t, db.Order("title").Find(&articles, "source_url <> ?", srv.URL+"/articles/2").Error)
	require.Len(t, articles, 2)

	record := articles[0]
	assert.Equal(t, "Bitcoin hits record", record.Title)
	assert.Contains(t, record.Content, "institutional demand")
	assert.NotContains(t, record.Content, "<p>")
	assert.Equal(t, []string{"BTC", "ETH"}, []string(record.MentionedCryptos))
	assert.Equal(t, []string{"markets"}, []string(record.Tags))
	assert.Equal(t, entity.SentimentPositive, record.Sentiment)
	assert.Equal(t, "Bitcoin set a new high.", record.Summary)
	assert.NotNil(t, record.PublishedAt)

	fallback := articles[1]
	assert.Equal(t, "Exchange outage", fallback.Title)
	assert.Equal(t, "Trading on SOL pairs was halted for an hour.", fallback.Content)
	assert.Equal(t, []string{"SOL"}, []string(fallback.MentionedCryptos))

	require.Len(t, notifier.messages, 1)
	assert.Contains(t, notifier.messages[0], "Bitcoin hits record")

	// a second pass finds nothing new
	results, err = s.Execute(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, results[1].Stored)
	var count int64
	require.NoError(t, db.Model(&entity.NewsArticle{}).Count(&count).Error)
	assert.Equal(t, int64(3), count)
	assert.Len(t, notifier.messages, 1)
}

func TestNewsIngestionStrategy_AIFailureIsNeutral(t *testing.T) {
	srv := newsServer(t)
	db := testutil.NewDB(t)

	s := newStrategy(t, db, config.News{Feeds: []string{srv.URL + "/feed.xml"}, MaxItemsPerFeed: 1},
		&fakeInvoker{err: errors.New("quota exceeded")}, &recordingNotifier{})

	results, err := s.Execute(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 1, results[0].Stored)

	var article entity.NewsArticle
	require.NoError(t, db.First(&article).Error)
	assert.Equal(t, entity.SentimentNeutral, article.Sentiment)
	assert.NotEmpty(t, article.Summary, "summary falls back to the feed description")
	assert.Empty(t, article.MentionedCryptos)
}

func TestNewsIngestionStrategy_CannedInvoker(t *testing.T) {
	srv := newsServer(t)
	db := testutil.NewDB(t)

	s := newStrategy(t, db, config.News{Feeds: []string{srv.URL + "/feed.xml"}, MaxItemsPerFeed: 1},
		ai.CannedInvoker{}, &recordingNotifier{})

	_, err := s.Execute(context.Background())
	require.NoError(t, err)

	var article entity.NewsArticle
	require.NoError(t, db.First(&article).Error)
	assert.Equal(t, entity.SentimentNeutral, article.Sentiment)
	assert.Equal(t, "Bitcoin rallies.", article.Summary, "echoed prompt placeholders are not taken as a summary")
}

func TestParseSentiment(t *testing.T) {
	tests := []struct {
		text string
		want entity.Sentiment
	}{
		{"Sentiment: Positive", entity.SentimentPositive},
		{"**Sentiment:** negative\nSummary: x", entity.SentimentNegative},
		{"intro\n  sentiment: BULLISH", entity.SentimentPositive},
		{"Sentiment: bearish outlook", entity.SentimentNegative},
		{"Sentiment: Neutral", entity.SentimentNeutral},
		{"Sentiment: unsure", entity.SentimentNeutral},
		{"no label at all", entity.SentimentNeutral},
		{"", entity.SentimentNeutral},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseSentiment(tt.text))
		})
	}
}

func TestMentionMatcher(t *testing.T) {
	m := newMentionMatcher([]entity.Cryptocurrency{
		{Symbol: "btc", Name: "Bitcoin"},
		{Symbol: "ETH", Name: "Ethereum"},
		{Symbol: "ONE", Name: "Harmony"},
		{Symbol: "X", Name: "X"},
		{Symbol: "BTC", Name: "Bitcoin duplicate"},
	})

	assert.Equal(t, []string{"BTC", "ETH"}, m.Find("bitcoin and $ETH moved"))
	assert.Equal(t, []string{"ONE"}, m.Find("HARMONY upgrades; one day later"))
	assert.Empty(t, m.Find("BTCX and ethereumish tokens"))
	assert.Empty(t, m.Find(strings.Repeat("x", 10)))
}
