package dataflows

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"

	"quantcrew/internal/models"
)

// NewsScraper pulls headlines from the Google News RSS feed. It backs the
// social analyst's view of public discussion when no API source is configured.
type NewsScraper struct {
	client *resty.Client
	cache  *CacheManager
}

func NewNewsScraper(cacheDir string, cacheEnabled bool) *NewsScraper {
	client := resty.New().
		SetTimeout(30 * time.Second).
		SetHeader("User-Agent", "Mozilla/5.0 (compatible; quantcrew/1.0)")

	return &NewsScraper{
		client: client,
		cache:  NewCacheManager(filepath.Join(cacheDir, "news"), 2*time.Hour, cacheEnabled),
	}
}

// Search returns up to maxResults recent articles matching query.
func (ns *NewsScraper) Search(query string, maxResults int) ([]*models.NewsArticle, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("search query cannot be empty")
	}
	if maxResults <= 0 {
		maxResults = 20
	}

	params := struct {
		Query string `json:"query"`
		Max   int    `json:"max"`
	}{query, maxResults}

	var cached []*models.NewsArticle
	if ns.cache.Get("google_news", "search", params, &cached) {
		return cached, nil
	}

	feedURL := "https://news.google.com/rss/search?q=" + url.QueryEscape(query) + "&hl=en-US&gl=US&ceid=US:en"

	var body string
	err := WithRetry(DefaultRetryConfig(), func() error {
		resp, err := ns.client.R().Get(feedURL)
		if err != nil {
			return fmt.Errorf("fetch news feed: %w", err)
		}
		if resp.StatusCode() != 200 {
			return fmt.Errorf("news feed returned HTTP %d", resp.StatusCode())
		}
		body = resp.String()
		return nil
	})
	if err != nil {
		return nil, err
	}

	articles, err := parseNewsFeed(body, maxResults)
	if err != nil {
		return nil, err
	}

	_ = ns.cache.Set("google_news", "search", params, articles)
	return articles, nil
}

func parseNewsFeed(body string, maxResults int) ([]*models.NewsArticle, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse news feed: %w", err)
	}

	var articles []*models.NewsArticle
	doc.Find("item").EachWithBreak(func(_ int, item *goquery.Selection) bool {
		title := strings.TrimSpace(item.Find("title").First().Text())
		if title == "" {
			return true
		}
		art := &models.NewsArticle{
			Title:  title,
			URL:    strings.TrimSpace(item.Find("link").First().Text()),
			Source: strings.TrimSpace(item.Find("source").First().Text()),
		}
		if pub := strings.TrimSpace(item.Find("pubDate").First().Text()); pub != "" {
			if ts, perr := time.Parse(time.RFC1123, pub); perr == nil {
				art.Published = ts
			}
		}
		articles = append(articles, art)
		return len(articles) < maxResults
	})

	if len(articles) == 0 {
		return nil, fmt.Errorf("no articles found in feed")
	}
	return articles, nil
}
