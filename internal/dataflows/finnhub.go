package dataflows

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/go-resty/resty/v2"

	"quantcrew/internal/models"
)

const finnhubBaseURL = "https://finnhub.io/api/v1"

// FinnhubClient fetches company news and fundamental metrics from Finnhub.
type FinnhubClient struct {
	client *resty.Client
	cache  *CacheManager
	apiKey string
}

func NewFinnhubClient(apiKey, cacheDir string, cacheEnabled bool) *FinnhubClient {
	client := resty.New().
		SetBaseURL(finnhubBaseURL).
		SetTimeout(30 * time.Second)

	return &FinnhubClient{
		client: client,
		cache:  NewCacheManager(filepath.Join(cacheDir, "finnhub"), 6*time.Hour, cacheEnabled),
		apiKey: apiKey,
	}
}

type finnhubNewsItem struct {
	Headline string `json:"headline"`
	Summary  string `json:"summary"`
	Source   string `json:"source"`
	URL      string `json:"url"`
	Datetime int64  `json:"datetime"`
}

// CompanyNews returns news articles for a symbol in [from, to].
func (f *FinnhubClient) CompanyNews(symbol string, from, to time.Time) ([]*models.NewsArticle, error) {
	if f.apiKey == "" {
		return nil, fmt.Errorf("finnhub api key not configured")
	}
	if err := ValidateSymbol(symbol); err != nil {
		return nil, err
	}
	symbol = NormalizeSymbol(symbol)

	params := map[string]string{
		"symbol": symbol,
		"from":   from.Format("2006-01-02"),
		"to":     to.Format("2006-01-02"),
	}

	var cached []*models.NewsArticle
	if f.cache.Get("finnhub", "company-news", params, &cached) {
		return cached, nil
	}

	var items []finnhubNewsItem
	err := WithRetry(DefaultRetryConfig(), func() error {
		resp, err := f.client.R().
			SetQueryParams(params).
			SetQueryParam("token", f.apiKey).
			SetResult(&items).
			Get("/company-news")
		if err != nil {
			return fmt.Errorf("fetch company news for %s: %w", symbol, err)
		}
		if resp.StatusCode() != 200 {
			return fmt.Errorf("finnhub returned HTTP %d for %s", resp.StatusCode(), symbol)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	articles := make([]*models.NewsArticle, 0, len(items))
	for _, it := range items {
		articles = append(articles, &models.NewsArticle{
			Title:     it.Headline,
			Summary:   it.Summary,
			Source:    it.Source,
			URL:       it.URL,
			Published: time.Unix(it.Datetime, 0),
		})
	}

	_ = f.cache.Set("finnhub", "company-news", params, articles)
	return articles, nil
}

// BasicFinancials returns the "metric" block of Finnhub's basic financials:
// valuation ratios, margins, growth figures keyed by metric name.
func (f *FinnhubClient) BasicFinancials(symbol string) (map[string]any, error) {
	if f.apiKey == "" {
		return nil, fmt.Errorf("finnhub api key not configured")
	}
	if err := ValidateSymbol(symbol); err != nil {
		return nil, err
	}
	symbol = NormalizeSymbol(symbol)

	var cached map[string]any
	if f.cache.Get("finnhub", "metric", symbol, &cached) {
		return cached, nil
	}

	var payload struct {
		Metric map[string]any `json:"metric"`
	}
	err := WithRetry(DefaultRetryConfig(), func() error {
		resp, err := f.client.R().
			SetQueryParams(map[string]string{
				"symbol": symbol,
				"metric": "all",
				"token":  f.apiKey,
			}).
			SetResult(&payload).
			Get("/stock/metric")
		if err != nil {
			return fmt.Errorf("fetch financials for %s: %w", symbol, err)
		}
		if resp.StatusCode() != 200 {
			return fmt.Errorf("finnhub returned HTTP %d for %s", resp.StatusCode(), symbol)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(payload.Metric) == 0 {
		return nil, fmt.Errorf("no financial metrics available for %s", symbol)
	}

	_ = f.cache.Set("finnhub", "metric", symbol, payload.Metric)
	return payload.Metric, nil
}
