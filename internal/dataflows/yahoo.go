package dataflows

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"
	"github.com/piquette/finance-go/quote"
	"github.com/shopspring/decimal"

	"quantcrew/internal/models"
)

// YahooClient fetches quotes and price history from Yahoo Finance.
type YahooClient struct {
	cache *CacheManager
}

func NewYahooClient(cacheDir string, cacheEnabled bool) *YahooClient {
	return &YahooClient{
		cache: NewCacheManager(filepath.Join(cacheDir, "yahoo"), 24*time.Hour, cacheEnabled),
	}
}

// Quote returns the latest market snapshot for a symbol.
func (y *YahooClient) Quote(symbol string) (*models.MarketData, error) {
	if err := ValidateSymbol(symbol); err != nil {
		return nil, err
	}
	symbol = NormalizeSymbol(symbol)

	var cached models.MarketData
	if y.cache.Get("yahoo", "quote", symbol, &cached) {
		return &cached, nil
	}

	var result *models.MarketData
	err := WithRetry(DefaultRetryConfig(), func() error {
		q, err := quote.Get(symbol)
		if err != nil {
			return fmt.Errorf("get quote for %s: %w", symbol, err)
		}
		result = &models.MarketData{
			Symbol:    symbol,
			Date:      time.Now(),
			Open:      decimal.NewFromFloat(q.RegularMarketOpen),
			High:      decimal.NewFromFloat(q.RegularMarketDayHigh),
			Low:       decimal.NewFromFloat(q.RegularMarketDayLow),
			Close:     decimal.NewFromFloat(q.RegularMarketPrice),
			AdjClose:  decimal.NewFromFloat(q.RegularMarketPrice),
			Volume:    int64(q.RegularMarketVolume),
			Timestamp: time.Now(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	_ = y.cache.Set("yahoo", "quote", symbol, result)
	return result, nil
}

// History returns daily OHLCV bars for [start, end].
func (y *YahooClient) History(symbol string, start, end time.Time) ([]*models.MarketData, error) {
	if err := ValidateSymbol(symbol); err != nil {
		return nil, err
	}
	symbol = NormalizeSymbol(symbol)

	params := struct {
		Symbol     string `json:"symbol"`
		Start, End string
	}{symbol, start.Format("2006-01-02"), end.Format("2006-01-02")}

	var cached []*models.MarketData
	if y.cache.Get("yahoo", "history", params, &cached) {
		return cached, nil
	}

	var bars []*models.MarketData
	err := WithRetry(DefaultRetryConfig(), func() error {
		bars = bars[:0]
		iter := chart.Get(&chart.Params{
			Symbol:   symbol,
			Start:    datetime.New(&start),
			End:      datetime.New(&end),
			Interval: datetime.OneDay,
		})
		for iter.Next() {
			bar := iter.Bar()
			ts := time.Unix(int64(bar.Timestamp), 0)
			bars = append(bars, &models.MarketData{
				Symbol:    symbol,
				Date:      ts,
				Open:      bar.Open,
				High:      bar.High,
				Low:       bar.Low,
				Close:     bar.Close,
				AdjClose:  bar.AdjClose,
				Volume:    int64(bar.Volume),
				Timestamp: ts,
			})
		}
		if err := iter.Err(); err != nil {
			return fmt.Errorf("get history for %s: %w", symbol, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	_ = y.cache.Set("yahoo", "history", params, bars)
	return bars, nil
}
