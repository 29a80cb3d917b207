package dataflows

import (
	"context"
	"errors"
	"fmt"
	"time"

	lpconfig "github.com/longportapp/openapi-go/config"
	"github.com/longportapp/openapi-go/quote"
	"github.com/shopspring/decimal"

	"quantcrew/internal/models"
)

// LongportClient fetches HK/CN market data through the Longport OpenAPI. It
// backs the china_market analyst.
type LongportClient struct {
	quoteCtx *quote.QuoteContext
}

func NewLongportClient(appKey, appSecret, accessToken string) (*LongportClient, error) {
	if appKey == "" || appSecret == "" || accessToken == "" {
		return nil, errors.New("longport API credentials not configured")
	}

	conf, err := lpconfig.New(lpconfig.WithConfigKey(appKey, appSecret, accessToken))
	if err != nil {
		return nil, err
	}
	quoteCtx, err := quote.NewFromCfg(conf)
	if err != nil {
		return nil, err
	}
	return &LongportClient{quoteCtx: quoteCtx}, nil
}

func (lp *LongportClient) Close() {
	if lp.quoteCtx != nil {
		lp.quoteCtx.Close()
	}
}

// DailyCandles returns the last count daily bars for a Longport-style symbol
// (e.g. "700.HK", "600519.SH").
func (lp *LongportClient) DailyCandles(ctx context.Context, symbol string, count int) ([]*models.MarketData, error) {
	if lp.quoteCtx == nil {
		return nil, errors.New("longport quote context unavailable")
	}
	if count <= 0 {
		count = 30
	}

	sticks, err := lp.quoteCtx.Candlesticks(ctx, symbol, quote.PeriodDay, int32(count), quote.AdjustTypeNo)
	if err != nil {
		return nil, fmt.Errorf("fetch candlesticks for %s: %w", symbol, err)
	}

	bars := make([]*models.MarketData, 0, len(sticks))
	for _, s := range sticks {
		ts := time.Unix(s.Timestamp, 0)
		bars = append(bars, &models.MarketData{
			Symbol:    symbol,
			Date:      ts,
			Open:      fromDecimalPtr(s.Open),
			High:      fromDecimalPtr(s.High),
			Low:       fromDecimalPtr(s.Low),
			Close:     fromDecimalPtr(s.Close),
			AdjClose:  fromDecimalPtr(s.Close),
			Volume:    s.Volume,
			Timestamp: ts,
		})
	}
	return bars, nil
}

func fromDecimalPtr(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}
