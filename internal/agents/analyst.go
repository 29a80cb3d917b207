package agents

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"quantcrew/internal/dataflows"
	"quantcrew/internal/models"
)

// AnalystAgent turns one analyst invocation into a single chat-model call:
// gather the kind's data context, prompt the model, return the report text.
// It carries no retry or deadline logic; the executor layers those on.
type AnalystAgent struct {
	model model.BaseChatModel
	flows *dataflows.Service
}

func NewAnalystAgent(m model.BaseChatModel, flows *dataflows.Service) *AnalystAgent {
	return &AnalystAgent{model: m, flows: flows}
}

// Invoke runs one analyst attempt against a read-only state snapshot.
func (a *AnalystAgent) Invoke(ctx context.Context, kind models.AnalystKind, state *models.AnalysisState) (string, error) {
	msgs, err := a.buildMessages(ctx, kind, state)
	if err != nil {
		return "", err
	}
	resp, err := a.model.Generate(ctx, msgs)
	if err != nil {
		return "", fmt.Errorf("%s generation failed: %w", kind, err)
	}
	report := strings.TrimSpace(resp.Content)
	if report == "" {
		return "", fmt.Errorf("%s returned an empty report", kind)
	}
	return report, nil
}

func (a *AnalystAgent) buildMessages(ctx context.Context, kind models.AnalystKind, state *models.AnalysisState) ([]*schema.Message, error) {
	switch kind {
	case models.AnalystMarket:
		return a.marketMessages(state)
	case models.AnalystFundamentals:
		return a.fundamentalsMessages(state)
	case models.AnalystNews:
		return a.newsMessages(state)
	case models.AnalystSocial:
		return a.socialMessages(state)
	case models.AnalystChinaMarket:
		return a.chinaMarketMessages(ctx, state)
	default:
		return nil, fmt.Errorf("unknown analyst kind %q", kind)
	}
}

func (a *AnalystAgent) marketMessages(state *models.AnalysisState) ([]*schema.Message, error) {
	system := `You are a senior market analyst specializing in technical analysis.
Analyze price trends, volume patterns, momentum, and support/resistance levels
for ` + state.CompanyOfInterest + ` as of ` + state.TradeDate + `.
Conclude with a clear market outlook.`

	bars := state.MarketData
	if len(bars) == 0 && a.flows != nil {
		end, err := time.Parse("2006-01-02", state.TradeDate)
		if err != nil {
			end = time.Now()
		}
		bars, err = a.flows.Yahoo.History(state.CompanyOfInterest, end.AddDate(0, -1, 0), end)
		if err != nil {
			return nil, fmt.Errorf("load market data: %w", err)
		}
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("no market data available for %s", state.CompanyOfInterest)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Recent daily bars for %s:\n", state.CompanyOfInterest)
	for _, bar := range bars {
		fmt.Fprintf(&b, "%s O=%s H=%s L=%s C=%s V=%d\n",
			bar.Date.Format("2006-01-02"), bar.Open, bar.High, bar.Low, bar.Close, bar.Volume)
	}

	return []*schema.Message{
		schema.SystemMessage(system),
		schema.UserMessage(b.String()),
	}, nil
}

func (a *AnalystAgent) fundamentalsMessages(state *models.AnalysisState) ([]*schema.Message, error) {
	system := `You are a fundamentals analyst. Evaluate valuation, profitability,
growth, and balance-sheet health for ` + state.CompanyOfInterest + ` as of ` + state.TradeDate + `.
Conclude with a view on whether the company is fairly valued.`

	if a.flows == nil {
		return nil, fmt.Errorf("no data service configured for fundamentals analysis")
	}
	metrics, err := a.flows.Finnhub.BasicFinancials(state.CompanyOfInterest)
	if err != nil {
		return nil, fmt.Errorf("load fundamentals: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Key financial metrics for %s:\n", state.CompanyOfInterest)
	for name, value := range metrics {
		fmt.Fprintf(&b, "%s: %v\n", name, value)
	}

	return []*schema.Message{
		schema.SystemMessage(system),
		schema.UserMessage(b.String()),
	}, nil
}

func (a *AnalystAgent) newsMessages(state *models.AnalysisState) ([]*schema.Message, error) {
	system := `You are a news analyst. Assess how recent company and macro news
affects the outlook for ` + state.CompanyOfInterest + ` as of ` + state.TradeDate + `.
Weigh materiality, not volume of coverage.`

	if a.flows == nil {
		return nil, fmt.Errorf("no data service configured for news analysis")
	}
	to, err := time.Parse("2006-01-02", state.TradeDate)
	if err != nil {
		to = time.Now()
	}
	articles, err := a.flows.Finnhub.CompanyNews(state.CompanyOfInterest, to.AddDate(0, 0, -7), to)
	if err != nil {
		// Finnhub may be unconfigured; the scraped feed is the fallback.
		articles, err = a.flows.News.Search(state.CompanyOfInterest+" stock", 20)
		if err != nil {
			return nil, fmt.Errorf("load news: %w", err)
		}
	}

	return []*schema.Message{
		schema.SystemMessage(system),
		schema.UserMessage(formatArticles(state.CompanyOfInterest, articles)),
	}, nil
}

func (a *AnalystAgent) socialMessages(state *models.AnalysisState) ([]*schema.Message, error) {
	system := `You are a social media sentiment analyst. Gauge retail sentiment and
discussion momentum around ` + state.CompanyOfInterest + ` as of ` + state.TradeDate + `.
Distinguish durable sentiment shifts from noise.`

	if a.flows == nil {
		return nil, fmt.Errorf("no data service configured for sentiment analysis")
	}
	articles, err := a.flows.News.Search(state.CompanyOfInterest+" stock discussion", 20)
	if err != nil {
		return nil, fmt.Errorf("load discussion feed: %w", err)
	}

	return []*schema.Message{
		schema.SystemMessage(system),
		schema.UserMessage(formatArticles(state.CompanyOfInterest, articles)),
	}, nil
}

func (a *AnalystAgent) chinaMarketMessages(ctx context.Context, state *models.AnalysisState) ([]*schema.Message, error) {
	system := `You are a China market analyst covering HK and mainland listings.
Analyze recent price action and regional market conditions for ` + state.CompanyOfInterest + `
as of ` + state.TradeDate + `.`

	if a.flows == nil || a.flows.Longport == nil {
		return nil, fmt.Errorf("longport data source not configured")
	}
	bars, err := a.flows.Longport.DailyCandles(ctx, state.CompanyOfInterest, 30)
	if err != nil {
		return nil, fmt.Errorf("load china market data: %w", err)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("no china market data for %s", state.CompanyOfInterest)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Recent daily bars for %s:\n", state.CompanyOfInterest)
	for _, bar := range bars {
		fmt.Fprintf(&b, "%s O=%s H=%s L=%s C=%s V=%d\n",
			bar.Date.Format("2006-01-02"), bar.Open, bar.High, bar.Low, bar.Close, bar.Volume)
	}

	return []*schema.Message{
		schema.SystemMessage(system),
		schema.UserMessage(b.String()),
	}, nil
}

func formatArticles(symbol string, articles []*models.NewsArticle) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Recent headlines for %s:\n", symbol)
	for _, art := range articles {
		fmt.Fprintf(&b, "- [%s] %s", art.Published.Format("2006-01-02"), art.Title)
		if art.Summary != "" {
			fmt.Fprintf(&b, ": %s", art.Summary)
		}
		b.WriteString("\n")
	}
	return b.String()
}
