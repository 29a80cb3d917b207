package dataflows

import (
	"log"

	"quantcrew/internal/config"
)

// Service bundles the configured data sources the analysts draw on. Clients
// that lack credentials stay nil and the corresponding analyst degrades at
// invocation time.
type Service struct {
	Yahoo    *YahooClient
	Finnhub  *FinnhubClient
	News     *NewsScraper
	Longport *LongportClient
}

func NewService(cfg *config.Config) *Service {
	svc := &Service{
		Yahoo:   NewYahooClient(cfg.DataCacheDir, cfg.CacheEnabled),
		Finnhub: NewFinnhubClient(cfg.FinnhubAPIKey, cfg.DataCacheDir, cfg.CacheEnabled),
		News:    NewNewsScraper(cfg.DataCacheDir, cfg.CacheEnabled),
	}

	lp, err := NewLongportClient(cfg.LongportAppKey, cfg.LongportAppSecret, cfg.LongportAccessToken)
	if err != nil {
		log.Printf("[Dataflows] longport client unavailable: %v", err)
	} else {
		svc.Longport = lp
	}
	return svc
}

func (s *Service) Close() {
	if s.Longport != nil {
		s.Longport.Close()
	}
}
