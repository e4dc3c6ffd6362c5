package pricesDataService

import (
	"context"

	"github.com/govwallet/sidecar/pkg/clients/coingecko"
	"github.com/govwallet/sidecar/pkg/eventBus/eventBusTypes"
	"github.com/govwallet/sidecar/pkg/service/baseDataService"
	"github.com/govwallet/sidecar/pkg/stores"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PriceSource returns fiat prices keyed by coingecko id.
type PriceSource interface {
	GetSimplePrices(ctx context.Context, ids []string, vs string) (map[string]decimal.Decimal, error)
}

var _ PriceSource = (*coingecko.Client)(nil)

type PricesDataService struct {
	baseDataService.BaseDataService
	source PriceSource
	// Prices holds USD per token keyed by project id. nil until the first load.
	Prices *stores.Store[map[string]decimal.Decimal]
}

func NewPricesDataService(base baseDataService.BaseDataService, source PriceSource) *PricesDataService {
	return &PricesDataService{
		BaseDataService: base,
		source:          source,
		Prices:          stores.NewStore[map[string]decimal.Decimal](nil),
	}
}

// LoadPrices refreshes the exchange rates. Projects without a coingecko id,
// or without a quote, are left out and treated as unpriced.
func (s *PricesDataService) LoadPrices(ctx context.Context) {
	idsByCoin := make(map[string][]string)
	coinIds := make([]string, 0)
	for _, p := range s.Projects {
		coinId := p.Project.CoingeckoId
		if coinId == "" {
			continue
		}
		if _, ok := idsByCoin[coinId]; !ok {
			coinIds = append(coinIds, coinId)
		}
		idsByCoin[coinId] = append(idsByCoin[coinId], p.Project.Id)
	}

	prices := make(map[string]decimal.Decimal)
	if len(coinIds) > 0 {
		quotes, err := s.source.GetSimplePrices(ctx, coinIds, s.GlobalConfig.CoingeckoConfig.VsCurrency)
		if err != nil {
			s.ToastError("Failed to load exchange rates", err, true)
			return
		}
		for coinId, price := range quotes {
			for _, projectId := range idsByCoin[coinId] {
				prices[projectId] = price
			}
		}
	}

	s.Logger.Sugar().Debugw("Loaded exchange rates", zap.Int("count", len(prices)))
	s.Prices.Set(prices)
	s.Publish(eventBusTypes.Event_PricesLoaded, &eventBusTypes.LoadedData{Certified: false})
}

func (s *PricesDataService) ExchangeRates() map[string]decimal.Decimal {
	return s.Prices.Get()
}
