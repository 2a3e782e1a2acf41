package cycle

import (
	"context"

	"newsalpha/internal/alpha"
	"newsalpha/internal/client/markets"
)

// MarketLookup is the slice of the catalogue client used for quote refreshes.
type MarketLookup interface {
	GetMarketsByIDs(ctx context.Context, ids []string) (map[string]markets.RawMarket, error)
}

type priceSource struct {
	client MarketLookup
}

// NewPriceSource adapts the catalogue client into the quote interface the
// prioritizer and broadcaster consume. Markets whose payload cannot be
// fetched or whose prices fail to parse are simply absent from the result.
func NewPriceSource(client MarketLookup) alpha.PriceSource {
	return &priceSource{client: client}
}

func (p *priceSource) LatestQuotes(ctx context.Context, marketIDs []string) (map[string]alpha.Quote, error) {
	raws, err := p.client.GetMarketsByIDs(ctx, marketIDs)
	if err != nil {
		return nil, err
	}
	quotes := make(map[string]alpha.Quote, len(raws))
	for id, raw := range raws {
		yes, no, err := raw.Prices()
		if err != nil {
			continue
		}
		quotes[id] = alpha.Quote{Yes: yes, No: no}
	}
	return quotes, nil
}
