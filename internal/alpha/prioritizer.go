// Package alpha turns unsent correlations into prioritized delivery
// packages: it groups them per tweet, scores each package, and drops
// packages that re-report an event already accepted at higher priority.
package alpha

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"newsalpha/internal/models"
	"newsalpha/internal/repository"
)

// Package is the in-memory grouping of every unsent correlation sharing one
// tweet. Packages are ephemeral: rebuilt on every prioritization pass.
type Package struct {
	TweetID        string
	TweetText      string
	TweetURL       string
	TweetAuthor    string
	TweetEmbedding models.Vector

	Alpha float64

	// Correlations are sorted by relevance descending; index 0 is the top
	// correlation whose market drives the impact term.
	Correlations []repository.CorrelationRow
}

// Quote is a live two-outcome price snapshot.
type Quote struct {
	Yes decimal.Decimal
	No  decimal.Decimal
}

// PriceSource serves live quotes for the markets referenced by a pass.
// Missing ids mean "no fresh data"; callers keep the stored prices.
type PriceSource interface {
	LatestQuotes(ctx context.Context, marketIDs []string) (map[string]Quote, error)
}

// Impact measures how live a market's odds are: 4·yes·no peaks at 1.0 when
// the market sits at even odds and collapses to 0 at either extreme, where a
// near-resolved market offers nothing tradable.
func Impact(yes, no float64) float64 {
	return 4 * yes * no
}

const (
	relevanceWeight = 0.5
	urgencyWeight   = 0.3
	impactWeight    = 0.2

	diversityUnit  = 5.0
	diversityBonus = 0.1
)

// Score computes the composite priority for a package from its top
// correlation and its breadth of market coverage.
func Score(top repository.CorrelationRow, packageSize int) float64 {
	impact := Impact(top.YesPrice.InexactFloat64(), top.NoPrice.InexactFloat64())
	bonus := diversityBonus * minFloat(float64(packageSize)/diversityUnit, 1.0)
	return relevanceWeight*top.Relevance + urgencyWeight*top.Urgency + impactWeight*impact + bonus
}

type Prioritizer struct {
	Store  repository.Store
	Prices PriceSource
	Logger *zap.Logger
}

// Prioritize loads every unsent correlation, refreshes quoted prices from
// the live source (written through to storage so later reads see them),
// groups into per-tweet packages, and returns the packages ordered by
// descending alpha score. Ties are stabilized on tweet id.
func (p *Prioritizer) Prioritize(ctx context.Context) ([]Package, error) {
	rows, err := p.Store.ListUnsentCorrelationRows(ctx)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	p.refreshPrices(ctx, rows)

	byTweet := make(map[string]*Package)
	var order []string
	for _, row := range rows {
		pkg, ok := byTweet[row.TweetID]
		if !ok {
			pkg = &Package{
				TweetID:        row.TweetID,
				TweetText:      row.TweetText,
				TweetURL:       row.TweetURL,
				TweetAuthor:    row.TweetAuthor,
				TweetEmbedding: row.TweetEmbedding,
			}
			byTweet[row.TweetID] = pkg
			order = append(order, row.TweetID)
		}
		pkg.Correlations = append(pkg.Correlations, row)
	}

	packages := make([]Package, 0, len(order))
	for _, tweetID := range order {
		pkg := byTweet[tweetID]
		sort.SliceStable(pkg.Correlations, func(i, j int) bool {
			return pkg.Correlations[i].Relevance > pkg.Correlations[j].Relevance
		})
		pkg.Alpha = Score(pkg.Correlations[0], len(pkg.Correlations))
		packages = append(packages, *pkg)
	}

	sort.SliceStable(packages, func(i, j int) bool {
		if packages[i].Alpha != packages[j].Alpha {
			return packages[i].Alpha > packages[j].Alpha
		}
		return packages[i].TweetID < packages[j].TweetID
	})
	return packages, nil
}

// refreshPrices pulls live quotes for every market in the pass and writes
// them through to both the rows and storage. Best effort: on source failure
// the stored prices stand.
func (p *Prioritizer) refreshPrices(ctx context.Context, rows []repository.CorrelationRow) {
	if p.Prices == nil {
		return
	}
	seen := make(map[string]struct{})
	var ids []string
	for _, row := range rows {
		if _, ok := seen[row.MarketID]; ok {
			continue
		}
		seen[row.MarketID] = struct{}{}
		ids = append(ids, row.MarketID)
	}

	quotes, err := p.Prices.LatestQuotes(ctx, ids)
	if err != nil {
		if p.Logger != nil {
			p.Logger.Warn("price refresh failed, using stored prices", zap.Error(err))
		}
		return
	}

	for marketID, quote := range quotes {
		if err := p.Store.UpdateMarketPrices(ctx, marketID, quote.Yes, quote.No); err != nil && p.Logger != nil {
			p.Logger.Warn("price write-through failed",
				zap.String("market_id", marketID),
				zap.Error(err),
			)
		}
	}
	for i := range rows {
		if quote, ok := quotes[rows[i].MarketID]; ok {
			rows[i].YesPrice = quote.Yes
			rows[i].NoPrice = quote.No
		}
	}
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
