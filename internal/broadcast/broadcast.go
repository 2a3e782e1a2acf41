// Package broadcast paces delivery of prioritized news packages across the
// subscriber list.
package broadcast

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"newsalpha/internal/alpha"
	"newsalpha/internal/notify"
	"newsalpha/internal/repository"
)

// Scheduler fans packages out to every subscribed channel, spacing sends so
// the whole batch lands inside the half window before the next poll.
type Scheduler struct {
	Store      repository.Store
	Notifier   notify.Notifier
	Prices     alpha.PriceSource
	HalfWindow time.Duration
	Logger     *zap.Logger
}

// Broadcast delivers packages in priority order and returns how many were
// sent. With no subscribers the packages are still marked sent so the same
// news is not re-announced once a channel subscribes later. A credential
// failure aborts the run with every undelivered package left unmarked for
// the next cycle.
func (s *Scheduler) Broadcast(ctx context.Context, packages []alpha.Package) (int, error) {
	if len(packages) == 0 {
		return 0, nil
	}

	channels, err := s.Store.ListSubscribedChannels(ctx)
	if err != nil {
		return 0, err
	}
	if len(channels) == 0 {
		s.Logger.Info("no subscribed channels, marking packages sent without delivery",
			zap.Int("packages", len(packages)))
		for _, pkg := range packages {
			if err := s.markSent(ctx, pkg); err != nil {
				return 0, err
			}
		}
		return 0, nil
	}

	delay := s.HalfWindow / time.Duration(len(packages)+1)
	sent := 0
	for _, pkg := range packages {
		display := s.prepare(ctx, pkg)
		if len(display.Correlations) == 0 {
			continue
		}

		for _, channelID := range channels {
			err := s.Notifier.Send(ctx, channelID, display)
			switch {
			case err == nil:
			case notify.IsAuth(err):
				s.Logger.Error("delivery credentials rejected, aborting broadcast", zap.Error(err))
				return sent, err
			default:
				s.Logger.Warn("delivery to channel failed",
					zap.String("channel_id", channelID),
					zap.String("tweet_id", pkg.TweetID),
					zap.Error(err),
				)
			}
		}

		if err := s.markSent(ctx, pkg); err != nil {
			return sent, err
		}
		sent++

		if err := sleep(ctx, delay); err != nil {
			return sent, err
		}
	}
	return sent, nil
}

// prepare builds the display form of a package: correlations re-sorted with
// live odds as the tiebreak, one representative per parent event group, and
// a final price refresh so the announced odds are current at send time. The
// stored package is untouched; markSent still covers every original row.
func (s *Scheduler) prepare(ctx context.Context, pkg alpha.Package) alpha.Package {
	rows := make([]repository.CorrelationRow, len(pkg.Correlations))
	copy(rows, pkg.Correlations)

	s.refreshPrices(ctx, rows)

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Relevance != rows[j].Relevance {
			return rows[i].Relevance > rows[j].Relevance
		}
		return impactOf(rows[i]) > impactOf(rows[j])
	})

	display := pkg
	display.Correlations = collapseParentGroups(rows)
	return display
}

// collapseParentGroups keeps the highest-relevance market per parent event.
// Rows arrive sorted by relevance, so the first row seen for a group is its
// representative. Markets without a parent event pass through untouched.
func collapseParentGroups(rows []repository.CorrelationRow) []repository.CorrelationRow {
	out := make([]repository.CorrelationRow, 0, len(rows))
	seen := make(map[string]struct{})
	for _, row := range rows {
		if row.ParentEventID == nil || *row.ParentEventID == "" {
			out = append(out, row)
			continue
		}
		if _, ok := seen[*row.ParentEventID]; ok {
			continue
		}
		seen[*row.ParentEventID] = struct{}{}
		out = append(out, row)
	}
	return out
}

func (s *Scheduler) refreshPrices(ctx context.Context, rows []repository.CorrelationRow) {
	if s.Prices == nil {
		return
	}
	var ids []string
	for _, row := range rows {
		ids = append(ids, row.MarketID)
	}
	quotes, err := s.Prices.LatestQuotes(ctx, ids)
	if err != nil {
		s.Logger.Warn("send-time price refresh failed, announcing stored odds", zap.Error(err))
		return
	}
	for i := range rows {
		if quote, ok := quotes[rows[i].MarketID]; ok {
			rows[i].YesPrice = quote.Yes
			rows[i].NoPrice = quote.No
		}
	}
}

func (s *Scheduler) markSent(ctx context.Context, pkg alpha.Package) error {
	for _, row := range pkg.Correlations {
		if err := s.Store.MarkCorrelationSent(ctx, row.CorrelationID); err != nil {
			return err
		}
	}
	return nil
}

func impactOf(row repository.CorrelationRow) float64 {
	return alpha.Impact(row.YesPrice.InexactFloat64(), row.NoPrice.InexactFloat64())
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
