// Package dedup collapses near-duplicate incoming tweets (the same
// real-world event reported by multiple sources) before they reach the
// correlation engine. Deduplication is a best-effort optimization: every
// failure path degrades to a passthrough, and downstream layers tolerate
// duplicates on their own.
package dedup

import (
	"context"

	"go.uber.org/zap"

	"newsalpha/internal/config"
	"newsalpha/internal/judge"
	"newsalpha/internal/models"
)

type Deduplicator struct {
	Judge  judge.Judge
	Config config.DedupConfig
	Logger *zap.Logger
}

// Engagement weighs a tweet's traction. The default weighting is
// likes + 2*retweets + replies.
func (d *Deduplicator) Engagement(t models.Tweet) int {
	likeW, retweetW, replyW := d.weights()
	return likeW*t.LikeCount + retweetW*t.RetweetCount + replyW*t.ReplyCount
}

func (d *Deduplicator) weights() (like, retweet, reply int) {
	like, retweet, reply = d.Config.LikeWeight, d.Config.RetweetWeight, d.Config.ReplyWeight
	if like == 0 && retweet == 0 && reply == 0 {
		return 1, 2, 1
	}
	return like, retweet, reply
}

// Dedupe returns the batch with each duplicate group reduced to its single
// highest-engagement member; ties keep the first-seen tweet. Group ids that
// do not appear in the batch are ignored. On judge failure, an empty
// grouping, or fewer than two tweets the batch passes through unchanged.
func (d *Deduplicator) Dedupe(ctx context.Context, tweets []models.Tweet) []models.Tweet {
	if len(tweets) < 2 {
		return tweets
	}

	refs := make([]judge.TweetRef, 0, len(tweets))
	byID := make(map[string]models.Tweet, len(tweets))
	for _, t := range tweets {
		refs = append(refs, judge.TweetRef{ID: t.ID, Text: t.Text})
		byID[t.ID] = t
	}

	groups, err := d.Judge.GroupDuplicates(ctx, refs)
	if err != nil {
		if d.Logger != nil {
			d.Logger.Warn("duplicate grouping failed, keeping full batch", zap.Error(err))
		}
		return tweets
	}
	if len(groups) == 0 {
		return tweets
	}

	discard := make(map[string]struct{})
	for _, group := range groups {
		present := make(map[string]struct{}, len(group))
		for _, id := range group {
			if _, ok := byID[id]; ok {
				present[id] = struct{}{}
			}
		}
		if len(present) < 2 {
			continue
		}

		// Walk the batch in order so equal engagement keeps the first seen.
		bestID := ""
		bestWeight := -1
		for _, t := range tweets {
			if _, ok := present[t.ID]; !ok {
				continue
			}
			if weight := d.Engagement(t); weight > bestWeight {
				bestID = t.ID
				bestWeight = weight
			}
		}
		for id := range present {
			if id != bestID {
				discard[id] = struct{}{}
			}
		}
		if d.Logger != nil {
			d.Logger.Info("collapsed duplicate tweet group",
				zap.String("kept", bestID),
				zap.Int("engagement", bestWeight),
				zap.Int("group_size", len(present)),
			)
		}
	}

	if len(discard) == 0 {
		return tweets
	}
	out := make([]models.Tweet, 0, len(tweets)-len(discard))
	for _, t := range tweets {
		if _, drop := discard[t.ID]; !drop {
			out = append(out, t)
		}
	}
	return out
}
