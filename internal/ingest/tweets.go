package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"newsalpha/internal/client/social"
	"newsalpha/internal/dedup"
	"newsalpha/internal/models"
	"newsalpha/internal/repository"
)

// SocialAPI is the slice of the social client tweet ingestion needs.
type SocialAPI interface {
	SearchAccount(ctx context.Context, account string, since, until time.Time) ([]social.RawTweet, error)
}

type TweetIngest struct {
	Store    repository.Store
	Client   SocialAPI
	Dedup    *dedup.Deduplicator
	Accounts []string
	Logger   *zap.Logger
}

// Ingest pulls tweets from every monitored account inside [since, until),
// collapses duplicate reports of the same event, and stores the survivors.
// A failing account is logged and skipped so one account outage cannot
// starve the rest of the batch. Returns the number of newly inserted tweets.
func (t *TweetIngest) Ingest(ctx context.Context, since, until time.Time) (int64, error) {
	var batch []models.Tweet
	for _, account := range t.Accounts {
		raws, err := t.Client.SearchAccount(ctx, account, since, until)
		if err != nil {
			if ctx.Err() != nil {
				return 0, ctx.Err()
			}
			t.Logger.Warn("account search failed, skipping",
				zap.String("account", account),
				zap.Error(err),
			)
			continue
		}
		for _, raw := range raws {
			item, err := convertTweet(raw)
			if err != nil {
				t.Logger.Warn("skipping unparseable tweet",
					zap.String("tweet_id", raw.ID),
					zap.Error(err),
				)
				continue
			}
			batch = append(batch, item)
		}
	}
	if len(batch) == 0 {
		return 0, nil
	}

	if t.Dedup != nil {
		before := len(batch)
		batch = t.Dedup.Dedupe(ctx, batch)
		if dropped := before - len(batch); dropped > 0 {
			t.Logger.Info("dropped duplicate tweets", zap.Int("count", dropped))
		}
	}

	inserted, err := t.Store.InsertTweets(ctx, batch)
	if err != nil {
		return 0, fmt.Errorf("insert tweets: %w", err)
	}
	t.Logger.Info("tweets ingested",
		zap.Int("fetched", len(batch)),
		zap.Int64("inserted", inserted),
	)
	return inserted, nil
}

func convertTweet(raw social.RawTweet) (models.Tweet, error) {
	if raw.ID == "" || raw.Text == "" {
		return models.Tweet{}, fmt.Errorf("missing id or text")
	}
	createdAt, err := raw.CreatedAtTime()
	if err != nil {
		return models.Tweet{}, fmt.Errorf("parse created_at: %w", err)
	}
	item := models.Tweet{
		ID:           raw.ID,
		Text:         raw.Text,
		URL:          raw.URL,
		AuthorName:   raw.Author.Name,
		AuthorURL:    raw.Author.URL,
		CreatedAt:    createdAt,
		LikeCount:    raw.LikeCount,
		RetweetCount: raw.RetweetCount,
		ReplyCount:   raw.ReplyCount,
	}
	if payload, err := json.Marshal(raw); err == nil {
		item.RawJSON = payload
	}
	return item, nil
}
