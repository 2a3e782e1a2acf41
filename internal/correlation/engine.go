// Package correlation implements the two-stage matcher: a similarity
// pre-filter narrows the catalogue per tweet, then the generative adjudicator
// scores the survivors for relevance and urgency.
package correlation

import (
	"context"

	"go.uber.org/zap"

	"newsalpha/internal/config"
	"newsalpha/internal/embed"
	"newsalpha/internal/judge"
	"newsalpha/internal/models"
	"newsalpha/internal/repository"
)

type Engine struct {
	Store    repository.Store
	Judge    judge.Judge
	Embedder embed.Embedder
	Config   config.CorrelationConfig
	Logger   *zap.Logger
}

// Run adjudicates every unprocessed tweet against the active catalogue and
// returns the number of correlation rows stored. Per-tweet failures never
// abort the batch; only context cancellation does.
func (e *Engine) Run(ctx context.Context) (int, error) {
	tweets, err := e.Store.ListUnprocessedTweets(ctx)
	if err != nil {
		return 0, err
	}
	if len(tweets) == 0 {
		return 0, nil
	}

	catalogue, err := e.Store.ListActiveMarketsWithEmbeddings(ctx)
	if err != nil {
		return 0, err
	}

	e.Logger.Info("running correlation engine",
		zap.Int("tweets", len(tweets)),
		zap.Int("active_markets", len(catalogue)),
	)

	stored := 0
	for _, tweet := range tweets {
		if ctx.Err() != nil {
			return stored, ctx.Err()
		}
		stored += e.ProcessTweet(ctx, tweet, catalogue)
	}
	return stored, nil
}

// ProcessTweet runs both matching stages for one tweet and stores every
// validated correlation at or above the storage floor. The tweet is marked
// processed on the way out no matter what happened: a transient adjudication
// failure forfeits this tweet's correlations rather than retrying it forever.
func (e *Engine) ProcessTweet(ctx context.Context, tweet models.Tweet, catalogue []models.Market) (stored int) {
	defer func() {
		if err := e.Store.MarkTweetProcessed(ctx, tweet.ID); err != nil {
			e.Logger.Warn("mark tweet processed failed", zap.String("tweet_id", tweet.ID), zap.Error(err))
		}
	}()

	embedding := []float64(tweet.Embedding)
	if len(embedding) == 0 {
		vectors, err := e.Embedder.Embed(ctx, []string{tweet.Text})
		if err != nil || len(vectors) == 0 || len(vectors[0]) == 0 {
			e.Logger.Warn("no embedding for tweet, skipping correlation",
				zap.String("tweet_id", tweet.ID),
				zap.Error(err),
			)
			return 0
		}
		embedding = vectors[0]
		if err := e.Store.UpdateTweetEmbedding(ctx, tweet.ID, embedding); err != nil {
			e.Logger.Warn("persist tweet embedding failed", zap.String("tweet_id", tweet.ID), zap.Error(err))
		}
	}

	n := e.Config.CandidateCount
	if n <= 0 {
		n = 50
	}
	top := TopCandidates(embedding, catalogue, n)
	if len(top) == 0 {
		return 0
	}

	candidates := make([]judge.Candidate, 0, len(top))
	for _, sm := range top {
		candidates = append(candidates, judge.Candidate{
			ID:       sm.Market.ID,
			Question: sm.Market.Question,
			Context:  sm.Market.EmbeddingText,
		})
	}

	scores, err := e.Judge.ScoreMarkets(ctx, tweet.Text, candidates)
	if err != nil {
		e.Logger.Warn("adjudication failed, treating as no correlations",
			zap.String("tweet_id", tweet.ID),
			zap.Error(err),
		)
		return 0
	}

	floor := e.Config.StorageFloor
	if floor <= 0 {
		floor = 0.6
	}
	for _, score := range scores {
		if score.Relevance < floor {
			continue
		}
		row := &models.Correlation{
			TweetID:         tweet.ID,
			MarketID:        score.MarketID,
			Relevance:       score.Relevance,
			RelevanceReason: score.RelevanceReason,
			Urgency:         score.Urgency,
			UrgencyReason:   score.UrgencyReason,
		}
		if err := e.Store.UpsertCorrelation(ctx, row); err != nil {
			e.Logger.Warn("store correlation failed",
				zap.String("tweet_id", tweet.ID),
				zap.String("market_id", score.MarketID),
				zap.Error(err),
			)
			continue
		}
		stored++
		e.Logger.Info("stored correlation",
			zap.String("tweet_id", tweet.ID),
			zap.String("market_id", score.MarketID),
			zap.Float64("relevance", score.Relevance),
			zap.Float64("urgency", score.Urgency),
		)
	}
	return stored
}
