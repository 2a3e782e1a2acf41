// Package judge wraps the generative adjudicator behind a narrow, typed
// interface. The pipeline depends only on the interface; tests substitute a
// deterministic stub and the production wiring uses the OpenAI client.
package judge

import "context"

// Candidate is one market reduced to the fields the adjudicator sees.
type Candidate struct {
	ID       string `json:"id"`
	Question string `json:"question"`
	Context  string `json:"context"`
}

// MarketScore is one adjudicated correlation. The adjudicator only reports
// markets whose relevance clears its reporting floor, and every reported
// market carries all four fields.
type MarketScore struct {
	MarketID        string  `json:"market_id"`
	Relevance       float64 `json:"relevance"`
	RelevanceReason string  `json:"relevance_reason"`
	Urgency         float64 `json:"urgency"`
	UrgencyReason   string  `json:"urgency_reason"`
}

// TweetRef is the (id, text) pair handed to the duplicate grouper.
type TweetRef struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Judge is the external judgment capability, consumed with two response
// schemas: relevance/urgency scoring and duplicate grouping. Implementations
// must return an error (never panic) on malformed upstream output; callers
// treat any error as an empty result.
type Judge interface {
	// ScoreMarkets evaluates one tweet against up to N candidate markets and
	// returns the markets the adjudicator considers relevant.
	ScoreMarkets(ctx context.Context, tweetText string, candidates []Candidate) ([]MarketScore, error)

	// GroupDuplicates returns groups of two or more tweet ids judged to
	// report the same underlying event. Tweets absent from every group are
	// implicitly unique.
	GroupDuplicates(ctx context.Context, tweets []TweetRef) ([][]string, error)
}
