package judge

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/shared"
	"go.uber.org/zap"
)

const scoringPrompt = `You are an expert financial and geopolitical analyst. Analyze a breaking news tweet and evaluate its connection to a list of candidate prediction markets.

For every market with relevance above %.2f you MUST report four fields: relevance, relevance_reason, urgency, urgency_reason. Scores are in [0, 1]. Omit markets below the floor entirely.

Relevance: 0.9-1.0 direct statement about the market question; 0.7-0.8 strongly causal driver; 0.5-0.6 same topic area; 0.2-0.4 tenuous.
Urgency: 0.9-1.0 breaking news that could move the market within hours; 0.7-0.8 significant development; 0.5-0.6 developing narrative; 0.0-0.4 commentary or not time-sensitive.

Respond with a JSON object of the form:
{"correlations": [{"market_id": "...", "relevance": 0.0, "relevance_reason": "...", "urgency": 0.0, "urgency_reason": "..."}]}

<TWEET>
%s
</TWEET>

<CANDIDATE_MARKETS>
%s
</CANDIDATE_MARKETS>`

const groupingPrompt = `You are a news desk editor. Group tweets that report the exact same underlying news event, even when worded differently by different sources.

Return a JSON object of the form {"duplicate_groups": [{"tweet_ids": ["A", "B"]}]}. Each group must contain two or more ids. A tweet with no duplicate must not appear in any group.

TWEETS:
%s`

// OpenAIJudge implements Judge on the OpenAI chat completions API with JSON
// response formatting. Malformed model output surfaces as an error; it never
// reaches the pipeline as a partial result.
type OpenAIJudge struct {
	Client      openai.Client
	Model       string
	Temperature float64

	// ReportingFloor is the relevance below which the model is instructed
	// not to report a market at all. Distinct from the storage floor applied
	// by the adjudicator.
	ReportingFloor float64

	Logger *zap.Logger
}

type scoringResponse struct {
	Correlations []MarketScore `json:"correlations"`
}

type groupingResponse struct {
	DuplicateGroups []struct {
		TweetIDs []string `json:"tweet_ids"`
	} `json:"duplicate_groups"`
}

func (j *OpenAIJudge) ScoreMarkets(ctx context.Context, tweetText string, candidates []Candidate) ([]MarketScore, error) {
	if len(candidates) == 0 {
		return nil, nil
	}
	candidateJSON, err := json.Marshal(candidates)
	if err != nil {
		return nil, fmt.Errorf("marshal candidates: %w", err)
	}
	prompt := fmt.Sprintf(scoringPrompt, j.ReportingFloor, tweetText, string(candidateJSON))

	content, err := j.complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var parsed scoringResponse
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return nil, fmt.Errorf("decode scoring response: %w", err)
	}

	out := make([]MarketScore, 0, len(parsed.Correlations))
	for _, score := range parsed.Correlations {
		if !validScore(score) {
			if j.Logger != nil {
				j.Logger.Warn("dropping malformed market score",
					zap.String("market_id", score.MarketID),
					zap.Float64("relevance", score.Relevance),
					zap.Float64("urgency", score.Urgency),
				)
			}
			continue
		}
		out = append(out, score)
	}
	return out, nil
}

func (j *OpenAIJudge) GroupDuplicates(ctx context.Context, tweets []TweetRef) ([][]string, error) {
	if len(tweets) < 2 {
		return nil, nil
	}
	tweetJSON, err := json.Marshal(tweets)
	if err != nil {
		return nil, fmt.Errorf("marshal tweets: %w", err)
	}
	prompt := fmt.Sprintf(groupingPrompt, string(tweetJSON))

	content, err := j.complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var parsed groupingResponse
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return nil, fmt.Errorf("decode grouping response: %w", err)
	}

	groups := make([][]string, 0, len(parsed.DuplicateGroups))
	for _, group := range parsed.DuplicateGroups {
		ids := make([]string, 0, len(group.TweetIDs))
		for _, id := range group.TweetIDs {
			id = strings.TrimSpace(id)
			if id != "" {
				ids = append(ids, id)
			}
		}
		if len(ids) >= 2 {
			groups = append(groups, ids)
		}
	}
	return groups, nil
}

func (j *OpenAIJudge) complete(ctx context.Context, prompt string) (string, error) {
	resp, err := j.Client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: shared.ChatModel(j.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
		Temperature: openai.Float(j.Temperature),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion: empty choices")
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("chat completion: empty content")
	}
	return content, nil
}

func validScore(s MarketScore) bool {
	if strings.TrimSpace(s.MarketID) == "" {
		return false
	}
	if s.Relevance < 0 || s.Relevance > 1 {
		return false
	}
	if s.Urgency < 0 || s.Urgency > 1 {
		return false
	}
	return true
}
