// Package ingest keeps the local market catalogue and tweet inbox current.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"newsalpha/internal/client/markets"
	"newsalpha/internal/config"
	"newsalpha/internal/db"
	"newsalpha/internal/embed"
	"newsalpha/internal/models"
	"newsalpha/internal/repository"
)

// CatalogueAPI is the slice of the markets client the sync needs.
type CatalogueAPI interface {
	ListMarkets(ctx context.Context, params markets.ListParams) ([]markets.RawMarket, error)
}

type CatalogSync struct {
	Store    repository.Store
	Client   CatalogueAPI
	Embedder embed.Embedder
	Config   config.CatalogueConfig
	Logger   *zap.Logger
}

// Sync prunes expired markets and pulls every market listed since the given
// time, embedding its question text for candidate retrieval. Records that
// fail to parse are skipped and logged; one bad payload must not block the
// rest of the catalogue. Returns the number of newly inserted markets.
func (s *CatalogSync) Sync(ctx context.Context, since time.Time) (int64, error) {
	now := db.NowUTC()

	pruned, err := s.Store.PruneExpiredMarkets(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("prune expired markets: %w", err)
	}
	if pruned > 0 {
		s.Logger.Info("pruned expired markets", zap.Int64("count", pruned))
	}

	raws, err := s.Client.ListMarkets(ctx, markets.ListParams{
		StartDateMin: &since,
		EndDateMin:   &now,
		PageSize:     s.Config.PageSize,
		MaxPages:     s.Config.MaxPages,
	})
	if err != nil {
		return 0, fmt.Errorf("list markets: %w", err)
	}
	if len(raws) == 0 {
		return 0, nil
	}

	items := make([]models.Market, 0, len(raws))
	for _, raw := range raws {
		item, err := convertMarket(raw, now)
		if err != nil {
			s.Logger.Warn("skipping unparseable market",
				zap.String("market_id", raw.ID),
				zap.Error(err),
			)
			continue
		}
		items = append(items, item)
	}

	s.embedCatalogue(ctx, items)

	inserted, err := s.Store.InsertMarkets(ctx, items)
	if err != nil {
		return 0, fmt.Errorf("insert markets: %w", err)
	}
	s.Logger.Info("catalogue synced",
		zap.Int("fetched", len(raws)),
		zap.Int("converted", len(items)),
		zap.Int64("inserted", inserted),
	)
	return inserted, nil
}

// embedCatalogue attaches question embeddings in one batched pass. A failed
// batch leaves those markets without vectors; they are stored anyway and
// simply never surface as candidates until a later sync fills them in.
func (s *CatalogSync) embedCatalogue(ctx context.Context, items []models.Market) {
	if s.Embedder == nil || len(items) == 0 {
		return
	}
	texts := make([]string, len(items))
	for i, item := range items {
		texts[i] = item.EmbeddingText
	}
	vectors, err := s.Embedder.Embed(ctx, texts)
	if err != nil {
		s.Logger.Warn("catalogue embedding failed, storing markets without vectors", zap.Error(err))
		return
	}
	for i := range items {
		if i < len(vectors) && len(vectors[i]) > 0 {
			items[i].Embedding = vectors[i]
		}
	}
}

func convertMarket(raw markets.RawMarket, now time.Time) (models.Market, error) {
	if raw.ID == "" || raw.Question == "" {
		return models.Market{}, fmt.Errorf("missing id or question")
	}
	yes, no, err := raw.Prices()
	if err != nil {
		return models.Market{}, err
	}
	endDate, err := raw.EndDateTime()
	if err != nil {
		return models.Market{}, fmt.Errorf("parse end date: %w", err)
	}

	item := models.Market{
		ID:            raw.ID,
		Question:      raw.Question,
		Slug:          raw.Slug,
		URL:           raw.URL(),
		YesPrice:      yes,
		NoPrice:       no,
		EndDate:       endDate,
		EmbeddingText: EmbeddingText(raw.Question, raw.Description),
		Active:        true,
		LastSeenAt:    now,
	}
	if parentID, _, ok := raw.ParentEvent(); ok {
		item.ParentEventID = &parentID
	}
	if raw.Image != "" {
		image := raw.Image
		item.ImageURL = &image
	}
	if payload, err := json.Marshal(raw); err == nil {
		item.RawJSON = payload
	}
	return item, nil
}

// EmbeddingText is the canonical text a market is embedded under. Tweet
// embeddings are compared against this exact rendering, so its shape is part
// of the retrieval contract.
func EmbeddingText(question, description string) string {
	return "Question: " + question + "\nDescription: " + description
}
