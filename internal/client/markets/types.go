package markets

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// RawMarket is the catalogue API payload for one market. OutcomePrices
// arrives as a JSON-encoded array inside a string, matching the upstream
// wire format.
type RawMarket struct {
	ID            string     `json:"id"`
	Question      string     `json:"question"`
	Description   string     `json:"description"`
	Slug          string     `json:"slug"`
	Image         string     `json:"image"`
	OutcomePrices string     `json:"outcomePrices"`
	EndDate       string     `json:"endDate"`
	Events        []RawEvent `json:"events"`
}

// RawEvent is the parent event grouping multi-outcome markets that share one
// theme. Ticker doubles as the URL slug for the event page.
type RawEvent struct {
	ID     string `json:"id"`
	Ticker string `json:"ticker"`
}

// Prices decodes the two-outcome quote. Errors on fewer than two outcomes so
// ingestion can skip non-binary payloads.
func (m RawMarket) Prices() (yes, no decimal.Decimal, err error) {
	var raw []string
	if err = json.Unmarshal([]byte(m.OutcomePrices), &raw); err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("decode outcome prices: %w", err)
	}
	if len(raw) < 2 {
		return decimal.Zero, decimal.Zero, fmt.Errorf("expected 2 outcome prices, got %d", len(raw))
	}
	yes, err = decimal.NewFromString(raw[0])
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("parse yes price: %w", err)
	}
	no, err = decimal.NewFromString(raw[1])
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("parse no price: %w", err)
	}
	return yes, no, nil
}

// EndDateTime parses the market end timestamp (RFC 3339).
func (m RawMarket) EndDateTime() (time.Time, error) {
	return time.Parse(time.RFC3339, m.EndDate)
}

// ParentEvent returns the first parent event id and its ticker slug, when
// present.
func (m RawMarket) ParentEvent() (id, ticker string, ok bool) {
	if len(m.Events) == 0 {
		return "", "", false
	}
	return m.Events[0].ID, m.Events[0].Ticker, m.Events[0].ID != ""
}

// URL builds the public page for this market, preferring the parent event
// slug when the market belongs to a grouped event.
func (m RawMarket) URL() string {
	slug := m.Slug
	if _, ticker, ok := m.ParentEvent(); ok && ticker != "" {
		slug = ticker
	}
	return "https://polymarket.com/event/" + slug
}
