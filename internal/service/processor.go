package service

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"math"
	"strings"
	"sync"
	"time"

	"salesboard/internal/domain"

	"github.com/shopspring/decimal"
)

// Processor turns verified webhook bodies into leaderboard bumps and pushes a fresh snapshot
type Processor struct {
	// mu serializes apply+snapshot+publish so frames leave in the order the board changed
	mu sync.Mutex

	board     *Leaderboard
	publisher domain.FeedPublisher
	topN      int
	now       func() time.Time
	logger    *slog.Logger
}

// NewProcessor creates a Processor. publisher may be nil (no live feed).
func NewProcessor(board *Leaderboard, publisher domain.FeedPublisher) *Processor {
	return &Processor{
		board:     board,
		publisher: publisher,
		topN:      domain.DefaultTopN,
		now:       time.Now,
		logger:    slog.Default().With("module", "processor"),
	}
}

// Process applies the line items of a verified body and publishes the new top-N.
// It returns the number of items applied. On ParseFailure nothing is applied or published.
func (p *Processor) Process(provider domain.Provider, body []byte) (int, error) {
	items, err := ExtractLineItems(provider, body)
	if err != nil {
		return 0, err
	}

	p.mu.Lock()
	p.board.Apply(items)
	if p.publisher != nil {
		ev := domain.NewLeaderboardEvent(p.board.Top(p.topN), p.now())
		if err := p.publisher.Publish(ev); err != nil {
			p.logger.Warn("Leaderboard publish incomplete", slog.Any("error", err))
		}
	}
	p.mu.Unlock()

	p.logger.Info("Webhook processed",
		slog.String("provider", string(provider)),
		slog.Int("items", len(items)),
	)
	return len(items), nil
}

// ExtractLineItems parses a verified body into (name, quantity) pairs using the provider's shape
func ExtractLineItems(provider domain.Provider, body []byte) ([]domain.LineItem, error) {
	root, err := decodeObject(body)
	if err != nil {
		return nil, &domain.ParseFailure{Stage: "body", Err: err}
	}

	switch provider {
	case domain.ProviderPayPal:
		return extractPayPal(root), nil
	default:
		payload, err := nestedPayload(root)
		if err != nil {
			return nil, err
		}
		return extractStorefront(payload), nil
	}
}

// nestedPayload returns root.payload, decoding it a second time when it arrives as a JSON string
func nestedPayload(root map[string]any) (map[string]any, error) {
	switch v := root["payload"].(type) {
	case map[string]any:
		return v, nil
	case string:
		obj, err := decodeObject([]byte(v))
		if err != nil {
			return nil, &domain.ParseFailure{Stage: "payload", Err: err}
		}
		return obj, nil
	default:
		return nil, nil
	}
}

func extractStorefront(payload map[string]any) []domain.LineItem {
	products, _ := payload["products"].([]any)
	items := make([]domain.LineItem, 0, len(products))
	for _, raw := range products {
		p, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		items = append(items, domain.LineItem{
			Name:     firstString(p, "name", "productName", "variantName"),
			Quantity: coerceQuantity(p["quantity"]),
		})
	}
	return items
}

func extractPayPal(root map[string]any) []domain.LineItem {
	resource, _ := root["resource"].(map[string]any)

	var items []domain.LineItem
	units, _ := resource["purchase_units"].([]any)
	for _, rawUnit := range units {
		unit, ok := rawUnit.(map[string]any)
		if !ok {
			continue
		}
		unitItems, _ := unit["items"].([]any)
		for _, rawItem := range unitItems {
			it, ok := rawItem.(map[string]any)
			if !ok {
				continue
			}
			items = append(items, domain.LineItem{
				Name:     firstString(it, "name"),
				Quantity: coerceQuantity(it["quantity"]),
			})
		}
	}

	if len(items) == 0 {
		items = append(items, domain.LineItem{
			Name:     firstString(resource, "custom_id"),
			Quantity: 1,
		})
	}
	return items
}

func decodeObject(data []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return nil, err
	}
	return obj, nil
}

// firstString returns the first non-blank string among keys, or domain.UnknownProduct
func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok && strings.TrimSpace(s) != "" {
			return s
		}
	}
	return domain.UnknownProduct
}

// coerceQuantity accepts JSON numbers and numeric strings; anything else, or a
// value that truncates to < 1, becomes 1. Values beyond int64 clamp to math.MaxInt64.
var maxQuantity = decimal.NewFromInt(math.MaxInt64)

func coerceQuantity(v any) int64 {
	var s string
	switch q := v.(type) {
	case json.Number:
		s = q.String()
	case string:
		s = strings.TrimSpace(q)
	default:
		return 1
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 1
	}
	switch {
	case d.GreaterThan(maxQuantity):
		return math.MaxInt64
	case d.LessThan(decimal.NewFromInt(1)):
		return 1
	}
	return d.IntPart()
}
