package pricefeed

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/spendsentry/spendsentry/pkg/model"
)

// Feed supplies the current market price of a tracked item. The item
// carries its own last-known price, so implementations that only
// simulate a market can derive a price from it.
type Feed interface {
	// Name returns the feed identifier.
	Name() string

	// CurrentPrice returns the item's current market price.
	CurrentPrice(ctx context.Context, item *model.TrackedItem) (float64, error)
}

// RandomWalk simulates a market by drifting each item's price to a
// uniform random point between 85% and 115% of its last known price.
type RandomWalk struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewRandomWalk creates a simulated feed. If rnd is nil a default
// source is used.
func NewRandomWalk(rnd *rand.Rand) *RandomWalk {
	if rnd == nil {
		rnd = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &RandomWalk{rnd: rnd}
}

func (r *RandomWalk) Name() string { return "random-walk" }

func (r *RandomWalk) CurrentPrice(_ context.Context, item *model.TrackedItem) (float64, error) {
	r.mu.Lock()
	f := r.rnd.Float64()
	r.mu.Unlock()
	return item.LastKnownPrice * (0.85 + f*0.3), nil
}

// Static serves fixed prices keyed by item name. Unlisted items are an
// error, so tests notice unexpected lookups.
type Static struct {
	prices map[string]float64
}

// NewStatic creates a fixed-price feed.
func NewStatic(prices map[string]float64) *Static {
	return &Static{prices: prices}
}

func (s *Static) Name() string { return "static" }

func (s *Static) CurrentPrice(_ context.Context, item *model.TrackedItem) (float64, error) {
	price, ok := s.prices[item.ItemName]
	if !ok {
		return 0, fmt.Errorf("no price for item %q", item.ItemName)
	}
	return price, nil
}
