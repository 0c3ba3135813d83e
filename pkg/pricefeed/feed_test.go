package pricefeed_test

import (
	"context"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/spendsentry/spendsentry/pkg/model"
	"github.com/spendsentry/spendsentry/pkg/pricefeed"
)

func TestRandomWalk_StaysInBand(t *testing.T) {
	feed := pricefeed.NewRandomWalk(rand.New(rand.NewPCG(1, 2)))
	item := &model.TrackedItem{ItemName: "laptop", LastKnownPrice: 100}

	for i := 0; i < 200; i++ {
		price, err := feed.CurrentPrice(context.Background(), item)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, price, 85.0)
		assert.LessOrEqual(t, price, 115.0)
	}
}

func TestRandomWalk_NilSource(t *testing.T) {
	feed := pricefeed.NewRandomWalk(nil)
	item := &model.TrackedItem{ItemName: "laptop", LastKnownPrice: 50}

	price, err := feed.CurrentPrice(context.Background(), item)
	require.NoError(t, err)
	assert.Greater(t, price, 0.0)
}

func TestStatic_KnownItem(t *testing.T) {
	feed := pricefeed.NewStatic(map[string]float64{"laptop": 799.99})

	price, err := feed.CurrentPrice(context.Background(), &model.TrackedItem{ItemName: "laptop"})
	require.NoError(t, err)
	assert.InDelta(t, 799.99, price, 0.001)
}

func TestStatic_UnknownItem(t *testing.T) {
	feed := pricefeed.NewStatic(nil)

	_, err := feed.CurrentPrice(context.Background(), &model.TrackedItem{ItemName: "mystery"})
	assert.Error(t, err)
}
