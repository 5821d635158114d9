package krakenstream

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketcore/core/internal/domain"
)

type recordedTick struct {
	symbol string
	price  float64
	volume *float64
}

type fakePrices struct{ ticks []recordedTick }

func (f *fakePrices) UpdatePrice(symbol string, source domain.SourceIdentity, price float64, volume24h *float64) {
	f.ticks = append(f.ticks, recordedTick{symbol, price, volume24h})
}

type fakeCharts struct{ n int }

func (f *fakeCharts) AddPrice(symbol string, price float64, volume *float64, tsMs int64) {
	f.n++
}

func TestHandleFrameSingleObject(t *testing.T) {
	prices := &fakePrices{}
	charts := &fakeCharts{}
	a := New(Config{Symbols: []string{"XBT/USD"}}, prices, charts, nil)

	err := a.handleFrame([]byte(`{"pair":"XBT/USD","c":"65000.5","v":"12.25"}`))
	require.NoError(t, err)
	require.Len(t, prices.ticks, 1)

	got := prices.ticks[0]
	assert.Equal(t, 65000.5, got.price)
	require.NotNil(t, got.volume)
	assert.Equal(t, 12.25, *got.volume)
	assert.Equal(t, 1, charts.n, "expected chart store to receive 1 write")
}

func TestHandleFrameBatchArray(t *testing.T) {
	prices := &fakePrices{}
	charts := &fakeCharts{}
	a := New(Config{}, prices, charts, nil)

	err := a.handleFrame([]byte(`[
		{"pair":"XBT/USD","c":"65000.5","v":"12.25"},
		{"pair":"ETH/USD","c":"3200.1","v":"50"}
	]`))
	require.NoError(t, err)
	assert.Len(t, prices.ticks, 2)
}

func TestHandleFrameSkipsIncompleteTicks(t *testing.T) {
	prices := &fakePrices{}
	charts := &fakeCharts{}
	a := New(Config{}, prices, charts, nil)

	err := a.handleFrame([]byte(`{"pair":"","c":"65000.5"}`))
	require.NoError(t, err)
	assert.Empty(t, prices.ticks, "expected tick with empty pair to be skipped")
}

func TestHandleFrameMalformedReturnsError(t *testing.T) {
	a := New(Config{}, &fakePrices{}, &fakeCharts{}, nil)
	err := a.handleFrame([]byte(`not json at all`))
	assert.Error(t, err, "expected a decode error for garbage input")
}
