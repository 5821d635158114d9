package indicators

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketcore/core/internal/domain"
)

func uptrendCandles(n int) []domain.OhlcPoint {
	out := make([]domain.OhlcPoint, n)
	for i := 0; i < n; i++ {
		base := 100 + float64(i)*1.5
		out[i] = domain.OhlcPoint{
			BucketStartUnixS: int64(i) * 60,
			Open:             base,
			High:             base + 2,
			Low:              base - 1,
			Close:            base + 1,
			Volume:           1000 + float64(i%5)*100,
		}
	}
	return out
}

func downtrendCandles(n int) []domain.OhlcPoint {
	out := make([]domain.OhlcPoint, n)
	for i := 0; i < n; i++ {
		base := 200 - float64(i)*1.5
		out[i] = domain.OhlcPoint{
			BucketStartUnixS: int64(i) * 60,
			Open:             base,
			High:             base + 1,
			Low:              base - 2,
			Close:            base - 1,
			Volume:           1000,
		}
	}
	return out
}

func TestSMAInsufficientDataReturnsNil(t *testing.T) {
	assert.Nil(t, SMA20(uptrendCandles(10), 0), "expected nil with fewer than 20 bars")
}

func TestSMAUptrendIsBullish(t *testing.T) {
	out := SMA20(uptrendCandles(30), 0)
	require.NotNil(t, out)
	assert.Greater(t, out.Score, int8(0))
	assert.Equal(t, domain.Bullish, out.Direction)
}

func TestSMADowntrendIsBearish(t *testing.T) {
	out := SMA20(downtrendCandles(30), 0)
	require.NotNil(t, out)
	assert.Less(t, out.Score, int8(0))
	assert.Equal(t, domain.Bearish, out.Direction)
}

func TestEMAScoreRange(t *testing.T) {
	out := EMA12(uptrendCandles(30), 0)
	require.NotNil(t, out)
	assert.GreaterOrEqual(t, out.Score, int8(-100))
	assert.LessOrEqual(t, out.Score, int8(100))
}

func TestMACDInsufficientData(t *testing.T) {
	assert.Nil(t, MACD(uptrendCandles(30), 0), "expected nil with fewer than 35 bars")
}

func TestMACDProducesFiniteValue(t *testing.T) {
	out := MACD(uptrendCandles(50), 0)
	require.NotNil(t, out)
	assert.GreaterOrEqual(t, out.Score, int8(-100))
	assert.LessOrEqual(t, out.Score, int8(100))
}

func TestRSIOversoldIsBullish(t *testing.T) {
	out := RSI(downtrendCandles(30), 0)
	require.NotNil(t, out)
	assert.Less(t, out.RawValue, 50.0, "expected RSI below 50 in a sustained downtrend")
	assert.Equal(t, domain.Bullish, out.Direction, "expected oversold RSI to read bullish")
}

func TestCCIMinPeriods(t *testing.T) {
	assert.Nil(t, CCI(uptrendCandles(15), 0), "expected nil with fewer than 20 bars")
}

func TestCCIUptrendIsPositive(t *testing.T) {
	out := CCI(uptrendCandles(30), 0)
	require.NotNil(t, out)
	assert.Greater(t, out.RawValue, 0.0, "expected positive CCI in an uptrend")
}

func TestADXMinPeriods(t *testing.T) {
	assert.Nil(t, ADX(uptrendCandles(20), 0), "expected nil with fewer than 29 bars")
}

func TestADXNonNegative(t *testing.T) {
	out := ADX(uptrendCandles(50), 0)
	require.NotNil(t, out)
	assert.GreaterOrEqual(t, out.RawValue, 0.0)
}

func TestBollingerScoreRange(t *testing.T) {
	out := Bollinger(uptrendCandles(30), 0)
	require.NotNil(t, out)
	assert.GreaterOrEqual(t, out.Score, int8(-100))
	assert.LessOrEqual(t, out.Score, int8(100))
}

func TestATRMinPeriods(t *testing.T) {
	assert.Nil(t, ATR(uptrendCandles(10), 0), "expected nil with fewer than 15 bars")
}

func TestOBVMinPeriods(t *testing.T) {
	assert.Nil(t, OBV(uptrendCandles(10), 0), "expected nil with fewer than 15 bars")
}

func TestVWAPPositiveValue(t *testing.T) {
	out := VWAP(uptrendCandles(30), 0)
	require.NotNil(t, out)
	assert.Greater(t, out.RawValue, 0.0)
}

func TestVWAPMinPeriods(t *testing.T) {
	assert.Nil(t, VWAP(uptrendCandles(15), 0), "expected nil with fewer than 20 bars")
}

func TestComputeAllSkipsUnmetMinimums(t *testing.T) {
	out := ComputeAll(uptrendCandles(15), 0)
	for _, so := range out {
		assert.LessOrEqualf(t, MinBars[so.IndicatorID], 15, "indicator %s should not have produced output with only 15 bars", so.IndicatorID)
	}
}

func TestComputeAllFullCatalogueWithEnoughBars(t *testing.T) {
	out := ComputeAll(uptrendCandles(60), 0)
	assert.Len(t, out, len(CatalogueIDs))
}
