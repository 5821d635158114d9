package indicators

import "github.com/marketcore/core/internal/domain"

// CatalogueIDs is the closed, ordered set of indicator IDs; adding one is a
// compile-time change.
var CatalogueIDs = []string{
	"sma20", "sma50", "ema12", "ema26", "macd",
	"rsi", "cci", "adx", "bollinger", "atr", "obv", "vwap",
}

// ComputeAll runs the full catalogue against candles, skipping any indicator
// whose minimum bar requirement isn't met (missing chart data is not an
// error -- it simply yields fewer signals).
func ComputeAll(candles []domain.OhlcPoint, tsMs int64) []domain.SignalOutput {
	var out []domain.SignalOutput
	for _, fn := range []func([]domain.OhlcPoint, int64) *domain.SignalOutput{
		SMA20, SMA50, EMA12, EMA26, MACD, RSI, CCI, ADX, Bollinger, ATR, OBV, VWAP,
	} {
		if so := fn(candles, tsMs); so != nil {
			out = append(out, *so)
		}
	}
	return out
}
