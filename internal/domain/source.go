package domain

import "fmt"

// SourceIdentity is a closed, compile-time enumerated set of market-data
// providers. Parsing from string is a lookup against sourceNames, never a
// registration -- adding a provider is a compile-time change.
type SourceIdentity int

const (
	SourceUnknown SourceIdentity = iota
	SourceKraken
	SourceCoinbase
	SourceBinance
	SourceOKX
	SourceAlpaca
	SourceCoinGecko
	SourceCoinMarketCap
	SourceCryptoCompare
	SourceFinnhub
	SourceFinnhubStream
)

// sourceWeights is the static trust/quality weight per provider, in [1,100].
// Streaming exchange order books are trusted most; polled aggregators that
// themselves average many venues are trusted least since their staleness is
// hardest to bound.
var sourceWeights = map[SourceIdentity]int{
	SourceKraken:        90,
	SourceCoinbase:       88,
	SourceBinance:        85,
	SourceOKX:            80,
	SourceAlpaca:         75,
	SourceFinnhubStream:  70,
	SourceFinnhub:        60,
	SourceCryptoCompare:  50,
	SourceCoinGecko:      40,
	SourceCoinMarketCap:  35,
}

var sourceNames = map[SourceIdentity]string{
	SourceKraken:        "kraken",
	SourceCoinbase:      "coinbase",
	SourceBinance:       "binance",
	SourceOKX:           "okx",
	SourceAlpaca:        "alpaca",
	SourceCoinGecko:     "coingecko",
	SourceCoinMarketCap: "coinmarketcap",
	SourceCryptoCompare: "cryptocompare",
	SourceFinnhub:       "finnhub",
	SourceFinnhubStream: "finnhub_ws",
}

// Weight returns the static trust weight for a source, or 0 for an unknown
// source (callers treat a 0-weight source as having no vote in aggregation).
func (s SourceIdentity) Weight() int {
	return sourceWeights[s]
}

// String renders the canonical lowercase provider name.
func (s SourceIdentity) String() string {
	if name, ok := sourceNames[s]; ok {
		return name
	}
	return "unknown"
}

// ParseSourceIdentity looks up a SourceIdentity by its canonical name. This
// is a closed-set lookup, not a registration mechanism.
func ParseSourceIdentity(name string) (SourceIdentity, error) {
	name = NormalizeSymbol(name)
	for id, n := range sourceNames {
		if n == name {
			return id, nil
		}
	}
	return SourceUnknown, fmt.Errorf("unknown source identity %q", name)
}
