package coinpoll

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeQuotesSkipsZeroAndMissingPrice(t *testing.T) {
	body := []byte(`{
		"bitcoin": {"usd": 65000.5, "usd_24h_vol": 1200000},
		"dogecoin": {"usd": 0},
		"nothing-useful": {"eur": 10}
	}`)

	quotes, err := decodeQuotes(body)
	require.NoError(t, err)
	require.Len(t, quotes, 1)

	q := quotes[0]
	assert.Equal(t, "bitcoin", q.Symbol)
	assert.Equal(t, 65000.5, q.Price)
	require.NotNil(t, q.Volume24h)
	assert.Equal(t, 1200000.0, *q.Volume24h)
}

func TestDecodeQuotesMalformedBody(t *testing.T) {
	_, err := decodeQuotes([]byte(`not json`))
	assert.Error(t, err, "expected an error for malformed body")
}

func TestJoinSymbolsNormalizes(t *testing.T) {
	got := joinSymbols([]string{"BTC", "Eth", "sol"})
	assert.Equal(t, "btc,eth,sol", got)
}
