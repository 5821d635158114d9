package domain

// SourcePrice is one provider's observation of a symbol's price at ingest
// time. Timestamp is wall-clock milliseconds at ingest, not an
// exchange-reported trade time.
type SourcePrice struct {
	Source      SourceIdentity
	Price       float64
	TimestampMs int64
	Volume24h   *float64
}

// AggregatedPrice is the weighted-mean result published on the price cache's
// broadcast channel.
type AggregatedPrice struct {
	Symbol         string
	Price          float64
	PreviousPrice  *float64
	Volume24h      *float64
	PrimarySource  SourceIdentity
	Sources        []SourceIdentity
	TimestampMs    int64
}

// OHLCBucket represents all trades whose ingest time fell within
// [BucketStartUnixS, BucketStartUnixS+resolution).
type OHLCBucket struct {
	BucketStartUnixS int64
	Open             float64
	High             float64
	Low              float64
	Close            float64
	Volume           float64
}

// OhlcPoint is the read-side shape returned by GetChart.
type OhlcPoint struct {
	BucketStartUnixS int64   `json:"bucket_start_unix_s"`
	Open             float64 `json:"open"`
	High             float64 `json:"high"`
	Low              float64 `json:"low"`
	Close            float64 `json:"close"`
	Volume           float64 `json:"volume,omitempty"`
}
