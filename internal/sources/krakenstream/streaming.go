// Package krakenstream is the streaming source adapter: it maintains one
// long-lived WebSocket to a Kraken-shaped ticker feed, re-subscribes after
// reconnect, and answers server/own keepalives.
package krakenstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/marketcore/core/internal/domain"
	"github.com/marketcore/core/internal/netutil/circuit"
	"github.com/marketcore/core/internal/sources"
	"github.com/marketcore/core/internal/telemetry"
)

const (
	identity = domain.SourceKraken

	defaultReconnectDelay = 5 * time.Second
	pingInterval          = 30 * time.Second
	readDeadline          = 60 * time.Second
)

// Config configures one Adapter instance.
type Config struct {
	URL            string
	Symbols        []string
	ReconnectDelay time.Duration
}

// Adapter is the streaming source adapter. It is constructed
// with (config, Arc<PriceCache>, Arc<ChartStore>) -- here, shared read-only
// handles -- and exposes a single Start that spawns its background task.
type Adapter struct {
	cfg     Config
	prices  sources.PriceWriter
	charts  sources.ChartWriter
	metrics *telemetry.Registry
	breaker *circuit.Breaker

	sources.HealthTracker

	mu   sync.Mutex
	conn *websocket.Conn
}

// New constructs a streaming adapter. prices and charts are shared,
// read-only handles to the L0 components.
func New(cfg Config, prices sources.PriceWriter, charts sources.ChartWriter, metrics *telemetry.Registry) *Adapter {
	if cfg.URL == "" {
		cfg.URL = "wss://ws.kraken.com"
	}
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = defaultReconnectDelay
	}
	breaker := circuit.NewBreaker(circuit.Config{
		FailureThreshold: 5,
		SuccessThreshold: 1,
		OpenTimeout:      30 * time.Second,
	})
	return &Adapter{cfg: cfg, prices: prices, charts: charts, metrics: metrics, breaker: breaker}
}

func (a *Adapter) Identity() domain.SourceIdentity { return identity }

func (a *Adapter) Health() sources.Health { return a.Snapshot() }

// Start spawns the adapter's reconnect-loop background task and returns
// immediately.
func (a *Adapter) Start(ctx context.Context) {
	go a.runLoop(ctx)
}

// runLoop is the per-adapter restart loop: it catches and logs any
// unrecoverable error, then resumes after ReconnectDelay. One adapter's failure never affects any other adapter.
func (a *Adapter) runLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		err := a.breaker.Call(ctx, a.connectAndServe)
		switch {
		case errors.Is(err, circuit.ErrOpen):
			log.Warn().Str("source", identity.String()).Msg("streaming adapter circuit open, holding off reconnect")
		case err != nil:
			log.Warn().Err(err).Str("source", identity.String()).Msg("streaming adapter disconnected, reconnecting")
			a.RecordFailure()
			a.SetConnected(false)
			if a.metrics != nil {
				a.metrics.IncAdapterReconnect(identity.String())
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(a.cfg.ReconnectDelay):
		}
	}
}

func (a *Adapter) connectAndServe(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, a.cfg.URL, nil)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.Close()

	a.mu.Lock()
	a.conn = conn
	a.mu.Unlock()
	a.SetConnected(true)

	if err := a.sendSubscription(conn); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}

	readErrCh := make(chan error, 1)
	go a.readLoop(conn, readErrCh)

	pingTicker := time.NewTicker(pingInterval)
	defer pingTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-readErrCh:
			return err
		case <-pingTicker.C:
			conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return fmt.Errorf("ping: %w", err)
			}
		}
	}
}

// subscriptionFrame is the enumerating-symbols frame sent on connect and
// re-sent after every reconnect.
type subscriptionFrame struct {
	Event        string   `json:"event"`
	Pair         []string `json:"pair"`
	Subscription struct {
		Name string `json:"name"`
	} `json:"subscription"`
}

func (a *Adapter) sendSubscription(conn *websocket.Conn) error {
	frame := subscriptionFrame{Event: "subscribe", Pair: sources.NormalizeSymbols(a.cfg.Symbols)}
	frame.Subscription.Name = "ticker"
	data, err := json.Marshal(frame)
	if err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, data)
}

// tickerMessage is one decoded inbound tick. handleFrame accepts a single
// flat object of this shape or a JSON array of them; Kraken's own 4-element
// array framing [channelID, data, channelName, pair] is not unwrapped and
// fails to decode.
type tickerMessage struct {
	Pair   string `json:"pair"`
	Price  string `json:"c"` // close/last trade price, Kraken "c" field shape
	Volume string `json:"v"` // 24h volume
}

func (a *Adapter) readLoop(conn *websocket.Conn, errCh chan<- error) {
	for {
		conn.SetReadDeadline(time.Now().Add(readDeadline))
		_, data, err := conn.ReadMessage()
		if err != nil {
			errCh <- fmt.Errorf("read: %w", err)
			return
		}
		if err := a.handleFrame(data); err != nil {
			if a.metrics != nil {
				a.metrics.IncAdapterDecodeError(identity.String())
			}
			log.Warn().Err(err).Str("source", identity.String()).Msg("dropping malformed frame")
		}
	}
}

func (a *Adapter) handleFrame(data []byte) error {
	start := time.Now()

	var msgs []tickerMessage
	if err := json.Unmarshal(data, &msgs); err != nil {
		// Not a batch array; try a single object.
		var one tickerMessage
		if err2 := json.Unmarshal(data, &one); err2 != nil {
			return fmt.Errorf("decode ticker frame: %w", err)
		}
		msgs = []tickerMessage{one}
	}

	for _, m := range msgs {
		if m.Pair == "" || m.Price == "" {
			continue
		}
		price, err := strconv.ParseFloat(m.Price, 64)
		if err != nil {
			continue
		}
		var volPtr *float64
		if m.Volume != "" {
			if v, err := strconv.ParseFloat(m.Volume, 64); err == nil {
				volPtr = &v
			}
		}

		symbol := domain.NormalizeSymbol(m.Pair)
		nowMs := time.Now().UnixMilli()
		a.prices.UpdatePrice(symbol, identity, price, volPtr)
		a.charts.AddPrice(symbol, price, volPtr, nowMs)
	}

	a.RecordSuccess(time.Since(start))
	if a.metrics != nil {
		a.metrics.ObserveAdapterLatencyMs(identity.String(), float64(time.Since(start).Milliseconds()))
	}
	return nil
}
