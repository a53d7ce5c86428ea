package data

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/sawpanic/equityrun/internal/config"
	"github.com/sawpanic/equityrun/internal/indicators"
	"github.com/sawpanic/equityrun/internal/models"
)

// Client implements MarketDataSource against a Polygon-style REST API with
// token-bucket rate limiting and a circuit breaker around every call.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
}

// NewClient builds a market data client from configuration.
func NewClient(cfg config.DataSourceConfig) *Client {
	settings := gobreaker.Settings{
		Name:    "market_data",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
		},
	}

	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), cfg.Burst),
		breaker: gobreaker.NewCircuitBreaker(settings),
	}
}

// snapshotResponse mirrors the bulk snapshot endpoint payload.
type snapshotResponse struct {
	Tickers []struct {
		Ticker string `json:"ticker"`
		Day    struct {
			Open   float64 `json:"o"`
			High   float64 `json:"h"`
			Low    float64 `json:"l"`
			Close  float64 `json:"c"`
			Volume float64 `json:"v"`
			VWAP   float64 `json:"vw"`
		} `json:"day"`
		PrevDay struct {
			Volume float64 `json:"v"`
		} `json:"prevDay"`
		TodaysChangePerc float64 `json:"todaysChangePerc"`
		LastTrade        struct {
			Price float64 `json:"p"`
		} `json:"lastTrade"`
		Updated int64 `json:"updated"`
	} `json:"tickers"`
}

// GetUniverseSnapshot fetches the whole universe in one bulk call.
func (c *Client) GetUniverseSnapshot(ctx context.Context) ([]models.TickerSnapshot, error) {
	var resp snapshotResponse
	if err := c.getJSON(ctx, "/v2/snapshot/locale/us/markets/stocks/tickers", nil, &resp); err != nil {
		return nil, fmt.Errorf("universe snapshot: %w", err)
	}

	out := make([]models.TickerSnapshot, 0, len(resp.Tickers))
	for _, t := range resp.Tickers {
		price := t.LastTrade.Price
		if price == 0 {
			price = t.Day.Close
		}
		out = append(out, models.TickerSnapshot{
			Symbol:        t.Ticker,
			Price:         price,
			Open:          t.Day.Open,
			High:          t.Day.High,
			Low:           t.Day.Low,
			Close:         t.Day.Close,
			VWAP:          t.Day.VWAP,
			Volume:        int64(t.Day.Volume),
			PrevDayVolume: int64(t.PrevDay.Volume),
			PctChange:     t.TodaysChangePerc,
			DataTimestamp: time.Unix(0, t.Updated),
		})
	}
	return out, nil
}

type aggsResponse struct {
	Results []struct {
		High   float64 `json:"h"`
		Low    float64 `json:"l"`
		Close  float64 `json:"c"`
		Volume float64 `json:"v"`
	} `json:"results"`
}

// GetHistoricalBars fetches daily OHLCV bars, chronological order.
func (c *Client) GetHistoricalBars(ctx context.Context, symbol string, lookbackDays int) ([]indicators.Bar, error) {
	to := time.Now().UTC()
	from := to.AddDate(0, 0, -lookbackDays*2) // pad for non-trading days

	path := fmt.Sprintf("/v2/aggs/ticker/%s/range/1/day/%s/%s",
		url.PathEscape(symbol), from.Format("2006-01-02"), to.Format("2006-01-02"))

	var resp aggsResponse
	if err := c.getJSON(ctx, path, url.Values{"sort": {"asc"}, "limit": {"120"}}, &resp); err != nil {
		return nil, fmt.Errorf("historical bars %s: %w", symbol, err)
	}

	bars := make([]indicators.Bar, 0, len(resp.Results))
	for _, r := range resp.Results {
		bars = append(bars, indicators.Bar{High: r.High, Low: r.Low, Close: r.Close, Volume: r.Volume})
	}
	if len(bars) > lookbackDays {
		bars = bars[len(bars)-lookbackDays:]
	}
	return bars, nil
}

// GetVolumeCurve builds cumulative intraday volume curves for today and the
// prior session from minute aggregates.
func (c *Client) GetVolumeCurve(ctx context.Context, symbol string) (VolumeCurve, error) {
	today := time.Now().UTC().Format("2006-01-02")
	yesterday := time.Now().UTC().AddDate(0, 0, -1).Format("2006-01-02")

	cumToday, err := c.minuteCumulative(ctx, symbol, today)
	if err != nil {
		return VolumeCurve{}, err
	}
	cumRef, err := c.minuteCumulative(ctx, symbol, yesterday)
	if err != nil {
		return VolumeCurve{}, err
	}
	return VolumeCurve{Today: cumToday, Reference: cumRef}, nil
}

func (c *Client) minuteCumulative(ctx context.Context, symbol, day string) ([]float64, error) {
	path := fmt.Sprintf("/v2/aggs/ticker/%s/range/5/minute/%s/%s", url.PathEscape(symbol), day, day)

	var resp aggsResponse
	if err := c.getJSON(ctx, path, url.Values{"sort": {"asc"}, "limit": {"200"}}, &resp); err != nil {
		return nil, fmt.Errorf("minute bars %s %s: %w", symbol, day, err)
	}

	cum := make([]float64, 0, len(resp.Results))
	var total float64
	for _, r := range resp.Results {
		total += r.Volume
		cum = append(cum, total)
	}
	return cum, nil
}

// getJSON performs a rate-limited GET through the circuit breaker.
func (c *Client) getJSON(ctx context.Context, path string, params url.Values, v any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	_, err := c.breaker.Execute(func() (any, error) {
		u, err := url.Parse(c.baseURL + path)
		if err != nil {
			return nil, err
		}
		q := u.Query()
		for k, vals := range params {
			for _, val := range vals {
				q.Add(k, val)
			}
		}
		if c.apiKey != "" {
			q.Set("apiKey", c.apiKey)
		}
		u.RawQuery = q.Encode()

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return nil, err
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
		}
		return nil, json.NewDecoder(resp.Body).Decode(v)
	})
	return err
}
