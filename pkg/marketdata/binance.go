package marketdata

import (
	"context"

	"github.com/adshao/go-binance/v2"
	"github.com/rxtech-lab/argo-signals/internal/types"
	"github.com/rxtech-lab/argo-signals/pkg/errors"
	"github.com/shopspring/decimal"
)

// BinanceKlinesService is the subset of the go-binance klines service used here.
type BinanceKlinesService interface {
	Symbol(symbol string) BinanceKlinesService
	Interval(interval string) BinanceKlinesService
	Limit(limit int) BinanceKlinesService
	Do(ctx context.Context) ([]*binance.Kline, error)
}

// BinanceAPIClient abstracts the Binance client for testing.
type BinanceAPIClient interface {
	NewKlinesService() BinanceKlinesService
}

// realBinanceClient wraps the actual binance.Client.
type realBinanceClient struct {
	client *binance.Client
}

func (r *realBinanceClient) NewKlinesService() BinanceKlinesService {
	return &realKlinesService{service: r.client.NewKlinesService()}
}

type realKlinesService struct {
	service *binance.KlinesService
}

func (s *realKlinesService) Symbol(symbol string) BinanceKlinesService {
	s.service.Symbol(symbol)
	return s
}

func (s *realKlinesService) Interval(interval string) BinanceKlinesService {
	s.service.Interval(interval)
	return s
}

func (s *realKlinesService) Limit(limit int) BinanceKlinesService {
	s.service.Limit(limit)
	return s
}

func (s *realKlinesService) Do(ctx context.Context) ([]*binance.Kline, error) {
	return s.service.Do(ctx)
}

type binanceConfig struct {
	baseURL   string
	limit     int
	minCloses int
}

// BinanceOption configures a BinanceSource.
type BinanceOption func(*binanceConfig) error

// WithBaseURL points the client at another REST endpoint, e.g. a mock server.
func WithBaseURL(url string) BinanceOption {
	return func(c *binanceConfig) error {
		c.baseURL = url
		return nil
	}
}

// WithLimit sets the number of klines requested (1..1000).
func WithLimit(limit int) BinanceOption {
	return func(c *binanceConfig) error {
		if limit < 1 || limit > MaxLimit {
			return errors.Newf(errors.ErrCodeInvalidParameter, "kline limit must be between 1 and %d, got %d", MaxLimit, limit)
		}

		c.limit = limit

		return nil
	}
}

// WithMinCloses sets the shortest series accepted from the exchange.
func WithMinCloses(n int) BinanceOption {
	return func(c *binanceConfig) error {
		if n < 1 {
			return errors.Newf(errors.ErrCodeInvalidParameter, "min closes must be positive, got %d", n)
		}

		c.minCloses = n

		return nil
	}
}

// BinanceSource fetches closing prices from the Binance /api/v3/klines endpoint.
type BinanceSource struct {
	apiClient BinanceAPIClient
	limit     int
	minCloses int
}

// NewBinanceSource creates a source backed by the public Binance REST API.
func NewBinanceSource(opts ...BinanceOption) (*BinanceSource, error) {
	config, err := buildBinanceConfig(opts)
	if err != nil {
		return nil, err
	}

	// market data endpoints need no credentials
	client := binance.NewClient("", "")
	if config.baseURL != "" {
		client.BaseURL = config.baseURL
	}

	return &BinanceSource{
		apiClient: &realBinanceClient{client: client},
		limit:     config.limit,
		minCloses: config.minCloses,
	}, nil
}

// NewBinanceSourceWithAPI creates a source over a custom client.
// This is used for testing with mock clients.
func NewBinanceSourceWithAPI(api BinanceAPIClient, opts ...BinanceOption) (*BinanceSource, error) {
	config, err := buildBinanceConfig(opts)
	if err != nil {
		return nil, err
	}

	return &BinanceSource{
		apiClient: api,
		limit:     config.limit,
		minCloses: config.minCloses,
	}, nil
}

func buildBinanceConfig(opts []BinanceOption) (binanceConfig, error) {
	config := binanceConfig{limit: DefaultLimit, minCloses: DefaultMinCloses}

	for _, opt := range opts {
		if err := opt(&config); err != nil {
			return binanceConfig{}, err
		}
	}

	return config, nil
}

// Limit returns the number of klines requested per fetch.
func (s *BinanceSource) Limit() int {
	return s.limit
}

// MinCloses returns the shortest series accepted from the exchange.
func (s *BinanceSource) MinCloses() int {
	return s.minCloses
}

// FetchCloses requests the latest klines and returns their closing prices.
func (s *BinanceSource) FetchCloses(ctx context.Context, symbol string, interval Interval) (types.PriceSeries, error) {
	if err := checkRequest(symbol, interval); err != nil {
		return nil, err
	}

	klines, err := s.apiClient.NewKlinesService().
		Symbol(symbol).
		Interval(string(interval)).
		Limit(s.limit).
		Do(ctx)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeMarketDataFetchFailed, err, "failed to fetch klines for %s", symbol)
	}

	closes, err := KlineCloses(klines)
	if err != nil {
		return nil, err
	}

	if err := checkLength(closes, s.minCloses, symbol); err != nil {
		return nil, err
	}

	return closes, nil
}

// KlineCloses extracts the closing prices of klines in order.
func KlineCloses(klines []*binance.Kline) (types.PriceSeries, error) {
	closes := make(types.PriceSeries, len(klines))

	for i, k := range klines {
		if k == nil {
			return nil, errors.NewInvalidInputErrorf(i, "kline %d is missing", i)
		}

		price, err := parseClose(k.Close)
		if err != nil {
			return nil, errors.WrapInvalidInput(i, "kline close is not a number", err)
		}

		closes[i] = price
	}

	return closes, nil
}

func parseClose(value string) (float64, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return 0, err
	}

	price, _ := d.Float64()

	return price, nil
}
