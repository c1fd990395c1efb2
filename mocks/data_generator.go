package mocks

import (
	"math"
	"math/rand"
	"strconv"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/rxtech-lab/argo-signals/internal/types"
)

// DataGenerator generates realistic candle data for testing and benchmarking.
type DataGenerator struct {
	rng *rand.Rand
}

// NewDataGenerator creates a new DataGenerator with the given seed.
// Use a fixed seed for reproducible results in tests.
func NewDataGenerator(seed int64) *DataGenerator {
	return &DataGenerator{
		rng: rand.New(rand.NewSource(seed)),
	}
}

// GeneratorConfig configures how candles are generated.
type GeneratorConfig struct {
	// Symbol is the trading pair (e.g., "BTCUSDT", "ETHUSDT")
	Symbol string
	// StartTime is the open time of the first candle
	StartTime time.Time
	// Interval is the duration between each candle
	Interval time.Duration
	// Count is the number of candles to generate
	Count int
	// InitialPrice is the starting price
	InitialPrice float64
	// Volatility controls price movement (0.01 = 1% typical per-candle volatility)
	Volatility float64
	// Trend is the drift across the whole series (-1 to 1 for bearish to bullish)
	Trend float64
	// VolumeBase is the average volume per candle
	VolumeBase float64
	// VolumeVariance is the variance in volume (0.0 to 1.0)
	VolumeVariance float64
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		Symbol:         "BTCUSDT",
		StartTime:      time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Interval:       time.Hour,
		Count:          10000,
		InitialPrice:   100.0,
		Volatility:     0.002, // 0.2% per candle
		Trend:          0.0,   // neutral
		VolumeBase:     10000,
		VolumeVariance: 0.3,
	}
}

// Candle is one generated OHLCV bar.
type Candle struct {
	OpenTime  time.Time
	CloseTime time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
}

// Generate creates candles following a geometric Brownian motion model.
func (g *DataGenerator) Generate(config GeneratorConfig) []Candle {
	data := make([]Candle, config.Count)
	currentPrice := config.InitialPrice
	currentTime := config.StartTime

	for i := 0; i < config.Count; i++ {
		open := currentPrice

		// Box-Muller transform for a standard normal sample
		u1 := g.rng.Float64()
		u2 := g.rng.Float64()
		z := math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)

		priceChange := config.Volatility * z
		drift := config.Trend / float64(config.Count)

		close := open * (1 + priceChange + drift)
		if close <= 0 {
			close = open * 0.99
		}

		highExtension := math.Abs(g.rng.Float64() * config.Volatility * open * 0.5)
		lowExtension := math.Abs(g.rng.Float64() * config.Volatility * open * 0.5)

		high := math.Max(open, close) + highExtension
		low := math.Min(open, close) - lowExtension
		if low <= 0 {
			low = math.Min(open, close) * 0.99
		}

		volumeVariation := 1.0 + (g.rng.Float64()*2-1)*config.VolumeVariance
		volume := config.VolumeBase * volumeVariation
		if volume < 0 {
			volume = config.VolumeBase * 0.1
		}

		data[i] = Candle{
			OpenTime:  currentTime,
			CloseTime: currentTime.Add(config.Interval - time.Millisecond),
			Open:      roundToDecimals(open, 4),
			High:      roundToDecimals(high, 4),
			Low:       roundToDecimals(low, 4),
			Close:     roundToDecimals(close, 4),
			Volume:    roundToDecimals(volume, 2),
		}

		currentPrice = close
		currentTime = currentTime.Add(config.Interval)
	}

	return data
}

// GenerateCloses returns only the closing prices of a generated series.
func (g *DataGenerator) GenerateCloses(config GeneratorConfig) types.PriceSeries {
	candles := g.Generate(config)
	closes := make(types.PriceSeries, len(candles))

	for i, c := range candles {
		closes[i] = c.Close
	}

	return closes
}

// GenerateKlines returns a generated series in the go-binance kline shape.
func (g *DataGenerator) GenerateKlines(config GeneratorConfig) []*binance.Kline {
	candles := g.Generate(config)
	klines := make([]*binance.Kline, len(candles))

	for i, c := range candles {
		klines[i] = &binance.Kline{
			OpenTime:  c.OpenTime.UnixMilli(),
			Open:      formatPrice(c.Open),
			High:      formatPrice(c.High),
			Low:       formatPrice(c.Low),
			Close:     formatPrice(c.Close),
			Volume:    formatPrice(c.Volume),
			CloseTime: c.CloseTime.UnixMilli(),
			TradeNum:  int64(100 + i%50),
		}
	}

	return klines
}

// KlineRows converts klines into the raw row layout served by /api/v3/klines:
// [openTime, open, high, low, close, volume, closeTime, quoteVolume, trades, takerBase, takerQuote, ignore].
func KlineRows(klines []*binance.Kline) [][]any {
	rows := make([][]any, len(klines))

	for i, k := range klines {
		rows[i] = []any{
			k.OpenTime, k.Open, k.High, k.Low, k.Close, k.Volume,
			k.CloseTime, "0", k.TradeNum, "0", "0", "0",
		}
	}

	return rows
}

// CloseKlines wraps a fixed price series as klines spaced one hour apart.
func CloseKlines(closes []float64) []*binance.Kline {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	klines := make([]*binance.Kline, len(closes))

	for i, c := range closes {
		open := start.Add(time.Duration(i) * time.Hour)
		price := formatPrice(c)
		klines[i] = &binance.Kline{
			OpenTime:  open.UnixMilli(),
			Open:      price,
			High:      price,
			Low:       price,
			Close:     price,
			Volume:    "1",
			CloseTime: open.Add(time.Hour - time.Millisecond).UnixMilli(),
		}
	}

	return klines
}

// GenerateMultiSymbol generates closes for multiple symbols keyed by symbol.
func (g *DataGenerator) GenerateMultiSymbol(symbols []string, baseConfig GeneratorConfig) map[string]types.PriceSeries {
	all := make(map[string]types.PriceSeries, len(symbols))

	for _, symbol := range symbols {
		config := baseConfig
		config.Symbol = symbol
		config.InitialPrice = baseConfig.InitialPrice * (0.8 + g.rng.Float64()*0.4)
		config.Volatility = baseConfig.Volatility * (0.8 + g.rng.Float64()*0.4)

		all[symbol] = g.GenerateCloses(config)
	}

	return all
}

func formatPrice(v float64) string {
	return strconv.FormatFloat(v, 'f', 8, 64)
}

func roundToDecimals(val float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))
	return math.Round(val*pow) / pow
}
