// Package marketdata loads closing price series for the indicator engine.
package marketdata

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/rxtech-lab/argo-signals/internal/types"
	"github.com/rxtech-lab/argo-signals/pkg/errors"
)

const (
	// DefaultLimit is the number of klines requested per fetch.
	DefaultLimit = 480
	// MaxLimit is the largest page Binance serves.
	MaxLimit = 1000
	// DefaultMinCloses is the shortest series a source returns without error.
	DefaultMinCloses = 100
)

// Source provides the closing prices for a symbol, oldest first.
type Source interface {
	FetchCloses(ctx context.Context, symbol string, interval Interval) (types.PriceSeries, error)
}

// SourceType defines the kind of market data source.
type SourceType string

const (
	SourceBinance SourceType = "binance"
	SourceFile    SourceType = "file"
)

// SourceConfig holds the configuration for NewSource.
type SourceConfig struct {
	Type      SourceType `validate:"required,oneof=binance file"`
	BaseURL   string     `validate:"omitempty,url"`
	Limit     int        `validate:"omitempty,min=1,max=1000"`
	MinCloses int        `validate:"omitempty,min=1"`
	FilePath  string     `validate:"required_if=Type file"`
}

// NewSource creates the source described by config.
func NewSource(config SourceConfig) (Source, error) {
	validate := validator.New()
	if err := validate.Struct(config); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid source configuration", err)
	}

	minCloses := DefaultMinCloses
	if config.MinCloses > 0 {
		minCloses = config.MinCloses
	}

	switch config.Type {
	case SourceBinance:
		opts := []BinanceOption{WithMinCloses(minCloses)}
		if config.BaseURL != "" {
			opts = append(opts, WithBaseURL(config.BaseURL))
		}

		if config.Limit > 0 {
			opts = append(opts, WithLimit(config.Limit))
		}

		return NewBinanceSource(opts...)
	case SourceFile:
		return NewFileSource(config.FilePath, minCloses), nil
	default:
		return nil, errors.New(errors.ErrCodeInvalidConfiguration, fmt.Sprintf("unsupported source type: %s", config.Type))
	}
}

func checkRequest(symbol string, interval Interval) error {
	if symbol == "" {
		return errors.New(errors.ErrCodeMissingParameter, "symbol is required")
	}

	return interval.Validate()
}

func checkLength(closes types.PriceSeries, minCloses int, symbol string) error {
	if len(closes) < minCloses {
		return errors.NewInsufficientDataErrorf(minCloses, len(closes), symbol,
			"insufficient klines for %s: required %d, got %d", symbol, minCloses, len(closes))
	}

	return nil
}
