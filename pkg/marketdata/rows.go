package marketdata

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/rxtech-lab/argo-signals/internal/types"
	"github.com/rxtech-lab/argo-signals/pkg/errors"
)

// closeField is the position of the close price in a raw kline row.
const closeField = 4

// ParseKlineRows extracts the close of every raw kline row. A close may be a
// string, a float64 or a json.Number.
func ParseKlineRows(rows [][]any) (types.PriceSeries, error) {
	closes := make(types.PriceSeries, len(rows))

	for i, row := range rows {
		if len(row) <= closeField {
			return nil, errors.NewInvalidInputErrorf(i, "kline row %d has %d fields, need at least %d", i, len(row), closeField+1)
		}

		price, err := rowClose(row[closeField])
		if err != nil {
			return nil, errors.WrapInvalidInput(i, fmt.Sprintf("kline row %d close is not a number", i), err)
		}

		closes[i] = price
	}

	return closes, nil
}

func rowClose(value any) (float64, error) {
	switch v := value.(type) {
	case string:
		return parseClose(v)
	case json.Number:
		return parseClose(v.String())
	case float64:
		return v, nil
	default:
		return 0, fmt.Errorf("unexpected close type %T", value)
	}
}

// DecodeKlineRows reads a JSON array of kline rows, as served by
// /api/v3/klines, and returns the closes.
func DecodeKlineRows(r io.Reader) (types.PriceSeries, error) {
	decoder := json.NewDecoder(r)
	decoder.UseNumber()

	var raw []any
	if err := decoder.Decode(&raw); err != nil {
		return nil, errors.WrapInvalidInput(-1, "kline payload is not a JSON array", err)
	}

	rows := make([][]any, len(raw))

	for i, item := range raw {
		row, ok := item.([]any)
		if !ok {
			return nil, errors.NewInvalidInputErrorf(i, "kline row %d is not an array", i)
		}

		rows[i] = row
	}

	return ParseKlineRows(rows)
}
