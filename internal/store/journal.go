package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-signals/internal/types"
	"github.com/rxtech-lab/argo-signals/pkg/errors"
	"go.uber.org/zap"
)

const (
	// DefaultRecentLimit is the number of entries Recent returns when limit <= 0.
	DefaultRecentLimit = 50
	// MaxRecentLimit caps a single Recent query.
	MaxRecentLimit = 1000
)

// Entry is one journaled analysis. Indicator columns are None when the
// corresponding series was empty.
type Entry struct {
	ID         int64                    `json:"id"`
	RequestID  string                   `json:"requestId"`
	Symbol     string                   `json:"symbol"`
	Interval   string                   `json:"interval"`
	ComputedAt time.Time                `json:"computedAt"`
	Price      float64                  `json:"price"`
	Samples    int                      `json:"samples"`
	SMA        optional.Option[float64] `json:"sma"`
	EMA        optional.Option[float64] `json:"ema"`
	RSI        optional.Option[float64] `json:"rsi"`
	MACD       optional.Option[float64] `json:"macd"`
	MACDSignal optional.Option[float64] `json:"macdSignal"`
	Histogram  optional.Option[float64] `json:"histogram"`
	UpperBand  optional.Option[float64] `json:"upperBand"`
	MiddleBand optional.Option[float64] `json:"middleBand"`
	LowerBand  optional.Option[float64] `json:"lowerBand"`
	Signal     types.SignalResult       `json:"signal"`
}

// Journal records analyses in the analyses table.
type Journal struct {
	store *DB
}

// NewJournal returns a journal writing to db.
func NewJournal(db *DB) *Journal {
	return &Journal{store: db}
}

// Record inserts the tail values of one analysis.
func (j *Journal) Record(ctx context.Context, a types.Analysis) error {
	set := a.Indicators

	var macd, macdSignal, histogram sql.NullFloat64
	if point := set.LastMACD(); point.IsSome() {
		p := point.Unwrap()
		macd = nullFloat(optional.Some(p.MACD))
		macdSignal = nullFloat(optional.Some(p.Signal))
		histogram = nullFloat(optional.Some(p.Histogram))
	}

	var upper, middle, lower sql.NullFloat64
	if band := set.LastBollingerBand(); band.IsSome() {
		b := band.Unwrap()
		upper = nullFloat(optional.Some(b.Upper))
		middle = nullFloat(optional.Some(b.Middle))
		lower = nullFloat(optional.Some(b.Lower))
	}

	_, err := j.store.sq.
		Insert("analyses").
		Columns(
			"id",
			"request_id",
			"symbol",
			"kline_interval",
			"computed_at",
			"price",
			"samples",
			"sma",
			"ema",
			"rsi",
			"macd",
			"macd_signal",
			"histogram",
			"upper_band",
			"middle_band",
			"lower_band",
			"buy_signal",
			"sell_signal",
		).
		Values(
			squirrel.Expr("nextval('analysis_id_seq')"),
			a.RequestID,
			a.Symbol,
			a.Interval,
			a.ComputedAt.UTC(),
			a.CurrentPrice,
			a.Samples,
			nullFloat(set.LastSMA()),
			nullFloat(set.LastEMA()),
			nullFloat(set.LastRSI()),
			macd,
			macdSignal,
			histogram,
			upper,
			middle,
			lower,
			a.Signal.BuySignal,
			a.Signal.SellSignal,
		).
		RunWith(j.store.db).
		ExecContext(ctx)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeQueryFailed, err, "failed to record analysis for %s", a.Symbol)
	}

	j.store.logger.Debug("Recorded analysis",
		zap.String("request_id", a.RequestID),
		zap.String("symbol", a.Symbol),
		zap.String("interval", a.Interval))

	return nil
}

// Recent returns up to limit entries, newest first. An empty symbol or
// interval matches every value.
func (j *Journal) Recent(ctx context.Context, symbol, interval string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}

	if limit > MaxRecentLimit {
		limit = MaxRecentLimit
	}

	where := squirrel.And{}
	if symbol != "" {
		where = append(where, squirrel.Eq{"symbol": symbol})
	}

	if interval != "" {
		where = append(where, squirrel.Eq{"kline_interval": interval})
	}

	query := j.store.sq.
		Select(
			"id",
			"request_id",
			"symbol",
			"kline_interval",
			"computed_at",
			"price",
			"samples",
			"sma",
			"ema",
			"rsi",
			"macd",
			"macd_signal",
			"histogram",
			"upper_band",
			"middle_band",
			"lower_band",
			"buy_signal",
			"sell_signal",
		).
		From("analyses").
		OrderBy("id DESC").
		Limit(uint64(limit))

	if len(where) > 0 {
		query = query.Where(where)
	}

	rows, err := query.RunWith(j.store.db).QueryContext(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query analyses", err)
	}
	defer rows.Close()

	entries := []Entry{}

	for rows.Next() {
		var (
			entry                                 Entry
			sma, ema, rsi, macd, macdSignal, hist sql.NullFloat64
			upper, middle, lower                  sql.NullFloat64
		)

		err := rows.Scan(
			&entry.ID,
			&entry.RequestID,
			&entry.Symbol,
			&entry.Interval,
			&entry.ComputedAt,
			&entry.Price,
			&entry.Samples,
			&sma,
			&ema,
			&rsi,
			&macd,
			&macdSignal,
			&hist,
			&upper,
			&middle,
			&lower,
			&entry.Signal.BuySignal,
			&entry.Signal.SellSignal,
		)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan analysis", err)
		}

		entry.SMA = fromNull(sma)
		entry.EMA = fromNull(ema)
		entry.RSI = fromNull(rsi)
		entry.MACD = fromNull(macd)
		entry.MACDSignal = fromNull(macdSignal)
		entry.Histogram = fromNull(hist)
		entry.UpperBand = fromNull(upper)
		entry.MiddleBand = fromNull(middle)
		entry.LowerBand = fromNull(lower)
		entry.ComputedAt = entry.ComputedAt.UTC()

		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to iterate analyses", err)
	}

	return entries, nil
}

func nullFloat(v optional.Option[float64]) sql.NullFloat64 {
	if v.IsNone() {
		return sql.NullFloat64{}
	}

	return sql.NullFloat64{Float64: v.Unwrap(), Valid: true}
}

func fromNull(v sql.NullFloat64) optional.Option[float64] {
	if !v.Valid {
		return optional.None[float64]()
	}

	return optional.Some(v.Float64)
}
