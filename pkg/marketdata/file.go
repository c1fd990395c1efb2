package marketdata

import (
	"context"
	"os"

	"github.com/rxtech-lab/argo-signals/internal/types"
	"github.com/rxtech-lab/argo-signals/pkg/errors"
)

// FileSource serves closes from a JSON kline dump on disk. Symbol and
// interval only label the request; the file is the whole series.
type FileSource struct {
	path      string
	minCloses int
}

// NewFileSource creates a source that reads path on every fetch.
func NewFileSource(path string, minCloses int) *FileSource {
	if minCloses < 1 {
		minCloses = DefaultMinCloses
	}

	return &FileSource{path: path, minCloses: minCloses}
}

// FetchCloses reads and parses the file.
func (s *FileSource) FetchCloses(ctx context.Context, symbol string, interval Interval) (types.PriceSeries, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := checkRequest(symbol, interval); err != nil {
		return nil, err
	}

	f, err := os.Open(s.path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeDataNotFound, err, "failed to open kline file %s", s.path)
	}
	defer f.Close()

	closes, err := DecodeKlineRows(f)
	if err != nil {
		return nil, err
	}

	if err := checkLength(closes, s.minCloses, symbol); err != nil {
		return nil, err
	}

	return closes, nil
}
