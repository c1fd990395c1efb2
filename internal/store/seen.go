package store

import (
	"context"
	"database/sql"
	"sync"

	"github.com/Masterminds/squirrel"
	"github.com/rxtech-lab/argo-signals/internal/notification"
	"github.com/rxtech-lab/argo-signals/pkg/errors"
)

var _ notification.SeenStore = (*SeenStore)(nil)

// SeenStore keeps dedup keys in the seen_keys table so they survive restarts.
// Each key carries an insertion sequence; the lowest sequences are evicted
// once the table exceeds capacity.
type SeenStore struct {
	mu       sync.Mutex
	store    *DB
	capacity int
}

// NewSeenStore returns a store holding at most capacity keys.
func NewSeenStore(db *DB, capacity int) (*SeenStore, error) {
	if capacity <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidCapacity, "seen store capacity must be positive, got %d", capacity)
	}

	return &SeenStore{store: db, capacity: capacity}, nil
}

func (s *SeenStore) Seen(ctx context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.exists(ctx, s.store.db, key)
}

func (s *SeenStore) Add(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to begin transaction", err)
	}

	if err := s.add(ctx, tx, key); err != nil {
		_ = tx.Rollback()

		return err
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to commit seen key", err)
	}

	return nil
}

func (s *SeenStore) Len(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.count(ctx, s.store.db)
}

func (s *SeenStore) add(ctx context.Context, tx *sql.Tx, key string) error {
	found, err := s.exists(ctx, tx, key)
	if err != nil {
		return err
	}

	if found {
		return nil
	}

	_, err = s.store.sq.
		Insert("seen_keys").
		Columns("key", "seq").
		Values(key, squirrel.Expr("nextval('seen_seq')")).
		RunWith(tx).
		ExecContext(ctx)
	if err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to insert seen key", err)
	}

	size, err := s.count(ctx, tx)
	if err != nil {
		return err
	}

	if size <= s.capacity {
		return nil
	}

	oldest, args, err := s.store.sq.
		Select("seq").
		From("seen_keys").
		OrderBy("seq ASC").
		Limit(uint64(size - s.capacity)).
		ToSql()
	if err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to build eviction query", err)
	}

	_, err = s.store.sq.
		Delete("seen_keys").
		Where("seq IN ("+oldest+")", args...).
		RunWith(tx).
		ExecContext(ctx)
	if err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to evict seen keys", err)
	}

	return nil
}

func (s *SeenStore) exists(ctx context.Context, runner squirrel.BaseRunner, key string) (bool, error) {
	var n int

	err := s.store.sq.
		Select("COUNT(*)").
		From("seen_keys").
		Where(squirrel.Eq{"key": key}).
		RunWith(runner).
		QueryRowContext(ctx).
		Scan(&n)
	if err != nil {
		return false, errors.Wrap(errors.ErrCodeQueryFailed, "failed to look up seen key", err)
	}

	return n > 0, nil
}

func (s *SeenStore) count(ctx context.Context, runner squirrel.BaseRunner) (int, error) {
	var n int

	err := s.store.sq.
		Select("COUNT(*)").
		From("seen_keys").
		RunWith(runner).
		QueryRowContext(ctx).
		Scan(&n)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "failed to count seen keys", err)
	}

	return n, nil
}
