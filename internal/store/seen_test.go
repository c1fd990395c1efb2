package store

import (
	"context"
	"fmt"
	"testing"

	"github.com/rxtech-lab/argo-signals/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type SeenStoreTestSuite struct {
	suite.Suite
	db  *DB
	ctx context.Context
}

func TestSeenStoreSuite(t *testing.T) {
	suite.Run(t, new(SeenStoreTestSuite))
}

func (suite *SeenStoreTestSuite) SetupTest() {
	suite.ctx = context.Background()

	db, err := Open(suite.ctx, "", nil)
	suite.Require().NoError(err)

	suite.db = db
}

func (suite *SeenStoreTestSuite) TearDownTest() {
	suite.NoError(suite.db.Close())
}

func (suite *SeenStoreTestSuite) TestRejectsNonPositiveCapacity() {
	for _, capacity := range []int{0, -1} {
		store, err := NewSeenStore(suite.db, capacity)
		suite.Nil(store)
		suite.True(errors.HasCode(err, errors.ErrCodeInvalidCapacity))
	}
}

func (suite *SeenStoreTestSuite) TestAddAndSeen() {
	store, err := NewSeenStore(suite.db, 5)
	suite.Require().NoError(err)

	found, err := store.Seen(suite.ctx, "a")
	suite.Require().NoError(err)
	suite.False(found)

	suite.Require().NoError(store.Add(suite.ctx, "a"))
	suite.Require().NoError(store.Add(suite.ctx, "a"))

	found, err = store.Seen(suite.ctx, "a")
	suite.Require().NoError(err)
	suite.True(found)

	n, err := store.Len(suite.ctx)
	suite.Require().NoError(err)
	suite.Equal(1, n)
}

func (suite *SeenStoreTestSuite) TestEvictsOldestFirst() {
	store, err := NewSeenStore(suite.db, 3)
	suite.Require().NoError(err)

	for i := 0; i < 5; i++ {
		suite.Require().NoError(store.Add(suite.ctx, fmt.Sprintf("k%d", i)))
	}

	n, err := store.Len(suite.ctx)
	suite.Require().NoError(err)
	suite.Equal(3, n)

	for i, want := range []bool{false, false, true, true, true} {
		found, err := store.Seen(suite.ctx, fmt.Sprintf("k%d", i))
		suite.Require().NoError(err)
		suite.Equal(want, found, "k%d", i)
	}
}

func (suite *SeenStoreTestSuite) TestReAddDoesNotRefreshAge() {
	store, err := NewSeenStore(suite.db, 2)
	suite.Require().NoError(err)

	suite.Require().NoError(store.Add(suite.ctx, "old"))
	suite.Require().NoError(store.Add(suite.ctx, "mid"))
	suite.Require().NoError(store.Add(suite.ctx, "old"))
	suite.Require().NoError(store.Add(suite.ctx, "new"))

	found, err := store.Seen(suite.ctx, "old")
	suite.Require().NoError(err)
	suite.False(found)

	found, err = store.Seen(suite.ctx, "mid")
	suite.Require().NoError(err)
	suite.True(found)
}
