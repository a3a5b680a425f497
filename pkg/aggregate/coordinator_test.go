package aggregate

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerline/erpcore/pkg/datamodel"
)

type fakeRoot struct {
	datamodel.Record
}

type fakeChild struct {
	datamodel.Record
	datamodel.LinkedObject
}

type fakeCollection struct {
	objectType string
	items      []*fakeChild
	insert     func(ctx context.Context, tx pgx.Tx, i int) error
	update     func(ctx context.Context, tx pgx.Tx, i int) (bool, error)
}

func (f *fakeCollection) ObjectType() string { return f.objectType }

func (f *fakeCollection) Len() int { return len(f.items) }

func (f *fakeCollection) Child(i int) datamodel.OwnedChild { return f.items[i] }

func (f *fakeCollection) InsertTx(ctx context.Context, tx pgx.Tx, i int) error {
	return f.insert(ctx, tx, i)
}

func (f *fakeCollection) UpdateTx(ctx context.Context, tx pgx.Tx, i int) (bool, error) {
	return f.update(ctx, tx, i)
}

type fixedIdentity struct{}

func (fixedIdentity) CurrentUser() string { return "clerk" }
func (fixedIdentity) Now() time.Time {
	return time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
}

func rootHandle(mockSQL string, root *fakeRoot) RootHandle {
	return RootHandle{
		Entity:     root,
		ObjectType: "ORDER",
		InsertTx: func(ctx context.Context, tx pgx.Tx) (int, error) {
			var id int
			err := tx.QueryRow(ctx, mockSQL).Scan(&id)
			return id, err
		},
		UpdateTx: func(ctx context.Context, tx pgx.Tx) (bool, error) {
			tag, err := tx.Exec(ctx, mockSQL)
			if err != nil {
				return false, err
			}
			return tag.RowsAffected() > 0, nil
		},
	}
}

func TestInsertAggregateRejectsPersistedRoot(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	c := NewCoordinator(mock, fixedIdentity{})

	root := &fakeRoot{}
	root.Id = 5
	err = c.InsertAggregate(context.Background(), rootHandle("INSERT INTO orders", root))
	assert.ErrorIs(t, err, ErrRootNotNew)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateAggregateRejectsNewRoot(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	c := NewCoordinator(mock, fixedIdentity{})

	err = c.UpdateAggregate(context.Background(), rootHandle("UPDATE orders", &fakeRoot{}))
	assert.ErrorIs(t, err, ErrRootNotPersisted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertAggregateStampsAndPropagates(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	c := NewCoordinator(mock, fixedIdentity{})

	root := &fakeRoot{}
	kept := &fakeChild{}
	discarded := &fakeChild{}
	discarded.MarkDeleted() // never persisted, marked deleted: must be skipped

	children := &fakeCollection{
		objectType: "ORDER-LINE",
		items:      []*fakeChild{kept, discarded},
		insert: func(ctx context.Context, tx pgx.Tx, i int) error {
			_, err := tx.Exec(ctx, "INSERT INTO order_line")
			return err
		},
	}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO orders")).
		WillReturnRows(mock.NewRows([]string{"id"}).AddRow(10))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO order_line")).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	require.NoError(t, c.InsertAggregate(context.Background(), rootHandle("INSERT INTO orders", root), children))

	assert.Equal(t, 10, root.Id)
	assert.Equal(t, "clerk", root.CreatedUser)
	assert.Equal(t, "clerk", root.ModifiedUser)
	assert.Equal(t, 10, kept.LinkedObjectId)
	assert.Equal(t, "ORDER", kept.LinkedObjectType)
	assert.Equal(t, "clerk", kept.CreatedUser)
	assert.Equal(t, 0, discarded.LinkedObjectId)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertAggregateRollsBackOnChildFailure(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	c := NewCoordinator(mock, fixedIdentity{})

	boom := errors.New("line insert failed")
	children := &fakeCollection{
		objectType: "ORDER-LINE",
		items:      []*fakeChild{{}},
		insert: func(ctx context.Context, tx pgx.Tx, i int) error {
			return boom
		},
	}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO orders")).
		WillReturnRows(mock.NewRows([]string{"id"}).AddRow(10))
	mock.ExpectRollback()

	err = c.InsertAggregate(context.Background(), rootHandle("INSERT INTO orders", &fakeRoot{}), children)
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateAggregateUpsertsChildrenById(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	c := NewCoordinator(mock, fixedIdentity{})

	root := &fakeRoot{}
	root.Id = 10
	root.CreatedUser = "importer"

	existing := &fakeChild{}
	existing.Id = 3
	existing.CreatedUser = "importer"
	added := &fakeChild{}

	children := &fakeCollection{
		objectType: "ORDER-LINE",
		items:      []*fakeChild{existing, added},
		insert: func(ctx context.Context, tx pgx.Tx, i int) error {
			_, err := tx.Exec(ctx, "INSERT INTO order_line")
			return err
		},
		update: func(ctx context.Context, tx pgx.Tx, i int) (bool, error) {
			tag, err := tx.Exec(ctx, "UPDATE order_line")
			if err != nil {
				return false, err
			}
			return tag.RowsAffected() > 0, nil
		},
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE orders")).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE order_line")).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO order_line")).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	require.NoError(t, c.UpdateAggregate(context.Background(), rootHandle("UPDATE orders", root), children))

	// Existing children keep their creation stamps, both get modification stamps.
	assert.Equal(t, "importer", existing.CreatedUser)
	assert.Equal(t, "clerk", existing.ModifiedUser)
	assert.Equal(t, "clerk", added.CreatedUser)
	assert.Equal(t, 10, existing.LinkedObjectId)
	assert.Equal(t, 10, added.LinkedObjectId)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateAggregateFailsWhenRootRowGone(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	c := NewCoordinator(mock, fixedIdentity{})

	root := &fakeRoot{}
	root.Id = 10

	existing := &fakeChild{}
	existing.Id = 3
	childTouched := false
	children := &fakeCollection{
		objectType: "ORDER-LINE",
		items:      []*fakeChild{existing},
		update: func(ctx context.Context, tx pgx.Tx, i int) (bool, error) {
			childTouched = true
			return true, nil
		},
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE orders")).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectRollback()

	err = c.UpdateAggregate(context.Background(), rootHandle("UPDATE orders", root), children)
	assert.ErrorIs(t, err, ErrRootGone)
	assert.False(t, childTouched)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateAggregateSerializesSameAggregate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	c := NewCoordinator(mock, fixedIdentity{})

	root := &fakeRoot{}
	root.Id = 10

	var reentrant error
	handle := RootHandle{
		Entity:     root,
		ObjectType: "ORDER",
		UpdateTx: func(ctx context.Context, tx pgx.Tx) (bool, error) {
			// A second save of the same aggregate while this one holds the
			// lock must be turned away.
			inner := &fakeRoot{}
			inner.Id = 10
			reentrant = c.UpdateAggregate(ctx, RootHandle{
				Entity:     inner,
				ObjectType: "ORDER",
				UpdateTx:   func(context.Context, pgx.Tx) (bool, error) { return true, nil },
			})
			return true, nil
		},
	}

	mock.ExpectBegin()
	mock.ExpectCommit()

	require.NoError(t, c.UpdateAggregate(context.Background(), handle))
	assert.ErrorIs(t, reentrant, ErrAggregateBusy)
	assert.NoError(t, mock.ExpectationsWereMet())
}
