// Package aggregate persists a root entity together with its owned child
// collections in a single transaction. Either the root and every child
// reflect the new state, or none do.
package aggregate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/EagleChen/mapmutex"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/ledgerline/erpcore/internal/database"
	"github.com/ledgerline/erpcore/pkg/datamodel"
)

// Identity supplies the audit identity stamped onto every written row.
type Identity interface {
	CurrentUser() string
	Now() time.Time
}

// SystemIdentity is a fixed-user identity backed by the wall clock.
type SystemIdentity struct {
	User string
}

func (s SystemIdentity) CurrentUser() string { return s.User }
func (s SystemIdentity) Now() time.Time      { return time.Now().UTC() }

// RootHandle binds an aggregate root to its statement functions. The
// repositories supply InsertTx/UpdateTx so the coordinator stays free of
// per-entity SQL.
type RootHandle struct {
	Entity     datamodel.Entity
	ObjectType string
	InsertTx   func(ctx context.Context, tx pgx.Tx) (int, error)
	UpdateTx   func(ctx context.Context, tx pgx.Tx) (bool, error)
}

// ChildCollection is one owned collection of an aggregate root.
type ChildCollection interface {
	ObjectType() string
	Len() int
	Child(i int) datamodel.OwnedChild
	InsertTx(ctx context.Context, tx pgx.Tx, i int) error
	UpdateTx(ctx context.Context, tx pgx.Tx, i int) (bool, error)
}

// ErrRootNotNew rejects InsertAggregate for an already persisted root.
var ErrRootNotNew = errors.New("aggregate: root already has an identifier")

// ErrRootNotPersisted rejects UpdateAggregate for an unsaved root.
var ErrRootNotPersisted = errors.New("aggregate: root has no identifier yet")

// ErrAggregateBusy is returned when another in-process save currently holds
// the same aggregate.
var ErrAggregateBusy = errors.New("aggregate: concurrent save in progress")

// ErrRootGone is returned when the root update matches no row, typically
// because another session removed it. The transaction is rolled back before
// any child is written.
var ErrRootGone = errors.New("aggregate: root row no longer exists")

// Coordinator wraps aggregate writes in transactions. Concurrent saves of
// the same aggregate within one process are serialized by a keyed lock;
// across processes the design stays last-writer-wins at the row level.
type Coordinator struct {
	db       database.PgxIface
	identity Identity
	locks    *mapmutex.Mutex
}

// NewCoordinator builds a coordinator over the given pool and audit identity.
func NewCoordinator(db database.PgxIface, identity Identity) *Coordinator {
	return &Coordinator{
		db:       db,
		identity: identity,
		// Few, short retries: a held lock should surface as ErrAggregateBusy
		// quickly instead of stalling the caller.
		locks: mapmutex.NewCustomizedMapMutex(20, 100000000, 10, 1.1, 0.2),
	}
}

// InsertAggregate inserts the root, stamps every new child with the assigned
// root id and the root's audit fields, and inserts the children. Any failure
// rolls the whole transaction back.
func (c *Coordinator) InsertAggregate(ctx context.Context, root RootHandle, children ...ChildCollection) error {
	if !root.Entity.IsNew() {
		return ErrRootNotNew
	}

	audit := root.Entity.Audit()
	now := c.identity.Now()
	user := c.identity.CurrentUser()
	audit.CreatedUser = user
	audit.CreatedDateTime = now
	audit.ModifiedUser = user
	audit.ModifiedDateTime = now

	return c.inTransaction(ctx, func(tx pgx.Tx) error {
		id, err := root.InsertTx(ctx, tx)
		if err != nil {
			return fmt.Errorf("insert %s root: %w", root.ObjectType, err)
		}
		root.Entity.SetId(id)

		for _, collection := range children {
			for i := 0; i < collection.Len(); i++ {
				child := collection.Child(i)
				if child.IsNew() && child.Deleted() {
					// Never been persisted and already marked deleted: nothing to write.
					continue
				}
				if !child.IsNew() {
					continue
				}
				c.stampChild(child, *audit)
				child.SetOwner(id, root.ObjectType)
				if err := collection.InsertTx(ctx, tx, i); err != nil {
					return fmt.Errorf("insert %s child of %s %d: %w", collection.ObjectType(), root.ObjectType, id, err)
				}
			}
		}
		return nil
	})
}

// UpdateAggregate updates the root and upserts every child by presence of an
// identifier: children with an id are updated, children without one are
// inserted. All within one transaction.
func (c *Coordinator) UpdateAggregate(ctx context.Context, root RootHandle, children ...ChildCollection) error {
	id := root.Entity.GetId()
	if id == 0 {
		return ErrRootNotPersisted
	}

	lockKey := fmt.Sprintf("%s*%d", root.ObjectType, id)
	if !c.locks.TryLock(lockKey) {
		return fmt.Errorf("%w: %s %d", ErrAggregateBusy, root.ObjectType, id)
	}
	defer c.locks.Unlock(lockKey)

	audit := root.Entity.Audit()
	audit.ModifiedUser = c.identity.CurrentUser()
	audit.ModifiedDateTime = c.identity.Now()

	return c.inTransaction(ctx, func(tx pgx.Tx) error {
		changed, err := root.UpdateTx(ctx, tx)
		if err != nil {
			return fmt.Errorf("update %s root %d: %w", root.ObjectType, id, err)
		}
		if !changed {
			return fmt.Errorf("%w: %s %d", ErrRootGone, root.ObjectType, id)
		}

		for _, collection := range children {
			for i := 0; i < collection.Len(); i++ {
				child := collection.Child(i)
				if child.IsNew() && child.Deleted() {
					continue
				}
				c.stampChild(child, *audit)
				child.SetOwner(id, root.ObjectType)
				if child.IsNew() {
					if err := collection.InsertTx(ctx, tx, i); err != nil {
						return fmt.Errorf("insert %s child of %s %d: %w", collection.ObjectType(), root.ObjectType, id, err)
					}
					continue
				}
				if _, err := collection.UpdateTx(ctx, tx, i); err != nil {
					return fmt.Errorf("update %s child %d of %s %d: %w", collection.ObjectType(), child.GetId(), root.ObjectType, id, err)
				}
			}
		}
		return nil
	})
}

// stampChild copies the root's audit stamps onto a child. Existing children
// keep their creation stamps.
func (c *Coordinator) stampChild(child datamodel.OwnedChild, rootAudit datamodel.AuditFields) {
	audit := child.Audit()
	if child.IsNew() {
		audit.CreatedUser = rootAudit.CreatedUser
		audit.CreatedDateTime = rootAudit.CreatedDateTime
		if audit.CreatedUser == "" {
			audit.CreatedUser = rootAudit.ModifiedUser
			audit.CreatedDateTime = rootAudit.ModifiedDateTime
		}
	}
	audit.ModifiedUser = rootAudit.ModifiedUser
	audit.ModifiedDateTime = rootAudit.ModifiedDateTime
}

// inTransaction runs fn inside a transaction, rolling back on every failure
// path including context cancellation mid-flight.
func (c *Coordinator) inTransaction(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := c.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	committed := false
	defer func() {
		if committed {
			return
		}
		// Rollback must not depend on the (possibly cancelled) caller context.
		rollbackCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if errR := tx.Rollback(rollbackCtx); errR != nil && !errors.Is(errR, pgx.ErrTxClosed) {
			zap.S().Errorf("Error rolling back transaction: %v", errR)
		}
		database.RecordTransaction("rolled_back", 0)
	}()

	if err := fn(tx); err != nil {
		return err
	}

	start := time.Now()
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	committed = true
	database.RecordTransaction("committed", time.Since(start))
	return nil
}
