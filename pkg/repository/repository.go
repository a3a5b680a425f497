// Package repository provides a generic table-backed repository over an
// entity descriptor: CRUD with soft delete, quick search, filtered search
// with shared-predicate pagination, and a natural-key cache.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/ledgerline/erpcore/internal/database"
	"github.com/ledgerline/erpcore/pkg/datamodel"
)

// ErrNotFound is returned when no live row matches the requested identifier
// or natural key.
var ErrNotFound = errors.New("repository: record not found")

// ErrMissingId rejects update and delete calls on an entity that was never
// persisted.
var ErrMissingId = errors.New("repository: entity has no identifier")

const codeCacheSize = 1000

// Repository is a generic single-table repository. Statements are built once
// from the descriptor; search statements are assembled per call through the
// query builder so that the count and data statements always share their
// WHERE fragments.
type Repository[T datamodel.Entity] struct {
	db   database.PgxIface
	desc Descriptor[T]

	getByIdSQL    string
	getAnyByIdSQL string
	insertSQL     string
	updateSQL     string
	softDeleteSQL string
	hardDeleteSQL string
	resolveSQL    string

	codeCache *lru.ARCCache
}

// New builds a repository for the descriptor's table.
func New[T datamodel.Entity](db database.PgxIface, desc Descriptor[T]) *Repository[T] {
	cache, err := lru.NewARC(codeCacheSize)
	if err != nil {
		zap.S().Fatalf("Failed to create %s code cache: %v", desc.ObjectType, err)
	}
	return &Repository[T]{
		db:   db,
		desc: desc,

		getByIdSQL:    "SELECT " + desc.selectList() + " FROM " + desc.Table + " WHERE id = $1 AND is_deleted = FALSE",
		getAnyByIdSQL: "SELECT " + desc.selectList() + " FROM " + desc.Table + " WHERE id = $1",
		insertSQL:     desc.insertStatement(),
		updateSQL:     desc.updateStatement(),
		softDeleteSQL: "UPDATE " + desc.Table + " SET is_deleted = TRUE, modified_user = $2, modified_date_time = $3 WHERE id = $1",
		hardDeleteSQL: "DELETE FROM " + desc.Table + " WHERE id = $1",
		resolveSQL:    "SELECT id FROM " + desc.Table + " WHERE " + desc.codeColumn() + " = $1 AND is_deleted = FALSE",

		codeCache: cache,
	}
}

// ObjectType returns the descriptor's object-type token.
func (r *Repository[T]) ObjectType() string {
	return r.desc.ObjectType
}

// Descriptor returns the descriptor the repository was built from.
func (r *Repository[T]) Descriptor() Descriptor[T] {
	return r.desc
}

// GetById loads a live row by identifier. Soft-deleted rows are invisible
// here and surface as ErrNotFound.
func (r *Repository[T]) GetById(ctx context.Context, id int) (T, error) {
	return r.getOne(ctx, r.getByIdSQL, id)
}

// GetByIdIncludingDeleted loads a row by identifier regardless of the
// soft-delete flag.
func (r *Repository[T]) GetByIdIncludingDeleted(ctx context.Context, id int) (T, error) {
	return r.getOne(ctx, r.getAnyByIdSQL, id)
}

func (r *Repository[T]) getOne(ctx context.Context, sql string, id int) (T, error) {
	var zero T
	entity, err := r.desc.Scan(r.db.QueryRow(ctx, sql, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return zero, fmt.Errorf("%w: %s %d", ErrNotFound, r.desc.ObjectType, id)
		}
		return zero, database.ErrorHandling(sql, err)
	}
	return entity, nil
}

// Insert writes a new row and assigns the generated identifier back onto the
// entity.
func (r *Repository[T]) Insert(ctx context.Context, e T) error {
	var id int
	err := r.db.QueryRow(ctx, r.insertSQL, r.desc.Args(e)...).Scan(&id)
	if err != nil {
		return database.ErrorHandling(r.insertSQL, err)
	}
	e.SetId(id)
	return nil
}

// InsertTx is the in-transaction variant used by the aggregate coordinator.
// It returns the generated identifier without assigning it, the coordinator
// owns the id propagation.
func (r *Repository[T]) InsertTx(ctx context.Context, tx pgx.Tx, e T) (int, error) {
	var id int
	err := tx.QueryRow(ctx, r.insertSQL, r.desc.Args(e)...).Scan(&id)
	if err != nil {
		return 0, database.ErrorHandling(r.insertSQL, err)
	}
	e.SetId(id)
	return id, nil
}

// Update overwrites every mapped column of the row. A matched row is
// reported as true; soft-deleted rows still match, the flag is just another
// column.
func (r *Repository[T]) Update(ctx context.Context, e T) (bool, error) {
	if e.GetId() == 0 {
		return false, fmt.Errorf("%w: update %s", ErrMissingId, r.desc.ObjectType)
	}
	args := append(r.desc.Args(e), e.GetId())
	tag, err := r.db.Exec(ctx, r.updateSQL, args...)
	if err != nil {
		return false, database.ErrorHandling(r.updateSQL, err)
	}
	return tag.RowsAffected() > 0, nil
}

// UpdateTx is the in-transaction variant used by the aggregate coordinator.
func (r *Repository[T]) UpdateTx(ctx context.Context, tx pgx.Tx, e T) (bool, error) {
	if e.GetId() == 0 {
		return false, fmt.Errorf("%w: update %s", ErrMissingId, r.desc.ObjectType)
	}
	args := append(r.desc.Args(e), e.GetId())
	tag, err := tx.Exec(ctx, r.updateSQL, args...)
	if err != nil {
		return false, database.ErrorHandling(r.updateSQL, err)
	}
	return tag.RowsAffected() > 0, nil
}

// SoftDelete marks the row deleted and stamps the modification audit fields.
// The entity's in-memory flag is updated on success.
func (r *Repository[T]) SoftDelete(ctx context.Context, e T, identity AuditIdentity) (bool, error) {
	if e.GetId() == 0 {
		return false, fmt.Errorf("%w: delete %s", ErrMissingId, r.desc.ObjectType)
	}
	user := identity.CurrentUser()
	now := identity.Now()
	tag, err := r.db.Exec(ctx, r.softDeleteSQL, e.GetId(), user, now)
	if err != nil {
		return false, database.ErrorHandling(r.softDeleteSQL, err)
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}
	e.MarkDeleted()
	audit := e.Audit()
	audit.ModifiedUser = user
	audit.ModifiedDateTime = now
	return true, nil
}

// HardDelete removes the row permanently. Reserved for never-referenced
// rows; owned children of live aggregates are soft deleted instead.
func (r *Repository[T]) HardDelete(ctx context.Context, id int) (bool, error) {
	if id == 0 {
		return false, fmt.Errorf("%w: delete %s", ErrMissingId, r.desc.ObjectType)
	}
	tag, err := r.db.Exec(ctx, r.hardDeleteSQL, id)
	if err != nil {
		return false, database.ErrorHandling(r.hardDeleteSQL, err)
	}
	return tag.RowsAffected() > 0, nil
}

// ResolveCode translates a natural key into the row identifier, answering
// repeated lookups from an in-process cache.
func (r *Repository[T]) ResolveCode(ctx context.Context, code string) (int, error) {
	if cached, ok := r.codeCache.Get(code); ok {
		return cached.(int), nil
	}
	var id int
	err := r.db.QueryRow(ctx, r.resolveSQL, code).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("%w: %s code %q", ErrNotFound, r.desc.ObjectType, code)
		}
		return 0, database.ErrorHandling(r.resolveSQL, err)
	}
	r.codeCache.Add(code, id)
	return id, nil
}

// Execer is the statement-execution subset satisfied by both the pool and
// an open transaction.
type Execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// AuditIdentity supplies the user and timestamp stamped onto soft deletes.
// The aggregate coordinator's Identity satisfies it.
type AuditIdentity interface {
	CurrentUser() string
	Now() time.Time
}
