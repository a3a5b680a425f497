// Package categories persists the hierarchical category lookup. Every
// category carries a materialized path; moving a node rewrites the paths of
// its whole subtree in the same transaction.
package categories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/ledgerline/erpcore/internal/database"
	"github.com/ledgerline/erpcore/pkg/aggregate"
	"github.com/ledgerline/erpcore/pkg/datamodel"
	"github.com/ledgerline/erpcore/pkg/query"
	"github.com/ledgerline/erpcore/pkg/repository"
)

// ErrCycleDetected rejects a re-parent whose target lies within the
// category's own subtree.
var ErrCycleDetected = errors.New("categories: new parent lies within the category's own subtree")

var categoryColumns = []string{
	"object_code", "object_name", "category_type", "parent_id", "hierarchy_path", "is_deleted",
	"created_user", "created_date_time", "modified_user", "modified_date_time",
}

func categoryDescriptor() repository.Descriptor[*datamodel.Category] {
	return repository.Descriptor[*datamodel.Category]{
		ObjectType:   datamodel.ObjectTypeCategory,
		Table:        "category",
		Columns:      categoryColumns,
		DefaultOrder: "hierarchy_path",
		Scan: func(row pgx.Row) (*datamodel.Category, error) {
			c := &datamodel.Category{}
			var parentId *int
			err := row.Scan(
				&c.Id, &c.ObjectCode, &c.ObjectName, &c.CategoryType, &parentId, &c.HierarchyPath, &c.IsDeleted,
				&c.CreatedUser, &c.CreatedDateTime, &c.ModifiedUser, &c.ModifiedDateTime)
			if err != nil {
				return nil, err
			}
			if parentId != nil {
				c.ParentId = *parentId
			}
			return c, nil
		},
		Args: func(c *datamodel.Category) []any {
			return []any{
				c.ObjectCode, c.ObjectName, c.CategoryType,
				repository.NullableId(c.ParentId), c.HierarchyPath, c.IsDeleted,
				c.CreatedUser, c.CreatedDateTime, c.ModifiedUser, c.ModifiedDateTime,
			}
		},
	}
}

// Repository is the category module repository.
type Repository struct {
	db         database.PgxIface
	categories *repository.HierarchicalRepository[*datamodel.Category]
	identity   aggregate.Identity
}

// NewRepository wires the category repository.
func NewRepository(db database.PgxIface, identity aggregate.Identity) *Repository {
	return &Repository{
		db:         db,
		categories: repository.NewHierarchical(db, categoryDescriptor()),
		identity:   identity,
	}
}

// GetById loads one live category.
func (r *Repository) GetById(ctx context.Context, id int) (*datamodel.Category, error) {
	return r.categories.GetById(ctx, id)
}

// Search lists categories of one type, tree order.
func (r *Repository) Search(ctx context.Context, page query.Page, categoryType string) (datamodel.SearchResult[*datamodel.Category], error) {
	return r.categories.SearchWith(ctx, page, func(b *query.Builder) {
		if categoryType != "" {
			b.Where("category_type = ?", categoryType)
		}
	})
}

// QuickSearch runs the code/name mini-grammar search used by lookup fields.
func (r *Repository) QuickSearch(ctx context.Context, page query.Page, searchText string, excludeIds []int) (datamodel.SearchResult[*datamodel.Category], error) {
	return r.categories.QuickSearch(ctx, page, searchText, excludeIds)
}

// GetValidParents lists the categories the given one may be re-parented
// under: everything live except itself and its own subtree.
func (r *Repository) GetValidParents(ctx context.Context, page query.Page, category *datamodel.Category) (datamodel.SearchResult[*datamodel.Category], error) {
	return r.categories.GetValidParents(ctx, page, category.GetId(), category.HierarchyPath)
}

// Descendants lists the full subtree under the category, shallowest first.
func (r *Repository) Descendants(ctx context.Context, category *datamodel.Category) ([]*datamodel.Category, error) {
	return r.categories.Descendants(ctx, category.HierarchyPath)
}

// Save inserts or updates a category, maintaining its materialized path.
// When an update changes the path, every descendant path is rewritten in the
// same transaction.
func (r *Repository) Save(ctx context.Context, category *datamodel.Category) error {
	parentPath := ""
	if category.ParentId > 0 {
		parent, err := r.categories.GetById(ctx, category.ParentId)
		if err != nil {
			return fmt.Errorf("resolve parent category %d: %w", category.ParentId, err)
		}
		parentPath = parent.HierarchyPath
	}
	if !category.IsNew() && datamodel.WouldCreateCycle(category.HierarchyPath, parentPath) {
		return fmt.Errorf("%w: %s under %s", ErrCycleDetected, category.ObjectCode, parentPath)
	}
	newPath := datamodel.ChildPath(parentPath, category.ObjectCode)

	now := r.identity.Now()
	user := r.identity.CurrentUser()
	audit := category.Audit()
	if category.IsNew() {
		audit.CreatedUser = user
		audit.CreatedDateTime = now
	}
	audit.ModifiedUser = user
	audit.ModifiedDateTime = now

	if category.IsNew() {
		category.HierarchyPath = newPath
		return r.categories.Insert(ctx, category)
	}

	stored, err := r.categories.GetByIdIncludingDeleted(ctx, category.Id)
	if err != nil {
		return err
	}
	oldPath := stored.HierarchyPath
	category.HierarchyPath = newPath

	if oldPath == newPath {
		_, err := r.categories.Update(ctx, category)
		return err
	}
	return r.inTransaction(ctx, func(tx pgx.Tx) error {
		if _, err := r.categories.UpdateTx(ctx, tx, category); err != nil {
			return err
		}
		moved, err := r.categories.RewriteDescendantPaths(ctx, tx, oldPath, newPath)
		if err != nil {
			return err
		}
		zap.S().Debugf("Moved category %s: %d descendant paths rewritten", category.ObjectCode, moved)
		return nil
	})
}

// Reparent moves the category under a new parent, 0 meaning tree root.
func (r *Repository) Reparent(ctx context.Context, category *datamodel.Category, newParentId int) error {
	category.ParentId = newParentId
	return r.Save(ctx, category)
}

// Delete soft-deletes the category row. The subtree stays in place; valid
// usage deletes leaves first.
func (r *Repository) Delete(ctx context.Context, category *datamodel.Category) (bool, error) {
	return r.categories.SoftDelete(ctx, category, r.identity)
}

func (r *Repository) inTransaction(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	committed := false
	defer func() {
		if committed {
			return
		}
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
