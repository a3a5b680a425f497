package repository

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/ledgerline/erpcore/internal/database"
	"github.com/ledgerline/erpcore/pkg/datamodel"
	"github.com/ledgerline/erpcore/pkg/query"
)

// HierarchicalRepository adds the materialized-path operations for entities
// carrying hierarchy columns.
type HierarchicalRepository[T datamodel.HierarchicalEntity] struct {
	*Repository[T]
}

// NewHierarchical builds a repository for a hierarchical entity. The
// descriptor's Columns must include parent_id and hierarchy_path.
func NewHierarchical[T datamodel.HierarchicalEntity](db database.PgxIface, desc Descriptor[T]) *HierarchicalRepository[T] {
	return &HierarchicalRepository[T]{Repository: New(db, desc)}
}

// GetValidParents lists the rows an entity may be re-parented under: every
// live row except the entity itself and its own descendants. A zero
// entityId (new, unsaved entity) means every live row qualifies.
func (r *HierarchicalRepository[T]) GetValidParents(ctx context.Context, page query.Page, entityId int, hierarchyPath string) (datamodel.SearchResult[T], error) {
	return r.SearchWith(ctx, page, func(b *query.Builder) {
		if entityId > 0 {
			b.Where("id <> ?", entityId)
		}
		if hierarchyPath != "" {
			b.Where("hierarchy_path <> ?", hierarchyPath)
			b.Where("hierarchy_path NOT LIKE ?", datamodel.DescendantPrefix(hierarchyPath)+"%")
		}
		b.OrderBy("hierarchy_path")
	})
}

// Descendants lists the full subtree under the given path, shallowest first.
func (r *HierarchicalRepository[T]) Descendants(ctx context.Context, hierarchyPath string) ([]T, error) {
	result, err := r.SearchWith(ctx, query.Page{}, func(b *query.Builder) {
		b.Where("hierarchy_path LIKE ?", datamodel.DescendantPrefix(hierarchyPath)+"%")
		b.OrderBy("hierarchy_path")
	})
	if err != nil {
		return nil, err
	}
	return result.Records, nil
}

// RewriteDescendantPaths replaces the old path prefix with the new one on
// every descendant row. Callers run it inside the transaction that moves
// the subtree root, so the tree is never observable half-moved.
func (r *HierarchicalRepository[T]) RewriteDescendantPaths(ctx context.Context, exec Execer, oldPath, newPath string) (int, error) {
	sql := fmt.Sprintf(
		"UPDATE %s SET hierarchy_path = $1 || substr(hierarchy_path, $2) WHERE hierarchy_path LIKE $3",
		r.desc.Table)
	// substr counts characters, not bytes: the cut point must be a rune count
	// or a multibyte code in the old path shifts it.
	tag, err := exec.Exec(ctx, sql, newPath, utf8.RuneCountInString(oldPath)+1, datamodel.DescendantPrefix(oldPath)+"%")
	if err != nil {
		return 0, database.ErrorHandling(sql, err)
	}
	return int(tag.RowsAffected()), nil
}
