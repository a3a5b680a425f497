// Package trail persists the audit-trail lines shared by every aggregate
// root. Entries are linked to their owner by id plus object-type token, so
// one table serves all document types.
package trail

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/ledgerline/erpcore/internal/database"
	"github.com/ledgerline/erpcore/pkg/datamodel"
	"github.com/ledgerline/erpcore/pkg/query"
	"github.com/ledgerline/erpcore/pkg/repository"
)

// Columns is the trail_entry column list shared with graph queries.
var Columns = []string{
	"linked_object_id", "linked_object_type", "object_code", "object_name",
	"trail_action", "detail", "is_deleted",
	"created_user", "created_date_time", "modified_user", "modified_date_time",
}

// Descriptor maps datamodel.TrailEntry onto the trail_entry table.
func Descriptor() repository.Descriptor[*datamodel.TrailEntry] {
	return repository.Descriptor[*datamodel.TrailEntry]{
		ObjectType:   datamodel.ObjectTypeTrailEntry,
		Table:        "trail_entry",
		Columns:      Columns,
		DefaultOrder: "id",
		Scan: func(row pgx.Row) (*datamodel.TrailEntry, error) {
			e := &datamodel.TrailEntry{}
			err := row.Scan(
				&e.Id, &e.LinkedObjectId, &e.LinkedObjectType, &e.ObjectCode, &e.ObjectName,
				&e.TrailAction, &e.Detail, &e.IsDeleted,
				&e.CreatedUser, &e.CreatedDateTime, &e.ModifiedUser, &e.ModifiedDateTime)
			if err != nil {
				return nil, err
			}
			return e, nil
		},
		Args: func(e *datamodel.TrailEntry) []any {
			return []any{
				e.LinkedObjectId, e.LinkedObjectType, e.ObjectCode, e.ObjectName,
				e.TrailAction, e.Detail, e.IsDeleted,
				e.CreatedUser, e.CreatedDateTime, e.ModifiedUser, e.ModifiedDateTime,
			}
		},
	}
}

// NewRepository builds the trail-entry repository.
func NewRepository(db database.PgxIface) *repository.Repository[*datamodel.TrailEntry] {
	return repository.New(db, Descriptor())
}

// ForOwner loads the full trail of one aggregate root, oldest entry first.
func ForOwner(ctx context.Context, repo *repository.Repository[*datamodel.TrailEntry], ownerId int, ownerType string) ([]*datamodel.TrailEntry, error) {
	result, err := repo.SearchWith(ctx, query.Page{}, func(b *query.Builder) {
		b.Where("linked_object_id = ?", ownerId)
		b.Where("linked_object_type = ?", ownerType)
		b.OrderBy("id")
	})
	if err != nil {
		return nil, err
	}
	return result.Records, nil
}
