package partners

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ledgerline/erpcore/internal/database"
	"github.com/ledgerline/erpcore/pkg/datamodel"
	"github.com/ledgerline/erpcore/pkg/hydrate"
	"github.com/ledgerline/erpcore/pkg/repository"
)

// graphSelect loads partners with their category reference and address
// collection in one statement. Joins fan the partner row out per address;
// the assembler folds the rows back into one instance per partner.
const graphSelect = `SELECT p.id, p.object_code, p.object_name, p.partner_type, p.tax_number, p.category_id, p.is_deleted, p.created_user, p.created_date_time, p.modified_user, p.modified_date_time, c.id, c.object_code, c.object_name, c.category_type, c.parent_id, c.hierarchy_path, a.id, a.linked_object_id, a.linked_object_type, a.object_code, a.object_name, a.address_type, a.street, a.city, a.postal_code, a.country, a.is_primary, a.is_deleted, a.created_user, a.created_date_time, a.modified_user, a.modified_date_time FROM business_partner p LEFT JOIN category c ON c.id = p.category_id AND c.is_deleted = FALSE LEFT JOIN partner_address a ON a.linked_object_id = p.id AND a.linked_object_type = 'BUSINESS-PARTNER' AND a.is_deleted = FALSE`

const graphSQL = graphSelect + ` WHERE p.id = $1 AND p.is_deleted = FALSE ORDER BY p.id, a.id`

const graphPageSQL = graphSelect + ` WHERE p.id = ANY($1) AND p.is_deleted = FALSE ORDER BY p.id, a.id`

var graphColumns = []string{
	"id", "object_code", "object_name", "partner_type", "tax_number", "category_id", "is_deleted",
	"created_user", "created_date_time", "modified_user", "modified_date_time",
	"id", "object_code", "object_name", "category_type", "parent_id", "hierarchy_path",
	"id", "linked_object_id", "linked_object_type", "object_code", "object_name",
	"address_type", "street", "city", "postal_code", "country", "is_primary", "is_deleted",
	"created_user", "created_date_time", "modified_user", "modified_date_time",
}

func newGraphAssembler() *hydrate.Assembler[*datamodel.BusinessPartner] {
	splitter, err := hydrate.NewRowSplitter(graphColumns, "id", "id")
	if err != nil {
		zap.S().Fatalf("Failed to build partner graph splitter: %v", err)
	}
	return &hydrate.Assembler[*datamodel.BusinessPartner]{
		Splitter: splitter,
		BuildRoot: func(v hydrate.Values) (*datamodel.BusinessPartner, error) {
			p := &datamodel.BusinessPartner{}
			p.Id = v.Int("id")
			p.ObjectCode = v.String("object_code")
			p.ObjectName = v.String("object_name")
			p.PartnerType = v.String("partner_type")
			p.TaxNumber = v.String("tax_number")
			p.CategoryId = v.Int("category_id")
			p.IsDeleted = v.Bool("is_deleted")
			p.CreatedUser = v.String("created_user")
			p.CreatedDateTime = v.Time("created_date_time")
			p.ModifiedUser = v.String("modified_user")
			p.ModifiedDateTime = v.Time("modified_date_time")
			return p, nil
		},
		RootKey: func(v hydrate.Values) any { return v.Int("id") },
		Attach: func(p *datamodel.BusinessPartner, block int, v hydrate.Values) error {
			switch block {
			case 1:
				if p.Category != nil {
					return nil
				}
				c := &datamodel.Category{}
				c.Id = v.Int("id")
				c.ObjectCode = v.String("object_code")
				c.ObjectName = v.String("object_name")
				c.CategoryType = v.String("category_type")
				c.ParentId = v.Int("parent_id")
				c.HierarchyPath = v.String("hierarchy_path")
				p.Category = c
			case 2:
				a := &datamodel.PartnerAddress{}
				a.Id = v.Int("id")
				a.LinkedObjectId = v.Int("linked_object_id")
				a.LinkedObjectType = v.String("linked_object_type")
				a.ObjectCode = v.String("object_code")
				a.ObjectName = v.String("object_name")
				a.AddressType = v.String("address_type")
				a.Street = v.String("street")
				a.City = v.String("city")
				a.PostalCode = v.String("postal_code")
				a.Country = v.String("country")
				a.IsPrimary = v.Bool("is_primary")
				a.IsDeleted = v.Bool("is_deleted")
				a.CreatedUser = v.String("created_user")
				a.CreatedDateTime = v.Time("created_date_time")
				a.ModifiedUser = v.String("modified_user")
				a.ModifiedDateTime = v.Time("modified_date_time")
				p.Addresses = append(p.Addresses, a)
			}
			return nil
		},
	}
}

func (r *Repository) loadGraph(ctx context.Context, id int) (*datamodel.BusinessPartner, error) {
	roots, err := r.runGraph(ctx, graphSQL, id)
	if err != nil {
		return nil, err
	}
	if len(roots) == 0 {
		return nil, fmt.Errorf("%w: %s %d", repository.ErrNotFound, datamodel.ObjectTypeBusinessPartner, id)
	}
	return roots[0], nil
}

// loadGraphPage hydrates the partners of one already-windowed id set. The
// statement orders by partner id so the assembler sees each partner's rows
// contiguously; the result is then put back into the order of ids, which
// carries the ordering of the id-window statement.
func (r *Repository) loadGraphPage(ctx context.Context, ids []int) ([]*datamodel.BusinessPartner, error) {
	roots, err := r.runGraph(ctx, graphPageSQL, ids)
	if err != nil {
		return nil, err
	}
	byId := make(map[int]*datamodel.BusinessPartner, len(roots))
	for _, p := range roots {
		byId[p.Id] = p
	}
	ordered := make([]*datamodel.BusinessPartner, 0, len(ids))
	for _, id := range ids {
		if p, ok := byId[id]; ok {
			ordered = append(ordered, p)
		}
	}
	return ordered, nil
}

func (r *Repository) runGraph(ctx context.Context, sql string, arg any) ([]*datamodel.BusinessPartner, error) {
	rows, err := r.db.Query(ctx, sql, arg)
	if err != nil {
		return nil, database.ErrorHandling(sql, err)
	}
	defer rows.Close()

	var raw [][]any
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, database.ErrorHandling(sql, err)
		}
		raw = append(raw, values)
	}
	if err := rows.Err(); err != nil {
		return nil, database.ErrorHandling(sql, err)
	}
	return newGraphAssembler().Assemble(raw)
}
