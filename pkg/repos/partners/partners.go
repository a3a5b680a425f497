// Package partners persists business partners with their owned addresses,
// contacts and audit trail.
package partners

import (
	"context"

	"github.com/ledgerline/erpcore/internal/database"
	"github.com/ledgerline/erpcore/pkg/aggregate"
	"github.com/ledgerline/erpcore/pkg/datamodel"
	"github.com/ledgerline/erpcore/pkg/query"
	"github.com/ledgerline/erpcore/pkg/repository"
	"github.com/ledgerline/erpcore/pkg/repos/trail"
)

// Filter narrows a partner search. Zero values mean "no restriction".
type Filter struct {
	SearchText  string
	PartnerType string
	CategoryId  int
}

// Repository is the business-partner module repository: flat searches over
// the partner table plus graph loads and transactional saves of the whole
// aggregate.
type Repository struct {
	db          database.PgxIface
	partners    *repository.Repository[*datamodel.BusinessPartner]
	addresses   *repository.Repository[*datamodel.PartnerAddress]
	contacts    *repository.Repository[*datamodel.PartnerContact]
	trail       *repository.Repository[*datamodel.TrailEntry]
	coordinator *aggregate.Coordinator
	identity    aggregate.Identity
}

// NewRepository wires the partner aggregate's repositories and coordinator.
func NewRepository(db database.PgxIface, identity aggregate.Identity) *Repository {
	return &Repository{
		db:          db,
		partners:    repository.New(db, partnerDescriptor()),
		addresses:   repository.New(db, addressDescriptor()),
		contacts:    repository.New(db, contactDescriptor()),
		trail:       trail.NewRepository(db),
		coordinator: aggregate.NewCoordinator(db, identity),
		identity:    identity,
	}
}

func (r *Repository) configure(filter Filter) func(b *query.Builder) {
	return func(b *query.Builder) {
		if filter.SearchText != "" {
			term := repository.ParseQuickSearch(filter.SearchText)
			column := "object_name"
			if term.Column == "code" {
				column = "object_code"
			}
			b.Where(column+" ILIKE '%' || ? || '%'", term.Text)
		}
		if filter.PartnerType != "" {
			b.Where("partner_type = ?", filter.PartnerType)
		}
		if filter.CategoryId > 0 {
			b.Where("category_id = ?", filter.CategoryId)
		}
	}
}

// Search returns the requested page of partners matching the filter, flat
// rows without related entities.
func (r *Repository) Search(ctx context.Context, page query.Page, filter Filter) (datamodel.SearchResult[*datamodel.BusinessPartner], error) {
	return r.partners.SearchWith(ctx, page, r.configure(filter))
}

// SearchFull returns the requested page of partners with their category
// reference and address collections attached. The window is applied to
// partner ids first and the graph joins run over that id set only, so the
// address fan-out can never truncate a partner's collection at a page edge.
func (r *Repository) SearchFull(ctx context.Context, page query.Page, filter Filter) (datamodel.SearchResult[*datamodel.BusinessPartner], error) {
	var result datamodel.SearchResult[*datamodel.BusinessPartner]

	total, err := r.partners.CountWith(ctx, r.configure(filter))
	if err != nil {
		return result, err
	}
	result.RecordCount = total
	if total == 0 {
		return result, nil
	}

	ids, err := r.partners.SearchPageIds(ctx, page, r.configure(filter))
	if err != nil {
		return result, err
	}
	if len(ids) == 0 {
		return result, nil
	}

	result.Records, err = r.loadGraphPage(ctx, ids)
	return result, err
}

// GetSearchPagination produces the paging metadata of a Search with the same
// filter, without fetching rows.
func (r *Repository) GetSearchPagination(ctx context.Context, page query.Page, filter Filter) (datamodel.PaginationDescriptor, error) {
	return r.partners.PaginationWith(ctx, page, r.configure(filter))
}

// GetById loads one partner without related entities.
func (r *Repository) GetById(ctx context.Context, id int) (*datamodel.BusinessPartner, error) {
	return r.partners.GetById(ctx, id)
}

// GetFull loads one partner with category, addresses, contacts and trail.
func (r *Repository) GetFull(ctx context.Context, id int) (*datamodel.BusinessPartner, error) {
	partner, err := r.loadGraph(ctx, id)
	if err != nil {
		return nil, err
	}

	contacts, err := r.contacts.SearchWith(ctx, query.Page{}, func(b *query.Builder) {
		b.Where("linked_object_id = ?", id)
		b.Where("linked_object_type = ?", datamodel.ObjectTypeBusinessPartner)
		b.OrderBy("id")
	})
	if err != nil {
		return nil, err
	}
	partner.Contacts = contacts.Records

	partner.Trail, err = trail.ForOwner(ctx, r.trail, id, datamodel.ObjectTypeBusinessPartner)
	if err != nil {
		return nil, err
	}
	return partner, nil
}

// SaveFull persists the whole aggregate in one transaction: the partner row
// plus every address, contact and trail entry carried on the struct.
func (r *Repository) SaveFull(ctx context.Context, partner *datamodel.BusinessPartner) error {
	root := r.partners.Root(partner)
	children := []aggregate.ChildCollection{
		repository.ChildSet(r.addresses, partner.Addresses),
		repository.ChildSet(r.contacts, partner.Contacts),
		repository.ChildSet(r.trail, partner.Trail),
	}
	if partner.IsNew() {
		return r.coordinator.InsertAggregate(ctx, root, children...)
	}
	return r.coordinator.UpdateAggregate(ctx, root, children...)
}

// Delete soft-deletes the partner row. Owned children stay linked to the
// deleted root and disappear with it from every live query.
func (r *Repository) Delete(ctx context.Context, partner *datamodel.BusinessPartner) (bool, error) {
	return r.partners.SoftDelete(ctx, partner, r.identity)
}

// QuickSearch runs the code/name mini-grammar search used by lookup fields.
func (r *Repository) QuickSearch(ctx context.Context, page query.Page, searchText string, excludeIds []int) (datamodel.SearchResult[*datamodel.BusinessPartner], error) {
	return r.partners.QuickSearch(ctx, page, searchText, excludeIds)
}
