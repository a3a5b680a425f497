// Package invoices persists workflow-gated invoices with their lines and
// audit trail.
package invoices

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ledgerline/erpcore/internal/database"
	"github.com/ledgerline/erpcore/pkg/aggregate"
	"github.com/ledgerline/erpcore/pkg/datamodel"
	"github.com/ledgerline/erpcore/pkg/query"
	"github.com/ledgerline/erpcore/pkg/repository"
	"github.com/ledgerline/erpcore/pkg/repos/trail"
	"github.com/ledgerline/erpcore/pkg/workflow"
)

// TrailActionStatusChange tags workflow transitions in the audit trail.
const TrailActionStatusChange = "STATUS-CHANGE"

// Filter narrows an invoice search. Zero values mean "no restriction".
type Filter struct {
	SearchText     string
	PartnerId      int
	WorkflowStatus string
	DateFrom       time.Time
	DateTo         time.Time
}

// Repository is the invoice module repository.
type Repository struct {
	db          database.PgxIface
	invoices    *repository.Repository[*datamodel.Invoice]
	lines       *repository.Repository[*datamodel.InvoiceLine]
	trail       *repository.Repository[*datamodel.TrailEntry]
	coordinator *aggregate.Coordinator
	identity    aggregate.Identity
	machine     *workflow.Machine
}

// NewRepository wires the invoice aggregate's repositories, coordinator and
// workflow machine.
func NewRepository(db database.PgxIface, identity aggregate.Identity) *Repository {
	return &Repository{
		db:          db,
		invoices:    repository.New(db, invoiceDescriptor()),
		lines:       repository.New(db, lineDescriptor()),
		trail:       trail.NewRepository(db),
		coordinator: aggregate.NewCoordinator(db, identity),
		identity:    identity,
		machine:     workflow.NewMachine(),
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
		if filter.PartnerId > 0 {
			b.Where("partner_id = ?", filter.PartnerId)
		}
		if filter.WorkflowStatus != "" {
			b.Where("workflow_status = ?", filter.WorkflowStatus)
		}
		if !filter.DateFrom.IsZero() {
			b.Where("invoice_date >= ?", filter.DateFrom)
		}
		if !filter.DateTo.IsZero() {
			b.Where("invoice_date <= ?", filter.DateTo)
		}
	}
}

// Search returns the requested page of invoices matching the filter, flat
// rows without related entities.
func (r *Repository) Search(ctx context.Context, page query.Page, filter Filter) (datamodel.SearchResult[*datamodel.Invoice], error) {
	return r.invoices.SearchWith(ctx, page, r.configure(filter))
}

// SearchFull returns the requested page of invoices with their partner
// reference and line collections attached. The window is applied to invoice
// ids first and the graph joins run over that id set only, so the line
// fan-out can never truncate an invoice's collection at a page edge.
func (r *Repository) SearchFull(ctx context.Context, page query.Page, filter Filter) (datamodel.SearchResult[*datamodel.Invoice], error) {
	var result datamodel.SearchResult[*datamodel.Invoice]

	total, err := r.invoices.CountWith(ctx, r.configure(filter))
	if err != nil {
		return result, err
	}
	result.RecordCount = total
	if total == 0 {
		return result, nil
	}

	ids, err := r.invoices.SearchPageIds(ctx, page, r.configure(filter))
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
	return r.invoices.PaginationWith(ctx, page, r.configure(filter))
}

// GetById loads one invoice without related entities.
func (r *Repository) GetById(ctx context.Context, id int) (*datamodel.Invoice, error) {
	return r.invoices.GetById(ctx, id)
}

// GetFull loads one invoice with its partner reference, lines and trail.
func (r *Repository) GetFull(ctx context.Context, id int) (*datamodel.Invoice, error) {
	invoice, err := r.loadGraph(ctx, id)
	if err != nil {
		return nil, err
	}
	invoice.Trail, err = trail.ForOwner(ctx, r.trail, id, datamodel.ObjectTypeInvoice)
	if err != nil {
		return nil, err
	}
	return invoice, nil
}

// SaveFull persists the whole aggregate in one transaction: the invoice row
// plus every line and trail entry carried on the struct. A new invoice with
// no status yet starts in DRAFT.
func (r *Repository) SaveFull(ctx context.Context, invoice *datamodel.Invoice) error {
	if invoice.IsNew() && invoice.WorkflowStatus == "" {
		invoice.WorkflowStatus = string(workflow.StatusDraft)
	}
	root := r.invoices.Root(invoice)
	children := []aggregate.ChildCollection{
		repository.ChildSet(r.lines, invoice.Lines),
		repository.ChildSet(r.trail, invoice.Trail),
	}
	if invoice.IsNew() {
		return r.coordinator.InsertAggregate(ctx, root, children...)
	}
	return r.coordinator.UpdateAggregate(ctx, root, children...)
}

// AvailableActions enumerates the workflow actions the caller may take on
// the invoice under the given context flags.
func (r *Repository) AvailableActions(invoice *datamodel.Invoice, wfCtx workflow.Context) []workflow.Action {
	return r.machine.AvailableActions(workflow.DocumentInvoice, workflow.Status(invoice.WorkflowStatus), wfCtx)
}

// ApplyAction runs one workflow transition on a persisted invoice: the
// machine validates the (status, action) pair before any statement is
// issued, then the status change and its trail entry are written in one
// transaction.
func (r *Repository) ApplyAction(ctx context.Context, invoice *datamodel.Invoice, action workflow.Action) error {
	from := workflow.Status(invoice.WorkflowStatus)
	to, err := r.machine.Apply(workflow.DocumentInvoice, from, action)
	if err != nil {
		return err
	}

	entry, err := aggregate.NewTrailEntry(TrailActionStatusChange, aggregate.StatusChangeDetail{
		Action:     string(action),
		FromStatus: string(from),
		ToStatus:   string(to),
	})
	if err != nil {
		return err
	}

	invoice.WorkflowStatus = string(to)
	err = r.coordinator.UpdateAggregate(ctx, r.invoices.Root(invoice),
		repository.ChildSet(r.trail, []*datamodel.TrailEntry{entry}))
	if err != nil {
		// The save never happened, keep the in-memory status in step with the row.
		invoice.WorkflowStatus = string(from)
		return err
	}
	invoice.Trail = append(invoice.Trail, entry)
	zap.S().Infow("Invoice status changed",
		"invoice", invoice.ObjectCode, "action", action, "from", from, "to", to)
	return nil
}

// Delete soft-deletes the invoice row.
func (r *Repository) Delete(ctx context.Context, invoice *datamodel.Invoice) (bool, error) {
	return r.invoices.SoftDelete(ctx, invoice, r.identity)
}

// QuickSearch runs the code/name mini-grammar search used by lookup fields.
func (r *Repository) QuickSearch(ctx context.Context, page query.Page, searchText string, excludeIds []int) (datamodel.SearchResult[*datamodel.Invoice], error) {
	return r.invoices.QuickSearch(ctx, page, searchText, excludeIds)
}
