package invoices

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ledgerline/erpcore/internal/database"
	"github.com/ledgerline/erpcore/pkg/datamodel"
	"github.com/ledgerline/erpcore/pkg/hydrate"
	"github.com/ledgerline/erpcore/pkg/repository"
)

// graphSelect loads invoices with their partner reference and line
// collection in one statement. The line join fans the invoice row out per
// line; the assembler folds the rows back into one instance per invoice.
const graphSelect = `SELECT i.id, i.object_code, i.object_name, i.partner_id, i.invoice_date, i.due_date, i.total_amount, i.workflow_status, i.is_deleted, i.created_user, i.created_date_time, i.modified_user, i.modified_date_time, p.id, p.object_code, p.object_name, p.partner_type, p.tax_number, l.id, l.linked_object_id, l.linked_object_type, l.object_code, l.object_name, l.line_number, l.description, l.quantity, l.unit_price, l.is_deleted, l.created_user, l.created_date_time, l.modified_user, l.modified_date_time FROM invoice i LEFT JOIN business_partner p ON p.id = i.partner_id LEFT JOIN invoice_line l ON l.linked_object_id = i.id AND l.linked_object_type = 'INVOICE' AND l.is_deleted = FALSE`

const graphSQL = graphSelect + ` WHERE i.id = $1 AND i.is_deleted = FALSE ORDER BY i.id, l.line_number`

const graphPageSQL = graphSelect + ` WHERE i.id = ANY($1) AND i.is_deleted = FALSE ORDER BY i.id, l.line_number`

var graphColumns = []string{
	"id", "object_code", "object_name", "partner_id", "invoice_date", "due_date",
	"total_amount", "workflow_status", "is_deleted",
	"created_user", "created_date_time", "modified_user", "modified_date_time",
	"id", "object_code", "object_name", "partner_type", "tax_number",
	"id", "linked_object_id", "linked_object_type", "object_code", "object_name",
	"line_number", "description", "quantity", "unit_price", "is_deleted",
	"created_user", "created_date_time", "modified_user", "modified_date_time",
}

func newGraphAssembler() *hydrate.Assembler[*datamodel.Invoice] {
	splitter, err := hydrate.NewRowSplitter(graphColumns, "id", "id")
	if err != nil {
		zap.S().Fatalf("Failed to build invoice graph splitter: %v", err)
	}
	return &hydrate.Assembler[*datamodel.Invoice]{
		Splitter: splitter,
		BuildRoot: func(v hydrate.Values) (*datamodel.Invoice, error) {
			inv := &datamodel.Invoice{}
			inv.Id = v.Int("id")
			inv.ObjectCode = v.String("object_code")
			inv.ObjectName = v.String("object_name")
			inv.PartnerId = v.Int("partner_id")
			inv.InvoiceDate = v.Time("invoice_date")
			inv.DueDate = v.Time("due_date")
			inv.TotalAmount = v.Float("total_amount")
			inv.WorkflowStatus = v.String("workflow_status")
			inv.IsDeleted = v.Bool("is_deleted")
			inv.CreatedUser = v.String("created_user")
			inv.CreatedDateTime = v.Time("created_date_time")
			inv.ModifiedUser = v.String("modified_user")
			inv.ModifiedDateTime = v.Time("modified_date_time")
			return inv, nil
		},
		RootKey: func(v hydrate.Values) any { return v.Int("id") },
		Attach: func(inv *datamodel.Invoice, block int, v hydrate.Values) error {
			switch block {
			case 1:
				if inv.Partner != nil {
					return nil
				}
				p := &datamodel.BusinessPartner{}
				p.Id = v.Int("id")
				p.ObjectCode = v.String("object_code")
				p.ObjectName = v.String("object_name")
				p.PartnerType = v.String("partner_type")
				p.TaxNumber = v.String("tax_number")
				inv.Partner = p
			case 2:
				l := &datamodel.InvoiceLine{}
				l.Id = v.Int("id")
				l.LinkedObjectId = v.Int("linked_object_id")
				l.LinkedObjectType = v.String("linked_object_type")
				l.ObjectCode = v.String("object_code")
				l.ObjectName = v.String("object_name")
				l.LineNumber = v.Int("line_number")
				l.Description = v.String("description")
				l.Quantity = v.Float("quantity")
				l.UnitPrice = v.Float("unit_price")
				l.IsDeleted = v.Bool("is_deleted")
				l.CreatedUser = v.String("created_user")
				l.CreatedDateTime = v.Time("created_date_time")
				l.ModifiedUser = v.String("modified_user")
				l.ModifiedDateTime = v.Time("modified_date_time")
				inv.Lines = append(inv.Lines, l)
			}
			return nil
		},
	}
}

func (r *Repository) loadGraph(ctx context.Context, id int) (*datamodel.Invoice, error) {
	roots, err := r.runGraph(ctx, graphSQL, id)
	if err != nil {
		return nil, err
	}
	if len(roots) == 0 {
		return nil, fmt.Errorf("%w: %s %d", repository.ErrNotFound, datamodel.ObjectTypeInvoice, id)
	}
	return roots[0], nil
}

// loadGraphPage hydrates the invoices of one already-windowed id set and
// puts the result back into the order of ids, which carries the ordering of
// the id-window statement.
func (r *Repository) loadGraphPage(ctx context.Context, ids []int) ([]*datamodel.Invoice, error) {
	roots, err := r.runGraph(ctx, graphPageSQL, ids)
	if err != nil {
		return nil, err
	}
	byId := make(map[int]*datamodel.Invoice, len(roots))
	for _, inv := range roots {
		byId[inv.Id] = inv
	}
	ordered := make([]*datamodel.Invoice, 0, len(ids))
	for _, id := range ids {
		if inv, ok := byId[id]; ok {
			ordered = append(ordered, inv)
		}
	}
	return ordered, nil
}

func (r *Repository) runGraph(ctx context.Context, sql string, arg any) ([]*datamodel.Invoice, error) {
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
