package invoices

import (
	"github.com/jackc/pgx/v5"

	"github.com/ledgerline/erpcore/pkg/datamodel"
	"github.com/ledgerline/erpcore/pkg/repository"
)

var invoiceColumns = []string{
	"object_code", "object_name", "partner_id", "invoice_date", "due_date",
	"total_amount", "workflow_status", "is_deleted",
	"created_user", "created_date_time", "modified_user", "modified_date_time",
}

func invoiceDescriptor() repository.Descriptor[*datamodel.Invoice] {
	return repository.Descriptor[*datamodel.Invoice]{
		ObjectType:   datamodel.ObjectTypeInvoice,
		Table:        "invoice",
		Columns:      invoiceColumns,
		DefaultOrder: "object_code",
		Scan: func(row pgx.Row) (*datamodel.Invoice, error) {
			inv := &datamodel.Invoice{}
			err := row.Scan(
				&inv.Id, &inv.ObjectCode, &inv.ObjectName, &inv.PartnerId, &inv.InvoiceDate, &inv.DueDate,
				&inv.TotalAmount, &inv.WorkflowStatus, &inv.IsDeleted,
				&inv.CreatedUser, &inv.CreatedDateTime, &inv.ModifiedUser, &inv.ModifiedDateTime)
			if err != nil {
				return nil, err
			}
			return inv, nil
		},
		Args: func(inv *datamodel.Invoice) []any {
			return []any{
				inv.ObjectCode, inv.ObjectName, inv.PartnerId, inv.InvoiceDate, inv.DueDate,
				inv.TotalAmount, inv.WorkflowStatus, inv.IsDeleted,
				inv.CreatedUser, inv.CreatedDateTime, inv.ModifiedUser, inv.ModifiedDateTime,
			}
		},
	}
}

var lineColumns = []string{
	"linked_object_id", "linked_object_type", "object_code", "object_name",
	"line_number", "description", "quantity", "unit_price", "is_deleted",
	"created_user", "created_date_time", "modified_user", "modified_date_time",
}

func lineDescriptor() repository.Descriptor[*datamodel.InvoiceLine] {
	return repository.Descriptor[*datamodel.InvoiceLine]{
		ObjectType:   datamodel.ObjectTypeInvoiceLine,
		Table:        "invoice_line",
		Columns:      lineColumns,
		DefaultOrder: "line_number",
		Scan: func(row pgx.Row) (*datamodel.InvoiceLine, error) {
			l := &datamodel.InvoiceLine{}
			err := row.Scan(
				&l.Id, &l.LinkedObjectId, &l.LinkedObjectType, &l.ObjectCode, &l.ObjectName,
				&l.LineNumber, &l.Description, &l.Quantity, &l.UnitPrice, &l.IsDeleted,
				&l.CreatedUser, &l.CreatedDateTime, &l.ModifiedUser, &l.ModifiedDateTime)
			if err != nil {
				return nil, err
			}
			return l, nil
		},
		Args: func(l *datamodel.InvoiceLine) []any {
			return []any{
				l.LinkedObjectId, l.LinkedObjectType, l.ObjectCode, l.ObjectName,
				l.LineNumber, l.Description, l.Quantity, l.UnitPrice, l.IsDeleted,
				l.CreatedUser, l.CreatedDateTime, l.ModifiedUser, l.ModifiedDateTime,
			}
		},
	}
}
