package datamodel

import "time"

// Object type tokens used in linked-object back-references and pagination
// descriptors. Stable strings, stored in the database.
const (
	ObjectTypeBusinessPartner = "BUSINESS-PARTNER"
	ObjectTypePartnerAddress  = "PARTNER-ADDRESS"
	ObjectTypePartnerContact  = "PARTNER-CONTACT"
	ObjectTypeInvoice         = "INVOICE"
	ObjectTypeInvoiceLine     = "INVOICE-LINE"
	ObjectTypeCategory        = "CATEGORY"
	ObjectTypeTrailEntry      = "TRAIL-ENTRY"
)

// BusinessPartner is an aggregate root owning addresses, contacts and an audit trail.
type BusinessPartner struct {
	Record
	PartnerType string
	TaxNumber   string
	CategoryId  int

	// Related entities, populated by graph-aware loads only.
	Category  *Category
	Addresses []*PartnerAddress
	Contacts  []*PartnerContact
	Trail     []*TrailEntry
}

// PartnerAddress is an owned child of a business partner.
type PartnerAddress struct {
	Record
	LinkedObject
	AddressType string
	Street      string
	City        string
	PostalCode  string
	Country     string
	IsPrimary   bool
}

// PartnerContact is an owned child of a business partner.
type PartnerContact struct {
	Record
	LinkedObject
	ContactType  string
	ContactValue string
	IsPrimary    bool
}

// TrailEntry is one line of an aggregate's audit trail. Detail holds a
// JSON-encoded payload describing the recorded change.
type TrailEntry struct {
	Record
	LinkedObject
	TrailAction string
	Detail      string
}

// Invoice is a workflow-gated business document owning its lines and trail.
type Invoice struct {
	Record
	PartnerId      int
	InvoiceDate    time.Time
	DueDate        time.Time
	TotalAmount    float64
	WorkflowStatus string

	Partner *BusinessPartner
	Lines   []*InvoiceLine
	Trail   []*TrailEntry
}

// InvoiceLine is an owned child of an invoice.
type InvoiceLine struct {
	Record
	LinkedObject
	LineNumber  int
	Description string
	Quantity    float64
	UnitPrice   float64
}

// LineTotal returns the extended amount of the line.
func (l *InvoiceLine) LineTotal() float64 {
	return l.Quantity * l.UnitPrice
}

// Category is a hierarchical lookup entity (materialized path, self-referential parent).
type Category struct {
	Record
	HierarchyFields
	CategoryType string
}
