package datamodel

import (
	"time"
)

// AuditFields carries the creation and modification stamps present on every table.
// They are set by the persistence coordinator and never trusted from caller input.
type AuditFields struct {
	CreatedUser      string
	CreatedDateTime  time.Time
	ModifiedUser     string
	ModifiedDateTime time.Time
}

// Record is the embedded base of every persisted entity
type Record struct {
	Id         int
	ObjectCode string
	ObjectName string
	IsDeleted  bool
	AuditFields
}

// GetId returns the database identifier, 0 meaning "new, unsaved"
func (r *Record) GetId() int { return r.Id }

// SetId is called by the coordinator after an insert assigned the identifier
func (r *Record) SetId(id int) { r.Id = id }

// IsNew reports whether the record has not been persisted yet
func (r *Record) IsNew() bool { return r.Id == 0 }

// Audit exposes the audit stamp block for the coordinator to write
func (r *Record) Audit() *AuditFields { return &r.AuditFields }

// MarkDeleted flags the record for soft deletion
func (r *Record) MarkDeleted() { r.IsDeleted = true }

// Deleted reports the soft-delete flag
func (r *Record) Deleted() bool { return r.IsDeleted }

// Entity is any persistable record with an integer identifier, soft-delete
// flag and audit stamps.
type Entity interface {
	GetId() int
	SetId(id int)
	IsNew() bool
	Audit() *AuditFields
	MarkDeleted()
	Deleted() bool
}

// LinkedObject is the weak back-reference of an owned child to its aggregate
// root: the owner is identified by id plus object-type token, not by pointer.
type LinkedObject struct {
	LinkedObjectId   int
	LinkedObjectType string
}

// SetOwner stamps the back-reference; called by the coordinator once the root id is known
func (l *LinkedObject) SetOwner(id int, objectType string) {
	l.LinkedObjectId = id
	l.LinkedObjectType = objectType
}

// OwnedChild is an entity persisted only as part of its root's save operation.
type OwnedChild interface {
	Entity
	SetOwner(id int, objectType string)
}

// PaginationDescriptor describes the paging metadata of a search, produced by
// the count statement that shares its filter predicates with the data statement.
type PaginationDescriptor struct {
	ObjectType  string
	PageSize    int
	PageCount   int
	RecordCount int
}

// SearchResult is the envelope of a paged search: the total matched record
// count plus the records of the requested page.
type SearchResult[T any] struct {
	RecordCount int
	Records     []T
}
