// Package workflow gates business-document status transitions. Each document
// type declares its status set, its valid (status, action) pairs and the
// status every action lands on, all as data loaded once at process start.
// The machine itself is stateless lookup logic over the status carried on
// the document.
package workflow

import (
	"errors"
	"fmt"
)

// Status is a workflow state token persisted on a document.
type Status string

// Action is a transition trigger token. Tokens are stable strings shared
// with stored data and external callers.
type Action string

// DocumentType selects the transition table of a business document.
type DocumentType string

const (
	StatusStart           Status = "START"
	StatusDraft           Status = "DRAFT"
	StatusPendingApproval Status = "PENDING-APPROVAL"
	StatusApproved        Status = "APPROVED"
	StatusRejected        Status = "REJECTED"
	StatusCancelled       Status = "CANCELLED"
	StatusVoid            Status = "VOID"
	StatusIssued          Status = "ISSUED"
	StatusPaid            Status = "PAID"
	StatusCompleted       Status = "COMPLETED"
)

const (
	ActionSaveAsDraft       Action = "SAVE-AS-DRAFT"
	ActionSubmitForApproval Action = "SUBMIT-FOR-APPROVAL"
	ActionApprove           Action = "APPROVE"
	ActionReject            Action = "REJECT"
	ActionCancel            Action = "CANCEL"
	ActionVoid              Action = "VOID"
	ActionPay               Action = "PAY"
	ActionIssue             Action = "ISSUE"
	ActionComplete          Action = "COMPLETE"
)

const (
	DocumentPurchaseOrder     DocumentType = "PURCHASE-ORDER"
	DocumentInvoice           DocumentType = "INVOICE"
	DocumentCheckIn           DocumentType = "CHECK-IN"
	DocumentEventRegistration DocumentType = "EVENT-REGISTRATION"
)

// ErrInvalidTransition is the domain error for an action not valid for the
// document's current status. It is raised before any write is attempted.
var ErrInvalidTransition = errors.New("workflow: action not valid for current status")

// ErrUnknownDocumentType is returned when no transition table is declared
// for the requested document type.
var ErrUnknownDocumentType = errors.New("workflow: unknown document type")

// ErrUnknownAction is returned when an action is not part of the document
// type's action vocabulary.
var ErrUnknownAction = errors.New("workflow: unknown action for document type")

// Context carries the caller-side flags the available-action rules branch on.
type Context struct {
	ApprovalRequired bool
	IsApprover       bool
}

// Rule is one row of a document type's decision table: the action permitted
// from a status, with optional context requirements. RequiresApprover limits
// the action to approvers; WhenApprovalRequired, when non-nil, limits it to
// documents whose approval flag matches.
type Rule struct {
	Action               Action
	RequiresApprover     bool
	WhenApprovalRequired *bool
}

// Definition is the complete transition table of one document type. Results
// maps each action to its destination status; by design the destination
// depends on the action alone, never on the origin status.
type Definition struct {
	Statuses []Status
	Results  map[Action]Status
	Rules    map[Status][]Rule
}

// HasStatus reports whether the token belongs to the declared status set.
func (d Definition) HasStatus(s Status) bool {
	for _, known := range d.Statuses {
		if known == s {
			return true
		}
	}
	return false
}

// Machine answers transition questions for every declared document type.
type Machine struct {
	defs map[DocumentType]Definition
}

// NewMachine loads the built-in transition tables. The machine is read-only
// after construction and safe for concurrent use.
func NewMachine() *Machine {
	return &Machine{defs: builtinDefinitions()}
}

// Definition returns the transition table of a document type.
func (m *Machine) Definition(dt DocumentType) (Definition, error) {
	def, ok := m.defs[dt]
	if !ok {
		return Definition{}, fmt.Errorf("%w: %s", ErrUnknownDocumentType, dt)
	}
	return def, nil
}

// IsValidTransition reports whether (currentStatus, action) is a member of
// the document type's valid-pairs set. Context flags narrow availability,
// not validity.
func (m *Machine) IsValidTransition(dt DocumentType, current Status, action Action) bool {
	def, ok := m.defs[dt]
	if !ok {
		return false
	}
	for _, rule := range def.Rules[current] {
		if rule.Action == action {
			return true
		}
	}
	return false
}

// ResultingStatus is a pure function of the action for a given document type.
func (m *Machine) ResultingStatus(dt DocumentType, action Action) (Status, error) {
	def, err := m.Definition(dt)
	if err != nil {
		return "", err
	}
	result, ok := def.Results[action]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownAction, action)
	}
	return result, nil
}

// AvailableActions enumerates the actions permitted from the current status
// under the given context flags, in declared table order.
func (m *Machine) AvailableActions(dt DocumentType, current Status, ctx Context) []Action {
	def, ok := m.defs[dt]
	if !ok {
		return nil
	}
	var actions []Action
	for _, rule := range def.Rules[current] {
		if rule.RequiresApprover && !ctx.IsApprover {
			continue
		}
		if rule.WhenApprovalRequired != nil && *rule.WhenApprovalRequired != ctx.ApprovalRequired {
			continue
		}
		actions = append(actions, rule.Action)
	}
	return actions
}

// Apply validates the transition and returns the resulting status. A rejected
// transition fails with ErrInvalidTransition and must abort the caller's
// write before any statement is issued.
func (m *Machine) Apply(dt DocumentType, current Status, action Action) (Status, error) {
	if _, err := m.Definition(dt); err != nil {
		return "", err
	}
	if !m.IsValidTransition(dt, current, action) {
		return "", fmt.Errorf("%w: %s + %s (%s)", ErrInvalidTransition, current, action, dt)
	}
	return m.ResultingStatus(dt, action)
}
