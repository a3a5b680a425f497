package workflow

func boolPtr(b bool) *bool { return &b }

// builtinDefinitions declares the transition tables. Every action lands on
// the same status wherever it is applied from, so each table shares one
// action-to-result map.
func builtinDefinitions() map[DocumentType]Definition {
	results := map[Action]Status{
		ActionSaveAsDraft:       StatusDraft,
		ActionSubmitForApproval: StatusPendingApproval,
		ActionApprove:           StatusApproved,
		ActionReject:            StatusRejected,
		ActionCancel:            StatusCancelled,
		ActionVoid:              StatusVoid,
		ActionIssue:             StatusIssued,
		ActionPay:               StatusPaid,
		ActionComplete:          StatusCompleted,
	}

	purchaseOrder := Definition{
		Statuses: []Status{
			StatusStart, StatusDraft, StatusPendingApproval, StatusApproved,
			StatusRejected, StatusCancelled, StatusIssued, StatusCompleted, StatusVoid,
		},
		Results: results,
		Rules: map[Status][]Rule{
			StatusStart: {
				{Action: ActionSaveAsDraft},
			},
			StatusDraft: {
				{Action: ActionSaveAsDraft},
				{Action: ActionSubmitForApproval, WhenApprovalRequired: boolPtr(true)},
				{Action: ActionApprove, WhenApprovalRequired: boolPtr(false)},
				{Action: ActionCancel},
			},
			StatusPendingApproval: {
				{Action: ActionApprove, RequiresApprover: true},
				{Action: ActionReject, RequiresApprover: true},
				{Action: ActionCancel},
			},
			StatusApproved: {
				{Action: ActionIssue},
				{Action: ActionVoid},
			},
			StatusIssued: {
				{Action: ActionComplete},
				{Action: ActionVoid},
			},
			StatusRejected: {
				{Action: ActionSaveAsDraft},
				{Action: ActionCancel},
			},
		},
	}

	invoice := Definition{
		Statuses: []Status{
			StatusStart, StatusDraft, StatusPendingApproval, StatusApproved,
			StatusRejected, StatusCancelled, StatusIssued, StatusPaid, StatusVoid,
		},
		Results: results,
		Rules: map[Status][]Rule{
			StatusStart: {
				{Action: ActionSaveAsDraft},
			},
			StatusDraft: {
				{Action: ActionSaveAsDraft},
				{Action: ActionSubmitForApproval, WhenApprovalRequired: boolPtr(true)},
				{Action: ActionIssue, WhenApprovalRequired: boolPtr(false)},
				{Action: ActionCancel},
			},
			StatusPendingApproval: {
				{Action: ActionApprove, RequiresApprover: true},
				{Action: ActionReject, RequiresApprover: true},
				{Action: ActionCancel},
			},
			StatusApproved: {
				{Action: ActionIssue},
				{Action: ActionVoid},
			},
			StatusIssued: {
				{Action: ActionPay},
				{Action: ActionVoid},
			},
			StatusRejected: {
				{Action: ActionSaveAsDraft},
				{Action: ActionCancel},
			},
		},
	}

	checkIn := Definition{
		Statuses: []Status{
			StatusStart, StatusDraft, StatusCompleted, StatusCancelled, StatusVoid,
		},
		Results: results,
		Rules: map[Status][]Rule{
			StatusStart: {
				{Action: ActionSaveAsDraft},
			},
			StatusDraft: {
				{Action: ActionSaveAsDraft},
				{Action: ActionComplete},
				{Action: ActionCancel},
			},
			StatusCompleted: {
				{Action: ActionVoid},
			},
		},
	}

	eventRegistration := Definition{
		Statuses: []Status{
			StatusStart, StatusDraft, StatusPendingApproval, StatusApproved,
			StatusRejected, StatusCancelled, StatusCompleted, StatusVoid,
		},
		Results: results,
		Rules: map[Status][]Rule{
			StatusStart: {
				{Action: ActionSaveAsDraft},
			},
			StatusDraft: {
				{Action: ActionSaveAsDraft},
				{Action: ActionSubmitForApproval, WhenApprovalRequired: boolPtr(true)},
				{Action: ActionComplete, WhenApprovalRequired: boolPtr(false)},
				{Action: ActionCancel},
			},
			StatusPendingApproval: {
				{Action: ActionApprove, RequiresApprover: true},
				{Action: ActionReject, RequiresApprover: true},
				{Action: ActionCancel},
			},
			StatusApproved: {
				{Action: ActionComplete},
				{Action: ActionCancel},
			},
			StatusRejected: {
				{Action: ActionSaveAsDraft},
				{Action: ActionCancel},
			},
			StatusCompleted: {
				{Action: ActionVoid},
			},
		},
	}

	return map[DocumentType]Definition{
		DocumentPurchaseOrder:     purchaseOrder,
		DocumentInvoice:           invoice,
		DocumentCheckIn:           checkIn,
		DocumentEventRegistration: eventRegistration,
	}
}
