package aggregate

import (
	jsoniter "github.com/json-iterator/go"

	"github.com/ledgerline/erpcore/pkg/datamodel"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// NewTrailEntry builds an audit-trail line with a JSON-encoded detail
// payload. The owner back-reference and audit stamps are filled in by the
// coordinator during the save.
func NewTrailEntry(action string, detail any) (*datamodel.TrailEntry, error) {
	payload, err := json.MarshalToString(detail)
	if err != nil {
		return nil, err
	}
	entry := &datamodel.TrailEntry{
		TrailAction: action,
		Detail:      payload,
	}
	return entry, nil
}

// StatusChangeDetail is the trail payload recorded for a workflow transition.
type StatusChangeDetail struct {
	Action     string `json:"action"`
	FromStatus string `json:"fromStatus"`
	ToStatus   string `json:"toStatus"`
}
