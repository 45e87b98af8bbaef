package model

import "time"

// Action is the kind of mutation an audit entry records.
type Action string

// Audit actions.
const (
	ActionCreate           Action = "CREATE"
	ActionAssign           Action = "ASSIGN"
	ActionReturn           Action = "RETURN"
	ActionEdit             Action = "EDIT"
	ActionDelete           Action = "DELETE"
	ActionBulkEdit         Action = "BULK_EDIT"
	ActionBulkStatusChange Action = "BULK_STATUS_CHANGE"
)

// AuditLogEntry is an immutable record of one asset mutation. Asset name and
// serial number are copied at the time of the action so later renames do not
// rewrite history.
type AuditLogEntry struct {
	ID           string    `json:"id"`
	AssetID      string    `json:"asset_id"`
	AssetName    string    `json:"asset_name"`
	SerialNumber string    `json:"serial_number"`
	Action       Action    `json:"action"`
	Details      string    `json:"details"`
	PerformedBy  string    `json:"performed_by"`
	Timestamp    time.Time `json:"timestamp"`
}

// NewAuditEntry builds an entry for asset a. ID and Timestamp are assigned by
// the store.
func NewAuditEntry(a *Asset, action Action, details, performedBy string) *AuditLogEntry {
	return &AuditLogEntry{
		AssetID:      a.ID,
		AssetName:    a.Name,
		SerialNumber: a.SerialNumber,
		Action:       action,
		Details:      details,
		PerformedBy:  performedBy,
	}
}
