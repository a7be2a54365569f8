package domain

import "time"

// Issue status consistent identifiers (issue_statuses.cid). These match the
// values the review front-end and the crawler agreed on, so they are stable.
const (
	StatusNew         = 0
	StatusAccepted    = 1
	StatusResolved    = 4
	StatusDataAdded   = 6
	StatusDataRemoved = 7
	StatusDataChanged = 8
)

// StatusName returns the short display name for an issue status code.
func StatusName(status int) string {
	switch status {
	case StatusNew:
		return "new"
	case StatusAccepted:
		return "accepted"
	case StatusResolved:
		return "resolved"
	case StatusDataAdded:
		return "dataadded"
	case StatusDataRemoved:
		return "dataremoved"
	case StatusDataChanged:
		return "datachanged"
	default:
		return "unknown"
	}
}

// Issue priorities.
const (
	PriorityLow    = 1
	PriorityMedium = 2
	PriorityHigh   = 3
)

// PriorityName returns the display name for an issue priority.
func PriorityName(priority int) string {
	switch priority {
	case PriorityMedium:
		return "medium"
	case PriorityHigh:
		return "high"
	default:
		return "low"
	}
}

// Issue raised against a data context (issues table). Deletion is a soft
// flag, never a row removal, and is only permitted for the raising user.
type Issue struct {
	ID             int64     `db:"id"`
	ContextID      int64     `db:"context_id"`
	Title          string    `db:"title"`
	Description    string    `db:"description"`
	Priority       int       `db:"priority"`
	ControlSetting int       `db:"control_setting"`
	Status         int       `db:"status"` // issue_statuses.cid
	RaisedBy       int       `db:"raised_by"`
	AssignedTo     int       `db:"assigned_to"`
	IsDeleted      int       `db:"is_deleted"`
	LastUpdate     time.Time `db:"last_update"`
}
