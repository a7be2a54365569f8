package domain

import "time"

// Action type consistent identifiers (action_types.cid). Accept, Resolve and
// Delete are the privileged codes that drive status and counter transitions;
// every other recognized code is a pure annotation (action + history entry).
const (
	ActionRaise   = 0
	ActionComment = 1
	ActionAccept  = 2
	ActionResolve = 4
	ActionDelete  = 11
	ActionQcDone  = 12
)

// ActionTypeName returns the short display name for an action type code.
func ActionTypeName(actionType int) string {
	switch actionType {
	case ActionRaise:
		return "raise"
	case ActionComment:
		return "comment"
	case ActionAccept:
		return "accept"
	case ActionResolve:
		return "resolve"
	case ActionDelete:
		return "delete"
	case ActionQcDone:
		return "qcdone"
	default:
		return "unknown"
	}
}

// Action taken against an issue (actions table). Rows are immutable once
// inserted; the nullable issue reference is only set when the action is
// created together with the issue it raises.
type Action struct {
	ID          int64     `db:"id"`
	Description string    `db:"description"`
	ActionType  int       `db:"action_type"` // action_types.cid
	ActionedBy  int       `db:"actioned_by"`
	IssueID     *int64    `db:"issue_id"` // NULL for context-level actions
	LastUpdate  time.Time `db:"last_update"`
}
