package domain

import "time"

// CrawlerUserID is the reserved actor id the data-ingestion crawler writes
// into history entries. It never resolves in the user directory and is
// labelled distinctly.
const CrawlerUserID = -1

// HistoryEntry is one row of the append-only audit trail (history table).
// Entries are only ever "deleted" by the soft-delete cascade of the issue
// they reference.
type HistoryEntry struct {
	ID         int64     `db:"id"`
	ContextID  int64     `db:"context_id"`
	ActionedBy int       `db:"actioned_by"`
	ActionType int       `db:"action_type"` // action_types.cid
	StateID    int       `db:"state_id"`    // resulting review state
	ActionID   *int64    `db:"action_id"`   // NULL for context-level entries
	IssueID    *int64    `db:"issue_id"`    // NULL for context-level entries
	IsDeleted  int       `db:"is_deleted"`
	LastUpdate time.Time `db:"last_update"`
}
