package repository

import (
	"context"

	"phenoqc/internal/domain"
)

// Status-category bits of the issue list filter. These must match the values
// the review front-end sends. A zero mask means "no status filtering".
const (
	IncludeNewIssues         = 0x1
	IncludeAcceptedIssues    = 0x2
	IncludeResolvedIssues    = 0x4
	IncludeDataAddedIssues   = 0x8
	IncludeDataRemovedIssues = 0x10
	IncludeDataChangedIssues = 0x20
	IncludeNoDataContexts    = 0x40
)

// Unset marks an absent level in the hierarchical context filter.
const Unset = -1

// ContextFilter narrows issues by the context hierarchy
// centre → pipeline → genotype → strain → procedure → parameter. A level is
// only applied when every coarser level is set as well.
type ContextFilter struct {
	CentreID    int
	PipelineID  int
	GenotypeID  int
	StrainID    int
	ProcedureID int
	ParameterID int
}

// NewContextFilter returns a filter with every level unset.
func NewContextFilter() ContextFilter {
	return ContextFilter{
		CentreID:    Unset,
		PipelineID:  Unset,
		GenotypeID:  Unset,
		StrainID:    Unset,
		ProcedureID: Unset,
		ParameterID: Unset,
	}
}

// levels returns the hierarchy as (column, value) pairs, coarsest first.
func (f ContextFilter) levels() []struct {
	column string
	value  int
} {
	return []struct {
		column string
		value  int
	}{
		{"c.centre_id", f.CentreID},
		{"c.pipeline_id", f.PipelineID},
		{"c.genotype_id", f.GenotypeID},
		{"c.strain_id", f.StrainID},
		{"c.procedure_id", f.ProcedureID},
		{"c.parameter_id", f.ParameterID},
	}
}

// IssuesFilter combines the context hierarchy with the status bitmask.
type IssuesFilter struct {
	Context    ContextFilter
	StatusMask int
}

// Sort is a validated server-side sort request. Key must be one of the
// whitelisted issue sort keys; unknown keys are rejected.
type Sort struct {
	Key       string
	Direction string // "ASC" or "DESC"
}

// DefaultSort is reverse chronological, which is what the review UI shows
// when the client sends no sort.
var DefaultSort = Sort{Key: "lastupdate", Direction: "DESC"}

// IssueDetail is an issue joined with its owning context and the procedure /
// parameter display metadata. Actor labels are resolved by the service layer.
type IssueDetail struct {
	Issue         domain.Issue
	Context       domain.DataContext
	Description   string
	ProcedureKey  string
	ProcedureName string
	ParameterKey  string
	ParameterName string
}

// IssuesRepository is the persistence surface of the issue ledger and its
// lifecycle transitions. Every mutating method runs as one atomic unit.
type IssuesRepository interface {
	// GetIssue loads one issue (deleted or not) with display metadata.
	GetIssue(ctx context.Context, id int64) (*IssueDetail, error)

	// ListIssues returns the issues matching filter, sorted and paged, plus
	// the total count for the same predicates. Deleted issues are excluded.
	// start/limit of Unset disable pagination.
	ListIssues(ctx context.Context, filter IssuesFilter, sort Sort, start, limit int) ([]IssueDetail, int64, error)

	// ListIssuesByContext returns the non-deleted issues of one context.
	ListIssuesByContext(ctx context.Context, contextID int64) ([]IssueDetail, error)

	// RaiseIssue creates the issue (status New), increments the context
	// issue counter, records the raising action and its history entry, and
	// cites the given measurement ids, all in one transaction. A measurement
	// id that does not resolve within the context aborts the whole operation
	// with ErrNotFound.
	RaiseIssue(ctx context.Context, issue *domain.Issue, datapoints []int64) (*domain.Issue, *domain.Action, error)

	// ApplyAction records an action against an issue together with its
	// history entry. newStatus >= 0 moves the issue to that status;
	// bumpResolved increments the context resolved counter subject to the
	// counter ceiling.
	ApplyAction(ctx context.Context, action *domain.Action, newStatus int, bumpResolved bool) (*domain.Action, error)

	// DeleteIssue soft-deletes the issue and cascades the soft delete to its
	// history entries, adjusting the context counters. Only the raising user
	// may delete; any other actor makes this a no-op and deleted is false.
	DeleteIssue(ctx context.Context, issueID int64, actorID int) (deleted bool, err error)
}
