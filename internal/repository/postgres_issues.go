package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"phenoqc/internal/domain"
)

// PostgresIssuesRepository implements IssuesRepository against the primary
// QC store.
type PostgresIssuesRepository struct {
	db *sql.DB
}

func NewPostgresIssuesRepository(db *sql.DB) *PostgresIssuesRepository {
	return &PostgresIssuesRepository{db: db}
}

var _ IssuesRepository = (*PostgresIssuesRepository)(nil)

// Shared projection for issue detail rows: the issue, its owning context and
// the procedure/parameter display metadata in one round trip.
const issueDetailColumns = `
		i.id, i.context_id, i.title, i.description, i.priority, i.control_setting,
		i.status, i.raised_by, i.assigned_to, i.is_deleted, i.last_update,
		c.id, c.centre_id, c.pipeline_id, c.genotype_id, c.strain_id,
		c.procedure_id, c.parameter_id,
		c.num_issues, c.num_resolved, c.num_measurements, c.state_id,
		p.procedure_key, p.name, q.parameter_key, q.name`

const issueDetailFrom = `
	FROM issues i
	JOIN data_contexts c ON c.id = i.context_id
	JOIN procedures p ON p.procedure_id = c.procedure_id
	JOIN parameters q ON q.parameter_id = c.parameter_id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIssueDetail(row rowScanner) (*IssueDetail, error) {
	var d IssueDetail
	err := row.Scan(
		&d.Issue.ID,
		&d.Issue.ContextID,
		&d.Issue.Title,
		&d.Issue.Description,
		&d.Issue.Priority,
		&d.Issue.ControlSetting,
		&d.Issue.Status,
		&d.Issue.RaisedBy,
		&d.Issue.AssignedTo,
		&d.Issue.IsDeleted,
		&d.Issue.LastUpdate,
		&d.Context.ID,
		&d.Context.CentreID,
		&d.Context.PipelineID,
		&d.Context.GenotypeID,
		&d.Context.StrainID,
		&d.Context.ProcedureID,
		&d.Context.ParameterID,
		&d.Context.NumIssues,
		&d.Context.NumResolved,
		&d.Context.NumMeasurements,
		&d.Context.StateID,
		&d.ProcedureKey,
		&d.ProcedureName,
		&d.ParameterKey,
		&d.ParameterName,
	)
	if err != nil {
		return nil, err
	}
	d.Description = d.Issue.Description
	return &d, nil
}

// Whitelisted sort keys. "procedure", "parameter" and "qeid" resolve display
// name/key through the metadata joins; everything else sorts on the issue row.
var issueSortColumns = map[string]string{
	"title":      "i.title",
	"priority":   "i.priority",
	"status":     "i.status",
	"raisedby":   "i.raised_by",
	"lastupdate": "i.last_update",
	"procedure":  "p.name",
	"parameter":  "q.name",
	"qeid":       "q.parameter_key",
}

func (s Sort) orderClause() (string, error) {
	column, ok := issueSortColumns[strings.ToLower(s.Key)]
	if !ok {
		return "", fmt.Errorf("%w %q", ErrBadSortKey, s.Key)
	}
	dir := "ASC"
	if strings.EqualFold(s.Direction, "DESC") {
		dir = "DESC"
	}
	return fmt.Sprintf("ORDER BY %s %s", column, dir), nil
}

// Statuses excluded when their category bit is absent from a non-zero mask.
var statusFilterBits = []struct {
	bit    int
	status int
}{
	{IncludeNewIssues, domain.StatusNew},
	{IncludeAcceptedIssues, domain.StatusAccepted},
	{IncludeResolvedIssues, domain.StatusResolved},
	{IncludeDataAddedIssues, domain.StatusDataAdded},
	{IncludeDataRemovedIssues, domain.StatusDataRemoved},
	{IncludeDataChangedIssues, domain.StatusDataChanged},
}

// buildIssuePredicates composes the WHERE clause shared by the list and
// count queries, so pagination totals always agree with the page contents.
func buildIssuePredicates(filter IssuesFilter) ([]string, []any) {
	where := []string{"i.is_deleted = 0"}
	args := []any{}
	argIdx := 1

	// Hierarchical context filter: stop at the first unset level so an unset
	// coarser level never lets a finer one leak into the predicates.
	for _, level := range filter.Context.levels() {
		if level.value == Unset {
			break
		}
		where = append(where, fmt.Sprintf("%s = $%d", level.column, argIdx))
		args = append(args, level.value)
		argIdx++
	}

	if filter.StatusMask != 0 {
		if filter.StatusMask&IncludeNoDataContexts == 0 {
			where = append(where, "c.num_measurements <> 0")
		}
		for _, sb := range statusFilterBits {
			if filter.StatusMask&sb.bit == 0 {
				where = append(where, fmt.Sprintf("i.status <> $%d", argIdx))
				args = append(args, sb.status)
				argIdx++
			}
		}
	}

	return where, args
}

func (r *PostgresIssuesRepository) GetIssue(ctx context.Context, id int64) (*IssueDetail, error) {
	query := `SELECT` + issueDetailColumns + issueDetailFrom + `
	WHERE i.id = $1`

	detail, err := scanIssueDetail(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get issue: %w", err)
	}
	return detail, nil
}

func (r *PostgresIssuesRepository) ListIssues(ctx context.Context, filter IssuesFilter, sort Sort, start, limit int) ([]IssueDetail, int64, error) {
	orderBy, err := sort.orderClause()
	if err != nil {
		return nil, 0, err
	}

	where, args := buildIssuePredicates(filter)
	whereClause := strings.Join(where, " AND ")

	countQuery := `SELECT COUNT(*)` + issueDetailFrom + `
	WHERE ` + whereClause
	var total int64
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count issues: %w", err)
	}

	query := `SELECT` + issueDetailColumns + issueDetailFrom + `
	WHERE ` + whereClause + `
	` + orderBy
	if limit != Unset {
		query += fmt.Sprintf(" LIMIT $%d", len(args)+1)
		args = append(args, limit)
	}
	if start != Unset {
		query += fmt.Sprintf(" OFFSET $%d", len(args)+1)
		args = append(args, start)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list issues: %w", err)
	}
	defer rows.Close()

	var issues []IssueDetail
	for rows.Next() {
		detail, err := scanIssueDetail(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan issue: %w", err)
		}
		issues = append(issues, *detail)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to list issues: %w", err)
	}

	return issues, total, nil
}

func (r *PostgresIssuesRepository) ListIssuesByContext(ctx context.Context, contextID int64) ([]IssueDetail, error) {
	query := `SELECT` + issueDetailColumns + issueDetailFrom + `
	WHERE i.is_deleted = 0 AND i.context_id = $1
	ORDER BY i.last_update DESC`

	rows, err := r.db.QueryContext(ctx, query, contextID)
	if err != nil {
		return nil, fmt.Errorf("failed to list issues by context: %w", err)
	}
	defer rows.Close()

	var issues []IssueDetail
	for rows.Next() {
		detail, err := scanIssueDetail(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan issue: %w", err)
		}
		issues = append(issues, *detail)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list issues by context: %w", err)
	}
	return issues, nil
}

func lockContext(ctx context.Context, tx *sql.Tx, contextID int64) (*domain.DataContext, error) {
	var c domain.DataContext
	err := tx.QueryRowContext(ctx, `
		SELECT id, centre_id, pipeline_id, genotype_id, strain_id,
		       procedure_id, parameter_id,
		       num_issues, num_resolved, num_measurements, state_id
		  FROM data_contexts
		 WHERE id = $1
		 FOR UPDATE`, contextID).Scan(
		&c.ID, &c.CentreID, &c.PipelineID, &c.GenotypeID, &c.StrainID,
		&c.ProcedureID, &c.ParameterID,
		&c.NumIssues, &c.NumResolved, &c.NumMeasurements, &c.StateID,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to lock context: %w", err)
	}
	return &c, nil
}

func updateContextCounters(ctx context.Context, tx *sql.Tx, c *domain.DataContext) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE data_contexts
		   SET num_issues = $1, num_resolved = $2
		 WHERE id = $3`,
		c.NumIssues, c.NumResolved, c.ID)
	if err != nil {
		return fmt.Errorf("failed to update context counters: %w", err)
	}
	return nil
}

func insertHistory(ctx context.Context, tx *sql.Tx, entry *domain.HistoryEntry) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO history
			(context_id, actioned_by, action_type, state_id, action_id, issue_id, is_deleted, last_update)
		VALUES ($1, $2, $3, $4, $5, $6, 0, NOW())`,
		entry.ContextID, entry.ActionedBy, entry.ActionType, entry.StateID,
		nullableID(entry.ActionID), nullableID(entry.IssueID))
	if err != nil {
		return fmt.Errorf("failed to insert history entry: %w", err)
	}
	return nil
}

func insertAction(ctx context.Context, tx *sql.Tx, a *domain.Action) error {
	err := tx.QueryRowContext(ctx, `
		INSERT INTO actions (description, action_type, actioned_by, issue_id, last_update)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING id, last_update`,
		a.Description, a.ActionType, a.ActionedBy, nullableID(a.IssueID)).
		Scan(&a.ID, &a.LastUpdate)
	if err != nil {
		return fmt.Errorf("failed to insert action: %w", err)
	}
	return nil
}

func (r *PostgresIssuesRepository) RaiseIssue(ctx context.Context, issue *domain.Issue, datapoints []int64) (*domain.Issue, *domain.Action, error) {
	var action domain.Action

	err := runInTx(ctx, r.db, func(tx *sql.Tx) error {
		c, err := lockContext(ctx, tx, issue.ContextID)
		if err != nil {
			return err
		}

		c.ApplyRaise()
		if err := updateContextCounters(ctx, tx, c); err != nil {
			return err
		}

		issue.Status = domain.StatusNew
		issue.IsDeleted = 0
		err = tx.QueryRowContext(ctx, `
			INSERT INTO issues
				(context_id, title, description, priority, control_setting,
				 status, raised_by, assigned_to, is_deleted, last_update)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 0, NOW())
			RETURNING id, last_update`,
			issue.ContextID, issue.Title, issue.Description, issue.Priority,
			issue.ControlSetting, issue.Status, issue.RaisedBy, issue.AssignedTo).
			Scan(&issue.ID, &issue.LastUpdate)
		if err != nil {
			return fmt.Errorf("failed to insert issue: %w", err)
		}

		action = domain.Action{
			Description: issue.Description,
			ActionType:  domain.ActionRaise,
			ActionedBy:  issue.RaisedBy,
			IssueID:     &issue.ID,
		}
		if err := insertAction(ctx, tx, &action); err != nil {
			return err
		}

		if err := insertHistory(ctx, tx, &domain.HistoryEntry{
			ContextID:  c.ID,
			ActionedBy: issue.RaisedBy,
			ActionType: domain.ActionRaise,
			StateID:    domain.StateHasIssues,
			ActionID:   &action.ID,
			IssueID:    &issue.ID,
		}); err != nil {
			return err
		}

		for _, measurementID := range datapoints {
			var animalID int
			err := tx.QueryRowContext(ctx, `
				SELECT animal_id
				  FROM measurements_performed
				 WHERE measurement_id = $1 AND centre_id = $2
				   AND genotype_id = $3 AND strain_id = $4 AND parameter_id = $5`,
				measurementID, c.CentreID, c.GenotypeID, c.StrainID, c.ParameterID).
				Scan(&animalID)
			if err != nil {
				if err == sql.ErrNoRows {
					return fmt.Errorf("cited measurement %d: %w", measurementID, ErrNotFound)
				}
				return fmt.Errorf("failed to resolve cited measurement: %w", err)
			}
			_, err = tx.ExecContext(ctx, `
				INSERT INTO cited_data_points (issue_id, measurement_id, animal_id)
				VALUES ($1, $2, $3)`,
				issue.ID, measurementID, animalID)
			if err != nil {
				return fmt.Errorf("failed to insert cited data point: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	return issue, &action, nil
}

func (r *PostgresIssuesRepository) ApplyAction(ctx context.Context, action *domain.Action, newStatus int, bumpResolved bool) (*domain.Action, error) {
	if action.IssueID == nil {
		return nil, fmt.Errorf("action has no issue reference: %w", ErrNotFound)
	}

	err := runInTx(ctx, r.db, func(tx *sql.Tx) error {
		var issue domain.Issue
		var c domain.DataContext
		err := tx.QueryRowContext(ctx, `
			SELECT i.id, i.status, i.raised_by, i.context_id,
			       c.id, c.num_issues, c.num_resolved, c.state_id
			  FROM issues i
			  JOIN data_contexts c ON c.id = i.context_id
			 WHERE i.id = $1
			 FOR UPDATE OF i, c`, *action.IssueID).Scan(
			&issue.ID, &issue.Status, &issue.RaisedBy, &issue.ContextID,
			&c.ID, &c.NumIssues, &c.NumResolved, &c.StateID,
		)
		if err != nil {
			if err == sql.ErrNoRows {
				return ErrNotFound
			}
			return fmt.Errorf("failed to lock issue: %w", err)
		}

		if err := insertAction(ctx, tx, action); err != nil {
			return err
		}

		if err := insertHistory(ctx, tx, &domain.HistoryEntry{
			ContextID:  c.ID,
			ActionedBy: action.ActionedBy,
			ActionType: action.ActionType,
			StateID:    c.StateID,
			ActionID:   &action.ID,
			IssueID:    &issue.ID,
		}); err != nil {
			return err
		}

		if newStatus >= 0 {
			_, err := tx.ExecContext(ctx, `
				UPDATE issues SET status = $1, last_update = NOW() WHERE id = $2`,
				newStatus, issue.ID)
			if err != nil {
				return fmt.Errorf("failed to update issue status: %w", err)
			}

			if bumpResolved {
				before := c.NumResolved
				c.ApplyResolve()
				if c.NumResolved != before {
					if err := updateContextCounters(ctx, tx, &c); err != nil {
						return err
					}
				}
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return action, nil
}

func (r *PostgresIssuesRepository) DeleteIssue(ctx context.Context, issueID int64, actorID int) (bool, error) {
	deleted := false

	err := runInTx(ctx, r.db, func(tx *sql.Tx) error {
		var issue domain.Issue
		err := tx.QueryRowContext(ctx, `
			SELECT id, context_id, status, raised_by
			  FROM issues
			 WHERE id = $1
			 FOR UPDATE`, issueID).Scan(
			&issue.ID, &issue.ContextID, &issue.Status, &issue.RaisedBy,
		)
		if err != nil {
			if err == sql.ErrNoRows {
				return ErrNotFound
			}
			return fmt.Errorf("failed to lock issue: %w", err)
		}

		// issues may only be deleted by the user who raised them
		if issue.RaisedBy != actorID {
			return nil
		}

		c, err := lockContext(ctx, tx, issue.ContextID)
		if err != nil {
			return err
		}
		c.ApplyDelete(issue.Status == domain.StatusResolved)
		if err := updateContextCounters(ctx, tx, c); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE issues SET is_deleted = 1, last_update = NOW() WHERE id = $1`,
			issue.ID); err != nil {
			return fmt.Errorf("failed to soft-delete issue: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE history SET is_deleted = 1 WHERE issue_id = $1`,
			issue.ID); err != nil {
			return fmt.Errorf("failed to soft-delete history entries: %w", err)
		}

		deleted = true
		return nil
	})
	if err != nil {
		return false, err
	}

	return deleted, nil
}
