package repository

import (
	"context"
	"database/sql"
	"fmt"

	"phenoqc/internal/domain"
)

// PostgresContextsRepository implements ContextsRepository.
type PostgresContextsRepository struct {
	db *sql.DB
}

func NewPostgresContextsRepository(db *sql.DB) *PostgresContextsRepository {
	return &PostgresContextsRepository{db: db}
}

var _ ContextsRepository = (*PostgresContextsRepository)(nil)

const contextColumns = `
		id, centre_id, pipeline_id, genotype_id, strain_id,
		procedure_id, parameter_id,
		num_issues, num_resolved, num_measurements, state_id`

func scanContext(row rowScanner) (*domain.DataContext, error) {
	var c domain.DataContext
	err := row.Scan(
		&c.ID, &c.CentreID, &c.PipelineID, &c.GenotypeID, &c.StrainID,
		&c.ProcedureID, &c.ParameterID,
		&c.NumIssues, &c.NumResolved, &c.NumMeasurements, &c.StateID,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *PostgresContextsRepository) GetContext(ctx context.Context, id int64) (*domain.DataContext, error) {
	query := `SELECT` + contextColumns + ` FROM data_contexts WHERE id = $1`

	c, err := scanContext(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get context: %w", err)
	}
	return c, nil
}

func (r *PostgresContextsRepository) FindContext(ctx context.Context, key domain.ContextKey) (*domain.DataContext, error) {
	query := `SELECT` + contextColumns + `
	  FROM data_contexts
	 WHERE centre_id = $1 AND pipeline_id = $2 AND genotype_id = $3
	   AND strain_id = $4 AND procedure_id = $5 AND parameter_id = $6
	 LIMIT 1`

	c, err := scanContext(r.db.QueryRowContext(ctx, query,
		key.CentreID, key.PipelineID, key.GenotypeID,
		key.StrainID, key.ProcedureID, key.ParameterID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find context: %w", err)
	}
	return c, nil
}

// qcDoneStateID resolves the qcdone review state by its short name. The
// state row is seeded by the crawler, not hard-coded here.
func qcDoneStateID(ctx context.Context, tx *sql.Tx) (int, error) {
	var stateID int
	err := tx.QueryRowContext(ctx,
		`SELECT cid FROM states WHERE short_name = $1 LIMIT 1`,
		domain.StateQcDone).Scan(&stateID)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, fmt.Errorf("state %q: %w", domain.StateQcDone, ErrNotFound)
		}
		return 0, fmt.Errorf("failed to resolve qcdone state: %w", err)
	}
	return stateID, nil
}

func markContextQcDone(ctx context.Context, tx *sql.Tx, contextID int64, stateID, userID int) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE data_contexts SET state_id = $1 WHERE id = $2`,
		stateID, contextID)
	if err != nil {
		return fmt.Errorf("failed to update context state: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}

	return insertHistory(ctx, tx, &domain.HistoryEntry{
		ContextID:  contextID,
		ActionedBy: userID,
		ActionType: domain.ActionQcDone,
		StateID:    stateID,
	})
}

func (r *PostgresContextsRepository) MarkQcDone(ctx context.Context, contextID int64, userID int) error {
	return runInTx(ctx, r.db, func(tx *sql.Tx) error {
		stateID, err := qcDoneStateID(ctx, tx)
		if err != nil {
			return err
		}
		return markContextQcDone(ctx, tx, contextID, stateID, userID)
	})
}

func (r *PostgresContextsRepository) MarkGroupQcDone(ctx context.Context, contextID int64, userID int) (int, error) {
	marked := 0

	err := runInTx(ctx, r.db, func(tx *sql.Tx) error {
		c, err := lockContext(ctx, tx, contextID)
		if err != nil {
			return err
		}

		stateID, err := qcDoneStateID(ctx, tx)
		if err != nil {
			return err
		}

		// every parameter context under the same procedure
		rows, err := tx.QueryContext(ctx, `
			SELECT id
			  FROM data_contexts
			 WHERE centre_id = $1 AND pipeline_id = $2 AND genotype_id = $3
			   AND strain_id = $4 AND procedure_id = $5`,
			c.CentreID, c.PipelineID, c.GenotypeID, c.StrainID, c.ProcedureID)
		if err != nil {
			return fmt.Errorf("failed to list parameter group: %w", err)
		}
		var ids []int64
		for rows.Next() {
			var id int64
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return fmt.Errorf("failed to scan context id: %w", err)
			}
			ids = append(ids, id)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return fmt.Errorf("failed to list parameter group: %w", err)
		}

		for _, id := range ids {
			if err := markContextQcDone(ctx, tx, id, stateID, userID); err != nil {
				return err
			}
			marked++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return marked, nil
}
