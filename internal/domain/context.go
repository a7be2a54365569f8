package domain

// Review state consistent identifiers (states.cid). The crawler seeds most of
// these; the service only ever writes StateHasIssues and the qcdone state,
// which is resolved by short name at runtime.
const (
	StateHasIssues = 5
)

// StateQcDone is the short name of the "QC done" review state.
const StateQcDone = "qcdone"

// ContextKey is the composite key identifying a data context: a unique
// (centre, pipeline, genotype, strain, procedure, parameter) combination.
type ContextKey struct {
	CentreID    int `db:"centre_id"`
	PipelineID  int `db:"pipeline_id"`
	GenotypeID  int `db:"genotype_id"`
	StrainID    int `db:"strain_id"`
	ProcedureID int `db:"procedure_id"`
	ParameterID int `db:"parameter_id"`
}

// DataContext holds the aggregate issue counters and review state for one
// context key (data_contexts table).
type DataContext struct {
	ID int64 `db:"id"`

	ContextKey

	// Aggregate counters, maintained incrementally at write time.
	// Invariant: 0 <= NumResolved <= NumIssues.
	NumIssues       int `db:"num_issues"`
	NumResolved     int `db:"num_resolved"`
	NumMeasurements int `db:"num_measurements"`

	// Current review state (states.cid).
	StateID int `db:"state_id"`
}

// ApplyRaise records a newly raised issue on the counters.
func (c *DataContext) ApplyRaise() {
	c.NumIssues++
}

// ApplyResolve records a resolved issue. Resolving the same issue twice must
// not overcount, so the increment is guarded by the counter ceiling.
func (c *DataContext) ApplyResolve() {
	if c.NumResolved < c.NumIssues {
		c.NumResolved++
	}
}

// ApplyDelete records a soft-deleted issue. wasResolved tells whether the
// deleted issue was counted in NumResolved. The resolved counter is clamped
// to the issue counter afterwards, so counters that drifted stay within the
// invariant instead of crossing it.
func (c *DataContext) ApplyDelete(wasResolved bool) {
	if c.NumIssues > 0 {
		c.NumIssues--
		if wasResolved && c.NumResolved > 0 {
			c.NumResolved--
		}
		if c.NumResolved > c.NumIssues {
			c.NumResolved = c.NumIssues
		}
		return
	}
	c.NumIssues = 0
	c.NumResolved = 0
}
