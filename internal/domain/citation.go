package domain

// CitedDataPoint links an issue to one of the measurements that motivated it
// (cited_data_points table). Rows are created alongside the issue and never
// independently mutated.
type CitedDataPoint struct {
	ID            int64 `db:"id"`
	IssueID       int64 `db:"issue_id"`
	MeasurementID int64 `db:"measurement_id"`
	AnimalID      int   `db:"animal_id"`
}
