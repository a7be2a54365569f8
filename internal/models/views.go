package models

// API-facing view models. Persistence rows live in internal/domain; these are
// the enriched shapes the review front-end consumes (display names resolved
// from the metadata tables, actor labels resolved from the user directory).

// ContextView mirrors one data_contexts row.
type ContextView struct {
	ID              int64 `json:"id"`
	CentreID        int   `json:"cid"`
	PipelineID      int   `json:"lid"`
	GenotypeID      int   `json:"gid"`
	StrainID        int   `json:"sid"`
	ProcedureID     int   `json:"pid"`
	ParameterID     int   `json:"qid"`
	NumIssues       int   `json:"numIssues"`
	NumResolved     int   `json:"numResolved"`
	NumMeasurements int   `json:"numMeasurements"`
	StateID         int   `json:"stateId"`
}

// IssueView is one issue enriched for display.
type IssueView struct {
	ID             int64       `json:"id"`
	Title          string      `json:"title"`
	Description    string      `json:"description"`
	Priority       string      `json:"priority"`
	ControlSetting int         `json:"controlSetting"`
	Status         string      `json:"status"`
	RaisedBy       string      `json:"raisedBy"`
	RaisedByUID    int         `json:"raisedByUid"`
	AssignedTo     string      `json:"assignedTo"`
	LastUpdate     int64       `json:"lastUpdate"` // epoch milliseconds
	Context        ContextView `json:"context"`
	ProcedureKey   string      `json:"peid"`
	Procedure      string      `json:"procedure"`
	ParameterKey   string      `json:"qeid"`
	Parameter      string      `json:"parameter"`
}

// IssueList is a filtered page of issues plus the unpaged total for the
// same predicates.
type IssueList struct {
	Issues []IssueView `json:"issues"`
	Total  int64       `json:"total"`
}

// ActionView is one action enriched for display.
type ActionView struct {
	ID          int64  `json:"id"`
	Description string `json:"description"`
	ActionedBy  string `json:"actionedBy"`
	ActionType  string `json:"actionType"`
	LastUpdate  int64  `json:"lastUpdate"`
}

// HistoryView is one audit-trail entry enriched with the actor label.
type HistoryView struct {
	ID         int64  `json:"id"`
	ContextID  int64  `json:"contextId"`
	ActionedBy int    `json:"actionedBy"`
	User       string `json:"user"`
	ActionType string `json:"actionType"`
	State      int    `json:"stateId"`
	IssueID    *int64 `json:"issueId,omitempty"`
	ActionID   *int64 `json:"actionId,omitempty"`
	LastUpdate int64  `json:"lastUpdate"`
}

// CitedDataPointView is one cited measurement of an issue.
type CitedDataPointView struct {
	MeasurementID int64 `json:"measurementId"`
	AnimalID      int   `json:"animalId"`
}

// CitedDataPointList carries the citations of one issue plus their count.
type CitedDataPointList struct {
	DataPoints []CitedDataPointView `json:"datapoints"`
	Count      int                  `json:"count"`
}

// PipelineView is one pipeline selector entry.
type PipelineView struct {
	PipelineID int    `json:"lid"`
	Key        string `json:"key"`
	Name       string `json:"name"`
}

// ProcedureView is one procedure selector entry.
type ProcedureView struct {
	ProcedureID int    `json:"pid"`
	Key         string `json:"key"`
	Name        string `json:"name"`
}

// GeneStrainView is one genotype/strain selector entry.
type GeneStrainView struct {
	GenotypeID int    `json:"gid"`
	StrainID   int    `json:"sid"`
	Symbol     string `json:"symbol"`
	Strain     string `json:"strain"`
}

// ActionTypeView is one entry of the action-type legend.
type ActionTypeView struct {
	CID  int    `json:"cid"`
	Name string `json:"name"`
}
