package service

import (
	"bytes"
	"testing"
	"time"

	"phenoqc/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestBuildIssueReport(t *testing.T) {
	issues := []models.IssueView{
		{
			ID:         100,
			Title:      "fluctuating body weight",
			Priority:   "medium",
			Status:     "resolved",
			RaisedBy:   "Jane Reviewer",
			Procedure:  "Body Composition",
			Parameter:  "Body weight",
			LastUpdate: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC).UnixMilli(),
		},
		{
			ID:       101,
			Title:    "missing metadata",
			Priority: "high",
			Status:   "new",
		},
	}

	report, err := BuildIssueReport(issues)
	require.NoError(t, err)
	require.NotEmpty(t, report)

	f, err := excelize.OpenReader(bytes.NewReader(report))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Issues")
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "ID", rows[0][0])
	assert.Equal(t, "Title", rows[0][1])

	assert.Equal(t, "100", rows[1][0])
	assert.Equal(t, "fluctuating body weight", rows[1][1])
	assert.Equal(t, "resolved", rows[1][4])
	assert.Equal(t, "2024-03-01 12:00:00", rows[1][10])

	assert.Equal(t, "101", rows[2][0])
}

func TestBuildIssueReport_Empty(t *testing.T) {
	report, err := BuildIssueReport(nil)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(report))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Issues")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Len(t, rows[0], len(issueReportHeaders))
}
