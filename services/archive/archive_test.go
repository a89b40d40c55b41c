package archive

import (
	"context"
	"testing"

	"qareplay/lib/qaclient"

	"github.com/stretchr/testify/require"
)

func testComparison() qaclient.Comparison {
	return qaclient.Comparison{
		PreviousSession: qaclient.Session{
			Url:           "https://qa.example.com/clinic/api/qa/testlistinstances/800/",
			WorkCompleted: "2024-01-02T10:01:00Z",
		},
		NewSession: qaclient.Session{
			Url:           "https://qa.example.com/clinic/api/qa/testlistinstances/900/",
			WorkCompleted: "2024-05-06T09:00:00Z",
		},
		Rows: []qaclient.ComparisonRow{
			{Test: "Temperature", Previous: float64(22), New: float64(22), Equal: true},
			{Test: "T&P Correction", Previous: 56.8, New: 56.9, Equal: false},
		},
	}
}

func TestRecordAndListRuns(t *testing.T) {
	store, err := Open(":memory:")
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	runId, err := store.RecordComparison(ctx, "https://qa.example.com/clinic/api/", testComparison())
	require.NoError(t, err)
	require.NotZero(t, runId)

	runs, err := store.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	require.Equal(t, runId, runs[0].Id)
	require.Equal(t, "https://qa.example.com/clinic/api/qa/testlistinstances/800/", runs[0].PreviousSession)
	require.Equal(t, "2024-05-06T09:00:00Z", runs[0].NewCompleted)

	results, err := store.RunResults(ctx, runId)
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.Equal(t, "Temperature", results[0].Test)
	require.True(t, results[0].Equal)
	require.Equal(t, "56.8", results[1].PreviousValue)
	require.Equal(t, "56.9", results[1].NewValue)
	require.False(t, results[1].Equal)
}

func TestRunResultsEmpty(t *testing.T) {
	store, err := Open(":memory:")
	require.NoError(t, err)
	defer store.Close()

	results, err := store.RunResults(context.Background(), 12345)
	require.NoError(t, err)
	require.Empty(t, results)
}
